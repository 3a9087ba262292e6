package analyzer

import (
	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/diag"
)

// calculateSizes is Phase 5: compute field offsets, struct/union/choice
// total size and alignment, following the fixed packing rules.
// Aggregate-valued fields pull in their type's layout on demand, so
// declaration order between a struct and the types it embeds does not
// matter; a recursion guard keeps a (malformed) self-embedding struct
// from looping.
func calculateSizes(az *Analyzed, bag *diag.Bag) {
	l := &layouter{az: az, visiting: map[*ast.StructDef]bool{}}
	for _, mf := range az.Set.All() {
		for _, s := range mf.Module.Structs {
			l.ensureStruct(s)
		}
	}
	for _, mf := range az.Set.All() {
		for _, u := range mf.Module.Unions {
			l.ensureUnion(u)
		}
	}
	for _, mf := range az.Set.All() {
		for _, ch := range mf.Module.Choices {
			l.layoutChoice(ch)
		}
	}
}

type layouter struct {
	az       *Analyzed
	visiting map[*ast.StructDef]bool
}

// layoutInfo classifies a type for layout purposes.
type layoutInfo struct {
	size       int // statically-known size in bytes; 0 if unknown
	alignment  int
	isBitfield bool
	bitWidth   int
}

func (l *layouter) typeLayout(t ast.Type) layoutInfo {
	switch v := t.(type) {
	case *ast.PrimitiveType:
		sz := v.Kind.SizeBytes()
		return layoutInfo{size: sz, alignment: sz}
	case *ast.BooleanType:
		return layoutInfo{size: 1, alignment: 1}
	case *ast.FixedBitfieldType:
		return layoutInfo{isBitfield: true, bitWidth: v.Width}
	case *ast.ExprBitfieldType:
		width := 0
		if folded, ok := FoldConst(l.az, diag.NewBag(), v.Width); ok {
			width = int(folded)
		}
		return layoutInfo{isBitfield: true, bitWidth: width}
	case *ast.StringType:
		return layoutInfo{size: 0, alignment: 1} // size unknown until read
	case *ast.QualifiedName:
		sym, ok := l.az.ResolvedTypes[v]
		if !ok {
			return layoutInfo{size: 0, alignment: 1}
		}
		switch {
		case sym.Struct != nil:
			l.ensureStruct(sym.Struct)
			la := l.az.StructLayouts[sym.Struct]
			return layoutInfo{size: la.TotalSize, alignment: la.Alignment}
		case sym.Union != nil:
			l.ensureUnion(sym.Union)
			la := l.az.UnionLayouts[sym.Union]
			return layoutInfo{size: la.TotalSize, alignment: la.Alignment}
		case sym.Enum != nil:
			if prim, ok := sym.Enum.BaseType.(*ast.PrimitiveType); ok {
				sz := prim.Kind.SizeBytes()
				return layoutInfo{size: sz, alignment: sz}
			}
			return layoutInfo{size: 0, alignment: 1}
		case sym.Subtype != nil:
			if prim, ok := sym.Subtype.BaseType.(*ast.PrimitiveType); ok {
				sz := prim.Kind.SizeBytes()
				return layoutInfo{size: sz, alignment: sz}
			}
			return layoutInfo{size: 0, alignment: 1}
		default:
			return layoutInfo{size: 0, alignment: 1}
		}
	case *ast.FixedArrayType:
		elem := l.typeLayout(v.Element)
		if count, ok := FoldConst(l.az, diag.NewBag(), v.Size); ok {
			return layoutInfo{size: elem.size * int(count), alignment: elem.alignment}
		}
		return layoutInfo{size: 0, alignment: elem.alignment}
	default:
		return layoutInfo{size: 0, alignment: 1}
	}
}

// ensureStruct computes s's layout if it has not been computed yet.
func (l *layouter) ensureStruct(s *ast.StructDef) {
	if _, done := l.az.StructLayouts[s]; done || l.visiting[s] {
		return
	}
	l.visiting[s] = true
	defer delete(l.visiting, s)

	offset := 0
	maxAlign := 1
	var bitfieldRunBits int
	inBitfieldRun := false

	flushBitfieldRun := func() {
		if inBitfieldRun {
			bytes := (bitfieldRunBits + 7) / 8
			offset += bytes
			inBitfieldRun = false
			bitfieldRunBits = 0
		}
	}

	for _, item := range s.Body {
		switch v := item.(type) {
		case *ast.FieldDef:
			li := l.typeLayout(v.Type)
			if li.isBitfield {
				inBitfieldRun = true
				bitfieldRunBits += li.bitWidth
				continue
			}
			flushBitfieldRun()
			if li.alignment > 0 {
				offset = alignUp(offset, li.alignment)
			}
			l.az.FieldOffsets[v] = offset
			if li.alignment > maxAlign {
				maxAlign = li.alignment
			}
			offset += li.size
		case *ast.AlignDirective:
			flushBitfieldRun()
			offset = alignUp(offset, v.N)
			if v.N > maxAlign {
				maxAlign = v.N
			}
		case *ast.LabelDirective:
			flushBitfieldRun()
			// Label seeks are a runtime concern; they don't affect the
			// statically-computed layout total.
		}
	}
	flushBitfieldRun()
	total := alignUp(offset, maxAlign)
	l.az.StructLayouts[s] = SizeAlign{TotalSize: total, Alignment: maxAlign}
}

// ensureUnion computes u's layout if it has not been computed yet: size is
// the maximum case size, alignment the maximum case alignment.
func (l *layouter) ensureUnion(u *ast.UnionDef) {
	if _, done := l.az.UnionLayouts[u]; done {
		return
	}
	// Reserve the entry up front so a union whose case embeds itself (via
	// a struct) terminates with a zero-size placeholder instead of looping.
	l.az.UnionLayouts[u] = SizeAlign{TotalSize: 0, Alignment: 1}

	maxSize, maxAlign := 0, 1
	for _, c := range u.Cases {
		caseSize, caseAlign := 0, 1
		for _, item := range c.Body {
			if f, ok := item.(*ast.FieldDef); ok {
				li := l.typeLayout(f.Type)
				if li.alignment > caseAlign {
					caseAlign = li.alignment
				}
				caseSize += li.size
			}
		}
		if caseSize > maxSize {
			maxSize = caseSize
		}
		if caseAlign > maxAlign {
			maxAlign = caseAlign
		}
	}
	l.az.UnionLayouts[u] = SizeAlign{TotalSize: maxSize, Alignment: maxAlign}
}

func (l *layouter) layoutChoice(ch *ast.ChoiceDef) {
	selectorSize := 0
	if ch.On != nil {
		selectorSize = 4 // external selector of unknown type: 4-byte assumption
	} else if prim, ok := ch.DiscriminatorType.(*ast.PrimitiveType); ok {
		selectorSize = prim.Kind.SizeBytes()
	}
	maxCase := 0
	for _, cc := range ch.Cases {
		if f, ok := cc.Payload.(*ast.FieldDef); ok {
			li := l.typeLayout(f.Type)
			if li.size > maxCase {
				maxCase = li.size
			}
		}
	}
	l.az.ChoiceLayouts[ch] = SizeAlign{TotalSize: selectorSize + maxCase, Alignment: 1}
}

func alignUp(offset, alignment int) int {
	if alignment <= 1 {
		return offset
	}
	rem := offset % alignment
	if rem == 0 {
		return offset
	}
	return offset + (alignment - rem)
}
