package irbuilder

import (
	"github.com/dscript/dsc/analyzer"
	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/ir"
)

// lowerChoice lowers a choice definition, computing the restore-position
// flag for each inline-discriminator case. An inline-
// discriminator choice owns its selector bytes, so the emitted reader must
// always save the cursor before reading the discriminator and restore it
// before dispatching to the selected case's payload reader — otherwise a
// payload that begins with (or, for a bare-primitive payload, simply *is*)
// the discriminator value would read the wrong bytes. Every inline-
// discriminator case restores, whether its payload is an aggregate whose
// first field overlaps the discriminator or a bare primitive field that
// reuses the discriminator byte as its own value. An external-selector
// choice never restores, since its selector is a separate, already-
// resolved field read before the choice even starts.
func (b *Builder) lowerChoice(ch *ast.ChoiceDef) (*ir.Choice, error) {
	out := &ir.Choice{Name: ch.Name}
	scope := newScope(nil)

	isInline := ch.On == nil
	if isInline {
		out.DiscriminatorType = b.lowerType(ch.DiscriminatorType, scope)
	} else {
		out.Selector = b.lowerExpr(ch.On, scope)
	}

	for _, cc := range ch.Cases {
		values := make([]ir.Expr, len(cc.Values))
		for i, v := range cc.Values {
			values[i] = b.lowerCaseValue(v, scope)
		}
		payloadType := b.lowerChoicePayload(cc.Payload, scope)
		irCase := ir.ChoiceCase{
			Name:      choiceCaseName(cc.Payload),
			IsDefault: cc.IsDefault,
			Mode:      cc.Mode,
			Values:    values,
			Payload:   payloadType,
			Restore:   isInline,
		}
		b.az.ChoiceRestore[cc] = irCase.Restore
		out.Cases = append(out.Cases, irCase)
	}

	if la, ok := b.az.ChoiceLayouts[ch]; ok {
		out.TotalSize = la.TotalSize
		out.Alignment = la.Alignment
	}
	return out, nil
}

// lowerCaseValue lowers one case value, resolving a value that folds to a
// compile-time constant — including one that names an enum item, e.g.
// `case Color.RED:` — to its integer form, so the emitted matcher only
// ever compares against integers, never a symbolic reference.
func (b *Builder) lowerCaseValue(v ast.Expr, scope *scope) ir.Expr {
	if folded, ok := analyzer.FoldConst(b.az, discardBag(), v); ok {
		return &ir.IntLiteral{Value: folded}
	}
	if folded, ok := b.foldEnumItem(v); ok {
		return &ir.IntLiteral{Value: folded}
	}
	return b.lowerExpr(v, scope)
}

// foldEnumItem resolves `EnumName.ItemName` (and a bare item name unique
// across visible enums) to the item's folded integer value.
func (b *Builder) foldEnumItem(v ast.Expr) (uint64, bool) {
	var enumName, itemName string
	switch e := v.(type) {
	case *ast.FieldAccess:
		base, ok := e.Base.(*ast.Identifier)
		if !ok {
			return 0, false
		}
		enumName, itemName = base.Name, e.Field
	case *ast.Identifier:
		itemName = e.Name
	default:
		return 0, false
	}
	for _, mf := range b.az.Set.All() {
		for _, ed := range mf.Module.Enums {
			if enumName != "" && ed.Name != enumName {
				continue
			}
			var next uint64
			for _, item := range ed.Items {
				val := next
				if item.Value != nil {
					if folded, ok := analyzer.FoldConst(b.az, discardBag(), item.Value); ok {
						val = folded
					}
				}
				if item.Name == itemName {
					return val, true
				}
				next = val + 1
			}
		}
	}
	return 0, false
}

// lowerChoicePayload lowers a choice case's single payload field's type.
func (b *Builder) lowerChoicePayload(item ast.StructBodyItem, scope *scope) ir.TypeRef {
	f, ok := item.(*ast.FieldDef)
	if !ok {
		return nil
	}
	return b.lowerType(f.Type, scope)
}

// choiceCaseName recovers the payload field's own name, the variant arm's
// identifier after Phase 0 desugaring guarantees Payload is always a
// FieldDef.
func choiceCaseName(item ast.StructBodyItem) string {
	if f, ok := item.(*ast.FieldDef); ok {
		return f.Name
	}
	return ""
}
