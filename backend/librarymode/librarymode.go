// Package librarymode implements the shared, language-neutral half of the
// Library-Mode Generator: the introspection metadata every
// opting-in backend's implementation artifact carries, plus the artifact
// kind enumeration a backend's RenderLibrary splits its output into.
package librarymode

import "github.com/dscript/dsc/ir"

// Kind distinguishes the three artifacts a library-mode backend emits
// instead of one monolithic file.
type Kind int

const (
	KindRuntime Kind = iota
	KindPublicSurface
	KindImplementation
)

func (k Kind) String() string {
	switch k {
	case KindRuntime:
		return "runtime"
	case KindPublicSurface:
		return "public-surface"
	case KindImplementation:
		return "implementation"
	default:
		return "unknown"
	}
}

// FieldInfo is one reflection record: a field's name, its declared type
// text in the target language, and its byte offset within the struct if
// statically known.
type FieldInfo struct {
	Name         string
	DeclaredType string
	// Offset is the field's byte offset, or -1 if it follows a
	// variable-length field and has no static offset.
	Offset int
}

// HasStaticOffset reports whether Offset is known.
func (f FieldInfo) HasStaticOffset() bool { return f.Offset >= 0 }

// StructIntrospection is the reflection metadata for one struct, the
// per-struct ordered field list the implementation artifact carries.
type StructIntrospection struct {
	Name   string
	Fields []FieldInfo
}

// BuildIntrospection derives reflection metadata for every struct in
// bundle, in bundle declaration order. typeName renders an IR type
// reference using the calling backend's own TypeName so the recorded
// "declared type name" matches what the implementation artifact actually
// emits for that field.
//
// A field's offset is tracked only while every field seen so far in the
// struct has had a statically known size;
// once a variable-length field (a string, an unsized/ranged array, or a
// struct that itself went unsized) is seen, every subsequent field in that
// struct is recorded with Offset -1.
func BuildIntrospection(bundle *ir.Bundle, typeName func(ir.TypeRef) string) []StructIntrospection {
	sizes := staticSizes(bundle)

	out := make([]StructIntrospection, 0, len(bundle.Structs))
	for _, s := range bundle.Structs {
		info := StructIntrospection{Name: s.Name}
		offset := 0
		known := true
		for _, f := range s.Fields {
			fi := FieldInfo{Name: f.Name, DeclaredType: typeName(f.Type), Offset: -1}
			if known {
				fi.Offset = offset
			}
			info.Fields = append(info.Fields, fi)
			if !known {
				continue
			}
			sz, ok := sizes.sizeOf(f.Type)
			if !ok {
				known = false
				continue
			}
			offset += sz
		}
		out = append(out, info)
	}
	return out
}

// staticSizeTable memoizes each named struct's total size so nested
// struct-valued fields can contribute a known size without re-walking the
// whole bundle per field.
type staticSizeTable struct {
	structSize map[string]int
}

func staticSizes(bundle *ir.Bundle) staticSizeTable {
	t := staticSizeTable{structSize: map[string]int{}}
	for _, s := range bundle.Structs {
		t.structSize[s.Name] = s.TotalSize
	}
	return t
}

// Tracker computes field offsets incrementally, the same way staticSizeTable
// does for a whole bundle at once, for a backend whose RenderLibrary only
// sees the command stream rather than the IR bundle it was built from. Each
// struct the backend renders gets its own FieldOffsetState from StartStruct;
// the resulting total size is fed back with FinishStruct so a later struct
// that embeds this one by name can still resolve a static size.
type Tracker struct {
	table staticSizeTable
}

// NewTracker returns a Tracker with no struct sizes recorded yet.
func NewTracker() *Tracker {
	return &Tracker{table: staticSizeTable{structSize: map[string]int{}}}
}

// StartStruct begins offset tracking for one struct's field list.
func (t *Tracker) StartStruct() *FieldOffsetState {
	return &FieldOffsetState{tracker: t, known: true}
}

// FinishStruct records name's total size for later structs' nested fields,
// if every field in state stayed statically sized.
func (t *Tracker) FinishStruct(name string, state *FieldOffsetState) {
	if state.known {
		t.table.structSize[name] = state.offset
	}
}

// FieldOffsetState is the running offset for one struct being walked field
// by field in declaration order.
type FieldOffsetState struct {
	tracker *Tracker
	offset  int
	known   bool
}

// Next returns t's offset within the struct (or -1 once a prior field's size
// was not statically known) and advances past t for the next field.
func (s *FieldOffsetState) Next(t ir.TypeRef) int {
	if !s.known {
		return -1
	}
	off := s.offset
	sz, ok := s.tracker.table.sizeOf(t)
	if !ok {
		s.known = false
		return off
	}
	s.offset += sz
	return off
}

func (t staticSizeTable) sizeOf(ref ir.TypeRef) (int, bool) {
	switch v := ref.(type) {
	case *ir.PrimitiveTypeRef:
		return v.SizeBytes, true
	case *ir.BooleanTypeRef:
		return 1, true
	case *ir.BitfieldTypeRef:
		return 0, v.Width != nil // width-by-expression bitfields have no static contribution
	case *ir.FixedArrayTypeRef:
		elemSz, ok := t.sizeOf(v.Element)
		if !ok {
			return 0, false
		}
		lit, ok := v.Size.(*ir.IntLiteral)
		if !ok {
			return 0, false // a non-constant size expression leaves the offset unknown from here on
		}
		return elemSz * int(lit.Value), true
	case *ir.NamedTypeRef:
		if v.Kind == ir.NamedStruct {
			if sz, ok := t.structSize[v.Name]; ok {
				return sz, true
			}
		}
		return 0, false
	default:
		return 0, false
	}
}
