package ast

// PrimitiveKind is the signedness+width family of a primitive type.
type PrimitiveKind int

const (
	PrimUnsigned8 PrimitiveKind = iota
	PrimUnsigned16
	PrimUnsigned32
	PrimUnsigned64
	PrimUnsigned128
	PrimSigned8
	PrimSigned16
	PrimSigned32
	PrimSigned64
	PrimSigned128
)

// SizeBytes returns the storage width of the primitive kind in bytes.
func (k PrimitiveKind) SizeBytes() int {
	switch k {
	case PrimUnsigned8, PrimSigned8:
		return 1
	case PrimUnsigned16, PrimSigned16:
		return 2
	case PrimUnsigned32, PrimSigned32:
		return 4
	case PrimUnsigned64, PrimSigned64:
		return 8
	case PrimUnsigned128, PrimSigned128:
		return 16
	default:
		return 0
	}
}

// IsSigned reports whether the primitive kind is a signed integer family.
func (k PrimitiveKind) IsSigned() bool {
	switch k {
	case PrimSigned8, PrimSigned16, PrimSigned32, PrimSigned64, PrimSigned128:
		return true
	default:
		return false
	}
}

// Type is the closed sum of type node kinds.
type Type interface {
	typeNode()
	Pos() Position
}

// PrimitiveType is an integer type with a width/signedness and byte order.
type PrimitiveType struct {
	Position  Position
	Kind      PrimitiveKind
	ByteOrder ByteOrder
}

func (*PrimitiveType) typeNode()        {}
func (t *PrimitiveType) Pos() Position { return t.Position }

// BooleanType is the boolean primitive.
type BooleanType struct {
	Position Position
}

func (*BooleanType) typeNode()        {}
func (t *BooleanType) Pos() Position { return t.Position }

// StringType is a null-terminated string.
type StringType struct {
	Position Position
}

func (*StringType) typeNode()        {}
func (t *StringType) Pos() Position { return t.Position }

// FixedBitfieldType is `bit:N` — a bitfield of a compile-time literal width.
type FixedBitfieldType struct {
	Position Position
	Width    int
}

func (*FixedBitfieldType) typeNode()        {}
func (t *FixedBitfieldType) Pos() Position { return t.Position }

// ExprBitfieldType is `bit<expr>` — a bitfield whose width is an expression,
// possibly referencing another field for a runtime width.
type ExprBitfieldType struct {
	Position Position
	Width    Expr
}

func (*ExprBitfieldType) typeNode()        {}
func (t *ExprBitfieldType) Pos() Position { return t.Position }

// FixedArrayType is `T[N]`.
type FixedArrayType struct {
	Position Position
	Element  Type
	Size     Expr
}

func (*FixedArrayType) typeNode()        {}
func (t *FixedArrayType) Pos() Position { return t.Position }

// RangedArrayType is `T[..hi]` (Min == nil) or `T[lo..hi]`; Hi is exclusive.
type RangedArrayType struct {
	Position Position
	Element  Type
	Min      Expr // optional
	Max      Expr
}

func (*RangedArrayType) typeNode()        {}
func (t *RangedArrayType) Pos() Position { return t.Position }

// UnsizedArrayType is `T[]`; it must appear last in a struct body.
type UnsizedArrayType struct {
	Position Position
	Element  Type
}

func (*UnsizedArrayType) typeNode()        {}
func (t *UnsizedArrayType) Pos() Position { return t.Position }

// QualifiedName is an unresolved dotted type reference, e.g. `a.b.Name`.
type QualifiedName struct {
	Position Position
	Parts    []string
	// Args is the (possibly empty) explicit argument list at a type use
	// site, e.g. `Packet(4, flags)`.
	Args []Expr
}

func (*QualifiedName) typeNode()        {}
func (t *QualifiedName) Pos() Position { return t.Position }

// Dotted joins Parts with '.'.
func (q *QualifiedName) Dotted() string {
	out := q.Parts[0]
	for _, p := range q.Parts[1:] {
		out += "." + p
	}
	return out
}
