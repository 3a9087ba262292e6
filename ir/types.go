package ir

import "github.com/dscript/dsc/ast"

// PrimitiveKind mirrors ast.PrimitiveKind; re-declared here so the IR never
// references an AST type.
type PrimitiveKind = ast.PrimitiveKind

// TypeRef is the closed sum of IR type reference kinds.
type TypeRef interface {
	irTypeNode()
}

type PrimitiveTypeRef struct {
	Kind      PrimitiveKind
	ByteOrder ast.ByteOrder
	SizeBytes int
}

func (*PrimitiveTypeRef) irTypeNode() {}

type BooleanTypeRef struct{}

func (*BooleanTypeRef) irTypeNode() {}

type StringTypeRef struct{}

func (*StringTypeRef) irTypeNode() {}

type BitfieldTypeRef struct {
	// Width is nil when WidthExpr is set (width-by-expression); exactly one is set.
	Width     *int
	WidthExpr Expr
}

func (*BitfieldTypeRef) irTypeNode() {}

type FixedArrayTypeRef struct {
	Element TypeRef
	Size    Expr
}

func (*FixedArrayTypeRef) irTypeNode() {}

type VariableArrayTypeRef struct {
	Element TypeRef
	Size    Expr
}

func (*VariableArrayTypeRef) irTypeNode() {}

type RangedArrayTypeRef struct {
	Element  TypeRef
	Min, Max Expr // Min optional
}

func (*RangedArrayTypeRef) irTypeNode() {}

// NamedTypeRef references a struct/union/enum/choice/subtype by its owned,
// already-monomorphized name.
type NamedTypeRef struct {
	Name string
	Kind NamedKind
}

func (*NamedTypeRef) irTypeNode() {}

// NamedKind distinguishes which bundle collection a NamedTypeRef points into.
type NamedKind int

const (
	NamedStruct NamedKind = iota
	NamedUnion
	NamedEnum
	NamedChoice
	NamedSubtype
)
