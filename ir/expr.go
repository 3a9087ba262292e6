// Package ir defines the flat, language-neutral Intermediate Representation
//: an IR bundle owns everything it references — no AST
// pointers, only owned names and indices — so it can outlive the AST and be
// handed to multiple backends in sequence.
package ir

import "github.com/dscript/dsc/ast"

// Expr is the closed sum of IR expression kinds: the AST algebra plus
// parameter_ref, field_ref, and constant_ref.
type Expr interface {
	irExprNode()
}

type IntLiteral struct{ Value uint64 }

func (*IntLiteral) irExprNode() {}

type BoolLiteral struct{ Value bool }

func (*BoolLiteral) irExprNode() {}

type StringLiteral struct{ Value string }

func (*StringLiteral) irExprNode() {}

type UnaryExpr struct {
	Op      ast.UnaryOp
	Operand Expr
}

func (*UnaryExpr) irExprNode() {}

type BinaryExpr struct {
	Op    ast.BinaryOp
	Left  Expr
	Right Expr
}

func (*BinaryExpr) irExprNode() {}

type TernaryExpr struct {
	Cond, Then, Else Expr
}

func (*TernaryExpr) irExprNode() {}

type FieldAccess struct {
	Base  Expr
	Field string
}

func (*FieldAccess) irExprNode() {}

type ArrayIndex struct {
	Base, Index Expr
}

func (*ArrayIndex) irExprNode() {}

type FunctionCall struct {
	Name string
	Args []Expr
}

func (*FunctionCall) irExprNode() {}

// ParameterRef references a struct's own declared parameter by name.
type ParameterRef struct{ Name string }

func (*ParameterRef) irExprNode() {}

// FieldRef references a previously-read field of the enclosing aggregate by name.
type FieldRef struct{ Name string }

func (*FieldRef) irExprNode() {}

// ConstantRef references a bundle-level constant by name.
type ConstantRef struct{ Name string }

func (*ConstantRef) irExprNode() {}
