package command

import "github.com/dscript/dsc/ir"

// Expr is the command stream's expression payload: it carries the IR
// expression verbatim plus the context a language-specific expression
// sub-renderer needs to turn it into source text — the current
// "object name" (this/self/obj), and whether a bare field reference must be
// prefixed by it.
type Expr struct {
	IR ir.Expr

	// ObjectName is the identifier the enclosing reader binds to the value
	// under construction ("this", "self", "obj", ...); empty outside of a
	// struct reader (e.g. inside a free function).
	ObjectName string

	// PrefixFields is true when a bare FieldRef must be rendered as
	// ObjectName.Field rather than a bare local variable — true inside
	// struct, union and choice readers and struct method bodies, false in a
	// subtype validator and a union's trial reader.
	PrefixFields bool
}

// NewExpr wraps an IR expression with the ambient rendering context of ctx.
func NewExpr(e ir.Expr, ctx Context) Expr {
	return Expr{IR: e, ObjectName: ctx.ObjectName, PrefixFields: ctx.PrefixFields}
}

// Context is the ambient state threaded through one reader or method body
// while the builder emits its commands.
type Context struct {
	ObjectName   string
	PrefixFields bool
	// InMethod is true while lowering a struct method body rather than a
	// generated reader; an expression sub-renderer may use it to decide
	// whether "this" is implicit or must be spelled out.
	InMethod bool
}
