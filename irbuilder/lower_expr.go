package irbuilder

import (
	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/ir"
)

// lowerExpr re-expresses an AST expression as an IR expression, preserving
// operator identity and operand order. A bare
// identifier becomes a parameter_ref, field_ref, or constant_ref depending
// on what it resolves to in scope; the caller-supplied scope (struct
// parameters, already-read fields) is consulted first, so a parameter or
// field shadows a constant of the same name, and constants are tried next.
func (b *Builder) lowerExpr(e ast.Expr, scope *scope) ir.Expr {
	switch v := e.(type) {
	case nil:
		return nil
	case *ast.IntLiteral:
		return &ir.IntLiteral{Value: v.Value}
	case *ast.BoolLiteral:
		return &ir.BoolLiteral{Value: v.Value}
	case *ast.StringLiteral:
		return &ir.StringLiteral{Value: v.Value}
	case *ast.Identifier:
		return b.lowerIdentifier(v, scope)
	case *ast.UnaryExpr:
		return &ir.UnaryExpr{Op: v.Op, Operand: b.lowerExpr(v.Operand, scope)}
	case *ast.BinaryExpr:
		return &ir.BinaryExpr{Op: v.Op, Left: b.lowerExpr(v.Left, scope), Right: b.lowerExpr(v.Right, scope)}
	case *ast.TernaryExpr:
		return &ir.TernaryExpr{Cond: b.lowerExpr(v.Cond, scope), Then: b.lowerExpr(v.Then, scope), Else: b.lowerExpr(v.Else, scope)}
	case *ast.FieldAccess:
		return &ir.FieldAccess{Base: b.lowerExpr(v.Base, scope), Field: v.Field}
	case *ast.ArrayIndex:
		return &ir.ArrayIndex{Base: b.lowerExpr(v.Base, scope), Index: b.lowerExpr(v.Index, scope)}
	case *ast.FunctionCall:
		args := make([]ir.Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = b.lowerExpr(a, scope)
		}
		return &ir.FunctionCall{Name: v.Name, Args: args}
	default:
		return nil
	}
}

// scope tracks the parameter and field names visible while lowering one
// aggregate body, so a bare identifier can be classified without a second
// AST pass.
type scope struct {
	params map[string]bool
	fields map[string]bool
}

func newScope(params []ast.Param) *scope {
	s := &scope{params: map[string]bool{}, fields: map[string]bool{}}
	for _, p := range params {
		s.params[p.Name] = true
	}
	return s
}

func (s *scope) declareField(name string) { s.fields[name] = true }

func (b *Builder) lowerIdentifier(id *ast.Identifier, scope *scope) ir.Expr {
	if scope != nil {
		if scope.params[id.Name] {
			return &ir.ParameterRef{Name: id.Name}
		}
		if scope.fields[id.Name] {
			return &ir.FieldRef{Name: id.Name}
		}
	}
	if _, ok := b.az.Universe.ResolveConstant(id.Name); ok {
		return &ir.ConstantRef{Name: id.Name}
	}
	// Unresolvable outside of the synthesized scopes is left as a field
	// reference; it is the common case for a subtype's "this".
	return &ir.FieldRef{Name: id.Name}
}
