package irbuilder

import (
	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/ir"
)

// lowerStruct lowers a non-parameterized struct, or the base body used to
// build a monomorphized instance when substitutions is non-nil (a map from
// parameter name to the already-lowered argument expression it is being
// replaced by).
func (b *Builder) lowerStruct(s *ast.StructDef, substitutions map[string]ir.Expr) (*ir.Struct, error) {
	scope := newScope(s.Params)
	out := &ir.Struct{Name: s.Name}

	var runCounter int
	var currentRun string
	inRun := false
	var pendingLabel ast.Expr
	pendingAlign := 0

	for _, item := range s.Body {
		switch v := item.(type) {
		case *ast.FieldDef:
			scope.declareField(v.Name)
			typ := b.lowerType(v.Type, scope)
			if substitutions != nil {
				typ = substituteType(typ, substitutions)
			}
			field := ir.Field{
				Name:      v.Name,
				Type:      typ,
				Guard:     b.lowerExpr(v.Condition, scope),
				LabelSeek: b.lowerExpr(pendingLabel, scope),
				AlignTo:   pendingAlign,
			}
			pendingLabel = nil
			pendingAlign = 0
			if v.Constraint != nil {
				// An inline constraint expression is lowered as an
				// anonymous application: index -1 signals "evaluate Args[0]
				// directly" to the command builder rather than indexing
				// into the bundle's named Constraints list.
				field.Applied = append(field.Applied, ir.ConstraintApplication{
					ConstraintIndex: -1,
					Args:            []ir.Expr{b.lowerExpr(v.Constraint, scope)},
				})
			}
			if bf, isBitfield := typ.(*ir.BitfieldTypeRef); isBitfield && bf.Width != nil {
				if !inRun {
					inRun = true
					runCounter++
					currentRun = runName(s.Name, runCounter)
				}
				field.BitfieldRun = currentRun
			} else {
				// Non-bitfield fields and runtime-width bitfields (whose
				// covering byte count is unknowable at build time) both end
				// the current run.
				inRun = false
			}
			out.Fields = append(out.Fields, field)
		case *ast.LabelDirective:
			inRun = false
			pendingLabel = v.Target
		case *ast.AlignDirective:
			inRun = false
			pendingAlign = v.N
		case *ast.FunctionDef:
			out.Methods = append(out.Methods, b.lowerFunction(v, scope))
		}
	}

	if substitutions == nil {
		if la, ok := b.az.StructLayouts[s]; ok {
			out.TotalSize = la.TotalSize
			out.Alignment = la.Alignment
		}
	}
	return out, nil
}

func runName(structName string, n int) string {
	return structName + "__bitrun" + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func (b *Builder) lowerFunction(f *ast.FunctionDef, scope *scope) ir.Method {
	params := make([]ir.Param, len(f.Params))
	for i, p := range f.Params {
		params[i] = ir.Param{Name: p.Name, Type: b.lowerType(p.Type, scope)}
	}
	var retType ir.TypeRef
	if f.ReturnType != nil {
		retType = b.lowerType(f.ReturnType, scope)
	}
	body := make([]ir.Stmt, 0, len(f.Body))
	for _, st := range f.Body {
		switch v := st.(type) {
		case *ast.ReturnStmt:
			body = append(body, &ir.ReturnStmt{Value: b.lowerExpr(v.Value, scope)})
		case *ast.ExprStmt:
			body = append(body, &ir.ExprStmt{Value: b.lowerExpr(v.Value, scope)})
		}
	}
	return ir.Method{Name: f.Name, Params: params, ReturnType: retType, Body: body}
}

// instantiateStruct builds the concrete IR struct for a queued
// monomorphization job: the base definition's body is lowered again with
// every parameter reference substituted by the call site's argument
// expressions. The parameterized base definition
// itself is never appended to the bundle.
func (b *Builder) instantiateStruct(job monomorphJob) (*ir.Struct, error) {
	base := b.findStructDef(job.baseStructName)
	if base == nil {
		return nil, ErrInconsistentAnalysis
	}
	scope := newScope(nil) // params are resolved to concrete args below, not left as ParameterRef
	subs := map[string]ir.Expr{}
	for i, p := range base.Params {
		if i < len(job.args) {
			subs[p.Name] = b.lowerExpr(job.args[i], scope)
		}
	}
	lowered, err := b.lowerStruct(base, subs)
	if err != nil {
		return nil, err
	}
	lowered.Name = job.instanceName
	if la, ok := b.az.StructLayouts[base]; ok {
		lowered.TotalSize = la.TotalSize
		lowered.Alignment = la.Alignment
	}
	return lowered, nil
}

func (b *Builder) findStructDef(name string) *ast.StructDef {
	for _, mf := range b.az.Set.All() {
		for _, s := range mf.Module.Structs {
			if s.Name == name {
				return s
			}
		}
	}
	return nil
}

// substituteType replaces any ParameterRef appearing in size/width
// expressions within typ with its substituted IR expression.
func substituteType(typ ir.TypeRef, subs map[string]ir.Expr) ir.TypeRef {
	switch v := typ.(type) {
	case *ir.FixedArrayTypeRef:
		return &ir.FixedArrayTypeRef{Element: substituteType(v.Element, subs), Size: substituteExpr(v.Size, subs)}
	case *ir.RangedArrayTypeRef:
		return &ir.RangedArrayTypeRef{Element: substituteType(v.Element, subs), Min: substituteExpr(v.Min, subs), Max: substituteExpr(v.Max, subs)}
	case *ir.VariableArrayTypeRef:
		return &ir.VariableArrayTypeRef{Element: substituteType(v.Element, subs)}
	case *ir.BitfieldTypeRef:
		if v.WidthExpr != nil {
			return &ir.BitfieldTypeRef{WidthExpr: substituteExpr(v.WidthExpr, subs)}
		}
		return v
	default:
		return typ
	}
}

func substituteExpr(e ir.Expr, subs map[string]ir.Expr) ir.Expr {
	switch v := e.(type) {
	case nil:
		return nil
	case *ir.ParameterRef:
		if sub, ok := subs[v.Name]; ok {
			return sub
		}
		return v
	case *ir.BinaryExpr:
		return &ir.BinaryExpr{Op: v.Op, Left: substituteExpr(v.Left, subs), Right: substituteExpr(v.Right, subs)}
	case *ir.UnaryExpr:
		return &ir.UnaryExpr{Op: v.Op, Operand: substituteExpr(v.Operand, subs)}
	default:
		return e
	}
}
