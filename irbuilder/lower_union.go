package irbuilder

import (
	"github.com/dscript/dsc/analyzer"
	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/ir"
)

func (b *Builder) lowerUnion(u *ast.UnionDef, substitutions map[string]ir.Expr) (*ir.Union, error) {
	scope := newScope(u.Params)
	out := &ir.Union{Name: u.Name}
	for _, c := range u.Cases {
		irCase := ir.UnionCase{Name: c.Name, Condition: b.lowerExpr(c.Condition, scope)}
		for _, item := range c.Body {
			if f, ok := item.(*ast.FieldDef); ok {
				scope.declareField(f.Name)
				typ := b.lowerType(f.Type, scope)
				if substitutions != nil {
					typ = substituteType(typ, substitutions)
				}
				irCase.Fields = append(irCase.Fields, ir.Field{
					Name:  f.Name,
					Type:  typ,
					Guard: b.lowerExpr(f.Condition, scope),
				})
			}
		}
		out.Cases = append(out.Cases, irCase)
	}
	if la, ok := b.az.UnionLayouts[u]; ok {
		out.TotalSize = la.TotalSize
		out.Alignment = la.Alignment
	}
	return out, nil
}

func (b *Builder) lowerEnum(e *ast.EnumDef) ir.Enum {
	out := ir.Enum{Name: e.Name, BaseType: b.lowerType(e.BaseType, nil), IsBitmask: e.IsBitmask}
	var next uint64
	for _, item := range e.Items {
		val := next
		if item.Value != nil {
			if folded, ok := analyzer.FoldConst(b.az, discardBag(), item.Value); ok {
				val = folded
			}
		}
		out.Items = append(out.Items, ir.EnumItem{Name: item.Name, Value: val})
		next = val + 1
	}
	return out
}

func (b *Builder) lowerSubtype(st *ast.SubtypeDef) ir.Subtype {
	scope := &scope{params: map[string]bool{}, fields: map[string]bool{"this": true}}
	return ir.Subtype{
		Name:       st.Name,
		BaseType:   b.lowerType(st.BaseType, nil),
		Constraint: b.lowerExpr(st.Constraint, scope),
	}
}

func (b *Builder) lowerConstraintDef(cn *ast.ConstraintDef) ir.Constraint {
	scope := newScope(cn.Params)
	params := make([]ir.Param, len(cn.Params))
	for i, p := range cn.Params {
		params[i] = ir.Param{Name: p.Name, Type: b.lowerType(p.Type, scope)}
	}
	return ir.Constraint{Name: cn.Name, Params: params, Condition: b.lowerExpr(cn.Condition, scope)}
}
