package analyzer

import (
	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/diag"
)

// resolveNames is Phase 2: resolve every qualified-name node appearing in a
// type position against the universe, in the fixed kind order. Expression-
// position identifiers are never errored here.
func resolveNames(az *Analyzed, bag *diag.Bag) {
	for _, mf := range az.Set.All() {
		resolveModuleNames(az, bag, mf.Module)
	}
}

func resolveModuleNames(az *Analyzed, bag *diag.Bag, m *ast.Module) {
	for _, c := range m.Constants {
		resolveType(az, bag, c.Type)
		resolveExpr(az, bag, c.Value)
	}
	for _, s := range m.Structs {
		for _, item := range s.Body {
			resolveStructBodyItem(az, bag, item)
		}
	}
	for _, u := range m.Unions {
		for _, c := range u.Cases {
			resolveExpr(az, bag, c.Condition)
			for _, item := range c.Body {
				resolveStructBodyItem(az, bag, item)
			}
		}
	}
	for _, e := range m.Enums {
		resolveType(az, bag, e.BaseType)
		for _, item := range e.Items {
			resolveExpr(az, bag, item.Value)
		}
	}
	for _, ch := range m.Choices {
		resolveExpr(az, bag, ch.On)
		if ch.DiscriminatorType != nil {
			resolveType(az, bag, ch.DiscriminatorType)
		}
		for _, cc := range ch.Cases {
			for _, v := range cc.Values {
				resolveExpr(az, bag, v)
			}
			resolveStructBodyItem(az, bag, cc.Payload)
		}
	}
	for _, st := range m.Subtypes {
		resolveType(az, bag, st.BaseType)
		resolveExpr(az, bag, st.Constraint)
	}
	for _, cn := range m.Constraints {
		for _, p := range cn.Params {
			resolveType(az, bag, p.Type)
		}
		resolveExpr(az, bag, cn.Condition)
	}
}

func resolveStructBodyItem(az *Analyzed, bag *diag.Bag, item ast.StructBodyItem) {
	switch v := item.(type) {
	case *ast.FieldDef:
		resolveType(az, bag, v.Type)
		resolveExpr(az, bag, v.Condition)
		resolveExpr(az, bag, v.Constraint)
		resolveExpr(az, bag, v.Default)
	case *ast.FunctionDef:
		for _, p := range v.Params {
			resolveType(az, bag, p.Type)
		}
		if v.ReturnType != nil {
			resolveType(az, bag, v.ReturnType)
		}
		for _, st := range v.Body {
			switch s := st.(type) {
			case *ast.ReturnStmt:
				resolveExpr(az, bag, s.Value)
			case *ast.ExprStmt:
				resolveExpr(az, bag, s.Value)
			}
		}
	case *ast.LabelDirective:
		resolveExpr(az, bag, v.Target)
	}
}

func resolveType(az *Analyzed, bag *diag.Bag, t ast.Type) {
	if t == nil {
		return
	}
	switch v := t.(type) {
	case *ast.QualifiedName:
		if sym, ok := az.Universe.ResolveType(v.Dotted()); ok {
			az.ResolvedTypes[v] = sym
		} else {
			suggestion := "Check spelling and imports"
			if close, ok := SuggestClosest(v.Dotted(), candidateTypeNames(az.Universe, az.Tables)); ok {
				suggestion = "Did you mean '" + close + "'? Otherwise check spelling and imports"
			}
			bag.Add(diag.Diagnostic{
				Level:      diag.LevelError,
				Code:       diag.EUndefinedType,
				Position:   v.Position,
				Message:    "undefined type '" + v.Dotted() + "'",
				Suggestion: suggestion,
			})
		}
		for _, a := range v.Args {
			resolveExpr(az, bag, a)
		}
	case *ast.FixedArrayType:
		resolveType(az, bag, v.Element)
		resolveExpr(az, bag, v.Size)
	case *ast.RangedArrayType:
		resolveType(az, bag, v.Element)
		resolveExpr(az, bag, v.Min)
		resolveExpr(az, bag, v.Max)
	case *ast.UnsizedArrayType:
		resolveType(az, bag, v.Element)
	case *ast.ExprBitfieldType:
		resolveExpr(az, bag, v.Width)
	}
}

// resolveExpr recurses through expression trees purely to reach nested type
// positions (e.g. array sizes inside function-call arguments are not a
// thing, but nested types never occur inside expressions either); it never
// emits a diagnostic for an unresolved identifier.
func resolveExpr(az *Analyzed, bag *diag.Bag, e ast.Expr) {
	if e == nil {
		return
	}
	switch v := e.(type) {
	case *ast.UnaryExpr:
		resolveExpr(az, bag, v.Operand)
	case *ast.BinaryExpr:
		resolveExpr(az, bag, v.Left)
		resolveExpr(az, bag, v.Right)
	case *ast.TernaryExpr:
		resolveExpr(az, bag, v.Cond)
		resolveExpr(az, bag, v.Then)
		resolveExpr(az, bag, v.Else)
	case *ast.FieldAccess:
		resolveExpr(az, bag, v.Base)
	case *ast.ArrayIndex:
		resolveExpr(az, bag, v.Base)
		resolveExpr(az, bag, v.Index)
	case *ast.FunctionCall:
		for _, a := range v.Args {
			resolveExpr(az, bag, a)
		}
	}
}
