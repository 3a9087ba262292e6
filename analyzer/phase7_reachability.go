package analyzer

import (
	"strings"

	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/diag"
)

// analyzeReachability is Phase 7: walk expression/type-use graphs from
// module roots marking used constants and imports. Types are deliberately
// never flagged unused — top-level types are legitimate entry points that
// other types need not reference.
func analyzeReachability(az *Analyzed, bag *diag.Bag) {
	for _, mf := range az.Set.All() {
		used := map[string]bool{}
		usedImports := map[string]bool{}
		trackModuleUsage(mf.Module, used, usedImports)
		detectUnusedConstants(bag, mf.Module, used)
		detectUnusedImports(bag, mf.Module, usedImports)
	}
}

func trackModuleUsage(m *ast.Module, used, usedImports map[string]bool) {
	for _, c := range m.Constants {
		trackExpr(c.Value, used)
		trackType(c.Type, used, usedImports)
	}
	for _, s := range m.Structs {
		for _, item := range s.Body {
			trackStructBodyItem(item, used, usedImports)
		}
	}
	for _, u := range m.Unions {
		for _, c := range u.Cases {
			trackExpr(c.Condition, used)
			for _, item := range c.Body {
				trackStructBodyItem(item, used, usedImports)
			}
		}
	}
	for _, e := range m.Enums {
		trackType(e.BaseType, used, usedImports)
		for _, item := range e.Items {
			trackExpr(item.Value, used)
		}
	}
	for _, ch := range m.Choices {
		trackExpr(ch.On, used)
		if ch.DiscriminatorType != nil {
			trackType(ch.DiscriminatorType, used, usedImports)
		}
		for _, cc := range ch.Cases {
			for _, v := range cc.Values {
				trackExpr(v, used)
			}
			trackStructBodyItem(cc.Payload, used, usedImports)
		}
	}
	for _, cn := range m.Constraints {
		for _, p := range cn.Params {
			trackType(p.Type, used, usedImports)
		}
		trackExpr(cn.Condition, used)
	}
}

func trackStructBodyItem(item ast.StructBodyItem, used, usedImports map[string]bool) {
	switch v := item.(type) {
	case *ast.FieldDef:
		trackType(v.Type, used, usedImports)
		trackExpr(v.Condition, used)
		trackExpr(v.Constraint, used)
		trackExpr(v.Default, used)
	case *ast.LabelDirective:
		trackExpr(v.Target, used)
	case *ast.FunctionDef:
		for _, p := range v.Params {
			trackType(p.Type, used, usedImports)
		}
		for _, st := range v.Body {
			switch s := st.(type) {
			case *ast.ReturnStmt:
				trackExpr(s.Value, used)
			case *ast.ExprStmt:
				trackExpr(s.Value, used)
			}
		}
	}
}

func trackExpr(e ast.Expr, used map[string]bool) {
	switch v := e.(type) {
	case nil:
		return
	case *ast.Identifier:
		used[v.Name] = true
	case *ast.UnaryExpr:
		trackExpr(v.Operand, used)
	case *ast.BinaryExpr:
		trackExpr(v.Left, used)
		trackExpr(v.Right, used)
	case *ast.TernaryExpr:
		trackExpr(v.Cond, used)
		trackExpr(v.Then, used)
		trackExpr(v.Else, used)
	case *ast.FieldAccess:
		trackExpr(v.Base, used)
	case *ast.ArrayIndex:
		trackExpr(v.Base, used)
		trackExpr(v.Index, used)
	case *ast.FunctionCall:
		for _, a := range v.Args {
			trackExpr(a, used)
		}
	}
}

func trackType(t ast.Type, used, usedImports map[string]bool) {
	switch v := t.(type) {
	case nil:
		return
	case *ast.QualifiedName:
		if len(v.Parts) > 1 {
			usedImports[v.Parts[0]] = true
		}
		for _, a := range v.Args {
			trackExpr(a, used)
		}
	case *ast.FixedArrayType:
		trackType(v.Element, used, usedImports)
		trackExpr(v.Size, used)
	case *ast.RangedArrayType:
		trackType(v.Element, used, usedImports)
		trackExpr(v.Min, used)
		trackExpr(v.Max, used)
	case *ast.UnsizedArrayType:
		trackType(v.Element, used, usedImports)
	case *ast.ExprBitfieldType:
		trackExpr(v.Width, used)
	}
}

func detectUnusedConstants(bag *diag.Bag, m *ast.Module, used map[string]bool) {
	for _, c := range m.Constants {
		if !used[c.Name] {
			bag.Add(diag.Diagnostic{
				Level:    diag.LevelWarning,
				Code:     diag.WUnusedConstant,
				Position: c.Position,
				Message:  "constant '" + c.Name + "' is never referenced",
			})
		}
	}
}

// detectUnusedImports compares each import's extracted package name against
// usedImports. For `import a.b.c;` the package compared is `b` (second-
// to-last segment); for `import a.b.*;` it is `b` (last segment before the
// wildcard).
func detectUnusedImports(bag *diag.Bag, m *ast.Module, usedImports map[string]bool) {
	for _, imp := range m.Imports {
		pkg := importPackageName(imp)
		if usedImports[pkg] {
			continue
		}
		dotted := strings.Join(imp.Parts, ".")
		if imp.Wildcard {
			dotted += ".*"
		}
		bag.Add(diag.Diagnostic{
			Level:    diag.LevelWarning,
			Code:     diag.WUnusedImport,
			Position: imp.Position,
			Message:  "import '" + dotted + "' is never referenced",
		})
	}
}

func importPackageName(imp *ast.Import) string {
	if imp.Wildcard {
		return imp.Parts[len(imp.Parts)-1]
	}
	if len(imp.Parts) >= 2 {
		return imp.Parts[len(imp.Parts)-2]
	}
	return imp.Parts[len(imp.Parts)-1]
}
