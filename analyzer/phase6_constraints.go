package analyzer

import (
	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/diag"
)

// validateConstraints is Phase 6: detect always-true/always-false
// constraint and guard conditions, and duplicate exact-match choice case
// values. In an explicit constraint an always-false condition (literal
// `false`, or a self-comparison such as `x != x`) is an error; in a field
// guard or a union/choice case condition it is a warning.
func validateConstraints(az *Analyzed, bag *diag.Bag) {
	for _, mf := range az.Set.All() {
		for _, cn := range mf.Module.Constraints {
			validateConstraintCondition(bag, cn.Position, "Constraint '"+cn.Name+"'", cn.Condition)
		}
		for _, s := range mf.Module.Structs {
			for _, item := range s.Body {
				if f, ok := item.(*ast.FieldDef); ok {
					validateFieldCondition(bag, f.Position, "Field '"+f.Name+"'", f.Condition)
				}
			}
		}
		for _, u := range mf.Module.Unions {
			for _, c := range u.Cases {
				validateFieldCondition(bag, c.Position, "Union case", c.Condition)
			}
		}
		for _, ch := range mf.Module.Choices {
			validateChoice(az, bag, ch)
		}
	}
}

func isLiteralBool(e ast.Expr) (value bool, ok bool) {
	if b, isBool := e.(*ast.BoolLiteral); isBool {
		return b.Value, true
	}
	return false, false
}

// validateConstraintCondition handles an explicit `constraint` definition's
// condition: literal true is redundant (warning), literal false makes the
// constraint unsatisfiable (error).
func validateConstraintCondition(bag *diag.Bag, pos ast.Position, label string, cond ast.Expr) {
	if v, ok := isLiteralBool(cond); ok {
		if v {
			bag.Add(diag.Diagnostic{Level: diag.LevelWarning, Code: diag.WDeprecated, Position: pos,
				Message: label + " is always true and has no effect"})
		} else {
			bag.Add(diag.Diagnostic{Level: diag.LevelError, Code: diag.EConstraintViolation, Position: pos,
				Message: label + " is always false"})
		}
		return
	}
	detectTautologyOrContradiction(bag, pos, label, cond, false)
}

// validateFieldCondition handles a field guard or union-case condition:
// both always-true and always-false are downgraded to warnings, since the
// field/case remains legal but dead.
func validateFieldCondition(bag *diag.Bag, pos ast.Position, label string, cond ast.Expr) {
	if cond == nil {
		return
	}
	if v, ok := isLiteralBool(cond); ok {
		if v {
			bag.Add(diag.Diagnostic{Level: diag.LevelWarning, Code: diag.WDeprecated, Position: pos,
				Message: label + " has condition that is always true"})
		} else {
			bag.Add(diag.Diagnostic{Level: diag.LevelWarning, Code: diag.WDeprecated, Position: pos,
				Message: label + " has condition that is always false"})
		}
		return
	}
	detectTautologyOrContradiction(bag, pos, label, cond, true)
}

func operatorName(op ast.BinaryOp) string {
	switch op {
	case ast.BinEq:
		return "=="
	case ast.BinNe:
		return "!="
	case ast.BinLt:
		return "<"
	case ast.BinGt:
		return ">"
	case ast.BinLe:
		return "<="
	case ast.BinGe:
		return ">="
	default:
		return "?"
	}
}

// detectTautologyOrContradiction looks for `id OP id` with an identical
// identifier on both sides. ==, <=, >= are always-true (warning);
// !=, <, > are always-false: an error in an explicit constraint, a
// warning in a field guard or case condition (isField).
func detectTautologyOrContradiction(bag *diag.Bag, pos ast.Position, label string, cond ast.Expr, isField bool) {
	bin, ok := cond.(*ast.BinaryExpr)
	if !ok {
		return
	}
	left, lok := bin.Left.(*ast.Identifier)
	right, rok := bin.Right.(*ast.Identifier)
	if !lok || !rok || left.Name != right.Name {
		return
	}
	switch bin.Op {
	case ast.BinEq, ast.BinLe, ast.BinGe:
		bag.Add(diag.Diagnostic{Level: diag.LevelWarning, Code: diag.WDeprecated, Position: pos,
			Message: label + " is always true (comparing '" + left.Name + "' with itself using " + operatorName(bin.Op) + ")"})
	case ast.BinNe, ast.BinLt, ast.BinGt:
		msg := label + " is always false (comparing '" + left.Name + "' with itself using " + operatorName(bin.Op) + ")"
		if isField {
			bag.Add(diag.Diagnostic{Level: diag.LevelWarning, Code: diag.WDeprecated, Position: pos, Message: msg})
		} else {
			bag.Add(diag.Diagnostic{Level: diag.LevelError, Code: diag.EConstraintViolation, Position: pos, Message: msg})
		}
	}
}

// validateChoice checks for duplicate exact-match case values and validates
// each case's payload field condition after desugaring.
func validateChoice(az *Analyzed, bag *diag.Bag, ch *ast.ChoiceDef) {
	seen := map[uint64]ast.Position{}
	for _, cc := range ch.Cases {
		if cc.Mode != ast.SelectExact {
			continue
		}
		for _, v := range cc.Values {
			val, ok := FoldConst(az, diag.NewBag(), v)
			if !ok {
				continue
			}
			if prevPos, exists := seen[val]; exists {
				bag.Add(diag.Diagnostic{
					Level:    diag.LevelError,
					Code:     diag.EDuplicateDefinition,
					Position: cc.Position,
					Message:  "duplicate case value in choice '" + ch.Name + "'",
					Related:  &diag.RelatedLocation{Position: prevPos, Message: "previous case with same value here"},
				})
			} else {
				seen[val] = cc.Position
			}
		}
		if f, ok := cc.Payload.(*ast.FieldDef); ok {
			validateFieldCondition(bag, f.Position, "Choice case '"+f.Name+"'", f.Condition)
		}
	}
}
