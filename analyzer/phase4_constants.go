package analyzer

import (
	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/diag"
)

// evaluateConstants is Phase 4: fold every constant definition to a 64-bit
// unsigned value with wraparound, detecting cycles via a mark-and-seen
// resolution stack.
func evaluateConstants(az *Analyzed, bag *diag.Bag) {
	folder := &constFolder{az: az, bag: bag, inProgress: map[string]bool{}, done: map[string]bool{}}
	for _, mf := range az.Set.All() {
		for _, c := range mf.Module.Constants {
			folder.foldConstDef(c)
		}
	}
}

type constFolder struct {
	az         *Analyzed
	bag        *diag.Bag
	inProgress map[string]bool
	done       map[string]bool
}

func (f *constFolder) foldConstDef(c *ast.ConstDef) (uint64, bool) {
	if v, ok := f.az.ConstantValues[c]; ok {
		return v, true
	}
	if f.done[c.Name] {
		// Already attempted and failed (e.g. division by zero); don't re-report.
		return 0, false
	}
	if f.inProgress[c.Name] {
		f.bag.Add(diag.Diagnostic{
			Level:    diag.LevelError,
			Code:     diag.ECircularConstant,
			Position: c.Position,
			Message:  "constant '" + c.Name + "' is defined in terms of itself",
		})
		return 0, false
	}
	f.inProgress[c.Name] = true
	defer delete(f.inProgress, c.Name)

	v, ok := f.fold(c.Value)
	f.done[c.Name] = true
	if ok {
		f.az.ConstantValues[c] = v
	}
	return v, ok
}

// fold evaluates a compile-time expression to a u64 with 64-bit unsigned
// wraparound arithmetic; signed negation is represented by applying the
// negate operator to the unsigned bit pattern and is preserved as such.
func (f *constFolder) fold(e ast.Expr) (uint64, bool) {
	switch v := e.(type) {
	case nil:
		return 0, false
	case *ast.IntLiteral:
		return v.Value, true
	case *ast.BoolLiteral:
		if v.Value {
			return 1, true
		}
		return 0, true
	case *ast.Identifier:
		if sym, ok := f.az.Universe.ResolveConstant(v.Name); ok && sym.Constant != nil {
			return f.foldConstDef(sym.Constant)
		}
		return 0, false
	case *ast.UnaryExpr:
		operand, ok := f.fold(v.Operand)
		if !ok {
			return 0, false
		}
		switch v.Op {
		case ast.UnaryNegate:
			return -operand, true
		case ast.UnaryPositive:
			return operand, true
		case ast.UnaryBitNot:
			return ^operand, true
		case ast.UnaryLogicalNot:
			if operand == 0 {
				return 1, true
			}
			return 0, true
		}
		return 0, false
	case *ast.BinaryExpr:
		return f.foldBinary(v)
	case *ast.TernaryExpr:
		cond, ok := f.fold(v.Cond)
		if !ok {
			return 0, false
		}
		if cond != 0 {
			return f.fold(v.Then)
		}
		return f.fold(v.Else)
	default:
		// Array sizes and other compile-time contexts never contain field
		// access, array index, or function calls in a foldable position.
		return 0, false
	}
}

func (f *constFolder) foldBinary(v *ast.BinaryExpr) (uint64, bool) {
	l, ok := f.fold(v.Left)
	if !ok {
		return 0, false
	}
	r, ok := f.fold(v.Right)
	if !ok {
		return 0, false
	}
	switch v.Op {
	case ast.BinAdd:
		return l + r, true
	case ast.BinSub:
		return l - r, true
	case ast.BinMul:
		return l * r, true
	case ast.BinDiv:
		if r == 0 {
			f.bag.Add(diag.Diagnostic{Level: diag.LevelError, Code: diag.EDivisionByZero, Message: "division by zero in constant expression"})
			return 0, false
		}
		return l / r, true
	case ast.BinMod:
		if r == 0 {
			f.bag.Add(diag.Diagnostic{Level: diag.LevelError, Code: diag.EDivisionByZero, Message: "modulo by zero in constant expression"})
			return 0, false
		}
		return l % r, true
	case ast.BinBitAnd:
		return l & r, true
	case ast.BinBitOr:
		return l | r, true
	case ast.BinBitXor:
		return l ^ r, true
	case ast.BinShl:
		return l << r, true
	case ast.BinShr:
		return l >> r, true
	case ast.BinEq:
		return boolToU64(l == r), true
	case ast.BinNe:
		return boolToU64(l != r), true
	case ast.BinLt:
		return boolToU64(l < r), true
	case ast.BinLe:
		return boolToU64(l <= r), true
	case ast.BinGt:
		return boolToU64(l > r), true
	case ast.BinGe:
		return boolToU64(l >= r), true
	case ast.BinLogicalAnd:
		return boolToU64(l != 0 && r != 0), true
	case ast.BinLogicalOr:
		return boolToU64(l != 0 || r != 0), true
	}
	return 0, false
}

func boolToU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// FoldConst exposes constant folding for use by the IR builder over
// expressions outside a ConstDef (e.g. array sizes), sharing the same
// wraparound arithmetic and constant universe.
func FoldConst(az *Analyzed, bag *diag.Bag, e ast.Expr) (uint64, bool) {
	f := &constFolder{az: az, bag: bag, inProgress: map[string]bool{}, done: map[string]bool{}}
	return f.fold(e)
}
