package cpp

import (
	"fmt"
	"strings"

	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/command"
	"github.com/dscript/dsc/ir"
)

var binaryOpText = map[ast.BinaryOp]string{
	ast.BinAdd: "+", ast.BinSub: "-", ast.BinMul: "*", ast.BinDiv: "/", ast.BinMod: "%",
	ast.BinBitAnd: "&", ast.BinBitOr: "|", ast.BinBitXor: "^", ast.BinShl: "<<", ast.BinShr: ">>",
	ast.BinLogicalAnd: "&&", ast.BinLogicalOr: "||",
	ast.BinEq: "==", ast.BinNe: "!=", ast.BinLt: "<", ast.BinLe: "<=", ast.BinGt: ">", ast.BinGe: ">=",
}

// renderExpr is the expression sub-renderer: it converts an IR
// expression to C++ text using the ambient object-name/prefix context
// carried by a command.Expr.
func (b *Backend) renderExpr(e command.Expr) string {
	return b.renderIR(e.IR, e.ObjectName, e.PrefixFields)
}

func (b *Backend) renderIR(e ir.Expr, objectName string, prefixFields bool) string {
	switch v := e.(type) {
	case nil:
		return ""
	case *ir.IntLiteral:
		return fmt.Sprintf("%d", v.Value)
	case *ir.BoolLiteral:
		if v.Value {
			return "true"
		}
		return "false"
	case *ir.StringLiteral:
		return fmt.Sprintf("%q", v.Value)
	case *ir.UnaryExpr:
		return b.renderUnary(v, objectName, prefixFields)
	case *ir.BinaryExpr:
		op, ok := binaryOpText[v.Op]
		if !ok {
			op = "?"
		}
		return fmt.Sprintf("(%s %s %s)", b.renderIR(v.Left, objectName, prefixFields), op, b.renderIR(v.Right, objectName, prefixFields))
	case *ir.TernaryExpr:
		return fmt.Sprintf("(%s ? %s : %s)",
			b.renderIR(v.Cond, objectName, prefixFields),
			b.renderIR(v.Then, objectName, prefixFields),
			b.renderIR(v.Else, objectName, prefixFields))
	case *ir.FieldAccess:
		return fmt.Sprintf("%s.%s", b.renderIR(v.Base, objectName, prefixFields), b.Sanitize(v.Field))
	case *ir.ArrayIndex:
		return fmt.Sprintf("%s[%s]", b.renderIR(v.Base, objectName, prefixFields), b.renderIR(v.Index, objectName, prefixFields))
	case *ir.FunctionCall:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = b.renderIR(a, objectName, prefixFields)
		}
		return fmt.Sprintf("%s(%s)", b.Sanitize(v.Name), strings.Join(args, ", "))
	case *ir.ParameterRef:
		return b.Sanitize(v.Name)
	case *ir.FieldRef:
		name := b.Sanitize(v.Name)
		// The object local itself and builder-introduced scratch locals
		// (__disc, __saved_cursor, ...) are plain locals, never members.
		if prefixFields && objectName != "" && v.Name != objectName && !isScratchLocal(v.Name) {
			return objectName + "." + name
		}
		return name
	case *ir.ConstantRef:
		return b.Sanitize(v.Name)
	default:
		return "/* unrenderable expression */"
	}
}

func (b *Backend) renderUnary(v *ir.UnaryExpr, objectName string, prefixFields bool) string {
	operand := b.renderIR(v.Operand, objectName, prefixFields)
	switch v.Op {
	case ast.UnaryNegate:
		return fmt.Sprintf("(-%s)", operand)
	case ast.UnaryPositive:
		return fmt.Sprintf("(+%s)", operand)
	case ast.UnaryBitNot:
		return fmt.Sprintf("(~%s)", operand)
	case ast.UnaryLogicalNot:
		return fmt.Sprintf("(!%s)", operand)
	default:
		return operand
	}
}
