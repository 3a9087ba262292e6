// Package dsprint implements the DataScript pretty-printer: it writes
// DataScript source text directly from an IR bundle rather than through the
// command stream, since no block-level target-language structure stands
// between the IR's own shape and the grammar it was lowered from. It
// renders through backend.CodeWriter, the same indented-block writer the
// cpp backend uses.
package dsprint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/backend"
	"github.com/dscript/dsc/ir"
)

// Print renders bundle as DataScript source, re-parseable to the same IR
//. Constants have no declared type recorded in
// the IR (only their folded value), so every constant prints as uint64 —
// the one place this printer is lossy on round-trip through the IR layer.
func Print(bundle *ir.Bundle) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			switch v := rec.(type) {
			case error:
				err = v
			default:
				err = fmt.Errorf("dsprint: render failed: %v", v)
			}
		}
	}()

	p := &printer{w: backend.NewCodeWriter("    ")}
	p.printConstants(bundle.Constants)
	for i := range bundle.Subtypes {
		p.printSubtype(&bundle.Subtypes[i])
	}
	for i := range bundle.Enums {
		p.printEnum(&bundle.Enums[i])
	}
	for i := range bundle.Constraints {
		p.printConstraint(&bundle.Constraints[i])
	}
	for i := range bundle.Structs {
		p.printStruct(&bundle.Structs[i])
	}
	for i := range bundle.Unions {
		p.printUnion(&bundle.Unions[i])
	}
	for i := range bundle.Choices {
		p.printChoice(&bundle.Choices[i])
	}
	return p.w.String(), nil
}

type printer struct {
	w *backend.CodeWriter
}

func (p *printer) printConstants(constants map[string]uint64) {
	if len(constants) == 0 {
		return
	}
	names := make([]string, 0, len(constants))
	for name := range constants {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p.w.Line("const uint64 %s = %d;", name, constants[name])
	}
	p.w.Blank()
}

func (p *printer) printSubtype(s *ir.Subtype) {
	p.w.Line("subtype %s %s : %s;", p.typeText(s.BaseType), s.Name, p.exprText(s.Constraint))
}

func (p *printer) printEnum(e *ir.Enum) {
	kind := "enum"
	if e.IsBitmask {
		kind = "bitmask"
	}
	p.w.Open("enum", fmt.Sprintf("%s %s %s {", kind, p.typeText(e.BaseType), e.Name))
	for i, item := range e.Items {
		suffix := ","
		if i == len(e.Items)-1 {
			suffix = ""
		}
		p.w.Line("%s = %d%s", item.Name, item.Value, suffix)
	}
	p.w.Close("enum", "};")
}

func (p *printer) printConstraint(c *ir.Constraint) {
	params := make([]string, len(c.Params))
	for i, prm := range c.Params {
		params[i] = p.typeText(prm.Type) + " " + prm.Name
	}
	p.w.Line("constraint %s(%s) : %s;", c.Name, strings.Join(params, ", "), p.exprText(c.Condition))
}

func (p *printer) printStruct(s *ir.Struct) {
	p.w.Open("struct", "struct "+s.Name+" {")
	for i := range s.Fields {
		p.printField(&s.Fields[i])
	}
	for i := range s.Methods {
		p.printMethod(&s.Methods[i])
	}
	p.w.Close("struct", "};")
}

func (p *printer) printUnion(u *ir.Union) {
	p.w.Open("union", "union "+u.Name+" {")
	for _, c := range u.Cases {
		p.printUnionCase(&c)
	}
	p.w.Close("union", "};")
}

func (p *printer) printUnionCase(c *ir.UnionCase) {
	if c.Condition != nil {
		p.w.Line("%s:", p.exprText(c.Condition))
	}
	for i := range c.Fields {
		p.printField(&c.Fields[i])
	}
}

func (p *printer) printChoice(c *ir.Choice) {
	header := "choice " + c.Name + " "
	if c.Selector != nil {
		header += "on " + p.exprText(c.Selector) + " {"
	} else {
		header += ": " + p.typeText(c.DiscriminatorType) + " {"
	}
	p.w.Open("choice", header)
	for _, cs := range c.Cases {
		p.printChoiceCase(&cs)
	}
	p.w.Close("choice", "};")
}

func (p *printer) printChoiceCase(c *ir.ChoiceCase) {
	if c.IsDefault {
		p.w.Line("default: %s %s;", p.typeText(c.Payload), c.Name)
		return
	}
	values := make([]string, len(c.Values))
	for i, v := range c.Values {
		values[i] = p.exprText(v)
	}
	op := selectorModeText(c.Mode)
	p.w.Line("case %s%s: %s %s;", op, strings.Join(values, ", "), p.typeText(c.Payload), c.Name)
}

func selectorModeText(m ast.SelectorMode) string {
	switch m {
	case ast.SelectExact:
		return ""
	case ast.SelectGe:
		return ">="
	case ast.SelectGt:
		return ">"
	case ast.SelectLe:
		return "<="
	case ast.SelectLt:
		return "<"
	case ast.SelectNe:
		return "!="
	default:
		return ""
	}
}

func (p *printer) printField(f *ir.Field) {
	if f.LabelSeek != nil {
		p.w.Line("%s:", p.exprText(f.LabelSeek))
	}
	if f.AlignTo > 0 {
		p.w.Line("align(%d):", f.AlignTo)
	}
	line := p.typeText(f.Type) + " " + f.Name
	if f.Guard != nil {
		line += " if (" + p.exprText(f.Guard) + ")"
	}
	for _, app := range f.Applied {
		args := make([]string, len(app.Args))
		for i, a := range app.Args {
			args[i] = p.exprText(a)
		}
		line += fmt.Sprintf(" : constraint_%d(%s)", app.ConstraintIndex, strings.Join(args, ", "))
	}
	p.w.Line("%s;", line)
}

func (p *printer) printMethod(m *ir.Method) {
	params := make([]string, len(m.Params))
	for i, prm := range m.Params {
		params[i] = p.typeText(prm.Type) + " " + prm.Name
	}
	ret := "void"
	if m.ReturnType != nil {
		ret = p.typeText(m.ReturnType)
	}
	p.w.Open("func", fmt.Sprintf("%s %s(%s) {", ret, m.Name, strings.Join(params, ", ")))
	for _, stmt := range m.Body {
		p.printStmt(stmt)
	}
	p.w.Close("func", "}")
}

func (p *printer) printStmt(s ir.Stmt) {
	switch v := s.(type) {
	case *ir.ReturnStmt:
		p.w.Line("return %s;", p.exprText(v.Value))
	case *ir.ExprStmt:
		p.w.Line("%s;", p.exprText(v.Value))
	default:
		panic(fmt.Errorf("dsprint: unrenderable statement %T", s))
	}
}

var binaryOpText = map[ast.BinaryOp]string{
	ast.BinAdd: "+", ast.BinSub: "-", ast.BinMul: "*", ast.BinDiv: "/", ast.BinMod: "%",
	ast.BinBitAnd: "&", ast.BinBitOr: "|", ast.BinBitXor: "^", ast.BinShl: "<<", ast.BinShr: ">>",
	ast.BinLogicalAnd: "&&", ast.BinLogicalOr: "||",
	ast.BinEq: "==", ast.BinNe: "!=", ast.BinLt: "<", ast.BinLe: "<=", ast.BinGt: ">", ast.BinGe: ">=",
}

func (p *printer) exprText(e ir.Expr) string {
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
		return p.unaryText(v)
	case *ir.BinaryExpr:
		op, ok := binaryOpText[v.Op]
		if !ok {
			op = "?"
		}
		return fmt.Sprintf("(%s %s %s)", p.exprText(v.Left), op, p.exprText(v.Right))
	case *ir.TernaryExpr:
		return fmt.Sprintf("(%s ? %s : %s)", p.exprText(v.Cond), p.exprText(v.Then), p.exprText(v.Else))
	case *ir.FieldAccess:
		return p.exprText(v.Base) + "." + v.Field
	case *ir.ArrayIndex:
		return fmt.Sprintf("%s[%s]", p.exprText(v.Base), p.exprText(v.Index))
	case *ir.FunctionCall:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = p.exprText(a)
		}
		return fmt.Sprintf("%s(%s)", v.Name, strings.Join(args, ", "))
	case *ir.ParameterRef:
		return v.Name
	case *ir.FieldRef:
		return v.Name
	case *ir.ConstantRef:
		return v.Name
	default:
		panic(fmt.Errorf("dsprint: unrenderable expression %T", e))
	}
}

func (p *printer) unaryText(v *ir.UnaryExpr) string {
	operand := p.exprText(v.Operand)
	switch v.Op {
	case ast.UnaryNegate:
		return "(-" + operand + ")"
	case ast.UnaryPositive:
		return "(+" + operand + ")"
	case ast.UnaryBitNot:
		return "(~" + operand + ")"
	case ast.UnaryLogicalNot:
		return "(!" + operand + ")"
	default:
		return operand
	}
}

// typeText renders an IR type reference as DataScript source text.
func (p *printer) typeText(t ir.TypeRef) string {
	switch v := t.(type) {
	case *ir.PrimitiveTypeRef:
		name := primitiveText(v)
		switch v.ByteOrder {
		case ast.ByteOrderLittle:
			return "little " + name
		case ast.ByteOrderBig:
			return "big " + name
		default:
			return name
		}
	case *ir.BooleanTypeRef:
		return "bool"
	case *ir.StringTypeRef:
		return "string"
	case *ir.BitfieldTypeRef:
		if v.Width != nil {
			return fmt.Sprintf("bit:%d", *v.Width)
		}
		return fmt.Sprintf("bit<%s>", p.exprText(v.WidthExpr))
	case *ir.FixedArrayTypeRef:
		return fmt.Sprintf("%s[%s]", p.typeText(v.Element), p.exprText(v.Size))
	case *ir.VariableArrayTypeRef:
		return fmt.Sprintf("%s[]", p.typeText(v.Element))
	case *ir.RangedArrayTypeRef:
		min := ""
		if v.Min != nil {
			min = p.exprText(v.Min)
		}
		return fmt.Sprintf("%s[%s..%s]", p.typeText(v.Element), min, p.exprText(v.Max))
	case *ir.NamedTypeRef:
		return v.Name
	default:
		panic(fmt.Errorf("dsprint: unrenderable type %T", t))
	}
}

func primitiveText(v *ir.PrimitiveTypeRef) string {
	prefix := "uint"
	if v.Kind.IsSigned() {
		prefix = "int"
	}
	return fmt.Sprintf("%s%d", prefix, v.Kind.SizeBytes()*8)
}
