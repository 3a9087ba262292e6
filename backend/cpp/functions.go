package cpp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/command"
	"github.com/dscript/dsc/ir"
)

func (r *renderer) emitStartFunction(v *command.StartFunction) {
	inStruct := r.topBlock() == "struct"
	fc := funcCtx{name: v.Name, returnType: v.ReturnType, safe: v.Safe, inStruct: inStruct}

	if v.Reader {
		r.pushFunc(fc)
		ret := r.b.TypeName(v.ReturnType)
		if v.Safe {
			ret = "Result<" + ret + ">"
		}
		params := "const uint8_t*& cursor, const uint8_t* end"
		// An external-selector choice reader additionally takes the
		// already-evaluated selector value.
		for _, p := range v.Params {
			params += ", " + r.b.TypeName(p.Type) + " " + r.b.Sanitize(p.Name)
		}
		r.w.Open("func", "static "+ret+" "+v.Name+"("+params+") {")
		r.w.Line("const uint8_t* %s = cursor;", r.bufName)
		return
	}

	if strings.HasPrefix(v.Name, "Validate") && v.Static && len(v.Params) == 1 {
		fc.subtypeName = strings.TrimPrefix(v.Name, "Validate")
		fc.subtypeBase = v.Params[0].Type
	}
	r.pushFunc(fc)

	params := make([]string, len(v.Params))
	for i, p := range v.Params {
		params[i] = r.b.TypeName(p.Type) + " " + r.b.Sanitize(p.Name)
	}
	prefix := ""
	if v.Static {
		prefix = "static "
	}
	retType := "void"
	if v.ReturnType != nil {
		retType = r.b.TypeName(v.ReturnType)
	}
	sig := prefix + retType + " " + r.b.Sanitize(v.Name) + "(" + strings.Join(params, ", ") + ") {"
	r.w.Open("func", sig)
	if !v.Static && inStruct {
		r.w.Line("auto& %s = *this;", r.b.Meta.DefaultObjectName)
	}
}

// emitEndFunction closes the current function and, for a subtype's
// generated validator, synthesizes the read_<Name>/try_read_<Name> pair a
// subtype-typed field's ReadField command resolves to: read the base primitive, then
// call the already-defined validator.
func (r *renderer) emitEndFunction() {
	fc := r.popFunc()
	r.w.Close("func", "}")
	if fc.subtypeName != "" && fc.subtypeBase != nil {
		r.emitSubtypeReaders(fc.subtypeName, fc.subtypeBase)
	}
}

func (r *renderer) emitSubtypeReaders(name string, base ir.TypeRef) {
	baseTy := r.b.TypeName(base)
	readFn, tryFn := baseReaderNames(base)
	r.w.Blank()
	r.w.Line("inline %s read_%s(const uint8_t*& cursor, const uint8_t* end) {", baseTy, name)
	r.w.Line("    %s v = %s(cursor, end);", baseTy, readFn)
	r.w.Line("    if (!Validate%s(v)) throw ConstraintViolation(\"subtype %s rejected value\");", name, name)
	r.w.Line("    return v;")
	r.w.Line("}")
	r.w.Line("inline bool try_read_%s(const uint8_t*& cursor, const uint8_t* end, %s& out) {", name, baseTy)
	r.w.Line("    %s v;", baseTy)
	r.w.Line("    if (!%s(cursor, end, v)) return false;", tryFn)
	r.w.Line("    if (!Validate%s(v)) return false;", name)
	r.w.Line("    out = v;")
	r.w.Line("    return true;")
	r.w.Line("}")
	r.w.Blank()
}

// emitEnumReaders synthesizes the read_<Name>/try_read_<Name> pair an
// enum-typed field's ReadField command resolves to, mirroring
// emitSubtypeReaders: an enum's underlying primitive type is only known at
// the point its StartEnum command carries BaseType, not from the
// NamedTypeRef a later field read sees.
func (r *renderer) emitEnumReaders() {
	ec := r.enums[len(r.enums)-1]
	r.enums = r.enums[:len(r.enums)-1]

	enumTy := r.b.Sanitize(ec.name)
	baseTy := r.b.TypeName(ec.base)
	readFn, tryFn := baseReaderNames(ec.base)

	r.w.Blank()
	r.w.Line("inline %s read_%s(const uint8_t*& cursor, const uint8_t* end) {", enumTy, ec.name)
	r.w.Line("    return static_cast<%s>(%s(cursor, end));", enumTy, readFn)
	r.w.Line("}")
	r.w.Line("inline bool try_read_%s(const uint8_t*& cursor, const uint8_t* end, %s& out) {", ec.name, enumTy)
	r.w.Line("    %s v{};", baseTy)
	r.w.Line("    if (!%s(cursor, end, v)) return false;", tryFn)
	r.w.Line("    out = static_cast<%s>(v);", enumTy)
	r.w.Line("    return true;")
	r.w.Line("}")
	r.w.Blank()
}

func (r *renderer) emitDeclareLocal(v *command.DeclareLocal) {
	switch {
	case v.Init.IR != nil:
		r.w.Line("auto %s = %s;", v.Name, r.b.renderExpr(v.Init))
	case v.Type != nil:
		r.w.Line("%s %s{};", r.b.TypeName(v.Type), v.Name)
	default:
		r.w.Line("const uint8_t* %s = cursor;", v.Name)
	}
}

func isScratchLocal(name string) bool { return strings.HasPrefix(name, "__") }

func (r *renderer) emitWriteLine(v *command.WriteLine) {
	r.w.Line("%s", v.Text)
}

// emitDeclareVariant renders a union's shared sum-typed storage member.
func (r *renderer) emitDeclareVariant(v *command.DeclareVariant) {
	alts := make([]string, len(v.Types))
	for i, t := range v.Types {
		alts[i] = r.b.TypeName(t)
	}
	r.w.Line("std::variant<%s> %s{};", strings.Join(alts, ", "), r.b.Sanitize(v.Name))
}

func (r *renderer) emitReadField(v *command.ReadField) {
	name := r.b.Sanitize(v.Name)
	dest := r.b.Meta.DefaultObjectName + "." + name
	if isScratchLocal(v.Name) {
		r.w.Line("%s %s{};", r.b.TypeName(v.Type), v.Name)
		dest = v.Name
	}
	if nt, ok := v.Type.(*ir.NamedTypeRef); ok && v.Selector.IR != nil {
		r.emitChoiceReadWithSelector(dest, nt, r.b.renderExpr(v.Selector), v.Safe)
		return
	}
	r.emitReadInto(dest, v.Type, v.Safe)
}

// emitChoiceReadWithSelector calls an external-selector choice's reader,
// passing the selector value the enclosing struct's scope evaluates.
func (r *renderer) emitChoiceReadWithSelector(dest string, t *ir.NamedTypeRef, selector string, safe bool) {
	ty := r.b.Sanitize(t.Name)
	arg := "static_cast<uint64_t>(" + selector + ")"
	if !safe {
		r.w.Line("%s = %s::read(cursor, end, %s);", dest, ty, arg)
		return
	}
	tmp := tmpName(dest)
	r.w.Line("auto %s = %s::read_safe(cursor, end, %s);", tmp, ty, arg)
	r.w.Open("if", "if (!"+tmp+".ok) {")
	r.emitSafeFailWithMessage(tmp + ".error_message")
	r.w.Close("if", "}")
	r.w.Line("%s = %s.value;", dest, tmp)
}

// emitReadInto emits the statements that read one value of type t into the
// already-declared lvalue dest.
func (r *renderer) emitReadInto(dest string, t ir.TypeRef, safe bool) {
	switch v := t.(type) {
	case *ir.PrimitiveTypeRef:
		readFn, tryFn := baseReaderNames(v)
		r.emitScalarRead(dest, r.b.TypeName(v), readFn, tryFn, safe)
	case *ir.BooleanTypeRef:
		if !safe {
			r.w.Line("%s = (read_uint8(cursor, end) != 0);", dest)
		} else {
			r.w.Line("uint8_t %s{};", tmpName(dest))
			r.w.Open("if", "if (!try_read_uint8(cursor, end, "+tmpName(dest)+")) {")
			r.emitSafeFail("out of bounds reading " + dest)
			r.w.Close("if", "}")
			r.w.Line("%s = (%s != 0);", dest, tmpName(dest))
		}
	case *ir.StringTypeRef:
		r.emitScalarRead(dest, "std::string", "read_cstring", "try_read_cstring", safe)
	case *ir.NamedTypeRef:
		r.emitNamedRead(dest, v, safe)
	case *ir.FixedArrayTypeRef:
		r.emitArrayRead(dest, v.Element, r.b.renderIR(v.Size, r.b.Meta.DefaultObjectName, true), safe)
	case *ir.RangedArrayTypeRef:
		count := r.b.renderIR(v.Max, r.b.Meta.DefaultObjectName, true)
		if v.Min != nil {
			count = "(" + count + " - " + r.b.renderIR(v.Min, r.b.Meta.DefaultObjectName, true) + ")"
		}
		r.emitArrayRead(dest, v.Element, count, safe)
	case *ir.VariableArrayTypeRef:
		r.emitUnsizedArrayRead(dest, v.Element, safe)
	case *ir.BitfieldTypeRef:
		panic(fmt.Errorf("cpp: bitfield field %q reached emitReadInto outside a bitfield run", dest))
	default:
		panic(fmt.Errorf("cpp: unrenderable field type %T for %q", t, dest))
	}
}

func tmpName(dest string) string {
	return "__v_" + strings.ReplaceAll(strings.ReplaceAll(dest, ".", "_"), "[", "_")
}

// emitScalarRead handles the two read-protocol shapes shared by primitives
// and strings: an unconditional throwing call, or a try_-prefixed
// bool-returning call whose failure short-circuits the enclosing reader.
func (r *renderer) emitScalarRead(dest, cppType, readFn, tryFn string, safe bool) {
	if !safe {
		r.w.Line("%s = %s(cursor, end);", dest, readFn)
		return
	}
	tmp := tmpName(dest)
	r.w.Line("%s %s{};", cppType, tmp)
	r.w.Open("if", "if (!"+tryFn+"(cursor, end, "+tmp+")) {")
	r.emitSafeFail("out of bounds reading " + dest)
	r.w.Close("if", "}")
	r.w.Line("%s = %s;", dest, tmp)
}

// emitNamedRead handles a field whose type names a struct/union/choice
// (Result<T>-returning sub-reader) or an enum/subtype (value-out pattern
// via the companion helpers generated in emitSubtypeReaders / the enum
// declaration).
func (r *renderer) emitNamedRead(dest string, t *ir.NamedTypeRef, safe bool) {
	switch t.Kind {
	case ir.NamedEnum, ir.NamedSubtype:
		r.emitScalarRead(dest, r.b.Sanitize(t.Name), "read_"+t.Name, "try_read_"+t.Name, safe)
	default: // struct, union, choice
		if !safe {
			r.w.Line("%s = %s::read(cursor, end);", dest, r.b.Sanitize(t.Name))
			return
		}
		tmp := tmpName(dest)
		r.w.Line("auto %s = %s::read_safe(cursor, end);", tmp, r.b.Sanitize(t.Name))
		r.w.Open("if", "if (!"+tmp+".ok) {")
		r.emitSafeFailWithMessage(tmp + ".error_message")
		r.w.Close("if", "}")
		r.w.Line("%s = %s.value;", dest, tmp)
	}
}

func (r *renderer) emitArrayRead(dest string, elem ir.TypeRef, countExpr string, safe bool) {
	r.w.Line("%s.clear();", dest)
	r.w.Line("%s.reserve(static_cast<size_t>(%s));", dest, countExpr)
	loopVar := "__i_" + tmpSuffix(dest)
	r.w.Open("for", "for (size_t "+loopVar+" = 0; "+loopVar+" < static_cast<size_t>("+countExpr+"); ++"+loopVar+") {")
	elemDest := "__elem_" + tmpSuffix(dest)
	r.w.Line("%s %s{};", r.b.TypeName(elem), elemDest)
	r.emitReadInto(elemDest, elem, safe)
	r.w.Line("%s.push_back(std::move(%s));", dest, elemDest)
	r.w.Close("for", "}")
}

func (r *renderer) emitUnsizedArrayRead(dest string, elem ir.TypeRef, safe bool) {
	r.w.Line("%s.clear();", dest)
	r.w.Open("while", "while (cursor < end) {")
	elemDest := "__elem_" + tmpSuffix(dest)
	r.w.Line("%s %s{};", r.b.TypeName(elem), elemDest)
	r.emitReadInto(elemDest, elem, safe)
	r.w.Line("%s.push_back(std::move(%s));", dest, elemDest)
	r.w.Close("while", "}")
}

func tmpSuffix(dest string) string {
	return strings.ReplaceAll(strings.ReplaceAll(dest, ".", "_"), "[", "_")
}

// emitSafeFail emits the read_safe failure return for the current
// function, constructing a failed Result<T> carrying message.
func (r *renderer) emitSafeFail(message string) {
	r.emitSafeFailWithMessage(strconv.Quote(message))
}

func (r *renderer) emitSafeFailWithMessage(messageExpr string) {
	fc := r.currentFunc()
	obj := r.b.Meta.DefaultObjectName
	retType := "decltype(" + obj + ")"
	if fc.returnType != nil {
		retType = r.b.TypeName(fc.returnType)
	}
	r.w.Line("return Result<%s>{%s, false, %s};", retType, obj, messageExpr)
}

func (r *renderer) emitBitfieldRun(v *command.ReadBitfieldRun) {
	totalBytes := (v.TotalBits + 7) / 8
	runVar := v.RunName
	r.w.Line("uint64_t %s = read_bits(cursor, end, %d);", runVar, totalBytes)
	for _, m := range v.Members {
		mask := uint64(1)<<uint(m.BitWidth) - 1
		r.w.Line("%s.%s = static_cast<%s>((%s >> %d) & 0x%Xull);",
			r.b.Meta.DefaultObjectName, r.b.Sanitize(m.FieldName), bitfieldStorageType(m.BitWidth), runVar, m.BitOffset, mask)
	}
}

// emitDynamicBitfield reads one bitfield whose width is only known at run
// time: evaluate the width, reject a non-positive or >64 value with the
// dedicated InvalidBitWidth error, then read the covering bytes and mask.
func (r *renderer) emitDynamicBitfield(v *command.ReadDynamicBitfield) {
	dest := r.b.Meta.DefaultObjectName + "." + r.b.Sanitize(v.Name)
	widthVar := "__w_" + r.b.Sanitize(v.Name)
	r.w.Line("uint64_t %s = static_cast<uint64_t>(%s);", widthVar, r.b.renderExpr(v.Width))
	r.w.Open("if", "if ("+widthVar+" == 0 || "+widthVar+" > 64) {")
	if v.Safe {
		r.emitSafeFail("invalid bit width for " + v.Name)
	} else {
		r.w.Line("throw InvalidBitWidth(%q);", "invalid bit width for "+v.Name)
	}
	r.w.Close("if", "}")
	r.w.Line("uint64_t __raw_%s = read_bits(cursor, end, (%s + 7) / 8);", r.b.Sanitize(v.Name), widthVar)
	r.w.Line("%s = (%s == 64) ? __raw_%s : (__raw_%s & ((1ULL << %s) - 1));",
		dest, widthVar, r.b.Sanitize(v.Name), r.b.Sanitize(v.Name), widthVar)
}

func (r *renderer) emitLabelSeek(v *command.LabelSeek) {
	r.w.Line("cursor = %s + static_cast<size_t>(%s);", r.bufName, r.b.renderExpr(v.Target))
	r.emitBoundsCheckCursor("label seek out of bounds")
}

func (r *renderer) emitAlignPad(v *command.AlignPad) {
	r.w.Line("{")
	r.w.Line("    size_t __off = static_cast<size_t>(cursor - %s);", r.bufName)
	r.w.Line("    size_t __pad = (%d - (__off %% %d)) %% %d;", v.N, v.N, v.N)
	r.w.Line("    cursor += __pad;")
	r.w.Line("}")
	r.emitBoundsCheckCursor("alignment padding out of bounds")
}

func (r *renderer) emitBoundsCheckCursor(message string) {
	fc := r.currentFunc()
	if fc.safe {
		r.w.Open("if", "if (cursor > end) {")
		r.emitSafeFail(message)
		r.w.Close("if", "}")
	} else {
		r.w.Open("if", "if (cursor > end) {")
		r.w.Line("throw OutOfBounds(%q);", message)
		r.w.Close("if", "}")
	}
}

func (r *renderer) emitValidateConstraint(v *command.ValidateConstraint) {
	args := make([]string, len(v.Args))
	for i, a := range v.Args {
		args[i] = r.b.renderExpr(a)
	}
	name := r.b.Sanitize(v.ConstraintName)
	if v.ConstraintName == "inline" {
		// An inline field constraint lowers to a single boolean argument
		// expression evaluated directly, not a named constraint call.
		arg := ""
		if len(args) > 0 {
			arg = args[0]
		}
		r.w.Open("if", "if (!("+arg+")) {")
	} else {
		r.w.Open("if", "if (!"+name+"("+strings.Join(args, ", ")+")) {")
	}
	fc := r.currentFunc()
	if fc.safe {
		r.emitSafeFail("constraint violated: " + v.ConstraintName)
	} else {
		r.w.Line("throw ConstraintViolation(%q);", "constraint violated: "+v.ConstraintName)
	}
	r.w.Close("if", "}")
}

func (r *renderer) emitUnmatchedChoice() {
	fc := r.currentFunc()
	if fc.safe {
		r.emitSafeFail("unmatched choice")
	} else {
		r.w.Line("throw UnmatchedChoice(\"no case matched\");")
	}
}

func (r *renderer) emitReturnResult(v *command.ReturnResult) {
	fc := r.currentFunc()
	value := r.b.renderExpr(v.Value)
	if fc.safe && !v.Raw {
		retType := "decltype(" + value + ")"
		if fc.returnType != nil {
			retType = r.b.TypeName(fc.returnType)
		}
		r.w.Line("return Result<%s>{%s, true, \"\"};", retType, value)
		return
	}
	r.w.Line("return %s;", value)
}

// baseReaderNames returns the throwing/try_ reader function pair for a
// primitive type reference, defaulting unspecified byte order to
// little-endian. Neither the analyzer nor the IR builder applies a module's
// `little;`/`big;` directive to its fields, so only a field's own byte-order
// annotation selects big-endian here.
func baseReaderNames(t ir.TypeRef) (readFn, tryFn string) {
	p, ok := t.(*ir.PrimitiveTypeRef)
	if !ok {
		return "read_uint8", "try_read_uint8"
	}
	prefix := "uint"
	if p.Kind.IsSigned() {
		prefix = "int"
	}
	width := p.Kind.SizeBytes() * 8
	if width == 8 {
		return "read_" + prefix + "8", "try_read_" + prefix + "8"
	}
	order := "le"
	if p.ByteOrder == ast.ByteOrderBig {
		order = "be"
	}
	w := strconv.Itoa(width)
	return "read_" + prefix + w + "_" + order, "try_read_" + prefix + w + "_" + order
}
