package cpp

import (
	"fmt"

	"github.com/dscript/dsc/backend"
	"github.com/dscript/dsc/command"
	"github.com/dscript/dsc/ir"
)

// ErrUnsupportedCommand is a precondition violation: the command
// stream contains a command kind this backend does not know how to render.
// It is never a user-visible diagnostic.
type ErrUnsupportedCommand struct{ Command command.Command }

func (e *ErrUnsupportedCommand) Error() string {
	return fmt.Sprintf("cpp: unsupported command %T", e.Command)
}

// funcCtx tracks the function currently being rendered, so ReturnResult,
// ReadField, ValidateConstraint, and ReportUnmatchedChoice know which
// epilogue shape to emit.
type funcCtx struct {
	name       string
	returnType ir.TypeRef
	safe       bool
	// inStruct is true when this function is a struct/class member rather
	// than a free function (a choice/union reader, a subtype validator).
	inStruct bool
	// subtypeName/subtypeBase are set only for a subtype's generated
	// Validate<Name> function, so EndFunction can synthesize the matching
	// read_<Name>/try_read_<Name> companions.
	subtypeName string
	subtypeBase ir.TypeRef
}

// enumCtx tracks the enum currently being rendered, so EndEnum can
// synthesize the read_<Name>/try_read_<Name> pair an enum-typed field's
// ReadField command resolves to.
type enumCtx struct {
	name string
	base ir.TypeRef
}

type renderer struct {
	b       *Backend
	w       *backend.CodeWriter
	opts    backend.RenderOptions
	blocks  []string // "struct" | "ns" | "enum"
	funcs   []funcCtx
	enums   []enumCtx
	bufName string
}

// Render consumes the command stream and produces one header file. The
// reference backend never needs more than one OutputFile outside of
// library mode.
func (b *Backend) Render(cmds []command.Command, opts backend.RenderOptions) (out []backend.OutputFile, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			switch v := rec.(type) {
			case error:
				err = v
			default:
				err = fmt.Errorf("cpp: render failed: %v", v)
			}
		}
	}()

	r := &renderer{b: b, w: backend.NewCodeWriter("    "), opts: opts, bufName: "buffer_start"}
	r.w.Line("#pragma once")
	r.w.Line("#include <cstdint>")
	r.w.Line("#include <cstddef>")
	r.w.Line("#include <string>")
	r.w.Line("#include <vector>")
	r.w.Line("#include <stdexcept>")
	r.w.Line("#include <utility>")
	r.w.Line("#include <variant>")
	r.w.Blank()
	r.w.Line("%s", runtimePreamble(opts.ErrorHandling != command.ErrorHandlingExceptions))
	r.w.Blank()

	for _, c := range cmds {
		r.emit(c)
	}

	return []backend.OutputFile{{Path: "schema.hpp", Content: r.w.String()}}, nil
}

func (r *renderer) emit(c command.Command) {
	switch v := c.(type) {
	case *command.StartNamespace:
		r.w.Open("ns", "namespace "+r.b.Sanitize(v.Name)+" {")
		r.blocks = append(r.blocks, "ns")
	case *command.EndNamespace:
		r.popBlock("ns")
		r.w.Close("ns", "}")

	case *command.StartStruct:
		r.w.Open("struct", "struct "+r.b.Sanitize(v.Name)+" {")
		r.blocks = append(r.blocks, "struct")
	case *command.EndStruct:
		r.popBlock("struct")
		r.w.Close("struct", "};")

	case *command.StartClass:
		r.w.Open("struct", "struct "+r.b.Sanitize(v.Name)+" {")
		r.blocks = append(r.blocks, "struct")
	case *command.EndClass:
		r.popBlock("struct")
		r.w.Close("struct", "};")

	case *command.StartEnum:
		r.w.Open("enum", "enum class "+r.b.Sanitize(v.Name)+" : "+r.b.TypeName(v.BaseType)+" {")
		r.blocks = append(r.blocks, "enum")
		r.enums = append(r.enums, enumCtx{name: v.Name, base: v.BaseType})
	case *command.EnumMember:
		r.w.Line("%s = %d,", r.b.Sanitize(v.Name), v.Value)
	case *command.EndEnum:
		r.popBlock("enum")
		r.w.Close("enum", "};")
		r.emitEnumReaders()

	case *command.StartFunction:
		r.emitStartFunction(v)
	case *command.EndFunction:
		r.emitEndFunction()

	case *command.StartScope:
		r.w.Open("scope", "{")
	case *command.EndScope:
		r.w.Close("scope", "}")

	case *command.DeclareField:
		r.w.Line("%s %s{};", r.b.TypeName(v.Type), r.b.Sanitize(v.Name))
	case *command.DeclareVariant:
		r.emitDeclareVariant(v)
	case *command.DeclareConstant:
		r.w.Line("constexpr uint64_t %s = %dULL;", r.b.Sanitize(v.Name), v.Value)
	case *command.DeclareLocal:
		r.emitDeclareLocal(v)
	case *command.WriteLine:
		r.emitWriteLine(v)
	case *command.Comment:
		r.w.Line("// %s", v.Text)
	case *command.ExprStatement:
		r.w.Line("%s;", r.b.renderExpr(v.Value))
	case *command.Blank:
		r.w.Blank()

	case *command.StartIf:
		r.w.Open("if", "if ("+r.b.renderExpr(v.Cond)+") {")
	case *command.StartElseIf:
		r.w.Close("if", "}")
		r.w.Open("if", "else if ("+r.b.renderExpr(v.Cond)+") {")
	case *command.StartElse:
		r.w.Close("if", "}")
		r.w.Open("if", "else {")
	case *command.EndIf:
		r.w.Close("if", "}")

	case *command.StartFor:
		r.w.Open("for", "for (size_t "+v.Var+" = 0; "+v.Var+" < static_cast<size_t>("+r.b.renderExpr(v.Count)+"); ++"+v.Var+") {")
	case *command.EndFor:
		r.w.Close("for", "}")
	case *command.StartWhile:
		r.w.Open("while", "while ("+r.b.renderExpr(v.Cond)+") {")
	case *command.EndWhile:
		r.w.Close("while", "}")
	case *command.StartTry:
		r.w.Open("try", "try {")
	case *command.StartCatch:
		r.w.Close("try", "}")
		r.w.Open("try", "catch (const "+r.b.Sanitize(v.ExceptionType)+"&) {")
	case *command.EndTry:
		r.w.Close("try", "}")

	case *command.ReadField:
		r.emitReadField(v)
	case *command.ReadBitfieldRun:
		r.emitBitfieldRun(v)
	case *command.ReadDynamicBitfield:
		r.emitDynamicBitfield(v)
	case *command.RestoreCursor:
		r.w.Line("cursor = %s;", v.Local)
	case *command.LabelSeek:
		r.emitLabelSeek(v)
	case *command.AlignPad:
		r.emitAlignPad(v)
	case *command.ValidateConstraint:
		r.emitValidateConstraint(v)
	case *command.ReportUnmatchedChoice:
		r.emitUnmatchedChoice()
	case *command.ReturnResult:
		r.emitReturnResult(v)

	default:
		panic(&ErrUnsupportedCommand{Command: c})
	}
}

func (r *renderer) popBlock(want string) {
	if len(r.blocks) == 0 || r.blocks[len(r.blocks)-1] != want {
		panic(&backend.ErrUnbalancedBlock{Got: want, Want: r.topBlock()})
	}
	r.blocks = r.blocks[:len(r.blocks)-1]
}

func (r *renderer) topBlock() string {
	if len(r.blocks) == 0 {
		return ""
	}
	return r.blocks[len(r.blocks)-1]
}

func (r *renderer) pushFunc(fc funcCtx) { r.funcs = append(r.funcs, fc) }

func (r *renderer) popFunc() funcCtx {
	fc := r.funcs[len(r.funcs)-1]
	r.funcs = r.funcs[:len(r.funcs)-1]
	return fc
}

func (r *renderer) currentFunc() funcCtx {
	if len(r.funcs) == 0 {
		return funcCtx{}
	}
	return r.funcs[len(r.funcs)-1]
}
