package cpp

import (
	"fmt"

	"github.com/dscript/dsc/backend"
	"github.com/dscript/dsc/backend/librarymode"
	"github.com/dscript/dsc/command"
)

// RenderLibrary implements the library-mode multi-artifact split: a schema-
// agnostic runtime, a declarations-only public surface, and a full
// implementation carrying field reflection metadata. RenderLibrary only
// receives the command stream, not the IR bundle it was built from, so
// offsets are recomputed here from DeclareField's carried ir.TypeRef via
// librarymode.Tracker rather than librarymode.BuildIntrospection, which
// assumes bundle access.
func (b *Backend) RenderLibrary(cmds []command.Command, opts backend.RenderOptions) ([]backend.OutputFile, error) {
	runtimeFile := backend.OutputFile{Path: "runtime.hpp", Content: b.renderRuntimeArtifact(opts)}

	publicFile, err := b.renderPublicSurface(cmds, opts)
	if err != nil {
		return nil, err
	}

	implFile, err := b.renderImplementation(cmds, opts)
	if err != nil {
		return nil, err
	}

	return []backend.OutputFile{runtimeFile, publicFile, implFile}, nil
}

func (b *Backend) renderRuntimeArtifact(opts backend.RenderOptions) string {
	w := backend.NewCodeWriter("    ")
	w.Line("#pragma once")
	w.Line("#include <cstdint>")
	w.Line("#include <cstddef>")
	w.Line("#include <string>")
	w.Line("#include <stdexcept>")
	w.Line("#include <utility>")
	w.Blank()
	w.Line("%s", runtimePreamble(opts.ErrorHandling != command.ErrorHandlingExceptions))
	return w.String()
}

// renderPublicSurface emits forward declarations for every struct/union,
// full enum definitions, and the read/read_safe entry point signatures
//. Every other command is either re-emitted verbatim
// (namespaces, blanks) or skipped as an implementation detail.
func (b *Backend) renderPublicSurface(cmds []command.Command, opts backend.RenderOptions) (out backend.OutputFile, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			switch v := rec.(type) {
			case error:
				err = v
			default:
				err = fmt.Errorf("cpp: public surface render failed: %v", v)
			}
		}
	}()

	w := backend.NewCodeWriter("    ")
	w.Line("#pragma once")
	w.Line(`#include "runtime.hpp"`)
	w.Line("#include <cstdint>")
	w.Line("#include <string>")
	w.Line("#include <vector>")
	w.Blank()

	for i := 0; i < len(cmds); {
		switch v := cmds[i].(type) {
		case *command.StartNamespace:
			w.Open("ns", "namespace "+b.Sanitize(v.Name)+" {")
			i++
		case *command.EndNamespace:
			w.Close("ns", "}")
			i++

		case *command.StartStruct:
			i = b.emitForwardDecl(w, cmds, i, v.Name)
		case *command.StartClass:
			i = b.emitForwardDecl(w, cmds, i, v.Name)

		case *command.DeclareConstant:
			w.Line("constexpr uint64_t %s = %dULL;", b.Sanitize(v.Name), v.Value)
			i++

		case *command.StartEnum:
			w.Open("enum", "enum class "+b.Sanitize(v.Name)+" : "+b.TypeName(v.BaseType)+" {")
			i++
		case *command.EnumMember:
			w.Line("%s = %d,", b.Sanitize(v.Name), v.Value)
			i++
		case *command.EndEnum:
			w.Close("enum", "};")
			i++

		case *command.StartFunction:
			i = skipBlock(cmds, i)

		case *command.Blank:
			w.Blank()
			i++

		default:
			i++
		}
	}

	return backend.OutputFile{Path: "schema_public.hpp", Content: w.String()}, nil
}

// emitForwardDecl writes one struct/class forward declaration plus the
// signature of each read/read_safe entry point found inside its block, so
// consumers of the public surface can see what the implementation artifact
// will define without pulling in the field bodies. It returns the index of
// the command after the block.
func (b *Backend) emitForwardDecl(w *backend.CodeWriter, cmds []command.Command, openIdx int, name string) int {
	w.Line("struct %s;", b.Sanitize(name))
	end := skipBlock(cmds, openIdx)
	for j := openIdx + 1; j < end; j++ {
		sf, ok := cmds[j].(*command.StartFunction)
		if !ok {
			continue
		}
		extra := ""
		for _, p := range sf.Params {
			extra += ", " + b.TypeName(p.Type) + " " + b.Sanitize(p.Name)
		}
		switch sf.Name {
		case "read":
			w.Line("static %s read(const uint8_t*& cursor, const uint8_t* end%s);", b.TypeName(sf.ReturnType), extra)
		case "read_safe":
			w.Line("static Result<%s> read_safe(const uint8_t*& cursor, const uint8_t* end%s);", b.TypeName(sf.ReturnType), extra)
		}
		j = skipBlock(cmds, j) - 1
	}
	return end
}

// renderImplementation reuses Render verbatim for the full struct bodies
// and reader functions, then appends the field reflection metadata
// the implementation artifact carries.
func (b *Backend) renderImplementation(cmds []command.Command, opts backend.RenderOptions) (backend.OutputFile, error) {
	files, err := b.Render(cmds, opts)
	if err != nil {
		return backend.OutputFile{}, err
	}
	content := files[0].Content
	content += renderIntrospection(b.buildIntrospection(cmds))
	return backend.OutputFile{Path: "schema_impl.hpp", Content: content}, nil
}

// introspectFrame accumulates one struct's field list while its
// DeclareField commands stream past.
type introspectFrame struct {
	name   string
	state  *librarymode.FieldOffsetState
	fields []librarymode.FieldInfo
}

func (b *Backend) buildIntrospection(cmds []command.Command) []librarymode.StructIntrospection {
	tracker := librarymode.NewTracker()
	var out []librarymode.StructIntrospection
	var stack []*introspectFrame

	finish := func() {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		tracker.FinishStruct(top.name, top.state)
		out = append(out, librarymode.StructIntrospection{Name: top.name, Fields: top.fields})
	}

	for _, c := range cmds {
		switch v := c.(type) {
		case *command.StartStruct:
			stack = append(stack, &introspectFrame{name: v.Name, state: tracker.StartStruct()})
		case *command.StartClass:
			stack = append(stack, &introspectFrame{name: v.Name, state: tracker.StartStruct()})
		case *command.EndStruct:
			finish()
		case *command.EndClass:
			finish()
		case *command.DeclareField:
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			off := top.state.Next(v.Type)
			top.fields = append(top.fields, librarymode.FieldInfo{
				Name:         v.Name,
				DeclaredType: b.TypeName(v.Type),
				Offset:       off,
			})
		}
	}
	return out
}

func renderIntrospection(structs []librarymode.StructIntrospection) string {
	w := backend.NewCodeWriter("    ")
	w.Blank()
	w.Line("// Field reflection metadata (library mode).")
	w.Line("struct FieldMeta {")
	w.Line("    const char* name;")
	w.Line("    const char* type_name;")
	w.Line("    int64_t offset;")
	w.Line("};")
	w.Blank()
	for _, s := range structs {
		w.Line("inline const std::vector<FieldMeta>& %s_fields() {", s.Name)
		w.Line("    static const std::vector<FieldMeta> fields = {")
		for _, f := range s.Fields {
			w.Line("        {%q, %q, %d},", f.Name, f.DeclaredType, f.Offset)
		}
		w.Line("    };")
		w.Line("    return fields;")
		w.Line("}")
		w.Blank()
	}
	return w.String()
}

// skipBlock returns the index of the command following the End command
// that matches the Start command at cmds[openIdx].
func skipBlock(cmds []command.Command, openIdx int) int {
	depth := 1
	i := openIdx + 1
	for ; i < len(cmds); i++ {
		depth += commandDepthDelta(cmds[i])
		if depth == 0 {
			return i + 1
		}
	}
	return i
}

// commandDepthDelta reports how a command changes block nesting depth: +1
// for a Start* command that opens a block, -1 for the matching End*,
// 0 otherwise (including StartElseIf/StartElse/StartCatch, which reuse
// their enclosing if/try block rather than opening a new one).
func commandDepthDelta(c command.Command) int {
	switch c.(type) {
	case *command.StartNamespace, *command.StartStruct, *command.StartClass, *command.StartEnum,
		*command.StartFunction, *command.StartScope, *command.StartIf, *command.StartFor,
		*command.StartWhile, *command.StartTry:
		return 1
	case *command.EndNamespace, *command.EndStruct, *command.EndClass, *command.EndEnum,
		*command.EndFunction, *command.EndScope, *command.EndIf, *command.EndFor,
		*command.EndWhile, *command.EndTry:
		return -1
	default:
		return 0
	}
}
