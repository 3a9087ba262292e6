package command

import (
	"fmt"
	"sort"

	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/ir"
)

// ErrBuildFailed signals a precondition violation discovered while
// emitting one logical unit (a struct's reader, a choice's renderer) — a
// programmer error in an upstream stage, not a user diagnostic.
var ErrBuildFailed = fmt.Errorf("command: build failed")

// ErrInvalidBitWidth signals a bitfield whose statically-folded width is
// non-positive or exceeds 64 bits — a schema-authoring bug caught at
// generation time, distinct from the OutOfBounds condition a consumer of
// generated code handles.
var ErrInvalidBitWidth = fmt.Errorf("command: invalid bitfield width")

// Build lowers an IR bundle into an ordered command stream.
func Build(bundle *ir.Bundle, cfg Config) ([]Command, error) {
	b := &builder{bundle: bundle, cfg: cfg}
	return b.build()
}

type builder struct {
	bundle *ir.Bundle
	cfg    Config
}

// scope is the scratch buffer a logical unit accumulates commands into;
// commands only reach the final stream via commit. A scope that is simply
// discarded on error never touches the output.
type scope struct{ cmds []Command }

func newScope() *scope { return &scope{} }

func (s *scope) emit(c Command) { s.cmds = append(s.cmds, c) }

func (s *scope) commit(out *[]Command) { *out = append(*out, s.cmds...) }

func (b *builder) build() ([]Command, error) {
	var out []Command

	if b.cfg.Namespace != "" {
		out = append(out, &StartNamespace{Name: b.cfg.Namespace})
	}

	if len(b.bundle.Constants) > 0 {
		names := make([]string, 0, len(b.bundle.Constants))
		for name := range b.bundle.Constants {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, &DeclareConstant{Name: name, Value: b.bundle.Constants[name]})
		}
		out = append(out, &Blank{})
	}

	for i := range b.bundle.Enums {
		b.buildEnum(&b.bundle.Enums[i]).commit(&out)
	}

	for i := range b.bundle.Subtypes {
		b.buildSubtype(&b.bundle.Subtypes[i]).commit(&out)
	}

	for i := range b.bundle.Structs {
		sc, err := b.buildStruct(&b.bundle.Structs[i])
		if err != nil {
			return nil, err
		}
		sc.commit(&out)
	}

	for i := range b.bundle.Unions {
		sc, err := b.buildUnion(&b.bundle.Unions[i])
		if err != nil {
			return nil, err
		}
		sc.commit(&out)
	}

	for i := range b.bundle.Choices {
		sc, err := b.buildChoice(&b.bundle.Choices[i])
		if err != nil {
			return nil, err
		}
		sc.commit(&out)
	}

	if b.cfg.Namespace != "" {
		out = append(out, &EndNamespace{})
	}
	return out, nil
}

func (b *builder) buildEnum(e *ir.Enum) *scope {
	sc := newScope()
	sc.emit(&StartEnum{Name: e.Name, BaseType: e.BaseType})
	for _, item := range e.Items {
		sc.emit(&EnumMember{Name: item.Name, Value: item.Value})
	}
	sc.emit(&EndEnum{})
	return sc
}

func (b *builder) buildSubtype(st *ir.Subtype) *scope {
	sc := newScope()
	sc.emit(&Comment{Text: st.Name + " narrows its base type by an explicit constraint; see the emitted validator."})
	sc.emit(&StartFunction{
		Name:       "Validate" + st.Name,
		Params:     []ir.Param{{Name: "this", Type: st.BaseType}},
		ReturnType: &ir.BooleanTypeRef{},
		Static:     true,
	})
	sc.emit(&ReturnResult{Value: NewExpr(st.Constraint, Context{ObjectName: "this", PrefixFields: false})})
	sc.emit(&EndFunction{})
	return sc
}

// buildStruct emits the declaration block plus one reader function per
// configured error-handling mode (two when ErrorHandlingBoth is selected).
func (b *builder) buildStruct(s *ir.Struct) (*scope, error) {
	sc := newScope()
	sc.emit(&StartStruct{Name: s.Name})
	for _, f := range s.Fields {
		sc.emit(&DeclareField{Name: f.Name, Type: f.Type})
	}
	for _, m := range s.Methods {
		if err := b.buildMethod(sc, s.Name, &m); err != nil {
			return nil, err
		}
	}

	switch b.cfg.ErrorHandling {
	case ErrorHandlingExceptions:
		if err := b.buildStructReader(sc, s, false); err != nil {
			return nil, err
		}
	case ErrorHandlingResults:
		if err := b.buildStructReader(sc, s, true); err != nil {
			return nil, err
		}
	case ErrorHandlingBoth:
		if err := b.buildStructReader(sc, s, false); err != nil {
			return nil, err
		}
		if err := b.buildStructReader(sc, s, true); err != nil {
			return nil, err
		}
	}

	sc.emit(&EndStruct{})
	return sc, nil
}

func (b *builder) buildMethod(sc *scope, structName string, m *ir.Method) error {
	sc.emit(&StartFunction{Name: m.Name, Params: m.Params, ReturnType: m.ReturnType})
	ctx := Context{ObjectName: b.cfg.ObjectName, PrefixFields: true, InMethod: true}
	for _, st := range m.Body {
		switch v := st.(type) {
		case *ir.ReturnStmt:
			sc.emit(&ReturnResult{Value: NewExpr(v.Value, ctx)})
		case *ir.ExprStmt:
			sc.emit(&ExprStatement{Value: NewExpr(v.Value, ctx)})
		default:
			return fmt.Errorf("%w: %s.%s: unhandled method statement kind", ErrBuildFailed, structName, m.Name)
		}
	}
	sc.emit(&EndFunction{})
	return nil
}

// buildStructReader emits exactly one `read` (safe=false) or `read_safe`
// (safe=true) function body following the fixed per-field read procedure.
func (b *builder) buildStructReader(sc *scope, s *ir.Struct, safe bool) error {
	name := "read"
	if safe {
		name = "read_safe"
	}
	sc.emit(&StartFunction{
		Name:       name,
		ReturnType: &ir.NamedTypeRef{Name: s.Name, Kind: ir.NamedStruct},
		Static:     true,
		Reader:     true,
		Safe:       safe,
	})
	sc.emit(&DeclareLocal{Name: b.cfg.ObjectName, Type: &ir.NamedTypeRef{Name: s.Name, Kind: ir.NamedStruct}})

	ctx := Context{ObjectName: b.cfg.ObjectName, PrefixFields: true}
	if err := b.emitFieldSequence(sc, s.Name, s.Fields, ctx, safe); err != nil {
		return err
	}

	sc.emit(&ReturnResult{Value: NewExpr(&ir.FieldRef{Name: b.cfg.ObjectName}, ctx)})
	sc.emit(&EndFunction{})
	return nil
}

// emitFieldSequence emits the per-field read procedure for one ordered
// field list: label seeks, alignment pads, guards, bitfield-run batching,
// reads, and constraint validation. Shared by struct readers and union
// case readers.
func (b *builder) emitFieldSequence(sc *scope, ownerName string, fields []ir.Field, ctx Context, safe bool) error {
	i := 0
	for i < len(fields) {
		f := &fields[i]

		if f.LabelSeek != nil {
			sc.emit(&LabelSeek{Target: NewExpr(f.LabelSeek, ctx)})
		}
		if f.AlignTo != 0 {
			sc.emit(&AlignPad{N: f.AlignTo})
		}

		guarded := f.Guard != nil
		if guarded {
			sc.emit(&StartIf{Cond: NewExpr(f.Guard, ctx)})
		}

		if f.BitfieldRun != "" {
			run := []BitfieldMember{}
			runName := f.BitfieldRun
			var totalBits int
			for i < len(fields) && fields[i].BitfieldRun == runName {
				bf, ok := fields[i].Type.(*ir.BitfieldTypeRef)
				if !ok {
					return fmt.Errorf("%w: %s: field %q in bitfield run %q is not a bitfield", ErrBuildFailed, ownerName, fields[i].Name, runName)
				}
				if bf.Width == nil {
					return fmt.Errorf("%w: %s: field %q has a runtime width but was batched into run %q", ErrBuildFailed, ownerName, fields[i].Name, runName)
				}
				width := *bf.Width
				if width <= 0 || width > 64 {
					return fmt.Errorf("%w: %s.%s: width %d", ErrInvalidBitWidth, ownerName, fields[i].Name, width)
				}
				run = append(run, BitfieldMember{FieldName: fields[i].Name, BitOffset: totalBits, BitWidth: width})
				totalBits += width
				i++
			}
			sc.emit(&ReadBitfieldRun{RunName: runName, TotalBits: totalBits, Members: run})
		} else if bf, ok := f.Type.(*ir.BitfieldTypeRef); ok && bf.WidthExpr != nil {
			// A width-by-expression bitfield whose width could not be folded
			// reads that width at run time; it never joins a packed run.
			sc.emit(&ReadDynamicBitfield{Name: f.Name, Width: NewExpr(bf.WidthExpr, ctx), Safe: safe})
			i++
		} else if bf, ok := f.Type.(*ir.BitfieldTypeRef); ok {
			// A fixed-width bitfield with no run label (a union case field)
			// reads as a run of one.
			width := 0
			if bf.Width != nil {
				width = *bf.Width
			}
			if width <= 0 || width > 64 {
				return fmt.Errorf("%w: %s.%s: width %d", ErrInvalidBitWidth, ownerName, f.Name, width)
			}
			sc.emit(&ReadBitfieldRun{
				RunName:   ownerName + "__" + f.Name + "__bits",
				TotalBits: width,
				Members:   []BitfieldMember{{FieldName: f.Name, BitWidth: width}},
			})
			i++
		} else {
			rf := &ReadField{Name: f.Name, Type: f.Type, Safe: safe}
			if sel, ok := b.choiceSelectorFor(f.Type); ok {
				rf.Selector = NewExpr(sel, ctx)
			}
			sc.emit(rf)
			for _, app := range f.Applied {
				sc.emit(&ValidateConstraint{ConstraintName: b.constraintName(app), Args: wrapExprs(app.Args, ctx)})
			}
			i++
		}

		if guarded {
			sc.emit(&EndIf{})
		}
	}
	return nil
}

// choiceSelectorFor returns the external-selector expression of the choice
// t names, if it names one: the enclosing struct's reader must evaluate it
// and pass the value into the choice's reader.
func (b *builder) choiceSelectorFor(t ir.TypeRef) (ir.Expr, bool) {
	nt, ok := t.(*ir.NamedTypeRef)
	if !ok || nt.Kind != ir.NamedChoice {
		return nil, false
	}
	for i := range b.bundle.Choices {
		if b.bundle.Choices[i].Name == nt.Name {
			return b.bundle.Choices[i].Selector, b.bundle.Choices[i].Selector != nil
		}
	}
	return nil, false
}

func (b *builder) constraintName(app ir.ConstraintApplication) string {
	if app.ConstraintIndex < 0 || app.ConstraintIndex >= len(b.bundle.Constraints) {
		return "inline"
	}
	return b.bundle.Constraints[app.ConstraintIndex].Name
}

func wrapExprs(exprs []ir.Expr, ctx Context) []Expr {
	out := make([]Expr, len(exprs))
	for i, e := range exprs {
		out[i] = NewExpr(e, ctx)
	}
	return out
}

// selectorMatch renders the boolean test for whether value v matches one
// union/choice case: exact equality OR-joined across the
// case's listed values, or a single range-bound comparison for the
// ordering modes.
func selectorMatch(mode ast.SelectorMode, v ir.Expr, values []ir.Expr, ctx Context) Expr {
	if mode == ast.SelectExact {
		var combined ir.Expr
		for _, val := range values {
			eq := ir.Expr(&ir.BinaryExpr{Op: ast.BinEq, Left: v, Right: val})
			if combined == nil {
				combined = eq
			} else {
				combined = &ir.BinaryExpr{Op: ast.BinLogicalOr, Left: combined, Right: eq}
			}
		}
		return NewExpr(combined, ctx)
	}
	op := map[ast.SelectorMode]ast.BinaryOp{
		ast.SelectGe: ast.BinGe,
		ast.SelectGt: ast.BinGt,
		ast.SelectLe: ast.BinLe,
		ast.SelectLt: ast.BinLt,
		ast.SelectNe: ast.BinNe,
	}[mode]
	var bound ir.Expr
	if len(values) > 0 {
		bound = values[0]
	}
	return NewExpr(&ir.BinaryExpr{Op: op, Left: v, Right: bound}, ctx)
}
