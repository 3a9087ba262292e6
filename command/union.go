package command

import (
	"fmt"

	"github.com/dscript/dsc/ir"
)

// buildUnion emits a union's declaration plus its readers: one
// read_as_<case> per arm and a unified read that tries each case in
// declaration order, falling through to the next arm when a trial raises
// a constraint violation (or, in result mode, returns a failed result).
// A union whose cases are all single fields stores its value in one
// variant member; a union with a multi-field case declares the case
// fields directly.
func (b *builder) buildUnion(u *ir.Union) (*scope, error) {
	sc := newScope()
	sc.emit(&StartClass{Name: u.Name})

	for _, c := range u.Cases {
		sc.emit(&Comment{Text: "case " + c.Name})
		for _, f := range c.Fields {
			sc.emit(&DeclareField{Name: f.Name, Type: f.Type})
		}
	}
	variant := unionIsVariantShaped(u)
	if variant {
		types := make([]ir.TypeRef, len(u.Cases))
		for i := range u.Cases {
			types[i] = u.Cases[i].Fields[0].Type
		}
		sc.emit(&DeclareVariant{Name: "value", Types: types})
	}

	switch b.cfg.ErrorHandling {
	case ErrorHandlingExceptions:
		if err := b.buildUnionReaders(sc, u, variant, false); err != nil {
			return nil, err
		}
	case ErrorHandlingResults:
		if err := b.buildUnionReaders(sc, u, variant, true); err != nil {
			return nil, err
		}
	case ErrorHandlingBoth:
		if err := b.buildUnionReaders(sc, u, variant, false); err != nil {
			return nil, err
		}
		if err := b.buildUnionReaders(sc, u, variant, true); err != nil {
			return nil, err
		}
	}

	sc.emit(&EndClass{})
	return sc, nil
}

// unionIsVariantShaped reports whether every case carries exactly one
// field, the shape that maps onto a single sum-typed storage member.
func unionIsVariantShaped(u *ir.Union) bool {
	if len(u.Cases) == 0 {
		return false
	}
	for i := range u.Cases {
		if len(u.Cases[i].Fields) != 1 {
			return false
		}
	}
	return true
}

// unionCaseName names one arm for reader generation: the case's own name,
// the single field's name for an unnamed single-field case, or a
// positional fallback.
func unionCaseName(c *ir.UnionCase, index int) string {
	if c.Name != "" {
		return c.Name
	}
	if len(c.Fields) == 1 {
		return c.Fields[0].Name
	}
	return fmt.Sprintf("case_%d", index)
}

func unionCaseReaderName(c *ir.UnionCase, index int, safe bool) string {
	name := "read_as_" + unionCaseName(c, index)
	if safe {
		name += "_safe"
	}
	return name
}

func (b *builder) buildUnionReaders(sc *scope, u *ir.Union, variant, safe bool) error {
	for i := range u.Cases {
		if err := b.buildUnionCaseReader(sc, u, &u.Cases[i], i, variant, safe); err != nil {
			return err
		}
	}
	b.buildUnionTrialReader(sc, u, safe)
	return nil
}

// buildUnionCaseReader emits read_as_<case>: it reads exactly that arm's
// fields and returns the union object, raising (or result-failing) on a
// violated case condition so the unified reader's trial loop can move on.
func (b *builder) buildUnionCaseReader(sc *scope, u *ir.Union, c *ir.UnionCase, index int, variant, safe bool) error {
	sc.emit(&StartFunction{
		Name:       unionCaseReaderName(c, index, safe),
		ReturnType: &ir.NamedTypeRef{Name: u.Name, Kind: ir.NamedUnion},
		Static:     true,
		Reader:     true,
		Safe:       safe,
	})
	sc.emit(&DeclareLocal{Name: b.cfg.ObjectName, Type: &ir.NamedTypeRef{Name: u.Name, Kind: ir.NamedUnion}})

	ctx := Context{ObjectName: b.cfg.ObjectName, PrefixFields: true}
	if c.Condition != nil {
		sc.emit(&ValidateConstraint{ConstraintName: "inline", Args: []Expr{NewExpr(c.Condition, ctx)}})
	}

	if err := b.emitFieldSequence(sc, u.Name, c.Fields, ctx, safe); err != nil {
		return err
	}
	if variant {
		// Mirror the arm's member into the shared sum-typed storage.
		member := b.cfg.ObjectName + "." + c.Fields[0].Name
		sc.emit(&WriteLine{Text: b.cfg.ObjectName + ".value = " + member + ";"})
	}

	sc.emit(&ReturnResult{Value: NewExpr(&ir.FieldRef{Name: b.cfg.ObjectName}, ctx)})
	sc.emit(&EndFunction{})
	return nil
}

// buildUnionTrialReader emits the unified read: each arm is tried in
// declaration order; a failed trial rewinds the cursor to the saved entry
// position before the next arm. The last arm's outcome is returned as-is,
// so an all-arms-failed read surfaces that arm's error.
func (b *builder) buildUnionTrialReader(sc *scope, u *ir.Union, safe bool) {
	name := "read"
	if safe {
		name = "read_safe"
	}
	sc.emit(&StartFunction{
		Name:       name,
		ReturnType: &ir.NamedTypeRef{Name: u.Name, Kind: ir.NamedUnion},
		Static:     true,
		Reader:     true,
		Safe:       safe,
	})

	// Trial reads take no object context: each arm's reader is invoked
	// bare, and its result is passed straight through.
	callCtx := Context{}
	if len(u.Cases) == 0 {
		sc.emit(&ReportUnmatchedChoice{})
		sc.emit(&EndFunction{})
		return
	}

	sc.emit(&DeclareLocal{Name: savedCursorLocal})
	for i := range u.Cases {
		c := &u.Cases[i]
		call := &ir.FunctionCall{
			Name: unionCaseReaderName(c, i, safe),
			Args: []ir.Expr{&ir.FieldRef{Name: "cursor"}, &ir.FieldRef{Name: "end"}},
		}
		last := i == len(u.Cases)-1
		if last {
			sc.emit(&ReturnResult{Value: NewExpr(call, callCtx), Raw: true})
			break
		}
		if safe {
			local := "__try_" + unionCaseName(c, i)
			sc.emit(&DeclareLocal{Name: local, Init: NewExpr(call, callCtx)})
			sc.emit(&StartIf{Cond: NewExpr(&ir.FieldAccess{Base: &ir.FieldRef{Name: local}, Field: "ok"}, callCtx)})
			sc.emit(&ReturnResult{Value: NewExpr(&ir.FieldRef{Name: local}, callCtx), Raw: true})
			sc.emit(&EndIf{})
			sc.emit(&RestoreCursor{Local: savedCursorLocal})
		} else {
			sc.emit(&StartTry{})
			sc.emit(&ReturnResult{Value: NewExpr(call, callCtx), Raw: true})
			sc.emit(&StartCatch{ExceptionType: "ConstraintViolation"})
			sc.emit(&RestoreCursor{Local: savedCursorLocal})
			sc.emit(&EndTry{})
		}
	}
	sc.emit(&EndFunction{})
}
