package command

import (
	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/ir"
)

// discriminatorLocal and savedCursorLocal name the scratch locals the
// choice renderer introduces; they never collide with a user field name
// since user identifiers never contain "__".
const (
	discriminatorLocal = "__disc"
	savedCursorLocal   = "__saved_cursor"
	selectorParam      = "selector"
)

// buildChoice emits a choice's tagged-sum declaration plus one reader per
// configured error-handling mode: external-selector choices
// take the already-evaluated selector value as a parameter and branch on
// it; inline-discriminator choices save the cursor before reading their
// own discriminator byte(s) and restore it when the matched case's
// payload re-reads that value.
func (b *builder) buildChoice(ch *ir.Choice) (*scope, error) {
	sc := newScope()
	sc.emit(&StartClass{Name: ch.Name})
	for _, c := range ch.Cases {
		sc.emit(&Comment{Text: "variant " + c.Name})
		sc.emit(&DeclareField{Name: c.Name, Type: c.Payload})
	}

	switch b.cfg.ErrorHandling {
	case ErrorHandlingExceptions:
		b.buildChoiceReader(sc, ch, false)
	case ErrorHandlingResults:
		b.buildChoiceReader(sc, ch, true)
	case ErrorHandlingBoth:
		b.buildChoiceReader(sc, ch, false)
		b.buildChoiceReader(sc, ch, true)
	}

	sc.emit(&EndClass{})
	return sc, nil
}

func (b *builder) buildChoiceReader(sc *scope, ch *ir.Choice, safe bool) {
	name := "read"
	if safe {
		name = "read_safe"
	}
	fn := &StartFunction{
		Name:       name,
		ReturnType: &ir.NamedTypeRef{Name: ch.Name, Kind: ir.NamedChoice},
		Static:     true,
		Reader:     true,
		Safe:       safe,
	}
	if ch.Selector != nil {
		// The selector value is evaluated by the enclosing struct's reader
		// (which can see the fields the expression references) and handed
		// in; an external selector of unknown type is widened to u64.
		fn.Params = []ir.Param{{
			Name: selectorParam,
			Type: &ir.PrimitiveTypeRef{Kind: ast.PrimUnsigned64, SizeBytes: 8},
		}}
	}
	sc.emit(fn)
	sc.emit(&DeclareLocal{Name: b.cfg.ObjectName, Type: &ir.NamedTypeRef{Name: ch.Name, Kind: ir.NamedChoice}})

	ctx := Context{ObjectName: b.cfg.ObjectName, PrefixFields: true}

	var selectorVar ir.Expr
	if ch.Selector != nil {
		selectorVar = &ir.ParameterRef{Name: selectorParam}
	} else {
		// Inline-discriminator choice owns its discriminator: the cursor
		// must be saved before the discriminator is read so a matched case
		// with Restore set can rewind to it.
		sc.emit(&DeclareLocal{Name: savedCursorLocal})
		sc.emit(&ReadField{Name: discriminatorLocal, Type: ch.DiscriminatorType, Safe: safe})
		selectorVar = &ir.FieldRef{Name: discriminatorLocal}
	}

	b.emitChoiceDispatch(sc, ch, selectorVar, ctx, safe)

	sc.emit(&ReturnResult{Value: NewExpr(&ir.FieldRef{Name: b.cfg.ObjectName}, ctx)})
	sc.emit(&EndFunction{})
}

// emitChoiceDispatch emits the if/else-if chain over ch.Cases, in
// declaration order, always closing with an else branch: the default
// case's payload reader if one exists, or ReportUnmatchedChoice if not.
func (b *builder) emitChoiceDispatch(sc *scope, ch *ir.Choice, selector ir.Expr, ctx Context, safe bool) {
	var defaultCase *ir.ChoiceCase
	first := true
	for i := range ch.Cases {
		c := &ch.Cases[i]
		if c.IsDefault {
			defaultCase = c
			continue
		}
		cond := selectorMatch(c.Mode, selector, c.Values, ctx)
		if first {
			sc.emit(&StartIf{Cond: cond})
			first = false
		} else {
			sc.emit(&StartElseIf{Cond: cond})
		}
		b.emitChoicePayloadRead(sc, ch, c, safe)
	}

	if first {
		// Degenerate choice with only a default arm (or none): there is no
		// if chain to hang an else off.
		if defaultCase != nil {
			b.emitChoicePayloadRead(sc, ch, defaultCase, safe)
		} else {
			sc.emit(&ReportUnmatchedChoice{})
		}
		return
	}

	sc.emit(&StartElse{})
	if defaultCase != nil {
		b.emitChoicePayloadRead(sc, ch, defaultCase, safe)
	} else {
		sc.emit(&ReportUnmatchedChoice{})
	}
	sc.emit(&EndIf{})
}

// emitChoicePayloadRead reads one case's payload, restoring the cursor
// first when the case's Restore flag is set (inline-discriminator choices
// whose payload re-reads the discriminator as its own first field).
func (b *builder) emitChoicePayloadRead(sc *scope, ch *ir.Choice, c *ir.ChoiceCase, safe bool) {
	if ch.Selector == nil && c.Restore {
		sc.emit(&RestoreCursor{Local: savedCursorLocal})
	}
	sc.emit(&ReadField{Name: c.Name, Type: c.Payload, Safe: safe})
}
