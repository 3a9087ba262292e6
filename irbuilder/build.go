// Package irbuilder projects an analyzed module set to an IR bundle:
// resolved names replace qualified-name nodes, AST expressions are
// lowered to the IR's owned expression algebra, and parameterized types
// are monomorphized into concrete instances. Failure here is a programmer
// error (an inconsistent analyzed set was handed in), not a user-visible
// diagnostic: a successfully analyzed module set is a hard precondition,
// not something to re-validate here.
package irbuilder

import (
	"fmt"
	"strings"

	"github.com/dscript/dsc/analyzer"
	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/diag"
	"github.com/dscript/dsc/ir"
)

func discardBag() *diag.Bag { return diag.NewBag() }

// ErrInconsistentAnalysis signals that the analyzed set handed to Build
// violates a precondition Build relies on (e.g. a type-position
// qualified-name has no entry in ResolvedTypes). It is never expected from
// a set that completed Analyze with zero errors.
var ErrInconsistentAnalysis = fmt.Errorf("irbuilder: inconsistent analyzed module set")

// Builder lowers one analyzed module set to one IR bundle.
type Builder struct {
	az     *analyzer.Analyzed
	bundle *ir.Bundle

	// monomorphInstances maps "BaseName|arg1,arg2,..." to the synthesized
	// instance name already emitted, so repeated uses of the same
	// instantiation produce exactly one IR definition.
	monomorphInstances map[string]string
	monomorphPending   []monomorphJob
}

type monomorphJob struct {
	baseStructName string
	instanceName   string
	args           []ast.Expr
}

// Build lowers az (which must have zero errors) into a new IR bundle.
func Build(az *analyzer.Analyzed) (*ir.Bundle, error) {
	b := &Builder{
		az:                 az,
		bundle:             ir.NewBundle(az.Set.Main.PackageName),
		monomorphInstances: map[string]string{},
	}
	return b.build()
}

func (b *Builder) build() (*ir.Bundle, error) {
	for _, imp := range b.az.Set.Main.Module.Imports {
		dotted := strings.Join(imp.Parts, ".")
		if imp.Wildcard {
			dotted += ".*"
		}
		b.bundle.Imports = append(b.bundle.Imports, dotted)
	}

	for _, mf := range b.az.Set.All() {
		for _, c := range mf.Module.Constants {
			v, ok := b.az.ConstantValues[c]
			if !ok {
				return nil, fmt.Errorf("%w: constant %q has no folded value", ErrInconsistentAnalysis, c.Name)
			}
			b.bundle.Constants[c.Name] = v
		}
	}

	for _, mf := range b.az.Set.All() {
		for _, e := range mf.Module.Enums {
			b.bundle.Enums = append(b.bundle.Enums, b.lowerEnum(e))
		}
		for _, st := range mf.Module.Subtypes {
			b.bundle.Subtypes = append(b.bundle.Subtypes, b.lowerSubtype(st))
		}
		for _, cn := range mf.Module.Constraints {
			b.bundle.Constraints = append(b.bundle.Constraints, b.lowerConstraintDef(cn))
		}
	}

	for _, mf := range b.az.Set.All() {
		for _, s := range mf.Module.Structs {
			if len(s.Params) == 0 {
				lowered, err := b.lowerStruct(s, nil)
				if err != nil {
					return nil, err
				}
				b.bundle.Structs = append(b.bundle.Structs, *lowered)
			}
		}
		for _, u := range mf.Module.Unions {
			// Unions are never monomorphized (see lowerQualifiedName), so a
			// parameterized union lowers under its declared name with its
			// parameters left as ParameterRef expressions.
			lowered, err := b.lowerUnion(u, nil)
			if err != nil {
				return nil, err
			}
			b.bundle.Unions = append(b.bundle.Unions, *lowered)
		}
		for _, ch := range mf.Module.Choices {
			lowered, err := b.lowerChoice(ch)
			if err != nil {
				return nil, err
			}
			b.bundle.Choices = append(b.bundle.Choices, *lowered)
		}
	}

	// Drain monomorphization jobs discovered while lowering field types;
	// new jobs may themselves be discovered while processing the queue
	// (a monomorphized struct referencing another parameterized struct).
	for len(b.monomorphPending) > 0 {
		job := b.monomorphPending[0]
		b.monomorphPending = b.monomorphPending[1:]
		lowered, err := b.instantiateStruct(job)
		if err != nil {
			return nil, err
		}
		b.bundle.Structs = append(b.bundle.Structs, *lowered)
	}

	return b.bundle, nil
}

// monomorphName synthesizes BaseName_a1_a2_..._an, sanitizing symbolic
// arguments to an identifier-safe form.
func monomorphName(base string, args []ast.Expr, az *analyzer.Analyzed) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, base)
	for _, a := range args {
		if v, ok := analyzer.FoldConst(az, discardBag(), a); ok {
			parts = append(parts, fmt.Sprintf("%d", v))
		} else if id, ok := a.(*ast.Identifier); ok {
			parts = append(parts, sanitizeIdent(id.Name))
		} else {
			parts = append(parts, "expr")
		}
	}
	return strings.Join(parts, "_")
}

func sanitizeIdent(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
