// Package analyzer implements the seven-phase semantic analyzer. The
// phases run in a fixed order with an optional stop_on_first_error
// short-circuit; each phase lives in its own file.
package analyzer

import (
	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/backend/registry"
	"github.com/dscript/dsc/diag"
	"github.com/dscript/dsc/symtab"
)

// Analyze runs all seven phases over set and returns either an analyzed
// module set or a nonempty diagnostics list. A run is never fatal: any
// panic-worthy internal inconsistency is a programmer error outside this
// function's contract, not something Analyze recovers from.
func Analyze(set *ast.ModuleSet, cfg Config, reg *registry.Registry) Result {
	bag := diag.NewBag()
	az := newAnalyzed(set)

	desugarModules(az, bag)
	if cfg.StopOnFirstError && bag.HasErrors() {
		return finish(az, bag, cfg, false)
	}

	collectSymbols(az, bag, reg, cfg)
	if cfg.StopOnFirstError && bag.HasErrors() {
		return finish(az, bag, cfg, false)
	}
	buildUniverse(az)

	resolveNames(az, bag)
	if cfg.StopOnFirstError && bag.HasErrors() {
		return finish(az, bag, cfg, false)
	}

	checkTypes(az, bag)
	if cfg.StopOnFirstError && bag.HasErrors() {
		return finish(az, bag, cfg, false)
	}

	evaluateConstants(az, bag)
	if cfg.StopOnFirstError && bag.HasErrors() {
		return finish(az, bag, cfg, false)
	}

	calculateSizes(az, bag)
	if cfg.StopOnFirstError && bag.HasErrors() {
		return finish(az, bag, cfg, false)
	}

	validateConstraints(az, bag)
	if cfg.StopOnFirstError && bag.HasErrors() {
		return finish(az, bag, cfg, false)
	}

	analyzeReachability(az, bag)

	return finish(az, bag, cfg, true)
}

func finish(az *Analyzed, bag *diag.Bag, cfg Config, allPhasesRan bool) Result {
	filtered := bag.Filter(cfg.MinLevel, cfg.WarningsAsErrors, cfg.DisabledWarnings)
	res := Result{Diagnostics: filtered}
	hasErr := false
	for _, d := range filtered {
		if d.Level == diag.LevelError {
			hasErr = true
			break
		}
	}
	if !hasErr && allPhasesRan {
		res.Analyzed = az
	}
	return res
}

func buildUniverse(az *Analyzed) {
	order := make([]string, 0, len(az.Tables))
	main := az.Set.Main.PackageName
	order = append(order, main)
	for _, imp := range az.Set.Imports {
		if imp.PackageName != main {
			order = append(order, imp.PackageName)
		}
	}
	az.Universe = symtab.NewUniverse(az.Tables, order)
}
