package analyzer

import (
	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/backend/registry"
	"github.com/dscript/dsc/diag"
	"github.com/dscript/dsc/symtab"
)

// collectSymbols is Phase 1: populate the symbol table for each module and
// run the keyword-collision check against the backend registry.
func collectSymbols(az *Analyzed, bag *diag.Bag, reg *registry.Registry, cfg Config) {
	langs, unknown := resolveTargetLanguages(reg, cfg.TargetLanguages)
	for _, lang := range unknown {
		bag.Add(diag.Diagnostic{
			Level:   diag.LevelError,
			Code:    diag.EUnknownTargetLanguage,
			Message: "unknown target language '" + lang + "'; available: " + joinLanguages(reg),
		})
	}

	for _, mf := range az.Set.All() {
		tbl := symtab.New(mf.PackageName)
		az.Tables[mf.PackageName] = tbl
		collectModuleSymbols(tbl, mf.Module, bag, reg, langs)
	}
}

// resolveTargetLanguages expands an empty set to every registered backend;
// returns the unknown entries from an explicit non-empty set.
func resolveTargetLanguages(reg *registry.Registry, requested map[string]bool) (langs []string, unknown []string) {
	if reg == nil {
		return nil, nil
	}
	if len(requested) == 0 {
		return reg.AllLanguages(), nil
	}
	for lang := range requested {
		if reg.Has(lang) {
			langs = append(langs, lang)
		} else {
			unknown = append(unknown, lang)
		}
	}
	return langs, unknown
}

func joinLanguages(reg *registry.Registry) string {
	if reg == nil {
		return ""
	}
	langs := reg.AllLanguages()
	out := ""
	for i, l := range langs {
		if i > 0 {
			out += ", "
		}
		out += l
	}
	return out
}

func collectModuleSymbols(tbl *symtab.Table, m *ast.Module, bag *diag.Bag, reg *registry.Registry, langs []string) {
	declare := func(kind symtab.Kind, name string, pos ast.Position, label string, sym *symtab.Symbol) {
		sym.Kind = kind
		sym.Name = name
		sym.Module = tbl.ModuleName()
		if prev, dup := tbl.Declare(sym); dup {
			bag.Add(diag.Diagnostic{
				Level:   diag.LevelError,
				Code:    diag.EDuplicateDefinition,
				Message: label + " '" + name + "' defined twice in module",
				Position: pos,
				Related: &diag.RelatedLocation{
					Position: positionOf(prev),
					Message:  "previous definition here",
				},
			})
		}
		checkKeywordCollision(bag, name, pos, reg, langs)
	}

	for _, c := range m.Constants {
		declare(symtab.KindConstant, c.Name, c.Position, "Constant", &symtab.Symbol{Constant: c})
	}
	for _, s := range m.Structs {
		declare(symtab.KindStruct, s.Name, s.Position, "Struct", &symtab.Symbol{Struct: s})
		for _, item := range s.Body {
			if f, ok := item.(*ast.FieldDef); ok {
				checkKeywordCollision(bag, f.Name, f.Position, reg, langs)
			}
		}
	}
	for _, u := range m.Unions {
		declare(symtab.KindUnion, u.Name, u.Position, "Union", &symtab.Symbol{Union: u})
	}
	for _, e := range m.Enums {
		declare(symtab.KindEnum, e.Name, e.Position, "Enum", &symtab.Symbol{Enum: e})
		for _, item := range e.Items {
			checkKeywordCollision(bag, item.Name, item.Position, reg, langs)
		}
	}
	for _, st := range m.Subtypes {
		declare(symtab.KindSubtype, st.Name, st.Position, "Subtype", &symtab.Symbol{Subtype: st})
	}
	for _, ch := range m.Choices {
		declare(symtab.KindChoice, ch.Name, ch.Position, "Choice", &symtab.Symbol{Choice: ch})
	}
	for _, cn := range m.Constraints {
		declare(symtab.KindConstraint, cn.Name, cn.Position, "Constraint", &symtab.Symbol{Constraint: cn})
	}
}

func checkKeywordCollision(bag *diag.Bag, name string, pos ast.Position, reg *registry.Registry, langs []string) {
	if reg == nil {
		return
	}
	for _, lang := range langs {
		if reg.IsKeyword(lang, name) {
			sanitized := name + "_"
			if b, ok := reg.Get(lang); ok {
				sanitized = b.Sanitize(name)
			}
			bag.Add(diag.Diagnostic{
				Level:      diag.LevelWarning,
				Code:       diag.WKeywordCollision,
				Position:   pos,
				Message:    "identifier '" + name + "' is a reserved keyword in " + lang,
				Suggestion: sanitized,
			})
		}
	}
}

func positionOf(sym *symtab.Symbol) ast.Position {
	switch {
	case sym.Constant != nil:
		return sym.Constant.Position
	case sym.Struct != nil:
		return sym.Struct.Position
	case sym.Union != nil:
		return sym.Union.Position
	case sym.Enum != nil:
		return sym.Enum.Position
	case sym.Subtype != nil:
		return sym.Subtype.Position
	case sym.Choice != nil:
		return sym.Choice.Position
	case sym.Constraint != nil:
		return sym.Constraint.Position
	default:
		return ast.Position{}
	}
}
