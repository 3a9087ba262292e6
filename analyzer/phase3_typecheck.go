package analyzer

import (
	"fmt"

	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/diag"
	"github.com/dscript/dsc/symtab"
)

// checkTypes is Phase 3: verify parameterized-type argument counts and
// primitive-vs-non-primitive operand compatibility.
func checkTypes(az *Analyzed, bag *diag.Bag) {
	for _, mf := range az.Set.All() {
		checkModuleTypes(az, bag, mf.Module)
	}
}

func checkModuleTypes(az *Analyzed, bag *diag.Bag, m *ast.Module) {
	for _, s := range m.Structs {
		for _, item := range s.Body {
			if f, ok := item.(*ast.FieldDef); ok {
				checkTypeUse(az, bag, f.Type)
			}
		}
	}
	for _, u := range m.Unions {
		for _, c := range u.Cases {
			for _, item := range c.Body {
				if f, ok := item.(*ast.FieldDef); ok {
					checkTypeUse(az, bag, f.Type)
				}
			}
		}
	}
	for _, e := range m.Enums {
		checkEnumBaseType(bag, e)
	}
}

// checkTypeUse verifies that an explicit qualified-name use supplies exactly
// the declared parameter count.
func checkTypeUse(az *Analyzed, bag *diag.Bag, t ast.Type) {
	switch v := t.(type) {
	case *ast.QualifiedName:
		sym, ok := az.ResolvedTypes[v]
		if !ok {
			return // Phase 2 already reported E_UNDEFINED_TYPE.
		}
		declared := declaredParamCount(sym)
		if declared < 0 {
			return // enum/subtype/choice: no parameter list.
		}
		if len(v.Args) != declared {
			bag.Add(diag.Diagnostic{
				Level:    diag.LevelError,
				Code:     diag.EParameterCountMismatch,
				Position: v.Position,
				Message: fmt.Sprintf(
					"type '%s' expects %d argument(s), got %d",
					v.Dotted(), declared, len(v.Args),
				),
			})
		}
	case *ast.FixedArrayType:
		checkTypeUse(az, bag, v.Element)
	case *ast.RangedArrayType:
		checkTypeUse(az, bag, v.Element)
	case *ast.UnsizedArrayType:
		checkTypeUse(az, bag, v.Element)
	}
}

// checkEnumBaseType reports a type-check error when an enum's base type is
// not an integer primitive.
func checkEnumBaseType(bag *diag.Bag, e *ast.EnumDef) {
	if _, ok := e.BaseType.(*ast.PrimitiveType); !ok {
		bag.Add(diag.Diagnostic{
			Level:    diag.LevelError,
			Code:     diag.EParameterCountMismatch,
			Position: e.Position,
			Message:  fmt.Sprintf("enum '%s' base type must be an integer primitive", e.Name),
		})
	}
}

// declaredParamCount returns the number of parameters a resolved symbol
// declares, or -1 if the symbol kind carries no parameter list.
func declaredParamCount(sym *symtab.Symbol) int {
	switch sym.Kind {
	case symtab.KindStruct:
		return len(sym.Struct.Params)
	case symtab.KindUnion:
		return len(sym.Union.Params)
	default:
		return -1
	}
}
