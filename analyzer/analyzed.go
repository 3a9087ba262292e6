package analyzer

import (
	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/diag"
	"github.com/dscript/dsc/symtab"
)

// SizeAlign is a computed (total_size, alignment) pair for a struct, union,
// or choice.
type SizeAlign struct {
	TotalSize int
	Alignment int
}

// Analyzed is the analyzed module set: AST plus side tables
// keyed by AST node identity, never by mutable fields on the node itself.
type Analyzed struct {
	Set *ast.ModuleSet

	Universe *symtab.Universe
	Tables   map[string]*symtab.Table // keyed by module (package) name

	// ResolvedTypes maps each qualified-name node to its resolved symbol.
	ResolvedTypes map[*ast.QualifiedName]*symtab.Symbol

	// ConstantValues maps each constant definition to its folded value.
	ConstantValues map[*ast.ConstDef]uint64

	// FieldOffsets maps each field to its byte offset within its enclosing aggregate.
	FieldOffsets map[*ast.FieldDef]int

	StructLayouts map[*ast.StructDef]SizeAlign
	UnionLayouts  map[*ast.UnionDef]SizeAlign
	ChoiceLayouts map[*ast.ChoiceDef]SizeAlign

	// DesugaredUnions/DesugaredStructs are the synthesized aggregates Phase 0
	// appended to their owning module, in creation order, for callers that
	// want to distinguish source-level from synthesized definitions.
	DesugaredUnions  []*ast.UnionDef
	DesugaredStructs []*ast.StructDef

	// ChoiceRestore marks, per choice case, whether the emitter must restore
	// the cursor before reading the case's payload.
	ChoiceRestore map[*ast.ChoiceCase]bool
}

func newAnalyzed(set *ast.ModuleSet) *Analyzed {
	return &Analyzed{
		Set:            set,
		Tables:         map[string]*symtab.Table{},
		ResolvedTypes:  map[*ast.QualifiedName]*symtab.Symbol{},
		ConstantValues: map[*ast.ConstDef]uint64{},
		FieldOffsets:   map[*ast.FieldDef]int{},
		StructLayouts:  map[*ast.StructDef]SizeAlign{},
		UnionLayouts:   map[*ast.UnionDef]SizeAlign{},
		ChoiceLayouts:  map[*ast.ChoiceDef]SizeAlign{},
		ChoiceRestore:  map[*ast.ChoiceCase]bool{},
	}
}

// Result is the outcome of one Analyze call.
type Result struct {
	Analyzed    *Analyzed // nil if has-errors
	Diagnostics []diag.Diagnostic
}

// HasErrors reports whether any filtered diagnostic is error-level.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Level == diag.LevelError {
			return true
		}
	}
	return false
}
