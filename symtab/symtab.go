// Package symtab implements the per-module symbol table: a name→definition
// mapping kept in seven separate maps, one per symbol kind. Lookup
// supports both a single module and qualified (dotted, cross-module)
// resolution, the latter following the fixed
// struct→union→enum→subtype→choice kind order the analyzer's Phase 2
// uses.
package symtab

import (
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dscript/dsc/ast"
)

// Kind identifies which of the seven symbol maps a name lives in.
type Kind int

const (
	KindConstant Kind = iota
	KindStruct
	KindUnion
	KindEnum
	KindSubtype
	KindChoice
	KindConstraint
)

// Symbol is a name bound to its defining AST node and the module that owns it.
type Symbol struct {
	Kind       Kind
	Name       string
	Module     string // package name of the owning module
	Constant   *ast.ConstDef
	Struct     *ast.StructDef
	Union      *ast.UnionDef
	Enum       *ast.EnumDef
	Subtype    *ast.SubtypeDef
	Choice     *ast.ChoiceDef
	Constraint *ast.ConstraintDef
}

// Table is the symbol table for a single module.
type Table struct {
	mu        sync.RWMutex
	module    string
	constants map[string]*Symbol
	structs   map[string]*Symbol
	unions    map[string]*Symbol
	enums     map[string]*Symbol
	subtypes  map[string]*Symbol
	choices   map[string]*Symbol
	constrs   map[string]*Symbol
}

// New returns an empty table for the named module (package).
func New(moduleName string) *Table {
	return &Table{
		module:    moduleName,
		constants: map[string]*Symbol{},
		structs:   map[string]*Symbol{},
		unions:    map[string]*Symbol{},
		enums:     map[string]*Symbol{},
		subtypes:  map[string]*Symbol{},
		choices:   map[string]*Symbol{},
		constrs:   map[string]*Symbol{},
	}
}

// ModuleName returns the package name this table was created for.
func (t *Table) ModuleName() string { return t.module }

func (t *Table) mapFor(k Kind) map[string]*Symbol {
	switch k {
	case KindConstant:
		return t.constants
	case KindStruct:
		return t.structs
	case KindUnion:
		return t.unions
	case KindEnum:
		return t.enums
	case KindSubtype:
		return t.subtypes
	case KindChoice:
		return t.choices
	case KindConstraint:
		return t.constrs
	default:
		return nil
	}
}

// Declare inserts a symbol. It returns the previously-defined symbol of the
// same kind and name, if any, so the caller can report E_DUPLICATE_DEFINITION
// with a related location; it always overwrites with the new definition.
func (t *Table) Declare(sym *Symbol) (previous *Symbol, duplicate bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := t.mapFor(sym.Kind)
	if prev, ok := m[sym.Name]; ok {
		m[sym.Name] = sym
		return prev, true
	}
	m[sym.Name] = sym
	return nil, false
}

// Lookup finds a symbol of the given kind by unqualified name within this module.
func (t *Table) Lookup(k Kind, name string) (*Symbol, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sym, ok := t.mapFor(k)[name]
	return sym, ok
}

// All returns every symbol of the given kind, for reachability/iteration.
func (t *Table) All(k Kind) []*Symbol {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m := t.mapFor(k)
	out := make([]*Symbol, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	return out
}

// Universe resolves qualified names across the main module and its imports,
// following the fixed kind order: struct, union, enum, subtype, choice.
type Universe struct {
	tables  map[string]*Table // keyed by module (package) name
	order   []string          // main first, then imports, for deterministic iteration
	imports []string          // raw import module-path patterns, for wildcard matching
}

// NewUniverse builds a resolution universe from a set of per-module tables.
// moduleOrder lists module names with the main module first.
func NewUniverse(tables map[string]*Table, moduleOrder []string) *Universe {
	return &Universe{tables: tables, order: append([]string{}, moduleOrder...)}
}

var kindResolutionOrder = []Kind{KindStruct, KindUnion, KindEnum, KindSubtype, KindChoice}

// ResolveType looks up a qualified type name across every module in the
// universe in declaration order, trying struct, union, enum, subtype, choice
// in that fixed order and returning on first hit.
func (u *Universe) ResolveType(qualified string) (*Symbol, bool) {
	name := lastPart(qualified)
	for _, modName := range u.order {
		t, ok := u.tables[modName]
		if !ok {
			continue
		}
		for _, k := range kindResolutionOrder {
			if sym, ok := t.Lookup(k, name); ok {
				return sym, true
			}
		}
	}
	return nil, false
}

// ResolveConstant looks up a constant by unqualified name across the universe.
func (u *Universe) ResolveConstant(name string) (*Symbol, bool) {
	for _, modName := range u.order {
		t, ok := u.tables[modName]
		if !ok {
			continue
		}
		if sym, ok := t.Lookup(KindConstant, name); ok {
			return sym, true
		}
	}
	return nil, false
}

func lastPart(qualified string) string {
	i := strings.LastIndex(qualified, ".")
	if i < 0 {
		return qualified
	}
	return qualified[i+1:]
}

// MatchesWildcardImport reports whether moduleName is covered by a wildcard
// import pattern such as "a.b.*", using glob matching against the module's
// dotted path so multi-segment package layouts resolve the same way a
// filesystem-style package tree would.
func MatchesWildcardImport(pattern, moduleName string) bool {
	glob := strings.ReplaceAll(pattern, ".", "/")
	path := strings.ReplaceAll(moduleName, ".", "/")
	ok, err := doublestar.Match(glob, path)
	return err == nil && ok
}
