package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dscript/dsc/ast"
)

func TestDeclareReportsDuplicate(t *testing.T) {
	tbl := New("main")
	first := &ast.ConstDef{Name: "X"}
	second := &ast.ConstDef{Name: "X"}

	_, dup := tbl.Declare(&Symbol{Kind: KindConstant, Name: "X", Constant: first})
	assert.False(t, dup)

	prev, dup := tbl.Declare(&Symbol{Kind: KindConstant, Name: "X", Constant: second})
	assert.True(t, dup)
	assert.Same(t, first, prev.Constant)
}

func TestResolveTypeOrderStructBeforeUnion(t *testing.T) {
	tbl := New("main")
	tbl.Declare(&Symbol{Kind: KindUnion, Name: "Shape", Union: &ast.UnionDef{Name: "Shape"}})
	tbl.Declare(&Symbol{Kind: KindStruct, Name: "Shape", Struct: &ast.StructDef{Name: "Shape"}})

	u := NewUniverse(map[string]*Table{"main": tbl}, []string{"main"})
	sym, ok := u.ResolveType("Shape")
	assert.True(t, ok)
	assert.Equal(t, KindStruct, sym.Kind)
}

func TestResolveTypeAcrossModulesMainFirst(t *testing.T) {
	main := New("main")
	imported := New("lib")
	imported.Declare(&Symbol{Kind: KindEnum, Name: "Color", Enum: &ast.EnumDef{Name: "Color"}})

	u := NewUniverse(map[string]*Table{"main": main, "lib": imported}, []string{"main", "lib"})
	sym, ok := u.ResolveType("lib.Color")
	assert.True(t, ok)
	assert.Equal(t, KindEnum, sym.Kind)
}

func TestMatchesWildcardImport(t *testing.T) {
	assert.True(t, MatchesWildcardImport("a.b.*", "a.b.c"))
	assert.False(t, MatchesWildcardImport("a.b.*", "a.x.c"))
}
