package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dscript/dsc/ast"
)

func TestBagFilterDropsBelowMinLevel(t *testing.T) {
	b := NewBag()
	b.Warnf(WUnusedConstant, ast.Position{}, "unused constant 'X'")
	b.Errorf(EUndefinedType, ast.Position{}, "undefined type 'Foo'")

	filtered := b.Filter(LevelError, false, nil)
	assert.Len(t, filtered, 1)
	assert.Equal(t, EUndefinedType, filtered[0].Code)
}

func TestBagFilterDisabledWarnings(t *testing.T) {
	b := NewBag()
	b.Warnf(WUnusedImport, ast.Position{}, "unused import 'a.b'")

	filtered := b.Filter(LevelNote, false, map[Code]bool{WUnusedImport: true})
	assert.Empty(t, filtered)
}

func TestBagFilterWarningsAsErrors(t *testing.T) {
	b := NewBag()
	b.Warnf(WDeprecated, ast.Position{}, "always true")

	filtered := b.Filter(LevelNote, true, nil)
	assert.Len(t, filtered, 1)
	assert.Equal(t, LevelError, filtered[0].Level)
}

func TestHasErrors(t *testing.T) {
	b := NewBag()
	assert.False(t, b.HasErrors())
	b.Warnf(WDeprecated, ast.Position{}, "x")
	assert.False(t, b.HasErrors())
	b.Errorf(ECircularConstant, ast.Position{}, "cycle")
	assert.True(t, b.HasErrors())
}
