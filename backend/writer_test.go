package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeWriterIndentsNestedBlocks(t *testing.T) {
	w := NewCodeWriter("  ")
	w.Open("ns", "namespace demo {")
	w.Open("struct", "struct S {")
	w.Line("uint8_t a{};")
	w.Close("struct", "};")
	w.Close("ns", "}")

	assert.Equal(t, "namespace demo {\n  struct S {\n    uint8_t a{};\n  };\n}\n", w.String())
	assert.True(t, w.Balanced())
}

func TestCodeWriterMismatchedClosePanics(t *testing.T) {
	w := NewCodeWriter("    ")
	w.Open("struct", "struct S {")

	defer func() {
		rec := recover()
		require.NotNil(t, rec, "closing the wrong block kind must panic")
		err, ok := rec.(*ErrUnbalancedBlock)
		require.True(t, ok)
		assert.Equal(t, "enum", err.Got)
		assert.Equal(t, "struct", err.Want)
	}()
	w.Close("enum", "};")
}

func TestCodeWriterCloseWithoutOpenPanics(t *testing.T) {
	w := NewCodeWriter("    ")
	assert.Panics(t, func() { w.Close("struct", "};") })
}

func TestBaseBackendSanitizeAppendsUnderscore(t *testing.T) {
	b := &BaseBackend{Keywords: map[string]bool{"class": true}}
	assert.Equal(t, "class_", b.Sanitize("class"))
	assert.Equal(t, "payload", b.Sanitize("payload"))
}
