package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dscript/dsc/backend"
	"github.com/dscript/dsc/backend/registry"
	"github.com/dscript/dsc/command"
	"github.com/dscript/dsc/ir"
)

// fakeBackend is the minimal Backend a registry test needs.
type fakeBackend struct {
	backend.BaseBackend
}

func newFake(name string, keywords ...string) *fakeBackend {
	kw := map[string]bool{}
	for _, k := range keywords {
		kw[k] = true
	}
	return &fakeBackend{BaseBackend: backend.BaseBackend{
		Meta:     backend.Metadata{LanguageName: name},
		Keywords: kw,
	}}
}

func (f *fakeBackend) TypeName(t ir.TypeRef) string { return "x" }

func (f *fakeBackend) Render(cmds []command.Command, opts backend.RenderOptions) ([]backend.OutputFile, error) {
	return nil, nil
}

func TestGetIsCaseInsensitiveOnLanguageTag(t *testing.T) {
	r := registry.New()
	r.Register(newFake("Cpp"))

	b, ok := r.Get("CPP")
	require.True(t, ok)
	assert.Equal(t, "Cpp", b.Metadata().LanguageName)
	assert.True(t, r.Has("cpp"))
	assert.False(t, r.Has("rust"))
}

func TestRegisterIsIdempotentAndReplaces(t *testing.T) {
	r := registry.New()
	first := newFake("cpp", "class")
	second := newFake("cpp", "struct")
	r.Register(first)
	r.Register(second)

	assert.Len(t, r.AllLanguages(), 1)
	assert.False(t, r.IsKeyword("cpp", "class"))
	assert.True(t, r.IsKeyword("cpp", "struct"))
}

func TestConflictingLanguages(t *testing.T) {
	r := registry.New()
	r.Register(newFake("cpp", "switch", "template"))
	r.Register(newFake("go", "switch", "func"))

	assert.ElementsMatch(t, []string{"cpp", "go"}, r.ConflictingLanguages("switch"))
	assert.ElementsMatch(t, []string{"go"}, r.ConflictingLanguages("func"))
	assert.Empty(t, r.ConflictingLanguages("payload"))
}

func TestAllKeywordsIsUnionAcrossBackends(t *testing.T) {
	r := registry.New()
	r.Register(newFake("cpp", "class"))
	r.Register(newFake("go", "func"))

	all := r.AllKeywords()
	assert.True(t, all["class"])
	assert.True(t, all["func"])
	assert.False(t, all["payload"])
}

func TestIsKeywordOnUnregisteredLanguage(t *testing.T) {
	r := registry.New()
	assert.False(t, r.IsKeyword("rust", "match"))
}
