// Package cpp implements the reference C++-shaped Language Backend: it
// renders a command stream produced by package command into a pragma-
// once, namespace-nested header, with a selectable generated-code error
// taxonomy and an opt-in library-mode split.
package cpp

import (
	"github.com/dscript/dsc/backend"
	"github.com/dscript/dsc/backend/registry"
	"github.com/dscript/dsc/command"
)

// reservedKeywords is the complete C++17 keyword set, plus the handful of
// context-sensitive identifiers ("override", "final") that collide in
// practice.
var reservedKeywords = buildKeywordSet([]string{
	"alignas", "alignof", "and", "and_eq", "asm", "atomic_cancel", "atomic_commit",
	"atomic_noexcept", "auto", "bitand", "bitor", "bool", "break", "case", "catch",
	"char", "char8_t", "char16_t", "char32_t", "class", "compl", "concept", "const",
	"consteval", "constexpr", "constinit", "const_cast", "continue", "co_await",
	"co_return", "co_yield", "decltype", "default", "delete", "do", "double",
	"dynamic_cast", "else", "enum", "explicit", "export", "extern", "false", "float",
	"for", "friend", "goto", "if", "inline", "int", "long", "mutable", "namespace",
	"new", "noexcept", "not", "not_eq", "nullptr", "operator", "or", "or_eq",
	"private", "protected", "public", "reflexpr", "register", "reinterpret_cast",
	"requires", "return", "short", "signed", "sizeof", "static", "static_assert",
	"static_cast", "struct", "switch", "synchronized", "template", "this",
	"thread_local", "throw", "true", "try", "typedef", "typeid", "typename",
	"union", "unsigned", "using", "virtual", "void", "volatile", "wchar_t",
	"while", "xor", "xor_eq", "override", "final",
})

func buildKeywordSet(words []string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[w] = true
	}
	return out
}

// Backend is the reference C++ code-generation target.
type Backend struct {
	backend.BaseBackend
}

// New returns the C++ backend instance.
func New() *Backend {
	return &Backend{BaseBackend: backend.BaseBackend{
		Meta: backend.Metadata{
			LanguageName:       "cpp",
			FileExtension:      ".hpp",
			IsCaseSensitive:    true,
			DefaultObjectName:  "obj",
			SupportsGenerics:   true,
			SupportsExceptions: true,
			Version:            "1.0",
		},
		Keywords: reservedKeywords,
	}}
}

// Bootstrap registers the C++ backend with reg. Registration is an explicit
// caller step,
// never a package init() side effect.
func Bootstrap(reg *registry.Registry) {
	reg.Register(New())
}

// CommandConfig derives the command.Config a caller must pass to
// command.Build so that the emitted DeclareLocal/ReadField pairing agrees
// with how this backend renders the object local — ObjectName is the one
// piece of command-builder configuration a backend, not the embedder,
// owns.
func (b *Backend) CommandConfig(opts backend.RenderOptions) command.Config {
	return command.Config{
		Namespace:     opts.Namespace,
		ErrorHandling: opts.ErrorHandling,
		LibraryMode:   opts.LibraryMode,
		ObjectName:    b.Meta.DefaultObjectName,
	}
}
