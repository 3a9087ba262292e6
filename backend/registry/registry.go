// Package registry implements the process-wide Backend Registry: a map
// from normalized language name to a single backend instance. A
// sync.RWMutex guards the map: many readers during a compilation, a rare
// writer at startup. Registration must happen before the first query;
// that ordering is the embedder's contract.
package registry

import (
	"strings"
	"sync"

	"github.com/dscript/dsc/backend"
)

// Registry maps a normalized (lower-cased) language tag to a backend.
// Registration is idempotent: re-registering a language replaces the
// previous instance. Lookup is case-insensitive on the tag only.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]backend.Backend
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{backends: map[string]backend.Backend{}}
}

func normalize(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// Register binds a backend to its language name, replacing any previous
// binding for that name.
func (r *Registry) Register(b backend.Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[normalize(b.Metadata().LanguageName)] = b
}

// Get returns the backend registered for name, if any.
func (r *Registry) Get(name string) (backend.Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[normalize(name)]
	return b, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// AllLanguages enumerates every registered language tag.
func (r *Registry) AllLanguages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.backends))
	for name := range r.backends {
		out = append(out, name)
	}
	return out
}

// IsKeyword reports whether id is a reserved keyword of the named language.
// An unregistered language is treated as having no keywords.
func (r *Registry) IsKeyword(lang, id string) bool {
	b, ok := r.Get(lang)
	if !ok {
		return false
	}
	return b.ReservedKeywords()[id]
}

// ConflictingLanguages returns every registered language whose keyword set
// contains id, used by Phase 1's cross-language collision check.
func (r *Registry) ConflictingLanguages(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for name, b := range r.backends {
		if b.ReservedKeywords()[id] {
			out = append(out, name)
		}
	}
	return out
}

// AllKeywords returns the union of every registered backend's keyword set.
func (r *Registry) AllKeywords() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := map[string]bool{}
	for _, b := range r.backends {
		for kw := range b.ReservedKeywords() {
			out[kw] = true
		}
	}
	return out
}

// defaultRegistry is the process-wide singleton seeded by an embedder's
// explicit bootstrap call — never by package init(), so that "registration
// happens before first query" remains the caller's contract rather than an
// import-order accident.
var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry, creating it on first use.
func Default() *Registry {
	defaultOnce.Do(func() { defaultRegistry = New() })
	return defaultRegistry
}
