package backend

import "github.com/dscript/dsc/ir"

// BaseBackend is the shared partial implementation every concrete backend
// embeds: it owns the keyword set
// and metadata, and supplies a default Sanitize; concrete backends override
// TypeName and Render.
type BaseBackend struct {
	Meta     Metadata
	Keywords map[string]bool
}

// Metadata returns the backend's self-description.
func (b *BaseBackend) Metadata() Metadata { return b.Meta }

// ReservedKeywords returns the backend's full keyword set.
func (b *BaseBackend) ReservedKeywords() map[string]bool { return b.Keywords }

// Sanitize appends an underscore to any identifier that collides with a
// reserved keyword, the simplest conflict-free transform.
func (b *BaseBackend) Sanitize(identifier string) string {
	if b.Keywords[identifier] {
		return identifier + "_"
	}
	return identifier
}

// DefaultPrimitiveTypeName renders a primitive IR type reference using a
// lookup table, the shape most backends need; callers that require a
// different mapping override TypeName entirely instead of calling this.
func DefaultPrimitiveTypeName(t *ir.PrimitiveTypeRef, names map[ir.PrimitiveKind]string) string {
	if n, ok := names[t.Kind]; ok {
		return n
	}
	return "unknown"
}
