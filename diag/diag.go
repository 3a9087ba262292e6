// Package diag implements structured compiler diagnostics: level, stable
// code, source position, optional related location, and optional
// suggested fix. The stable string code is kept separate from the human
// message so tools can match on codes without parsing prose.
package diag

import (
	"fmt"

	"github.com/dscript/dsc/ast"
)

// Level is the severity of a diagnostic.
type Level int

const (
	LevelNote Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	default:
		return "note"
	}
}

// Code is a stable, machine-readable diagnostic identifier.
type Code string

const (
	EDuplicateDefinition    Code = "E_DUPLICATE_DEFINITION"
	EUndefinedType          Code = "E_UNDEFINED_TYPE"
	EParameterCountMismatch Code = "E_PARAMETER_COUNT_MISMATCH"
	EDivisionByZero         Code = "E_DIVISION_BY_ZERO"
	ECircularConstant       Code = "E_CIRCULAR_CONSTANT"
	EConstraintViolation    Code = "E_CONSTRAINT_VIOLATION"
	EUnknownTargetLanguage  Code = "E_UNKNOWN_TARGET_LANGUAGE"
	WKeywordCollision       Code = "W_KEYWORD_COLLISION"
	WUnusedConstant         Code = "W_UNUSED_CONSTANT"
	WUnusedImport           Code = "W_UNUSED_IMPORT"
	WDeprecated             Code = "W_DEPRECATED"
)

// DefaultLevel is the severity a code carries before any
// warnings-as-errors promotion.
func (c Code) DefaultLevel() Level {
	if len(c) > 0 && c[0] == 'E' {
		return LevelError
	}
	return LevelWarning
}

// RelatedLocation points at a secondary position relevant to a diagnostic,
// e.g. the site of a prior conflicting definition.
type RelatedLocation struct {
	Position ast.Position
	Message  string
}

// Diagnostic is one structured compiler message.
type Diagnostic struct {
	Level      Level
	Code       Code
	Message    string
	Position   ast.Position
	Related    *RelatedLocation
	Suggestion string
}

// Bag accumulates diagnostics across analyzer phases. It never drops a
// message on append; filtering happens once, at the end of a run.
type Bag struct {
	items []Diagnostic
}

// NewBag returns an empty diagnostics bag.
func NewBag() *Bag { return &Bag{} }

// Add appends a diagnostic.
func (b *Bag) Add(d Diagnostic) { b.items = append(b.items, d) }

// Errorf appends an error-level diagnostic with no related location or suggestion.
func (b *Bag) Errorf(code Code, pos ast.Position, format string, args ...any) {
	b.Add(Diagnostic{Level: LevelError, Code: code, Position: pos, Message: fmt.Sprintf(format, args...)})
}

// Warnf appends a warning-level diagnostic.
func (b *Bag) Warnf(code Code, pos ast.Position, format string, args ...any) {
	b.Add(Diagnostic{Level: LevelWarning, Code: code, Position: pos, Message: fmt.Sprintf(format, args...)})
}

// Items returns the accumulated diagnostics in append order.
func (b *Bag) Items() []Diagnostic { return b.items }

// HasErrors reports whether any accumulated diagnostic is error-level.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Level == LevelError {
			return true
		}
	}
	return false
}

// Filter applies disabled-warning silencing, warnings-as-errors promotion,
// and min-level dropping, in that order, returning a new slice.
// It never mutates the bag.
func (b *Bag) Filter(minLevel Level, warningsAsErrors bool, disabled map[Code]bool) []Diagnostic {
	out := make([]Diagnostic, 0, len(b.items))
	for _, d := range b.items {
		if disabled[d.Code] {
			continue
		}
		if warningsAsErrors && d.Level == LevelWarning {
			d.Level = LevelError
		}
		if d.Level < minLevel {
			continue
		}
		out = append(out, d)
	}
	return out
}
