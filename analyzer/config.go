package analyzer

import "github.com/dscript/dsc/diag"

// Config holds the analyzer's enumerated run options.
type Config struct {
	StopOnFirstError bool
	MinLevel         diag.Level
	WarningsAsErrors bool
	DisabledWarnings map[diag.Code]bool
	// TargetLanguages is the set of backend tags consulted for
	// keyword-collision checks in Phase 1; empty means "all registered".
	TargetLanguages map[string]bool
}

// DefaultConfig returns the zero-value-safe default: nothing silenced,
// warnings kept as warnings, every registered backend consulted.
func DefaultConfig() Config {
	return Config{
		MinLevel:         diag.LevelNote,
		DisabledWarnings: map[diag.Code]bool{},
		TargetLanguages:  map[string]bool{},
	}
}
