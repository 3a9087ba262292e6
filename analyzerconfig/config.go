// Package analyzerconfig loads an analyzer.Config from the process
// environment, optionally pre-populated from a ".env" file. This is
// config-loading as an ambient concern: the compiler core has no CLI of
// its own, but an embedder still needs a
// place to pin run options without threading flags through every call
// site.
package analyzerconfig

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dscript/dsc/analyzer"
	"github.com/dscript/dsc/diag"
)

// Environment variable names recognized by LoadFromEnv.
const (
	EnvStopOnFirstError = "DATASCRIPT_STOP_ON_FIRST_ERROR"
	EnvMinLevel         = "DATASCRIPT_MIN_LEVEL"
	EnvWarningsAsErrors = "DATASCRIPT_WARNINGS_AS_ERRORS"
	EnvDisabledWarnings = "DATASCRIPT_DISABLED_WARNINGS" // comma-separated diag.Code list
	EnvTargetLangs      = "DATASCRIPT_TARGET_LANGS"      // comma-separated backend tags
)

// LoadFromEnv builds an analyzer.Config from defaults overridden by
// environment variables, after attempting to load envPath (a ".env" file)
// into the process environment. A missing envPath is not an error — it
// mirrors godotenv.Load's own "fine if it's not there" contract.
func LoadFromEnv(envPath string) analyzer.Config {
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	cfg := analyzer.DefaultConfig()

	if v, ok := os.LookupEnv(EnvStopOnFirstError); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.StopOnFirstError = b
		}
	}
	if v, ok := os.LookupEnv(EnvMinLevel); ok {
		if lvl, ok := parseLevel(v); ok {
			cfg.MinLevel = lvl
		}
	}
	if v, ok := os.LookupEnv(EnvWarningsAsErrors); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.WarningsAsErrors = b
		}
	}
	if v, ok := os.LookupEnv(EnvDisabledWarnings); ok {
		for _, code := range splitList(v) {
			cfg.DisabledWarnings[diag.Code(code)] = true
		}
	}
	if v, ok := os.LookupEnv(EnvTargetLangs); ok {
		for _, lang := range splitList(v) {
			cfg.TargetLanguages[strings.ToLower(lang)] = true
		}
	}

	return cfg
}

func parseLevel(v string) (diag.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "error":
		return diag.LevelError, true
	case "warning":
		return diag.LevelWarning, true
	case "note":
		return diag.LevelNote, true
	default:
		return diag.LevelNote, false
	}
}

func splitList(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
