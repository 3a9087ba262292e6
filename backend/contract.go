// Package backend defines the Language Backend contract: the
// interface every code-generation target implements, plus BaseBackend, a
// shared partial implementation new backends embed for common metadata
// and keyword-set storage.
package backend

import (
	"github.com/dscript/dsc/command"
	"github.com/dscript/dsc/ir"
)

// ErrorHandlingMode selects the reference backend's generated error taxonomy
//. Backends that don't support a mode may reject it. Re-exported
// from package command, which owns the canonical definition since the
// command builder itself must pick a prologue/epilogue shape per mode.
type ErrorHandlingMode = command.ErrorHandlingMode

const (
	ErrorHandlingExceptions = command.ErrorHandlingExceptions
	ErrorHandlingResults    = command.ErrorHandlingResults
	ErrorHandlingBoth       = command.ErrorHandlingBoth
)

// RenderOptions configures a single Render call.
type RenderOptions struct {
	Namespace     string
	ErrorHandling ErrorHandlingMode
	LibraryMode   bool
}

// OutputFile is one generated artifact: a path relative to the
// output directory and its complete text.
type OutputFile struct {
	Path    string
	Content string
}

// Metadata is a backend's self-description.
type Metadata struct {
	LanguageName      string
	FileExtension     string
	IsCaseSensitive   bool
	DefaultObjectName string
	SupportsGenerics  bool
	SupportsExceptions bool
	Version           string
}

// Backend is the contract every code-generation target implements.
type Backend interface {
	Metadata() Metadata
	ReservedKeywords() map[string]bool
	Sanitize(identifier string) string
	TypeName(t ir.TypeRef) string
	Render(cmds []command.Command, opts RenderOptions) ([]OutputFile, error)
}

// LibraryModeBackend is implemented by backends that opt into the
// multi-artifact library mode.
type LibraryModeBackend interface {
	Backend
	RenderLibrary(cmds []command.Command, opts RenderOptions) ([]OutputFile, error)
}
