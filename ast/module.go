package ast

// Module is the root of one parsed source file.
type Module struct {
	Position        Position
	PackageName     string
	DefaultEndian   ByteOrder
	Imports         []*Import
	Constants       []*ConstDef
	Subtypes        []*SubtypeDef
	Enums           []*EnumDef
	Structs         []*StructDef
	Unions          []*UnionDef
	Choices         []*ChoiceDef
	Constraints     []*ConstraintDef
}

// ModuleFile pairs a parsed module with the file it came from and its
// declared package name, the unit the analyzer actually operates over.
type ModuleFile struct {
	FilePath    string
	PackageName string
	Module      *Module
}

// ModuleSet is one "main" module plus zero or more imported modules, each
// already parsed. This is the analyzer's input.
type ModuleSet struct {
	Main    ModuleFile
	Imports []ModuleFile
}

// All returns every module file in the set, main first.
func (s *ModuleSet) All() []ModuleFile {
	out := make([]ModuleFile, 0, 1+len(s.Imports))
	out = append(out, s.Main)
	out = append(out, s.Imports...)
	return out
}
