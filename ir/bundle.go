package ir

import "github.com/dscript/dsc/ast"

// Field is one field of an IR struct, listed in read order.
type Field struct {
	Name       string
	Type       TypeRef
	Guard      Expr // optional
	Applied    []ConstraintApplication
	LabelSeek  Expr // optional
	AlignTo    int  // 0 means "no alignment directive"
	// BitfieldRun, when non-empty, names the run this field belongs to;
	// the emitter batches adjacent bitfields sharing a run into one read.
	BitfieldRun string
}

// ConstraintApplication attaches a named constraint (by index into the
// bundle's Constraints list) with concrete argument expressions.
type ConstraintApplication struct {
	ConstraintIndex int
	Args            []Expr
}

// Method is a function lowered from an AST FunctionDef.
type Method struct {
	Name       string
	Params     []Param
	ReturnType TypeRef
	Body       []Stmt
}

type Param struct {
	Name string
	Type TypeRef
}

// Stmt is the closed sum of IR statement kinds inside a lowered method body.
type Stmt interface{ irStmtNode() }

type ReturnStmt struct{ Value Expr }

func (*ReturnStmt) irStmtNode() {}

type ExprStmt struct{ Value Expr }

func (*ExprStmt) irStmtNode() {}

// Struct is a fully lowered, possibly-monomorphized aggregate.
type Struct struct {
	Name      string
	Fields    []Field
	Methods   []Method
	TotalSize int
	Alignment int
}

// UnionCase is one arm of an IR union.
type UnionCase struct {
	Name      string
	Condition Expr
	Fields    []Field
}

type Union struct {
	Name      string
	Cases     []UnionCase
	TotalSize int
	Alignment int
}

// ChoiceCase is one arm of an IR choice.
type ChoiceCase struct {
	// Name is the payload field's own name (e.g. "ord", "str" in
	// `{ ... } ord;`) — the variant arm's identifier for backends that
	// render choices as tagged sums.
	Name      string
	IsDefault bool
	Mode      ast.SelectorMode
	Values    []Expr
	Payload   TypeRef
	// Restore, for inline-discriminator choices, marks that the cursor must
	// be rewound to the pre-discriminator position before the payload reads
	//; always false for external-selector choices.
	Restore bool
}

type Choice struct {
	Name string
	// Selector is set for external-selector choices; DiscriminatorType is
	// set for inline-discriminator choices. Exactly one is non-nil.
	Selector          Expr
	DiscriminatorType TypeRef
	Cases             []ChoiceCase
	TotalSize         int
	Alignment         int
}

type EnumItem struct {
	Name  string
	Value uint64
}

type Enum struct {
	Name      string
	BaseType  TypeRef
	IsBitmask bool
	Items     []EnumItem
}

type Subtype struct {
	Name       string
	BaseType   TypeRef
	Constraint Expr // over the identifier "this"
}

type Constraint struct {
	Name      string
	Params    []Param
	Condition Expr
}

// Bundle is a self-contained IR module: it owns all its data
// and references no AST node.
type Bundle struct {
	ModuleName string
	Constants  map[string]uint64
	Enums      []Enum
	Subtypes   []Subtype
	Structs    []Struct
	Unions     []Union
	Choices    []Choice

	Constraints []Constraint

	// MonomorphSuffixes maps a base parameterized-type name to the ordered
	// list of concrete instance names synthesized from it, for deterministic
	// instance naming across runs.
	MonomorphSuffixes map[string][]string

	Imports []string
}

// NewBundle returns an empty bundle for moduleName.
func NewBundle(moduleName string) *Bundle {
	return &Bundle{
		ModuleName:        moduleName,
		Constants:         map[string]uint64{},
		MonomorphSuffixes: map[string][]string{},
	}
}
