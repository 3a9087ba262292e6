// Package command implements the Command Builder: it projects
// an IR bundle into an ordered, language-neutral command stream that a
// backend's code writer later renders into source text. The command stream
// is itself a closed tagged sum, mirroring the AST/IR closed-sum style
// rather than a polymorphic node hierarchy.
package command

import "github.com/dscript/dsc/ir"

// Command is the closed sum of emittable command kinds.
type Command interface{ commandNode() }

// --- structural ---

type StartNamespace struct{ Name string }

func (*StartNamespace) commandNode() {}

type EndNamespace struct{}

func (*EndNamespace) commandNode() {}

type StartStruct struct{ Name string }

func (*StartStruct) commandNode() {}

type EndStruct struct{}

func (*EndStruct) commandNode() {}

// StartClass opens a tagged-sum wrapper type (used for choices and unions
// rendered as variant types rather than plain structs).
type StartClass struct{ Name string }

func (*StartClass) commandNode() {}

type EndClass struct{}

func (*EndClass) commandNode() {}

type StartEnum struct {
	Name     string
	BaseType ir.TypeRef
}

func (*StartEnum) commandNode() {}

type EnumMember struct {
	Name  string
	Value uint64
}

func (*EnumMember) commandNode() {}

type EndEnum struct{}

func (*EndEnum) commandNode() {}

type StartFunction struct {
	Name       string
	Params     []ir.Param
	ReturnType ir.TypeRef
	// Static is true for the generated readers (`read`, `read_safe`, a
	// union's `read_as_<case>`) and subtype validators; false for struct
	// methods lowered from a FunctionDef.
	Static bool
	// Reader marks a generated reader: the backend gives it the cursor
	// protocol signature (cursor, end, then Params) instead of rendering
	// Params alone.
	Reader bool
	// Safe selects the result-returning reader shape over the
	// exception-raising one; meaningful only when Reader is set.
	Safe bool
}

func (*StartFunction) commandNode() {}

type EndFunction struct{}

func (*EndFunction) commandNode() {}

type StartScope struct{}

func (*StartScope) commandNode() {}

type EndScope struct{}

func (*EndScope) commandNode() {}

// --- statements ---

type DeclareField struct {
	Name string
	Type ir.TypeRef
}

func (*DeclareField) commandNode() {}

// DeclareLocal introduces a scratch local (a saved cursor, a discriminator
// value, a selector value) not destined to become a struct field.
type DeclareLocal struct {
	Name string
	Type ir.TypeRef
	Init Expr
}

func (*DeclareLocal) commandNode() {}

// WriteLine emits a literal source line verbatim — used sparingly, for
// cases where lowering to an abstract command would add no value.
type WriteLine struct{ Text string }

func (*WriteLine) commandNode() {}

type Comment struct{ Text string }

func (*Comment) commandNode() {}

// ExprStatement evaluates an expression for its side effect, mirroring an
// ast.ExprStmt/ir.ExprStmt statement lowered from a struct method body.
type ExprStatement struct{ Value Expr }

func (*ExprStatement) commandNode() {}

type Blank struct{}

func (*Blank) commandNode() {}

// --- control flow ---

type StartIf struct{ Cond Expr }

func (*StartIf) commandNode() {}

type StartElseIf struct{ Cond Expr }

func (*StartElseIf) commandNode() {}

type StartElse struct{}

func (*StartElse) commandNode() {}

type EndIf struct{}

func (*EndIf) commandNode() {}

type StartFor struct {
	Var   string
	Count Expr
}

func (*StartFor) commandNode() {}

type EndFor struct{}

func (*EndFor) commandNode() {}

type StartWhile struct{ Cond Expr }

func (*StartWhile) commandNode() {}

type EndWhile struct{}

func (*EndWhile) commandNode() {}

type StartTry struct{}

func (*StartTry) commandNode() {}

type StartCatch struct{ ExceptionType string }

func (*StartCatch) commandNode() {}

type EndTry struct{}

func (*EndTry) commandNode() {}

// --- reads ---

// ReadField emits the read of one field:
// the concrete read strategy is determined by Type.
type ReadField struct {
	Name string
	Type ir.TypeRef
	// Safe selects the read_safe/ReadResult-returning variant over the
	// exception-raising one; the backend decides what that means concretely.
	Safe bool
	// Selector carries the rendered selector argument when Type names an
	// external-selector choice: the expression is evaluated in the
	// enclosing struct's scope and passed into the choice's reader. Zero-valued otherwise.
	Selector Expr
}

func (*ReadField) commandNode() {}

// DeclareVariant declares one storage member holding any of Types, for
// backends whose union rendering wraps the case payloads in a sum type
// (std::variant in the reference backend).
type DeclareVariant struct {
	Name  string
	Types []ir.TypeRef
}

func (*DeclareVariant) commandNode() {}

// DeclareConstant emits a bundle-level constant as a target-language
// constant declaration, so ConstantRef expressions inside rendered readers
// resolve to a real identifier.
type DeclareConstant struct {
	Name  string
	Value uint64
}

func (*DeclareConstant) commandNode() {}

// ReadBitfieldRun reads the minimum covering bytes once and extracts every
// member of the run via mask+shift.
type ReadBitfieldRun struct {
	RunName   string
	TotalBits int
	Members   []BitfieldMember
}

func (*ReadBitfieldRun) commandNode() {}

type BitfieldMember struct {
	FieldName string
	BitOffset int
	BitWidth  int
}

// ReadDynamicBitfield reads one bitfield whose width is only known at run
// time (`bit<expr>` referencing an earlier field): the emitted code
// evaluates Width first, rejects a non-positive or >64 value, then reads
// the covering bytes and masks.
type ReadDynamicBitfield struct {
	Name  string
	Width Expr
	Safe  bool
}

func (*ReadDynamicBitfield) commandNode() {}

// RestoreCursor rewinds the read cursor to a previously saved position:
// an inline-discriminator choice case whose payload re-reads the
// discriminator, or a union reader abandoning one trial case before the
// next.
type RestoreCursor struct{ Local string }

func (*RestoreCursor) commandNode() {}

// LabelSeek computes the target address relative to the buffer start,
// bounds-checks it, and sets the read cursor.
type LabelSeek struct{ Target Expr }

func (*LabelSeek) commandNode() {}

// AlignPad rounds the current offset up to the next multiple of N,
// advancing and bounds-checking the cursor.
type AlignPad struct{ N int }

func (*AlignPad) commandNode() {}

// ValidateConstraint emits a call to the named constraint's validator with
// the given arguments, branching to the error path on failure.
type ValidateConstraint struct {
	ConstraintName string
	Args           []Expr
}

func (*ValidateConstraint) commandNode() {}

// ReportUnmatchedChoice emits the UnmatchedChoice failure path used when no
// case (and no default) matches a choice's selector value.
type ReportUnmatchedChoice struct{}

func (*ReportUnmatchedChoice) commandNode() {}

// ReturnResult emits the function epilogue: returning the constructed
// object or, in result mode, a success-wrapped result value. Raw
// suppresses the result wrapping — the value is returned verbatim, for
// passing an already-wrapped sub-reader result straight through.
type ReturnResult struct {
	Value Expr
	Raw   bool
}

func (*ReturnResult) commandNode() {}
