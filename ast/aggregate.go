package ast

// Param is a declared struct parameter, e.g. `uint16 n` in `struct S(uint16 n)`.
type Param struct {
	Position Position
	Type     Type
	Name     string
}

// StructBodyItem is the closed sum of items that may appear in a struct body.
type StructBodyItem interface {
	structBodyItem()
	Pos() Position
}

// FieldDef is an ordinary field: type, name, optional guard, optional
// inline constraint expression, optional default value.
type FieldDef struct {
	Position   Position
	Doc        string
	Type       Type
	Name       string
	Condition  Expr // optional guard
	Constraint Expr // optional inline boolean predicate over the field value
	Default    Expr // optional
}

func (*FieldDef) structBodyItem() {}
func (n *FieldDef) Pos() Position { return n.Position }

// InlineUnionField is `{ case ... } name` before Phase 0 desugars it away.
type InlineUnionField struct {
	Position  Position
	Name      string
	Condition Expr
	Cases     []*UnionCase
}

func (*InlineUnionField) structBodyItem() {}
func (n *InlineUnionField) Pos() Position { return n.Position }

// InlineStructField is `{ ... } name` before Phase 0 desugars it away.
type InlineStructField struct {
	Position Position
	Name     string
	Body     []StructBodyItem
}

func (*InlineStructField) structBodyItem() {}
func (n *InlineStructField) Pos() Position { return n.Position }

// LabelDirective seeks the read cursor to `start + Target` before the next field.
type LabelDirective struct {
	Position Position
	Target   Expr
}

func (*LabelDirective) structBodyItem() {}
func (n *LabelDirective) Pos() Position { return n.Position }

// AlignDirective pads the cursor to the next N-byte boundary before the next field.
type AlignDirective struct {
	Position Position
	N        int
}

func (*AlignDirective) structBodyItem() {}
func (n *AlignDirective) Pos() Position { return n.Position }

// Stmt is the closed sum of function-body statement kinds.
type Stmt interface {
	stmtNode()
	Pos() Position
}

// ReturnStmt returns a value from a function body.
type ReturnStmt struct {
	Position Position
	Value    Expr
}

func (*ReturnStmt) stmtNode()        {}
func (n *ReturnStmt) Pos() Position { return n.Position }

// ExprStmt evaluates an expression for effect.
type ExprStmt struct {
	Position Position
	Value    Expr
}

func (*ExprStmt) stmtNode()        {}
func (n *ExprStmt) Pos() Position { return n.Position }

// FunctionDef is a named method attached to a struct.
type FunctionDef struct {
	Position   Position
	Doc        string
	Name       string
	Params     []Param
	ReturnType Type
	Body       []Stmt
}

func (*FunctionDef) structBodyItem() {}
func (n *FunctionDef) Pos() Position { return n.Position }

// StructDef is a named aggregate with ordered fields.
type StructDef struct {
	Position Position
	Doc      string
	Name     string
	Params   []Param
	Body     []StructBodyItem
}

// UnionCase is one arm of a union body: optional name, optional condition,
// and a list of body items (usually a single field).
type UnionCase struct {
	Position  Position
	Name      string
	Condition Expr
	Body      []StructBodyItem
}

// UnionDef is a named set of overlapping-storage cases.
type UnionDef struct {
	Position Position
	Doc      string
	Name     string
	Params   []Param
	Cases    []*UnionCase
}

// SelectorMode is the comparison used to match a choice case against the
// discriminator value.
type SelectorMode int

const (
	SelectExact SelectorMode = iota
	SelectGe
	SelectGt
	SelectLe
	SelectLt
	SelectNe
)

// ChoiceCase is one arm of a choice: a selector mode, zero or more case
// values (zero only for the default arm), and a payload.
type ChoiceCase struct {
	Position  Position
	IsDefault bool
	Mode      SelectorMode
	Values    []Expr
	// Payload is either a single FieldDef or an InlineStructField/InlineUnionField
	// before desugaring; after Phase 0 it is always a FieldDef naming a
	// synthesized or pre-existing type.
	Payload StructBodyItem
}

// ChoiceDef has either an external selector (On != nil) or an inline
// discriminator type (DiscriminatorType != nil); exactly one is set.
type ChoiceDef struct {
	Position          Position
	Doc               string
	Name              string
	On                Expr
	DiscriminatorType Type
	Cases             []*ChoiceCase
}

// EnumItem is one member of an enum: a name and an optional explicit value.
type EnumItem struct {
	Position Position
	Doc      string
	Name     string
	Value    Expr // optional; auto-increment if nil
}

// EnumDef is a named set of integer constants over a base primitive type.
type EnumDef struct {
	Position   Position
	Doc        string
	Name       string
	BaseType   Type
	IsBitmask  bool
	Items      []*EnumItem
}

// SubtypeDef narrows BaseType by Constraint, an expression over `this`.
type SubtypeDef struct {
	Position   Position
	Doc        string
	Name       string
	BaseType   Type
	Constraint Expr
}

// ConstraintDef is a named, reusable boolean predicate with typed parameters.
type ConstraintDef struct {
	Position  Position
	Doc       string
	Name      string
	Params    []Param
	Condition Expr
}

// ConstDef is a named constant with a folded value computed in Phase 4.
type ConstDef struct {
	Position Position
	Doc      string
	Type     Type
	Name     string
	Value    Expr
}

// Import is a single `import` directive; Wildcard is true for `x.y.*`.
type Import struct {
	Position Position
	Parts    []string
	Wildcard bool
}
