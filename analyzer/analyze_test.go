package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/backend/registry"
	"github.com/dscript/dsc/diag"
)

func moduleSet(m *ast.Module) *ast.ModuleSet {
	return &ast.ModuleSet{Main: ast.ModuleFile{FilePath: "test.ds", PackageName: "test", Module: m}}
}

func u32(pos ast.Position) *ast.PrimitiveType {
	return &ast.PrimitiveType{Position: pos, Kind: ast.PrimUnsigned32}
}

func TestDuplicateConstantReportsRelatedLocation(t *testing.T) {
	pos1 := ast.Position{Line: 1}
	pos2 := ast.Position{Line: 2}
	m := &ast.Module{
		Constants: []*ast.ConstDef{
			{Position: pos1, Type: u32(pos1), Name: "X", Value: &ast.IntLiteral{Value: 1}},
			{Position: pos2, Type: u32(pos2), Name: "X", Value: &ast.IntLiteral{Value: 2}},
		},
	}
	res := Analyze(moduleSet(m), DefaultConfig(), registry.New())
	assert.True(t, res.HasErrors())
	var found []diag.Diagnostic
	for _, d := range res.Diagnostics {
		if d.Code == diag.EDuplicateDefinition {
			found = append(found, d)
		}
	}
	assert.Len(t, found, 1)
	assert.Contains(t, found[0].Message, "'X'")
	assert.Equal(t, pos1, found[0].Related.Position)
}

func TestCircularConstantPairReportsOnce(t *testing.T) {
	posA := ast.Position{Line: 1}
	posB := ast.Position{Line: 2}
	m := &ast.Module{
		Constants: []*ast.ConstDef{
			{Position: posA, Type: u32(posA), Name: "A", Value: &ast.BinaryExpr{
				Op: ast.BinAdd, Left: &ast.Identifier{Name: "B"}, Right: &ast.IntLiteral{Value: 1},
			}},
			{Position: posB, Type: u32(posB), Name: "B", Value: &ast.BinaryExpr{
				Op: ast.BinAdd, Left: &ast.Identifier{Name: "A"}, Right: &ast.IntLiteral{Value: 1},
			}},
		},
	}
	res := Analyze(moduleSet(m), DefaultConfig(), registry.New())
	assert.True(t, res.HasErrors())
	var count int
	for _, d := range res.Diagnostics {
		if d.Code == diag.ECircularConstant {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestStructLayoutOffsetsAndPadding(t *testing.T) {
	fa := &ast.FieldDef{Type: &ast.PrimitiveType{Kind: ast.PrimUnsigned8}, Name: "a"}
	fb := &ast.FieldDef{Type: &ast.PrimitiveType{Kind: ast.PrimUnsigned32}, Name: "b"}
	fc := &ast.FieldDef{Type: &ast.PrimitiveType{Kind: ast.PrimUnsigned8}, Name: "c"}
	s := &ast.StructDef{Name: "Aligned", Body: []ast.StructBodyItem{fa, fb, fc}}
	m := &ast.Module{Structs: []*ast.StructDef{s}}

	res := Analyze(moduleSet(m), DefaultConfig(), registry.New())
	assert.False(t, res.HasErrors())
	az := res.Analyzed
	assert.Equal(t, 0, az.FieldOffsets[fa])
	assert.Equal(t, 4, az.FieldOffsets[fb])
	assert.Equal(t, 8, az.FieldOffsets[fc])
	layout := az.StructLayouts[s]
	assert.Equal(t, 12, layout.TotalSize)
	assert.Equal(t, 4, layout.Alignment)
}

func TestSelfComparisonAlwaysFalseConstraintIsError(t *testing.T) {
	cond := &ast.BinaryExpr{Op: ast.BinNe, Left: &ast.Identifier{Name: "x"}, Right: &ast.Identifier{Name: "x"}}
	cn := &ast.ConstraintDef{Name: "NeverEqual", Condition: cond}
	m := &ast.Module{Constraints: []*ast.ConstraintDef{cn}}

	res := Analyze(moduleSet(m), DefaultConfig(), registry.New())
	assert.True(t, res.HasErrors())
	found := false
	for _, d := range res.Diagnostics {
		if d.Code == diag.EConstraintViolation {
			found = true
			assert.Equal(t, diag.LevelError, d.Level)
		}
	}
	assert.True(t, found)
}

func TestUnusedConstantWarning(t *testing.T) {
	m := &ast.Module{
		Constants: []*ast.ConstDef{
			{Type: u32(ast.Position{}), Name: "Dead", Value: &ast.IntLiteral{Value: 1}},
		},
	}
	res := Analyze(moduleSet(m), DefaultConfig(), registry.New())
	assert.False(t, res.HasErrors())
	found := false
	for _, d := range res.Diagnostics {
		if d.Code == diag.WUnusedConstant {
			found = true
		}
	}
	assert.True(t, found)
}

func TestPhase0DesugarsInlineStruct(t *testing.T) {
	inline := &ast.InlineStructField{
		Name: "header",
		Body: []ast.StructBodyItem{
			&ast.FieldDef{Type: &ast.PrimitiveType{Kind: ast.PrimUnsigned8}, Name: "tag"},
		},
	}
	s := &ast.StructDef{Name: "Packet", Body: []ast.StructBodyItem{inline}}
	m := &ast.Module{Structs: []*ast.StructDef{s}}

	res := Analyze(moduleSet(m), DefaultConfig(), registry.New())
	assert.False(t, res.HasErrors())

	field, ok := s.Body[0].(*ast.FieldDef)
	assert.True(t, ok)
	assert.Equal(t, "header", field.Name)
	qn, ok := field.Type.(*ast.QualifiedName)
	assert.True(t, ok)
	assert.Equal(t, "Packet__header__type", qn.Dotted())
	assert.Len(t, m.Structs, 2)
}

// Pins the inline-discriminator choice naming scheme: the _case/_default
// suffix attaches to
// the case's own field name, not to the choice's name, before the
// "__type" suffix.
func TestPhase0DesugarsChoiceCaseInlineStruct(t *testing.T) {
	caseInline := &ast.InlineStructField{
		Name: "ordinal_value",
		Body: []ast.StructBodyItem{
			&ast.FieldDef{Type: &ast.PrimitiveType{Kind: ast.PrimUnsigned8}, Name: "marker"},
		},
	}
	defaultInline := &ast.InlineStructField{
		Name: "string_value",
		Body: []ast.StructBodyItem{
			&ast.FieldDef{Type: &ast.PrimitiveType{Kind: ast.PrimUnsigned8}, Name: "length"},
		},
	}
	ch := &ast.ChoiceDef{
		Name:              "ne_name_or_id",
		DiscriminatorType: &ast.PrimitiveType{Kind: ast.PrimUnsigned8},
		Cases: []*ast.ChoiceCase{
			{Values: []ast.Expr{&ast.IntLiteral{Value: 0xFF}}, Payload: caseInline},
			{IsDefault: true, Payload: defaultInline},
		},
	}
	m := &ast.Module{Choices: []*ast.ChoiceDef{ch}}

	res := Analyze(moduleSet(m), DefaultConfig(), registry.New())
	assert.False(t, res.HasErrors())

	caseField, ok := ch.Cases[0].Payload.(*ast.FieldDef)
	assert.True(t, ok)
	assert.Equal(t, "ordinal_value", caseField.Name)
	caseQN, ok := caseField.Type.(*ast.QualifiedName)
	assert.True(t, ok)
	assert.Equal(t, "ne_name_or_id__ordinal_value_case__type", caseQN.Dotted())

	defaultField, ok := ch.Cases[1].Payload.(*ast.FieldDef)
	assert.True(t, ok)
	assert.Equal(t, "string_value", defaultField.Name)
	defaultQN, ok := defaultField.Type.(*ast.QualifiedName)
	assert.True(t, ok)
	assert.Equal(t, "ne_name_or_id__string_value_default__type", defaultQN.Dotted())
}
