package irbuilder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dscript/dsc/analyzer"
	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/backend/registry"
	"github.com/dscript/dsc/ir"
	"github.com/dscript/dsc/irbuilder"
)

func u16Type() *ast.PrimitiveType {
	return &ast.PrimitiveType{Kind: ast.PrimUnsigned16}
}

func qn(name string, args ...ast.Expr) *ast.QualifiedName {
	return &ast.QualifiedName{Parts: []string{name}, Args: args}
}

func TestBuildCopiesFoldedConstants(t *testing.T) {
	m := &ast.Module{
		Constants: []*ast.ConstDef{
			{Type: u16Type(), Name: "MAGIC", Value: &ast.IntLiteral{Value: 0xFEED}},
		},
		Structs: []*ast.StructDef{
			{Name: "S", Body: []ast.StructBodyItem{
				&ast.FieldDef{Type: &ast.FixedArrayType{Element: u8Type(), Size: &ast.Identifier{Name: "MAGIC"}}, Name: "data"},
			}},
		},
	}
	bundle := lowerModule(t, m)
	assert.Equal(t, uint64(0xFEED), bundle.Constants["MAGIC"])
}

// Monomorphization is determinate: the same instantiation set yields the same suffixed names
// and the same set of emitted concrete definitions, and the parameterized
// base definition itself never reaches the bundle.
func TestMonomorphizationIsDeterministic(t *testing.T) {
	build := func() *ir.Bundle {
		base := &ast.StructDef{
			Name:   "Packet",
			Params: []ast.Param{{Type: u16Type(), Name: "n"}},
			Body: []ast.StructBodyItem{
				&ast.FieldDef{Type: &ast.FixedArrayType{Element: u8Type(), Size: &ast.Identifier{Name: "n"}}, Name: "payload"},
			},
		}
		user := &ast.StructDef{
			Name: "Frame",
			Body: []ast.StructBodyItem{
				&ast.FieldDef{Type: qn("Packet", &ast.IntLiteral{Value: 4}), Name: "small"},
				&ast.FieldDef{Type: qn("Packet", &ast.IntLiteral{Value: 16}), Name: "big"},
				&ast.FieldDef{Type: qn("Packet", &ast.IntLiteral{Value: 4}), Name: "small_again"},
			},
		}
		return lowerModule(t, &ast.Module{Structs: []*ast.StructDef{base, user}})
	}

	b1 := build()
	b2 := build()

	names := func(b *ir.Bundle) []string {
		out := make([]string, len(b.Structs))
		for i, s := range b.Structs {
			out[i] = s.Name
		}
		return out
	}
	assert.Equal(t, names(b1), names(b2))
	assert.Equal(t, b1.MonomorphSuffixes, b2.MonomorphSuffixes)

	assert.ElementsMatch(t, []string{"Frame", "Packet_4", "Packet_16"}, names(b1))
	assert.Equal(t, []string{"Packet_4", "Packet_16"}, b1.MonomorphSuffixes["Packet"])
}

func TestMonomorphizationSubstitutesArguments(t *testing.T) {
	base := &ast.StructDef{
		Name:   "Packet",
		Params: []ast.Param{{Type: u16Type(), Name: "n"}},
		Body: []ast.StructBodyItem{
			&ast.FieldDef{Type: &ast.FixedArrayType{Element: u8Type(), Size: &ast.Identifier{Name: "n"}}, Name: "payload"},
		},
	}
	user := &ast.StructDef{
		Name: "Frame",
		Body: []ast.StructBodyItem{
			&ast.FieldDef{Type: qn("Packet", &ast.IntLiteral{Value: 4}), Name: "p"},
		},
	}
	bundle := lowerModule(t, &ast.Module{Structs: []*ast.StructDef{base, user}})

	var instance *ir.Struct
	for i := range bundle.Structs {
		if bundle.Structs[i].Name == "Packet_4" {
			instance = &bundle.Structs[i]
		}
	}
	require.NotNil(t, instance)
	require.Len(t, instance.Fields, 1)

	arr, ok := instance.Fields[0].Type.(*ir.FixedArrayTypeRef)
	require.True(t, ok)
	size, ok := arr.Size.(*ir.IntLiteral)
	require.True(t, ok, "parameter reference must be substituted by the concrete argument")
	assert.Equal(t, uint64(4), size.Value)
}

// A `bit<3>` expression-width bitfield with a constant
// width folds to a fixed width, so adjacent bitfields share one run.
func TestExprBitfieldConstantWidthJoinsRun(t *testing.T) {
	s := &ast.StructDef{Name: "Flags", Body: []ast.StructBodyItem{
		&ast.FieldDef{Type: &ast.ExprBitfieldType{Width: &ast.IntLiteral{Value: 3}}, Name: "priority"},
		&ast.FieldDef{Type: &ast.ExprBitfieldType{Width: &ast.IntLiteral{Value: 5}}, Name: "reserved"},
	}}
	bundle := lowerModule(t, &ast.Module{Structs: []*ast.StructDef{s}})

	require.Len(t, bundle.Structs, 1)
	fields := bundle.Structs[0].Fields
	require.Len(t, fields, 2)

	for i, want := range []int{3, 5} {
		bf, ok := fields[i].Type.(*ir.BitfieldTypeRef)
		require.True(t, ok)
		require.NotNil(t, bf.Width, "constant bit<expr> width must fold to a fixed width")
		assert.Equal(t, want, *bf.Width)
	}
	assert.Equal(t, fields[0].BitfieldRun, fields[1].BitfieldRun)
	assert.NotEmpty(t, fields[0].BitfieldRun)
}

// A width referencing an earlier field stays a runtime expression and
// never joins a packed run.
func TestExprBitfieldRuntimeWidthStaysDynamic(t *testing.T) {
	s := &ast.StructDef{Name: "Var", Body: []ast.StructBodyItem{
		&ast.FieldDef{Type: u8Type(), Name: "width"},
		&ast.FieldDef{Type: &ast.ExprBitfieldType{Width: &ast.Identifier{Name: "width"}}, Name: "value"},
	}}
	bundle := lowerModule(t, &ast.Module{Structs: []*ast.StructDef{s}})

	fields := bundle.Structs[0].Fields
	require.Len(t, fields, 2)
	bf, ok := fields[1].Type.(*ir.BitfieldTypeRef)
	require.True(t, ok)
	assert.Nil(t, bf.Width)
	require.NotNil(t, bf.WidthExpr)
	assert.Empty(t, fields[1].BitfieldRun)
}

// The open-question decision recorded in DESIGN.md: exact-match case
// values naming enum items reach the IR as folded integers, never as
// symbolic references.
func TestChoiceCaseValueNamingEnumItemFoldsToInteger(t *testing.T) {
	e := &ast.EnumDef{
		Name:     "Kind",
		BaseType: u8Type(),
		Items: []*ast.EnumItem{
			{Name: "ALPHA"},
			{Name: "BETA", Value: &ast.IntLiteral{Value: 7}},
		},
	}
	ch := &ast.ChoiceDef{
		Name: "Body",
		On:   &ast.Identifier{Name: "kind"},
		Cases: []*ast.ChoiceCase{
			{
				Mode: ast.SelectExact,
				Values: []ast.Expr{&ast.FieldAccess{
					Base:  &ast.Identifier{Name: "Kind"},
					Field: "BETA",
				}},
				Payload: &ast.FieldDef{Type: u8Type(), Name: "b"},
			},
			{IsDefault: true, Payload: &ast.FieldDef{Type: u8Type(), Name: "other"}},
		},
	}
	bundle := lowerModule(t, &ast.Module{Enums: []*ast.EnumDef{e}, Choices: []*ast.ChoiceDef{ch}})

	require.Len(t, bundle.Choices, 1)
	require.Len(t, bundle.Choices[0].Cases[0].Values, 1)
	lit, ok := bundle.Choices[0].Cases[0].Values[0].(*ir.IntLiteral)
	require.True(t, ok, "enum-item case value must fold to an integer literal")
	assert.Equal(t, uint64(7), lit.Value)
}

func TestBuildFailsOnInconsistentAnalyzedSet(t *testing.T) {
	m := &ast.Module{
		Constants: []*ast.ConstDef{
			{Type: u16Type(), Name: "X", Value: &ast.IntLiteral{Value: 1}},
		},
	}
	res := analyzer.Analyze(moduleSet(m), analyzer.DefaultConfig(), registry.New())
	require.NotNil(t, res.Analyzed)

	// Simulate an upstream bug: the folded value vanished.
	delete(res.Analyzed.ConstantValues, m.Constants[0])

	_, err := irbuilder.Build(res.Analyzed)
	assert.ErrorIs(t, err, irbuilder.ErrInconsistentAnalysis)
}
