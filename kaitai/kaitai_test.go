package kaitai_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/ir"
	"github.com/dscript/dsc/kaitai"
)

func TestToIRHintsConvertsTopLevelSeq(t *testing.T) {
	spec := &kaitai.Spec{
		Meta: kaitai.Meta{ID: "my_format", Endian: "le"},
		Seq: []kaitai.Attribute{
			{ID: "magic", Type: "u4"},
			{ID: "version", Type: "u1"},
			{ID: "name", Type: "str"},
		},
	}

	bundle := kaitai.ToIRHints(spec)

	require.Len(t, bundle.Structs, 1)
	s := bundle.Structs[0]
	assert.Equal(t, "MyFormat", s.Name)
	require.Len(t, s.Fields, 3)

	magic, ok := s.Fields[0].Type.(*ir.PrimitiveTypeRef)
	require.True(t, ok)
	assert.Equal(t, ast.PrimUnsigned32, magic.Kind)
	assert.Equal(t, ast.ByteOrderLittle, magic.ByteOrder)

	_, ok = s.Fields[2].Type.(*ir.StringTypeRef)
	assert.True(t, ok)
}

func TestToIRHintsHonorsPerFieldEndianSuffix(t *testing.T) {
	spec := &kaitai.Spec{
		Meta: kaitai.Meta{ID: "packet", Endian: "le"},
		Seq: []kaitai.Attribute{
			{ID: "length", Type: "u2be"},
		},
	}

	bundle := kaitai.ToIRHints(spec)

	length := bundle.Structs[0].Fields[0].Type.(*ir.PrimitiveTypeRef)
	assert.Equal(t, ast.ByteOrderBig, length.ByteOrder)
	assert.Equal(t, ast.PrimUnsigned16, length.Kind)
}

func TestToIRHintsRepeatEosProducesVariableArray(t *testing.T) {
	spec := &kaitai.Spec{
		Meta: kaitai.Meta{ID: "stream"},
		Seq: []kaitai.Attribute{
			{ID: "chunks", Type: "u1", Repeat: "eos"},
		},
	}

	bundle := kaitai.ToIRHints(spec)

	arr, ok := bundle.Structs[0].Fields[0].Type.(*ir.VariableArrayTypeRef)
	require.True(t, ok)
	_, ok = arr.Element.(*ir.PrimitiveTypeRef)
	assert.True(t, ok)
}

func TestToIRHintsRepeatExprWithLiteralCount(t *testing.T) {
	spec := &kaitai.Spec{
		Meta: kaitai.Meta{ID: "stream"},
		Seq: []kaitai.Attribute{
			{ID: "entries", Type: "u4", Repeat: "expr", RepeatExpr: "8"},
		},
	}

	bundle := kaitai.ToIRHints(spec)

	arr, ok := bundle.Structs[0].Fields[0].Type.(*ir.FixedArrayTypeRef)
	require.True(t, ok)
	lit, ok := arr.Size.(*ir.IntLiteral)
	require.True(t, ok)
	assert.Equal(t, uint64(8), lit.Value)
}

func TestToIRHintsRepeatExprWithFieldReference(t *testing.T) {
	spec := &kaitai.Spec{
		Meta: kaitai.Meta{ID: "stream"},
		Seq: []kaitai.Attribute{
			{ID: "count", Type: "u4"},
			{ID: "entries", Type: "u1", Repeat: "expr", RepeatExpr: "count"},
		},
	}

	bundle := kaitai.ToIRHints(spec)

	arr := bundle.Structs[0].Fields[1].Type.(*ir.FixedArrayTypeRef)
	ref, ok := arr.Size.(*ir.FieldRef)
	require.True(t, ok)
	assert.Equal(t, "count", ref.Name)
}

func TestToIRHintsConvertsEnumsByNumericValue(t *testing.T) {
	spec := &kaitai.Spec{
		Meta: kaitai.Meta{ID: "m"},
		Enums: map[string]map[int]string{
			"color": {0: "red", 1: "blue"},
		},
	}

	bundle := kaitai.ToIRHints(spec)

	require.Len(t, bundle.Enums, 1)
	assert.Equal(t, "Color", bundle.Enums[0].Name)
	require.Len(t, bundle.Enums[0].Items, 2)
	assert.Equal(t, "red", bundle.Enums[0].Items[0].Name)
	assert.Equal(t, uint64(0), bundle.Enums[0].Items[0].Value)
	assert.Equal(t, "blue", bundle.Enums[0].Items[1].Name)
	assert.Equal(t, uint64(1), bundle.Enums[0].Items[1].Value)
}

func TestToIRHintsNamedTypeReferenceForUnknownType(t *testing.T) {
	spec := &kaitai.Spec{
		Meta: kaitai.Meta{ID: "m"},
		Seq: []kaitai.Attribute{
			{ID: "header", Type: "packet_header"},
		},
	}

	bundle := kaitai.ToIRHints(spec)

	named, ok := bundle.Structs[0].Fields[0].Type.(*ir.NamedTypeRef)
	require.True(t, ok)
	assert.Equal(t, "PacketHeader", named.Name)
	assert.Equal(t, ir.NamedStruct, named.Kind)
}

func TestToIRHintsConvertsNestedTypes(t *testing.T) {
	spec := &kaitai.Spec{
		Meta: kaitai.Meta{ID: "m"},
		Types: map[string]kaitai.TypeDef{
			"header": {
				Seq: []kaitai.Attribute{{ID: "magic", Type: "u4"}},
			},
		},
	}

	bundle := kaitai.ToIRHints(spec)

	require.Len(t, bundle.Structs, 1)
	assert.Equal(t, "Header", bundle.Structs[0].Name)
}

func TestToIRHintsFieldGuardFromIfClause(t *testing.T) {
	spec := &kaitai.Spec{
		Meta: kaitai.Meta{ID: "m"},
		Seq: []kaitai.Attribute{
			{ID: "extra", Type: "u1", If: "has_extra"},
		},
	}

	bundle := kaitai.ToIRHints(spec)

	guard, ok := bundle.Structs[0].Fields[0].Guard.(*ir.FieldRef)
	require.True(t, ok)
	assert.Equal(t, "has_extra", guard.Name)
}

func TestParseYAMLRoundTripsThroughToIRHints(t *testing.T) {
	doc := []byte(`
meta:
  id: my_format
  endian: le
seq:
  - id: magic
    type: u4
  - id: version
    type: u1
`)

	spec, err := kaitai.ParseYAML(doc)
	require.NoError(t, err)
	assert.Equal(t, "my_format", spec.Meta.ID)
	assert.Equal(t, "le", spec.Meta.Endian)
	require.Len(t, spec.Seq, 2)
	assert.Equal(t, "magic", spec.Seq[0].ID)

	bundle := kaitai.ToIRHints(spec)
	require.Len(t, bundle.Structs, 1)
	assert.Equal(t, "MyFormat", bundle.Structs[0].Name)
}

func TestParseYAMLRequiresMetaID(t *testing.T) {
	_, err := kaitai.ParseYAML([]byte("seq:\n  - id: a\n    type: u1\n"))
	assert.Error(t, err)
}

func TestParseYAMLRejectsMalformedDocument(t *testing.T) {
	_, err := kaitai.ParseYAML([]byte("meta: [this, is, not, a, mapping"))
	assert.Error(t, err)
}
