package librarymode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/backend/librarymode"
	"github.com/dscript/dsc/ir"
)

func u8() *ir.PrimitiveTypeRef  { return &ir.PrimitiveTypeRef{Kind: ast.PrimUnsigned8, SizeBytes: 1} }
func u32() *ir.PrimitiveTypeRef { return &ir.PrimitiveTypeRef{Kind: ast.PrimUnsigned32, SizeBytes: 4} }

func typeName(t ir.TypeRef) string {
	switch t.(type) {
	case *ir.PrimitiveTypeRef:
		return "prim"
	case *ir.StringTypeRef:
		return "str"
	default:
		return "other"
	}
}

func TestBuildIntrospectionRecordsOffsetsInOrder(t *testing.T) {
	bundle := ir.NewBundle("m")
	bundle.Structs = append(bundle.Structs, ir.Struct{
		Name: "Header",
		Fields: []ir.Field{
			{Name: "magic", Type: u32()},
			{Name: "version", Type: u8()},
			{Name: "flags", Type: u8()},
		},
	})

	out := librarymode.BuildIntrospection(bundle, typeName)
	require.Len(t, out, 1)
	require.Len(t, out[0].Fields, 3)

	assert.Equal(t, "magic", out[0].Fields[0].Name)
	assert.Equal(t, 0, out[0].Fields[0].Offset)
	assert.Equal(t, 4, out[0].Fields[1].Offset)
	assert.Equal(t, 5, out[0].Fields[2].Offset)
	assert.True(t, out[0].Fields[2].HasStaticOffset())
}

func TestBuildIntrospectionMarksOffsetsUnknownAfterVariableField(t *testing.T) {
	bundle := ir.NewBundle("m")
	bundle.Structs = append(bundle.Structs, ir.Struct{
		Name: "Record",
		Fields: []ir.Field{
			{Name: "tag", Type: u8()},
			{Name: "name", Type: &ir.StringTypeRef{}},
			{Name: "after", Type: u8()},
		},
	})

	out := librarymode.BuildIntrospection(bundle, typeName)
	require.Len(t, out, 1)
	fields := out[0].Fields

	assert.Equal(t, 0, fields[0].Offset)
	// The string itself still starts at a known offset; everything after
	// it does not.
	assert.Equal(t, 1, fields[1].Offset)
	assert.Equal(t, -1, fields[2].Offset)
	assert.False(t, fields[2].HasStaticOffset())
}

func TestBuildIntrospectionResolvesNestedStructSizes(t *testing.T) {
	bundle := ir.NewBundle("m")
	bundle.Structs = append(bundle.Structs,
		ir.Struct{
			Name:      "Inner",
			Fields:    []ir.Field{{Name: "a", Type: u32()}},
			TotalSize: 4,
		},
		ir.Struct{
			Name: "Outer",
			Fields: []ir.Field{
				{Name: "inner", Type: &ir.NamedTypeRef{Name: "Inner", Kind: ir.NamedStruct}},
				{Name: "tail", Type: u8()},
			},
		},
	)

	out := librarymode.BuildIntrospection(bundle, typeName)
	require.Len(t, out, 2)
	outer := out[1]
	assert.Equal(t, 0, outer.Fields[0].Offset)
	assert.Equal(t, 4, outer.Fields[1].Offset)
}

func TestTrackerMirrorsBundleIntrospection(t *testing.T) {
	tracker := librarymode.NewTracker()

	inner := tracker.StartStruct()
	assert.Equal(t, 0, inner.Next(u32()))
	tracker.FinishStruct("Inner", inner)

	outer := tracker.StartStruct()
	assert.Equal(t, 0, outer.Next(&ir.NamedTypeRef{Name: "Inner", Kind: ir.NamedStruct}))
	assert.Equal(t, 4, outer.Next(u8()))
	tracker.FinishStruct("Outer", outer)

	fixed := tracker.StartStruct()
	assert.Equal(t, 0, fixed.Next(&ir.FixedArrayTypeRef{Element: u8(), Size: &ir.IntLiteral{Value: 3}}))
	assert.Equal(t, 3, fixed.Next(u8()))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "runtime", librarymode.KindRuntime.String())
	assert.Equal(t, "public-surface", librarymode.KindPublicSurface.String())
	assert.Equal(t, "implementation", librarymode.KindImplementation.String())
}
