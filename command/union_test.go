package command_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/command"
	"github.com/dscript/dsc/ir"
)

func u32() *ir.PrimitiveTypeRef {
	return &ir.PrimitiveTypeRef{Kind: ast.PrimUnsigned32, SizeBytes: 4}
}

func valueUnion() ir.Union {
	return ir.Union{
		Name: "Value",
		Cases: []ir.UnionCase{
			{Fields: []ir.Field{{Name: "as_int", Type: u32()}}},
			{Fields: []ir.Field{{Name: "as_byte", Type: u8()}}},
		},
	}
}

func TestBuildUnionEmitsCaseReadersAndTrialRead(t *testing.T) {
	bundle := ir.NewBundle("m")
	bundle.Unions = append(bundle.Unions, valueUnion())

	cmds, err := command.Build(bundle, command.Config{ObjectName: "obj"})
	require.NoError(t, err)

	var readers []string
	var sawTry, sawCatch, sawRestore bool
	for _, c := range cmds {
		switch v := c.(type) {
		case *command.StartFunction:
			readers = append(readers, v.Name)
		case *command.StartTry:
			sawTry = true
		case *command.StartCatch:
			sawCatch = true
			assert.Equal(t, "ConstraintViolation", v.ExceptionType)
		case *command.RestoreCursor:
			sawRestore = true
			assert.Equal(t, "__saved_cursor", v.Local)
		}
	}
	assert.Equal(t, []string{"read_as_as_int", "read_as_as_byte", "read"}, readers)
	assert.True(t, sawTry, "non-final cases must be tried")
	assert.True(t, sawCatch, "a failed trial must be caught, not propagated")
	assert.True(t, sawRestore, "a failed trial must rewind the cursor")
}

func TestBuildUnionSingleFieldCasesDeclareVariant(t *testing.T) {
	bundle := ir.NewBundle("m")
	bundle.Unions = append(bundle.Unions, valueUnion())

	cmds, err := command.Build(bundle, command.Config{ObjectName: "obj"})
	require.NoError(t, err)

	var variant *command.DeclareVariant
	for _, c := range cmds {
		if dv, ok := c.(*command.DeclareVariant); ok {
			variant = dv
		}
	}
	require.NotNil(t, variant)
	assert.Equal(t, "value", variant.Name)
	require.Len(t, variant.Types, 2)
}

func TestBuildUnionLastCaseIsNotWrappedInTry(t *testing.T) {
	bundle := ir.NewBundle("m")
	bundle.Unions = append(bundle.Unions, valueUnion())

	cmds, err := command.Build(bundle, command.Config{ObjectName: "obj"})
	require.NoError(t, err)

	var tries int
	for _, c := range cmds {
		if _, ok := c.(*command.StartTry); ok {
			tries++
		}
	}
	assert.Equal(t, 1, tries, "only non-final cases are trial-wrapped; the last case's error surfaces")
}

func TestBuildUnionResultsModeUsesSafeCaseReaders(t *testing.T) {
	bundle := ir.NewBundle("m")
	bundle.Unions = append(bundle.Unions, valueUnion())

	cmds, err := command.Build(bundle, command.Config{ObjectName: "obj", ErrorHandling: command.ErrorHandlingResults})
	require.NoError(t, err)

	var readers []string
	var sawTry bool
	for _, c := range cmds {
		if sf, ok := c.(*command.StartFunction); ok {
			readers = append(readers, sf.Name)
			assert.True(t, sf.Safe)
		}
		if _, ok := c.(*command.StartTry); ok {
			sawTry = true
		}
	}
	assert.Equal(t, []string{"read_as_as_int_safe", "read_as_as_byte_safe", "read_safe"}, readers)
	assert.False(t, sawTry, "result mode never emits try/catch")
}
