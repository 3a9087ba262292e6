package buildcache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/ir"
)

func sampleBundle() *ir.Bundle {
	b := ir.NewBundle("pkt")
	b.Constants["MAGIC"] = 0xFEED
	b.Structs = append(b.Structs, ir.Struct{
		Name: "Header",
		Fields: []ir.Field{
			{Name: "magic", Type: &ir.PrimitiveTypeRef{Kind: ast.PrimUnsigned32, SizeBytes: 4, ByteOrder: ast.ByteOrderLittle}},
			{Name: "tag", Type: &ir.NamedTypeRef{Name: "Tag", Kind: ir.NamedEnum}, Guard: &ir.BinaryExpr{
				Op:    ast.BinGt,
				Left:  &ir.FieldRef{Name: "magic"},
				Right: &ir.IntLiteral{Value: 1},
			}},
		},
		TotalSize: 8,
		Alignment: 4,
	})
	return b
}

func TestFingerprintDeterministic(t *testing.T) {
	b1 := sampleBundle()
	b2 := sampleBundle()
	assert.Equal(t, Fingerprint(b1), Fingerprint(b2))
}

func TestFingerprintChangesWithContent(t *testing.T) {
	b1 := sampleBundle()
	b2 := sampleBundle()
	b2.Constants["MAGIC"] = 0xDEAD
	assert.NotEqual(t, Fingerprint(b1), Fingerprint(b2))
}

func TestStorePutGetRoundTrip(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()

	bundle := sampleBundle()
	fp := Fingerprint(bundle)

	require.NoError(t, store.Put(fp, bundle))

	got, ok, err := store.Get(fp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, bundle.ModuleName, got.ModuleName)
	assert.Equal(t, bundle.Constants["MAGIC"], got.Constants["MAGIC"])
	require.Len(t, got.Structs, 1)
	assert.Equal(t, "Header", got.Structs[0].Name)
	require.Len(t, got.Structs[0].Fields, 2)
	assert.Equal(t, "magic", got.Structs[0].Fields[0].Name)
}

func TestStoreGetMiss(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.Get("does-not-exist")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorePutOverwritesExistingFingerprint(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()

	bundle := sampleBundle()
	fp := Fingerprint(bundle)
	require.NoError(t, store.Put(fp, bundle))

	bundle.Constants["MAGIC"] = 0xBEEF
	require.NoError(t, store.Put(fp, bundle))

	got, ok, err := store.Get(fp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(0xBEEF), got.Constants["MAGIC"])
}
