package cpp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dscript/dsc/analyzer"
	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/backend"
	"github.com/dscript/dsc/backend/cpp"
	"github.com/dscript/dsc/backend/registry"
	"github.com/dscript/dsc/command"
	"github.com/dscript/dsc/ir"
	"github.com/dscript/dsc/irbuilder"
)

func u8() *ir.PrimitiveTypeRef  { return &ir.PrimitiveTypeRef{Kind: ast.PrimUnsigned8, SizeBytes: 1} }
func u32() *ir.PrimitiveTypeRef { return &ir.PrimitiveTypeRef{Kind: ast.PrimUnsigned32, SizeBytes: 4} }

func TestTypeNamePrimitivesAndArrays(t *testing.T) {
	b := cpp.New()
	assert.Equal(t, "uint8_t", b.TypeName(u8()))
	assert.Equal(t, "uint32_t", b.TypeName(u32()))
	assert.Equal(t, "std::string", b.TypeName(&ir.StringTypeRef{}))
	assert.Equal(t, "std::vector<uint8_t>", b.TypeName(&ir.FixedArrayTypeRef{Element: u8(), Size: &ir.IntLiteral{Value: 4}}))
}

func TestSanitizeEscapesReservedKeyword(t *testing.T) {
	b := cpp.New()
	assert.Equal(t, "class_", b.Sanitize("class"))
	assert.Equal(t, "magic", b.Sanitize("magic"))
}

func buildHeaderCommands(t *testing.T, cfg command.Config) []command.Command {
	t.Helper()
	bundle := ir.NewBundle("m")
	bundle.Structs = append(bundle.Structs, ir.Struct{
		Name: "Header",
		Fields: []ir.Field{
			{Name: "magic", Type: u32()},
			{Name: "version", Type: u8()},
		},
	})
	cmds, err := command.Build(bundle, cfg)
	require.NoError(t, err)
	return cmds
}

func TestRenderStructEmitsReaderAndFields(t *testing.T) {
	b := cpp.New()
	cmds := buildHeaderCommands(t, command.Config{ObjectName: "obj"})

	files, err := b.Render(cmds, backend.RenderOptions{})
	require.NoError(t, err)
	require.Len(t, files, 1)

	src := files[0].Content
	assert.Contains(t, src, "struct Header {")
	assert.Contains(t, src, "uint32_t magic{};")
	assert.Contains(t, src, "uint8_t version{};")
	assert.Contains(t, src, "static Header read(const uint8_t*& cursor, const uint8_t* end) {")
	assert.Contains(t, src, "obj.magic = read_uint32_le(cursor, end);")
	assert.Contains(t, src, "return obj;")
}

func TestRenderBothModesEmitsThrowingAndResultReaders(t *testing.T) {
	b := cpp.New()
	cmds := buildHeaderCommands(t, command.Config{ObjectName: "obj", ErrorHandling: command.ErrorHandlingBoth})

	files, err := b.Render(cmds, backend.RenderOptions{ErrorHandling: command.ErrorHandlingBoth})
	require.NoError(t, err)
	src := files[0].Content

	assert.Contains(t, src, "static Header read(const uint8_t*& cursor, const uint8_t* end) {")
	assert.Contains(t, src, "static Result<Header> read_safe(const uint8_t*& cursor, const uint8_t* end) {")
	assert.Contains(t, src, "template <typename T>")
	assert.Contains(t, src, "if (!try_read_uint32_le(cursor, end, ")
}

func TestRenderBitfieldRunSharesOneByteRead(t *testing.T) {
	w3, w5 := 3, 5
	bundle := ir.NewBundle("m")
	bundle.Structs = append(bundle.Structs, ir.Struct{
		Name: "Flags",
		Fields: []ir.Field{
			{Name: "a", Type: &ir.BitfieldTypeRef{Width: &w3}, BitfieldRun: "Flags__bitrun1"},
			{Name: "b", Type: &ir.BitfieldTypeRef{Width: &w5}, BitfieldRun: "Flags__bitrun1"},
		},
	})
	cmds, err := command.Build(bundle, command.Config{ObjectName: "obj"})
	require.NoError(t, err)

	b := cpp.New()
	files, err := b.Render(cmds, backend.RenderOptions{})
	require.NoError(t, err)
	src := files[0].Content

	assert.Contains(t, src, "read_bits(cursor, end, 1);")
	assert.Equal(t, 1, strings_Count(src, "read_bits(cursor, end, 1);"), "exactly one shared byte read for the whole run")
}

// strings_Count avoids importing strings solely for one assertion helper.
func strings_Count(s, substr string) int {
	n := 0
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			n++
			i += len(substr) - 1
		}
	}
	return n
}

func TestRenderChoiceInlineDiscriminatorRestoresCursor(t *testing.T) {
	bundle := ir.NewBundle("m")
	bundle.Choices = append(bundle.Choices, ir.Choice{
		Name:              "NameOrId",
		DiscriminatorType: u8(),
		Cases: []ir.ChoiceCase{
			{
				Name:    "ord",
				Mode:    ast.SelectExact,
				Values:  []ir.Expr{&ir.IntLiteral{Value: 0xFF}},
				Payload: &ir.NamedTypeRef{Name: "NameOrId_ord__payload", Kind: ir.NamedStruct},
				Restore: true,
			},
			{
				Name:      "str",
				IsDefault: true,
				Payload:   &ir.NamedTypeRef{Name: "NameOrId_str__payload", Kind: ir.NamedStruct},
			},
		},
	})
	bundle.Structs = append(bundle.Structs,
		ir.Struct{Name: "NameOrId_ord__payload", Fields: []ir.Field{{Name: "id", Type: u8()}}},
		ir.Struct{Name: "NameOrId_str__payload", Fields: []ir.Field{{Name: "len", Type: u8()}}},
	)
	cmds, err := command.Build(bundle, command.Config{ObjectName: "obj"})
	require.NoError(t, err)

	b := cpp.New()
	files, err := b.Render(cmds, backend.RenderOptions{})
	require.NoError(t, err)
	src := files[0].Content

	assert.Contains(t, src, "__saved_cursor")
	assert.Contains(t, src, "cursor = __saved_cursor;")
}

func TestRenderExternalSelectorChoiceAlwaysHasElse(t *testing.T) {
	bundle := ir.NewBundle("m")
	bundle.Choices = append(bundle.Choices, ir.Choice{
		Name:     "Body",
		Selector: &ir.FieldRef{Name: "kind"},
		Cases: []ir.ChoiceCase{
			{Name: "a", Mode: ast.SelectExact, Values: []ir.Expr{&ir.IntLiteral{Value: 1}}, Payload: u8()},
			{Name: "def", IsDefault: true, Payload: u8()},
		},
	})
	cmds, err := command.Build(bundle, command.Config{ObjectName: "obj"})
	require.NoError(t, err)

	b := cpp.New()
	files, err := b.Render(cmds, backend.RenderOptions{})
	require.NoError(t, err)
	assert.Contains(t, files[0].Content, "else {")
	assert.NotContains(t, files[0].Content, "throw UnmatchedChoice")
}

func TestRenderEnumFieldUsesSynthesizedReader(t *testing.T) {
	bundle := ir.NewBundle("m")
	bundle.Enums = append(bundle.Enums, ir.Enum{
		Name:     "Color",
		BaseType: u8(),
		Items:    []ir.EnumItem{{Name: "Red", Value: 0}, {Name: "Blue", Value: 1}},
	})
	bundle.Structs = append(bundle.Structs, ir.Struct{
		Name: "Pixel",
		Fields: []ir.Field{
			{Name: "color", Type: &ir.NamedTypeRef{Name: "Color", Kind: ir.NamedEnum}},
		},
	})
	cmds, err := command.Build(bundle, command.Config{ObjectName: "obj"})
	require.NoError(t, err)

	b := cpp.New()
	files, err := b.Render(cmds, backend.RenderOptions{})
	require.NoError(t, err)
	src := files[0].Content

	assert.Contains(t, src, "enum class Color : uint8_t {")
	assert.Contains(t, src, "inline Color read_Color(const uint8_t*& cursor, const uint8_t* end) {")
	assert.Contains(t, src, "obj.color = read_Color(cursor, end);")
}

func TestRenderLibrarySplitsThreeArtifacts(t *testing.T) {
	b := cpp.New()
	cmds := buildHeaderCommands(t, command.Config{ObjectName: "obj", LibraryMode: true})

	files, err := b.RenderLibrary(cmds, backend.RenderOptions{LibraryMode: true})
	require.NoError(t, err)
	require.Len(t, files, 3)

	byPath := map[string]string{}
	for _, f := range files {
		byPath[f.Path] = f.Content
	}
	require.Contains(t, byPath, "runtime.hpp")
	require.Contains(t, byPath, "schema_public.hpp")
	require.Contains(t, byPath, "schema_impl.hpp")

	assert.Contains(t, byPath["runtime.hpp"], "struct OutOfBounds")
	assert.NotContains(t, byPath["runtime.hpp"], "struct Header")

	assert.Contains(t, byPath["schema_public.hpp"], "struct Header;")
	assert.NotContains(t, byPath["schema_public.hpp"], "uint32_t magic{};", "public surface must not leak field bodies")
	assert.Contains(t, byPath["schema_public.hpp"], "static Header read(const uint8_t*& cursor, const uint8_t* end);")

	assert.Contains(t, byPath["schema_impl.hpp"], "struct Header {")
	assert.Contains(t, byPath["schema_impl.hpp"], "Header_fields")
	assert.Contains(t, byPath["schema_impl.hpp"], `{"magic", "uint32_t", 0}`)
	assert.Contains(t, byPath["schema_impl.hpp"], `{"version", "uint8_t", 4}`)
}

// `struct Flags { bit<3> priority; bit<5> reserved; }` reads one byte
// and extracts priority from the low bits, reserved from the high bits, in
// that order — exercised through the full analyze → lower → build → render
// pipeline.
func TestBitfieldRunExtractionOrder(t *testing.T) {
	s := &ast.StructDef{Name: "Flags", Body: []ast.StructBodyItem{
		&ast.FieldDef{Type: &ast.ExprBitfieldType{Width: &ast.IntLiteral{Value: 3}}, Name: "priority"},
		&ast.FieldDef{Type: &ast.ExprBitfieldType{Width: &ast.IntLiteral{Value: 5}}, Name: "reserved"},
	}}
	set := &ast.ModuleSet{Main: ast.ModuleFile{FilePath: "test.ds", PackageName: "test", Module: &ast.Module{Structs: []*ast.StructDef{s}}}}

	res := analyzer.Analyze(set, analyzer.DefaultConfig(), registry.New())
	require.False(t, res.HasErrors(), "diagnostics: %v", res.Diagnostics)

	bundle, err := irbuilder.Build(res.Analyzed)
	require.NoError(t, err)

	cmds, err := command.Build(bundle, command.Config{ObjectName: "obj"})
	require.NoError(t, err)

	b := cpp.New()
	files, err := b.Render(cmds, backend.RenderOptions{})
	require.NoError(t, err)
	src := files[0].Content

	assert.Equal(t, 1, strings_Count(src, "read_bits(cursor, end, 1);"), "the run must read exactly one byte")
	priorityAt := strings_Index(src, "obj.priority = static_cast<uint8_t>((Flags__bitrun1 >> 0) & 0x7ull);")
	reservedAt := strings_Index(src, "obj.reserved = static_cast<uint8_t>((Flags__bitrun1 >> 3) & 0x1Full);")
	require.GreaterOrEqual(t, priorityAt, 0)
	require.GreaterOrEqual(t, reservedAt, 0)
	assert.Less(t, priorityAt, reservedAt, "priority must be extracted before reserved")
}

func strings_Index(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

// A union-typed struct field must resolve to real generated methods: a
// variant-backed wrapper, one read_as_<case> per arm, and a unified read
// that tries arms in declaration order, catching a constraint violation
// to fall through to the next.
func TestRenderUnionFieldEndToEnd(t *testing.T) {
	bundle := ir.NewBundle("m")
	bundle.Unions = append(bundle.Unions, ir.Union{
		Name: "Value",
		Cases: []ir.UnionCase{
			{Fields: []ir.Field{{Name: "as_int", Type: u32()}}},
			{Fields: []ir.Field{{Name: "as_byte", Type: u8()}}},
		},
	})
	bundle.Structs = append(bundle.Structs, ir.Struct{
		Name: "Message",
		Fields: []ir.Field{
			{Name: "value_type", Type: u8()},
			{Name: "value", Type: &ir.NamedTypeRef{Name: "Value", Kind: ir.NamedUnion}},
		},
	})
	cmds, err := command.Build(bundle, command.Config{ObjectName: "obj"})
	require.NoError(t, err)

	b := cpp.New()
	files, err := b.Render(cmds, backend.RenderOptions{})
	require.NoError(t, err)
	src := files[0].Content

	assert.Contains(t, src, "struct Value {")
	assert.Contains(t, src, "std::variant<uint32_t, uint8_t> value{};")
	assert.Contains(t, src, "uint32_t as_int{};")
	assert.Contains(t, src, "static Value read_as_as_int(const uint8_t*& cursor, const uint8_t* end) {")
	assert.Contains(t, src, "static Value read_as_as_byte(const uint8_t*& cursor, const uint8_t* end) {")
	assert.Contains(t, src, "static Value read(const uint8_t*& cursor, const uint8_t* end) {")
	assert.Contains(t, src, "try {")
	assert.Contains(t, src, "catch (const ConstraintViolation&) {")
	assert.Contains(t, src, "return read_as_as_int(cursor, end);")
	assert.Contains(t, src, "return read_as_as_byte(cursor, end);")
	assert.Contains(t, src, "obj.value = Value::read(cursor, end);")
	assert.Contains(t, src, "obj.value = obj.as_int;")
}

func TestRenderUnionSafeModeTriesCasesByResult(t *testing.T) {
	bundle := ir.NewBundle("m")
	bundle.Unions = append(bundle.Unions, ir.Union{
		Name: "Value",
		Cases: []ir.UnionCase{
			{Fields: []ir.Field{{Name: "as_int", Type: u32()}}},
			{Fields: []ir.Field{{Name: "as_byte", Type: u8()}}},
		},
	})
	cmds, err := command.Build(bundle, command.Config{ObjectName: "obj", ErrorHandling: command.ErrorHandlingResults})
	require.NoError(t, err)

	b := cpp.New()
	files, err := b.Render(cmds, backend.RenderOptions{ErrorHandling: command.ErrorHandlingResults})
	require.NoError(t, err)
	src := files[0].Content

	assert.Contains(t, src, "static Result<Value> read_as_as_int_safe(const uint8_t*& cursor, const uint8_t* end) {")
	assert.Contains(t, src, "static Result<Value> read_safe(const uint8_t*& cursor, const uint8_t* end) {")
	assert.Contains(t, src, "auto __try_as_int = read_as_as_int_safe(cursor, end);")
	assert.Contains(t, src, "if (__try_as_int.ok) {")
	assert.Contains(t, src, "return __try_as_int;")
	assert.Contains(t, src, "cursor = __saved_cursor;")
	assert.Contains(t, src, "return read_as_as_byte_safe(cursor, end);")
	assert.NotContains(t, src, "try {")
}
