// Package kaitai defines the boundary types a Kaitai Struct YAML
// front-end would populate to construct IR directly: Go structs with yaml
// tags mirroring a .ksy document's meta/seq/types/enums sections, plus
// ToIRHints, the conversion a front-end would call to
// pre-populate an ir.Bundle skeleton ahead of full semantic analysis. It
// does not parse .ksy files from disk — that belongs to the out-of-scope
// front-end itself.
package kaitai

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/ir"
)

// ParseYAML unmarshals a .ksy document's bytes into a Spec using the
// yaml tags above. A real front-end owns reading the file from disk;
// this is the YAML-to-struct half of that boundary, so ToIRHints has
// something to convert without every caller hand-rolling its own
// gopkg.in/yaml.v3 unmarshal call.
func ParseYAML(data []byte) (*Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing kaitai yaml: %w", err)
	}
	if spec.Meta.ID == "" {
		return nil, fmt.Errorf("parsing kaitai yaml: missing required meta.id")
	}
	return &spec, nil
}

// Meta mirrors a .ksy document's top-level meta section.
type Meta struct {
	ID      string   `yaml:"id"`
	Endian  string   `yaml:"endian,omitempty"`
	Imports []string `yaml:"imports,omitempty"`
}

// Attribute mirrors one entry of a seq list: a single field read.
type Attribute struct {
	ID         string `yaml:"id"`
	Type       string `yaml:"type,omitempty"`
	Size       string `yaml:"size,omitempty"`
	Repeat     string `yaml:"repeat,omitempty"`
	RepeatExpr string `yaml:"repeat-expr,omitempty"`
	If         string `yaml:"if,omitempty"`
	Contents   string `yaml:"contents,omitempty"`
	Enum       string `yaml:"enum,omitempty"`
}

// TypeDef mirrors one entry of a types map: a nested user-defined type.
type TypeDef struct {
	Seq   []Attribute                `yaml:"seq,omitempty"`
	Types map[string]TypeDef         `yaml:"types,omitempty"`
	Enums map[string]map[int]string  `yaml:"enums,omitempty"`
}

// Spec is the root of a .ksy document.
type Spec struct {
	Meta  Meta                      `yaml:"meta"`
	Seq   []Attribute               `yaml:"seq,omitempty"`
	Types map[string]TypeDef        `yaml:"types,omitempty"`
	Enums map[string]map[int]string `yaml:"enums,omitempty"`
}

// ToIRHints converts spec into a best-effort ir.Bundle skeleton: enums
// convert exactly (a Kaitai enum is already a closed value->name map), but
// struct fields carry only what a seq attribute states textually — an
// attribute's repeat-expr/if clauses are not a parsed expression grammar,
// so they are rendered as a bare field reference when they look like an
// identifier, or a literal when they parse as a number. A real front-end
// would replace these heuristics with its own expression parser; this
// conversion exists so the rest of the pipeline has something concrete
// to consume.
func ToIRHints(spec *Spec) *ir.Bundle {
	bundle := ir.NewBundle(spec.Meta.ID)
	defaultEndian := endianFromMeta(spec.Meta.Endian)

	addEnums(bundle, spec.Enums)
	typeNames := make([]string, 0, len(spec.Types))
	for name := range spec.Types {
		typeNames = append(typeNames, name)
	}
	sort.Strings(typeNames)
	for _, name := range typeNames {
		t := spec.Types[name]
		addEnums(bundle, t.Enums)
		bundle.Structs = append(bundle.Structs, structFromTypeDef(name, &t, defaultEndian))
	}
	if len(spec.Seq) > 0 {
		bundle.Structs = append(bundle.Structs, ir.Struct{
			Name:   exportName(spec.Meta.ID),
			Fields: fieldsFromSeq(spec.Seq, defaultEndian),
		})
	}
	return bundle
}

func endianFromMeta(e string) ast.ByteOrder {
	switch e {
	case "le":
		return ast.ByteOrderLittle
	case "be":
		return ast.ByteOrderBig
	default:
		return ast.ByteOrderUnspec
	}
}

func addEnums(bundle *ir.Bundle, enums map[string]map[int]string) {
	names := make([]string, 0, len(enums))
	for name := range enums {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		values := enums[name]
		keys := make([]int, 0, len(values))
		for v := range values {
			keys = append(keys, v)
		}
		sort.Ints(keys)
		items := make([]ir.EnumItem, 0, len(keys))
		for _, v := range keys {
			items = append(items, ir.EnumItem{Name: values[v], Value: uint64(v)})
		}
		bundle.Enums = append(bundle.Enums, ir.Enum{
			Name:     exportName(name),
			BaseType: &ir.PrimitiveTypeRef{Kind: ast.PrimUnsigned32, SizeBytes: 4},
			Items:    items,
		})
	}
}

func structFromTypeDef(name string, t *TypeDef, endian ast.ByteOrder) ir.Struct {
	return ir.Struct{
		Name:   exportName(name),
		Fields: fieldsFromSeq(t.Seq, endian),
	}
}

func fieldsFromSeq(seq []Attribute, endian ast.ByteOrder) []ir.Field {
	fields := make([]ir.Field, 0, len(seq))
	for _, a := range seq {
		f := ir.Field{Name: a.ID, Type: typeFromKaitai(a.Type, a.Repeat, a.RepeatExpr, a.Size, endian)}
		if a.If != "" {
			f.Guard = exprFromKaitaiText(a.If)
		}
		fields = append(fields, f)
	}
	return fields
}

// typeFromKaitai resolves the handful of Kaitai primitive type codes this
// hint conversion understands (u1/u2/u4/u8, s1/s2/s4/s8, str/strz, and
// their le/be-suffixed variants); any other type name is treated as a named
// reference to a sibling user-defined type, struct, or enum.
func typeFromKaitai(kaitaiType, repeat, repeatExpr, size string, endian ast.ByteOrder) ir.TypeRef {
	elem := primitiveOrNamed(kaitaiType, endian)
	switch repeat {
	case "eos":
		return &ir.VariableArrayTypeRef{Element: elem}
	case "expr":
		if n, err := strconv.ParseUint(repeatExpr, 10, 64); err == nil {
			return &ir.FixedArrayTypeRef{Element: elem, Size: &ir.IntLiteral{Value: n}}
		}
		return &ir.FixedArrayTypeRef{Element: elem, Size: exprFromKaitaiText(repeatExpr)}
	}
	if kaitaiType == "str" || kaitaiType == "strz" {
		return &ir.StringTypeRef{}
	}
	if size != "" {
		if n, err := strconv.ParseUint(size, 10, 64); err == nil {
			return &ir.FixedArrayTypeRef{Element: &ir.PrimitiveTypeRef{Kind: ast.PrimUnsigned8, SizeBytes: 1, ByteOrder: endian}, Size: &ir.IntLiteral{Value: n}}
		}
	}
	return elem
}

func primitiveOrNamed(kaitaiType string, endian ast.ByteOrder) ir.TypeRef {
	order := endian
	base := kaitaiType
	switch {
	case strings.HasSuffix(kaitaiType, "le"):
		order = ast.ByteOrderLittle
		base = strings.TrimSuffix(kaitaiType, "le")
	case strings.HasSuffix(kaitaiType, "be"):
		order = ast.ByteOrderBig
		base = strings.TrimSuffix(kaitaiType, "be")
	}
	if kind, sz, ok := primitiveKind(base); ok {
		return &ir.PrimitiveTypeRef{Kind: kind, SizeBytes: sz, ByteOrder: order}
	}
	if base == "str" || base == "strz" {
		return &ir.StringTypeRef{}
	}
	if base == "" {
		return &ir.BooleanTypeRef{}
	}
	return &ir.NamedTypeRef{Name: exportName(kaitaiType), Kind: ir.NamedStruct}
}

func primitiveKind(base string) (ast.PrimitiveKind, int, bool) {
	switch base {
	case "u1":
		return ast.PrimUnsigned8, 1, true
	case "u2":
		return ast.PrimUnsigned16, 2, true
	case "u4":
		return ast.PrimUnsigned32, 4, true
	case "u8":
		return ast.PrimUnsigned64, 8, true
	case "s1":
		return ast.PrimSigned8, 1, true
	case "s2":
		return ast.PrimSigned16, 2, true
	case "s4":
		return ast.PrimSigned32, 4, true
	case "s8":
		return ast.PrimSigned64, 8, true
	default:
		return 0, 0, false
	}
}

// exprFromKaitaiText renders a Kaitai expression-language snippet as either
// a literal or a bare field reference, the only two shapes this hint
// conversion attempts without a real expression parser.
func exprFromKaitaiText(text string) ir.Expr {
	if n, err := strconv.ParseUint(text, 10, 64); err == nil {
		return &ir.IntLiteral{Value: n}
	}
	return &ir.FieldRef{Name: text}
}

// exportName mirrors Kaitai's own snake_case id -> CamelCase convention for
// generated type names.
func exportName(id string) string {
	parts := strings.Split(id, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}
