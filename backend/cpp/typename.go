package cpp

import (
	"fmt"

	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/backend"
	"github.com/dscript/dsc/ir"
)

var primitiveNames = map[ir.PrimitiveKind]string{
	ast.PrimUnsigned8:   "uint8_t",
	ast.PrimUnsigned16:  "uint16_t",
	ast.PrimUnsigned32:  "uint32_t",
	ast.PrimUnsigned64:  "uint64_t",
	ast.PrimUnsigned128: "unsigned __int128",
	ast.PrimSigned8:     "int8_t",
	ast.PrimSigned16:    "int16_t",
	ast.PrimSigned32:    "int32_t",
	ast.PrimSigned64:    "int64_t",
	ast.PrimSigned128:   "__int128",
}

// bitfieldStorageType returns the smallest standard unsigned integer type
// that holds width bits, the storage type a declared bitfield member uses
// before mask/shift extraction.
func bitfieldStorageType(width int) string {
	switch {
	case width <= 8:
		return "uint8_t"
	case width <= 16:
		return "uint16_t"
	case width <= 32:
		return "uint32_t"
	default:
		return "uint64_t"
	}
}

// TypeName renders an IR type reference as C++ source text.
func (b *Backend) TypeName(t ir.TypeRef) string {
	switch v := t.(type) {
	case *ir.PrimitiveTypeRef:
		return backend.DefaultPrimitiveTypeName(v, primitiveNames)
	case *ir.BooleanTypeRef:
		return "bool"
	case *ir.StringTypeRef:
		return "std::string"
	case *ir.BitfieldTypeRef:
		if v.Width != nil {
			return bitfieldStorageType(*v.Width)
		}
		return "uint64_t"
	case *ir.FixedArrayTypeRef:
		return fmt.Sprintf("std::vector<%s>", b.TypeName(v.Element))
	case *ir.VariableArrayTypeRef:
		return fmt.Sprintf("std::vector<%s>", b.TypeName(v.Element))
	case *ir.RangedArrayTypeRef:
		return fmt.Sprintf("std::vector<%s>", b.TypeName(v.Element))
	case *ir.NamedTypeRef:
		return b.Sanitize(v.Name)
	default:
		return "void"
	}
}

// elementTypeOf returns the element type of any array-shaped TypeRef, used
// by the array-read renderer; it panics (a precondition
// violation) if t is not one of the three array kinds.
func elementTypeOf(t ir.TypeRef) ir.TypeRef {
	switch v := t.(type) {
	case *ir.FixedArrayTypeRef:
		return v.Element
	case *ir.VariableArrayTypeRef:
		return v.Element
	case *ir.RangedArrayTypeRef:
		return v.Element
	default:
		panic(fmt.Sprintf("cpp: elementTypeOf called on non-array type %T", t))
	}
}
