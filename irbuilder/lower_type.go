package irbuilder

import (
	"github.com/dscript/dsc/analyzer"
	"github.com/dscript/dsc/ast"
	"github.com/dscript/dsc/ir"
	"github.com/dscript/dsc/symtab"
)

// lowerType converts an AST type to an IR type reference, resolving
// qualified names via the analyzer's side table and queueing
// monomorphization jobs for parameterized struct uses.
func (b *Builder) lowerType(t ast.Type, scope *scope) ir.TypeRef {
	switch v := t.(type) {
	case *ast.PrimitiveType:
		return &ir.PrimitiveTypeRef{Kind: v.Kind, ByteOrder: v.ByteOrder, SizeBytes: v.Kind.SizeBytes()}
	case *ast.BooleanType:
		return &ir.BooleanTypeRef{}
	case *ast.StringType:
		return &ir.StringTypeRef{}
	case *ast.FixedBitfieldType:
		w := v.Width
		return &ir.BitfieldTypeRef{Width: &w}
	case *ast.ExprBitfieldType:
		// A `bit<expr>` width that folds to a compile-time constant becomes
		// a fixed width, so adjacent bitfields still batch into one shared
		// read; only a genuinely runtime width stays an expression.
		if folded, ok := analyzer.FoldConst(b.az, discardBag(), v.Width); ok {
			w := int(folded)
			return &ir.BitfieldTypeRef{Width: &w}
		}
		return &ir.BitfieldTypeRef{WidthExpr: b.lowerExpr(v.Width, scope)}
	case *ast.FixedArrayType:
		return &ir.FixedArrayTypeRef{Element: b.lowerType(v.Element, scope), Size: b.lowerExpr(v.Size, scope)}
	case *ast.RangedArrayType:
		return &ir.RangedArrayTypeRef{Element: b.lowerType(v.Element, scope), Min: b.lowerExpr(v.Min, scope), Max: b.lowerExpr(v.Max, scope)}
	case *ast.UnsizedArrayType:
		return &ir.VariableArrayTypeRef{Element: b.lowerType(v.Element, scope)}
	case *ast.QualifiedName:
		return b.lowerQualifiedName(v, scope)
	default:
		return nil
	}
}

func (b *Builder) lowerQualifiedName(v *ast.QualifiedName, scope *scope) ir.TypeRef {
	sym, ok := b.az.ResolvedTypes[v]
	if !ok {
		return &ir.NamedTypeRef{Name: v.Dotted(), Kind: ir.NamedStruct}
	}
	switch sym.Kind {
	case symtab.KindEnum:
		return &ir.NamedTypeRef{Name: sym.Name, Kind: ir.NamedEnum}
	case symtab.KindSubtype:
		return &ir.NamedTypeRef{Name: sym.Name, Kind: ir.NamedSubtype}
	case symtab.KindChoice:
		return &ir.NamedTypeRef{Name: sym.Name, Kind: ir.NamedChoice}
	case symtab.KindUnion:
		// Monomorphization is defined over parameterized
		// structs and choices; unions are referenced by their declared name
		// regardless of any parameter list they carry syntactically.
		return &ir.NamedTypeRef{Name: sym.Name, Kind: ir.NamedUnion}
	case symtab.KindStruct:
		if len(sym.Struct.Params) == 0 {
			return &ir.NamedTypeRef{Name: sym.Name, Kind: ir.NamedStruct}
		}
		name := b.queueMonomorphization(sym.Struct, v.Args)
		return &ir.NamedTypeRef{Name: name, Kind: ir.NamedStruct}
	default:
		return &ir.NamedTypeRef{Name: sym.Name, Kind: ir.NamedStruct}
	}
}

// queueMonomorphization registers (if not already present) a concrete
// instantiation job for a parameterized struct use and returns its
// synthesized name. The parameterized base
// definition itself is never emitted.
func (b *Builder) queueMonomorphization(base *ast.StructDef, args []ast.Expr) string {
	name := monomorphName(base.Name, args, b.az)
	key := base.Name + "|" + name
	if _, ok := b.monomorphInstances[key]; ok {
		return name
	}
	b.monomorphInstances[key] = name
	b.bundle.MonomorphSuffixes[base.Name] = append(b.bundle.MonomorphSuffixes[base.Name], name)
	b.monomorphPending = append(b.monomorphPending, monomorphJob{baseStructName: base.Name, instanceName: name, args: args})
	return name
}
