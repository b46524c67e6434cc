package cstruct

import "github.com/fox-it/dissect.cstruct/pkg/cstruct/types"

// registerPrimitives seeds a fresh registry with every built-in base
// type the grammar's `base` production names, so that "char *p;",
// "uint24 a;", and similar references resolve without requiring a
// prior declaration.
func (r *Registry) registerPrimitives() {
	widths := []int{8, 16, 24, 32, 40, 48, 56, 64}
	for _, w := range widths {
		r.types[signedName(w)] = types.NewIntegerType(signedName(w), w, true, r.endian)
		r.types[unsignedName(w)] = types.NewIntegerType(unsignedName(w), w, false, r.endian)
	}
	r.types["char"] = types.NewCharType("char")
	r.types["wchar"] = types.NewWcharType("wchar", 2, types.LittleEndian)
	r.types["float16"] = types.NewFloatType("float16", 16, r.endian)
	r.types["float"] = types.NewFloatType("float", 32, r.endian)
	r.types["double"] = types.NewFloatType("double", 64, r.endian)
	r.types["leb128"] = types.NewLEB128Type("leb128", true)
	r.types["uleb128"] = types.NewLEB128Type("uleb128", false)
	r.types["void"] = types.NewVoidType()
}

func signedName(w int) string   { return intName("int", w) }
func unsignedName(w int) string { return intName("uint", w) }

func intName(prefix string, w int) string {
	switch w {
	case 8:
		return prefix + "8"
	case 16:
		return prefix + "16"
	case 24:
		return prefix + "24"
	case 32:
		return prefix + "32"
	case 40:
		return prefix + "40"
	case 48:
		return prefix + "48"
	case 56:
		return prefix + "56"
	default:
		return prefix + "64"
	}
}
