// Package parser implements the recursive-descent grammar that turns
// definition text into registered types: typedefs, struct/union/enum/
// flag declarations, #define constants, bitfields, arrays, and
// pointers. It depends only on token, expr, and types -- never on the
// facade registry that drives it.
package parser

import "github.com/fox-it/dissect.cstruct/pkg/cstruct/types"

// TypeEnv is the facade's contract with the parser: enough to look up
// and register types and constants without the parser importing the
// facade package. TypeEnv is a superset of types.Context (Resolve,
// Endianness, PointerSize, LookupConst, SizeOf all match), so any
// TypeEnv can be passed anywhere a types.Context is expected.
type TypeEnv interface {
	Resolve(name string) (types.Type, bool)
	// Define registers a new named type. It fails with a Redefinition
	// error (see cerrors) if name already maps to a complete type; the
	// facade's implementations do not compare the two layouts.
	Define(name string, t types.Type) error
	DefineConst(name string, v int64) error
	LookupConst(name string) (int64, bool)
	SizeOf(typeName string) (int, bool)
	Endianness() types.Endianness
	PointerSize() int
}

var _ types.Context = TypeEnv(nil)
