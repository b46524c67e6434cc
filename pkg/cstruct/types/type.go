// Package types implements the type universe and codec engine:
// every primitive and composite type variant, bitfield layout, and
// the parsed-value model. Each Type dispatches its own Read/Write
// given a declared C type, rather than a central switch keyed on a
// type-kind tag.
package types

import (
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cursor"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/expr"
)

// Endianness selects byte order for primitive codecs. It defaults to
// a registry's configured endianness unless a type overrides it.
type Endianness int

const (
	LittleEndian Endianness = iota
	BigEndian
)

func (e Endianness) String() string {
	if e == BigEndian {
		return ">"
	}
	return "<"
}

// Dynamic is the sentinel Size() for types whose byte length cannot be
// known without reading (LEB128, sentinel arrays, and structures that
// transitively contain either).
const Dynamic = -1

// Context carries the per-read/write configuration a type needs: the
// registry's default endianness and pointer width, and the constant/
// sizeof lookups the expression evaluator needs for expression-sized
// arrays and bitfield widths. A Context also satisfies expr.Env
// directly, so it can be handed straight to expr.Eval.
type Context interface {
	Endianness() Endianness
	PointerSize() int
	LookupConst(name string) (int64, bool)
	SizeOf(typeName string) (int, bool)
	// Resolve looks up an already-registered type by name, for
	// pointer targets, which are resolved lazily at dereference time
	// rather than at declaration time.
	Resolve(name string) (Type, bool)
}

var _ expr.Env = Context(nil)

// Scope layers already-read sibling field values, by name, over a
// Context, implementing the identifier lookup order the expression
// evaluator needs while reading a structure: sibling fields first,
// then registry constants via Context.LookupConst (the #define
// table). Enum/flag member names are not looked up here.
type Scope struct {
	Fields map[string]int64
	Ctx    Context
}

// NewScope creates an empty scope over ctx, ready to accumulate
// sibling field values as a structure is read field by field.
func NewScope(ctx Context) *Scope {
	return &Scope{Fields: make(map[string]int64), Ctx: ctx}
}

func (s *Scope) LookupConst(name string) (int64, bool) {
	if s == nil {
		return 0, false
	}
	if v, ok := s.Fields[name]; ok {
		return v, true
	}
	if s.Ctx != nil {
		return s.Ctx.LookupConst(name)
	}
	return 0, false
}

func (s *Scope) SizeOf(typeName string) (int, bool) {
	if s == nil || s.Ctx == nil {
		return 0, false
	}
	return s.Ctx.SizeOf(typeName)
}

var _ expr.Env = (*Scope)(nil)

// Type is the common interface every primitive and composite variant
// implements: enough to describe layout (name, size, alignment) and
// to act as a codec against a cursor.
type Type interface {
	Name() string
	// Size returns the type's fixed byte length, or Dynamic if the
	// length can only be known by reading.
	Size() int
	Alignment() int
	IsDynamic() bool
	Read(cur *cursor.Cursor, scope *Scope, ctx Context) (Value, error)
	Write(cur *cursor.Cursor, v Value, ctx Context) error
	// Default returns the zero-equivalent value used when a field is
	// not supplied during construction (0, empty array, first enum
	// member, null pointer, ...).
	Default() Value
}
