package types

import (
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cerrors"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cursor"
)

// Resolver looks up the bytes backing a pointer's target, given its
// address. Without one attached, Deref fails with NullDereference --
// dereferencing requires an external memory resolver the library
// itself never provides.
type Resolver interface {
	ReadAt(addr uint64, n int) ([]byte, error)
}

// PointerType is an address-sized integer holding a target's stable
// name rather than a live *Type, so self-referential and mutually
// forward-declared structures never require a mutable placeholder
// type or an owning cycle in the heap graph.
type PointerType struct {
	name       string
	targetName string
	ptrSize    int
	endian     Endianness
	resolver   Resolver
}

func NewPointerType(name, targetName string, ptrSize int, endian Endianness) *PointerType {
	return &PointerType{name: name, targetName: targetName, ptrSize: ptrSize, endian: endian}
}

// WithResolver returns a copy of t bound to a memory resolver, for
// pointer dereference support.
func (t *PointerType) WithResolver(r Resolver) *PointerType {
	cp := *t
	cp.resolver = r
	return &cp
}

func (t *PointerType) Name() string       { return t.name }
func (t *PointerType) TargetName() string { return t.targetName }
func (t *PointerType) Size() int          { return t.ptrSize }
func (t *PointerType) Alignment() int     { return t.ptrSize }
func (t *PointerType) IsDynamic() bool    { return false }
func (t *PointerType) Default() Value     { return IntValue(t, 0) }

func (t *PointerType) Read(cur *cursor.Cursor, scope *Scope, ctx Context) (Value, error) {
	raw, err := cur.ReadExact(t.ptrSize)
	if err != nil {
		return Value{}, err
	}
	addr := decodeUint(raw, t.endian)
	return IntValue(t, int64(addr)).WithRaw(raw), nil
}

func (t *PointerType) Write(cur *cursor.Cursor, v Value, ctx Context) error {
	_, err := cur.Write(encodeUint(uint64(v.Int()), t.ptrSize, t.endian))
	return err
}

// Deref reads the pointer's target type at its address, using the
// resolver bound via WithResolver (or a resolver supplied directly).
func (t *PointerType) Deref(v Value, ctx Context, r Resolver) (Value, error) {
	if r == nil {
		r = t.resolver
	}
	if r == nil {
		return Value{}, cerrors.New(cerrors.NullDereference, "pointer %s has no resolver attached", t.name)
	}
	target, ok := ctx.Resolve(t.targetName)
	if !ok {
		return Value{}, cerrors.New(cerrors.UnknownType, "pointer target type %q not registered", t.targetName)
	}
	addr := uint64(v.Int())
	if addr == 0 {
		return Value{}, cerrors.New(cerrors.NullDereference, "dereferencing null pointer %s", t.name)
	}
	size := target.Size()
	if size == Dynamic {
		size = 0 // a dynamic target is read only from the bytes the resolver returns for n=0
	}
	raw, err := r.ReadAt(addr, size)
	if err != nil {
		return Value{}, cerrors.Wrap(cerrors.NullDereference, err, "reading pointer target at 0x%x", addr)
	}
	sub := cursor.NewReaderBytes(raw)
	return target.Read(sub, NewScope(ctx), ctx)
}
