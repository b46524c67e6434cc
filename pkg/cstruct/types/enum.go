package types

import (
	"fmt"

	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cursor"
)

// EnumMember is one declared name=value pair of an enum or flag.
type EnumMember struct {
	Name  string
	Value int64
}

// EnumType is a named integer subtype whose values are conventionally
// one of a fixed set of named members. Reading always succeeds even
// for a raw value matching no member -- it is a legitimate "unnamed"
// instance that still round-trips.
type EnumType struct {
	name    string
	base    *IntegerType
	members []EnumMember
	byName  map[string]int64
	byValue map[int64]string
}

// NewEnumType builds an enum over base (its declared storage type,
// uint32 if the definition omitted one) with members in declaration
// order.
func NewEnumType(name string, base *IntegerType, members []EnumMember) *EnumType {
	e := &EnumType{
		name:    name,
		base:    base,
		members: members,
		byName:  make(map[string]int64, len(members)),
		byValue: make(map[int64]string, len(members)),
	}
	for _, m := range members {
		e.byName[m.Name] = m.Value
		if _, exists := e.byValue[m.Value]; !exists {
			e.byValue[m.Value] = m.Name
		}
	}
	return e
}

func (t *EnumType) Name() string      { return t.name }
func (t *EnumType) Size() int         { return t.base.Size() }
func (t *EnumType) Alignment() int    { return t.base.Alignment() }
func (t *EnumType) IsDynamic() bool   { return false }
func (t *EnumType) Base() *IntegerType { return t.base }
func (t *EnumType) Members() []EnumMember { return t.members }

func (t *EnumType) Default() Value {
	if len(t.members) > 0 {
		return IntValue(t, t.members[0].Value)
	}
	return IntValue(t, 0)
}

// ByName looks up a member's value by name.
func (t *EnumType) ByName(name string) (int64, bool) {
	v, ok := t.byName[name]
	return v, ok
}

func (t *EnumType) Read(cur *cursor.Cursor, scope *Scope, ctx Context) (Value, error) {
	v, err := t.base.Read(cur, scope, ctx)
	if err != nil {
		return Value{}, err
	}
	return IntValue(t, v.Int()).WithRaw(v.Raw()), nil
}

func (t *EnumType) Write(cur *cursor.Cursor, v Value, ctx Context) error {
	return t.base.Write(cur, IntValue(t.base, v.Int()), ctx)
}

// Render produces "T.NAME" when the value matches a defined member,
// else the bare numeric literal.
func (t *EnumType) Render(v Value) string {
	if name, ok := t.byValue[v.Int()]; ok {
		return t.name + "." + name
	}
	return fmt.Sprintf("%d", v.Int())
}
