package types

import "github.com/fox-it/dissect.cstruct/pkg/cstruct/cursor"

// TypedefType is a transparent alias for another type: it shares the
// target's layout and codec entirely, exposing only a new name.
type TypedefType struct {
	name   string
	target Type
}

func NewTypedefType(name string, target Type) *TypedefType {
	return &TypedefType{name: name, target: target}
}

func (t *TypedefType) Name() string    { return t.name }
func (t *TypedefType) Target() Type    { return t.target }
func (t *TypedefType) Size() int       { return t.target.Size() }
func (t *TypedefType) Alignment() int  { return t.target.Alignment() }
func (t *TypedefType) IsDynamic() bool { return t.target.IsDynamic() }
func (t *TypedefType) Default() Value  { return t.target.Default() }

func (t *TypedefType) Read(cur *cursor.Cursor, scope *Scope, ctx Context) (Value, error) {
	return t.target.Read(cur, scope, ctx)
}

func (t *TypedefType) Write(cur *cursor.Cursor, v Value, ctx Context) error {
	return t.target.Write(cur, v, ctx)
}
