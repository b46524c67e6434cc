package types

import "github.com/fox-it/dissect.cstruct/pkg/cstruct/cursor"

// VoidType is the zero-sized placeholder used as a pointer target
// when no concrete type is declared (e.g. "void *p;").
type VoidType struct{}

func NewVoidType() *VoidType { return &VoidType{} }

func (t *VoidType) Name() string    { return "void" }
func (t *VoidType) Size() int       { return 0 }
func (t *VoidType) Alignment() int  { return 1 }
func (t *VoidType) IsDynamic() bool { return false }
func (t *VoidType) Default() Value  { return NilValue(t) }

func (t *VoidType) Read(cur *cursor.Cursor, scope *Scope, ctx Context) (Value, error) {
	return NilValue(t), nil
}

func (t *VoidType) Write(cur *cursor.Cursor, v Value, ctx Context) error {
	return nil
}
