package types

import (
	"bytes"

	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cerrors"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cursor"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/expr"
)

// CountMode selects how an ArrayType determines its element count.
type CountMode int

const (
	// CountFixed is a literal element count known at declaration time.
	CountFixed CountMode = iota
	// CountExpr is an expression evaluated against the parse scope
	// each time the array is read (e.g. "char c[(a & 1) * 5];").
	CountExpr
	// CountSentinel reads until a terminating zero-valued element
	// (or, for char/wchar elements, a single zero unit).
	CountSentinel
)

// ArrayType is element-type-and-count, generalizing both fixed and
// expression-sized arrays and sentinel ("NULL"/"none"-terminated)
// arrays into one codec.
type ArrayType struct {
	name    string
	elem    Type
	mode    CountMode
	fixedN  int
	countEx expr.Compiled
}

func NewFixedArrayType(name string, elem Type, n int) *ArrayType {
	return &ArrayType{name: name, elem: elem, mode: CountFixed, fixedN: n}
}

func NewExprArrayType(name string, elem Type, ex expr.Compiled) *ArrayType {
	return &ArrayType{name: name, elem: elem, mode: CountExpr, countEx: ex}
}

func NewSentinelArrayType(name string, elem Type) *ArrayType {
	return &ArrayType{name: name, elem: elem, mode: CountSentinel}
}

func (t *ArrayType) Name() string { return t.name }
func (t *ArrayType) Elem() Type   { return t.elem }
func (t *ArrayType) Mode() CountMode { return t.mode }

func (t *ArrayType) Size() int {
	if t.mode != CountFixed || t.elem.IsDynamic() {
		return Dynamic
	}
	return t.fixedN * t.elem.Size()
}

func (t *ArrayType) Alignment() int {
	if t.elem.Alignment() == 0 {
		return 1
	}
	return t.elem.Alignment()
}

func (t *ArrayType) IsDynamic() bool { return t.Size() == Dynamic }

func (t *ArrayType) isCharLike() bool {
	switch t.elem.(type) {
	case *CharType, *WcharType:
		return true
	}
	return false
}

func (t *ArrayType) Default() Value {
	if t.isCharLike() {
		return BytesValue(t, nil)
	}
	return ArrayValue(t, nil)
}

func (t *ArrayType) count(scope *Scope, ctx Context) (int, error) {
	switch t.mode {
	case CountFixed:
		return t.fixedN, nil
	case CountExpr:
		var env expr.Env = ctx
		if scope != nil {
			env = scope
		}
		n, err := t.countEx.Eval(env)
		if err != nil {
			return 0, err
		}
		if n < 0 {
			return 0, cerrors.New(cerrors.BadExpression, "array length %d is negative", n)
		}
		return int(n), nil
	default:
		return -1, nil // sentinel: unknown ahead of time
	}
}

func (t *ArrayType) Read(cur *cursor.Cursor, scope *Scope, ctx Context) (Value, error) {
	if t.mode == CountSentinel {
		return t.readSentinel(cur, scope, ctx)
	}
	n, err := t.count(scope, ctx)
	if err != nil {
		return Value{}, err
	}
	if t.isCharLike() {
		return t.readFixedChars(cur, n)
	}
	elems := make([]Value, 0, n)
	var raw []byte
	for i := 0; i < n; i++ {
		v, err := t.elem.Read(cur, scope, ctx)
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, v)
		raw = append(raw, v.Raw()...)
	}
	return ArrayValue(t, elems).WithRaw(raw), nil
}

func (t *ArrayType) readFixedChars(cur *cursor.Cursor, n int) (Value, error) {
	unit := t.elem.Size()
	raw, err := cur.ReadExact(n * unit)
	if err != nil {
		return Value{}, err
	}
	return BytesValue(t, append([]byte(nil), raw...)).WithRaw(raw), nil
}

func (t *ArrayType) readSentinel(cur *cursor.Cursor, scope *Scope, ctx Context) (Value, error) {
	unit := t.elem.Size()
	if t.isCharLike() {
		var content, raw []byte
		for {
			b, err := cur.ReadExact(unit)
			if err != nil {
				return Value{}, cerrors.Wrap(cerrors.Truncated, err, "sentinel array %s: no terminator found", t.name)
			}
			raw = append(raw, b...)
			if allZero(b) {
				break
			}
			content = append(content, b...)
		}
		return BytesValue(t, content).WithRaw(raw), nil
	}

	zero := t.elem.Default()
	var elems []Value
	var raw []byte
	for {
		v, err := t.elem.Read(cur, scope, ctx)
		if err != nil {
			return Value{}, cerrors.Wrap(cerrors.Truncated, err, "sentinel array %s: no terminator found", t.name)
		}
		raw = append(raw, v.Raw()...)
		if v.Equal(zero) {
			break
		}
		elems = append(elems, v)
	}
	return ArrayValue(t, elems).WithRaw(raw), nil
}

func allZero(b []byte) bool {
	return bytes.IndexFunc(b, func(r rune) bool { return r != 0 }) == -1
}

func (t *ArrayType) Write(cur *cursor.Cursor, v Value, ctx Context) error {
	if t.isCharLike() {
		_, err := cur.Write(v.Bytes())
		if err != nil {
			return err
		}
		if t.mode == CountSentinel {
			_, err = cur.Write(make([]byte, t.elem.Size()))
		}
		return err
	}
	for _, e := range v.Elems() {
		if err := t.elem.Write(cur, e, ctx); err != nil {
			return err
		}
	}
	if t.mode == CountSentinel {
		return t.elem.Write(cur, t.elem.Default(), ctx)
	}
	return nil
}
