package types

import (
	"fmt"
	"strings"
)

// Kind tags which arm of a Value is populated, playing the role a
// type switch over an exported wrapper hierarchy would elsewhere --
// chosen here so Value stays a single comparable-by-convention struct
// instead of an interface hierarchy, per the "no runtime reflection
// required" re-architecture note for the value model.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBytes  // char/wchar arrays and sentinel strings
	KindArray  // array of non-character elements
	KindStruct // structure or union instance
	KindNil    // void / null pointer
)

// Value is a parsed or constructed instance of some Type. It stores
// the exact bytes consumed during Read (Raw); Write implementations
// re-encode from the logical value and do not consult Raw.
type Value struct {
	typ   Type
	kind  Kind
	i     int64
	f     float64
	bytes []byte
	elems []Value
	rec   *Record
	raw   []byte
}

// Record is the ordered name->Value mapping backing structure and
// union instances, preserving declaration order the way the source's
// attribute-accessible records do.
type Record struct {
	order   []string
	vals    map[string]Value
	lastSet string
}

// NewRecord allocates an empty, ordered field map.
func NewRecord() *Record {
	return &Record{vals: make(map[string]Value)}
}

// Set inserts or overwrites a field, appending to the order only the
// first time the name is seen.
func (r *Record) Set(name string, v Value) {
	if _, exists := r.vals[name]; !exists {
		r.order = append(r.order, name)
	}
	r.vals[name] = v
	r.lastSet = name
}

// LastSet returns the name most recently passed to Set, used by
// Union.Write to determine which member's bytes to emit.
func (r *Record) LastSet() string { return r.lastSet }

// Get retrieves a field by name.
func (r *Record) Get(name string) (Value, bool) {
	v, ok := r.vals[name]
	return v, ok
}

// Names returns field names in declaration order.
func (r *Record) Names() []string { return r.order }

// Merge copies other's fields into r in other's order, used to
// promote an anonymous inner struct/union's fields onto the
// enclosing record. Returns the first name already present, if any,
// so the caller can raise DuplicateField.
func (r *Record) Merge(other *Record) (dup string, ok bool) {
	for _, name := range other.order {
		if _, exists := r.vals[name]; exists {
			return name, true
		}
	}
	for _, name := range other.order {
		r.Set(name, other.vals[name])
	}
	return "", false
}

func IntValue(t Type, i int64) Value   { return Value{typ: t, kind: KindInt, i: i} }
func FloatValue(t Type, f float64) Value { return Value{typ: t, kind: KindFloat, f: f} }
func BytesValue(t Type, b []byte) Value { return Value{typ: t, kind: KindBytes, bytes: b} }
func ArrayValue(t Type, elems []Value) Value {
	return Value{typ: t, kind: KindArray, elems: elems}
}
func StructValue(t Type, rec *Record) Value { return Value{typ: t, kind: KindStruct, rec: rec} }
func NilValue(t Type) Value                { return Value{typ: t, kind: KindNil} }

func (v Value) Type() Type  { return v.typ }
func (v Value) Kind() Kind  { return v.kind }
func (v Value) Int() int64  { return v.i }
func (v Value) Float() float64 { return v.f }
func (v Value) Bytes() []byte  { return v.bytes }
func (v Value) Elems() []Value { return v.elems }
func (v Value) Record() *Record { return v.rec }

// Raw returns the exact bytes consumed while reading v, if known.
// WithRaw attaches them (used by Read implementations immediately
// after decoding). Write does not read them back.
func (v Value) Raw() []byte { return v.raw }
func (v Value) WithRaw(b []byte) Value {
	v.raw = b
	return v
}

// Equal reports structural equality: same kind and same content,
// ignoring Raw (which only affects emission, not logical value).
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindBytes:
		return string(v.bytes) == string(o.bytes)
	case KindArray:
		if len(v.elems) != len(o.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(o.elems[i]) {
				return false
			}
		}
		return true
	case KindStruct:
		if len(v.rec.order) != len(o.rec.order) {
			return false
		}
		for _, name := range v.rec.order {
			a, _ := v.rec.Get(name)
			b, ok := o.rec.Get(name)
			if !ok || !a.Equal(b) {
				return false
			}
		}
		return true
	case KindNil:
		return true
	default:
		return false
	}
}

// String renders v per the rendering rules of the value model:
// integers in decimal, enum/flag types override this via their own
// Type (see enum.go/flag.go), character byte arrays as quoted byte
// strings, and structures as "Name{field=..., ...}".
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		switch t := v.typ.(type) {
		case *EnumType:
			return t.Render(v)
		case *FlagType:
			return t.Render(v)
		default:
			return fmt.Sprintf("%d", v.i)
		}
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindBytes:
		return fmt.Sprintf("%q", v.bytes)
	case KindArray:
		parts := make([]string, len(v.elems))
		for i, e := range v.elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindStruct:
		parts := make([]string, 0, len(v.rec.order))
		for _, name := range v.rec.order {
			fv, _ := v.rec.Get(name)
			parts = append(parts, fmt.Sprintf("%s=%s", name, fv.String()))
		}
		name := "struct"
		if v.typ != nil && v.typ.Name() != "" {
			name = v.typ.Name()
		}
		return name + "{" + strings.Join(parts, ", ") + "}"
	case KindNil:
		return "<nil>"
	default:
		return "<?>"
	}
}
