package types

import "github.com/fox-it/dissect.cstruct/pkg/cstruct/cursor"

// CharType is a single byte rendered as a character rather than a
// plain integer; arrays of CharType collapse into a single byte
// string Value (see array.go) instead of an array of per-element
// integer Values.
type CharType struct{ name string }

func NewCharType(name string) *CharType { return &CharType{name: name} }

func (t *CharType) Name() string    { return t.name }
func (t *CharType) Size() int       { return 1 }
func (t *CharType) Alignment() int  { return 1 }
func (t *CharType) IsDynamic() bool { return false }
func (t *CharType) Default() Value  { return IntValue(t, 0) }

func (t *CharType) Read(cur *cursor.Cursor, scope *Scope, ctx Context) (Value, error) {
	raw, err := cur.ReadExact(1)
	if err != nil {
		return Value{}, err
	}
	return IntValue(t, int64(raw[0])).WithRaw(raw), nil
}

func (t *CharType) Write(cur *cursor.Cursor, v Value, ctx Context) error {
	_, err := cur.Write([]byte{byte(v.Int())})
	return err
}

// WcharType is a wide character. NewWcharType takes any width and
// endianness; the registry always registers "wchar" as 2 bytes
// little-endian per the fixed Open Question resolution (DESIGN.md)
// and offers no option to change either.
type WcharType struct {
	name   string
	width  int
	endian Endianness
}

func NewWcharType(name string, width int, endian Endianness) *WcharType {
	return &WcharType{name: name, width: width, endian: endian}
}

func (t *WcharType) Name() string    { return t.name }
func (t *WcharType) Size() int       { return t.width }
func (t *WcharType) Alignment() int  { return t.width }
func (t *WcharType) IsDynamic() bool { return false }
func (t *WcharType) Default() Value  { return IntValue(t, 0) }

func (t *WcharType) Read(cur *cursor.Cursor, scope *Scope, ctx Context) (Value, error) {
	raw, err := cur.ReadExact(t.width)
	if err != nil {
		return Value{}, err
	}
	u := decodeUint(raw, t.endian)
	return IntValue(t, int64(u)).WithRaw(raw), nil
}

func (t *WcharType) Write(cur *cursor.Cursor, v Value, ctx Context) error {
	_, err := cur.Write(encodeUint(uint64(v.Int()), t.width, t.endian))
	return err
}
