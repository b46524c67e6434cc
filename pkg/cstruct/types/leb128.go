package types

import "github.com/fox-it/dissect.cstruct/pkg/cstruct/cursor"

// LEB128Type is a variable-length integer codec: read consumes bytes
// until a continuation bit (0x80) is clear; write emits the minimum
// number of groups. Size is Dynamic since the encoded length depends
// on the value.
type LEB128Type struct {
	name   string
	signed bool
}

func NewLEB128Type(name string, signed bool) *LEB128Type {
	return &LEB128Type{name: name, signed: signed}
}

func (t *LEB128Type) Name() string    { return t.name }
func (t *LEB128Type) Size() int       { return Dynamic }
func (t *LEB128Type) Alignment() int  { return 1 }
func (t *LEB128Type) IsDynamic() bool { return true }
func (t *LEB128Type) Default() Value  { return IntValue(t, 0) }

func (t *LEB128Type) Read(cur *cursor.Cursor, scope *Scope, ctx Context) (Value, error) {
	var raw []byte
	var result uint64
	var shift uint
	for {
		b, err := cur.ReadByte()
		if err != nil {
			return Value{}, err
		}
		raw = append(raw, b)
		result |= uint64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if t.signed && shift < 64 && b&0x40 != 0 {
				result |= ^uint64(0) << shift
			}
			break
		}
	}
	return IntValue(t, int64(result)).WithRaw(raw), nil
}

func (t *LEB128Type) Write(cur *cursor.Cursor, v Value, ctx Context) error {
	raw := t.Encode(v.Int())
	_, err := cur.Write(raw)
	return err
}

// Encode produces the minimum-length LEB128 encoding of i.
func (t *LEB128Type) Encode(i int64) []byte {
	var out []byte
	if !t.signed {
		u := uint64(i)
		for {
			b := byte(u & 0x7f)
			u >>= 7
			if u != 0 {
				out = append(out, b|0x80)
			} else {
				out = append(out, b)
				break
			}
		}
		return out
	}
	u := i
	for {
		b := byte(u & 0x7f)
		u >>= 7
		signBitSet := b&0x40 != 0
		done := (u == 0 && !signBitSet) || (u == -1 && signBitSet)
		if !done {
			out = append(out, b|0x80)
			continue
		}
		out = append(out, b)
		break
	}
	return out
}
