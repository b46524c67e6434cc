package types

import (
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cerrors"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cursor"
)

// IntegerType is a fixed-width signed or unsigned integer codec.
// Width is expressed in bits (any whole-byte width up to 64) rather
// than restricted to the 8/16/32/64 encoding/binary supports, because the definition
// language allows oddities like uint24; packing/unpacking is done
// byte-wise instead of through encoding/binary.ByteOrder.
type IntegerType struct {
	name   string
	bits   int
	signed bool
	endian Endianness
}

// NewIntegerType constructs a width/sign/endianness primitive. bits
// must be a positive multiple of 8 for a whole-byte integer type;
// sub-byte widths only ever appear as bitfields (see struct.go) and
// are not represented as standalone Types.
func NewIntegerType(name string, bits int, signed bool, endian Endianness) *IntegerType {
	return &IntegerType{name: name, bits: bits, signed: signed, endian: endian}
}

func (t *IntegerType) Name() string    { return t.name }
func (t *IntegerType) Size() int       { return t.bits / 8 }
func (t *IntegerType) Alignment() int  { return t.Size() }
func (t *IntegerType) IsDynamic() bool { return false }
func (t *IntegerType) Signed() bool    { return t.signed }
func (t *IntegerType) Bits() int       { return t.bits }
func (t *IntegerType) Endian() Endianness { return t.endian }

func (t *IntegerType) Default() Value { return IntValue(t, 0) }

func (t *IntegerType) Read(cur *cursor.Cursor, scope *Scope, ctx Context) (Value, error) {
	raw, err := cur.ReadExact(t.Size())
	if err != nil {
		return Value{}, err
	}
	u := decodeUint(raw, t.endian)
	i := signExtend(u, t.bits, t.signed)
	return IntValue(t, i).WithRaw(raw), nil
}

func (t *IntegerType) Write(cur *cursor.Cursor, v Value, ctx Context) error {
	raw, err := t.Encode(v.Int())
	if err != nil {
		return err
	}
	_, err = cur.Write(raw)
	return err
}

// Encode packs i into the type's declared width, failing with
// ValueOutOfRange if it does not fit.
func (t *IntegerType) Encode(i int64) ([]byte, error) {
	if !fitsWidth(i, t.bits, t.signed) {
		return nil, cerrors.New(cerrors.ValueOutOfRange, "value %d does not fit %s", i, t.name)
	}
	return encodeUint(uint64(i)&widthMask(t.bits), t.Size(), t.endian), nil
}

func widthMask(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(bits)) - 1
}

func fitsWidth(i int64, bits int, signed bool) bool {
	if signed {
		if bits >= 64 {
			return true
		}
		max := int64(1)<<uint(bits-1) - 1
		min := -(int64(1) << uint(bits-1))
		return i >= min && i <= max
	}
	if i < 0 {
		return false
	}
	if bits >= 64 {
		return true
	}
	return uint64(i) <= widthMask(bits)
}

func signExtend(u uint64, bits int, signed bool) int64 {
	if !signed || bits >= 64 {
		return int64(u)
	}
	signBit := uint64(1) << uint(bits-1)
	if u&signBit != 0 {
		return int64(u | ^widthMask(bits))
	}
	return int64(u)
}

// decodeUint reads an arbitrary byte-count unsigned integer, byte by
// byte, honoring endianness -- generalizing encoding/binary.ByteOrder
// (limited to 1/2/4/8 bytes) to the odd widths (uint24, uint40, ...)
// the definition language permits.
func decodeUint(raw []byte, endian Endianness) uint64 {
	var u uint64
	if endian == BigEndian {
		for _, b := range raw {
			u = (u << 8) | uint64(b)
		}
	} else {
		for i := len(raw) - 1; i >= 0; i-- {
			u = (u << 8) | uint64(raw[i])
		}
	}
	return u
}

// encodeUint is decodeUint's inverse.
func encodeUint(u uint64, nbytes int, endian Endianness) []byte {
	out := make([]byte, nbytes)
	if endian == BigEndian {
		for i := nbytes - 1; i >= 0; i-- {
			out[i] = byte(u)
			u >>= 8
		}
	} else {
		for i := 0; i < nbytes; i++ {
			out[i] = byte(u)
			u >>= 8
		}
	}
	return out
}
