package types

import (
	"math"

	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cursor"
)

// FloatType is an IEEE-754 binary16/32/64 codec.
type FloatType struct {
	name   string
	bits   int // 16, 32, or 64
	endian Endianness
}

func NewFloatType(name string, bits int, endian Endianness) *FloatType {
	return &FloatType{name: name, bits: bits, endian: endian}
}

func (t *FloatType) Name() string    { return t.name }
func (t *FloatType) Size() int       { return t.bits / 8 }
func (t *FloatType) Alignment() int  { return t.Size() }
func (t *FloatType) IsDynamic() bool { return false }
func (t *FloatType) Default() Value  { return FloatValue(t, 0) }

func (t *FloatType) Read(cur *cursor.Cursor, scope *Scope, ctx Context) (Value, error) {
	raw, err := cur.ReadExact(t.Size())
	if err != nil {
		return Value{}, err
	}
	u := decodeUint(raw, t.endian)
	var f float64
	switch t.bits {
	case 16:
		f = float64(float16ToFloat32(uint16(u)))
	case 32:
		f = float64(math.Float32frombits(uint32(u)))
	default:
		f = math.Float64frombits(u)
	}
	return FloatValue(t, f).WithRaw(raw), nil
}

func (t *FloatType) Write(cur *cursor.Cursor, v Value, ctx Context) error {
	var u uint64
	switch t.bits {
	case 16:
		u = uint64(float32ToFloat16(float32(v.Float())))
	case 32:
		u = uint64(math.Float32bits(float32(v.Float())))
	default:
		u = math.Float64bits(v.Float())
	}
	_, err := cur.Write(encodeUint(u, t.Size(), t.endian))
	return err
}

// float16ToFloat32 and float32ToFloat16 implement IEEE-754 binary16
// conversion by hand, since the standard library has no float16 type.
func float16ToFloat32(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h&0x7c00) >> 10
	frac := uint32(h & 0x03ff)

	switch exp {
	case 0:
		if frac == 0 {
			return math.Float32frombits(sign)
		}
		// subnormal: normalize by shifting frac left until the
		// implicit leading bit appears, adjusting the exponent.
		e := int32(0)
		for frac&0x0400 == 0 {
			frac <<= 1
			e--
		}
		frac &= 0x03ff
		exp32 := uint32(int32(127-15+1) + e)
		return math.Float32frombits(sign | (exp32 << 23) | (frac << 13))
	case 0x1f:
		return math.Float32frombits(sign | 0x7f800000 | (frac << 13))
	default:
		exp32 := exp - 15 + 127
		return math.Float32frombits(sign | (exp32 << 23) | (frac << 13))
	}
}

func float32ToFloat16(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16((bits >> 16) & 0x8000)
	exp := int32((bits>>23)&0xff) - 127 + 15
	frac := bits & 0x7fffff

	switch {
	case exp <= 0:
		return sign // flush to zero/subnormal, underflow
	case exp >= 0x1f:
		return sign | 0x7c00 // overflow to infinity
	default:
		return sign | uint16(exp)<<10 | uint16(frac>>13)
	}
}
