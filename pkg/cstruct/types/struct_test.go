package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cursor"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/expr"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/token"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/types"
)

func bw(n int) *int { return &n }

// TestBitfieldPacking exercises the struct B scenario: consecutive
// bitfields sharing a storage type pack into one unit; a non-bitfield
// field flushes the run and a later bitfield run starts fresh.
func TestBitfieldPacking(t *testing.T) {
	u16 := types.NewIntegerType("uint16", 16, false, types.LittleEndian)
	u32 := types.NewIntegerType("uint32", 32, false, types.LittleEndian)

	st := types.NewStructType("B", []types.Field{
		{Name: "a", Type: u16, BitWidth: bw(1)},
		{Name: "b", Type: u16, BitWidth: bw(1)},
		{Name: "c", Type: u32},
		{Name: "d", Type: u16, BitWidth: bw(2)},
		{Name: "e", Type: u16, BitWidth: bw(3)},
	})

	ctx := newTestCtx()
	raw := []byte{0x03, 0x00, 0xFF, 0x00, 0x00, 0x00, 0x1F, 0x00}
	cur := cursor.NewReaderBytes(raw)
	v, err := st.Read(cur, types.NewScope(ctx), ctx)
	require.NoError(t, err)

	get := func(name string) int64 {
		fv, ok := v.Record().Get(name)
		require.True(t, ok, name)
		return fv.Int()
	}
	require.Equal(t, int64(1), get("a"))
	require.Equal(t, int64(1), get("b"))
	require.Equal(t, int64(0xFF), get("c"))
	require.Equal(t, int64(0b11), get("d"))
	require.Equal(t, int64(0b111), get("e"))

	require.Equal(t, 8, st.Size())

	out, buf := cursor.NewWriterBuffer()
	require.NoError(t, st.Write(out, v, ctx))
	require.Equal(t, raw, buf.Bytes())
}

// TestStructureSizeAdditivity checks that with no bitfields and no
// dynamic fields, a structure's size is the sum of its field sizes.
func TestStructureSizeAdditivity(t *testing.T) {
	u8 := types.NewIntegerType("uint8", 8, false, types.LittleEndian)
	u16 := types.NewIntegerType("uint16", 16, false, types.LittleEndian)
	st := types.NewStructType("Plain", []types.Field{
		{Name: "a", Type: u8},
		{Name: "b", Type: u16},
		{Name: "c", Type: u8},
	})
	require.Equal(t, 4, st.Size())
	require.False(t, st.IsDynamic())
}

// TestExpressionSizedArrayAndCharFields covers a char array whose
// length is computed from a sibling field already read.
func TestExpressionSizedArrayAndCharFields(t *testing.T) {
	u8 := types.NewIntegerType("uint8", 8, false, types.LittleEndian)
	u16 := types.NewIntegerType("uint16", 16, false, types.LittleEndian)
	charT := types.NewCharType("char")

	lenExpr, err := token.New("(a & 1) * 5", nil).Tokens()
	require.NoError(t, err)
	lenExpr = lenExpr[:len(lenExpr)-1]

	st := types.NewStructType("S", []types.Field{
		{Name: "a", Type: u8},
		{Name: "b", Type: types.NewFixedArrayType("b", charT, 5)},
		{Name: "c", Type: types.NewExprArrayType("c", charT, expr.Compiled(lenExpr))},
		{Name: "d", Type: u16},
	})

	raw := []byte{0x01}
	raw = append(raw, []byte("hello")...)
	raw = append(raw, []byte("world")...)
	raw = append(raw, 0x00, 0x00)

	ctx := newTestCtx()
	cur := cursor.NewReaderBytes(raw)
	v, err := st.Read(cur, types.NewScope(ctx), ctx)
	require.NoError(t, err)

	a, _ := v.Record().Get("a")
	b, _ := v.Record().Get("b")
	c, _ := v.Record().Get("c")
	d, _ := v.Record().Get("d")
	require.Equal(t, int64(1), a.Int())
	require.Equal(t, "hello", string(b.Bytes()))
	require.Equal(t, "world", string(c.Bytes()))
	require.Equal(t, int64(0), d.Int())

	out, buf := cursor.NewWriterBuffer()
	require.NoError(t, st.Write(out, v, ctx))
	require.Equal(t, raw, buf.Bytes())
}

// TestAnonymousFieldPromotion checks that an anonymous nested struct's
// fields are promoted directly onto the enclosing record.
func TestAnonymousFieldPromotion(t *testing.T) {
	u32 := types.NewIntegerType("uint32", 32, false, types.LittleEndian)
	inner := types.NewStructType("__anon", []types.Field{
		{Name: "x", Type: u32},
	})
	outer := types.NewStructType("Outer", []types.Field{
		{Anonymous: true, Type: inner},
		{Name: "y", Type: u32},
	})

	ctx := newTestCtx()
	raw := []byte{0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00}
	cur := cursor.NewReaderBytes(raw)
	v, err := outer.Read(cur, types.NewScope(ctx), ctx)
	require.NoError(t, err)

	x, ok := v.Record().Get("x")
	require.True(t, ok, "promoted field x must be reachable by its bare name")
	require.Equal(t, int64(1), x.Int())

	out, buf := cursor.NewWriterBuffer()
	require.NoError(t, outer.Write(out, v, ctx))
	require.Equal(t, raw, buf.Bytes())
}
