package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cursor"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/types"
)

func TestIntegerRoundTripOddWidth(t *testing.T) {
	// uint24[2] on 01 00 00 02 00 00 => [1, 2].
	u24 := types.NewIntegerType("uint24", 24, false, types.LittleEndian)
	arr := types.NewFixedArrayType("arr", u24, 2)
	ctx := newTestCtx()

	raw := []byte{0x01, 0x00, 0x00, 0x02, 0x00, 0x00}
	cur := cursor.NewReaderBytes(raw)
	v, err := arr.Read(cur, types.NewScope(ctx), ctx)
	require.NoError(t, err)
	require.Len(t, v.Elems(), 2)
	require.Equal(t, int64(1), v.Elems()[0].Int())
	require.Equal(t, int64(2), v.Elems()[1].Int())

	out, buf := cursor.NewWriterBuffer()
	require.NoError(t, arr.Write(out, v, ctx))
	require.Equal(t, raw, buf.Bytes())
}

func TestIntegerSignExtension(t *testing.T) {
	i8 := types.NewIntegerType("int8", 8, true, types.LittleEndian)
	ctx := newTestCtx()
	cur := cursor.NewReaderBytes([]byte{0xff})
	v, err := i8.Read(cur, nil, ctx)
	require.NoError(t, err)
	require.Equal(t, int64(-1), v.Int())
}

func TestIntegerValueOutOfRange(t *testing.T) {
	u8 := types.NewIntegerType("uint8", 8, false, types.LittleEndian)
	_, err := u8.Encode(256)
	require.Error(t, err)
}

func TestIntegerBigEndian(t *testing.T) {
	u16 := types.NewIntegerType("uint16", 16, false, types.BigEndian)
	ctx := newTestCtx()
	cur := cursor.NewReaderBytes([]byte{0x01, 0x02})
	v, err := u16.Read(cur, nil, ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0x0102), v.Int())
}
