package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cursor"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/types"
)

// TestSentinelCharArray covers the char[None] scenario: reads until a
// zero terminator, strips it from the decoded string, but re-emits it
// on Write.
func TestSentinelCharArray(t *testing.T) {
	charT := types.NewCharType("char")
	arr := types.NewSentinelArrayType("s", charT)
	ctx := newTestCtx()

	raw := append([]byte("hello world!"), 0x00)
	cur := cursor.NewReaderBytes(raw)
	v, err := arr.Read(cur, types.NewScope(ctx), ctx)
	require.NoError(t, err)
	require.Equal(t, "hello world!", string(v.Bytes()))

	out, buf := cursor.NewWriterBuffer()
	require.NoError(t, arr.Write(out, v, ctx))
	require.Equal(t, raw, buf.Bytes())
}

// TestSentinelArrayMissingTerminatorFails covers the "missing
// sentinel fails with Truncated rather than hanging" resource bound.
func TestSentinelArrayMissingTerminatorFails(t *testing.T) {
	charT := types.NewCharType("char")
	arr := types.NewSentinelArrayType("s", charT)
	ctx := newTestCtx()

	cur := cursor.NewReaderBytes([]byte("no terminator"))
	_, err := arr.Read(cur, types.NewScope(ctx), ctx)
	require.Error(t, err)
}

func TestSentinelNonCharArray(t *testing.T) {
	u32 := types.NewIntegerType("uint32", 32, false, types.LittleEndian)
	arr := types.NewSentinelArrayType("s", u32)
	ctx := newTestCtx()

	raw := []byte{
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	cur := cursor.NewReaderBytes(raw)
	v, err := arr.Read(cur, types.NewScope(ctx), ctx)
	require.NoError(t, err)
	require.Len(t, v.Elems(), 2)
	require.Equal(t, int64(1), v.Elems()[0].Int())
	require.Equal(t, int64(2), v.Elems()[1].Int())
}
