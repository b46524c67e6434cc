package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cursor"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/types"
)

// TestUnionScenario covers the struct U scenario: a union member
// re-reads the same starting bytes under each member's type, and the
// enclosing structure's size is the sum of its fields (char[4] plus
// the union's largest member).
func TestUnionScenario(t *testing.T) {
	u32 := types.NewIntegerType("uint32", 32, false, types.LittleEndian)
	charT := types.NewCharType("char")

	aStruct := types.NewStructType("__anon_a", []types.Field{
		{Name: "a", Type: u32},
		{Name: "b", Type: u32},
	})
	bStruct := types.NewStructType("__anon_b", []types.Field{
		{Name: "b", Type: types.NewFixedArrayType("b", charT, 8)},
	})
	union := types.NewUnionType("__anon_c", []types.Field{
		{Name: "a", Type: aStruct},
		{Name: "b", Type: bStruct},
	})
	st := types.NewStructType("U", []types.Field{
		{Name: "magic", Type: types.NewFixedArrayType("magic", charT, 4)},
		{Name: "c", Type: union},
	})

	require.Equal(t, 12, st.Size())

	raw := []byte("ohaideadbeef")
	ctx := newTestCtx()
	cur := cursor.NewReaderBytes(raw)
	v, err := st.Read(cur, types.NewScope(ctx), ctx)
	require.NoError(t, err)

	magic, _ := v.Record().Get("magic")
	require.Equal(t, "ohai", string(magic.Bytes()))

	c, _ := v.Record().Get("c")
	aVal, _ := c.Record().Get("a")
	a_a, _ := aVal.Record().Get("a")
	a_b, _ := aVal.Record().Get("b")
	require.Equal(t, int64(0x64616564), a_a.Int())
	require.Equal(t, int64(0x66656562), a_b.Int())

	bVal, _ := c.Record().Get("b")
	b_b, _ := bVal.Record().Get("b")
	require.Equal(t, "deadbeef", string(b_b.Bytes()))

	out, buf := cursor.NewWriterBuffer()
	require.NoError(t, st.Write(out, v, ctx))
	require.Equal(t, raw, buf.Bytes())
}

// TestUnionAnonymousFieldPromotion checks that an anonymous nested
// struct member of a union has its fields promoted directly onto the
// union's own record, same as StructType does for anonymous members.
func TestUnionAnonymousFieldPromotion(t *testing.T) {
	u32 := types.NewIntegerType("uint32", 32, false, types.LittleEndian)
	inner := types.NewStructType("__anon", []types.Field{
		{Name: "x", Type: u32},
	})
	union := types.NewUnionType("U", []types.Field{
		{Anonymous: true, Type: inner},
		{Name: "raw", Type: u32},
	})

	ctx := newTestCtx()
	raw := []byte{0x01, 0x00, 0x00, 0x00}
	cur := cursor.NewReaderBytes(raw)
	v, err := union.Read(cur, types.NewScope(ctx), ctx)
	require.NoError(t, err)

	x, ok := v.Record().Get("x")
	require.True(t, ok, "promoted field x must be reachable by its bare name")
	require.Equal(t, int64(1), x.Int())

	def := union.Default()
	dx, ok := def.Record().Get("x")
	require.True(t, ok, "fillDefaults must also promote anonymous fields")
	require.Equal(t, int64(0), dx.Int())
}

// TestUnionAnonymousFieldCollision checks that a promoted anonymous
// field colliding with a sibling member's name raises DuplicateField.
func TestUnionAnonymousFieldCollision(t *testing.T) {
	u32 := types.NewIntegerType("uint32", 32, false, types.LittleEndian)
	inner := types.NewStructType("__anon", []types.Field{
		{Name: "raw", Type: u32},
	})
	union := types.NewUnionType("U", []types.Field{
		{Name: "raw", Type: u32},
		{Anonymous: true, Type: inner},
	})

	ctx := newTestCtx()
	raw := []byte{0x01, 0x00, 0x00, 0x00}
	cur := cursor.NewReaderBytes(raw)
	_, err := union.Read(cur, types.NewScope(ctx), ctx)
	require.Error(t, err)
}
