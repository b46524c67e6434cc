package cstruct_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fox-it/dissect.cstruct/pkg/cstruct"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cerrors"
)

func TestLoadEnumAndDecode(t *testing.T) {
	r := cstruct.New()
	require.NoError(t, r.Load(`enum E : uint16 { A, B=5, C };`))

	e, ok := r.Lookup("E")
	require.True(t, ok)

	for _, tc := range []struct {
		raw  []byte
		want int64
	}{
		{[]byte{0x00, 0x00}, 0},
		{[]byte{0x05, 0x00}, 5},
		{[]byte{0x06, 0x00}, 6},
		{[]byte{0x07, 0x00}, 7},
	} {
		v, err := r.Decode(e, tc.raw)
		require.NoError(t, err)
		require.Equal(t, tc.want, v.Int())
	}
}

func TestLoadStructWithDefine(t *testing.T) {
	r := cstruct.New()
	require.NoError(t, r.Load(`
		#define COUNT 2
		struct Pair {
			uint16 values[COUNT];
		};
	`))
	st, ok := r.Lookup("Pair")
	require.True(t, ok)
	require.Equal(t, 4, st.Size())

	v, err := r.Decode(st, []byte{0x01, 0x00, 0x02, 0x00})
	require.NoError(t, err)
	vals, _ := v.Record().Get("values")
	require.Len(t, vals.Elems(), 2)
	require.Equal(t, int64(1), vals.Elems()[0].Int())
	require.Equal(t, int64(2), vals.Elems()[1].Int())
}

func TestLoadIsTransactional(t *testing.T) {
	r := cstruct.New()
	require.NoError(t, r.Load(`struct Good { uint8 a; };`))

	err := r.Load(`
		struct AlsoGood { uint8 b; };
		struct Broken { nosuchtype c; };
	`)
	require.Error(t, err)

	_, ok := r.Lookup("AlsoGood")
	require.False(t, ok, "a failed Load must not commit any of its declarations")
	_, ok = r.Lookup("Good")
	require.True(t, ok, "a prior successful Load must be unaffected")
}

func TestRedefinitionFails(t *testing.T) {
	r := cstruct.New()
	require.NoError(t, r.Load(`struct S { uint8 a; };`))
	err := r.Load(`struct S { uint16 a; };`)
	require.Error(t, err)
	require.True(t, cerrors.Is(err, cerrors.Redefinition))
}

func TestForwardDeclaredStructSelfReference(t *testing.T) {
	r := cstruct.New()
	err := r.Load(`
		struct Node {
			uint32 value;
			Node *next;
		};
	`)
	require.NoError(t, err)
	_, ok := r.Lookup("Node")
	require.True(t, ok)
}

func TestPointerEncodeDecode(t *testing.T) {
	r := cstruct.New()
	require.NoError(t, r.Load(`struct P { uint32 *ptr; };`))
	st, _ := r.Lookup("P")
	raw := []byte{0x10, 0x20, 0x30, 0x40, 0x50, 0x60, 0x70, 0x80}
	v, err := r.Decode(st, raw)
	require.NoError(t, err)
	out, err := r.Encode(st, v)
	require.NoError(t, err)
	require.Equal(t, raw, out)
}

func TestTypedefAlias(t *testing.T) {
	r := cstruct.New()
	require.NoError(t, r.Load(`typedef uint16 Word;`))
	wordT, ok := r.Lookup("Word")
	require.True(t, ok)
	require.Equal(t, 2, wordT.Size())
}
