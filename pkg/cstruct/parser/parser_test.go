package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fox-it/dissect.cstruct/pkg/cstruct"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cerrors"
)

func TestParseBitfieldDeclaration(t *testing.T) {
	r := cstruct.New()
	require.NoError(t, r.Load(`
		struct B {
			uint16 a:1;
			uint16 b:1;
			uint32 c;
			uint16 d:2;
			uint16 e:3;
		};
	`))
	st, ok := r.Lookup("B")
	require.True(t, ok)
	require.Equal(t, 8, st.Size())

	v, err := r.Decode(st, []byte{0x03, 0x00, 0xFF, 0x00, 0x00, 0x00, 0x1F, 0x00})
	require.NoError(t, err)
	get := func(name string) int64 {
		fv, _ := v.Record().Get(name)
		return fv.Int()
	}
	require.Equal(t, int64(1), get("a"))
	require.Equal(t, int64(1), get("b"))
	require.Equal(t, int64(0xFF), get("c"))
	require.Equal(t, int64(3), get("d"))
	require.Equal(t, int64(7), get("e"))
}

func TestParseAnonymousUnionPromotion(t *testing.T) {
	r := cstruct.New()
	require.NoError(t, r.Load(`
		struct Event {
			uint8 kind;
			union {
				uint32 number;
				uint8 bytes[4];
			};
		};
	`))
	st, _ := r.Lookup("Event")
	v, err := r.Decode(st, []byte{0x01, 0x2A, 0x00, 0x00, 0x00})
	require.NoError(t, err)

	num, ok := v.Record().Get("number")
	require.True(t, ok, "anonymous union member must be promoted onto the enclosing struct")
	require.Equal(t, int64(42), num.Int())
}

func TestParseFlagDeclaration(t *testing.T) {
	r := cstruct.New()
	require.NoError(t, r.Load(`flag Perms : uint8 { Read = 1, Write = 2, Exec = 4 };`))
	f, ok := r.Lookup("Perms")
	require.True(t, ok)
	v, err := r.Decode(f, []byte{0x03})
	require.NoError(t, err)
	require.Equal(t, int64(3), v.Int())
}

func TestParseUnknownTypeError(t *testing.T) {
	r := cstruct.New()
	err := r.Load(`struct Bad { frobnicate x; };`)
	require.Error(t, err)
	require.True(t, cerrors.Is(err, cerrors.UnknownType))
}

func TestParseDuplicateFieldFromPromotion(t *testing.T) {
	r := cstruct.New()
	require.NoError(t, r.Load(`
		struct Dup {
			uint8 x;
			struct {
				uint8 x;
			};
		};
	`))
	st, ok := r.Lookup("Dup")
	require.True(t, ok)

	_, err := r.Decode(st, []byte{0x01, 0x02})
	require.Error(t, err, "a promoted anonymous field colliding with an outer field must fail at read time")
	require.True(t, cerrors.Is(err, cerrors.DuplicateField))
}
