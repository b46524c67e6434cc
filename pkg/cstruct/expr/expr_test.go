package expr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fox-it/dissect.cstruct/pkg/cstruct/expr"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/token"
)

type fakeEnv struct {
	consts map[string]int64
	sizes  map[string]int
}

func (f fakeEnv) LookupConst(name string) (int64, bool) { v, ok := f.consts[name]; return v, ok }
func (f fakeEnv) SizeOf(name string) (int, bool)        { v, ok := f.sizes[name]; return v, ok }

func evalStr(t *testing.T, src string, env expr.Env) int64 {
	t.Helper()
	toks, err := token.New(src, nil).Tokens()
	require.NoError(t, err)
	// drop trailing EOF
	toks = toks[:len(toks)-1]
	v, err := expr.Eval(toks, env)
	require.NoError(t, err)
	return v
}

func TestEvalArithmeticPrecedence(t *testing.T) {
	env := fakeEnv{}
	require.Equal(t, int64(14), evalStr(t, "2 + 3 * 4", env))
	require.Equal(t, int64(20), evalStr(t, "(2 + 3) * 4", env))
	require.Equal(t, int64(1), evalStr(t, "(1 & 1) * 5 % 4", env))
}

func TestEvalShiftsAndBitwise(t *testing.T) {
	env := fakeEnv{}
	require.Equal(t, int64(8), evalStr(t, "1 << 3", env))
	require.Equal(t, int64(0xff), evalStr(t, "0xf0 | 0x0f", env))
	require.Equal(t, int64(^int64(0)), evalStr(t, "~0", env))
}

func TestEvalIdentifierLookup(t *testing.T) {
	env := fakeEnv{consts: map[string]int64{"SIZE": 5}}
	require.Equal(t, int64(10), evalStr(t, "SIZE * 2", env))
}

func TestEvalSizeof(t *testing.T) {
	env := fakeEnv{sizes: map[string]int{"uint32": 4}}
	require.Equal(t, int64(4), evalStr(t, "sizeof(uint32)", env))
}

func TestEvalTernary(t *testing.T) {
	env := fakeEnv{consts: map[string]int64{"FLAG": 1}}
	require.Equal(t, int64(5), evalStr(t, "1 ? 5 : 9", env))
	require.Equal(t, int64(9), evalStr(t, "0 ? 5 : 9", env))
	require.Equal(t, int64(9), evalStr(t, "FLAG ? (1 ? 9 : 1) : 2", env))
	// right-associative: "a ? b : c ? d : e" == "a ? b : (c ? d : e)"
	require.Equal(t, int64(7), evalStr(t, "0 ? 1 : 1 ? 7 : 8", env))
}

func TestEvalDivisionByZero(t *testing.T) {
	env := fakeEnv{}
	toks, err := token.New("1 / 0", nil).Tokens()
	require.NoError(t, err)
	_, err = expr.Eval(toks[:len(toks)-1], env)
	require.Error(t, err)
}

func TestEvalUnknownIdentifier(t *testing.T) {
	env := fakeEnv{}
	toks, err := token.New("UNKNOWN", nil).Tokens()
	require.NoError(t, err)
	_, err = expr.Eval(toks[:len(toks)-1], env)
	require.Error(t, err)
}
