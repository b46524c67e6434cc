package token_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fox-it/dissect.cstruct/pkg/cstruct/token"
)

func lex(t *testing.T, src string) []token.Token {
	t.Helper()
	toks, err := token.New(src, nil).Tokens()
	require.NoError(t, err)
	return toks
}

func TestLexerIdentifiersAndPunct(t *testing.T) {
	toks := lex(t, "struct Foo { uint8 a; };")
	require.Equal(t, token.Ident, toks[0].Kind)
	require.Equal(t, "struct", toks[0].Text)
	require.Equal(t, token.Punct, toks[2].Kind)
	require.Equal(t, "{", toks[2].Text)
	require.Equal(t, token.EOF, toks[len(toks)-1].Kind)
}

func TestLexerIntegerLiterals(t *testing.T) {
	toks := lex(t, "0x1F 0b101 042 7 0o17 0O20")
	require.Equal(t, int64(0x1F), toks[0].Int)
	require.Equal(t, int64(5), toks[1].Int)
	require.Equal(t, int64(34), toks[2].Int) // octal 042
	require.Equal(t, int64(7), toks[3].Int)
	require.Equal(t, int64(15), toks[4].Int) // 0o17
	require.Equal(t, int64(16), toks[5].Int) // 0O20
	require.Equal(t, token.Int, toks[4].Kind)
	require.Equal(t, token.Int, toks[5].Kind)
}

func TestLexerCharAndString(t *testing.T) {
	toks := lex(t, `'a' "\nhi"`)
	require.Equal(t, token.Char, toks[0].Kind)
	require.Equal(t, int64('a'), toks[0].Int)
	require.Equal(t, token.Str, toks[1].Kind)
	require.Equal(t, "\nhi", toks[1].Text)
}

func TestLexerCommentsStripped(t *testing.T) {
	toks := lex(t, "a // line comment\nb /* block\ncomment */ c")
	var names []string
	for _, tk := range toks {
		if tk.Kind == token.Ident {
			names = append(names, tk.Text)
		}
	}
	require.Equal(t, []string{"a", "b", "c"}, names)
}

func TestLexerDefineDirective(t *testing.T) {
	toks := lex(t, "#define SIZE (4 + 1)\nuint8 a;")
	require.Equal(t, token.Define, toks[0].Kind)
	require.Equal(t, "SIZE", toks[0].Text)
	var sawNewline bool
	for _, tk := range toks {
		if tk.Kind == token.Newline {
			sawNewline = true
		}
	}
	require.True(t, sawNewline)
}

func TestLexerIncludeWarns(t *testing.T) {
	var warned bool
	_, err := token.New("#include <foo.h>\nuint8 a;", func(format string, args ...any) { warned = true }).Tokens()
	require.NoError(t, err)
	require.True(t, warned)
}

func TestLexerMultiCharPunct(t *testing.T) {
	toks := lex(t, "a << b >= c")
	require.Equal(t, "<<", toks[1].Text)
	require.Equal(t, ">=", toks[3].Text)
}
