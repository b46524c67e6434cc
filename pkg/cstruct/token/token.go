// Package token lexes the cstruct definition language: C-like
// declarations of enums, flags, structs, unions, typedefs and
// #define constants. The scanning style is a single index into the
// source with explicit bounds checks at each step, applied here to
// text instead of binary records.
package token

import (
	"fmt"
)

// Kind identifies the lexical category of a Token.
type Kind int

const (
	EOF Kind = iota
	Ident
	Int
	Char
	Str
	Punct
	// Define marks the start of a "#define NAME expr" directive; the
	// constant name is stored in Text, and the expression tokens that
	// follow (up to the terminating Newline) make up the replacement.
	Define
	// Newline terminates a #define's expression token run. It never
	// appears outside of a directive: ordinary whitespace is insignificant
	// and never produces a token.
	Newline
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Ident:
		return "Ident"
	case Int:
		return "Int"
	case Char:
		return "Char"
	case Str:
		return "Str"
	case Punct:
		return "Punct"
	case Define:
		return "Define"
	case Newline:
		return "Newline"
	default:
		return "?"
	}
}

// Token is one lexical unit, carrying enough position information for
// ParseError to report a line and column.
type Token struct {
	Kind Kind
	Text string // identifier text, punctuation spelling, or #define name
	Int  int64  // decoded value for Int/Char
	Line int
	Col  int
}

func (t Token) String() string {
	switch t.Kind {
	case Int, Char:
		return fmt.Sprintf("%s(%d)", t.Kind, t.Int)
	case EOF:
		return "EOF"
	default:
		return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
	}
}

// multiCharPuncts lists punctuation spellings longer than one character,
// with every spelling ahead of any shorter spelling that is its prefix
// ("<<=" before "<<"), so the lexer can do maximal munch with a single
// linear scan.
var multiCharPuncts = []string{
	"::", "<<=", ">>=", "<<", ">>", "<=", ">=", "==", "!=", "&&", "||",
}

var singleCharPuncts = "{}[]()*=<>+-/%&|^~!?:;,."

func isIdentStart(r byte) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentCont(r byte) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

func isDigit(r byte) bool { return r >= '0' && r <= '9' }

// keywords that tolerate attribute-like trailing parens, e.g.
// __attribute__((packed)); the lexer still emits ordinary tokens for
// these -- the parser is the one that knows to skip them.
