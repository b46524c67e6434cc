package token

import (
	"strings"

	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cerrors"
)

// WarnFunc receives a human-readable warning (e.g. an ignored #include)
// without aborting the scan. A nil WarnFunc silently discards warnings.
type WarnFunc func(format string, args ...any)

// Lexer scans cstruct definition source into a flat Token slice. It
// makes a single left-to-right pass with explicit bounds checks at
// every step, applied here to text instead of length-prefixed binary
// records.
type Lexer struct {
	src  string
	pos  int
	line int
	col  int
	warn WarnFunc
}

// New creates a Lexer over src. warn may be nil.
func New(src string, warn WarnFunc) *Lexer {
	if warn == nil {
		warn = func(string, ...any) {}
	}
	return &Lexer{src: src, pos: 0, line: 1, col: 1, warn: warn}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *Lexer) atEOF() bool { return l.pos >= len(l.src) }

// Tokens scans the entire source and returns the resulting tokens,
// always ending with a single EOF token.
func (l *Lexer) Tokens() ([]Token, error) {
	var toks []Token
	atLineStart := true
	for {
		startedLine := atLineStart
		if l.skipInsignificant() {
			startedLine = true
		}
		if l.atEOF() {
			toks = append(toks, Token{Kind: EOF, Line: l.line, Col: l.col})
			return toks, nil
		}
		line, col := l.line, l.col
		c := l.peek()

		if c == '#' && startedLine {
			defToks, err := l.scanDirective()
			if err != nil {
				return nil, err
			}
			toks = append(toks, defToks...)
			atLineStart = true
			continue
		}
		atLineStart = false

		switch {
		case isIdentStart(c):
			tok := l.scanIdent(line, col)
			toks = append(toks, tok)
		case isDigit(c):
			tok, err := l.scanNumber(line, col)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
		case c == '\'':
			tok, err := l.scanChar(line, col)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
		case c == '"':
			tok, err := l.scanString(line, col)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
		default:
			tok, err := l.scanPunct(line, col)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
		}
	}
}

// skipInsignificant consumes whitespace, line comments, and block
// comments, stopping at the start of the next real token. It reports
// whether it consumed a newline, so that Tokens can treat a '#' that
// begins a line as a directive (directive detection itself happens in
// Tokens via startedLine).
func (l *Lexer) skipInsignificant() (sawNewline bool) {
	for !l.atEOF() {
		c := l.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			if c == '\n' {
				sawNewline = true
			}
			l.advance()
		case c == '/' && l.peekAt(1) == '/':
			for !l.atEOF() && l.peek() != '\n' {
				l.advance()
			}
		case c == '/' && l.peekAt(1) == '*':
			l.advance()
			l.advance()
			for !l.atEOF() && !(l.peek() == '*' && l.peekAt(1) == '/') {
				l.advance()
			}
			if !l.atEOF() {
				l.advance()
				l.advance()
			}
		default:
			return sawNewline
		}
	}
	return sawNewline
}

// scanDirective handles a line beginning with '#'. Only #define is
// tokenized into Define + expression tokens + Newline; every other
// directive (#include, #pragma, #ifdef, ...) is skipped with a
// warning.
func (l *Lexer) scanDirective() ([]Token, error) {
	line, col := l.line, l.col
	l.advance() // '#'
	for l.peek() == ' ' || l.peek() == '\t' {
		l.advance()
	}
	name := l.readBareIdent()

	if name != "define" {
		// Skip to end of logical line (honoring backslash continuation).
		for !l.atEOF() {
			if l.peek() == '\\' && l.peekAt(1) == '\n' {
				l.advance()
				l.advance()
				continue
			}
			if l.peek() == '\n' {
				break
			}
			l.advance()
		}
		l.warn("ignoring unsupported preprocessor directive %q at line %d", name, line)
		return nil, nil
	}

	for l.peek() == ' ' || l.peek() == '\t' {
		l.advance()
	}
	macroLine, macroCol := l.line, l.col
	macroName := l.readBareIdent()
	if macroName == "" {
		return nil, cerrors.New(cerrors.ParseError, "expected macro name after #define").AtPos(macroLine, macroCol)
	}

	toks := []Token{{Kind: Define, Text: macroName, Line: line, Col: col}}
	for {
		for l.peek() == ' ' || l.peek() == '\t' {
			l.advance()
		}
		if l.peek() == '\\' && l.peekAt(1) == '\n' {
			l.advance()
			l.advance()
			continue
		}
		if l.atEOF() || l.peek() == '\n' {
			break
		}
		tl, tc := l.line, l.col
		c := l.peek()
		switch {
		case isIdentStart(c):
			toks = append(toks, l.scanIdent(tl, tc))
		case isDigit(c):
			t, err := l.scanNumber(tl, tc)
			if err != nil {
				return nil, err
			}
			toks = append(toks, t)
		case c == '\'':
			t, err := l.scanChar(tl, tc)
			if err != nil {
				return nil, err
			}
			toks = append(toks, t)
		case c == '/' && l.peekAt(1) == '/':
			for !l.atEOF() && l.peek() != '\n' {
				l.advance()
			}
			continue
		default:
			t, err := l.scanPunct(tl, tc)
			if err != nil {
				return nil, err
			}
			toks = append(toks, t)
		}
	}
	toks = append(toks, Token{Kind: Newline, Line: l.line, Col: l.col})
	return toks, nil
}

func (l *Lexer) readBareIdent() string {
	start := l.pos
	for !l.atEOF() && isIdentCont(l.peek()) {
		l.advance()
	}
	return l.src[start:l.pos]
}

func (l *Lexer) scanIdent(line, col int) Token {
	text := l.readBareIdent()
	// __attribute__((packed)) and similar GCC-isms are tolerated by the
	// parser, which recognizes the identifier and skips the parenthesized
	// argument list; the lexer just emits them as ordinary tokens.
	return Token{Kind: Ident, Text: text, Line: line, Col: col}
}

func (l *Lexer) scanNumber(line, col int) (Token, error) {
	start := l.pos
	if l.peek() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		l.advance()
		l.advance()
		for !l.atEOF() && isHexDigit(l.peek()) {
			l.advance()
		}
	} else if l.peek() == '0' && (l.peekAt(1) == 'b' || l.peekAt(1) == 'B') {
		l.advance()
		l.advance()
		for !l.atEOF() && (l.peek() == '0' || l.peek() == '1') {
			l.advance()
		}
	} else if l.peek() == '0' && (l.peekAt(1) == 'o' || l.peekAt(1) == 'O') {
		l.advance()
		l.advance()
		for !l.atEOF() && l.peek() >= '0' && l.peek() <= '7' {
			l.advance()
		}
	} else {
		for !l.atEOF() && isDigit(l.peek()) {
			l.advance()
		}
	}
	raw := l.src[start:l.pos]
	// Trailing integer suffixes (u, U, l, L, ul, ll, ...) are accepted
	// and discarded; they do not affect the parsed value.
	for !l.atEOF() && strings.ContainsRune("uUlL", rune(l.peek())) {
		l.advance()
	}
	val, err := parseIntLiteral(raw)
	if err != nil {
		return Token{}, cerrors.Wrap(cerrors.ParseError, err, "invalid integer literal %q", raw).AtPos(line, col)
	}
	return Token{Kind: Int, Text: raw, Int: val, Line: line, Col: col}, nil
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func (l *Lexer) scanChar(line, col int) (Token, error) {
	l.advance() // opening quote
	if l.atEOF() {
		return Token{}, cerrors.New(cerrors.ParseError, "unterminated character literal").AtPos(line, col)
	}
	var val int64
	if l.peek() == '\\' {
		l.advance()
		if l.atEOF() {
			return Token{}, cerrors.New(cerrors.ParseError, "unterminated character literal").AtPos(line, col)
		}
		val = int64(decodeEscape(l.advance()))
	} else {
		val = int64(l.advance())
	}
	if l.peek() != '\'' {
		return Token{}, cerrors.New(cerrors.ParseError, "character literal must be a single byte").AtPos(line, col)
	}
	l.advance() // closing quote
	return Token{Kind: Char, Int: val, Line: line, Col: col}, nil
}

func (l *Lexer) scanString(line, col int) (Token, error) {
	l.advance() // opening quote
	var sb strings.Builder
	for {
		if l.atEOF() {
			return Token{}, cerrors.New(cerrors.ParseError, "unterminated string literal").AtPos(line, col)
		}
		c := l.peek()
		if c == '"' {
			l.advance()
			break
		}
		if c == '\\' {
			l.advance()
			if l.atEOF() {
				return Token{}, cerrors.New(cerrors.ParseError, "unterminated string literal").AtPos(line, col)
			}
			sb.WriteByte(decodeEscape(l.advance()))
			continue
		}
		sb.WriteByte(l.advance())
	}
	return Token{Kind: Str, Text: sb.String(), Line: line, Col: col}, nil
}

func decodeEscape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	case '\\':
		return '\\'
	case '\'':
		return '\''
	case '"':
		return '"'
	default:
		return c
	}
}

func (l *Lexer) scanPunct(line, col int) (Token, error) {
	for _, p := range multiCharPuncts {
		if strings.HasPrefix(l.src[l.pos:], p) {
			for range p {
				l.advance()
			}
			return Token{Kind: Punct, Text: p, Line: line, Col: col}, nil
		}
	}
	c := l.peek()
	if strings.IndexByte(singleCharPuncts, c) >= 0 {
		l.advance()
		return Token{Kind: Punct, Text: string(c), Line: line, Col: col}, nil
	}
	return Token{}, cerrors.New(cerrors.ParseError, "unexpected character %q", c).AtPos(line, col)
}
