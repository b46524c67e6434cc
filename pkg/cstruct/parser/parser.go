package parser

import (
	"fmt"

	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cerrors"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/expr"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/token"
	"github.com/fox-it/dissect.cstruct/pkg/cstruct/types"
)

// Parse lexes and parses src against env, registering every
// declaration it contains. warn receives the lexer's non-fatal notices
// (an ignored #include or other unsupported directive); tolerated
// __attribute__/__packed__ annotations are skipped silently. Callers that need
// transactional "all or nothing" semantics pass a staging TypeEnv
// that only commits to the real registry after Parse returns nil.
func Parse(src string, env TypeEnv, warn token.WarnFunc) error {
	toks, err := token.New(src, warn).Tokens()
	if err != nil {
		return err
	}
	p := &parser{toks: toks, env: env, warn: warn, anonCounter: 0}
	return p.parseFile()
}

type parser struct {
	toks        []token.Token
	pos         int
	env         TypeEnv
	warn        token.WarnFunc
	anonCounter int
}

func (p *parser) peek() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *parser) peekAhead(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token.Token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) errf(at token.Token, format string, args ...any) error {
	return cerrors.New(cerrors.ParseError, format, args...).AtPos(at.Line, at.Col)
}

func (p *parser) expectPunct(text string) (token.Token, error) {
	t := p.peek()
	if t.Kind != token.Punct || t.Text != text {
		return t, p.errf(t, "expected %q, got %s", text, t)
	}
	return p.next(), nil
}

func (p *parser) isIdent(text string) bool {
	t := p.peek()
	return t.Kind == token.Ident && t.Text == text
}

func (p *parser) anonName(prefix string) string {
	p.anonCounter++
	return fmt.Sprintf("__anon_%s_%d", prefix, p.anonCounter)
}

func (p *parser) parseFile() error {
	for {
		t := p.peek()
		if t.Kind == token.EOF {
			return nil
		}
		if t.Kind == token.Define {
			if err := p.parseDefine(); err != nil {
				return err
			}
			continue
		}
		if t.Kind != token.Ident {
			return p.errf(t, "unexpected token %s at top level", t)
		}
		var err error
		switch t.Text {
		case "typedef":
			err = p.parseTypedef()
		case "struct":
			_, err = p.parseStructOrUnion(false, true)
		case "union":
			_, err = p.parseStructOrUnion(true, true)
		case "enum":
			_, err = p.parseEnumOrFlag(false, true)
		case "flag":
			_, err = p.parseEnumOrFlag(true, true)
		default:
			err = p.errf(t, "unexpected identifier %q at top level", t.Text)
		}
		if err != nil {
			return err
		}
		p.skipOptional(";")
	}
}

func (p *parser) skipOptional(punct string) {
	if t := p.peek(); t.Kind == token.Punct && t.Text == punct {
		p.next()
	}
}

// parseDefine consumes a Define token and its trailing expression
// tokens up to Newline, evaluates the expression, and registers it as
// a constant.
func (p *parser) parseDefine() error {
	def := p.next() // Define
	var exprToks []token.Token
	for p.peek().Kind != token.Newline && p.peek().Kind != token.EOF {
		exprToks = append(exprToks, p.next())
	}
	if p.peek().Kind == token.Newline {
		p.next()
	}
	if len(exprToks) == 0 {
		return p.errf(def, "#define %s has no value", def.Text)
	}
	v, err := expr.Eval(exprToks, p.env)
	if err != nil {
		return err
	}
	if err := p.env.DefineConst(def.Text, v); err != nil {
		return err
	}
	return nil
}

// skipAttributes tolerates GCC-style __attribute__((...)) / __packed__
// annotations appearing after a declaration.
func (p *parser) skipAttributes() {
	for p.isIdent("__attribute__") || p.isIdent("__packed__") {
		p.next()
		if t := p.peek(); t.Kind == token.Punct && t.Text == "(" {
			depth := 0
			for {
				t := p.next()
				if t.Kind == token.Punct && t.Text == "(" {
					depth++
				} else if t.Kind == token.Punct && t.Text == ")" {
					depth--
					if depth == 0 {
						break
					}
				} else if t.Kind == token.EOF {
					break
				}
			}
		}
	}
}

// --- typedef ---

func (p *parser) parseTypedef() error {
	p.next() // 'typedef'
	base, baseName, err := p.parseTypeSpec()
	if err != nil {
		return err
	}
	for {
		ptr := false
		for p.peek().Kind == token.Punct && p.peek().Text == "*" {
			p.next()
			ptr = true
		}
		nameTok := p.peek()
		if nameTok.Kind != token.Ident {
			return p.errf(nameTok, "expected typedef name")
		}
		p.next()

		var target types.Type
		if ptr {
			target = types.NewPointerType(nameTok.Text, baseName, p.env.PointerSize(), p.env.Endianness())
		} else {
			if base == nil {
				return cerrors.New(cerrors.UnknownType, "reference to undeclared type %q", baseName).AtPos(nameTok.Line, nameTok.Col)
			}
			target = base
		}
		target, err = p.parseArraySuffixes(target, nameTok.Text)
		if err != nil {
			return err
		}
		alias := types.NewTypedefType(nameTok.Text, target)
		if err := p.env.Define(nameTok.Text, alias); err != nil {
			return err
		}
		if t := p.peek(); t.Kind == token.Punct && t.Text == "," {
			p.next()
			continue
		}
		break
	}
	p.skipAttributes()
	return p.expectSemi()
}

func (p *parser) expectSemi() error {
	if t := p.peek(); t.Kind == token.Punct && t.Text == ";" {
		p.next()
		return nil
	}
	return nil // ';' is optional per grammar summary
}

// parseArraySuffixes wraps elem in zero or more ArrayType layers
// according to trailing '[' ... ']' declarator suffixes.
func (p *parser) parseArraySuffixes(elem types.Type, declName string) (types.Type, error) {
	result := elem
	for p.peek().Kind == token.Punct && p.peek().Text == "[" {
		p.next()
		if p.peek().Kind == token.Punct && p.peek().Text == "]" {
			p.next()
			result = types.NewSentinelArrayType(declName, result)
			continue
		}
		if p.isIdent("NULL") || p.isIdent("none") {
			p.next()
			if _, err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			result = types.NewSentinelArrayType(declName, result)
			continue
		}
		exprToks, err := p.collectUntil("]")
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct("]"); err != nil {
			return nil, err
		}
		if n, ok := tryConstEval(exprToks, p.env); ok {
			result = types.NewFixedArrayType(declName, result, int(n))
		} else {
			result = types.NewExprArrayType(declName, result, expr.Compiled(exprToks))
		}
	}
	return result, nil
}

// tryConstEval evaluates toks if it contains no sibling-field
// identifiers the env can't already resolve (i.e. it is foldable at
// parse time); returns ok=false if evaluation fails, in which case
// the caller keeps it as a deferred per-read expression instead.
func tryConstEval(toks []token.Token, env TypeEnv) (int64, bool) {
	v, err := expr.Eval(toks, env)
	if err != nil {
		return 0, false
	}
	return v, true
}

// collectUntil gathers tokens up to (not including) a punctuation
// token matching close, honoring nested brackets/parens of the same
// kind.
func (p *parser) collectUntil(close string) ([]token.Token, error) {
	var open string
	switch close {
	case "]":
		open = "["
	case ")":
		open = "("
	}
	depth := 0
	var out []token.Token
	for {
		t := p.peek()
		if t.Kind == token.EOF {
			return nil, p.errf(t, "unexpected end of input, expected %q", close)
		}
		if t.Kind == token.Punct && t.Text == open {
			depth++
		}
		if t.Kind == token.Punct && t.Text == close {
			if depth == 0 {
				return out, nil
			}
			depth--
		}
		out = append(out, p.next())
	}
}

// --- struct / union ---

func (p *parser) parseStructOrUnion(isUnion, topLevel bool) (types.Type, error) {
	p.next() // 'struct' | 'union'
	name := ""
	if p.peek().Kind == token.Ident {
		name = p.next().Text
	}

	if !(p.peek().Kind == token.Punct && p.peek().Text == "{") {
		// Forward declaration or bare reference: "struct Foo;" or a
		// field type reference to an already (or not yet) defined type.
		if name == "" {
			return nil, p.errf(p.peek(), "anonymous struct/union requires a body")
		}
		if existing, ok := p.env.Resolve(name); ok {
			return existing, nil
		}
		stub := types.NewStructType(name, nil)
		if isUnion {
			stub = types.NewStructType(name, nil) // unions forward-declare the same way; body fills in later
		}
		if err := p.env.Define(name, stub); err != nil {
			return nil, err
		}
		return stub, nil
	}

	p.next() // '{'
	var fields []types.Field
	for !(p.peek().Kind == token.Punct && p.peek().Text == "}") {
		fs, err := p.parseFieldDecl()
		if err != nil {
			return nil, err
		}
		fields = append(fields, fs...)
	}
	p.next() // '}'

	// Optional trailing declarator: "struct { ... } name;" names the
	// struct/union itself (common for a named top-level type whose
	// keyword-name was omitted), separate from a *field* use which is
	// handled by the caller (parseFieldDecl) for anonymous members.
	declName := name
	if declName == "" && topLevel && p.peek().Kind == token.Ident {
		declName = p.next().Text
	}
	if declName == "" {
		declName = p.anonName(kindWord(isUnion))
	}

	var result types.Type
	if isUnion {
		result = types.NewUnionType(declName, fields)
	} else {
		result = types.NewStructType(declName, fields)
	}
	if name != "" || topLevel {
		if err := p.env.Define(declName, result); err != nil {
			return nil, err
		}
	}
	p.skipAttributes()
	return result, nil
}

func kindWord(isUnion bool) string {
	if isUnion {
		return "union"
	}
	return "struct"
}

// parseFieldDecl parses one "type declarator (':' expr)? ';'" field,
// including the special case of an inline anonymous struct/union
// member (no base type keyword precedes '{').
func (p *parser) parseFieldDecl() ([]types.Field, error) {
	t := p.peek()

	if t.Kind == token.Ident && (t.Text == "struct" || t.Text == "union") {
		isUnion := t.Text == "union"
		// Peek past an optional name to see whether a body follows;
		// if so this is a nested (possibly anonymous) composite field.
		save := p.pos
		p.next()
		hasName := p.peek().Kind == token.Ident
		if hasName {
			p.next()
		}
		hasBody := p.peek().Kind == token.Punct && p.peek().Text == "{"
		p.pos = save
		if hasBody {
			inner, err := p.parseStructOrUnion(isUnion, false)
			if err != nil {
				return nil, err
			}
			// A trailing declarator name after the body makes this a
			// named member; none makes it anonymous (promoted).
			if p.peek().Kind == token.Ident {
				fieldName := p.next().Text
				ft, err := p.parseArraySuffixes(inner, fieldName)
				if err != nil {
					return nil, err
				}
				p.skipAttributes()
				if err := p.expectSemi(); err != nil {
					return nil, err
				}
				return []types.Field{{Name: fieldName, Type: ft}}, nil
			}
			p.skipAttributes()
			if err := p.expectSemi(); err != nil {
				return nil, err
			}
			return []types.Field{{Anonymous: true, Type: inner}}, nil
		}
	}

	base, baseName, err := p.parseTypeSpec()
	if err != nil {
		return nil, err
	}

	var out []types.Field
	for {
		ptr := false
		for p.peek().Kind == token.Punct && p.peek().Text == "*" {
			p.next()
			ptr = true
		}
		nameTok := p.peek()
		if nameTok.Kind != token.Ident {
			return nil, p.errf(nameTok, "expected field name")
		}
		p.next()

		var ft types.Type
		if ptr {
			ft = types.NewPointerType(nameTok.Text, baseName, p.env.PointerSize(), p.env.Endianness())
		} else {
			if base == nil {
				return nil, cerrors.New(cerrors.UnknownType, "reference to undeclared type %q", baseName).AtPos(nameTok.Line, nameTok.Col)
			}
			ft = base
		}

		if p.peek().Kind == token.Punct && p.peek().Text == ":" {
			p.next()
			widthToks, err := p.collectUntilAny(";", ",")
			if err != nil {
				return nil, err
			}
			n, err := expr.Eval(widthToks, p.env)
			if err != nil {
				return nil, err
			}
			width := int(n)
			out = append(out, types.Field{Name: nameTok.Text, Type: ft, BitWidth: &width})
		} else {
			ft, err = p.parseArraySuffixes(ft, nameTok.Text)
			if err != nil {
				return nil, err
			}
			out = append(out, types.Field{Name: nameTok.Text, Type: ft})
		}

		if t := p.peek(); t.Kind == token.Punct && t.Text == "," {
			p.next()
			continue
		}
		break
	}
	p.skipAttributes()
	if err := p.expectSemi(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *parser) collectUntilAny(closers ...string) ([]token.Token, error) {
	var out []token.Token
	for {
		t := p.peek()
		if t.Kind == token.EOF {
			return nil, p.errf(t, "unexpected end of input")
		}
		for _, c := range closers {
			if t.Kind == token.Punct && t.Text == c {
				return out, nil
			}
		}
		out = append(out, p.next())
	}
}

// --- enum / flag ---

func (p *parser) parseEnumOrFlag(isFlag bool, topLevel bool) (types.Type, error) {
	p.next() // 'enum' | 'flag'
	name := ""
	if p.peek().Kind == token.Ident {
		name = p.next().Text
	}

	baseType := (*types.IntegerType)(nil)
	if p.peek().Kind == token.Punct && p.peek().Text == ":" {
		p.next()
		bt, _, err := p.parseTypeSpec()
		if err != nil {
			return nil, err
		}
		it, ok := bt.(*types.IntegerType)
		if !ok {
			return nil, p.errf(p.peek(), "enum/flag base type must be an integer type")
		}
		baseType = it
	} else {
		bt, _ := p.env.Resolve("uint32")
		baseType = bt.(*types.IntegerType)
	}

	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var members []types.EnumMember
	next := int64(0)
	for !(p.peek().Kind == token.Punct && p.peek().Text == "}") {
		mt := p.peek()
		if mt.Kind != token.Ident {
			return nil, p.errf(mt, "expected member name")
		}
		p.next()
		val := next
		if p.peek().Kind == token.Punct && p.peek().Text == "=" {
			p.next()
			toks, err := p.collectUntilAny(",", "}")
			if err != nil {
				return nil, err
			}
			v, err := expr.Eval(toks, &memberEnv{TypeEnv: p.env, members: members})
			if err != nil {
				return nil, err
			}
			val = v
		}
		members = append(members, types.EnumMember{Name: mt.Text, Value: val})
		next = val + 1
		if t := p.peek(); t.Kind == token.Punct && t.Text == "," {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}

	declName := name
	if declName == "" && p.peek().Kind == token.Ident {
		declName = p.next().Text
	}
	if declName == "" {
		declName = p.anonName("enum")
	}

	var result types.Type
	if isFlag {
		result = types.NewFlagType(declName, baseType, members)
	} else {
		result = types.NewEnumType(declName, baseType, members)
	}
	if err := p.env.Define(declName, result); err != nil {
		return nil, err
	}
	p.skipAttributes()
	return result, nil
}

// memberEnv lets an enum member's value expression reference
// previously declared members of the same enum, in addition to
// whatever the outer environment already provides.
type memberEnv struct {
	TypeEnv
	members []types.EnumMember
}

func (m *memberEnv) LookupConst(name string) (int64, bool) {
	for _, mm := range m.members {
		if mm.Name == name {
			return mm.Value, true
		}
	}
	return m.TypeEnv.LookupConst(name)
}

// --- type specifiers ---

// parseTypeSpec parses a base type reference: a primitive keyword
// (optionally qualified by unsigned/signed), a named type, or an
// inline struct/union/enum/flag. It returns the resolved Type and the
// name to use as a pointer target if a '*' follows.
func (p *parser) parseTypeSpec() (types.Type, string, error) {
	t := p.peek()
	if t.Kind != token.Ident {
		return nil, "", p.errf(t, "expected a type")
	}

	signed := true
	if t.Text == "unsigned" || t.Text == "signed" {
		signed = t.Text != "unsigned"
		p.next()
		t = p.peek()
	}

	switch t.Text {
	case "struct":
		ty, err := p.parseStructOrUnion(false, false)
		if err != nil {
			return nil, "", err
		}
		return ty, ty.Name(), nil
	case "union":
		ty, err := p.parseStructOrUnion(true, false)
		if err != nil {
			return nil, "", err
		}
		return ty, ty.Name(), nil
	case "enum":
		ty, err := p.parseEnumOrFlag(false, false)
		if err != nil {
			return nil, "", err
		}
		return ty, ty.Name(), nil
	case "flag":
		ty, err := p.parseEnumOrFlag(true, false)
		if err != nil {
			return nil, "", err
		}
		return ty, ty.Name(), nil
	}

	if bits, ok := primitiveBits[t.Text]; ok {
		p.next()
		name := t.Text
		if name == "int" || name == "uint" {
			name = signPrefixedName(signed, bits)
		}
		if sgn, hasSign := primitiveSigned[t.Text]; hasSign {
			signed = sgn
		}
		ty, ok := p.env.Resolve(signPrefixedName(signed, bits))
		if ok {
			return ty, ty.Name(), nil
		}
		return types.NewIntegerType(name, bits, signed, p.env.Endianness()), name, nil
	}

	switch t.Text {
	case "char", "wchar", "float16", "float", "double", "leb128", "uleb128", "void":
		p.next()
		if ty, ok := p.env.Resolve(t.Text); ok {
			return ty, t.Text, nil
		}
		return nil, "", p.errf(t, "primitive type %q is not registered", t.Text)
	}

	// Named type reference (typedef, enum, struct, or forward decl). An
	// unresolved name is not immediately an error: a pointer declarator
	// ("Node *next;" inside struct Node itself) only ever needs the
	// name, never the concrete Type, so resolution failure is deferred
	// to the caller -- which must raise UnknownType itself if the name
	// turns out to be used by value rather than behind a pointer.
	p.next()
	ty, _ := p.env.Resolve(t.Text)
	return ty, t.Text, nil
}

func signPrefixedName(signed bool, bits int) string {
	if signed {
		return fmt.Sprintf("int%d", bits)
	}
	return fmt.Sprintf("uint%d", bits)
}

// primitiveBits maps a bare width keyword to its bit width; "int"/
// "uint" alone default to 32 bits, consistent with the enum base
// type default.
var primitiveBits = map[string]int{
	"int8": 8, "uint8": 8,
	"int16": 16, "uint16": 16,
	"int24": 24, "uint24": 24,
	"int32": 32, "uint32": 32,
	"int40": 40, "uint40": 40,
	"int48": 48, "uint48": 48,
	"int56": 56, "uint56": 56,
	"int64": 64, "uint64": 64,
	"int": 32, "uint": 32,
}

// primitiveSigned overrides the ambient "unsigned"/"signed" qualifier
// for keywords whose sign is part of the name itself.
var primitiveSigned = map[string]bool{
	"int8": true, "uint8": false,
	"int16": true, "uint16": false,
	"int24": true, "uint24": false,
	"int32": true, "uint32": false,
	"int40": true, "uint40": false,
	"int48": true, "uint48": false,
	"int56": true, "uint56": false,
	"int64": true, "uint64": false,
	"uint": false,
}
