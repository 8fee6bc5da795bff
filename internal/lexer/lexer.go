// Package lexer converts Loom source text into a flat, span-tagged token
// stream terminated by a single end-of-input token.
package lexer

import (
	"strconv"
	"unicode"

	"github.com/loomlang/loom/internal/diagnostic"
	"github.com/loomlang/loom/internal/span"
	"github.com/loomlang/loom/internal/token"
)

// twoCharPunct is the set of characters that may begin either a one- or
// two-character token, resolved by peeking one further byte for `=`.
var twoCharPunct = map[byte]struct {
	one, two    token.Kind
	oneIsValid bool
}{
	'!': {token.Bang, token.BangEq, true},
	'<': {token.LessThan, token.LessThanEq, true},
	'>': {token.GreaterThan, token.GreaterThanEq, true},
	':': {token.Colon, token.Assign, true},
	'=': {0, token.EqEq, false}, // '=' alone is not a valid token; only '==' is.
}

var singleCharPunct = map[byte]token.Kind{
	'(': token.LeftParen, ')': token.RightParen,
	'{': token.LeftBrace, '}': token.RightBrace,
	'[': token.LeftSquare, ']': token.RightSquare,
	',': token.Comma, '.': token.Dot,
	'-': token.Minus, '+': token.Plus,
	'*': token.Star, ';': token.Semicolon,
	'/': token.Slash,
}

// Lexer is a cursor-based single-pass scanner over a source string.
type Lexer struct {
	src   string
	index int
}

// New returns a Lexer positioned at the start of src.
func New(src string) *Lexer {
	return &Lexer{src: src}
}

// Run tokenizes the entire source, returning a slice terminated by a single
// EOF token, or the first lexical error encountered.
func Run(src string) ([]token.Token, error) {
	l := New(src)
	var out []token.Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out, nil
		}
	}
}

func (l *Lexer) peek() (byte, bool) {
	if l.index >= len(l.src) {
		return 0, false
	}
	return l.src[l.index], true
}

func (l *Lexer) peekAt(offset int) (byte, bool) {
	idx := l.index + offset
	if idx >= len(l.src) {
		return 0, false
	}
	return l.src[idx], true
}

func (l *Lexer) advance() byte {
	b := l.src[l.index]
	l.index++
	return b
}

func (l *Lexer) skipSpaces() {
	for {
		b, ok := l.peek()
		if !ok || (b != ' ' && b != '\t' && b != '\n' && b != '\r') {
			return
		}
		l.advance()
	}
}

func isIdentStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentCont(b byte) bool {
	return b == '_' || isIdentStart(b) || (b >= '0' && b <= '9')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// next scans and returns the next token, advancing the cursor past it. Once
// the source is exhausted, every subsequent call returns an EOF token at the
// end offset (each with a freshly allocated span id).
func (l *Lexer) next() (token.Token, error) {
	l.skipSpaces()

	start := l.index
	b, ok := l.peek()
	if !ok {
		return token.New(token.EOF, span.New(start, start)), nil
	}

	switch {
	case b == '\'':
		return l.lexChar(start)
	case isDigit(b):
		return l.lexNumber(start)
	case isIdentStart(b):
		return l.lexIdentOrKeyword(start)
	}

	if kind, found := singleCharPunct[b]; found {
		l.advance()
		return token.New(kind, span.New(start, l.index)), nil
	}

	if pair, found := twoCharPunct[b]; found {
		l.advance()
		if next, ok := l.peek(); ok && next == '=' {
			l.advance()
			return token.New(pair.two, span.New(start, l.index)), nil
		}
		if !pair.oneIsValid {
			return token.Token{}, &diagnostic.LexError{
				Kind:    diagnostic.InvalidLexeme,
				Span:    span.New(start, l.index),
				Literal: string(b),
			}
		}
		return token.New(pair.one, span.New(start, l.index)), nil
	}

	l.advance()
	return token.Token{}, &diagnostic.LexError{
		Kind:    diagnostic.InvalidLexeme,
		Span:    span.New(start, l.index),
		Literal: string(b),
	}
}

// lexChar parses a 'c' character literal with standard escape handling
// (\n, \t, \r, \\, \', \0).
func (l *Lexer) lexChar(start int) (token.Token, error) {
	l.advance() // opening quote

	b, ok := l.peek()
	if !ok {
		return token.Token{}, &diagnostic.LexError{
			Kind: diagnostic.InvalidCharacterLiteral, Span: span.New(start, l.index), Literal: "'",
		}
	}

	var ch rune
	if b == '\\' {
		l.advance()
		esc, ok := l.peek()
		if !ok {
			return token.Token{}, &diagnostic.LexError{
				Kind: diagnostic.InvalidCharacterLiteral, Span: span.New(start, l.index), Literal: "\\",
			}
		}
		l.advance()
		switch esc {
		case 'n':
			ch = '\n'
		case 't':
			ch = '\t'
		case 'r':
			ch = '\r'
		case '0':
			ch = 0
		case '\\':
			ch = '\\'
		case '\'':
			ch = '\''
		default:
			return token.Token{}, &diagnostic.LexError{
				Kind: diagnostic.InvalidCharacterLiteral, Span: span.New(start, l.index), Literal: "\\" + string(esc),
			}
		}
	} else {
		ch = rune(l.advance())
	}

	closing, ok := l.peek()
	if !ok || closing != '\'' {
		return token.Token{}, &diagnostic.LexError{
			Kind: diagnostic.InvalidCharacterLiteral, Span: span.New(start, l.index), Literal: l.src[start:l.index],
		}
	}
	l.advance()

	return token.NewChar(ch, span.New(start, l.index)), nil
}

func (l *Lexer) lexNumber(start int) (token.Token, error) {
	for {
		b, ok := l.peek()
		if !ok || !isDigit(b) {
			break
		}
		l.advance()
	}

	text := l.src[start:l.index]
	n, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return token.Token{}, &diagnostic.LexError{
			Kind: diagnostic.InvalidIntegerLiteral, Span: span.New(start, l.index), Literal: text,
		}
	}
	return token.NewNumber(n, span.New(start, l.index)), nil
}

func (l *Lexer) lexIdentOrKeyword(start int) (token.Token, error) {
	for {
		b, ok := l.peek()
		if !ok || !isIdentCont(b) {
			break
		}
		l.advance()
	}

	name := l.src[start:l.index]
	sp := span.New(start, l.index)

	switch name {
	case "true":
		return token.NewBool(true, sp), nil
	case "false":
		return token.NewBool(false, sp), nil
	}
	if kind, ok := token.Keywords[name]; ok {
		return token.New(kind, sp), nil
	}

	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return token.Token{}, &diagnostic.LexError{
				Kind: diagnostic.InvalidIdentifier, Span: sp, Literal: name,
			}
		}
	}
	return token.NewIdentifier(name, sp), nil
}
