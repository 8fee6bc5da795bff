// Package token defines the lexical token kinds produced by internal/lexer
// and consumed by internal/parser.
package token

import (
	"fmt"

	"github.com/loomlang/loom/internal/span"
)

// Kind identifies the lexical class of a Token.
type Kind int

const (
	// Single-character punctuation.
	LeftParen Kind = iota
	RightParen
	LeftBrace
	RightBrace
	LeftSquare
	RightSquare
	Comma
	Dot
	Minus
	Plus
	Slash
	Star
	Semicolon

	// One- or two-character punctuation, disambiguated by a single
	// character of lookahead.
	LessThan
	GreaterThan
	LessThanEq
	GreaterThanEq
	EqEq
	Colon
	Assign
	Bang
	BangEq

	// Literals.
	Identifier
	Char
	Number
	Bool

	// Keywords. For is tokenized but has no grammar production: the
	// parser rejects it wherever a statement is expected.
	Let
	If
	For
	While
	Yield

	EOF
)

var kindNames = map[Kind]string{
	LeftParen: "(", RightParen: ")", LeftBrace: "{", RightBrace: "}",
	LeftSquare: "[", RightSquare: "]", Comma: ",", Dot: ".",
	Minus: "-", Plus: "+", Slash: "/", Star: "*", Semicolon: ";",
	LessThan: "<", GreaterThan: ">", LessThanEq: "<=", GreaterThanEq: ">=",
	EqEq: "==", Colon: ":", Assign: ":=", Bang: "!", BangEq: "!=",
	Identifier: "identifier", Char: "character", Number: "number", Bool: "boolean",
	Let: "let", If: "if", For: "for", While: "while", Yield: "yield",
	EOF: "EOF",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Keywords maps source spellings to their keyword Kind. true/false are
// handled separately since they lower to Bool literals, not their own kind.
var Keywords = map[string]Kind{
	"let":   Let,
	"if":    If,
	"for":   For,
	"while": While,
	"yield": Yield,
}

// Token is a single lexical unit: a kind, its source span, and (for
// literal/identifier kinds) the decoded payload.
type Token struct {
	Kind Kind
	Span span.Span

	Name string // set when Kind == Identifier
	Ch   rune   // set when Kind == Char
	Num  uint64 // set when Kind == Number
	Bool bool   // set when Kind == Bool
}

// New builds a punctuation/keyword/EOF token with no literal payload.
func New(kind Kind, sp span.Span) Token {
	return Token{Kind: kind, Span: sp}
}

// NewIdentifier builds an Identifier token carrying its source name.
func NewIdentifier(name string, sp span.Span) Token {
	return Token{Kind: Identifier, Span: sp, Name: name}
}

// NewChar builds a Char literal token.
func NewChar(ch rune, sp span.Span) Token {
	return Token{Kind: Char, Span: sp, Ch: ch}
}

// NewNumber builds a Number literal token.
func NewNumber(n uint64, sp span.Span) Token {
	return Token{Kind: Number, Span: sp, Num: n}
}

// NewBool builds a Bool literal token.
func NewBool(b bool, sp span.Span) Token {
	return Token{Kind: Bool, Span: sp, Bool: b}
}

func (t Token) String() string {
	switch t.Kind {
	case Identifier:
		return fmt.Sprintf("Identifier(%q)", t.Name)
	case Char:
		return fmt.Sprintf("Char(%q)", t.Ch)
	case Number:
		return fmt.Sprintf("Number(%d)", t.Num)
	case Bool:
		return fmt.Sprintf("Bool(%t)", t.Bool)
	default:
		return t.Kind.String()
	}
}
