package lexer

import (
	"errors"
	"testing"

	"github.com/loomlang/loom/internal/diagnostic"
	"github.com/loomlang/loom/internal/token"
)

func kinds(t *testing.T, src string) []token.Kind {
	t.Helper()
	toks, err := Run(src)
	if err != nil {
		t.Fatalf("lexing %q: %v", src, err)
	}
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func assertKinds(t *testing.T, got []token.Kind, want []token.Kind) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: got=%v want=%v", len(got), len(want), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestKeywords(t *testing.T) {
	for kw, want := range map[string]token.Kind{
		"true": token.Bool, "false": token.Bool, "let": token.Let,
		"if": token.If, "for": token.For, "while": token.While, "yield": token.Yield,
	} {
		toks, err := Run(kw)
		if err != nil {
			t.Fatalf("lexing %q: %v", kw, err)
		}
		if toks[0].Kind != want {
			t.Fatalf("keyword %q: got %v, want %v", kw, toks[0].Kind, want)
		}
	}
}

func TestSimpleIf(t *testing.T) {
	got := kinds(t, "if (my_var < 3) { 42 }")
	want := []token.Kind{
		token.If, token.LeftParen, token.Identifier, token.LessThan, token.Number,
		token.RightParen, token.LeftBrace, token.Number, token.RightBrace, token.EOF,
	}
	assertKinds(t, got, want)
}

func TestMultilineIf(t *testing.T) {
	got := kinds(t, "let my_var := 2;\nif (my_var < 3) {\n\t42\n}")
	want := []token.Kind{
		token.Let, token.Identifier, token.Assign, token.Number, token.Semicolon,
		token.If, token.LeftParen, token.Identifier, token.LessThan, token.Number,
		token.RightParen, token.LeftBrace, token.Number, token.RightBrace, token.EOF,
	}
	assertKinds(t, got, want)
}

func TestTwoCharLookahead(t *testing.T) {
	got := kinds(t, "!= == <= >= := ! < > :")
	want := []token.Kind{
		token.BangEq, token.EqEq, token.LessThanEq, token.GreaterThanEq, token.Assign,
		token.Bang, token.LessThan, token.GreaterThan, token.Colon, token.EOF,
	}
	assertKinds(t, got, want)
}

func TestCharLiteralWithEscape(t *testing.T) {
	toks, err := Run(`'\n'`)
	if err != nil {
		t.Fatalf("lexing char literal: %v", err)
	}
	if toks[0].Kind != token.Char || toks[0].Ch != '\n' {
		t.Fatalf("got %v, want Char('\\n')", toks[0])
	}
}

func TestInvalidLexemeHasSpan(t *testing.T) {
	_, err := Run("let x := @;")
	if err == nil {
		t.Fatal("expected an error for `@`")
	}
	var lexErr *diagnostic.LexError
	if !errors.As(err, &lexErr) {
		t.Fatalf("expected a *diagnostic.LexError, got %T", err)
	}
	if lexErr.Span.Lo() != 9 || lexErr.Span.Hi() != 10 {
		t.Fatalf("expected the error span to cover `@` at (9, 10), got %s", lexErr.Span)
	}
}

func TestBareEqualsIsInvalid(t *testing.T) {
	_, err := Run("x = 3")
	if err == nil {
		t.Fatal("expected an error for bare `=`")
	}
}
