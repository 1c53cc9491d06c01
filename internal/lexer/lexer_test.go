package lexer

import (
	"testing"

	"lumen/internal/token"
)

func typesOf(tokens []token.Token) []token.Type {
	types := make([]token.Type, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func assertTypes(t *testing.T, tokens []token.Token, want []token.Type) {
	t.Helper()
	got := typesOf(tokens)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d tokens %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestScanNumber(t *testing.T) {
	tokens, err := Scan("test", "42 3.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertTypes(t, tokens, []token.Type{token.Num, token.Num, token.EOF})
	if tokens[0].Value.(float64) != 42 {
		t.Errorf("got %v, want 42", tokens[0].Value)
	}
	if tokens[1].Value.(float64) != 3.5 {
		t.Errorf("got %v, want 3.5", tokens[1].Value)
	}
}

func TestScanString(t *testing.T) {
	tokens, err := Scan("test", `"hello"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertTypes(t, tokens, []token.Type{token.String, token.EOF})
	if tokens[0].Value.(string) != "hello" {
		t.Errorf("got %q, want hello", tokens[0].Value)
	}
}

func TestScanInterpolation(t *testing.T) {
	tokens, err := Scan("test", `"a %(x) b"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// the segment up to "%(" carries type Interpolation (it's the head
	// of the chain); the tail segment after the matching ')' closes the
	// string literal and so carries plain String.
	assertTypes(t, tokens, []token.Type{
		token.Interpolation, token.Ident, token.String, token.EOF,
	})
	if tokens[0].Value.(string) != "a " {
		t.Errorf("got head segment %q, want %q", tokens[0].Value, "a ")
	}
	if tokens[2].Value.(string) != " b" {
		t.Errorf("got tail segment %q, want %q", tokens[2].Value, " b")
	}
}

func TestScanNestedInterpolation(t *testing.T) {
	tokens, err := Scan("test", `"a %(b + "%(c)")"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []token.Type{
		token.Interpolation, token.Ident, token.Plus, token.Interpolation,
		token.Ident, token.String, token.String, token.EOF,
	}
	assertTypes(t, tokens, want)
}

func TestScanIdentifiersAndKeywords(t *testing.T) {
	tokens, err := Scan("test", "var x = fun class true false null this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertTypes(t, tokens, []token.Type{
		token.Var, token.Ident, token.Equal, token.Fun, token.Class,
		token.True, token.False, token.Null, token.This, token.EOF,
	})
}

func TestScanOperatorsAndPunctuators(t *testing.T) {
	tokens, err := Scan("test", "+ - * / % == != <= >= && || .. . , : ; ( ) [ ] { }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []token.Type{
		token.Plus, token.Minus, token.Star, token.Slash, token.Percent,
		token.EqualEqual, token.BangEqual, token.LessEqual, token.GreaterEqual,
		token.AmpAmp, token.PipePipe, token.DotDot, token.Dot, token.Comma,
		token.Colon, token.Semicolon, token.LParen, token.RParen,
		token.LBracket, token.RBracket, token.LBrace, token.RBrace, token.EOF,
	}
	assertTypes(t, tokens, want)
}

func TestScanSkipsCommentsAndWhitespace(t *testing.T) {
	tokens, err := Scan("test", "// a comment\n42 // trailing\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertTypes(t, tokens, []token.Type{token.Num, token.EOF})
}

func TestScanEmptySourceIsJustEOF(t *testing.T) {
	tokens, err := Scan("test", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertTypes(t, tokens, []token.Type{token.EOF})
}

func TestScanUnterminatedStringIsLexError(t *testing.T) {
	_, err := Scan("test", `"unterminated`)
	if err == nil {
		t.Fatalf("expected an error scanning an unterminated string")
	}
}
