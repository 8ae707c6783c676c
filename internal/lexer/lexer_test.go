package lexer

import (
	"testing"

	"solar/internal/diag"
	"solar/internal/source"
	"solar/internal/token"
)

func lex(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.Add("test.sol", []byte(src))
	bag := diag.NewBag(16)
	lx := New(fs.Get(id), diag.BagReporter{Bag: bag})
	var out []token.Token
	for {
		tok := lx.Next()
		if tok.Kind == token.EOF {
			break
		}
		out = append(out, tok)
	}
	return out, bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexContractHeader(t *testing.T) {
	toks, bag := lex(t, "contract C is A, B { uint256 x; }")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Items())
	}
	want := []token.Kind{
		token.KwContract, token.Ident, token.KwIs, token.Ident, token.Comma,
		token.Ident, token.LBrace, token.Ident, token.Ident, token.Semicolon,
		token.RBrace,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
	// uint256 остаётся идентификатором
	if toks[7].Text != "uint256" {
		t.Fatalf("token 7 text = %q", toks[7].Text)
	}
}

func TestLexOperatorsGreedy(t *testing.T) {
	toks, bag := lex(t, "a <<= b ** c >= d != e => f")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Items())
	}
	want := []token.Kind{
		token.Ident, token.ShlAssign, token.Ident, token.StarStar, token.Ident,
		token.GtEq, token.Ident, token.BangEq, token.Ident, token.FatArrow, token.Ident,
	}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexNumbers(t *testing.T) {
	toks, bag := lex(t, "42 0x2a 1_000_000 1e18 2.5")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Items())
	}
	for i, tok := range toks {
		if tok.Kind != token.NumberLit {
			t.Fatalf("token %d = %v (%q), want NumberLit", i, tok.Kind, tok.Text)
		}
	}
	if toks[3].Text != "1e18" {
		t.Fatalf("exponent literal = %q", toks[3].Text)
	}
}

func TestLexNumberWithDenomination(t *testing.T) {
	toks, bag := lex(t, "1 ether 2wei")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Items())
	}
	want := []token.Kind{token.NumberLit, token.Ident, token.NumberLit, token.Ident}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexBadNumber(t *testing.T) {
	_, bag := lex(t, "0xZZ")
	if !bag.HasErrors() {
		t.Fatal("expected a lex error for 0xZZ")
	}
}

func TestLexStringsAndHex(t *testing.T) {
	toks, bag := lex(t, `"hi\n" hex"deadbeef" 'q'`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Items())
	}
	want := []token.Kind{token.StringLit, token.HexStringLit, token.StringLit}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexUnterminatedString(t *testing.T) {
	_, bag := lex(t, "\"oops\n")
	if !bag.HasErrors() {
		t.Fatal("expected unterminated string error")
	}
}

func TestLexCommentsSkipped(t *testing.T) {
	toks, bag := lex(t, "a // line\n/* block\n*/ b")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Items())
	}
	if len(toks) != 2 || toks[0].Text != "a" || toks[1].Text != "b" {
		t.Fatalf("tokens = %v", toks)
	}
}

func TestLexUnderscorePlaceholder(t *testing.T) {
	toks, _ := lex(t, "_; _x")
	if toks[0].Kind != token.Underscore {
		t.Fatalf("token 0 = %v", toks[0].Kind)
	}
	if toks[2].Kind != token.Ident || toks[2].Text != "_x" {
		t.Fatalf("token 2 = %v %q", toks[2].Kind, toks[2].Text)
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.Add("t.sol", []byte("contract"))
	lx := New(fs.Get(id), diag.NopReporter{})
	if lx.Peek().Kind != token.KwContract {
		t.Fatal("peek kind")
	}
	if lx.Next().Kind != token.KwContract {
		t.Fatal("next kind after peek")
	}
	if lx.Next().Kind != token.EOF {
		t.Fatal("eof")
	}
}
