package lexer

import (
	"testing"

	"github.com/kei-lang/kei/pkg/token"
)

func kindsOf(t *testing.T, src string) []token.Kind {
	t.Helper()
	toks, err := Tokenize(src)
	if err != nil {
		t.Fatalf("unexpected lex error for %q: %v", src, err)
	}
	kinds := make([]token.Kind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	return kinds
}

func assertKinds(t *testing.T, got []token.Kind, want ...token.Kind) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d tokens %v, got %d %v", len(want), want, len(got), got)
	}
	for i, k := range want {
		if got[i] != k {
			t.Fatalf("token %d: expected %v, got %v (full: %v)", i, k, got[i], got)
		}
	}
}

func TestTokenizeSimpleAssignment(t *testing.T) {
	got := kindsOf(t, "designate count = 1\n")
	assertKinds(t, got,
		token.DESIGNATE, token.IDENT, token.ASSIGN, token.INTEGER, token.NEWLINE, token.EOF)
}

func TestTokenizeOperators(t *testing.T) {
	got := kindsOf(t, "a == b and c != d\n")
	assertKinds(t, got,
		token.IDENT, token.EQ, token.IDENT, token.AND, token.IDENT, token.NEQ, token.IDENT,
		token.NEWLINE, token.EOF)
}

func TestTokenizeIndentationProducesIndentDedent(t *testing.T) {
	src := "foresee true:\n    1\notherwise:\n    2\n"
	toks, err := Tokenize(src)
	if err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}
	var sawIndent, sawDedent bool
	for _, tok := range toks {
		if tok.Kind == token.INDENT {
			sawIndent = true
		}
		if tok.Kind == token.DEDENT {
			sawDedent = true
		}
	}
	if !sawIndent || !sawDedent {
		t.Fatalf("expected both INDENT and DEDENT tokens in %v", toks)
	}
}

func TestTokenizeStringLiteral(t *testing.T) {
	got := kindsOf(t, `"hello"` + "\n")
	assertKinds(t, got, token.STRING, token.NEWLINE, token.EOF)
}

func TestTokenizeFloatLiteral(t *testing.T) {
	toks, err := Tokenize("3.14\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != token.FLOAT || toks[0].Literal != "3.14" {
		t.Fatalf("expected FLOAT(3.14), got %v", toks[0])
	}
}

func TestTokenizeKeywordNotIdentifier(t *testing.T) {
	got := kindsOf(t, "return\n")
	assertKinds(t, got, token.RETURN, token.NEWLINE, token.EOF)
}

func TestTokenizeEndsWithEOF(t *testing.T) {
	toks, err := Tokenize("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
		t.Fatalf("expected the token stream to end with EOF, got %v", toks)
	}
}

func TestTokenizeFloorDivisionIsDistinctFromSlash(t *testing.T) {
	got := kindsOf(t, "7 // 2\n7 / 2\n")
	assertKinds(t, got,
		token.INTEGER, token.DSLASH, token.INTEGER, token.NEWLINE,
		token.INTEGER, token.SLASH, token.INTEGER, token.NEWLINE,
		token.EOF)
}

func TestTokenizeSingleQuoteStringLiteral(t *testing.T) {
	toks, err := Tokenize("'hello'\n")
	if err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}
	if toks[0].Kind != token.STRING || toks[0].Literal != "hello" {
		t.Fatalf("expected STRING(hello), got %v", toks[0])
	}
}

func TestTokenizeSingleQuoteStringWithEscapedQuote(t *testing.T) {
	toks, err := Tokenize(`'it\'s'` + "\n")
	if err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}
	if toks[0].Kind != token.STRING || toks[0].Literal != "it's" {
		t.Fatalf("expected STRING(it's), got %v", toks[0])
	}
}

func TestTokenizeDoubleQuoteCanContainUnescapedSingleQuote(t *testing.T) {
	toks, err := Tokenize(`"it's fine"` + "\n")
	if err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}
	if toks[0].Kind != token.STRING || toks[0].Literal != "it's fine" {
		t.Fatalf("expected STRING(it's fine), got %v", toks[0])
	}
}

func TestTokenizePowerIsDistinctFromStar(t *testing.T) {
	got := kindsOf(t, "2 ** 3\n2 * 3\n")
	assertKinds(t, got,
		token.INTEGER, token.DSTAR, token.INTEGER, token.NEWLINE,
		token.INTEGER, token.STAR, token.INTEGER, token.NEWLINE,
		token.EOF)
}

func TestTokenizeWalrusAssignIsDistinctFromColon(t *testing.T) {
	got := kindsOf(t, "g := 1\nforesee true:\n    1\n")
	assertKinds(t, got,
		token.IDENT, token.DEFINE, token.INTEGER, token.NEWLINE,
		token.FORESEE, token.TRUE, token.COLON, token.NEWLINE,
		token.INDENT, token.INTEGER, token.NEWLINE, token.DEDENT, token.EOF)
}

func TestTokenizeForAndWhereKeywords(t *testing.T) {
	got := kindsOf(t, "for where\n")
	assertKinds(t, got, token.FOR, token.WHERE, token.NEWLINE, token.EOF)
}

func TestTokenizeExclusiveAndInclusiveRange(t *testing.T) {
	got := kindsOf(t, "1..5\n1...5\n")
	assertKinds(t, got,
		token.INTEGER, token.DOTDOT, token.INTEGER, token.NEWLINE,
		token.INTEGER, token.ELLIPSIS, token.INTEGER, token.NEWLINE,
		token.EOF)
}
