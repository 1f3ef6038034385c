package token

import "testing"

func TestKindStringKnown(t *testing.T) {
	cases := map[Kind]string{
		PLUS:     "+",
		DESIGNATE: "designate",
		ARROW:    "->",
		EOF:      "EOF",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Fatalf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}

func TestKindStringUnknownFallsBack(t *testing.T) {
	var k Kind = 9999
	if k.String() != "UNKNOWN" {
		t.Fatalf("expected UNKNOWN for an unmapped kind, got %q", k.String())
	}
}

func TestKeywordsMapsEverySpelling(t *testing.T) {
	for word, kind := range Keywords {
		if kind.String() != word {
			t.Fatalf("keyword %q maps to kind %v whose String() is %q, expected it to round-trip", word, kind, kind.String())
		}
	}
}

func TestTokenStringFormat(t *testing.T) {
	tok := Token{Kind: IDENT, Literal: "count", Pos: Position{Line: 1, Column: 1}}
	if tok.String() != "IDENT(count)" {
		t.Fatalf("unexpected Token.String(): %q", tok.String())
	}
}
