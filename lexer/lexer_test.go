package lexer

import (
	"testing"

	"daedalus/token"
)

func scanAll(t *testing.T, src string) []token.Kind {
	t.Helper()
	l := New(0, []byte(src))
	var kinds []token.Kind
	for {
		tok, err := l.EatOne()
		if err != nil {
			t.Fatalf("EatOne: %v", err)
		}
		kinds = append(kinds, tok.Kind)
		if tok.Kind == token.EOF {
			return kinds
		}
	}
}

func assertKinds(t *testing.T, got []token.Kind, want []token.Kind) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestOperators(t *testing.T) {
	got := scanAll(t, "==/=*+>-<!=<=>=!")
	want := []token.Kind{
		token.EQ, token.DIV_ASSIGN, token.MUL, token.ADD,
		token.GT, token.SUB, token.LT, token.NEQ, token.LTE, token.GTE,
		token.BANG, token.EOF,
	}
	assertKinds(t, got, want)
}

func TestPunctuation(t *testing.T) {
	got := scanAll(t, "(){}[];,.+=-=")
	want := []token.Kind{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.LBRACKET, token.RBRACKET, token.SEMI, token.COMMA, token.DOT,
		token.ADD_ASSIGN, token.SUB_ASSIGN, token.EOF,
	}
	assertKinds(t, got, want)
}

func TestKeywordsAreCaseInsensitive(t *testing.T) {
	got := scanAll(t, "if IF If class CLASS")
	want := []token.Kind{
		token.KwIf, token.KwIf, token.KwIf, token.KwClass, token.KwClass, token.EOF,
	}
	assertKinds(t, got, want)
}

func TestNumberLiterals(t *testing.T) {
	got := scanAll(t, "123 4.5 6e10 7 .")
	want := []token.Kind{
		token.INT, token.FLOAT, token.FLOAT, token.INT, token.DOT, token.EOF,
	}
	assertKinds(t, got, want)
}

func TestStringLiteral(t *testing.T) {
	l := New(0, []byte(`"hello \"world\""`))
	tok, err := l.EatOne()
	if err != nil {
		t.Fatalf("EatOne: %v", err)
	}
	if tok.Kind != token.STRING {
		t.Fatalf("kind = %s, want STRING", tok.Kind)
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New(0, []byte(`"hello`))
	_, err := l.EatOne()
	if err == nil {
		t.Fatal("expected an error for an unterminated string literal")
	}
}

func TestUnknownToken(t *testing.T) {
	l := New(0, []byte("$"))
	_, err := l.EatOne()
	if err == nil {
		t.Fatal("expected an error for an unknown token")
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	l := New(0, []byte("foo bar"))
	first, err := l.Peek()
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	second, err := l.EatOne()
	if err != nil {
		t.Fatalf("EatOne: %v", err)
	}
	if first.Span != second.Span {
		t.Errorf("Peek token %v did not match the token EatOne then consumed %v", first, second)
	}
}

func TestLineCommentsSkippedByDefault(t *testing.T) {
	got := scanAll(t, "foo // a comment\nbar")
	want := []token.Kind{token.IDENT, token.IDENT, token.EOF}
	assertKinds(t, got, want)
}
