package arrex

import (
	"testing"
)

func TestLexer(t *testing.T) {
	input := `2.5 * (x_1 + y) ** 2 << 3 <= 4 != .5e-3 and not z`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenNumber, "2.5"},
		{TokenStar, "*"},
		{TokenLParen, "("},
		{TokenIdent, "x_1"},
		{TokenPlus, "+"},
		{TokenIdent, "y"},
		{TokenRParen, ")"},
		{TokenPow, "**"},
		{TokenNumber, "2"},
		{TokenShl, "<<"},
		{TokenNumber, "3"},
		{TokenLe, "<="},
		{TokenNumber, "4"},
		{TokenNe, "!="},
		{TokenNumber, ".5e-3"},
		{TokenAnd, "and"},
		{TokenBang, "not"},
		{TokenIdent, "z"},
		{TokenEOF, ""},
	}

	l := NewLexer(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%d, got=%d (literal %q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
	ReleaseLexer(l)
}

func TestLexerOperators(t *testing.T) {
	input := `& | ^ ~ ! << >> < <= > >= == != && || , %`
	expected := []TokenType{
		TokenAmp, TokenPipe, TokenCaret, TokenTilde, TokenBang,
		TokenShl, TokenShr, TokenLt, TokenLe, TokenGt, TokenGe,
		TokenEq, TokenNe, TokenAnd, TokenOr, TokenComma, TokenPercent,
		TokenEOF,
	}

	l := NewLexer(input)
	defer ReleaseLexer(l)

	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("token[%d] - expected=%d, got=%d (literal %q)", i, want, tok.Type, tok.Literal)
		}
	}
}

func TestLexerStrings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"hello"`, "hello"},
		{`'single'`, "single"},
		{`"tab\there"`, "tab\there"},
		{`"quote\"inside"`, `quote"inside`},
		{`"éè"`, "éè"},
		{`"\U0001F600"`, "\U0001F600"},
	}

	for _, tt := range tests {
		l := NewLexer(tt.input)
		tok := l.NextToken()
		if tok.Type != TokenString {
			t.Fatalf("input %q: expected string token, got type %d", tt.input, tok.Type)
		}
		if string(tok.Str) != tt.want {
			t.Fatalf("input %q: decoded %q, want %q", tt.input, string(tok.Str), tt.want)
		}
		ReleaseLexer(l)
	}
}

func TestLexerBadStrings(t *testing.T) {
	inputs := []string{
		`"unterminated`,
		`"bad escape \q"`,
		`"\ud800"`,    // surrogate
		`"\U00110000"`, // beyond Unicode range
	}
	for _, in := range inputs {
		l := NewLexer(in)
		tok := l.NextToken()
		if tok.Type != TokenIllegal {
			t.Fatalf("input %q: expected illegal token, got type %d (%q)", in, tok.Type, tok.Literal)
		}
		ReleaseLexer(l)
	}
}

func TestLexerPositions(t *testing.T) {
	l := NewLexer("ab + cd")
	defer ReleaseLexer(l)

	wantPos := []int{0, 3, 5}
	for i, want := range wantPos {
		tok := l.NextToken()
		if tok.Pos != want {
			t.Fatalf("token[%d] - pos expected=%d, got=%d", i, want, tok.Pos)
		}
	}
}
