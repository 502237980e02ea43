package lexer

import (
	"testing"

	"el/internal/errors"
)

func scan(t *testing.T, source string) []Token {
	t.Helper()
	tokens, err := NewScanner(source).ScanTokens()
	if err != nil {
		t.Fatalf("scan %q: %v", source, err)
	}
	return tokens
}

func types(tokens []Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func TestScanSymbolsAndMaximalMunch(t *testing.T) {
	tests := []struct {
		source string
		want   []TokenType
	}{
		{"= ==", []TokenType{TokenEqual, TokenDoubleEqual, TokenEOF}},
		{"! !=", []TokenType{TokenBang, TokenNotEqual, TokenEOF}},
		{"< <= > >=", []TokenType{TokenLT, TokenLE, TokenGT, TokenGE, TokenEOF}},
		{"&& ||", []TokenType{TokenAmpAmp, TokenPipePipe, TokenEOF}},
		{"+-*/%", []TokenType{TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent, TokenEOF}},
		{"(){}[];,:", []TokenType{
			TokenLParen, TokenRParen, TokenLBrace, TokenRBrace,
			TokenLBracket, TokenRBracket, TokenSemicolon, TokenComma, TokenColon, TokenEOF,
		}},
	}
	for _, tt := range tests {
		got := types(scan(t, tt.source))
		if len(got) != len(tt.want) {
			t.Errorf("%q: got %v, want %v", tt.source, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%q token %d: got %s, want %s", tt.source, i, got[i], tt.want[i])
			}
		}
	}
}

func TestScanKeywords(t *testing.T) {
	tests := []struct {
		source string
		want   TokenType
	}{
		{"program", TokenProgram},
		{"var", TokenVar},
		{"const", TokenConst},
		{"function", TokenFunction},
		{"show", TokenShow},
		{"theorem", TokenTheorem},
		{"proof", TokenProof},
		{"QED", TokenQED},
		{"hypothesis", TokenHyp},
		{"test", TokenTest},
		{"axiom", TokenAxiom},
		{"realistic", TokenRealistic},
		{"integer", TokenIntegerT},
		{"boolean", TokenBooleanT},
		{"switch", TokenSwitch},
		{"default", TokenDefault},
		{"do", TokenDo},
		{"in", TokenIn},
	}
	for _, tt := range tests {
		tokens := scan(t, tt.source)
		if tokens[0].Type != tt.want {
			t.Errorf("%q: got %s, want %s", tt.source, tokens[0].Type, tt.want)
		}
	}
}

func TestKeywordsAreCaseSensitive(t *testing.T) {
	// "qed" is a plain identifier; only the uppercase form is the proof marker.
	tokens := scan(t, "qed Program VAR")
	for i, tok := range tokens[:3] {
		if tok.Type != TokenIdent {
			t.Errorf("token %d: got %s, want IDENT", i, tok.Type)
		}
	}
}

func TestScanNumbers(t *testing.T) {
	tokens := scan(t, "42 3.14 7.")
	want := []struct {
		typ    TokenType
		lexeme string
	}{
		{TokenInt, "42"},
		{TokenReal, "3.14"},
		// a dot not followed by a digit is not part of the number
		{TokenInt, "7"},
	}
	for i, w := range want {
		if tokens[i].Type != w.typ || tokens[i].Lexeme != w.lexeme {
			t.Errorf("token %d: got %s %q, want %s %q", i, tokens[i].Type, tokens[i].Lexeme, w.typ, w.lexeme)
		}
	}
}

func TestScanStringEscapes(t *testing.T) {
	tokens := scan(t, `"a\nb\t\"c\\"`)
	if tokens[0].Type != TokenString {
		t.Fatalf("got %s, want STRING", tokens[0].Type)
	}
	if want := "a\nb\t\"c\\"; tokens[0].Lexeme != want {
		t.Errorf("lexeme: got %q, want %q", tokens[0].Lexeme, want)
	}
}

func TestScanComments(t *testing.T) {
	tokens := scan(t, "1 // line comment\n/* block\ncomment */ 2")
	got := types(tokens)
	want := []TokenType{TokenInt, TokenInt, TokenEOF}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if tokens[1].Line != 3 {
		t.Errorf("second literal line: got %d, want 3", tokens[1].Line)
	}
}

func TestScanPositions(t *testing.T) {
	tokens := scan(t, "var x;\nshow x;")
	if tokens[0].Line != 1 || tokens[0].Column != 1 {
		t.Errorf("var at %d:%d, want 1:1", tokens[0].Line, tokens[0].Column)
	}
	if tokens[3].Line != 2 || tokens[3].Column != 1 {
		t.Errorf("show at %d:%d, want 2:1", tokens[3].Line, tokens[3].Column)
	}
	if tokens[4].Line != 2 || tokens[4].Column != 6 {
		t.Errorf("x at %d:%d, want 2:6", tokens[4].Line, tokens[4].Column)
	}
}

func TestScanErrors(t *testing.T) {
	tests := []string{
		`"unterminated`,
		`"bad \q escape"`,
		"/* never closed",
		"a @ b",
		"a & b",
	}
	for _, source := range tests {
		_, err := NewScanner(source).ScanTokens()
		if err == nil {
			t.Errorf("%q: expected lex error, got none", source)
			continue
		}
		if !errors.Is(err, errors.LexError) {
			t.Errorf("%q: got %v, want LexError", source, err)
		}
	}
}
