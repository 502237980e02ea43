package lexer

import (
	"fmt"

	"el/internal/errors"
)

type TokenType string

const (
	// Keywords
	TokenProgram  TokenType = "PROGRAM"
	TokenVar      TokenType = "VAR"
	TokenConst    TokenType = "CONST"
	TokenFunction TokenType = "FUNCTION"
	TokenReturn   TokenType = "RETURN"
	TokenIf       TokenType = "IF"
	TokenElse     TokenType = "ELSE"
	TokenWhile    TokenType = "WHILE"
	TokenDo       TokenType = "DO"
	TokenFor      TokenType = "FOR"
	TokenIn       TokenType = "IN"
	TokenBreak    TokenType = "BREAK"
	TokenSwitch   TokenType = "SWITCH"
	TokenCase     TokenType = "CASE"
	TokenDefault  TokenType = "DEFAULT"
	TokenShow     TokenType = "SHOW"
	TokenAnd      TokenType = "AND"
	TokenOr       TokenType = "OR"
	TokenNot      TokenType = "NOT"
	TokenTheorem  TokenType = "THEOREM"
	TokenProof    TokenType = "PROOF"
	TokenQED      TokenType = "QED"
	TokenHyp      TokenType = "HYPOTHESIS"
	TokenTest     TokenType = "TEST"
	TokenAxiom    TokenType = "AXIOM"

	// Type names
	TokenIntegerT TokenType = "INTEGER_T"
	TokenRealT    TokenType = "REAL_T"
	TokenStringT  TokenType = "STRING_T"
	TokenBooleanT TokenType = "BOOLEAN_T"
	TokenObjectT  TokenType = "OBJECT_T"
	TokenArrayT   TokenType = "ARRAY_T"

	// Literals
	TokenTrue      TokenType = "TRUE"
	TokenFalse     TokenType = "FALSE"
	TokenRealistic TokenType = "REALISTIC"
	TokenIdent     TokenType = "IDENT"
	TokenString    TokenType = "STRING"
	TokenInt       TokenType = "INT"
	TokenReal      TokenType = "REAL"

	// Symbols
	TokenLParen      TokenType = "("
	TokenRParen      TokenType = ")"
	TokenLBrace      TokenType = "{"
	TokenRBrace      TokenType = "}"
	TokenLBracket    TokenType = "["
	TokenRBracket    TokenType = "]"
	TokenPlus        TokenType = "+"
	TokenMinus       TokenType = "-"
	TokenStar        TokenType = "*"
	TokenSlash       TokenType = "/"
	TokenPercent     TokenType = "%"
	TokenEqual       TokenType = "="
	TokenDoubleEqual TokenType = "=="
	TokenNotEqual    TokenType = "!="
	TokenLT          TokenType = "<"
	TokenGT          TokenType = ">"
	TokenLE          TokenType = "<="
	TokenGE          TokenType = ">="
	TokenAmpAmp      TokenType = "&&"
	TokenPipePipe    TokenType = "||"
	TokenBang        TokenType = "!"
	TokenComma       TokenType = ","
	TokenSemicolon   TokenType = ";"
	TokenColon       TokenType = ":"
	TokenEOF         TokenType = "EOF"
)

var keywords = map[string]TokenType{
	"program":    TokenProgram,
	"var":        TokenVar,
	"const":      TokenConst,
	"function":   TokenFunction,
	"return":     TokenReturn,
	"if":         TokenIf,
	"else":       TokenElse,
	"while":      TokenWhile,
	"do":         TokenDo,
	"for":        TokenFor,
	"in":         TokenIn,
	"break":      TokenBreak,
	"switch":     TokenSwitch,
	"case":       TokenCase,
	"default":    TokenDefault,
	"show":       TokenShow,
	"and":        TokenAnd,
	"or":         TokenOr,
	"not":        TokenNot,
	"theorem":    TokenTheorem,
	"proof":      TokenProof,
	"QED":        TokenQED,
	"hypothesis": TokenHyp,
	"test":       TokenTest,
	"axiom":      TokenAxiom,
	"integer":    TokenIntegerT,
	"real":       TokenRealT,
	"string":     TokenStringT,
	"boolean":    TokenBooleanT,
	"object":     TokenObjectT,
	"array":      TokenArrayT,
	"true":       TokenTrue,
	"false":      TokenFalse,
	"realistic":  TokenRealistic,
}

type Token struct {
	Type   TokenType
	Lexeme string
	File   string
	Line   int
	Column int
}

func (t Token) String() string {
	return fmt.Sprintf("[%s] '%s'", t.Type, t.Lexeme)
}

// Scanner turns El source text into a flat token stream. Single-use: create
// one per source unit.
type Scanner struct {
	source  string
	file    string
	tokens  []Token
	start   int
	current int
	line    int
	col     int // column of s.start, 1-based
	lineCol int // column of s.current within the current line
}

func NewScanner(source string) *Scanner {
	return NewScannerWithFile(source, "")
}

func NewScannerWithFile(source, file string) *Scanner {
	return &Scanner{
		source:  source,
		file:    file,
		line:    1,
		lineCol: 1,
	}
}

// ScanTokens tokenizes the whole source. The returned slice always ends with
// an EOF token. The first unrecognized character, unterminated string, or
// unterminated block comment stops the scan with a LexError.
func (s *Scanner) ScanTokens() ([]Token, error) {
	for !s.isAtEnd() {
		s.start = s.current
		s.col = s.lineCol
		if err := s.scanToken(); err != nil {
			return nil, err
		}
	}
	s.tokens = append(s.tokens, Token{Type: TokenEOF, File: s.file, Line: s.line, Column: s.lineCol})
	return s.tokens, nil
}

func (s *Scanner) scanToken() error {
	c := s.advance()
	switch c {
	case '(':
		s.addToken(TokenLParen)
	case ')':
		s.addToken(TokenRParen)
	case '{':
		s.addToken(TokenLBrace)
	case '}':
		s.addToken(TokenRBrace)
	case '[':
		s.addToken(TokenLBracket)
	case ']':
		s.addToken(TokenRBracket)
	case '+':
		s.addToken(TokenPlus)
	case '-':
		s.addToken(TokenMinus)
	case '*':
		s.addToken(TokenStar)
	case '/':
		if s.match('/') {
			for s.peek() != '\n' && !s.isAtEnd() {
				s.advance()
			}
		} else if s.match('*') {
			return s.blockComment()
		} else {
			s.addToken(TokenSlash)
		}
	case '%':
		s.addToken(TokenPercent)
	case '=':
		if s.match('=') {
			s.addToken(TokenDoubleEqual)
		} else {
			s.addToken(TokenEqual)
		}
	case '!':
		if s.match('=') {
			s.addToken(TokenNotEqual)
		} else {
			s.addToken(TokenBang)
		}
	case '<':
		if s.match('=') {
			s.addToken(TokenLE)
		} else {
			s.addToken(TokenLT)
		}
	case '>':
		if s.match('=') {
			s.addToken(TokenGE)
		} else {
			s.addToken(TokenGT)
		}
	case '&':
		if s.match('&') {
			s.addToken(TokenAmpAmp)
		} else {
			return s.errorf("unexpected character '&'")
		}
	case '|':
		if s.match('|') {
			s.addToken(TokenPipePipe)
		} else {
			return s.errorf("unexpected character '|'")
		}
	case ',':
		s.addToken(TokenComma)
	case ';':
		s.addToken(TokenSemicolon)
	case ':':
		s.addToken(TokenColon)
	case '"':
		return s.string()
	case '\n':
		s.line++
		s.lineCol = 1
	case ' ', '\r', '\t':
		// whitespace
	default:
		if isDigit(c) {
			s.number()
		} else if isAlpha(c) {
			s.identifier()
		} else {
			return s.errorf("unexpected character %q", c)
		}
	}
	return nil
}

func (s *Scanner) identifier() {
	for isAlphaNumeric(s.peek()) {
		s.advance()
	}
	text := s.source[s.start:s.current]
	if kw, ok := keywords[text]; ok {
		s.addToken(kw)
		return
	}
	s.addToken(TokenIdent)
}

func (s *Scanner) number() {
	for isDigit(s.peek()) {
		s.advance()
	}
	kind := TokenInt
	if s.peek() == '.' && isDigit(s.peekNext()) {
		kind = TokenReal
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	s.addToken(kind)
}

// string scans a double-quoted literal, resolving the fixed escape set. The
// stored lexeme is the decoded value, quotes stripped.
func (s *Scanner) string() error {
	var out []byte
	for !s.isAtEnd() && s.peek() != '"' {
		c := s.advance()
		if c == '\n' {
			s.line++
			s.lineCol = 1
			out = append(out, c)
			continue
		}
		if c == '\\' {
			if s.isAtEnd() {
				break
			}
			switch e := s.advance(); e {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case 'r':
				out = append(out, '\r')
			case '\\':
				out = append(out, '\\')
			case '"':
				out = append(out, '"')
			default:
				return s.errorf("unknown escape '\\%c' in string", e)
			}
			continue
		}
		out = append(out, c)
	}
	if s.isAtEnd() {
		return s.errorf("unterminated string")
	}
	s.advance() // closing quote
	s.tokens = append(s.tokens, Token{
		Type: TokenString, Lexeme: string(out),
		File: s.file, Line: s.line, Column: s.col,
	})
	return nil
}

func (s *Scanner) blockComment() error {
	for !s.isAtEnd() {
		if s.peek() == '*' && s.peekNext() == '/' {
			s.advance()
			s.advance()
			return nil
		}
		if s.peek() == '\n' {
			s.line++
			s.lineCol = 0
		}
		s.advance()
	}
	return s.errorf("unterminated block comment")
}

func (s *Scanner) addToken(t TokenType) {
	s.tokens = append(s.tokens, Token{
		Type: t, Lexeme: s.source[s.start:s.current],
		File: s.file, Line: s.line, Column: s.col,
	})
}

func (s *Scanner) match(expected byte) bool {
	if s.isAtEnd() || s.source[s.current] != expected {
		return false
	}
	s.current++
	s.lineCol++
	return true
}

func (s *Scanner) advance() byte {
	c := s.source[s.current]
	s.current++
	s.lineCol++
	return c
}

func (s *Scanner) peek() byte {
	if s.isAtEnd() {
		return 0
	}
	return s.source[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.source) {
		return 0
	}
	return s.source[s.current+1]
}

func (s *Scanner) isAtEnd() bool {
	return s.current >= len(s.source)
}

func (s *Scanner) errorf(format string, args ...interface{}) error {
	return errors.New(errors.LexError, fmt.Sprintf(format, args...), s.file, s.line, s.col)
}

func isAlpha(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
