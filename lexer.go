// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

import (
	"sync"
	"unicode/utf8"
)

type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIllegal
	TokenNumber
	TokenString
	TokenIdent
	TokenPlus    // +
	TokenMinus   // -
	TokenStar    // *
	TokenSlash   // /
	TokenPercent // %
	TokenPow     // **
	TokenAmp     // &
	TokenPipe    // |
	TokenCaret   // ^
	TokenTilde   // ~
	TokenBang    // !
	TokenShl     // <<
	TokenShr     // >>
	TokenLt      // <
	TokenLe      // <=
	TokenGt      // >
	TokenGe      // >=
	TokenEq      // ==
	TokenNe      // !=
	TokenAnd     // && or "and"
	TokenOr      // || or "or"
	TokenLParen  // (
	TokenRParen  // )
	TokenComma   // ,
)

// Token carries the literal source text. Number tokens keep the raw
// spelling so the parser can pick the literal dtype; string tokens hold
// the decoded code points.
type Token struct {
	Type    TokenType
	Literal string
	Str     []rune // decoded string literal, TokenString only
	Pos     int    // byte offset of the token start
}

type Lexer struct {
	input        string
	position     int
	readPosition int
	ch           byte
}

var lexerPool = sync.Pool{
	New: func() any {
		return &Lexer{}
	},
}

func NewLexer(input string) *Lexer {
	l := lexerPool.Get().(*Lexer)
	l.Reset(input)
	return l
}

func ReleaseLexer(l *Lexer) {
	l.input = ""
	lexerPool.Put(l)
}

func (l *Lexer) Reset(input string) {
	l.input = input
	l.position = 0
	l.readPosition = 0
	l.ch = 0
	l.readChar()
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	pos := l.position
	var tok Token
	tok.Pos = pos

	switch l.ch {
	case '+':
		tok.Type, tok.Literal = TokenPlus, "+"
	case '-':
		tok.Type, tok.Literal = TokenMinus, "-"
	case '*':
		if l.peekChar() == '*' {
			l.readChar()
			tok.Type, tok.Literal = TokenPow, "**"
		} else {
			tok.Type, tok.Literal = TokenStar, "*"
		}
	case '/':
		tok.Type, tok.Literal = TokenSlash, "/"
	case '%':
		tok.Type, tok.Literal = TokenPercent, "%"
	case '&':
		if l.peekChar() == '&' {
			l.readChar()
			tok.Type, tok.Literal = TokenAnd, "&&"
		} else {
			tok.Type, tok.Literal = TokenAmp, "&"
		}
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			tok.Type, tok.Literal = TokenOr, "||"
		} else {
			tok.Type, tok.Literal = TokenPipe, "|"
		}
	case '^':
		tok.Type, tok.Literal = TokenCaret, "^"
	case '~':
		tok.Type, tok.Literal = TokenTilde, "~"
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Literal = TokenNe, "!="
		} else {
			tok.Type, tok.Literal = TokenBang, "!"
		}
	case '<':
		switch l.peekChar() {
		case '<':
			l.readChar()
			tok.Type, tok.Literal = TokenShl, "<<"
		case '=':
			l.readChar()
			tok.Type, tok.Literal = TokenLe, "<="
		default:
			tok.Type, tok.Literal = TokenLt, "<"
		}
	case '>':
		switch l.peekChar() {
		case '>':
			l.readChar()
			tok.Type, tok.Literal = TokenShr, ">>"
		case '=':
			l.readChar()
			tok.Type, tok.Literal = TokenGe, ">="
		default:
			tok.Type, tok.Literal = TokenGt, ">"
		}
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Literal = TokenEq, "=="
		} else {
			tok.Type, tok.Literal = TokenIllegal, "="
		}
	case '(':
		tok.Type, tok.Literal = TokenLParen, "("
	case ')':
		tok.Type, tok.Literal = TokenRParen, ")"
	case ',':
		tok.Type, tok.Literal = TokenComma, ","
	case '"', '\'':
		return l.readString()
	case 0:
		tok.Type = TokenEOF
	default:
		if isLetter(l.ch) {
			tok.Literal = l.readIdentifier()
			tok.Type = lookupIdent(tok.Literal)
			return tok
		}
		if isDigit(l.ch) || l.ch == '.' {
			tok.Literal = l.readNumber()
			tok.Type = TokenNumber
			return tok
		}
		tok.Type, tok.Literal = TokenIllegal, string(l.ch)
	}

	l.readChar()
	return tok
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func (l *Lexer) readNumber() string {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		if next := l.peekChar(); isDigit(next) || next == '+' || next == '-' {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return l.input[position:l.position]
}

// readString decodes a quoted literal into UCS-4 code points. Both
// quote styles are accepted. Escapes are \\ \" \' \n \t \uXXXX and
// \UXXXXXXXX; surrogate and out-of-range code points are rejected.
func (l *Lexer) readString() Token {
	pos := l.position
	quote := l.ch
	l.readChar()

	var out []rune
	for {
		if l.ch == 0 {
			return Token{Type: TokenIllegal, Literal: "unterminated string", Pos: pos}
		}
		if l.ch == quote {
			l.readChar()
			return Token{Type: TokenString, Literal: string(out), Str: out, Pos: pos}
		}
		if l.ch == '\\' {
			l.readChar()
			cp, ok := l.readEscape()
			if !ok {
				return Token{Type: TokenIllegal, Literal: "bad escape", Pos: pos}
			}
			out = append(out, cp)
			continue
		}
		r, size := utf8.DecodeRuneInString(l.input[l.position:])
		if r == utf8.RuneError && size <= 1 {
			return Token{Type: TokenIllegal, Literal: "bad UTF-8", Pos: pos}
		}
		out = append(out, r)
		for i := 0; i < size; i++ {
			l.readChar()
		}
	}
}

func (l *Lexer) readEscape() (rune, bool) {
	switch c := l.ch; c {
	case '\\', '"', '\'':
		l.readChar()
		return rune(c), true
	case 'n':
		l.readChar()
		return '\n', true
	case 't':
		l.readChar()
		return '\t', true
	case 'u':
		l.readChar()
		return l.readHexCodepoint(4)
	case 'U':
		l.readChar()
		return l.readHexCodepoint(8)
	}
	return 0, false
}

func (l *Lexer) readHexCodepoint(digits int) (rune, bool) {
	var value uint32
	for i := 0; i < digits; i++ {
		var v uint32
		switch c := l.ch; {
		case c >= '0' && c <= '9':
			v = uint32(c - '0')
		case c >= 'a' && c <= 'f':
			v = uint32(10 + c - 'a')
		case c >= 'A' && c <= 'F':
			v = uint32(10 + c - 'A')
		default:
			return 0, false
		}
		value = value<<4 | v
		l.readChar()
	}
	if value > 0x10FFFF || (value >= 0xD800 && value <= 0xDFFF) {
		return 0, false
	}
	return rune(value), true
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

var keywords = map[string]TokenType{
	"and": TokenAnd,
	"or":  TokenOr,
	"not": TokenBang,
}

func lookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokenIdent
}
