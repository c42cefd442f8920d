package expr

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

const eof = -1

// Lexer splits a formula into tokens. Whitespace is skipped; anything that
// is not a number, identifier, operator, comma or parenthesis is an error.
type Lexer struct {
	input  string
	start  int // byte position of the current token
	pos    int // current byte position
	offset int // rune offset of pos
	begin  int // rune offset of start
	width  int // width of the last rune read
}

// NewLexer returns a lexer positioned at the start of input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Next returns the next token. After the input is exhausted it keeps
// returning TokenEOF.
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespace()
	l.start = l.pos
	l.begin = l.offset

	ch := l.nextRune()
	switch {
	case ch == eof:
		return l.emit(TokenEOF), nil
	case ch == '+':
		return l.emit(TokenPlus), nil
	case ch == '-':
		return l.emit(TokenMinus), nil
	case ch == '*':
		return l.emit(TokenStar), nil
	case ch == '/':
		return l.emit(TokenSlash), nil
	case ch == '^':
		return l.emit(TokenCaret), nil
	case ch == ',':
		return l.emit(TokenComma), nil
	case ch == '(':
		return l.emit(TokenLParen), nil
	case ch == ')':
		return l.emit(TokenRParen), nil
	case isDigit(ch) || (ch == '.' && isDigit(l.peekRune())):
		l.backup()
		return l.scanNumber()
	case unicode.IsLetter(ch):
		l.backup()
		return l.scanIdent(), nil
	}
	return Token{}, newError(ErrUnexpectedToken, l.begin, "unexpected character %q", ch)
}

// Tokenize lexes the whole input, including the trailing TokenEOF.
func Tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	var toks []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == TokenEOF {
			return toks, nil
		}
	}
}

func (l *Lexer) scanNumber() (Token, error) {
	l.acceptRun(isDigit)
	if l.peekRune() == '.' {
		l.nextRune()
		l.acceptRun(isDigit)
	}

	// An exponent needs digits, otherwise "2e" is the number 2 followed
	// by the identifier e.
	if r := l.peekRune(); r == 'e' || r == 'E' {
		save, saveOff := l.pos, l.offset
		l.nextRune()
		if r := l.peekRune(); r == '+' || r == '-' {
			l.nextRune()
		}
		if isDigit(l.peekRune()) {
			l.acceptRun(isDigit)
		} else {
			l.pos, l.offset = save, saveOff
		}
	}

	tok := l.emit(TokenNumber)
	v, err := strconv.ParseFloat(tok.Text, 64)
	if err != nil {
		return Token{}, newError(ErrInvalidNumber, tok.Offset, "invalid number %q", tok.Text)
	}
	tok.Value = v
	return tok, nil
}

func (l *Lexer) scanIdent() Token {
	l.acceptRun(func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
	})
	return l.emit(TokenIdent)
}

func (l *Lexer) emit(tt TokenType) Token {
	return Token{Type: tt, Text: l.input[l.start:l.pos], Offset: l.begin}
}

func (l *Lexer) skipWhitespace() {
	for unicode.IsSpace(l.peekRune()) {
		l.nextRune()
	}
}

func (l *Lexer) nextRune() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += w
	l.offset++
	return r
}

func (l *Lexer) peekRune() rune {
	if l.pos >= len(l.input) {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

func (l *Lexer) backup() {
	if l.width > 0 {
		l.pos -= l.width
		l.offset--
		l.width = 0
	}
}

func (l *Lexer) acceptRun(valid func(rune) bool) {
	for {
		r := l.peekRune()
		if r == eof || !valid(r) {
			return
		}
		l.nextRune()
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
