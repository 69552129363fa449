// Package lexer tokenizes Daedalus source text.
//
// The Lexer is a small value type wrapping a byte cursor, deliberately kept
// cheap to copy: the parser needs arbitrary lookahead and implements it by
// cloning the lexer and advancing the clone, never by buffering tokens or
// rewinding a shared cursor.
package lexer

import (
	"fmt"
	"strings"

	"daedalus/token"
)

// Error is a lexical error: an unrecognized character or an unterminated
// string literal.
type Error struct {
	Span token.Span
	Msg  string
}

func (e Error) Error() string {
	return fmt.Sprintf("lex error at %d:%d: %s", e.Span.Start, e.Span.End, e.Msg)
}

// Lexer scans one source file. The zero value is not usable; construct with
// New.
type Lexer struct {
	file token.FileID
	src  []byte
	pos  int
}

// New creates a Lexer over src, tagging every produced token with file.
func New(file token.FileID, src []byte) Lexer {
	return Lexer{file: file, src: src, pos: 0}
}

// Clone returns an independent copy of the lexer sharing the same
// underlying source bytes. Advancing the clone never affects the original.
// Because Lexer holds only a slice header and an int, this is a plain value
// copy - there is no hidden state to deep-copy.
func (l Lexer) Clone() Lexer {
	return l
}

// Offset returns the lexer's current byte position, useful for callers
// that need to detect whether a parse attempt advanced the cursor at all.
func (l Lexer) Offset() int {
	return l.pos
}

func isLetter(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.src)
}

func (l *Lexer) peekByte() byte {
	if l.atEnd() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekByteAt(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

// skipTrivia advances past runs of whitespace and newlines (and, if
// comments is true, line comments too), stopping right before the next
// significant token or a comment when comments is false.
func (l *Lexer) skipTrivia(comments bool) {
	for !l.atEnd() {
		switch l.peekByte() {
		case ' ', '\t':
			l.pos++
		case '\r':
			l.pos++
		case '\n':
			for !l.atEnd() && l.peekByte() == '\n' {
				l.pos++
			}
		case '/':
			if comments && l.peekByteAt(1) == '/' {
				for !l.atEnd() && l.peekByte() != '\n' {
					l.pos++
				}
				continue
			}
			return
		default:
			return
		}
	}
}

// rawNext scans exactly one significant token starting at l.pos, which must
// already sit at the start of that token (trivia already skipped by the
// caller).
func (l *Lexer) rawNext() (token.Token, error) {
	start := l.pos

	if l.atEnd() {
		return token.Token{Kind: token.EOF, Span: token.Span{File: l.file, Start: start, End: start}}, nil
	}

	c := l.src[l.pos]

	mk := func(k token.Kind) token.Token {
		return token.Token{Kind: k, Span: token.Span{File: l.file, Start: start, End: l.pos}}
	}

	switch {
	case c == '(':
		l.pos++
		return mk(token.LPAREN), nil
	case c == ')':
		l.pos++
		return mk(token.RPAREN), nil
	case c == '{':
		l.pos++
		return mk(token.LBRACE), nil
	case c == '}':
		l.pos++
		return mk(token.RBRACE), nil
	case c == '[':
		l.pos++
		return mk(token.LBRACKET), nil
	case c == ']':
		l.pos++
		return mk(token.RBRACKET), nil
	case c == ';':
		l.pos++
		return mk(token.SEMI), nil
	case c == ',':
		l.pos++
		return mk(token.COMMA), nil
	case c == '.':
		l.pos++
		return mk(token.DOT), nil
	case c == '+':
		l.pos++
		if l.peekByte() == '=' {
			l.pos++
			return mk(token.ADD_ASSIGN), nil
		}
		return mk(token.ADD), nil
	case c == '-':
		l.pos++
		if l.peekByte() == '=' {
			l.pos++
			return mk(token.SUB_ASSIGN), nil
		}
		return mk(token.SUB), nil
	case c == '*':
		l.pos++
		if l.peekByte() == '=' {
			l.pos++
			return mk(token.MUL_ASSIGN), nil
		}
		return mk(token.MUL), nil
	case c == '/':
		l.pos++
		if l.peekByte() == '=' {
			l.pos++
			return mk(token.DIV_ASSIGN), nil
		}
		return mk(token.DIV), nil
	case c == '%':
		l.pos++
		return mk(token.MOD), nil
	case c == '=':
		l.pos++
		if l.peekByte() == '=' {
			l.pos++
			return mk(token.EQ), nil
		}
		return mk(token.ASSIGN), nil
	case c == '!':
		l.pos++
		if l.peekByte() == '=' {
			l.pos++
			return mk(token.NEQ), nil
		}
		return mk(token.BANG), nil
	case c == '<':
		l.pos++
		if l.peekByte() == '=' {
			l.pos++
			return mk(token.LTE), nil
		}
		if l.peekByte() == '<' {
			l.pos++
			return mk(token.SHL), nil
		}
		return mk(token.LT), nil
	case c == '>':
		l.pos++
		if l.peekByte() == '=' {
			l.pos++
			return mk(token.GTE), nil
		}
		if l.peekByte() == '>' {
			l.pos++
			return mk(token.SHR), nil
		}
		return mk(token.GT), nil
	case c == '&':
		l.pos++
		if l.peekByte() == '&' {
			l.pos++
			return mk(token.LOGAND), nil
		}
		return mk(token.BITAND), nil
	case c == '|':
		l.pos++
		if l.peekByte() == '|' {
			l.pos++
			return mk(token.LOGOR), nil
		}
		return mk(token.BITOR), nil
	case c == '"':
		return l.scanString(start)
	case isDigit(c):
		return l.scanNumber(start)
	case isLetter(c):
		return l.scanIdent(start)
	default:
		l.pos++
		return token.Token{}, Error{
			Span: token.Span{File: l.file, Start: start, End: l.pos},
			Msg:  fmt.Sprintf("unknown token %q", c),
		}
	}
}

func (l *Lexer) scanIdent(start int) (token.Token, error) {
	for !l.atEnd() && (isLetter(l.peekByte()) || isDigit(l.peekByte())) {
		l.pos++
	}
	word := string(l.src[start:l.pos])
	kind := token.IDENT
	if kw, ok := token.Keywords[strings.ToLower(word)]; ok {
		kind = kw
	} else if word == "nan" || word == "inf" {
		kind = token.FLOAT
	}
	return token.Token{Kind: kind, Span: token.Span{File: l.file, Start: start, End: l.pos}}, nil
}

// scanNumber recognizes §4.1's integer and float grammars. Integer takes
// priority on an ambiguous prefix: "123" never becomes a float unless a '.'
// digit run or an exponent follows. The nan/inf float spellings start with
// a letter and are recognized by scanIdent instead.
func (l *Lexer) scanNumber(start int) (token.Token, error) {
	isDigitOrUnderscore := func(b byte) bool { return isDigit(b) || b == '_' }

	for !l.atEnd() && isDigitOrUnderscore(l.peekByte()) {
		l.pos++
	}

	isFloat := false

	if l.peekByte() == '.' && isDigit(l.peekByteAt(1)) {
		isFloat = true
		l.pos++ // '.'
		for !l.atEnd() && isDigitOrUnderscore(l.peekByte()) {
			l.pos++
		}
	}

	if l.peekByte() == 'e' || l.peekByte() == 'E' {
		save := l.pos
		l.pos++
		if l.peekByte() == '+' || l.peekByte() == '-' {
			l.pos++
		}
		if isDigit(l.peekByte()) {
			isFloat = true
			for !l.atEnd() && isDigitOrUnderscore(l.peekByte()) {
				l.pos++
			}
		} else {
			l.pos = save
		}
	}

	kind := token.INT
	if isFloat {
		kind = token.FLOAT
	}
	return token.Token{Kind: kind, Span: token.Span{File: l.file, Start: start, End: l.pos}}, nil
}

func (l *Lexer) scanString(start int) (token.Token, error) {
	l.pos++ // opening quote
	for {
		if l.atEnd() {
			return token.Token{}, Error{
				Span: token.Span{File: l.file, Start: start, End: l.pos},
				Msg:  "unterminated string literal",
			}
		}
		switch l.peekByte() {
		case '\\':
			l.pos++
			if !l.atEnd() {
				l.pos++
			}
		case '"':
			l.pos++
			return token.Token{Kind: token.STRING, Span: token.Span{File: l.file, Start: start, End: l.pos}}, nil
		default:
			l.pos++
		}
	}
}

// Peek returns the next significant token (skipping whitespace, newlines,
// and line comments) without consuming it.
func (l *Lexer) Peek() (token.Token, error) {
	clone := *l
	clone.skipTrivia(true)
	return clone.rawNext()
}

// EatOne skips trivia, consumes, and returns the next significant token.
func (l *Lexer) EatOne() (token.Token, error) {
	l.skipTrivia(true)
	return l.rawNext()
}

// EatToken consumes the next significant token and fails if its kind is not
// expected.
func (l *Lexer) EatToken(expected token.Kind) (token.Token, error) {
	tok, err := l.EatOne()
	if err != nil {
		return tok, err
	}
	if tok.Kind != expected {
		return tok, fmt.Errorf("expected %s, got %s", expected, tok.Kind)
	}
	return tok, nil
}

// PeekWithComments skips whitespace and newlines only (not comments) and
// returns the next token without consuming it - callers use this to detect
// whether a comment sits immediately ahead.
func (l *Lexer) PeekWithComments() (token.Token, error) {
	clone := *l
	clone.skipTrivia(false)
	if clone.peekByte() == '/' && clone.peekByteAt(1) == '/' {
		start := clone.pos
		for !clone.atEnd() && clone.peekByte() != '\n' {
			clone.pos++
		}
		return token.Token{Kind: token.COMMENT, Span: token.Span{File: clone.file, Start: start, End: clone.pos}}, nil
	}
	return clone.rawNext()
}

// EatLineComment consumes a "//" line comment starting at the lexer's
// current position and returns its text, not including the "//" marker.
func (l *Lexer) EatLineComment() (string, error) {
	l.skipTrivia(false)
	if l.peekByte() != '/' || l.peekByteAt(1) != '/' {
		return "", fmt.Errorf("no line comment at current position")
	}
	l.pos += 2
	start := l.pos
	for !l.atEnd() && l.peekByte() != '\n' {
		l.pos++
	}
	return string(l.src[start:l.pos]), nil
}
