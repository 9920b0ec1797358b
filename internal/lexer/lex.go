package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const eofRune rune = -1

// stateFn represents the state of the scanner as a function that returns the next state.
type stateFn func(*Lexer) stateFn

// Lexer holds the state of the scanner.
type Lexer struct {
	input   string   // the string being scanned
	start   int      // start position of this item
	pos     int      // current position in the input
	width   int      // width of last rune read from input
	lexemes []Lexeme // scanned lexemes
	err     *Error   // first error, terminates scanning
}

// Lex scans the whole input. The returned slice always ends with a
// TokenTypeEOF lexeme when err is nil. Whitespace is dropped.
func Lex(input string) ([]Lexeme, error) {
	l := &Lexer{input: input}
	for state := lexSource; state != nil; {
		state = state(l)
	}
	if l.err != nil {
		return nil, l.err
	}
	return l.lexemes, nil
}

// next returns the next rune in the input.
func (l *Lexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return eofRune
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += w
	return r
}

// peek returns but does not consume the next rune in the input.
func (l *Lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

// backup steps back one rune. Can only be called once per call of next.
func (l *Lexer) backup() {
	l.pos -= l.width
}

// ignore skips over the pending input before this point.
func (l *Lexer) ignore() {
	l.start = l.pos
}

// accept consumes the next rune if it's from the valid set.
func (l *Lexer) accept(valid string) bool {
	if r := l.next(); r != eofRune && strings.ContainsRune(valid, r) {
		return true
	}
	l.backup()
	return false
}

// acceptRun consumes a run of runes from the valid set.
func (l *Lexer) acceptRun(valid string) int {
	n := 0
	for l.accept(valid) {
		n++
	}
	return n
}

// emit records the pending input as a lexeme of the given kind.
func (l *Lexer) emit(kind TokenType) {
	l.lexemes = append(l.lexemes, Lexeme{
		Kind:     kind,
		Position: l.start,
		Value:    l.input[l.start:l.pos],
	})
	l.start = l.pos
}

// errorf records an error covering the input from the token start to end
// and terminates the scan.
func (l *Lexer) errorf(end int, message string) stateFn {
	l.err = &Error{
		Position: l.start,
		Text:     l.input[l.start:end],
		Message:  message,
	}
	return nil
}

// lexSource scans until EOF.
func lexSource(l *Lexer) stateFn {
	for {
		r := l.next()
		switch {
		case r == eofRune:
			l.emit(TokenTypeEOF)
			return nil

		case unicode.IsSpace(r):
			l.ignore()

		case r == '(':
			l.emit(TokenTypeLeftParen)
		case r == ')':
			l.emit(TokenTypeRightParen)
		case r == '[':
			l.emit(TokenTypeLeftBracket)
		case r == ']':
			l.emit(TokenTypeRightBracket)
		case r == '{':
			l.emit(TokenTypeLeftBrace)
		case r == '}':
			l.emit(TokenTypeRightBrace)
		case r == ',':
			l.emit(TokenTypeComma)

		case r == '\'' || r == '"':
			l.backup()
			return lexString

		case isDigit(r):
			l.backup()
			return lexNumber

		case r == '.':
			if isDigit(l.peek()) {
				l.backup()
				return lexNumber
			}
			l.emit(TokenTypeDot)

		case isIdentStart(r):
			l.backup()
			return lexIdentifierOrKeyword

		default:
			l.backup()
			return lexOperator
		}
	}
}

// lexOperator scans punctuation outside the grammar's core set.
func lexOperator(l *Lexer) stateFn {
	rest := l.input[l.pos:]
	for _, op := range multiOperators {
		if strings.HasPrefix(rest, op) {
			l.pos += len(op)
			l.emit(TokenTypeOperator)
			return lexSource
		}
	}

	r := l.next()
	switch {
	case r == '-':
		l.emit(TokenTypeMinus)
	case r == ':':
		l.emit(TokenTypeColon)
	case strings.ContainsRune(singleOperators, r):
		l.emit(TokenTypeOperator)
	default:
		return l.errorf(l.pos, "unrecognized character")
	}
	return lexSource
}

// lexString scans a quoted string. Escapes are validated by Unquote later;
// here a backslash simply protects the next rune.
func lexString(l *Lexer) stateFn {
	quote := l.next()
	for {
		switch r := l.next(); r {
		case eofRune, '\n':
			if r == '\n' {
				l.backup()
			}
			return l.errorf(l.pos, "unterminated string literal")
		case '\\':
			if l.next() == eofRune {
				return l.errorf(l.pos, "unterminated string literal")
			}
		case quote:
			l.emit(TokenTypeString)
			return lexSource
		}
	}
}

// lexNumber scans an integer or float literal.
func lexNumber(l *Lexer) stateFn {
	const digits = "0123456789"
	kind := TokenTypeInteger

	l.acceptRun(digits)
	if l.accept(".") {
		kind = TokenTypeFloat
		l.acceptRun(digits)
	}

	if l.accept("eE") {
		l.accept("+-")
		if l.acceptRun(digits) == 0 {
			return l.errorf(l.pos, "malformed number literal")
		}
		kind = TokenTypeFloat
	}

	l.emit(kind)
	return lexSource
}

// lexIdentifierOrKeyword scans an identifier or a reserved keyword.
func lexIdentifierOrKeyword(l *Lexer) stateFn {
	for {
		r := l.next()
		if r == eofRune || !isIdentPart(r) {
			if r != eofRune {
				l.backup()
			}
			break
		}
	}

	if kind, ok := keywords[l.input[l.start:l.pos]]; ok {
		l.emit(kind)
	} else {
		l.emit(TokenTypeIdentifier)
	}
	return lexSource
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
