package codec

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLBrace
	tokRBrace
	tokLBracket
	tokRBracket
	tokColon
	tokComma
	tokString
	tokNull
	tokWord
	// tokInvalid carries a lexical fault in text; the parser decides whether
	// it ruins one record or the whole document.
	tokInvalid
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of document"
	case tokLBrace:
		return "'{'"
	case tokRBrace:
		return "'}'"
	case tokLBracket:
		return "'['"
	case tokRBracket:
		return "']'"
	case tokColon:
		return "':'"
	case tokComma:
		return "','"
	case tokString:
		return "string"
	case tokNull:
		return "null"
	case tokInvalid:
		return "invalid token"
	default:
		return "word"
	}
}

type token struct {
	kind tokenKind
	// text holds the unescaped value of a string, the raw text of a word or
	// the fault of an invalid token.
	text string
	line int
}

// lexer splits a document into tokens. String escapes are resolved here, in
// a single left-to-right pass, so every escape sequence is reversed exactly
// once regardless of what surrounds it.
type lexer struct {
	src  []rune
	pos  int
	line int
}

func newLexer(data []byte) *lexer {
	return &lexer{src: []rune(string(data)), line: 1}
}

// tokenize never fails; faults surface as tokInvalid tokens. The last token
// is always tokEOF.
func (l *lexer) tokenize() []token {
	var out []token
	for {
		tok := l.next()
		out = append(out, tok)
		if tok.kind == tokEOF {
			return out
		}
	}
}

func (l *lexer) next() token {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: l.line}
	}

	r := l.src[l.pos]
	switch r {
	case '{':
		return l.single(tokLBrace)
	case '}':
		return l.single(tokRBrace)
	case '[':
		return l.single(tokLBracket)
	case ']':
		return l.single(tokRBracket)
	case ':':
		return l.single(tokColon)
	case ',':
		return l.single(tokComma)
	case '"':
		return l.readString()
	}

	if isWordRune(r) {
		return l.readWord()
	}
	l.pos++
	return invalid(l.line, fmt.Sprintf("unexpected character %q", r))
}

func invalid(line int, fault string) token {
	return token{kind: tokInvalid, text: fault, line: line}
}

func (l *lexer) single(kind tokenKind) token {
	l.pos++
	return token{kind: kind, line: l.line}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && unicode.IsSpace(l.src[l.pos]) {
		if l.src[l.pos] == '\n' {
			l.line++
		}
		l.pos++
	}
}

func (l *lexer) readWord() token {
	start := l.pos
	for l.pos < len(l.src) && isWordRune(l.src[l.pos]) {
		l.pos++
	}
	text := string(l.src[start:l.pos])
	if text == "null" {
		return token{kind: tokNull, text: text, line: l.line}
	}
	return token{kind: tokWord, text: text, line: l.line}
}

// readString consumes a quoted string. An unknown escape does not stop the
// scan: the string is read up to its closing quote and returned as
// tokInvalid, so the token stream stays aligned with the document.
func (l *lexer) readString() token {
	startLine := l.line
	l.pos++ // opening quote

	var (
		sb    strings.Builder
		fault string
	)
	for l.pos < len(l.src) {
		r := l.src[l.pos]
		switch r {
		case '"':
			l.pos++
			if fault != "" {
				return invalid(startLine, fault)
			}
			return token{kind: tokString, text: sb.String(), line: startLine}
		case '\\':
			if l.pos+1 >= len(l.src) {
				l.pos++
				return invalid(l.line, "dangling escape")
			}
			next := l.src[l.pos+1]
			unescaped, ok := unescapeRune(next)
			if !ok && fault == "" {
				fault = fmt.Sprintf("unknown escape \\%c", next)
			}
			if next == '\n' {
				l.line++
			}
			sb.WriteRune(unescaped)
			l.pos += 2
		default:
			if r == '\n' {
				l.line++
			}
			sb.WriteRune(r)
			l.pos++
		}
	}
	return invalid(startLine, "unterminated string")
}

func unescapeRune(r rune) (rune, bool) {
	switch r {
	case '\\':
		return '\\', true
	case '"':
		return '"', true
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	}
	return 0, false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.' || r == '+'
}
