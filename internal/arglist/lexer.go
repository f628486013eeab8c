package arglist

import (
	"fmt"

	"github.com/dshills/doxylink/pkg/types"
)

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokNumber
	tokString
	tokPunct
	tokEllipsis
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func isIdentStart(c byte) bool {
	return c == '_' || c == ':' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// tokenize splits argument-list text into tokens. Identifiers keep their "::"
// separators so "std::string" is a single token. offset is added to every
// position so errors point into the caller's original text.
func tokenize(text string, offset int, original string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case isSpace(c):
			i++
		case isIdentStart(c):
			start := i
			for i < len(text) && isIdentChar(text[i]) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: text[start:i], pos: offset + start})
		case isDigit(c) || ((c == '-' || c == '.') && i+1 < len(text) && isDigit(text[i+1])):
			start := i
			i++
			for i < len(text) && (isDigit(text[i]) || text[i] == '.' || text[i] == 'x' ||
				text[i] == 'e' || (text[i] >= 'a' && text[i] <= 'f') || (text[i] >= 'A' && text[i] <= 'F') ||
				text[i] == 'u' || text[i] == 'U' || text[i] == 'l' || text[i] == 'L') {
				i++
			}
			toks = append(toks, token{kind: tokNumber, text: text[start:i], pos: offset + start})
		case c == '"' || c == '\'':
			start := i
			i++
			for i < len(text) && text[i] != c {
				if text[i] == '\\' {
					i++
				}
				i++
			}
			if i >= len(text) {
				return nil, &types.ParseError{Text: original, Pos: offset + start, Message: "unterminated string literal"}
			}
			i++
			toks = append(toks, token{kind: tokString, text: text[start:i], pos: offset + start})
		case c == '.' && i+2 < len(text) && text[i+1] == '.' && text[i+2] == '.':
			toks = append(toks, token{kind: tokEllipsis, text: "...", pos: offset + i})
			i += 3
		case isPunct(c):
			toks = append(toks, token{kind: tokPunct, text: string(c), pos: offset + i})
			i++
		default:
			return nil, &types.ParseError{
				Text:    original,
				Pos:     offset + i,
				Message: fmt.Sprintf("invalid character %q", c),
			}
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: offset + len(text)})
	return toks, nil
}

func isPunct(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', ',', '*', '&', '=',
		'|', '^', '~', '!', '+', '-', '/', '%', '.', '?', ';':
		return true
	default:
		return false
	}
}
