package sparql

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIRI
	tokPName
	tokVar
	tokBlank
	tokString
	tokLangTag
	tokNumber
	tokWord
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of query"
	}
	return fmt.Sprintf("%q at offset %d", t.text, t.pos)
}

// is reports whether t is the keyword or punctuation s (keywords compare
// case-insensitively).
func (t token) is(s string) bool {
	switch t.kind {
	case tokWord:
		return strings.EqualFold(t.text, s)
	case tokPunct:
		return t.text == s
	}
	return false
}

type lexer struct {
	src string
	pos int
}

func tokenize(src string) ([]token, error) {
	l := &lexer{src: src}
	var tokens []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.kind == tokEOF {
			return tokens, nil
		}
	}
}

func (l *lexer) peekByte(offset int) byte {
	if l.pos+offset < len(l.src) {
		return l.src[l.pos+offset]
	}
	return 0
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		default:
			return
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpaceAndComments()
	start := l.pos
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: start}, nil
	}

	c := l.src[l.pos]
	switch {
	case c == '<':
		if end, ok := l.scanIRI(); ok {
			l.pos = end + 1
			return token{kind: tokIRI, text: l.src[start+1 : end], pos: start}, nil
		}
		l.pos++
		if l.peekByte(0) == '=' {
			l.pos++
		}
		return token{kind: tokPunct, text: l.src[start:l.pos], pos: start}, nil

	case c == '?' || c == '$':
		l.pos++
		name := l.scanName()
		if name == "" {
			return token{}, fmt.Errorf("empty variable name at offset %d", start)
		}
		return token{kind: tokVar, text: name, pos: start}, nil

	case c == '_' && l.peekByte(1) == ':':
		l.pos += 2
		name := l.scanName()
		if name == "" {
			return token{}, fmt.Errorf("empty blank node label at offset %d", start)
		}
		return token{kind: tokBlank, text: name, pos: start}, nil

	case c == '"' || c == '\'':
		s, err := l.scanString()
		if err != nil {
			return token{}, err
		}
		return token{kind: tokString, text: s, pos: start}, nil

	case c == '@':
		l.pos++
		name := l.scanWhile(func(r rune) bool {
			return r == '-' || r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r))
		})
		if name == "" {
			return token{}, fmt.Errorf("empty language tag at offset %d", start)
		}
		return token{kind: tokLangTag, text: name, pos: start}, nil

	case c >= '0' && c <= '9' || (c == '+' || c == '-' || c == '.') && isDigit(l.peekByte(1)):
		return token{kind: tokNumber, text: l.scanNumber(), pos: start}, nil

	case c == '^' && l.peekByte(1) == '^',
		c == '&' && l.peekByte(1) == '&',
		c == '|' && l.peekByte(1) == '|',
		c == '!' && l.peekByte(1) == '=',
		c == '>' && l.peekByte(1) == '=':
		l.pos += 2
		return token{kind: tokPunct, text: l.src[start:l.pos], pos: start}, nil

	case strings.IndexByte("{}()[].;,*=!>+-/|^", c) >= 0:
		l.pos++
		return token{kind: tokPunct, text: l.src[start:l.pos], pos: start}, nil

	case c == ':' || isNameStart(l.peekRune()):
		word := l.scanPName()
		if strings.Contains(word, ":") {
			return token{kind: tokPName, text: word, pos: start}, nil
		}
		return token{kind: tokWord, text: word, pos: start}, nil
	}

	return token{}, fmt.Errorf("unexpected character %q at offset %d", c, start)
}

func (l *lexer) peekRune() rune {
	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	return r
}

// scanIRI returns the offset of the closing '>' when the text at the current
// position is an IRI reference.
func (l *lexer) scanIRI() (int, bool) {
	for i := l.pos + 1; i < len(l.src); i++ {
		switch l.src[i] {
		case '>':
			return i, true
		case ' ', '\t', '\n', '\r', '<', '"', '{', '}', '|', '^', '`', '\\':
			return 0, false
		}
	}
	return 0, false
}

func (l *lexer) scanWhile(accept func(rune) bool) string {
	start := l.pos
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !accept(r) {
			break
		}
		l.pos += size
	}
	return l.src[start:l.pos]
}

func (l *lexer) scanName() string {
	return l.scanWhile(func(r rune) bool {
		return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
	})
}

// scanPName scans a keyword or a prefixed name. A trailing dot belongs to
// the enclosing triple block, not the name.
func (l *lexer) scanPName() string {
	start := l.pos
	l.scanWhile(func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == ':' || r == '%' || unicode.IsLetter(r) || unicode.IsDigit(r)
	})
	for l.pos > start+1 && l.src[l.pos-1] == '.' {
		l.pos--
	}
	return l.src[start:l.pos]
}

func (l *lexer) scanNumber() string {
	start := l.pos
	if c := l.src[l.pos]; c == '+' || c == '-' {
		l.pos++
	}
	for isDigit(l.peekByte(0)) {
		l.pos++
	}
	if l.peekByte(0) == '.' && isDigit(l.peekByte(1)) {
		l.pos++
		for isDigit(l.peekByte(0)) {
			l.pos++
		}
	}
	if c := l.peekByte(0); c == 'e' || c == 'E' {
		l.pos++
		if c := l.peekByte(0); c == '+' || c == '-' {
			l.pos++
		}
		for isDigit(l.peekByte(0)) {
			l.pos++
		}
	}
	return l.src[start:l.pos]
}

var stringEscapes = map[byte]byte{
	't': '\t', 'b': '\b', 'n': '\n', 'r': '\r', 'f': '\f', '"': '"', '\'': '\'', '\\': '\\',
}

func (l *lexer) scanString() (string, error) {
	start := l.pos
	quote := l.src[l.pos]
	long := strings.HasPrefix(l.src[l.pos:], strings.Repeat(string(quote), 3))
	if long {
		l.pos += 3
	} else {
		l.pos++
	}

	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\\':
			esc, ok := stringEscapes[l.peekByte(1)]
			if !ok {
				return "", fmt.Errorf("invalid escape in string at offset %d", l.pos)
			}
			b.WriteByte(esc)
			l.pos += 2
		case long && strings.HasPrefix(l.src[l.pos:], strings.Repeat(string(quote), 3)):
			l.pos += 3
			return b.String(), nil
		case !long && c == quote:
			l.pos++
			return b.String(), nil
		case !long && (c == '\n' || c == '\r'):
			return "", fmt.Errorf("unterminated string at offset %d", start)
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
	return "", fmt.Errorf("unterminated string at offset %d", start)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNameStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }
