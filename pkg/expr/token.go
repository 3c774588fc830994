package expr

import (
	"fmt"
	"strings"
	"unicode"
)

// tokenKind identifies the lexical class of a token.
type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenNumber
	tokenString
	tokenBool
	tokenLParen
	tokenRParen
	tokenLBracket
	tokenRBracket
	tokenComma
	tokenOr       // ||
	tokenAnd      // &&
	tokenNot      // !
	tokenEq       // ==
	tokenNeq      // !=
	tokenGte      // >=
	tokenLte      // <=
	tokenGt       // >
	tokenLt       // <
	tokenIn       // in
)

// token is a single lexical token with its source text.
type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tokenEOF {
		return "end of expression"
	}
	return fmt.Sprintf("%q", t.text)
}

// lexer converts an expression string into a token stream.
type lexer struct {
	input string
	pos   int
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

// tokens lexes the entire input. It returns a syntax error for unterminated
// strings or characters outside the language.
func (l *lexer) tokens() ([]token, error) {
	var toks []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokenEOF {
			return toks, nil
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return token{kind: tokenEOF, pos: l.pos}, nil
	}

	start := l.pos
	ch := l.input[l.pos]

	switch ch {
	case '(':
		l.pos++
		return token{tokenLParen, "(", start}, nil
	case ')':
		l.pos++
		return token{tokenRParen, ")", start}, nil
	case '[':
		l.pos++
		return token{tokenLBracket, "[", start}, nil
	case ']':
		l.pos++
		return token{tokenRBracket, "]", start}, nil
	case ',':
		l.pos++
		return token{tokenComma, ",", start}, nil
	case '\'', '"':
		return l.lexString(ch)
	case '|':
		if l.peekAt(1) == '|' {
			l.pos += 2
			return token{tokenOr, "||", start}, nil
		}
		return token{}, fmt.Errorf("unexpected character %q at position %d", ch, start)
	case '&':
		if l.peekAt(1) == '&' {
			l.pos += 2
			return token{tokenAnd, "&&", start}, nil
		}
		return token{}, fmt.Errorf("unexpected character %q at position %d", ch, start)
	case '=':
		if l.peekAt(1) == '=' {
			l.pos += 2
			return token{tokenEq, "==", start}, nil
		}
		return token{}, fmt.Errorf("unexpected character %q at position %d", ch, start)
	case '!':
		if l.peekAt(1) == '=' {
			l.pos += 2
			return token{tokenNeq, "!=", start}, nil
		}
		l.pos++
		return token{tokenNot, "!", start}, nil
	case '>':
		if l.peekAt(1) == '=' {
			l.pos += 2
			return token{tokenGte, ">=", start}, nil
		}
		l.pos++
		return token{tokenGt, ">", start}, nil
	case '<':
		if l.peekAt(1) == '=' {
			l.pos += 2
			return token{tokenLte, "<=", start}, nil
		}
		l.pos++
		return token{tokenLt, "<", start}, nil
	}

	if ch >= '0' && ch <= '9' || ch == '-' && l.peekAt(1) >= '0' && l.peekAt(1) <= '9' {
		return l.lexNumber()
	}

	if isIdentStart(rune(ch)) {
		return l.lexIdent()
	}

	return token{}, fmt.Errorf("unexpected character %q at position %d", ch, start)
}

// lexString consumes a single- or double-quoted string literal. The language
// does not require escape sequences, so the literal runs to the next matching
// quote.
func (l *lexer) lexString(quote byte) (token, error) {
	start := l.pos
	l.pos++ // opening quote
	for l.pos < len(l.input) {
		if l.input[l.pos] == quote {
			text := l.input[start+1 : l.pos]
			l.pos++
			return token{tokenString, text, start}, nil
		}
		l.pos++
	}
	return token{}, fmt.Errorf("unterminated string starting at position %d", start)
}

func (l *lexer) lexNumber() (token, error) {
	start := l.pos
	if l.input[l.pos] == '-' {
		l.pos++
	}
	for l.pos < len(l.input) && (l.input[l.pos] >= '0' && l.input[l.pos] <= '9' || l.input[l.pos] == '.') {
		l.pos++
	}
	return token{tokenNumber, l.input[start:l.pos], start}, nil
}

// lexIdent consumes an identifier or dotted field path. Keywords (in, true,
// false) are promoted to their own token kinds.
func (l *lexer) lexIdent() (token, error) {
	start := l.pos
	for l.pos < len(l.input) && isIdentPart(rune(l.input[l.pos])) {
		l.pos++
	}
	text := l.input[start:l.pos]

	switch strings.ToLower(text) {
	case "in":
		return token{tokenIn, text, start}, nil
	case "true", "false":
		return token{tokenBool, strings.ToLower(text), start}, nil
	}
	return token{tokenIdent, text, start}, nil
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
}

func (l *lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
