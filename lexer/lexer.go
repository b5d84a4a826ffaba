// Package lexer defines lexical analyzer.
package lexer

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/ava12/g4scope"
	"github.com/ava12/g4scope/source"
)

const (
	// ErrorTokenType is the type for fake tokens capturing broken lexemes (e.g. unterminated literals).
	// Lexer will never return a token of this type, an error with message containing token text will be returned instead.
	ErrorTokenType = -1

	// ErrorTokenName is the type name for ErrorTokenType.
	ErrorTokenName = "-error-"
)

// Error codes used by lexer:
const (
	// WrongCharError indicates that lexer cannot fetch any token at current position.
	// Error message contains the rune at current source position.
	WrongCharError = g4scope.LexicalErrors + iota

	// BadTokenError indicates that lexer has fetched a token of ErrorTokenType.
	BadTokenError
)

// TokenType describes token type for specific capturing group of regular expression.
type TokenType struct {
	// Type contains token type, non-negative. ErrorTokenType is treated specially.
	Type int

	// TypeName contains token type name, may be any value.
	TypeName string
}

// Lexer performs lexical analysis of a Cursor using regexp.Regexp.
// Lexer itself is immutable and safe for concurrent use, but it affects cursor state.
// Each token type maps to its own regexp capturing group index.
// A match containing no captured groups is treated as insignificant lexeme (e.g. whitespace or comment),
// in this case lexer tries to fetch a token again at new position.
// Every byte of source must belong to some lexeme.
type Lexer struct {
	types []TokenType
	re    *regexp.Regexp
}

// New creates new Lexer.
// Each n-th element of types describes token type for (n+1)-th regexp capturing group.
// A group that has no description or that has negative token type is treated as ErrorTokenType.
func New(re *regexp.Regexp, types []TokenType) *Lexer {
	ts := make([]TokenType, len(types))
	for i, t := range types {
		ts[i].TypeName = t.TypeName
		if t.Type >= 0 {
			ts[i].Type = t.Type
		} else {
			ts[i].Type = ErrorTokenType
		}
	}
	return &Lexer{types: ts, re: re}
}

// Cursor holds current position in a source.
type Cursor struct {
	src *source.Source
	pos int
}

// NewCursor creates a cursor pointing to the beginning of the source.
func NewCursor(src *source.Source) *Cursor {
	return &Cursor{src: src}
}

// Source returns the source.
func (c *Cursor) Source() *source.Source {
	return c.src
}

// Pos returns current byte offset.
func (c *Cursor) Pos() int {
	return c.pos
}

// Rest returns content starting at current position.
func (c *Cursor) Rest() []byte {
	return c.src.Content()[c.pos:]
}

// AtEnd returns true if current position is at the end of source.
func (c *Cursor) AtEnd() bool {
	return c.pos >= c.src.Len()
}

// Skip advances current position by size bytes but not beyond the end of source.
func (c *Cursor) Skip(size int) {
	c.pos += size
	if c.pos > c.src.Len() {
		c.pos = c.src.Len()
	}
}

func wrongCharError(c *Cursor) *g4scope.Error {
	r, _ := utf8.DecodeRune(c.Rest())
	line, col := c.src.LineCol(c.pos)
	msg := fmt.Sprintf("wrong char \"%c\" (u+%x)", r, r)
	return g4scope.NewError(WrongCharError, msg, c.src.Name(), line, col)
}

func wrongTokenError(t *Token) *g4scope.Error {
	return g4scope.FormatErrorPos(t, BadTokenError, "bad token %q", t.Text())
}

func (l *Lexer) matchToken(c *Cursor) (*Token, int, error) {
	content := c.Rest()
	match := l.re.FindSubmatchIndex(content)
	if len(match) == 0 || match[0] != 0 || match[1] <= match[0] {
		return nil, 0, wrongCharError(c)
	}

	for i := 2; i < len(match); i += 2 {
		if match[i] < 0 || match[i+1] < 0 {
			continue
		}

		tokenType := ErrorTokenType
		typeName := ErrorTokenName
		if len(l.types) >= (i >> 1) {
			tokenType = l.types[(i>>1)-1].Type
			typeName = l.types[(i>>1)-1].TypeName
		}
		sp := source.NewPos(c.src, c.pos+match[i])
		token := NewToken(tokenType, typeName, string(content[match[i]:match[i+1]]), sp)
		if tokenType == ErrorTokenType {
			return nil, 0, wrongTokenError(token)
		}

		return token, match[1], nil
	}

	return nil, match[1], nil
}

// Next fetches token starting at current cursor position and advances the cursor.
// Returns nil token and *g4scope.Error and does not make any changes if there is a lexical error.
// Returns EoF token if current position is at the end of source.
func (l *Lexer) Next(c *Cursor) (*Token, error) {
	for {
		if c.AtEnd() {
			return EofToken(c.src), nil
		}

		t, advance, e := l.matchToken(c)
		if e != nil {
			return nil, e
		}

		c.Skip(advance)
		if t != nil {
			return t, nil
		}
	}
}
