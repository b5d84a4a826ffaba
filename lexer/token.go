package lexer

import (
	"github.com/ava12/g4scope/source"
)

// Token is a lexeme fetched from a source.
type Token struct {
	tokenType int
	typeName  string
	text      string
	source    *source.Source
	pos       int
	line, col int
}

func (t *Token) Type() int {
	return t.tokenType
}

func (t *Token) TypeName() string {
	return t.typeName
}

func (t *Token) Text() string {
	return t.text
}

func (t *Token) Source() *source.Source {
	return t.source
}

func (t *Token) SourceName() string {
	if t.source == nil {
		return ""
	}
	return t.source.Name()
}

// Pos returns byte offset of the first token byte.
func (t *Token) Pos() int {
	return t.pos
}

// End returns byte offset following the last token byte.
func (t *Token) End() int {
	return t.pos + len(t.text)
}

func (t *Token) Line() int {
	return t.line
}

func (t *Token) Col() int {
	return t.col
}

// NewToken creates a token located at sp.
func NewToken(tokenType int, typeName, text string, sp source.Pos) *Token {
	return &Token{tokenType, typeName, text, sp.Source(), sp.Pos(), sp.Line(), sp.Col()}
}

const (
	EofTokenType = -2
	EofTokenName = "-end-of-file-"
)

// EofToken creates a token located at the end of source.
func EofToken(s *source.Source) *Token {
	t := &Token{tokenType: EofTokenType, typeName: EofTokenName, source: s}
	if s != nil {
		t.pos = s.Len()
		t.line, t.col = s.LineCol(s.Len())
	}
	return t
}
