package atn

import (
	"errors"
	"fmt"
	"strings"
)

// Token is a lexeme of the input text.
// Line is 1-based, Column is 0-based and counted in runes,
// Start and Stop are byte offsets of the first and following the last token byte.
// Index is the position of the token in the full token list.
type Token struct {
	Type    int    `json:"type"`
	Text    string `json:"text"`
	Channel int    `json:"channel,omitempty"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Start   int    `json:"start"`
	Stop    int    `json:"stop"`
	Index   int    `json:"index"`
}

// SyntaxError is a problem found in the input text.
type SyntaxError struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d:%d %s", e.Line, e.Column, e.Message)
}

// Position returns error line and column.
func (e *SyntaxError) Position() (line, col int) {
	return e.Line, e.Column
}

// ErrInterrupted is returned when recognition stops because its context is done.
var ErrInterrupted = errors.New("recognition interrupted")

var displayEscaper = strings.NewReplacer("\n", "\\n", "\r", "\\r", "\t", "\\t")

// QuoteText escapes line breaks and tabs and wraps text in single quotes.
func QuoteText(text string) string {
	return "'" + displayEscaper.Replace(text) + "'"
}

// TokenDisplay returns token text as shown in error messages.
func TokenDisplay(t *Token) string {
	if t == nil {
		return "<no token>"
	}
	if t.Type == EOF {
		return QuoteText("<EOF>")
	}
	return QuoteText(t.Text)
}
