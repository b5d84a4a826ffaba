// Package diag collects classified error messages produced by all pipeline stages.
package diag

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// UnknownPos is the line or column value for an unknown position.
const UnknownPos = -1

// Source tells which pipeline stage produced an error message.
type Source int

// Sources in pipeline order:
const (
	Grammar Source = iota
	Compiler
	Code
	Unknown
)

var sourceNames = []string{"GRAMMAR", "COMPILER", "CODE", "UNKNOWN"}

func (s Source) String() string {
	if s < Grammar || s > Unknown {
		return fmt.Sprintf("Source(%d)", int(s))
	}
	return sourceNames[s]
}

func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Source) UnmarshalText(text []byte) error {
	name := strings.ToUpper(string(text))
	for i, n := range sourceNames {
		if n == name {
			*s = Source(i)
			return nil
		}
	}
	return fmt.Errorf("unknown error source %q", text)
}

// ErrorMessage is a single classified error.
// Line and Column are UnknownPos if the position is not known.
type ErrorMessage struct {
	Line    int    `json:"line" msgpack:"line"`
	Column  int    `json:"column" msgpack:"column"`
	Message string `json:"message,omitempty" msgpack:"message,omitempty"`
	Source  Source `json:"source" msgpack:"source"`
	Code    int    `json:"code,omitempty" msgpack:"code,omitempty"`
}

// HasPosition returns false for the unknown position.
func (m ErrorMessage) HasPosition() bool {
	return m.Line != UnknownPos && m.Column != UnknownPos
}

// Position returns "line:column" or "Unknown".
func (m ErrorMessage) Position() string {
	if !m.HasPosition() {
		return "Unknown"
	}
	return fmt.Sprintf("%d:%d", m.Line, m.Column)
}

func (m ErrorMessage) String() string {
	return fmt.Sprintf("%s %s: %s", m.Source, m.Position(), m.Message)
}

// Positioner is implemented by errors carrying source position, e.g. *g4scope.Error.
type Positioner interface {
	Position() (line, col int)
}

// Coder is implemented by errors carrying numeric code.
type Coder interface {
	ErrorCode() int
}

// FromError converts err to an error message of the given source.
// Position and code are taken from the first error in the chain that provides them.
func FromError(src Source, err error) ErrorMessage {
	m := ErrorMessage{Line: UnknownPos, Column: UnknownPos, Source: src}
	if err == nil {
		return m
	}

	m.Message = err.Error()
	var p Positioner
	if errors.As(err, &p) {
		m.Line, m.Column = p.Position()
	}
	var c Coder
	if errors.As(err, &c) {
		m.Code = c.ErrorCode()
	}
	return m
}

// List is an ordered error list, messages are kept in Source order,
// messages of the same source keep insertion order. Zero value is an empty list.
type List []ErrorMessage

// Add inserts messages after all messages of the same or preceding sources.
func (l *List) Add(ms ...ErrorMessage) {
	for _, m := range ms {
		i := sort.Search(len(*l), func(i int) bool {
			return (*l)[i].Source > m.Source
		})
		*l = append(*l, ErrorMessage{})
		copy((*l)[i+1:], (*l)[i:])
		(*l)[i] = m
	}
}

// Append adds a message built from its parts.
func (l *List) Append(src Source, line, col int, msg string) {
	l.Add(ErrorMessage{Line: line, Column: col, Message: msg, Source: src})
}

// AddError adds an error converted with FromError, nil err is ignored.
func (l *List) AddError(src Source, err error) {
	if err != nil {
		l.Add(FromError(src, err))
	}
}

// Extend adds all messages of another list.
func (l *List) Extend(other List) {
	l.Add(other...)
}

// Len returns the number of messages.
func (l List) Len() int {
	return len(l)
}

// Primary returns the first message, false if the list is empty.
func (l List) Primary() (ErrorMessage, bool) {
	if len(l) == 0 {
		return ErrorMessage{}, false
	}
	return l[0], true
}

// Messages returns a copy of all messages.
func (l List) Messages() []ErrorMessage {
	res := make([]ErrorMessage, len(l))
	copy(res, l)
	return res
}

// Has returns true if the list contains a message of the source.
func (l List) Has(src Source) bool {
	return l.Count(src) > 0
}

// Count returns the number of messages of the source.
func (l List) Count(src Source) int {
	n := 0
	for _, m := range l {
		if m.Source == src {
			n++
		}
	}
	return n
}
