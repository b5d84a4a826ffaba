// Package source defines grammar source text with line and column lookup.
package source

import (
	"bytes"
	"unicode/utf8"
)

// Source is a named immutable text.
type Source struct {
	name       string
	content    []byte
	lineStarts []int
}

// New creates new Source, content must not be changed afterwards.
func New(name string, content []byte) *Source {
	s := &Source{name: name, content: content}
	lineCnt := bytes.Count(content, []byte("\n")) + 1
	s.lineStarts = make([]int, 1, lineCnt)
	for i, c := range content {
		if c == '\n' {
			s.lineStarts = append(s.lineStarts, i+1)
		}
	}
	return s
}

// Name returns source name, may be empty.
func (s *Source) Name() string {
	return s.name
}

// Content returns source content.
func (s *Source) Content() []byte {
	return s.content
}

// Len returns content length in bytes.
func (s *Source) Len() int {
	return len(s.content)
}

// LineCol converts byte offset to 1-based line and column numbers.
// Columns are counted in runes. Offsets outside content are clamped.
func (s *Source) LineCol(pos int) (line, col int) {
	if pos < 0 {
		pos = 0
	} else if pos > len(s.content) {
		pos = len(s.content)
	}

	lineIndex := s.findLineIndex(pos)
	lineStart := s.lineStarts[lineIndex]
	return lineIndex + 1, utf8.RuneCount(s.content[lineStart:pos]) + 1
}

// Pos converts 1-based line and column numbers to byte offset.
// Returns 0 for non-positive values and content length for values beyond content.
func (s *Source) Pos(line, col int) int {
	if line <= 0 || col <= 0 {
		return 0
	}

	if line > len(s.lineStarts) {
		return len(s.content)
	}

	res := s.lineStarts[line-1]
	for col > 1 && res < len(s.content) && s.content[res] != '\n' {
		_, size := utf8.DecodeRune(s.content[res:])
		res += size
		col--
	}
	return res
}

// Text returns content between two byte offsets.
func (s *Source) Text(from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(s.content) {
		to = len(s.content)
	}
	if from >= to {
		return ""
	}
	return string(s.content[from:to])
}

func (s *Source) findLineIndex(pos int) int {
	l := 0
	h := len(s.lineStarts) - 1
	for l < h {
		i := (l + h + 1) >> 1
		if s.lineStarts[i] <= pos {
			l = i
		} else {
			h = i - 1
		}
	}
	return l
}

// Pos contains position in source.
type Pos struct {
	src            *Source
	pos, line, col int
}

// NewPos creates position for byte offset.
func NewPos(s *Source, pos int) Pos {
	line, col := s.LineCol(pos)
	return Pos{s, pos, line, col}
}

// Source returns the source, may be nil.
func (p Pos) Source() *Source {
	return p.src
}

// SourceName returns source name or empty string.
func (p Pos) SourceName() string {
	if p.src == nil {
		return ""
	}
	return p.src.name
}

// Pos returns byte offset.
func (p Pos) Pos() int {
	return p.pos
}

// Line returns 1-based line number or 0.
func (p Pos) Line() int {
	return p.line
}

// Col returns 1-based column number or 0.
func (p Pos) Col() int {
	return p.col
}
