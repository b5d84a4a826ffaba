package diag

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosition(t *testing.T) {
	samples := []struct {
		line, col int
		expected  string
	}{
		{1, 0, "1:0"},
		{12, 7, "12:7"},
		{UnknownPos, 3, "Unknown"},
		{3, UnknownPos, "Unknown"},
		{UnknownPos, UnknownPos, "Unknown"},
	}
	for _, s := range samples {
		m := ErrorMessage{Line: s.line, Column: s.col}
		assert.Equal(t, s.expected, m.Position())
	}
}

func TestListOrder(t *testing.T) {
	var l List
	l.Append(Code, 1, 3, "c1")
	l.Append(Unknown, UnknownPos, UnknownPos, "u")
	l.Append(Grammar, 2, 1, "g1")
	l.Append(Code, 1, 5, "c2")
	l.Append(Compiler, 4, 4, "x")
	l.Append(Grammar, 1, 1, "g2")

	var got []string
	for _, m := range l.Messages() {
		got = append(got, m.Message)
	}
	assert.Equal(t, []string{"g1", "g2", "x", "c1", "c2", "u"}, got)

	p, ok := l.Primary()
	require.True(t, ok)
	assert.Equal(t, "g1", p.Message)
	assert.Equal(t, 2, l.Count(Code))
	assert.True(t, l.Has(Compiler))
	assert.Equal(t, 6, l.Len())
}

func TestExtend(t *testing.T) {
	var a, b List
	a.Append(Code, 1, 0, "code")
	b.Append(Grammar, 1, 1, "grammar")
	a.Extend(b)
	assert.Equal(t, Grammar, a[0].Source)
	assert.Equal(t, Code, a[1].Source)

	var empty List
	_, ok := empty.Primary()
	assert.False(t, ok)
}

type posError struct{ line, col int }

func (e posError) Error() string            { return "positioned" }
func (e posError) Position() (line, col int) { return e.line, e.col }
func (e posError) ErrorCode() int            { return 42 }

func TestFromError(t *testing.T) {
	m := FromError(Grammar, fmt.Errorf("loading: %w", posError{3, 4}))
	assert.Equal(t, 3, m.Line)
	assert.Equal(t, 4, m.Column)
	assert.Equal(t, 42, m.Code)
	assert.Equal(t, "loading: positioned", m.Message)

	m = FromError(Unknown, errors.New("boom"))
	assert.Equal(t, "Unknown", m.Position())
	assert.Equal(t, Unknown, m.Source)

	var l List
	l.AddError(Code, nil)
	assert.Zero(t, l.Len())
}

func TestSourceText(t *testing.T) {
	data, err := json.Marshal(ErrorMessage{Line: 1, Column: 2, Message: "m", Source: Compiler})
	require.NoError(t, err)
	assert.JSONEq(t, `{"line":1,"column":2,"message":"m","source":"COMPILER"}`, string(data))

	var m ErrorMessage
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, Compiler, m.Source)
	assert.Error(t, json.Unmarshal([]byte(`{"source":"NOPE"}`), &m))
}
