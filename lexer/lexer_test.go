package lexer

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava12/g4scope"
	"github.com/ava12/g4scope/source"
)

var (
	tokenRe      = regexp.MustCompile("(?s:[\\s]+|(\\d+)|([a-z_][a-z0-9_]*)|('.*?')|('.{0,10}))")
	tokenTypes   = []TokenType{{1, "number"}, {2, "name"}, {3, "string"}}
	tokenSamples = "123 foo 'bar'"
)

func cursor(text string) *Cursor {
	return NewCursor(source.New("", []byte(text)))
}

func TestEmpty(t *testing.T) {
	sources := []string{"", " ", "  ", " \t\r\n "}
	l := New(tokenRe, tokenTypes)
	for _, src := range sources {
		tok, e := l.Next(cursor(src))
		require.NoError(t, e, "source %q", src)
		assert.Equal(t, EofTokenType, tok.Type(), "source %q", src)
		assert.Equal(t, EofTokenName, tok.TypeName(), "source %q", src)
	}
}

func TestTokenSamples(t *testing.T) {
	l := New(tokenRe, tokenTypes)
	c := cursor(tokenSamples)
	for _, tokType := range tokenTypes {
		tok, e := l.Next(c)
		require.NoError(t, e)
		assert.Equal(t, tokType.TypeName, tok.TypeName())
		assert.Equal(t, tokType.Type, tok.Type())
	}

	tok, e := l.Next(c)
	require.NoError(t, e)
	assert.Equal(t, EofTokenName, tok.TypeName())
	assert.Equal(t, len(tokenSamples), tok.Pos())
}

func TestTokenPositions(t *testing.T) {
	l := New(tokenRe, tokenTypes)
	c := cursor("foo\n  12")
	tok, e := l.Next(c)
	require.NoError(t, e)
	assert.Equal(t, 1, tok.Line())
	assert.Equal(t, 1, tok.Col())
	assert.Equal(t, 3, tok.End())

	tok, e = l.Next(c)
	require.NoError(t, e)
	assert.Equal(t, "12", tok.Text())
	assert.Equal(t, 2, tok.Line())
	assert.Equal(t, 3, tok.Col())
	assert.Equal(t, 6, tok.Pos())
}

func TestBrokenToken(t *testing.T) {
	l := New(tokenRe, tokenTypes)
	c := cursor("\n  '*  *")
	tok, e := l.Next(c)
	require.Nil(t, tok)

	var ee *g4scope.Error
	require.ErrorAs(t, e, &ee)
	assert.Equal(t, BadTokenError, ee.Code)
	assert.Equal(t, 2, ee.Line)
	assert.Equal(t, 3, ee.Col)
	assert.Contains(t, ee.Message, "\"'*  *\"")
}

func TestWrongChar(t *testing.T) {
	l := New(tokenRe, tokenTypes)
	c := cursor("12 #")
	_, e := l.Next(c)
	require.NoError(t, e)

	tok, e := l.Next(c)
	require.Nil(t, tok)
	var ee *g4scope.Error
	require.ErrorAs(t, e, &ee)
	assert.Equal(t, WrongCharError, ee.Code)
	assert.Equal(t, 4, ee.Col)
	assert.Equal(t, 3, c.Pos())
}
