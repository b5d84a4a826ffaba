package atn

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordNetwork() *Network {
	return &Network{
		GrammarName: "Words",
		Vocabulary: Vocabulary{
			Literals: []string{"", "','", "", "", ""},
			Symbols:  []string{"", "", "WORD", "NUM", "STR"},
		},
		Channels:       []string{"DEFAULT_TOKEN_CHANNEL", "HIDDEN"},
		LexerRuleNames: []string{"T__0", "WORD", "NUM", "WS", "QUOTE", "STR", "ESC"},
		Modes: []Mode{
			{Name: "DEFAULT_MODE", Rules: []LexerRule{
				{Name: "T__0", Pattern: ",", Type: 1},
				{Name: "WORD", Pattern: "[a-z]+", Type: 2},
				{Name: "NUM", Pattern: "[0-9]+|[a-z0-9]+", Type: 3},
				{Name: "WS", Pattern: "[ \\n]+", Skip: true},
				{Name: "QUOTE", Pattern: "\"", More: true, PushMode: "STRING"},
			}},
			{Name: "STRING", Rules: []LexerRule{
				{Name: "STR", Pattern: "\"", Type: 4, PopMode: true},
				{Name: "ESC", Pattern: "[^\"]", More: true},
			}},
		},
	}
}

func tokenize(t *testing.T, net *Network, input string) ([]*Token, *Lexer) {
	l, e := NewLexer(net, input)
	require.NoError(t, e)
	tokens, e := l.Tokenize(context.Background())
	require.NoError(t, e)
	require.NotEmpty(t, tokens)
	require.Equal(t, EOF, tokens[len(tokens)-1].Type)
	return tokens, l
}

func tokenTexts(tokens []*Token) []string {
	var res []string
	for _, t := range tokens {
		res = append(res, t.Text)
	}
	return res
}

func TestLongestMatchAndTies(t *testing.T) {
	tokens, l := tokenize(t, wordNetwork(), "abc a1 12,x")
	assert.Empty(t, l.Errors)
	assert.Equal(t, []string{"abc", "a1", "12", ",", "x", "<EOF>"}, tokenTexts(tokens))
	types := []int{2, 3, 3, 1, 2, EOF}
	for i, tok := range tokens {
		assert.Equal(t, types[i], tok.Type, "token %d", i)
		assert.Equal(t, i, tok.Index)
	}
}

func TestModesAndMore(t *testing.T) {
	tokens, l := tokenize(t, wordNetwork(), "say \"hi there\" ok")
	assert.Empty(t, l.Errors)
	assert.Equal(t, []string{"say", "\"hi there\"", "ok", "<EOF>"}, tokenTexts(tokens))
	assert.Equal(t, 4, tokens[1].Type)
	assert.Equal(t, 4, tokens[1].Column)
	assert.Equal(t, 0, l.Mode())
}

func TestRecognitionError(t *testing.T) {
	tokens, l := tokenize(t, wordNetwork(), "one\n tw#o")
	assert.Equal(t, []string{"one", "tw", "o", "<EOF>"}, tokenTexts(tokens))
	require.Len(t, l.Errors, 1)
	assert.Equal(t, 2, l.Errors[0].Line)
	assert.Equal(t, 3, l.Errors[0].Column)
	assert.Equal(t, "token recognition error at: '#'", l.Errors[0].Message)
	assert.Equal(t, 2, tokens[1].Line)
	assert.Equal(t, 1, tokens[1].Column)
}

func TestEmptyInput(t *testing.T) {
	tokens, _ := tokenize(t, wordNetwork(), "")
	require.Len(t, tokens, 1)
	assert.Equal(t, 1, tokens[0].Line)
	assert.Equal(t, 0, tokens[0].Column)
}

func TestLazyRule(t *testing.T) {
	net := &Network{
		Vocabulary: Vocabulary{Symbols: []string{"", "COMMENT", "ANY"}},
		Modes: []Mode{{Rules: []LexerRule{
			{Name: "COMMENT", Pattern: "/\\*(?s:.)*?\\*/", Type: 1, Lazy: true},
			{Name: "ANY", Pattern: "(?s:.)", Type: 2},
		}}},
	}
	tokens, _ := tokenize(t, net, "/* a */x/* b */")
	assert.Equal(t, []string{"/* a */", "x", "/* b */", "<EOF>"}, tokenTexts(tokens))
}

func TestBadNetwork(t *testing.T) {
	_, e := NewLexer(&Network{}, "")
	assert.Error(t, e)

	net := wordNetwork()
	net.Modes[0].Rules[0].PushMode = "NOPE"
	_, e = NewLexer(net, "")
	assert.ErrorContains(t, e, "NOPE")

	net = wordNetwork()
	net.Modes[0].Rules[0].Pattern = "("
	_, e = NewLexer(net, "")
	assert.Error(t, e)
}

func TestTokenizeInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	input := make([]byte, 0, 2*checkInterval)
	for i := 0; i < checkInterval; i++ {
		input = append(input, 'a', ' ')
	}
	l, e := NewLexer(wordNetwork(), string(input))
	require.NoError(t, e)
	tokens, e := l.Tokenize(ctx)
	assert.ErrorIs(t, e, ErrInterrupted)
	assert.ErrorIs(t, e, context.Canceled)
	assert.NotEmpty(t, tokens)
}
