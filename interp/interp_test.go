package interp

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava12/g4scope"
	"github.com/ava12/g4scope/atn"
	"github.com/ava12/g4scope/diag"
	"github.com/ava12/g4scope/grammar"
	"github.com/ava12/g4scope/tree"
)

const testGrammar = `grammar Test;
start : twoWords EOF ;
twoWords : WORD SPACE WORD ;
WORD : [a-zA-Z0-9_]+ ;
SPACE : ' ' | '\t' ;
`

func load(t *testing.T, text string) *grammar.Model {
	m, errs := grammar.Load("Test.g4", text)
	require.Empty(t, errs)
	require.NotNil(t, m)
	return m
}

func TestRunValid(t *testing.T) {
	res := Run(context.Background(), load(t, testGrammar), "one two")
	assert.True(t, res.OK(), "%v", res.Errors)
	assert.Equal(t, []string{"start", "twoWords"}, res.RuleNames)
	assert.Equal(t, []g4scope.Token{
		{Text: "one", Type: "WORD", Line: 1, Column: 0},
		{Text: " ", Type: "SPACE", Line: 1, Column: 3},
		{Text: "two", Type: "WORD", Line: 1, Column: 4},
	}, res.Tokens)
	require.True(t, res.HasTree())
	assert.Equal(t, "(start (twoWords one   two) <EOF>)", tree.String(res.Tree))
}

func TestRunRecognitionError(t *testing.T) {
	res := Run(context.Background(), load(t, testGrammar), "one, two")
	require.Len(t, res.Errors, 1)
	e := res.Errors[0]
	assert.Equal(t, diag.Code, e.Source)
	assert.Equal(t, 1, e.Line)
	assert.Equal(t, 3, e.Column)
	assert.Equal(t, "token recognition error at: ','", e.Message)
	assert.Len(t, res.Tokens, 3)
	assert.True(t, res.HasTree())
}

func TestRunSyntaxError(t *testing.T) {
	res := Run(context.Background(), load(t, testGrammar), "one  two")
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, diag.Code, res.Errors[0].Source)
	assert.Equal(t, "extraneous input ' ' expecting WORD", res.Errors[0].Message)
	assert.True(t, res.HasTree())
}

func TestRunLexerOnly(t *testing.T) {
	m := load(t, "lexer grammar Words;\nWORD : [a-z]+ ;\nWS : ' '+ -> skip ;\n")
	res := Run(context.Background(), m, "")
	assert.True(t, res.OK())
	assert.NotNil(t, res.Tokens)
	assert.Empty(t, res.Tokens)
	assert.Nil(t, res.Tree)
	assert.Equal(t, []string{"WORD", "WS"}, res.RuleNames)

	res = Run(context.Background(), m, "a bc")
	assert.Equal(t, []g4scope.Token{
		{Text: "a", Type: "WORD", Line: 1, Column: 0},
		{Text: "bc", Type: "WORD", Line: 1, Column: 2},
	}, res.Tokens)
	assert.False(t, res.HasTree())
}

func TestRunCancelled(t *testing.T) {
	m := load(t, testGrammar)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := Run(ctx, m, strings.Repeat("a ", 400))
	require.Len(t, res.Errors, 1)
	assert.Equal(t, diag.Unknown, res.Errors[0].Source)
	assert.Equal(t, "Unknown", res.Errors[0].Position())
	assert.NotEmpty(t, res.Tokens)
	assert.Nil(t, res.Tree)
}

func TestRunInternalFailure(t *testing.T) {
	m := &grammar.Model{
		Name:      "Broken",
		RuleNames: []string{"start"},
		Network: &atn.Network{
			Vocabulary: atn.Vocabulary{Literals: []string{"", ""}, Symbols: []string{"", "A"}},
			Modes:      []atn.Mode{{Name: "DEFAULT_MODE", Rules: []atn.LexerRule{{Name: "A", Pattern: "a", Type: 1}}}},
			RuleNames:  []string{"start"},
		},
	}
	res := Run(context.Background(), m, "a")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, diag.Unknown, res.Errors[0].Source)
	assert.Contains(t, res.Errors[0].Message, "internal error")
	assert.Len(t, res.Tokens, 1)

	res = Run(context.Background(), nil, "a")
	assert.Equal(t, 1, res.Errors.Count(diag.Unknown))
}
