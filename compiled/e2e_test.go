package compiled

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava12/g4scope/diag"
	"github.com/ava12/g4scope/tree"
)

func realEngine(t *testing.T) *Engine {
	if testing.Short() {
		t.Skip("compiled runs are skipped in short mode")
	}
	if !(GoToolchain{}).Available() {
		t.Skip("go command not found")
	}
	return New(Config{WorkDir: t.TempDir(), BuildTimeout: 5 * time.Minute}, nil, nil)
}

func TestCompiledCombined(t *testing.T) {
	eng := realEngine(t)
	for _, input := range []string{"one two", "one, two", "one\ttwo three"} {
		res := eng.Run(context.Background(), Request{Grammar: testGrammar, Input: input})
		assert.False(t, res.Errors.Has(diag.Compiler), "%v", res.Errors)
		assertSameAsInterpreted(t, testGrammar, input, res)
	}
}

func TestCompiledLexerOnly(t *testing.T) {
	eng := realEngine(t)
	res := eng.Run(context.Background(), Request{Grammar: wordsGrammar, Input: "ab  c"})
	require.True(t, res.OK(), "%v", res.Errors)
	assert.Nil(t, res.Tree)
	assertSameAsInterpreted(t, wordsGrammar, "ab  c", res)
}

func TestCompiledParserWithVocabulary(t *testing.T) {
	eng := realEngine(t)
	res := eng.Run(context.Background(), Request{
		Grammar:      "parser grammar Sum;\noptions { tokenVocab = Num; }\n@header { package calc.sum; }\nsum : NUM (PLUS NUM)* EOF ;\n",
		LexerGrammar: "lexer grammar Num;\nPLUS : '+' ;\nNUM : [0-9]+ ;\nWS : ' '+ -> skip ;\n",
		Input:        "1 + 22",
	})
	require.True(t, res.OK(), "%v", res.Errors)
	assert.Equal(t, []string{"sum"}, res.RuleNames)
	assert.Equal(t, "(sum 1 + 22 <EOF>)", tree.String(res.Tree))
}

func TestCompiledOperatorPrecedence(t *testing.T) {
	eng := realEngine(t)
	text := "grammar Calc;\nstart : expr EOF ;\nexpr : expr '*' expr | <assoc=right> expr '^' expr | expr '+' expr | '-' expr | INT ;\n" +
		"INT : [0-9]+ ;\nWS : ' ' -> skip ;\n"
	for _, input := range []string{"1 + 2 * 3 + 4", "2 ^ 3 ^ 2 * 5", "- 1 + 2", "1 + * 2"} {
		res := eng.Run(context.Background(), Request{Grammar: text, Input: input})
		assert.False(t, res.Errors.Has(diag.Compiler), "%v", res.Errors)
		assertSameAsInterpreted(t, text, input, res)
	}

	res := eng.Run(context.Background(), Request{Grammar: text, Input: "1 + 2 * 3 + 4"})
	require.True(t, res.OK(), "%v", res.Errors)
	assert.Equal(t, "(start (expr (expr (expr 1) + (expr (expr 2) * (expr 3))) + (expr 4)) <EOF>)", tree.String(res.Tree))
}

func TestCompiledRunIsolation(t *testing.T) {
	eng := realEngine(t)
	runs := []struct {
		grammar, input, tree string
	}{
		{"grammar Same;\nstart : A+ EOF ;\nA : 'a' ;\n", "aa", "(start a a <EOF>)"},
		{"grammar Same;\nstart : B+ EOF ;\nB : 'b' ;\n", "bb", "(start b b <EOF>)"},
	}
	for _, r := range runs {
		res := eng.Run(context.Background(), Request{Grammar: r.grammar, Input: r.input})
		require.True(t, res.OK(), "%v", res.Errors)
		assert.Equal(t, r.tree, tree.String(res.Tree))
	}
}
