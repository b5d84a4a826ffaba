package atn

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func atom(label, target int) []Transition {
	return []Transition{{Kind: AtomTransition, Label: label, Target: target}}
}

func eps(targets ...int) []Transition {
	res := make([]Transition, len(targets))
	for i, t := range targets {
		res[i] = Transition{Kind: EpsilonTransition, Target: t}
	}
	return res
}

func call(rule, start, follow int) []Transition {
	return []Transition{{Kind: RuleTransition, Rule: rule, Target: start, Follow: follow}}
}

// start : WORD (',' WORD)* EOF ;
func listNetwork() *Network {
	net := wordNetwork()
	net.RuleNames = []string{"start"}
	net.States = []State{
		{Kind: RuleStartState, Transitions: eps(1)},
		{Transitions: atom(2, 2)},
		{Kind: LoopEntryState, Transitions: eps(3, 6)},
		{Transitions: atom(1, 4)},
		{Transitions: atom(2, 5)},
		{Kind: BlockEndState, Transitions: eps(2)},
		{Transitions: atom(EOF, 7)},
		{Kind: RuleStopState},
	}
	net.RuleStarts = []int{0}
	net.RuleStops = []int{7}
	return net
}

// start : item (',' item)* EOF ;
// item : WORD NUM | WORD WORD | NUM ;
func itemNetwork() *Network {
	net := wordNetwork()
	net.Modes[0].Rules[2].Pattern = "[0-9]+"
	net.RuleNames = []string{"start", "item"}
	net.States = []State{
		{Kind: RuleStartState, Transitions: eps(1)},
		{Transitions: call(1, 8, 2)},
		{Kind: LoopEntryState, Transitions: eps(3, 6)},
		{Transitions: atom(1, 4)},
		{Transitions: call(1, 8, 5)},
		{Kind: BlockEndState, Transitions: eps(2)},
		{Transitions: atom(EOF, 7)},
		{Kind: RuleStopState},

		{Kind: RuleStartState, Rule: 1, Transitions: eps(9)},
		{Kind: BlockStartState, Rule: 1, Transitions: eps(10, 12, 14)},
		{Rule: 1, Transitions: atom(2, 11)},
		{Rule: 1, Transitions: atom(3, 15)},
		{Rule: 1, Transitions: atom(2, 13)},
		{Rule: 1, Transitions: atom(2, 15)},
		{Rule: 1, Transitions: atom(3, 15)},
		{Kind: BlockEndState, Rule: 1, Transitions: eps(16)},
		{Kind: RuleStopState, Rule: 1},
	}
	net.RuleStarts = []int{0, 8}
	net.RuleStops = []int{7, 16}
	return net
}

type parseResult struct {
	tree   string
	errors []string
}

func parse(t *testing.T, net *Network, input string) parseResult {
	require.NoError(t, net.Validate())
	tokens, l := tokenize(t, net, input)
	require.Empty(t, l.Errors)

	p := NewParser(net, tokens)
	root, e := p.Parse(context.Background(), 0)
	require.NoError(t, e)
	require.NotNil(t, root)

	res := parseResult{tree: StringTree(root, net.RuleNames)}
	for _, se := range p.Errors {
		res.errors = append(res.errors, se.Error())
	}
	return res
}

func TestParseValid(t *testing.T) {
	res := parse(t, listNetwork(), "a, b,c")
	assert.Equal(t, "(start a , b , c <EOF>)", res.tree)
	assert.Empty(t, res.errors)

	res = parse(t, itemNetwork(), "a 1, b c, 2")
	assert.Equal(t, "(start (item a 1) , (item b c) , (item 2) <EOF>)", res.tree)
	assert.Empty(t, res.errors)
}

func TestParseRecovery(t *testing.T) {
	samples := []struct {
		net    *Network
		input  string
		tree   string
		errors []string
	}{
		{
			listNetwork(), "a,",
			"(start a , <missing WORD> <EOF>)",
			[]string{"line 1:2 missing WORD at '<EOF>'"},
		},
		{
			itemNetwork(), "a 1 1, 2",
			"(start (item a 1) 1 , (item 2) <EOF>)",
			[]string{"line 1:4 extraneous input '1' expecting {<EOF>, ','}"},
		},
		{
			itemNetwork(), "a 1 b 2",
			"(start (item a 1) b 2)",
			[]string{"line 1:4 mismatched input 'b' expecting {<EOF>, ','}"},
		},
		{
			itemNetwork(), "a 1,",
			"(start (item a 1) , (item <EOF>) <EOF>)",
			[]string{"line 1:4 mismatched input '<EOF>' expecting {WORD, NUM}"},
		},
		{
			itemNetwork(), "a , b",
			"(start (item a) , (item b) <EOF>)",
			[]string{
				"line 1:2 no viable alternative at input 'a,'",
				"line 1:5 no viable alternative at input 'b'",
			},
		},
	}

	for _, s := range samples {
		res := parse(t, s.net, s.input)
		assert.Equal(t, s.tree, res.tree, "input %q", s.input)
		assert.Equal(t, s.errors, res.errors, "input %q", s.input)
	}
}

func TestParseRuleIndex(t *testing.T) {
	net := listNetwork()
	tokens, _ := tokenize(t, net, "a")
	_, e := NewParser(net, tokens).Parse(context.Background(), 1)
	assert.Error(t, e)
}

func TestParseInterrupted(t *testing.T) {
	net := listNetwork()
	input := strings.Repeat("a,", 300) + "a"
	tokens, _ := tokenize(t, net, input)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	root, e := NewParser(net, tokens).Parse(ctx, 0)
	assert.ErrorIs(t, e, ErrInterrupted)
	require.NotNil(t, root)
	assert.NotEmpty(t, root.Children)
}

func TestParserWithoutEOFToken(t *testing.T) {
	net := listNetwork()
	tokens, _ := tokenize(t, net, "a,b")
	p := NewParser(net, tokens[:len(tokens)-1])
	root, e := p.Parse(context.Background(), 0)
	require.NoError(t, e)
	assert.Equal(t, "(start a , b <EOF>)", StringTree(root, net.RuleNames))
	assert.Empty(t, p.Errors)
}

func TestHiddenTokensInErrors(t *testing.T) {
	net := itemNetwork()
	net.Modes[0].Rules[3].Skip = false
	net.Modes[0].Rules[3].Channel = HiddenChannel
	net.Modes[0].Rules[3].Type = 5
	net.Vocabulary.Symbols = append(net.Vocabulary.Symbols, "WS")

	tokens, _ := tokenize(t, net, "a , b")
	p := NewParser(net, tokens)
	_, e := p.Parse(context.Background(), 0)
	require.NoError(t, e)
	require.NotEmpty(t, p.Errors)
	assert.Equal(t, "no viable alternative at input 'a ,'", p.Errors[0].Message)
}
