package tree

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava12/g4scope/atn"
)

var ignoreIDs = cmpopts.IgnoreFields(Node{}, "ID")

var ruleNames = []string{"start", "item"}

// (start (item a 1) , <missing WORD> <EOF>)
func nativeTree() atn.Tree {
	return &atn.RuleNode{Rule: 0, Children: []atn.Tree{
		&atn.RuleNode{Rule: 1, Children: []atn.Tree{
			&atn.TerminalNode{Token: &atn.Token{Type: 2, Text: "a", Line: 1}},
			&atn.TerminalNode{Token: &atn.Token{Type: 3, Text: "1", Line: 1, Column: 2}},
		}},
		&atn.TerminalNode{Token: &atn.Token{Type: 1, Text: ",", Line: 1, Column: 3}},
		&atn.ErrorNode{Token: &atn.Token{Type: 2, Text: "<missing WORD>", Line: 2, Column: 4}},
		&atn.TerminalNode{Token: &atn.Token{Type: atn.EOF, Text: "<EOF>", Line: 2, Column: 4}},
	}}
}

func TestConvert(t *testing.T) {
	expected := NewRule("start",
		NewRule("item", NewTerminal("a"), NewTerminal("1")),
		NewTerminal(","),
		NewError("<missing WORD>", 2, 4),
		NewTerminal("<EOF>"),
	)

	root := Convert(nativeTree(), ruleNames)
	if diff := cmp.Diff(expected, root, ignoreIDs); diff != "" {
		t.Errorf("unexpected tree (-want +got):\n%s", diff)
	}
	assert.Equal(t, "(start (item a 1) , <missing WORD> <EOF>)", String(root))
	assert.Equal(t, 7, Count(root))
}

func TestConvertTwice(t *testing.T) {
	first := Convert(nativeTree(), ruleNames)
	second := Convert(nativeTree(), ruleNames)
	assert.True(t, SameShape(first, second))
	assert.Empty(t, cmp.Diff(first, second, ignoreIDs))

	ids := make(map[uint64]bool)
	for _, root := range []*Node{first, second} {
		Walk(root, WalkLtr, func(n *Node, _ int) (bool, bool) {
			assert.False(t, ids[n.ID], "duplicate id %d", n.ID)
			ids[n.ID] = true
			return true, true
		})
	}
	assert.Len(t, ids, 14)
}

func TestConvertEdgeCases(t *testing.T) {
	assert.Nil(t, Convert(nil, ruleNames))
	assert.Nil(t, Convert((*atn.RuleNode)(nil), ruleNames))

	root := Convert(&atn.RuleNode{Rule: 5}, ruleNames)
	assert.Equal(t, "?", root.Name)
	assert.Empty(t, root.Children)
	assert.Equal(t, "?", String(root))
	assert.Equal(t, "", String(nil))
}

func TestSameShape(t *testing.T) {
	a := NewRule("r", NewTerminal("x"))
	assert.True(t, SameShape(a, NewRule("r", NewTerminal("x"))))
	assert.False(t, SameShape(a, NewRule("r", NewTerminal("y"))))
	assert.False(t, SameShape(a, NewRule("r", NewError("x", 1, 0))))
	assert.False(t, SameShape(a, NewRule("r")))
	assert.False(t, SameShape(a, nil))
	assert.True(t, SameShape(nil, nil))
}

func TestWalk(t *testing.T) {
	root := Convert(nativeTree(), ruleNames)
	var visited []string
	visitor := func(n *Node, level int) (bool, bool) {
		visited = append(visited, n.Label())
		return n.Name != "item", n.Text != ","
	}

	Walk(root, WalkLtr, visitor)
	assert.Equal(t, []string{"start", "item", ","}, visited)

	visited = nil
	Walk(root, WalkRtl, visitor)
	assert.Equal(t, []string{"start", "<EOF>", "<missing WORD>", ","}, visited)
}

func TestWalkLevels(t *testing.T) {
	root := Convert(nativeTree(), ruleNames)
	levels := make(map[string]int)
	Walk(root, WalkLtr, func(n *Node, level int) (bool, bool) {
		levels[n.Label()] = level
		return true, true
	})
	assert.Equal(t, map[string]int{"start": 0, "item": 1, "a": 2, "1": 2, ",": 1, "<missing WORD>": 1, "<EOF>": 1}, levels)
}

func TestSelector(t *testing.T) {
	root := NewRule("list",
		NewRule("item", NewRule("item", NewTerminal("x"))),
		NewTerminal(","),
		NewRule("item", NewTerminal("y")),
	)

	items := NewSelector().Search(IsA("item"), false).Apply(root)
	require.Len(t, items, 2)
	assert.Equal(t, "(item (item x))", String(items[0]))
	assert.Equal(t, "(item y)", String(items[1]))

	items = NewSelector().Search(IsA("item"), true).Apply(root, root)
	assert.Len(t, items, 3)

	terms := NewSelector().Children().Filter(IsNot(IsKind(RuleNode))).Apply(root)
	require.Len(t, terms, 1)
	assert.Equal(t, ",", terms[0].Text)

	found := NewSelector().Search(IsAny(IsALiteral("x", "y"), IsKind(ErrorNode)), true).Apply(root)
	assert.Len(t, found, 2)
	assert.Empty(t, NewSelector().Search(IsALiteral("list"), true).Apply(root))
}

func TestKindText(t *testing.T) {
	data, e := json.Marshal(NewError("x", 1, 2))
	require.NoError(t, e)
	assert.Contains(t, string(data), `"kind":"error"`)

	var n Node
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"terminal","text":"a"}`), &n))
	assert.Equal(t, TerminalNode, n.Kind)
	assert.Error(t, json.Unmarshal([]byte(`{"kind":"leaf"}`), &n))
	assert.Equal(t, "Kind(7)", Kind(7).String())
}
