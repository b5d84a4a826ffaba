// Package tree contains uniform parse tree produced by both execution engines.
package tree

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/ava12/g4scope/atn"
)

// Kind is a node variant.
type Kind int

// Node variants:
const (
	RuleNode Kind = iota
	TerminalNode
	ErrorNode
)

var kindNames = []string{"rule", "terminal", "error"}

func (k Kind) String() string {
	if k < RuleNode || k > ErrorNode {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for i, n := range kindNames {
		if n == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown node kind %q", text)
}

// Node is a parse tree node, it must not be modified after construction.
// Name is set for rule nodes, Text for terminal and error nodes,
// Line and Column (1-based line, 0-based column) for error nodes.
type Node struct {
	Kind     Kind    `json:"kind" msgpack:"kind"`
	ID       uint64  `json:"id" msgpack:"id"`
	Name     string  `json:"name,omitempty" msgpack:"name,omitempty"`
	Text     string  `json:"text,omitempty" msgpack:"text,omitempty"`
	Line     int     `json:"line,omitempty" msgpack:"line,omitempty"`
	Column   int     `json:"column,omitempty" msgpack:"column,omitempty"`
	Children []*Node `json:"children,omitempty" msgpack:"children,omitempty"`
}

var lastID atomic.Uint64

func nextID() uint64 {
	return lastID.Add(1)
}

// NewRule creates a rule node with a fresh id.
func NewRule(name string, children ...*Node) *Node {
	return &Node{Kind: RuleNode, ID: nextID(), Name: name, Children: children}
}

// NewTerminal creates a terminal node with a fresh id.
func NewTerminal(text string) *Node {
	return &Node{Kind: TerminalNode, ID: nextID(), Text: text}
}

// NewError creates an error node with a fresh id.
func NewError(text string, line, col int) *Node {
	return &Node{Kind: ErrorNode, ID: nextID(), Text: text, Line: line, Column: col}
}

// IsRule returns true for rule nodes.
func (n *Node) IsRule() bool {
	return n.Kind == RuleNode
}

// Label returns rule name for rule nodes and text for other ones.
func (n *Node) Label() string {
	if n.Kind == RuleNode {
		return n.Name
	}
	return n.Text
}

// Convert builds uniform tree from native tree, ruleNames are indexed by rule number.
// Returns nil for nil tree.
func Convert(native atn.Tree, ruleNames []string) *Node {
	switch n := native.(type) {
	case *atn.RuleNode:
		if n == nil {
			return nil
		}
		name := "?"
		if n.Rule >= 0 && n.Rule < len(ruleNames) {
			name = ruleNames[n.Rule]
		}
		res := NewRule(name)
		if len(n.Children) > 0 {
			res.Children = make([]*Node, 0, len(n.Children))
		}
		for _, c := range n.Children {
			if child := Convert(c, ruleNames); child != nil {
				res.Children = append(res.Children, child)
			}
		}
		return res

	case *atn.TerminalNode:
		if n == nil || n.Token == nil {
			return nil
		}
		return NewTerminal(n.Text())

	case *atn.ErrorNode:
		if n == nil || n.Token == nil {
			return nil
		}
		return NewError(n.Text(), n.Token.Line, n.Token.Column)
	}
	return nil
}

var textEscaper = strings.NewReplacer("\n", "\\n", "\r", "\\r", "\t", "\\t")

// String returns LISP-style tree representation: "(rule child child)".
func String(n *Node) string {
	if n == nil {
		return ""
	}
	sb := &strings.Builder{}
	writeNode(sb, n)
	return sb.String()
}

func writeNode(sb *strings.Builder, n *Node) {
	if n.Kind != RuleNode {
		sb.WriteString(textEscaper.Replace(n.Text))
		return
	}
	if len(n.Children) == 0 {
		sb.WriteString(n.Name)
		return
	}

	sb.WriteString("(")
	sb.WriteString(n.Name)
	for _, c := range n.Children {
		sb.WriteString(" ")
		writeNode(sb, c)
	}
	sb.WriteString(")")
}

// SameShape returns true if both trees have the same kinds, labels, and child counts at every position.
// Ids are ignored.
func SameShape(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Label() != b.Label() || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !SameShape(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// Count returns the number of nodes in the tree.
func Count(n *Node) int {
	res := 0
	Walk(n, WalkLtr, func(*Node, int) (bool, bool) {
		res++
		return true, true
	})
	return res
}
