package atn

import "strings"

// Tree is a native parse tree node: *RuleNode, *TerminalNode or *ErrorNode.
type Tree interface {
	// Text returns the concatenated text of all terminal descendants.
	Text() string
}

// RuleNode is a rule invocation.
type RuleNode struct {
	Rule     int
	Start    *Token
	Children []Tree
}

// TerminalNode is a matched token.
type TerminalNode struct {
	Token *Token
}

// ErrorNode is a token consumed or conjured during error recovery.
type ErrorNode struct {
	Token *Token
}

func (n *RuleNode) AddChild(child Tree) {
	n.Children = append(n.Children, child)
}

func (n *RuleNode) Text() string {
	sb := &strings.Builder{}
	for _, c := range n.Children {
		sb.WriteString(c.Text())
	}
	return sb.String()
}

func (n *TerminalNode) Text() string {
	if n.Token.Type == EOF {
		return "<EOF>"
	}
	return n.Token.Text
}

func (n *ErrorNode) Text() string {
	return n.Token.Text
}

// StringTree returns LISP-style tree representation: "(rule child child)".
func StringTree(t Tree, ruleNames []string) string {
	sb := &strings.Builder{}
	writeTree(sb, t, ruleNames)
	return sb.String()
}

func writeTree(sb *strings.Builder, t Tree, ruleNames []string) {
	rn, isRule := t.(*RuleNode)
	if !isRule {
		sb.WriteString(displayEscaper.Replace(t.Text()))
		return
	}

	name := "?"
	if rn.Rule >= 0 && rn.Rule < len(ruleNames) {
		name = ruleNames[rn.Rule]
	}
	if len(rn.Children) == 0 {
		sb.WriteString(name)
		return
	}

	sb.WriteString("(")
	sb.WriteString(name)
	for _, c := range rn.Children {
		sb.WriteString(" ")
		writeTree(sb, c, ruleNames)
	}
	sb.WriteString(")")
}
