package tree

// NodeVisitor is called for every visited node, level is 0 for the root.
// Returning false as walkChildren skips node children,
// returning false as walkSiblings skips remaining node siblings.
type NodeVisitor func(n *Node, level int) (walkChildren, walkSiblings bool)

type WalkMode int

const (
	WalkLtr WalkMode = 0
	WalkRtl WalkMode = 1
)

// Walk visits nodes depth-first, parents before children.
func Walk(n *Node, mode WalkMode, visitor NodeVisitor) {
	if n != nil {
		visitNode(n, 0, visitor, (mode&WalkRtl) != 0)
	}
}

func visitNode(n *Node, level int, v NodeVisitor, rtl bool) (visitSiblings bool) {
	vc, vs := v(n, level)
	if !vc {
		return vs
	}

	if rtl {
		for i := len(n.Children) - 1; i >= 0 && vc; i-- {
			vc = visitNode(n.Children[i], level+1, v, true)
		}
	} else {
		for i := 0; i < len(n.Children) && vc; i++ {
			vc = visitNode(n.Children[i], level+1, v, false)
		}
	}
	return vs
}

type NodeFilter func(n *Node) bool
type NodeSelector func(n *Node) []*Node

// Selector is a chain of node selectors, each one applied to results of the previous one.
type Selector struct {
	selectors []NodeSelector
}

func NewSelector() *Selector {
	return &Selector{}
}

// Apply returns selected nodes without duplicates, in order of first selection.
func (s *Selector) Apply(input ...*Node) []*Node {
	res := make([]*Node, 0)
	index := make(map[*Node]bool)
	for _, n := range input {
		if n == nil {
			continue
		}

		ns := []*Node{n}
		for _, sel := range s.selectors {
			var next []*Node
			for _, nn := range ns {
				next = append(next, sel(nn)...)
			}
			ns = next
		}

		for _, sn := range ns {
			if !index[sn] {
				index[sn] = true
				res = append(res, sn)
			}
		}
	}
	return res
}

func (s *Selector) Use(ns NodeSelector) *Selector {
	if ns != nil {
		s.selectors = append(s.selectors, ns)
	}
	return s
}

func (s *Selector) Filter(nf NodeFilter) *Selector {
	return s.Use(func(n *Node) []*Node {
		if nf(n) {
			return []*Node{n}
		}
		return nil
	})
}

// Children selects direct children.
func (s *Selector) Children() *Selector {
	return s.Use(func(n *Node) []*Node {
		return n.Children
	})
}

// Search selects matching descendants including the node itself.
// If deepSearch is not set, descendants of matching nodes are not searched.
func (s *Selector) Search(nf NodeFilter, deepSearch bool) *Selector {
	return s.Use(func(n *Node) []*Node {
		var res []*Node
		visitNode(n, 0, func(nn *Node, _ int) (bool, bool) {
			if nf(nn) {
				res = append(res, nn)
				return deepSearch, true
			}
			return true, true
		}, false)
		return res
	})
}

func IsNot(f NodeFilter) NodeFilter {
	return func(n *Node) bool {
		return !f(n)
	}
}

func IsAny(fs ...NodeFilter) NodeFilter {
	return func(n *Node) bool {
		for _, f := range fs {
			if f(n) {
				return true
			}
		}
		return false
	}
}

// IsA matches rule nodes by name.
func IsA(names ...string) NodeFilter {
	return func(n *Node) bool {
		if n.Kind != RuleNode {
			return false
		}
		for _, name := range names {
			if n.Name == name {
				return true
			}
		}
		return false
	}
}

// IsALiteral matches terminal nodes by text.
func IsALiteral(texts ...string) NodeFilter {
	return func(n *Node) bool {
		if n.Kind != TerminalNode {
			return false
		}
		for _, text := range texts {
			if n.Text == text {
				return true
			}
		}
		return false
	}
}

func IsKind(k Kind) NodeFilter {
	return func(n *Node) bool {
		return n.Kind == k
	}
}
