// Package dot renders parse trees as Graphviz graph descriptions.
package dot

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/ava12/g4scope/tree"
)

// Style selects node and edge colours, it never affects graph structure.
type Style int

const (
	Display Style = iota
	Export
)

var styleNames = []string{"display", "export"}

func (s Style) String() string {
	if s < Display || s > Export {
		return fmt.Sprintf("Style(%d)", int(s))
	}
	return styleNames[s]
}

// ParseStyle converts style name to Style.
func ParseStyle(name string) (Style, error) {
	for i, n := range styleNames {
		if strings.EqualFold(n, name) {
			return Style(i), nil
		}
	}
	return Display, fmt.Errorf("unknown graph style %q", name)
}

type nodeStyle struct {
	text, stroke, shape, style string
}

type palette struct {
	bg, nodeBg, edge        string
	rule, terminal, errNode nodeStyle
}

var palettes = [...]palette{
	Display: {
		bg: "dimgray", nodeBg: "azure", edge: "lightsteelblue",
		rule:     nodeStyle{"black", "white", "box", `"filled,rounded"`},
		terminal: nodeStyle{"navyblue", "blue", "box", "filled"},
		errNode:  nodeStyle{"red", "orangered", "note", "filled"},
	},
	Export: {
		bg: "white", nodeBg: "white", edge: "black",
		rule:     nodeStyle{"black", "black", "box", "rounded"},
		terminal: nodeStyle{"navyblue", "blue", "box", `""`},
		errNode:  nodeStyle{"red", "orangered", "note", `""`},
	},
}

func (p *palette) node(k tree.Kind) nodeStyle {
	switch k {
	case tree.TerminalNode:
		return p.terminal
	case tree.ErrorNode:
		return p.errNode
	}
	return p.rule
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)

func escape(text string) string {
	return labelEscaper.Replace(text)
}

// identity returns quoted node identity made of sanitized label and node id.
func identity(n *tree.Node) string {
	label := strings.Map(func(r rune) rune {
		if r == '"' || r == '\'' || r == '\\' || unicode.IsControl(r) {
			return -1
		}
		return r
	}, n.Label())
	return `"` + label + "_" + strconv.FormatUint(n.ID, 10) + `"`
}

// Render returns graph description of the tree. An empty graph is returned for nil tree.
func Render(root *tree.Node, style Style) string {
	if style < Display || style > Export {
		style = Display
	}
	p := &palettes[style]

	var nodes, edges []string
	tree.Walk(root, tree.WalkLtr, func(n *tree.Node, _ int) (bool, bool) {
		ns := p.node(n.Kind)
		nodes = append(nodes, fmt.Sprintf("%s [color=%s style=%s fillcolor=%s fontcolor=%s shape=%s label=\"%s\"]",
			identity(n), ns.stroke, ns.style, p.nodeBg, ns.text, ns.shape, escape(n.Label())))

		if len(n.Children) > 0 {
			ids := make([]string, len(n.Children))
			for i, c := range n.Children {
				ids[i] = identity(c)
			}
			edges = append(edges, fmt.Sprintf("%s -- {%s} [color=%s]", identity(n), strings.Join(ids, " "), p.edge))
		}
		return true, true
	})

	sb := &strings.Builder{}
	sb.WriteString("graph ParseTree {\nbgcolor=" + p.bg + "\n")
	sb.WriteString(strings.Join(nodes, "\n"))
	sb.WriteString("\n")
	sb.WriteString(strings.Join(edges, "\n"))
	sb.WriteString("\n}\n")
	return sb.String()
}
