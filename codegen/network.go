package codegen

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ava12/g4scope/atn"
)

func stringList(items []string) string {
	if len(items) == 0 {
		return "nil"
	}
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return "[]string{" + strings.Join(quoted, ", ") + "}"
}

func intList(items []int) string {
	if len(items) == 0 {
		return "nil"
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprint(item)
	}
	return "[]int{" + strings.Join(parts, ", ") + "}"
}

func writeLexerRule(buffer *bytes.Buffer, r *atn.LexerRule) {
	buffer.WriteString(fmt.Sprintf("\t\t\t{Name: %q, Pattern: %q, Type: %d", r.Name, r.Pattern, r.Type))
	if r.Channel != atn.DefaultChannel {
		buffer.WriteString(fmt.Sprintf(", Channel: %d", r.Channel))
	}
	if r.Skip {
		buffer.WriteString(", Skip: true")
	}
	if r.More {
		buffer.WriteString(", More: true")
	}
	if r.Mode != "" {
		buffer.WriteString(fmt.Sprintf(", Mode: %q", r.Mode))
	}
	if r.PushMode != "" {
		buffer.WriteString(fmt.Sprintf(", PushMode: %q", r.PushMode))
	}
	if r.PopMode {
		buffer.WriteString(", PopMode: true")
	}
	if r.Lazy {
		buffer.WriteString(", Lazy: true")
	}
	buffer.WriteString("},\n")
}

func writeTransition(buffer *bytes.Buffer, t *atn.Transition) {
	buffer.WriteString(fmt.Sprintf("{Kind: %d, Target: %d", t.Kind, t.Target))
	switch t.Kind {
	case atn.AtomTransition:
		buffer.WriteString(fmt.Sprintf(", Label: %d", t.Label))
	case atn.SetTransition, atn.NotSetTransition:
		buffer.WriteString(", Set: " + intList(t.Set))
	case atn.RuleTransition:
		buffer.WriteString(fmt.Sprintf(", Rule: %d, Follow: %d", t.Rule, t.Follow))
	}
	if t.Precedence != 0 {
		buffer.WriteString(fmt.Sprintf(", Precedence: %d", t.Precedence))
	}
	buffer.WriteString("}")
}

// writeNetwork writes network literal as a value of variable varName.
// Rule start states are marked with rule name comments.
func writeNetwork(buffer *bytes.Buffer, varName string, net *atn.Network) {
	buffer.WriteString("var " + varName + " = &atn.Network{\n")
	buffer.WriteString(fmt.Sprintf("\tGrammarName: %q,\n", net.GrammarName))
	buffer.WriteString("\tVocabulary: atn.Vocabulary{\n")
	buffer.WriteString("\t\tLiterals: " + stringList(net.Vocabulary.Literals) + ",\n")
	buffer.WriteString("\t\tSymbols: " + stringList(net.Vocabulary.Symbols) + ",\n")
	buffer.WriteString("\t},\n")
	buffer.WriteString("\tChannels: " + stringList(net.Channels) + ",\n")

	buffer.WriteString("\tModes: []atn.Mode{\n")
	for _, m := range net.Modes {
		buffer.WriteString(fmt.Sprintf("\t\t{Name: %q, Rules: []atn.LexerRule{\n", m.Name))
		for i := range m.Rules {
			writeLexerRule(buffer, &m.Rules[i])
		}
		buffer.WriteString("\t\t}},\n")
	}
	buffer.WriteString("\t},\n")
	buffer.WriteString("\tLexerRuleNames: " + stringList(net.LexerRuleNames) + ",\n")

	if net.HasParser() {
		buffer.WriteString("\tRuleNames: " + stringList(net.RuleNames) + ",\n")

		starts := make(map[int]int, len(net.RuleStarts))
		for rule, state := range net.RuleStarts {
			starts[state] = rule
		}

		buffer.WriteString("\tStates: []atn.State{\n")
		for i, st := range net.States {
			buffer.WriteString(fmt.Sprintf("\t\t{Kind: %d, Rule: %d", st.Kind, st.Rule))
			if len(st.Transitions) > 0 {
				buffer.WriteString(", Transitions: []atn.Transition{")
				for j := range st.Transitions {
					if j > 0 {
						buffer.WriteString(", ")
					}
					writeTransition(buffer, &st.Transitions[j])
				}
				buffer.WriteString("}")
			}
			if st.NonGreedy {
				buffer.WriteString(", NonGreedy: true")
			}
			buffer.WriteString("},")
			if rule, found := starts[i]; found {
				buffer.WriteString(fmt.Sprintf(" // %s(%d)", net.RuleNames[rule], i))
			}
			buffer.WriteString("\n")
		}
		buffer.WriteString("\t},\n")
		buffer.WriteString("\tRuleStarts: " + intList(net.RuleStarts) + ",\n")
		buffer.WriteString("\tRuleStops: " + intList(net.RuleStops) + ",\n")
	}
	buffer.WriteString("}\n")
}
