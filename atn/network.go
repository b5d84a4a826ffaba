// Package atn is a recognizer runtime driven by a transition network.
//
// The same package serves the grammar interpreter and generated programs:
// generated sources contain a Network literal and this package does the rest.
// It depends on the standard library only.
package atn

import (
	"fmt"
	"strconv"
)

// Special token types and channels:
const (
	EOF         = -1
	InvalidType = 0

	DefaultChannel = 0
	HiddenChannel  = 1
)

// Vocabulary holds token names indexed by token type.
// Literals contain quoted literal names (e.g. "'+'") or empty strings,
// Symbols contain symbolic names or empty strings.
type Vocabulary struct {
	Literals []string `json:"literals"`
	Symbols  []string `json:"symbols"`
}

func nameAt(names []string, t int) string {
	if t < 0 || t >= len(names) {
		return ""
	}
	return names[t]
}

// MaxType returns the largest token type.
func (v Vocabulary) MaxType() int {
	res := len(v.Literals)
	if len(v.Symbols) > res {
		res = len(v.Symbols)
	}
	return res - 1
}

// Name returns symbolic name, quoted literal name or type number in that order of preference.
func (v Vocabulary) Name(t int) string {
	if t == EOF {
		return "EOF"
	}
	if n := nameAt(v.Symbols, t); n != "" {
		return n
	}
	if n := nameAt(v.Literals, t); n != "" {
		return n
	}
	return strconv.Itoa(t)
}

// Display returns the name used in error messages: literal name if present, then symbolic name.
func (v Vocabulary) Display(t int) string {
	if t == EOF {
		return "<EOF>"
	}
	if n := nameAt(v.Literals, t); n != "" {
		return n
	}
	return v.Name(t)
}

// TypeOf returns token type by symbolic or literal name, InvalidType if not found.
func (v Vocabulary) TypeOf(name string) int {
	if name == "EOF" {
		return EOF
	}
	for i, n := range v.Symbols {
		if n == name {
			return i
		}
	}
	for i, n := range v.Literals {
		if n == name {
			return i
		}
	}
	return InvalidType
}

// LexerRule is a token rule translated to RE2 syntax.
// Mode and PushMode contain mode names or empty strings.
type LexerRule struct {
	Name     string `json:"name"`
	Pattern  string `json:"pattern"`
	Type     int    `json:"type"`
	Channel  int    `json:"channel,omitempty"`
	Skip     bool   `json:"skip,omitempty"`
	More     bool   `json:"more,omitempty"`
	Mode     string `json:"mode,omitempty"`
	PushMode string `json:"pushMode,omitempty"`
	PopMode  bool   `json:"popMode,omitempty"`

	// Lazy is set for rules containing non-greedy operators, such rules use leftmost-first matching.
	Lazy bool `json:"lazy,omitempty"`
}

// Mode is a named lexer rule list, mode 0 is the default one.
type Mode struct {
	Name  string      `json:"name"`
	Rules []LexerRule `json:"rules"`
}

type StateKind int

// Parser state kinds:
const (
	BasicState StateKind = iota
	RuleStartState
	RuleStopState
	BlockStartState
	BlockEndState
	LoopEntryState
	LoopBackState
)

type TransitionKind int

// Parser transition kinds:
const (
	EpsilonTransition TransitionKind = iota
	AtomTransition
	SetTransition
	NotSetTransition
	WildcardTransition
	RuleTransition
	PrecedenceTransition
)

// Transition is an edge of parser network.
// Label is used by atom transitions, Set by set and not-set transitions,
// Rule and Follow by rule transitions (Target is then the rule start state).
// Precedence is the level a rule transition invokes its rule at, or the level
// a precedence transition requires: it is passable if Precedence is not less
// than the level of the current rule invocation.
type Transition struct {
	Kind       TransitionKind `json:"kind"`
	Target     int            `json:"target"`
	Label      int            `json:"label,omitempty"`
	Set        []int          `json:"set,omitempty"`
	Rule       int            `json:"rule,omitempty"`
	Follow     int            `json:"follow,omitempty"`
	Precedence int            `json:"precedence,omitempty"`
}

// IsEpsilon returns true for transitions that do not consume a token.
func (t *Transition) IsEpsilon() bool {
	return t.Kind == EpsilonTransition || t.Kind == RuleTransition || t.Kind == PrecedenceTransition
}

// Matches returns true if the transition consumes a token of the given type.
// maxType is the largest token type of the vocabulary.
func (t *Transition) Matches(tokenType, maxType int) bool {
	switch t.Kind {
	case AtomTransition:
		return t.Label == tokenType
	case SetTransition:
		return containsType(t.Set, tokenType)
	case NotSetTransition:
		return tokenType != EOF && tokenType > InvalidType && tokenType <= maxType && !containsType(t.Set, tokenType)
	case WildcardTransition:
		return tokenType != EOF && tokenType > InvalidType && tokenType <= maxType
	}
	return false
}

func containsType(set []int, t int) bool {
	for _, item := range set {
		if item == t {
			return true
		}
	}
	return false
}

// State is a node of parser network.
// A state having more than one transition is a decision state, all its transitions are epsilon ones.
// Other states have at most one transition.
type State struct {
	Kind        StateKind    `json:"kind"`
	Rule        int          `json:"rule"`
	Transitions []Transition `json:"transitions,omitempty"`
	NonGreedy   bool         `json:"nonGreedy,omitempty"`
}

// Network is a complete recognizer description.
// A lexer-only network has no parser rules, a parser network always has lexer modes
// (taken from the grammar itself or from a token vocabulary grammar).
type Network struct {
	GrammarName    string     `json:"grammarName"`
	Vocabulary     Vocabulary `json:"vocabulary"`
	Channels       []string   `json:"channels"`
	Modes          []Mode     `json:"modes"`
	LexerRuleNames []string   `json:"lexerRuleNames"`
	RuleNames      []string   `json:"ruleNames,omitempty"`
	States         []State    `json:"states,omitempty"`
	RuleStarts     []int      `json:"ruleStarts,omitempty"`
	RuleStops      []int      `json:"ruleStops,omitempty"`
}

// HasLexer returns true if the network contains lexer rules.
func (n *Network) HasLexer() bool {
	return len(n.Modes) > 0
}

// ModeIndex returns mode index by name or -1.
func (n *Network) ModeIndex(name string) int {
	for i, m := range n.Modes {
		if m.Name == name {
			return i
		}
	}
	return -1
}

// HasParser returns true if the network contains parser rules.
func (n *Network) HasParser() bool {
	return len(n.RuleNames) > 0
}

// Validate checks that all state, rule, mode and channel references are in range.
func (n *Network) Validate() error {
	for _, m := range n.Modes {
		for _, r := range m.Rules {
			if r.Mode != "" && n.ModeIndex(r.Mode) < 0 {
				return fmt.Errorf("lexer rule %s: unknown mode %s", r.Name, r.Mode)
			}
			if r.PushMode != "" && n.ModeIndex(r.PushMode) < 0 {
				return fmt.Errorf("lexer rule %s: unknown mode %s", r.Name, r.PushMode)
			}
			if r.Channel < 0 || (r.Channel > HiddenChannel && r.Channel >= len(n.Channels)) {
				return fmt.Errorf("lexer rule %s: channel %d out of range", r.Name, r.Channel)
			}
		}
	}

	if len(n.RuleStarts) != len(n.RuleNames) || len(n.RuleStops) != len(n.RuleNames) {
		return fmt.Errorf("rule table size mismatch")
	}
	for i := range n.RuleNames {
		if n.RuleStarts[i] < 0 || n.RuleStarts[i] >= len(n.States) || n.RuleStops[i] < 0 || n.RuleStops[i] >= len(n.States) {
			return fmt.Errorf("rule %s: state out of range", n.RuleNames[i])
		}
	}
	for si, s := range n.States {
		if s.Rule < 0 || s.Rule >= len(n.RuleNames) {
			return fmt.Errorf("state %d: rule %d out of range", si, s.Rule)
		}
		for _, t := range s.Transitions {
			if t.Target < 0 || t.Target >= len(n.States) {
				return fmt.Errorf("state %d: target %d out of range", si, t.Target)
			}
			if len(s.Transitions) > 1 && t.Kind != EpsilonTransition {
				return fmt.Errorf("state %d: decision state with non-epsilon transition", si)
			}
			if t.Kind == RuleTransition {
				if t.Rule < 0 || t.Rule >= len(n.RuleNames) || t.Follow < 0 || t.Follow >= len(n.States) {
					return fmt.Errorf("state %d: bad rule transition", si)
				}
			}
		}
	}
	return nil
}
