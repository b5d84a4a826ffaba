package atn

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrNoProgress is returned when the parser keeps recovering without consuming input.
var ErrNoProgress = errors.New("parser made no progress")

type frame struct {
	rule   int
	node   *RuleNode
	follow int
	prec   int
}

// Parser builds a native parse tree by walking parser states of a network.
// Syntax errors are collected and recovered from: a single extraneous token is deleted,
// a single missing token is conjured, otherwise tokens are consumed until one that
// may follow some rule of the invocation stack and the current rule is left.
type Parser struct {
	net     *Network
	all     []*Token
	tokens  []*Token
	index   int
	maxType int
	stack   []frame
	state   int
	steps   int

	recovering      bool
	lastErrorIndex  int
	lastErrorStates map[int]bool

	// Errors collects syntax errors in input order.
	Errors []*SyntaxError
}

// NewParser creates a parser over tokens produced by Lexer.Tokenize.
// Tokens of non-default channels are kept for error messages but not parsed.
func NewParser(net *Network, tokens []*Token) *Parser {
	p := &Parser{net: net, all: tokens, maxType: net.Vocabulary.MaxType(), lastErrorIndex: -1}
	var eof *Token
	for _, t := range tokens {
		if t.Type == EOF {
			eof = t
			break
		}
		if t.Channel == DefaultChannel {
			p.tokens = append(p.tokens, t)
		}
	}
	if eof == nil {
		eof = &Token{Type: EOF, Text: "<EOF>", Line: 1, Index: len(tokens)}
		if len(tokens) > 0 {
			last := tokens[len(tokens)-1]
			eof.Line = last.Line
			eof.Column = last.Column + len([]rune(last.Text))
			eof.Start = last.Stop
			eof.Stop = last.Stop
		}
	}
	p.tokens = append(p.tokens, eof)
	return p
}

// LT returns k-th lookahead token, k >= 1; LT(-1) returns the previous token or nil.
func (p *Parser) LT(k int) *Token {
	i := p.index + k - 1
	if k < 0 {
		i = p.index + k
	}
	if i < 0 {
		return nil
	}
	if i >= len(p.tokens) {
		i = len(p.tokens) - 1
	}
	return p.tokens[i]
}

// LA returns k-th lookahead token type.
func (p *Parser) LA(k int) int {
	return p.LT(k).Type
}

func (p *Parser) top() *frame {
	return &p.stack[len(p.stack)-1]
}

// Parse invokes the rule and returns its tree.
// The tree is returned even if syntax errors were found, they are collected in Errors.
// If ctx is done, the partial tree is returned with ErrInterrupted.
func (p *Parser) Parse(ctx context.Context, rule int) (*RuleNode, error) {
	if rule < 0 || rule >= len(p.net.RuleNames) {
		return nil, fmt.Errorf("rule index %d out of range", rule)
	}

	root := &RuleNode{Rule: rule, Start: p.LT(1)}
	p.stack = []frame{{rule: rule, node: root, follow: -1}}
	p.state = p.net.RuleStarts[rule]
	maxSteps := (len(p.tokens) + 1) * (len(p.net.States) + 1) * 8

	for {
		p.steps++
		if p.steps%checkInterval == 0 && ctx.Err() != nil {
			return root, fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
		}
		if p.steps > maxSteps {
			return root, ErrNoProgress
		}

		s := &p.net.States[p.state]
		if s.Kind == RuleStopState {
			f := p.stack[len(p.stack)-1]
			p.stack = p.stack[:len(p.stack)-1]
			if len(p.stack) == 0 {
				return root, nil
			}
			p.state = f.follow
			continue
		}

		if len(s.Transitions) == 0 {
			p.exitRule()
			continue
		}

		t := &s.Transitions[0]
		if len(s.Transitions) > 1 {
			if !p.sync() {
				p.exitRule()
				continue
			}
			alt, ok := p.predict()
			if !ok {
				p.exitRule()
				continue
			}
			t = &s.Transitions[alt]
		}

		switch t.Kind {
		case EpsilonTransition:
			p.state = t.Target

		case RuleTransition:
			child := &RuleNode{Rule: t.Rule, Start: p.LT(1)}
			p.top().node.AddChild(child)
			p.stack = append(p.stack, frame{rule: t.Rule, node: child, follow: t.Follow, prec: t.Precedence})
			p.state = p.net.RuleStarts[t.Rule]

		case PrecedenceTransition:
			if t.Precedence < p.top().prec {
				p.reportError(p.LT(1), "rule "+p.net.RuleNames[p.top().rule]+" failed predicate: {precpred(_ctx, "+strconv.Itoa(t.Precedence)+")}?")
				p.exitRule()
				continue
			}
			if n := p.wrapNode(); len(p.stack) == 1 {
				root = n
			}
			p.state = t.Target

		default:
			if p.match(t) {
				p.state = t.Target
			} else {
				p.exitRule()
			}
		}
	}
}

// wrapNode replaces the current rule node with a new node of the same rule
// having the replaced one as its first child.
func (p *Parser) wrapNode() *RuleNode {
	f := p.top()
	old := f.node
	n := &RuleNode{Rule: old.Rule, Start: old.Start, Children: []Tree{old}}
	if len(p.stack) > 1 {
		parent := p.stack[len(p.stack)-2].node
		parent.Children[len(parent.Children)-1] = n
	}
	f.node = n
	return n
}

func (p *Parser) exitRule() {
	p.state = p.net.RuleStops[p.top().rule]
}

func (p *Parser) consume() {
	t := p.LT(1)
	node := p.top().node
	if p.recovering {
		node.AddChild(&ErrorNode{Token: t})
	} else {
		node.AddChild(&TerminalNode{Token: t})
	}
	if t.Type != EOF {
		p.index++
	}
}

func (p *Parser) match(t *Transition) bool {
	if t.Matches(p.LA(1), p.maxType) {
		p.endErrorCondition()
		p.consume()
		return true
	}

	if t.Matches(p.LA(2), p.maxType) {
		p.reportUnwantedToken()
		p.consume()
		p.endErrorCondition()
		p.consume()
		return true
	}

	follow, _ := p.nextTokens(t.Target, p.realContext(), true)
	if follow[p.LA(1)] {
		p.conjureMissing(t)
		return true
	}

	offending := p.LT(1)
	p.reportError(offending, "mismatched input "+TokenDisplay(offending)+" expecting "+p.formatSet(p.expectedTokens()))
	p.recover(offending)
	return false
}

func (p *Parser) conjureMissing(t *Transition) {
	expected := p.expectedTokens()
	current := p.LT(1)
	if !p.recovering {
		p.beginErrorCondition()
		p.addError(current, "missing "+p.formatSet(expected)+" at "+TokenDisplay(current))
	}

	tokenType := InvalidType
	if t.Kind == AtomTransition {
		tokenType = t.Label
	} else if len(expected) > 0 {
		tokenType = sortedTypes(expected)[0]
	}

	pos := current
	if current.Type == EOF && p.LT(-1) != nil {
		pos = p.LT(-1)
	}
	missing := &Token{
		Type:   tokenType,
		Text:   "<missing " + p.net.Vocabulary.Display(tokenType) + ">",
		Line:   pos.Line,
		Column: pos.Column,
		Start:  pos.Start,
		Stop:   pos.Start,
		Index:  -1,
	}
	p.top().node.AddChild(&ErrorNode{Token: missing})
}

func (p *Parser) sync() bool {
	if p.recovering {
		return true
	}

	next, reachesEnd := p.nextTokens(p.state, nil, false)
	if next[p.LA(1)] || reachesEnd {
		return true
	}

	switch p.net.States[p.state].Kind {
	case BlockStartState, LoopEntryState:
		if next[p.LA(2)] {
			p.reportUnwantedToken()
			p.consume()
			p.endErrorCondition()
			return true
		}
		offending := p.LT(1)
		p.reportError(offending, "mismatched input "+TokenDisplay(offending)+" expecting "+p.formatSet(p.expectedTokens()))
		p.recover(offending)
		return false

	case LoopBackState:
		p.reportUnwantedToken()
		until := p.expectedTokens()
		for t := range p.recoverySet() {
			until[t] = true
		}
		p.consumeUntil(until)
	}
	return true
}

func (p *Parser) beginErrorCondition() {
	p.recovering = true
}

func (p *Parser) endErrorCondition() {
	p.recovering = false
	p.lastErrorIndex = -1
	p.lastErrorStates = nil
}

func (p *Parser) addError(t *Token, msg string) {
	p.Errors = append(p.Errors, &SyntaxError{Line: t.Line, Column: t.Column, Message: msg})
}

func (p *Parser) reportError(t *Token, msg string) {
	if p.recovering {
		return
	}
	p.beginErrorCondition()
	p.addError(t, msg)
}

func (p *Parser) reportUnwantedToken() {
	if p.recovering {
		return
	}
	p.beginErrorCondition()
	t := p.LT(1)
	p.addError(t, "extraneous input "+TokenDisplay(t)+" expecting "+p.formatSet(p.expectedTokens()))
}

func (p *Parser) recover(offending *Token) {
	before := p.index
	if p.lastErrorIndex == p.index && p.lastErrorStates[p.state] {
		p.consume()
	}
	p.lastErrorIndex = p.index
	if p.lastErrorStates == nil {
		p.lastErrorStates = map[int]bool{}
	}
	p.lastErrorStates[p.state] = true
	p.consumeUntil(p.recoverySet())

	if p.index == before {
		errToken := *offending
		errToken.Index = -1
		p.top().node.AddChild(&ErrorNode{Token: &errToken})
	}
}

func (p *Parser) consumeUntil(set map[int]bool) {
	for p.LA(1) != EOF && !set[p.LA(1)] {
		p.consume()
	}
}

// nextTokens returns token types that may be consumed next starting at the state.
// reachesEnd is set if the rule stop state is reachable with empty invocation stack,
// EOF is then added to the set if addEOF is true.
func (p *Parser) nextTokens(state int, ctx *stack, addEOF bool) (set map[int]bool, reachesEnd bool) {
	set = map[int]bool{}
	seen := map[string]bool{}
	var walk func(state int, ctx *stack)
	walk = func(state int, ctx *stack) {
		key := stateKey(state, ctx)
		if seen[key] {
			return
		}
		seen[key] = true

		s := &p.net.States[state]
		if s.Kind == RuleStopState {
			if ctx == nil {
				reachesEnd = true
				if addEOF {
					set[EOF] = true
				}
				return
			}
			walk(ctx.follow, ctx.next)
			return
		}

		for i := range s.Transitions {
			t := &s.Transitions[i]
			switch t.Kind {
			case EpsilonTransition, PrecedenceTransition:
				walk(t.Target, ctx)
			case RuleTransition:
				walk(p.net.RuleStarts[t.Rule], push(t.Follow, 0, ctx))
			default:
				p.addTransitionTypes(set, t)
			}
		}
	}
	walk(state, ctx)
	return set, reachesEnd
}

func (p *Parser) addTransitionTypes(set map[int]bool, t *Transition) {
	switch t.Kind {
	case AtomTransition:
		set[t.Label] = true
	case SetTransition:
		for _, tt := range t.Set {
			set[tt] = true
		}
	case NotSetTransition, WildcardTransition:
		for tt := 1; tt <= p.maxType; tt++ {
			if t.Matches(tt, p.maxType) {
				set[tt] = true
			}
		}
	}
}

func (p *Parser) expectedTokens() map[int]bool {
	set, _ := p.nextTokens(p.state, p.realContext(), true)
	return set
}

func (p *Parser) recoverySet() map[int]bool {
	res := map[int]bool{}
	for i := len(p.stack) - 1; i > 0; i-- {
		follow, _ := p.nextTokens(p.stack[i].follow, nil, false)
		for t := range follow {
			res[t] = true
		}
	}
	return res
}

func sortedTypes(set map[int]bool) []int {
	res := make([]int, 0, len(set))
	for t := range set {
		res = append(res, t)
	}
	sort.Ints(res)
	return res
}

func (p *Parser) formatSet(set map[int]bool) string {
	types := sortedTypes(set)
	if len(types) == 1 {
		return p.net.Vocabulary.Display(types[0])
	}

	names := make([]string, len(types))
	for i, t := range types {
		names[i] = p.net.Vocabulary.Display(t)
	}
	return "{" + strings.Join(names, ", ") + "}"
}

func (p *Parser) textBetween(start, stop *Token) string {
	if start.Type == EOF {
		return "<EOF>"
	}

	sb := &strings.Builder{}
	for i := start.Index; i <= stop.Index && i < len(p.all); i++ {
		if i < 0 || p.all[i].Type == EOF {
			break
		}
		sb.WriteString(p.all[i].Text)
	}
	return sb.String()
}
