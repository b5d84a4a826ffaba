package atn

import (
	"sort"
	"strconv"
	"strings"
)

const maxConfigs = 100000

// stack is an immutable rule invocation stack of follow states, nil is the empty stack.
// prec is the precedence level of the invocation a follow state belongs to.
type stack struct {
	follow int
	prec   int
	next   *stack
	key    string
}

func push(follow, prec int, next *stack) *stack {
	key := strconv.Itoa(follow)
	if prec != 0 {
		key += "/" + strconv.Itoa(prec)
	}
	if next != nil {
		key += "," + next.key
	}
	return &stack{follow, prec, next, key}
}

func stateKey(state int, ctx *stack) string {
	if ctx == nil {
		return strconv.Itoa(state)
	}
	return strconv.Itoa(state) + "|" + ctx.key
}

func (p *Parser) realContext() *stack {
	var ctx *stack
	for i := 1; i < len(p.stack); i++ {
		ctx = push(p.stack[i].follow, p.stack[i-1].prec, ctx)
	}
	return ctx
}

// config is a parser state reached by an alternative of the decision being predicted.
// prec is the precedence level of the rule invocation the state belongs to.
type config struct {
	state int
	alt   int
	ctx   *stack
	prec  int
}

func (c config) key() string {
	key := stateKey(c.state, c.ctx)
	if c.prec != 0 {
		key = strconv.Itoa(c.prec) + "/" + key
	}
	return key
}

type configSet struct {
	configs  []config
	seen     map[string]bool
	finished map[int]bool
}

func newConfigSet() *configSet {
	return &configSet{seen: map[string]bool{}, finished: map[int]bool{}}
}

func (cs *configSet) alts() map[int]bool {
	res := map[int]bool{}
	for _, c := range cs.configs {
		res[c.alt] = true
	}
	return res
}

// conflicting returns true if every reached state is reached by the same alternative set of size > 1.
func (cs *configSet) conflicting() bool {
	if len(cs.configs) == 0 {
		return false
	}

	groups := map[string]map[int]bool{}
	for _, c := range cs.configs {
		key := c.key()
		if groups[key] == nil {
			groups[key] = map[int]bool{}
		}
		groups[key][c.alt] = true
	}

	var first string
	for _, alts := range groups {
		if len(alts) < 2 {
			return false
		}
		sig := altSignature(alts)
		if first == "" {
			first = sig
		} else if sig != first {
			return false
		}
	}
	return true
}

func altSignature(alts map[int]bool) string {
	list := sortedTypes(alts)
	parts := make([]string, len(list))
	for i, a := range list {
		parts[i] = strconv.Itoa(a)
	}
	return strings.Join(parts, ",")
}

func minAlt(alts map[int]bool) (int, bool) {
	if len(alts) == 0 {
		return 0, false
	}
	keys := make([]int, 0, len(alts))
	for a := range alts {
		keys = append(keys, a)
	}
	sort.Ints(keys)
	return keys[0], true
}

func (p *Parser) closure(cs *configSet, c config) {
	key := strconv.Itoa(c.alt) + ":" + c.key()
	if cs.seen[key] {
		return
	}
	cs.seen[key] = true

	s := &p.net.States[c.state]
	if s.Kind == RuleStopState {
		if c.ctx == nil {
			cs.finished[c.alt] = true
			return
		}
		p.closure(cs, config{c.ctx.follow, c.alt, c.ctx.next, c.ctx.prec})
		return
	}

	for i := range s.Transitions {
		t := &s.Transitions[i]
		switch t.Kind {
		case EpsilonTransition:
			p.closure(cs, config{t.Target, c.alt, c.ctx, c.prec})
		case RuleTransition:
			p.closure(cs, config{p.net.RuleStarts[t.Rule], c.alt, push(t.Follow, c.prec, c.ctx), t.Precedence})
		case PrecedenceTransition:
			if t.Precedence >= c.prec {
				p.closure(cs, config{t.Target, c.alt, c.ctx, c.prec})
			}
		default:
			cs.configs = append(cs.configs, c)
		}
	}
}

func (cs *configSet) matching(p *Parser, tokenType int) map[int]bool {
	res := map[int]bool{}
	for _, c := range cs.configs {
		t := &p.net.States[c.state].Transitions[0]
		if t.Matches(tokenType, p.maxType) {
			res[c.alt] = true
		}
	}
	return res
}

// predict chooses an alternative of the current decision state by simulating all
// alternatives over the lookahead tokens with the real invocation stack.
// Alternatives that cannot be told apart resolve to the lowest one.
// A non-greedy decision takes its first (exit) alternative whenever it is viable.
// Reports "no viable alternative" and recovers if no alternative matches.
func (p *Parser) predict() (int, bool) {
	s := &p.net.States[p.state]
	ctx := p.realContext()
	prec := p.top().prec
	cs := newConfigSet()
	for i := range s.Transitions {
		p.closure(cs, config{s.Transitions[i].Target, i, ctx, prec})
	}

	finished := map[int]bool{}
	for a := range cs.finished {
		finished[a] = true
	}
	if s.NonGreedy && cs.matching(p, p.LA(1))[0] {
		return 0, true
	}

	i := p.index
	for {
		alts := cs.alts()
		for a := range finished {
			alts[a] = true
		}
		if len(alts) == 1 {
			a, _ := minAlt(alts)
			return a, true
		}
		if len(alts) == 0 {
			break
		}

		tok := p.tokens[i]
		if tok.Type == EOF {
			if a, ok := minAlt(cs.matching(p, EOF)); ok {
				return a, true
			}
			if a, ok := minAlt(finished); ok {
				return a, true
			}
			break
		}

		reach := newConfigSet()
		for _, c := range cs.configs {
			t := &p.net.States[c.state].Transitions[0]
			if t.Matches(tok.Type, p.maxType) {
				p.closure(reach, config{t.Target, c.alt, c.ctx, c.prec})
			}
		}
		if len(reach.configs) == 0 && len(reach.finished) == 0 {
			if a, ok := minAlt(finished); ok {
				return a, true
			}
			break
		}

		for a := range reach.finished {
			finished[a] = true
		}
		if reach.conflicting() || len(reach.configs) > maxConfigs {
			a, _ := minAlt(reach.alts())
			return a, true
		}

		cs = reach
		if i < len(p.tokens)-1 {
			i++
		}
	}

	offending := p.tokens[i]
	p.reportError(offending, "no viable alternative at input "+QuoteText(p.textBetween(p.LT(1), offending)))
	p.recover(offending)
	return 0, false
}
