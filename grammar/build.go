package grammar

import (
	"sort"
	"strconv"

	"github.com/ava12/g4scope/atn"
	"github.com/ava12/g4scope/lexer"
)

// vocabulary assigns token types.
type vocabulary struct {
	literals     []string
	symbols      []string
	types        map[string]int
	literalTypes map[string]int
}

func newVocabulary() *vocabulary {
	return &vocabulary{
		literals:     []string{""},
		symbols:      []string{""},
		types:        make(map[string]int),
		literalTypes: make(map[string]int),
	}
}

func (v *vocabulary) add(symbol, literal string) int {
	t := len(v.symbols)
	v.symbols = append(v.symbols, symbol)
	v.literals = append(v.literals, literal)
	if symbol != "" {
		v.types[symbol] = t
	}
	return t
}

func (v *vocabulary) network() atn.Vocabulary {
	return atn.Vocabulary{Literals: v.literals, Symbols: v.symbols}
}

// literalTypes maps decoded literal values of a vocabulary to token types.
func literalTypes(v atn.Vocabulary) map[string]int {
	res := make(map[string]int)
	for t, name := range v.Literals {
		if len(name) < 2 || name[0] != '\'' || name[len(name)-1] != '\'' {
			continue
		}
		value, bad := unescape(name[1 : len(name)-1])
		if bad == "" {
			if _, found := res[value]; !found {
				res[value] = t
			}
		}
	}
	return res
}

func vocabularyOf(v atn.Vocabulary) *vocabulary {
	res := &vocabulary{
		literals:     append([]string(nil), v.Literals...),
		symbols:      append([]string(nil), v.Symbols...),
		types:        make(map[string]int),
		literalTypes: literalTypes(v),
	}
	for len(res.literals) < len(res.symbols) {
		res.literals = append(res.literals, "")
	}
	for len(res.symbols) < len(res.literals) {
		res.symbols = append(res.symbols, "")
	}
	for t, name := range res.symbols {
		if name != "" {
			res.types[name] = t
		}
	}
	return res
}

// literalAlias returns the literal element if the rule consists of a single literal.
func literalAlias(r *rule) *element {
	if r.fragment || len(r.alts) != 1 || len(r.alts[0].elems) != 1 {
		return nil
	}
	el := r.alts[0].elems[0]
	if el.kind != literalElem || el.suffix != "" || el.text == "" {
		return nil
	}
	for _, c := range r.alts[0].commands {
		if name := c.name.Text(); name == "skip" || name == "more" || name == "type" {
			return nil
		}
	}
	return el
}

func (l *loader) build(g *grammarDef) *Model {
	m := &Model{Name: g.name, Namespace: g.namespace, Kind: g.kind}
	net := &atn.Network{GrammarName: g.name}

	var v *vocabulary
	if g.kind == ParserOnly {
		v = l.copyLexer(g, net)
	} else {
		v = l.buildLexer(g, net)
	}
	if g.kind == LexerOnly {
		net.Vocabulary = v.network()
		m.RuleNames = net.LexerRuleNames
		m.Network = net
		return m
	}

	rules := g.parserRules()
	nb := &netBuilder{net: net, vocab: v, ruleIndex: make(map[string]int)}
	nb.build(rules)
	net.Vocabulary = v.network()
	m.RuleNames = net.RuleNames
	m.StartRule = 0
	m.Network = net

	return l.validate(m, rules)
}

// validate reports an internal error and returns nil if the built model is inconsistent.
func (l *loader) validate(m *Model, rules []*rule) *Model {
	if e := m.Network.Validate(); e != nil {
		l.report(internalError("invalid network: " + e.Error()))
		return nil
	}
	if len(rules) == 0 || len(m.RuleNames) == 0 || m.RuleNames[m.StartRule] != rules[0].name {
		l.report(internalError("start rule is not the first declared parser rule"))
		return nil
	}
	return m
}

// copyLexer takes lexer part of a parser grammar from its vocabulary model.
func (l *loader) copyLexer(g *grammarDef, net *atn.Network) *vocabulary {
	src := l.vocab.Network
	net.Channels = append([]string(nil), src.Channels...)
	net.LexerRuleNames = append([]string(nil), src.LexerRuleNames...)
	net.Modes = make([]atn.Mode, len(src.Modes))
	for i, m := range src.Modes {
		net.Modes[i] = atn.Mode{Name: m.Name, Rules: append([]atn.LexerRule(nil), m.Rules...)}
	}

	v := vocabularyOf(src.Vocabulary)
	for _, t := range g.tokens {
		if _, found := v.types[t.Text()]; !found {
			v.add(t.Text(), "")
		}
	}
	return v
}

// implicitLiterals returns literal elements of parser rules having no lexer rule alias,
// first occurrence of each value in declaration order.
func implicitLiterals(g *grammarDef, aliases map[string]*rule) []*element {
	var res []*element
	seen := make(map[string]bool)
	for _, r := range g.parserRules() {
		walkElements(r.alts, func(el *element) {
			if el.kind != literalElem || aliases[el.text] != nil || seen[el.text] {
				return
			}
			seen[el.text] = true
			res = append(res, el)
		})
	}
	return res
}

func (l *loader) buildLexer(g *grammarDef, net *atn.Network) *vocabulary {
	v := newVocabulary()
	caseInsensitive := g.option("caseInsensitive") == "true"
	lexerRules := g.lexerRules()

	aliases := make(map[string]*rule)
	for _, r := range lexerRules {
		el := literalAlias(r)
		if el == nil {
			continue
		}
		if prev := aliases[el.text]; prev != nil {
			if prev.mode == r.mode {
				l.report(ambiguousLiteralError(r.tok, el.tok.Text(), prev.name))
			}
			continue
		}
		aliases[el.text] = r
	}

	net.Channels = []string{defaultChannelName, hiddenChannelName}
	for _, c := range g.channels {
		net.Channels = append(net.Channels, c.Text())
	}

	net.Modes = []atn.Mode{{Name: defaultModeName}}
	for _, t := range g.modes {
		if net.ModeIndex(t.Text()) < 0 {
			net.Modes = append(net.Modes, atn.Mode{Name: t.Text()})
		}
	}

	if g.kind == Combined {
		for i, el := range implicitLiterals(g, aliases) {
			name := implicitTokenName + strconv.Itoa(i)
			t := v.add("", el.tok.Text())
			v.literalTypes[el.text] = t
			net.LexerRuleNames = append(net.LexerRuleNames, name)
			net.Modes[0].Rules = append(net.Modes[0].Rules, atn.LexerRule{
				Name:    name,
				Pattern: quotePattern(el.text, caseInsensitive),
				Type:    t,
			})
		}
	}

	for _, r := range lexerRules {
		net.LexerRuleNames = append(net.LexerRuleNames, r.name)
		if r.fragment {
			continue
		}

		el := literalAlias(r)
		if el == nil || aliases[el.text] != r {
			v.add(r.name, "")
			continue
		}
		v.literalTypes[el.text] = v.add(r.name, el.tok.Text())
	}
	for _, t := range g.tokens {
		if _, found := v.types[t.Text()]; !found {
			v.add(t.Text(), "")
		}
	}

	rb := newRegexBuilder(l, g)
	for _, r := range lexerRules {
		if r.fragment {
			continue
		}

		mi := 0
		if r.mode != "" {
			mi = net.ModeIndex(r.mode)
		}
		for _, lr := range l.lexerRules(r, rb, v, net, caseInsensitive) {
			net.Modes[mi].Rules = append(net.Modes[mi].Rules, lr)
		}
	}
	return v
}

// lexerRules translates a rule to network lexer rules.
// Consecutive alternatives having the same commands share a lexer rule.
func (l *loader) lexerRules(r *rule, rb *regexBuilder, v *vocabulary, net *atn.Network, caseInsensitive bool) []atn.LexerRule {
	var groups [][]*alt
	for i, a := range r.alts {
		if i > 0 && sameCommands(a.commands, r.alts[i-1].commands) {
			groups[len(groups)-1] = append(groups[len(groups)-1], a)
		} else {
			groups = append(groups, []*alt{a})
		}
	}

	var whole lexerPattern
	if len(groups) == 1 {
		whole = rb.rule(r)
		if !whole.ok {
			return nil
		}
	}

	res := make([]atn.LexerRule, 0, len(groups))
	for _, group := range groups {
		p := whole
		if len(groups) > 1 {
			p = lexerPattern{ok: true}
			for i, a := range group {
				ap := rb.alternative(a)
				if i > 0 {
					p.re += "|"
				}
				p.re += ap.re
				p.ok = p.ok && ap.ok
				p.lazy = p.lazy || ap.lazy
			}
			if !p.ok {
				return nil
			}
		}

		if matchesEmpty(p.re) {
			l.report(emptyTokenError(r.tok))
			return nil
		}

		lr := atn.LexerRule{
			Name:    r.name,
			Pattern: casePattern(p.re, caseInsensitive),
			Type:    v.types[r.name],
			Lazy:    p.lazy,
		}
		applyCommands(&lr, group[0].commands, v, net)
		res = append(res, lr)
	}
	return res
}

func sameCommands(a, b []*command) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].name.Text() != b[i].name.Text() || argText(a[i].arg) != argText(b[i].arg) {
			return false
		}
	}
	return true
}

func argText(t *lexer.Token) string {
	if t == nil {
		return ""
	}
	return t.Text()
}

func channelIndex(name string, net *atn.Network) int {
	if n, e := strconv.Atoi(name); e == nil {
		return n
	}
	for i, c := range net.Channels {
		if c == name {
			return i
		}
	}
	return atn.DefaultChannel
}

func applyCommands(lr *atn.LexerRule, commands []*command, v *vocabulary, net *atn.Network) {
	for _, c := range commands {
		arg := argText(c.arg)
		switch c.name.Text() {
		case "skip":
			lr.Skip = true
		case "more":
			lr.More = true
		case "popMode":
			lr.PopMode = true
		case "type":
			lr.Type = v.types[arg]
		case "channel":
			lr.Channel = channelIndex(arg, net)
		case "mode":
			lr.Mode = arg
		case "pushMode":
			lr.PushMode = arg
		}
	}
}

// netBuilder constructs parser states.
// Every fragment of the network is built as a pair of entry and exit states,
// the exit state has no transitions until it is linked to the next fragment.
type netBuilder struct {
	net       *atn.Network
	vocab     *vocabulary
	ruleIndex map[string]int
	rule      int
}

func (nb *netBuilder) newState(kind atn.StateKind) int {
	nb.net.States = append(nb.net.States, atn.State{Kind: kind, Rule: nb.rule})
	return len(nb.net.States) - 1
}

func (nb *netBuilder) link(from, to int) {
	s := &nb.net.States[from]
	s.Transitions = append(s.Transitions, atn.Transition{Kind: atn.EpsilonTransition, Target: to})
}

func (nb *netBuilder) setTransition(from int, t atn.Transition) {
	nb.net.States[from].Transitions = []atn.Transition{t}
}

func (nb *netBuilder) build(rules []*rule) {
	for i, r := range rules {
		nb.ruleIndex[r.name] = i
		nb.rule = i
		nb.net.RuleNames = append(nb.net.RuleNames, r.name)
		nb.net.RuleStarts = append(nb.net.RuleStarts, nb.newState(atn.RuleStartState))
		nb.net.RuleStops = append(nb.net.RuleStops, nb.newState(atn.RuleStopState))
	}

	for i, r := range rules {
		nb.rule = i
		in, out := nb.alts(r.alts)
		nb.link(nb.net.RuleStarts[i], in)
		nb.link(out, nb.net.RuleStops[i])
	}
}

func (nb *netBuilder) alts(alts []*alt) (int, int) {
	if len(alts) == 1 {
		return nb.seq(alts[0].elems)
	}

	start := nb.newState(atn.BlockStartState)
	end := nb.newState(atn.BlockEndState)
	for _, a := range alts {
		in, out := nb.seq(a.elems)
		nb.link(start, in)
		nb.link(out, end)
	}
	return start, end
}

func (nb *netBuilder) seq(elems []*element) (int, int) {
	in := nb.newState(atn.BasicState)
	out := in
	for _, el := range elems {
		elIn, elOut := nb.element(el)
		nb.link(out, elIn)
		out = elOut
	}
	return in, out
}

// decision adds body and exit alternatives, the exit one goes first for non-greedy decisions.
func (nb *netBuilder) decision(state, body, exit int, nonGreedy bool) {
	if nonGreedy {
		nb.link(state, exit)
		nb.link(state, body)
		nb.net.States[state].NonGreedy = true
	} else {
		nb.link(state, body)
		nb.link(state, exit)
	}
}

func (nb *netBuilder) element(el *element) (int, int) {
	in, out := nb.atom(el)
	switch el.suffix {
	case questionTok:
		start := nb.newState(atn.BlockStartState)
		end := nb.newState(atn.BlockEndState)
		nb.decision(start, in, end, el.nonGreedy)
		nb.link(out, end)
		return start, end

	case starTok:
		entry := nb.newState(atn.LoopEntryState)
		end := nb.newState(atn.BasicState)
		back := nb.newState(atn.BlockEndState)
		nb.decision(entry, in, end, el.nonGreedy)
		nb.link(out, back)
		nb.link(back, entry)
		return entry, end

	case plusTok:
		back := nb.newState(atn.LoopBackState)
		end := nb.newState(atn.BasicState)
		nb.link(out, back)
		nb.decision(back, in, end, el.nonGreedy)
		return in, end
	}
	return in, out
}

func (nb *netBuilder) atom(el *element) (int, int) {
	if el.kind == blockElem {
		return nb.alts(el.alts)
	}

	in := nb.newState(atn.BasicState)
	out := nb.newState(atn.BasicState)
	switch el.kind {
	case ruleRefElem:
		rule := nb.ruleIndex[el.name]
		nb.setTransition(in, atn.Transition{Kind: atn.RuleTransition, Target: nb.net.RuleStarts[rule], Rule: rule, Follow: out, Precedence: el.precedence})
	case precedenceElem:
		nb.setTransition(in, atn.Transition{Kind: atn.PrecedenceTransition, Target: out, Precedence: el.precedence})
	case wildcardElem:
		nb.setTransition(in, atn.Transition{Kind: atn.WildcardTransition, Target: out})
	case notElem:
		nb.setTransition(in, atn.Transition{Kind: atn.NotSetTransition, Target: out, Set: nb.typeSet(el.child)})
	default:
		nb.setTransition(in, atn.Transition{Kind: atn.AtomTransition, Target: out, Label: nb.tokenType(el)})
	}
	return in, out
}

func (nb *netBuilder) tokenType(el *element) int {
	if el.kind == literalElem {
		return nb.vocab.literalTypes[el.text]
	}
	if el.name == eofTokenName {
		return atn.EOF
	}
	return nb.vocab.types[el.name]
}

func (nb *netBuilder) typeSet(el *element) []int {
	seen := make(map[int]bool)
	if el.kind == blockElem {
		for _, a := range el.alts {
			seen[nb.tokenType(a.elems[0])] = true
		}
	} else {
		seen[nb.tokenType(el)] = true
	}

	res := make([]int, 0, len(seen))
	for t := range seen {
		res = append(res, t)
	}
	sort.Ints(res)
	return res
}
