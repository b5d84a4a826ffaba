package grammar

import (
	"sort"
	"strconv"

	"github.com/agext/levenshtein"

	"github.com/ava12/g4scope/internal/ints"
	"github.com/ava12/g4scope/internal/queue"
	"github.com/ava12/g4scope/lexer"
)

const (
	defaultModeName    = "DEFAULT_MODE"
	defaultChannelName = "DEFAULT_TOKEN_CHANNEL"
	hiddenChannelName  = "HIDDEN"
	implicitTokenName  = "T__"
	eofTokenName       = "EOF"
)

func (l *loader) check(g *grammarDef) {
	l.checkKind(g)
	l.indexRules(g)
	if !l.checkRulesPresent(g) {
		return
	}

	l.checkReferences(g)
	l.checkCommands(g)
	l.checkLexerRecursion(g)
	l.rewriteLeftRecursion(g)
	l.checkClosures(g)
}

func (l *loader) checkKind(g *grammarDef) {
	var rules []*rule
	for _, r := range g.rules {
		switch {
		case g.kind == LexerOnly && !r.lexer:
			l.report(parserRuleInLexerError(r.tok))
		case g.kind == ParserOnly && r.lexer:
			l.report(lexerRuleInParserError(r.tok))
		default:
			rules = append(rules, r)
		}
	}
	g.rules = rules

	if g.kind == ParserOnly && len(g.channels) > 0 {
		l.report(unsupportedError(g.channels[0], "channels in parser grammar"))
	}
}

func (l *loader) indexRules(g *grammarDef) {
	var rules []*rule
	for _, r := range g.rules {
		prev := g.ruleIndex[r.name]
		if prev != nil {
			l.report(duplicateRuleError(r.tok, prev.tok))
			continue
		}

		g.ruleIndex[r.name] = r
		rules = append(rules, r)
	}
	g.rules = rules
}

func (g *grammarDef) positionToken() *lexer.Token {
	if g.nameTok != nil {
		return g.nameTok
	}
	return g.headTok
}

// checkRulesPresent returns false if there is nothing to check further.
// A combined grammar without parser rules is treated as a lexer grammar.
func (l *loader) checkRulesPresent(g *grammarDef) bool {
	if g.kind == Combined && len(g.rules) > 0 && len(g.parserRules()) == 0 {
		g.kind = LexerOnly
	}

	var has bool
	switch g.kind {
	case LexerOnly:
		has = len(g.lexerRules()) > 0
	default:
		has = len(g.parserRules()) > 0
	}
	if !has {
		l.report(noRulesError(g.positionToken(), g.name))
		return false
	}

	if g.kind == ParserOnly && (l.vocab == nil || l.vocab.Network == nil || !l.vocab.Network.HasLexer()) {
		l.report(missingVocabularyError(g.positionToken(), g.name))
		return false
	}
	return true
}

// similarName returns a name close to the given one or an empty string.
func similarName(name string, candidates []string) string {
	for _, c := range candidates {
		if levenshtein.Distance(name, c, nil) < 3 {
			return c
		}
	}
	return ""
}

func ruleNames(rules []*rule, fragments bool) []string {
	var res []string
	for _, r := range rules {
		if fragments || !r.fragment {
			res = append(res, r.name)
		}
	}
	return res
}

func (g *grammarDef) declaredToken(name string) bool {
	for _, t := range g.tokens {
		if t.Text() == name {
			return true
		}
	}
	return false
}

func (l *loader) vocabularyHas(name string) bool {
	return l.vocab != nil && l.vocab.Network.Vocabulary.TypeOf(name) > 0
}

func (l *loader) vocabularyLiteral(value string) bool {
	if l.vocab == nil {
		return false
	}
	_, found := literalTypes(l.vocab.Network.Vocabulary)[value]
	return found
}

func (l *loader) tokenCandidates(g *grammarDef) []string {
	var res []string
	if g.kind == ParserOnly {
		res = append(res, l.vocab.Network.Vocabulary.Symbols...)
	} else {
		res = ruleNames(g.lexerRules(), false)
	}
	for _, t := range g.tokens {
		res = append(res, t.Text())
	}
	return res
}

func (l *loader) checkReferences(g *grammarDef) {
	parserNames := ruleNames(g.parserRules(), true)
	lexerNames := ruleNames(g.lexerRules(), true)
	tokenNames := l.tokenCandidates(g)

	for _, r := range g.rules {
		walkElements(r.alts, func(el *element) {
			if r.lexer {
				l.checkLexerElement(g, r, el, lexerNames)
			} else {
				l.checkParserElement(g, r, el, parserNames, tokenNames)
			}
		})
	}
}

func (l *loader) checkParserElement(g *grammarDef, r *rule, el *element, parserNames, tokenNames []string) {
	switch el.kind {
	case ruleRefElem:
		if g.ruleIndex[el.name] == nil {
			l.report(undefinedRuleError(el.tok, similarName(el.name, parserNames)))
		}

	case tokenRefElem:
		if el.name == eofTokenName || g.declaredToken(el.name) {
			return
		}
		if g.kind == ParserOnly {
			if !l.vocabularyHas(el.name) {
				l.report(undefinedTokenError(el.tok, similarName(el.name, tokenNames)))
			}
			return
		}

		ref := g.ruleIndex[el.name]
		switch {
		case ref == nil:
			l.report(undefinedTokenError(el.tok, similarName(el.name, tokenNames)))
		case ref.fragment:
			l.report(fragmentReferenceError(el.tok, r.name))
		}

	case literalElem:
		if g.kind == ParserOnly && !l.vocabularyLiteral(el.text) {
			l.report(undefinedLiteralError(el.tok))
		}

	case rangeElem:
		l.report(lexerElementError(el.tok, "character range"))

	case setElem:
		l.report(lexerElementError(el.tok, "character set"))

	case notElem:
		if !isTokenSet(el.child) {
			l.report(notSetError(el.tok, r.name))
		}
	}
}

// isTokenSet returns true if the element is a token, a literal, or a block of single tokens.
func isTokenSet(el *element) bool {
	if el.suffix != "" {
		return false
	}

	switch el.kind {
	case tokenRefElem:
		return el.name != eofTokenName
	case literalElem:
		return true
	case blockElem:
		for _, a := range el.alts {
			if len(a.elems) != 1 || !isTokenSet(a.elems[0]) || a.elems[0].kind == blockElem {
				return false
			}
		}
		return true
	}
	return false
}

func (l *loader) checkLexerElement(g *grammarDef, r *rule, el *element, lexerNames []string) {
	switch el.kind {
	case ruleRefElem:
		l.report(parserRuleReferenceError(el.tok, r.name))

	case tokenRefElem:
		if el.name == eofTokenName {
			l.report(unsupportedError(el.tok, "EOF in lexer rule"))
			return
		}

		ref := g.ruleIndex[el.name]
		if ref == nil || !ref.lexer {
			l.report(undefinedRuleError(el.tok, similarName(el.name, lexerNames)))
		}
	}
}

func (g *grammarDef) hasMode(name string) bool {
	if name == defaultModeName {
		return true
	}
	for _, m := range g.modes {
		if m.Text() == name {
			return true
		}
	}
	return false
}

func (g *grammarDef) hasChannel(name string) bool {
	if name == defaultChannelName || name == hiddenChannelName {
		return true
	}
	if _, e := strconv.Atoi(name); e == nil {
		return true
	}
	for _, c := range g.channels {
		if c.Text() == name {
			return true
		}
	}
	return false
}

var commandArgs = map[string]bool{
	"skip":     false,
	"more":     false,
	"popMode":  false,
	"type":     true,
	"channel":  true,
	"mode":     true,
	"pushMode": true,
}

func (l *loader) checkCommands(g *grammarDef) {
	for _, r := range g.lexerRules() {
		for _, a := range r.alts {
			for _, c := range a.commands {
				l.checkCommand(g, c)
			}
		}
	}
}

func (l *loader) checkCommand(g *grammarDef, c *command) {
	name := c.name.Text()
	hasArg, known := commandArgs[name]
	if !known {
		l.report(unsupportedCommandError(c.name))
		return
	}
	if hasArg && c.arg == nil {
		l.report(missingArgumentError(c.name))
		return
	}
	if !hasArg {
		if c.arg != nil {
			l.report(extraArgumentError(c.name))
		}
		return
	}

	arg := c.arg.Text()
	switch name {
	case "type":
		ref := g.ruleIndex[arg]
		if !g.declaredToken(arg) && (ref == nil || !ref.lexer || ref.fragment) {
			l.report(undefinedTokenError(c.arg, similarName(arg, l.tokenCandidates(g))))
		}
	case "channel":
		if !g.hasChannel(arg) {
			l.report(unknownChannelError(c.arg))
		}
	default:
		if !g.hasMode(arg) {
			l.report(unknownModeError(c.arg))
		}
	}
}

// checkLexerRecursion reports lexer rules that refer to themselves directly or indirectly.
func (l *loader) checkLexerRecursion(g *grammarDef) {
	rules := g.lexerRules()
	index := make(map[string]int, len(rules))
	for i, r := range rules {
		index[r.name] = i
	}

	refs := make([][]int, len(rules))
	for i, r := range rules {
		walkElements(r.alts, func(el *element) {
			if j, found := index[el.name]; found && el.kind == tokenRefElem {
				refs[i] = append(refs[i], j)
			}
		})
	}

	for i, r := range rules {
		visited := ints.NewSet()
		q := queue.New(refs[i]...)
		for !q.IsEmpty() {
			j, _ := q.First()
			if j == i {
				l.report(recursiveTokenError(r.tok))
				break
			}
			if !visited.Contains(j) {
				visited.Add(j)
				q.Append(refs[j]...)
			}
		}
	}
}

// nullability tells which parser rules and elements can match no tokens.
type nullability map[string]bool

func newNullability(rules []*rule) nullability {
	n := make(nullability)
	for changed := true; changed; {
		changed = false
		for _, r := range rules {
			if !n[r.name] && n.alts(r.alts) {
				n[r.name] = true
				changed = true
			}
		}
	}
	return n
}

func (n nullability) alts(alts []*alt) bool {
	for _, a := range alts {
		if n.seq(a.elems) {
			return true
		}
	}
	return false
}

func (n nullability) seq(elems []*element) bool {
	for _, el := range elems {
		if !n.element(el) {
			return false
		}
	}
	return true
}

func (n nullability) element(el *element) bool {
	return el.isOptional() || n.body(el)
}

// body ignores element suffix.
func (n nullability) body(el *element) bool {
	switch el.kind {
	case blockElem:
		return n.alts(el.alts)
	case ruleRefElem:
		return n[el.name]
	case precedenceElem:
		return true
	}
	return false
}

func (l *loader) checkClosures(g *grammarDef) {
	rules := g.parserRules()
	n := newNullability(rules)
	for _, r := range rules {
		walkElements(r.alts, func(el *element) {
			if el.isLoop() && n.body(el) {
				l.report(emptyClosureError(el.tok, r.name))
			}
		})
	}
}

func names(rules []*rule) []string {
	res := make([]string, len(rules))
	for i, r := range rules {
		res[i] = r.name
	}
	sort.Strings(res)
	return res
}
