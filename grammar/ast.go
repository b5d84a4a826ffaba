package grammar

import (
	"unicode"
	"unicode/utf8"

	"github.com/ava12/g4scope/lexer"
)

type elemKind int

const (
	blockElem elemKind = iota
	ruleRefElem
	tokenRefElem
	literalElem
	rangeElem
	setElem
	wildcardElem
	notElem

	// precedenceElem is a precedence predicate added by left recursion rewriting.
	precedenceElem
)

// element is an item of an alternative.
// name holds referenced rule or token name, text holds decoded literal value or raw set content,
// last holds decoded range end.
// precedence holds the level of a rule reference or a precedence predicate.
type element struct {
	kind       elemKind
	name       string
	text       string
	last       string
	alts       []*alt
	child      *element
	suffix     string
	nonGreedy  bool
	precedence int
	tok        *lexer.Token
}

func (el *element) isOptional() bool {
	return el.suffix == questionTok || el.suffix == starTok
}

func (el *element) isLoop() bool {
	return el.suffix == starTok || el.suffix == plusTok
}

type command struct {
	name *lexer.Token
	arg  *lexer.Token
}

type alt struct {
	elems      []*element
	label      string
	commands   []*command
	rightAssoc bool
	tok        *lexer.Token
}

type rule struct {
	name     string
	tok      *lexer.Token
	lexer    bool
	fragment bool
	mode     string
	alts     []*alt
}

type grammarDef struct {
	kind      Kind
	name      string
	nameTok   *lexer.Token
	headTok   *lexer.Token
	namespace string
	options   map[string]*lexer.Token
	tokens    []*lexer.Token
	channels  []*lexer.Token
	modes     []*lexer.Token
	imports   bool
	rules     []*rule
	ruleIndex map[string]*rule
}

func newGrammarDef() *grammarDef {
	return &grammarDef{
		options:   make(map[string]*lexer.Token),
		ruleIndex: make(map[string]*rule),
	}
}

func (g *grammarDef) option(name string) string {
	t := g.options[name]
	if t == nil {
		return ""
	}
	if t.TypeName() == literalTok {
		return t.Text()[1 : len(t.Text())-1]
	}
	return t.Text()
}

func (g *grammarDef) parserRules() []*rule {
	var res []*rule
	for _, r := range g.rules {
		if !r.lexer {
			res = append(res, r)
		}
	}
	return res
}

func (g *grammarDef) lexerRules() []*rule {
	var res []*rule
	for _, r := range g.rules {
		if r.lexer {
			res = append(res, r)
		}
	}
	return res
}

func isTokenName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// walkElements calls f for every element of alternatives including nested ones, parents first.
func walkElements(alts []*alt, f func(*element)) {
	for _, a := range alts {
		for _, el := range a.elems {
			walkElement(el, f)
		}
	}
}

func walkElement(el *element, f func(*element)) {
	f(el)
	if el.child != nil {
		walkElement(el.child, f)
	}
	walkElements(el.alts, f)
}
