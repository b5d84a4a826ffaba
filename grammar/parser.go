package grammar

import (
	"errors"
	"regexp"
	"strings"

	"github.com/ava12/g4scope"
	"github.com/ava12/g4scope/lexer"
	"github.com/ava12/g4scope/source"
)

// parser builds grammar definition using recursive descent.
// A syntax error is reported and parsing resumes after the next semicolon.
type parser struct {
	s      *scanner
	g      *grammarDef
	mode   string
	report func(*g4scope.Error)
}

var elementHeads = []string{idTok, literalTok, setTok, dotTok, notTok, lBraceTok, actionTok}
var atomHeads = []string{idTok, literalTok, setTok, dotTok, notTok, lBraceTok}

var packageRe = regexp.MustCompile(`\bpackage\s+([\p{L}_][\p{L}\p{N}_.]*)`)

func parseGrammar(src *source.Source, report func(*g4scope.Error)) *grammarDef {
	p := &parser{s: newScanner(src, report), g: newGrammarDef(), report: report}
	p.g.headTok = p.s.peek()
	p.parse()
	return p.g
}

func (p *parser) parse() {
	if e := p.parseHeader(); e != nil {
		p.fail(e)
	}

	for !isEof(p.s.peek()) {
		if e := p.parseTopLevel(); e != nil {
			p.fail(e)
		}
	}
}

// fail reports a parse error and skips the rest of the declaration.
func (p *parser) fail(e error) {
	var ge *g4scope.Error
	if !errors.As(e, &ge) {
		ge = syntaxError(p.s.peek(), e.Error())
	}
	p.report(ge)
	p.recover()
}

func tokenDesc(typ string) string {
	switch typ {
	case idTok:
		return "identifier"
	case literalTok:
		return "string literal"
	case setTok:
		return "character set"
	case intTok:
		return "integer"
	case actionTok:
		return "action"
	}
	return quote(typ)
}

func expectedDesc(types []string) string {
	if len(types) == 1 {
		return tokenDesc(types[0])
	}

	descs := make([]string, len(types))
	for i, typ := range types {
		descs[i] = tokenDesc(typ)
	}
	return "{" + strings.Join(descs, ", ") + "}"
}

// fetch returns the next token if its type name or text is one of types.
// Otherwise the token is put back and, if strict is set, an error is returned.
func (p *parser) fetch(types []string, strict bool, e error) (*lexer.Token, error) {
	if e != nil {
		return nil, e
	}

	t := p.s.next()
	for _, typ := range types {
		if t.TypeName() == typ || t.Text() == typ {
			return t, nil
		}
	}

	p.s.put(t)
	if strict {
		return nil, unexpectedTokenError(t, expectedDesc(types))
	}
	return nil, nil
}

func (p *parser) fetchOne(typ string, strict bool, e error) (*lexer.Token, error) {
	return p.fetch([]string{typ}, strict, e)
}

func (p *parser) skipOne(typ string, e error) error {
	_, e = p.fetch([]string{typ}, true, e)
	return e
}

// recover skips tokens up to and including the next semicolon.
func (p *parser) recover() {
	p.s.braces = false
	for {
		t := p.s.next()
		if isEof(t) {
			p.s.put(t)
			return
		}
		if t.TypeName() == opTok && t.Text() == semicolonTok {
			return
		}
	}
}

func (p *parser) parseHeader() error {
	t, e := p.fetch([]string{"lexer", "parser", "grammar"}, true, nil)
	if e != nil {
		return e
	}

	switch t.Text() {
	case "lexer":
		p.g.kind = LexerOnly
	case "parser":
		p.g.kind = ParserOnly
	}
	if t.Text() != "grammar" {
		e = p.skipOne("grammar", nil)
	}

	t, e = p.fetchOne(idTok, true, e)
	if e != nil {
		return e
	}

	p.g.name = t.Text()
	p.g.nameTok = t
	return p.skipOne(semicolonTok, nil)
}

func (p *parser) parseTopLevel() error {
	t := p.s.next()
	if t.TypeName() == opTok && t.Text() == atTok {
		return p.parseNamedAction(true)
	}

	if t.TypeName() != idTok {
		p.s.put(t)
		return unexpectedTokenError(t, "rule definition")
	}

	switch t.Text() {
	case "options":
		return p.parseOptions(p.g.options)

	case "tokens":
		return p.parseNameList(&p.g.tokens)

	case "channels":
		return p.parseNameList(&p.g.channels)

	case "import":
		p.g.imports = true
		p.report(unsupportedError(t, "grammar import"))
		p.recover()
		return nil

	case "mode":
		name, e := p.fetchOne(idTok, true, nil)
		e = p.skipOne(semicolonTok, e)
		if e != nil {
			return e
		}

		if p.g.kind != LexerOnly {
			p.report(modeInParserError(t))
		}
		p.mode = name.Text()
		p.g.modes = append(p.g.modes, name)
		return nil

	case "fragment":
		name, e := p.fetchOne(idTok, true, nil)
		if e != nil {
			return e
		}
		if !isTokenName(name.Text()) {
			return unexpectedTokenError(name, "token name")
		}
		return p.parseLexerRule(name, true)
	}

	if isTokenName(t.Text()) {
		return p.parseLexerRule(t, false)
	}
	return p.parseParserRule(t)
}

func (p *parser) parseNamedAction(topLevel bool) error {
	name, e := p.fetchOne(idTok, true, nil)
	if e != nil {
		return e
	}

	if sep, _ := p.fetchOne(scopeTok, false, nil); sep != nil {
		name, e = p.fetchOne(idTok, true, nil)
	}
	action, e := p.fetchOne(actionTok, true, e)
	if e != nil {
		return e
	}

	if topLevel && name.Text() == "header" && p.g.namespace == "" {
		if m := packageRe.FindStringSubmatch(action.Text()); m != nil {
			p.g.namespace = strings.TrimSuffix(m[1], ".")
		}
	}
	return nil
}

func (p *parser) parseOptions(into map[string]*lexer.Token) error {
	p.s.braces = true
	defer func() {
		p.s.braces = false
	}()

	e := p.skipOne(lCurlyTok, nil)
	for e == nil {
		var name, value *lexer.Token
		name, e = p.fetch([]string{idTok, rCurlyTok}, true, e)
		if e != nil || name.TypeName() == opTok {
			break
		}

		e = p.skipOne(assignTok, e)
		value, e = p.parseOptionValue(e)
		e = p.skipOne(semicolonTok, e)
		if e == nil && into != nil {
			into[name.Text()] = value
		}
	}
	return e
}

func (p *parser) parseOptionValue(e error) (*lexer.Token, error) {
	t, e := p.fetch([]string{idTok, literalTok, intTok}, true, e)
	if e != nil || t.TypeName() != idTok {
		return t, e
	}

	text := t.Text()
	for {
		dot, _ := p.fetchOne(dotTok, false, nil)
		if dot == nil {
			break
		}

		part, e := p.fetchOne(idTok, true, nil)
		if e != nil {
			return nil, e
		}
		text += "." + part.Text()
	}

	if text == t.Text() {
		return t, nil
	}
	return lexer.NewToken(idTokType, idTok, text, source.NewPos(t.Source(), t.Pos())), nil
}

func (p *parser) parseNameList(into *[]*lexer.Token) error {
	p.s.braces = true
	defer func() {
		p.s.braces = false
	}()

	e := p.skipOne(lCurlyTok, nil)
	for e == nil {
		var t *lexer.Token
		t, e = p.fetch([]string{idTok, rCurlyTok}, true, e)
		if e != nil || t.TypeName() == opTok {
			break
		}

		*into = append(*into, t)
		t, e = p.fetch([]string{commaTok, rCurlyTok}, true, e)
		if e != nil || t.Text() == rCurlyTok {
			break
		}
	}
	return e
}

func (p *parser) parseLexerRule(name *lexer.Token, fragment bool) error {
	r := &rule{name: name.Text(), tok: name, lexer: true, fragment: fragment, mode: p.mode}
	e := p.skipOne(colonTok, nil)
	r.alts, e = p.parseAlts(true, true, e)
	e = p.skipOne(semicolonTok, e)
	if e == nil {
		p.g.rules = append(p.g.rules, r)
	}
	return e
}

func (p *parser) parseParserRule(name *lexer.Token) error {
	r := &rule{name: name.Text(), tok: name}
	_, e := p.fetchOne(setTok, false, nil)
	e = p.skipClause("returns", e)
	e = p.skipThrows(e)
	e = p.skipClause("locals", e)
	e = p.parseRulePrequels(e)
	e = p.skipOne(colonTok, e)
	r.alts, e = p.parseAlts(false, true, e)
	e = p.skipOne(semicolonTok, e)
	e = p.skipExceptions(e)
	if e == nil {
		p.g.rules = append(p.g.rules, r)
	}
	return e
}

func (p *parser) skipClause(keyword string, e error) error {
	t, e := p.fetchOne(keyword, false, e)
	if t == nil {
		return e
	}

	_, e = p.fetchOne(setTok, true, nil)
	return e
}

func (p *parser) skipThrows(e error) error {
	t, e := p.fetchOne("throws", false, e)
	if t == nil {
		return e
	}

	for {
		_, e = p.fetchOne(idTok, true, nil)
		if e != nil {
			return e
		}
		if t, _ = p.fetchOne(commaTok, false, nil); t == nil {
			return nil
		}
	}
}

func (p *parser) parseRulePrequels(e error) error {
	for e == nil {
		t, _ := p.fetch([]string{"options", atTok}, false, nil)
		if t == nil {
			break
		}

		if t.Text() == "options" {
			e = p.parseOptions(nil)
		} else {
			e = p.parseNamedAction(false)
		}
	}
	return e
}

func (p *parser) skipExceptions(e error) error {
	for e == nil {
		t, _ := p.fetch([]string{"catch", "finally"}, false, nil)
		if t == nil {
			break
		}

		if t.Text() == "catch" {
			_, e = p.fetchOne(setTok, true, nil)
		}
		_, e = p.fetchOne(actionTok, true, e)
	}
	return e
}

func (p *parser) parseAlts(lexerRule, outer bool, e error) ([]*alt, error) {
	if e != nil {
		return nil, e
	}

	var res []*alt
	for {
		a, e := p.parseAlt(lexerRule, outer)
		if e != nil {
			return nil, e
		}

		res = append(res, a)
		if t, _ := p.fetchOne(pipeTok, false, nil); t == nil {
			return res, nil
		}
	}
}

func (p *parser) parseAlt(lexerRule, outer bool) (*alt, error) {
	a := &alt{tok: p.s.peek()}
	options, e := p.parseElementOptions(nil)
	if e != nil {
		return nil, e
	}
	a.rightAssoc = options["assoc"] == "right"

	for {
		el, e := p.parseElement(lexerRule)
		if e != nil {
			return nil, e
		}
		if el == nil {
			break
		}
		a.elems = append(a.elems, el)
	}

	if t, _ := p.fetchOne(hashTok, false, nil); t != nil {
		label, e := p.fetchOne(idTok, true, nil)
		if e != nil {
			return nil, e
		}
		a.label = label.Text()
	}

	if lexerRule && outer {
		if t, _ := p.fetchOne(arrowTok, false, nil); t != nil {
			var e error
			a.commands, e = p.parseCommands()
			if e != nil {
				return nil, e
			}
		}
	}
	return a, nil
}

// parseElement returns nil if the next token does not start an element.
// Actions and semantic predicates are skipped.
func (p *parser) parseElement(lexerRule bool) (*element, error) {
	for {
		t, _ := p.fetch(elementHeads, false, nil)
		if t == nil {
			return nil, nil
		}

		if t.TypeName() == actionTok {
			p.fetchOne(questionTok, false, nil)
			continue
		}

		if t.TypeName() == idTok {
			if label, _ := p.fetch([]string{assignTok, plusAssignTok}, false, nil); label != nil {
				var e error
				t, e = p.fetch(atomHeads, true, nil)
				if e != nil {
					return nil, e
				}
			}
		}

		el, e := p.parseAtom(t, lexerRule)
		e = p.skipElementOptions(e)
		if e != nil {
			return nil, e
		}

		if t, _ := p.fetch([]string{questionTok, starTok, plusTok}, false, nil); t != nil {
			el.suffix = t.Text()
			if q, _ := p.fetchOne(questionTok, false, nil); q != nil {
				el.nonGreedy = true
			}
		}
		return el, nil
	}
}

func (p *parser) parseAtom(t *lexer.Token, lexerRule bool) (*element, error) {
	switch t.TypeName() {
	case idTok:
		kind := ruleRefElem
		if isTokenName(t.Text()) {
			kind = tokenRefElem
		}
		return &element{kind: kind, name: t.Text(), tok: t}, nil

	case literalTok:
		el := &element{kind: literalElem, text: p.decodeLiteral(t), tok: t}
		if r, _ := p.fetchOne(rangeTok, false, nil); r != nil {
			last, e := p.fetchOne(literalTok, true, nil)
			if e != nil {
				return nil, e
			}
			el.kind = rangeElem
			el.last = p.decodeLiteral(last)
		}
		return el, nil

	case setTok:
		if len(t.Text()) == 2 {
			p.report(syntaxError(t, "string literals and sets cannot be empty"))
		}
		return &element{kind: setElem, text: t.Text()[1 : len(t.Text())-1], tok: t}, nil
	}

	switch t.Text() {
	case dotTok:
		return &element{kind: wildcardElem, tok: t}, nil

	case notTok:
		next, e := p.fetch([]string{idTok, literalTok, setTok, lBraceTok}, true, nil)
		if e != nil {
			return nil, e
		}
		child, e := p.parseAtom(next, lexerRule)
		if e != nil {
			return nil, e
		}
		return &element{kind: notElem, child: child, tok: t}, nil
	}

	return p.parseBlock(t, lexerRule)
}

func (p *parser) parseBlock(open *lexer.Token, lexerRule bool) (*element, error) {
	if t, _ := p.fetchOne("options", false, nil); t != nil {
		e := p.parseOptions(nil)
		e = p.skipOne(colonTok, e)
		if e != nil {
			return nil, e
		}
	}

	alts, e := p.parseAlts(lexerRule, false, nil)
	e = p.skipOne(rBraceTok, e)
	if e != nil {
		return nil, e
	}
	return &element{kind: blockElem, alts: alts, tok: open}, nil
}

func (p *parser) skipElementOptions(e error) error {
	_, e = p.parseElementOptions(e)
	return e
}

// parseElementOptions parses optional "<name=value, ...>" list.
// Options without values are stored with empty values.
func (p *parser) parseElementOptions(e error) (map[string]string, error) {
	t, e := p.fetchOne(ltTok, false, e)
	if t == nil {
		return nil, e
	}

	res := make(map[string]string)
	name, assigned := "", false
	for {
		t, e = p.fetch([]string{idTok, assignTok, commaTok, literalTok, intTok, dotTok, gtTok}, true, nil)
		if e != nil {
			return nil, e
		}

		switch {
		case t.Text() == gtTok || t.Text() == commaTok:
			if _, found := res[name]; name != "" && !found {
				res[name] = ""
			}
			if t.Text() == gtTok {
				return res, nil
			}
			name, assigned = "", false
		case t.Text() == assignTok:
			assigned = true
		case assigned:
			res[name] += t.Text()
		default:
			name += t.Text()
		}
	}
}

func (p *parser) parseCommands() ([]*command, error) {
	var res []*command
	for {
		name, e := p.fetchOne(idTok, true, nil)
		if e != nil {
			return nil, e
		}

		c := &command{name: name}
		if t, _ := p.fetchOne(lBraceTok, false, nil); t != nil {
			c.arg, e = p.fetch([]string{idTok, intTok}, true, nil)
			e = p.skipOne(rBraceTok, e)
			if e != nil {
				return nil, e
			}
		}

		res = append(res, c)
		if t, _ := p.fetchOne(commaTok, false, nil); t == nil {
			return res, nil
		}
	}
}

func (p *parser) decodeLiteral(t *lexer.Token) string {
	text := t.Text()
	value, bad := unescape(text[1 : len(text)-1])
	if bad != "" {
		p.report(invalidEscapeError(t, bad))
	} else if value == "" {
		p.report(syntaxError(t, "string literals and sets cannot be empty"))
	}
	return value
}
