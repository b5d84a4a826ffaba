package grammar

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// lexerPattern is a lexer rule translated to RE2 syntax.
type lexerPattern struct {
	re   string
	lazy bool
	ok   bool
}

// regexBuilder translates lexer rules, referenced rules are inlined.
type regexBuilder struct {
	l       *loader
	g       *grammarDef
	results map[string]lexerPattern
}

func newRegexBuilder(l *loader, g *grammarDef) *regexBuilder {
	return &regexBuilder{l: l, g: g, results: make(map[string]lexerPattern)}
}

func (rb *regexBuilder) rule(r *rule) lexerPattern {
	if p, found := rb.results[r.name]; found {
		return p
	}

	p := lexerPattern{ok: true}
	p.re = rb.alts(r.alts, &p)
	rb.results[r.name] = p
	return p
}

// alternative translates a single top-level alternative of a rule.
func (rb *regexBuilder) alternative(a *alt) lexerPattern {
	p := lexerPattern{ok: true}
	p.re = rb.seq(a.elems, &p)
	return p
}

func (rb *regexBuilder) alts(alts []*alt, p *lexerPattern) string {
	parts := make([]string, len(alts))
	for i, a := range alts {
		parts[i] = rb.seq(a.elems, p)
	}
	return strings.Join(parts, "|")
}

func (rb *regexBuilder) seq(elems []*element, p *lexerPattern) string {
	sb := &strings.Builder{}
	for _, el := range elems {
		sb.WriteString(rb.element(el, p))
	}
	return sb.String()
}

func (rb *regexBuilder) element(el *element, p *lexerPattern) string {
	re, atomic := rb.atom(el, p)
	if el.suffix == "" {
		return re
	}

	if !atomic {
		re = "(?:" + re + ")"
	}
	re += el.suffix
	if el.nonGreedy {
		re += "?"
		p.lazy = true
	}
	return re
}

// atom returns translated element without suffix and true if the result is a single regexp atom.
func (rb *regexBuilder) atom(el *element, p *lexerPattern) (string, bool) {
	switch el.kind {
	case literalElem:
		return regexp.QuoteMeta(el.text), utf8.RuneCountInString(el.text) == 1

	case wildcardElem:
		return "(?s:.)", true

	case blockElem:
		return "(?:" + rb.alts(el.alts, p) + ")", true

	case tokenRefElem:
		ref := rb.g.ruleIndex[el.name]
		if ref == nil || !ref.lexer {
			p.ok = false
			return "", true
		}
		sub := rb.rule(ref)
		p.ok = p.ok && sub.ok
		p.lazy = p.lazy || sub.lazy
		return "(?:" + sub.re + ")", true

	case rangeElem, setElem, notElem:
		items, ok := rb.classItems(el)
		if !ok {
			p.ok = false
			return "", true
		}
		if el.kind == notElem {
			return "[^" + items + "]", true
		}
		return "[" + items + "]", true
	}

	p.ok = false
	return "", true
}

// classItems returns character class content for sets, ranges, single-character literals
// and their combinations under ~.
func (rb *regexBuilder) classItems(el *element) (string, bool) {
	if el.kind != notElem && el.kind != setElem && el.kind != rangeElem && el.suffix != "" {
		return "", rb.notSet(el)
	}

	switch el.kind {
	case setElem:
		items, e := translateSet(el.text)
		if e != "" {
			rb.l.report(invalidSetError(el.tok, e))
			return "", false
		}
		return items, true

	case rangeElem:
		first, size := utf8.DecodeRuneInString(el.text)
		last, lastSize := utf8.DecodeRuneInString(el.last)
		if size != len(el.text) || lastSize != len(el.last) || el.text == "" || el.last == "" {
			rb.l.report(invalidSetError(el.tok, "range bounds must be single characters"))
			return "", false
		}
		if first > last {
			rb.l.report(invalidSetError(el.tok, "empty range"))
			return "", false
		}
		return classRune(first) + "-" + classRune(last), true

	case literalElem:
		r, size := utf8.DecodeRuneInString(el.text)
		if size == 0 || size != len(el.text) {
			return "", rb.notSet(el)
		}
		return classRune(r), true

	case tokenRefElem:
		ref := rb.g.ruleIndex[el.name]
		if ref == nil || !ref.lexer || len(ref.alts) != 1 || len(ref.alts[0].elems) != 1 {
			return "", rb.notSet(el)
		}
		return rb.classItems(ref.alts[0].elems[0])

	case blockElem:
		sb := &strings.Builder{}
		for _, a := range el.alts {
			if len(a.elems) != 1 {
				return "", rb.notSet(el)
			}
			items, ok := rb.classItems(a.elems[0])
			if !ok {
				return "", false
			}
			sb.WriteString(items)
		}
		return sb.String(), true

	case notElem:
		if el.child.kind == notElem {
			return "", rb.notSet(el)
		}
		return rb.classItems(el.child)
	}

	return "", rb.notSet(el)
}

func (rb *regexBuilder) notSet(el *element) bool {
	rb.l.report(invalidSetError(el.tok, "not a set of single characters"))
	return false
}

func classRune(r rune) string {
	if r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
		return string(r)
	}
	return fmt.Sprintf(`\x{%x}`, r)
}

// translateSet converts content of [...] set to RE2 character class content.
// Returns empty reason on success.
func translateSet(content string) (string, string) {
	if content == "" {
		return "", "empty set"
	}

	sb := &strings.Builder{}
	var prev rune
	hasPrev := false
	inRange := false
	for i := 0; i < len(content); {
		r, size := utf8.DecodeRuneInString(content[i:])
		var class string

		if r == '\\' {
			if i+size >= len(content) {
				return "", "dangling escape"
			}

			letter := content[i+size]
			switch {
			case letter == 'p' || letter == 'P':
				end := strings.IndexByte(content[i:], '}')
				if end < 0 || i+size+1 >= len(content) || content[i+size+1] != '{' {
					return "", "invalid property escape"
				}
				class = content[i : i+end+1]
				size = end + 1

			case letter == 'u':
				ur, usize := decodeHexEscape(content[i:])
				if usize == 0 {
					return "", "invalid unicode escape"
				}
				r, size = ur, usize

			default:
				entry, valid := escapeCharMap[letter]
				switch {
				case valid:
					r = entry.substitute
				case letter == ']' || letter == '-' || letter == '[' || letter == '^':
					r = rune(letter)
				default:
					return "", "invalid escape sequence \\" + string(letter)
				}
				size++
			}
		} else if r == '-' && hasPrev && !inRange && i+size < len(content) {
			inRange = true
			i += size
			continue
		}
		i += size

		if class != "" {
			if inRange {
				return "", "property escape in range"
			}
			sb.WriteString(class)
			hasPrev = false
			continue
		}

		if inRange {
			if prev > r {
				return "", "empty range"
			}
			sb.WriteString("-" + classRune(r))
			inRange = false
			hasPrev = false
			continue
		}

		sb.WriteString(classRune(r))
		prev = r
		hasPrev = true
	}

	items := sb.String()
	if _, e := regexp.Compile("[" + items + "]"); e != nil {
		return "", e.Error()
	}
	return items, ""
}

func quotePattern(value string, caseInsensitive bool) string {
	return casePattern(regexp.QuoteMeta(value), caseInsensitive)
}

func casePattern(re string, caseInsensitive bool) string {
	if caseInsensitive {
		return "(?i:" + re + ")"
	}
	return re
}

// matchesEmpty returns true if the pattern matches an empty string.
func matchesEmpty(re string) bool {
	compiled, e := regexp.Compile(`^(?:` + re + `)$`)
	return e == nil && compiled.MatchString("")
}
