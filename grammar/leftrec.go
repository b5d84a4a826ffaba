package grammar

import (
	"github.com/ava12/g4scope/internal/ints"
)

func isSelfRef(r *rule, el *element) bool {
	return el.kind == ruleRefElem && el.name == r.name && el.suffix == ""
}

func isLeftRecursiveAlt(r *rule, a *alt) bool {
	return len(a.elems) > 0 && isSelfRef(r, a.elems[0])
}

// endsWithSelfRef returns true for alternatives r : ... r having at least one element before the last reference.
func endsWithSelfRef(r *rule, a *alt) bool {
	return len(a.elems) > 1 && isSelfRef(r, a.elems[len(a.elems)-1])
}

// withLastPrecedence returns a copy of elements, the last one invoking its rule at the given level.
func withLastPrecedence(elems []*element, prec int) []*element {
	res := make([]*element, len(elems))
	copy(res, elems)
	last := *res[len(res)-1]
	last.precedence = prec
	res[len(res)-1] = &last
	return res
}

// rewriteLeftRecursion rewrites directly left-recursive rules to precedence climbing loops.
// Alternative i of n gets level n-i+1, so earlier alternatives bind tighter:
//
//	e : e '*' e | e '+' e | '-' e | e '!' | INT ;
//
// becomes
//
//	e : ('-' e[3] | INT) ({5>=p}? '*' e[6] | {4>=p}? '+' e[5] | {2>=p}? '!')* ;
//
// where p is the level e is invoked at and {x>=p}? is a precedence predicate.
// Right hand operand of a binary alternative is invoked at the next level,
// or at the same level for <assoc=right> alternatives.
// Every pass of the loop wraps the rule node built so far into a new one.
//
// Remaining left recursion is reported then, rules having only recursive alternatives included.
func (l *loader) rewriteLeftRecursion(g *grammarDef) {
	for _, r := range g.parserRules() {
		var primaries, tails []*alt
		for i, a := range r.alts {
			prec := len(r.alts) - i
			switch {
			case isLeftRecursiveAlt(r, a):
				elems := a.elems[1:]
				if endsWithSelfRef(r, a) {
					next := prec + 1
					if a.rightAssoc {
						next = prec
					}
					elems = withLastPrecedence(elems, next)
				}
				pred := &element{kind: precedenceElem, precedence: prec, tok: a.tok}
				tails = append(tails, &alt{elems: append([]*element{pred}, elems...), label: a.label, tok: a.tok})

			case endsWithSelfRef(r, a):
				primaries = append(primaries, &alt{elems: withLastPrecedence(a.elems, prec), label: a.label, tok: a.tok})

			default:
				primaries = append(primaries, a)
			}
		}
		if len(tails) == 0 || len(primaries) == 0 {
			continue
		}

		primary := &element{kind: blockElem, alts: primaries, tok: r.tok}
		tail := &element{kind: blockElem, alts: tails, suffix: starTok, tok: r.tok}
		r.alts = []*alt{{elems: []*element{primary, tail}, tok: r.alts[0].tok}}
	}

	l.checkLeftRecursion(g)
}

// leftRefs adds indices of rules that can be invoked before any token is consumed.
// Returns true if the sequence can match no tokens.
func leftRefs(elems []*element, index map[string]int, n nullability, into *ints.Set) bool {
	for _, el := range elems {
		switch el.kind {
		case ruleRefElem:
			if i, found := index[el.name]; found {
				into.Add(i)
			}
		case blockElem:
			for _, a := range el.alts {
				leftRefs(a.elems, index, n, into)
			}
		}

		if !n.element(el) {
			return false
		}
	}
	return true
}

func (l *loader) checkLeftRecursion(g *grammarDef) {
	rules := g.parserRules()
	index := make(map[string]int, len(rules))
	for i, r := range rules {
		index[r.name] = i
	}

	n := newNullability(rules)
	reach := make([]*ints.Set, len(rules))
	for i, r := range rules {
		reach[i] = ints.NewSet()
		for _, a := range r.alts {
			leftRefs(a.elems, index, n, reach[i])
		}
	}

	for changed := true; changed; {
		changed = false
		for i := range rules {
			for _, j := range reach[i].ToSlice() {
				if reach[i].Union(reach[j]) {
					changed = true
				}
			}
		}
	}

	reported := ints.NewSet()
	for i, r := range rules {
		if reported.Contains(i) || !reach[i].Contains(i) {
			continue
		}

		var group []*rule
		for _, j := range reach[i].ToSlice() {
			if reach[j].Contains(i) {
				group = append(group, rules[j])
				reported.Add(j)
			}
		}
		l.report(leftRecursionError(r.tok, names(group)))
	}
}
