package atn

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"
)

const checkInterval = 256

// Lexer tokenizes input text using lexer modes of a network.
// Among all rules of the current mode the one giving the longest match wins,
// the first declared rule wins ties.
type Lexer struct {
	net       *Network
	patterns  [][]*regexp.Regexp
	targets   [][]modeTarget
	input     string
	pos       int
	line, col int
	mode      int
	modeStack []int
	count     int

	// Errors collects token recognition errors in input order.
	Errors []*SyntaxError
}

type modeTarget struct {
	mode, push int
}

// NewLexer compiles lexer rule patterns of the network.
func NewLexer(net *Network, input string) (*Lexer, error) {
	if !net.HasLexer() {
		return nil, fmt.Errorf("grammar %s has no lexer rules", net.GrammarName)
	}

	l := &Lexer{net: net, input: input, line: 1}
	l.patterns = make([][]*regexp.Regexp, len(net.Modes))
	l.targets = make([][]modeTarget, len(net.Modes))
	for mi, m := range net.Modes {
		l.patterns[mi] = make([]*regexp.Regexp, len(m.Rules))
		l.targets[mi] = make([]modeTarget, len(m.Rules))
		for ri, r := range m.Rules {
			target := modeTarget{-1, -1}
			if r.Mode != "" {
				if target.mode = net.ModeIndex(r.Mode); target.mode < 0 {
					return nil, fmt.Errorf("lexer rule %s: unknown mode %s", r.Name, r.Mode)
				}
			}
			if r.PushMode != "" {
				if target.push = net.ModeIndex(r.PushMode); target.push < 0 {
					return nil, fmt.Errorf("lexer rule %s: unknown mode %s", r.Name, r.PushMode)
				}
			}
			l.targets[mi][ri] = target

			re, e := regexp.Compile(`^(?:` + r.Pattern + `)`)
			if e != nil {
				return nil, fmt.Errorf("lexer rule %s: %w", r.Name, e)
			}
			if !r.Lazy {
				re.Longest()
			}
			l.patterns[mi][ri] = re
		}
	}
	return l, nil
}

// Mode returns current mode index.
func (l *Lexer) Mode() int {
	return l.mode
}

func (l *Lexer) advance(size int) {
	text := l.input[l.pos : l.pos+size]
	for _, r := range text {
		if r == '\n' {
			l.line++
			l.col = 0
		} else {
			l.col++
		}
	}
	l.pos += size
}

func (l *Lexer) match() (int, int) {
	best := -1
	bestLen := 0
	rest := l.input[l.pos:]
	for i, re := range l.patterns[l.mode] {
		loc := re.FindStringIndex(rest)
		if loc != nil && loc[1] > bestLen {
			best = i
			bestLen = loc[1]
		}
	}
	return best, bestLen
}

func (l *Lexer) applyMode(r *LexerRule, target modeTarget) {
	if r.PopMode && len(l.modeStack) > 0 {
		l.mode = l.modeStack[len(l.modeStack)-1]
		l.modeStack = l.modeStack[:len(l.modeStack)-1]
	}
	if target.push >= 0 {
		l.modeStack = append(l.modeStack, l.mode)
		l.mode = target.push
	}
	if target.mode >= 0 {
		l.mode = target.mode
	}
}

func (l *Lexer) eofToken() *Token {
	return &Token{Type: EOF, Text: "<EOF>", Line: l.line, Column: l.col, Start: l.pos, Stop: l.pos, Index: l.count}
}

// NextToken returns the next token, an EOF token is returned at the end of input.
// Unrecognized characters are reported and skipped one at a time.
func (l *Lexer) NextToken() *Token {
	for {
		start, line, col := l.pos, l.line, l.col
		for {
			if l.pos >= len(l.input) {
				return l.eofToken()
			}

			ri, size := l.match()
			if ri < 0 {
				_, size = utf8.DecodeRuneInString(l.input[l.pos:])
				text := l.input[start : l.pos+size]
				l.Errors = append(l.Errors, &SyntaxError{line, col, "token recognition error at: " + QuoteText(text)})
				l.advance(size)
				break
			}

			r := &l.net.Modes[l.mode].Rules[ri]
			target := l.targets[l.mode][ri]
			l.advance(size)
			l.applyMode(r, target)
			if r.Skip {
				break
			}
			if r.More {
				continue
			}

			t := &Token{
				Type:    r.Type,
				Text:    l.input[start:l.pos],
				Channel: r.Channel,
				Line:    line,
				Column:  col,
				Start:   start,
				Stop:    l.pos,
				Index:   l.count,
			}
			l.count++
			return t
		}
	}
}

// Tokenize fetches all remaining tokens, the last one is always an EOF token.
// If ctx is done, tokens fetched so far are returned with ErrInterrupted.
func (l *Lexer) Tokenize(ctx context.Context) ([]*Token, error) {
	var res []*Token
	for {
		if len(res)%checkInterval == checkInterval-1 && ctx.Err() != nil {
			return res, fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
		}

		t := l.NextToken()
		res = append(res, t)
		if t.Type == EOF {
			return res, nil
		}
	}
}
