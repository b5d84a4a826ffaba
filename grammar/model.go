// Package grammar converts ANTLR-style grammar descriptions (.g4 syntax) to recognizer models.
package grammar

import (
	"github.com/ava12/g4scope"
	"github.com/ava12/g4scope/atn"
	"github.com/ava12/g4scope/diag"
	"github.com/ava12/g4scope/source"
)

// Kind tells which rules a grammar contains.
type Kind int

// Grammar kinds:
const (
	Combined Kind = iota
	LexerOnly
	ParserOnly
)

var kindNames = []string{"combined", "lexer", "parser"}

func (k Kind) String() string {
	if k < Combined || k > ParserOnly {
		return "unknown"
	}
	return kindNames[k]
}

// Model is a loaded grammar. It must not be modified.
type Model struct {
	// Name contains grammar name from the header.
	Name string

	// Namespace contains package name from @header action or empty string.
	Namespace string

	Kind Kind

	// RuleNames contains parser rule names, lexer rule names for lexer grammars.
	RuleNames []string

	// StartRule contains start rule index, always the first declared parser rule.
	StartRule int

	Network *atn.Network
}

// HasParser returns true if the model contains parser rules.
func (m *Model) HasParser() bool {
	return m.Kind != LexerOnly && m.Network.HasParser()
}

// StartRuleName returns the name of the start rule or empty string for lexer grammars.
func (m *Model) StartRuleName() string {
	if !m.HasParser() {
		return ""
	}
	return m.RuleNames[m.StartRule]
}

// Option modifies loader settings.
type Option func(*loader)

// WithVocabulary supplies a lexer grammar model used by parser grammars.
func WithVocabulary(m *Model) Option {
	return func(l *loader) {
		l.vocab = m
	}
}

type loader struct {
	vocab *Model
	errs  []*g4scope.Error
	fatal bool
}

func (l *loader) report(e *g4scope.Error) {
	l.errs = append(l.errs, e)
	if IsFatal(e.Code) {
		l.fatal = true
	}
}

func (l *loader) diagnostics() diag.List {
	var res diag.List
	for _, e := range l.errs {
		src := diag.Grammar
		if e.Code == InternalError {
			src = diag.Unknown
		}
		res.Add(diag.FromError(src, e))
	}
	return res
}

// Load parses and checks grammar text, name is used as the source name.
// Every problem found is returned as a GRAMMAR error message.
// Returned model is nil if grammar has fatal errors, a model built from
// valid parts of the grammar is returned if all errors are non-fatal.
func Load(name, text string, opts ...Option) (*Model, diag.List) {
	l := &loader{}
	for _, opt := range opts {
		opt(l)
	}

	g := parseGrammar(source.New(name, []byte(text)), l.report)
	l.check(g)
	if l.fatal {
		return nil, l.diagnostics()
	}

	m := l.build(g)
	if l.fatal {
		return nil, l.diagnostics()
	}
	return m, l.diagnostics()
}

// LoadPair loads a grammar together with the lexer grammar it takes its vocabulary from.
// The lexer grammar is skipped if lexerText is empty.
// Returned list contains lexer grammar messages followed by grammar messages.
func LoadPair(name, text, lexerName, lexerText string) (*Model, diag.List) {
	if lexerText == "" {
		return Load(name, text)
	}

	vocab, errs := Load(lexerName, lexerText)
	if vocab == nil {
		return nil, errs
	}
	if vocab.Kind != LexerOnly {
		errs.AddError(diag.Grammar, newError(NotLexerVocabularyError, lexerName, 0, 0, vocab.Name))
		return nil, errs
	}

	m, more := Load(name, text, WithVocabulary(vocab))
	errs.Extend(more)
	return m, errs
}
