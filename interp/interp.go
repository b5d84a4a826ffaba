// Package interp runs grammar models directly, without generating code.
package interp

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/ava12/g4scope"
	"github.com/ava12/g4scope/atn"
	"github.com/ava12/g4scope/grammar"
	"github.com/ava12/g4scope/internal/ctxlog"
	"github.com/ava12/g4scope/tree"
)

// Run tokenizes input and, if the model has parser rules, parses it starting from the model start rule.
// Token recognition and syntax errors are CODE messages, an interrupted run or an internal failure
// adds one UNKNOWN message keeping everything recognized so far.
func Run(ctx context.Context, m *grammar.Model, input string) (res *g4scope.Result) {
	res = &g4scope.Result{}
	log := ctxlog.FromContext(ctx).With("engine", "interpreted")
	defer func() {
		if r := recover(); r != nil {
			log.Error("run failed", "panic", r, "stack", string(debug.Stack()))
			res.AddUnknownError(fmt.Sprintf("internal error: %v", r))
		}
	}()

	if m == nil || m.Network == nil {
		res.AddUnknownError("no grammar model")
		return res
	}

	res.RuleNames = m.RuleNames
	net := m.Network
	l, e := atn.NewLexer(net, input)
	if e != nil {
		res.AddUnknownError(e.Error())
		return res
	}

	log.Debug("tokenizing", "grammar", m.Name, "size", len(input))
	tokens, e := l.Tokenize(ctx)
	res.Tokens = g4scope.TokensOf(tokens, net.Vocabulary)
	res.AddCodeErrors(l.Errors)
	if e != nil {
		log.Debug("tokenizing interrupted", "tokens", len(tokens))
		res.AddUnknownError(e.Error())
		return res
	}
	if !m.HasParser() {
		return res
	}

	log.Debug("parsing", "tokens", len(tokens), "rule", m.StartRuleName())
	p := atn.NewParser(net, tokens)
	root, e := p.Parse(ctx, m.StartRule)
	res.AddCodeErrors(p.Errors)
	if root != nil {
		res.Tree = tree.Convert(root, m.RuleNames)
	}
	if e != nil {
		log.Debug("parsing stopped", "error", e)
		res.AddUnknownError(e.Error())
	}
	return res
}
