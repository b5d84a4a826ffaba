// Package workbench runs a grammar and a sample input through the chosen execution engine.
package workbench

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/ava12/g4scope"
	"github.com/ava12/g4scope/compiled"
	"github.com/ava12/g4scope/diag"
	"github.com/ava12/g4scope/dot"
	"github.com/ava12/g4scope/grammar"
	"github.com/ava12/g4scope/internal/ctxlog"
	"github.com/ava12/g4scope/interp"
)

// Engine selects execution strategy.
type Engine int

const (
	Interpreted Engine = iota
	Compiled
)

var engineNames = []string{"interpreted", "compiled"}

func (e Engine) String() string {
	if e < Interpreted || e > Compiled {
		return fmt.Sprintf("Engine(%d)", int(e))
	}
	return engineNames[e]
}

func (e Engine) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *Engine) UnmarshalText(text []byte) error {
	res, err := ParseEngine(string(text))
	if err == nil {
		*e = res
	}
	return err
}

// ParseEngine converts engine name to Engine.
func ParseEngine(name string) (Engine, error) {
	for i, n := range engineNames {
		if strings.EqualFold(n, name) {
			return Engine(i), nil
		}
	}
	return Interpreted, fmt.Errorf("unknown engine %q", name)
}

// Request is a single workbench run.
type Request struct {
	Engine Engine

	Grammar string

	// LexerGrammar contains lexer grammar used as parser grammar vocabulary or empty string.
	LexerGrammar string

	Input string

	// Graph requests DOT description of the parse tree.
	Graph bool
}

// Response is the outcome of a run.
// Name is the grammar name, Run is the session run name and is empty for single runs.
type Response struct {
	Name    string          `json:"name,omitempty" msgpack:"name,omitempty"`
	Run     string          `json:"run,omitempty" msgpack:"run,omitempty"`
	Engine  Engine          `json:"engine" msgpack:"engine"`
	Result  *g4scope.Result `json:"result" msgpack:"result"`
	Graph   string          `json:"graph,omitempty" msgpack:"graph,omitempty"`
	Elapsed time.Duration   `json:"elapsed" msgpack:"elapsed"`
}

// Config holds workbench settings.
type Config struct {
	Compiled compiled.Config
	Style    dot.Style
}

// Workbench is safe for concurrent use.
type Workbench struct {
	style    dot.Style
	compiled *compiled.Engine
}

// New creates a workbench using real go toolchain for compiled runs.
func New(config Config) *Workbench {
	return NewWithEngine(config.Style, compiled.New(config.Compiled, nil, nil))
}

// NewWithEngine creates a workbench using the given compiled engine.
func NewWithEngine(style dot.Style, engine *compiled.Engine) *Workbench {
	return &Workbench{style: style, compiled: engine}
}

// Run executes the request, returned response always contains a result.
func (w *Workbench) Run(ctx context.Context, req Request) *Response {
	log := ctxlog.FromContext(ctx)
	started := time.Now()
	resp := &Response{Engine: req.Engine}
	if info, e := compiled.Header(req.Grammar); e == nil {
		resp.Name = info.Name
	}

	log.Debug("run started", "engine", req.Engine, "grammar", resp.Name)
	switch req.Engine {
	case Compiled:
		resp.Result = w.compiled.Run(ctx, compiled.Request{Grammar: req.Grammar, LexerGrammar: req.LexerGrammar, Input: req.Input})
	default:
		resp.Result = runInterpreted(ctx, resp.Name, req)
	}

	if req.Graph && resp.Result.HasTree() {
		resp.Graph = dot.Render(resp.Result.Tree, w.style)
	}
	resp.Elapsed = time.Since(started)
	log.Debug("run finished", "engine", req.Engine, "errors", resp.Result.Errors.Len(), "elapsed", resp.Elapsed)
	return resp
}

func sourceName(grammarName, fallback string) string {
	if grammarName == "" {
		return fallback
	}
	return grammarName + ".g4"
}

// runInterpreted keeps messages collected before a panic, the panic itself becomes one UNKNOWN error.
func runInterpreted(ctx context.Context, name string, req Request) (res *g4scope.Result) {
	var errs diag.List
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Error("interpreted run failed", "panic", r, "stack", string(debug.Stack()))
			res = &g4scope.Result{Errors: errs}
			res.AddUnknownError(fmt.Sprintf("internal error: %v", r))
		}
	}()

	lexerName := ""
	if req.LexerGrammar != "" {
		if info, e := compiled.Header(req.LexerGrammar); e == nil {
			lexerName = info.Name
		}
	}

	var m *grammar.Model
	m, errs = grammar.LoadPair(sourceName(name, "grammar.g4"), req.Grammar, sourceName(lexerName, "lexer.g4"), req.LexerGrammar)
	if m == nil || errs.Has(diag.Grammar) || errs.Has(diag.Unknown) {
		res = &g4scope.Result{Errors: errs}
		if m != nil {
			res.RuleNames = m.RuleNames
		}
		return res
	}

	res = interp.Run(ctx, m, req.Input)
	res.Errors.Extend(errs)
	return res
}
