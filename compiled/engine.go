// Package compiled runs grammars by generating, compiling and executing standalone recognizer programs.
//
// Every run gets its own workspace, program binary and child process, all of them
// are removed when the run ends. Nothing is cached between runs.
package compiled

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/ava12/g4scope"
	"github.com/ava12/g4scope/atn"
	"github.com/ava12/g4scope/codegen"
	"github.com/ava12/g4scope/diag"
	"github.com/ava12/g4scope/internal/ctxlog"
	"github.com/ava12/g4scope/tree"
)

// Default timeouts:
const (
	DefaultBuildTimeout = 2 * time.Minute
	DefaultRunTimeout   = 30 * time.Second
)

// Request is a single compiled run.
type Request struct {
	Grammar string

	// LexerGrammar contains lexer grammar text used as a vocabulary by a parser grammar or empty string.
	LexerGrammar string

	Input string
}

// Config holds engine settings. Zero value means defaults.
type Config struct {
	// WorkDir contains workspace root, system temporary directory is used if empty.
	WorkDir string

	// GoCommand contains go command used by default toolchain.
	GoCommand string

	BuildTimeout time.Duration
	RunTimeout   time.Duration
}

// Engine is the compiled execution engine. It is safe for concurrent use.
type Engine struct {
	config    Config
	toolchain Toolchain
	launcher  Launcher
}

// New creates an engine. GoToolchain and ExecLauncher are used if toolchain or launcher is nil.
func New(config Config, toolchain Toolchain, launcher Launcher) *Engine {
	if config.BuildTimeout <= 0 {
		config.BuildTimeout = DefaultBuildTimeout
	}
	if config.RunTimeout <= 0 {
		config.RunTimeout = DefaultRunTimeout
	}
	if toolchain == nil {
		toolchain = GoToolchain{Command: config.GoCommand}
	}
	if launcher == nil {
		launcher = ExecLauncher{}
	}
	return &Engine{config, toolchain, launcher}
}

type run struct {
	*Engine
	req Request
	res *g4scope.Result
	ws  *Workspace
}

// Run executes all stages in order, a failed stage stops the run.
// Returned result is never nil.
func (eng *Engine) Run(ctx context.Context, req Request) (res *g4scope.Result) {
	res = &g4scope.Result{}
	log := ctxlog.FromContext(ctx).With("engine", "compiled")
	ctx = ctxlog.WithLogger(ctx, log)
	defer func() {
		if r := recover(); r != nil {
			log.Error("run failed", "panic", r, "stack", string(debug.Stack()))
			res.AddUnknownError(fmt.Sprintf("internal error: %v", r))
		}
	}()

	r := &run{Engine: eng, req: req, res: res}
	r.execute(ctx)
	return res
}

func (r *run) fail(src diag.Source, e error) {
	r.res.Errors.AddError(src, e)
}

func (r *run) execute(ctx context.Context) {
	log := ctxlog.FromContext(ctx)

	info, e := Header(r.req.Grammar)
	if e != nil {
		r.fail(diag.Grammar, e)
		return
	}
	var lexerInfo HeaderInfo
	if r.req.LexerGrammar != "" {
		if lexerInfo, e = Header(r.req.LexerGrammar); e != nil {
			r.fail(diag.Grammar, e)
			return
		}
	}

	r.ws, e = NewWorkspace(r.config.WorkDir)
	if e != nil {
		r.fail(diag.Unknown, e)
		return
	}
	defer func() {
		if e := r.ws.Close(); e != nil {
			log.Warn("cannot remove workspace", "dir", r.ws.Dir(), "error", e)
		}
	}()
	log.Debug("workspace created", "dir", r.ws.Dir(), "grammar", info.Name)

	binary, ok := r.generate(ctx, info, lexerInfo)
	if ok {
		ok = r.build(ctx, binary)
	}
	if ok {
		r.execBinary(ctx, binary)
	}
}

// generate saves grammar files, reloads them and writes program sources.
func (r *run) generate(ctx context.Context, info, lexerInfo HeaderInfo) (string, bool) {
	grammarFile, e := r.ws.Save(info.Name+".g4", r.req.Grammar)
	if e != nil {
		r.fail(diag.Unknown, e)
		return "", false
	}
	lexerFile := ""
	if r.req.LexerGrammar != "" {
		if lexerFile, e = r.ws.Save(lexerInfo.Name+".g4", r.req.LexerGrammar); e != nil {
			r.fail(diag.Unknown, e)
			return "", false
		}
	}

	m, errs := codegen.LoadFiles(grammarFile, lexerFile)
	r.res.Errors.Extend(errs)
	if m == nil || errs.Has(diag.Grammar) {
		return "", false
	}
	r.res.RuleNames = m.RuleNames

	p, e := codegen.Generate(m, codegen.Options{})
	if e == nil {
		e = p.Write(r.ws.Path("src"))
	}
	if e != nil {
		r.fail(diag.Unknown, e)
		return "", false
	}
	ctxlog.FromContext(ctx).Debug("sources generated", "files", len(p.Files), "package", p.Package)

	binary := r.ws.Path("bin", strings.ToLower(info.Name))
	if runtime.GOOS == "windows" {
		binary += ".exe"
	}
	return binary, true
}

func (r *run) build(ctx context.Context, binary string) bool {
	log := ctxlog.FromContext(ctx)
	ctx, cancel := context.WithTimeout(ctx, r.config.BuildTimeout)
	defer cancel()

	started := time.Now()
	srcDir := r.ws.Path("src")
	output, e := r.toolchain.Build(ctx, srcDir, binary)
	if e == nil {
		log.Debug("program built", "elapsed", time.Since(started))
		return true
	}

	log.Debug("build failed", "error", e, "output", string(output))
	switch {
	case errors.Is(e, exec.ErrNotFound):
		r.res.Errors.Add(diag.ErrorMessage{
			Line: diag.UnknownPos, Column: diag.UnknownPos, Source: diag.Compiler, Code: NoToolchainError,
			Message: "go toolchain not found: " + e.Error(),
		})
	case ctx.Err() != nil:
		r.res.Errors.Add(diag.ErrorMessage{
			Line: diag.UnknownPos, Column: diag.UnknownPos, Source: diag.Compiler, Code: BuildFailedError,
			Message: "build interrupted: " + ctx.Err().Error(),
		})
	default:
		errs := ParseDiagnostics(output, srcDir)
		if errs.Len() == 0 {
			msg := e.Error()
			if out := strings.TrimSpace(string(output)); out != "" {
				msg += ": " + out
			}
			errs.Add(diag.ErrorMessage{
				Line: diag.UnknownPos, Column: diag.UnknownPos, Source: diag.Compiler, Code: BuildFailedError,
				Message: "build failed: " + msg,
			})
		}
		r.res.Errors.Extend(errs)
	}
	return false
}

func (r *run) remoteFailure(ctx context.Context, p Process, stage string, e error) {
	code := ProtocolError
	var re *atn.RemoteError
	if errors.As(e, &re) {
		code = RemoteError
	}
	msg := stage + ": " + e.Error()
	if ctx.Err() != nil {
		msg = stage + " interrupted: " + ctx.Err().Error()
	} else if out := lastLine(p.Stderr()); out != "" && code == ProtocolError {
		msg += ": " + out
	}
	r.fail(diag.Unknown, g4scope.FormatError(code, "%s", msg))
}

func (r *run) execBinary(ctx context.Context, binary string) {
	log := ctxlog.FromContext(ctx)
	ctx, cancel := context.WithTimeout(ctx, r.config.RunTimeout)
	defer cancel()

	p, e := r.launcher.Launch(ctx, binary)
	if e != nil {
		r.fail(diag.Unknown, g4scope.FormatError(LaunchError, "cannot start program: %s", e.Error()))
		return
	}
	defer func() {
		if e := p.Close(); e != nil {
			log.Debug("program exit", "error", e)
		}
	}()

	client := atn.NewClient(p.Stdout(), p.Stdin())
	d, e := client.Describe()
	if e != nil {
		r.remoteFailure(ctx, p, "describe", e)
		return
	}
	log.Debug("program described", "grammar", d.GrammarName, "parser", d.HasParser)
	if d.HasParser {
		r.res.RuleNames = d.RuleNames
	} else {
		r.res.RuleNames = d.LexerRuleNames
	}

	out, e := client.Run(r.req.Input)
	if e != nil {
		r.remoteFailure(ctx, p, "run", e)
		return
	}
	if e = client.Quit(); e != nil {
		log.Debug("quit request failed", "error", e)
	}

	r.res.Tokens = g4scope.TokensOf(out.Tokens, d.Vocabulary)
	r.res.AddCodeErrors(out.LexerErrors)
	r.res.AddCodeErrors(out.ParserErrors)
	if out.Tree != nil {
		native, e := atn.DecodeTree(out.Tree)
		if e != nil {
			r.fail(diag.Unknown, g4scope.FormatError(ProtocolError, "bad tree: %s", e.Error()))
			return
		}
		r.res.Tree = tree.Convert(native, d.RuleNames)
	}
	log.Debug("program finished", "tokens", len(out.Tokens))
}
