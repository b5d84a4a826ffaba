package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/ava12/g4scope/workbench"
)

// Session is a set of runs described in an HCL file:
//
//	engine = "compiled"
//
//	run "sum" {
//	  grammar = "Sum.g4"
//	  lexer   = "Num.g4"
//	  input   = "1 + ${env.ARG}"
//	  graph   = true
//	}
//
// Expressions may refer to environment variables as env.NAME.
type Session struct {
	Engine *string     `hcl:"engine,optional"`
	Runs   []*RunBlock `hcl:"run,block"`

	// Dir contains session file directory, relative file names are resolved against it.
	Dir string
}

// RunBlock is a single session run. Exactly one of Input and InputFile may be set.
type RunBlock struct {
	Name        string  `hcl:"name,label"`
	Engine      *string `hcl:"engine,optional"`
	GrammarFile string  `hcl:"grammar"`
	LexerFile   string  `hcl:"lexer,optional"`
	Input       *string `hcl:"input,optional"`
	InputFile   string  `hcl:"input_file,optional"`
	Graph       bool    `hcl:"graph,optional"`
}

// NamedRequest is a resolved session run.
type NamedRequest struct {
	Name    string
	Request workbench.Request
}

var sessionFunctions = map[string]function.Function{
	"upper":     stdlib.UpperFunc,
	"lower":     stdlib.LowerFunc,
	"trimspace": stdlib.TrimSpaceFunc,
	"join":      stdlib.JoinFunc,
}

// EvalContext returns expression context holding env variables and string functions.
func EvalContext(env map[string]string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(env))
	for k, v := range env {
		vars[k] = cty.StringVal(v)
	}
	envVal := cty.EmptyObjectVal
	if len(vars) > 0 {
		envVal = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": envVal},
		Functions: sessionFunctions,
	}
}

// Environ converts os.Environ output to a map.
func Environ(items []string) map[string]string {
	res := make(map[string]string, len(items))
	for _, item := range items {
		if k, v, found := strings.Cut(item, "="); found && k != "" {
			res[k] = v
		}
	}
	return res
}

// ParseSession decodes session source, name is used in diagnostics and to resolve relative file names.
func ParseSession(name string, src []byte, env map[string]string) (*Session, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, name)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse session file %s: %w", name, diags)
	}

	s := &Session{}
	diags = gohcl.DecodeBody(file.Body, EvalContext(env), s)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode session file %s: %w", name, diags)
	}

	seen := make(map[string]bool, len(s.Runs))
	for _, r := range s.Runs {
		if seen[r.Name] {
			return nil, fmt.Errorf("session file %s: duplicate run %q", name, r.Name)
		}
		seen[r.Name] = true
		if r.Input != nil && r.InputFile != "" {
			return nil, fmt.Errorf("session file %s: run %q has both input and input_file", name, r.Name)
		}
	}
	s.Dir = filepath.Dir(name)
	return s, nil
}

// LoadSession reads and decodes session file.
func LoadSession(fileName string, env map[string]string) (*Session, error) {
	src, e := os.ReadFile(fileName)
	if e != nil {
		return nil, fmt.Errorf("failed to read session file: %w", e)
	}
	return ParseSession(fileName, src, env)
}

func (s *Session) readFile(name string) (string, error) {
	if !filepath.IsAbs(name) {
		name = filepath.Join(s.Dir, name)
	}
	content, e := os.ReadFile(name)
	return string(content), e
}

// Requests resolves all session runs in declaration order.
// fallback is used for runs with no engine set at run or session level.
func (s *Session) Requests(fallback workbench.Engine) ([]NamedRequest, error) {
	res := make([]NamedRequest, 0, len(s.Runs))
	for _, r := range s.Runs {
		req := workbench.Request{Engine: fallback, Graph: r.Graph}
		engine := r.Engine
		if engine == nil {
			engine = s.Engine
		}
		if engine != nil {
			var e error
			if req.Engine, e = workbench.ParseEngine(*engine); e != nil {
				return nil, fmt.Errorf("run %q: %w", r.Name, e)
			}
		}

		var e error
		if req.Grammar, e = s.readFile(r.GrammarFile); e != nil {
			return nil, fmt.Errorf("run %q: %w", r.Name, e)
		}
		if r.LexerFile != "" {
			if req.LexerGrammar, e = s.readFile(r.LexerFile); e != nil {
				return nil, fmt.Errorf("run %q: %w", r.Name, e)
			}
		}
		switch {
		case r.Input != nil:
			req.Input = *r.Input
		case r.InputFile != "":
			if req.Input, e = s.readFile(r.InputFile); e != nil {
				return nil, fmt.Errorf("run %q: %w", r.Name, e)
			}
		}
		res = append(res, NamedRequest{r.Name, req})
	}
	return res, nil
}

// RunNames returns sorted run names.
func (s *Session) RunNames() []string {
	res := make([]string, len(s.Runs))
	for i, r := range s.Runs {
		res[i] = r.Name
	}
	sort.Strings(res)
	return res
}
