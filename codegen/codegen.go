// Package codegen converts grammar models to Go sources of standalone recognizer programs.
//
// A generated program is a module containing a copy of the atn runtime,
// a recognizer package (lexer network literal and, for grammars with parser rules,
// a parser type having one method per rule) and a main package serving
// atn wire protocol requests on standard input and output.
package codegen

import (
	"bytes"
	"fmt"
	"go/token"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"golang.org/x/tools/imports"

	"github.com/ava12/g4scope"
	"github.com/ava12/g4scope/atn"
	"github.com/ava12/g4scope/diag"
	"github.com/ava12/g4scope/grammar"
)

// Error codes used by codegen:
const (
	InvalidNameError = g4scope.ArtifactErrors + iota
	MethodClashError
	SourceFormatError
	ReadError
	WriteError
)

const (
	// ModulePrefix is prepended to lowercased grammar name to get default module path.
	ModulePrefix = "g4scope.local/"

	// GoVersion is the default go directive of generated go.mod.
	GoVersion = "1.21"

	// RuntimeDir is the directory of runtime sources copy.
	RuntimeDir = "atn"

	header = "// Code generated with g4scope. DO NOT EDIT.\n\n"
)

var identRe = regexp.MustCompile("^[A-Za-z_][A-Za-z_0-9]*$")

// Options modify generated program. Zero value means defaults.
type Options struct {
	ModulePath string
	GoVersion  string
}

// Program is a set of generated files.
type Program struct {
	// Name contains grammar name.
	Name string

	ModulePath string

	// Package contains recognizer package path relative to module root.
	Package string

	HasParser bool

	// Files maps slash separated paths relative to module root to file contents.
	Files map[string][]byte
}

// FileNames returns sorted file paths.
func (p *Program) FileNames() []string {
	res := make([]string, 0, len(p.Files))
	for name := range p.Files {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

// Write stores all files under dir creating subdirectories as needed.
func (p *Program) Write(dir string) error {
	for _, name := range p.FileNames() {
		fileName := filepath.Join(dir, filepath.FromSlash(name))
		e := os.MkdirAll(filepath.Dir(fileName), 0o755)
		if e == nil {
			e = os.WriteFile(fileName, p.Files[name], 0o644)
		}
		if e != nil {
			return g4scope.FormatError(WriteError, "cannot write %s: %s", name, e.Error())
		}
	}
	return nil
}

// LoadFiles reads and loads grammar file and, if lexerFile is not empty, its lexer vocabulary grammar file.
// Base file names are used as source names.
func LoadFiles(grammarFile, lexerFile string) (*grammar.Model, diag.List) {
	var errs diag.List
	text, e := os.ReadFile(grammarFile)
	if e != nil {
		errs.AddError(diag.Unknown, g4scope.FormatError(ReadError, "cannot read grammar: %s", e.Error()))
		return nil, errs
	}

	var lexerText []byte
	if lexerFile != "" {
		lexerText, e = os.ReadFile(lexerFile)
		if e != nil {
			errs.AddError(diag.Unknown, g4scope.FormatError(ReadError, "cannot read lexer grammar: %s", e.Error()))
			return nil, errs
		}
	}

	return grammar.LoadPair(filepath.Base(grammarFile), string(text), filepath.Base(lexerFile), string(lexerText))
}

// packagePath returns recognizer package path derived from grammar namespace or name.
func packagePath(m *grammar.Model) (string, error) {
	if m.Namespace == "" {
		name := strings.ToLower(m.Name)
		if !identRe.MatchString(name) {
			return "", g4scope.FormatError(InvalidNameError, "invalid grammar name: %s", m.Name)
		}
		if token.IsKeyword(name) || name == RuntimeDir || name == "main" {
			name = "g4" + name
		}
		return name, nil
	}

	parts := strings.Split(m.Namespace, ".")
	for _, part := range parts {
		if !identRe.MatchString(part) || token.IsKeyword(part) {
			return "", g4scope.FormatError(InvalidNameError, "invalid package name: %s", m.Namespace)
		}
	}
	if parts[0] == RuntimeDir || parts[len(parts)-1] == "main" {
		return "", g4scope.FormatError(InvalidNameError, "reserved package name: %s", m.Namespace)
	}
	return strings.Join(parts, "/"), nil
}

// Generate creates program sources for the model.
// Returned errors are *g4scope.Error values.
func Generate(m *grammar.Model, opts Options) (*Program, error) {
	if opts.ModulePath == "" {
		opts.ModulePath = ModulePrefix + strings.ToLower(m.Name)
	}
	if opts.GoVersion == "" {
		opts.GoVersion = GoVersion
	}
	if e := module.CheckPath(opts.ModulePath); e != nil {
		return nil, g4scope.FormatError(InvalidNameError, "invalid module path: %s", e.Error())
	}

	pkg, e := packagePath(m)
	if e != nil {
		return nil, e
	}

	p := &Program{
		Name:       m.Name,
		ModulePath: opts.ModulePath,
		Package:    pkg,
		HasParser:  m.HasParser(),
		Files:      make(map[string][]byte),
	}

	if e = p.addModFile(opts.GoVersion); e != nil {
		return nil, e
	}
	if e = p.addRuntime(); e != nil {
		return nil, e
	}

	pkgName := path.Base(pkg)
	if e = p.addSource(path.Join(pkg, "lexer.go"), makeLexer(pkgName, p.ModulePath, m)); e != nil {
		return nil, e
	}
	if p.HasParser {
		src, e := makeParser(pkgName, p.ModulePath, m)
		if e == nil {
			e = p.addSource(path.Join(pkg, "parser.go"), src)
		}
		if e != nil {
			return nil, e
		}
	}
	if e = p.addSource("main.go", makeMain(p)); e != nil {
		return nil, e
	}
	return p, nil
}

func (p *Program) addModFile(goVersion string) error {
	f := &modfile.File{}
	e := f.AddModuleStmt(p.ModulePath)
	if e == nil {
		e = f.AddGoStmt(goVersion)
	}
	var content []byte
	if e == nil {
		content, e = f.Format()
	}
	if e != nil {
		return g4scope.FormatError(SourceFormatError, "cannot create go.mod: %s", e.Error())
	}
	p.Files["go.mod"] = content
	return nil
}

func (p *Program) addRuntime() error {
	files := atn.RuntimeFiles()
	return fs.WalkDir(files, ".", func(name string, d fs.DirEntry, e error) error {
		if e != nil || d.IsDir() {
			return e
		}
		content, e := fs.ReadFile(files, name)
		if e != nil {
			return g4scope.FormatError(ReadError, "cannot read runtime file %s: %s", name, e.Error())
		}
		p.Files[path.Join(RuntimeDir, name)] = content
		return nil
	})
}

func (p *Program) addSource(name string, src []byte) error {
	formatted, e := imports.Process(name, src, &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if e != nil {
		return g4scope.FormatError(SourceFormatError, "cannot format %s: %s", name, e.Error())
	}
	p.Files[name] = formatted
	return nil
}

func makeLexer(pkgName, modulePath string, m *grammar.Model) []byte {
	var buffer bytes.Buffer
	buffer.WriteString(header +
		"package " + pkgName + "\n\n" +
		"import \"" + modulePath + "/" + RuntimeDir + "\"\n\n" +
		"// Network is the " + m.Name + " recognizer network.\n")
	writeNetwork(&buffer, "Network", m.Network)

	buffer.WriteString("\n// NewLexer creates a lexer over input.\n" +
		"func NewLexer(input string) (*atn.Lexer, error) {\n" +
		"\treturn atn.NewLexer(Network, input)\n" +
		"}\n")
	return buffer.Bytes()
}

// methodNames returns parser method names in rule order.
func methodNames(rules []string) ([]string, error) {
	res := make([]string, len(rules))
	used := make(map[string]string, len(rules))
	for i, rule := range rules {
		name := atn.MethodName(rule)
		if !token.IsExported(name) || !identRe.MatchString(name) {
			return nil, g4scope.FormatError(InvalidNameError, "rule %s cannot be a method name", rule)
		}
		if prev, found := used[name]; found {
			return nil, g4scope.FormatError(MethodClashError, "rules %s and %s have the same method name %s", prev, rule, name)
		}
		used[name] = rule
		res[i] = name
	}
	return res, nil
}

func makeParser(pkgName, modulePath string, m *grammar.Model) ([]byte, error) {
	methods, e := methodNames(m.Network.RuleNames)
	if e != nil {
		return nil, e
	}

	var buffer bytes.Buffer
	buffer.WriteString(header +
		"package " + pkgName + "\n\n" +
		"import (\n" +
		"\t\"context\"\n\n" +
		"\t\"" + modulePath + "/" + RuntimeDir + "\"\n" +
		")\n\n" +
		"// Parser recognizes " + m.Name + " rules, each rule method parses the whole token list.\n" +
		"type Parser struct {\n" +
		"\t*atn.Parser\n" +
		"}\n\n" +
		"// NewParser creates a parser over lexer tokens.\n" +
		"func NewParser(tokens []*atn.Token) *Parser {\n" +
		"\treturn &Parser{atn.NewParser(Network, tokens)}\n" +
		"}\n")

	for i, name := range methods {
		buffer.WriteString(fmt.Sprintf("\n// %s parses %s rule.\n"+
			"func (p *Parser) %s() (*atn.RuleNode, error) {\n"+
			"\treturn p.Parse(context.Background(), %d)\n"+
			"}\n", name, m.Network.RuleNames[i], name, i))
	}
	return buffer.Bytes(), nil
}

func makeMain(p *Program) []byte {
	var buffer bytes.Buffer
	buffer.WriteString(header +
		"package main\n\n" +
		"import (\n" +
		"\t\"context\"\n" +
		"\t\"fmt\"\n" +
		"\t\"os\"\n" +
		"\t\"os/signal\"\n\n" +
		"\t\"" + p.ModulePath + "/" + RuntimeDir + "\"\n" +
		"\trecognizer \"" + p.ModulePath + "/" + p.Package + "\"\n" +
		")\n\n" +
		"func main() {\n" +
		"\tctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)\n" +
		"\tdefer stop()\n\n" +
		"\th := atn.Host{Network: recognizer.Network}\n")
	if p.HasParser {
		buffer.WriteString("\th.NewParser = func(tokens []*atn.Token) any {\n" +
			"\t\treturn recognizer.NewParser(tokens)\n" +
			"\t}\n")
	}
	buffer.WriteString("\tif e := atn.Serve(ctx, os.Stdin, os.Stdout, h); e != nil {\n" +
		"\t\tfmt.Fprintln(os.Stderr, e)\n" +
		"\t\tos.Exit(1)\n" +
		"\t}\n" +
		"}\n")
	return buffer.Bytes()
}
