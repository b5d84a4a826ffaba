package codegen

import (
	"errors"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava12/g4scope"
	"github.com/ava12/g4scope/diag"
	"github.com/ava12/g4scope/grammar"
)

const testGrammar = `grammar Test;
start : twoWords EOF ;
twoWords : WORD SPACE WORD ;
WORD : [a-zA-Z0-9_]+ ;
SPACE : ' ' | '\t' ;
`

func load(t *testing.T, text string) *grammar.Model {
	m, errs := grammar.Load("test.g4", text)
	require.Empty(t, errs)
	require.NotNil(t, m)
	return m
}

func generate(t *testing.T, text string) *Program {
	p, e := Generate(load(t, text), Options{})
	require.NoError(t, e)
	return p
}

func errorCode(t *testing.T, e error) int {
	var ge *g4scope.Error
	require.True(t, errors.As(e, &ge), "unexpected error %v", e)
	return ge.Code
}

func assertParsable(t *testing.T, p *Program) {
	fset := token.NewFileSet()
	for name, src := range p.Files {
		if strings.HasSuffix(name, ".go") {
			_, e := parser.ParseFile(fset, name, src, parser.AllErrors)
			assert.NoError(t, e, name)
		}
	}
}

func TestGenerateCombined(t *testing.T) {
	p := generate(t, testGrammar)
	assert.Equal(t, "Test", p.Name)
	assert.Equal(t, "g4scope.local/test", p.ModulePath)
	assert.Equal(t, "test", p.Package)
	assert.True(t, p.HasParser)

	names := p.FileNames()
	assert.Contains(t, names, "go.mod")
	assert.Contains(t, names, "main.go")
	assert.Contains(t, names, "atn/network.go")
	assert.Contains(t, names, "atn/wire.go")
	assert.Contains(t, names, "test/lexer.go")
	assert.Contains(t, names, "test/parser.go")
	assert.NotContains(t, names, "atn/files.go")
	assertParsable(t, p)

	mod := string(p.Files["go.mod"])
	assert.Contains(t, mod, "module g4scope.local/test\n")
	assert.Contains(t, mod, "go 1.21\n")

	lexer := string(p.Files["test/lexer.go"])
	assert.True(t, strings.HasPrefix(lexer, "// Code generated with g4scope. DO NOT EDIT.\n\npackage test\n"))
	assert.Contains(t, lexer, `import "g4scope.local/test/atn"`)
	assert.Regexp(t, `GrammarName:\s+"Test",`, lexer)
	assert.Contains(t, lexer, `{Name: "WORD", Pattern: "[a-zA-Z0-9\\x{5f}]+", Type: 1},`)
	assert.Contains(t, lexer, "// start(")
	assert.Contains(t, lexer, "// twoWords(")

	parser := string(p.Files["test/parser.go"])
	assert.Contains(t, parser, "func (p *Parser) Start() (*atn.RuleNode, error) {\n\treturn p.Parse(context.Background(), 0)\n}")
	assert.Contains(t, parser, "func (p *Parser) TwoWords() (*atn.RuleNode, error) {\n\treturn p.Parse(context.Background(), 1)\n}")

	main := string(p.Files["main.go"])
	assert.Contains(t, main, `recognizer "g4scope.local/test/test"`)
	assert.Contains(t, main, "recognizer.NewParser(tokens)")
	assert.Contains(t, main, "atn.Serve(ctx, os.Stdin, os.Stdout, h)")
}

func TestGenerateLexerOnly(t *testing.T) {
	p := generate(t, "lexer grammar Words;\nWORD : [a-z]+ ;\nWS : ' '+ -> skip ;\n")
	assert.False(t, p.HasParser)
	assert.Contains(t, p.Files, "words/lexer.go")
	assert.NotContains(t, p.Files, "words/parser.go")
	assert.NotContains(t, string(p.Files["main.go"]), "NewParser")
	assert.NotContains(t, string(p.Files["words/lexer.go"]), "States:")
	assert.Contains(t, string(p.Files["words/lexer.go"]), `{Name: "WS", Pattern: " +", Type: 2, Skip: true},`)
	assertParsable(t, p)
}

func TestGeneratePrecedence(t *testing.T) {
	p := generate(t, "grammar Expr;\nstart : e EOF ;\ne : e '+' e | INT ;\nINT : [0-9]+ ;\n")
	lexer := string(p.Files["expr/lexer.go"])
	assert.Regexp(t, `\{Kind: 6, Target: \d+, Precedence: 2\}`, lexer)
	assert.Regexp(t, `\{Kind: 5, Target: \d+, Rule: 1, Follow: \d+, Precedence: 3\}`, lexer)
	assert.Regexp(t, `\{Kind: 5, Target: \d+, Rule: 1, Follow: \d+\}`, lexer)
	assertParsable(t, p)
}

func TestGenerateNamespace(t *testing.T) {
	p := generate(t, "grammar N;\n@header { package foo.bar; }\nstart : 'a' ;\n")
	assert.Equal(t, "foo/bar", p.Package)
	require.Contains(t, p.Files, "foo/bar/lexer.go")
	assert.Contains(t, string(p.Files["foo/bar/parser.go"]), "package bar\n")
	assert.Contains(t, string(p.Files["main.go"]), `recognizer "g4scope.local/n/foo/bar"`)

	_, e := Generate(load(t, "grammar N;\n@header { package atn.x; }\nstart : 'a' ;\n"), Options{})
	assert.Equal(t, InvalidNameError, errorCode(t, e))

	_, e = Generate(load(t, "grammar N;\n@header { package foo.type; }\nstart : 'a' ;\n"), Options{})
	assert.Equal(t, InvalidNameError, errorCode(t, e))
}

func TestGenerateNames(t *testing.T) {
	p := generate(t, "grammar Main;\nstart : 'a' ;\n")
	assert.Equal(t, "g4main", p.Package)

	p, e := Generate(load(t, testGrammar), Options{ModulePath: "example.com/words", GoVersion: "1.22"})
	require.NoError(t, e)
	assert.Contains(t, string(p.Files["go.mod"]), "module example.com/words\n")
	assert.Contains(t, string(p.Files["go.mod"]), "go 1.22\n")

	_, e = Generate(load(t, testGrammar), Options{ModulePath: "bad path"})
	assert.Equal(t, InvalidNameError, errorCode(t, e))

	p = generate(t, "grammar R;\nstart : parse ;\nparse : 'a' ;\n")
	assert.Contains(t, string(p.Files["r/parser.go"]), "func (p *Parser) Parse_() (*atn.RuleNode, error)")

	_, e = Generate(load(t, "grammar R;\nstart : parse | parse_ ;\nparse : 'a' ;\nparse_ : 'b' ;\n"), Options{})
	assert.Equal(t, MethodClashError, errorCode(t, e))
}

func TestWriteAndLoad(t *testing.T) {
	dir := t.TempDir()
	p := generate(t, testGrammar)
	require.NoError(t, p.Write(dir))

	content, e := os.ReadFile(filepath.Join(dir, "test", "parser.go"))
	require.NoError(t, e)
	assert.Equal(t, p.Files["test/parser.go"], content)
	_, e = os.Stat(filepath.Join(dir, "atn", "lexer.go"))
	assert.NoError(t, e)

	grammarFile := filepath.Join(dir, "Test.g4")
	require.NoError(t, os.WriteFile(grammarFile, []byte(testGrammar), 0o644))
	m, errs := LoadFiles(grammarFile, "")
	require.Empty(t, errs)
	assert.Equal(t, []string{"start", "twoWords"}, m.RuleNames)

	m, errs = LoadFiles(filepath.Join(dir, "Missing.g4"), "")
	assert.Nil(t, m)
	require.Len(t, errs, 1)
	assert.Equal(t, diag.Unknown, errs[0].Source)
	assert.Equal(t, ReadError, errs[0].Code)
}

func TestLoadFilesWithLexer(t *testing.T) {
	dir := t.TempDir()
	lexerFile := filepath.Join(dir, "L.g4")
	parserFile := filepath.Join(dir, "P.g4")
	require.NoError(t, os.WriteFile(lexerFile, []byte("lexer grammar L;\nNUM : [0-9]+ ;\nWS : ' '+ -> skip ;\n"), 0o644))
	require.NoError(t, os.WriteFile(parserFile, []byte("parser grammar P;\nstart : NUM+ EOF ;\n"), 0o644))

	m, errs := LoadFiles(parserFile, lexerFile)
	require.Empty(t, errs)
	assert.Equal(t, grammar.ParserOnly, m.Kind)

	p, e := Generate(m, Options{})
	require.NoError(t, e)
	assert.Contains(t, string(p.Files["p/lexer.go"]), `{Name: "NUM", Pattern: "[0-9]+", Type: 1},`)
	assertParsable(t, p)
}
