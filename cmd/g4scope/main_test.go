package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ava12/g4scope/diag"
	"github.com/ava12/g4scope/workbench"
)

const testGrammar = `grammar Test;
start : twoWords EOF ;
twoWords : WORD SPACE WORD ;
WORD : [a-zA-Z0-9_]+ ;
SPACE : ' ' | '\t' ;
`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	e := cmd.ExecuteContext(context.Background())
	return out.String(), e
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestRunText(t *testing.T) {
	dir := writeFiles(t, map[string]string{"Test.g4": testGrammar, "input.txt": "one two"})
	grammarFile := filepath.Join(dir, "Test.g4")

	out, e := execute(t, "", "run", grammarFile, filepath.Join(dir, "input.txt"))
	require.NoError(t, e)
	assert.Contains(t, out, "Test (interpreted, ")
	assert.Contains(t, out, "): ok\n")
	assert.Contains(t, out, "tokens:\n  1:0 WORD \"one\"\n  1:3 SPACE \" \"\n  1:4 WORD \"two\"\n")
	assert.Contains(t, out, "tree:\n  (start (twoWords one   two) <EOF>)\n")
	assert.NotContains(t, out, "errors:")
	assert.NotContains(t, out, "graph:")

	out, e = execute(t, "one two", "run", "--graph", grammarFile)
	require.NoError(t, e)
	assert.Contains(t, out, "graph:\ngraph ParseTree {\n")

	out, e = execute(t, "", "run", "-i", "one, two", grammarFile)
	assert.ErrorIs(t, e, errFailed)
	assert.Contains(t, out, "errors:\n")
	assert.Contains(t, out, "  CODE 1:3: ")
}

func TestRunGrammarErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{"Test.g4": strings.Replace(testGrammar, "start", "sta rt", 1)})
	out, e := execute(t, "", "run", "--input", "one two", filepath.Join(dir, "Test.g4"))
	assert.ErrorIs(t, e, errFailed)
	assert.Contains(t, out, "1 error(s)")
	assert.Contains(t, out, "  GRAMMAR ")
	assert.NotContains(t, out, "tokens:")
}

func TestRunWithLexer(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"P.g4": "parser grammar P;\nstart : NUM+ EOF ;\n",
		"L.g4": "lexer grammar L;\nNUM : [0-9]+ ;\nWS : ' ' -> skip ;\n",
	})
	out, e := execute(t, "1 2", "run", "-l", filepath.Join(dir, "L.g4"), filepath.Join(dir, "P.g4"))
	require.NoError(t, e)
	assert.Contains(t, out, "(start 1 2 <EOF>)")
}

func TestRunFormats(t *testing.T) {
	dir := writeFiles(t, map[string]string{"Test.g4": testGrammar})
	grammarFile := filepath.Join(dir, "Test.g4")

	out, e := execute(t, "", "run", "-f", "json", "-i", "one two", grammarFile)
	require.NoError(t, e)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "Test", decoded["name"])
	assert.Equal(t, "interpreted", decoded["engine"])
	assert.NotContains(t, decoded, "run")
	result := decoded["result"].(map[string]any)
	assert.Len(t, result["tokens"], 3)

	out, e = execute(t, "", "run", "--format", "msgpack", "-i", "one, two", grammarFile)
	assert.ErrorIs(t, e, errFailed)
	var resp workbench.Response
	require.NoError(t, msgpack.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "Test", resp.Name)
	require.NotEmpty(t, resp.Result.Errors)
	assert.Equal(t, diag.Code, resp.Result.Errors[0].Source)
}

func TestRunUsageErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{"Test.g4": testGrammar, "input.txt": "one two"})
	grammarFile := filepath.Join(dir, "Test.g4")

	_, e := execute(t, "", "run")
	assert.Error(t, e)

	_, e = execute(t, "", "run", filepath.Join(dir, "Missing.g4"))
	assert.ErrorContains(t, e, "failed to read grammar")

	_, e = execute(t, "", "run", "-i", "x", grammarFile, filepath.Join(dir, "input.txt"))
	assert.ErrorContains(t, e, "both --input flag and input file")

	_, e = execute(t, "", "run", "--engine", "jit", grammarFile)
	assert.ErrorContains(t, e, "unknown engine")
	assert.NotErrorIs(t, e, errFailed)
}

func TestGen(t *testing.T) {
	dir := writeFiles(t, map[string]string{"Test.g4": testGrammar})
	output := filepath.Join(t.TempDir(), "out")

	out, e := execute(t, "", "gen", "-o", output, filepath.Join(dir, "Test.g4"))
	require.NoError(t, e)
	assert.Contains(t, out, "g4scope.local/test: ")
	for _, name := range []string{"go.mod", "main.go", "test/lexer.go", "test/parser.go", "atn/parser.go"} {
		assert.FileExists(t, filepath.Join(output, filepath.FromSlash(name)))
	}

	mod, e := os.ReadFile(filepath.Join(output, "go.mod"))
	require.NoError(t, e)
	assert.Contains(t, string(mod), "module g4scope.local/test")

	_, e = execute(t, "", "gen", "-o", output, "--module", "example.com/x", filepath.Join(dir, "Test.g4"))
	require.NoError(t, e)
	mod, e = os.ReadFile(filepath.Join(output, "go.mod"))
	require.NoError(t, e)
	assert.Contains(t, string(mod), "module example.com/x")
}

func TestGenErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{"Test.g4": strings.Replace(testGrammar, "start", "sta rt", 1)})
	output := filepath.Join(t.TempDir(), "out")

	out, e := execute(t, "", "gen", "-o", output, filepath.Join(dir, "Test.g4"))
	assert.ErrorIs(t, e, errFailed)
	assert.Contains(t, out, "GRAMMAR ")
	assert.NoDirExists(t, output)

	_, e = execute(t, "", "gen", filepath.Join(dir, "Test.g4"))
	assert.ErrorContains(t, e, "output")
}

const sessionSource = `
run "good" {
  grammar = "Test.g4"
  input   = "one ${env.G4SCOPE_TEST_WORD}"
}

run "bad" {
  grammar    = "Test.g4"
  input_file = "bad.txt"
}

run "piped" {
  grammar = "P.g4"
  lexer   = "L.g4"
  input   = "1 2"
}
`

func sessionDir(t *testing.T) string {
	t.Setenv("G4SCOPE_TEST_WORD", "two")
	return writeFiles(t, map[string]string{
		"session.hcl": sessionSource,
		"Test.g4":     testGrammar,
		"bad.txt":     "one, two",
		"P.g4":        "parser grammar P;\nstart : NUM+ EOF ;\n",
		"L.g4":        "lexer grammar L;\nNUM : [0-9]+ ;\nWS : ' ' -> skip ;\n",
	})
}

func TestSession(t *testing.T) {
	file := filepath.Join(sessionDir(t), "session.hcl")

	out, e := execute(t, "", "session", file)
	assert.ErrorIs(t, e, errFailed)
	good := strings.Index(out, "good (interpreted")
	bad := strings.Index(out, "bad (interpreted")
	piped := strings.Index(out, "piped (interpreted")
	require.True(t, good >= 0 && bad >= 0 && piped >= 0, out)
	assert.Less(t, good, bad)
	assert.Less(t, bad, piped)
	assert.Contains(t, out, "(start (twoWords one   two) <EOF>)")
	assert.Contains(t, out, "(start 1 2 <EOF>)")

	out, e = execute(t, "", "session", "-j", "1", "--run", "piped,good", file)
	require.NoError(t, e)
	assert.Less(t, strings.Index(out, "good ("), strings.Index(out, "piped ("))
	assert.NotContains(t, out, "bad (")

	out, e = execute(t, "", "session", "--list", file)
	require.NoError(t, e)
	assert.Equal(t, "bad\ngood\npiped\n", out)

	_, e = execute(t, "", "session", "-r", "missing", file)
	assert.ErrorContains(t, e, `unknown run "missing"`)
}

func TestSessionJSON(t *testing.T) {
	file := filepath.Join(sessionDir(t), "session.hcl")
	out, e := execute(t, "", "session", "-f", "json", "-r", "good,piped", file)
	require.NoError(t, e)

	dec := json.NewDecoder(strings.NewReader(out))
	var runs, names []string
	for dec.More() {
		var resp workbench.Response
		require.NoError(t, dec.Decode(&resp))
		assert.True(t, resp.Result.OK())
		runs = append(runs, resp.Run)
		names = append(names, resp.Name)
	}
	assert.Equal(t, []string{"good", "piped"}, runs)
	assert.Equal(t, []string{"Test", "P"}, names)
}
