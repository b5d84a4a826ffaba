/*
Package g4scope is a workbench core for ANTLR-style grammars.

Given a grammar description (.g4 syntax) and a sample input text it produces
a token list, a parse tree and a classified list of errors.
Consists of subpackages:
  - atn: self-contained recognizer runtime (transition network, lexer, parser, native tree, wire protocol);
  - grammar: converts grammar description to a model holding the transition network;
  - interp: runs the network directly;
  - codegen: converts a grammar model to Go sources of a standalone lexer/parser program;
  - compiled: generates, compiles and executes that program in a run-scoped workspace;
  - tree: uniform parse tree built from native trees;
  - diag: ordered error list shared by all pipeline stages;
  - dot: Graphviz description of a parse tree;
  - workbench: runs a grammar and input through the chosen engine;
  - config: settings from flags and environment, HCL session files;
  - cmd/g4scope: console utility.
*/
package g4scope

import (
	"fmt"

	"github.com/ava12/g4scope/atn"
	"github.com/ava12/g4scope/diag"
	"github.com/ava12/g4scope/tree"
)

// Error classes used by subpackages, each class contains up to 99 error codes:
const (
	GrammarErrors   = 1   // used by grammar
	WorkspaceErrors = 101 // used by compiled
	CompilerErrors  = 201 // used by compiled
	ArtifactErrors  = 301 // used by compiled and codegen
	LexicalErrors   = 401 // used by lexer
)

// Error is the error type used by g4scope subpackages.
type Error struct {
	// Code contains non-zero error code.
	Code int

	// Message contains non-empty error message including source name and position information if provided.
	Message string

	// SourceName contains source name that caused this error or empty string.
	SourceName string

	// Line contains line number in source file or 0.
	Line int

	// Col contains column number in source file or 0.
	Col int
}

// SourcePos is used to retrieve source name and position information when constructing an error;
// source.Pos and lexer.Token implement this interface.
type SourcePos interface {
	SourceName() string
	Line() int
	Col() int
}

// NewError creates new Error structure.
// name, line, and col will be added to error message if provided (non-zero).
func NewError(code int, msg, name string, line, col int) *Error {
	if name != "" && line != 0 && col != 0 {
		msg += fmt.Sprintf(" in %s at line %d col %d", name, line, col)
	}
	return &Error{code, msg, name, line, col}
}

// Error simply returns Error.Message.
func (e *Error) Error() string {
	return e.Message
}

// Position returns error position or -1, -1 if there is no position information.
func (e *Error) Position() (line, col int) {
	if e.Line == 0 || e.Col == 0 {
		return diag.UnknownPos, diag.UnknownPos
	}
	return e.Line, e.Col
}

// ErrorCode returns Error.Code.
func (e *Error) ErrorCode() int {
	return e.Code
}

// FormatError creates Error structure with no source and position information.
// params will be added to error message using fmt.Sprintf function.
func FormatError(code int, msg string, params ...any) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return NewError(code, msg, "", 0, 0)
}

// FormatErrorPos creates Error structure with source and position information.
// pos must not be nil.
// params will be added to error message using fmt.Sprintf function.
func FormatErrorPos(pos SourcePos, code int, msg string, params ...any) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return NewError(code, msg, pos.SourceName(), pos.Line(), pos.Col())
}

// Token is a lexeme of the input text.
type Token struct {
	Text   string `json:"text" msgpack:"text"`
	Type   string `json:"type" msgpack:"type"`
	Line   int    `json:"line" msgpack:"line"`
	Column int    `json:"column" msgpack:"column"`
}

// TokensOf converts recognizer tokens, EOF tokens are dropped.
// Returns non-nil slice.
func TokensOf(tokens []*atn.Token, v atn.Vocabulary) []Token {
	res := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Type == atn.EOF {
			continue
		}
		res = append(res, Token{Text: t.Text, Type: v.Name(t.Type), Line: t.Line, Column: t.Column})
	}
	return res
}

// Result is the outcome of a single grammar run.
// Tokens is nil if the input was not tokenized, Tree is nil for lexer grammars
// or if the input was not parsed.
type Result struct {
	Tokens    []Token    `json:"tokens" msgpack:"tokens"`
	Tree      *tree.Node `json:"tree,omitempty" msgpack:"tree,omitempty"`
	RuleNames []string   `json:"ruleNames" msgpack:"ruleNames"`
	Errors    diag.List  `json:"errors" msgpack:"errors"`
}

// OK returns true if no stage reported an error.
func (r *Result) OK() bool {
	return r.Errors.Len() == 0
}

// HasTokens returns true if the input was tokenized.
func (r *Result) HasTokens() bool {
	return r.Tokens != nil
}

// HasTree returns true if the input was parsed.
func (r *Result) HasTree() bool {
	return r.Tree != nil
}

// AddCodeErrors appends recognizer errors as CODE messages.
func (r *Result) AddCodeErrors(errs []*atn.SyntaxError) {
	for _, e := range errs {
		r.Errors.Append(diag.Code, e.Line, e.Column, e.Message)
	}
}

// AddUnknownError appends a message of unknown source and position.
func (r *Result) AddUnknownError(msg string) {
	r.Errors.Append(diag.Unknown, diag.UnknownPos, diag.UnknownPos, msg)
}
