package compiled

import (
	"regexp"

	"github.com/ava12/g4scope"
)

// Error codes used by compiled engine:
const (
	NoGrammarNameError = g4scope.WorkspaceErrors + iota
	CreateWorkspaceError
	SaveGrammarError
)

const (
	BuildError = g4scope.CompilerErrors + iota
	BuildFailedError
	NoToolchainError
)

// Artifact error codes start after the ones used by codegen.
const (
	LaunchError = g4scope.ArtifactErrors + 50 + iota
	ProtocolError
	RemoteError
)

var grammarNameRe = regexp.MustCompile(`(?s)(?:(?:lexer|parser)\s+)?grammar\s+([a-zA-Z_]\w*);`)

// HeaderInfo is the grammar identity taken from raw grammar text.
// Package name of generated sources comes from the loaded grammar model, not from here.
type HeaderInfo struct {
	Name string
}

// Header extracts grammar name without parsing the grammar.
// Returns NoGrammarNameError if there is no grammar declaration.
func Header(text string) (HeaderInfo, error) {
	var res HeaderInfo
	match := grammarNameRe.FindStringSubmatch(text)
	if match == nil {
		return res, g4scope.FormatError(NoGrammarNameError, "cannot determine grammar name")
	}
	res.Name = match[1]
	return res, nil
}
