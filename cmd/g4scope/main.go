/*
g4scope is a console utility running sample inputs through ANTLR-style grammars.
Usage is

	g4scope run [flags] <grammar.g4> [<input file>]
	g4scope gen [flags] <grammar.g4>
	g4scope session [flags] <session.hcl>

run prints tokens, the parse tree and errors for a single input, input is read from
the file, from --input flag value, or from standard input;

gen writes the Go program used by the compiled engine to a directory;

session executes all runs described in an HCL session file.

Settings may be given as flags or as G4SCOPE_* environment variables,
e.g. G4SCOPE_ENGINE=compiled.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
)

// errFailed is returned by commands that have already reported errors.
var errFailed = errors.New("failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	e := newRootCmd().ExecuteContext(ctx)
	stop()

	if e != nil {
		if !errors.Is(e, errFailed) {
			fmt.Fprintln(os.Stderr, "g4scope:", e)
			os.Exit(2)
		}
		os.Exit(1)
	}
}
