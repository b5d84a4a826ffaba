package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ava12/g4scope/internal/ctxlog"
	"github.com/ava12/g4scope/workbench"
)

func (a *app) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <grammar.g4> [<input file>]",
		Short: "Run an input through a grammar",
		Long: "Run reads a grammar and an input, and prints tokens, parse tree and errors.\n" +
			"Input is taken from --input flag, from the input file, or from standard input.",
		Args: cobra.RangeArgs(1, 2),
		RunE: a.run,
	}
	flags := cmd.Flags()
	flags.StringP("lexer", "l", "", "lexer grammar file providing vocabulary of a parser grammar")
	flags.StringP("input", "i", "", "input text")
	flags.BoolP("graph", "g", false, "print parse tree as DOT graph")
	return cmd
}

func (a *app) run(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	req := workbench.Request{Engine: a.cfg.Engine}
	req.Graph, _ = flags.GetBool("graph")

	text, e := os.ReadFile(args[0])
	if e != nil {
		return fmt.Errorf("failed to read grammar: %w", e)
	}
	req.Grammar = string(text)

	if lexerFile, _ := flags.GetString("lexer"); lexerFile != "" {
		text, e = os.ReadFile(lexerFile)
		if e != nil {
			return fmt.Errorf("failed to read lexer grammar: %w", e)
		}
		req.LexerGrammar = string(text)
	}

	switch {
	case flags.Changed("input"):
		if len(args) > 1 {
			return fmt.Errorf("both --input flag and input file given")
		}
		req.Input, _ = flags.GetString("input")
	case len(args) > 1:
		text, e = os.ReadFile(args[1])
		if e != nil {
			return fmt.Errorf("failed to read input: %w", e)
		}
		req.Input = string(text)
	default:
		text, e = io.ReadAll(cmd.InOrStdin())
		if e != nil {
			return fmt.Errorf("failed to read input: %w", e)
		}
		req.Input = string(text)
	}

	ctxlog.FromContext(cmd.Context()).Info("running", "grammar", args[0], "engine", req.Engine)
	resp := a.bench.Run(cmd.Context(), req)
	if e = newReporter(cmd.OutOrStdout(), a.cfg.Format).Response(resp); e != nil {
		return e
	}
	if !resp.Result.OK() {
		return errFailed
	}
	return nil
}
