package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ava12/g4scope/codegen"
	"github.com/ava12/g4scope/config"
	"github.com/ava12/g4scope/diag"
	"github.com/ava12/g4scope/internal/ctxlog"
)

func (a *app) genCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen <grammar.g4>",
		Short: "Write recognizer program sources",
		Long: "Gen writes a standalone Go module containing generated lexer and parser,\n" +
			"a copy of recognizer runtime, and a main package serving recognizer requests.",
		Args: cobra.ExactArgs(1),
		RunE: a.gen,
	}
	flags := cmd.Flags()
	flags.StringP("lexer", "l", "", "lexer grammar file providing vocabulary of a parser grammar")
	flags.StringP("output", "o", "", "output directory")
	flags.String("module", "", "module path (default: "+codegen.ModulePrefix+"<grammar name>)")
	flags.String("go-version", codegen.GoVersion, "go directive of generated go.mod")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func (a *app) gen(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	lexerFile, _ := flags.GetString("lexer")
	output, _ := flags.GetString("output")
	opts := codegen.Options{}
	opts.ModulePath, _ = flags.GetString("module")
	opts.GoVersion, _ = flags.GetString("go-version")

	rep := newReporter(cmd.OutOrStdout(), a.cfg.Format)
	m, errs := codegen.LoadFiles(args[0], lexerFile)
	if m == nil || errs.Has(diag.Grammar) || errs.Has(diag.Unknown) {
		if e := rep.Errors(args[0], errs); e != nil {
			return e
		}
		return errFailed
	}

	p, e := codegen.Generate(m, opts)
	if e == nil {
		e = p.Write(output)
	}
	if e != nil {
		errs.AddError(diag.Unknown, e)
		if e = rep.Errors(args[0], errs); e != nil {
			return e
		}
		return errFailed
	}

	ctxlog.FromContext(cmd.Context()).Info("program written", "module", p.ModulePath, "dir", output, "files", len(p.Files))
	if a.cfg.Format == config.FormatText {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d files written to %s\n", p.ModulePath, len(p.Files), output)
	}
	return nil
}
