package main

import (
	"log/slog"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ava12/g4scope/compiled"
	"github.com/ava12/g4scope/config"
	"github.com/ava12/g4scope/internal/ctxlog"
	"github.com/ava12/g4scope/workbench"
)

// app holds state shared by commands of a single invocation.
type app struct {
	settings *viper.Viper
	cfg      *config.Config
	bench    *workbench.Workbench
}

func newRootCmd() *cobra.Command {
	a := &app{settings: config.New()}
	rootCmd := &cobra.Command{
		Use:   "g4scope",
		Short: "Grammar workbench",
		Long: "g4scope runs a sample input through an ANTLR-style grammar and reports tokens, " +
			"the parse tree and every error found, using either the grammar interpreter " +
			"or a generated and compiled Go recognizer.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("engine", "e", workbench.Interpreted.String(), "execution engine: interpreted or compiled")
	flags.String("go", "go", "go command used by compiled engine")
	flags.String("work-dir", "", "workspace root of compiled engine (default: system temporary directory)")
	flags.Duration("build-timeout", compiled.DefaultBuildTimeout, "compiled engine build timeout")
	flags.Duration("run-timeout", compiled.DefaultRunTimeout, "compiled program run timeout")
	flags.String("style", "display", "graph style: display or export")
	flags.StringP("format", "f", config.FormatText, "output format: text, json or msgpack")
	flags.BoolP("verbose", "v", false, "log run stages")
	flags.Bool("debug", false, "log everything")
	flags.Bool("no-color", false, "disable coloured text output")

	for key, flag := range map[string]string{
		config.KeyEngine:       "engine",
		config.KeyGo:           "go",
		config.KeyWorkDir:      "work-dir",
		config.KeyBuildTimeout: "build-timeout",
		config.KeyRunTimeout:   "run-timeout",
		config.KeyStyle:        "style",
		config.KeyFormat:       "format",
		config.KeyVerbose:      "verbose",
		config.KeyDebug:        "debug",
	} {
		_ = a.settings.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(a.runCmd(), a.genCmd(), a.sessionCmd())
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var e error
	a.cfg, e = config.Load(a.settings)
	if e != nil {
		return e
	}

	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		color.Disable()
	}

	level := slog.LevelWarn
	if a.cfg.Verbose {
		level = slog.LevelInfo
	}
	if a.cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))

	a.bench = workbench.New(a.cfg.Workbench())
	return nil
}
