// Package cmd implements the typfence command line.
package cmd

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

//go:embed help/root.md
var rootHelp string

func rootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{ //nolint:exhaustruct
		Use:           "typfence",
		Short:         "Render Typst code blocks in markdown documents",
		Long:          rootHelp,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts.createStatus(cmd.ErrOrStderr())
			opts.createLogger(cmd.ErrOrStderr())

			return nil
		},

		DisableAutoGenTag: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "configuration file (default .typfence.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log every compiled block")

	cmd.AddCommand(renderCmd(opts), listCmd(opts), watchCmd(opts))

	return cmd
}

// Execute runs the command line and exits with status 1 on error.
func Execute(args []string, stdout, stderr io.Writer) {
	if err := run(args, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "typfence: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	opts := new(options)

	root := rootCmd(opts)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	return root.Execute()
}

func (o *options) createLogger(w io.Writer) {
	level := slog.LevelInfo

	switch {
	case o.verbose:
		level = slog.LevelDebug
	case o.quiet:
		level = slog.LevelError
	}

	o.logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
