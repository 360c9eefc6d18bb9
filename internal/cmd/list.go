package cmd

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/ezerfernandes/typfence/internal/mdcode"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
)

//go:embed help/list.md
var listHelp string

func listCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{ //nolint:exhaustruct
		Use:     "list [flags] [path...]",
		Aliases: []string{"ls"},
		Short:   "List fenced code blocks and what render would do with them",
		Long:    listHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}

			return listRun(args, cfg.HideLines, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},

		DisableAutoGenTag: true,
	}

	excludeFlag(cmd, opts)

	return cmd
}

func listRun(args []string, hideLines string, opts *options, stdin io.Reader, stdout io.Writer) error {
	tbl := table.New("File", "Block", "Lines", "Tag", "Action", "Hidden").WithWriter(stdout)

	add := func(name string, source []byte) error {
		blocks, err := mdcode.Unfence(source)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		for _, block := range blocks {
			hidden := 0
			if block.Directive.Action() != mdcode.Passthrough {
				compiled, display := mdcode.HideLines(block.Code, block.Directive.HideLines(hideLines))
				hidden = lineCount(compiled) - lineCount(display)
			}

			tag := block.Directive.Tag
			if len(tag) == 0 {
				tag = "-"
			}

			tbl.AddRow(name, block.Index, fmt.Sprintf("L%d-%d", block.StartLine, block.EndLine), tag, block.Directive.Action(), hidden)
		}

		return nil
	}

	if isStdin(args) {
		src, err := io.ReadAll(stdin)
		if err != nil {
			return err
		}

		if err := add(stdinName, src); err != nil {
			return err
		}

		tbl.Print()

		return nil
	}

	accept, err := filter(opts.exclude)
	if err != nil {
		return err
	}

	inputs, err := walk(args, accept)
	if err != nil {
		return err
	}

	for _, in := range inputs {
		src, err := os.ReadFile(in.path)
		if err != nil {
			return err
		}

		if err := add(in.path, src); err != nil {
			return err
		}
	}

	tbl.Print()

	return nil
}

func lineCount(b []byte) int {
	n := 0

	for _, c := range b {
		if c == '\n' {
			n++
		}
	}

	if len(b) > 0 && b[len(b)-1] != '\n' {
		n++
	}

	return n
}
