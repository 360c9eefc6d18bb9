package cmd

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ezerfernandes/typfence/internal/config"
	"github.com/ezerfernandes/typfence/internal/preprocess"
	"github.com/ezerfernandes/typfence/internal/render"
	"github.com/google/renameio"
	"github.com/spf13/cobra"
)

//go:embed help/render.md
var renderHelp string

func renderCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{ //nolint:exhaustruct
		Use:     "render [flags] [path...]",
		Aliases: []string{"r"},
		Short:   "Render typ code blocks into images",
		Long:    renderHelp,
		PreRunE: func(_ *cobra.Command, args []string) error {
			return checkOutput(opts, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}

			return renderRun(cmd.Context(), opts, cfg, args, cmd.InOrStdin(), cmd.OutOrStdout())
		},

		DisableAutoGenTag: true,
	}

	configFlags(cmd, opts)
	outDirFlag(cmd, opts)
	excludeFlag(cmd, opts)
	quietFlag(cmd, opts)

	cmd.Flags().BoolVarP(&opts.inPlace, "in-place", "i", false, "overwrite the input documents")
	cmd.Flags().BoolVar(&opts.html, "html", false, "write HTML instead of markdown")
	cmd.Flags().StringVar(&opts.report, "report", "", "write a markdown failure report to `file`")

	return cmd
}

func checkOutput(opts *options, args []string) error {
	switch {
	case opts.inPlace && len(opts.outDir) != 0:
		return errInPlaceOutDir
	case opts.inPlace && opts.html:
		return errInPlaceHTML
	case opts.inPlace && isStdin(args):
		return errInPlaceStdin
	}

	return nil
}

func isStdin(args []string) bool {
	return len(args) == 0 || (len(args) == 1 && args[0] == stdinName)
}

func renderRun(ctx context.Context, opts *options, cfg *config.Config, args []string, stdin io.Reader, stdout io.Writer) error {
	pipeline, err := opts.newPipeline(cfg)
	if err != nil {
		return err
	}

	if isStdin(args) {
		return renderStream(ctx, opts, cfg, pipeline, stdin, stdout)
	}

	accept, err := filter(opts.exclude)
	if err != nil {
		return err
	}

	inputs, err := walk(args, accept)
	if err != nil {
		return err
	}

	if len(inputs) == 0 {
		return errNoInputs
	}

	if len(inputs) > 1 && len(opts.outDir) == 0 && !opts.inPlace {
		return errOutputRequired
	}

	reports := make([]preprocess.Report, 0, len(inputs))
	failures := 0

	for _, in := range inputs {
		out, err := renderFile(ctx, opts, cfg, pipeline, in, stdout)
		if err != nil {
			return fmt.Errorf("%s: %w", in.path, err)
		}

		failures += len(out.Failures)
		reports = append(reports, preprocess.Report{Path: in.path, Failures: out.Failures})
	}

	if len(opts.report) != 0 {
		if err := writeReport(opts.report, reports); err != nil {
			return err
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d block(s) failed", failures)
	}

	return nil
}

func renderStream(ctx context.Context, opts *options, cfg *config.Config, pipeline *render.Pipeline, stdin io.Reader, stdout io.Writer) error {
	src, err := io.ReadAll(stdin)
	if err != nil {
		return err
	}

	assetRoot := opts.outDir
	if len(assetRoot) == 0 {
		assetRoot = "."
	}

	if err := os.MkdirAll(assetRoot, dirMode); err != nil {
		return err
	}

	out, err := opts.newPreprocessor(cfg, pipeline, assetRoot).Process(ctx, src)
	if err != nil {
		return err
	}

	reportFailures(opts.status, stdinName, out.Failures)

	doc, err := opts.finish(cfg, out.Document)
	if err != nil {
		return err
	}

	if _, err := stdout.Write(doc); err != nil {
		return err
	}

	if len(opts.report) != 0 {
		if err := writeReport(opts.report, []preprocess.Report{{Path: stdinName, Failures: out.Failures}}); err != nil {
			return err
		}
	}

	if len(out.Failures) > 0 {
		return fmt.Errorf("%d block(s) failed", len(out.Failures))
	}

	return nil
}

func renderFile(ctx context.Context, opts *options, cfg *config.Config, renderer preprocess.Renderer, in input, stdout io.Writer) (*preprocess.Output, error) {
	src, err := os.ReadFile(in.path)
	if err != nil {
		return nil, err
	}

	target := opts.target(in)

	assetRoot := "."
	if len(target) != 0 {
		assetRoot = filepath.Dir(target)
	}

	if err := os.MkdirAll(assetRoot, dirMode); err != nil {
		return nil, err
	}

	out, err := opts.newPreprocessor(cfg, renderer, assetRoot).Process(ctx, src)
	if err != nil {
		return nil, err
	}

	reportFailures(opts.status, in.path, out.Failures)

	doc, err := opts.finish(cfg, out.Document)
	if err != nil {
		return nil, err
	}

	if len(target) == 0 {
		_, err = stdout.Write(doc)

		return out, err
	}

	written, err := writeFile(target, doc)
	if err != nil {
		return nil, err
	}

	if written {
		opts.status("--- %s -> %s ---\n", in.path, target)
	}

	return out, nil
}

// target is the output path for in, or empty for standard output.
func (o *options) target(in input) string {
	switch {
	case o.inPlace:
		return in.path
	case len(o.outDir) != 0:
		name := filepath.Join(o.outDir, filepath.FromSlash(in.rel))
		if o.html {
			name = strings.TrimSuffix(name, filepath.Ext(name)) + ".html"
		}

		return name
	}

	return ""
}

func (o *options) finish(cfg *config.Config, doc []byte) ([]byte, error) {
	if !o.html {
		return doc, nil
	}

	return preprocess.ToHTML(doc, preprocess.HTMLOptions{
		Style:           cfg.Highlight.Style,
		HighlightInline: cfg.Highlight.Inline,
	})
}

// writeFile atomically replaces name with data unless it already holds
// exactly that content.
func writeFile(name string, data []byte) (bool, error) {
	if current, err := os.ReadFile(name); err == nil && bytes.Equal(current, data) { //nolint:gosec
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(name), dirMode); err != nil {
		return false, err
	}

	return true, renameio.WriteFile(name, data, fileMode)
}

func reportFailures(status statusFunc, name string, failures []*preprocess.Failure) {
	for _, f := range failures {
		status("%s:%d: %v: %s\n", name, f.Line, f.Err, firstLine(f.Diagnostic))
	}
}

func writeReport(name string, reports []preprocess.Report) error {
	var buf bytes.Buffer

	if err := preprocess.WriteReport(&buf, reports); err != nil {
		return err
	}

	_, err := writeFile(name, buf.Bytes())

	return err
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}

	return s
}
