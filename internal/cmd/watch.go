package cmd

import (
	"context"
	_ "embed"
	"errors"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ezerfernandes/typfence/internal/config"
	"github.com/ezerfernandes/typfence/internal/render"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

//go:embed help/watch.md
var watchHelp string

const debounceDelay = 100 * time.Millisecond

var errOutDirRequired = errors.New("watch needs --out-dir")

func watchCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{ //nolint:exhaustruct
		Use:     "watch [flags] dir",
		Aliases: []string{"w"},
		Short:   "Render a directory and re-render documents as they change",
		Long:    watchHelp,
		Args:    cobra.ExactArgs(1),
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if len(opts.outDir) == 0 {
				return errOutDirRequired
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return watchRun(ctx, opts, cfg, args[0], cmd.OutOrStdout())
		},

		DisableAutoGenTag: true,
	}

	configFlags(cmd, opts)
	outDirFlag(cmd, opts)
	excludeFlag(cmd, opts)
	quietFlag(cmd, opts)

	cmd.Flags().BoolVar(&opts.html, "html", false, "write HTML instead of markdown")

	return cmd
}

type watcher struct {
	opts     *options
	cfg      *config.Config
	pipeline *render.Pipeline
	root     string
	outDir   string
	accept   filterFunc
	stdout   io.Writer
}

func watchRun(ctx context.Context, opts *options, cfg *config.Config, root string, stdout io.Writer) error {
	pipeline, err := opts.newPipeline(cfg)
	if err != nil {
		return err
	}

	accept, err := filter(opts.exclude)
	if err != nil {
		return err
	}

	outDir, err := filepath.Abs(opts.outDir)
	if err != nil {
		return err
	}

	w := &watcher{opts: opts, cfg: cfg, pipeline: pipeline, root: root, outDir: outDir, stdout: stdout}
	w.accept = func(rel string) bool {
		return accept(rel) && !w.ignored(filepath.Join(root, filepath.FromSlash(rel)))
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	defer fsw.Close()

	if err := w.addDirs(fsw, root); err != nil {
		return err
	}

	inputs, err := walk([]string{root}, w.accept)
	if err != nil {
		return err
	}

	for _, in := range inputs {
		w.render(ctx, in)
	}

	opts.status("--- watching %s ---\n", root)

	return w.loop(ctx, fsw)
}

func (w *watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) error {
	pending := make(map[string]struct{})

	timer := time.NewTimer(debounceDelay)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addDirs(fsw, event.Name); err != nil {
						w.opts.logger.Warn("watch directory", "path", event.Name, "error", err)
					}

					continue
				}
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			if !isMarkdown(event.Name) || w.ignored(event.Name) {
				continue
			}

			pending[event.Name] = struct{}{}

			timer.Reset(debounceDelay)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}

			w.opts.logger.Error("watch", "error", err)

		case <-timer.C:
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}

			sort.Strings(names)
			clear(pending)

			for _, name := range names {
				if in, ok := w.input(name); ok {
					w.render(ctx, in)
				}
			}
		}
	}
}

func (w *watcher) addDirs(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		if w.ignored(path) {
			return filepath.SkipDir
		}

		return fsw.Add(path)
	})
}

// ignored reports paths inside the output directory, which would otherwise
// trigger renders of rendered documents.
func (w *watcher) ignored(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	return abs == w.outDir || strings.HasPrefix(abs, w.outDir+string(filepath.Separator))
}

func (w *watcher) input(path string) (input, bool) {
	if _, err := os.Stat(path); err != nil {
		return input{}, false
	}

	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return input{}, false
	}

	rel = filepath.ToSlash(rel)
	if !w.accept(rel) {
		return input{}, false
	}

	return input{path: path, rel: rel}, true
}

// render processes one document, logging problems instead of stopping the
// watch.
func (w *watcher) render(ctx context.Context, in input) {
	out, err := renderFile(ctx, w.opts, w.cfg, w.pipeline, in, w.stdout)
	if err != nil {
		w.opts.logger.Error("render", "path", in.path, "error", err)

		return
	}

	if len(out.Failures) > 0 {
		w.opts.logger.Warn("render", "path", in.path, "failed", len(out.Failures))
	}
}
