package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ezerfernandes/typfence/internal/config"
	"github.com/ezerfernandes/typfence/internal/preprocess"
	"github.com/ezerfernandes/typfence/internal/render"
	"github.com/spf13/cobra"
)

const (
	fileMode = 0o644
	dirMode  = 0o755

	stdinName = "-"
)

type statusFunc func(format string, args ...any)

type options struct {
	configFile string
	verbose    bool
	quiet      bool

	status statusFunc
	logger *slog.Logger

	// engine and document settings given on the command line
	hideLines string
	failFast  bool
	workers   int
	timeout   time.Duration
	noCache   bool
	noRender  bool

	// output selection
	outDir  string
	inPlace bool
	html    bool
	exclude []string
	report  string
}

func (o *options) createStatus(w io.Writer) {
	if o.quiet {
		o.status = func(string, ...any) {}

		return
	}

	o.status = func(format string, args ...any) {
		fmt.Fprintf(w, format, args...)
	}
}

func quietFlag(cmd *cobra.Command, opts *options) {
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "don't print progress")
}

func outDirFlag(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVarP(&opts.outDir, "out-dir", "o", "", "write processed documents under `dir`")
}

func excludeFlag(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringArrayVarP(&opts.exclude, "exclude", "x", nil, "skip files matching `glob` when scanning directories")
}

func configFlags(cmd *cobra.Command, opts *options) {
	flags := cmd.Flags()

	flags.StringVar(&opts.hideLines, "hidelines", "", "hidden-line `prefix` for blocks without their own")
	flags.BoolVar(&opts.failFast, "fail-fast", false, "stop at the first block that fails to render")
	flags.IntVarP(&opts.workers, "workers", "j", 0, "concurrent engine runs (default one per CPU)")
	flags.DurationVar(&opts.timeout, "timeout", config.DefaultTimeout, "time limit for one engine run")
	flags.BoolVar(&opts.noCache, "no-cache", false, "don't read or write the artifact cache directory")
	flags.BoolVar(&opts.noRender, "no-render", false, "keep typst blocks as code instead of running the engine")
}

// loadConfig reads the configuration file and applies the flags the user set.
func (o *options) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.New()

	if path := config.Find(o.configFile); len(path) != 0 {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		cfg = loaded
	} else if len(o.configFile) != 0 {
		return nil, fmt.Errorf("%s: %w", o.configFile, config.ErrConfigNotFound)
	}

	flags := cmd.Flags()

	if flags.Changed("hidelines") {
		cfg.HideLines = o.hideLines
	}

	if flags.Changed("fail-fast") {
		cfg.FailFast = o.failFast
	}

	if flags.Changed("workers") {
		cfg.Workers = o.workers
	}

	if flags.Changed("timeout") {
		cfg.Engine.Timeout = o.timeout
	}

	if flags.Changed("no-cache") {
		cfg.NoCache = o.noCache
	}

	if flags.Changed("no-render") {
		cfg.Render = !o.noRender
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newPipeline builds the render pipeline shared by every document of a run.
func (o *options) newPipeline(cfg *config.Config) (*render.Pipeline, error) {
	engine := &render.ShellEngine{
		Command:        cfg.Engine.Command,
		VersionCommand: cfg.Engine.VersionCommand,
		Format:         cfg.Engine.Format,
		FontPaths:      cfg.Engine.FontPaths,
		WorkDir:        cfg.Engine.WorkDir,
	}

	var store *render.Store

	if !cfg.NoCache && len(cfg.CacheDir) != 0 {
		if err := os.MkdirAll(cfg.CacheDir, dirMode); err != nil {
			return nil, fmt.Errorf("cache dir: %w", err)
		}

		store = render.NewStore(render.DirFS(cfg.CacheDir))
	}

	return render.New(engine, render.Options{
		Preamble: cfg.Preamble,
		Timeout:  cfg.Engine.Timeout,
		Retries:  cfg.Engine.Retries,
		Workers:  cfg.Workers,
		FailFast: cfg.FailFast,
	}, render.WithLogger(o.logger), render.WithCache(render.NewCache(store, o.logger))), nil
}

func (o *options) newPreprocessor(cfg *config.Config, renderer preprocess.Renderer, outDir string) *preprocess.Preprocessor {
	publisher := preprocess.NewDirPublisher(render.DirFS(outDir), cfg.AssetsDir)

	return preprocess.New(preprocess.Options{
		HideLines:    cfg.HideLines,
		FailFast:     cfg.FailFast,
		WarnUntagged: cfg.WarnUntagged,
		SkipRender:   !cfg.Render,
	}, renderer, publisher, preprocess.WithLogger(o.logger))
}

var (
	errOutputRequired = errors.New("several inputs need --out-dir or --in-place")
	errInPlaceOutDir  = errors.New("--in-place and --out-dir are mutually exclusive")
	errInPlaceHTML    = errors.New("--in-place can't be combined with --html")
	errInPlaceStdin   = errors.New("--in-place needs file inputs")
	errNoInputs       = errors.New("no markdown files found")
)
