// Package config holds the settings of a typfence run.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/ezerfernandes/typfence/internal/render"
	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	// AppName names the XDG cache directory.
	AppName = "typfence"

	// DefaultConfigFile is looked up in the working directory.
	DefaultConfigFile = ".typfence.yaml"

	DefaultCommand        = "typst compile --format svg {src} {out}"
	DefaultVersionCommand = "typst --version"
	DefaultFormat         = "svg"
	DefaultTimeout        = 30 * time.Second
	DefaultRetries        = 1
	DefaultAssetsDir      = "typst-img"
	DefaultHighlightStyle = "github"

	DefaultPreamble = render.DefaultPreamble
)

// Engine configures the external typesetting command.
type Engine struct {
	// Command is split like a shell command line; {src}, {out} and {dir}
	// are replaced by the source file, output pattern and scratch directory.
	Command        string        `yaml:"command"`
	VersionCommand string        `yaml:"version_command"`
	Format         string        `yaml:"format"`
	Timeout        time.Duration `yaml:"timeout"`
	Retries        int           `yaml:"retries"`
	FontPaths      []string      `yaml:"font_paths"`
	WorkDir        string        `yaml:"work_dir"`
}

// Highlight configures syntax highlighting of typst code in HTML output.
type Highlight struct {
	// Style names a chroma style; unknown names fall back to chroma's default.
	Style string `yaml:"style"`

	// Inline also highlights inline code spans as typst.
	Inline bool `yaml:"inline"`
}

// Config is the process-wide configuration. It is built once, before any
// document is processed, and not modified afterwards.
type Config struct {
	// HideLines is the default hidden-line prefix; empty disables hiding.
	HideLines string `yaml:"hidelines"`

	// Preamble is prepended to blocks tagged typ.
	Preamble string `yaml:"preamble"`

	Engine Engine `yaml:"engine"`

	// Workers bounds concurrent engine runs; 0 means one per CPU.
	Workers int `yaml:"workers"`

	// FailFast aborts a document at its first render failure.
	FailFast bool `yaml:"fail_fast"`

	// WarnUntagged logs fences that have no language tag.
	WarnUntagged bool `yaml:"warn_untagged"`

	// Render compiles typesetting blocks. When false they are kept as
	// literal code and the engine is never run.
	Render bool `yaml:"render"`

	Highlight Highlight `yaml:"highlight"`

	// CacheDir holds compiled artifacts across runs.
	CacheDir string `yaml:"cache_dir"`
	NoCache  bool   `yaml:"no_cache"`

	// AssetsDir is where images are published, relative to each output document.
	AssetsDir string `yaml:"assets_dir"`
}

// New returns a Config with default values.
func New() *Config {
	return &Config{
		Preamble: DefaultPreamble,
		Engine: Engine{
			Command:        DefaultCommand,
			VersionCommand: DefaultVersionCommand,
			Format:         DefaultFormat,
			Timeout:        DefaultTimeout,
			Retries:        DefaultRetries,
			FontPaths:      []string{"fonts"},
		},
		Render:    true,
		Highlight: Highlight{Style: DefaultHighlightStyle},
		CacheDir:  XDGCacheDir(),
		AssetsDir: DefaultAssetsDir,
	}
}

// XDGCacheDir returns the default artifact cache directory.
// On Linux: ~/.cache/typfence
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// Load reads a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}

		return nil, err
	}

	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Find returns the configuration file to use: path when given and present,
// otherwise DefaultConfigFile in the working directory. It returns an empty
// string when there is none.
func Find(path string) string {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}

		return ""
	}

	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}

	return ""
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	switch {
	case len(c.Engine.Command) == 0:
		return ErrEmptyCommand
	case len(c.Engine.Format) == 0:
		return ErrEmptyFormat
	case c.Engine.Timeout < 0:
		return ErrInvalidTimeout
	case c.Engine.Retries < 0:
		return ErrInvalidRetries
	case c.Workers < 0:
		return ErrInvalidWorkers
	case len(c.AssetsDir) == 0 || filepath.IsAbs(c.AssetsDir):
		return ErrInvalidAssetsDir
	}

	return nil
}
