package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/shlex"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

const (
	fileMode = 0o644

	sourceName = "main.typ"
	outputBase = "out"
)

// ErrEmptyCommand is returned when an engine command template has no words.
var ErrEmptyCommand = errors.New("empty engine command")

// ShellEngine runs a command line for every compilation. The command is a
// template split into words like a shell would; the placeholders {src}, {out}
// and {dir} are replaced inside each word by the source file, the output path
// pattern and the scratch directory.
type ShellEngine struct {
	Command        string
	VersionCommand string
	Format         string
	FontPaths      []string
	WorkDir        string

	versionMu sync.Mutex
	version   string
}

// Compile writes source to a scratch directory, runs the engine command
// there and collects the produced pages.
func (e *ShellEngine) Compile(ctx context.Context, source []byte) (Artifact, error) {
	dir, err := os.MkdirTemp(e.WorkDir, "typfence-")
	if err != nil {
		return Artifact{}, err
	}

	defer os.RemoveAll(dir)

	src := filepath.Join(dir, sourceName)
	if err := os.WriteFile(src, source, fileMode); err != nil {
		return Artifact{}, err
	}

	argv, err := expandCommand(e.Command, map[string]string{
		"{src}": src,
		"{out}": filepath.Join(dir, outputBase+"-{n}."+e.Format),
		"{dir}": dir,
	})
	if err != nil {
		return Artifact{}, err
	}

	argv = append(argv, fontArgs(e.FontPaths)...)

	var stderr bytes.Buffer

	exitCode, err := runCommand(ctx, argv, dir, io.Discard, &stderr)
	if err != nil {
		return Artifact{}, err
	}

	if exitCode != 0 {
		return Artifact{}, &ExitError{Code: exitCode, Stderr: stderr.String()}
	}

	pages, err := collectPages(dir, e.Format)
	if err != nil {
		return Artifact{}, err
	}

	if len(pages) == 0 {
		return Artifact{}, ErrNoOutput
	}

	return Artifact{Format: e.Format, Pages: pages}, nil
}

// Version runs VersionCommand and caches its trimmed output. A failed run is
// not cached, the next call tries again.
func (e *ShellEngine) Version(ctx context.Context) (string, error) {
	e.versionMu.Lock()
	defer e.versionMu.Unlock()

	if len(e.version) != 0 || len(strings.TrimSpace(e.VersionCommand)) == 0 {
		return e.version, nil
	}

	argv, err := expandCommand(e.VersionCommand, nil)
	if err != nil {
		return "", err
	}

	var stdout, stderr bytes.Buffer

	exitCode, err := runCommand(ctx, argv, "", &stdout, &stderr)

	switch {
	case err != nil:
		return "", err
	case exitCode != 0:
		return "", &ExitError{Code: exitCode, Stderr: stderr.String()}
	}

	e.version = strings.TrimSpace(stdout.String())

	return e.version, nil
}

// Settings identifies the command line and output format, which change the
// produced pages as much as the engine version does.
func (e *ShellEngine) Settings() string {
	return strings.Join([]string{e.Command, e.Format, strings.Join(e.FontPaths, string(filepath.ListSeparator))}, "\x00")
}

func expandCommand(template string, vars map[string]string) ([]string, error) {
	words, err := shlex.Split(template)
	if err != nil {
		return nil, fmt.Errorf("parse engine command: %w", err)
	}

	if len(words) == 0 {
		return nil, ErrEmptyCommand
	}

	pairs := make([]string, 0, 2*len(vars))
	for k, v := range vars {
		pairs = append(pairs, k, v)
	}

	replacer := strings.NewReplacer(pairs...)

	for i, word := range words {
		words[i] = replacer.Replace(word)
	}

	return words, nil
}

func fontArgs(paths []string) []string {
	var args []string

	for _, path := range paths {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			abs, err := filepath.Abs(path)
			if err != nil {
				abs = path
			}

			args = append(args, "--font-path", abs)
		}
	}

	return args
}

// collectPages reads out-<n>.<format> (or out.<format>) files in page order.
func collectPages(dir, format string) ([][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type page struct {
		n    int
		name string
	}

	var found []page

	ext := "." + format

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, outputBase) || !strings.HasSuffix(name, ext) {
			continue
		}

		middle := strings.TrimSuffix(strings.TrimPrefix(name, outputBase), ext)
		if len(middle) == 0 {
			found = append(found, page{n: 1, name: name})

			continue
		}

		if !strings.HasPrefix(middle, "-") {
			continue
		}

		n, err := strconv.Atoi(middle[1:])
		if err != nil {
			continue
		}

		found = append(found, page{n: n, name: name})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	pages := make([][]byte, 0, len(found))

	for _, p := range found {
		data, err := os.ReadFile(filepath.Join(dir, p.name))
		if err != nil {
			return nil, err
		}

		pages = append(pages, data)
	}

	return pages, nil
}

// script runs its positional parameters as a single command.
const script = `"$@"`

func runCommand(ctx context.Context, argv []string, dir string, stdout, stderr io.Writer) (int, error) {
	file, err := syntax.NewParser().Parse(strings.NewReader(script), "")
	if err != nil {
		return -1, err
	}

	params := append([]string{"--"}, argv...)

	runner, err := interp.New(
		interp.Dir(dir),
		interp.StdIO(nil, stdout, stderr),
		interp.Params(params...),
	)
	if err != nil {
		return -1, err
	}

	err = runner.Run(ctx, file)
	if err != nil {
		if status, ok := interp.IsExitStatus(err); ok {
			return int(status), nil
		}

		return -1, err
	}

	return 0, nil
}
