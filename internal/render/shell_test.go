package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandCommand(t *testing.T) {
	t.Parallel()

	argv, err := expandCommand(`typst compile --format svg {src} "{dir}/my out-{n}.svg"`, map[string]string{
		"{src}": "/tmp/x/main.typ",
		"{dir}": "/tmp/x",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"typst", "compile", "--format", "svg", "/tmp/x/main.typ", "/tmp/x/my out-{n}.svg"}, argv)

	_, err = expandCommand("   ", nil)
	assert.ErrorIs(t, err, ErrEmptyCommand)
}

func TestCollectPages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	for name, data := range map[string]string{
		"out-10.svg": "ten",
		"out-2.svg":  "two",
		"out-1.svg":  "one",
		"out-x.svg":  "ignored",
		"main.typ":   "ignored",
		"out-3.png":  "ignored",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(data), fileMode))
	}

	pages, err := collectPages(dir, "svg")
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, "one", string(pages[0]))
	assert.Equal(t, "two", string(pages[1]))
	assert.Equal(t, "ten", string(pages[2]))
}

func TestShellEngineCompile(t *testing.T) {
	t.Parallel()

	engine := &ShellEngine{
		Command: `sh -c 'cp "$1" "$2"' compile {src} {dir}/out-1.svg`,
		Format:  "svg",
		WorkDir: t.TempDir(),
	}

	artifact, err := engine.Compile(context.Background(), []byte("<svg/>"))
	require.NoError(t, err)
	assert.Equal(t, "svg", artifact.Format)
	assert.Equal(t, [][]byte{[]byte("<svg/>")}, artifact.Pages)
}

func TestShellEngineFailure(t *testing.T) {
	t.Parallel()

	engine := &ShellEngine{
		Command: `sh -c 'echo "error: expected expression" >&2; exit 3'`,
		Format:  "svg",
		WorkDir: t.TempDir(),
	}

	_, err := engine.Compile(context.Background(), []byte("#"))
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, "error: expected expression", exitErr.Error())
}

func TestShellEngineNoOutput(t *testing.T) {
	t.Parallel()

	engine := &ShellEngine{Command: "true", Format: "svg", WorkDir: t.TempDir()}

	_, err := engine.Compile(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrNoOutput)
}

func TestShellEngineVersion(t *testing.T) {
	t.Parallel()

	engine := &ShellEngine{VersionCommand: "echo typst 0.11.0"}

	version, err := engine.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "typst 0.11.0", version)

	none := &ShellEngine{}
	version, err = none.Version(context.Background())
	require.NoError(t, err)
	assert.Empty(t, version)
}

func TestShellEngineVersionRetriesAfterFailure(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "version")
	engine := &ShellEngine{VersionCommand: `sh -c 'cat "$1"' version ` + file}

	_, err := engine.Version(context.Background())

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))

	require.NoError(t, os.WriteFile(file, []byte("typst 0.12.0\n"), fileMode))

	version, err := engine.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "typst 0.12.0", version)

	require.NoError(t, os.Remove(file))

	version, err = engine.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "typst 0.12.0", version)
}

func TestShellEngineSettings(t *testing.T) {
	t.Parallel()

	svg := &ShellEngine{Command: "typst compile {src} {out}", Format: "svg"}
	png := &ShellEngine{Command: "typst compile {src} {out}", Format: "png"}
	fonts := &ShellEngine{Command: "typst compile {src} {out}", Format: "svg", FontPaths: []string{"fonts"}}

	assert.NotEqual(t, svg.Settings(), png.Settings())
	assert.NotEqual(t, svg.Settings(), fonts.Settings())
}
