// Package render compiles typesetting sources into artifacts through an
// external engine, with a worker pool and a content-addressed cache.
package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Artifact is the rendered output of one block: one image per page.
type Artifact struct {
	Format string
	Pages  [][]byte
}

// Engine is the external typesetting collaborator.
type Engine interface {
	// Compile turns a complete source document into an artifact.
	Compile(ctx context.Context, source []byte) (Artifact, error)

	// Version identifies the engine build; it is part of every cache key.
	Version(ctx context.Context) (string, error)
}

// Settings is implemented by engines whose output depends on configuration
// besides their version. The returned string is part of every cache key.
type Settings interface {
	Settings() string
}

var (
	// ErrRenderFailure marks a block the engine refused to compile.
	ErrRenderFailure = errors.New("render failed")

	// ErrEngineTimeout marks a block whose compilation exceeded the timeout.
	ErrEngineTimeout = errors.New("engine timed out")

	// ErrNoOutput is returned by engines that exit cleanly without output.
	ErrNoOutput = errors.New("engine produced no output")
)

// Error is a block-scoped render error carrying the engine diagnostic.
// It matches [ErrRenderFailure] or [ErrEngineTimeout] with errors.Is.
type Error struct {
	Diagnostic string
	Err        error
}

func (e *Error) Error() string {
	if len(e.Diagnostic) == 0 {
		return e.Err.Error()
	}

	return fmt.Sprintf("%v: %s", e.Err, e.Diagnostic)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ExitError reports a non-zero engine exit status with its error output.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if msg := strings.TrimSpace(e.Stderr); len(msg) != 0 {
		return msg
	}

	return fmt.Sprintf("exit status %d", e.Code)
}
