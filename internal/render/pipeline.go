package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultPreamble sets up a page that fits a standalone snippet.
const DefaultPreamble = "#set page(height: auto, width: 400pt, margin: 0.5cm)\n"

// Request is one block to compile. It must not be modified once submitted.
type Request struct {
	Source      []byte
	UsePreamble bool
}

// Result is the outcome of a Request. Err is a *[Error] when set.
type Result struct {
	Key      string
	Artifact Artifact
	Err      error
}

// Options are the pipeline settings fixed at construction.
type Options struct {
	// Preamble is prepended to requests with UsePreamble.
	Preamble string

	// Timeout bounds each engine attempt; zero means no limit.
	Timeout time.Duration

	// Retries is how many times a timed out block is attempted again.
	Retries int

	// Workers bounds concurrent engine invocations; zero means one per CPU.
	Workers int

	// FailFast stops the batch at the first failing block.
	FailFast bool
}

// Pipeline compiles batches of requests through an [Engine].
type Pipeline struct {
	engine Engine
	opts   Options
	cache  *Cache
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for per-block diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithCache shares cache between pipelines or backs it with a [Store].
func WithCache(cache *Cache) Option {
	return func(p *Pipeline) {
		p.cache = cache
	}
}

// New creates a Pipeline. Without [WithCache] it uses a private in-memory
// cache.
func New(engine Engine, opts Options, options ...Option) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	if opts.Retries < 0 {
		opts.Retries = 0
	}

	p := &Pipeline{engine: engine, opts: opts}

	for _, opt := range options {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	if p.cache == nil {
		p.cache = NewCache(nil, p.logger)
	}

	return p
}

// Source assembles the document submitted to the engine for req.
func (p *Pipeline) Source(req Request) []byte {
	if !req.UsePreamble || len(p.opts.Preamble) == 0 {
		return req.Source
	}

	source := make([]byte, 0, len(p.opts.Preamble)+1+len(req.Source))
	source = append(source, p.opts.Preamble...)

	if source[len(source)-1] != '\n' {
		source = append(source, '\n')
	}

	return append(source, req.Source...)
}

// Key returns the cache key of req for an engine version. It covers the
// preamble and the engine settings, so changing either yields new keys.
func (p *Pipeline) Key(version string, req Request) string {
	return key(version, p.settings(), req.UsePreamble, p.Source(req))
}

func (p *Pipeline) settings() string {
	if s, ok := p.engine.(Settings); ok {
		return s.Settings()
	}

	return ""
}

// Render compiles reqs concurrently and returns one Result per request, in
// request order. Block failures are reported in the results; the returned
// error is set only when the engine version cannot be determined, the
// context ends, or, with FailFast, for the first failing block.
func (p *Pipeline) Render(ctx context.Context, reqs []Request) ([]Result, error) {
	results := make([]Result, len(reqs))
	if len(reqs) == 0 {
		return results, nil
	}

	version, err := p.engine.Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine version: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	for i := range reqs {
		i := i

		g.Go(func() error {
			results[i] = p.renderOne(gctx, version, reqs[i])

			if results[i].Err != nil && p.opts.FailFast {
				return results[i].Err
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	return results, ctx.Err()
}

func (p *Pipeline) renderOne(ctx context.Context, version string, req Request) Result {
	source := p.Source(req)
	k := key(version, p.settings(), req.UsePreamble, source)

	artifact, err := p.cache.Do(k, func() (Artifact, error) {
		return p.compile(ctx, k, source)
	})

	return Result{Key: k, Artifact: artifact, Err: err}
}

func (p *Pipeline) compile(ctx context.Context, key string, source []byte) (Artifact, error) {
	for attempt := 0; ; attempt++ {
		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if p.opts.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		}

		start := time.Now()
		artifact, err := p.engine.Compile(attemptCtx, source)
		timedOut := ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded)

		cancel()

		if err == nil {
			p.logger.Debug("block compiled", "key", key[:12], "pages", len(artifact.Pages), "elapsed", time.Since(start))

			return artifact, nil
		}

		if !timedOut {
			return Artifact{}, &Error{Diagnostic: err.Error(), Err: ErrRenderFailure}
		}

		if attempt >= p.opts.Retries {
			return Artifact{}, &Error{
				Diagnostic: fmt.Sprintf("no result after %s (%d attempts)", p.opts.Timeout, attempt+1),
				Err:        ErrEngineTimeout,
			}
		}

		p.logger.Warn("engine timed out, retrying", "key", key[:12], "attempt", attempt+1, "timeout", p.opts.Timeout)
	}
}
