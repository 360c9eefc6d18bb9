// Package preprocess rewrites the fenced code blocks of a markdown document:
// typesetting blocks are compiled and replaced by image embeds, literal blocks
// lose their hidden lines, and everything else is left byte-for-byte intact.
package preprocess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ezerfernandes/typfence/internal/mdcode"
	"github.com/ezerfernandes/typfence/internal/render"
)

// Options are the per-run settings of a Preprocessor.
type Options struct {
	// HideLines is the default hidden-line prefix; empty disables hiding.
	HideLines string

	// FailFast aborts the document at the first render failure instead of
	// leaving a placeholder.
	FailFast bool

	// WarnUntagged logs fences without a language tag.
	WarnUntagged bool

	// SkipRender treats every typesetting block as typ-norender: hidden lines
	// are removed and the engine is never called.
	SkipRender bool
}

// Renderer compiles a batch of requests, returning one result per request in
// order. *render.Pipeline implements it.
type Renderer interface {
	Render(ctx context.Context, reqs []render.Request) ([]render.Result, error)
}

// Publisher makes an artifact reachable from the output document and returns
// one link per page.
type Publisher interface {
	Publish(key string, artifact render.Artifact) ([]string, error)
}

// Preprocessor transforms markdown documents. It is safe for concurrent use
// when its Renderer and Publisher are.
type Preprocessor struct {
	opts      Options
	renderer  Renderer
	publisher Publisher
	logger    *slog.Logger
}

// Option configures a Preprocessor.
type Option func(*Preprocessor)

// WithLogger sets the logger used for warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Preprocessor) {
		p.logger = logger
	}
}

// New creates a Preprocessor.
func New(opts Options, renderer Renderer, publisher Publisher, options ...Option) *Preprocessor {
	p := &Preprocessor{opts: opts, renderer: renderer, publisher: publisher}

	for _, opt := range options {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

type pending struct {
	block   *mdcode.Block
	display []byte
}

// Process transforms one document. Structural problems (an unterminated fence
// or a malformed directive) are returned as an error and produce no output.
// Render failures are collected in the Output unless FailFast is set, in which
// case the first one is returned as a *Failure.
func (p *Preprocessor) Process(ctx context.Context, source []byte) (*Output, error) {
	doc, err := mdcode.Parse(source)
	if err != nil {
		return nil, err
	}

	var (
		reqs []render.Request
		jobs []pending
	)

	err = doc.Walk(func(block *mdcode.Block) error {
		action := block.Directive.Action()
		if p.opts.SkipRender && action != mdcode.Passthrough {
			action = mdcode.Literal
		}

		switch action {
		case mdcode.Passthrough:
			if p.opts.WarnUntagged && len(block.Directive.Tag) == 0 {
				p.logger.Warn("fence without language tag", "line", block.StartLine)
			}
		case mdcode.Literal:
			_, display := mdcode.HideLines(block.Code, block.Directive.HideLines(p.opts.HideLines))
			block.Code = display
		case mdcode.RenderWithPreamble, mdcode.RenderBare:
			compiled, display := mdcode.HideLines(block.Code, block.Directive.HideLines(p.opts.HideLines))

			reqs = append(reqs, render.Request{
				Source:      compiled,
				UsePreamble: action == mdcode.RenderWithPreamble,
			})
			jobs = append(jobs, pending{block: block, display: display})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	out := &Output{}

	results, err := p.renderer.Render(ctx, reqs)
	if err != nil {
		if failure := p.blockFailure(err, jobs, results); failure != nil {
			return nil, failure
		}

		return nil, fmt.Errorf("render: %w", err)
	}

	for i, job := range jobs {
		res := results[i]

		if res.Err != nil {
			failure := newFailure(job.block, res.Err)
			if p.opts.FailFast {
				return nil, failure
			}

			out.Failures = append(out.Failures, failure)
			job.block.Replace = placeholder(job.block, job.display, failure)

			continue
		}

		links, err := p.publisher.Publish(res.Key, res.Artifact)
		if err != nil {
			return nil, fmt.Errorf("publish block at line %d: %w", job.block.StartLine, err)
		}

		job.block.Replace = embed(job.block, links)
	}

	out.Document = doc.Bytes()

	return out, nil
}

// blockFailure maps an error the renderer aborted with back to the block that
// caused it.
func (p *Preprocessor) blockFailure(err error, jobs []pending, results []render.Result) *Failure {
	var renderErr *render.Error
	if !errors.As(err, &renderErr) {
		return nil
	}

	for i := range results {
		if results[i].Err == err {
			return newFailure(jobs[i].block, err)
		}
	}

	return &Failure{Diagnostic: renderErr.Diagnostic, Err: renderErr.Err}
}

func newFailure(block *mdcode.Block, err error) *Failure {
	failure := &Failure{Line: block.StartLine, Tag: block.Directive.Tag, Err: err}

	var renderErr *render.Error
	if errors.As(err, &renderErr) {
		failure.Diagnostic = renderErr.Diagnostic
		failure.Err = renderErr.Err
	}

	if len(failure.Diagnostic) == 0 {
		failure.Diagnostic = strings.TrimSpace(err.Error())
	}

	return failure
}
