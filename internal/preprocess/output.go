package preprocess

import (
	"errors"
	"fmt"
)

// Failure is a block that could not be rendered.
type Failure struct {
	// Line is the line of the block's opening fence.
	Line       int
	Tag        string
	Diagnostic string

	// Err is render.ErrRenderFailure or render.ErrEngineTimeout.
	Err error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("line %d: %v: %s", f.Line, f.Err, f.Diagnostic)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Output is a processed document together with the render failures it holds
// placeholders for.
type Output struct {
	Document []byte
	Failures []*Failure
}

// Err joins every failure, or returns nil when all blocks rendered.
func (o *Output) Err() error {
	errs := make([]error, 0, len(o.Failures))

	for _, f := range o.Failures {
		errs = append(errs, f)
	}

	return errors.Join(errs...)
}
