package mdcode

import (
	"errors"
	"fmt"
)

var (
	// ErrUnterminatedFence is reported when a fence has no closing line
	// before the end of the document.
	ErrUnterminatedFence = errors.New("unterminated code fence")

	// ErrInvalidDirective is reported for malformed info strings on fences
	// carrying a recognized tag.
	ErrInvalidDirective = errors.New("invalid fence directive")
)

// SyntaxError locates a structural problem in a markdown document.
type SyntaxError struct {
	Line int
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}
