package mdcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHideLines(t *testing.T) {
	t.Parallel()

	compiled, display := HideLines([]byte("% #let x = 10;\nThe hidden $x$ value is #x."), "% ")

	assert.Equal(t, "#let x = 10;\nThe hidden $x$ value is #x.", string(compiled))
	assert.Equal(t, "The hidden $x$ value is #x.", string(display))
}

func TestHideLinesCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		prefix   string
		compiled string
		display  string
	}{
		{
			name:     "disabled",
			body:     "% a\nb\n",
			prefix:   "",
			compiled: "% a\nb\n",
			display:  "% a\nb\n",
		},
		{
			name:     "custom prefix strips one space",
			body:     "^^^ #let f(x) = x\n#f(1)\n",
			prefix:   "^^^",
			compiled: "#let f(x) = x\n#f(1)\n",
			display:  "#f(1)\n",
		},
		{
			name:     "only one space removed",
			body:     "^^^  two\n",
			prefix:   "^^^",
			compiled: " two\n",
			display:  "",
		},
		{
			name:     "indented hidden line keeps indent in compiled text",
			body:     "#let f() = {\n  % let y = 1\n  y\n}\n",
			prefix:   "% ",
			compiled: "#let f() = {\n  let y = 1\n  y\n}\n",
			display:  "#let f() = {\n  y\n}\n",
		},
		{
			name:     "prefix in middle of line is not a marker",
			body:     "a % b\n",
			prefix:   "%",
			compiled: "a % b\n",
			display:  "a % b\n",
		},
		{
			name:     "comment syntax is treated as text",
			body:     "// setup\n// visible\n",
			prefix:   "//",
			compiled: "setup\nvisible\n",
			display:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compiled, display := HideLines([]byte(tt.body), tt.prefix)
			assert.Equal(t, tt.compiled, string(compiled))
			assert.Equal(t, tt.display, string(display))
		})
	}
}

func TestHideLinesIdempotentDisplay(t *testing.T) {
	t.Parallel()

	_, display := HideLines([]byte("% hidden\nshown\n  % also hidden\n"), "% ")
	_, again := HideLines(display, "% ")

	assert.Equal(t, string(display), string(again))
}
