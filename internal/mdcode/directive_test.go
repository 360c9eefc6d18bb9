package mdcode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirective(t *testing.T) {
	t.Parallel()

	tests := []struct {
		info   string
		want   Directive
		action Action
	}{
		{"typ", Directive{Tag: "typ", Attrs: Meta{}}, RenderWithPreamble},
		{"typ-norender", Directive{Tag: "typ-norender", Attrs: Meta{}}, Literal},
		{"typ-nopreamble", Directive{Tag: "typ-nopreamble", Attrs: Meta{}}, RenderBare},
		{"typ,hidelines=^^^", Directive{Tag: "typ", Attrs: Meta{"hidelines": "^^^"}}, RenderWithPreamble},
		{"typ-norender, hidelines=//", Directive{Tag: "typ-norender", Attrs: Meta{"hidelines": "//"}}, Literal},
		{"typ,hidelines=", Directive{Tag: "typ", Attrs: Meta{"hidelines": ""}}, RenderWithPreamble},
		{"  typ  ", Directive{Tag: "typ", Attrs: Meta{}}, RenderWithPreamble},
		{"", Directive{Tag: "", Attrs: Meta{}}, Passthrough},
		{"rust,ignore", Directive{Tag: "rust", Attrs: Meta{}}, Passthrough},
		{"typst", Directive{Tag: "typst", Attrs: Meta{}}, Passthrough},
		{"go {title=main.go}", Directive{Tag: "go", Attrs: Meta{}}, Passthrough},
	}

	for _, tt := range tests {
		got, err := ParseDirective(tt.info)
		require.NoError(t, err, tt.info)
		assert.Equal(t, tt.want, got, tt.info)
		assert.Equal(t, tt.action, got.Action(), tt.info)
	}
}

func TestParseDirectiveInvalid(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"typ,hidelines",
		"typ,=x",
		"typ,",
		"typ,,hidelines=x",
		"typ,color=red",
		"typ,hidelines=a,hidelines=b",
		"typ extra",
		"typ-nopreamble hidelines=x",
	}

	for _, info := range inputs {
		_, err := ParseDirective(info)
		require.Error(t, err, info)
		assert.True(t, errors.Is(err, ErrInvalidDirective), info)
	}
}

func TestParseReportsDirectiveLine(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("a\nb\n```typ,hidelines\nx\n```\n"))
	require.Error(t, err)

	var syntaxErr *SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, 3, syntaxErr.Line)
	assert.True(t, errors.Is(err, ErrInvalidDirective))
}

func TestDirectiveHideLines(t *testing.T) {
	t.Parallel()

	d, err := ParseDirective("typ,hidelines=^^^")
	require.NoError(t, err)
	assert.Equal(t, "^^^", d.HideLines("% "))

	d, err = ParseDirective("typ")
	require.NoError(t, err)
	assert.Equal(t, "% ", d.HideLines("% "))

	d, err = ParseDirective("typ,hidelines=")
	require.NoError(t, err)
	assert.Equal(t, "", d.HideLines("% "))
}

func TestActionRenders(t *testing.T) {
	t.Parallel()

	assert.False(t, Passthrough.Renders())
	assert.False(t, Literal.Renders())
	assert.True(t, RenderWithPreamble.Renders())
	assert.True(t, RenderBare.Renders())
	assert.Equal(t, "render-bare", RenderBare.String())
}
