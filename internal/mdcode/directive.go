package mdcode

import "strings"

// Tags recognized on fenced code blocks.
const (
	TagRender     = "typ"
	TagNoRender   = "typ-norender"
	TagNoPreamble = "typ-nopreamble"
)

// Action is what the preprocessor does with a fenced code block.
type Action int

const (
	// Passthrough leaves the fence untouched.
	Passthrough Action = iota
	// Literal keeps the fence as code, with hidden lines removed.
	Literal
	// RenderWithPreamble compiles the block after the default preamble.
	RenderWithPreamble
	// RenderBare compiles the block as a complete document.
	RenderBare
)

func (a Action) String() string {
	switch a {
	case Passthrough:
		return "passthrough"
	case Literal:
		return "literal"
	case RenderWithPreamble:
		return "render"
	case RenderBare:
		return "render-bare"
	}

	return "unknown"
}

// Renders reports whether the action needs the typesetting engine.
func (a Action) Renders() bool {
	return a == RenderWithPreamble || a == RenderBare
}

// Directive is the parsed info string of a fence.
type Directive struct {
	Tag   string
	Attrs Meta
}

// Action maps the directive's tag to the behavior it selects.
func (d Directive) Action() Action {
	return tagAction(d.Tag)
}

// HideLines returns the hidden-line prefix in effect for the block: the
// block's own attribute when present, fallback otherwise.
func (d Directive) HideLines(fallback string) string {
	if prefix, ok := d.Attrs.Lookup(AttrHideLines); ok {
		return prefix
	}

	return fallback
}

func tagAction(tag string) Action {
	switch tag {
	case TagRender:
		return RenderWithPreamble
	case TagNoRender:
		return Literal
	case TagNoPreamble:
		return RenderBare
	default:
		return Passthrough
	}
}

// ParseDirective parses an info string of the form "tag" or
// "tag,key=value,...". Attributes are only interpreted for recognized tags;
// any other info string yields a Passthrough directive without attributes.
func ParseDirective(info string) (Directive, error) {
	info = strings.TrimSpace(info)

	end := strings.IndexAny(info, ", \t")
	if end < 0 {
		end = len(info)
	}

	directive := Directive{Tag: info[:end], Attrs: Meta{}}

	if directive.Action() == Passthrough {
		return directive, nil
	}

	attrs, err := parseMeta(strings.TrimLeft(info[end:], " \t"))
	if err != nil {
		return Directive{}, err
	}

	directive.Attrs = attrs

	return directive, nil
}
