package mdcode

import (
	"fmt"
	"strings"
)

// Meta holds key-value attributes parsed from a fenced code block's info string.
type Meta map[string]string

// Lookup returns the attribute value for name and reports whether it was
// present. It is safe to call on a nil Meta.
func (m Meta) Lookup(name string) (string, bool) {
	if m == nil {
		return "", false
	}

	value, has := m[name]

	return value, has
}

// AttrHideLines overrides the hidden-line prefix for a single block.
const AttrHideLines = "hidelines"

var knownAttrs = map[string]bool{
	AttrHideLines: true,
}

// parseMeta parses the comma separated key=value list that follows a tag.
// input starts right after the tag, with its leading comma.
func parseMeta(input string) (Meta, error) {
	meta := make(Meta)

	if len(strings.TrimSpace(input)) == 0 {
		return meta, nil
	}

	if input[0] != ',' {
		return nil, fmt.Errorf("%w: unexpected %q after tag", ErrInvalidDirective, strings.TrimSpace(input))
	}

	for _, word := range strings.Split(input[1:], ",") {
		word = strings.TrimLeft(word, " \t")
		if len(strings.TrimSpace(word)) == 0 {
			return nil, fmt.Errorf("%w: empty attribute", ErrInvalidDirective)
		}

		idx := strings.IndexRune(word, '=')
		if idx < 0 {
			return nil, fmt.Errorf("%w: attribute %q has no value", ErrInvalidDirective, word)
		}

		key := strings.TrimSpace(word[:idx])

		switch {
		case len(key) == 0:
			return nil, fmt.Errorf("%w: attribute %q has no key", ErrInvalidDirective, word)
		case !knownAttrs[key]:
			return nil, fmt.Errorf("%w: unknown attribute %q", ErrInvalidDirective, key)
		}

		if _, dup := meta[key]; dup {
			return nil, fmt.Errorf("%w: duplicate attribute %q", ErrInvalidDirective, key)
		}

		meta[key] = word[idx+1:]
	}

	return meta, nil
}
