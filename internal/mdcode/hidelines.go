package mdcode

import "bytes"

// HideLines splits a block body into the text handed to the engine and the
// text shown to readers.
//
// A line is hidden when, after its leading blanks, it starts with prefix.
// Hidden lines appear in compiled with the prefix and one following space
// removed, and are dropped from display. An empty prefix disables hiding.
func HideLines(body []byte, prefix string) (compiled, display []byte) {
	if len(prefix) == 0 {
		return bytes.Clone(body), bytes.Clone(body)
	}

	marker := []byte(prefix)
	compiled = make([]byte, 0, len(body))
	display = make([]byte, 0, len(body))

	for len(body) > 0 {
		line := body[:lineEnd(body, 0)]
		body = body[len(line):]

		trimmed := bytes.TrimLeft(line, " \t")
		if !bytes.HasPrefix(trimmed, marker) {
			compiled = append(compiled, line...)
			display = append(display, line...)

			continue
		}

		rest := trimmed[len(marker):]
		if len(rest) > 0 && rest[0] == ' ' {
			rest = rest[1:]
		}

		compiled = append(compiled, line[:len(line)-len(trimmed)]...)
		compiled = append(compiled, rest...)
	}

	return compiled, display
}
