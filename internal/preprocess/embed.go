package preprocess

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/ezerfernandes/typfence/internal/mdcode"
)

const (
	embedClass = "typst-render"
	embedAlt   = "Rendered image"
)

// embed is the HTML block that replaces a rendered fence. It holds no blank
// lines so markdown treats it as a single raw HTML block. That block only ends
// at a blank line, so one is added when text directly follows the fence.
func embed(block *mdcode.Block, links []string) []byte {
	indent := strings.Repeat(" ", block.Fence.Indent)

	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s<div class=%q>\n", indent, embedClass)

	for _, link := range links {
		fmt.Fprintf(&buf, "%s<img src=\"%s\" alt=%q>\n", indent, html.EscapeString(link), embedAlt)
	}

	fmt.Fprintf(&buf, "%s</div>", indent)

	if bytes.HasSuffix(block.Fence.Close, []byte("\n")) {
		buf.WriteByte('\n')

		if block.Adjacent {
			buf.WriteByte('\n')
		}
	}

	return buf.Bytes()
}

// placeholder keeps a failed block readable: a comment carrying the
// diagnostic, then the block as literal code without its hidden lines.
func placeholder(block *mdcode.Block, display []byte, failure *Failure) []byte {
	indent := strings.Repeat(" ", block.Fence.Indent)
	msg := strings.ReplaceAll(failure.Error(), "--", "- -")

	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s<!-- typfence: %s -->\n", indent, msg)
	buf.Write(block.Fenced(display))

	return buf.Bytes()
}
