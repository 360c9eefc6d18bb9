package mdcode

import "bytes"

// Block is a fenced code block handed to a [Walker].
//
// The walker may rewrite Code, which keeps the original fence lines around the
// new body, or set Replace, which substitutes the whole fence.
type Block struct {
	Index     int
	Directive Directive
	Fence     *Fence
	Code      []byte
	Replace   []byte
	StartLine int
	EndLine   int

	// Adjacent is set when a non-blank line directly follows the closing
	// fence.
	Adjacent bool

	seg int
}

type Blocks []*Block

func (b *Block) modified() bool {
	return b.Replace != nil || !bytes.Equal(b.Code, b.Fence.Body)
}

// bytes returns the text that takes the place of the fence in the output.
func (b *Block) bytes() []byte {
	if b.Replace != nil {
		return b.Replace
	}

	return b.Fenced(b.Code)
}

// Fenced wraps code in the block's original opening and closing fence lines.
func (b *Block) Fenced(code []byte) []byte {
	if len(code) > 0 && code[len(code)-1] != '\n' {
		code = append(bytes.Clone(code), '\n')
	}

	res := make([]byte, 0, len(b.Fence.Open)+len(code)+len(b.Fence.Close))
	res = append(res, b.Fence.Open...)
	res = append(res, code...)

	return append(res, b.Fence.Close...)
}

// Retagged is the block with its info string replaced by info. The body and
// closing fence are kept.
func (b *Block) Retagged(info string) []byte {
	open := b.Fence.Open
	start := bytes.IndexByte(open, b.Fence.Delim)
	eol := open[len(bytes.TrimRight(open, "\r\n")):]

	res := make([]byte, 0, len(open)+len(info)+len(b.Code)+len(b.Fence.Close))
	res = append(res, open[:start+b.Fence.Len]...)
	res = append(res, info...)
	res = append(res, eol...)

	return append(res, b.Fenced(b.Code)[len(open):]...)
}
