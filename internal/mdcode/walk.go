package mdcode

import "bytes"

// Walker is a callback invoked for each fenced code block found in a Markdown
// document. The walker may modify block.Code or set block.Replace; any changes
// are written back into the document by [Walk].
type Walker func(block *Block) error

// Document is a scanned Markdown document together with its fenced blocks.
type Document struct {
	segments []Segment
	blocks   Blocks
}

// Parse scans source and parses the directive of every fence. Structural
// problems are reported as *[SyntaxError].
func Parse(source []byte) (*Document, error) {
	segments, err := Scan(source)
	if err != nil {
		return nil, err
	}

	doc := &Document{segments: segments}

	for i, seg := range segments {
		if seg.Fence == nil {
			continue
		}

		directive, err := ParseDirective(seg.Fence.Info)
		if err != nil {
			return nil, &SyntaxError{Line: seg.Fence.StartLine, Err: err}
		}

		doc.blocks = append(doc.blocks, &Block{
			Index:     len(doc.blocks),
			Directive: directive,
			Fence:     seg.Fence,
			Code:      bytes.Clone(seg.Fence.Body),
			StartLine: seg.Fence.StartLine,
			EndLine:   seg.Fence.EndLine,
			Adjacent:  i+1 < len(segments) && !blankLine(segments[i+1].Raw),
			seg:       i,
		})
	}

	return doc, nil
}

// blankLine reports whether the first line of text holds only whitespace.
func blankLine(text []byte) bool {
	if idx := bytes.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}

	return len(bytes.TrimSpace(text)) == 0
}

// Blocks returns the fenced blocks in document order.
func (d *Document) Blocks() Blocks {
	return d.blocks
}

// Modified reports whether any block was changed since Parse.
func (d *Document) Modified() bool {
	return len(d.changes()) != 0
}

// Bytes renders the document with every block change applied.
func (d *Document) Bytes() []byte {
	return applyChanges(d.changes(), d.segments)
}

type change struct {
	seg   int
	block *Block
}

func (c *change) sizeIncrement(segments []Segment) int {
	return len(c.block.bytes()) - len(segments[c.seg].Raw)
}

func (d *Document) changes() []*change {
	var changes []*change

	for _, block := range d.blocks {
		if block.modified() {
			changes = append(changes, &change{seg: block.seg, block: block})
		}
	}

	return changes
}

// Walk calls walker for every block in document order and stops at the first
// error. Changes made by walker show up in [Document.Bytes].
func (d *Document) Walk(walker Walker) error {
	for _, block := range d.blocks {
		if err := walker(block); err != nil {
			return err
		}
	}

	return nil
}

// Walk parses a Markdown document and calls walker for every fenced code block.
// If the walker modifies any block, Walk returns true and the updated
// document. When no blocks are modified, it returns false and a nil slice.
func Walk(source []byte, walker Walker) (bool, []byte, error) {
	doc, err := Parse(source)
	if err != nil {
		return false, nil, err
	}

	if err := doc.Walk(walker); err != nil {
		return false, nil, err
	}

	if !doc.Modified() {
		return false, nil, nil
	}

	return true, doc.Bytes(), nil
}

func applyChanges(changes []*change, segments []Segment) []byte {
	resSize := 0

	for _, seg := range segments {
		resSize += len(seg.Raw)
	}

	for _, change := range changes {
		resSize += change.sizeIncrement(segments)
	}

	result := make([]byte, 0, resSize)
	next := 0

	for i, seg := range segments {
		if next < len(changes) && changes[next].seg == i {
			result = append(result, changes[next].block.bytes()...)
			next++

			continue
		}

		result = append(result, seg.Raw...)
	}

	return result
}
