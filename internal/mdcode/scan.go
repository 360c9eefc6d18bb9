package mdcode

import "bytes"

const (
	minFenceLen    = 3
	maxFenceIndent = 3
)

// Fence is a fenced code block as found by [Scan]. Open, Body and Close are
// sub-slices of the scanned source; their concatenation is the raw fence.
type Fence struct {
	Info      string
	Delim     byte
	Len       int
	Indent    int
	Open      []byte
	Body      []byte
	Close     []byte
	StartLine int
	EndLine   int
}

// Segment is a contiguous piece of a document: plain text when Fence is nil,
// a fenced code block otherwise. Raw always holds the original bytes.
type Segment struct {
	Raw   []byte
	Fence *Fence
}

// Scan splits source into text and fence segments. Concatenating the Raw
// bytes of the returned segments reproduces source exactly.
//
// A fence opened by n backticks (or tildes) is only closed by a line holding
// at least n of the same character, so shorter fences nest as content.
func Scan(source []byte) ([]Segment, error) {
	var (
		segments  []Segment
		textStart int
		offset    int
		line      int
	)

	for offset < len(source) {
		line++

		end := lineEnd(source, offset)

		open, ok := parseOpener(source[offset:end])
		if !ok {
			offset = end

			continue
		}

		fence := &Fence{
			Info:      open.info,
			Delim:     open.delim,
			Len:       open.length,
			Indent:    open.indent,
			Open:      source[offset:end],
			StartLine: line,
		}

		bodyStart := end
		pos := end
		closed := false

		for pos < len(source) {
			line++

			next := lineEnd(source, pos)
			if isCloser(source[pos:next], open.delim, open.length) {
				fence.Body = source[bodyStart:pos]
				fence.Close = source[pos:next]
				fence.EndLine = line
				pos = next
				closed = true

				break
			}

			pos = next
		}

		if !closed {
			return nil, &SyntaxError{Line: fence.StartLine, Err: ErrUnterminatedFence}
		}

		if textStart < offset {
			segments = append(segments, Segment{Raw: source[textStart:offset]})
		}

		segments = append(segments, Segment{Raw: source[offset:pos], Fence: fence})
		offset = pos
		textStart = pos
	}

	if textStart < len(source) {
		segments = append(segments, Segment{Raw: source[textStart:]})
	}

	return segments, nil
}

type opener struct {
	delim  byte
	length int
	indent int
	info   string
}

func parseOpener(line []byte) (opener, bool) {
	indent := leadingSpaces(line)
	if indent > maxFenceIndent || indent == len(line) {
		return opener{}, false
	}

	delim := line[indent]
	if delim != '`' && delim != '~' {
		return opener{}, false
	}

	run := runLength(line[indent:], delim)
	if run < minFenceLen {
		return opener{}, false
	}

	info := bytes.TrimSpace(line[indent+run:])
	if delim == '`' && bytes.IndexByte(info, '`') >= 0 {
		return opener{}, false
	}

	return opener{delim: delim, length: run, indent: indent, info: string(info)}, true
}

func isCloser(line []byte, delim byte, length int) bool {
	indent := leadingSpaces(line)
	if indent > maxFenceIndent {
		return false
	}

	run := runLength(line[indent:], delim)
	if run < length {
		return false
	}

	return len(bytes.TrimSpace(line[indent+run:])) == 0
}

func lineEnd(source []byte, offset int) int {
	if idx := bytes.IndexByte(source[offset:], '\n'); idx >= 0 {
		return offset + idx + 1
	}

	return len(source)
}

func leadingSpaces(line []byte) int {
	n := 0
	for n < len(line) && line[n] == ' ' {
		n++
	}

	return n
}

func runLength(b []byte, c byte) int {
	n := 0
	for n < len(b) && b[n] == c {
		n++
	}

	return n
}
