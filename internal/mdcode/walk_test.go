package mdcode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const walkDoc = "# Doc\n\n```typ\na\n```\n\ntext\n\n```go\nb\n```\n"

func TestWalkUnmodified(t *testing.T) {
	t.Parallel()

	var seen []string

	modified, result, err := Walk([]byte(walkDoc), func(block *Block) error {
		seen = append(seen, block.Directive.Tag)

		return nil
	})

	require.NoError(t, err)
	assert.False(t, modified)
	assert.Nil(t, result)
	assert.Equal(t, []string{"typ", "go"}, seen)
}

func TestWalkCode(t *testing.T) {
	t.Parallel()

	modified, result, err := Walk([]byte(walkDoc), func(block *Block) error {
		if block.Directive.Tag == "go" {
			block.Code = []byte("changed")
		}

		return nil
	})

	require.NoError(t, err)
	assert.True(t, modified)
	assert.Equal(t, "# Doc\n\n```typ\na\n```\n\ntext\n\n```go\nchanged\n```\n", string(result))
}

func TestWalkReplace(t *testing.T) {
	t.Parallel()

	modified, result, err := Walk([]byte(walkDoc), func(block *Block) error {
		if block.Index == 0 {
			block.Replace = []byte("<img>\n")
		}

		return nil
	})

	require.NoError(t, err)
	assert.True(t, modified)
	assert.Equal(t, "# Doc\n\n<img>\n\ntext\n\n```go\nb\n```\n", string(result))
}

func TestWalkError(t *testing.T) {
	t.Parallel()

	errStop := errors.New("stop")

	_, _, err := Walk([]byte(walkDoc), func(*Block) error { return errStop })
	assert.ErrorIs(t, err, errStop)
}

func TestUnfence(t *testing.T) {
	t.Parallel()

	blocks, err := Unfence([]byte(walkDoc))
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, 0, blocks[0].Index)
	assert.Equal(t, RenderWithPreamble, blocks[0].Directive.Action())
	assert.Equal(t, 3, blocks[0].StartLine)
	assert.Equal(t, 5, blocks[0].EndLine)
	assert.Equal(t, "b\n", string(blocks[1].Code))
}

func TestDocumentWalk(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(walkDoc))
	require.NoError(t, err)

	var lines []int

	require.NoError(t, doc.Walk(func(block *Block) error {
		lines = append(lines, block.StartLine)

		if block.Directive.Tag == "typ" {
			block.Replace = []byte("<img>\n")
		}

		return nil
	}))

	assert.Equal(t, []int{3, 9}, lines)
	assert.True(t, doc.Modified())
	assert.Equal(t, "# Doc\n\n<img>\n\ntext\n\n```go\nb\n```\n", string(doc.Bytes()))
}

func TestParseAdjacent(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte("```typ\na\n```\nafter\n\n```typ\nb\n```\n   \ntext\n```typ\nc\n```\n```go\nd\n```"))
	require.NoError(t, err)

	var adjacent []bool

	for _, block := range doc.Blocks() {
		adjacent = append(adjacent, block.Adjacent)
	}

	assert.Equal(t, []bool{true, false, true, false}, adjacent)
}

func TestBlockRetagged(t *testing.T) {
	t.Parallel()

	blocks, err := Unfence([]byte("  ````typ-norender,hidelines=%\r\n% hidden\nshown\n  ````\r\n"))
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	assert.Equal(t, "  ````typst\r\n% hidden\nshown\n  ````\r\n", string(blocks[0].Retagged("typst")))
}
