package preprocess

import (
	"testing"

	"github.com/ezerfernandes/typfence/internal/render"
	"github.com/liamg/memoryfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirPublisher(t *testing.T) {
	t.Parallel()

	fsys := memoryfs.New()
	pub := NewDirPublisher(fsys, "assets/typst-img")

	artifact := render.Artifact{Format: "png", Pages: [][]byte{[]byte("p1"), []byte("p2")}}

	links, err := pub.Publish("abc123", artifact)
	require.NoError(t, err)
	assert.Equal(t, []string{"assets/typst-img/abc123-1.png", "assets/typst-img/abc123-2.png"}, links)

	data, err := fsys.ReadFile("assets/typst-img/abc123-2.png")
	require.NoError(t, err)
	assert.Equal(t, "p2", string(data))
}

func TestDirPublisherKeepsExistingPages(t *testing.T) {
	t.Parallel()

	fsys := memoryfs.New()
	require.NoError(t, fsys.MkdirAll("img", assetDirMode))
	require.NoError(t, fsys.WriteFile("img/k-1.svg", []byte("original"), assetFileMode))

	pub := NewDirPublisher(fsys, "img")

	links, err := pub.Publish("k", render.Artifact{Format: "svg", Pages: [][]byte{[]byte("new")}})
	require.NoError(t, err)
	assert.Equal(t, []string{"img/k-1.svg"}, links)

	data, err := fsys.ReadFile("img/k-1.svg")
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestDirPublisherOnDisk(t *testing.T) {
	t.Parallel()

	dir := render.DirFS(t.TempDir())
	pub := NewDirPublisher(dir, "typst-img")

	links, err := pub.Publish("ff00", render.Artifact{Format: "svg", Pages: [][]byte{[]byte("<svg/>")}})
	require.NoError(t, err)
	require.Len(t, links, 1)

	f, err := dir.Open(links[0])
	require.NoError(t, err)
	require.NoError(t, f.Close())
}
