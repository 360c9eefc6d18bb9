package render

import (
	"context"
	"io/fs"
	"testing"

	"github.com/liamg/memoryfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveLoad(t *testing.T) {
	t.Parallel()

	store := NewStore(memoryfs.New())
	key := key("0.11", "", false, []byte("= Title"))

	_, ok, err := store.Load(key)
	require.NoError(t, err)
	assert.False(t, ok)

	artifact := Artifact{Format: "svg", Pages: [][]byte{[]byte("<svg>1</svg>"), []byte("<svg>2</svg>")}}
	require.NoError(t, store.Save(key, artifact))

	loaded, ok, err := store.Load(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, artifact, loaded)
}

func TestStoreIgnoresIncompleteEntries(t *testing.T) {
	t.Parallel()

	fsys := memoryfs.New()
	store := NewStore(fsys)
	key := key("", "", false, []byte("x"))

	require.NoError(t, fsys.MkdirAll(store.dir(key), dirMode))
	require.NoError(t, fsys.WriteFile(store.dir(key)+"/1.svg", []byte("<svg/>"), fileMode))

	_, ok, err := store.Load(key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDirFS(t *testing.T) {
	t.Parallel()

	dir := DirFS(t.TempDir())

	require.NoError(t, dir.MkdirAll("a/b", dirMode))
	require.NoError(t, dir.WriteFile("a/b/c.txt", []byte("hello"), fileMode))

	data, err := fs.ReadFile(dir, "a/b/c.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestCacheUsesStoreAcrossRuns(t *testing.T) {
	t.Parallel()

	store := NewStore(memoryfs.New())
	req := Request{Source: []byte("= Cached"), UsePreamble: true}

	first := &fakeEngine{version: "0.11"}
	_, err := New(first, Options{}, WithCache(NewCache(store, nil))).Render(context.Background(), []Request{req})
	require.NoError(t, err)
	assert.Equal(t, int32(1), first.calls.Load())

	second := &fakeEngine{version: "0.11"}
	results, err := New(second, Options{}, WithCache(NewCache(store, nil))).Render(context.Background(), []Request{req})
	require.NoError(t, err)
	require.NoError(t, results[0].Err)
	assert.Equal(t, int32(0), second.calls.Load())

	upgraded := &fakeEngine{version: "0.12"}
	_, err = New(upgraded, Options{}, WithCache(NewCache(store, nil))).Render(context.Background(), []Request{req})
	require.NoError(t, err)
	assert.Equal(t, int32(1), upgraded.calls.Load())
}
