package render

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/renameio"
)

const dirMode = 0o755

// FS is a writable file system with slash separated paths.
type FS interface {
	fs.FS
	MkdirAll(path string, perm fs.FileMode) error
	WriteFile(path string, data []byte, perm fs.FileMode) error
}

// DirFS is an [FS] rooted at a directory on disk. Files are written
// atomically.
type DirFS string

func (d DirFS) path(name string) string {
	return filepath.Join(string(d), filepath.FromSlash(name))
}

func (d DirFS) Open(name string) (fs.File, error) {
	return os.DirFS(string(d)).Open(name)
}

func (d DirFS) MkdirAll(name string, perm fs.FileMode) error {
	return os.MkdirAll(d.path(name), perm)
}

func (d DirFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return renameio.WriteFile(d.path(name), data, perm)
}

// Store persists artifacts by cache key:
//
//	<key[:2]>/<key>/<n>.<format>  one file per page
//	<key[:2]>/<key>/manifest      "<format> <pages>", written last
type Store struct {
	fsys FS
}

func NewStore(fsys FS) *Store {
	return &Store{fsys: fsys}
}

const manifestName = "manifest"

func (s *Store) dir(key string) string {
	return path.Join(key[:2], key)
}

// Load returns the artifact stored under key. A missing or incomplete entry
// reports false without error.
func (s *Store) Load(key string) (Artifact, bool, error) {
	dir := s.dir(key)

	manifest, err := fs.ReadFile(s.fsys, path.Join(dir, manifestName))
	if errors.Is(err, fs.ErrNotExist) {
		return Artifact{}, false, nil
	}

	if err != nil {
		return Artifact{}, false, err
	}

	fields := strings.Fields(string(manifest))
	if len(fields) != 2 {
		return Artifact{}, false, fmt.Errorf("corrupt cache manifest for %s", key)
	}

	count, err := strconv.Atoi(fields[1])
	if err != nil {
		return Artifact{}, false, fmt.Errorf("corrupt cache manifest for %s: %w", key, err)
	}

	artifact := Artifact{Format: fields[0], Pages: make([][]byte, 0, count)}

	for n := 1; n <= count; n++ {
		data, err := fs.ReadFile(s.fsys, path.Join(dir, pageName(n, artifact.Format)))
		if errors.Is(err, fs.ErrNotExist) {
			return Artifact{}, false, nil
		}

		if err != nil {
			return Artifact{}, false, err
		}

		artifact.Pages = append(artifact.Pages, data)
	}

	return artifact, true, nil
}

// Save stores artifact under key.
func (s *Store) Save(key string, artifact Artifact) error {
	dir := s.dir(key)

	if err := s.fsys.MkdirAll(dir, dirMode); err != nil {
		return err
	}

	for i, page := range artifact.Pages {
		if err := s.fsys.WriteFile(path.Join(dir, pageName(i+1, artifact.Format)), page, fileMode); err != nil {
			return err
		}
	}

	manifest := fmt.Sprintf("%s %d\n", artifact.Format, len(artifact.Pages))

	return s.fsys.WriteFile(path.Join(dir, manifestName), []byte(manifest), fileMode)
}

func pageName(n int, format string) string {
	return strconv.Itoa(n) + "." + format
}
