package preprocess

import (
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/ezerfernandes/typfence/internal/render"
)

const (
	assetDirMode  = 0o755
	assetFileMode = 0o644
)

// DirPublisher writes artifact pages as <dir>/<key>-<n>.<format> into a file
// system rooted at the output document's directory, and links them by that
// relative path. Pages already present are not rewritten.
type DirPublisher struct {
	fsys render.FS
	dir  string
}

func NewDirPublisher(fsys render.FS, dir string) *DirPublisher {
	return &DirPublisher{fsys: fsys, dir: dir}
}

func (p *DirPublisher) Publish(key string, artifact render.Artifact) ([]string, error) {
	if err := p.fsys.MkdirAll(p.dir, assetDirMode); err != nil {
		return nil, err
	}

	links := make([]string, 0, len(artifact.Pages))

	for i, page := range artifact.Pages {
		name := path.Join(p.dir, fmt.Sprintf("%s-%d.%s", key, i+1, artifact.Format))

		_, err := fs.Stat(p.fsys, name)

		switch {
		case err == nil:
		case errors.Is(err, fs.ErrNotExist):
			if err := p.fsys.WriteFile(name, page, assetFileMode); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}

		links = append(links, name)
	}

	return links, nil
}
