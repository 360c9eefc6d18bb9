package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gobwas/glob"
)

const markdownPattern = "**/*.{md,markdown}"

// input is a markdown file to process; rel is its path below the root it was
// found in, and names the output below --out-dir.
type input struct {
	path string
	rel  string
}

type filterFunc func(rel string) bool

// filter compiles exclude patterns into a function that accepts paths none
// of them match.
func filter(exclude []string) (filterFunc, error) {
	globs := make([]glob.Glob, 0, len(exclude))

	for _, pattern := range exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("exclude %q: %w", pattern, err)
		}

		globs = append(globs, g)
	}

	return func(rel string) bool {
		for _, g := range globs {
			if g.Match(rel) {
				return false
			}
		}

		return true
	}, nil
}

// walk expands the command line paths into markdown inputs. Files are taken
// as given; directories are searched recursively.
func walk(paths []string, accept filterFunc) ([]input, error) {
	var inputs []input

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			inputs = append(inputs, input{path: root, rel: filepath.Base(root)})

			continue
		}

		err = doublestar.GlobWalk(os.DirFS(root), markdownPattern, func(rel string, d fs.DirEntry) error {
			if d.IsDir() || !accept(rel) {
				return nil
			}

			inputs = append(inputs, input{path: filepath.Join(root, filepath.FromSlash(rel)), rel: rel})

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return inputs, nil
}

func isMarkdown(name string) bool {
	ok, _ := doublestar.Match("*.{md,markdown}", filepath.Base(name))

	return ok
}
