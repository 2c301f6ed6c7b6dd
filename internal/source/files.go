// Package source finds the documents of a batch on disk and fetches remote assets into place.
package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"semclass/internal/domain"
)

// CollectOptions filters the files returned by Collect. Extensions are compared without
// the leading dot and case-insensitively. A non-empty Include list takes precedence over
// Exclude.
type CollectOptions struct {
	Recursive bool
	Include   []string
	Exclude   []string
}

// File is one document found on disk.
type File struct {
	Path string // as discovered, relative to the directory argument when that was relative
	Name string
	Stem string
}

// Collect lists the regular files under dir in lexical walk order.
func Collect(dir string, opts CollectOptions) ([]File, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDirectoryNotFound, dir)
		}
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrDirectoryNotFound, dir)
	}

	include := normalizeExtensions(opts.Include)
	exclude := normalizeExtensions(opts.Exclude)

	var files []File
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !isRegular(path, d) {
			return nil
		}
		if !keep(extensionOf(path), include, exclude) {
			return nil
		}

		name := d.Name()
		files = append(files, File{
			Path: path,
			Name: name,
			Stem: strings.TrimSuffix(name, filepath.Ext(name)),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	return files, nil
}

// isRegular follows symlinks, so a link to a regular file counts as one.
func isRegular(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func extensionOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

func keep(ext string, include, exclude map[string]bool) bool {
	if len(include) > 0 {
		return include[ext]
	}
	return !exclude[ext]
}

func normalizeExtensions(exts []string) map[string]bool {
	out := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			out[e] = true
		}
	}
	return out
}
