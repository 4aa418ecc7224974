// Package filesystem serves module bytes from a directory or any fs.FS.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/reglet-dev/hotload/internal/application/ports"
)

// Ensure interface compliance
var _ ports.WatchableSource = (*Source)(nil)

// Source implements ports.ByteSource over an fs.FS.
type Source struct {
	fsys fs.FS
	root string
}

// NewDirSource serves files below dir.
func NewDirSource(dir string) (*Source, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve module directory %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat module directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("module path %s is not a directory", abs)
	}
	return &Source{fsys: os.DirFS(abs), root: abs}, nil
}

// NewFSSource serves files from fsys, for example an embed.FS.
// Such a source has no roots to watch.
func NewFSSource(fsys fs.FS) *Source {
	return &Source{fsys: fsys}
}

// Open implements ports.ByteSource.
func (s *Source) Open(_ context.Context, path string) (io.ReadCloser, error) {
	if !fs.ValidPath(path) {
		return nil, fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
	}
	f, err := s.fsys.Open(path)
	if err != nil {
		// com/app is a file, so com/app/Widget.wasm cannot exist.
		if errors.Is(err, syscall.ENOTDIR) {
			return nil, fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
		}
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
	}
	return f, nil
}

// Roots returns the directory backing the source, if any.
func (s *Source) Roots() []string {
	if s.root == "" {
		return nil
	}
	return []string{s.root}
}
