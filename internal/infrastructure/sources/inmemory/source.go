// Package inmemory provides a mutable, map-backed byte source.
package inmemory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"sync"

	"github.com/reglet-dev/hotload/internal/application/ports"
)

// Ensure interface compliance
var _ ports.ByteSource = (*Source)(nil)

// Source keeps module bytes in memory. Useful for embedding hosts that
// generate modules at runtime, and for tests.
type Source struct {
	files map[string][]byte
	mu    sync.RWMutex
}

// NewSource creates an empty in-memory source.
func NewSource() *Source {
	return &Source{
		files: make(map[string][]byte),
	}
}

// Put stores a copy of data under path, replacing any previous content.
func (s *Source) Put(path string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = append([]byte(nil), data...)
}

// Delete removes path.
func (s *Source) Delete(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
}

// Paths returns all stored paths, sorted.
func (s *Source) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Open implements ports.ByteSource.
func (s *Source) Open(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.files[path]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
