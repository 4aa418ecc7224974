// Package sources provides byte sources for module bytes and helpers that
// combine them.
package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/reglet-dev/hotload/internal/application/ports"
)

// Ensure interface compliance
var _ ports.WatchableSource = (*Chain)(nil)

// Chain tries each source in order; the first one that has the path wins.
// A genuine failure in an earlier source stops the search.
type Chain struct {
	sources []ports.ByteSource
}

// NewChain creates a chain over srcs.
func NewChain(srcs ...ports.ByteSource) *Chain {
	return &Chain{sources: append([]ports.ByteSource(nil), srcs...)}
}

// Open implements ports.ByteSource.
func (c *Chain) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	for _, src := range c.sources {
		rc, err := src.Open(ctx, path)
		if err == nil && rc != nil {
			return rc, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
}

// Roots returns the roots of every watchable source in the chain.
func (c *Chain) Roots() []string {
	var roots []string
	for _, src := range c.sources {
		if w, ok := src.(ports.WatchableSource); ok {
			roots = append(roots, w.Roots()...)
		}
	}
	return roots
}

// Len returns the number of sources in the chain.
func (c *Chain) Len() int {
	return len(c.sources)
}
