package ports

import (
	"context"
	"io"
)

// ByteSource supplies raw module bytes for a resource path such as
// "com/app/Widget.wasm".
//
// A missing resource is reported with an error matching fs.ErrNotExist.
// Any other error means the resource exists but could not be opened.
type ByteSource interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// ByteSourceFunc adapts a function to ByteSource.
type ByteSourceFunc func(ctx context.Context, path string) (io.ReadCloser, error)

// Open calls f.
func (f ByteSourceFunc) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return f(ctx, path)
}

// WatchableSource is implemented by byte sources backed by local directories.
type WatchableSource interface {
	ByteSource

	// Roots returns the directories whose changes should trigger a reload.
	Roots() []string
}
