// Package gcs serves module bytes stored as Google Cloud Storage objects.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/reglet-dev/hotload/internal/application/ports"
	"google.golang.org/api/option"
)

// Ensure interface compliance
var _ ports.ByteSource = (*Source)(nil)

// ObjectReader opens objects by name. Missing objects must be reported with
// an error matching fs.ErrNotExist.
type ObjectReader interface {
	NewReader(ctx context.Context, object string) (io.ReadCloser, error)
}

// BucketReader adapts a bucket handle to ObjectReader.
type BucketReader struct {
	bucket *storage.BucketHandle
}

// NewBucketReader wraps bucket.
func NewBucketReader(bucket *storage.BucketHandle) *BucketReader {
	return &BucketReader{bucket: bucket}
}

// NewReader implements ObjectReader.
func (b *BucketReader) NewReader(ctx context.Context, object string) (io.ReadCloser, error) {
	r, err := b.bucket.Object(object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("open %s: %w", object, fs.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open gcs object %s: %w", object, err)
	}
	return r, nil
}

// Source implements ports.ByteSource on top of object storage.
type Source struct {
	objects ObjectReader
	prefix  string
}

// NewSource creates a source reading objects below prefix.
func NewSource(objects ObjectReader, prefix string) *Source {
	return &Source{
		objects: objects,
		prefix:  strings.Trim(prefix, "/"),
	}
}

// ObjectName returns the object holding path.
func (s *Source) ObjectName(p string) string {
	if s.prefix == "" {
		return p
	}
	return path.Join(s.prefix, p)
}

// Open implements ports.ByteSource.
func (s *Source) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	return s.objects.NewReader(ctx, s.ObjectName(p))
}

// ClientConfig selects how the storage client authenticates.
type ClientConfig struct {
	// EmulatorHost points the client at a fake-gcs-server style emulator.
	EmulatorHost string
	// CredentialsFile is a service account key file; empty uses ADC.
	CredentialsFile string
}

// NewClient creates a read-only storage client.
func NewClient(ctx context.Context, cfg ClientConfig) (*storage.Client, error) {
	if host := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"); host != "" {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", host)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}

	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadOnly)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client, nil
}
