// Package rediskv serves module bytes stored as Redis string values.
package rediskv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/redis/go-redis/v9"
	"github.com/reglet-dev/hotload/internal/application/ports"
)

// Ensure interface compliance
var _ ports.ByteSource = (*Source)(nil)

// DefaultPrefix namespaces module keys when no prefix is configured.
const DefaultPrefix = "hotload:modules:"

// Source implements ports.ByteSource on top of Redis. The value stored at
// prefix+path holds the raw module bytes.
type Source struct {
	client redis.UniversalClient
	prefix string
}

// NewSource creates a Redis-backed source.
func NewSource(client redis.UniversalClient, prefix string) *Source {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Source{
		client: client,
		prefix: prefix,
	}
}

// Key returns the Redis key holding path.
func (s *Source) Key(path string) string {
	return s.prefix + path
}

// Open implements ports.ByteSource.
func (s *Source) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	data, err := s.client.Get(ctx, s.Key(path)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s from redis: %w", s.Key(path), err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Put stores module bytes under path.
func (s *Source) Put(ctx context.Context, path string, data []byte) error {
	if err := s.client.Set(ctx, s.Key(path), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store %s in redis: %w", s.Key(path), err)
	}
	return nil
}

// Client returns the underlying client.
func (s *Source) Client() redis.UniversalClient {
	return s.client
}
