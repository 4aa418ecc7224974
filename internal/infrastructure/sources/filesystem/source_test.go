package filesystem

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDirSource(t *testing.T) {
	dir := t.TempDir()

	src, err := NewDirSource(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{dir}, src.Roots())

	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	_, err = NewDirSource(file)
	assert.Error(t, err)

	_, err = NewDirSource(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestSource_Open(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "com", "app"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "com", "app", "Widget.wasm"), []byte("widget"), 0o600))

	src, err := NewDirSource(dir)
	require.NoError(t, err)
	ctx := context.Background()

	rc, err := src.Open(ctx, "com/app/Widget.wasm")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "widget", string(data))

	tests := []struct {
		name string
		path string
	}{
		{"missing file", "com/app/Missing.wasm"},
		{"directory", "com/app"},
		{"escapes root", "../outside.wasm"},
		{"absolute", "/etc/passwd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := src.Open(ctx, tt.path)
			assert.ErrorIs(t, err, fs.ErrNotExist)
		})
	}
}

func TestSource_Open_FileInPathIsMiss(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "com"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "com", "app"), []byte("not a package"), 0o600))

	src, err := NewDirSource(dir)
	require.NoError(t, err)

	_, err = src.Open(context.Background(), "com/app/Widget.wasm")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestNewFSSource(t *testing.T) {
	src := NewFSSource(fstest.MapFS{
		"com/app/Widget.wasm": &fstest.MapFile{Data: []byte("embedded")},
	})
	assert.Empty(t, src.Roots())

	rc, err := src.Open(context.Background(), "com/app/Widget.wasm")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "embedded", string(data))
}
