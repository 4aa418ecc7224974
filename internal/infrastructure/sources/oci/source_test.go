package oci

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"testing"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"oras.land/oras-go/v2/content/memory"
	"oras.land/oras-go/v2/errdef"
)

// blobless keeps manifests and tags but has lost every module layer blob.
type blobless struct {
	*memory.Store
}

func (b blobless) Fetch(ctx context.Context, desc ocispec.Descriptor) (io.ReadCloser, error) {
	if desc.MediaType == LayerMediaType {
		return nil, fmt.Errorf("%s: %w", desc.Digest, errdef.ErrNotFound)
	}
	return b.Store.Fetch(ctx, desc)
}

func TestSource_Open(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	_, err := Publish(ctx, store, "dev", map[string][]byte{
		"com/app/Widget.wasm": []byte("widget"),
		"com/app/Gadget.wasm": []byte("gadget"),
	})
	require.NoError(t, err)

	src := NewSource(store, "dev")

	rc, err := src.Open(ctx, "com/app/Widget.wasm")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "widget", string(data))

	paths, err := src.Paths(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"com/app/Gadget.wasm", "com/app/Widget.wasm"}, paths)
}

func TestSource_Open_MissingLayer(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	_, err := Publish(ctx, store, "dev", map[string][]byte{"com/app/Widget.wasm": []byte("widget")})
	require.NoError(t, err)

	_, err = NewSource(store, "dev").Open(ctx, "com/app/Missing.wasm")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestSource_Open_LayerBlobGone(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	_, err := Publish(ctx, store, "dev", map[string][]byte{"com/app/Widget.wasm": []byte("widget")})
	require.NoError(t, err)

	_, err = NewSource(blobless{store}, "dev").Open(ctx, "com/app/Widget.wasm")
	require.Error(t, err)
	assert.ErrorIs(t, err, errdef.ErrNotFound)
	assert.NotErrorIs(t, err, fs.ErrNotExist, "a listed layer that cannot be fetched is not a miss")
}

func TestSource_Open_UnknownTag(t *testing.T) {
	_, err := NewSource(memory.New(), "nope").Open(context.Background(), "com/app/Widget.wasm")
	require.Error(t, err)
	assert.NotErrorIs(t, err, fs.ErrNotExist, "a missing artifact is a source fault, not a module miss")
}

func TestSource_RetaggedArtifact(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	src := NewSource(store, "dev")

	_, err := Publish(ctx, store, "dev", map[string][]byte{"com/app/Widget.wasm": []byte("v1")})
	require.NoError(t, err)
	_, err = Publish(ctx, store, "dev", map[string][]byte{"com/app/Widget.wasm": []byte("v2")})
	require.NoError(t, err)

	rc, err := src.Open(ctx, "com/app/Widget.wasm")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestNewRemoteSource_RequiresTag(t *testing.T) {
	_, err := NewRemoteSource("localhost:5000/acme/modules", true)
	require.Error(t, err)

	src, err := NewRemoteSource("localhost:5000/acme/modules:dev", true)
	require.NoError(t, err)
	assert.Equal(t, "dev", src.reference)
}
