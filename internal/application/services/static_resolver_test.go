package services

import (
	"context"
	"testing"

	apperrors "github.com/reglet-dev/hotload/internal/application/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("ResolvesRegisteredModule", func(t *testing.T) {
		r := NewStaticResolver(&fakeDefiner{})
		host := parentModule(t, "host.Clock")
		require.NoError(t, r.Register(host))

		m, err := r.ResolveModule(ctx, "host.Clock", false)
		require.NoError(t, err)
		assert.Same(t, host, m)
		assert.False(t, m.Linked())
	})

	t.Run("LinksOnRequest", func(t *testing.T) {
		definer := &fakeDefiner{}
		r := NewStaticResolver(definer)
		require.NoError(t, r.Register(parentModule(t, "host.Clock")))

		m, err := r.ResolveModule(ctx, "host.Clock", true)
		require.NoError(t, err)
		assert.True(t, m.Linked())

		_, err = r.ResolveModule(ctx, "host.Clock", true)
		require.NoError(t, err)
		assert.Equal(t, int32(1), definer.links.Load())
	})

	t.Run("UnknownNameIsNotFound", func(t *testing.T) {
		r := NewStaticResolver(nil)

		_, err := r.ResolveModule(ctx, "java.util.List", true)
		assert.True(t, apperrors.IsModuleNotFound(err))
	})

	t.Run("RejectsDuplicates", func(t *testing.T) {
		r := NewStaticResolver(nil)
		require.NoError(t, r.Register(parentModule(t, "host.Clock")))

		err := r.Register(parentModule(t, "host.Clock"))
		assert.ErrorIs(t, err, apperrors.ErrDuplicateDefinition)
	})

	t.Run("NamesAndClose", func(t *testing.T) {
		r := NewStaticResolver(nil)
		b := parentModule(t, "host.B")
		require.NoError(t, r.Register(b))
		require.NoError(t, r.Register(parentModule(t, "host.A")))

		assert.Equal(t, []string{"host.A", "host.B"}, r.Names())

		require.NoError(t, r.Close(ctx))
		assert.Equal(t, int32(1), b.Artifact().(*fakeArtifact).closed.Load())
		assert.Empty(t, r.Names())
	})
}
