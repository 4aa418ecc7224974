package entities

import (
	"context"
	"testing"
	"time"

	"github.com/reglet-dev/hotload/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubArtifact struct {
	closed int
}

func (a *stubArtifact) Imports() []string { return []string{"env"} }
func (a *stubArtifact) Exports() []string { return []string{"run"} }
func (a *stubArtifact) Close(context.Context) error {
	a.closed++
	return nil
}

func TestNewModule(t *testing.T) {
	name := values.MustNewModuleName("com.app.Widget")
	data := []byte("bytes")
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))

	m, err := NewModule(name, data, &stubArtifact{}, "loader-1", at)
	require.NoError(t, err)

	assert.Equal(t, "com.app.Widget", m.Name().String())
	assert.Equal(t, "com.app", m.Package())
	assert.Equal(t, values.NewDigestFromBytes(data), m.Digest())
	assert.Equal(t, 5, m.Size())
	assert.Equal(t, "loader-1", m.LoaderID())
	assert.Equal(t, time.UTC, m.DefinedAt().Location())
	assert.False(t, m.Linked())
}

func TestNewModule_Invalid(t *testing.T) {
	_, err := NewModule(values.ModuleName{}, nil, &stubArtifact{}, "l", time.Now())
	assert.Error(t, err)

	_, err = NewModule(values.MustNewModuleName("a.B"), nil, nil, "l", time.Now())
	assert.Error(t, err)
}

func TestModule_MarkLinkedOnce(t *testing.T) {
	m, err := NewModule(values.MustNewModuleName("a.B"), nil, &stubArtifact{}, "l", time.Now())
	require.NoError(t, err)

	assert.True(t, m.MarkLinked([]string{"env"}, []string{"run"}))
	assert.False(t, m.MarkLinked([]string{"other"}, nil))

	assert.True(t, m.Linked())
	assert.Equal(t, []string{"env"}, m.Imports())
	assert.Equal(t, []string{"run"}, m.Exports())
}

func TestModule_Close(t *testing.T) {
	artifact := &stubArtifact{}
	m, err := NewModule(values.MustNewModuleName("B"), nil, artifact, "l", time.Now())
	require.NoError(t, err)

	require.NoError(t, m.Close(context.Background()))
	assert.Equal(t, 1, artifact.closed)
	assert.Empty(t, m.Package())
}
