package wasm

import (
	"context"
	"sync"
	"testing"

	"github.com/reglet-dev/hotload/internal/domain/values"
	"github.com/reglet-dev/hotload/internal/infrastructure/wasm/wasmtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	ctx := context.Background()
	r, err := NewRuntime(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = r.Close(ctx)
	})
	return r
}

func TestNewRuntimeWithMemoryLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	for _, limit := range []int{0, -1, 32, 512} {
		r, err := NewRuntimeWithMemoryLimit(ctx, limit)
		require.NoError(t, err, "limit %d", limit)
		require.NoError(t, r.Close(ctx))
	}

	_, err := NewRuntimeWithMemoryLimit(ctx, -2)
	assert.Error(t, err)
}

func TestRuntime_Define(t *testing.T) {
	t.Parallel()

	r := newTestRuntime(t)
	data := wasmtest.Module("widget")

	m, err := r.Define(context.Background(), "loader-1", "com.app.Widget", data)
	require.NoError(t, err)

	assert.Equal(t, "com.app.Widget", m.Name().String())
	assert.Equal(t, "loader-1", m.LoaderID())
	assert.Equal(t, values.NewDigestFromBytes(data), m.Digest())
	assert.False(t, m.Linked())
	assert.NoError(t, m.Close(context.Background()))
}

func TestRuntime_Define_InvalidWASM(t *testing.T) {
	t.Parallel()

	r := newTestRuntime(t)

	m, err := r.Define(context.Background(), "loader-1", "com.app.Broken", []byte("not a valid wasm module"))
	assert.Error(t, err)
	assert.Nil(t, m)
	assert.Contains(t, err.Error(), "failed to compile")
}

func TestRuntime_Define_InvalidName(t *testing.T) {
	t.Parallel()

	r := newTestRuntime(t)

	_, err := r.Define(context.Background(), "loader-1", "", wasmtest.Module("x"))
	assert.Error(t, err)
}

func TestRuntime_Link(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestRuntime(t)

	m, err := r.Define(ctx, "loader-1", "com.app.Widget", wasmtest.ModuleWithImport("widget", "env", "tick"))
	require.NoError(t, err)

	require.NoError(t, r.Link(ctx, m))
	assert.True(t, m.Linked())
	assert.Equal(t, []string{"env"}, m.Imports())
	assert.Equal(t, []string{"run"}, m.Exports())

	// idempotent
	require.NoError(t, r.Link(ctx, m))
	assert.Equal(t, []string{"env"}, m.Imports())
}

func TestRuntime_Instantiate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestRuntime(t)

	m, err := r.Define(ctx, "loader-1", "com.app.Greeter", wasmtest.ModuleWithExport("greeter", "greet"))
	require.NoError(t, err)

	instance, err := r.Instantiate(ctx, m, "greeter-1")
	require.NoError(t, err)
	defer instance.Close(ctx)

	fn := instance.ExportedFunction("greet")
	require.NotNil(t, fn)
	_, err = fn.Call(ctx)
	assert.NoError(t, err)
}

// Two generations defining the same bytes share compiled code through the
// compilation cache. Closing the older one must leave the newer usable.
func TestRuntime_CloseOneOfTwoIdenticalDefinitions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestRuntime(t)
	data := wasmtest.ModuleWithExport("shared", "greet")

	old, err := r.Define(ctx, "gen-1", "com.app.Greeter", data)
	require.NoError(t, err)
	current, err := r.Define(ctx, "gen-2", "com.app.Greeter", data)
	require.NoError(t, err)

	require.NoError(t, old.Close(ctx))

	instance, err := r.Instantiate(ctx, current, "greeter-gen-2")
	require.NoError(t, err)
	defer instance.Close(ctx)

	fn := instance.ExportedFunction("greet")
	require.NotNil(t, fn)
	_, err = fn.Call(ctx)
	assert.NoError(t, err)
}

func TestRuntime_Instantiate_MissingImport(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestRuntime(t)

	m, err := r.Define(ctx, "loader-1", "com.app.Widget", wasmtest.ModuleWithImport("widget", "env", "tick"))
	require.NoError(t, err)

	_, err = r.Instantiate(ctx, m, "widget-1")
	assert.Error(t, err)
}

// TestRuntime_ConcurrentDefine verifies that Define can be called from many
// goroutines at once. This test must pass with -race detector.
func TestRuntime_ConcurrentDefine(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestRuntime(t)
	data := wasmtest.Module("shared")

	const numGoroutines = 20
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			m, err := r.Define(ctx, "loader-1", "com.app.Shared", data)
			assert.NoError(t, err)
			if m != nil {
				assert.NoError(t, m.Close(ctx))
			}
		}()
	}
	wg.Wait()
}
