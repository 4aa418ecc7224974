package wasm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/reglet-dev/hotload/internal/application/ports"
	"github.com/reglet-dev/hotload/internal/domain/entities"
	"github.com/reglet-dev/hotload/internal/domain/values"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// globalCache speeds up compilation across runtimes and reload generations.
// Unchanged module bytes compile once no matter how often they are reloaded.
var globalCache = wazero.NewCompilationCache()

// Ensure interface compliance
var _ ports.ModuleDefiner = (*Runtime)(nil)

// Runtime compiles and instantiates modules.
type Runtime struct {
	runtime wazero.Runtime
	now     func() time.Time
}

// NewRuntime creates a runtime with the default memory limit.
func NewRuntime(ctx context.Context) (*Runtime, error) {
	return NewRuntimeWithMemoryLimit(ctx, 0)
}

// NewRuntimeWithMemoryLimit creates a runtime with an explicit memory limit.
func NewRuntimeWithMemoryLimit(ctx context.Context, memoryLimitMB int) (*Runtime, error) {
	// 0 = default (256MB)
	// -1 = unlimited
	// >0 = explicit limit in MB
	switch {
	case memoryLimitMB == 0:
		memoryLimitMB = 256
		slog.Debug("using default WASM memory limit", "mb", memoryLimitMB)
	case memoryLimitMB == -1:
		slog.Warn("WASM memory limit disabled (unlimited memory)")
	case memoryLimitMB > 0:
		if memoryLimitMB < 64 {
			slog.Warn("WASM memory limit very low, modules may fail", "mb", memoryLimitMB)
		}
	default:
		return nil, fmt.Errorf("invalid WASM memory limit: %d (must be >= -1)", memoryLimitMB)
	}

	config := wazero.NewRuntimeConfig().WithCompilationCache(globalCache)
	if memoryLimitMB > 0 {
		// 1 page = 64KB, so 1 MB = 16 pages
		config = config.WithMemoryLimitPages(uint32(memoryLimitMB * 16))
	}

	return &Runtime{
		runtime: wazero.NewRuntimeWithConfig(ctx, config),
		now:     time.Now,
	}, nil
}

// Define compiles data into a module owned by loaderID.
func (r *Runtime) Define(ctx context.Context, loaderID, name string, data []byte) (*entities.Module, error) {
	moduleName, err := values.NewModuleName(name)
	if err != nil {
		return nil, err
	}

	compiled, err := r.runtime.CompileModule(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to compile module %s: %w", name, err)
	}

	m, err := entities.NewModule(moduleName, data, &Artifact{compiled: compiled}, loaderID, r.now())
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, err
	}
	return m, nil
}

// Link records the module's import and export tables.
func (r *Runtime) Link(_ context.Context, m *entities.Module) error {
	a, ok := m.Artifact().(*Artifact)
	if !ok {
		return fmt.Errorf("module %s was not defined by a wasm runtime", m.Name())
	}
	m.MarkLinked(a.Imports(), a.Exports())
	return nil
}

// Instantiate creates a running instance of m under instanceName.
// Every module m imports from must already be instantiated in this runtime.
func (r *Runtime) Instantiate(ctx context.Context, m *entities.Module, instanceName string) (api.Module, error) {
	a, ok := m.Artifact().(*Artifact)
	if !ok {
		return nil, fmt.Errorf("module %s was not defined by a wasm runtime", m.Name())
	}

	config := wazero.NewModuleConfig().WithName(instanceName).WithStartFunctions()
	instance, err := r.runtime.InstantiateModule(ctx, a.compiled, config)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate module %s: %w", m.Name(), err)
	}
	return instance, nil
}

// Close closes the runtime and cleans up resources
func (r *Runtime) Close(ctx context.Context) error {
	return r.runtime.Close(ctx)
}
