// Package wasm materializes hot-reloadable modules with wazero.
// It compiles module bytes, captures import and export tables at link time,
// and instantiates linked modules on request.
package wasm

import (
	"context"
	"sort"

	"github.com/reglet-dev/hotload/internal/domain/entities"
	"github.com/tetratelabs/wazero"
)

// Ensure interface compliance
var _ entities.Artifact = (*Artifact)(nil)

// Artifact wraps a compiled wazero module.
type Artifact struct {
	compiled wazero.CompiledModule
}

// Compiled returns the underlying compiled module.
func (a *Artifact) Compiled() wazero.CompiledModule {
	return a.compiled
}

// Imports returns the distinct module names the compiled module imports
// functions or memories from, sorted.
func (a *Artifact) Imports() []string {
	seen := make(map[string]struct{})
	for _, fn := range a.compiled.ImportedFunctions() {
		if moduleName, _, ok := fn.Import(); ok {
			seen[moduleName] = struct{}{}
		}
	}
	for _, mem := range a.compiled.ImportedMemories() {
		if moduleName, _, ok := mem.Import(); ok {
			seen[moduleName] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Exports returns the exported function names, sorted.
func (a *Artifact) Exports() []string {
	exported := a.compiled.ExportedFunctions()
	out := make([]string, 0, len(exported))
	for name := range exported {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Close releases the compiled module.
func (a *Artifact) Close(ctx context.Context) error {
	return a.compiled.Close(ctx)
}
