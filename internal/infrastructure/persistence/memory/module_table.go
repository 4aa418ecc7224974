// Package memory provides in-memory implementations of the loader tables.
package memory

import (
	"fmt"
	"sort"
	"sync"

	apperrors "github.com/reglet-dev/hotload/internal/application/errors"
	"github.com/reglet-dev/hotload/internal/application/ports"
	"github.com/reglet-dev/hotload/internal/domain/entities"
)

// Ensure interface compliance
var _ ports.ModuleTable = (*ModuleTable)(nil)

// ModuleTable is an in-memory ModuleTable. One table belongs to exactly one
// loader generation.
type ModuleTable struct {
	modules map[string]*entities.Module
	mu      sync.RWMutex
}

// NewModuleTable creates an empty module table.
func NewModuleTable() *ModuleTable {
	return &ModuleTable{
		modules: make(map[string]*entities.Module),
	}
}

// Lookup retrieves a module by its fully-qualified name.
func (t *ModuleTable) Lookup(name string) (*entities.Module, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	m, ok := t.modules[name]
	return m, ok
}

// Insert stores module unless its name is already taken.
func (t *ModuleTable) Insert(module *entities.Module) error {
	name := module.Name().String()

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.modules[name]; exists {
		return fmt.Errorf("module %s: %w", name, apperrors.ErrDuplicateDefinition)
	}
	t.modules[name] = module
	return nil
}

// List returns all modules sorted by name.
func (t *ModuleTable) List() []*entities.Module {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*entities.Module, 0, len(t.modules))
	for _, m := range t.modules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name().String() < out[j].Name().String()
	})
	return out
}
