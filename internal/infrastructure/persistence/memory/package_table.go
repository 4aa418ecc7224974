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
var _ ports.PackageTable = (*PackageTable)(nil)

// PackageTable is an in-memory PackageTable.
type PackageTable struct {
	packages map[string]*entities.Package
	mu       sync.RWMutex
}

// NewPackageTable creates an empty package table.
func NewPackageTable() *PackageTable {
	return &PackageTable{
		packages: make(map[string]*entities.Package),
	}
}

// Lookup retrieves a package by name.
func (t *PackageTable) Lookup(name string) (*entities.Package, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	pkg, ok := t.packages[name]
	return pkg, ok
}

// Register stores pkg unless its name is already registered.
func (t *PackageTable) Register(pkg *entities.Package) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.packages[pkg.Name]; exists {
		return fmt.Errorf("package %s: %w", pkg.Name, apperrors.ErrPackageExists)
	}
	t.packages[pkg.Name] = pkg
	return nil
}

// List returns all packages sorted by name.
func (t *PackageTable) List() []*entities.Package {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*entities.Package, 0, len(t.packages))
	for _, pkg := range t.packages {
		out = append(out, pkg)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}
