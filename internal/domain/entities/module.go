package entities

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/reglet-dev/hotload/internal/domain/values"
)

// Artifact is the materialized, runtime-specific form of a module.
type Artifact interface {
	// Imports returns the names of the modules the artifact imports from.
	Imports() []string
	// Exports returns the exported function names.
	Exports() []string
	// Close releases the runtime resources held by the artifact.
	Close(ctx context.Context) error
}

// Module is a module materialized by exactly one loader.
//
// Invariants:
// - Name and artifact are set at creation and never change
// - Link state moves from unlinked to linked once
type Module struct {
	name      values.ModuleName
	digest    values.Digest
	definedAt time.Time
	artifact  Artifact
	loaderID  string
	size      int

	mu      sync.RWMutex
	linked  bool
	imports []string
	exports []string
}

// NewModule creates a module defined by the loader identified by loaderID.
func NewModule(name values.ModuleName, data []byte, artifact Artifact, loaderID string, definedAt time.Time) (*Module, error) {
	if name.IsEmpty() {
		return nil, fmt.Errorf("module name is required")
	}
	if artifact == nil {
		return nil, fmt.Errorf("module %s: artifact is required", name)
	}
	return &Module{
		name:      name,
		digest:    values.NewDigestFromBytes(data),
		size:      len(data),
		artifact:  artifact,
		loaderID:  loaderID,
		definedAt: definedAt.UTC(),
	}, nil
}

// Name returns the fully-qualified module name.
func (m *Module) Name() values.ModuleName { return m.name }

// Package returns the package the module belongs to, "" for the unnamed package.
func (m *Module) Package() string {
	pkg, _ := m.name.Package()
	return pkg
}

// Digest returns the digest of the bytes the module was defined from.
func (m *Module) Digest() values.Digest { return m.digest }

// Size returns the number of bytes the module was defined from.
func (m *Module) Size() int { return m.size }

// LoaderID returns the ID of the loader that defined the module.
func (m *Module) LoaderID() string { return m.loaderID }

// DefinedAt returns when the module was defined.
func (m *Module) DefinedAt() time.Time { return m.definedAt }

// Artifact returns the runtime artifact.
func (m *Module) Artifact() Artifact { return m.artifact }

// MarkLinked records the link result. Only the first call has an effect;
// it reports whether this call performed the transition.
func (m *Module) MarkLinked(imports, exports []string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.linked {
		return false
	}
	m.linked = true
	m.imports = append([]string(nil), imports...)
	m.exports = append([]string(nil), exports...)
	return true
}

// Linked reports whether the module has been linked.
func (m *Module) Linked() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.linked
}

// Imports returns the imported module names captured at link time.
func (m *Module) Imports() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.imports...)
}

// Exports returns the exported function names captured at link time.
func (m *Module) Exports() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.exports...)
}

// Close releases the artifact.
func (m *Module) Close(ctx context.Context) error {
	return m.artifact.Close(ctx)
}
