package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	apperrors "github.com/reglet-dev/hotload/internal/application/errors"
	"github.com/reglet-dev/hotload/internal/application/ports"
	"github.com/reglet-dev/hotload/internal/domain/entities"
)

// Ensure interface compliance
var _ ports.ModuleResolver = (*StaticResolver)(nil)

// StaticResolver serves a fixed set of modules defined once at startup.
// It ends a resolver chain: unknown names are not found.
type StaticResolver struct {
	definer ports.ModuleDefiner
	mu      sync.RWMutex
	modules map[string]*entities.Module
}

// NewStaticResolver creates an empty static resolver. definer links modules
// on request and may be nil when linking is never asked for.
func NewStaticResolver(definer ports.ModuleDefiner) *StaticResolver {
	return &StaticResolver{
		definer: definer,
		modules: make(map[string]*entities.Module),
	}
}

// Register adds a module. Registering the same name twice fails.
func (r *StaticResolver) Register(m *entities.Module) error {
	name := m.Name().String()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.modules[name]; exists {
		return fmt.Errorf("register static module %s: %w", name, apperrors.ErrDuplicateDefinition)
	}
	r.modules[name] = m
	return nil
}

// ResolveModule implements ports.ModuleResolver.
func (r *StaticResolver) ResolveModule(ctx context.Context, name string, link bool) (*entities.Module, error) {
	r.mu.RLock()
	m, ok := r.modules[name]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewModuleNotFoundError(name)
	}

	if link && !m.Linked() && r.definer != nil {
		if err := r.definer.Link(ctx, m); err != nil {
			return nil, apperrors.NewDefinitionError(name, err)
		}
	}
	return m, nil
}

// Names returns the registered module names, sorted.
func (r *StaticResolver) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases all registered modules.
func (r *StaticResolver) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, m := range r.modules {
		if err := m.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close static module %s: %w", name, err))
		}
	}
	r.modules = make(map[string]*entities.Module)
	return errors.Join(errs...)
}
