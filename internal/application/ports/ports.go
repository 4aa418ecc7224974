// Package ports defines interfaces for infrastructure dependencies.
// These are the "ports" in hexagonal architecture - abstractions that
// the application layer depends on but doesn't implement.
package ports

import (
	"context"

	"github.com/reglet-dev/hotload/internal/domain/entities"
)

// ModuleResolver resolves a module by its fully-qualified name.
// It is the contract between a loader and its parent.
type ModuleResolver interface {
	// ResolveModule returns the module for name, linking it when link is set.
	// A name nobody in the chain can supply yields *apperrors.ModuleNotFoundError.
	ResolveModule(ctx context.Context, name string, link bool) (*entities.Module, error)
}

// ModuleDefiner materializes modules from raw bytes.
type ModuleDefiner interface {
	// Define compiles data into a module named name, owned by loaderID.
	Define(ctx context.Context, loaderID, name string, data []byte) (*entities.Module, error)

	// Link prepares a defined module for use. It must be idempotent.
	Link(ctx context.Context, module *entities.Module) error
}

// ModuleTable stores the modules a loader has defined.
type ModuleTable interface {
	// Lookup returns the module defined under name.
	Lookup(name string) (*entities.Module, bool)

	// Insert adds module if its name is absent. A second insert for the same
	// name fails with apperrors.ErrDuplicateDefinition.
	Insert(module *entities.Module) error

	// List returns all defined modules sorted by name.
	List() []*entities.Module
}

// PackageTable stores the packages a loader has registered.
type PackageTable interface {
	// Lookup returns the package registered under name.
	Lookup(name string) (*entities.Package, bool)

	// Register adds pkg if its name is absent. A second registration for the
	// same name fails with apperrors.ErrPackageExists.
	Register(pkg *entities.Package) error

	// List returns all registered packages sorted by name.
	List() []*entities.Package
}
