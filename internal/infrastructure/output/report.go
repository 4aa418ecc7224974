// Package output renders resolution reports for the CLI.
package output

import (
	"errors"
	"time"

	"github.com/reglet-dev/hotload/internal/domain/entities"
)

// Origin says which part of the resolver chain defined a module.
type Origin string

const (
	OriginGeneration Origin = "generation"
	OriginLibrary    Origin = "library"
	OriginBootstrap  Origin = "bootstrap"
)

// Report is the result of resolving a list of module names.
type Report struct {
	GeneratedAt time.Time     `json:"generated_at" yaml:"generated_at"`
	Generation  string        `json:"generation" yaml:"generation"`
	Modules     []ModuleEntry `json:"modules" yaml:"modules"`
	Failures    []Failure     `json:"failures,omitempty" yaml:"failures,omitempty"`
	Generations uint64        `json:"generations" yaml:"generations"`
}

// ModuleEntry describes one resolved module.
type ModuleEntry struct {
	DefinedAt time.Time `json:"defined_at" yaml:"defined_at"`
	Name      string    `json:"name" yaml:"name"`
	Origin    Origin    `json:"origin" yaml:"origin"`
	LoaderID  string    `json:"loader_id" yaml:"loader_id"`
	Digest    string    `json:"digest" yaml:"digest"`
	Imports   []string  `json:"imports,omitempty" yaml:"imports,omitempty"`
	Exports   []string  `json:"exports,omitempty" yaml:"exports,omitempty"`
	Size      int       `json:"size" yaml:"size"`
	Linked    bool      `json:"linked" yaml:"linked"`
}

// Failure records a name that could not be resolved.
type Failure struct {
	Name  string `json:"name" yaml:"name"`
	Error string `json:"error" yaml:"error"`
}

// NewModuleEntry builds an entry for m.
func NewModuleEntry(m *entities.Module, origin Origin) ModuleEntry {
	return ModuleEntry{
		DefinedAt: m.DefinedAt(),
		Name:      m.Name().String(),
		Origin:    origin,
		LoaderID:  m.LoaderID(),
		Digest:    m.Digest().String(),
		Imports:   m.Imports(),
		Exports:   m.Exports(),
		Size:      m.Size(),
		Linked:    m.Linked(),
	}
}

// Err returns an error when any name failed to resolve.
func (r *Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, errors.New(f.Name+": "+f.Error))
	}
	return errors.Join(errs...)
}
