package entities

import "time"

// Package is a package registered with a loader's package table.
// Only the name and registration time are tracked; packages carry no
// title, version or vendor metadata.
type Package struct {
	Name         string
	RegisteredAt time.Time
}

// NewPackage creates a package registration for name.
func NewPackage(name string, at time.Time) *Package {
	return &Package{Name: name, RegisteredAt: at.UTC()}
}
