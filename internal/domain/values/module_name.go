package values

import (
	"fmt"
	"strings"
)

const (
	// Separator splits the segments of a dotted module name.
	Separator = '.'
	// PathDelimiter replaces Separator when a module name becomes a resource path.
	PathDelimiter = '/'
	// DefaultSuffix is appended to resource paths when no suffix is configured.
	DefaultSuffix = ".wasm"
)

// ModuleName represents a fully-qualified, dotted module name such as
// "com.app.Widget".
type ModuleName struct {
	value string
}

// NewModuleName creates a ModuleName with validation
func NewModuleName(name string) (ModuleName, error) {
	if strings.TrimSpace(name) == "" {
		return ModuleName{}, fmt.Errorf("module name cannot be empty")
	}
	if strings.ContainsAny(name, " \t\r\n") {
		return ModuleName{}, fmt.Errorf("module name %q contains whitespace", name)
	}
	return ModuleName{value: name}, nil
}

// MustNewModuleName creates a ModuleName or panics
func MustNewModuleName(name string) ModuleName {
	mn, err := NewModuleName(name)
	if err != nil {
		panic(err)
	}
	return mn
}

// String returns the string representation
func (m ModuleName) String() string {
	return m.value
}

// IsEmpty returns true if this is the zero value
func (m ModuleName) IsEmpty() bool {
	return m.value == ""
}

// Package returns everything before the last separator.
// ok is false for names without a separator (the unnamed package).
func (m ModuleName) Package() (pkg string, ok bool) {
	return PackageOf(m.value)
}

// ResourcePath maps the name onto the path its bytes are stored under.
func (m ModuleName) ResourcePath(suffix string) string {
	return ResourcePath(m.value, suffix)
}

// PackageOf returns the package part of a raw dotted name.
func PackageOf(name string) (string, bool) {
	idx := strings.LastIndexByte(name, Separator)
	if idx < 0 {
		return "", false
	}
	return name[:idx], true
}

// ResourcePath converts a raw dotted name into a slash separated path with suffix.
// An empty suffix falls back to DefaultSuffix.
func ResourcePath(name, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return strings.ReplaceAll(name, string(Separator), string(PathDelimiter)) + suffix
}
