package values

import "strings"

// Scope is the root package a loader is authoritative for.
//
// The zero value is unset; loaders refuse it so that an unscoped loader is
// always an explicit NewScope("") rather than a forgotten field.
type Scope struct {
	root string
	set  bool
}

// NewScope creates a scope rooted at root. An empty root covers every name.
func NewScope(root string) Scope {
	return Scope{root: root, set: true}
}

// IsSet reports whether the scope was created with NewScope.
func (s Scope) IsSet() bool {
	return s.set
}

// Root returns the root package name.
func (s Scope) Root() string {
	return s.root
}

// IsEverything reports whether the scope covers every module name.
func (s Scope) IsEverything() bool {
	return s.set && s.root == ""
}

// Contains reports whether name falls under the scope. It depends only on
// name and the root, so repeated calls always agree.
func (s Scope) Contains(name string) bool {
	if !s.set {
		return false
	}
	if s.root == "" {
		return true
	}
	return strings.HasPrefix(name, s.root+string(Separator))
}

// String returns a printable form of the scope.
func (s Scope) String() string {
	switch {
	case !s.set:
		return "<unset>"
	case s.root == "":
		return "*"
	default:
		return s.root + ".*"
	}
}
