// Package apperrors defines application-level error types.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateDefinition is returned by module tables when a name is defined twice.
	ErrDuplicateDefinition = errors.New("duplicate module definition")

	// ErrPackageExists is returned by package tables when a package is registered twice.
	ErrPackageExists = errors.New("package already registered")

	// ErrLoaderClosed is wrapped by errors from a loader generation that has been closed.
	ErrLoaderClosed = errors.New("loader generation is closed")
)

// InvalidArgumentError indicates a bad construction or call argument.
type InvalidArgumentError struct {
	Argument string
	Message  string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Argument, e.Message)
}

// NewInvalidArgumentError creates a new invalid argument error.
func NewInvalidArgumentError(argument, message string) *InvalidArgumentError {
	return &InvalidArgumentError{
		Argument: argument,
		Message:  message,
	}
}

// ModuleNotFoundError indicates no loader in the chain could resolve a module.
type ModuleNotFoundError struct {
	Name string
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("module not found: %s", e.Name)
}

// NewModuleNotFoundError creates a new module not found error.
func NewModuleNotFoundError(name string) *ModuleNotFoundError {
	return &ModuleNotFoundError{Name: name}
}

// IllegalStateError indicates an environment fault, such as a resource that
// exists but cannot be read.
type IllegalStateError struct {
	Cause   error
	Module  string
	Message string
}

func (e *IllegalStateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("illegal state loading %s: %s: %v", e.Module, e.Message, e.Cause)
	}
	return fmt.Sprintf("illegal state loading %s: %s", e.Module, e.Message)
}

func (e *IllegalStateError) Unwrap() error {
	return e.Cause
}

// NewIllegalStateError creates a new illegal state error.
func NewIllegalStateError(module, message string, cause error) *IllegalStateError {
	return &IllegalStateError{
		Module:  module,
		Message: message,
		Cause:   cause,
	}
}

// DefinitionError indicates bytes could not be turned into a module.
type DefinitionError struct {
	Cause  error
	Module string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("failed to define module %s: %v", e.Module, e.Cause)
}

func (e *DefinitionError) Unwrap() error {
	return e.Cause
}

// NewDefinitionError creates a new definition error.
func NewDefinitionError(module string, cause error) *DefinitionError {
	return &DefinitionError{
		Module: module,
		Cause:  cause,
	}
}

// ConfigurationError indicates system config or setup issue.
type ConfigurationError struct {
	Cause   error
	Aspect  string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error (%s): %s: %v", e.Aspect, e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error (%s): %s", e.Aspect, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// NewConfigurationError creates a new configuration error.
func NewConfigurationError(aspect, message string, cause error) *ConfigurationError {
	return &ConfigurationError{
		Aspect:  aspect,
		Message: message,
		Cause:   cause,
	}
}

// IsModuleNotFound reports whether err is, or wraps, a ModuleNotFoundError.
func IsModuleNotFound(err error) bool {
	var nf *ModuleNotFoundError
	return errors.As(err, &nf)
}
