package template

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for template operations.
var (
	// ErrUnknownTemplate is returned when a template name is not registered.
	ErrUnknownTemplate = errors.New("unknown template")

	// ErrDuplicateTemplate is returned when a name is registered twice.
	ErrDuplicateTemplate = errors.New("template already registered")

	// ErrCyclicInheritance is returned when a parent chain revisits a template.
	ErrCyclicInheritance = errors.New("cyclic template inheritance")

	// ErrUnboundVariable is returned when a referenced variable has no binding.
	ErrUnboundVariable = errors.New("unbound variable")

	// ErrMalformedTemplate is returned when template source fails to parse.
	ErrMalformedTemplate = errors.New("malformed template")
)

// SyntaxError describes a parse failure at a specific line.
type SyntaxError struct {
	Template string // Template name
	Line     int    // 1-based line of the offending tag
	Msg      string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Template, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Template, e.Msg)
}

// Unwrap returns ErrMalformedTemplate for errors.Is support.
func (e *SyntaxError) Unwrap() error {
	return ErrMalformedTemplate
}

// CycleError reports the inheritance chain that looped back on itself.
type CycleError struct {
	// Chain lists the templates walked, ending with the revisited name.
	Chain []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCyclicInheritance, strings.Join(e.Chain, " -> "))
}

// Unwrap returns ErrCyclicInheritance for errors.Is support.
func (e *CycleError) Unwrap() error {
	return ErrCyclicInheritance
}

// UnboundVariableError names the variable that could not be bound.
type UnboundVariableError struct {
	Name  string
	Block string // Empty for anonymous blocks
}

// Error implements the error interface.
func (e *UnboundVariableError) Error() string {
	if e.Block != "" {
		return fmt.Sprintf("%v: %q in block %q", ErrUnboundVariable, e.Name, e.Block)
	}
	return fmt.Sprintf("%v: %q", ErrUnboundVariable, e.Name)
}

// Unwrap returns ErrUnboundVariable for errors.Is support.
func (e *UnboundVariableError) Unwrap() error {
	return ErrUnboundVariable
}
