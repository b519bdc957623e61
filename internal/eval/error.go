package eval

import (
	"errors"
	"fmt"
)

// ErrorKind classifies evaluation failures. Every kind is fatal: the
// whole evaluation aborts and no partial text is returned.
type ErrorKind int

const (
	// NameConflict: a definition collides with an existing variable.
	NameConflict ErrorKind = iota
	// NameConflictWithFunction: a definition shadows a registry function.
	NameConflictWithFunction
	// UnknownSectionKind: the parser produced a section kind the
	// evaluator does not recognize. A collaborator contract violation.
	UnknownSectionKind
	// MissingRequiredParameter: a template invocation omitted a
	// required positional argument.
	MissingRequiredParameter
	// UnknownFunction: a function name is absent from the registry.
	UnknownFunction
	// DivisionByZero: arithmetic post-processing divides by a literal zero.
	DivisionByZero
	// InvariantViolation: a resolved variable carries the unknown type.
	// Indicates a bug in the environment builder, not bad input.
	InvariantViolation
)

// String returns the kind's name.
func (k ErrorKind) String() string {
	switch k {
	case NameConflict:
		return "NameConflict"
	case NameConflictWithFunction:
		return "NameConflictWithFunction"
	case UnknownSectionKind:
		return "UnknownSectionKind"
	case MissingRequiredParameter:
		return "MissingRequiredParameter"
	case UnknownFunction:
		return "UnknownFunction"
	case DivisionByZero:
		return "DivisionByZero"
	case InvariantViolation:
		return "InvariantViolation"
	}
	return "Unknown"
}

// Error is a typed evaluation failure carrying the offending name.
type Error struct {
	Kind ErrorKind
	Name string
}

// Error returns a human-readable message identifying the offending
// name or condition.
func (e *Error) Error() string {
	switch e.Kind {
	case NameConflict:
		return fmt.Sprintf("variable %q is already defined", e.Name)
	case NameConflictWithFunction:
		return fmt.Sprintf("variable %q conflicts with a function name", e.Name)
	case UnknownSectionKind:
		return fmt.Sprintf("unknown section kind %q", e.Name)
	case MissingRequiredParameter:
		return fmt.Sprintf("missing required parameter %q", e.Name)
	case UnknownFunction:
		return fmt.Sprintf("unknown function %q", e.Name)
	case DivisionByZero:
		return fmt.Sprintf("slot %q divides by zero", e.Name)
	case InvariantViolation:
		return fmt.Sprintf("variable %q has unresolved type", e.Name)
	}
	return fmt.Sprintf("evaluation error on %q", e.Name)
}

// IsKind reports whether err (or anything it wraps) is an evaluation
// Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
