package vlbi

import "fmt"

// ErrorKind enumerates the core's abstract error categories.
type ErrorKind int

const (
	// ErrDuplicateName indicates a name already exists in a registry.
	ErrDuplicateName ErrorKind = iota
	// ErrUnknownName indicates a registry lookup failed to find a name.
	ErrUnknownName
	// ErrDimensionMismatch indicates two models/grids have incompatible shapes.
	ErrDimensionMismatch
	// ErrBelowHorizon indicates a projection could not place a real (u,v);
	// callers skip the sample, it is not surfaced as a hard failure.
	ErrBelowHorizon
	// ErrOutOfGrid indicates a computed grid index fell outside bounds.
	ErrOutOfGrid
	// ErrCancelled indicates the caller's interrupt flag was observed.
	ErrCancelled
	// ErrInvalidInput indicates malformed input (e.g. unsupported bitspersample).
	ErrInvalidInput
	// ErrResourceExhaustion indicates the worker pool could not be created.
	ErrResourceExhaustion
)

func (k ErrorKind) String() string {
	switch k {
	case ErrDuplicateName:
		return "DuplicateName"
	case ErrUnknownName:
		return "UnknownName"
	case ErrDimensionMismatch:
		return "DimensionMismatch"
	case ErrBelowHorizon:
		return "BelowHorizon"
	case ErrOutOfGrid:
		return "OutOfGrid"
	case ErrCancelled:
		return "Cancelled"
	case ErrInvalidInput:
		return "InvalidInput"
	case ErrResourceExhaustion:
		return "ResourceExhaustion"
	default:
		return "Unknown"
	}
}

// Error is the core's error type: a Kind plus a human-readable message.
// Callers that need to branch on the kind should use errors.As and inspect
// Kind rather than string-matching Error().
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("vlbi: %s: %s", e.Kind, e.Message)
}

// newErr constructs an *Error, the package's single error constructor.
func newErr(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
