package helper

import (
	"errors"
	"strings"
)

// Error wraps an original error with the steps it passed through on its way up.
// The outermost step comes first.
type Error struct {
	Original error
	Trace    []string
}

// NewError wraps err with the given trace step.
// Wrapping an *Error directly prepends the step instead of nesting.
func NewError(trace string, err error) error {
	if err == nil {
		return nil
	}

	if e, ok := err.(*Error); ok {
		return &Error{
			Original: e.Original,
			Trace:    append([]string{trace}, e.Trace...),
		}
	}

	return &Error{
		Original: err,
		Trace:    []string{trace},
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if len(e.Trace) == 0 {
		return e.Original.Error()
	}
	return strings.Join(e.Trace, ": ") + ": " + e.Original.Error()
}

// Unwrap returns the original error so errors.Is and errors.As see through the trace.
func (e *Error) Unwrap() error {
	return e.Original
}

// Sentinel categories every backend reports through.
var (
	// ErrNotFound signals that a requested id has no row. It is a normal outcome.
	ErrNotFound = errors.New("not found")
	// ErrValidation signals a missing or malformed input, rejected before storage is touched.
	ErrValidation = errors.New("validation failed")
	// ErrConflict signals that a uniqueness constraint would be violated.
	ErrConflict = errors.New("conflict")
	// ErrBackendUnavailable signals an unreachable or timed out engine. Callers may retry.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrNotImplemented signals an operation the selected backend cannot answer. Never retry.
	ErrNotImplemented = errors.New("not implemented")
)

var kinds = []error{ErrNotFound, ErrValidation, ErrConflict, ErrBackendUnavailable, ErrNotImplemented}

// StoreError is a categorized storage failure.
// errors.Is matches both its Kind and the wrapped cause.
type StoreError struct {
	Kind   error
	Op     string
	Detail string
	Err    error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Kind.Error())
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap exposes the category and the cause.
func (e *StoreError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func NewNotFoundError(op string, detail string) error {
	return &StoreError{Kind: ErrNotFound, Op: op, Detail: detail}
}

func NewValidationError(op string, detail string) error {
	return &StoreError{Kind: ErrValidation, Op: op, Detail: detail}
}

// NewConflictError reports a violated uniqueness constraint, e.g. "entities_slug_key".
func NewConflictError(op string, constraint string, err error) error {
	return &StoreError{Kind: ErrConflict, Op: op, Detail: constraint, Err: err}
}

func NewUnavailableError(op string, err error) error {
	return &StoreError{Kind: ErrBackendUnavailable, Op: op, Err: err}
}

func NewNotImplementedError(op string, backend string) error {
	return &StoreError{Kind: ErrNotImplemented, Op: op, Detail: backend + " backend has no mapping for this operation"}
}

// IsRetryable reports whether the caller may retry the failed operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}

// ErrorKind returns the sentinel category of err, or nil for uncategorized errors.
func ErrorKind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// KindName returns a short label for the category of err, used in logs and metrics.
func KindName(err error) string {
	switch ErrorKind(err) {
	case nil:
		if err == nil {
			return "ok"
		}
		return "error"
	case ErrNotFound:
		return "not_found"
	case ErrValidation:
		return "validation"
	case ErrConflict:
		return "conflict"
	case ErrBackendUnavailable:
		return "unavailable"
	default:
		return "not_implemented"
	}
}
