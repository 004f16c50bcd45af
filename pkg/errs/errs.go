// Package errs defines the error kinds returned by docket operations.
//
// Callers match kinds with errors.Is against the exported sentinels:
//
//	if errors.Is(err, errs.ErrNotFound) { ... }
package errs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	// ErrValidation marks malformed input: a bad type letter, an out-of-range
	// sequence number or a malformed code.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a reference that does not resolve, or one the caller
	// is not allowed to see.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState marks an operation the current lifecycle state forbids.
	ErrInvalidState = errors.New("invalid state")

	// ErrDuplicate marks a uniqueness violation.
	ErrDuplicate = errors.New("duplicate")

	// ErrPermissionDenied marks a failed authorization predicate.
	ErrPermissionDenied = errors.New("permission denied")
)

// Error is a classified error. Kind is one of the sentinels above.
type Error struct {
	Kind    error
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(e.Kind.Error())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind error, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Validation returns a new validation error.
func Validation(op, format string, args ...any) error {
	return newError(ErrValidation, op, format, args...)
}

// NotFound returns a new not-found error.
func NotFound(op, format string, args ...any) error {
	return newError(ErrNotFound, op, format, args...)
}

// InvalidState returns a new invalid-state error.
func InvalidState(op, format string, args ...any) error {
	return newError(ErrInvalidState, op, format, args...)
}

// Duplicate returns a new duplicate error.
func Duplicate(op, format string, args ...any) error {
	return newError(ErrDuplicate, op, format, args...)
}

// PermissionDenied returns a new permission error.
func PermissionDenied(op, format string, args ...any) error {
	return newError(ErrPermissionDenied, op, format, args...)
}

// WithKind classifies err as kind, keeping err in the chain.
func WithKind(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrap adds context and preserves the error chain.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf adds formatted context and preserves the error chain.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	args = append(args, err)
	return fmt.Errorf(format+": %w", args...)
}

// IsUniqueViolation reports whether err comes from a unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsNotFoundRecord reports whether err is gorm's record-not-found.
func IsNotFoundRecord(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsBusy reports whether err is a transient lock error from sqlite.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}

// FromDB translates persistence errors at the store boundary. Unique
// violations become ErrDuplicate and gorm.ErrRecordNotFound becomes
// ErrNotFound. Anything else is wrapped with op.
func FromDB(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrNotFound):
		return err
	case IsUniqueViolation(err):
		return WithKind(ErrDuplicate, op, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return WithKind(ErrNotFound, op, err)
	default:
		return Wrap(err, op)
	}
}
