package backends

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/procuraduria/docket/pkg/notifications"
)

// Backend defines the interface for notification backends
type Backend interface {
	// Name returns the backend identifier
	Name() string

	// Handle processes a notification message
	Handle(ctx context.Context, msg *notifications.NotificationMessage) error

	// SupportsBackend checks if this backend should process the message
	SupportsBackend(backend string) bool
}

// BackendError represents an error from a specific backend
type BackendError struct {
	Backend   string // Backend name (e.g., "discord", "audit")
	Operation string // Operation that failed (e.g., "announce", "edit")
	Retryable bool   // Whether the error is retryable
	Err       error  // Underlying error
}

func (e *BackendError) Error() string {
	retryability := "permanent"
	if e.Retryable {
		retryability = "retryable"
	}
	return fmt.Sprintf("%s backend error (%s, %s): %v", e.Backend, e.Operation, retryability, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *BackendError) IsRetryable() bool {
	return e.Retryable
}

// NewBackendError creates a new backend error
func NewBackendError(backend, operation string, retryable bool, err error) *BackendError {
	return &BackendError{
		Backend:   backend,
		Operation: operation,
		Retryable: retryable,
		Err:       err,
	}
}

// Result is the outcome of routing one message.
type Result struct {
	// Handled lists the backends that accepted the message.
	Handled []string

	// Failed lists the backends whose failure may succeed on a later attempt.
	Failed []string

	// Err aggregates every backend failure, retryable or not.
	Err error
}

// Retryable reports whether any failure is worth another attempt.
func (r Result) Retryable() bool {
	return len(r.Failed) > 0
}

// Dispatch hands msg to every registered backend it targets. Backends that
// are targeted but not registered are reported as permanent failures.
func Dispatch(ctx context.Context, registry *Registry, msg *notifications.NotificationMessage) Result {
	var (
		res    Result
		merr   *multierror.Error
		routed = make(map[string]bool)
	)

	for _, target := range msg.Backends {
		backend, ok := registry.GetBackend(target)
		if !ok {
			merr = multierror.Append(merr, NewBackendError(target, "route", false, errors.New("backend not configured")))
			continue
		}
		if routed[backend.Name()] || !backend.SupportsBackend(target) {
			continue
		}
		routed[backend.Name()] = true

		if err := backend.Handle(ctx, msg); err != nil {
			merr = multierror.Append(merr, err)
			if isRetryable(err) {
				res.Failed = append(res.Failed, backend.Name())
			}
			continue
		}
		res.Handled = append(res.Handled, backend.Name())
	}

	res.Err = merr.ErrorOrNil()
	return res
}

func isRetryable(err error) bool {
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return backendErr.IsRetryable()
	}
	return true
}
