package backends

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/procuraduria/docket/pkg/notifications"
)

// TestBackend is a scriptable backend used to exercise retry and DLQ paths
// of docket-notify without reaching Discord.
type TestBackend struct {
	mu       sync.RWMutex
	config   TestBackendConfig
	messages []TestBackendMessage
}

// TestBackendConfig configures the test backend behavior
type TestBackendConfig struct {
	FailureMode FailureMode

	// FailureCount is N for FailureModeFirstNFail.
	FailureCount int

	// FailureMessage is the error message to return
	FailureMessage string
}

// FailureMode defines how the test backend should behave
type FailureMode string

const (
	// FailureModeNone processes all messages successfully
	FailureModeNone FailureMode = "none"

	// FailureModeAlways always fails with a retryable error
	FailureModeAlways FailureMode = "always"

	// FailureModePermanent always fails with a permanent (non-retryable) error
	FailureModePermanent FailureMode = "permanent"

	// FailureModeFirstNFail fails the first N messages, then succeeds
	FailureModeFirstNFail FailureMode = "first_n_fail"
)

// TestBackendMessage records a processed message for verification
type TestBackendMessage struct {
	Message   *notifications.NotificationMessage
	Timestamp time.Time
	Err       error
}

// NewTestBackend creates a new test backend
func NewTestBackend(config TestBackendConfig) *TestBackend {
	if config.FailureMode == "" {
		config.FailureMode = FailureModeNone
	}
	return &TestBackend{config: config}
}

// Name returns the backend name
func (b *TestBackend) Name() string {
	return "test"
}

// SupportsBackend checks if this backend should process the message
func (b *TestBackend) SupportsBackend(backend string) bool {
	return backend == "test"
}

// Handle processes a notification message according to the configured failure mode
func (b *TestBackend) Handle(ctx context.Context, msg *notifications.NotificationMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := b.outcome(ctx)
	b.messages = append(b.messages, TestBackendMessage{
		Message:   msg,
		Timestamp: time.Now(),
		Err:       err,
	})
	return err
}

func (b *TestBackend) outcome(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return NewBackendError("test", "send", true, err)
	}

	errMsg := b.config.FailureMessage
	switch b.config.FailureMode {
	case FailureModeNone:
		return nil

	case FailureModeAlways:
		if errMsg == "" {
			errMsg = "simulated retryable failure"
		}
		return NewBackendError("test", "send", true, errors.New(errMsg))

	case FailureModePermanent:
		if errMsg == "" {
			errMsg = "simulated permanent failure"
		}
		return NewBackendError("test", "send", false, errors.New(errMsg))

	case FailureModeFirstNFail:
		if n := len(b.messages); n < b.config.FailureCount {
			return NewBackendError("test", "send", true,
				fmt.Errorf("simulated failure %d/%d", n+1, b.config.FailureCount))
		}
		return nil
	}

	return NewBackendError("test", "send", false,
		fmt.Errorf("unknown failure mode: %s", b.config.FailureMode))
}

// GetMessages returns all recorded messages
func (b *TestBackend) GetMessages() []TestBackendMessage {
	b.mu.RLock()
	defer b.mu.RUnlock()

	messages := make([]TestBackendMessage, len(b.messages))
	copy(messages, b.messages)
	return messages
}

// GetFailureCount returns the number of failed messages
func (b *TestBackend) GetFailureCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, msg := range b.messages {
		if msg.Err != nil {
			count++
		}
	}
	return count
}

// SetFailureMode dynamically changes the failure mode
func (b *TestBackend) SetFailureMode(mode FailureMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.config.FailureMode = mode
}
