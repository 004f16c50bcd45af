package notifications

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (default: 5)
	MaxRetries int

	// InitialBackoff is the initial backoff duration (default: 30 seconds)
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration (default: 30 minutes)
	MaxBackoff time.Duration

	// BackoffMultiplier is the backoff multiplier for exponential backoff (default: 2)
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        5,
		InitialBackoff:    30 * time.Second,
		MaxBackoff:        30 * time.Minute,
		BackoffMultiplier: 2.0,
	}
}

// MessagePublisher publishes a message back to the notification topic.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, msg *NotificationMessage) error
}

// DeadLetterWriter parks a message that exhausted its retries.
type DeadLetterWriter interface {
	PublishToDLQ(ctx context.Context, msg *NotificationMessage, failureReason string) error
}

// RetryHandler handles retry logic for failed notifications
type RetryHandler struct {
	config    RetryConfig
	publisher MessagePublisher
	dlq       DeadLetterWriter
	now       func() time.Time
}

// NewRetryHandler creates a new retry handler. dlq may be nil.
func NewRetryHandler(config RetryConfig, publisher MessagePublisher, dlq DeadLetterWriter) *RetryHandler {
	return &RetryHandler{
		config:    config,
		publisher: publisher,
		dlq:       dlq,
		now:       time.Now,
	}
}

// CalculateNextRetry returns min(initialBackoff * multiplier^retryCount, maxBackoff).
func (h *RetryHandler) CalculateNextRetry(retryCount int) time.Duration {
	backoff := float64(h.config.InitialBackoff)
	for i := 0; i < retryCount; i++ {
		backoff *= h.config.BackoffMultiplier
		if time.Duration(backoff) >= h.config.MaxBackoff {
			return h.config.MaxBackoff
		}
	}
	return time.Duration(backoff)
}

// ShouldRetry determines if a message should be retried
func (h *RetryHandler) ShouldRetry(msg *NotificationMessage) bool {
	return msg.RetryCount < h.config.MaxRetries
}

// PrepareRetry returns a copy of msg carrying updated retry metadata. Only
// the failed backends are targeted again.
func (h *RetryHandler) PrepareRetry(msg *NotificationMessage, err error, failedBackends []string) *NotificationMessage {
	now := h.now()
	retryCount := msg.RetryCount + 1

	retryMsg := *msg
	retryMsg.RetryCount = retryCount
	retryMsg.LastError = err.Error()
	retryMsg.LastRetryAt = now
	retryMsg.NextRetryAt = now.Add(h.CalculateNextRetry(retryCount))
	retryMsg.FailedBackends = failedBackends
	if len(failedBackends) > 0 {
		retryMsg.Backends = failedBackends
	}

	return &retryMsg
}

// HandleFailure either republishes msg for a later attempt or, once retries
// are exhausted, parks it in the DLQ. Consumers hold a republished message
// until its NextRetryAt.
func (h *RetryHandler) HandleFailure(ctx context.Context, msg *NotificationMessage, err error, failedBackends []string) error {
	if h.ShouldRetry(msg) {
		retryMsg := h.PrepareRetry(msg, err, failedBackends)
		if err := h.publisher.PublishMessage(ctx, retryMsg); err != nil {
			return fmt.Errorf("failed to schedule retry: %w", err)
		}
		return nil
	}

	return h.PublishToDLQ(ctx, msg, err, failedBackends)
}

// PublishToDLQ publishes a message to the Dead Letter Queue.
func (h *RetryHandler) PublishToDLQ(ctx context.Context, msg *NotificationMessage, err error, failedBackends []string) error {
	if h.dlq == nil {
		return fmt.Errorf("message %s exceeded max retries (%d) and no DLQ is configured: %w", msg.ID, h.config.MaxRetries, err)
	}

	final := *msg
	final.LastError = err.Error()
	final.FailedBackends = failedBackends

	reason := fmt.Sprintf("Exceeded max retries (%d). Last error: %s", msg.RetryCount, err)
	return h.dlq.PublishToDLQ(ctx, &final, reason)
}

// WaitUntilDue blocks until msg.NextRetryAt or ctx is done.
func WaitUntilDue(ctx context.Context, msg *NotificationMessage) error {
	if msg.NextRetryAt.IsZero() {
		return nil
	}
	wait := time.Until(msg.NextRetryAt)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
