package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

const DefaultDLQTopic = "docket.notifications.dlq"

// DLQMessage represents a message in the Dead Letter Queue
type DLQMessage struct {
	// Original message that failed
	OriginalMessage *NotificationMessage `json:"original_message"`

	// Failure metadata
	FailureReason  string    `json:"failure_reason"`
	FailedBackends []string  `json:"failed_backends"`
	RetryCount     int       `json:"retry_count"`
	FirstFailureAt time.Time `json:"first_failure_at"`
	LastFailureAt  time.Time `json:"last_failure_at"`
	DLQTimestamp   time.Time `json:"dlq_timestamp"`

	// Original message metadata for tracking
	MessageID        string           `json:"message_id"`
	NotificationType NotificationType `json:"notification_type"`
	RecordCode       string           `json:"record_code,omitempty"`
	ChannelID        string           `json:"channel_id,omitempty"`
}

// NewDLQMessage wraps msg with failure metadata.
func NewDLQMessage(msg *NotificationMessage, failureReason string, now time.Time) DLQMessage {
	firstFailureAt := msg.LastRetryAt
	if firstFailureAt.IsZero() {
		firstFailureAt = msg.Timestamp
	}

	return DLQMessage{
		OriginalMessage:  msg,
		FailureReason:    failureReason,
		FailedBackends:   msg.FailedBackends,
		RetryCount:       msg.RetryCount,
		FirstFailureAt:   firstFailureAt,
		LastFailureAt:    now,
		DLQTimestamp:     now,
		MessageID:        msg.ID,
		NotificationType: msg.Type,
		RecordCode:       msg.RecordCode,
		ChannelID:        msg.ChannelID,
	}
}

// DLQPublisher publishes messages to the Dead Letter Queue
type DLQPublisher struct {
	client *kgo.Client
	topic  string
}

// DLQPublisherConfig holds DLQ publisher configuration
type DLQPublisherConfig struct {
	Brokers []string
	Topic   string
}

// NewDLQPublisher creates a new DLQ publisher
func NewDLQPublisher(cfg DLQPublisherConfig) (*DLQPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultDLQTopic
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.GzipCompression()),
		kgo.RequestRetries(10),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create DLQ kafka client: %w", err)
	}

	return &DLQPublisher{
		client: client,
		topic:  cfg.Topic,
	}, nil
}

// PublishToDLQ publishes a failed notification to the DLQ
func (p *DLQPublisher) PublishToDLQ(ctx context.Context, msg *NotificationMessage, failureReason string) error {
	dlqJSON, err := json.Marshal(NewDLQMessage(msg, failureReason, time.Now()))
	if err != nil {
		return fmt.Errorf("failed to marshal DLQ message: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(msg.ID),
		Value: dlqJSON,
	}

	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to publish to DLQ: %w", err)
	}

	return nil
}

// Close closes the DLQ publisher
func (p *DLQPublisher) Close() {
	p.client.Close()
}
