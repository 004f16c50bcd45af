package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Publisher publishes notifications to Redpanda/Kafka
type Publisher struct {
	client *kgo.Client
	topic  string
}

// PublisherConfig holds configuration for the publisher
type PublisherConfig struct {
	Brokers []string
	Topic   string
}

// NewPublisher creates a new notification publisher
func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),

		// Wait for all in-sync replicas; franz-go enables idempotency with it
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.GzipCompression()),

		// Linear backoff capped at 60s
		kgo.RetryBackoffFn(func(tries int) time.Duration {
			backoff := time.Duration(tries) * 100 * time.Millisecond
			if backoff > 60*time.Second {
				backoff = 60 * time.Second
			}
			return backoff
		}),
		kgo.RequestRetries(10),

		kgo.ProducerLinger(10*time.Millisecond),
		kgo.ProducerBatchMaxBytes(1<<20),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return &Publisher{
		client: client,
		topic:  cfg.Topic,
	}, nil
}

// PublishMessage publishes a pre-built notification message
func (p *Publisher) PublishMessage(ctx context.Context, msg *NotificationMessage) error {
	record, err := NewRecord(p.topic, msg)
	if err != nil {
		return err
	}

	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	return nil
}

// Close closes the publisher
func (p *Publisher) Close() {
	p.client.Close()
}

// NewRecord encodes msg as a record for topic.
func NewRecord(topic string, msg *NotificationMessage) (*kgo.Record, error) {
	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification message: %w", err)
	}

	return &kgo.Record{
		Topic: topic,
		Key:   []byte(PartitionKey(msg)),
		Value: msgJSON,
	}, nil
}

// ParseRecord decodes a record produced by NewRecord.
func ParseRecord(record *kgo.Record) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(record.Value, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return &msg, nil
}

// PartitionKey keeps messages about one chat message or record in order.
func PartitionKey(msg *NotificationMessage) string {
	// An edit must land after the announcement that created the message
	if msg.ChannelID != "" {
		return fmt.Sprintf("channel:%s", msg.ChannelID)
	}

	if len(msg.Recipients) > 0 && msg.Recipients[0].DiscordID != "" {
		return fmt.Sprintf("user:%s", msg.Recipients[0].DiscordID)
	}

	if msg.RecordCode != "" {
		return fmt.Sprintf("record:%s", msg.RecordCode)
	}

	return msg.ID
}
