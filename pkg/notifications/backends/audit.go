package backends

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/procuraduria/docket/pkg/notifications"
)

// AuditBackend logs all notifications for compliance and debugging
type AuditBackend struct {
	logger hclog.Logger
}

// NewAuditBackend creates a new audit backend
func NewAuditBackend(logger hclog.Logger) *AuditBackend {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &AuditBackend{logger: logger}
}

// Name returns the backend identifier
func (b *AuditBackend) Name() string {
	return "audit"
}

// SupportsBackend checks if this backend should process the message
func (b *AuditBackend) SupportsBackend(backend string) bool {
	return backend == "audit"
}

// Handle processes a notification message
func (b *AuditBackend) Handle(ctx context.Context, msg *notifications.NotificationMessage) error {
	args := []any{
		"id", msg.ID,
		"type", msg.Type,
		"timestamp", msg.Timestamp.Format(time.RFC3339),
		"retry_count", msg.RetryCount,
	}
	if msg.RecordCode != "" {
		args = append(args, "record", msg.RecordCode)
	}
	if msg.ChannelID != "" {
		args = append(args, "channel", msg.ChannelID)
	}
	if msg.MessageID != "" {
		args = append(args, "message", msg.MessageID)
	}
	if len(msg.Recipients) > 0 {
		args = append(args, "recipients", formatRecipients(msg.Recipients))
	}
	if msg.Subject != "" {
		args = append(args, "subject", msg.Subject)
	}

	b.logger.Info("notification", args...)
	if msg.Body != "" {
		b.logger.Debug("notification body", "id", msg.ID, "body", msg.Body)
	}
	return nil
}

func formatRecipients(recipients []notifications.Recipient) string {
	var parts []string
	for _, r := range recipients {
		switch {
		case r.Name != "" && r.DiscordID != "":
			parts = append(parts, r.Name+" <"+r.DiscordID+">")
		case r.DiscordID != "":
			parts = append(parts, r.DiscordID)
		case r.Name != "":
			parts = append(parts, r.Name)
		}
	}
	return strings.Join(parts, ", ")
}
