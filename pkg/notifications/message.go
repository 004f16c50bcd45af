package notifications

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType defines the type of notification
type NotificationType string

const (
	// NotificationTypeAnnouncement posts a structured message to a channel.
	NotificationTypeAnnouncement NotificationType = "announcement"

	// NotificationTypeSummaryEdit replaces one field of an existing message.
	NotificationTypeSummaryEdit NotificationType = "summary_edit"

	// NotificationTypeDirectMessage sends a structured message to a user.
	NotificationTypeDirectMessage NotificationType = "direct_message"
)

// NotificationMessage is the envelope for all notifications
type NotificationMessage struct {
	// Message metadata
	ID        string           `json:"id"`        // Unique message ID (UUID)
	Type      NotificationType `json:"type"`      // Notification type
	Timestamp time.Time        `json:"timestamp"` // When published
	Priority  int              `json:"priority"`  // 0=normal, 1=high, 2=urgent

	// Chat targets
	ChannelID string `json:"channel_id,omitempty"` // Channel to post to or containing MessageID
	MessageID string `json:"message_id,omitempty"` // Message to edit

	// Record the notification is about (IUC or radicado)
	RecordCode string `json:"record_code,omitempty"`

	// Notification targets
	Recipients []Recipient `json:"recipients,omitempty"`

	// Structured content (presenter.Announcement encoded with mapstructure)
	TemplateContext map[string]any `json:"template_context,omitempty"`

	// Plain rendering for backends without structured output
	Subject string `json:"subject"`
	Body    string `json:"body"`

	// Backend routing (which backends should process this)
	Backends []string `json:"backends"` // ["discord", "audit"]

	// Retry tracking (set by consumers)
	RetryCount     int       `json:"retry_count,omitempty"`
	LastError      string    `json:"last_error,omitempty"`
	LastRetryAt    time.Time `json:"last_retry_at,omitempty"`
	NextRetryAt    time.Time `json:"next_retry_at,omitempty"`
	FailedBackends []string  `json:"failed_backends,omitempty"` // Track which backends failed
}

// Recipient defines a notification recipient
type Recipient struct {
	Name      string `json:"name,omitempty"`       // Display name
	DiscordID string `json:"discord_id,omitempty"` // Discord user ID
}

// NewMessage returns an envelope with a fresh id and timestamp.
func NewMessage(t NotificationType, backends []string) *NotificationMessage {
	return &NotificationMessage{
		ID:        uuid.New().String(),
		Type:      t,
		Timestamp: time.Now(),
		Backends:  backends,
	}
}

// TargetsBackend reports whether the message is routed to backend.
func (m *NotificationMessage) TargetsBackend(backend string) bool {
	for _, b := range m.Backends {
		if b == backend {
			return true
		}
	}
	return false
}
