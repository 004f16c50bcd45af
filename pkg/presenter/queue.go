package presenter

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/procuraduria/docket/pkg/notifications"
)

// MessagePublisher is satisfied by notifications.Publisher.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, msg *notifications.NotificationMessage) error
}

// Queue hands announcements to the notification topic, where docket-notify
// delivers them. Announcements published this way return a zero MessageRef,
// so case summaries cannot be edited later in this mode.
type Queue struct {
	publisher MessagePublisher
	backends  []string
}

// NewQueue returns a Queue presenter routing messages to backends.
func NewQueue(publisher MessagePublisher, backends ...string) *Queue {
	if len(backends) == 0 {
		backends = []string{"discord", "audit"}
	}
	return &Queue{publisher: publisher, backends: backends}
}

func (q *Queue) Announce(ctx context.Context, channelID string, a Announcement) (MessageRef, error) {
	msg, err := q.message(notifications.NotificationTypeAnnouncement, a)
	if err != nil {
		return MessageRef{}, err
	}
	msg.ChannelID = channelID

	if err := q.publisher.PublishMessage(ctx, msg); err != nil {
		return MessageRef{}, err
	}
	return MessageRef{}, nil
}

func (q *Queue) EditSummary(ctx context.Context, ref MessageRef, field, value string) error {
	msg, err := q.message(notifications.NotificationTypeSummaryEdit, Announcement{
		Fields: []Field{{Name: field, Value: Truncate(value, MaxFieldValue)}},
	})
	if err != nil {
		return err
	}
	msg.ChannelID = ref.ChannelID
	msg.MessageID = ref.MessageID

	return q.publisher.PublishMessage(ctx, msg)
}

func (q *Queue) DirectMessage(ctx context.Context, userID string, a Announcement) error {
	msg, err := q.message(notifications.NotificationTypeDirectMessage, a)
	if err != nil {
		return err
	}
	msg.Recipients = []notifications.Recipient{{DiscordID: userID}}

	return q.publisher.PublishMessage(ctx, msg)
}

func (q *Queue) message(t notifications.NotificationType, a Announcement) (*notifications.NotificationMessage, error) {
	var templateContext map[string]any
	if err := mapstructure.Decode(a, &templateContext); err != nil {
		return nil, fmt.Errorf("failed to encode announcement: %w", err)
	}

	msg := notifications.NewMessage(t, q.backends)
	if !a.Timestamp.IsZero() {
		msg.Timestamp = a.Timestamp
	}
	msg.Subject = a.Title
	msg.Body = a.Description
	msg.TemplateContext = templateContext
	return msg, nil
}

// DecodeAnnouncement rebuilds an announcement from a queued message.
func DecodeAnnouncement(msg *notifications.NotificationMessage) (Announcement, error) {
	var a Announcement
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &a,
	})
	if err != nil {
		return a, err
	}
	if err := decoder.Decode(msg.TemplateContext); err != nil {
		return a, fmt.Errorf("failed to decode announcement: %w", err)
	}
	if a.Title == "" {
		a.Title = msg.Subject
	}
	a.Timestamp = msg.Timestamp
	return a, nil
}
