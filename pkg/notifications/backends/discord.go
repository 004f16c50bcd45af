package backends

import (
	"context"
	"errors"
	"fmt"

	"github.com/procuraduria/docket/pkg/notifications"
	"github.com/procuraduria/docket/pkg/presenter"
	"github.com/procuraduria/docket/pkg/presenter/discord"
)

// DiscordBackend replays queued announcements against a chat presenter,
// normally a discord.Client.
type DiscordBackend struct {
	presenter presenter.Presenter
}

// NewDiscordBackend creates a new discord backend
func NewDiscordBackend(p presenter.Presenter) *DiscordBackend {
	return &DiscordBackend{presenter: p}
}

// Name returns the backend identifier
func (b *DiscordBackend) Name() string {
	return "discord"
}

// SupportsBackend checks if this backend should process the message
func (b *DiscordBackend) SupportsBackend(backend string) bool {
	return backend == "discord"
}

// Handle processes a notification message
func (b *DiscordBackend) Handle(ctx context.Context, msg *notifications.NotificationMessage) error {
	a, err := presenter.DecodeAnnouncement(msg)
	if err != nil {
		return NewBackendError(b.Name(), "decode", false, err)
	}

	switch msg.Type {
	case notifications.NotificationTypeAnnouncement:
		if msg.ChannelID == "" {
			return NewBackendError(b.Name(), "announce", false, errors.New("channel id is required"))
		}
		if _, err := b.presenter.Announce(ctx, msg.ChannelID, a); err != nil {
			return NewBackendError(b.Name(), "announce", retryable(err), err)
		}

	case notifications.NotificationTypeSummaryEdit:
		if len(a.Fields) != 1 {
			return NewBackendError(b.Name(), "edit", false, fmt.Errorf("expected one field, got %d", len(a.Fields)))
		}
		ref := presenter.MessageRef{ChannelID: msg.ChannelID, MessageID: msg.MessageID}
		if err := b.presenter.EditSummary(ctx, ref, a.Fields[0].Name, a.Fields[0].Value); err != nil {
			return NewBackendError(b.Name(), "edit", retryable(err), err)
		}

	case notifications.NotificationTypeDirectMessage:
		if len(msg.Recipients) == 0 {
			return NewBackendError(b.Name(), "direct_message", false, errors.New("no recipients"))
		}
		for _, r := range msg.Recipients {
			if err := b.presenter.DirectMessage(ctx, r.DiscordID, a); err != nil {
				return NewBackendError(b.Name(), "direct_message", retryable(err), err)
			}
		}

	default:
		return NewBackendError(b.Name(), "route", false, fmt.Errorf("unsupported notification type %q", msg.Type))
	}

	return nil
}

// retryable treats transport failures as transient and API rejections as
// permanent unless Discord itself says otherwise.
func retryable(err error) bool {
	var apiErr *discord.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return true
}
