package presenter

import (
	"context"

	"github.com/hashicorp/go-hclog"
)

// Log writes announcements to a logger. It is used when no chat surface is
// configured and never fails.
type Log struct {
	logger hclog.Logger
}

// NewLog returns a Log presenter.
func NewLog(logger hclog.Logger) *Log {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Log{logger: logger}
}

func (l *Log) Announce(ctx context.Context, channelID string, a Announcement) (MessageRef, error) {
	l.logger.Info("announcement",
		"channel", channelID,
		"title", a.Title,
		"fields", len(a.Fields),
	)
	for _, f := range a.Fields {
		l.logger.Debug("announcement field", "name", f.Name, "value", f.Value)
	}
	return MessageRef{}, nil
}

func (l *Log) EditSummary(ctx context.Context, ref MessageRef, field, value string) error {
	l.logger.Info("summary edit",
		"channel", ref.ChannelID,
		"message", ref.MessageID,
		"field", field,
		"value", value,
	)
	return nil
}

func (l *Log) DirectMessage(ctx context.Context, userID string, a Announcement) error {
	l.logger.Info("direct message", "user", userID, "title", a.Title)
	return nil
}
