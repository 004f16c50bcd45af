// Package presenter defines how record events reach the chat surface.
//
// Every call made through a Presenter is best-effort from the caller's point
// of view: the lifecycle manager logs failures and carries on.
package presenter

import (
	"context"
	"time"
)

// Embed colors.
const (
	ColorBlue     = 0x3498db
	ColorGreen    = 0x2ecc71
	ColorOrange   = 0xe67e22
	ColorDarkBlue = 0x206694
)

// MaxFieldValue is the longest value a chat embed field accepts.
const MaxFieldValue = 1024

// Field is a named section of an announcement.
type Field struct {
	Name   string `json:"name" mapstructure:"name"`
	Value  string `json:"value" mapstructure:"value"`
	Inline bool   `json:"inline,omitempty" mapstructure:"inline"`
}

// Announcement is a structured chat message.
type Announcement struct {
	// Content is plain text sent alongside the embed, e.g. a role mention.
	Content     string    `json:"content,omitempty" mapstructure:"content"`
	Title       string    `json:"title" mapstructure:"title"`
	Description string    `json:"description,omitempty" mapstructure:"description"`
	Color       int       `json:"color,omitempty" mapstructure:"color"`
	Fields      []Field   `json:"fields,omitempty" mapstructure:"fields"`
	Footer      string    `json:"footer,omitempty" mapstructure:"footer"`
	Timestamp   time.Time `json:"timestamp,omitempty" mapstructure:"-"`
}

// AddField appends a field, truncating its value to MaxFieldValue.
func (a *Announcement) AddField(name, value string, inline bool) {
	if value == "" {
		value = "-"
	}
	a.Fields = append(a.Fields, Field{Name: name, Value: Truncate(value, MaxFieldValue), Inline: inline})
}

// MessageRef locates a published message.
type MessageRef struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}

// IsZero reports whether the reference points nowhere.
func (r MessageRef) IsZero() bool {
	return r.ChannelID == "" || r.MessageID == ""
}

// Presenter publishes announcements to the chat surface.
type Presenter interface {
	// Announce posts a to channelID and returns where it landed. A zero ref
	// means the message cannot be edited later.
	Announce(ctx context.Context, channelID string, a Announcement) (MessageRef, error)

	// EditSummary replaces the value of the named field in the referenced
	// message, appending the field when it is missing.
	EditSummary(ctx context.Context, ref MessageRef, field, value string) error

	// DirectMessage sends a privately to userID.
	DirectMessage(ctx context.Context, userID string, a Announcement) error
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
