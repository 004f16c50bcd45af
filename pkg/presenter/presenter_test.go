package presenter

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procuraduria/docket/pkg/notifications"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "abc", 5, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"cut", "abcdef", 5, "abcd…"},
		{"runes", "ñññññññ", 3, "ññ…"},
		{"one", "abc", 1, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.n))
		})
	}
}

func TestAddField(t *testing.T) {
	var a Announcement
	a.AddField("IUC", "IUC-D-2025-0001", true)
	a.AddField("Adjuntos", "", false)
	a.AddField("Largo", strings.Repeat("x", 2000), false)

	require.Len(t, a.Fields, 3)
	assert.Equal(t, Field{Name: "IUC", Value: "IUC-D-2025-0001", Inline: true}, a.Fields[0])
	assert.Equal(t, "-", a.Fields[1].Value)
	assert.Len(t, []rune(a.Fields[2].Value), MaxFieldValue)
}

func TestMessageRefIsZero(t *testing.T) {
	assert.True(t, MessageRef{}.IsZero())
	assert.True(t, MessageRef{ChannelID: "c"}.IsZero())
	assert.False(t, MessageRef{ChannelID: "c", MessageID: "m"}.IsZero())
}

func TestLogPresenter(t *testing.T) {
	p := NewLog(hclog.NewNullLogger())
	ctx := context.Background()

	ref, err := p.Announce(ctx, "c1", Announcement{Title: "Nuevo caso registrado"})
	require.NoError(t, err)
	assert.True(t, ref.IsZero())
	assert.NoError(t, p.EditSummary(ctx, MessageRef{ChannelID: "c1", MessageID: "m1"}, "Adjuntos", "Ninguno"))
	assert.NoError(t, p.DirectMessage(ctx, "u1", Announcement{Title: "hola"}))
}

type recordingPublisher struct {
	messages []*notifications.NotificationMessage
	err      error
}

func (r *recordingPublisher) PublishMessage(ctx context.Context, msg *notifications.NotificationMessage) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, msg)
	return nil
}

func TestQueuePresenter(t *testing.T) {
	ctx := context.Background()
	stamp := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)

	t.Run("announce", func(t *testing.T) {
		pub := &recordingPublisher{}
		q := NewQueue(pub)

		a := Announcement{Title: "Nuevo caso registrado", Color: ColorGreen, Timestamp: stamp}
		a.AddField("IUC", "IUC-E-2025-0001", true)
		a.AddField("Adjuntos", "Ninguno", false)

		ref, err := q.Announce(ctx, "records", a)
		require.NoError(t, err)
		assert.True(t, ref.IsZero())

		require.Len(t, pub.messages, 1)
		msg := pub.messages[0]
		assert.Equal(t, notifications.NotificationTypeAnnouncement, msg.Type)
		assert.Equal(t, "records", msg.ChannelID)
		assert.Equal(t, "Nuevo caso registrado", msg.Subject)
		assert.Equal(t, []string{"discord", "audit"}, msg.Backends)
		assert.Equal(t, stamp, msg.Timestamp)
	})

	t.Run("survives the wire", func(t *testing.T) {
		pub := &recordingPublisher{}
		q := NewQueue(pub, "discord")

		a := Announcement{Content: "<@&42>", Title: "📨 Nueva PQRS: PQRS-2025-0001", Color: ColorOrange, Footer: "pie", Timestamp: stamp}
		a.AddField("Tipo", "QUEJA", true)
		require.NoError(t, q.DirectMessage(ctx, "u1", a))

		require.Len(t, pub.messages, 1)
		raw, err := json.Marshal(pub.messages[0])
		require.NoError(t, err)
		var decoded notifications.NotificationMessage
		require.NoError(t, json.Unmarshal(raw, &decoded))

		assert.Equal(t, "u1", decoded.Recipients[0].DiscordID)
		got, err := DecodeAnnouncement(&decoded)
		require.NoError(t, err)
		assert.Equal(t, a.Content, got.Content)
		assert.Equal(t, a.Title, got.Title)
		assert.Equal(t, a.Color, got.Color)
		assert.Equal(t, a.Footer, got.Footer)
		assert.Equal(t, a.Fields, got.Fields)
		assert.True(t, stamp.Equal(got.Timestamp))
	})

	t.Run("summary edit", func(t *testing.T) {
		pub := &recordingPublisher{}
		q := NewQueue(pub)

		err := q.EditSummary(ctx, MessageRef{ChannelID: "c1", MessageID: "m1"}, "Adjuntos", "1. AUTO 3 (2025) - x")
		require.NoError(t, err)

		msg := pub.messages[0]
		assert.Equal(t, notifications.NotificationTypeSummaryEdit, msg.Type)
		assert.Equal(t, "m1", msg.MessageID)

		got, err := DecodeAnnouncement(msg)
		require.NoError(t, err)
		assert.Equal(t, []Field{{Name: "Adjuntos", Value: "1. AUTO 3 (2025) - x"}}, got.Fields)
	})

	t.Run("publish failure", func(t *testing.T) {
		q := NewQueue(&recordingPublisher{err: errors.New("broker down")})
		_, err := q.Announce(ctx, "c1", Announcement{Title: "x"})
		assert.Error(t, err)
	})
}
