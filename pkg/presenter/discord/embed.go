package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/procuraduria/docket/pkg/presenter"
)

func newEmbed(a presenter.Announcement) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       presenter.Truncate(a.Title, maxTitle),
		Description: presenter.Truncate(a.Description, maxDescription),
		Color:       a.Color,
	}
	for _, f := range a.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:   presenter.Truncate(f.Name, maxTitle),
			Value:  presenter.Truncate(f.Value, presenter.MaxFieldValue),
			Inline: f.Inline,
		})
	}
	if a.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: a.Footer}
	}
	if !a.Timestamp.IsZero() {
		e.Timestamp = a.Timestamp.UTC().Format(time.RFC3339)
	}
	return e
}

func newMessageSend(a presenter.Announcement) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content: presenter.Truncate(a.Content, maxContent),
		Embeds:  []*discordgo.MessageEmbed{newEmbed(a)},
	}
}

// setField replaces the value of the named field, appending it when missing.
func setField(e *discordgo.MessageEmbed, name, value string) {
	for _, f := range e.Fields {
		if f.Name == name {
			f.Value = value
			return
		}
	}
	e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: name, Value: value})
}
