package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/procuraduria/docket/pkg/authz"
	"github.com/procuraduria/docket/pkg/models"
	"github.com/procuraduria/docket/pkg/presenter"
)

const (
	// AttachmentsField is the embed field holding a case's attachments.
	AttachmentsField = "Adjuntos"

	// NoAttachments is the summary of a case without documents.
	NoAttachments = "Ninguno"

	closedAtLayout = "2006-01-02 15:04:05"
	footer         = "Procuraduría General de la Nación"
)

// AttachmentsSummary renders docs, already in attachment order, as a
// numbered list.
func AttachmentsSummary(docs []models.Document) string {
	if len(docs) == 0 {
		return NoAttachments
	}

	lines := make([]string, 0, len(docs))
	for i, d := range docs {
		lines = append(lines, fmt.Sprintf("%d. %s %s (%d) - %s\n   IUS: %s\n   Link: %s",
			i+1, d.Kind, d.Number, d.Year, d.Title, d.IUSValue(), d.Link))
	}
	return strings.Join(lines, "\n")
}

func caseAnnouncement(c *models.Case, actor authz.Caller) presenter.Announcement {
	a := presenter.Announcement{
		Title:     "Nuevo caso registrado",
		Color:     presenter.ColorGreen,
		Timestamp: c.OpenedAt,
	}
	a.AddField("IUC", c.Code, true)
	a.AddField("Tipo", c.Type, true)
	a.AddField("Implicado", c.Implicated, false)
	a.AddField("Visibilidad", string(c.Visibility), true)
	a.AddField("Registrado por", callerName(actor), true)
	a.AddField(AttachmentsField, NoAttachments, false)
	return a
}

func documentAnnouncement(d *models.Document, actor authz.Caller) presenter.Announcement {
	a := presenter.Announcement{
		Title:     "Nuevo documento registrado",
		Color:     presenter.ColorBlue,
		Timestamp: d.RegisteredAt,
	}
	a.AddField("Documento", d.Label(), false)
	a.AddField("Título", d.Title, false)
	if parent := d.AttachedTo(); parent != "" {
		a.AddField("Adjunto a IUC", parent, true)
		a.AddField("IUS generado", d.IUSValue(), true)
	}
	a.AddField("Registrado por", callerName(actor), true)
	a.AddField("Link", d.Link, false)
	return a
}

func archiveAnnouncement(code string, actor authz.Caller, closedAt time.Time) presenter.Announcement {
	a := presenter.Announcement{
		Title:     "Proceso archivado",
		Color:     presenter.ColorDarkBlue,
		Timestamp: closedAt,
	}
	a.AddField("IUC", code, true)
	a.AddField("Archivado por", callerName(actor), true)
	a.AddField("Fecha", closedAt.Format(closedAtLayout), false)
	return a
}

func petitionAnnouncement(p *models.Petition, mention string) presenter.Announcement {
	a := presenter.Announcement{
		Content:   mention,
		Title:     "📨 Nueva PQRS: " + p.Radicado,
		Color:     presenter.ColorOrange,
		Timestamp: p.FiledAt,
	}
	a.AddField("Tipo", p.Type, true)
	a.AddField("Radicado", p.Radicado, true)
	a.AddField("Usuario", userMention(p.RequesterID, p.RequesterName), true)
	a.AddField("Asunto", p.Subject, false)
	a.AddField("Descripción", presenter.Truncate(p.Body, 1000), false)
	return a
}

func answerAnnouncement(p *models.Petition) presenter.Announcement {
	a := presenter.Announcement{
		Title:  "📬 Respuesta a su PQRS " + p.Radicado,
		Color:  presenter.ColorGreen,
		Footer: footer,
	}
	if p.AnsweredAt != nil {
		a.Timestamp = *p.AnsweredAt
	}
	a.AddField("Asunto", p.Subject, false)
	a.AddField("Respuesta", p.Answer, false)
	return a
}

func userMention(id, name string) string {
	if id == "" || id == authz.LocalOperator("").ID {
		return name
	}
	return "<@" + id + ">"
}
