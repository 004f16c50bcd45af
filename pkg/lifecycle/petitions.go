package lifecycle

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"

	"github.com/procuraduria/docket/pkg/authz"
	"github.com/procuraduria/docket/pkg/codes"
	"github.com/procuraduria/docket/pkg/errs"
	"github.com/procuraduria/docket/pkg/models"
)

// FilePetitionInput describes a new petition.
type FilePetitionInput struct {
	// Type is one of the letters P, Q, R or S.
	Type    string
	Subject string
	Body    string
}

// AnswerOutcome reports an answered petition and whether its requester
// received the answer by direct message.
type AnswerOutcome struct {
	Petition          *models.Petition
	RequesterNotified bool
}

var petitionTypes = map[string]string{
	"P": models.PetitionTypePetition,
	"Q": models.PetitionTypeComplaint,
	"R": models.PetitionTypeClaim,
	"S": models.PetitionTypeRequest,
}

// ParsePetitionType maps a type letter to the persisted type name.
func ParsePetitionType(s string) (string, error) {
	if name, ok := petitionTypes[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return name, nil
	}
	return "", errs.Validation("parse petition type", "invalid petition type %q, use P, Q, R or S", s)
}

// FilePetition files a petition on behalf of requester and notifies staff.
func (m *Manager) FilePetition(ctx context.Context, requester authz.Caller, in FilePetitionInput) (*models.Petition, error) {
	const op = "file petition"

	petitionType, err := ParsePetitionType(in.Type)
	if err != nil {
		return nil, err
	}
	subject := strings.TrimSpace(in.Subject)
	body := strings.TrimSpace(in.Body)
	verrs := validation.Errors{
		"requester": validation.Validate(requester.ID, validation.Required),
		"subject":   validation.Validate(subject, validation.Required, validation.RuneLength(1, 200)),
		"body":      validation.Validate(body, validation.Required, validation.RuneLength(1, 2000)),
	}
	if err := verrs.Filter(); err != nil {
		return nil, errs.WithKind(errs.ErrValidation, op, err)
	}

	now := m.now()
	var p models.Petition
	err = m.mintTransaction(ctx, op, true, func(tx *gorm.DB) error {
		code, err := m.codes.NextPetitionCode(tx, now.Year())
		if err != nil {
			return err
		}
		p = models.Petition{
			Radicado:      code.String(),
			Type:          petitionType,
			RequesterID:   requester.ID,
			RequesterName: callerName(requester),
			Subject:       subject,
			Body:          body,
			Status:        models.PetitionStatusPending,
			FiledAt:       now,
		}
		return p.Create(tx)
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("petition filed", "radicado", p.Radicado, "type", p.Type, "requester", p.RequesterID)

	ref := m.announce(ctx, m.config.PetitionsChannelID, petitionAnnouncement(&p, m.config.StaffMention))
	if ref.MessageID != "" {
		err := m.db.WithContext(ctx).Model(&models.Petition{}).
			Where("id = ?", p.ID).
			Update("canal_mensaje_id", ref.MessageID).Error
		if err != nil {
			m.logger.Warn("failed to store petition message id", "radicado", p.Radicado, "error", err)
		} else {
			p.MessageID = ref.MessageID
		}
	}

	return &p, nil
}

// AnswerPetition records the answer to a petition and sends it to the
// requester. Answering again replaces the previous answer.
func (m *Manager) AnswerPetition(ctx context.Context, actor authz.Caller, radicado, answer string) (*AnswerOutcome, error) {
	const op = "answer petition"
	if !m.config.Policy.IsResponder(actor) {
		return nil, errs.PermissionDenied(op, "caller %s may not answer petitions", callerName(actor))
	}
	answer = strings.TrimSpace(answer)
	if err := validation.Validate(answer, validation.Required); err != nil {
		return nil, errs.WithKind(errs.ErrValidation, op, errs.Wrap(err, "answer"))
	}
	radicado = codes.NormalizeCode(radicado)

	answeredAt := m.now()
	var p models.Petition
	err := m.transaction(ctx, func(tx *gorm.DB) error {
		if err := p.GetByRadicado(tx, radicado); err != nil {
			return err
		}
		p.Status = models.PetitionStatusAnswered
		p.Answer = answer
		p.AnsweredAt = &answeredAt
		p.AnsweredBy = callerName(actor)
		return tx.Model(&models.Petition{}).
			Where("id = ?", p.ID).
			Updates(map[string]any{
				"estado":          models.PetitionStatusAnswered,
				"respuesta":       answer,
				"fecha_respuesta": answeredAt,
				"respondido_por":  p.AnsweredBy,
			}).Error
	})
	if err != nil {
		return nil, errs.FromDB(op, err)
	}

	m.logger.Info("petition answered", "radicado", radicado, "actor", callerName(actor))

	outcome := &AnswerOutcome{Petition: &p}
	if err := m.presenter.DirectMessage(ctx, p.RequesterID, answerAnnouncement(&p)); err != nil {
		m.logger.Warn("failed to deliver petition answer", "radicado", radicado, "requester", p.RequesterID, "error", err)
	} else {
		outcome.RequesterNotified = true
	}

	return outcome, nil
}

// QueryPetition returns a petition to the requester who filed it. Any other
// caller gets the same not-found error as for an unknown radicado.
func (m *Manager) QueryPetition(ctx context.Context, radicado string, requester authz.Caller) (*models.Petition, error) {
	radicado = codes.NormalizeCode(radicado)

	var p models.Petition
	if err := p.GetByRadicado(m.db.WithContext(ctx), radicado); err != nil {
		return nil, err
	}
	if requester.ID == "" || p.RequesterID != requester.ID {
		return nil, errs.NotFound("get petition", "petition %s not found", radicado)
	}
	return &p, nil
}

// ListPetitions returns petitions newest first, twenty by default.
func (m *Manager) ListPetitions(ctx context.Context, actor authz.Caller, filter models.PetitionFilter) ([]models.Petition, error) {
	if err := m.requireStaff(actor, "list petitions"); err != nil {
		return nil, err
	}
	filter.Limit = defaultLimit(filter.Limit)

	petitions, err := models.GetPetitions(m.db.WithContext(ctx), filter)
	if err != nil {
		return nil, errs.Wrap(err, "list petitions")
	}
	return petitions, nil
}
