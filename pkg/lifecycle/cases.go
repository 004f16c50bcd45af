package lifecycle

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/iancoleman/strcase"
	"gorm.io/gorm"

	"github.com/procuraduria/docket/pkg/authz"
	"github.com/procuraduria/docket/pkg/codes"
	"github.com/procuraduria/docket/pkg/errs"
	"github.com/procuraduria/docket/pkg/models"
	"github.com/procuraduria/docket/pkg/presenter"
)

// OpenCaseInput describes a new case.
type OpenCaseInput struct {
	// Type is E or D, or the English or Spanish type name.
	Type        string
	Implicated  string
	Description string

	// Visibility is PUBLICO or RESERVADO; anything else is public.
	Visibility string

	// Sequence overrides the generated sequence number when positive.
	Sequence int
}

// CaseView is a case as returned to a caller allowed to see it.
type CaseView struct {
	Case      models.Case
	Documents []models.Document
	Summary   string
}

// OpenCase creates a case in the in-progress state and announces it to the
// records channel.
func (m *Manager) OpenCase(ctx context.Context, actor authz.Caller, in OpenCaseInput) (*models.Case, error) {
	const op = "open case"
	if err := m.requireStaff(actor, op); err != nil {
		return nil, err
	}

	caseType, err := codes.ParseCaseType(in.Type)
	if err != nil {
		return nil, err
	}
	implicated := strings.TrimSpace(in.Implicated)
	if err := validation.Validate(implicated, validation.Required, validation.RuneLength(1, 200)); err != nil {
		return nil, errs.WithKind(errs.ErrValidation, op, errs.Wrap(err, "implicated"))
	}

	now := m.now()
	var c models.Case
	err = m.mintTransaction(ctx, op, in.Sequence <= 0, func(tx *gorm.DB) error {
		var (
			code codes.CaseCode
			err  error
		)
		if in.Sequence > 0 {
			code, err = m.codes.ReserveCaseCode(tx, caseType, now.Year(), in.Sequence)
		} else {
			code, err = m.codes.NextCaseCode(tx, caseType, now.Year())
		}
		if err != nil {
			return err
		}

		c = models.Case{
			Code:         code.String(),
			Type:         caseType.Name(),
			Year:         now.Year(),
			Implicated:   implicated,
			Description:  strings.TrimSpace(in.Description),
			Status:       models.CaseStatusInProgress,
			Visibility:   normalizeVisibility(in.Visibility),
			OpenedAt:     now,
			RegisteredBy: callerName(actor),
		}
		return c.Create(tx)
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("case opened", "iuc", c.Code, "type", c.Type, "actor", callerName(actor))

	ref := m.announce(ctx, m.config.RecordsChannelID, caseAnnouncement(&c, actor))
	if !ref.IsZero() {
		if err := c.SetMessageRef(m.db.WithContext(ctx), ref.ChannelID, ref.MessageID); err != nil {
			m.logger.Warn("failed to store case message reference", "iuc", c.Code, "error", err)
		}
	}

	return &c, nil
}

// ArchiveCase moves a case to ARCHIVADO and stamps its closing time.
// Archiving an archived case restamps it.
func (m *Manager) ArchiveCase(ctx context.Context, actor authz.Caller, code string) (*models.Case, error) {
	const op = "archive case"
	if err := m.requireStaff(actor, op); err != nil {
		return nil, err
	}
	code = codes.NormalizeCode(code)

	closedAt := m.now()
	var c models.Case
	err := m.transaction(ctx, func(tx *gorm.DB) error {
		if err := c.GetByCode(tx, code); err != nil {
			return err
		}
		c.Status = models.CaseStatusArchived
		c.ClosedAt = &closedAt
		return tx.Model(&models.Case{}).
			Where("id = ?", c.ID).
			Updates(map[string]any{
				"estado":       models.CaseStatusArchived,
				"fecha_cierre": closedAt,
			}).Error
	})
	if err != nil {
		return nil, errs.FromDB(op, err)
	}

	m.logger.Info("case archived", "iuc", code, "actor", callerName(actor))
	m.announce(ctx, m.config.RecordsChannelID, archiveAnnouncement(code, actor, closedAt))

	return &c, nil
}

// SetCaseStatus sets any of the five case statuses. No transition is
// refused.
func (m *Manager) SetCaseStatus(ctx context.Context, actor authz.Caller, code, status string) (*models.Case, error) {
	const op = "set case status"
	if err := m.requireStaff(actor, op); err != nil {
		return nil, err
	}
	target, err := ParseCaseStatus(status)
	if err != nil {
		return nil, err
	}
	code = codes.NormalizeCode(code)

	var c models.Case
	err = m.transaction(ctx, func(tx *gorm.DB) error {
		if err := c.GetByCode(tx, code); err != nil {
			return err
		}
		if c.Status.Terminal() && c.Status != target {
			m.logger.Warn("case leaves a terminal status", "iuc", code, "from", c.Status, "to", target, "actor", callerName(actor))
		}
		c.Status = target
		return tx.Model(&models.Case{}).Where("id = ?", c.ID).Update("estado", target).Error
	})
	if err != nil {
		return nil, errs.FromDB(op, err)
	}

	m.logger.Info("case status changed", "iuc", code, "status", target, "actor", callerName(actor))
	return &c, nil
}

// RenameCase rewrites the sequence suffix of a case code, cascading the new
// code to its attached documents.
func (m *Manager) RenameCase(ctx context.Context, actor authz.Caller, oldCode string, newSuffix int) (string, error) {
	if err := m.requireStaff(actor, "rename case"); err != nil {
		return "", err
	}

	newCode, err := m.codes.RenameCase(m.db.WithContext(ctx), oldCode, newSuffix)
	if err != nil {
		return "", err
	}
	m.logger.Info("case renamed", "from", codes.NormalizeCode(oldCode), "to", newCode, "actor", callerName(actor))
	return newCode, nil
}

// QueryCase returns a case with its attachments. Restricted cases are only
// shown to staff.
func (m *Manager) QueryCase(ctx context.Context, caller authz.Caller, code string) (*CaseView, error) {
	const op = "query case"
	code = codes.NormalizeCode(code)
	db := m.db.WithContext(ctx)

	var c models.Case
	if err := c.GetByCode(db, code); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			if _, perr := codes.ParseCaseCode(code); perr != nil {
				return nil, perr
			}
		}
		return nil, err
	}
	if c.Restricted() && !m.config.Policy.IsStaff(caller) {
		return nil, errs.PermissionDenied(op, "case %s is restricted", code)
	}

	docs, err := models.GetDocumentsByCase(db, c.Code)
	if err != nil {
		return nil, errs.Wrapf(err, "%s: load attachments", op)
	}

	return &CaseView{Case: c, Documents: docs, Summary: AttachmentsSummary(docs)}, nil
}

// ListCases returns the most recently opened cases.
func (m *Manager) ListCases(ctx context.Context, actor authz.Caller, limit int) ([]models.Case, error) {
	if err := m.requireStaff(actor, "list cases"); err != nil {
		return nil, err
	}
	cases, err := models.GetRecentCases(m.db.WithContext(ctx), defaultLimit(limit))
	if err != nil {
		return nil, errs.Wrap(err, "list cases")
	}
	return cases, nil
}

// RefreshCaseSummary pushes the current attachments summary of a case into
// its announcement. Unlike the automatic refresh after an attachment, the
// presenter error is returned.
func (m *Manager) RefreshCaseSummary(ctx context.Context, code string) (string, error) {
	const op = "refresh case summary"
	code = codes.NormalizeCode(code)
	db := m.db.WithContext(ctx)

	var c models.Case
	if err := c.GetByCode(db, code); err != nil {
		return "", err
	}
	docs, err := models.GetDocumentsByCase(db, c.Code)
	if err != nil {
		return "", errs.Wrapf(err, "%s: load attachments", op)
	}
	summary := AttachmentsSummary(docs)

	ref := presenter.MessageRef{ChannelID: c.ChannelID, MessageID: c.MessageID}
	if ref.IsZero() {
		return summary, errs.InvalidState(op, "case %s has no summary message", code)
	}
	if err := m.presenter.EditSummary(ctx, ref, AttachmentsField, summary); err != nil {
		return summary, errs.Wrap(err, op)
	}
	return summary, nil
}

// syncSummary is the best-effort refresh run after attachments change.
func (m *Manager) syncSummary(ctx context.Context, code string) {
	if _, err := m.RefreshCaseSummary(ctx, code); err != nil {
		m.logger.Warn("failed to refresh case summary", "iuc", code, "error", err)
	}
}

// ParseCaseStatus accepts a persisted status literal or its English name in
// any casing.
func ParseCaseStatus(s string) (models.CaseStatus, error) {
	switch strcase.ToScreamingSnake(foldAccents(strings.TrimSpace(s))) {
	case "EN_TRAMITE", "IN_PROGRESS", "OPEN":
		return models.CaseStatusInProgress, nil
	case "EN_INVESTIGACION", "UNDER_INVESTIGATION":
		return models.CaseStatusUnderInvestigation, nil
	case "ARCHIVADO", "ARCHIVED":
		return models.CaseStatusArchived, nil
	case "SANCIONADO", "SANCTIONED":
		return models.CaseStatusSanctioned, nil
	case "ABSUELTO", "ACQUITTED":
		return models.CaseStatusAcquitted, nil
	}
	return "", errs.Validation("parse case status", "invalid case status %q", s)
}

func normalizeVisibility(v string) models.Visibility {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case string(models.VisibilityRestricted), "RESTRICTED":
		return models.VisibilityRestricted
	}
	return models.VisibilityPublic
}

var accentFolder = strings.NewReplacer("Á", "A", "É", "E", "Í", "I", "Ó", "O", "Ú", "U", "á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u")

func foldAccents(s string) string {
	return accentFolder.Replace(s)
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	return limit
}
