package lifecycle

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/procuraduria/docket/pkg/authz"
	"github.com/procuraduria/docket/pkg/codes"
	"github.com/procuraduria/docket/pkg/errs"
	"github.com/procuraduria/docket/pkg/models"
)

// RegisterDocumentInput describes a document to register.
type RegisterDocumentInput struct {
	Kind        string
	Number      string
	Year        int
	Title       string
	Description string
	Link        string

	// ParentCaseCode attaches the document to a case when set.
	ParentCaseCode string

	// RulingKind selects the IUS kind of an attached document: F (ruling,
	// the default) or A (order).
	RulingKind string
}

// RegisterDocument stores a document. With a parent case code the document
// is attached to that case: the case must exist and must not be archived,
// and the document receives an IUS derived from the case code.
func (m *Manager) RegisterDocument(ctx context.Context, actor authz.Caller, in RegisterDocumentInput) (*models.Document, error) {
	const op = "register document"
	if err := m.requireStaff(actor, op); err != nil {
		return nil, err
	}

	d := models.Document{
		Kind:         strings.ToUpper(strings.TrimSpace(in.Kind)),
		Number:       strings.TrimSpace(in.Number),
		Year:         in.Year,
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Link:         strings.TrimSpace(in.Link),
		RegisteredAt: m.now(),
		RegisteredBy: callerName(actor),
	}

	if err := d.Validate(); err != nil {
		return nil, errs.WithKind(errs.ErrValidation, op, err)
	}

	parent := codes.NormalizeCode(in.ParentCaseCode)
	if parent == "" {
		if err := m.transaction(ctx, d.Create); err != nil {
			return nil, err
		}
		m.logger.Info("document registered", "document", d.Label(), "actor", callerName(actor))
		m.announce(ctx, m.config.RecordsChannelID, documentAnnouncement(&d, actor))
		return &d, nil
	}

	kind := codes.ParseRulingKind(in.RulingKind)
	err := m.mintTransaction(ctx, op, true, func(tx *gorm.DB) error {
		var c models.Case
		if err := c.GetByCode(tx, parent); err != nil {
			return err
		}
		if c.Status == models.CaseStatusArchived {
			return errs.InvalidState(op, "case %s is archived and accepts no new documents", parent)
		}

		ius, err := m.codes.NextDocumentCode(tx, c.Code, kind)
		if err != nil {
			return err
		}

		attempt := d
		attempt.IUS = &ius
		attempt.CaseCode = &c.Code
		if err := attempt.Create(tx); err != nil {
			return err
		}
		d = attempt
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("document attached",
		"document", d.Label(),
		"iuc", parent,
		"ius", d.IUSValue(),
		"actor", callerName(actor),
	)

	m.syncSummary(ctx, parent)
	m.announce(ctx, m.config.RecordsChannelID, documentAnnouncement(&d, actor))

	return &d, nil
}

// FindDocuments matches documents by kind substring and exact number.
func (m *Manager) FindDocuments(ctx context.Context, actor authz.Caller, kind, number string) ([]models.Document, error) {
	const op = "find documents"
	if err := m.requireStaff(actor, op); err != nil {
		return nil, err
	}
	if strings.TrimSpace(kind) == "" || strings.TrimSpace(number) == "" {
		return nil, errs.Validation(op, "kind and number are required")
	}

	docs, err := models.FindDocuments(m.db.WithContext(ctx), kind, number)
	if err != nil {
		return nil, errs.Wrap(err, op)
	}
	return docs, nil
}

// ListDocuments returns the most recently registered documents.
func (m *Manager) ListDocuments(ctx context.Context, actor authz.Caller, limit int) ([]models.Document, error) {
	if err := m.requireStaff(actor, "list documents"); err != nil {
		return nil, err
	}
	docs, err := models.GetRecentDocuments(m.db.WithContext(ctx), defaultLimit(limit))
	if err != nil {
		return nil, errs.Wrap(err, "list documents")
	}
	return docs, nil
}

// DeleteDocuments removes every document carrying number and refreshes the
// summaries of the cases they were attached to.
func (m *Manager) DeleteDocuments(ctx context.Context, actor authz.Caller, number string) ([]models.Document, error) {
	const op = "delete documents"
	if err := m.requireStaff(actor, op); err != nil {
		return nil, err
	}
	if strings.TrimSpace(number) == "" {
		return nil, errs.Validation(op, "number is required")
	}

	var docs []models.Document
	err := m.transaction(ctx, func(tx *gorm.DB) error {
		var err error
		if docs, err = models.GetDocumentsByNumber(tx, number); err != nil {
			return err
		}
		if len(docs) == 0 {
			return errs.NotFound(op, "no document with number %s", strings.TrimSpace(number))
		}

		ids := make([]uint, 0, len(docs))
		for _, d := range docs {
			ids = append(ids, d.ID)
		}
		return tx.Delete(&models.Document{}, ids).Error
	})
	if err != nil {
		return nil, errs.FromDB(op, err)
	}

	m.logger.Info("documents deleted", "number", number, "count", len(docs), "actor", callerName(actor))

	refreshed := make(map[string]bool)
	for _, d := range docs {
		parent := d.AttachedTo()
		if parent == "" || refreshed[parent] {
			continue
		}
		refreshed[parent] = true
		m.syncSummary(ctx, parent)
	}

	return docs, nil
}
