package models

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"

	"github.com/procuraduria/docket/pkg/errs"
)

// CaseStatus is the persisted status literal of a case.
type CaseStatus string

const (
	CaseStatusInProgress         CaseStatus = "EN TRAMITE"
	CaseStatusUnderInvestigation CaseStatus = "EN INVESTIGACION"
	CaseStatusArchived           CaseStatus = "ARCHIVADO"
	CaseStatusSanctioned         CaseStatus = "SANCIONADO"
	CaseStatusAcquitted          CaseStatus = "ABSUELTO"
)

// CaseStatuses lists every status a case can hold.
var CaseStatuses = []CaseStatus{
	CaseStatusInProgress,
	CaseStatusUnderInvestigation,
	CaseStatusArchived,
	CaseStatusSanctioned,
	CaseStatusAcquitted,
}

// Terminal reports whether no further transition is expected from s.
func (s CaseStatus) Terminal() bool {
	switch s {
	case CaseStatusArchived, CaseStatusSanctioned, CaseStatusAcquitted:
		return true
	}
	return false
}

// Visibility controls who may query a case.
type Visibility string

const (
	VisibilityPublic     Visibility = "PUBLICO"
	VisibilityRestricted Visibility = "RESERVADO"
)

// Case type names persisted in casos.tipo.
const (
	CaseTypeEthical      = "ÉTICO"
	CaseTypeDisciplinary = "DISCIPLINARIO"
)

// Case is a disciplinary or ethics case identified by its IUC code.
type Case struct {
	ID uint `gorm:"primaryKey;column:id" json:"id"`

	Code string `gorm:"column:iuc;not null;uniqueIndex:idx_casos_iuc" json:"code"`
	Type string `gorm:"column:tipo;not null" json:"type"`
	Year int    `gorm:"column:anio;not null" json:"year"`

	Implicated  string     `gorm:"column:implicado" json:"implicated"`
	Status      CaseStatus `gorm:"column:estado;default:'EN TRAMITE'" json:"status"`
	Description string     `gorm:"column:descripcion" json:"description,omitempty"`
	Visibility  Visibility `gorm:"column:visibilidad;default:'PUBLICO'" json:"visibility"`

	OpenedAt time.Time  `gorm:"column:fecha_apertura" json:"openedAt"`
	ClosedAt *time.Time `gorm:"column:fecha_cierre" json:"closedAt,omitempty"`

	// Summary message reference, used for in-place edits of the attachments.
	MessageID string `gorm:"column:mensaje_id" json:"messageId,omitempty"`
	ChannelID string `gorm:"column:canal_registros_id" json:"channelId,omitempty"`

	RegisteredBy string `gorm:"column:registrado_por" json:"registeredBy,omitempty"`
}

// TableName keeps the table name used by existing bot databases.
func (Case) TableName() string {
	return "casos"
}

// Restricted reports whether the case is only visible to staff.
func (c *Case) Restricted() bool {
	return c.Visibility == VisibilityRestricted
}

// Create inserts the case.
func (c *Case) Create(db *gorm.DB) error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Code, validation.Required),
		validation.Field(&c.Type, validation.Required, validation.In(CaseTypeEthical, CaseTypeDisciplinary)),
		validation.Field(&c.Year, validation.Required, validation.Min(1), validation.Max(9999)),
		validation.Field(&c.Implicated, validation.Required, validation.RuneLength(1, 200)),
	); err != nil {
		return errs.WithKind(errs.ErrValidation, "create case", err)
	}
	if c.Status == "" {
		c.Status = CaseStatusInProgress
	}
	if c.Visibility == "" {
		c.Visibility = VisibilityPublic
	}
	if c.OpenedAt.IsZero() {
		c.OpenedAt = time.Now()
	}

	return errs.FromDB("create case", db.Create(c).Error)
}

// GetByCode retrieves a case by its IUC code.
func (c *Case) GetByCode(db *gorm.DB, code string) error {
	if err := validation.Validate(code, validation.Required); err != nil {
		return errs.WithKind(errs.ErrValidation, "get case", err)
	}

	err := db.Where("iuc = ?", code).First(c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NotFound("get case", "case %s not found", code)
	}
	return errs.FromDB("get case", err)
}

// SetMessageRef stores the summary message reference.
func (c *Case) SetMessageRef(db *gorm.DB, channelID, messageID string) error {
	c.ChannelID = channelID
	c.MessageID = messageID
	return db.Model(&Case{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"mensaje_id":         messageID,
			"canal_registros_id": channelID,
		}).Error
}

// GetRecentCases returns the most recently opened cases.
func GetRecentCases(db *gorm.DB, limit int) ([]Case, error) {
	var cases []Case
	err := db.
		Order("fecha_apertura DESC").
		Order("id DESC").
		Limit(limit).
		Find(&cases).
		Error
	return cases, err
}
