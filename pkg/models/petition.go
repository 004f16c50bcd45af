package models

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"

	"github.com/procuraduria/docket/pkg/errs"
)

// PetitionStatus is the persisted status literal of a petition.
type PetitionStatus string

const (
	PetitionStatusPending  PetitionStatus = "PENDIENTE"
	PetitionStatusAnswered PetitionStatus = "RESPONDIDA"
)

// Petition type names persisted in pqrs.tipo.
const (
	PetitionTypePetition  = "PETICIÓN"
	PetitionTypeComplaint = "QUEJA"
	PetitionTypeClaim     = "RECLAMO"
	PetitionTypeRequest   = "SOLICITUD"
)

// Petition is a citizen PQRS filing identified by its radicado.
type Petition struct {
	ID uint `gorm:"primaryKey;column:id" json:"id"`

	Radicado string `gorm:"column:radicado;not null;uniqueIndex:idx_pqrs_radicado" json:"radicado"`
	Type     string `gorm:"column:tipo;not null" json:"type"`

	RequesterID   string `gorm:"column:usuario_id;not null;index:idx_pqrs_usuario_id" json:"requesterId"`
	RequesterName string `gorm:"column:usuario_nombre;not null" json:"requesterName"`

	Subject string         `gorm:"column:asunto;not null" json:"subject"`
	Body    string         `gorm:"column:descripcion;not null" json:"body"`
	Status  PetitionStatus `gorm:"column:estado;default:'PENDIENTE'" json:"status"`

	FiledAt    time.Time  `gorm:"column:fecha_radicacion" json:"filedAt"`
	AnsweredAt *time.Time `gorm:"column:fecha_respuesta" json:"answeredAt,omitempty"`
	Answer     string     `gorm:"column:respuesta" json:"answer,omitempty"`
	AnsweredBy string     `gorm:"column:respondido_por" json:"answeredBy,omitempty"`

	MessageID string `gorm:"column:canal_mensaje_id" json:"messageId,omitempty"`
}

// TableName keeps the table name used by existing bot databases.
func (Petition) TableName() string {
	return "pqrs"
}

// Create inserts the petition.
func (p *Petition) Create(db *gorm.DB) error {
	if err := validation.ValidateStruct(p,
		validation.Field(&p.Radicado, validation.Required),
		validation.Field(&p.Type, validation.Required, validation.In(
			PetitionTypePetition, PetitionTypeComplaint, PetitionTypeClaim, PetitionTypeRequest)),
		validation.Field(&p.RequesterID, validation.Required),
		validation.Field(&p.RequesterName, validation.Required),
		validation.Field(&p.Subject, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&p.Body, validation.Required, validation.RuneLength(1, 2000)),
	); err != nil {
		return errs.WithKind(errs.ErrValidation, "create petition", err)
	}
	if p.Status == "" {
		p.Status = PetitionStatusPending
	}
	if p.FiledAt.IsZero() {
		p.FiledAt = time.Now()
	}

	return errs.FromDB("create petition", db.Create(p).Error)
}

// GetByRadicado retrieves a petition by its radicado.
func (p *Petition) GetByRadicado(db *gorm.DB, radicado string) error {
	if err := validation.Validate(radicado, validation.Required); err != nil {
		return errs.WithKind(errs.ErrValidation, "get petition", err)
	}

	err := db.Where("radicado = ?", radicado).First(p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NotFound("get petition", "petition %s not found", radicado)
	}
	return errs.FromDB("get petition", err)
}

// PetitionFilter narrows GetPetitions.
type PetitionFilter struct {
	Status PetitionStatus
	Since  time.Time
	Limit  int
}

// GetPetitions returns petitions newest first.
func GetPetitions(db *gorm.DB, f PetitionFilter) ([]Petition, error) {
	q := db.Model(&Petition{})
	if f.Status != "" {
		q = q.Where("estado = ?", f.Status)
	}
	if !f.Since.IsZero() {
		q = q.Where("fecha_radicacion >= ?", f.Since)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var petitions []Petition
	err := q.
		Order("fecha_radicacion DESC").
		Order("id DESC").
		Find(&petitions).
		Error
	return petitions, err
}
