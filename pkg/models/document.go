package models

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"

	"github.com/procuraduria/docket/pkg/errs"
)

// Document is a registered legal or administrative document. It may be
// attached to a Case, in which case it carries a derived IUS code.
type Document struct {
	ID uint `gorm:"primaryKey;column:id" json:"id"`

	// Kind is a free-text category stored upper-case (RESOLUCION, DECRETO...).
	Kind   string `gorm:"column:tipo;not null" json:"kind"`
	Number string `gorm:"column:numero;not null;index:idx_documentos_numero" json:"number"`
	Year   int    `gorm:"column:anio;not null" json:"year"`

	Title       string `gorm:"column:titulo" json:"title"`
	Description string `gorm:"column:descripcion" json:"description,omitempty"`
	Link        string `gorm:"column:link_drive" json:"link,omitempty"`

	// IUS is set only for documents attached to a case.
	IUS *string `gorm:"column:ius;uniqueIndex:idx_documentos_ius" json:"ius,omitempty"`

	// CaseCode is the IUC of the case this document is attached to.
	CaseCode *string `gorm:"column:attached_iuc;index:idx_documentos_attached_iuc" json:"caseCode,omitempty"`

	RegisteredAt time.Time `gorm:"column:fecha_registro" json:"registeredAt"`
	RegisteredBy string    `gorm:"column:registrado_por" json:"registeredBy"`
}

// TableName keeps the table name used by existing bot databases.
func (Document) TableName() string {
	return "documentos"
}

// Label renders "KIND NUMBER de YEAR".
func (d *Document) Label() string {
	return fmt.Sprintf("%s %s de %d", d.Kind, d.Number, d.Year)
}

// IUSValue returns the IUS or an empty string.
func (d *Document) IUSValue() string {
	if d.IUS == nil {
		return ""
	}
	return *d.IUS
}

// AttachedTo returns the parent case code or an empty string.
func (d *Document) AttachedTo() string {
	if d.CaseCode == nil {
		return ""
	}
	return *d.CaseCode
}

// Validate checks the required fields.
func (d *Document) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Kind, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&d.Number, validation.Required, validation.RuneLength(1, 50)),
		validation.Field(&d.Year, validation.Required, validation.Min(1), validation.Max(9999)),
		validation.Field(&d.Title, validation.Required, validation.RuneLength(1, 500)),
	)
}

// Create inserts the document.
func (d *Document) Create(db *gorm.DB) error {
	d.Kind = strings.ToUpper(strings.TrimSpace(d.Kind))
	if err := d.Validate(); err != nil {
		return errs.WithKind(errs.ErrValidation, "create document", err)
	}
	if d.RegisteredAt.IsZero() {
		d.RegisteredAt = time.Now()
	}

	return errs.FromDB("create document", db.Create(d).Error)
}

// Get retrieves a document by its surrogate id.
func (d *Document) Get(db *gorm.DB, id uint) error {
	if err := validation.Validate(id, validation.Required); err != nil {
		return errs.WithKind(errs.ErrValidation, "get document", err)
	}

	return errs.FromDB("get document", db.First(d, id).Error)
}

// GetDocumentsByCase returns the documents attached to a case in
// attachment order.
func GetDocumentsByCase(db *gorm.DB, caseCode string) ([]Document, error) {
	var docs []Document
	err := db.
		Where("attached_iuc = ?", caseCode).
		Order("fecha_registro ASC").
		Order("id ASC").
		Find(&docs).
		Error
	return docs, err
}

// FindDocuments matches documents by kind substring and exact number.
func FindDocuments(db *gorm.DB, kind, number string) ([]Document, error) {
	var docs []Document
	err := db.
		Where("UPPER(tipo) LIKE ?", "%"+strings.ToUpper(strings.TrimSpace(kind))+"%").
		Where("numero = ?", strings.TrimSpace(number)).
		Order("fecha_registro DESC").
		Find(&docs).
		Error
	return docs, err
}

// GetDocumentsByNumber returns every document with the given number.
func GetDocumentsByNumber(db *gorm.DB, number string) ([]Document, error) {
	var docs []Document
	err := db.
		Where("numero = ?", strings.TrimSpace(number)).
		Order("id ASC").
		Find(&docs).
		Error
	return docs, err
}

// GetRecentDocuments returns the most recently registered documents.
func GetRecentDocuments(db *gorm.DB, limit int) ([]Document, error) {
	var docs []Document
	err := db.
		Order("fecha_registro DESC").
		Order("id DESC").
		Limit(limit).
		Find(&docs).
		Error
	return docs, err
}
