// Package export writes the three record collections as CSV files.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/spf13/afero"
	"gorm.io/gorm"

	"github.com/procuraduria/docket/pkg/models"
)

const timeLayout = "2006-01-02 15:04:05"

// File names written by Export.
const (
	DocumentsFile = "documentos.csv"
	CasesFile     = "casos.csv"
	PetitionsFile = "pqrs.csv"
)

// Result lists the files written and their row counts.
type Result struct {
	Files map[string]int
}

// Exporter writes CSV snapshots of the store to a filesystem.
type Exporter struct {
	db *gorm.DB
	fs afero.Fs
}

// NewExporter returns an Exporter writing to fs.
func NewExporter(db *gorm.DB, fs afero.Fs) *Exporter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Exporter{db: db, fs: fs}
}

// Export writes one CSV per collection into dir.
func (e *Exporter) Export(ctx context.Context, dir string) (*Result, error) {
	if err := e.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	db := e.db.WithContext(ctx)
	res := &Result{Files: make(map[string]int)}

	var docs []models.Document
	if err := db.Order("id ASC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	rows := make([][]string, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(d.ID), 10), d.Kind, d.Number, strconv.Itoa(d.Year),
			d.Title, d.Description, d.Link, d.IUSValue(), d.AttachedTo(),
			formatTime(&d.RegisteredAt), d.RegisteredBy,
		})
	}
	if err := e.write(path.Join(dir, DocumentsFile), []string{
		"id", "tipo", "numero", "anio", "titulo", "descripcion", "link_drive", "ius",
		"attached_iuc", "fecha_registro", "registrado_por",
	}, rows); err != nil {
		return nil, err
	}
	res.Files[DocumentsFile] = len(rows)

	var cases []models.Case
	if err := db.Order("id ASC").Find(&cases).Error; err != nil {
		return nil, fmt.Errorf("failed to load cases: %w", err)
	}
	rows = make([][]string, 0, len(cases))
	for _, c := range cases {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(c.ID), 10), c.Code, c.Type, strconv.Itoa(c.Year),
			c.Implicated, string(c.Status), c.Description, string(c.Visibility),
			formatTime(&c.OpenedAt), formatTime(c.ClosedAt), c.RegisteredBy,
		})
	}
	if err := e.write(path.Join(dir, CasesFile), []string{
		"id", "iuc", "tipo", "anio", "implicado", "estado", "descripcion", "visibilidad",
		"fecha_apertura", "fecha_cierre", "registrado_por",
	}, rows); err != nil {
		return nil, err
	}
	res.Files[CasesFile] = len(rows)

	var petitions []models.Petition
	if err := db.Order("id ASC").Find(&petitions).Error; err != nil {
		return nil, fmt.Errorf("failed to load petitions: %w", err)
	}
	rows = make([][]string, 0, len(petitions))
	for _, p := range petitions {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(p.ID), 10), p.Radicado, p.Type, p.RequesterID,
			p.RequesterName, p.Subject, p.Body, string(p.Status),
			formatTime(&p.FiledAt), formatTime(p.AnsweredAt), p.Answer, p.AnsweredBy,
		})
	}
	if err := e.write(path.Join(dir, PetitionsFile), []string{
		"id", "radicado", "tipo", "usuario_id", "usuario_nombre", "asunto", "descripcion",
		"estado", "fecha_radicacion", "fecha_respuesta", "respuesta", "respondido_por",
	}, rows); err != nil {
		return nil, err
	}
	res.Files[PetitionsFile] = len(rows)

	return res, nil
}

func (e *Exporter) write(name string, header []string, rows [][]string) error {
	f, err := e.fs.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return f.Close()
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}
