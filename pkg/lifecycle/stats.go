package lifecycle

import (
	"context"

	"github.com/procuraduria/docket/pkg/errs"
	"github.com/procuraduria/docket/pkg/models"
)

// Stats counts the records of each collection.
type Stats struct {
	Documents         int64
	AttachedDocuments int64
	Cases             int64
	ArchivedCases     int64
	Petitions         int64
	PendingPetitions  int64
	AnsweredPetitions int64
}

// Stats returns collection totals.
func (m *Manager) Stats(ctx context.Context) (*Stats, error) {
	db := m.db.WithContext(ctx)
	var s Stats

	counts := []struct {
		dst   *int64
		model any
		where string
		args  []any
	}{
		{&s.Documents, &models.Document{}, "", nil},
		{&s.AttachedDocuments, &models.Document{}, "attached_iuc IS NOT NULL", nil},
		{&s.Cases, &models.Case{}, "", nil},
		{&s.ArchivedCases, &models.Case{}, "estado = ?", []any{models.CaseStatusArchived}},
		{&s.Petitions, &models.Petition{}, "", nil},
		{&s.PendingPetitions, &models.Petition{}, "estado = ?", []any{models.PetitionStatusPending}},
		{&s.AnsweredPetitions, &models.Petition{}, "estado = ?", []any{models.PetitionStatusAnswered}},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if c.where != "" {
			q = q.Where(c.where, c.args...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, errs.Wrap(err, "count records")
		}
	}
	return &s, nil
}
