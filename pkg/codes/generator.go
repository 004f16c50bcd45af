package codes

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/procuraduria/docket/pkg/errs"
	"github.com/procuraduria/docket/pkg/models"
)

// Generator reserves sequential codes against the store.
type Generator struct {
	now func() time.Time
}

// NewGenerator returns a Generator using the wall clock.
func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// WithClock returns a copy of g using now as its clock.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// scope describes one sequence: the code prefix and where its codes live.
type scope struct {
	prefix string
	table  string
	column string

	// bounded scopes render four digits and stop at MaxSequence
	bounded bool
}

func (s scope) render(n int) string {
	if s.bounded {
		return s.prefix + Pad4(n)
	}
	return DocumentCode(s.prefix, n)
}

func caseScope(t CaseType, year int) scope {
	return scope{prefix: CasePrefix(t, year), table: "casos", column: "iuc", bounded: true}
}

func petitionScope(year int) scope {
	return scope{prefix: PetitionPrefix(year), table: "pqrs", column: "radicado", bounded: true}
}

func documentScope(prefix string) scope {
	return scope{prefix: prefix, table: "documentos", column: "ius"}
}

// NextCaseCode reserves the next IUC for type and year.
func (g *Generator) NextCaseCode(tx *gorm.DB, t CaseType, year int) (CaseCode, error) {
	n, err := g.reserve(tx, caseScope(t, year))
	if err != nil {
		return CaseCode{}, err
	}
	return CaseCode{Type: t, Year: year, Seq: n}, nil
}

// ReserveCaseCode formats an administrative sequence override. The
// sequence is clamped to [1, 9999]; an existing code is a duplicate.
func (g *Generator) ReserveCaseCode(tx *gorm.DB, t CaseType, year, seq int) (CaseCode, error) {
	code := CaseCode{Type: t, Year: year, Seq: ClampSequence(seq)}
	s := caseScope(t, year)

	exists, err := s.exists(tx, code.String())
	if err != nil {
		return CaseCode{}, err
	}
	if exists {
		return CaseCode{}, errs.Duplicate("reserve case code", "case %s already exists", code)
	}
	return code, nil
}

// NextPetitionCode reserves the next radicado for year.
func (g *Generator) NextPetitionCode(tx *gorm.DB, year int) (PetitionCode, error) {
	n, err := g.reserve(tx, petitionScope(year))
	if err != nil {
		return PetitionCode{}, err
	}
	return PetitionCode{Year: year, Seq: n}, nil
}

// NextDocumentCode reserves the next IUS under parentCaseCode.
func (g *Generator) NextDocumentCode(tx *gorm.DB, parentCaseCode string, kind RulingKind) (string, error) {
	s := documentScope(DocumentPrefix(parentCaseCode, kind, g.now()))
	n, err := g.reserve(tx, s)
	if err != nil {
		return "", err
	}
	return s.render(n), nil
}

// RenameCase rewrites the numeric suffix of a case code and cascades the
// new code to every document attached to it. The target code must be free.
func (g *Generator) RenameCase(db *gorm.DB, oldCode string, newSuffix int) (string, error) {
	newCode, err := RenameCode(oldCode, newSuffix)
	if err != nil {
		return "", err
	}
	oldCode = NormalizeCode(oldCode)

	err = db.Transaction(func(tx *gorm.DB) error {
		var c models.Case
		if err := c.GetByCode(tx, oldCode); err != nil {
			return err
		}
		if newCode == oldCode {
			return nil
		}

		var taken int64
		if err := tx.Model(&models.Case{}).Where("iuc = ?", newCode).Count(&taken).Error; err != nil {
			return errs.Wrap(err, "check rename target")
		}
		if taken > 0 {
			return errs.Duplicate("rename case", "case %s already exists", newCode)
		}

		if err := tx.Model(&models.Case{}).
			Where("id = ?", c.ID).
			Update("iuc", newCode).Error; err != nil {
			return errs.FromDB("rename case", err)
		}
		if err := tx.Model(&models.Document{}).
			Where("attached_iuc = ?", oldCode).
			Update("attached_iuc", newCode).Error; err != nil {
			return errs.Wrap(err, "cascade rename to documents")
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return newCode, nil
}

// reserve takes the next value of s. It must run inside the transaction
// that inserts the record carrying the code.
func (g *Generator) reserve(tx *gorm.DB, s scope) (int, error) {
	now := g.now()

	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.CodeSequence{Scope: s.prefix, UpdatedAt: now}).Error; err != nil {
		return 0, errs.Wrapf(err, "ensure sequence %s", s.prefix)
	}

	// sqlite ignores the locking clause; its write transactions already hold
	// the database lock
	var seq models.CodeSequence
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("scope = ?", s.prefix).
		First(&seq).Error; err != nil {
		return 0, errs.Wrapf(err, "lock sequence %s", s.prefix)
	}

	count, err := s.count(tx)
	if err != nil {
		return 0, err
	}

	next := max(int64(seq.Value), count) + 1
	for {
		if s.bounded && next > MaxSequence {
			return 0, errs.InvalidState("reserve code", "sequence %s exhausted", s.prefix)
		}
		exists, err := s.exists(tx, s.render(int(next)))
		if err != nil {
			return 0, err
		}
		if !exists {
			break
		}
		next++
	}

	if err := tx.Model(&models.CodeSequence{}).
		Where("scope = ?", s.prefix).
		Updates(map[string]any{"value": next, "updated_at": now}).Error; err != nil {
		return 0, errs.Wrapf(err, "advance sequence %s", s.prefix)
	}

	return int(next), nil
}

func (s scope) count(tx *gorm.DB) (int64, error) {
	var n int64
	err := tx.Table(s.table).
		Where(s.column+" LIKE ?", s.prefix+"%").
		Count(&n).Error
	if err != nil {
		return 0, errs.Wrapf(err, "count %s", s.prefix)
	}
	return n, nil
}

func (s scope) exists(tx *gorm.DB, code string) (bool, error) {
	var n int64
	err := tx.Table(s.table).
		Where(s.column+" = ?", code).
		Count(&n).Error
	if err != nil {
		return false, errs.Wrapf(err, "look up %s", code)
	}
	return n > 0, nil
}
