package codes

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/procuraduria/docket/internal/migrate"
	"github.com/procuraduria/docket/pkg/database"
	"github.com/procuraduria/docket/pkg/errs"
	"github.com/procuraduria/docket/pkg/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "docket.db")
	require.NoError(t, migrate.Apply(migrate.DriverSQLite, path))

	db, err := database.Connect(database.Config{Path: path}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func fixedClock(year int) func() time.Time {
	return func() time.Time {
		return time.Date(year, 6, 1, 12, 0, 0, 0, time.UTC)
	}
}

func createCase(t *testing.T, db *gorm.DB, code string) *models.Case {
	t.Helper()
	parsed, err := ParseCaseCode(code)
	require.NoError(t, err)
	c := &models.Case{
		Code:       code,
		Type:       parsed.Type.Name(),
		Year:       parsed.Year,
		Implicated: "Juan Pérez",
	}
	require.NoError(t, c.Create(db))
	return c
}

func TestNextCaseCode_Sequential(t *testing.T) {
	db := setupTestDB(t)
	gen := NewGenerator()

	for i := 1; i <= 5; i++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			code, err := gen.NextCaseCode(tx, CaseTypeDisciplinary, 2025)
			if err != nil {
				return err
			}
			assert.Equal(t, fmt.Sprintf("IUC-D-2025-%04d", i), code.String())
			return (&models.Case{
				Code:       code.String(),
				Type:       CaseTypeDisciplinary.Name(),
				Year:       2025,
				Implicated: "Implicado",
			}).Create(tx)
		})
		require.NoError(t, err)
	}

	t.Run("scopes are independent", func(t *testing.T) {
		var code CaseCode
		err := db.Transaction(func(tx *gorm.DB) error {
			var err error
			code, err = gen.NextCaseCode(tx, CaseTypeEthical, 2025)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, "IUC-E-2025-0001", code.String())
	})
}

func TestNextCaseCode_RollbackReleasesSequence(t *testing.T) {
	db := setupTestDB(t)
	gen := NewGenerator()

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := gen.NextCaseCode(tx, CaseTypeDisciplinary, 2025)
		require.NoError(t, err)
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	var code CaseCode
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		code, err = gen.NextCaseCode(tx, CaseTypeDisciplinary, 2025)
		return err
	}))
	assert.Equal(t, "IUC-D-2025-0001", code.String())
}

func TestNextCaseCode_SkipsExistingCodes(t *testing.T) {
	db := setupTestDB(t)
	gen := NewGenerator()

	// Rows written outside the generator, e.g. by an administrative override.
	createCase(t, db, "IUC-D-2025-0002")
	createCase(t, db, "IUC-D-2025-0003")

	var code CaseCode
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		code, err = gen.NextCaseCode(tx, CaseTypeDisciplinary, 2025)
		return err
	}))
	assert.Equal(t, "IUC-D-2025-0004", code.String())
}

func TestReserveCaseCode(t *testing.T) {
	db := setupTestDB(t)
	gen := NewGenerator()

	code, err := gen.ReserveCaseCode(db, CaseTypeEthical, 2025, 0)
	require.NoError(t, err)
	assert.Equal(t, "IUC-E-2025-0001", code.String())

	code, err = gen.ReserveCaseCode(db, CaseTypeEthical, 2025, 99999)
	require.NoError(t, err)
	assert.Equal(t, "IUC-E-2025-9999", code.String())

	createCase(t, db, "IUC-E-2025-0010")
	_, err = gen.ReserveCaseCode(db, CaseTypeEthical, 2025, 10)
	assert.ErrorIs(t, err, errs.ErrDuplicate)
}

func TestNextPetitionCode(t *testing.T) {
	db := setupTestDB(t)
	gen := NewGenerator()

	for i := 1; i <= 3; i++ {
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			code, err := gen.NextPetitionCode(tx, 2025)
			if err != nil {
				return err
			}
			assert.Equal(t, fmt.Sprintf("PQRS-2025-%04d", i), code.String())
			return (&models.Petition{
				Radicado:      code.String(),
				Type:          models.PetitionTypeComplaint,
				RequesterID:   "42",
				RequesterName: "ciudadano",
				Subject:       "Asunto",
				Body:          "Cuerpo",
			}).Create(tx)
		}))
	}
}

func TestNextDocumentCode(t *testing.T) {
	db := setupTestDB(t)
	gen := NewGenerator().WithClock(fixedClock(2031))
	createCase(t, db, "IUC-E-2025-0001")

	attach := func(parent string, kind RulingKind) string {
		var ius string
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			var err error
			ius, err = gen.NextDocumentCode(tx, parent, kind)
			if err != nil {
				return err
			}
			return (&models.Document{
				Kind:     "RESOLUCION",
				Number:   "1",
				Year:     2025,
				Title:    "Fallo",
				IUS:      &ius,
				CaseCode: &parent,
			}).Create(tx)
		}))
		return ius
	}

	assert.Equal(t, "IUS-F-2025-0001-1", attach("IUC-E-2025-0001", RulingKindRuling))
	assert.Equal(t, "IUS-F-2025-0001-2", attach("IUC-E-2025-0001", RulingKindRuling))
	assert.Equal(t, "IUS-A-2025-0001-1", attach("IUC-E-2025-0001", RulingKindOrder))

	t.Run("malformed parent falls back", func(t *testing.T) {
		assert.Equal(t, "IUS-F-2031-0000-1", attach("SIN-CODIGO", RulingKindRuling))
	})
}

func TestRenameCase(t *testing.T) {
	db := setupTestDB(t)
	gen := NewGenerator()

	createCase(t, db, "IUC-D-2025-0001")
	createCase(t, db, "IUC-D-2025-0002")

	parent, other := "IUC-D-2025-0001", "IUC-D-2025-0002"
	docs := []*models.Document{
		{Kind: "AUTO", Number: "1", Year: 2025, Title: "uno", CaseCode: &parent},
		{Kind: "AUTO", Number: "2", Year: 2025, Title: "dos", CaseCode: &parent},
		{Kind: "AUTO", Number: "3", Year: 2025, Title: "tres", CaseCode: &other},
		{Kind: "AUTO", Number: "4", Year: 2025, Title: "suelto"},
	}
	for _, d := range docs {
		require.NoError(t, d.Create(db))
	}

	newCode, err := gen.RenameCase(db, "iuc-d-2025-0001", 42)
	require.NoError(t, err)
	assert.Equal(t, "IUC-D-2025-0042", newCode)

	var renamed models.Case
	require.NoError(t, renamed.GetByCode(db, "IUC-D-2025-0042"))

	var old models.Case
	assert.ErrorIs(t, old.GetByCode(db, "IUC-D-2025-0001"), errs.ErrNotFound)

	attached, err := models.GetDocumentsByCase(db, "IUC-D-2025-0042")
	require.NoError(t, err)
	assert.Len(t, attached, 2)

	untouched, err := models.GetDocumentsByCase(db, "IUC-D-2025-0002")
	require.NoError(t, err)
	require.Len(t, untouched, 1)
	assert.Equal(t, "3", untouched[0].Number)

	var loose models.Document
	require.NoError(t, loose.Get(db, docs[3].ID))
	assert.Nil(t, loose.CaseCode)

	t.Run("unknown case", func(t *testing.T) {
		_, err := gen.RenameCase(db, "IUC-D-2025-0999", 5)
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("target taken", func(t *testing.T) {
		_, err := gen.RenameCase(db, "IUC-D-2025-0042", 2)
		assert.ErrorIs(t, err, errs.ErrDuplicate)

		var still models.Case
		assert.NoError(t, still.GetByCode(db, "IUC-D-2025-0042"))
	})

	t.Run("suffix out of range", func(t *testing.T) {
		_, err := gen.RenameCase(db, "IUC-D-2025-0042", 10000)
		assert.ErrorIs(t, err, errs.ErrValidation)
	})
}
