package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/procuraduria/docket/internal/migrate"
	"github.com/procuraduria/docket/pkg/authz"
	"github.com/procuraduria/docket/pkg/database"
	"github.com/procuraduria/docket/pkg/errs"
	"github.com/procuraduria/docket/pkg/models"
	"github.com/procuraduria/docket/pkg/presenter"
)

const (
	staffRole     = "role-staff"
	responderRole = "role-responder"
)

var (
	staff     = authz.Caller{ID: "100", Name: "fiscal", Roles: []string{staffRole}}
	responder = authz.Caller{ID: "101", Name: "procurador", Roles: []string{staffRole, responderRole}}
	citizen   = authz.Caller{ID: "200", Name: "ciudadano"}
	neighbour = authz.Caller{ID: "201", Name: "vecino"}
)

type fakePresenter struct {
	mu        sync.Mutex
	fail      bool
	nextID    int
	announced map[string][]presenter.Announcement
	edits     []string
	dms       map[string][]presenter.Announcement
}

func newFakePresenter() *fakePresenter {
	return &fakePresenter{
		announced: map[string][]presenter.Announcement{},
		dms:       map[string][]presenter.Announcement{},
	}
}

func (f *fakePresenter) Announce(ctx context.Context, channelID string, a presenter.Announcement) (presenter.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return presenter.MessageRef{}, errors.New("channel unreachable")
	}
	f.nextID++
	f.announced[channelID] = append(f.announced[channelID], a)
	return presenter.MessageRef{ChannelID: channelID, MessageID: fmt.Sprintf("msg-%d", f.nextID)}, nil
}

func (f *fakePresenter) EditSummary(ctx context.Context, ref presenter.MessageRef, field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("message missing")
	}
	f.edits = append(f.edits, ref.MessageID+"|"+field+"|"+value)
	return nil
}

func (f *fakePresenter) DirectMessage(ctx context.Context, userID string, a presenter.Announcement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("DMs closed")
	}
	f.dms[userID] = append(f.dms[userID], a)
	return nil
}

func (f *fakePresenter) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func setupManager(t *testing.T) (*Manager, *fakePresenter, *gorm.DB) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "docket.db")
	require.NoError(t, migrate.Apply(migrate.DriverSQLite, path))

	db, err := database.Connect(database.Config{Path: path}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	p := newFakePresenter()
	m := NewManager(db, p, Config{
		RecordsChannelID:   "records",
		PetitionsChannelID: "pqrs",
		Policy:             authz.Policy{StaffRoleID: staffRole, ResponderRoleID: responderRole},
	}, nil)
	m.WithClock(func() time.Time { return time.Date(2025, 5, 20, 9, 30, 0, 0, time.UTC) })
	m.newBackOff = func() backoff.BackOff { return backoff.NewConstantBackOff(5 * time.Millisecond) }

	return m, p, db
}

func countDocuments(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Document{}).Count(&n).Error)
	return n
}

func TestCaseLifecycleEndToEnd(t *testing.T) {
	m, p, db := setupManager(t)
	ctx := context.Background()

	c, err := m.OpenCase(ctx, staff, OpenCaseInput{Type: "D", Implicated: "Juan Pérez", Visibility: "PUBLICO"})
	require.NoError(t, err)
	assert.Equal(t, "IUC-D-2025-0001", c.Code)
	assert.Equal(t, models.CaseStatusInProgress, c.Status)
	assert.Equal(t, models.VisibilityPublic, c.Visibility)
	assert.Equal(t, models.CaseTypeDisciplinary, c.Type)
	assert.Equal(t, "fiscal", c.RegisteredBy)

	require.Len(t, p.announced["records"], 1)
	announcement := p.announced["records"][0]
	assert.Equal(t, "Nuevo caso registrado", announcement.Title)
	assert.Equal(t, presenter.Field{Name: AttachmentsField, Value: NoAttachments}, announcement.Fields[len(announcement.Fields)-1])

	var stored models.Case
	require.NoError(t, stored.GetByCode(db, c.Code))
	assert.Equal(t, "records", stored.ChannelID)
	assert.Equal(t, "msg-1", stored.MessageID)

	first, err := m.RegisterDocument(ctx, staff, RegisterDocumentInput{
		Kind: "auto", Number: "12", Year: 2025, Title: "Apertura", Link: "https://drive/1", ParentCaseCode: "iuc-d-2025-0001 ",
	})
	require.NoError(t, err)
	assert.Equal(t, "AUTO", first.Kind)
	assert.Equal(t, "IUS-F-2025-0001-1", first.IUSValue())
	assert.Equal(t, c.Code, first.AttachedTo())

	second, err := m.RegisterDocument(ctx, staff, RegisterDocumentInput{
		Kind: "fallo", Number: "13", Year: 2025, Title: "Decisión", Link: "https://drive/2", ParentCaseCode: c.Code,
	})
	require.NoError(t, err)
	assert.Equal(t, "IUS-F-2025-0001-2", second.IUSValue())

	view, err := m.QueryCase(ctx, citizen, c.Code)
	require.NoError(t, err)
	require.Len(t, view.Documents, 2)
	assert.Equal(t, first.ID, view.Documents[0].ID)
	assert.Equal(t, second.ID, view.Documents[1].ID)
	assert.Equal(t,
		"1. AUTO 12 (2025) - Apertura\n   IUS: IUS-F-2025-0001-1\n   Link: https://drive/1\n"+
			"2. FALLO 13 (2025) - Decisión\n   IUS: IUS-F-2025-0001-2\n   Link: https://drive/2",
		view.Summary)

	require.Len(t, p.edits, 2)
	assert.Equal(t, "msg-1|Adjuntos|"+view.Summary, p.edits[1])

	archived, err := m.ArchiveCase(ctx, staff, c.Code)
	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusArchived, archived.Status)
	require.NotNil(t, archived.ClosedAt)

	before := countDocuments(t, db)
	_, err = m.RegisterDocument(ctx, staff, RegisterDocumentInput{
		Kind: "auto", Number: "14", Year: 2025, Title: "Tarde", ParentCaseCode: c.Code,
	})
	assert.ErrorIs(t, err, errs.ErrInvalidState)
	assert.Equal(t, before, countDocuments(t, db))
}

func TestOpenCase(t *testing.T) {
	ctx := context.Background()

	t.Run("validation", func(t *testing.T) {
		m, _, _ := setupManager(t)

		_, err := m.OpenCase(ctx, staff, OpenCaseInput{Type: "X", Implicated: "a"})
		assert.ErrorIs(t, err, errs.ErrValidation)

		_, err = m.OpenCase(ctx, staff, OpenCaseInput{Type: "E", Implicated: "  "})
		assert.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("visibility defaults to public", func(t *testing.T) {
		m, _, _ := setupManager(t)

		c, err := m.OpenCase(ctx, staff, OpenCaseInput{Type: "ético", Implicated: "a", Visibility: "secreto"})
		require.NoError(t, err)
		assert.Equal(t, models.VisibilityPublic, c.Visibility)
		assert.Equal(t, "IUC-E-2025-0001", c.Code)

		c, err = m.OpenCase(ctx, staff, OpenCaseInput{Type: "E", Implicated: "b", Visibility: "reservado"})
		require.NoError(t, err)
		assert.Equal(t, models.VisibilityRestricted, c.Visibility)
	})

	t.Run("explicit sequence", func(t *testing.T) {
		m, _, _ := setupManager(t)

		c, err := m.OpenCase(ctx, staff, OpenCaseInput{Type: "D", Implicated: "a", Sequence: 42})
		require.NoError(t, err)
		assert.Equal(t, "IUC-D-2025-0042", c.Code)

		_, err = m.OpenCase(ctx, staff, OpenCaseInput{Type: "D", Implicated: "b", Sequence: 42})
		assert.ErrorIs(t, err, errs.ErrDuplicate)
	})

	t.Run("non staff denied", func(t *testing.T) {
		m, _, db := setupManager(t)

		_, err := m.OpenCase(ctx, citizen, OpenCaseInput{Type: "D", Implicated: "a"})
		assert.ErrorIs(t, err, errs.ErrPermissionDenied)

		var n int64
		require.NoError(t, db.Model(&models.Case{}).Count(&n).Error)
		assert.Zero(t, n)
	})

	t.Run("presenter failure is absorbed", func(t *testing.T) {
		m, p, db := setupManager(t)
		p.setFail(true)

		c, err := m.OpenCase(ctx, staff, OpenCaseInput{Type: "D", Implicated: "a"})
		require.NoError(t, err)

		var stored models.Case
		require.NoError(t, stored.GetByCode(db, c.Code))
		assert.Empty(t, stored.MessageID)

		doc, err := m.RegisterDocument(ctx, staff, RegisterDocumentInput{
			Kind: "auto", Number: "1", Year: 2025, Title: "x", ParentCaseCode: c.Code,
		})
		require.NoError(t, err)
		assert.Equal(t, "IUS-F-2025-0001-1", doc.IUSValue())
	})
}

func TestOpenCaseConcurrent(t *testing.T) {
	m, _, _ := setupManager(t)
	ctx := context.Background()

	const workers = 8
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes []string
		errc  = make(chan error, workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := m.OpenCase(ctx, staff, OpenCaseInput{Type: "E", Implicated: fmt.Sprintf("implicado %d", i)})
			if err != nil {
				errc <- err
				return
			}
			mu.Lock()
			codes = append(codes, c.Code)
			mu.Unlock()
		}(i)
	}
	wg.Wait()
	close(errc)
	for err := range errc {
		require.NoError(t, err)
	}

	sort.Strings(codes)
	want := make([]string, workers)
	for i := range want {
		want[i] = fmt.Sprintf("IUC-E-2025-%04d", i+1)
	}
	assert.Equal(t, want, codes)
}

func TestRegisterDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("plain registration", func(t *testing.T) {
		m, p, _ := setupManager(t)

		d, err := m.RegisterDocument(ctx, staff, RegisterDocumentInput{Kind: "resolucion", Number: "7", Year: 2024, Title: "Nombramiento"})
		require.NoError(t, err)
		assert.Nil(t, d.IUS)
		assert.Nil(t, d.CaseCode)
		assert.Equal(t, "RESOLUCION 7 de 2024", d.Label())
		require.Len(t, p.announced["records"], 1)
		assert.Equal(t, "Nuevo documento registrado", p.announced["records"][0].Title)
	})

	t.Run("unknown parent", func(t *testing.T) {
		m, _, db := setupManager(t)

		_, err := m.RegisterDocument(ctx, staff, RegisterDocumentInput{Kind: "auto", Number: "1", Year: 2025, Title: "x", ParentCaseCode: "IUC-D-2025-0099"})
		assert.ErrorIs(t, err, errs.ErrNotFound)
		assert.Zero(t, countDocuments(t, db))
	})

	t.Run("order kind", func(t *testing.T) {
		m, _, _ := setupManager(t)
		c, err := m.OpenCase(ctx, staff, OpenCaseInput{Type: "E", Implicated: "a"})
		require.NoError(t, err)

		d, err := m.RegisterDocument(ctx, staff, RegisterDocumentInput{Kind: "auto", Number: "1", Year: 2025, Title: "x", ParentCaseCode: c.Code, RulingKind: "A"})
		require.NoError(t, err)
		assert.Equal(t, "IUS-A-2025-0001-1", d.IUSValue())
	})

	t.Run("missing fields", func(t *testing.T) {
		m, _, _ := setupManager(t)
		_, err := m.RegisterDocument(ctx, staff, RegisterDocumentInput{Kind: "auto", Year: 2025, Title: "x"})
		assert.ErrorIs(t, err, errs.ErrValidation)
	})
}

func TestQueryCaseRestricted(t *testing.T) {
	m, _, _ := setupManager(t)
	ctx := context.Background()

	c, err := m.OpenCase(ctx, staff, OpenCaseInput{Type: "D", Implicated: "a", Visibility: "RESERVADO"})
	require.NoError(t, err)
	_, err = m.RegisterDocument(ctx, staff, RegisterDocumentInput{Kind: "auto", Number: "1", Year: 2025, Title: "x", ParentCaseCode: c.Code})
	require.NoError(t, err)

	view, err := m.QueryCase(ctx, citizen, c.Code)
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)
	assert.Nil(t, view)

	view, err = m.QueryCase(ctx, staff, c.Code)
	require.NoError(t, err)
	assert.Len(t, view.Documents, 1)

	_, err = m.QueryCase(ctx, staff, "IUC-D-2025-0404")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = m.QueryCase(ctx, staff, "IUC-X-25-1")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestSetCaseStatus(t *testing.T) {
	m, _, _ := setupManager(t)
	ctx := context.Background()

	c, err := m.OpenCase(ctx, staff, OpenCaseInput{Type: "D", Implicated: "a"})
	require.NoError(t, err)

	tests := []struct {
		input string
		want  models.CaseStatus
	}{
		{"EN INVESTIGACION", models.CaseStatusUnderInvestigation},
		{"under investigation", models.CaseStatusUnderInvestigation},
		{"Sancionado", models.CaseStatusSanctioned},
		{"acquitted", models.CaseStatusAcquitted},
		{"EN TRÁMITE", models.CaseStatusInProgress},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			updated, err := m.SetCaseStatus(ctx, staff, c.Code, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, updated.Status)
			assert.Nil(t, updated.ClosedAt)
		})
	}

	_, err = m.SetCaseStatus(ctx, staff, c.Code, "CERRADO")
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = m.SetCaseStatus(ctx, staff, "IUC-D-2025-0404", "ARCHIVADO")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestArchiveCaseIsIdempotent(t *testing.T) {
	m, p, _ := setupManager(t)
	ctx := context.Background()

	c, err := m.OpenCase(ctx, staff, OpenCaseInput{Type: "D", Implicated: "a"})
	require.NoError(t, err)

	_, err = m.ArchiveCase(ctx, staff, c.Code)
	require.NoError(t, err)
	_, err = m.ArchiveCase(ctx, staff, c.Code)
	require.NoError(t, err)

	records := p.announced["records"]
	require.Len(t, records, 3)
	assert.Equal(t, "Proceso archivado", records[2].Title)
	assert.Equal(t, "2025-05-20 09:30:00", records[2].Fields[2].Value)

	_, err = m.ArchiveCase(ctx, staff, "IUC-D-2025-0404")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRenameCase(t *testing.T) {
	m, _, db := setupManager(t)
	ctx := context.Background()

	a, err := m.OpenCase(ctx, staff, OpenCaseInput{Type: "D", Implicated: "a"})
	require.NoError(t, err)
	b, err := m.OpenCase(ctx, staff, OpenCaseInput{Type: "D", Implicated: "b"})
	require.NoError(t, err)
	_, err = m.RegisterDocument(ctx, staff, RegisterDocumentInput{Kind: "auto", Number: "1", Year: 2025, Title: "x", ParentCaseCode: a.Code})
	require.NoError(t, err)
	_, err = m.RegisterDocument(ctx, staff, RegisterDocumentInput{Kind: "auto", Number: "2", Year: 2025, Title: "y", ParentCaseCode: b.Code})
	require.NoError(t, err)

	newCode, err := m.RenameCase(ctx, staff, a.Code, 77)
	require.NoError(t, err)
	assert.Equal(t, "IUC-D-2025-0077", newCode)

	docs, err := models.GetDocumentsByCase(db, newCode)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	docs, err = models.GetDocumentsByCase(db, b.Code)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	_, err = m.RenameCase(ctx, staff, b.Code, 77)
	assert.ErrorIs(t, err, errs.ErrDuplicate)

	_, err = m.RenameCase(ctx, citizen, b.Code, 5)
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)
}

func TestPetitionLifecycle(t *testing.T) {
	m, p, _ := setupManager(t)
	ctx := context.Background()

	filed, err := m.FilePetition(ctx, citizen, FilePetitionInput{Type: "q", Subject: "Ruido", Body: "Mucho ruido en la plaza"})
	require.NoError(t, err)
	assert.Equal(t, "PQRS-2025-0001", filed.Radicado)
	assert.Equal(t, models.PetitionTypeComplaint, filed.Type)
	assert.Equal(t, models.PetitionStatusPending, filed.Status)
	assert.Equal(t, "msg-1", filed.MessageID)

	require.Len(t, p.announced["pqrs"], 1)
	announcement := p.announced["pqrs"][0]
	assert.Equal(t, "📨 Nueva PQRS: PQRS-2025-0001", announcement.Title)
	assert.Equal(t, "<@&"+staffRole+">", announcement.Content)
	assert.Equal(t, "<@200>", announcement.Fields[2].Value)

	got, err := m.QueryPetition(ctx, "pqrs-2025-0001", citizen)
	require.NoError(t, err)
	assert.Equal(t, filed.ID, got.ID)

	_, foreignErr := m.QueryPetition(ctx, filed.Radicado, neighbour)
	_, unknownErr := m.QueryPetition(ctx, "PQRS-2025-0404", neighbour)
	require.ErrorIs(t, foreignErr, errs.ErrNotFound)
	require.ErrorIs(t, unknownErr, errs.ErrNotFound)
	assert.Equal(t,
		strings.ReplaceAll(unknownErr.Error(), "PQRS-2025-0404", "<radicado>"),
		strings.ReplaceAll(foreignErr.Error(), filed.Radicado, "<radicado>"))

	_, err = m.AnswerPetition(ctx, staff, filed.Radicado, "no")
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)

	outcome, err := m.AnswerPetition(ctx, responder, filed.Radicado, "Primera respuesta")
	require.NoError(t, err)
	assert.True(t, outcome.RequesterNotified)
	assert.Equal(t, models.PetitionStatusAnswered, outcome.Petition.Status)

	p.setFail(true)
	outcome, err = m.AnswerPetition(ctx, responder, filed.Radicado, "Segunda respuesta")
	require.NoError(t, err)
	assert.False(t, outcome.RequesterNotified)

	got, err = m.QueryPetition(ctx, filed.Radicado, citizen)
	require.NoError(t, err)
	assert.Equal(t, "Segunda respuesta", got.Answer)
	assert.Equal(t, models.PetitionStatusAnswered, got.Status)
	assert.Equal(t, "procurador", got.AnsweredBy)
	require.NotNil(t, got.AnsweredAt)

	require.Len(t, p.dms["200"], 1)
	assert.Equal(t, "📬 Respuesta a su PQRS PQRS-2025-0001", p.dms["200"][0].Title)

	_, err = m.AnswerPetition(ctx, responder, "PQRS-2025-0404", "x")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestFilePetitionValidation(t *testing.T) {
	m, _, _ := setupManager(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   FilePetitionInput
	}{
		{"bad type", FilePetitionInput{Type: "X", Subject: "a", Body: "b"}},
		{"empty subject", FilePetitionInput{Type: "P", Subject: " ", Body: "b"}},
		{"long body", FilePetitionInput{Type: "P", Subject: "a", Body: string(make([]rune, 2001))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.FilePetition(ctx, citizen, tt.in)
			assert.ErrorIs(t, err, errs.ErrValidation)
		})
	}
}

func TestAccentedInputWithinLimits(t *testing.T) {
	m, _, _ := setupManager(t)
	ctx := context.Background()

	// 150 runes, 300 bytes.
	name := strings.Repeat("ñ", 150)

	c, err := m.OpenCase(ctx, staff, OpenCaseInput{Type: "E", Implicated: name})
	require.NoError(t, err)
	assert.Equal(t, name, c.Implicated)

	p, err := m.FilePetition(ctx, citizen, FilePetitionInput{Type: "Q", Subject: name, Body: strings.Repeat("á", 1500)})
	require.NoError(t, err)
	assert.Equal(t, name, p.Subject)

	_, err = m.OpenCase(ctx, staff, OpenCaseInput{Type: "E", Implicated: strings.Repeat("ñ", 201)})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestResponderRoleRequired(t *testing.T) {
	m, _, _ := setupManager(t)
	m.config.Policy.ResponderRoleID = ""
	ctx := context.Background()

	filed, err := m.FilePetition(ctx, citizen, FilePetitionInput{Type: "P", Subject: "a", Body: "b"})
	require.NoError(t, err)

	_, err = m.AnswerPetition(ctx, responder, filed.Radicado, "x")
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)

	_, err = m.AnswerPetition(ctx, authz.LocalOperator(""), filed.Radicado, "x")
	assert.NoError(t, err)
}

func TestDeleteDocumentsRefreshesSummary(t *testing.T) {
	m, p, db := setupManager(t)
	ctx := context.Background()

	c, err := m.OpenCase(ctx, staff, OpenCaseInput{Type: "D", Implicated: "a"})
	require.NoError(t, err)
	_, err = m.RegisterDocument(ctx, staff, RegisterDocumentInput{Kind: "auto", Number: "9", Year: 2025, Title: "x", ParentCaseCode: c.Code})
	require.NoError(t, err)

	deleted, err := m.DeleteDocuments(ctx, staff, "9")
	require.NoError(t, err)
	assert.Len(t, deleted, 1)
	assert.Zero(t, countDocuments(t, db))
	assert.Equal(t, "msg-1|Adjuntos|Ninguno", p.edits[len(p.edits)-1])

	_, err = m.DeleteDocuments(ctx, staff, "9")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestListingsAndStats(t *testing.T) {
	m, _, _ := setupManager(t)
	ctx := context.Background()

	c, err := m.OpenCase(ctx, staff, OpenCaseInput{Type: "D", Implicated: "a"})
	require.NoError(t, err)
	_, err = m.RegisterDocument(ctx, staff, RegisterDocumentInput{Kind: "resolucion", Number: "3", Year: 2025, Title: "x", ParentCaseCode: c.Code})
	require.NoError(t, err)
	_, err = m.RegisterDocument(ctx, staff, RegisterDocumentInput{Kind: "decreto", Number: "3", Year: 2025, Title: "y"})
	require.NoError(t, err)
	first, err := m.FilePetition(ctx, citizen, FilePetitionInput{Type: "P", Subject: "a", Body: "b"})
	require.NoError(t, err)
	_, err = m.FilePetition(ctx, citizen, FilePetitionInput{Type: "S", Subject: "c", Body: "d"})
	require.NoError(t, err)
	_, err = m.AnswerPetition(ctx, responder, first.Radicado, "ok")
	require.NoError(t, err)

	found, err := m.FindDocuments(ctx, staff, "resol", "3")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "RESOLUCION", found[0].Kind)

	pending, err := m.ListPetitions(ctx, staff, models.PetitionFilter{Status: models.PetitionStatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "PQRS-2025-0002", pending[0].Radicado)

	_, err = m.ListPetitions(ctx, citizen, models.PetitionFilter{})
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)

	docs, err := m.ListDocuments(ctx, staff, 0)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	cases, err := m.ListCases(ctx, staff, 0)
	require.NoError(t, err)
	assert.Len(t, cases, 1)

	stats, err := m.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{
		Documents:         2,
		AttachedDocuments: 1,
		Cases:             1,
		Petitions:         2,
		PendingPetitions:  1,
		AnsweredPetitions: 1,
	}, *stats)
}

func TestRefreshCaseSummary(t *testing.T) {
	m, p, db := setupManager(t)
	ctx := context.Background()

	c, err := m.OpenCase(ctx, staff, OpenCaseInput{Type: "D", Implicated: "a"})
	require.NoError(t, err)

	summary, err := m.RefreshCaseSummary(ctx, c.Code)
	require.NoError(t, err)
	assert.Equal(t, NoAttachments, summary)

	p.setFail(true)
	_, err = m.RefreshCaseSummary(ctx, c.Code)
	assert.Error(t, err)

	require.NoError(t, db.Model(&models.Case{}).Where("iuc = ?", c.Code).Update("mensaje_id", "").Error)
	_, err = m.RefreshCaseSummary(ctx, c.Code)
	assert.ErrorIs(t, err, errs.ErrInvalidState)
}

func TestAttachmentsSummary(t *testing.T) {
	assert.Equal(t, "Ninguno", AttachmentsSummary(nil))

	ius := "IUS-F-2025-0001-1"
	got := AttachmentsSummary([]models.Document{{Kind: "AUTO", Number: "1", Year: 2025, Title: "x", Link: "l", IUS: &ius}})
	assert.Equal(t, "1. AUTO 1 (2025) - x\n   IUS: IUS-F-2025-0001-1\n   Link: l", got)
}

func TestParseCaseStatus(t *testing.T) {
	for _, s := range models.CaseStatuses {
		got, err := ParseCaseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}
