//go:build integration
// +build integration

package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"

	"github.com/procuraduria/docket/internal/migrate"
	"github.com/procuraduria/docket/pkg/authz"
	"github.com/procuraduria/docket/pkg/database"
	"github.com/procuraduria/docket/pkg/errs"
	"github.com/procuraduria/docket/pkg/lifecycle"
	"github.com/procuraduria/docket/pkg/models"
)

// setupPostgres starts a container, applies the migrations and returns a
// gorm connection to it.
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("docket"),
		tcpostgres.WithUsername("docket"),
		tcpostgres.WithPassword("docket"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(ctx) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlDB, err := migrate.Open(migrate.DriverPostgres, dsn)
	require.NoError(t, err)
	require.NoError(t, migrate.RunMigrations(sqlDB, migrate.DriverPostgres))
	version, dirty, err := migrate.GetMigrationVersion(sqlDB, migrate.DriverPostgres)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)
	require.NoError(t, sqlDB.Close())

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	db, err := database.Connect(database.Config{
		Driver:   database.DriverPostgres,
		Host:     host,
		Port:     port.Int(),
		User:     "docket",
		Password: "docket",
		DBName:   "docket",
	}, hclog.NewNullLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func TestCaseLifecycleOnPostgres(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	now := time.Date(2025, 5, 20, 9, 30, 0, 0, time.UTC)
	m := lifecycle.NewManager(db, nil, lifecycle.Config{}, hclog.NewNullLogger()).
		WithClock(func() time.Time { return now })
	op := authz.LocalOperator("integración")

	c, err := m.OpenCase(ctx, op, lifecycle.OpenCaseInput{Type: "E", Implicated: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "IUC-E-2025-0001", c.Code)

	for i := 1; i <= 2; i++ {
		d, err := m.RegisterDocument(ctx, op, lifecycle.RegisterDocumentInput{
			Kind: "AUTO", Number: fmt.Sprint(i), Year: 2025, Title: "Auto", ParentCaseCode: c.Code,
		})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("IUS-F-2025-0001-%d", i), d.IUSValue())
	}

	view, err := m.QueryCase(ctx, op, c.Code)
	require.NoError(t, err)
	require.Len(t, view.Documents, 2)
	assert.Equal(t, "IUS-F-2025-0001-1", view.Documents[0].IUSValue())

	_, err = m.ArchiveCase(ctx, op, c.Code)
	require.NoError(t, err)

	_, err = m.RegisterDocument(ctx, op, lifecycle.RegisterDocumentInput{
		Kind: "FALLO", Number: "3", Year: 2025, Title: "Fallo", ParentCaseCode: c.Code,
	})
	assert.ErrorIs(t, err, errs.ErrInvalidState)

	var count int64
	require.NoError(t, db.Model(&models.Document{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestConcurrentOpenCaseOnPostgres(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	now := time.Date(2025, 5, 20, 9, 30, 0, 0, time.UTC)
	m := lifecycle.NewManager(db, nil, lifecycle.Config{}, hclog.NewNullLogger()).
		WithClock(func() time.Time { return now })
	op := authz.LocalOperator("")

	const n = 10
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = make(map[string]bool)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := m.OpenCase(ctx, op, lifecycle.OpenCaseInput{Type: "D", Implicated: fmt.Sprintf("Implicado %d", i)})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			codes[c.Code] = true
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	require.Len(t, codes, n)
	for i := 1; i <= n; i++ {
		assert.True(t, codes[fmt.Sprintf("IUC-D-2025-%04d", i)], "missing sequence %d", i)
	}
}
