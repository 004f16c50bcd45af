// Package migrate applies the embedded schema migrations.
package migrate

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq" // PostgreSQL driver
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Supported drivers. The sqlite name is the one registered by golang-migrate's
// sqlite driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// legacyColumns are the columns added to the bot schema after its first
// release. Databases created before them lack the columns even though the
// tables exist.
var legacyColumns = []struct {
	table, column, ddl string
}{
	{"documentos", "ius", "TEXT"},
	{"documentos", "attached_iuc", "TEXT"},
	{"casos", "visibilidad", "TEXT DEFAULT 'PUBLICO'"},
	{"casos", "fecha_cierre", "TIMESTAMP"},
	{"casos", "registrado_por", "TEXT"},
	{"pqrs", "respondido_por", "TEXT"},
}

// Open opens a database/sql handle suitable for RunMigrations.
func Open(driver, dsn string) (*sql.DB, error) {
	if err := checkDriver(driver); err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Apply opens dsn, runs the migrations and closes the handle.
func Apply(driver, dsn string) error {
	db, err := Open(driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return RunMigrations(db, driver)
}

// RunMigrations applies all pending migrations for the given database driver.
// Existing sqlite databases from the bot are upgraded in place first.
func RunMigrations(db *sql.DB, driver string) error {
	if err := checkDriver(driver); err != nil {
		return err
	}

	if driver == DriverSQLite {
		if _, err := UpgradeLegacySchema(db); err != nil {
			return fmt.Errorf("legacy upgrade failed: %w", err)
		}
	}

	m, err := newMigrate(db, driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// UpgradeLegacySchema adds missing legacy columns to existing sqlite tables
// and returns the columns it added as table.column. Tables that do not exist
// yet are left to the migrations.
func UpgradeLegacySchema(db *sql.DB) ([]string, error) {
	var added []string
	for _, lc := range legacyColumns {
		cols, err := tableColumns(db, lc.table)
		if err != nil {
			return added, err
		}
		if len(cols) == 0 || cols[lc.column] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", lc.table, lc.column, lc.ddl)
		if _, err := db.Exec(stmt); err != nil {
			return added, fmt.Errorf("failed to add %s.%s: %w", lc.table, lc.column, err)
		}
		added = append(added, lc.table+"."+lc.column)
	}
	return added, nil
}

func tableColumns(db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name, typ string
			notNull   int
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to inspect %s: %w", table, err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// GetMigrationVersion returns the current migration version.
func GetMigrationVersion(db *sql.DB, driver string) (version uint, dirty bool, err error) {
	if err := checkDriver(driver); err != nil {
		return 0, false, err
	}
	m, err := newMigrate(db, driver)
	if err != nil {
		return 0, false, err
	}
	return m.Version()
}

func newMigrate(db *sql.DB, driver string) (*migrate.Migrate, error) {
	sourceDriver, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return nil, fmt.Errorf("failed to load migration source: %w", err)
	}

	var databaseDriver database.Driver
	switch driver {
	case DriverPostgres:
		databaseDriver, err = postgres.WithInstance(db, &postgres.Config{})
	case DriverSQLite:
		databaseDriver, err = sqlite.WithInstance(db, &sqlite.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s driver: %w", driver, err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, driver, databaseDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

func checkDriver(driver string) error {
	if driver != DriverPostgres && driver != DriverSQLite {
		return fmt.Errorf("unsupported database driver: %s (supported: postgres, sqlite)", driver)
	}
	return nil
}
