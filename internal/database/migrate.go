package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFS embed.FS

// NewMigrator builds a migrate instance over the embedded migrations for driver.
func NewMigrator(db *sql.DB, driver Driver) (*migrate.Migrate, error) {
	var (
		instance migratedb.Driver
		dir      string
		err      error
	)
	switch driver {
	case DriverPostgres:
		dir = "migrations/postgres"
		instance, err = pgx.WithInstance(db, &pgx.Config{})
	case DriverSQLite:
		dir = "migrations/sqlite"
		instance, err = sqlite.WithInstance(db, &sqlite.Config{})
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("could not create migration driver: %w", err)
	}

	src, err := iofs.New(migrationFS, dir)
	if err != nil {
		return nil, fmt.Errorf("could not read embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(driver), instance)
	if err != nil {
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	return m, nil
}

// RunMigrations applies every pending up migration.
func RunMigrations(db *sql.DB, driver Driver) error {
	m, err := NewMigrator(db, driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not apply migrations: %w", err)
	}
	return nil
}
