package database

import (
	"context"
	"fmt"
	"time"

	"induction-portal/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers "sqlite"
)

// Driver is the configured SQL backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// driverName maps the configured backend to the database/sql driver name.
func driverName(driver Driver) (string, error) {
	switch driver {
	case DriverPostgres:
		return "pgx", nil
	case DriverSQLite:
		return "sqlite", nil
	}
	return "", fmt.Errorf("unsupported database driver: %q", driver)
}

// NewSQLXDB opens and pings the database described by cfg.
func NewSQLXDB(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	name, err := driverName(Driver(cfg.DB.Driver))
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(name, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if Driver(cfg.DB.Driver) == DriverSQLite {
		// One writer at a time avoids SQLITE_BUSY under concurrent requests.
		db.SetMaxOpenConns(1)
	} else {
		if cfg.DB.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
		}
		if cfg.DB.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
		}
	}
	if cfg.DB.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
