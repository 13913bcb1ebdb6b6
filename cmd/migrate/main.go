package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"induction-portal/internal/config"
	"induction-portal/internal/database"
	"induction-portal/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"go.uber.org/zap"
)

func main() {
	down := flag.Bool("down", false, "roll back instead of applying migrations")
	steps := flag.Int("steps", 0, "number of migrations to apply or roll back; 0 means all")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	l := logger.Get()
	defer logger.Sync()

	db, err := database.NewSQLXDB(context.Background(), cfg)
	if err != nil {
		l.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	m, err := database.NewMigrator(db.DB, database.Driver(cfg.DB.Driver))
	if err != nil {
		l.Fatal("Failed to create migrator", zap.Error(err))
	}

	switch {
	case *steps != 0 && *down:
		err = m.Steps(-*steps)
	case *steps != 0:
		err = m.Steps(*steps)
	case *down:
		err = m.Down()
	default:
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		l.Fatal("Migration failed", zap.Error(err))
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		l.Fatal("Failed to read schema version", zap.Error(err))
	}
	l.Info("Migrations finished", zap.Uint("version", version), zap.Bool("dirty", dirty), zap.String("driver", cfg.DB.Driver))
}
