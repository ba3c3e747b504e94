package main

import (
	"database/sql"
	"errors"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/corefin/bankd/internal/config"
)

// Applies db/migrations to the database named by DATABASE_URL.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := config.FromEnv()
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("sql.Open", "err", err)
		os.Exit(1)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		logger.Error("postgres.WithInstance", "err", err)
		os.Exit(1)
	}

	m, err := migrate.NewWithDatabaseInstance("file://db/migrations", "postgres", driver)
	if err != nil {
		logger.Error("migrate.NewWithDatabaseInstance", "err", err)
		os.Exit(1)
	}

	before, _, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		before = 0
	} else if err != nil {
		logger.Error("read current version", "err", err)
		os.Exit(1)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("migrate up", "err", err)
		os.Exit(1)
	}

	after, _, err := m.Version()
	if err != nil {
		logger.Error("read new version", "err", err)
		os.Exit(1)
	}

	logger.Info("migration status", "before", before, "after", after)
}
