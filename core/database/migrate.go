package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/m3rciful/coursebot/core/logger"
)

// RunMigrations applies every pending up migration from cfg.MigrationsDir.
// The memory driver has no schema and is skipped.
func RunMigrations(cfg Config) error {
	if err := cfg.Normalize(); err != nil {
		return err
	}
	dbURL := cfg.migrateURL()
	if dbURL == "" {
		logger.LogEvent(context.Background(), logger.MIG, slog.LevelDebug, "migrate", slog.String("status", "skip"), slog.String("driver", cfg.Driver))
		return nil
	}
	dir, err := filepath.Abs(cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("migrations dir: %w", err)
	}

	m, err := migrate.New("file://"+filepath.ToSlash(dir), dbURL)
	if err != nil {
		logger.LogEvent(context.Background(), logger.MIG, slog.LevelError, "migrate", slog.String("status", "fail"), slog.String("err", err.Error()))
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	from := version(m)
	start := time.Now()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.LogEvent(context.Background(), logger.MIG, slog.LevelError, "migrate", slog.String("status", "fail"),
			slog.Uint64("from_ver", uint64(from)), slog.String("err", err.Error()))
		return fmt.Errorf("migration execution failed: %w", err)
	}
	logger.LogEvent(context.Background(), logger.MIG, slog.LevelInfo, "migrate", slog.String("status", "ok"),
		slog.Uint64("from_ver", uint64(from)), slog.Uint64("to_ver", uint64(version(m))),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// version is 0 before the first migration.
func version(m *migrate.Migrate) uint {
	v, _, err := m.Version()
	if err != nil {
		return 0
	}
	return v
}
