package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/m3rciful/coursebot/core/logger"
)

// modernc registers itself as "sqlite", which sqlx has no bind type for.
func init() { sqlx.BindDriver(DriverSQLite, sqlx.QUESTION) }

// connectWait bounds how long Connect waits for postgres to accept
// connections; containers often start the bot before the database.
const connectWait = 30 * time.Second

// Connect opens and pings the configured database and sizes the pool.
// Postgres is retried until it answers or connectWait runs out.
func Connect(cfg Config) (*sqlx.DB, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	dsn, target := cfg.dsn()
	if dsn == "" {
		return nil, fmt.Errorf("db connect: driver %q has no connection", cfg.Driver)
	}

	start := time.Now()
	deadline := start.Add(connectWait)
	var (
		db  *sqlx.DB
		err error
	)
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		db, err = sqlx.ConnectContext(ctx, cfg.Driver, dsn)
		cancel()
		if err == nil || cfg.Driver != DriverPostgres || time.Now().After(deadline) {
			break
		}
		logger.LogEvent(context.Background(), logger.DB, slog.LevelWarn, "db.connect", slog.String("status", "retry"),
			slog.Int("attempts", attempt), slog.String("err", err.Error()))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		logger.LogEvent(context.Background(), logger.DB, slog.LevelError, "db.connect", slog.String("status", "fail"),
			slog.String("driver", cfg.Driver), slog.String("db", target), slog.String("err", err.Error()))
		return nil, fmt.Errorf("db connect: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	logger.LogEvent(context.Background(), logger.DB, slog.LevelInfo, "db.connect", slog.String("status", "ok"),
		slog.String("driver", cfg.Driver), slog.String("db", target),
		slog.Int("count", cfg.MaxConnections), slog.Duration("duration", time.Since(start)))
	return db, nil
}
