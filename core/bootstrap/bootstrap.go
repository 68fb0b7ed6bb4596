package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/coursebot/core/config"
	coredatabase "github.com/m3rciful/coursebot/core/database"
	"github.com/m3rciful/coursebot/core/logger"
)

// Options configure Run. The function fields default to the real
// implementations and are replaced in tests.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config
	Modules  Modules

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
// DB is nil for the memory driver.
type Result struct {
	DB *sqlx.DB
}

// Close releases the database connection, if any.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initializes the logger, connects to the database, applies migrations
// and runs the seeders.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	dbCfg := opts.Database
	if err := dbCfg.Normalize(); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	if !dbCfg.Persistent() {
		logger.Warn(ctx, "db", "db.connect",
			slog.String("status", "skip"),
			slog.String("driver", dbCfg.Driver),
			slog.String("cause", "memory storage; data is lost on restart"),
		)
		return &Result{}, nil
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(dbCfg); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	if err := opts.Modules.runSeeders(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: seeding failed: %w", err)
	}

	return &Result{DB: db}, nil
}

func (m Modules) runSeeders(ctx context.Context, db *sqlx.DB) error {
	for i, s := range m.Seeders {
		if s == nil {
			continue
		}
		start := time.Now()
		if err := s.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeder #%d: %w", i+1, err)
		}
		logger.Debug(ctx, "db", "db.seed",
			slog.String("status", "ok"),
			slog.Int("index", i+1),
			slog.Duration("duration", time.Since(start)),
		)
	}
	return nil
}
