// Package sqlstore journals catalog and user changes to SQL and replays
// them at startup. Queries use "?" placeholders rebound per driver, so the
// same statements run on postgres and sqlite.
package sqlstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/coursebot/core/bootstrap"
	"github.com/m3rciful/coursebot/core/logger"
	"github.com/m3rciful/coursebot/internal/catalog"
	"github.com/m3rciful/coursebot/internal/users"
)

// Store implements catalog.Journal and users.Journal.
type Store struct {
	db *sqlx.DB
}

var (
	_ catalog.Journal = (*Store)(nil)
	_ users.Journal   = (*Store)(nil)
)

// New wraps an open connection.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type lectureRow struct {
	Subject  string `db:"subject"`
	Topic    string `db:"topic"`
	Name     string `db:"name"`
	Position int    `db:"position"`
}

type itemRow struct {
	Subject  string `db:"subject"`
	Topic    string `db:"topic"`
	SlotKind string `db:"slot_kind"`
	Lecture  string `db:"lecture"`
	Position int    `db:"position"`
	Kind     string `db:"kind"`
	FileID   string `db:"file_id"`
	Caption  string `db:"caption"`
	Body     string `db:"body"`
}

type userRow struct {
	UserID    int64     `db:"user_id"`
	Name      string    `db:"name"`
	Username  string    `db:"username"`
	Phone     string    `db:"phone"`
	FirstSeen time.Time `db:"first_seen"`
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	return err
}

// AddLecture records a new lecture slot.
func (s *Store) AddLecture(ctx context.Context, subject, topic, name string, position int) error {
	err := s.exec(ctx,
		`INSERT INTO lectures (subject, topic, name, position) VALUES (?, ?, ?, ?)`,
		subject, topic, name, position)
	if err != nil {
		return fmt.Errorf("sqlstore: insert lecture: %w", err)
	}
	return nil
}

// AppendItem records an item at its 1-based position within the slot.
func (s *Store) AppendItem(ctx context.Context, ref catalog.SlotRef, position int, item catalog.Item) error {
	err := s.exec(ctx,
		`INSERT INTO content_items (subject, topic, slot_kind, lecture, position, kind, file_id, caption, body)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ref.Subject, ref.Topic, string(ref.Kind), ref.Lecture, position,
		string(item.Kind), item.FileID, item.Caption, item.Text)
	if err != nil {
		return fmt.Errorf("sqlstore: insert item: %w", err)
	}
	return nil
}

// UpsertUser inserts the user unless already present. First-seen values win.
func (s *Store) UpsertUser(ctx context.Context, u users.User) error {
	err := s.exec(ctx,
		`INSERT INTO bot_users (user_id, name, username, phone, first_seen) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO NOTHING`,
		u.ID, u.Name, u.Username, u.Phone, u.FirstSeen)
	if err != nil {
		return fmt.Errorf("sqlstore: upsert user: %w", err)
	}
	return nil
}

// SetPhone stores the phone, inserting the user when missing.
func (s *Store) SetPhone(ctx context.Context, u users.User) error {
	err := s.exec(ctx,
		`INSERT INTO bot_users (user_id, name, username, phone, first_seen) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET phone = excluded.phone`,
		u.ID, u.Name, u.Username, u.Phone, u.FirstSeen)
	if err != nil {
		return fmt.Errorf("sqlstore: set phone: %w", err)
	}
	return nil
}

// SeedCatalog makes sure every subject and topic of seed has a row.
func (s *Store) SeedCatalog(ctx context.Context, seed catalog.Seed) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin seed: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	subjectQ := tx.Rebind(`INSERT INTO subjects (name, position) VALUES (?, ?) ON CONFLICT (name) DO NOTHING`)
	topicQ := tx.Rebind(`INSERT INTO topics (subject, name, position) VALUES (?, ?, ?) ON CONFLICT (subject, name) DO NOTHING`)
	topics := 0
	for si, sub := range seed {
		if _, err = tx.ExecContext(ctx, subjectQ, sub.Name, si+1); err != nil {
			return fmt.Errorf("sqlstore: seed subject %q: %w", sub.Name, err)
		}
		for ti, name := range sub.Topics {
			if _, err = tx.ExecContext(ctx, topicQ, sub.Name, name, ti+1); err != nil {
				return fmt.Errorf("sqlstore: seed topic %q: %w", name, err)
			}
			topics++
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit seed: %w", err)
	}
	logger.Info(ctx, "db.seed", "catalog.seeded",
		slog.String("status", "ok"),
		slog.Int("subjects", len(seed)),
		slog.Int("topics", topics),
	)
	return nil
}

// CatalogSeeder adapts SeedCatalog to the bootstrap pipeline, which hands
// seeders the open *sqlx.DB.
func CatalogSeeder(seed catalog.Seed) bootstrap.Seeder {
	return bootstrap.SeederFunc(func(ctx context.Context, db *sqlx.DB) error {
		return New(db).SeedCatalog(ctx, seed)
	})
}

// ReplayStats counts what Replay restored and skipped.
type ReplayStats struct {
	Lectures int
	Items    int
	Users    int
	Skipped  int
}

// Replay loads journaled lectures, items and users into the in-memory stores.
// Rows that no longer match the catalog are skipped and logged.
func (s *Store) Replay(ctx context.Context, cat *catalog.Store, reg *users.Registry) (ReplayStats, error) {
	var stats ReplayStats
	start := time.Now()

	var lectures []lectureRow
	if err := s.db.SelectContext(ctx, &lectures, s.db.Rebind(
		`SELECT subject, topic, name, position FROM lectures ORDER BY subject, topic, position`)); err != nil {
		return stats, fmt.Errorf("sqlstore: load lectures: %w", err)
	}
	for _, row := range lectures {
		if err := cat.RestoreLecture(row.Subject, row.Topic, row.Name); err != nil {
			stats.Skipped++
			s.logSkip(ctx, "lecture", err)
			continue
		}
		stats.Lectures++
	}

	var items []itemRow
	if err := s.db.SelectContext(ctx, &items, s.db.Rebind(
		`SELECT subject, topic, slot_kind, lecture, position, kind, file_id, caption, body
		 FROM content_items ORDER BY subject, topic, slot_kind, lecture, position`)); err != nil {
		return stats, fmt.Errorf("sqlstore: load items: %w", err)
	}
	for _, row := range items {
		ref := catalog.SlotRef{
			Subject: row.Subject,
			Topic:   row.Topic,
			Kind:    catalog.SlotKind(row.SlotKind),
			Lecture: row.Lecture,
		}
		item := catalog.Item{
			Kind:    catalog.ItemKind(row.Kind),
			FileID:  row.FileID,
			Caption: row.Caption,
			Text:    row.Body,
		}
		if err := item.Validate(); err != nil {
			stats.Skipped++
			s.logSkip(ctx, "item", err)
			continue
		}
		if err := cat.RestoreItem(ref, item); err != nil {
			stats.Skipped++
			s.logSkip(ctx, "item", err)
			continue
		}
		stats.Items++
	}

	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(
		`SELECT user_id, name, username, phone, first_seen FROM bot_users ORDER BY first_seen, user_id`)); err != nil {
		return stats, fmt.Errorf("sqlstore: load users: %w", err)
	}
	for _, row := range rows {
		reg.Restore(users.User{
			ID:        row.UserID,
			Name:      row.Name,
			Username:  row.Username,
			Phone:     row.Phone,
			FirstSeen: row.FirstSeen.UTC(),
		})
		stats.Users++
	}

	logger.Info(ctx, "db", "journal.replayed",
		slog.String("status", "ok"),
		slog.Int("lectures", stats.Lectures),
		slog.Int("items", stats.Items),
		slog.Int("users", stats.Users),
		slog.Int("skipped", stats.Skipped),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return stats, nil
}

func (s *Store) logSkip(ctx context.Context, what string, err error) {
	logger.Warn(ctx, "db", "journal.row_skipped",
		slog.String("status", "skip"),
		slog.String("kind", what),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
}
