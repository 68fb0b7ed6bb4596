package bootstrap

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Seeder writes reference rows after migrations. It runs on every start
// and must be idempotent.
type Seeder interface {
	Seed(ctx context.Context, db *sqlx.DB) error
}

// SeederFunc adapts a function to Seeder.
type SeederFunc func(ctx context.Context, db *sqlx.DB) error

func (f SeederFunc) Seed(ctx context.Context, db *sqlx.DB) error { return f(ctx, db) }

// Modules lists the app hooks run by the pipeline.
type Modules struct {
	Seeders []Seeder
}
