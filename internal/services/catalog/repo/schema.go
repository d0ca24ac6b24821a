package repo

import (
	"context"

	"spotcrawl/internal/modkit/repokit"
)

// schemaDDL creates the durable tables when they do not exist yet.
// Mirrors the shapes the crawler writes: artists keyed by the provider id,
// completions keyed by the search query.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS artists (
		id         text PRIMARY KEY,
		name       text NOT NULL,
		genres     text[],
		popularity integer,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS search_progress (
		query      text PRIMARY KEY,
		artists    integer NOT NULL DEFAULT 0,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_search_progress_created_at
		ON search_progress (created_at DESC)`,
}

// EnsureSchema applies the DDL; safe to run on every startup
func EnsureSchema(ctx context.Context, q repokit.Queryer) error {
	for _, ddl := range schemaDDL {
		if _, err := q.Exec(ctx, ddl); err != nil {
			return err
		}
	}
	return nil
}
