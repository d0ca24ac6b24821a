package domain

import (
	"context"

	spotdom "spotcrawl/internal/services/spotify/domain"
)

// WriterPort persists crawl results
type WriterPort interface {
	// UpsertArtists inserts artists, ignoring ids already present.
	// First writer wins; mutable fields are not refreshed.
	UpsertArtists(ctx context.Context, artists []spotdom.Artist) error

	// RecordCompletion inserts the completion row for query. A conflicting
	// insert means another worker finished first and is absorbed as success.
	RecordCompletion(ctx context.Context, query string, artistsFound int) error
}

// ReaderPort answers the checks and aggregates the crawler and API need
type ReaderPort interface {
	IsCompleted(ctx context.Context, query string) (bool, error)
	Totals(ctx context.Context) (Totals, error)
	RecentCompletions(ctx context.Context, limit int) ([]Completion, error)
}

// SchemaPort bootstraps the tables on startup
type SchemaPort interface {
	EnsureSchema(ctx context.Context) error
}
