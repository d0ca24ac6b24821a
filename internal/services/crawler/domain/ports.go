// Package domain defines the ports the crawl coordinator drives
package domain

import (
	"context"

	spotdom "spotcrawl/internal/services/spotify/domain"
)

// RegistryPort is the bounded admission set of in-flight prefixes
type RegistryPort interface {
	TryRegister(ctx context.Context, prefix string) (bool, error)
	Unregister(ctx context.Context, prefix string) error
	Count(ctx context.Context) (int, error)
}

// CursorPort produces the next search prefixes in crawl order
type CursorPort interface {
	NextBatch(ctx context.Context, n int) ([]string, error)
	NextOne(ctx context.Context) (string, error)
}

// CatalogPort is the durable side: artists and completion records
type CatalogPort interface {
	IsCompleted(ctx context.Context, query string) (bool, error)
	UpsertArtists(ctx context.Context, artists []spotdom.Artist) error
	RecordCompletion(ctx context.Context, query string, artistsFound int) error
}

// FoundPort annotates the in-window request record with the page's result
// count. Best-effort; consumed only by the status endpoint.
type FoundPort interface {
	UpdateFound(ctx context.Context, query string, offset, found int) error
}

// RunnerPort is the crawl loop exposed to the binary
type RunnerPort interface {
	Run(ctx context.Context) error
}
