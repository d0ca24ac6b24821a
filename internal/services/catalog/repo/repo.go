// Package repo provides the postgres implementation for the artist catalog
package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"spotcrawl/internal/modkit/repokit"
	dom "spotcrawl/internal/services/catalog/domain"
	spotdom "spotcrawl/internal/services/spotify/domain"

	"github.com/jackc/pgx/v5"
)

// Storage is the catalog repo surface bound to one Queryer
type Storage interface {
	UpsertArtists(ctx context.Context, artists []spotdom.Artist) error
	InsertCompletion(ctx context.Context, query string, artistsFound int) error
	IsCompleted(ctx context.Context, query string) (bool, error)
	Totals(ctx context.Context) (dom.Totals, error)
	RecentCompletions(ctx context.Context, limit int) ([]dom.Completion, error)
}

// NewPG returns a binder for the postgres catalog repo
func NewPG() repokit.Binder[Storage] {
	return repokit.BindFunc[Storage](func(q repokit.Queryer) Storage {
		return &pgRepo{q: q}
	})
}

type pgRepo struct{ q repokit.Queryer }

// UpsertArtists inserts a page of artists with one multi-row statement.
// ON CONFLICT DO NOTHING keeps the first writer's name and genres.
func (r *pgRepo) UpsertArtists(ctx context.Context, artists []spotdom.Artist) error {
	if len(artists) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO artists (id, name, genres, popularity) VALUES `)
	args := make([]any, 0, len(artists)*4)
	for i, a := range artists {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 4
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4)
		genres := a.Genres
		if genres == nil {
			genres = []string{}
		}
		args = append(args, a.ID, a.Name, genres, a.Popularity)
	}
	sb.WriteString(` ON CONFLICT (id) DO NOTHING`)

	_, err := r.q.Exec(ctx, sb.String(), args...)
	return err
}

// InsertCompletion writes the completion row; unique violations bubble up so
// the service can absorb them
func (r *pgRepo) InsertCompletion(ctx context.Context, query string, artistsFound int) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO search_progress (query, artists) VALUES ($1, $2)`,
		query, artistsFound,
	)
	return err
}

// IsCompleted reports whether query already has a completion row
func (r *pgRepo) IsCompleted(ctx context.Context, query string) (bool, error) {
	var one int
	err := r.q.QueryRow(ctx,
		`SELECT 1 FROM search_progress WHERE query = $1`,
		query,
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Totals aggregates catalog-wide counters
func (r *pgRepo) Totals(ctx context.Context) (dom.Totals, error) {
	var t dom.Totals
	err := r.q.QueryRow(ctx,
		`SELECT
			(SELECT count(*) FROM artists),
			(SELECT count(*) FROM search_progress),
			(SELECT min(created_at) FROM search_progress)`,
	).Scan(&t.Artists, &t.Searches, &t.EarliestSearch)
	return t, err
}

// RecentCompletions lists the latest completions, newest first
func (r *pgRepo) RecentCompletions(ctx context.Context, limit int) ([]dom.Completion, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.q.Query(ctx,
		`SELECT query, artists, created_at
		 FROM search_progress
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dom.Completion
	for rows.Next() {
		var c dom.Completion
		if err := rows.Scan(&c.Query, &c.Artists, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
