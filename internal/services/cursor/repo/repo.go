// Package repo reads cursor seed state from postgres
package repo

import (
	"context"
	"errors"

	"spotcrawl/internal/modkit/repokit"

	"github.com/jackc/pgx/v5"
)

// Storage is the cursor repo surface bound to one Queryer
type Storage interface {
	LastCompletedQuery(ctx context.Context) (string, bool, error)
}

// NewPG returns a binder for the postgres cursor repo
func NewPG() repokit.Binder[Storage] {
	return repokit.BindFunc[Storage](func(q repokit.Queryer) Storage {
		return &pgRepo{q: q}
	})
}

type pgRepo struct{ q repokit.Queryer }

// LastCompletedQuery takes the top row ordered by query descending. The
// ordering is the database's string order, not crawl order, so the row it
// returns is not always the latest prefix in crawl order
func (r *pgRepo) LastCompletedQuery(ctx context.Context) (string, bool, error) {
	var query string
	err := r.q.QueryRow(ctx,
		`SELECT query FROM search_progress ORDER BY query DESC LIMIT 1`,
	).Scan(&query)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return query, true, nil
}
