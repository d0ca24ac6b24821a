// Package service advances the lexicographic search cursor. The pointer lives
// in memory and is seeded from the completion table once per process;
// durability comes from completions, which are re-read on the next cold start.
package service

import (
	"context"
	"sync"

	"spotcrawl/internal/core/prefix"
	"spotcrawl/internal/modkit/repokit"
	"spotcrawl/internal/platform/logger"
	"spotcrawl/internal/services/cursor/repo"
)

// Generator hands out batches of search prefixes. It is single-writer within
// a process; several processes may overlap because duplicate registrations
// are rejected downstream and completions are idempotent.
type Generator struct {
	db     repokit.TxRunner
	binder repokit.Binder[repo.Storage]
	log    logger.Logger

	mu      sync.Mutex
	cursor  string
	seeded  bool
	emitted bool
}

// New builds a generator backed by the completion table
func New(db repokit.TxRunner, binder repokit.Binder[repo.Storage], log logger.Logger) *Generator {
	return &Generator{
		db:     db,
		binder: binder,
		log:    log.With().Str("component", "cursor").Logger(),
	}
}

// Initialize seeds the cursor from the database on first use. With no prior
// completions the cursor starts at the bootstrap prefix and emits it as-is;
// otherwise the first increment steps past the recorded maximum.
func (g *Generator) Initialize(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.initializeLocked(ctx)
}

func (g *Generator) initializeLocked(ctx context.Context) error {
	if g.seeded {
		return nil
	}
	var last string
	var ok bool
	err := g.db.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		last, ok, err = g.binder.Bind(q).LastCompletedQuery(ctx)
		return err
	})
	if err != nil {
		return err
	}
	if !ok {
		g.cursor = prefix.Seed
	} else {
		g.cursor = last
		g.emitted = true // the seed row is already done; never re-emit it
	}
	g.seeded = true
	g.log.Info().Str("cursor", g.cursor).Bool("resumed", ok).Msg("seeded search cursor")
	return nil
}

// NextBatch returns up to n distinct prefixes, advancing the cursor
func (g *Generator) NextBatch(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.initializeLocked(ctx); err != nil {
		return nil, err
	}

	out := make([]string, 0, n)
	if !g.emitted && g.cursor == prefix.Seed {
		out = append(out, g.cursor)
		g.emitted = true
	}
	for len(out) < n {
		g.cursor = prefix.Next(g.cursor)
		g.emitted = true
		out = append(out, g.cursor)
	}
	return out, nil
}

// NextOne is the chain step: exactly one replacement prefix
func (g *Generator) NextOne(ctx context.Context) (string, error) {
	batch, err := g.NextBatch(ctx, 1)
	if err != nil {
		return "", err
	}
	return batch[0], nil
}
