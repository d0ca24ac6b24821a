// Package service provides the catalog service implementation
package service

import (
	"context"

	"spotcrawl/internal/modkit/repokit"
	perr "spotcrawl/internal/platform/errors"
	"spotcrawl/internal/platform/logger"
	dom "spotcrawl/internal/services/catalog/domain"
	"spotcrawl/internal/services/catalog/repo"
	spotdom "spotcrawl/internal/services/spotify/domain"
)

// Service implements domain.WriterPort, domain.ReaderPort, and domain.SchemaPort
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[repo.Storage]
	Log    logger.Logger
}

// New constructs the catalog service
func New(db repokit.TxRunner, b repokit.Binder[repo.Storage], log logger.Logger) *Service {
	return &Service{DB: db, Binder: b, Log: log.With().Str("component", "catalog").Logger()}
}

// EnsureSchema implements domain.SchemaPort
func (s *Service) EnsureSchema(ctx context.Context) error {
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return repo.EnsureSchema(ctx, q)
	})
}

// UpsertArtists implements domain.WriterPort
func (s *Service) UpsertArtists(ctx context.Context, artists []spotdom.Artist) error {
	if len(artists) == 0 {
		return nil
	}
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).UpsertArtists(ctx, artists)
	})
	if err != nil {
		return perr.FromDB(err, "artist upsert failed")
	}
	return nil
}

// RecordCompletion implements domain.WriterPort. A primary-key conflict means
// another worker finished the same prefix first and counts as success.
func (s *Service) RecordCompletion(ctx context.Context, query string, artistsFound int) error {
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).InsertCompletion(ctx, query, artistsFound)
	})
	if err != nil {
		if perr.IsDuplicateKey(err) {
			s.Log.Warn().Str("query", query).Msg("completion already recorded, absorbing")
			return nil
		}
		return perr.FromDB(err, "completion insert failed")
	}
	return nil
}

// IsCompleted implements domain.ReaderPort
func (s *Service) IsCompleted(ctx context.Context, query string) (bool, error) {
	var done bool
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		done, err = s.Binder.Bind(q).IsCompleted(ctx, query)
		return err
	})
	if err != nil {
		return false, perr.FromDB(err, "completion lookup failed")
	}
	return done, nil
}

// Totals implements domain.ReaderPort
func (s *Service) Totals(ctx context.Context) (dom.Totals, error) {
	var t dom.Totals
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		t, err = s.Binder.Bind(q).Totals(ctx)
		return err
	})
	if err != nil {
		return t, perr.FromDB(err, "totals query failed")
	}
	return t, nil
}

// RecentCompletions implements domain.ReaderPort
func (s *Service) RecentCompletions(ctx context.Context, limit int) ([]dom.Completion, error) {
	var out []dom.Completion
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Binder.Bind(q).RecentCompletions(ctx, limit)
		return err
	})
	if err != nil {
		return nil, perr.FromDB(err, "recent completions query failed")
	}
	return out, nil
}
