// Package service assembles the status snapshot from redis and postgres
package service

import (
	"context"

	"spotcrawl/internal/platform/logger"
	dom "spotcrawl/internal/services/api/status/domain"
	catalogdom "spotcrawl/internal/services/catalog/domain"
	ratedom "spotcrawl/internal/services/ratelimit/domain"
)

// RegistryReader lists the active searches
type RegistryReader interface {
	Members(ctx context.Context) ([]string, error)
}

// RateReader exposes the window snapshot and its request records
type RateReader interface {
	Info(ctx context.Context) (ratedom.Info, error)
	WindowRequests(ctx context.Context) ([]ratedom.Request, error)
}

// Service builds status snapshots; every backend failure is logged and
// replaced with a zero value so the endpoint itself never errors
type Service struct {
	Registry RegistryReader
	Rate     RateReader
	Catalog  catalogdom.ReaderPort
	Log      logger.Logger
}

// New constructs the status service
func New(reg RegistryReader, rate RateReader, cat catalogdom.ReaderPort, log logger.Logger) *Service {
	return &Service{
		Registry: reg,
		Rate:     rate,
		Catalog:  cat,
		Log:      log.With().Str("component", "status").Logger(),
	}
}

// Snapshot gathers the current system state
func (s *Service) Snapshot(ctx context.Context) dom.Status {
	out := dom.Status{
		ActiveSearches: []string{},
		WindowRequests: []ratedom.Request{},
		RecentSearches: []catalogdom.Completion{},
	}

	if members, err := s.Registry.Members(ctx); err != nil {
		s.Log.Error().Err(err).Msg("active searches unavailable")
	} else if members != nil {
		out.ActiveSearches = members
	}
	out.ActiveSearchCount = len(out.ActiveSearches)

	if info, err := s.Rate.Info(ctx); err != nil {
		s.Log.Error().Err(err).Msg("rate limit info unavailable")
	} else {
		out.RateLimitStatus = info
	}

	if reqs, err := s.Rate.WindowRequests(ctx); err != nil {
		s.Log.Error().Err(err).Msg("window requests unavailable")
	} else if reqs != nil {
		out.WindowRequests = reqs
	}

	if totals, err := s.Catalog.Totals(ctx); err != nil {
		s.Log.Error().Err(err).Msg("catalog totals unavailable")
	} else {
		out.Totals = totals
	}

	if recent, err := s.Catalog.RecentCompletions(ctx, 10); err != nil {
		s.Log.Error().Err(err).Msg("recent completions unavailable")
	} else if recent != nil {
		out.RecentSearches = recent
	}

	return out
}
