package service

import (
	"context"
	"time"
)

// Run drives the scheduler until ctx is cancelled, then waits for in-flight
// workers to drain. Ticks are idempotent and safe to overlap across processes.
func (s *Svc) Run(ctx context.Context) error {
	s.log.Info().
		Int("max_workers", s.cfg.MaxWorkers).
		Dur("tick", s.cfg.Tick).
		Msg("crawler starting")

	t := time.NewTicker(s.cfg.Tick)
	defer t.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("crawler stopping, draining workers")
			s.wg.Wait()
			return ctx.Err()
		case <-t.C:
			s.tick(ctx)
		}
	}
}

// tick fills free capacity: generate that many prefixes, register each, and
// dispatch a worker per successful registration. Registration rejections are
// dropped silently; the next tick reconsiders.
func (s *Svc) tick(ctx context.Context) {
	active, err := s.registry.Count(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("registry count failed, skipping tick")
		return
	}
	free := s.cfg.MaxWorkers - active
	if free <= 0 {
		return
	}

	batch, err := s.cursor.NextBatch(ctx, free)
	if err != nil {
		s.log.Error().Err(err).Msg("batch generation failed, skipping tick")
		return
	}

	for _, p := range batch {
		ok, err := s.registry.TryRegister(ctx, p)
		if err != nil {
			s.log.Error().Err(err).Str("prefix", p).Msg("registration failed")
			continue
		}
		if !ok {
			continue
		}
		s.dispatch(ctx, p)
	}
}

// dispatch runs one worker for an already registered prefix
func (s *Svc) dispatch(ctx context.Context, prefix string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.runSearch(ctx, prefix); err != nil && ctx.Err() == nil {
			s.log.Error().Err(err).Str("prefix", prefix).Msg("search worker failed")
		}
	}()
}

// chainNext registers and dispatches exactly one replacement prefix while
// capacity remains. Called once per completed or failed search.
func (s *Svc) chainNext(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	for {
		active, err := s.registry.Count(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("chain: registry count failed")
			return
		}
		if active >= s.cfg.MaxWorkers {
			return
		}
		p, err := s.cursor.NextOne(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("chain: next prefix failed")
			return
		}
		ok, err := s.registry.TryRegister(ctx, p)
		if err != nil {
			s.log.Error().Err(err).Str("prefix", p).Msg("chain: registration failed")
			return
		}
		if ok {
			s.log.Info().Str("prefix", p).Msg("chained replacement search")
			s.dispatch(ctx, p)
			return
		}
		// already active elsewhere; advance and try the next one
	}
}
