package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	spotdom "spotcrawl/internal/services/spotify/domain"

	"github.com/google/uuid"
)

// runSearch owns one registered prefix from first page to completion record.
// States: check-done, paginate, record, chain; any error path runs cleanup
// and chains once so the slot is never lost.
func (s *Svc) runSearch(ctx context.Context, prefix string) error {
	runID := uuid.NewString()
	log := s.log.With().Str("prefix", prefix).Str("run_id", runID).Logger()
	log.Info().Msg("starting search")

	attempt := 0
	for {
		// Another worker may have finished this prefix already (duplicate
		// registration after a stale eviction). Exit without calling upstream.
		done, err := s.catalog.IsCompleted(ctx, prefix)
		if err != nil {
			workerFailures.Inc()
			s.failCleanup(ctx, prefix)
			return err
		}
		if done {
			log.Info().Msg("search already completed, skipping")
			s.finish(ctx, prefix)
			return nil
		}

		total, err := s.crawl(ctx, prefix)
		if err == nil {
			if err := s.catalog.RecordCompletion(ctx, prefix, total); err != nil {
				workerFailures.Inc()
				s.failCleanup(ctx, prefix)
				return err
			}
			searchesCompleted.Inc()
			artistsFound.Add(float64(total))
			log.Info().Int("artists", total).Msg("search completed")
			s.finish(ctx, prefix)
			return nil
		}

		var rl *spotdom.RateLimited
		if errors.As(err, &rl) && attempt < s.cfg.RetryMax {
			attempt++
			upstreamRateLimited.Inc()
			delay := s.retryDelay(rl.RetryAfter, attempt)
			log.Warn().
				Dur("retry_after", rl.RetryAfter).
				Dur("delay", delay).
				Int("attempt", attempt).
				Msg("upstream rate limited, backing off")

			// free the slot while we sleep, then take it back if we can;
			// retries restart from offset 0 and every write is idempotent
			if uerr := s.registry.Unregister(ctx, prefix); uerr != nil {
				log.Error().Err(uerr).Msg("unregister before retry failed")
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			if ok, rerr := s.registry.TryRegister(ctx, prefix); rerr != nil {
				log.Error().Err(rerr).Msg("re-register after backoff failed")
			} else if !ok {
				log.Warn().Msg("slot taken during backoff, continuing unregistered")
			}
			continue
		}

		workerFailures.Inc()
		s.failCleanup(ctx, prefix)
		return err
	}
}

// crawl walks the paginated endpoint for prefix and returns the artist count.
// Pages are issued in strictly increasing offsets; a short or empty page ends
// the walk, as does the provider's hard offset cap.
func (s *Svc) crawl(ctx context.Context, prefix string) (int, error) {
	offset := 0
	total := 0
	for {
		artists, err := s.search.SearchArtists(ctx, prefix, spotdom.PageLimit, offset)
		if err != nil {
			return total, err
		}
		pagesFetched.Inc()

		if len(artists) > 0 {
			if err := s.catalog.UpsertArtists(ctx, artists); err != nil {
				return total, err
			}
			total += len(artists)
		}
		if err := s.found.UpdateFound(ctx, prefix, offset, len(artists)); err != nil {
			s.log.Warn().Err(err).Str("prefix", prefix).Int("offset", offset).Msg("update found failed")
		}

		if len(artists) == 0 || len(artists) < spotdom.PageLimit {
			return total, nil
		}
		next := offset + spotdom.PageLimit
		if next > spotdom.MaxOffset {
			return total, nil
		}
		offset = next
	}
}

// finish frees the slot and chains one replacement
func (s *Svc) finish(ctx context.Context, prefix string) {
	if err := s.registry.Unregister(ctx, prefix); err != nil {
		s.log.Error().Err(err).Str("prefix", prefix).Msg("unregister failed")
	}
	s.chainNext(ctx)
}

// failCleanup frees the slot with bounded retries and chains once, so a
// failing worker cannot strand capacity
func (s *Svc) failCleanup(ctx context.Context, prefix string) {
	deadline := time.Now().Add(s.cfg.CleanupBudget)
	backoff := 500 * time.Millisecond
	for i := 0; i < s.cfg.CleanupRetries; i++ {
		err := s.registry.Unregister(ctx, prefix)
		if err == nil {
			break
		}
		s.log.Error().Err(err).Str("prefix", prefix).Int("try", i+1).Msg("cleanup unregister failed")
		if time.Now().Add(backoff).After(deadline) {
			break
		}
		s.sleep(backoff)
		backoff *= 2
	}
	s.chainNext(ctx)
}

// retryDelay grows exponentially from the server-provided floor with jitter,
// capped by config
func (s *Svc) retryDelay(retryAfter time.Duration, attempt int) time.Duration {
	d := s.cfg.RetryBase << uint(attempt-1)
	if retryAfter > d {
		d = retryAfter
	}
	// up to 25% jitter so synchronized workers spread out
	d += time.Duration(rand.Int63n(int64(d)/4 + 1))
	if d > s.cfg.RetryCap {
		d = s.cfg.RetryCap
	}
	return d
}
