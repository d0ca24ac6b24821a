// Package service implements the bounded active-search registry over redis.
// Membership lives in a set; start times live in a sibling hash so crashed
// workers can be swept out after the stale threshold.
package service

import (
	"context"
	"strconv"
	"time"

	"spotcrawl/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

const (
	// activeKey is the set of prefixes currently owned by workers
	activeKey = "active_searches"

	// timestampsKey maps prefix -> fractional start time in unix seconds
	timestampsKey = "active_searches:timestamps"
)

// register checks cardinality and membership and inserts into both structures
// in one atomic step. Returns 1 when the prefix was admitted.
var register = redis.NewScript(`
local max_workers = tonumber(ARGV[1])

if redis.call('SCARD', KEYS[1]) >= max_workers then
  return 0
end
if redis.call('SISMEMBER', KEYS[1], ARGV[2]) == 1 then
  return 0
end

redis.call('SADD', KEYS[1], ARGV[2])
redis.call('HSET', KEYS[2], ARGV[2], ARGV[3])
return 1
`)

// Config bounds the registry
type Config struct {
	MaxWorkers    int           // default 10
	SearchTimeout time.Duration // default 5m, reclaim threshold for crashed workers
}

// Service is the redis-backed registry
type Service struct {
	rdb *redis.Client
	cfg Config
	log logger.Logger

	now func() time.Time
}

// New builds the registry with defaults applied
func New(rdb *redis.Client, cfg Config, log logger.Logger) *Service {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 10
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = 5 * time.Minute
	}
	return &Service{
		rdb: rdb,
		cfg: cfg,
		log: log.With().Str("component", "registry").Logger(),
		now: time.Now,
	}
}

// MaxWorkers returns the configured concurrency bound
func (s *Service) MaxWorkers() int { return s.cfg.MaxWorkers }

// TryRegister admits prefix when there is capacity and it is not already
// active. Both structures are updated in one server-side step.
func (s *Service) TryRegister(ctx context.Context, prefix string) (bool, error) {
	now := float64(s.now().UnixNano()) / float64(time.Second)
	res, err := register.Run(ctx, s.rdb,
		[]string{activeKey, timestampsKey},
		s.cfg.MaxWorkers,
		prefix,
		strconv.FormatFloat(now, 'f', 6, 64),
	).Int64()
	if err != nil {
		return false, err
	}
	if res == 1 {
		s.log.Info().Str("prefix", prefix).Msg("registered active search")
	}
	return res == 1, nil
}

// Unregister removes prefix from both structures; idempotent
func (s *Service) Unregister(ctx context.Context, prefix string) error {
	pipe := s.rdb.TxPipeline()
	pipe.SRem(ctx, activeKey, prefix)
	pipe.HDel(ctx, timestampsKey, prefix)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	s.log.Info().Str("prefix", prefix).Msg("unregistered active search")
	return nil
}

// Members sweeps stale entries then returns the current set
func (s *Service) Members(ctx context.Context) ([]string, error) {
	if err := s.evictStale(ctx); err != nil {
		return nil, err
	}
	return s.rdb.SMembers(ctx, activeKey).Result()
}

// Count sweeps stale entries then returns the cardinality
func (s *Service) Count(ctx context.Context) (int, error) {
	if err := s.evictStale(ctx); err != nil {
		return 0, err
	}
	n, err := s.rdb.SCard(ctx, activeKey).Result()
	return int(n), err
}

// evictStale reclaims slots registered longer ago than the timeout; there is
// no liveness signal, only the start time. This frees capacity only; a still-running worker keeps going and
// resolves any duplicate via the idempotent completion insert.
func (s *Service) evictStale(ctx context.Context) error {
	members, err := s.rdb.SMembers(ctx, activeKey).Result()
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}
	stamps, err := s.rdb.HGetAll(ctx, timestampsKey).Result()
	if err != nil {
		return err
	}

	cutoff := float64(s.now().UnixNano())/float64(time.Second) - s.cfg.SearchTimeout.Seconds()
	for _, m := range members {
		raw, ok := stamps[m]
		if !ok {
			// membership without a stamp means a torn write; reclaim it
			s.log.Warn().Str("prefix", m).Msg("active search missing timestamp, evicting")
			if err := s.Unregister(ctx, m); err != nil {
				return err
			}
			continue
		}
		started, parseErr := strconv.ParseFloat(raw, 64)
		if parseErr != nil || started < cutoff {
			s.log.Info().Str("prefix", m).Msg("evicting stale search")
			if err := s.Unregister(ctx, m); err != nil {
				return err
			}
		}
	}
	return nil
}
