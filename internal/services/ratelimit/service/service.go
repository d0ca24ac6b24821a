// Package service implements the shared sliding-window rate limiter over redis.
// All admission decisions run inside one server-side script so check-and-add
// cannot race across processes.
package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"spotcrawl/internal/platform/logger"
	dom "spotcrawl/internal/services/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

const (
	// requestsKey is the sorted set of admitted request tags scored by unix seconds
	requestsKey = "api_requests"

	// requestDetailPrefix namespaces the per-request metadata hashes
	requestDetailPrefix = "request:"

	// recordTTL keeps window bookkeeping from leaking when a process dies
	recordTTL = 60
)

// checkAndAdd evicts expired records, counts the live window, and inserts the
// new tag plus its metadata hash only when the cap allows. Returns 1 on admit.
var checkAndAdd = redis.NewScript(`
local window_start = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local max_requests = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', KEYS[1], 0, window_start)

local count = redis.call('ZCOUNT', KEYS[1], window_start, '+inf')
if count >= max_requests then
  return 0
end

redis.call('ZADD', KEYS[1], now, ARGV[4])
redis.call('HSET', 'request:' .. ARGV[4],
  'query', ARGV[5],
  'offset', ARGV[6],
  'limit', ARGV[7],
  'timestamp', tostring(now),
  'artists_found', '0'
)
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[8]))
redis.call('EXPIRE', 'request:' .. ARGV[4], tonumber(ARGV[8]))

return 1
`)

// Config sets the fixed window parameters shared by every worker
type Config struct {
	Window time.Duration // default 30s
	Max    int           // default 10
}

// Service is the redis-backed limiter
type Service struct {
	rdb *redis.Client
	cfg Config
	log logger.Logger

	// now is a seam for tests
	now func() time.Time
}

// New builds the limiter with defaults applied
func New(rdb *redis.Client, cfg Config, log logger.Logger) *Service {
	if cfg.Window <= 0 {
		cfg.Window = 30 * time.Second
	}
	if cfg.Max <= 0 {
		cfg.Max = 10
	}
	return &Service{
		rdb: rdb,
		cfg: cfg,
		log: log.With().Str("component", "ratelimit").Logger(),
		now: time.Now,
	}
}

// Window returns the configured window width
func (s *Service) Window() time.Duration { return s.cfg.Window }

// Max returns the configured cap
func (s *Service) Max() int { return s.cfg.Max }

// TryAdmit atomically admits or denies one request. The tag is
// query:offset:now so UpdateFound can find the record again.
func (s *Service) TryAdmit(ctx context.Context, query string, offset, limit int) (bool, error) {
	now := s.unixNow()
	windowStart := now - s.cfg.Window.Seconds()
	tag := fmt.Sprintf("%s:%d:%s", query, offset, formatTS(now))

	res, err := checkAndAdd.Run(ctx, s.rdb,
		[]string{requestsKey},
		formatTS(windowStart),
		formatTS(now),
		s.cfg.Max,
		tag,
		query,
		strconv.Itoa(offset),
		strconv.Itoa(limit),
		recordTTL,
	).Int64()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// NextSlotETA reports how long until an admission can succeed. Zero when the
// window has room; otherwise the age the oldest record still has to live.
func (s *Service) NextSlotETA(ctx context.Context) (time.Duration, error) {
	now := s.unixNow()
	windowStart := now - s.cfg.Window.Seconds()

	entries, err := s.rdb.ZRangeByScoreWithScores(ctx, requestsKey, &redis.ZRangeBy{
		Min: formatTS(windowStart),
		Max: "+inf",
	}).Result()
	if err != nil {
		return 0, err
	}
	if len(entries) < s.cfg.Max {
		return 0, nil
	}

	oldest := entries[0].Score
	eta := oldest + s.cfg.Window.Seconds() - now
	if eta < 0 {
		eta = 0
	}
	return time.Duration(eta * float64(time.Second)), nil
}

// UpdateFound records how many artists an admitted request returned.
// Best-effort: the first tag matching query:offset in the window wins, and
// errors only degrade the observability endpoint.
func (s *Service) UpdateFound(ctx context.Context, query string, offset, found int) error {
	now := s.unixNow()
	windowStart := now - s.cfg.Window.Seconds()

	tags, err := s.rdb.ZRangeByScore(ctx, requestsKey, &redis.ZRangeBy{
		Min: formatTS(windowStart),
		Max: "+inf",
	}).Result()
	if err != nil {
		return err
	}

	want := fmt.Sprintf("%s:%d:", query, offset)
	for _, tag := range tags {
		if strings.HasPrefix(tag, want) {
			return s.rdb.HSet(ctx, requestDetailPrefix+tag, "artists_found", found).Err()
		}
	}
	return nil
}

// Info snapshots the current window for the status endpoint
func (s *Service) Info(ctx context.Context) (dom.Info, error) {
	now := s.unixNow()
	windowStart := now - s.cfg.Window.Seconds()
	info := dom.Info{
		WindowSize:  int(s.cfg.Window.Seconds()),
		MaxRequests: s.cfg.Max,
		WindowStart: windowStart,
		WindowEnd:   now,
	}

	pipe := s.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, requestsKey, "0", formatTS(windowStart))
	rangeCmd := pipe.ZRangeWithScores(ctx, requestsKey, 0, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return info, err
	}

	entries := rangeCmd.Val()
	info.CurrentRequests = len(entries)
	info.RemainingRequests = max(0, s.cfg.Max-len(entries))
	if len(entries) > 0 && len(entries) >= s.cfg.Max {
		oldest := entries[0].Score
		info.TimeUntilNextRequest = max(0.0, oldest+s.cfg.Window.Seconds()-now)
	}
	return info, nil
}

// WindowRequests lists the window's requests with metadata, newest first
func (s *Service) WindowRequests(ctx context.Context) ([]dom.Request, error) {
	now := s.unixNow()
	windowStart := now - s.cfg.Window.Seconds()

	tags, err := s.rdb.ZRangeByScore(ctx, requestsKey, &redis.ZRangeBy{
		Min: formatTS(windowStart),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}

	out := make([]dom.Request, 0, len(tags))
	for _, tag := range tags {
		fields, err := s.rdb.HGetAll(ctx, requestDetailPrefix+tag).Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		req := dom.Request{Query: fields["query"]}
		req.Offset, _ = strconv.Atoi(fields["offset"])
		req.Limit, _ = strconv.Atoi(fields["limit"])
		req.Timestamp, _ = strconv.ParseFloat(fields["timestamp"], 64)
		req.ArtistsFound, _ = strconv.Atoi(fields["artists_found"])
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

func (s *Service) unixNow() float64 {
	t := s.now()
	return float64(t.UnixNano()) / float64(time.Second)
}

// formatTS prints a fractional unix timestamp the way redis scores expect
func formatTS(ts float64) string {
	return strconv.FormatFloat(ts, 'f', 6, 64)
}
