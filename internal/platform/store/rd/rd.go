// Package rd provides a Redis client wrapper over go-redis with URL parsing
package rd

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Config configures the redis client
type Config struct {
	// URL is a redis:// or rediss:// connection string
	URL string
	// MaxConns bounds the connection pool, 0 keeps the driver default
	MaxConns int
}

// RD is a redis client handle
type RD struct {
	Client *redis.Client
}

// Open parses the URL and builds a client. The connection is lazy; callers
// that need readiness should Ping before use (the store opener does).
func Open(cfg Config) (*RD, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		opt.PoolSize = cfg.MaxConns
	}
	return &RD{Client: redis.NewClient(opt)}, nil
}

// Ping checks connectivity
func (r *RD) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return redis.ErrClosed
	}
	return r.Client.Ping(ctx).Err()
}

// Close releases the client
func (r *RD) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
