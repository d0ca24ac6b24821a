// Package service drives the crawl: a periodic scheduler admits prefixes into
// the shared registry and one worker per prefix walks the paginated search,
// persists artists, records completion, and chains a replacement.
package service

import (
	"sync"
	"time"

	"spotcrawl/internal/platform/logger"
	"spotcrawl/internal/services/crawler/domain"
	spotdom "spotcrawl/internal/services/spotify/domain"
)

// Config tunes the crawl loop
type Config struct {
	// MaxWorkers bounds concurrent searches across all processes
	MaxWorkers int

	// Tick is the scheduler period
	Tick time.Duration

	// RetryMax bounds upstream-429 retries per prefix
	RetryMax int

	// RetryBase seeds the jittered exponential backoff between 429 retries
	RetryBase time.Duration

	// RetryCap bounds a single 429 backoff sleep
	RetryCap time.Duration

	// CleanupRetries and CleanupBudget bound the failure-path unregister
	CleanupRetries int
	CleanupBudget  time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = 10
	}
	if c.Tick <= 0 {
		c.Tick = 5 * time.Second
	}
	if c.RetryMax <= 0 {
		c.RetryMax = 5
	}
	if c.RetryBase <= 0 {
		c.RetryBase = time.Second
	}
	if c.RetryCap <= 0 {
		c.RetryCap = 5 * time.Minute
	}
	if c.CleanupRetries <= 0 {
		c.CleanupRetries = 5
	}
	if c.CleanupBudget <= 0 {
		c.CleanupBudget = 30 * time.Second
	}
	return c
}

// Svc is the crawl coordinator
type Svc struct {
	cfg      Config
	registry domain.RegistryPort
	cursor   domain.CursorPort
	catalog  domain.CatalogPort
	found    domain.FoundPort
	search   spotdom.SearcherPort
	log      logger.Logger

	wg sync.WaitGroup

	// sleep is a seam for tests
	sleep func(d time.Duration)
}

// New wires the coordinator
func New(
	cfg Config,
	registry domain.RegistryPort,
	cursor domain.CursorPort,
	catalog domain.CatalogPort,
	found domain.FoundPort,
	search spotdom.SearcherPort,
	log logger.Logger,
) *Svc {
	return &Svc{
		cfg:      cfg.withDefaults(),
		registry: registry,
		cursor:   cursor,
		catalog:  catalog,
		found:    found,
		search:   search,
		log:      log.With().Str("component", "crawler").Logger(),
		sleep:    func(d time.Duration) { time.Sleep(d) },
	}
}
