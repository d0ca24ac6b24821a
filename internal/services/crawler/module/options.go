package module

import (
	"time"

	"spotcrawl/internal/platform/config"
)

// hardWorkerCap matches the provider's rate budget; configuration cannot raise it
const hardWorkerCap = 10

// Options holds configuration settings for the crawler module
type Options struct {
	MaxWorkers    int
	Tick          time.Duration
	RateWindow    time.Duration
	RateMax       int
	SearchTimeout time.Duration
}

// FromConfig reads crawler settings from the CRAWLER_ scope
func FromConfig(cfg config.Conf) Options {
	cf := cfg.Prefix("CRAWLER_")
	workers := cf.MayInt("MAX_WORKERS", hardWorkerCap)
	if workers > hardWorkerCap {
		workers = hardWorkerCap
	}
	return Options{
		MaxWorkers:    workers,
		Tick:          cf.MayDuration("TICK", 5*time.Second),
		RateWindow:    time.Duration(cf.MayInt("RATE_WINDOW_SECS", 30)) * time.Second,
		RateMax:       cf.MayInt("RATE_MAX", 10),
		SearchTimeout: time.Duration(cf.MayInt("SEARCH_TIMEOUT_SECS", 300)) * time.Second,
	}
}
