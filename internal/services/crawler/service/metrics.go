package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spotcrawl_searches_completed_total",
		Help: "Search prefixes fully walked and recorded.",
	})
	artistsFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spotcrawl_artists_found_total",
		Help: "Artists counted in recorded search completions, pre-dedup.",
	})
	pagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spotcrawl_pages_fetched_total",
		Help: "Upstream search pages fetched.",
	})
	upstreamRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spotcrawl_upstream_rate_limited_total",
		Help: "Upstream 429 responses observed.",
	})
	workerFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spotcrawl_worker_failures_total",
		Help: "Search workers that surfaced an error after cleanup.",
	})
)
