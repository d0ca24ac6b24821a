// Package domain defines the status endpoint response shapes
package domain

import (
	catalogdom "spotcrawl/internal/services/catalog/domain"
	ratedom "spotcrawl/internal/services/ratelimit/domain"
)

// Status is the full system snapshot returned by GET /status.
// It degrades to zero values rather than failing when a backend is down.
type Status struct {
	ActiveSearches    []string             `json:"active_searches"`
	ActiveSearchCount int                  `json:"active_search_count"`
	RateLimitStatus   ratedom.Info         `json:"rate_limit_status"`
	WindowRequests    []ratedom.Request    `json:"window_requests"`
	Totals            catalogdom.Totals    `json:"totals"`
	RecentSearches    []catalogdom.Completion `json:"recent_searches"`
}
