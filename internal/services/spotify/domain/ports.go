package domain

import (
	"context"
	"time"
)

// TokenPort produces a valid bearer token for upstream calls
type TokenPort interface {
	Token(ctx context.Context) (string, error)
}

// SearcherPort walks the upstream artist search endpoint one page at a time
type SearcherPort interface {
	SearchArtists(ctx context.Context, query string, limit, offset int) ([]Artist, error)
}

// AdmitterPort gates one outbound request against the shared rate budget.
// TryAdmit is atomic; NextSlotETA tells the caller how long to sleep when denied.
type AdmitterPort interface {
	TryAdmit(ctx context.Context, query string, offset, limit int) (bool, error)
	NextSlotETA(ctx context.Context) (time.Duration, error)
}
