// Package service implements the spotify upstream client: token acquisition
// and the rate-gated artist search call
package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	perr "spotcrawl/internal/platform/errors"
	"spotcrawl/internal/platform/logger"
	dom "spotcrawl/internal/services/spotify/domain"

	"github.com/go-resty/resty/v2"
)

// admitSlack is added to the limiter ETA so we don't wake exactly on the boundary
const admitSlack = 10 * time.Millisecond

// defaultRetryAfter applies when a 429 carries no Retry-After header
const defaultRetryAfter = 30 * time.Second

// Config configures the search client
type Config struct {
	BaseURL string
}

// Client calls the upstream search endpoint. Every request is admitted
// through the shared rate limiter first and signed with a cached token.
type Client struct {
	http    *resty.Client
	tokens  dom.TokenPort
	admit   dom.AdmitterPort
	baseURL string
	log     logger.Logger
}

// New builds a search client
func New(cfg Config, tokens dom.TokenPort, admit dom.AdmitterPort, log logger.Logger) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.spotify.com/v1"
	}
	return &Client{
		http:    resty.New().SetTimeout(30 * time.Second),
		tokens:  tokens,
		admit:   admit,
		baseURL: base,
		log:     log.With().Str("component", "spotify.client").Logger(),
	}
}

// searchEnvelope mirrors the upstream response shape. Items are kept raw so
// one malformed entry can be skipped without dropping the page.
type searchEnvelope struct {
	Artists struct {
		Items []json.RawMessage `json:"items"`
	} `json:"artists"`
}

// SearchArtists implements domain.SearcherPort.
// It blocks until the rate limiter admits the request, then issues one page.
func (c *Client) SearchArtists(ctx context.Context, query string, limit, offset int) ([]dom.Artist, error) {
	if limit <= 0 {
		limit = dom.PageLimit
	}
	if limit > dom.PageLimit {
		return nil, perr.Validationf("limit must be at most %d", dom.PageLimit)
	}
	if offset < 0 || offset > dom.MaxOffset {
		return nil, perr.Validationf("offset must be within 0..%d", dom.MaxOffset)
	}

	if err := c.waitForSlot(ctx, query, offset, limit); err != nil {
		return nil, err
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var envelope searchEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(map[string]string{
			"q":      query,
			"type":   "artist",
			"limit":  strconv.Itoa(limit),
			"offset": strconv.Itoa(offset),
		}).
		SetResult(&envelope).
		Get(c.baseURL + "/search")
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "search request failed")
	}

	switch {
	case resp.StatusCode() == 429:
		retryAfter := defaultRetryAfter
		if v := resp.Header().Get("Retry-After"); v != "" {
			if secs, aerr := strconv.Atoi(v); aerr == nil && secs >= 0 {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return nil, &dom.RateLimited{RetryAfter: retryAfter}
	case resp.IsError():
		return nil, &dom.UpstreamError{Status: resp.StatusCode()}
	}

	artists := make([]dom.Artist, 0, len(envelope.Artists.Items))
	for _, raw := range envelope.Artists.Items {
		var a dom.Artist
		if err := json.Unmarshal(raw, &a); err != nil || a.ID == "" {
			c.log.Warn().Err(err).Str("query", query).Int("offset", offset).Msg("skipping unparseable artist entry")
			continue
		}
		if a.Genres == nil {
			a.Genres = []string{}
		}
		artists = append(artists, a)
	}
	return artists, nil
}

// waitForSlot loops on the limiter: admit, or sleep until the next slot frees.
// Shared-storage errors abort; the request must not be issued without admission.
func (c *Client) waitForSlot(ctx context.Context, query string, offset, limit int) error {
	for {
		ok, err := c.admit.TryAdmit(ctx, query, offset, limit)
		if err != nil {
			return perr.Wrap(err, perr.ErrorCodeUnavailable, "rate limiter unavailable")
		}
		if ok {
			return nil
		}

		eta, err := c.admit.NextSlotETA(ctx)
		if err != nil {
			return perr.Wrap(err, perr.ErrorCodeUnavailable, "rate limiter unavailable")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(eta + admitSlack):
		}
	}
}
