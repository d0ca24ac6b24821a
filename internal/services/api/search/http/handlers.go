// Package http provides the public search passthrough endpoint
package http

import (
	"errors"
	stdhttp "net/http"
	"strconv"

	"spotcrawl/internal/modkit/httpkit"
	perr "spotcrawl/internal/platform/errors"
	"spotcrawl/internal/platform/net/http/bind"
	spotdom "spotcrawl/internal/services/spotify/domain"
)

// searchInput is the validated query surface of GET /search
type searchInput struct {
	Q      string `json:"q"      validate:"required,min=1"`
	Limit  int    `json:"limit"  validate:"min=1,max=50"`
	Offset int    `json:"offset" validate:"min=0,max=950"`
}

// searchResponse mirrors the upstream artist list shape
type searchResponse struct {
	Artists []spotdom.Artist `json:"artists"`
}

// Register mounts the search endpoint on the given router
func Register(r httpkit.Router, search spotdom.SearcherPort) {
	h := &handlers{svc: search}
	httpkit.GetJSON(r, "/search", h.search)
}

type handlers struct{ svc spotdom.SearcherPort }

// search proxies one page through the shared rate limiter and token cache
func (h *handlers) search(r *stdhttp.Request) (any, error) {
	in, err := parseInput(r)
	if err != nil {
		return nil, err
	}
	artists, err := h.svc.SearchArtists(r.Context(), in.Q, in.Limit, in.Offset)
	if err != nil {
		return nil, mapUpstream(err)
	}
	return searchResponse{Artists: artists}, nil
}

func parseInput(r *stdhttp.Request) (searchInput, error) {
	q := r.URL.Query()
	in := searchInput{
		Q:     q.Get("q"),
		Limit: spotdom.PageLimit,
	}
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return in, perr.WithField(perr.Validationf("limit must be an integer"), "limit")
		}
		in.Limit = v
	}
	if raw := q.Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return in, perr.WithField(perr.Validationf("offset must be an integer"), "offset")
		}
		in.Offset = v
	}
	if err := bind.Validate(in); err != nil {
		return in, err
	}
	return in, nil
}

// mapUpstream keeps the upstream's status visible to API callers: a 404 from
// the provider comes back as a 404, not a generic 503
func mapUpstream(err error) error {
	var rl *spotdom.RateLimited
	if errors.As(err, &rl) {
		return perr.TooManyRequestsf("upstream rate limited, retry after %s", rl.RetryAfter)
	}
	var ue *spotdom.UpstreamError
	if errors.As(err, &ue) {
		return perr.WithHTTPStatus(perr.Unavailablef("upstream returned %d", ue.Status), ue.Status)
	}
	return err
}
