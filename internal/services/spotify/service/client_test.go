package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	perr "spotcrawl/internal/platform/errors"
	"spotcrawl/internal/platform/logger"
	dom "spotcrawl/internal/services/spotify/domain"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }

// admitAfter denies the first n admits, then admits everything
type admitAfter struct {
	denials int32
}

func (a *admitAfter) TryAdmit(context.Context, string, int, int) (bool, error) {
	if atomic.AddInt32(&a.denials, -1) >= 0 {
		return false, nil
	}
	return true, nil
}

func (a *admitAfter) NextSlotETA(context.Context) (time.Duration, error) {
	return time.Millisecond, nil
}

func newTestClient(baseURL string, admit dom.AdmitterPort) *Client {
	return New(Config{BaseURL: baseURL}, staticToken("tok"), admit, *logger.Get())
}

func searchBody(items ...any) string {
	b, _ := json.Marshal(map[string]any{
		"artists": map[string]any{"items": items},
	})
	return string(b)
}

func TestSearchArtists_ParsesPageAndSendsAuth(t *testing.T) {
	t.Parallel()

	var gotAuth, gotQuery, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("q")
		gotType = r.URL.Query().Get("type")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchBody(
			map[string]any{"id": "a1", "name": "One", "genres": []string{"rock"}, "popularity": 42},
			map[string]any{"id": "a2", "name": "Two"},
		)))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &admitAfter{})
	artists, err := c.SearchArtists(context.Background(), "abba", 50, 0)
	if err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotQuery != "abba" || gotType != "artist" {
		t.Fatalf("query params q=%q type=%q", gotQuery, gotType)
	}
	if len(artists) != 2 {
		t.Fatalf("parsed %d artists, want 2", len(artists))
	}
	if artists[0].ID != "a1" || artists[0].Popularity != 42 {
		t.Fatalf("artist[0] = %+v", artists[0])
	}
	if artists[1].Genres == nil {
		t.Fatal("missing genres must default to empty, not nil")
	}
}

func TestSearchArtists_SkipsUnparseableEntries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchBody(
			map[string]any{"id": "ok1", "name": "Good"},
			map[string]any{"name": "no id"},
			"not an object",
			map[string]any{"id": "ok2", "name": "Also good"},
		)))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &admitAfter{})
	artists, err := c.SearchArtists(context.Background(), "x", 50, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(artists) != 2 || artists[0].ID != "ok1" || artists[1].ID != "ok2" {
		t.Fatalf("artists = %+v, want the two parseable entries", artists)
	}
}

func TestSearchArtists_RateLimitedCarriesRetryAfter(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &admitAfter{})
	_, err := c.SearchArtists(context.Background(), "x", 50, 0)
	rl, ok := err.(*dom.RateLimited)
	if !ok {
		t.Fatalf("err = %v, want *RateLimited", err)
	}
	if rl.RetryAfter != 2*time.Second {
		t.Fatalf("RetryAfter = %s, want 2s", rl.RetryAfter)
	}
}

func TestSearchArtists_RateLimitedDefaultsRetryAfter(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &admitAfter{})
	_, err := c.SearchArtists(context.Background(), "x", 50, 0)
	rl, ok := err.(*dom.RateLimited)
	if !ok {
		t.Fatalf("err = %v, want *RateLimited", err)
	}
	if rl.RetryAfter != 30*time.Second {
		t.Fatalf("RetryAfter = %s, want the 30s default", rl.RetryAfter)
	}
}

func TestSearchArtists_WaitsForAdmission(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchBody()))
	}))
	defer srv.Close()

	admit := &admitAfter{denials: 3}
	c := newTestClient(srv.URL, admit)
	if _, err := c.SearchArtists(context.Background(), "x", 50, 0); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("upstream hit %d times, want exactly 1", hits)
	}
}

func TestSearchArtists_RejectsBadArguments(t *testing.T) {
	t.Parallel()

	c := newTestClient("http://unused.invalid", &admitAfter{})
	if _, err := c.SearchArtists(context.Background(), "x", 51, 0); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("limit 51: err = %v, want validation error", err)
	}
	if _, err := c.SearchArtists(context.Background(), "x", 50, 951); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("offset 951: err = %v, want validation error", err)
	}
}

func TestSearchArtists_ErrorKeepsUpstreamStatus(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusNotFound, http.StatusUnauthorized, http.StatusBadGateway} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		c := newTestClient(srv.URL, &admitAfter{})
		_, err := c.SearchArtists(context.Background(), "x", 50, 0)
		srv.Close()

		ue, ok := err.(*dom.UpstreamError)
		if !ok {
			t.Fatalf("status %d: err = %v, want *UpstreamError", status, err)
		}
		if ue.Status != status {
			t.Fatalf("Status = %d, want %d", ue.Status, status)
		}
	}
}
