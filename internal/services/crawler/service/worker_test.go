package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"spotcrawl/internal/platform/logger"
	spotdom "spotcrawl/internal/services/spotify/domain"
)

// fakeRegistry is an in-memory bounded set
type fakeRegistry struct {
	mu    sync.Mutex
	max   int
	set   map[string]bool
	regs  []string
	unreg []string
}

func newFakeRegistry(max int) *fakeRegistry {
	return &fakeRegistry{max: max, set: map[string]bool{}}
}

func (f *fakeRegistry) TryRegister(_ context.Context, p string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.set) >= f.max || f.set[p] {
		return false, nil
	}
	f.set[p] = true
	f.regs = append(f.regs, p)
	return true, nil
}

func (f *fakeRegistry) Unregister(_ context.Context, p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.set, p)
	f.unreg = append(f.unreg, p)
	return nil
}

func (f *fakeRegistry) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.set), nil
}

// fakeCursor hands out a fixed sequence
type fakeCursor struct {
	mu   sync.Mutex
	next []string
}

func (f *fakeCursor) NextBatch(_ context.Context, n int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n > len(f.next) {
		n = len(f.next)
	}
	out := f.next[:n]
	f.next = f.next[n:]
	return out, nil
}

func (f *fakeCursor) NextOne(ctx context.Context) (string, error) {
	batch, err := f.NextBatch(ctx, 1)
	if err != nil {
		return "", err
	}
	if len(batch) == 0 {
		return "", errors.New("cursor exhausted")
	}
	return batch[0], nil
}

// fakeCatalog records writes in memory
type fakeCatalog struct {
	mu          sync.Mutex
	completed   map[string]int
	artists     map[string]spotdom.Artist
	completeErr error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{completed: map[string]int{}, artists: map[string]spotdom.Artist{}}
}

func (f *fakeCatalog) IsCompleted(_ context.Context, q string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.completed[q]
	return ok, nil
}

func (f *fakeCatalog) UpsertArtists(_ context.Context, artists []spotdom.Artist) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range artists {
		if _, ok := f.artists[a.ID]; !ok {
			f.artists[a.ID] = a
		}
	}
	return nil
}

func (f *fakeCatalog) RecordCompletion(_ context.Context, q string, n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeErr != nil {
		return f.completeErr
	}
	if _, ok := f.completed[q]; ok {
		return nil // absorbed like the real duplicate-key path
	}
	f.completed[q] = n
	return nil
}

// fakeFound swallows update calls
type fakeFound struct{}

func (fakeFound) UpdateFound(context.Context, string, int, int) error { return nil }

// pageFn lets each test script the upstream
type pageFn func(query string, offset int) ([]spotdom.Artist, error)

type fakeSearch struct {
	mu    sync.Mutex
	fn    pageFn
	calls []int
}

func (f *fakeSearch) SearchArtists(_ context.Context, query string, _ int, offset int) ([]spotdom.Artist, error) {
	f.mu.Lock()
	f.calls = append(f.calls, offset)
	fn := f.fn
	f.mu.Unlock()
	return fn(query, offset)
}

func artistsPage(n int, seed string) []spotdom.Artist {
	out := make([]spotdom.Artist, n)
	for i := range out {
		out[i] = spotdom.Artist{ID: seed + string(rune('a'+i%26)) + itoa(i), Name: "artist"}
	}
	return out
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	s := ""
	for n > 0 {
		s = string(rune('0'+n%10)) + s
		n /= 10
	}
	return s
}

func newSvc(reg *fakeRegistry, cur *fakeCursor, cat *fakeCatalog, search *fakeSearch, cfg Config) *Svc {
	s := New(cfg, reg, cur, cat, fakeFound{}, search, *logger.Get())
	s.sleep = func(time.Duration) {}
	return s
}

func TestRunSearch_ShortPageCompletes(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry(1)
	reg.set["aaaa"] = true
	cat := newFakeCatalog()
	search := &fakeSearch{fn: func(_ string, offset int) ([]spotdom.Artist, error) {
		return artistsPage(30, "s5"), nil
	}}
	s := newSvc(reg, &fakeCursor{}, cat, search, Config{MaxWorkers: 1})

	if err := s.runSearch(context.Background(), "aaaa"); err != nil {
		t.Fatal(err)
	}
	if got := cat.completed["aaaa"]; got != 30 {
		t.Fatalf("completion recorded %d artists, want 30", got)
	}
	if len(search.calls) != 1 || search.calls[0] != 0 {
		t.Fatalf("expected a single page at offset 0, got %v", search.calls)
	}
	if len(reg.set) != 0 {
		t.Fatalf("slot not freed: %v", reg.set)
	}
}

func TestRunSearch_HardOffsetCap(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry(1)
	reg.set["aaaa"] = true
	cat := newFakeCatalog()
	search := &fakeSearch{fn: func(_ string, offset int) ([]spotdom.Artist, error) {
		return artistsPage(50, itoa(offset)+"-"), nil
	}}
	s := newSvc(reg, &fakeCursor{}, cat, search, Config{MaxWorkers: 1})

	if err := s.runSearch(context.Background(), "aaaa"); err != nil {
		t.Fatal(err)
	}
	if got := cat.completed["aaaa"]; got != 1000 {
		t.Fatalf("completion recorded %d artists, want 1000", got)
	}
	if len(search.calls) != 20 {
		t.Fatalf("issued %d pages, want 20", len(search.calls))
	}
	for _, off := range search.calls {
		if off > 950 {
			t.Fatalf("issued offset %d beyond the provider cap", off)
		}
	}
}

func TestRunSearch_AlreadyCompletedSkipsUpstream(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry(1)
	reg.set["aaaa"] = true
	cat := newFakeCatalog()
	cat.completed["aaaa"] = 7
	search := &fakeSearch{fn: func(string, int) ([]spotdom.Artist, error) {
		t.Error("upstream must not be called for a completed prefix")
		return nil, nil
	}}
	s := newSvc(reg, &fakeCursor{}, cat, search, Config{MaxWorkers: 1})

	if err := s.runSearch(context.Background(), "aaaa"); err != nil {
		t.Fatal(err)
	}
	if cat.completed["aaaa"] != 7 {
		t.Fatal("existing completion must not be overwritten")
	}
}

func TestRunSearch_ChainsExactlyOneReplacement(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry(1)
	reg.set["aaaa"] = true
	cat := newFakeCatalog()
	search := &fakeSearch{fn: func(string, int) ([]spotdom.Artist, error) {
		return nil, nil
	}}
	cur := &fakeCursor{next: []string{"aaab", "aaac"}}
	s := newSvc(reg, cur, cat, search, Config{MaxWorkers: 1})

	if err := s.runSearch(context.Background(), "aaaa"); err != nil {
		t.Fatal(err)
	}
	s.wg.Wait()

	if len(reg.regs) == 0 || reg.regs[0] != "aaab" {
		t.Fatalf("expected aaab to be chained, got %v", reg.regs)
	}
	if _, ok := cat.completed["aaab"]; !ok {
		t.Fatal("chained worker did not run to completion")
	}
	// only one replacement may be chained per completion; aaac is chained by
	// aaab's own completion, not aaaa's
	if _, ok := cat.completed["aaac"]; !ok {
		t.Fatal("chain did not propagate")
	}
}

func TestRunSearch_RateLimitedRetriesFromZero(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry(1)
	reg.set["aaaa"] = true
	cat := newFakeCatalog()

	var mu sync.Mutex
	fail := true
	search := &fakeSearch{}
	search.fn = func(_ string, offset int) ([]spotdom.Artist, error) {
		mu.Lock()
		defer mu.Unlock()
		if offset == 50 && fail {
			fail = false
			return nil, &spotdom.RateLimited{RetryAfter: time.Millisecond}
		}
		if offset == 0 {
			return artistsPage(50, "rl"), nil
		}
		return artistsPage(10, "rl2"), nil
	}
	s := newSvc(reg, &fakeCursor{}, cat, search, Config{
		MaxWorkers: 1,
		RetryBase:  time.Millisecond,
		RetryCap:   5 * time.Millisecond,
	})

	if err := s.runSearch(context.Background(), "aaaa"); err != nil {
		t.Fatal(err)
	}
	if got := cat.completed["aaaa"]; got != 60 {
		t.Fatalf("completion recorded %d artists, want 60", got)
	}
	// retry restarted from offset 0: 0, 50 (429), 0, 50
	if len(search.calls) != 4 {
		t.Fatalf("calls = %v, want retry from offset 0", search.calls)
	}
	if len(reg.unreg) == 0 || reg.unreg[0] != "aaaa" {
		t.Fatal("slot must be freed while backing off")
	}
}

func TestRunSearch_FailureCleansUpAndSurfaces(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry(1)
	reg.set["aaaa"] = true
	cat := newFakeCatalog()
	boom := errors.New("upstream exploded")
	search := &fakeSearch{fn: func(string, int) ([]spotdom.Artist, error) {
		return nil, boom
	}}
	cur := &fakeCursor{next: []string{"aaab"}}
	s := newSvc(reg, cur, cat, search, Config{MaxWorkers: 1})
	// keep the chained worker from erroring forever
	cat.completed["aaab"] = 0

	err := s.runSearch(context.Background(), "aaaa")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the upstream error surfaced", err)
	}
	s.wg.Wait()

	if len(reg.set) != 0 {
		t.Fatalf("failed worker left slot occupied: %v", reg.set)
	}
	if len(reg.regs) == 0 || reg.regs[0] != "aaab" {
		t.Fatalf("failure path must still chain, got %v", reg.regs)
	}
}

func TestTick_FillsFreeCapacityOnly(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry(2)
	cat := newFakeCatalog()
	search := &fakeSearch{fn: func(string, int) ([]spotdom.Artist, error) {
		return nil, nil
	}}
	cur := &fakeCursor{next: []string{"aaaa", "aaab", "aaac", "aaad", "aaae", "aaaf"}}
	s := newSvc(reg, cur, cat, search, Config{MaxWorkers: 2})

	s.tick(context.Background())
	s.wg.Wait()

	if len(cat.completed) < 2 {
		t.Fatalf("expected at least the first two prefixes done, got %v", cat.completed)
	}
	if _, ok := cat.completed["aaaa"]; !ok {
		t.Fatal("aaaa was not crawled")
	}
	if _, ok := cat.completed["aaab"]; !ok {
		t.Fatal("aaab was not crawled")
	}
}
