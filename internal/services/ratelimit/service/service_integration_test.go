//go:build integration_redis
// +build integration_redis

package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"spotcrawl/internal/platform/logger"
	"spotcrawl/internal/platform/store/rd"
)

func startRedis(t *testing.T) (url string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cancel()
		t.Fatalf("failed to start redis container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get container host: %v", err)
	}
	mapped, err := c.MappedPort(ctx, "6379/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get mapped port: %v", err)
	}

	url = fmt.Sprintf("redis://%s:%s/0", host, mapped.Port())
	stop = func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
	return url, stop
}

func TestRateLimiter_Integration(t *testing.T) {
	url, stop := startRedis(t)
	defer stop()

	client, err := rd.Open(rd.Config{URL: url})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	s := New(client.Client, Config{Window: time.Second, Max: 2}, *logger.Get())

	ok1, err := s.TryAdmit(ctx, "aaaa", 0, 50)
	if err != nil {
		t.Fatal(err)
	}
	ok2, err := s.TryAdmit(ctx, "aaaa", 50, 50)
	if err != nil {
		t.Fatal(err)
	}
	ok3, err := s.TryAdmit(ctx, "aaab", 0, 50)
	if err != nil {
		t.Fatal(err)
	}
	if !ok1 || !ok2 || ok3 {
		t.Fatalf("admits = %v %v %v, want true true false", ok1, ok2, ok3)
	}

	// the cap is reached, so the ETA must point at the oldest record's expiry
	eta, err := s.NextSlotETA(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if eta <= 0 || eta > time.Second {
		t.Fatalf("eta = %s, want within (0, 1s]", eta)
	}

	info, err := s.Info(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if info.CurrentRequests != 2 || info.RemainingRequests != 0 {
		t.Fatalf("info = %+v", info)
	}

	// after the window slides past the oldest record, admission succeeds again
	time.Sleep(eta + 50*time.Millisecond)
	ok4, err := s.TryAdmit(ctx, "aaab", 0, 50)
	if err != nil {
		t.Fatal(err)
	}
	if !ok4 {
		t.Fatal("admission must succeed once the window slides")
	}

	// window bookkeeping for the status endpoint
	if err := s.UpdateFound(ctx, "aaab", 0, 17); err != nil {
		t.Fatal(err)
	}
	reqs, err := s.WindowRequests(ctx)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, r := range reqs {
		if r.Query == "aaab" && r.Offset == 0 && r.ArtistsFound == 17 {
			found = true
		}
	}
	if !found {
		t.Fatalf("window requests missing updated record: %+v", reqs)
	}
	for i := 1; i < len(reqs); i++ {
		if reqs[i-1].Timestamp < reqs[i].Timestamp {
			t.Fatal("window requests must be sorted newest first")
		}
	}
}

func TestRateLimiter_NeverExceedsCapUnderConcurrency(t *testing.T) {
	url, stop := startRedis(t)
	defer stop()

	client, err := rd.Open(rd.Config{URL: url})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	s := New(client.Client, Config{Window: 5 * time.Second, Max: 10}, *logger.Get())

	const attempts = 50
	results := make(chan bool, attempts)
	for i := 0; i < attempts; i++ {
		go func(i int) {
			ok, err := s.TryAdmit(ctx, "race", i*50, 50)
			if err != nil {
				t.Error(err)
			}
			results <- ok
		}(i)
	}

	admitted := 0
	for i := 0; i < attempts; i++ {
		if <-results {
			admitted++
		}
	}
	if admitted != 10 {
		t.Fatalf("admitted %d, want exactly the cap", admitted)
	}
}
