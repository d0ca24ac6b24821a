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

func TestRegistry_Integration(t *testing.T) {
	url, stop := startRedis(t)
	defer stop()

	client, err := rd.Open(rd.Config{URL: url})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	s := New(client.Client, Config{MaxWorkers: 2, SearchTimeout: time.Hour}, *logger.Get())

	ok, err := s.TryRegister(ctx, "aaaa")
	if err != nil || !ok {
		t.Fatalf("first register: ok=%v err=%v", ok, err)
	}

	// duplicates are rejected
	ok, err = s.TryRegister(ctx, "aaaa")
	if err != nil || ok {
		t.Fatalf("duplicate register: ok=%v err=%v", ok, err)
	}

	ok, err = s.TryRegister(ctx, "aaab")
	if err != nil || !ok {
		t.Fatalf("second register: ok=%v err=%v", ok, err)
	}

	// the bound holds
	ok, err = s.TryRegister(ctx, "aaac")
	if err != nil || ok {
		t.Fatalf("register beyond cap: ok=%v err=%v", ok, err)
	}

	n, err := s.Count(ctx)
	if err != nil || n != 2 {
		t.Fatalf("count = %d err=%v, want 2", n, err)
	}

	// unregister is idempotent and frees the slot
	if err := s.Unregister(ctx, "aaaa"); err != nil {
		t.Fatal(err)
	}
	if err := s.Unregister(ctx, "aaaa"); err != nil {
		t.Fatal(err)
	}
	ok, err = s.TryRegister(ctx, "aaac")
	if err != nil || !ok {
		t.Fatalf("register after free: ok=%v err=%v", ok, err)
	}
}

func TestRegistry_StaleEviction(t *testing.T) {
	url, stop := startRedis(t)
	defer stop()

	client, err := rd.Open(rd.Config{URL: url})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	s := New(client.Client, Config{MaxWorkers: 2, SearchTimeout: 300 * time.Millisecond}, *logger.Get())

	if ok, err := s.TryRegister(ctx, "aaaa"); err != nil || !ok {
		t.Fatalf("register: ok=%v err=%v", ok, err)
	}

	// fresh entries survive a sweep
	members, err := s.Members(ctx)
	if err != nil || len(members) != 1 {
		t.Fatalf("members = %v err=%v", members, err)
	}

	// entries older than the timeout are reclaimed, simulating a dead worker
	time.Sleep(400 * time.Millisecond)
	n, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("count after timeout = %d, want 0", n)
	}
}
