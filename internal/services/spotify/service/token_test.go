package service

import (
	"context"
	"testing"

	"spotcrawl/internal/platform/logger"
)

func TestToken_StaticBearerBypassesEverything(t *testing.T) {
	t.Parallel()

	// no redis, no auth endpoint: the override must short-circuit both
	tc := NewTokenCache(nil, TokenConfig{StaticBearer: "static-tok"}, *logger.Get())
	got, err := tc.Token(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != "static-tok" {
		t.Fatalf("Token = %q", got)
	}
}
