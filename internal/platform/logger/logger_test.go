package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"spotcrawl/internal/platform/testkit"
)

// the root logger initializes once per process, so every test shares one sink
var sink bytes.Buffer

func TestMain(m *testing.M) {
	Init(Options{Level: "info", Format: "json", Service: "spotcrawl-test", Writer: &sink})
	m.Run()
}

func TestInit_WritesStructuredJSON(t *testing.T) {
	sink.Reset()
	Get().Info().Str("k", "v").Msg("hello")

	out := sink.String()
	testkit.MustContain(t, out, `"k":"v"`)
	testkit.MustContain(t, out, `"message":"hello"`)
	testkit.MustContain(t, out, `"service":"spotcrawl-test"`)
}

func TestC_EnrichesFromContext(t *testing.T) {
	sink.Reset()
	ctx := WithRequest(context.Background(), "req-1")
	ctx = WithPrefix(ctx, "aaaa")
	C(ctx).Info().Msg("enriched")

	out := sink.String()
	testkit.MustContain(t, out, `"request_id":"req-1"`)
	testkit.MustContain(t, out, `"prefix":"aaaa"`)
}

func TestC_PlainContextMatchesRoot(t *testing.T) {
	sink.Reset()
	C(context.Background()).Info().Msg("plain")

	out := sink.String()
	if strings.Contains(out, "request_id") || strings.Contains(out, "prefix") {
		t.Fatalf("unexpected context fields: %s", out)
	}
}

func TestNamed_AddsComponent(t *testing.T) {
	sink.Reset()
	Named("crawler").Info().Msg("named")
	testkit.MustContain(t, sink.String(), `"component":"crawler"`)
}

func TestParseLevel_Fallback(t *testing.T) {
	if parseLevel("warn").String() != "warn" {
		t.Fatal("warn must parse")
	}
	if parseLevel("junk").String() != "debug" {
		t.Fatal("unknown levels default to debug")
	}
}
