package repokit

import (
	"testing"

	"spotcrawl/internal/platform/testkit"
)

func TestBindFunc_BindCallsFunc(t *testing.T) {
	t.Parallel()

	// create a binder from a function; it should be invoked with the provided Queryer
	var q Queryer // nil is fine; BindFunc doesn't use it
	b := BindFunc[string](func(_ Queryer) string {
		return "ok"
	})

	if got := b.Bind(q); got != "ok" {
		t.Fatalf("BindFunc.Bind = %q, want %q", got, "ok")
	}
}

func TestRequireQueryer_PanicsOnNil(t *testing.T) {
	t.Parallel()

	var q Queryer // nil interface
	testkit.MustPanic(t, func() {
		_ = RequireQueryer(q)
	})
}

func TestMustBind_PanicsOnNilQueryer(t *testing.T) {
	t.Parallel()

	var q Queryer // nil interface
	b := BindFunc[int](func(_ Queryer) int { return 42 })

	testkit.MustPanic(t, func() {
		_ = MustBind[int](b, q)
	})
}

func TestMustBind_BindsWithQueryer(t *testing.T) {
	t.Parallel()

	b := BindFunc[int](func(_ Queryer) int { return 42 })
	testkit.MustNotPanic(t, func() {
		if got := MustBind[int](b, fakeQueryer{}); got != 42 {
			t.Fatalf("MustBind = %d, want 42", got)
		}
	})
}
