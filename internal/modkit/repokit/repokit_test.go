package repokit

import (
	"context"

	"spotcrawl/internal/platform/store"
)

// fakeQueryer is a non-nil Queryer for binder tests
type fakeQueryer struct{}

func (fakeQueryer) Exec(ctx context.Context, sql string, args ...any) (store.CommandTag, error) {
	return nil, nil
}

func (fakeQueryer) Query(ctx context.Context, sql string, args ...any) (store.Rows, error) {
	return nil, nil
}

func (fakeQueryer) QueryRow(ctx context.Context, sql string, args ...any) store.Row {
	return nil
}

var _ Queryer = fakeQueryer{}
