// Package tx defines the unit of work every ledger mutation runs in.
package tx

import (
	"context"
)

// Manager runs fn atomically. Rows posted, stock moved and events published
// inside fn commit together or not at all. A call made from inside fn joins
// the outer unit instead of opening a new one.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager is a Manager that can also open a consistent read-only
// snapshot, used by the aggregations.
type ReadOnlyManager interface {
	Manager
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnly runs fn in a read-only snapshot when m supports it, and in a
// regular unit of work otherwise.
func ReadOnly(ctx context.Context, m Manager, fn func(ctx context.Context) error) error {
	if ro, ok := m.(ReadOnlyManager); ok {
		return ro.ReadOnly(ctx, fn)
	}
	return m.RunInTransaction(ctx, fn)
}
