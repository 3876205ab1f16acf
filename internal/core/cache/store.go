package cache

import (
	"context"

	"helmetledger/internal/core/types"
)

// Report names used in cache keys.
const (
	ReportProfit   = "profit"
	ReportCashFlow = "cashflow"
	ReportMonths   = "months"
)

// Key addresses a cached projection. Month is nil for owner-wide reports.
type Key struct {
	OwnerID string
	Report  string
	Month   *types.Month
}

// Store keeps serialized projections between reads.
type Store interface {
	// Get decodes the cached value into dst. It reports false on a miss.
	Get(ctx context.Context, key Key, dst any) (bool, error)
	Set(ctx context.Context, key Key, value any) error
}

// Get implements Store. It always misses.
func (Noop) Get(context.Context, Key, any) (bool, error) { return false, nil }

// Set implements Store.
func (Noop) Set(context.Context, Key, any) error { return nil }
