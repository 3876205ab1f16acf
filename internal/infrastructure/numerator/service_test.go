package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "helmetledger/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier keeps one counter per sequence key.
type mockQuerier struct {
	mu     sync.Mutex
	values map[string]int64
	calls  int
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{values: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	key := args[0].(string)
	var increment int64 = 1
	if len(args) == 2 {
		increment = args[1].(int64)
	}
	m.values[key] += increment
	return &mockRow{val: m.values[key]}
}

var period = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()

	num, err := svc.GetNextNumber(ctx, "owner-1", corenumerator.SaleNumbers, nil, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "S-2026-00001" {
		t.Errorf("expected S-2026-00001, got %s", num)
	}

	num, err = svc.GetNextNumber(ctx, "owner-1", corenumerator.SaleNumbers, nil, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "S-2026-00002" {
		t.Errorf("expected S-2026-00002, got %s", num)
	}
}

func TestGetNextNumber_SeparatesOwners(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()

	_, _ = svc.GetNextNumber(ctx, "owner-1", corenumerator.SaleNumbers, nil, period)
	num, err := svc.GetNextNumber(ctx, "owner-2", corenumerator.SaleNumbers, nil, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "S-2026-00001" {
		t.Errorf("expected a fresh sequence for owner-2, got %s", num)
	}
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	num, err := svc.GetNextNumber(ctx, "o", corenumerator.ExchangeNumbers, opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "EX-2026-00001" {
		t.Errorf("expected EX-2026-00001, got %s", num)
	}

	for i := 0; i < 9; i++ {
		_, _ = svc.GetNextNumber(ctx, "o", corenumerator.ExchangeNumbers, opts, period)
	}
	if q.calls != 1 {
		t.Errorf("expected a single range reservation, got %d queries", q.calls)
	}

	num, _ = svc.GetNextNumber(ctx, "o", corenumerator.ExchangeNumbers, opts, period)
	if num != "EX-2026-00011" {
		t.Errorf("expected EX-2026-00011, got %s", num)
	}
	if q.calls != 2 {
		t.Errorf("expected a second reservation, got %d queries", q.calls)
	}
}
