// Package testkit wires the domain services on the in-memory store for tests.
package testkit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helmetledger/internal/core/cache"
	"helmetledger/internal/core/id"
	"helmetledger/internal/core/numerator"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain/exchange"
	"helmetledger/internal/domain/inventory"
	"helmetledger/internal/domain/ledger"
	"helmetledger/internal/domain/reinvestment"
	"helmetledger/internal/domain/reports"
	"helmetledger/internal/domain/sales"
	"helmetledger/internal/domain/wallet"
	"helmetledger/internal/infrastructure/storage/memory"
)

// Owner is the owner used by default in tests.
const Owner = "owner-1"

// Harness is a fully wired engine over one memory store.
type Harness struct {
	Store         *memory.Store
	Numbers       *numerator.MockGenerator
	Invalidations *Invalidations

	Ledger        *ledger.Service
	Wallets       *wallet.Service
	Inventory     *inventory.Service
	Sales         *sales.Service
	Exchanges     *exchange.Service
	Reinvestments *reinvestment.Service
	Reports       *reports.Service
}

// New builds a harness. The sales inventory port can be swapped to inject faults.
func New(opts ...func(*Config)) *Harness {
	cfg := Config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	store := memory.New()
	inv := &Invalidations{}
	numbers := &numerator.MockGenerator{}
	outbox := store.Outbox()
	auditLog := store.Audit()

	accounts := wallet.NewAccounts(store.Accounts())
	ledgerSvc := ledger.NewService(store.Ledger(), accounts, store, outbox, auditLog, inv)
	walletSvc := wallet.NewService(accounts, ledgerSvc, store, outbox, inv)
	inventorySvc := inventory.NewService(store.Inventory(), ledgerSvc, store, outbox, inv)

	var salesInventory sales.Inventory = inventorySvc
	if cfg.WrapInventory != nil {
		salesInventory = cfg.WrapInventory(inventorySvc)
	}
	var saleRepo sales.Repository = store.Sales()
	if cfg.WrapSales != nil {
		saleRepo = cfg.WrapSales(saleRepo)
	}
	salesSvc := sales.NewService(saleRepo, salesInventory, ledgerSvc, numbers, store, outbox, auditLog, inv)

	return &Harness{
		Store:         store,
		Numbers:       numbers,
		Invalidations: inv,
		Ledger:        ledgerSvc,
		Wallets:       walletSvc,
		Inventory:     inventorySvc,
		Sales:         salesSvc,
		Exchanges:     exchange.NewService(store.Exchanges(), salesSvc, ledgerSvc, numbers, store, outbox, inv),
		Reinvestments: reinvestment.NewService(ledgerSvc, walletSvc, store, outbox, inv),
		Reports:       reports.NewService(ledgerSvc, salesSvc, cache.Noop{}, store),
	}
}

// Config tweaks the wiring of a harness.
type Config struct {
	WrapInventory func(sales.Inventory) sales.Inventory
	WrapSales     func(sales.Repository) sales.Repository
}

// WithInventory wraps the inventory port seen by the sale lifecycle.
func WithInventory(wrap func(sales.Inventory) sales.Inventory) func(*Config) {
	return func(c *Config) { c.WrapInventory = wrap }
}

// WithSaleRepo wraps the sale repository seen by the sale lifecycle.
func WithSaleRepo(wrap func(sales.Repository) sales.Repository) func(*Config) {
	return func(c *Config) { c.WrapSales = wrap }
}

// Stock puts a stock position in place without booking a purchase.
func (h *Harness) Stock(t testing.TB, variantID id.ID, qty int, avgCost string) {
	t.Helper()
	err := h.Store.Inventory().Save(context.Background(), &inventory.Item{
		OwnerID:     Owner,
		VariantID:   variantID,
		Quantity:    qty,
		AverageCost: types.MustMoney(avgCost),
		UpdatedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)
}

// StockOf returns the quantity on hand of a variant.
func (h *Harness) StockOf(t testing.TB, variantID id.ID) int {
	t.Helper()
	qty, err := h.Inventory.GetStock(context.Background(), Owner, variantID)
	require.NoError(t, err)
	return qty
}

// Rows returns every ledger row of the owner, oldest first.
func (h *Harness) Rows(t testing.TB) []ledger.Transaction {
	t.Helper()
	rows, err := h.Ledger.Select(context.Background(), Owner, ledger.Filter{})
	require.NoError(t, err)
	return rows
}

// Sum returns the store-side sum for a filter.
func (h *Harness) Sum(t testing.TB, f ledger.Filter) types.Money {
	t.Helper()
	total, err := h.Ledger.SumWhere(context.Background(), Owner, f)
	require.NoError(t, err)
	return total
}

// Money parses a decimal literal.
func Money(s string) types.Money { return types.MustMoney(s) }

// AssertMoney compares decimals by value, ignoring the scale.
func AssertMoney(t testing.TB, want string, got types.Money, msgAndArgs ...any) bool {
	t.Helper()
	w := types.MustMoney(want)
	if w.Equal(got) {
		return true
	}
	return assert.Fail(t, "money mismatch: want "+w.String()+", got "+got.String(), msgAndArgs...)
}

// Date returns noon UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

// Invalidations records cache invalidations.
type Invalidations struct {
	mu     sync.Mutex
	scopes []cache.Scope
}

var _ cache.Invalidator = (*Invalidations)(nil)

// Invalidate implements cache.Invalidator.
func (i *Invalidations) Invalidate(_ context.Context, scope cache.Scope) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.scopes = append(i.scopes, scope)
	return nil
}

// Scopes returns the recorded scopes.
func (i *Invalidations) Scopes() []cache.Scope {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]cache.Scope, len(i.scopes))
	copy(out, i.scopes)
	return out
}
