// Package memory is an in-process implementation of every repository.
//
// It backs the domain tests and the server's local mode. A unit of work holds
// the store mutex from its first call to its end and restores a snapshot of
// the whole state when it fails.
package memory

import (
	"context"
	"slices"
	"sync"

	"helmetledger/internal/core/events"
	"helmetledger/internal/core/id"
	"helmetledger/internal/core/tx"
	"helmetledger/internal/domain/exchange"
	"helmetledger/internal/domain/inventory"
	"helmetledger/internal/domain/ledger"
	"helmetledger/internal/domain/sales"
	"helmetledger/internal/domain/wallet"
)

type ownerKey struct {
	ownerID string
	id      id.ID
}

type walletKey struct {
	ownerID string
	wallet  ledger.Wallet
}

// state is everything a unit of work may roll back.
type state struct {
	accounts     map[walletKey]wallet.Account
	transactions map[id.ID]ledger.Transaction
	items        map[ownerKey]inventory.Item
	sales        map[id.ID]*sales.Sale
	exchanges    map[id.ID]exchange.ProductExchange
	audit        []AuditEntry
	events       []events.Event
}

func newState() *state {
	return &state{
		accounts:     make(map[walletKey]wallet.Account),
		transactions: make(map[id.ID]ledger.Transaction),
		items:        make(map[ownerKey]inventory.Item),
		sales:        make(map[id.ID]*sales.Sale),
		exchanges:    make(map[id.ID]exchange.ProductExchange),
	}
}

func (s *state) clone() *state {
	c := &state{
		accounts:     make(map[walletKey]wallet.Account, len(s.accounts)),
		transactions: make(map[id.ID]ledger.Transaction, len(s.transactions)),
		items:        make(map[ownerKey]inventory.Item, len(s.items)),
		sales:        make(map[id.ID]*sales.Sale, len(s.sales)),
		exchanges:    make(map[id.ID]exchange.ProductExchange, len(s.exchanges)),
		audit:        slices.Clone(s.audit),
		events:       slices.Clone(s.events),
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.sales {
		c.sales[k] = copySale(v)
	}
	for k, v := range s.exchanges {
		c.exchanges[k] = v
	}
	return c
}

func copySale(s *sales.Sale) *sales.Sale {
	c := *s
	c.Items = slices.Clone(s.Items)
	c.Payments = slices.Clone(s.Payments)
	return &c
}

// Store holds the state and implements tx.Manager.
type Store struct {
	mu    sync.Mutex
	state *state
}

// New creates an empty store.
func New() *Store {
	return &Store{state: newState()}
}

var _ tx.ReadOnlyManager = (*Store)(nil)

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// RunInTransaction executes fn with the store locked. Nested calls reuse the
// outer unit of work; only the outermost one snapshots and restores.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// ReadOnly runs fn under the same lock. Nothing is snapshotted.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, s))
}

// do runs fn against the state, locking unless the caller's unit of work
// already holds the lock.
func (s *Store) do(ctx context.Context, fn func(st *state) error) error {
	if s.inTx(ctx) {
		return fn(s.state)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// Repositories.

// Ledger returns the ledger repository.
func (s *Store) Ledger() *LedgerRepo { return &LedgerRepo{store: s} }

// Accounts returns the wallet account repository.
func (s *Store) Accounts() *AccountRepo { return &AccountRepo{store: s} }

// Inventory returns the stock repository.
func (s *Store) Inventory() *InventoryRepo { return &InventoryRepo{store: s} }

// Sales returns the sale repository.
func (s *Store) Sales() *SaleRepo { return &SaleRepo{store: s} }

// Exchanges returns the exchange repository.
func (s *Store) Exchanges() *ExchangeRepo { return &ExchangeRepo{store: s} }

// Audit returns the audit recorder.
func (s *Store) Audit() *AuditLog { return &AuditLog{store: s} }

// Outbox returns the event publisher.
func (s *Store) Outbox() *Outbox { return &Outbox{store: s} }
