// Package events defines domain events written through the transactional outbox.
package events

import (
	"context"
	"sync"

	"helmetledger/internal/core/id"
)

// Aggregate types.
const (
	AggregateSale             = "Sale"
	AggregateExchange         = "ProductExchange"
	AggregateTransaction      = "Transaction"
	AggregateReinvestment     = "Reinvestment"
	AggregateWalletConversion = "WalletConversion"
	AggregateStockReceipt     = "StockReceipt"
)

// Event types.
const (
	SaleCreated            = "sale.created"
	SaleCancelled          = "sale.cancelled"
	SaleDeleted            = "sale.deleted"
	SaleReposted           = "sale.reposted"
	SaleUpdated            = "sale.updated"
	ExchangeProcessed      = "exchange.processed"
	TransactionPosted      = "ledger.transaction_posted"
	TransactionUpdated     = "ledger.transaction_updated"
	TransactionDeleted     = "ledger.transaction_deleted"
	ReinvestmentExecuted   = "reinvestment.executed"
	WalletBalanceConverted = "wallet.balance_converted"
	StockReceived          = "inventory.stock_received"
)

// Event is a fact about a committed change. Payload must be JSON-serializable
// and carries at least "owner_id" so consumers can scope their work.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       Payload
}

// Payload is the JSON body of an event.
type Payload map[string]any

// OwnerID returns the owner recorded in the payload.
func (p Payload) OwnerID() string {
	s, _ := p["owner_id"].(string)
	return s
}

// Month returns the "YYYY-MM" month recorded in the payload, if any.
func (p Payload) Month() string {
	s, _ := p["month"].(string)
	return s
}

// Publisher writes events inside the caller's unit of work.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Noop drops events.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish implements Publisher.
func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in publish order.
func (r *Recorder) Types() []string {
	evs := r.Events()
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.EventType
	}
	return out
}
