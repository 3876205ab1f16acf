package wallet

import (
	"context"

	"helmetledger/internal/domain/ledger"
)

// Repository persists accounts.
type Repository interface {
	// GetOrCreate returns the account of (owner, wallet), creating it on first use.
	GetOrCreate(ctx context.Context, ownerID string, w ledger.Wallet) (*Account, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Account, error)
}
