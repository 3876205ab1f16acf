// Package catalog_repo provides PostgreSQL implementations for reference data.
package catalog_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"helmetledger/internal/core/id"
	"helmetledger/internal/domain/ledger"
	"helmetledger/internal/domain/wallet"
	"helmetledger/internal/infrastructure/storage/postgres"
)

// AccountRepo implements wallet.Repository.
type AccountRepo struct {
	txManager *postgres.TxManager
}

var _ wallet.Repository = (*AccountRepo)(nil)

// NewAccountRepo creates a new account repository.
func NewAccountRepo(txManager *postgres.TxManager) *AccountRepo {
	return &AccountRepo{txManager: txManager}
}

// GetOrCreate returns the account of (owner, wallet). Concurrent first calls
// converge on one row through the (owner_id, wallet_type) unique key.
func (r *AccountRepo) GetOrCreate(ctx context.Context, ownerID string, w ledger.Wallet) (*wallet.Account, error) {
	var acc wallet.Account
	err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &acc, `
		INSERT INTO accounts (id, owner_id, wallet_type, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id, wallet_type) DO UPDATE SET wallet_type = EXCLUDED.wallet_type
		RETURNING id, owner_id, wallet_type, created_at
	`, id.New(), ownerID, string(w), time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("get or create %s account: %w", w, err)
	}
	return &acc, nil
}

func (r *AccountRepo) ListByOwner(ctx context.Context, ownerID string) ([]wallet.Account, error) {
	accounts := []wallet.Account{}
	err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &accounts, `
		SELECT id, owner_id, wallet_type, created_at
		FROM accounts
		WHERE owner_id = $1
		ORDER BY wallet_type
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}
