package memory

import (
	"context"
	"slices"
	"time"

	"helmetledger/internal/core/id"
	"helmetledger/internal/domain/ledger"
	"helmetledger/internal/domain/wallet"
)

// AccountRepo implements wallet.Repository.
type AccountRepo struct {
	store *Store
}

var _ wallet.Repository = (*AccountRepo)(nil)

func (r *AccountRepo) GetOrCreate(ctx context.Context, ownerID string, w ledger.Wallet) (*wallet.Account, error) {
	var out wallet.Account
	err := r.store.do(ctx, func(st *state) error {
		key := walletKey{ownerID: ownerID, wallet: w}
		acc, ok := st.accounts[key]
		if !ok {
			acc = wallet.Account{ID: id.New(), OwnerID: ownerID, WalletType: w, CreatedAt: time.Now().UTC()}
			st.accounts[key] = acc
		}
		out = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *AccountRepo) ListByOwner(ctx context.Context, ownerID string) ([]wallet.Account, error) {
	var out []wallet.Account
	err := r.store.do(ctx, func(st *state) error {
		for _, acc := range st.accounts {
			if acc.OwnerID == ownerID {
				out = append(out, acc)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b wallet.Account) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, err
}
