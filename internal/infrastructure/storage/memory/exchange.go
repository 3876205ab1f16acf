package memory

import (
	"context"
	"slices"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/id"
	"helmetledger/internal/domain/exchange"
)

// ExchangeRepo implements exchange.Repository.
type ExchangeRepo struct {
	store *Store
}

var _ exchange.Repository = (*ExchangeRepo)(nil)

func (r *ExchangeRepo) Create(ctx context.Context, ex *exchange.ProductExchange) error {
	return r.store.do(ctx, func(st *state) error {
		st.exchanges[ex.ID] = *ex
		return nil
	})
}

func (r *ExchangeRepo) GetByID(ctx context.Context, ownerID string, exchangeID id.ID) (*exchange.ProductExchange, error) {
	var out exchange.ProductExchange
	err := r.store.do(ctx, func(st *state) error {
		ex, ok := st.exchanges[exchangeID]
		if !ok || ex.OwnerID != ownerID {
			return apperror.NewNotFound("exchange", exchangeID)
		}
		out = ex
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ExchangeRepo) ListBySale(ctx context.Context, ownerID string, saleID id.ID) ([]exchange.ProductExchange, error) {
	var out []exchange.ProductExchange
	err := r.store.do(ctx, func(st *state) error {
		for _, ex := range st.exchanges {
			if ex.OwnerID == ownerID && (ex.OriginalSaleID == saleID || ex.NewSaleID == saleID) {
				out = append(out, ex)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b exchange.ProductExchange) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, err
}
