package memory

import (
	"context"
	"slices"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/id"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain"
	"helmetledger/internal/domain/sales"
)

// SaleRepo implements sales.Repository. Aggregates are copied on the way in
// and out so callers never share state with the store.
type SaleRepo struct {
	store *Store
}

var _ sales.Repository = (*SaleRepo)(nil)

func (r *SaleRepo) Create(ctx context.Context, sale *sales.Sale) error {
	return r.store.do(ctx, func(st *state) error {
		if _, exists := st.sales[sale.ID]; exists {
			return apperror.NewConflict("sale already exists")
		}
		st.sales[sale.ID] = copySale(sale)
		return nil
	})
}

func (r *SaleRepo) Update(ctx context.Context, sale *sales.Sale) error {
	return r.store.do(ctx, func(st *state) error {
		existing, ok := st.sales[sale.ID]
		if !ok || existing.OwnerID != sale.OwnerID {
			return apperror.NewNotFound("sale", sale.ID)
		}
		st.sales[sale.ID] = copySale(sale)
		return nil
	})
}

// Replace stores the whole aggregate, the same as Update here.
func (r *SaleRepo) Replace(ctx context.Context, sale *sales.Sale) error {
	return r.Update(ctx, sale)
}

func (r *SaleRepo) Delete(ctx context.Context, ownerID string, saleID id.ID) error {
	return r.store.do(ctx, func(st *state) error {
		existing, ok := st.sales[saleID]
		if !ok || existing.OwnerID != ownerID {
			return apperror.NewNotFound("sale", saleID)
		}
		delete(st.sales, saleID)
		return nil
	})
}

func (r *SaleRepo) GetByID(ctx context.Context, ownerID string, saleID id.ID) (*sales.Sale, error) {
	var out *sales.Sale
	err := r.store.do(ctx, func(st *state) error {
		sale, ok := st.sales[saleID]
		if !ok || sale.OwnerID != ownerID {
			return apperror.NewNotFound("sale", saleID)
		}
		out = copySale(sale)
		return nil
	})
	return out, err
}

// GetForUpdate is GetByID: the unit of work already holds the store lock.
func (r *SaleRepo) GetForUpdate(ctx context.Context, ownerID string, saleID id.ID) (*sales.Sale, error) {
	return r.GetByID(ctx, ownerID, saleID)
}

func (r *SaleRepo) List(ctx context.Context, ownerID string, f sales.ListFilter) (domain.ListResult[*sales.Sale], error) {
	var out []*sales.Sale
	err := r.store.do(ctx, func(st *state) error {
		for _, sale := range st.sales {
			if sale.OwnerID == ownerID && f.Matches(sale) {
				out = append(out, copySale(sale))
			}
		}
		return nil
	})
	if err != nil {
		return domain.ListResult[*sales.Sale]{}, err
	}
	slices.SortFunc(out, func(a, b *sales.Sale) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return domain.Page(out, f.ListFilter), nil
}

func (r *SaleRepo) SumTotalProfit(ctx context.Context, ownerID string) (types.Money, error) {
	total := types.Zero()
	err := r.store.do(ctx, func(st *state) error {
		for _, sale := range st.sales {
			if sale.OwnerID == ownerID {
				total = total.Add(sale.TotalProfit)
			}
		}
		return nil
	})
	return total, err
}

func (r *SaleRepo) IsLinkedToExchange(ctx context.Context, ownerID string, saleID id.ID) (bool, error) {
	linked := false
	err := r.store.do(ctx, func(st *state) error {
		for _, ex := range st.exchanges {
			if ex.OwnerID == ownerID && (ex.OriginalSaleID == saleID || ex.NewSaleID == saleID) {
				linked = true
				return nil
			}
		}
		return nil
	})
	return linked, err
}
