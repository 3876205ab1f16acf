package memory

import (
	"context"
	"slices"
	"strings"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/id"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain"
	"helmetledger/internal/domain/ledger"
)

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	store *Store
}

var _ ledger.Repository = (*LedgerRepo)(nil)

func (r *LedgerRepo) Insert(ctx context.Context, t *ledger.Transaction) error {
	return r.store.do(ctx, func(st *state) error {
		if t.ReferenceSubID != nil {
			for _, existing := range st.transactions {
				if existing.OwnerID == t.OwnerID &&
					existing.Reference == t.Reference &&
					existing.ReferenceSubID != nil &&
					*existing.ReferenceSubID == *t.ReferenceSubID {
					return apperror.NewDuplicatePosting(t.Reference, *t.ReferenceSubID)
				}
			}
		}
		st.transactions[t.ID] = *t
		return nil
	})
}

func (r *LedgerRepo) Update(ctx context.Context, t *ledger.Transaction) error {
	return r.store.do(ctx, func(st *state) error {
		existing, ok := st.transactions[t.ID]
		if !ok || existing.OwnerID != t.OwnerID {
			return apperror.NewNotFound("transaction", t.ID)
		}
		st.transactions[t.ID] = *t
		return nil
	})
}

func (r *LedgerRepo) Delete(ctx context.Context, ownerID string, txID id.ID) error {
	return r.store.do(ctx, func(st *state) error {
		existing, ok := st.transactions[txID]
		if !ok || existing.OwnerID != ownerID {
			return apperror.NewNotFound("transaction", txID)
		}
		delete(st.transactions, txID)
		return nil
	})
}

func (r *LedgerRepo) DeleteByReference(ctx context.Context, ownerID, reference string) (int64, error) {
	var n int64
	err := r.store.do(ctx, func(st *state) error {
		for k, t := range st.transactions {
			if t.OwnerID == ownerID && t.Reference == reference {
				delete(st.transactions, k)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *LedgerRepo) GetByID(ctx context.Context, ownerID string, txID id.ID) (*ledger.Transaction, error) {
	var out *ledger.Transaction
	err := r.store.do(ctx, func(st *state) error {
		t, ok := st.transactions[txID]
		if !ok || t.OwnerID != ownerID {
			return apperror.NewNotFound("transaction", txID)
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *LedgerRepo) FindByReference(ctx context.Context, ownerID, reference string) ([]ledger.Transaction, error) {
	return r.collect(ctx, ownerID, func(t *ledger.Transaction) bool { return t.Reference == reference })
}

func (r *LedgerRepo) Sum(ctx context.Context, ownerID string, f ledger.Filter) (types.Money, error) {
	rows, err := r.Select(ctx, ownerID, f)
	if err != nil {
		return types.Zero(), err
	}
	total := types.Zero()
	for _, t := range rows {
		total = total.Add(t.Amount)
	}
	return total, nil
}

func (r *LedgerRepo) Select(ctx context.Context, ownerID string, f ledger.Filter) ([]ledger.Transaction, error) {
	return r.collect(ctx, ownerID, f.Matches)
}

func (r *LedgerRepo) List(ctx context.Context, ownerID string, f ledger.ListFilter) (domain.ListResult[ledger.Transaction], error) {
	rows, err := r.collect(ctx, ownerID, f.Matches)
	if err != nil {
		return domain.ListResult[ledger.Transaction]{}, err
	}
	slices.Reverse(rows)
	return domain.Page(rows, f.ListFilter), nil
}

func (r *LedgerRepo) MonthCounts(ctx context.Context, ownerID string) ([]ledger.MonthCount, error) {
	rows, err := r.collect(ctx, ownerID, func(*ledger.Transaction) bool { return true })
	if err != nil {
		return nil, err
	}
	counts := make(map[types.Month]int64)
	var order []types.Month
	for _, t := range rows {
		m := t.Month()
		if _, ok := counts[m]; !ok {
			order = append(order, m)
		}
		counts[m]++
	}
	out := make([]ledger.MonthCount, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		out = append(out, ledger.MonthCount{Month: order[i], Count: counts[order[i]]})
	}
	return out, nil
}

// collect returns the owner's matching rows ordered by date, then creation.
func (r *LedgerRepo) collect(ctx context.Context, ownerID string, keep func(*ledger.Transaction) bool) ([]ledger.Transaction, error) {
	var out []ledger.Transaction
	err := r.store.do(ctx, func(st *state) error {
		for _, t := range st.transactions {
			if t.OwnerID == ownerID && keep(&t) {
				out = append(out, t)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b ledger.Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out, err
}
