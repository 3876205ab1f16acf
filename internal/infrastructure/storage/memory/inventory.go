package memory

import (
	"context"
	"slices"
	"strings"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/id"
	"helmetledger/internal/domain"
	"helmetledger/internal/domain/inventory"
)

// InventoryRepo implements inventory.Repository.
type InventoryRepo struct {
	store *Store
}

var _ inventory.Repository = (*InventoryRepo)(nil)

func (r *InventoryRepo) Get(ctx context.Context, ownerID string, variantID id.ID) (*inventory.Item, error) {
	var out inventory.Item
	err := r.store.do(ctx, func(st *state) error {
		item, ok := st.items[ownerKey{ownerID: ownerID, id: variantID}]
		if !ok {
			return apperror.NewNotFound("inventory item", variantID)
		}
		out = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetForUpdate is Get: the unit of work already holds the store lock.
func (r *InventoryRepo) GetForUpdate(ctx context.Context, ownerID string, variantID id.ID) (*inventory.Item, error) {
	return r.Get(ctx, ownerID, variantID)
}

func (r *InventoryRepo) Save(ctx context.Context, item *inventory.Item) error {
	return r.store.do(ctx, func(st *state) error {
		st.items[ownerKey{ownerID: item.OwnerID, id: item.VariantID}] = *item
		return nil
	})
}

func (r *InventoryRepo) List(ctx context.Context, ownerID string, f domain.ListFilter) (domain.ListResult[inventory.Item], error) {
	var out []inventory.Item
	err := r.store.do(ctx, func(st *state) error {
		for k, item := range st.items {
			if k.ownerID == ownerID {
				out = append(out, item)
			}
		}
		return nil
	})
	if err != nil {
		return domain.ListResult[inventory.Item]{}, err
	}
	slices.SortFunc(out, func(a, b inventory.Item) int {
		return strings.Compare(a.VariantID.String(), b.VariantID.String())
	})
	return domain.Page(out, f), nil
}
