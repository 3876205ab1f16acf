package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/id"
	"helmetledger/internal/domain"
	"helmetledger/internal/domain/inventory"
	"helmetledger/internal/infrastructure/storage/postgres"
)

const inventoryTable = "inventory_items"

var inventoryColumns = postgres.ExtractDBColumns[inventory.Item]()

// InventoryRepo implements inventory.Repository.
type InventoryRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ inventory.Repository = (*InventoryRepo)(nil)

// NewInventoryRepo creates a new inventory repository.
func NewInventoryRepo(txManager *postgres.TxManager) *InventoryRepo {
	return &InventoryRepo{
		txManager: txManager,
		builder:   postgres.Builder(),
	}
}

func (r *InventoryRepo) Get(ctx context.Context, ownerID string, variantID id.ID) (*inventory.Item, error) {
	return r.get(ctx, ownerID, variantID, "")
}

// GetForUpdate locks the row until the transaction ends.
func (r *InventoryRepo) GetForUpdate(ctx context.Context, ownerID string, variantID id.ID) (*inventory.Item, error) {
	if r.txManager.GetTx(ctx) == nil {
		return nil, fmt.Errorf("get inventory item for update: transaction required")
	}
	return r.get(ctx, ownerID, variantID, "FOR UPDATE")
}

func (r *InventoryRepo) get(ctx context.Context, ownerID string, variantID id.ID, suffix string) (*inventory.Item, error) {
	q := r.builder.Select(inventoryColumns...).
		From(inventoryTable).
		Where(squirrel.Eq{"owner_id": ownerID, "variant_id": variantID})
	if suffix != "" {
		q = q.Suffix(suffix)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var item inventory.Item
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("inventory item", variantID)
		}
		return nil, fmt.Errorf("get inventory item: %w", err)
	}
	return &item, nil
}

// Save upserts the position.
func (r *InventoryRepo) Save(ctx context.Context, item *inventory.Item) error {
	sql, args, err := r.builder.Insert(inventoryTable).
		SetMap(postgres.StructToMap(item)).
		Suffix(`ON CONFLICT (owner_id, variant_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			average_cost = EXCLUDED.average_cost,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsCheckViolation(err) {
			return apperror.NewInsufficientStock(item.VariantID.String(), 0, item.Quantity)
		}
		return fmt.Errorf("save inventory item: %w", err)
	}
	return nil
}

func (r *InventoryRepo) List(ctx context.Context, ownerID string, f domain.ListFilter) (domain.ListResult[inventory.Item], error) {
	q := r.builder.Select(inventoryColumns...).
		From(inventoryTable).
		Where(squirrel.Eq{"owner_id": ownerID})
	return postgres.SelectPage[inventory.Item](ctx, r.txManager.GetQuerier(ctx), q, f, "variant_id")
}
