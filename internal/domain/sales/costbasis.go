package sales

import (
	"context"
	"fmt"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/id"
	"helmetledger/internal/core/types"
)

// Inventory is the stock collaborator consumed by the lifecycle.
type Inventory interface {
	GetAverageCost(ctx context.Context, ownerID string, variantID id.ID) (types.Money, error)
	GetStock(ctx context.Context, ownerID string, variantID id.ID) (int, error)
	AdjustStock(ctx context.Context, ownerID string, variantID id.ID, delta int) error
}

// snapshotItems checks stock and freezes the current average cost of every
// line. Lines of the same variant are checked against their combined quantity.
func snapshotItems(ctx context.Context, inv Inventory, ownerID string, saleID id.ID, in []ItemInput) ([]Item, error) {
	if err := checkStock(ctx, inv, ownerID, in); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(in))
	for i, it := range in {
		avgCost, err := inv.GetAverageCost(ctx, ownerID, it.VariantID)
		if err != nil {
			return nil, fmt.Errorf("get average cost: %w", err)
		}

		qty := types.FromInt(int64(it.Quantity))
		unitProfit := it.UnitPrice.Sub(avgCost)
		items = append(items, Item{
			ID:              id.New(),
			SaleID:          saleID,
			LineNo:          i + 1,
			VariantID:       it.VariantID,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			UnitProfit:      unitProfit,
			CostBasisAtSale: avgCost,
			TotalItemPrice:  it.UnitPrice.Mul(qty),
			TotalItemProfit: unitProfit.Mul(qty),
		})
	}
	return items, nil
}

// checkStock fails with INSUFFICIENT_STOCK when a variant's stock does not
// cover the combined quantity of its lines.
func checkStock(ctx context.Context, inv Inventory, ownerID string, in []ItemInput) error {
	requested := make(map[id.ID]int, len(in))
	order := make([]id.ID, 0, len(in))
	for _, it := range in {
		if _, seen := requested[it.VariantID]; !seen {
			order = append(order, it.VariantID)
		}
		requested[it.VariantID] += it.Quantity
	}

	for _, variantID := range order {
		stock, err := inv.GetStock(ctx, ownerID, variantID)
		if err != nil {
			return fmt.Errorf("get stock: %w", err)
		}
		if want := requested[variantID]; want > stock {
			return apperror.NewInsufficientStock(variantID.String(), want, stock)
		}
	}
	return nil
}
