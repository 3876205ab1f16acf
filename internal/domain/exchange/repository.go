package exchange

import (
	"context"

	"helmetledger/internal/core/id"
)

// Repository persists exchange records.
type Repository interface {
	Create(ctx context.Context, ex *ProductExchange) error
	GetByID(ctx context.Context, ownerID string, exchangeID id.ID) (*ProductExchange, error)
	// ListBySale returns exchanges where the sale is the original or the new sale.
	ListBySale(ctx context.Context, ownerID string, saleID id.ID) ([]ProductExchange, error)
}
