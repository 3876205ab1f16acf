package sales

import (
	"context"
	"time"

	"helmetledger/internal/core/id"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain"
)

// Repository persists the sale aggregate with its items and payments.
type Repository interface {
	Create(ctx context.Context, sale *Sale) error
	// Update writes the header and the cancellation state of the items.
	Update(ctx context.Context, sale *Sale) error
	// Replace writes the header and swaps items and payments for the ones on sale.
	Replace(ctx context.Context, sale *Sale) error
	Delete(ctx context.Context, ownerID string, saleID id.ID) error

	GetByID(ctx context.Context, ownerID string, saleID id.ID) (*Sale, error)
	// GetForUpdate loads the aggregate and locks it until the unit of work ends.
	GetForUpdate(ctx context.Context, ownerID string, saleID id.ID) (*Sale, error)
	List(ctx context.Context, ownerID string, f ListFilter) (domain.ListResult[*Sale], error)

	// SumTotalProfit adds TotalProfit over all the owner's sales.
	SumTotalProfit(ctx context.Context, ownerID string) (types.Money, error)
	// IsLinkedToExchange reports whether the sale is the original or the new
	// sale of any exchange.
	IsLinkedToExchange(ctx context.Context, ownerID string, saleID id.ID) (bool, error)
}

// ListFilter for filtering sales.
type ListFilter struct {
	domain.ListFilter

	Status   *Status
	DateFrom *time.Time
	DateTo   *time.Time
}

// Matches evaluates the filter in process.
func (f ListFilter) Matches(s *Sale) bool {
	if f.Status != nil && s.Status != *f.Status {
		return false
	}
	if f.DateFrom != nil && s.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && !s.Date.Before(*f.DateTo) {
		return false
	}
	return true
}
