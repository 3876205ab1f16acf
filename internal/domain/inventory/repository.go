package inventory

import (
	"context"

	"helmetledger/internal/core/id"
	"helmetledger/internal/domain"
)

// Repository persists stock positions.
type Repository interface {
	// Get returns the position or a NotFound error.
	Get(ctx context.Context, ownerID string, variantID id.ID) (*Item, error)
	// GetForUpdate locks the position until the unit of work ends.
	GetForUpdate(ctx context.Context, ownerID string, variantID id.ID) (*Item, error)
	Save(ctx context.Context, item *Item) error
	List(ctx context.Context, ownerID string, f domain.ListFilter) (domain.ListResult[Item], error)
}
