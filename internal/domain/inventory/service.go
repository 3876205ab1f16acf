package inventory

import (
	"context"
	"fmt"
	"time"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/cache"
	"helmetledger/internal/core/events"
	"helmetledger/internal/core/id"
	"helmetledger/internal/core/tx"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain"
	"helmetledger/internal/domain/ledger"
	"helmetledger/pkg/logger"
)

// Service implements the inventory port of the sale lifecycle.
type Service struct {
	repo      Repository
	ledger    *ledger.Service
	txManager tx.Manager
	publisher events.Publisher
	cache     cache.Invalidator
	now       func() time.Time
}

// NewService creates a new inventory service.
func NewService(repo Repository, ledgerSvc *ledger.Service, txManager tx.Manager, publisher events.Publisher, invalidator cache.Invalidator) *Service {
	return &Service{
		repo:      repo,
		ledger:    ledgerSvc,
		txManager: txManager,
		publisher: publisher,
		cache:     invalidator,
		now:       time.Now,
	}
}

// GetAverageCost returns the current weighted average cost of a variant.
func (s *Service) GetAverageCost(ctx context.Context, ownerID string, variantID id.ID) (types.Money, error) {
	item, err := s.repo.Get(ctx, ownerID, variantID)
	if err != nil {
		return types.Zero(), err
	}
	return item.AverageCost, nil
}

// GetStock returns the quantity on hand of a variant.
func (s *Service) GetStock(ctx context.Context, ownerID string, variantID id.ID) (int, error) {
	item, err := s.repo.Get(ctx, ownerID, variantID)
	if err != nil {
		return 0, err
	}
	return item.Quantity, nil
}

// AdjustStock changes the quantity on hand by delta. Stock never goes negative.
func (s *Service) AdjustStock(ctx context.Context, ownerID string, variantID id.ID, delta int) error {
	if delta == 0 {
		return nil
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetForUpdate(ctx, ownerID, variantID)
		if err != nil {
			return err
		}
		if item.Quantity+delta < 0 {
			return apperror.NewInsufficientStock(variantID.String(), -delta, item.Quantity)
		}
		item.Quantity += delta
		item.UpdatedAt = s.now().UTC()
		return s.repo.Save(ctx, item)
	})
}

// Get returns a stock position.
func (s *Service) Get(ctx context.Context, ownerID string, variantID id.ID) (*Item, error) {
	return s.repo.Get(ctx, ownerID, variantID)
}

// List pages through the owner's stock positions.
func (s *Service) List(ctx context.Context, ownerID string, f domain.ListFilter) (domain.ListResult[Item], error) {
	return s.repo.List(ctx, ownerID, f.Normalize())
}

// Receive adds stock at a unit cost, updates the average cost and books the
// purchase as an INVENTORY_PURCHASE expense (cash out, no profit effect).
func (s *Service) Receive(ctx context.Context, ownerID string, in ReceiveInput) (*Receipt, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}

	receipt := &Receipt{ID: id.New()}
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetForUpdate(ctx, ownerID, in.VariantID)
		if err != nil {
			if !apperror.IsNotFound(err) {
				return err
			}
			item = &Item{OwnerID: ownerID, VariantID: in.VariantID, AverageCost: types.Zero()}
		}

		item.Receive(in.Quantity, in.UnitCost)
		item.UpdatedAt = s.now().UTC()
		if err := s.repo.Save(ctx, item); err != nil {
			return fmt.Errorf("save stock position: %w", err)
		}
		receipt.Item = *item

		receipt.TotalCost = types.Round2(in.UnitCost.Mul(types.FromInt(int64(in.Quantity))))
		if receipt.TotalCost.IsPositive() {
			desc := in.Description
			if desc == "" {
				desc = fmt.Sprintf("Stock receipt of %d unit(s)", in.Quantity)
			}
			row := ledger.New(ownerID, in.Date, ledger.Expense, ledger.DetailInventoryPurchase, receipt.TotalCost, in.PaymentMethod, ledger.StockReceiptRef(receipt.ID)).
				WithSubID(ledger.SubPurchase).
				WithDescription(desc)
			txID, err := s.ledger.Post(ctx, row)
			if err != nil {
				return fmt.Errorf("post purchase: %w", err)
			}
			receipt.TransactionID = &txID
		}

		return s.publisher.Publish(ctx, events.Event{
			AggregateType: events.AggregateStockReceipt,
			AggregateID:   receipt.ID,
			EventType:     events.StockReceived,
			Payload: events.Payload{
				"owner_id":   ownerID,
				"month":      types.MonthOf(in.Date).String(),
				"variant_id": in.VariantID.String(),
				"quantity":   in.Quantity,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	cache.NotifyAfterCommit(ctx, s.cache, cache.ScopeFor(ownerID, in.Date))
	logger.Info(ctx, "stock received", "variant_id", in.VariantID, "quantity", in.Quantity, "average_cost", receipt.Item.AverageCost.String())
	return receipt, nil
}
