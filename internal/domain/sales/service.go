package sales

import (
	"context"
	"fmt"
	"time"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/cache"
	"helmetledger/internal/core/events"
	"helmetledger/internal/core/id"
	"helmetledger/internal/core/numerator"
	"helmetledger/internal/core/tx"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain"
	"helmetledger/internal/domain/audit"
	"helmetledger/internal/domain/ledger"
	"helmetledger/pkg/logger"
)

// Business rule codes of the sale lifecycle.
const (
	CodeSaleAlreadyCancelled      = "SALE_ALREADY_CANCELLED"
	CodeCancellationItemsRequired = "CANCELLATION_ITEMS_REQUIRED"
	CodeRefundRequired            = "REFUND_REQUIRED"
	CodeDuplicateRefund           = "DUPLICATE_REFUND"
	CodeCancelQuantityExceeded    = "CANCEL_QUANTITY_EXCEEDED"
	CodeInvalidRefund             = "INVALID_REFUND"
	CodeSaleLinkedToExchange      = "SALE_LINKED_TO_EXCHANGE"
)

// Service runs the sale lifecycle. Every operation is one unit of work.
type Service struct {
	repo      Repository
	inventory Inventory
	ledger    *ledger.Service
	numerator numerator.Generator
	txManager tx.Manager
	publisher events.Publisher
	audit     audit.Recorder
	cache     cache.Invalidator
	now       func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the clock used for cancellation timestamps and refunds.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new sales service.
func NewService(
	repo Repository,
	inventory Inventory,
	ledgerSvc *ledger.Service,
	generator numerator.Generator,
	txManager tx.Manager,
	publisher events.Publisher,
	recorder audit.Recorder,
	invalidator cache.Invalidator,
	opts ...Option,
) *Service {
	s := &Service{
		repo:      repo,
		inventory: inventory,
		ledger:    ledgerSvc,
		numerator: generator,
		txManager: txManager,
		publisher: publisher,
		audit:     recorder,
		cache:     invalidator,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates stock, freezes cost basis, decrements stock, checks that
// payments cover the total exactly and persists the sale. Unless the sale is
// exchange-derived, its ledger rows are posted in the same unit of work.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*Sale, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}

	var sale *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.create(ctx, ownerID, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	cache.NotifyAfterCommit(ctx, s.cache, cache.ScopeFor(ownerID, sale.Date))
	logger.Info(ctx, "sale created",
		"sale_id", sale.ID,
		"number", sale.Number,
		"total_amount", sale.TotalAmount.String(),
		"total_profit", sale.TotalProfit.String(),
		"derived_from_exchange", sale.IsDerivedFromExchange,
	)
	return sale, nil
}

func (s *Service) create(ctx context.Context, ownerID string, in CreateInput) (*Sale, error) {
	now := s.now().UTC()
	sale := &Sale{
		ID:                    id.New(),
		OwnerID:               ownerID,
		Date:                  in.Date,
		Status:                StatusActive,
		IsDerivedFromExchange: in.IsDerivedFromExchange,
		ExchangeCredit:        in.ExchangeCredit,
		RefundAmount:          types.Zero(),
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.fillLines(ctx, sale, in); err != nil {
		return nil, err
	}

	var err error
	sale.Number, err = s.numerator.GetNextNumber(ctx, ownerID, numerator.SaleNumbers, nil, sale.Date)
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}

	if err := s.repo.Create(ctx, sale); err != nil {
		return nil, fmt.Errorf("create sale: %w", err)
	}

	if err := s.recordSaleTransactions(ctx, sale); err != nil {
		return nil, err
	}

	err = s.publish(ctx, events.SaleCreated, sale, events.Payload{
		"total_amount": sale.TotalAmount.String(),
		"derived":      sale.IsDerivedFromExchange,
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// fillLines freezes the cost basis of the requested items, takes them out of
// stock, recomputes the totals and attaches the payments, which must cover the
// total exactly.
func (s *Service) fillLines(ctx context.Context, sale *Sale, in CreateInput) error {
	items, err := snapshotItems(ctx, s.inventory, sale.OwnerID, sale.ID, in.Items)
	if err != nil {
		return err
	}
	sale.Items = items

	totalAmount, totalProfit := types.Zero(), types.Zero()
	for _, it := range items {
		totalAmount = totalAmount.Add(it.TotalItemPrice)
		totalProfit = totalProfit.Add(it.TotalItemProfit)
	}
	sale.TotalAmount = totalAmount
	sale.TotalProfit = totalProfit
	if sale.IsDerivedFromExchange {
		sale.TotalProfit = types.Zero()
	}

	for _, it := range items {
		if err := s.inventory.AdjustStock(ctx, sale.OwnerID, it.VariantID, -it.Quantity); err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
	}

	sale.Payments = nil
	for _, p := range in.Payments {
		sale.Payments = append(sale.Payments, Payment{
			ID:            id.New(),
			SaleID:        sale.ID,
			PaymentMethod: p.Method,
			Amount:        p.Amount,
		})
	}
	if paid := sale.TotalPaid().Add(sale.ExchangeCredit); !paid.Equal(sale.TotalAmount) {
		return apperror.NewPaymentMismatch(sale.TotalAmount, paid)
	}
	return nil
}

// Get returns the sale with its items and payments.
func (s *Service) Get(ctx context.Context, ownerID string, saleID id.ID) (*Sale, error) {
	return s.repo.GetByID(ctx, ownerID, saleID)
}

// GetForUpdate loads the sale and locks it until the caller's unit of work
// ends. Decisions taken on the result hold against concurrent cancellations.
func (s *Service) GetForUpdate(ctx context.Context, ownerID string, saleID id.ID) (*Sale, error) {
	return s.repo.GetForUpdate(ctx, ownerID, saleID)
}

// CheckStock verifies that the current stock covers items.
func (s *Service) CheckStock(ctx context.Context, ownerID string, items []ItemInput) error {
	return checkStock(ctx, s.inventory, ownerID, items)
}

// List pages through sales, newest first.
func (s *Service) List(ctx context.Context, ownerID string, f ListFilter) (domain.ListResult[*Sale], error) {
	f.ListFilter = f.ListFilter.Normalize()
	return s.repo.List(ctx, ownerID, f)
}

// GrossProfit adds the total profit of all the owner's sales.
func (s *Service) GrossProfit(ctx context.Context, ownerID string) (types.Money, error) {
	return s.repo.SumTotalProfit(ctx, ownerID)
}

// Delete removes a sale, returns the units not yet cancelled to stock and
// removes the ledger rows of the sale. Sales taking part in an exchange
// cannot be deleted.
func (s *Service) Delete(ctx context.Context, ownerID string, saleID id.ID) error {
	var sale *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.repo.GetForUpdate(ctx, ownerID, saleID)
		if err != nil {
			return err
		}

		linked, err := s.repo.IsLinkedToExchange(ctx, ownerID, saleID)
		if err != nil {
			return fmt.Errorf("check exchanges: %w", err)
		}
		if linked {
			return apperror.NewBusinessRule(CodeSaleLinkedToExchange, "Sale is part of an exchange and cannot be deleted").
				WithDetail("sale_id", saleID)
		}

		for _, it := range sale.Items {
			if left := it.Remaining(); left > 0 {
				if err := s.inventory.AdjustStock(ctx, ownerID, it.VariantID, left); err != nil {
					return fmt.Errorf("restore stock: %w", err)
				}
			}
		}

		for _, ref := range []string{ledger.SaleRef(saleID), ledger.SaleRefundRef(saleID)} {
			if _, err := s.ledger.DeleteByReference(ctx, ownerID, ref); err != nil {
				return fmt.Errorf("delete sale transactions: %w", err)
			}
		}

		if err := s.repo.Delete(ctx, ownerID, saleID); err != nil {
			return fmt.Errorf("delete sale: %w", err)
		}

		snapshot, err := audit.Snapshot(sale)
		if err != nil {
			return err
		}
		if err := s.audit.Record(ctx, audit.EntitySale, saleID, audit.ActionDelete, snapshot); err != nil {
			return fmt.Errorf("audit sale delete: %w", err)
		}
		return s.publish(ctx, events.SaleDeleted, sale, nil)
	})
	if err != nil {
		return err
	}

	cache.NotifyAfterCommit(ctx, s.cache, cache.Scope{OwnerID: ownerID})
	logger.Info(ctx, "sale deleted", "sale_id", saleID, "number", sale.Number)
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, sale *Sale, extra events.Payload) error {
	payload := events.Payload{
		"owner_id": sale.OwnerID,
		"month":    types.MonthOf(sale.Date).String(),
		"number":   sale.Number,
		"status":   string(sale.Status),
	}
	for k, v := range extra {
		payload[k] = v
	}
	return s.publisher.Publish(ctx, events.Event{
		AggregateType: events.AggregateSale,
		AggregateID:   sale.ID,
		EventType:     eventType,
		Payload:       payload,
	})
}

// CreateWithinTx creates a sale inside the caller's unit of work.
// The caller owns the post-commit cache notification.
func (s *Service) CreateWithinTx(ctx context.Context, ownerID string, in CreateInput) (*Sale, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}
	return s.create(ctx, ownerID, in)
}
