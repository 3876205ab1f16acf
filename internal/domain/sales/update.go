package sales

import (
	"context"
	"fmt"
	"slices"
	"time"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/cache"
	"helmetledger/internal/core/events"
	"helmetledger/internal/core/id"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain/audit"
	"helmetledger/internal/domain/ledger"
	"helmetledger/pkg/logger"
)

// CodeSaleNotEditable is returned when a sale has already been cancelled in
// part or in full.
const CodeSaleNotEditable = "SALE_NOT_EDITABLE"

// Update replaces the date, items and payments of an active sale. The old
// units go back to stock before the new lines are checked against it, cost
// basis is frozen again at current averages, and the SALE/COGS rows of the
// sale are removed and posted anew. The number is kept.
func (s *Service) Update(ctx context.Context, ownerID string, saleID id.ID, in UpdateInput) (*Sale, error) {
	create := in.createInput()
	if err := create.Validate(); err != nil {
		return nil, err
	}
	if create.Date.IsZero() {
		return nil, apperror.NewValidation("date is required")
	}

	var (
		sale    *Sale
		oldDate time.Time
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.repo.GetForUpdate(ctx, ownerID, saleID)
		if err != nil {
			return err
		}
		if err := s.checkEditable(ctx, sale); err != nil {
			return err
		}
		before := *sale
		before.Items = slices.Clone(sale.Items)
		before.Payments = slices.Clone(sale.Payments)
		oldDate = sale.Date

		for _, it := range sale.Items {
			if err := s.inventory.AdjustStock(ctx, ownerID, it.VariantID, it.Quantity); err != nil {
				return fmt.Errorf("restore stock: %w", err)
			}
		}

		sale.Date = create.Date
		sale.UpdatedAt = s.now().UTC()
		if err := s.fillLines(ctx, sale, create); err != nil {
			return err
		}
		if err := s.repo.Replace(ctx, sale); err != nil {
			return fmt.Errorf("replace sale lines: %w", err)
		}

		if _, err := s.ledger.DeleteByReference(ctx, ownerID, ledger.SaleRef(saleID)); err != nil {
			return fmt.Errorf("delete sale transactions: %w", err)
		}
		if err := s.recordSaleTransactions(ctx, sale); err != nil {
			return err
		}

		changes, err := audit.DiffOf(before, sale)
		if err != nil {
			return err
		}
		if err := s.audit.Record(ctx, audit.EntitySale, saleID, audit.ActionUpdate, changes); err != nil {
			return fmt.Errorf("audit sale update: %w", err)
		}

		earliest := sale.Date
		if oldDate.Before(earliest) {
			earliest = oldDate
		}
		return s.publish(ctx, events.SaleUpdated, sale, events.Payload{
			"month":        types.MonthOf(earliest).String(),
			"total_amount": sale.TotalAmount.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	cache.NotifyAfterCommit(ctx, s.cache, cache.ScopeFor(ownerID, oldDate))
	if !types.MonthOf(oldDate).Contains(sale.Date) {
		cache.NotifyAfterCommit(ctx, s.cache, cache.ScopeFor(ownerID, sale.Date))
	}
	logger.Info(ctx, "sale updated",
		"sale_id", sale.ID,
		"number", sale.Number,
		"total_amount", sale.TotalAmount.String(),
		"total_profit", sale.TotalProfit.String(),
	)
	return sale, nil
}

// checkEditable allows edits of untouched sales only. Cancelled lines carry
// refunds and stock movements, and exchange sales are bound to their
// exchange record.
func (s *Service) checkEditable(ctx context.Context, sale *Sale) error {
	if sale.Status != StatusActive || sale.HasRefund {
		return apperror.NewBusinessRule(CodeSaleNotEditable, "Only sales without cancellations can be edited").
			WithDetail("sale_id", sale.ID).
			WithDetail("status", sale.Status)
	}
	if sale.IsDerivedFromExchange {
		return apperror.NewBusinessRule(CodeSaleLinkedToExchange, "Sale is part of an exchange and cannot be edited").
			WithDetail("sale_id", sale.ID)
	}
	linked, err := s.repo.IsLinkedToExchange(ctx, sale.OwnerID, sale.ID)
	if err != nil {
		return fmt.Errorf("check exchanges: %w", err)
	}
	if linked {
		return apperror.NewBusinessRule(CodeSaleLinkedToExchange, "Sale is part of an exchange and cannot be edited").
			WithDetail("sale_id", sale.ID)
	}
	return nil
}
