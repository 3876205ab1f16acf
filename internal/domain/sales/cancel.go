package sales

import (
	"context"
	"fmt"
	"slices"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/cache"
	appctx "helmetledger/internal/core/context"
	"helmetledger/internal/core/events"
	"helmetledger/internal/core/id"
	"helmetledger/internal/domain/audit"
	"helmetledger/internal/domain/ledger"
	"helmetledger/pkg/logger"
)

// Cancel cancels a whole sale or some of its units, returns them to stock and
// optionally refunds the customer. A refund is an EXPENSE REFUND row that
// moves cash but does not reduce profit.
func (s *Service) Cancel(ctx context.Context, ownerID string, saleID id.ID, in CancelInput) (*Sale, error) {
	if !in.Reason.Valid() {
		return nil, apperror.NewValidation("invalid cancellation reason").WithDetail("reason", in.Reason)
	}

	var sale *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.cancel(ctx, ownerID, saleID, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	cache.NotifyAfterCommit(ctx, s.cache, cache.ScopeFor(ownerID, sale.Date))
	if sale.CancelledAt != nil {
		cache.NotifyAfterCommit(ctx, s.cache, cache.ScopeFor(ownerID, *sale.CancelledAt))
	}
	logger.Info(ctx, "sale cancelled",
		"sale_id", sale.ID,
		"status", sale.Status,
		"refund", sale.HasRefund,
		"reason", in.Reason,
	)
	return sale, nil
}

func (s *Service) cancel(ctx context.Context, ownerID string, saleID id.ID, in CancelInput) (*Sale, error) {
	sale, err := s.repo.GetForUpdate(ctx, ownerID, saleID)
	if err != nil {
		return nil, err
	}
	before := *sale
	before.Items = slices.Clone(sale.Items)

	if err := checkCancellable(sale, in); err != nil {
		return nil, err
	}

	plan, err := planCancellation(sale, in)
	if err != nil {
		return nil, err
	}

	for _, c := range plan {
		item := sale.FindItem(c.ItemID)
		if err := s.inventory.AdjustStock(ctx, ownerID, item.VariantID, c.Quantity); err != nil {
			return nil, fmt.Errorf("restore stock: %w", err)
		}
		item.Cancel(c.Quantity)
	}

	now := s.now().UTC()
	actor := appctx.Actor(ctx, ownerID)
	reason := in.Reason
	sale.CancelledAt = &now
	sale.CancelledBy = &actor
	sale.CancellationReason = &reason
	if in.Notes != "" {
		notes := in.Notes
		sale.CancellationNotes = &notes
	}
	sale.refreshStatus()
	sale.recalculateTotals()
	sale.UpdatedAt = now

	if in.GenerateRefund {
		row := ledger.New(ownerID, now, ledger.Expense, ledger.DetailRefund, in.RefundAmount, in.RefundPaymentMethod, ledger.SaleRefundRef(sale.ID)).
			WithSubID(ledger.SubRefund).
			WithDescription(fmt.Sprintf("Refund of sale %s", sale.Number))
		txID, err := s.ledger.Post(ctx, row)
		if err != nil {
			return nil, fmt.Errorf("post refund: %w", err)
		}
		method := in.RefundPaymentMethod
		sale.HasRefund = true
		sale.RefundAmount = row.Amount.Abs()
		sale.RefundPaymentMethod = &method
		sale.RefundTransactionID = &txID
	}

	if err := s.repo.Update(ctx, sale); err != nil {
		return nil, fmt.Errorf("update sale: %w", err)
	}

	changes, err := audit.DiffOf(before, sale)
	if err != nil {
		return nil, err
	}
	if err := s.audit.Record(ctx, audit.EntitySale, sale.ID, audit.ActionCancel, changes); err != nil {
		return nil, fmt.Errorf("audit sale cancel: %w", err)
	}

	err = s.publish(ctx, events.SaleCancelled, sale, events.Payload{
		"reason":        string(in.Reason),
		"refund":        in.GenerateRefund,
		"refund_amount": sale.RefundAmount.String(),
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func checkCancellable(sale *Sale, in CancelInput) error {
	if sale.IsCancelled() {
		return apperror.NewBusinessRule(CodeSaleAlreadyCancelled, "Sale is already cancelled").
			WithDetail("sale_id", sale.ID)
	}

	if !in.CancelEntireSale {
		if len(in.Items) == 0 {
			return apperror.NewBusinessRule(CodeCancellationItemsRequired, "Partial cancellation requires at least one item")
		}
		if !in.GenerateRefund && !in.FromExchange {
			return apperror.NewBusinessRule(CodeRefundRequired, "Partial cancellation requires a refund")
		}
	}

	if !in.GenerateRefund {
		return nil
	}
	if sale.HasRefund {
		return apperror.NewBusinessRule(CodeDuplicateRefund, "Sale already has a refund").
			WithDetail("sale_id", sale.ID)
	}
	if !in.RefundAmount.IsPositive() {
		return apperror.NewBusinessRule(CodeInvalidRefund, "Refund amount must be greater than zero")
	}
	if !in.RefundPaymentMethod.Valid() {
		return apperror.NewBusinessRule(CodeInvalidRefund, "Refund payment method is required")
	}
	paid := sale.TotalPaid().Add(sale.ExchangeCredit)
	if in.RefundAmount.GreaterThan(paid) {
		return apperror.NewBusinessRule(CodeInvalidRefund, "Refund amount exceeds the amount paid").
			WithDetail("refund_amount", in.RefundAmount.String()).
			WithDetail("total_paid", paid.String())
	}
	return nil
}

// planCancellation resolves the units to cancel per item.
func planCancellation(sale *Sale, in CancelInput) ([]ItemCancellation, error) {
	if in.CancelEntireSale {
		var plan []ItemCancellation
		for _, it := range sale.ActiveItems() {
			plan = append(plan, ItemCancellation{ItemID: it.ID, Quantity: it.Remaining()})
		}
		return plan, nil
	}

	totals := make(map[id.ID]int, len(in.Items))
	order := make([]id.ID, 0, len(in.Items))
	for _, c := range in.Items {
		if c.Quantity <= 0 {
			return nil, apperror.NewValidation("cancel quantity must be greater than zero").
				WithDetail("item_id", c.ItemID)
		}
		if _, seen := totals[c.ItemID]; !seen {
			order = append(order, c.ItemID)
		}
		totals[c.ItemID] += c.Quantity
	}

	plan := make([]ItemCancellation, 0, len(order))
	for _, itemID := range order {
		item := sale.FindItem(itemID)
		if item == nil {
			return nil, apperror.NewNotFound("sale item", itemID)
		}
		qty := totals[itemID]
		if item.IsCancelled || qty > item.Remaining() {
			return nil, apperror.NewBusinessRule(CodeCancelQuantityExceeded, "Cancel quantity exceeds the quantity left").
				WithDetail("item_id", itemID).
				WithDetail("requested", qty).
				WithDetail("remaining", item.Remaining())
		}
		plan = append(plan, ItemCancellation{ItemID: itemID, Quantity: qty})
	}
	return plan, nil
}

// CancelWithinTx cancels inside the caller's unit of work.
// The caller owns the post-commit cache notification.
func (s *Service) CancelWithinTx(ctx context.Context, ownerID string, saleID id.ID, in CancelInput) (*Sale, error) {
	if !in.Reason.Valid() {
		return nil, apperror.NewValidation("invalid cancellation reason").WithDetail("reason", in.Reason)
	}
	return s.cancel(ctx, ownerID, saleID, in)
}
