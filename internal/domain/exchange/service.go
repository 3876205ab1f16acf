package exchange

import (
	"context"
	"fmt"
	"time"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/cache"
	appctx "helmetledger/internal/core/context"
	"helmetledger/internal/core/events"
	"helmetledger/internal/core/id"
	"helmetledger/internal/core/numerator"
	"helmetledger/internal/core/tx"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain/ledger"
	"helmetledger/internal/domain/sales"
	"helmetledger/pkg/logger"
)

// Service processes product exchanges.
type Service struct {
	repo      Repository
	sales     *sales.Service
	ledger    *ledger.Service
	numerator numerator.Generator
	txManager tx.Manager
	publisher events.Publisher
	cache     cache.Invalidator
	now       func() time.Time
}

// NewService creates a new exchange service.
func NewService(
	repo Repository,
	salesSvc *sales.Service,
	ledgerSvc *ledger.Service,
	generator numerator.Generator,
	txManager tx.Manager,
	publisher events.Publisher,
	invalidator cache.Invalidator,
) *Service {
	return &Service{
		repo:      repo,
		sales:     salesSvc,
		ledger:    ledgerSvc,
		numerator: generator,
		txManager: txManager,
		publisher: publisher,
		cache:     invalidator,
		now:       time.Now,
	}
}

// returnLine is a validated return of units from the original sale.
type returnLine struct {
	item *sales.Item
	qty  int
}

// Exchange returns units of a sale and sells replacement items. The original
// sale goes through cancellation (refunding only when the new items are
// cheaper), the replacement is an exchange-derived sale, and the price
// difference is the only revenue the exchange realizes.
func (s *Service) Exchange(ctx context.Context, ownerID string, in Input) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}

	var result *Result
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.exchange(ctx, ownerID, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	cache.NotifyAfterCommit(ctx, s.cache, cache.Scope{OwnerID: ownerID})
	logger.Info(ctx, "product exchange processed",
		"exchange_id", result.ExchangeID,
		"original_sale_id", result.OriginalSaleID,
		"new_sale_id", result.NewSaleID,
		"amount_difference", result.AmountDifference.String(),
	)
	return result, nil
}

func (s *Service) exchange(ctx context.Context, ownerID string, in Input) (*Result, error) {
	original, err := s.sales.GetForUpdate(ctx, ownerID, in.OriginalSaleID)
	if err != nil {
		return nil, err
	}
	if original.IsCancelled() {
		return nil, apperror.NewBusinessRule(sales.CodeSaleAlreadyCancelled, "Cannot exchange items of a cancelled sale").
			WithDetail("sale_id", original.ID)
	}

	lines, err := resolveReturns(original, in.ItemsToReturn)
	if err != nil {
		return nil, err
	}

	returnedAmount, returnedCost := types.Zero(), types.Zero()
	for _, l := range lines {
		qty := types.FromInt(int64(l.qty))
		returnedAmount = returnedAmount.Add(l.item.UnitPrice.Mul(qty))
		returnedCost = returnedCost.Add(l.item.CostBasisAtSale.Mul(qty))
	}

	newSaleAmount := types.Zero()
	for _, it := range in.NewItems {
		newSaleAmount = newSaleAmount.Add(it.UnitPrice.Mul(types.FromInt(int64(it.Quantity))))
	}

	diff := newSaleAmount.Sub(returnedAmount)
	expected := types.MaxZero(diff)
	paid := types.Zero()
	for _, p := range in.NewSalePayments {
		paid = paid.Add(p.Amount)
	}
	if !paid.Equal(expected) {
		return nil, apperror.NewPaymentMismatch(expected, paid)
	}
	refund := diff.IsNegative()
	if refund && in.RefundPaymentMethod == nil {
		return nil, apperror.NewValidation("refund payment method is required when the new items cost less")
	}

	// Replacement stock is judged before the returned units go back on the
	// shelf, so swapping into the returned variant needs stock of its own.
	if err := s.sales.CheckStock(ctx, ownerID, in.NewItems); err != nil {
		return nil, err
	}

	ex := &ProductExchange{
		ID:               id.New(),
		OwnerID:          ownerID,
		ExchangeDate:     in.Date,
		OriginalSaleID:   original.ID,
		Reason:           in.Reason,
		ProcessedBy:      appctx.Actor(ctx, ownerID),
		ReturnedAmount:   returnedAmount,
		NewSaleAmount:    newSaleAmount,
		AmountDifference: diff,
		CreatedAt:        s.now().UTC(),
	}
	if in.Notes != "" {
		notes := in.Notes
		ex.Notes = &notes
	}
	ex.Number, err = s.numerator.GetNextNumber(ctx, ownerID, numerator.ExchangeNumbers, nil, in.Date)
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}

	cancelIn := sales.CancelInput{
		CancelEntireSale: coversAllActive(original, lines),
		Reason:           sales.ReasonReturn,
		Notes:            fmt.Sprintf("Exchange %s", ex.Number),
		FromExchange:     true,
	}
	if !cancelIn.CancelEntireSale {
		for _, l := range lines {
			cancelIn.Items = append(cancelIn.Items, sales.ItemCancellation{ItemID: l.item.ID, Quantity: l.qty})
		}
	}
	if refund {
		cancelIn.GenerateRefund = true
		cancelIn.RefundAmount = diff.Abs()
		cancelIn.RefundPaymentMethod = *in.RefundPaymentMethod
	}

	cancelled, err := s.sales.CancelWithinTx(ctx, ownerID, original.ID, cancelIn)
	if err != nil {
		return nil, fmt.Errorf("cancel returned items: %w", err)
	}

	newSale, err := s.sales.CreateWithinTx(ctx, ownerID, sales.CreateInput{
		Date:                  in.Date,
		Items:                 in.NewItems,
		Payments:              in.NewSalePayments,
		IsDerivedFromExchange: true,
		ExchangeCredit:        types.Min(returnedAmount, newSaleAmount),
	})
	if err != nil {
		return nil, fmt.Errorf("create exchange sale: %w", err)
	}
	ex.NewSaleID = newSale.ID

	if refund {
		amount := diff.Abs()
		ex.RefundAmount = &amount
		ex.RefundPaymentMethod = in.RefundPaymentMethod
		ex.RefundTransactionID = cancelled.RefundTransactionID
	}

	if err := s.postAdjustments(ctx, ex, returnedCost, newSale); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, ex); err != nil {
		return nil, fmt.Errorf("create exchange: %w", err)
	}

	err = s.publisher.Publish(ctx, events.Event{
		AggregateType: events.AggregateExchange,
		AggregateID:   ex.ID,
		EventType:     events.ExchangeProcessed,
		Payload: events.Payload{
			"owner_id":          ownerID,
			"month":             types.MonthOf(in.Date).String(),
			"original_sale_id":  original.ID.String(),
			"new_sale_id":       newSale.ID.String(),
			"amount_difference": diff.String(),
		},
	})
	if err != nil {
		return nil, err
	}

	return toResult(ex), nil
}

// postAdjustments books the cost side of the swap and, when the customer
// paid a difference, the revenue of that difference. A negative difference
// is already booked as the refund row of the cancellation.
func (s *Service) postAdjustments(ctx context.Context, ex *ProductExchange, returnedCost types.Money, newSale *sales.Sale) error {
	ref := ledger.ExchangeRef(ex.ID)
	desc := fmt.Sprintf("Exchange %s", ex.Number)
	var rows []*ledger.Transaction

	if returnedCost.IsPositive() {
		rows = append(rows, ledger.New(ex.OwnerID, ex.ExchangeDate, ledger.Income, ledger.DetailCOGSReversal, returnedCost, "", ref).
			WithSubID(ledger.SubCOGSReversal).
			WithoutWallet().
			WithDescription("Returned goods cost, "+desc))
	}
	if cost := newSale.TotalCost(); cost.IsPositive() {
		rows = append(rows, ledger.New(ex.OwnerID, ex.ExchangeDate, ledger.Expense, ledger.DetailCOGS, cost, "", ref).
			WithSubID(ledger.SubCOGSNew).
			WithoutWallet().
			WithDescription("Cost of goods sold, "+desc))
	}
	if ex.AmountDifference.IsPositive() {
		for _, p := range newSale.Payments {
			rows = append(rows, ledger.New(ex.OwnerID, ex.ExchangeDate, ledger.Income, ledger.DetailSale, p.Amount, p.PaymentMethod, ref).
				WithSubID(p.ID.String()).
				WithDescription("Difference paid, "+desc))
		}
	}

	for _, row := range rows {
		if _, err := s.ledger.PostIdempotent(ctx, row); err != nil {
			return fmt.Errorf("post exchange adjustment: %w", err)
		}
	}
	return nil
}

// Get returns an exchange record.
func (s *Service) Get(ctx context.Context, ownerID string, exchangeID id.ID) (*ProductExchange, error) {
	return s.repo.GetByID(ctx, ownerID, exchangeID)
}

// ListBySale returns the exchanges a sale took part in.
func (s *Service) ListBySale(ctx context.Context, ownerID string, saleID id.ID) ([]ProductExchange, error) {
	return s.repo.ListBySale(ctx, ownerID, saleID)
}

func resolveReturns(sale *sales.Sale, req []ReturnItem) ([]returnLine, error) {
	totals := make(map[id.ID]int, len(req))
	order := make([]id.ID, 0, len(req))
	for _, r := range req {
		if _, seen := totals[r.SaleItemID]; !seen {
			order = append(order, r.SaleItemID)
		}
		totals[r.SaleItemID] += r.Quantity
	}

	lines := make([]returnLine, 0, len(order))
	for _, itemID := range order {
		item := sale.FindItem(itemID)
		if item == nil {
			return nil, apperror.NewNotFound("sale item", itemID)
		}
		qty := totals[itemID]
		if item.IsCancelled || qty > item.Remaining() {
			return nil, apperror.NewBusinessRule(sales.CodeCancelQuantityExceeded, "Return quantity exceeds the quantity left").
				WithDetail("item_id", itemID).
				WithDetail("requested", qty).
				WithDetail("remaining", item.Remaining())
		}
		lines = append(lines, returnLine{item: item, qty: qty})
	}
	return lines, nil
}

// coversAllActive reports whether the return takes back every unit left.
func coversAllActive(sale *sales.Sale, lines []returnLine) bool {
	returned := make(map[id.ID]int, len(lines))
	for _, l := range lines {
		returned[l.item.ID] = l.qty
	}
	for _, it := range sale.ActiveItems() {
		if returned[it.ID] != it.Remaining() {
			return false
		}
	}
	return true
}

func toResult(ex *ProductExchange) *Result {
	res := &Result{
		ExchangeID:             ex.ID,
		Number:                 ex.Number,
		OriginalSaleID:         ex.OriginalSaleID,
		NewSaleID:              ex.NewSaleID,
		ReturnedAmount:         ex.ReturnedAmount,
		NewSaleAmount:          ex.NewSaleAmount,
		AmountDifference:       ex.AmountDifference,
		RefundAmount:           types.Zero(),
		AdditionalChargeAmount: types.Zero(),
	}
	if ex.AmountDifference.IsNegative() {
		res.HasRefund = true
		res.RefundAmount = ex.AmountDifference.Abs()
		res.RefundPaymentMethod = ex.RefundPaymentMethod
		res.RefundTransactionID = ex.RefundTransactionID
	}
	if ex.AmountDifference.IsPositive() {
		res.HasAdditionalCharge = true
		res.AdditionalChargeAmount = ex.AmountDifference
	}
	return res
}
