package exchange_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/id"
	"helmetledger/internal/domain/exchange"
	"helmetledger/internal/domain/ledger"
	"helmetledger/internal/domain/sales"
	"helmetledger/internal/testkit"
)

const owner = testkit.Owner

var money = testkit.Money

type fixture struct {
	h        *testkit.Harness
	original *sales.Sale
	returned id.ID
	newItem  id.ID
}

// setup sells 2 units at 100.00 with an average cost of 60.00 and stocks a
// replacement variant costing 70.00.
func setup(t *testing.T, opts ...func(*testkit.Config)) fixture {
	t.Helper()
	h := testkit.New(opts...)
	returned, newItem := id.New(), id.New()
	h.Stock(t, returned, 10, "60.00")
	h.Stock(t, newItem, 5, "70.00")

	sale, err := h.Sales.Create(context.Background(), owner, sales.CreateInput{
		Date:     testkit.Date(2025, 3, 10),
		Items:    []sales.ItemInput{{VariantID: returned, Quantity: 2, UnitPrice: money("100.00")}},
		Payments: []sales.PaymentInput{{Method: ledger.PaymentPix, Amount: money("200.00")}},
	})
	require.NoError(t, err)
	return fixture{h: h, original: sale, returned: returned, newItem: newItem}
}

func (f fixture) input(qtyReturned int, newQty int, newPrice string) exchange.Input {
	return exchange.Input{
		OriginalSaleID: f.original.ID,
		ItemsToReturn:  []exchange.ReturnItem{{SaleItemID: f.original.Items[0].ID, Quantity: qtyReturned}},
		NewItems:       []sales.ItemInput{{VariantID: f.newItem, Quantity: newQty, UnitPrice: money(newPrice)}},
		Reason:         exchange.ReasonSize,
		Date:           testkit.Date(2025, 3, 20),
	}
}

func rowsOf(t *testing.T, h *testkit.Harness, ref string) map[string]ledger.Transaction {
	t.Helper()
	rows, err := h.Ledger.FindByReference(context.Background(), owner, ref)
	require.NoError(t, err)
	out := make(map[string]ledger.Transaction, len(rows))
	for _, r := range rows {
		out[r.SubID()] = r
	}
	return out
}

func TestExchange_EvenSwap(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.h.Exchanges.Exchange(ctx, owner, f.input(2, 2, "100.00"))
	require.NoError(t, err)

	testkit.AssertMoney(t, "200.00", res.ReturnedAmount)
	testkit.AssertMoney(t, "200.00", res.NewSaleAmount)
	testkit.AssertMoney(t, "0", res.AmountDifference)
	assert.False(t, res.HasRefund)
	assert.False(t, res.HasAdditionalCharge)
	assert.Nil(t, res.RefundTransactionID)
	assert.Equal(t, "EX-2025-00001", res.Number)

	original, err := f.h.Sales.Get(ctx, owner, f.original.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.StatusCancelled, original.Status)
	require.NotNil(t, original.CancellationReason)
	assert.Equal(t, sales.ReasonReturn, *original.CancellationReason)
	assert.False(t, original.HasRefund)

	newSale, err := f.h.Sales.Get(ctx, owner, res.NewSaleID)
	require.NoError(t, err)
	assert.True(t, newSale.IsDerivedFromExchange)
	testkit.AssertMoney(t, "0", newSale.TotalProfit)
	testkit.AssertMoney(t, "200.00", newSale.ExchangeCredit)
	assert.Empty(t, newSale.Payments)

	assert.Equal(t, 10, f.h.StockOf(t, f.returned))
	assert.Equal(t, 3, f.h.StockOf(t, f.newItem))

	assert.Empty(t, rowsOf(t, f.h, ledger.SaleRef(newSale.ID)))
	adj := rowsOf(t, f.h, ledger.ExchangeRef(res.ExchangeID))
	require.Len(t, adj, 2)
	testkit.AssertMoney(t, "120.00", adj[ledger.SubCOGSReversal].Amount)
	assert.Equal(t, ledger.DetailCOGSReversal, adj[ledger.SubCOGSReversal].Detail)
	assert.Nil(t, adj[ledger.SubCOGSReversal].WalletDestination)
	testkit.AssertMoney(t, "-140.00", adj[ledger.SubCOGSNew].Amount)
	assert.False(t, adj[ledger.SubCOGSNew].AffectsCash)

	// Sale 200 - COGS 120 + reversal 120 - new COGS 140.
	testkit.AssertMoney(t, "60.00", f.h.Sum(t, ledger.ProfitFilter()))
	testkit.AssertMoney(t, "200.00", f.h.Sum(t, ledger.CashFilter()))

	ex, err := f.h.Exchanges.Get(ctx, owner, res.ExchangeID)
	require.NoError(t, err)
	assert.Equal(t, f.original.ID, ex.OriginalSaleID)
	assert.Equal(t, newSale.ID, ex.NewSaleID)
	assert.Nil(t, ex.RefundAmount)
}

func TestExchange_CheaperItemsRefundDifference(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	in := f.input(2, 1, "150.00")
	cash := ledger.PaymentCash
	in.RefundPaymentMethod = &cash

	res, err := f.h.Exchanges.Exchange(ctx, owner, in)
	require.NoError(t, err)

	testkit.AssertMoney(t, "-50.00", res.AmountDifference)
	assert.True(t, res.HasRefund)
	testkit.AssertMoney(t, "50.00", res.RefundAmount)
	require.NotNil(t, res.RefundTransactionID)
	assert.False(t, res.HasAdditionalCharge)

	refund, err := f.h.Ledger.Get(ctx, owner, *res.RefundTransactionID)
	require.NoError(t, err)
	assert.Equal(t, ledger.DetailRefund, refund.Detail)
	testkit.AssertMoney(t, "-50.00", refund.Amount)
	assert.Equal(t, ledger.WalletCash, *refund.WalletDestination)

	original, err := f.h.Sales.Get(ctx, owner, f.original.ID)
	require.NoError(t, err)
	assert.True(t, original.HasRefund)
	testkit.AssertMoney(t, "50.00", original.RefundAmount)

	newSale, err := f.h.Sales.Get(ctx, owner, res.NewSaleID)
	require.NoError(t, err)
	testkit.AssertMoney(t, "150.00", newSale.ExchangeCredit)

	ex, err := f.h.Exchanges.Get(ctx, owner, res.ExchangeID)
	require.NoError(t, err)
	require.NotNil(t, ex.RefundAmount)
	testkit.AssertMoney(t, "50.00", *ex.RefundAmount)
	assert.Equal(t, res.RefundTransactionID, ex.RefundTransactionID)

	testkit.AssertMoney(t, "150.00", f.h.Sum(t, ledger.CashFilter()))
}

func TestExchange_PricierItemsChargeDifference(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	in := f.input(2, 1, "250.00")
	in.NewSalePayments = []sales.PaymentInput{{Method: ledger.PaymentCash, Amount: money("50.00")}}

	res, err := f.h.Exchanges.Exchange(ctx, owner, in)
	require.NoError(t, err)

	assert.True(t, res.HasAdditionalCharge)
	testkit.AssertMoney(t, "50.00", res.AdditionalChargeAmount)
	assert.False(t, res.HasRefund)

	adj := rowsOf(t, f.h, ledger.ExchangeRef(res.ExchangeID))
	require.Len(t, adj, 3)

	var difference *ledger.Transaction
	for _, r := range adj {
		if r.Detail == ledger.DetailSale {
			difference = &r
		}
	}
	require.NotNil(t, difference)
	testkit.AssertMoney(t, "50.00", difference.Amount)
	assert.Equal(t, ledger.WalletCash, *difference.WalletDestination)

	testkit.AssertMoney(t, "250.00", f.h.Sum(t, ledger.CashFilter()))
}

func TestExchange_PartialReturn(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.h.Exchanges.Exchange(ctx, owner, f.input(1, 1, "100.00"))
	require.NoError(t, err)
	assert.False(t, res.HasRefund)

	original, err := f.h.Sales.Get(ctx, owner, f.original.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.StatusPartiallyCancelled, original.Status)
	assert.Equal(t, 1, original.Items[0].CancelledQuantity)
	testkit.AssertMoney(t, "100.00", original.TotalAmount)
	testkit.AssertMoney(t, "40.00", original.TotalProfit)
	assert.Equal(t, 9, f.h.StockOf(t, f.returned))
	assert.Equal(t, 4, f.h.StockOf(t, f.newItem))
}

func TestExchange_Rejections(t *testing.T) {
	tests := []struct {
		name string
		in   func(f fixture) exchange.Input
		code string
	}{
		{
			name: "difference not paid",
			in:   func(f fixture) exchange.Input { return f.input(2, 1, "250.00") },
			code: apperror.CodePaymentMismatch,
		},
		{
			name: "payment on even swap",
			in: func(f fixture) exchange.Input {
				in := f.input(2, 2, "100.00")
				in.NewSalePayments = []sales.PaymentInput{{Method: ledger.PaymentCash, Amount: money("10.00")}}
				return in
			},
			code: apperror.CodePaymentMismatch,
		},
		{
			name: "refund method missing",
			in:   func(f fixture) exchange.Input { return f.input(2, 1, "150.00") },
			code: apperror.CodeValidation,
		},
		{
			name: "return more than sold",
			in:   func(f fixture) exchange.Input { return f.input(3, 1, "300.00") },
			code: sales.CodeCancelQuantityExceeded,
		},
		{
			name: "not enough replacement stock",
			in: func(f fixture) exchange.Input {
				in := f.input(2, 6, "10.00")
				cash := ledger.PaymentCash
				in.RefundPaymentMethod = &cash
				return in
			},
			code: apperror.CodeInsufficientStock,
		},
		{
			name: "swap into the returned variant without spare stock",
			in: func(f fixture) exchange.Input {
				in := f.input(2, 9, "10.00")
				in.NewItems[0].VariantID = f.returned
				cash := ledger.PaymentCash
				in.RefundPaymentMethod = &cash
				return in
			},
			code: apperror.CodeInsufficientStock,
		},
		{
			name: "unknown reason",
			in: func(f fixture) exchange.Input {
				in := f.input(2, 2, "100.00")
				in.Reason = "WHIM"
				return in
			},
			code: apperror.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			before := f.h.Rows(t)

			_, err := f.h.Exchanges.Exchange(context.Background(), owner, tt.in(f))
			require.Error(t, err)
			assert.True(t, apperror.IsCode(err, tt.code), "got %v", err)

			original, err := f.h.Sales.Get(context.Background(), owner, f.original.ID)
			require.NoError(t, err)
			assert.Equal(t, sales.StatusActive, original.Status)
			assert.Equal(t, 8, f.h.StockOf(t, f.returned))
			assert.Equal(t, 5, f.h.StockOf(t, f.newItem))
			assert.Equal(t, before, f.h.Rows(t))
		})
	}
}

// staleReads answers plain reads of the listed sales with an old snapshot,
// the view a concurrent transaction has before another one commits.
type staleReads struct {
	sales.Repository
	snapshot map[id.ID]*sales.Sale
}

func (r *staleReads) GetByID(ctx context.Context, ownerID string, saleID id.ID) (*sales.Sale, error) {
	if sale, ok := r.snapshot[saleID]; ok {
		return sale, nil
	}
	return r.Repository.GetByID(ctx, ownerID, saleID)
}

func TestExchange_DecidesOnLockedSale(t *testing.T) {
	stale := &staleReads{snapshot: map[id.ID]*sales.Sale{}}
	f := setup(t, testkit.WithSaleRepo(func(r sales.Repository) sales.Repository {
		stale.Repository = r
		return stale
	}))
	ctx := context.Background()
	stale.snapshot[f.original.ID] = f.original

	_, err := f.h.Sales.Cancel(ctx, owner, f.original.ID, sales.CancelInput{
		Items:               []sales.ItemCancellation{{ItemID: f.original.Items[0].ID, Quantity: 1}},
		Reason:              sales.ReasonDefect,
		GenerateRefund:      true,
		RefundAmount:        money("100.00"),
		RefundPaymentMethod: ledger.PaymentCash,
	})
	require.NoError(t, err)
	before := f.h.Rows(t)

	_, err = f.h.Exchanges.Exchange(ctx, owner, f.input(2, 2, "100.00"))
	assert.True(t, apperror.IsCode(err, sales.CodeCancelQuantityExceeded), "got %v", err)

	current, err := f.h.Sales.GetForUpdate(ctx, owner, f.original.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.StatusPartiallyCancelled, current.Status)
	assert.Equal(t, 9, f.h.StockOf(t, f.returned))
	assert.Equal(t, 5, f.h.StockOf(t, f.newItem))
	assert.Equal(t, before, f.h.Rows(t))

	res, err := f.h.Exchanges.Exchange(ctx, owner, f.input(1, 1, "100.00"))
	require.NoError(t, err)
	testkit.AssertMoney(t, "100.00", res.ReturnedAmount)
}

func TestExchange_CancelledSaleRejected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.h.Sales.Cancel(ctx, owner, f.original.ID, sales.CancelInput{CancelEntireSale: true, Reason: sales.ReasonOther})
	require.NoError(t, err)

	_, err = f.h.Exchanges.Exchange(ctx, owner, f.input(2, 2, "100.00"))
	assert.True(t, apperror.IsCode(err, sales.CodeSaleAlreadyCancelled), "got %v", err)
}

// failingInventory fails the decrement of one variant after the returned
// units were already restocked.
type failingInventory struct {
	sales.Inventory
	variant *id.ID
}

var errWarehouseOffline = errors.New("warehouse offline")

func (f failingInventory) AdjustStock(ctx context.Context, ownerID string, variantID id.ID, delta int) error {
	if variantID == *f.variant && delta < 0 {
		return errWarehouseOffline
	}
	return f.Inventory.AdjustStock(ctx, ownerID, variantID, delta)
}

func TestExchange_FailureRollsBackEverything(t *testing.T) {
	var target id.ID
	f := setup(t, testkit.WithInventory(func(inv sales.Inventory) sales.Inventory {
		return failingInventory{Inventory: inv, variant: &target}
	}))
	// The original sale is already in place; arm the fault for the replacement.
	target = f.newItem

	ctx := context.Background()
	before := f.h.Rows(t)
	cash := ledger.PaymentCash
	in := f.input(2, 1, "150.00")
	in.RefundPaymentMethod = &cash

	_, err := f.h.Exchanges.Exchange(ctx, owner, in)
	require.ErrorIs(t, err, errWarehouseOffline)

	original, err := f.h.Sales.Get(ctx, owner, f.original.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.StatusActive, original.Status)
	assert.False(t, original.HasRefund)
	assert.Equal(t, 8, f.h.StockOf(t, f.returned))
	assert.Equal(t, 5, f.h.StockOf(t, f.newItem))
	assert.Equal(t, before, f.h.Rows(t))

	list, err := f.h.Exchanges.ListBySale(ctx, owner, f.original.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDelete_SaleLinkedToExchangeRejected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.h.Exchanges.Exchange(ctx, owner, f.input(2, 2, "100.00"))
	require.NoError(t, err)

	for _, saleID := range []id.ID{f.original.ID, res.NewSaleID} {
		err := f.h.Sales.Delete(ctx, owner, saleID)
		assert.True(t, apperror.IsCode(err, sales.CodeSaleLinkedToExchange), "got %v", err)
	}

	list, err := f.h.Exchanges.ListBySale(ctx, owner, f.original.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
