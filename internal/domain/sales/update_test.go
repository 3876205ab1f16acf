package sales_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/events"
	"helmetledger/internal/core/id"
	"helmetledger/internal/domain/audit"
	"helmetledger/internal/domain/exchange"
	"helmetledger/internal/domain/ledger"
	"helmetledger/internal/domain/sales"
	"helmetledger/internal/testkit"
)

func TestUpdate_ReplacesLinesAndRows(t *testing.T) {
	h := testkit.New()
	ctx := context.Background()
	helmet, visor := id.New(), id.New()
	h.Stock(t, helmet, 10, "60.00")
	h.Stock(t, visor, 4, "20.00")
	sale := createSale(t, h, helmet, 2, "100.00", sales.PaymentInput{Method: ledger.PaymentPix, Amount: money("200.00")})

	updated, err := h.Sales.Update(ctx, owner, sale.ID, sales.UpdateInput{
		Date: testkit.Date(2025, 2, 20),
		Items: []sales.ItemInput{
			{VariantID: helmet, Quantity: 3, UnitPrice: money("90.00")},
			{VariantID: visor, Quantity: 1, UnitPrice: money("50.00")},
		},
		Payments: []sales.PaymentInput{{Method: ledger.PaymentCash, Amount: money("320.00")}},
	})
	require.NoError(t, err)

	assert.Equal(t, sale.Number, updated.Number)
	assert.Equal(t, testkit.Date(2025, 2, 20), updated.Date)
	testkit.AssertMoney(t, "320.00", updated.TotalAmount)
	testkit.AssertMoney(t, "120.00", updated.TotalProfit)
	assert.Equal(t, 7, h.StockOf(t, helmet))
	assert.Equal(t, 3, h.StockOf(t, visor))

	stored, err := h.Sales.Get(ctx, owner, sale.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	require.Len(t, stored.Payments, 1)
	assert.Equal(t, ledger.PaymentCash, stored.Payments[0].PaymentMethod)

	rows, err := h.Ledger.FindByReference(ctx, owner, ledger.SaleRef(sale.ID))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, testkit.Date(2025, 2, 20), r.Date)
	}
	testkit.AssertMoney(t, "320.00", h.Sum(t, ledger.WalletFilter(ledger.WalletCash)))
	testkit.AssertMoney(t, "0", h.Sum(t, ledger.WalletFilter(ledger.WalletBank)))
	testkit.AssertMoney(t, "120.00", h.Sum(t, ledger.ProfitFilter()))

	entries := h.Store.Audit().Entries(ctx, audit.EntitySale, sale.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionUpdate, entries[0].Action)

	evts := h.Store.Outbox().Events(ctx)
	require.Len(t, evts, 2)
	assert.Equal(t, events.SaleUpdated, evts[1].EventType)
	assert.Equal(t, "2025-02", evts[1].Payload.Month())
}

func TestUpdate_LaterDateReportsOldMonth(t *testing.T) {
	h := testkit.New()
	ctx := context.Background()
	variant := id.New()
	h.Stock(t, variant, 5, "10.00")
	sale := createSale(t, h, variant, 1, "30.00", sales.PaymentInput{Method: ledger.PaymentCash, Amount: money("30.00")})

	_, err := h.Sales.Update(ctx, owner, sale.ID, sales.UpdateInput{
		Date:     testkit.Date(2025, 5, 2),
		Items:    []sales.ItemInput{{VariantID: variant, Quantity: 1, UnitPrice: money("30.00")}},
		Payments: []sales.PaymentInput{{Method: ledger.PaymentCash, Amount: money("30.00")}},
	})
	require.NoError(t, err)

	evts := h.Store.Outbox().Events(ctx)
	require.Len(t, evts, 2)
	assert.Equal(t, "2025-03", evts[1].Payload.Month())
	assert.Equal(t, 4, h.StockOf(t, variant))
}

func TestUpdate_CountsReturnedUnitsAsAvailable(t *testing.T) {
	h := testkit.New()
	variant := id.New()
	h.Stock(t, variant, 3, "10.00")
	sale := createSale(t, h, variant, 3, "20.00", sales.PaymentInput{Method: ledger.PaymentCash, Amount: money("60.00")})
	require.Equal(t, 0, h.StockOf(t, variant))

	updated, err := h.Sales.Update(context.Background(), owner, sale.ID, sales.UpdateInput{
		Date:     testkit.Date(2025, 3, 10),
		Items:    []sales.ItemInput{{VariantID: variant, Quantity: 2, UnitPrice: money("25.00")}},
		Payments: []sales.PaymentInput{{Method: ledger.PaymentCash, Amount: money("50.00")}},
	})
	require.NoError(t, err)
	testkit.AssertMoney(t, "50.00", updated.TotalAmount)
	assert.Equal(t, 1, h.StockOf(t, variant))
}

func TestUpdate_FailureRollsBack(t *testing.T) {
	tests := []struct {
		name string
		in   func(variant id.ID) sales.UpdateInput
		code string
	}{
		{
			name: "payments do not match the new total",
			in: func(variant id.ID) sales.UpdateInput {
				return sales.UpdateInput{
					Date:     testkit.Date(2025, 3, 10),
					Items:    []sales.ItemInput{{VariantID: variant, Quantity: 1, UnitPrice: money("50.00")}},
					Payments: []sales.PaymentInput{{Method: ledger.PaymentCash, Amount: money("100.00")}},
				}
			},
			code: apperror.CodePaymentMismatch,
		},
		{
			name: "more units than stock plus the returned ones",
			in: func(variant id.ID) sales.UpdateInput {
				return sales.UpdateInput{
					Date:     testkit.Date(2025, 3, 10),
					Items:    []sales.ItemInput{{VariantID: variant, Quantity: 6, UnitPrice: money("50.00")}},
					Payments: []sales.PaymentInput{{Method: ledger.PaymentCash, Amount: money("300.00")}},
				}
			},
			code: apperror.CodeInsufficientStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testkit.New()
			ctx := context.Background()
			variant := id.New()
			h.Stock(t, variant, 5, "10.00")
			sale := createSale(t, h, variant, 2, "50.00", sales.PaymentInput{Method: ledger.PaymentCash, Amount: money("100.00")})
			before := h.Rows(t)

			_, err := h.Sales.Update(ctx, owner, sale.ID, tt.in(variant))
			require.Error(t, err)
			assert.True(t, apperror.IsCode(err, tt.code), err)

			assert.Equal(t, 3, h.StockOf(t, variant))
			assert.Equal(t, before, h.Rows(t))
			stored, err := h.Sales.Get(ctx, owner, sale.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, stored.Items[0].Quantity)
			assert.Empty(t, h.Store.Audit().Entries(ctx, audit.EntitySale, sale.ID))
		})
	}
}

func TestUpdate_RequiresDate(t *testing.T) {
	h := testkit.New()
	variant := id.New()
	h.Stock(t, variant, 5, "10.00")
	sale := createSale(t, h, variant, 1, "30.00", sales.PaymentInput{Method: ledger.PaymentCash, Amount: money("30.00")})

	_, err := h.Sales.Update(context.Background(), owner, sale.ID, sales.UpdateInput{
		Items:    []sales.ItemInput{{VariantID: variant, Quantity: 1, UnitPrice: money("30.00")}},
		Payments: []sales.PaymentInput{{Method: ledger.PaymentCash, Amount: money("30.00")}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestUpdate_RejectsCancelledSales(t *testing.T) {
	h := testkit.New()
	ctx := context.Background()
	variant := id.New()
	h.Stock(t, variant, 5, "10.00")
	sale := createSale(t, h, variant, 2, "30.00", sales.PaymentInput{Method: ledger.PaymentCash, Amount: money("60.00")})

	_, err := h.Sales.Cancel(ctx, owner, sale.ID, sales.CancelInput{
		Items:               []sales.ItemCancellation{{ItemID: sale.Items[0].ID, Quantity: 1}},
		Reason:              sales.ReasonCustomerWithdrawal,
		GenerateRefund:      true,
		RefundAmount:        money("30.00"),
		RefundPaymentMethod: ledger.PaymentCash,
	})
	require.NoError(t, err)
	rows := h.Rows(t)

	_, err = h.Sales.Update(ctx, owner, sale.ID, sales.UpdateInput{
		Date:     testkit.Date(2025, 3, 10),
		Items:    []sales.ItemInput{{VariantID: variant, Quantity: 1, UnitPrice: money("30.00")}},
		Payments: []sales.PaymentInput{{Method: ledger.PaymentCash, Amount: money("30.00")}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, sales.CodeSaleNotEditable))
	assert.Equal(t, 4, h.StockOf(t, variant))
	assert.Equal(t, rows, h.Rows(t))
}

func TestUpdate_RejectsExchangeSales(t *testing.T) {
	h := testkit.New()
	ctx := context.Background()
	returned, newItem := id.New(), id.New()
	h.Stock(t, returned, 10, "60.00")
	h.Stock(t, newItem, 5, "70.00")
	sale := createSale(t, h, returned, 2, "100.00", sales.PaymentInput{Method: ledger.PaymentPix, Amount: money("200.00")})

	res, err := h.Exchanges.Exchange(ctx, owner, exchange.Input{
		OriginalSaleID: sale.ID,
		ItemsToReturn:  []exchange.ReturnItem{{SaleItemID: sale.Items[0].ID, Quantity: 2}},
		NewItems:       []sales.ItemInput{{VariantID: newItem, Quantity: 2, UnitPrice: money("100.00")}},
		Reason:         exchange.ReasonSize,
		Date:           testkit.Date(2025, 3, 20),
	})
	require.NoError(t, err)

	_, err = h.Sales.Update(ctx, owner, res.NewSaleID, sales.UpdateInput{
		Date:     testkit.Date(2025, 3, 20),
		Items:    []sales.ItemInput{{VariantID: newItem, Quantity: 1, UnitPrice: money("200.00")}},
		Payments: []sales.PaymentInput{{Method: ledger.PaymentCash, Amount: money("200.00")}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, sales.CodeSaleLinkedToExchange))
	assert.Equal(t, 3, h.StockOf(t, newItem))
}

func TestUpdate_UnknownSale(t *testing.T) {
	h := testkit.New()
	variant := id.New()
	h.Stock(t, variant, 5, "10.00")

	_, err := h.Sales.Update(context.Background(), owner, id.New(), sales.UpdateInput{
		Date:     testkit.Date(2025, 3, 10),
		Items:    []sales.ItemInput{{VariantID: variant, Quantity: 1, UnitPrice: money("30.00")}},
		Payments: []sales.PaymentInput{{Method: ledger.PaymentCash, Amount: money("30.00")}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
	assert.Equal(t, 5, h.StockOf(t, variant))
}
