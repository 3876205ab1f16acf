package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/events"
	"helmetledger/internal/core/id"
	"helmetledger/internal/domain"
	"helmetledger/internal/domain/inventory"
	"helmetledger/internal/domain/ledger"
	"helmetledger/internal/testkit"
)

func TestReceive_BooksPurchaseAndAveragesCost(t *testing.T) {
	h := testkit.New()
	ctx := context.Background()
	variant := id.New()
	h.Stock(t, variant, 10, "20")

	receipt, err := h.Inventory.Receive(ctx, testkit.Owner, inventory.ReceiveInput{
		VariantID:     variant,
		Quantity:      10,
		UnitCost:      testkit.Money("30"),
		PaymentMethod: ledger.PaymentPix,
		Date:          testkit.Date(2025, time.June, 2),
	})
	require.NoError(t, err)

	assert.Equal(t, 20, receipt.Item.Quantity)
	testkit.AssertMoney(t, "25", receipt.Item.AverageCost)
	testkit.AssertMoney(t, "300", receipt.TotalCost)
	require.NotNil(t, receipt.TransactionID)

	row, err := h.Ledger.Get(ctx, testkit.Owner, *receipt.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, ledger.DetailInventoryPurchase, row.Detail)
	testkit.AssertMoney(t, "-300", row.Amount)
	assert.False(t, row.AffectsProfit)
	assert.True(t, row.AffectsCash)

	testkit.AssertMoney(t, "0", h.Sum(t, ledger.ProfitFilter()))
	testkit.AssertMoney(t, "-300", h.Sum(t, ledger.WalletFilter(ledger.WalletBank)))
	assert.Equal(t, []string{events.StockReceived}, h.Store.Outbox().Types(ctx))
}

func TestReceive_NewVariantAtZeroCost(t *testing.T) {
	h := testkit.New()
	ctx := context.Background()
	variant := id.New()

	receipt, err := h.Inventory.Receive(ctx, testkit.Owner, inventory.ReceiveInput{
		VariantID:     variant,
		Quantity:      3,
		UnitCost:      testkit.Money("0"),
		PaymentMethod: ledger.PaymentCash,
	})
	require.NoError(t, err)

	assert.Nil(t, receipt.TransactionID)
	assert.Equal(t, 3, h.StockOf(t, variant))
	assert.Empty(t, h.Rows(t))
}

func TestReceive_Validation(t *testing.T) {
	variant := id.New()
	tests := []struct {
		name string
		in   inventory.ReceiveInput
	}{
		{"no variant", inventory.ReceiveInput{Quantity: 1, UnitCost: testkit.Money("1"), PaymentMethod: ledger.PaymentCash}},
		{"zero quantity", inventory.ReceiveInput{VariantID: variant, UnitCost: testkit.Money("1"), PaymentMethod: ledger.PaymentCash}},
		{"negative cost", inventory.ReceiveInput{VariantID: variant, Quantity: 1, UnitCost: testkit.Money("-1"), PaymentMethod: ledger.PaymentCash}},
		{"no method", inventory.ReceiveInput{VariantID: variant, Quantity: 1, UnitCost: testkit.Money("1")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testkit.New()
			_, err := h.Inventory.Receive(context.Background(), testkit.Owner, tt.in)
			assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "got %v", err)
		})
	}
}

func TestAdjustStock(t *testing.T) {
	h := testkit.New()
	ctx := context.Background()
	variant := id.New()
	h.Stock(t, variant, 2, "10")

	require.NoError(t, h.Inventory.AdjustStock(ctx, testkit.Owner, variant, -2))
	assert.Equal(t, 0, h.StockOf(t, variant))

	err := h.Inventory.AdjustStock(ctx, testkit.Owner, variant, -1)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, 1, appErr.Details["requested"])
	assert.Equal(t, 0, appErr.Details["available"])

	require.NoError(t, h.Inventory.AdjustStock(ctx, testkit.Owner, variant, 5))
	assert.Equal(t, 5, h.StockOf(t, variant))

	cost, err := h.Inventory.GetAverageCost(ctx, testkit.Owner, variant)
	require.NoError(t, err)
	testkit.AssertMoney(t, "10", cost)

	err = h.Inventory.AdjustStock(ctx, testkit.Owner, id.New(), 1)
	assert.True(t, apperror.IsNotFound(err))
}

func TestList(t *testing.T) {
	h := testkit.New()
	for range 3 {
		h.Stock(t, id.New(), 1, "1")
	}

	page, err := h.Inventory.List(context.Background(), testkit.Owner, domain.ListFilter{Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.TotalCount)
	assert.Len(t, page.Items, 2)
}
