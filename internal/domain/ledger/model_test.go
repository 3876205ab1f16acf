package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/id"
	"helmetledger/internal/core/types"
)

var day = time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)

func TestNormalize_SignFollowsDirection(t *testing.T) {
	tests := []struct {
		dir    Direction
		amount string
		want   string
	}{
		{Income, "10.50", "10.50"},
		{Income, "-10.50", "10.50"},
		{Expense, "10.50", "-10.50"},
		{Expense, "-10.50", "-10.50"},
	}
	for _, tt := range tests {
		row := New("o", day, tt.dir, DetailOtherExpense, types.MustMoney(tt.amount), PaymentCash, "MANUAL#1")
		row.Normalize()
		assert.True(t, types.MustMoney(tt.want).Equal(row.Amount), "%s %s -> %s", tt.dir, tt.amount, row.Amount)
		if row.Direction == Expense {
			assert.True(t, row.Amount.IsNegative())
		} else {
			assert.True(t, row.Amount.IsPositive())
		}
	}
}

func TestNormalize_NoWalletNeverAffectsCash(t *testing.T) {
	row := New("o", day, Income, DetailSale, types.MustMoney("5"), PaymentPix, "SALE#1").WithoutWallet()
	require.True(t, row.AffectsCash)

	row.Normalize()
	assert.False(t, row.AffectsCash)
	assert.True(t, row.AffectsProfit)
}

func TestNew_DerivesWalletAndFlags(t *testing.T) {
	tests := []struct {
		method PaymentMethod
		wallet Wallet
	}{
		{PaymentCash, WalletCash},
		{PaymentPix, WalletBank},
		{PaymentCard, WalletBank},
	}
	for _, tt := range tests {
		row := New("o", day, Expense, DetailRefund, types.MustMoney("1"), tt.method, "x")
		require.NotNil(t, row.WalletDestination)
		assert.Equal(t, tt.wallet, *row.WalletDestination)
		assert.False(t, row.AffectsProfit)
		assert.True(t, row.AffectsCash)
	}

	cogs := New("o", day, Expense, DetailCOGS, types.MustMoney("1"), "", "x")
	assert.Nil(t, cogs.WalletDestination)
}

func TestDetailFlags(t *testing.T) {
	want := map[Detail][2]bool{
		DetailSale:                {true, true},
		DetailOwnerInvestment:     {false, true},
		DetailExtraIncome:         {true, true},
		DetailCOGSReversal:        {true, false},
		DetailInventoryPurchase:   {false, true},
		DetailCOGS:                {true, false},
		DetailSaleRefund:          {true, true},
		DetailRefund:              {false, true},
		DetailFixedExpense:        {true, true},
		DetailVariableExpense:     {true, true},
		DetailProLabore:           {true, true},
		DetailProfitDistribution:  {false, true},
		DetailInvestment:          {false, true},
		DetailTax:                 {true, true},
		DetailPersonalExpense:     {true, true},
		DetailOtherExpense:        {true, true},
		DetailInternalTransferOut: {false, true},
		DetailInternalTransferIn:  {false, true},
	}
	require.Len(t, Details(), len(want))
	for d, flags := range want {
		got := d.Flags()
		assert.Equal(t, flags[0], got.AffectsProfit, "%s affectsProfit", d)
		assert.Equal(t, flags[1], got.AffectsCash, "%s affectsCash", d)
	}

	assert.True(t, DetailSale.IsProtected())
	assert.True(t, DetailCOGS.IsProtected())
	assert.False(t, DetailRefund.IsProtected())
	assert.False(t, Detail("NOPE").Valid())
}

func TestIsManual(t *testing.T) {
	row := func(detail Detail, ref string) *Transaction {
		return New("o", day, Expense, detail, types.MustMoney("1"), PaymentCash, ref)
	}
	assert.True(t, row(DetailTax, RefManual+"1").IsManual())
	assert.False(t, row(DetailCOGS, RefManual+"1").IsManual())
	assert.False(t, row(DetailRefund, SaleRefundRef(id.New())).IsManual())
	assert.False(t, row(DetailInternalTransferOut, ReinvestmentRef(id.New())).IsManual())
	assert.False(t, row(DetailInventoryPurchase, StockReceiptRef(id.New())).IsManual())
	assert.False(t, row(DetailOtherExpense, "").IsManual())
}

func TestValidate(t *testing.T) {
	ok := func() *Transaction {
		return New("o", day, Income, DetailExtraIncome, types.MustMoney("1"), PaymentCash, "MANUAL#1")
	}
	tests := []struct {
		name   string
		mutate func(*Transaction)
	}{
		{"zero amount", func(r *Transaction) { r.Amount = types.Zero() }},
		{"no owner", func(r *Transaction) { r.OwnerID = "" }},
		{"bad detail", func(r *Transaction) { r.Detail = "X" }},
		{"bad direction", func(r *Transaction) { r.Direction = "SIDEWAYS" }},
		{"no date", func(r *Transaction) { r.Date = time.Time{} }},
		{"sub-reference without reference", func(r *Transaction) { r.Reference = ""; r.WithSubID("a") }},
	}

	row := ok()
	row.Normalize()
	require.NoError(t, row.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := ok()
			tt.mutate(row)
			row.Normalize()
			err := row.Validate()
			require.Error(t, err)
			assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
		})
	}
}

func TestFilterMatches(t *testing.T) {
	bank := New("o", day, Income, DetailSale, types.MustMoney("10"), PaymentPix, "SALE#1")
	cogs := New("o", day, Expense, DetailCOGS, types.MustMoney("4"), "", "SALE#1")
	tax := New("o", day.AddDate(0, 1, 0), Expense, DetailTax, types.MustMoney("1"), PaymentCash, "MANUAL#1")
	for _, r := range []*Transaction{bank, cogs, tax} {
		r.Normalize()
	}

	april := types.Month{Year: 2025, Month: time.April}
	assert.True(t, ProfitFilter().InMonth(april).Matches(bank))
	assert.True(t, ProfitFilter().InMonth(april).Matches(cogs))
	assert.False(t, ProfitFilter().InMonth(april).Matches(tax))
	assert.False(t, CashFilter().Matches(cogs))
	assert.True(t, WalletFilter(WalletBank).Matches(bank))
	assert.False(t, WalletFilter(WalletCash).Matches(bank))
	assert.False(t, OperationalExpenseFilter().Matches(cogs))
	assert.True(t, OperationalExpenseFilter().Matches(tax))
	assert.False(t, Filter{}.Until(day).Matches(bank))
}
