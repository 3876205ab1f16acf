package reinvestment_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/events"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain/ledger"
	"helmetledger/internal/domain/reinvestment"
	"helmetledger/internal/testkit"
)

var (
	january    = types.Month{Year: 2025, Month: time.January}
	executedAt = time.Date(2025, time.February, 3, 9, 30, 0, 0, time.UTC)
)

type fixture struct {
	h   *testkit.Harness
	svc *reinvestment.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	h := testkit.New()
	svc := reinvestment.NewService(h.Ledger, h.Wallets, h.Store, h.Store.Outbox(), h.Invalidations,
		reinvestment.WithClock(func() time.Time { return executedAt }))
	return &fixture{h: h, svc: svc}
}

func (f *fixture) book(t *testing.T, dir ledger.Direction, detail ledger.Detail, method ledger.PaymentMethod, amount string) {
	t.Helper()
	_, err := f.h.Ledger.CreateManual(context.Background(), testkit.Owner, ledger.ManualInput{
		Date:          testkit.Date(2025, time.January, 15),
		Direction:     dir,
		Detail:        detail,
		Amount:        testkit.Money(amount),
		PaymentMethod: method,
	})
	require.NoError(t, err)
}

// january profit 1000, BANK 100, CASH 500
func (f *fixture) scenarioE(t *testing.T) {
	t.Helper()
	f.book(t, ledger.Income, ledger.DetailExtraIncome, ledger.PaymentCash, "1000")
	f.book(t, ledger.Expense, ledger.DetailProfitDistribution, ledger.PaymentCash, "500")
	f.book(t, ledger.Income, ledger.DetailOwnerInvestment, ledger.PaymentPix, "100")
}

func legsBySub(rows []ledger.Transaction) map[string]ledger.Transaction {
	out := make(map[string]ledger.Transaction, len(rows))
	for _, r := range rows {
		out[r.SubID()] = r
	}
	return out
}

func TestExecute_SplitsAcrossWallets(t *testing.T) {
	f := newFixture(t)
	f.scenarioE(t)
	ctx := context.Background()

	res, err := f.svc.Execute(ctx, testkit.Owner, reinvestment.Request{
		Month: january,
		Type:  reinvestment.TypePercentage,
		Value: testkit.Money("30"),
	})
	require.NoError(t, err)

	testkit.AssertMoney(t, "300", res.Amount)
	testkit.AssertMoney(t, "1000", res.AvailableProfit)
	testkit.AssertMoney(t, "700", res.RemainingProfit)
	testkit.AssertMoney(t, "30", res.PercentageOfProfit)
	require.Len(t, res.Transactions, 4)

	legs := legsBySub(res.Transactions)
	want := map[string]struct {
		amount string
		wallet ledger.Wallet
		profit bool
	}{
		reinvestment.SubBankWithdrawal: {"-100", ledger.WalletBank, true},
		reinvestment.SubCashWithdrawal: {"-200", ledger.WalletCash, true},
		reinvestment.SubBankDeposit:    {"300", ledger.WalletBank, false},
		reinvestment.SubCashTransfer:   {"200", ledger.WalletBank, false},
	}
	for sub, w := range want {
		leg, ok := legs[sub]
		require.True(t, ok, sub)
		testkit.AssertMoney(t, w.amount, leg.Amount, sub)
		assert.Equal(t, w.wallet, *leg.WalletDestination, sub)
		assert.Equal(t, w.profit, leg.AffectsProfit, sub)
		assert.True(t, leg.AffectsCash, sub)
		assert.Equal(t, ledger.DetailOwnerInvestment, leg.Detail, sub)
		assert.Equal(t, ledger.ReinvestmentRef(res.ID), leg.Reference, sub)
		assert.Equal(t, executedAt, leg.Date, sub)
	}

	testkit.AssertMoney(t, "1000", f.h.Sum(t, ledger.ProfitFilter().InMonth(january)))
	testkit.AssertMoney(t, "-300", f.h.Sum(t, ledger.ProfitFilter().InMonth(types.MonthOf(executedAt))))
	testkit.AssertMoney(t, "500", f.h.Sum(t, ledger.WalletFilter(ledger.WalletBank)))
	testkit.AssertMoney(t, "300", f.h.Sum(t, ledger.WalletFilter(ledger.WalletCash)))

	assert.Contains(t, f.h.Store.Outbox().Types(ctx), events.ReinvestmentExecuted)
}

func TestExecute_BankCoversEverything(t *testing.T) {
	f := newFixture(t)
	f.book(t, ledger.Income, ledger.DetailExtraIncome, ledger.PaymentPix, "400")

	res, err := f.svc.Execute(context.Background(), testkit.Owner, reinvestment.Request{
		Month: january,
		Type:  reinvestment.TypeFixed,
		Value: testkit.Money("150"),
	})
	require.NoError(t, err)

	require.Len(t, res.Transactions, 2)
	legs := legsBySub(res.Transactions)
	testkit.AssertMoney(t, "-150", legs[reinvestment.SubBankWithdrawal].Amount)
	testkit.AssertMoney(t, "150", legs[reinvestment.SubBankDeposit].Amount)
	testkit.AssertMoney(t, "400", f.h.Sum(t, ledger.WalletFilter(ledger.WalletBank)))
}

func TestExecute_EmptyBankSkipsBankWithdrawal(t *testing.T) {
	f := newFixture(t)
	f.book(t, ledger.Income, ledger.DetailExtraIncome, ledger.PaymentCash, "200")

	res, err := f.svc.Execute(context.Background(), testkit.Owner, reinvestment.Request{
		Month: january,
		Type:  reinvestment.TypeFixed,
		Value: testkit.Money("80"),
	})
	require.NoError(t, err)

	require.Len(t, res.Transactions, 3)
	legs := legsBySub(res.Transactions)
	assert.NotContains(t, legs, reinvestment.SubBankWithdrawal)
	testkit.AssertMoney(t, "-80", legs[reinvestment.SubCashWithdrawal].Amount)
}

func TestExecute_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fixture, *testing.T)
		req   reinvestment.Request
		code  string
	}{
		{
			name:  "no profit",
			setup: func(*fixture, *testing.T) {},
			req:   reinvestment.Request{Month: january, Type: reinvestment.TypeFixed, Value: testkit.Money("1")},
			code:  apperror.CodeInsufficientProfit,
		},
		{
			name:  "loss month",
			setup: func(f *fixture, t *testing.T) { f.book(t, ledger.Expense, ledger.DetailTax, ledger.PaymentCash, "10") },
			req:   reinvestment.Request{Month: january, Type: reinvestment.TypeFixed, Value: testkit.Money("1")},
			code:  apperror.CodeInsufficientProfit,
		},
		{
			name:  "above profit",
			setup: (*fixture).scenarioE,
			req:   reinvestment.Request{Month: january, Type: reinvestment.TypeFixed, Value: testkit.Money("1000.01")},
			code:  reinvestment.CodeInvalidReinvestment,
		},
		{
			name:  "rounds to zero",
			setup: (*fixture).scenarioE,
			req:   reinvestment.Request{Month: january, Type: reinvestment.TypeFixed, Value: testkit.Money("0.004")},
			code:  reinvestment.CodeInvalidReinvestment,
		},
		{
			name:  "percentage above 100",
			setup: (*fixture).scenarioE,
			req:   reinvestment.Request{Month: january, Type: reinvestment.TypePercentage, Value: testkit.Money("100.5")},
			code:  reinvestment.CodeInvalidReinvestment,
		},
		{
			name:  "wallets cannot cover",
			setup: (*fixture).scenarioE,
			req:   reinvestment.Request{Month: january, Type: reinvestment.TypeFixed, Value: testkit.Money("700")},
			code:  apperror.CodeInsufficientProfit,
		},
		{
			name:  "unknown type",
			setup: (*fixture).scenarioE,
			req:   reinvestment.Request{Month: january, Type: "ALL", Value: testkit.Money("1")},
			code:  apperror.CodeValidation,
		},
		{
			name:  "missing month",
			setup: (*fixture).scenarioE,
			req:   reinvestment.Request{Type: reinvestment.TypeFixed, Value: testkit.Money("1")},
			code:  apperror.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f, t)
			before := len(f.h.Rows(t))

			_, err := f.svc.Execute(context.Background(), testkit.Owner, tt.req)
			require.Error(t, err)
			assert.True(t, apperror.IsCode(err, tt.code), "got %v", err)
			assert.Len(t, f.h.Rows(t), before)
		})
	}
}
