package reports_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/cache"
	"helmetledger/internal/core/id"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain/ledger"
	"helmetledger/internal/domain/reports"
	"helmetledger/internal/domain/sales"
	"helmetledger/internal/testkit"
)

var march = types.Month{Year: 2025, Month: time.March}

// memoryCache stores JSON like the redis store does.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	failGet bool
	hits    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func cacheKey(k cache.Key) string {
	if k.Month == nil {
		return k.OwnerID + "/" + k.Report
	}
	return fmt.Sprintf("%s/%s/%s", k.OwnerID, k.Report, k.Month)
}

func (c *memoryCache) Get(_ context.Context, k cache.Key, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return false, errors.New("cache down")
	}
	raw, ok := c.entries[cacheKey(k)]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(raw, dst)
}

func (c *memoryCache) Set(_ context.Context, k cache.Key, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(k)] = raw
	return nil
}

func seed(t *testing.T, h *testkit.Harness) {
	t.Helper()
	ctx := context.Background()

	_, err := h.Ledger.CreateManual(ctx, testkit.Owner, ledger.ManualInput{
		Date:          testkit.Date(2025, time.February, 1),
		Direction:     ledger.Income,
		Detail:        ledger.DetailOwnerInvestment,
		Amount:        testkit.Money("500"),
		PaymentMethod: ledger.PaymentPix,
	})
	require.NoError(t, err)

	variant := id.New()
	h.Stock(t, variant, 5, "60")
	_, err = h.Sales.Create(ctx, testkit.Owner, sales.CreateInput{
		Date:     testkit.Date(2025, time.March, 10),
		Items:    []sales.ItemInput{{VariantID: variant, Quantity: 2, UnitPrice: testkit.Money("100")}},
		Payments: []sales.PaymentInput{{Method: ledger.PaymentCash, Amount: testkit.Money("200")}},
	})
	require.NoError(t, err)

	_, err = h.Ledger.CreateManual(ctx, testkit.Owner, ledger.ManualInput{
		Date:          testkit.Date(2025, time.March, 20),
		Direction:     ledger.Expense,
		Detail:        ledger.DetailFixedExpense,
		Amount:        testkit.Money("30"),
		PaymentMethod: ledger.PaymentPix,
	})
	require.NoError(t, err)
}

func TestProfitSummary(t *testing.T) {
	h := testkit.New()
	seed(t, h)

	s, err := h.Reports.ProfitSummary(context.Background(), testkit.Owner)
	require.NoError(t, err)

	testkit.AssertMoney(t, "470", s.TotalBank)
	testkit.AssertMoney(t, "200", s.TotalCash)
	testkit.AssertMoney(t, "670", s.TotalBalance)
	testkit.AssertMoney(t, "80", s.GrossProfit)
	testkit.AssertMoney(t, "50", s.NetProfit)
	testkit.AssertMoney(t, "-30", s.OperationalExpenses)
}

func TestCashFlowSummary(t *testing.T) {
	h := testkit.New()
	seed(t, h)

	s, err := h.Reports.CashFlowSummary(context.Background(), testkit.Owner)
	require.NoError(t, err)

	testkit.AssertMoney(t, "700", s.TotalIncome)
	testkit.AssertMoney(t, "30", s.TotalExpense)
	testkit.AssertMoney(t, "670", s.TotalCashFlow)
	testkit.AssertMoney(t, "670", s.TotalBalance)
	require.Len(t, s.MonthlyBreakdown, 2)
	testkit.AssertMoney(t, "500", s.MonthlyBreakdown[0].TotalBalance)
	testkit.AssertMoney(t, "670", s.MonthlyBreakdown[1].TotalBalance)
}

func TestMonthlyReports(t *testing.T) {
	h := testkit.New()
	seed(t, h)
	ctx := context.Background()

	b, err := h.Reports.MonthlyCashFlow(ctx, testkit.Owner, march)
	require.NoError(t, err)
	testkit.AssertMoney(t, "200", b.Income)
	testkit.AssertMoney(t, "30", b.Expense)
	testkit.AssertMoney(t, "470", b.BankBalance)
	assert.Len(t, b.Transactions, 3)

	p, err := h.Reports.MonthlyProfit(ctx, testkit.Owner, march)
	require.NoError(t, err)
	testkit.AssertMoney(t, "50", p.NetProfit)
	testkit.AssertMoney(t, "200", p.Revenue)
	testkit.AssertMoney(t, "120", p.COGS)

	_, err = h.Reports.MonthlyProfit(ctx, testkit.Owner, types.Month{})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestAvailableMonths(t *testing.T) {
	h := testkit.New()
	ctx := context.Background()

	months, err := h.Reports.AvailableMonths(ctx, testkit.Owner)
	require.NoError(t, err)
	assert.NotNil(t, months)
	assert.Empty(t, months)

	seed(t, h)
	months, err = h.Reports.AvailableMonths(ctx, testkit.Owner)
	require.NoError(t, err)
	require.Len(t, months, 2)
	assert.Equal(t, march, months[0].Month)
	assert.EqualValues(t, 3, months[0].Count)
	assert.EqualValues(t, 1, months[1].Count)
}

func TestSumWhere(t *testing.T) {
	h := testkit.New()
	seed(t, h)

	res, err := h.Reports.SumWhere(context.Background(), testkit.Owner, `affects_profit && amount < 0.0`)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	testkit.AssertMoney(t, "-150", res.Total)

	_, err = h.Reports.SumWhere(context.Background(), testkit.Owner, `amount >`)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestReportsAreCached(t *testing.T) {
	h := testkit.New()
	seed(t, h)
	store := newMemoryCache()
	svc := reports.NewService(h.Ledger, h.Sales, store, h.Store)
	ctx := context.Background()

	first, err := svc.ProfitSummary(ctx, testkit.Owner)
	require.NoError(t, err)
	assert.Equal(t, 0, store.hits)

	_, err = h.Ledger.CreateManual(ctx, testkit.Owner, ledger.ManualInput{
		Date:          testkit.Date(2025, time.March, 21),
		Direction:     ledger.Income,
		Detail:        ledger.DetailExtraIncome,
		Amount:        testkit.Money("5"),
		PaymentMethod: ledger.PaymentCash,
	})
	require.NoError(t, err)

	second, err := svc.ProfitSummary(ctx, testkit.Owner)
	require.NoError(t, err)
	assert.Equal(t, 1, store.hits)
	testkit.AssertMoney(t, first.NetProfit.String(), second.NetProfit)
}

func TestCacheFailureFallsBackToLedger(t *testing.T) {
	h := testkit.New()
	seed(t, h)
	store := newMemoryCache()
	store.failGet = true
	svc := reports.NewService(h.Ledger, h.Sales, store, h.Store)

	s, err := svc.ProfitSummary(context.Background(), testkit.Owner)
	require.NoError(t, err)
	testkit.AssertMoney(t, "50", s.NetProfit)
}
