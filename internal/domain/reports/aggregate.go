package reports

import (
	"slices"

	"helmetledger/internal/core/types"
	"helmetledger/internal/domain/ledger"
)

// The functions below are pure folds over ledger rows. They do not depend on
// row order.

func sumIf(rows []ledger.Transaction, keep func(*ledger.Transaction) bool) types.Money {
	total := types.Zero()
	for i := range rows {
		if keep(&rows[i]) {
			total = total.Add(rows[i].Amount)
		}
	}
	return total
}

// NetProfit is the sum of profit-affecting rows.
func NetProfit(rows []ledger.Transaction) types.Money {
	return sumIf(rows, func(t *ledger.Transaction) bool { return t.AffectsProfit })
}

// CashFlow is the sum of cash-affecting rows.
func CashFlow(rows []ledger.Transaction) types.Money {
	return sumIf(rows, func(t *ledger.Transaction) bool { return t.AffectsCash })
}

// WalletBalance is the sum of the rows booked to w.
func WalletBalance(rows []ledger.Transaction, w ledger.Wallet) types.Money {
	return sumIf(rows, func(t *ledger.Transaction) bool { return t.HasWallet(w) })
}

// OperationalExpenses sums profit-affecting outflows other than COGS.
// The result is zero or negative.
func OperationalExpenses(rows []ledger.Transaction) types.Money {
	return sumIf(rows, func(t *ledger.Transaction) bool {
		return t.AffectsProfit && t.Amount.IsNegative() && t.Detail != ledger.DetailCOGS
	})
}

// CashTotals returns the positive and the absolute negative sums of
// cash-affecting rows.
func CashTotals(rows []ledger.Transaction) (income, expense types.Money) {
	income, expense = types.Zero(), types.Zero()
	for i := range rows {
		if !rows[i].AffectsCash {
			continue
		}
		if rows[i].Amount.IsPositive() {
			income = income.Add(rows[i].Amount)
		} else {
			expense = expense.Add(rows[i].Amount.Abs())
		}
	}
	return income, expense
}

// Breakdown computes the month m from rows dated up to at least its end.
// Rows after the month are ignored.
func Breakdown(rows []ledger.Transaction, m types.Month) MonthlyBreakdown {
	end := m.End()
	var inMonth, upToEnd []ledger.Transaction
	for _, t := range rows {
		if !t.Date.Before(end) {
			continue
		}
		upToEnd = append(upToEnd, t)
		if m.Contains(t.Date) {
			inMonth = append(inMonth, t)
		}
	}

	income, expense := CashTotals(inMonth)
	bank := WalletBalance(upToEnd, ledger.WalletBank)
	cash := WalletBalance(upToEnd, ledger.WalletCash)
	if inMonth == nil {
		inMonth = []ledger.Transaction{}
	}
	return MonthlyBreakdown{
		Month:        m,
		Income:       income,
		Expense:      expense,
		CashFlow:     income.Sub(expense),
		BankBalance:  bank,
		CashBalance:  cash,
		TotalBalance: bank.Add(cash),
		Transactions: inMonth,
	}
}

// Months lists the distinct months of the rows, oldest first.
func Months(rows []ledger.Transaction) []types.Month {
	seen := make(map[types.Month]struct{})
	var months []types.Month
	for _, t := range rows {
		m := types.MonthOf(t.Date)
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		months = append(months, m)
	}
	slices.SortFunc(months, func(a, b types.Month) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}
		return 0
	})
	return months
}

// Breakdowns computes a breakdown per month having rows, oldest first.
func Breakdowns(rows []ledger.Transaction) []MonthlyBreakdown {
	months := Months(rows)
	out := make([]MonthlyBreakdown, 0, len(months))
	for _, m := range months {
		out = append(out, Breakdown(rows, m))
	}
	return out
}

// ProfitOf computes the profit of month m from rows of any period.
// Revenue is net of sale refunds; COGS is net of reversals and positive.
func ProfitOf(rows []ledger.Transaction, m types.Month) MonthlyProfit {
	var inMonth []ledger.Transaction
	for _, t := range rows {
		if m.Contains(t.Date) {
			inMonth = append(inMonth, t)
		}
	}
	revenue := sumIf(inMonth, func(t *ledger.Transaction) bool {
		return t.Detail == ledger.DetailSale || t.Detail == ledger.DetailSaleRefund
	})
	cogs := sumIf(inMonth, func(t *ledger.Transaction) bool {
		return t.Detail == ledger.DetailCOGS || t.Detail == ledger.DetailCOGSReversal
	})
	return MonthlyProfit{
		Month:               m,
		NetProfit:           NetProfit(inMonth),
		OperationalExpenses: OperationalExpenses(inMonth),
		Revenue:             revenue,
		COGS:                cogs.Neg(),
	}
}
