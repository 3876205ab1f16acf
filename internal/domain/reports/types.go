// Package reports computes profit and cash-flow projections from the ledger.
package reports

import (
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain/ledger"
)

// ProfitSummary is the owner-wide profit picture.
type ProfitSummary struct {
	TotalBank           types.Money `json:"totalBank"`
	TotalCash           types.Money `json:"totalCash"`
	TotalBalance        types.Money `json:"totalBalance"`
	GrossProfit         types.Money `json:"grossProfit"`
	NetProfit           types.Money `json:"netProfit"`
	OperationalExpenses types.Money `json:"operationalExpenses"`
}

// CashFlowSummary is the owner-wide cash picture with a per-month breakdown.
type CashFlowSummary struct {
	TotalBank        types.Money        `json:"totalBank"`
	TotalCash        types.Money        `json:"totalCash"`
	TotalBalance     types.Money        `json:"totalBalance"`
	TotalIncome      types.Money        `json:"totalIncome"`
	TotalExpense     types.Money        `json:"totalExpense"`
	TotalCashFlow    types.Money        `json:"totalCashFlow"`
	MonthlyBreakdown []MonthlyBreakdown `json:"monthlyBreakdown"`
}

// MonthlyBreakdown is the cash movement of one month. Balances are
// cumulative up to the end of the month.
type MonthlyBreakdown struct {
	Month        types.Month          `json:"month"`
	Income       types.Money          `json:"income"`
	Expense      types.Money          `json:"expense"`
	CashFlow     types.Money          `json:"cashFlow"`
	BankBalance  types.Money          `json:"bankBalance"`
	CashBalance  types.Money          `json:"cashBalance"`
	TotalBalance types.Money          `json:"totalBalance"`
	Transactions []ledger.Transaction `json:"transactions"`
}

// MonthlyProfit is the profit of one month.
type MonthlyProfit struct {
	Month               types.Month `json:"month"`
	NetProfit           types.Money `json:"netProfit"`
	OperationalExpenses types.Money `json:"operationalExpenses"`
	Revenue             types.Money `json:"revenue"`
	COGS                types.Money `json:"cogs"`
}

// SumResult is the answer to an ad-hoc sum.
type SumResult struct {
	Expression string      `json:"expression"`
	Total      types.Money `json:"total"`
	Count      int         `json:"count"`
}
