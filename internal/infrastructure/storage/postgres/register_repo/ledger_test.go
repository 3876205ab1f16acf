package register_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helmetledger/internal/core/types"
	"helmetledger/internal/domain/ledger"
	"helmetledger/internal/infrastructure/storage/postgres"
)

func filterSQL(t *testing.T, f ledger.Filter) (string, []any) {
	t.Helper()
	q := postgres.Builder().Select("COALESCE(SUM(amount), 0)").From(transactionsTable)
	sql, args, err := ApplyFilter(q, f).ToSql()
	require.NoError(t, err)
	return sql, args
}

func TestApplyFilter_Empty(t *testing.T) {
	sql, args := filterSQL(t, ledger.Filter{})

	assert.Equal(t, "SELECT COALESCE(SUM(amount), 0) FROM transactions", sql)
	assert.Empty(t, args)
}

func TestApplyFilter_ProfitInMonth(t *testing.T) {
	m, err := types.ParseMonth("2025-03")
	require.NoError(t, err)

	sql, args := filterSQL(t, ledger.ProfitFilter().InMonth(m))

	assert.Equal(t,
		"SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE affects_profit = $1 AND date >= $2 AND date < $3",
		sql)
	require.Len(t, args, 3)
	assert.Equal(t, true, args[0])
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), args[1])
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), args[2])
}

func TestApplyFilter_OperationalExpenses(t *testing.T) {
	sql, args := filterSQL(t, ledger.OperationalExpenseFilter())

	assert.Equal(t,
		"SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE affects_profit = $1 AND direction = $2 AND detail NOT IN ($3)",
		sql)
	assert.Equal(t, []any{true, "EXPENSE", "COST_OF_GOODS_SOLD"}, args)
}

func TestApplyFilter_Wallet(t *testing.T) {
	sql, args := filterSQL(t, ledger.WalletFilter(ledger.WalletCash))

	assert.Equal(t, "SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE wallet_destination = $1", sql)
	assert.Equal(t, []any{"CASH"}, args)
}

func TestApplyFilter_HasWallet(t *testing.T) {
	tests := []struct {
		name string
		has  bool
		want string
	}{
		{"with wallet", true, "wallet_destination IS NOT NULL"},
		{"without wallet", false, "wallet_destination IS NULL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			has := tt.has
			sql, args := filterSQL(t, ledger.Filter{HasWallet: &has})

			assert.Contains(t, sql, tt.want)
			assert.Empty(t, args)
		})
	}
}

func TestApplyFilter_DetailsAndUntil(t *testing.T) {
	until := time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC)
	f := ledger.Filter{
		Details: []ledger.Detail{ledger.DetailSale, ledger.DetailCOGS},
	}.Until(until)

	sql, args := filterSQL(t, f)

	assert.Equal(t,
		"SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE detail IN ($1,$2) AND date < $3",
		sql)
	assert.Equal(t, []any{"SALE", "COST_OF_GOODS_SOLD", until}, args)
}

func TestTransactionColumns(t *testing.T) {
	assert.Equal(t, "id", transactionColumns[0])
	assert.NotContains(t, transactionColumns, "")
	assert.Contains(t, onConflictSubReference, "reference_sub_id IS NOT NULL")
}
