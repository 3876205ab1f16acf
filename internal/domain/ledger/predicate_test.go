package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/types"
)

func TestCompilePredicate(t *testing.T) {
	sale := New("o", day, Income, DetailSale, types.MustMoney("120.00"), PaymentPix, "SALE#1")
	tax := New("o", day, Expense, DetailTax, types.MustMoney("15.00"), PaymentCash, "MANUAL#2")
	sale.Normalize()
	tax.Normalize()

	tests := []struct {
		expr string
		sale bool
		tax  bool
	}{
		{`detail == "SALE"`, true, false},
		{`affects_profit && amount < 0.0`, false, true},
		{`wallet == "BANK"`, true, false},
		{`reference.startsWith("MANUAL#")`, false, true},
		{`date >= timestamp("2025-04-01T00:00:00Z") && date < timestamp("2025-05-01T00:00:00Z")`, true, true},
		{`payment_method in ["CASH", "CARD"]`, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			pred, err := CompilePredicate(tt.expr)
			require.NoError(t, err)

			got, err := pred(sale)
			require.NoError(t, err)
			assert.Equal(t, tt.sale, got)

			got, err = pred(tax)
			require.NoError(t, err)
			assert.Equal(t, tt.tax, got)
		})
	}
}

func TestCompilePredicate_Rejects(t *testing.T) {
	for _, expr := range []string{`amount +`, `amount`, `unknown_field == 1`} {
		_, err := CompilePredicate(expr)
		require.Error(t, err, expr)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation), expr)
	}
}
