package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helmetledger/internal/core/id"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain/ledger"
	"helmetledger/internal/domain/sales"
)

type stamped struct {
	CreatedAt time.Time `db:"created_at"`
}

type embeddedRow struct {
	stamped
	Name    string `db:"name"`
	Skipped string `db:"-"`
	NoTag   string
}

func TestExtractDBColumns_Transaction(t *testing.T) {
	cols := ExtractDBColumns[ledger.Transaction]()

	require.NotEmpty(t, cols)
	assert.Equal(t, "id", cols[0])
	assert.Contains(t, cols, "reference_sub_id")
	assert.Contains(t, cols, "wallet_destination")
	assert.Contains(t, cols, "affects_profit")
}

func TestExtractDBColumns_SkipsChildCollections(t *testing.T) {
	cols := ExtractDBColumns[sales.Sale]()

	assert.NotContains(t, cols, "-")
	assert.Contains(t, cols, "exchange_credit")
	assert.Len(t, cols, len(StructValues(sales.Sale{})))
}

func TestExtractDBColumns_Embedded(t *testing.T) {
	assert.Equal(t, []string{"name"}, ExtractDBColumns[embeddedRow]())
}

func TestStructToMap(t *testing.T) {
	txID := id.New()
	row := ledger.Transaction{
		ID:        txID,
		OwnerID:   "owner-1",
		Direction: ledger.Expense,
		Detail:    ledger.DetailFixedExpense,
		Amount:    types.MustMoney("-30"),
	}

	m := StructToMap(&row)

	assert.Equal(t, txID, m["id"])
	assert.Equal(t, "owner-1", m["owner_id"])
	assert.Equal(t, ledger.Expense, m["direction"])
	assert.True(t, types.MustMoney("-30").Equal(m["amount"].(types.Money)))
	assert.Nil(t, m["reference_sub_id"])
}

func TestStructToMap_NotAStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	assert.Nil(t, StructToMap((*ledger.Transaction)(nil)))
}

func TestStructValues_Order(t *testing.T) {
	item := sales.Item{LineNo: 3, Quantity: 2}

	cols := ExtractDBColumns[sales.Item]()
	vals := StructValues(item)

	require.Len(t, vals, len(cols))
	for i, c := range cols {
		switch c {
		case "line_no":
			assert.Equal(t, 3, vals[i])
		case "quantity":
			assert.Equal(t, 2, vals[i])
		}
	}
}
