package numerator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_KeyAndFormat(t *testing.T) {
	period := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "o:S_2025", SaleNumbers.Key("o", period))
	assert.Equal(t, "EX_2025", ExchangeNumbers.Key("", period))
	assert.Equal(t, "S-2025-00007", SaleNumbers.Format(period, 7))

	monthly := Config{Prefix: "R", PadWidth: 3, ResetPeriod: ResetMonth}
	assert.Equal(t, "o:R_2025_03", monthly.Key("o", period))
	assert.Equal(t, "R-012", monthly.Format(period, 12))

	assert.Equal(t, "o:N", Config{Prefix: "N", ResetPeriod: ResetNever}.Key("o", period))
}

func TestParse(t *testing.T) {
	assert.Equal(t, int64(42), Parse("S-2026-00042"))
	assert.Equal(t, int64(-1), Parse("garbage"))
	assert.Equal(t, int64(-1), Parse("S-"))
}

func TestOptions_Range(t *testing.T) {
	var nilOpts *Options
	assert.Equal(t, int64(50), nilOpts.Range())
	assert.Equal(t, int64(10), (&Options{RangeSize: 10}).Range())
}

func TestMockGenerator_CountsPerOwner(t *testing.T) {
	period := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	m := &MockGenerator{}
	ctx := context.Background()

	a, _ := m.GetNextNumber(ctx, "a", SaleNumbers, nil, period)
	b, _ := m.GetNextNumber(ctx, "b", SaleNumbers, nil, period)
	a2, _ := m.GetNextNumber(ctx, "a", SaleNumbers, nil, period)
	assert.Equal(t, "S-2025-00001", a)
	assert.Equal(t, "S-2025-00001", b)
	assert.Equal(t, "S-2025-00002", a2)
}
