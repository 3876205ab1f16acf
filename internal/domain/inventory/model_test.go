package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"helmetledger/internal/core/types"
)

func TestItemReceive_WeightedAverage(t *testing.T) {
	tests := []struct {
		name    string
		qty     int
		avg     string
		recvQty int
		recvAt  string
		wantQty int
		wantAvg string
	}{
		{"empty position takes the unit cost", 0, "0", 4, "25.50", 4, "25.50"},
		{"weighted", 10, "20", 10, "30", 20, "25"},
		{"uneven", 3, "10", 1, "14", 4, "11"},
		{"repeating decimals", 2, "10", 1, "11", 3, "10.3333"},
		{"negative position resets", -1, "50", 2, "8", 1, "8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &Item{Quantity: tt.qty, AverageCost: types.MustMoney(tt.avg)}
			item.Receive(tt.recvQty, types.MustMoney(tt.recvAt))
			assert.Equal(t, tt.wantQty, item.Quantity)
			assert.True(t, types.MustMoney(tt.wantAvg).Equal(item.AverageCost), "avg %s", item.AverageCost)
		})
	}
}
