// Package inventory tracks stock quantities and weighted average cost per variant.
//
// Catalog and purchase-order management live elsewhere; this package only
// exposes what the sale lifecycle consumes plus the cost side of receiving stock.
package inventory

import (
	"time"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/id"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain/ledger"
)

// Item is the stock position of a product variant.
type Item struct {
	OwnerID     string      `db:"owner_id" json:"ownerId"`
	VariantID   id.ID       `db:"variant_id" json:"variantId"`
	Quantity    int         `db:"quantity" json:"quantity"`
	AverageCost types.Money `db:"average_cost" json:"averageCost"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updatedAt"`
}

// Receive applies a receipt to the position using the weighted average:
// (q0*c0 + q*c) / (q0+q).
func (i *Item) Receive(qty int, unitCost types.Money) {
	if i.Quantity <= 0 {
		i.AverageCost = unitCost.Round(types.CostScale)
		i.Quantity += qty
		return
	}
	held := i.AverageCost.Mul(types.FromInt(int64(i.Quantity)))
	incoming := unitCost.Mul(types.FromInt(int64(qty)))
	i.Quantity += qty
	i.AverageCost = held.Add(incoming).Div(types.FromInt(int64(i.Quantity))).Round(types.CostScale)
}

// ReceiveInput records goods arriving from a supplier.
type ReceiveInput struct {
	VariantID     id.ID
	Quantity      int
	UnitCost      types.Money
	PaymentMethod ledger.PaymentMethod
	Date          time.Time
	Description   string
}

// Validate checks the receipt.
func (in ReceiveInput) Validate() error {
	if id.IsNil(in.VariantID) {
		return apperror.NewValidation("variant is required")
	}
	if in.Quantity <= 0 {
		return apperror.NewValidation("quantity must be greater than zero").WithDetail("quantity", in.Quantity)
	}
	if in.UnitCost.IsNegative() {
		return apperror.NewValidation("unit cost must not be negative")
	}
	if !in.PaymentMethod.Valid() {
		return apperror.NewValidation("payment method is required").WithDetail("paymentMethod", in.PaymentMethod)
	}
	return nil
}

// Receipt is the outcome of a stock receipt.
type Receipt struct {
	ID            id.ID       `json:"id"`
	Item          Item        `json:"item"`
	TotalCost     types.Money `json:"totalCost"`
	TransactionID *id.ID      `json:"transactionId,omitempty"`
}
