package dto

import (
	"time"

	"helmetledger/internal/core/id"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain/inventory"
	"helmetledger/internal/domain/ledger"
)

// StockReceiptRequest is the body of POST /inventory/receipts.
type StockReceiptRequest struct {
	VariantID     id.ID                `json:"variantId" binding:"required"`
	Quantity      int                  `json:"quantity" binding:"required,gt=0"`
	UnitCost      types.Money          `json:"unitCost" binding:"gte=0"`
	PaymentMethod ledger.PaymentMethod `json:"paymentMethod" binding:"required,oneof=CASH PIX CARD"`
	Description   string               `json:"description" binding:"max=500"`
	Date          *time.Time           `json:"date"`
}

// ToInput converts the request into the domain input.
func (r *StockReceiptRequest) ToInput() inventory.ReceiveInput {
	in := inventory.ReceiveInput{
		VariantID:     r.VariantID,
		Quantity:      r.Quantity,
		UnitCost:      r.UnitCost,
		PaymentMethod: r.PaymentMethod,
		Description:   r.Description,
	}
	if r.Date != nil {
		in.Date = *r.Date
	}
	return in
}
