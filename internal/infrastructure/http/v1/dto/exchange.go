package dto

import (
	"time"

	"helmetledger/internal/core/id"
	"helmetledger/internal/domain/exchange"
	"helmetledger/internal/domain/ledger"
)

// ReturnItemRequest returns units of an original sale line.
type ReturnItemRequest struct {
	SaleItemID id.ID `json:"saleItemId" binding:"required"`
	Quantity   int   `json:"quantity" binding:"required,gt=0"`
}

// ExchangeRequest is the body of POST /exchanges.
type ExchangeRequest struct {
	OriginalSaleID      id.ID                 `json:"originalSaleId" binding:"required"`
	ItemsToReturn       []ReturnItemRequest   `json:"itemsToReturn" binding:"required,min=1,dive"`
	NewItems            []SaleItemRequest     `json:"newItems" binding:"required,min=1,dive"`
	NewSalePayments     []PaymentRequest      `json:"newSalePayments" binding:"dive"`
	RefundPaymentMethod *ledger.PaymentMethod `json:"refundPaymentMethod" binding:"omitempty,oneof=CASH PIX CARD"`
	Reason              exchange.Reason       `json:"reason" binding:"required"`
	Notes               string                `json:"notes" binding:"max=1000"`
	Date                *time.Time            `json:"date"`
}

// ToInput converts the request into the domain input.
func (r *ExchangeRequest) ToInput() exchange.Input {
	in := exchange.Input{
		OriginalSaleID:      r.OriginalSaleID,
		NewItems:            toItemInputs(r.NewItems),
		NewSalePayments:     toPaymentInputs(r.NewSalePayments),
		RefundPaymentMethod: r.RefundPaymentMethod,
		Reason:              r.Reason,
		Notes:               r.Notes,
	}
	for _, it := range r.ItemsToReturn {
		in.ItemsToReturn = append(in.ItemsToReturn, exchange.ReturnItem{SaleItemID: it.SaleItemID, Quantity: it.Quantity})
	}
	if r.Date != nil {
		in.Date = *r.Date
	}
	return in
}
