// Package exchange implements product exchanges: returning units of a sale
// and selling replacement items in one unit of work.
package exchange

import (
	"time"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/id"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain/ledger"
	"helmetledger/internal/domain/sales"
)

// Reason explains an exchange.
type Reason string

const (
	ReasonDefect     Reason = "DEFECT"
	ReasonSize       Reason = "SIZE"
	ReasonPreference Reason = "PREFERENCE"
	ReasonColor      Reason = "COLOR"
	ReasonModel      Reason = "MODEL"
	ReasonOther      Reason = "OTHER"
)

// Valid reports whether r is a known reason.
func (r Reason) Valid() bool {
	switch r {
	case ReasonDefect, ReasonSize, ReasonPreference, ReasonColor, ReasonModel, ReasonOther:
		return true
	}
	return false
}

// ProductExchange is the persisted record of an exchange.
type ProductExchange struct {
	ID                  id.ID                 `db:"id" json:"id"`
	OwnerID             string                `db:"owner_id" json:"ownerId"`
	Number              string                `db:"number" json:"number"`
	ExchangeDate        time.Time             `db:"exchange_date" json:"exchangeDate"`
	OriginalSaleID      id.ID                 `db:"original_sale_id" json:"originalSaleId"`
	NewSaleID           id.ID                 `db:"new_sale_id" json:"newSaleId"`
	Reason              Reason                `db:"reason" json:"reason"`
	Notes               *string               `db:"notes" json:"notes,omitempty"`
	ProcessedBy         string                `db:"processed_by" json:"processedBy"`
	ReturnedAmount      types.Money           `db:"returned_amount" json:"returnedAmount"`
	NewSaleAmount       types.Money           `db:"new_sale_amount" json:"newSaleAmount"`
	AmountDifference    types.Money           `db:"amount_difference" json:"amountDifference"`
	RefundAmount        *types.Money          `db:"refund_amount" json:"refundAmount,omitempty"`
	RefundPaymentMethod *ledger.PaymentMethod `db:"refund_payment_method" json:"refundPaymentMethod,omitempty"`
	RefundTransactionID *id.ID                `db:"refund_transaction_id" json:"refundTransactionId,omitempty"`
	CreatedAt           time.Time             `db:"created_at" json:"createdAt"`
}

// ReturnItem is a unit count returned from the original sale.
type ReturnItem struct {
	SaleItemID id.ID
	Quantity   int
}

// Input describes an exchange.
type Input struct {
	OriginalSaleID      id.ID
	ItemsToReturn       []ReturnItem
	NewItems            []sales.ItemInput
	NewSalePayments     []sales.PaymentInput
	RefundPaymentMethod *ledger.PaymentMethod
	Reason              Reason
	Notes               string
	Date                time.Time
}

// Validate checks the shape of the request.
func (in Input) Validate() error {
	if id.IsNil(in.OriginalSaleID) {
		return apperror.NewValidation("original sale is required")
	}
	if len(in.ItemsToReturn) == 0 {
		return apperror.NewValidation("at least one item must be returned")
	}
	for i, r := range in.ItemsToReturn {
		if r.Quantity <= 0 {
			return apperror.NewValidation("return quantity must be greater than zero").WithDetail("item", i)
		}
	}
	if len(in.NewItems) == 0 {
		return apperror.NewValidation("at least one new item is required")
	}
	if !in.Reason.Valid() {
		return apperror.NewValidation("invalid exchange reason").WithDetail("reason", in.Reason)
	}
	if in.RefundPaymentMethod != nil && !in.RefundPaymentMethod.Valid() {
		return apperror.NewValidation("invalid refund payment method")
	}
	return nil
}

// Result is returned to the caller of an exchange.
type Result struct {
	ExchangeID             id.ID                 `json:"exchangeId"`
	Number                 string                `json:"number"`
	OriginalSaleID         id.ID                 `json:"originalSaleId"`
	NewSaleID              id.ID                 `json:"newSaleId"`
	ReturnedAmount         types.Money           `json:"returnedAmount"`
	NewSaleAmount          types.Money           `json:"newSaleAmount"`
	AmountDifference       types.Money           `json:"amountDifference"`
	HasRefund              bool                  `json:"hasRefund"`
	RefundAmount           types.Money           `json:"refundAmount"`
	RefundPaymentMethod    *ledger.PaymentMethod `json:"refundPaymentMethod,omitempty"`
	RefundTransactionID    *id.ID                `json:"refundTransactionId,omitempty"`
	HasAdditionalCharge    bool                  `json:"hasAdditionalCharge"`
	AdditionalChargeAmount types.Money           `json:"additionalChargeAmount"`
}
