package sales

import (
	"time"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/id"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain/ledger"
)

// ItemInput is a requested sale line.
type ItemInput struct {
	VariantID id.ID
	Quantity  int
	UnitPrice types.Money
}

// PaymentInput is a requested payment.
type PaymentInput struct {
	Method ledger.PaymentMethod
	Amount types.Money
}

// CreateInput describes a new sale.
type CreateInput struct {
	Date     time.Time
	Items    []ItemInput
	Payments []PaymentInput

	// Set by the exchange flow only.
	IsDerivedFromExchange bool
	ExchangeCredit        types.Money
}

// Validate checks the shape of the request. Stock and payment totals are
// checked by the service.
func (in CreateInput) Validate() error {
	if len(in.Items) == 0 {
		return apperror.NewValidation("sale must have at least one item")
	}
	for i, it := range in.Items {
		if id.IsNil(it.VariantID) {
			return apperror.NewValidation("variant is required").WithDetail("item", i)
		}
		if it.Quantity <= 0 {
			return apperror.NewValidation("quantity must be greater than zero").
				WithDetail("item", i).WithDetail("quantity", it.Quantity)
		}
		if it.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price must not be negative").WithDetail("item", i)
		}
	}
	for i, p := range in.Payments {
		if !p.Method.Valid() {
			return apperror.NewValidation("invalid payment method").
				WithDetail("payment", i).WithDetail("paymentMethod", p.Method)
		}
		if !p.Amount.IsPositive() {
			return apperror.NewValidation("payment amount must be greater than zero").WithDetail("payment", i)
		}
	}
	if in.ExchangeCredit.IsNegative() {
		return apperror.NewValidation("exchange credit must not be negative")
	}
	if !in.IsDerivedFromExchange && !in.ExchangeCredit.IsZero() {
		return apperror.NewValidation("exchange credit is only allowed on exchange sales")
	}
	return nil
}

// UpdateInput replaces the date, lines and payments of a sale.
type UpdateInput struct {
	Date     time.Time
	Items    []ItemInput
	Payments []PaymentInput
}

func (in UpdateInput) createInput() CreateInput {
	return CreateInput{Date: in.Date, Items: in.Items, Payments: in.Payments}
}

// ItemCancellation is a requested partial cancellation of a line.
type ItemCancellation struct {
	ItemID   id.ID
	Quantity int
}

// CancelInput describes a cancellation.
type CancelInput struct {
	CancelEntireSale bool
	Items            []ItemCancellation
	Reason           CancellationReason
	Notes            string

	GenerateRefund      bool
	RefundAmount        types.Money
	RefundPaymentMethod ledger.PaymentMethod

	// FromExchange is set by the exchange flow. It allows a partial
	// cancellation without refund when the customer owes the difference.
	FromExchange bool
}
