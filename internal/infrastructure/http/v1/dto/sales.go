package dto

import (
	"time"

	"helmetledger/internal/core/id"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain/ledger"
	"helmetledger/internal/domain/sales"
)

// --- Request DTOs ---

// SaleItemRequest is a requested sale line.
type SaleItemRequest struct {
	VariantID id.ID       `json:"variantId" binding:"required"`
	Quantity  int         `json:"quantity" binding:"required,gt=0"`
	UnitPrice types.Money `json:"unitPrice" binding:"gte=0"`
}

// PaymentRequest is a requested payment.
type PaymentRequest struct {
	Method ledger.PaymentMethod `json:"paymentMethod" binding:"required,oneof=CASH PIX CARD"`
	Amount types.Money          `json:"amount" binding:"gt=0"`
}

// CreateSaleRequest is the body of POST /sales.
type CreateSaleRequest struct {
	Date     *time.Time        `json:"date"`
	Items    []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
	Payments []PaymentRequest  `json:"payments" binding:"dive"`
}

// ToInput converts the request into the domain input.
func (r *CreateSaleRequest) ToInput() sales.CreateInput {
	in := sales.CreateInput{
		Items:    toItemInputs(r.Items),
		Payments: toPaymentInputs(r.Payments),
	}
	if r.Date != nil {
		in.Date = *r.Date
	}
	return in
}

// UpdateSaleRequest is the body of PUT /sales/:id.
type UpdateSaleRequest struct {
	Date     time.Time         `json:"date" binding:"required"`
	Items    []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
	Payments []PaymentRequest  `json:"payments" binding:"dive"`
}

// ToInput converts the request into the domain input.
func (r *UpdateSaleRequest) ToInput() sales.UpdateInput {
	return sales.UpdateInput{
		Date:     r.Date,
		Items:    toItemInputs(r.Items),
		Payments: toPaymentInputs(r.Payments),
	}
}

func toItemInputs(items []SaleItemRequest) []sales.ItemInput {
	out := make([]sales.ItemInput, len(items))
	for i, it := range items {
		out[i] = sales.ItemInput{VariantID: it.VariantID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return out
}

func toPaymentInputs(payments []PaymentRequest) []sales.PaymentInput {
	out := make([]sales.PaymentInput, len(payments))
	for i, p := range payments {
		out[i] = sales.PaymentInput{Method: p.Method, Amount: p.Amount}
	}
	return out
}

// CancelItemRequest cancels units of one line.
type CancelItemRequest struct {
	ItemID   id.ID `json:"itemId" binding:"required"`
	Quantity int   `json:"quantity" binding:"required,gt=0"`
}

// CancelSaleRequest is the body of POST /sales/:id/cancel.
type CancelSaleRequest struct {
	CancelEntireSale    bool                     `json:"cancelEntireSale"`
	Items               []CancelItemRequest      `json:"items" binding:"dive"`
	Reason              sales.CancellationReason `json:"reason" binding:"required"`
	Notes               string                   `json:"notes" binding:"max=1000"`
	GenerateRefund      bool                     `json:"generateRefund"`
	RefundAmount        types.Money              `json:"refundAmount" binding:"gte=0"`
	RefundPaymentMethod ledger.PaymentMethod     `json:"refundPaymentMethod" binding:"omitempty,oneof=CASH PIX CARD"`
}

// ToInput converts the request into the domain input.
func (r *CancelSaleRequest) ToInput() sales.CancelInput {
	in := sales.CancelInput{
		CancelEntireSale:    r.CancelEntireSale,
		Reason:              r.Reason,
		Notes:               r.Notes,
		GenerateRefund:      r.GenerateRefund,
		RefundAmount:        r.RefundAmount,
		RefundPaymentMethod: r.RefundPaymentMethod,
	}
	for _, it := range r.Items {
		in.Items = append(in.Items, sales.ItemCancellation{ItemID: it.ItemID, Quantity: it.Quantity})
	}
	return in
}

// SaleListQuery filters GET /sales.
type SaleListQuery struct {
	PageQuery
	DateRangeQuery
	Status string `form:"status" binding:"omitempty,oneof=ACTIVE PARTIALLY_CANCELLED CANCELLED"`
}

// ToFilter converts the query into the domain filter.
func (q SaleListQuery) ToFilter() sales.ListFilter {
	f := sales.ListFilter{
		ListFilter: q.PageQuery.ToFilter(),
		DateFrom:   q.DateFrom,
		DateTo:     q.DateTo,
	}
	if q.Status != "" {
		status := sales.Status(q.Status)
		f.Status = &status
	}
	return f
}

// --- Response DTOs ---

// SaleSummary is a sale without its children, used in lists.
type SaleSummary struct {
	ID                    id.ID        `json:"id"`
	Number                string       `json:"number"`
	Date                  time.Time    `json:"date"`
	Status                sales.Status `json:"status"`
	TotalAmount           types.Money  `json:"totalAmount"`
	TotalProfit           types.Money  `json:"totalProfit"`
	IsDerivedFromExchange bool         `json:"isDerivedFromExchange"`
	HasRefund             bool         `json:"hasRefund"`
	ItemCount             int          `json:"itemCount"`
}

// FromSaleSummary maps a sale to its list row.
func FromSaleSummary(s *sales.Sale) SaleSummary {
	return SaleSummary{
		ID:                    s.ID,
		Number:                s.Number,
		Date:                  s.Date,
		Status:                s.Status,
		TotalAmount:           s.TotalAmount,
		TotalProfit:           s.TotalProfit,
		IsDerivedFromExchange: s.IsDerivedFromExchange,
		HasRefund:             s.HasRefund,
		ItemCount:             len(s.Items),
	}
}

// SaleTransactionsResponse is returned by a repost.
type SaleTransactionsResponse struct {
	SaleID       id.ID                `json:"saleId"`
	Count        int                  `json:"count"`
	Transactions []ledger.Transaction `json:"transactions"`
}
