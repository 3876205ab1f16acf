package dto

import (
	"time"

	"helmetledger/internal/core/types"
	"helmetledger/internal/domain/ledger"
)

// ManualTransactionRequest is the body of POST and PUT /transactions.
type ManualTransactionRequest struct {
	Date          *time.Time           `json:"date"`
	Direction     ledger.Direction     `json:"direction" binding:"required,oneof=INCOME EXPENSE"`
	Detail        ledger.Detail        `json:"detail" binding:"required"`
	Description   string               `json:"description" binding:"max=500"`
	Amount        types.Money          `json:"amount" binding:"gt=0"`
	PaymentMethod ledger.PaymentMethod `json:"paymentMethod" binding:"required,oneof=CASH PIX CARD"`
}

// ToInput converts the request into the domain input.
func (r *ManualTransactionRequest) ToInput() ledger.ManualInput {
	in := ledger.ManualInput{
		Direction:     r.Direction,
		Detail:        r.Detail,
		Description:   r.Description,
		Amount:        r.Amount,
		PaymentMethod: r.PaymentMethod,
	}
	if r.Date != nil {
		in.Date = *r.Date
	}
	return in
}

// TransactionListQuery filters GET /transactions.
type TransactionListQuery struct {
	PageQuery
	Direction string `form:"direction" binding:"omitempty,oneof=INCOME EXPENSE"`
	Detail    string `form:"detail"`
	Wallet    string `form:"wallet" binding:"omitempty,oneof=CASH BANK"`
	Month     string `form:"month"`
}

// ToFilter converts the query into the domain filter.
func (q TransactionListQuery) ToFilter() (ledger.ListFilter, error) {
	f := ledger.ListFilter{ListFilter: q.PageQuery.ToFilter()}
	if q.Direction != "" {
		dir := ledger.Direction(q.Direction)
		f.Direction = &dir
	}
	if q.Detail != "" {
		detail := ledger.Detail(q.Detail)
		f.Detail = &detail
	}
	if q.Wallet != "" {
		f.Wallet = ledger.Wallet(q.Wallet).Ptr()
	}
	if q.Month != "" {
		m, err := types.ParseMonth(q.Month)
		if err != nil {
			return f, err
		}
		f.Month = &m
	}
	return f, nil
}

// ReferenceResponse lists the rows of one reference.
type ReferenceResponse struct {
	Reference    string               `json:"reference"`
	Total        types.Money          `json:"total"`
	Transactions []ledger.Transaction `json:"transactions"`
}

// NewReferenceResponse totals the rows of a reference.
func NewReferenceResponse(ref string, rows []ledger.Transaction) ReferenceResponse {
	total := types.Zero()
	for _, t := range rows {
		total = total.Add(t.Amount)
	}
	if rows == nil {
		rows = []ledger.Transaction{}
	}
	return ReferenceResponse{Reference: ref, Total: total, Transactions: rows}
}
