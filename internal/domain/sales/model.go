// Package sales implements the sale aggregate: creation with cost-basis
// snapshotting, ledger posting, cancellation and deletion.
package sales

import (
	"time"

	"helmetledger/internal/core/id"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain/ledger"
)

// Status of a sale.
type Status string

const (
	StatusActive             Status = "ACTIVE"
	StatusPartiallyCancelled Status = "PARTIALLY_CANCELLED"
	StatusCancelled          Status = "CANCELLED"
)

// CancellationReason explains why units were cancelled.
type CancellationReason string

const (
	ReasonCustomerWithdrawal  CancellationReason = "CUSTOMER_WITHDRAWAL"
	ReasonDefect              CancellationReason = "DEFECT"
	ReasonEntryError          CancellationReason = "ENTRY_ERROR"
	ReasonOutOfStock          CancellationReason = "OUT_OF_STOCK"
	ReasonPaymentNotConfirmed CancellationReason = "PAYMENT_NOT_CONFIRMED"
	ReasonReturn              CancellationReason = "RETURN"
	ReasonOther               CancellationReason = "OTHER"
)

// Valid reports whether r is a known reason.
func (r CancellationReason) Valid() bool {
	switch r {
	case ReasonCustomerWithdrawal, ReasonDefect, ReasonEntryError, ReasonOutOfStock,
		ReasonPaymentNotConfirmed, ReasonReturn, ReasonOther:
		return true
	}
	return false
}

// Sale is the aggregate root. Items and payments are persisted with it.
type Sale struct {
	ID      id.ID     `db:"id" json:"id"`
	OwnerID string    `db:"owner_id" json:"ownerId"`
	Number  string    `db:"number" json:"number"`
	Date    time.Time `db:"date" json:"date"`

	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`
	TotalProfit types.Money `db:"total_profit" json:"totalProfit"`
	Status      Status      `db:"status" json:"status"`

	// Exchange-derived sales post nothing themselves and carry zero profit.
	// ExchangeCredit is the value of returned goods applied to this sale.
	IsDerivedFromExchange bool        `db:"is_derived_from_exchange" json:"isDerivedFromExchange"`
	ExchangeCredit        types.Money `db:"exchange_credit" json:"exchangeCredit"`

	CancelledAt        *time.Time          `db:"cancelled_at" json:"cancelledAt,omitempty"`
	CancelledBy        *string             `db:"cancelled_by" json:"cancelledBy,omitempty"`
	CancellationReason *CancellationReason `db:"cancellation_reason" json:"cancellationReason,omitempty"`
	CancellationNotes  *string             `db:"cancellation_notes" json:"cancellationNotes,omitempty"`

	HasRefund           bool                  `db:"has_refund" json:"hasRefund"`
	RefundAmount        types.Money           `db:"refund_amount" json:"refundAmount"`
	RefundPaymentMethod *ledger.PaymentMethod `db:"refund_payment_method" json:"refundPaymentMethod,omitempty"`
	RefundTransactionID *id.ID                `db:"refund_transaction_id" json:"refundTransactionId,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	Items    []Item    `db:"-" json:"items"`
	Payments []Payment `db:"-" json:"payments"`
}

// Item is a sale line. CostBasisAtSale is frozen when the sale is created.
type Item struct {
	ID                id.ID       `db:"id" json:"id"`
	SaleID            id.ID       `db:"sale_id" json:"saleId"`
	LineNo            int         `db:"line_no" json:"lineNo"`
	VariantID         id.ID       `db:"variant_id" json:"variantId"`
	Quantity          int         `db:"quantity" json:"quantity"`
	UnitPrice         types.Money `db:"unit_price" json:"unitPrice"`
	UnitProfit        types.Money `db:"unit_profit" json:"unitProfit"`
	CostBasisAtSale   types.Money `db:"cost_basis_at_sale" json:"costBasisAtSale"`
	TotalItemPrice    types.Money `db:"total_item_price" json:"totalItemPrice"`
	TotalItemProfit   types.Money `db:"total_item_profit" json:"totalItemProfit"`
	CancelledQuantity int         `db:"cancelled_quantity" json:"cancelledQuantity"`
	IsCancelled       bool        `db:"is_cancelled" json:"isCancelled"`
}

// Remaining is the quantity not cancelled yet.
func (i *Item) Remaining() int {
	return i.Quantity - i.CancelledQuantity
}

// Cancel marks qty more units as cancelled.
func (i *Item) Cancel(qty int) {
	i.CancelledQuantity += qty
	i.IsCancelled = i.CancelledQuantity == i.Quantity
}

// Payment is a record of how part of the sale was paid. It never posts by itself.
type Payment struct {
	ID            id.ID                `db:"id" json:"id"`
	SaleID        id.ID                `db:"sale_id" json:"saleId"`
	PaymentMethod ledger.PaymentMethod `db:"payment_method" json:"paymentMethod"`
	Amount        types.Money          `db:"amount" json:"amount"`
}

// TotalPaid is the sum of payments.
func (s *Sale) TotalPaid() types.Money {
	total := types.Zero()
	for _, p := range s.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// TotalCost is the frozen cost of every unit sold, cancelled or not.
func (s *Sale) TotalCost() types.Money {
	total := types.Zero()
	for _, it := range s.Items {
		total = total.Add(it.CostBasisAtSale.Mul(types.FromInt(int64(it.Quantity))))
	}
	return total
}

// FindItem returns the item with the given id.
func (s *Sale) FindItem(itemID id.ID) *Item {
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			return &s.Items[i]
		}
	}
	return nil
}

// ActiveItems returns items with units left.
func (s *Sale) ActiveItems() []*Item {
	var out []*Item
	for i := range s.Items {
		if s.Items[i].Remaining() > 0 {
			out = append(out, &s.Items[i])
		}
	}
	return out
}

// IsCancelled reports whether the sale reached the terminal state.
func (s *Sale) IsCancelled() bool {
	return s.Status == StatusCancelled
}

// refreshStatus derives the status from the items.
func (s *Sale) refreshStatus() {
	allCancelled := true
	anyCancelled := false
	for _, it := range s.Items {
		if !it.IsCancelled {
			allCancelled = false
		}
		if it.CancelledQuantity > 0 {
			anyCancelled = true
		}
	}
	switch {
	case allCancelled:
		s.Status = StatusCancelled
	case anyCancelled:
		s.Status = StatusPartiallyCancelled
	default:
		s.Status = StatusActive
	}
}

// recalculateTotals recomputes totals from the units left. Exchange-derived
// sales keep zero profit.
func (s *Sale) recalculateTotals() {
	if s.Status == StatusCancelled {
		s.TotalAmount = types.Zero()
		s.TotalProfit = types.Zero()
		return
	}
	amount, profit := types.Zero(), types.Zero()
	for _, it := range s.Items {
		left := types.FromInt(int64(it.Remaining()))
		amount = amount.Add(it.UnitPrice.Mul(left))
		profit = profit.Add(it.UnitProfit.Mul(left))
	}
	s.TotalAmount = amount
	if s.IsDerivedFromExchange {
		s.TotalProfit = types.Zero()
	} else {
		s.TotalProfit = profit
	}
}
