// Package ledger implements the signed single-entry transaction ledger.
//
// Every financial effect of the system is a Transaction row. A row carries two
// flags, affectsProfit and affectsCash, that decide which aggregates it enters.
// Balances are never stored; they are always sums over rows.
package ledger

import (
	"strings"
	"time"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/id"
	"helmetledger/internal/core/types"
)

// Direction of a ledger row. The sign of Amount follows it.
type Direction string

const (
	Income  Direction = "INCOME"
	Expense Direction = "EXPENSE"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == Income || d == Expense
}

// Wallet is the pool of money a row moves.
type Wallet string

const (
	WalletCash Wallet = "CASH"
	WalletBank Wallet = "BANK"
)

// Valid reports whether w is a known wallet.
func (w Wallet) Valid() bool {
	return w == WalletCash || w == WalletBank
}

// Ptr returns a pointer to a copy of w.
func (w Wallet) Ptr() *Wallet {
	return &w
}

// PaymentMethod is how money changed hands.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "CASH"
	PaymentPix  PaymentMethod = "PIX"
	PaymentCard PaymentMethod = "CARD"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentPix, PaymentCard:
		return true
	}
	return false
}

// Wallet maps the method to the wallet it settles into: cash stays in the
// drawer, PIX and card settle into the bank account.
func (m PaymentMethod) Wallet() Wallet {
	if m == PaymentCash {
		return WalletCash
	}
	return WalletBank
}

// MethodFor returns the payment method used for automatic rows of a wallet.
func MethodFor(w Wallet) PaymentMethod {
	if w == WalletCash {
		return PaymentCash
	}
	return PaymentPix
}

// Transaction is a single ledger row.
type Transaction struct {
	ID                id.ID         `db:"id" json:"id"`
	OwnerID           string        `db:"owner_id" json:"ownerId"`
	Date              time.Time     `db:"date" json:"date"`
	Direction         Direction     `db:"direction" json:"direction"`
	Detail            Detail        `db:"detail" json:"detail"`
	Description       string        `db:"description" json:"description,omitempty"`
	Amount            types.Money   `db:"amount" json:"amount"`
	PaymentMethod     PaymentMethod `db:"payment_method" json:"paymentMethod,omitempty"`
	AccountID         *id.ID        `db:"account_id" json:"accountId,omitempty"`
	Reference         string        `db:"reference" json:"reference,omitempty"`
	ReferenceSubID    *string       `db:"reference_sub_id" json:"referenceSubId,omitempty"`
	WalletDestination *Wallet       `db:"wallet_destination" json:"walletDestination,omitempty"`
	AffectsProfit     bool          `db:"affects_profit" json:"affectsProfit"`
	AffectsCash       bool          `db:"affects_cash" json:"affectsCash"`
	CreatedAt         time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updatedAt"`
}

// New builds a row with flags taken from the detail table and the wallet
// derived from the payment method. Callers adjust sub-reference, wallet or
// flags afterwards when a lifecycle rule says so.
func New(ownerID string, date time.Time, dir Direction, detail Detail, amount types.Money, method PaymentMethod, reference string) *Transaction {
	flags := detail.Flags()
	t := &Transaction{
		OwnerID:       ownerID,
		Date:          date,
		Direction:     dir,
		Detail:        detail,
		Amount:        amount,
		PaymentMethod: method,
		Reference:     reference,
		AffectsProfit: flags.AffectsProfit,
		AffectsCash:   flags.AffectsCash,
	}
	if method.Valid() {
		t.WalletDestination = method.Wallet().Ptr()
	}
	return t
}

// WithSubID sets the sub-reference that makes the row idempotent.
func (t *Transaction) WithSubID(subID string) *Transaction {
	t.ReferenceSubID = &subID
	return t
}

// WithoutWallet detaches the row from any wallet (COGS-style rows).
func (t *Transaction) WithoutWallet() *Transaction {
	t.WalletDestination = nil
	return t
}

// WithDescription sets the free-text description.
func (t *Transaction) WithDescription(s string) *Transaction {
	t.Description = s
	return t
}

// Normalize enforces the write-time invariants: the amount sign follows the
// direction and a row without wallet never affects cash.
func (t *Transaction) Normalize() {
	abs := t.Amount.Abs()
	if t.Direction == Expense {
		t.Amount = abs.Neg()
	} else {
		t.Amount = abs
	}
	if t.WalletDestination == nil {
		t.AffectsCash = false
	}
}

// Validate checks a normalized row.
func (t *Transaction) Validate() error {
	if t.OwnerID == "" {
		return apperror.NewValidation("owner is required")
	}
	if !t.Direction.Valid() {
		return apperror.NewValidation("invalid direction").WithDetail("direction", t.Direction)
	}
	if !t.Detail.Valid() {
		return apperror.NewValidation("invalid transaction detail").WithDetail("detail", t.Detail)
	}
	if t.Amount.IsZero() {
		return apperror.NewValidation("amount must not be zero")
	}
	if t.Date.IsZero() {
		return apperror.NewValidation("date is required")
	}
	if t.PaymentMethod != "" && !t.PaymentMethod.Valid() {
		return apperror.NewValidation("invalid payment method").WithDetail("paymentMethod", t.PaymentMethod)
	}
	if t.WalletDestination != nil && !t.WalletDestination.Valid() {
		return apperror.NewValidation("invalid wallet").WithDetail("walletDestination", *t.WalletDestination)
	}
	if t.ReferenceSubID != nil && t.Reference == "" {
		return apperror.NewValidation("sub-reference requires a reference")
	}
	return nil
}

// IsManual reports whether the row was entered by hand. Rows posted by sales,
// refunds, exchanges, reinvestments, conversions and stock receipts belong to
// their aggregate and are not.
func (t *Transaction) IsManual() bool {
	return strings.HasPrefix(t.Reference, RefManual) && !t.Detail.IsProtected()
}

// Month returns the calendar month of the row date.
func (t *Transaction) Month() types.Month {
	return types.MonthOf(t.Date)
}

// HasWallet reports whether the row moves a wallet.
func (t *Transaction) HasWallet(w Wallet) bool {
	return t.WalletDestination != nil && *t.WalletDestination == w
}

// SubID returns the sub-reference or an empty string.
func (t *Transaction) SubID() string {
	if t.ReferenceSubID == nil {
		return ""
	}
	return *t.ReferenceSubID
}
