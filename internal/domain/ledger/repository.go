package ledger

import (
	"context"
	"slices"
	"time"

	"helmetledger/internal/core/id"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain"
)

// Repository persists ledger rows. Implementations resolve the querier from
// the context so calls join the caller's unit of work.
type Repository interface {
	// Insert stores a row. It returns a DuplicatePosting error when a row with
	// the same (owner, reference, sub-reference) exists and the sub-reference is set.
	Insert(ctx context.Context, t *Transaction) error
	Update(ctx context.Context, t *Transaction) error
	Delete(ctx context.Context, ownerID string, txID id.ID) error
	DeleteByReference(ctx context.Context, ownerID, reference string) (int64, error)

	GetByID(ctx context.Context, ownerID string, txID id.ID) (*Transaction, error)
	FindByReference(ctx context.Context, ownerID, reference string) ([]Transaction, error)

	// Sum adds the amounts of the rows matching the filter.
	Sum(ctx context.Context, ownerID string, f Filter) (types.Money, error)
	// Select returns matching rows ordered by date, oldest first.
	Select(ctx context.Context, ownerID string, f Filter) ([]Transaction, error)
	List(ctx context.Context, ownerID string, f ListFilter) (domain.ListResult[Transaction], error)
	MonthCounts(ctx context.Context, ownerID string) ([]MonthCount, error)
}

// Accounts resolves the account a wallet row is booked on.
type Accounts interface {
	GetOrCreateAccount(ctx context.Context, ownerID string, wallet Wallet) (id.ID, error)
}

// Filter selects rows for sums. Nil fields do not filter.
// From is inclusive and To exclusive.
type Filter struct {
	AffectsProfit  *bool
	AffectsCash    *bool
	Wallet         *Wallet
	HasWallet      *bool
	Direction      *Direction
	Details        []Detail
	ExcludeDetails []Detail
	From           *time.Time
	To             *time.Time
}

// Matches evaluates the filter against a row in process.
func (f Filter) Matches(t *Transaction) bool {
	if f.AffectsProfit != nil && t.AffectsProfit != *f.AffectsProfit {
		return false
	}
	if f.AffectsCash != nil && t.AffectsCash != *f.AffectsCash {
		return false
	}
	if f.Wallet != nil && !t.HasWallet(*f.Wallet) {
		return false
	}
	if f.HasWallet != nil && (t.WalletDestination != nil) != *f.HasWallet {
		return false
	}
	if f.Direction != nil && t.Direction != *f.Direction {
		return false
	}
	if len(f.Details) > 0 && !slices.Contains(f.Details, t.Detail) {
		return false
	}
	if slices.Contains(f.ExcludeDetails, t.Detail) {
		return false
	}
	if f.From != nil && t.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && !t.Date.Before(*f.To) {
		return false
	}
	return true
}

// InMonth restricts the filter to a calendar month.
func (f Filter) InMonth(m types.Month) Filter {
	from, to := m.Start(), m.End()
	f.From, f.To = &from, &to
	return f
}

// Until restricts the filter to rows strictly before t.
func (f Filter) Until(t time.Time) Filter {
	f.To = &t
	return f
}

// ProfitFilter selects rows entering net profit.
func ProfitFilter() Filter { return Filter{AffectsProfit: ptr(true)} }

// CashFilter selects rows entering cash flow.
func CashFilter() Filter { return Filter{AffectsCash: ptr(true)} }

// WalletFilter selects rows of one wallet.
func WalletFilter(w Wallet) Filter { return Filter{Wallet: &w} }

// OperationalExpenseFilter selects profit-affecting expenses other than COGS.
func OperationalExpenseFilter() Filter {
	dir := Expense
	return Filter{AffectsProfit: ptr(true), Direction: &dir, ExcludeDetails: []Detail{DetailCOGS}}
}

// ListFilter pages manual browsing of the ledger, newest first.
type ListFilter struct {
	domain.ListFilter

	Direction *Direction
	Detail    *Detail
	Wallet    *Wallet
	Month     *types.Month
}

// Matches evaluates the list filter against a row in process.
func (f ListFilter) Matches(t *Transaction) bool {
	if f.Direction != nil && t.Direction != *f.Direction {
		return false
	}
	if f.Detail != nil && t.Detail != *f.Detail {
		return false
	}
	if f.Wallet != nil && !t.HasWallet(*f.Wallet) {
		return false
	}
	if f.Month != nil && !f.Month.Contains(t.Date) {
		return false
	}
	return true
}

// MonthCount is the number of rows dated in a month.
type MonthCount struct {
	Month types.Month `json:"month"`
	Count int64       `json:"transactionCount"`
}

func ptr[T any](v T) *T { return &v }
