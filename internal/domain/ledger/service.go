package ledger

import (
	"context"
	"fmt"
	"time"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/cache"
	"helmetledger/internal/core/events"
	"helmetledger/internal/core/id"
	"helmetledger/internal/core/tx"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain"
	"helmetledger/internal/domain/audit"
	"helmetledger/pkg/logger"
)

// CodeProtectedTransaction is returned when the manual path touches a lifecycle row.
const CodeProtectedTransaction = "PROTECTED_TRANSACTION"

// Service posts and reads ledger rows.
type Service struct {
	repo      Repository
	accounts  Accounts
	txManager tx.Manager
	publisher events.Publisher
	audit     audit.Recorder
	cache     cache.Invalidator
	now       func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new ledger service.
func NewService(
	repo Repository,
	accounts Accounts,
	txManager tx.Manager,
	publisher events.Publisher,
	recorder audit.Recorder,
	invalidator cache.Invalidator,
	opts ...Option,
) *Service {
	s := &Service{
		repo:      repo,
		accounts:  accounts,
		txManager: txManager,
		publisher: publisher,
		audit:     recorder,
		cache:     invalidator,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Post writes a single row. The sign is derived from the direction and the
// account is resolved from the wallet. A repeated (reference, sub-reference)
// yields a DuplicatePosting error.
func (s *Service) Post(ctx context.Context, t *Transaction) (id.ID, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return id.Nil(), err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if t.WalletDestination != nil {
			accountID, err := s.accounts.GetOrCreateAccount(ctx, t.OwnerID, *t.WalletDestination)
			if err != nil {
				return fmt.Errorf("resolve account: %w", err)
			}
			t.AccountID = &accountID
		} else {
			t.AccountID = nil
		}

		if id.IsNil(t.ID) {
			t.ID = id.New()
		}
		now := s.now().UTC()
		t.CreatedAt = now
		t.UpdatedAt = now

		return s.repo.Insert(ctx, t)
	})
	if err != nil {
		return id.Nil(), err
	}
	return t.ID, nil
}

// PostIdempotent writes a row and treats an existing (reference, sub-reference)
// as success. posted is false when the row already existed.
func (s *Service) PostIdempotent(ctx context.Context, t *Transaction) (posted bool, err error) {
	if _, err := s.Post(ctx, t); err != nil {
		if apperror.IsDuplicatePosting(err) {
			logger.Debug(ctx, "ledger row already posted", "reference", t.Reference, "sub_id", t.SubID())
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// FindByReference returns every row of a reference.
func (s *Service) FindByReference(ctx context.Context, ownerID, reference string) ([]Transaction, error) {
	return s.repo.FindByReference(ctx, ownerID, reference)
}

// DeleteByReference removes lifecycle rows. It bypasses the manual-path protection.
func (s *Service) DeleteByReference(ctx context.Context, ownerID, reference string) (int64, error) {
	return s.repo.DeleteByReference(ctx, ownerID, reference)
}

// SumWhere adds the amounts of rows matching the filter, computed by the store.
func (s *Service) SumWhere(ctx context.Context, ownerID string, f Filter) (types.Money, error) {
	return s.repo.Sum(ctx, ownerID, f)
}

// SumMatching adds the amounts of rows accepted by an arbitrary predicate.
func (s *Service) SumMatching(ctx context.Context, ownerID string, pred Predicate) (types.Money, int, error) {
	rows, err := s.repo.Select(ctx, ownerID, Filter{})
	if err != nil {
		return types.Zero(), 0, err
	}

	total := types.Zero()
	matched := 0
	for i := range rows {
		ok, err := pred(&rows[i])
		if err != nil {
			return types.Zero(), 0, err
		}
		if ok {
			total = total.Add(rows[i].Amount)
			matched++
		}
	}
	return total, matched, nil
}

// Select returns the rows matching the filter, oldest first.
func (s *Service) Select(ctx context.Context, ownerID string, f Filter) ([]Transaction, error) {
	return s.repo.Select(ctx, ownerID, f)
}

// Get returns a single row.
func (s *Service) Get(ctx context.Context, ownerID string, txID id.ID) (*Transaction, error) {
	return s.repo.GetByID(ctx, ownerID, txID)
}

// List pages through the rows, newest first.
func (s *Service) List(ctx context.Context, ownerID string, f ListFilter) (domain.ListResult[Transaction], error) {
	f.ListFilter = f.ListFilter.Normalize()
	return s.repo.List(ctx, ownerID, f)
}

// MonthCounts returns the months having rows with their row counts.
func (s *Service) MonthCounts(ctx context.Context, ownerID string) ([]MonthCount, error) {
	return s.repo.MonthCounts(ctx, ownerID)
}
