package ledger

import (
	"context"
	"fmt"
	"time"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/cache"
	"helmetledger/internal/core/events"
	"helmetledger/internal/core/id"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain/audit"
	"helmetledger/pkg/logger"
)

// ManualInput describes a row entered by hand (expenses, extra income, taxes...).
type ManualInput struct {
	Date          time.Time
	Direction     Direction
	Detail        Detail
	Description   string
	Amount        types.Money
	PaymentMethod PaymentMethod
}

func (in ManualInput) validate() error {
	if !in.Direction.Valid() {
		return apperror.NewValidation("invalid direction").WithDetail("direction", in.Direction)
	}
	if !in.Detail.Valid() {
		return apperror.NewValidation("invalid transaction detail").WithDetail("detail", in.Detail)
	}
	if !in.PaymentMethod.Valid() {
		return apperror.NewValidation("payment method is required").WithDetail("paymentMethod", in.PaymentMethod)
	}
	if !in.Amount.IsPositive() {
		return apperror.NewValidation("amount must be greater than zero")
	}
	if in.Detail.IsProtected() {
		return protectedError(in.Detail)
	}
	return nil
}

func protectedError(d Detail) error {
	return apperror.NewBusinessRule(CodeProtectedTransaction,
		"Transactions generated by sales cannot be created, edited or deleted manually").
		WithDetail("detail", d)
}

func systemRowError(t *Transaction) error {
	return apperror.NewBusinessRule(CodeProtectedTransaction,
		"Only manually entered transactions can be edited or deleted").
		WithDetail("detail", t.Detail).
		WithDetail("reference", t.Reference)
}

// apply copies the input onto the row, re-deriving wallet and flags. Details
// that do not move cash stay off every wallet.
func (in ManualInput) apply(t *Transaction) {
	flags := in.Detail.Flags()
	t.Date = in.Date
	t.Direction = in.Direction
	t.Detail = in.Detail
	t.Description = in.Description
	t.Amount = in.Amount
	t.PaymentMethod = in.PaymentMethod
	t.WalletDestination = nil
	if flags.AffectsCash {
		t.WalletDestination = in.PaymentMethod.Wallet().Ptr()
	}
	t.AffectsProfit = flags.AffectsProfit
	t.AffectsCash = flags.AffectsCash
}

// CreateManual posts a hand-entered row.
func (s *Service) CreateManual(ctx context.Context, ownerID string, in ManualInput) (*Transaction, error) {
	if in.Date.IsZero() {
		in.Date = s.now()
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	t := &Transaction{OwnerID: ownerID, ID: id.New()}
	in.apply(t)
	t.Reference = RefManual + t.ID.String()

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.Post(ctx, t); err != nil {
			return err
		}
		return s.publish(ctx, events.TransactionPosted, t)
	})
	if err != nil {
		return nil, err
	}

	cache.NotifyAfterCommit(ctx, s.cache, cache.ScopeFor(ownerID, t.Date))
	logger.Info(ctx, "manual transaction created", "transaction_id", t.ID, "detail", t.Detail, "amount", t.Amount.String())
	return t, nil
}

// UpdateManual rewrites a hand-entered row. The sign, wallet and flags are
// derived again from the new values.
func (s *Service) UpdateManual(ctx context.Context, ownerID string, txID id.ID, in ManualInput) (*Transaction, error) {
	if in.Date.IsZero() {
		in.Date = s.now()
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var (
		updated *Transaction
		oldDate time.Time
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, ownerID, txID)
		if err != nil {
			return err
		}
		if !current.IsManual() {
			return systemRowError(current)
		}
		before := *current
		oldDate = current.Date

		in.apply(current)
		current.Normalize()
		if err := current.Validate(); err != nil {
			return err
		}
		current.AccountID = nil
		if current.WalletDestination != nil {
			accountID, err := s.accounts.GetOrCreateAccount(ctx, ownerID, *current.WalletDestination)
			if err != nil {
				return fmt.Errorf("resolve account: %w", err)
			}
			current.AccountID = &accountID
		}
		current.UpdatedAt = s.now().UTC()

		if err := s.repo.Update(ctx, current); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}

		changes, err := audit.DiffOf(before, current)
		if err != nil {
			return err
		}
		if err := s.audit.Record(ctx, audit.EntityTransaction, current.ID, audit.ActionUpdate, changes); err != nil {
			return fmt.Errorf("audit transaction update: %w", err)
		}
		updated = current
		return s.publish(ctx, events.TransactionUpdated, current)
	})
	if err != nil {
		return nil, err
	}

	cache.NotifyAfterCommit(ctx, s.cache, cache.ScopeFor(ownerID, oldDate))
	if !types.MonthOf(oldDate).Contains(updated.Date) {
		cache.NotifyAfterCommit(ctx, s.cache, cache.ScopeFor(ownerID, updated.Date))
	}
	logger.Info(ctx, "manual transaction updated", "transaction_id", updated.ID)
	return updated, nil
}

// DeleteManual removes a hand-entered row.
func (s *Service) DeleteManual(ctx context.Context, ownerID string, txID id.ID) error {
	var deleted *Transaction
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, ownerID, txID)
		if err != nil {
			return err
		}
		if !current.IsManual() {
			return systemRowError(current)
		}
		if err := s.repo.Delete(ctx, ownerID, txID); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}

		snapshot, err := audit.Snapshot(current)
		if err != nil {
			return err
		}
		if err := s.audit.Record(ctx, audit.EntityTransaction, current.ID, audit.ActionDelete, snapshot); err != nil {
			return fmt.Errorf("audit transaction delete: %w", err)
		}
		deleted = current
		return s.publish(ctx, events.TransactionDeleted, current)
	})
	if err != nil {
		return err
	}

	cache.NotifyAfterCommit(ctx, s.cache, cache.ScopeFor(ownerID, deleted.Date))
	logger.Info(ctx, "manual transaction deleted", "transaction_id", txID)
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, t *Transaction) error {
	return s.publisher.Publish(ctx, events.Event{
		AggregateType: events.AggregateTransaction,
		AggregateID:   t.ID,
		EventType:     eventType,
		Payload: events.Payload{
			"owner_id": t.OwnerID,
			"month":    t.Month().String(),
			"detail":   string(t.Detail),
			"amount":   t.Amount.String(),
		},
	})
}
