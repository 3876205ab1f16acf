package wallet

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
	"helmetledger/internal/domain/ledger"
	"helmetledger/pkg/logger"
)

// Accounts implements ledger.Accounts on top of the repository.
type Accounts struct {
	repo Repository
}

// NewAccounts creates the account resolver used by the ledger.
func NewAccounts(repo Repository) *Accounts {
	return &Accounts{repo: repo}
}

var _ ledger.Accounts = (*Accounts)(nil)

// GetOrCreateAccount returns the account id of (owner, wallet).
func (a *Accounts) GetOrCreateAccount(ctx context.Context, ownerID string, w ledger.Wallet) (id.ID, error) {
	if !w.Valid() {
		return id.Nil(), apperror.NewValidation("invalid wallet").WithDetail("wallet", w)
	}
	acc, err := a.repo.GetOrCreate(ctx, ownerID, w)
	if err != nil {
		return id.Nil(), err
	}
	return acc.ID, nil
}

// transferInDelay orders the IN leg after the OUT leg on the same day.
const transferInDelay = 2 * time.Second

// Service exposes wallet balances and conversions.
type Service struct {
	accounts  *Accounts
	ledger    *ledger.Service
	txManager tx.Manager
	publisher events.Publisher
	cache     cache.Invalidator
	now       func() time.Time
}

// NewService creates a new wallet service.
func NewService(accounts *Accounts, ledgerSvc *ledger.Service, txManager tx.Manager, publisher events.Publisher, invalidator cache.Invalidator) *Service {
	return &Service{
		accounts:  accounts,
		ledger:    ledgerSvc,
		txManager: txManager,
		publisher: publisher,
		cache:     invalidator,
		now:       time.Now,
	}
}

// GetOrCreateAccount returns the account id of (owner, wallet).
func (s *Service) GetOrCreateAccount(ctx context.Context, ownerID string, w ledger.Wallet) (id.ID, error) {
	return s.accounts.GetOrCreateAccount(ctx, ownerID, w)
}

// Accounts lists the owner's accounts.
func (s *Service) Accounts(ctx context.Context, ownerID string) ([]Account, error) {
	return s.accounts.repo.ListByOwner(ctx, ownerID)
}

// Balance is the sum of all rows booked to the wallet.
func (s *Service) Balance(ctx context.Context, ownerID string, w ledger.Wallet) (types.Money, error) {
	return s.ledger.SumWhere(ctx, ownerID, ledger.WalletFilter(w))
}

// Balances returns both wallet balances and their total.
func (s *Service) Balances(ctx context.Context, ownerID string) (Balances, error) {
	bank, err := s.Balance(ctx, ownerID, ledger.WalletBank)
	if err != nil {
		return Balances{}, fmt.Errorf("bank balance: %w", err)
	}
	cash, err := s.Balance(ctx, ownerID, ledger.WalletCash)
	if err != nil {
		return Balances{}, fmt.Errorf("cash balance: %w", err)
	}
	return Balances{Bank: bank, Cash: cash, Total: bank.Add(cash)}, nil
}

// Convert moves part of one wallet into the other as an internal transfer pair.
// Neither leg affects profit.
func (s *Service) Convert(ctx context.Context, ownerID string, in ConvertInput) (*Conversion, error) {
	if !in.From.Valid() || !in.To.Valid() {
		return nil, apperror.NewValidation("invalid wallet")
	}
	if in.From == in.To {
		return nil, apperror.NewValidation("source and destination wallets must differ")
	}
	if !in.Amount.IsPositive() {
		return nil, apperror.NewValidation("amount must be greater than zero")
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}
	amount := types.Round2(in.Amount)

	conv := &Conversion{ID: id.New(), From: in.From, To: in.To, Amount: amount}
	ref := ledger.ConversionRef(conv.ID)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		available, err := s.Balance(ctx, ownerID, in.From)
		if err != nil {
			return err
		}
		if available.LessThan(amount) {
			return apperror.NewInsufficientFunds(string(in.From), amount, available)
		}

		out := ledger.New(ownerID, in.Date, ledger.Expense, ledger.DetailInternalTransferOut, amount, ledger.MethodFor(in.From), ref).
			WithSubID(ledger.SubTransferOut).
			WithDescription(fmt.Sprintf("Conversion %s to %s", in.From, in.To))
		inLeg := ledger.New(ownerID, in.Date.Add(transferInDelay), ledger.Income, ledger.DetailInternalTransferIn, amount, ledger.MethodFor(in.To), ref).
			WithSubID(ledger.SubTransferIn).
			WithDescription(fmt.Sprintf("Conversion %s to %s", in.From, in.To))

		for _, row := range []*ledger.Transaction{out, inLeg} {
			if _, err := s.ledger.Post(ctx, row); err != nil {
				return fmt.Errorf("post conversion leg: %w", err)
			}
			conv.Transactions = append(conv.Transactions, *row)
		}

		conv.Balances, err = s.Balances(ctx, ownerID)
		if err != nil {
			return err
		}

		return s.publisher.Publish(ctx, events.Event{
			AggregateType: events.AggregateWalletConversion,
			AggregateID:   conv.ID,
			EventType:     events.WalletBalanceConverted,
			Payload: events.Payload{
				"owner_id": ownerID,
				"month":    types.MonthOf(in.Date).String(),
				"from":     string(in.From),
				"to":       string(in.To),
				"amount":   amount.String(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	cache.NotifyAfterCommit(ctx, s.cache, cache.ScopeFor(ownerID, in.Date))
	logger.Info(ctx, "wallet balance converted", "conversion_id", conv.ID, "from", in.From, "to", in.To, "amount", amount.String())
	return conv, nil
}
