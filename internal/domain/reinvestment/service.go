package reinvestment

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
	"helmetledger/internal/domain/wallet"
	"helmetledger/pkg/logger"
)

// Service executes reinvestments.
type Service struct {
	ledger    *ledger.Service
	wallets   *wallet.Service
	txManager tx.Manager
	publisher events.Publisher
	cache     cache.Invalidator
	now       func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the clock used to date the legs.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new reinvestment service.
func NewService(
	ledgerSvc *ledger.Service,
	wallets *wallet.Service,
	txManager tx.Manager,
	publisher events.Publisher,
	invalidator cache.Invalidator,
	opts ...Option,
) *Service {
	s := &Service{
		ledger:    ledgerSvc,
		wallets:   wallets,
		txManager: txManager,
		publisher: publisher,
		cache:     invalidator,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute withdraws the amount from the wallets and deposits it back into
// BANK as owner investment. The bank is drained first, cash covers the rest.
func (s *Service) Execute(ctx context.Context, ownerID string, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var res *Result
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		res, err = s.execute(ctx, ownerID, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	cache.NotifyAfterCommit(ctx, s.cache, cache.ScopeFor(ownerID, res.ExecutedAt))
	logger.Info(ctx, "reinvestment executed",
		"reinvestment_id", res.ID,
		"month", res.Month.String(),
		"amount", res.Amount.String(),
	)
	return res, nil
}

func (s *Service) execute(ctx context.Context, ownerID string, req Request) (*Result, error) {
	profit, err := s.ledger.SumWhere(ctx, ownerID, ledger.ProfitFilter().InMonth(req.Month))
	if err != nil {
		return nil, fmt.Errorf("available profit: %w", err)
	}
	if !profit.IsPositive() {
		return nil, apperror.NewInsufficientProfit(fmt.Sprintf("No profit available in %s", req.Month)).
			WithDetail("availableProfit", profit.String())
	}

	amount := resolveAmount(req, profit)
	if amount.LessThan(minAmount) || amount.GreaterThan(profit) {
		return nil, apperror.NewBusinessRule(CodeInvalidReinvestment, "Reinvestment amount must be between 0.01 and the available profit").
			WithDetail("amount", amount.String()).
			WithDetail("availableProfit", profit.String())
	}

	balances, err := s.wallets.Balances(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	res := &Result{
		ID:                 id.New(),
		Month:              req.Month,
		Type:               req.Type,
		Amount:             amount,
		AvailableProfit:    profit,
		PercentageOfProfit: types.Round2(amount.Div(profit).Mul(types.FromInt(100))),
		RemainingProfit:    profit.Sub(amount),
		ExecutedAt:         s.now(),
	}

	legs, err := planLegs(ownerID, res, balances)
	if err != nil {
		return nil, err
	}
	for _, leg := range legs {
		if _, err := s.ledger.Post(ctx, leg); err != nil {
			return nil, fmt.Errorf("post reinvestment leg: %w", err)
		}
		res.Transactions = append(res.Transactions, *leg)
	}

	err = s.publisher.Publish(ctx, events.Event{
		AggregateType: events.AggregateReinvestment,
		AggregateID:   res.ID,
		EventType:     events.ReinvestmentExecuted,
		Payload: events.Payload{
			"owner_id":     ownerID,
			"month":        types.MonthOf(res.ExecutedAt).String(),
			"profit_month": req.Month.String(),
			"amount":       amount.String(),
			"legs":         len(legs),
		},
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func resolveAmount(req Request, profit types.Money) types.Money {
	if req.Type == TypePercentage {
		return types.Round2(profit.Mul(req.Value).Div(types.FromInt(100)))
	}
	return types.Round2(req.Value)
}

// planLegs builds the rows of a reinvestment. Withdrawal legs count against
// profit; deposit and transfer legs only move cash.
func planLegs(ownerID string, res *Result, b wallet.Balances) ([]*ledger.Transaction, error) {
	ref := ledger.ReinvestmentRef(res.ID)
	desc := fmt.Sprintf("Reinvestment of %s profit", res.Month)
	date := res.ExecutedAt

	leg := func(dir ledger.Direction, w ledger.Wallet, amount types.Money, sub string, affectsProfit bool) *ledger.Transaction {
		t := ledger.New(ownerID, date, dir, ledger.DetailOwnerInvestment, amount, ledger.MethodFor(w), ref).
			WithSubID(sub).
			WithDescription(desc)
		t.AffectsProfit = affectsProfit
		t.AffectsCash = true
		return t
	}

	if b.Bank.GreaterThanOrEqual(res.Amount) {
		return []*ledger.Transaction{
			leg(ledger.Expense, ledger.WalletBank, res.Amount, SubBankWithdrawal, true),
			leg(ledger.Income, ledger.WalletBank, res.Amount, SubBankDeposit, false),
		}, nil
	}

	bankPart := types.MaxZero(b.Bank)
	cashPart := res.Amount.Sub(bankPart)
	if b.Cash.LessThan(cashPart) {
		return nil, apperror.NewInsufficientProfit("Wallet balances cannot cover the reinvestment").
			WithDetail("amount", res.Amount.String()).
			WithDetail("bank", b.Bank.String()).
			WithDetail("cash", b.Cash.String())
	}

	var legs []*ledger.Transaction
	if bankPart.IsPositive() {
		legs = append(legs, leg(ledger.Expense, ledger.WalletBank, bankPart, SubBankWithdrawal, true))
	}
	legs = append(legs,
		leg(ledger.Expense, ledger.WalletCash, cashPart, SubCashWithdrawal, true),
		leg(ledger.Income, ledger.WalletBank, res.Amount, SubBankDeposit, false),
		leg(ledger.Income, ledger.WalletBank, cashPart, SubCashTransfer, false),
	)
	return legs, nil
}
