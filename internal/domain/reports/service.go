package reports

import (
	"context"
	"fmt"
	"slices"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/cache"
	"helmetledger/internal/core/tx"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain/ledger"
	"helmetledger/pkg/logger"
)

// GrossProfitSource returns Σ sale.TotalProfit over the owner's sales.
type GrossProfitSource interface {
	GrossProfit(ctx context.Context, ownerID string) (types.Money, error)
}

// Service serves read-only projections through the report cache.
type Service struct {
	ledger    *ledger.Service
	sales     GrossProfitSource
	cache     cache.Store
	txManager tx.Manager
}

// NewService creates a new reports service. A nil store disables caching.
func NewService(ledgerSvc *ledger.Service, sales GrossProfitSource, store cache.Store, txManager tx.Manager) *Service {
	if store == nil {
		store = cache.Noop{}
	}
	return &Service{
		ledger:    ledgerSvc,
		sales:     sales,
		cache:     store,
		txManager: txManager,
	}
}

// readOnly runs fn in a read-only unit of work when the manager supports it.
func (s *Service) readOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return tx.ReadOnly(ctx, s.txManager, fn)
}

// cached serves key from the store or computes and stores it.
// Store failures degrade to a recomputation.
func cached[T any](ctx context.Context, s *Service, key cache.Key, load func(ctx context.Context) (T, error)) (T, error) {
	var v T
	hit, err := s.cache.Get(ctx, key, &v)
	if err != nil {
		logger.Warn(ctx, "report cache read failed", "report", key.Report, "error", err)
	}
	if hit {
		return v, nil
	}

	err = s.readOnly(ctx, func(ctx context.Context) error {
		var err error
		v, err = load(ctx)
		return err
	})
	if err != nil {
		return v, err
	}

	if err := s.cache.Set(ctx, key, v); err != nil {
		logger.Warn(ctx, "report cache write failed", "report", key.Report, "error", err)
	}
	return v, nil
}

// ProfitSummary returns balances and profit figures of the owner.
func (s *Service) ProfitSummary(ctx context.Context, ownerID string) (*ProfitSummary, error) {
	key := cache.Key{OwnerID: ownerID, Report: cache.ReportProfit}
	return cached(ctx, s, key, func(ctx context.Context) (*ProfitSummary, error) {
		bank, err := s.ledger.SumWhere(ctx, ownerID, ledger.WalletFilter(ledger.WalletBank))
		if err != nil {
			return nil, fmt.Errorf("bank balance: %w", err)
		}
		cash, err := s.ledger.SumWhere(ctx, ownerID, ledger.WalletFilter(ledger.WalletCash))
		if err != nil {
			return nil, fmt.Errorf("cash balance: %w", err)
		}
		net, err := s.ledger.SumWhere(ctx, ownerID, ledger.ProfitFilter())
		if err != nil {
			return nil, fmt.Errorf("net profit: %w", err)
		}
		opex, err := s.ledger.SumWhere(ctx, ownerID, ledger.OperationalExpenseFilter())
		if err != nil {
			return nil, fmt.Errorf("operational expenses: %w", err)
		}
		gross, err := s.sales.GrossProfit(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("gross profit: %w", err)
		}

		if net.GreaterThan(gross) {
			logger.Warn(ctx, "net profit exceeds gross profit",
				"owner_id", ownerID,
				"net_profit", net.String(),
				"gross_profit", gross.String(),
			)
		}

		return &ProfitSummary{
			TotalBank:           bank,
			TotalCash:           cash,
			TotalBalance:        bank.Add(cash),
			GrossProfit:         gross,
			NetProfit:           net,
			OperationalExpenses: opex,
		}, nil
	})
}

// CashFlowSummary returns the cash totals with a breakdown per month.
func (s *Service) CashFlowSummary(ctx context.Context, ownerID string) (*CashFlowSummary, error) {
	key := cache.Key{OwnerID: ownerID, Report: cache.ReportCashFlow}
	return cached(ctx, s, key, func(ctx context.Context) (*CashFlowSummary, error) {
		rows, err := s.ledger.Select(ctx, ownerID, ledger.Filter{})
		if err != nil {
			return nil, fmt.Errorf("select rows: %w", err)
		}

		income, expense := CashTotals(rows)
		bank := WalletBalance(rows, ledger.WalletBank)
		cash := WalletBalance(rows, ledger.WalletCash)
		return &CashFlowSummary{
			TotalBank:        bank,
			TotalCash:        cash,
			TotalBalance:     bank.Add(cash),
			TotalIncome:      income,
			TotalExpense:     expense,
			TotalCashFlow:    income.Sub(expense),
			MonthlyBreakdown: Breakdowns(rows),
		}, nil
	})
}

// MonthlyCashFlow returns the breakdown of one month.
func (s *Service) MonthlyCashFlow(ctx context.Context, ownerID string, m types.Month) (*MonthlyBreakdown, error) {
	if m.IsZero() {
		return nil, apperror.NewValidation("month is required")
	}
	key := cache.Key{OwnerID: ownerID, Report: cache.ReportCashFlow, Month: &m}
	return cached(ctx, s, key, func(ctx context.Context) (*MonthlyBreakdown, error) {
		rows, err := s.ledger.Select(ctx, ownerID, ledger.Filter{}.Until(m.End()))
		if err != nil {
			return nil, fmt.Errorf("select rows: %w", err)
		}
		b := Breakdown(rows, m)
		return &b, nil
	})
}

// MonthlyProfit returns the profit of one month.
func (s *Service) MonthlyProfit(ctx context.Context, ownerID string, m types.Month) (*MonthlyProfit, error) {
	if m.IsZero() {
		return nil, apperror.NewValidation("month is required")
	}
	key := cache.Key{OwnerID: ownerID, Report: cache.ReportProfit, Month: &m}
	return cached(ctx, s, key, func(ctx context.Context) (*MonthlyProfit, error) {
		rows, err := s.ledger.Select(ctx, ownerID, ledger.Filter{}.InMonth(m))
		if err != nil {
			return nil, fmt.Errorf("select rows: %w", err)
		}
		p := ProfitOf(rows, m)
		return &p, nil
	})
}

// AvailableMonths lists the months having rows, newest first.
func (s *Service) AvailableMonths(ctx context.Context, ownerID string) ([]ledger.MonthCount, error) {
	key := cache.Key{OwnerID: ownerID, Report: cache.ReportMonths}
	return cached(ctx, s, key, func(ctx context.Context) ([]ledger.MonthCount, error) {
		counts, err := s.ledger.MonthCounts(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		slices.SortFunc(counts, func(a, b ledger.MonthCount) int {
			switch {
			case b.Month.Before(a.Month):
				return -1
			case a.Month.Before(b.Month):
				return 1
			}
			return 0
		})
		if counts == nil {
			counts = []ledger.MonthCount{}
		}
		return counts, nil
	})
}

// SumWhere sums the rows selected by a CEL expression, e.g.
// `detail == "TAX" && date >= timestamp("2025-01-01T00:00:00Z")`.
func (s *Service) SumWhere(ctx context.Context, ownerID, expr string) (*SumResult, error) {
	pred, err := ledger.CompilePredicate(expr)
	if err != nil {
		return nil, err
	}

	var res *SumResult
	err = s.readOnly(ctx, func(ctx context.Context) error {
		total, count, err := s.ledger.SumMatching(ctx, ownerID, pred)
		if err != nil {
			return err
		}
		res = &SumResult{Expression: expr, Total: total, Count: count}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
