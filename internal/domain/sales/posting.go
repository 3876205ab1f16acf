package sales

import (
	"context"
	"fmt"

	"helmetledger/internal/core/cache"
	"helmetledger/internal/core/events"
	"helmetledger/internal/core/id"
	"helmetledger/internal/domain/ledger"
	"helmetledger/pkg/logger"
)

// recordSaleTransactions posts one INCOME row per payment and one COGS row
// for the frozen cost of the sale. Rows already present are left untouched,
// so running it again never duplicates anything.
func (s *Service) recordSaleTransactions(ctx context.Context, sale *Sale) error {
	if sale.IsDerivedFromExchange {
		return nil
	}

	ref := ledger.SaleRef(sale.ID)
	desc := fmt.Sprintf("Sale %s", sale.Number)

	for _, p := range sale.Payments {
		row := ledger.New(sale.OwnerID, sale.Date, ledger.Income, ledger.DetailSale, p.Amount, p.PaymentMethod, ref).
			WithSubID(p.ID.String()).
			WithDescription(desc)
		if _, err := s.ledger.PostIdempotent(ctx, row); err != nil {
			return fmt.Errorf("post sale income: %w", err)
		}
	}

	cost := sale.TotalCost()
	if !cost.IsPositive() {
		return nil
	}

	existing, err := s.ledger.FindByReference(ctx, sale.OwnerID, ref)
	if err != nil {
		return fmt.Errorf("find sale transactions: %w", err)
	}
	for _, t := range existing {
		if t.Detail == ledger.DetailCOGS {
			return nil
		}
	}

	cogs := ledger.New(sale.OwnerID, sale.Date, ledger.Expense, ledger.DetailCOGS, cost, "", ref).
		WithSubID(ledger.SubCOGS).
		WithoutWallet().
		WithDescription("Cost of goods sold, " + desc)
	if _, err := s.ledger.PostIdempotent(ctx, cogs); err != nil {
		return fmt.Errorf("post cost of goods sold: %w", err)
	}
	return nil
}

// RepostTransactions re-runs the ledger posting of a sale and returns its rows.
// It is safe to call any number of times.
func (s *Service) RepostTransactions(ctx context.Context, ownerID string, saleID id.ID) ([]ledger.Transaction, error) {
	var rows []ledger.Transaction
	var sale *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.repo.GetByID(ctx, ownerID, saleID)
		if err != nil {
			return err
		}
		if err := s.recordSaleTransactions(ctx, sale); err != nil {
			return err
		}
		rows, err = s.ledger.FindByReference(ctx, ownerID, ledger.SaleRef(saleID))
		if err != nil {
			return err
		}
		return s.publish(ctx, events.SaleReposted, sale, events.Payload{"rows": len(rows)})
	})
	if err != nil {
		return nil, err
	}

	cache.NotifyAfterCommit(ctx, s.cache, cache.ScopeFor(ownerID, sale.Date))
	logger.Info(ctx, "sale transactions reposted", "sale_id", saleID, "rows", len(rows))
	return rows, nil
}
