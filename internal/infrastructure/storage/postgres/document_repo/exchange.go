package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/id"
	"helmetledger/internal/domain/exchange"
	"helmetledger/internal/infrastructure/storage/postgres"
)

const exchangesTable = "product_exchanges"

var exchangeColumns = postgres.ExtractDBColumns[exchange.ProductExchange]()

// ExchangeRepo implements exchange.Repository.
type ExchangeRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ exchange.Repository = (*ExchangeRepo)(nil)

// NewExchangeRepo creates a new exchange repository.
func NewExchangeRepo(txManager *postgres.TxManager) *ExchangeRepo {
	return &ExchangeRepo{
		txManager: txManager,
		builder:   postgres.Builder(),
	}
}

func (r *ExchangeRepo) Create(ctx context.Context, ex *exchange.ProductExchange) error {
	sql, args, err := r.builder.Insert(exchangesTable).SetMap(postgres.StructToMap(ex)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert exchange: %w", err)
	}
	return nil
}

func (r *ExchangeRepo) GetByID(ctx context.Context, ownerID string, exchangeID id.ID) (*exchange.ProductExchange, error) {
	sql, args, err := r.builder.Select(exchangeColumns...).
		From(exchangesTable).
		Where(squirrel.Eq{"id": exchangeID, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ex exchange.ProductExchange
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &ex, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("exchange", exchangeID)
		}
		return nil, fmt.Errorf("get exchange: %w", err)
	}
	return &ex, nil
}

// ListBySale returns the exchanges touching the sale, oldest first.
func (r *ExchangeRepo) ListBySale(ctx context.Context, ownerID string, saleID id.ID) ([]exchange.ProductExchange, error) {
	sql, args, err := r.builder.Select(exchangeColumns...).
		From(exchangesTable).
		Where(squirrel.Eq{"owner_id": ownerID}).
		Where(squirrel.Or{
			squirrel.Eq{"original_sale_id": saleID},
			squirrel.Eq{"new_sale_id": saleID},
		}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	exchanges := []exchange.ProductExchange{}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &exchanges, sql, args...); err != nil {
		return nil, fmt.Errorf("list exchanges: %w", err)
	}
	return exchanges, nil
}
