// Package document_repo provides PostgreSQL implementations for sale and
// exchange documents.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/id"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain"
	"helmetledger/internal/domain/sales"
	"helmetledger/internal/infrastructure/storage/postgres"
)

const (
	salesTable        = "sales"
	saleItemsTable    = "sale_items"
	salePaymentsTable = "sale_payments"
)

var (
	saleColumns    = postgres.ExtractDBColumns[sales.Sale]()
	itemColumns    = postgres.ExtractDBColumns[sales.Item]()
	paymentColumns = postgres.ExtractDBColumns[sales.Payment]()
)

// SaleRepo implements sales.Repository.
type SaleRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ sales.Repository = (*SaleRepo)(nil)

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txManager *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		txManager: txManager,
		builder:   postgres.Builder(),
	}
}

// Create inserts the header, then items and payments.
func (r *SaleRepo) Create(ctx context.Context, sale *sales.Sale) error {
	sql, args, err := r.builder.Insert(salesTable).SetMap(postgres.StructToMap(sale)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return apperror.NewDuplicate("sale", "number", sale.Number)
		}
		return fmt.Errorf("insert sale: %w", err)
	}

	return r.insertLines(ctx, sale)
}

// insertLines writes the items and payments of sale.
func (r *SaleRepo) insertLines(ctx context.Context, sale *sales.Sale) error {
	items := make([][]any, 0, len(sale.Items))
	for i := range sale.Items {
		sale.Items[i].SaleID = sale.ID
		items = append(items, postgres.StructValues(sale.Items[i]))
	}
	payments := make([][]any, 0, len(sale.Payments))
	for i := range sale.Payments {
		sale.Payments[i].SaleID = sale.ID
		payments = append(payments, postgres.StructValues(sale.Payments[i]))
	}

	if _, err := r.txManager.InsertRows(ctx, saleItemsTable, itemColumns, items); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}
	if _, err := r.txManager.InsertRows(ctx, salePaymentsTable, paymentColumns, payments); err != nil {
		return fmt.Errorf("insert payments: %w", err)
	}
	return nil
}

// Replace writes the header and swaps the items and payments.
func (r *SaleRepo) Replace(ctx context.Context, sale *sales.Sale) error {
	if err := r.updateHeader(ctx, sale); err != nil {
		return err
	}
	err := r.txManager.ExecAll(ctx, []postgres.Statement{
		{SQL: `DELETE FROM sale_items WHERE sale_id = $1`, Args: []any{sale.ID}},
		{SQL: `DELETE FROM sale_payments WHERE sale_id = $1`, Args: []any{sale.ID}},
	})
	if err != nil {
		return fmt.Errorf("clear sale lines: %w", err)
	}
	return r.insertLines(ctx, sale)
}

func (r *SaleRepo) updateHeader(ctx context.Context, sale *sales.Sale) error {
	values := postgres.StructToMap(sale)
	for _, col := range []string{"id", "owner_id", "number", "created_at"} {
		delete(values, col)
	}

	sql, args, err := r.builder.Update(salesTable).
		SetMap(values).
		Where(squirrel.Eq{"id": sale.ID, "owner_id": sale.OwnerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", sale.ID)
	}
	return nil
}

// Update writes the header and the cancellation state of the items in one batch.
func (r *SaleRepo) Update(ctx context.Context, sale *sales.Sale) error {
	if err := r.updateHeader(ctx, sale); err != nil {
		return err
	}

	stmts := make([]postgres.Statement, 0, len(sale.Items))
	for _, item := range sale.Items {
		stmts = append(stmts, postgres.Statement{
			SQL:  `UPDATE sale_items SET cancelled_quantity = $1, is_cancelled = $2 WHERE id = $3 AND sale_id = $4`,
			Args: []any{item.CancelledQuantity, item.IsCancelled, item.ID, sale.ID},
		})
	}
	if err := r.txManager.ExecAll(ctx, stmts); err != nil {
		return fmt.Errorf("update items: %w", err)
	}
	return nil
}

// Delete removes the sale; items and payments cascade.
func (r *SaleRepo) Delete(ctx context.Context, ownerID string, saleID id.ID) error {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM sales WHERE id = $1 AND owner_id = $2`, saleID, ownerID)
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", saleID)
	}
	return nil
}

func (r *SaleRepo) GetByID(ctx context.Context, ownerID string, saleID id.ID) (*sales.Sale, error) {
	return r.get(ctx, ownerID, saleID, "")
}

// GetForUpdate locks the header row until the transaction ends.
func (r *SaleRepo) GetForUpdate(ctx context.Context, ownerID string, saleID id.ID) (*sales.Sale, error) {
	if r.txManager.GetTx(ctx) == nil {
		return nil, fmt.Errorf("get sale for update: transaction required")
	}
	return r.get(ctx, ownerID, saleID, "FOR UPDATE")
}

func (r *SaleRepo) get(ctx context.Context, ownerID string, saleID id.ID, suffix string) (*sales.Sale, error) {
	q := r.builder.Select(saleColumns...).
		From(salesTable).
		Where(squirrel.Eq{"id": saleID, "owner_id": ownerID})
	if suffix != "" {
		q = q.Suffix(suffix)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var sale sales.Sale
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &sale, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale", saleID)
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	if err := r.loadChildren(ctx, []*sales.Sale{&sale}); err != nil {
		return nil, err
	}
	return &sale, nil
}

// List pages the owner's sales, newest first, with items and payments.
func (r *SaleRepo) List(ctx context.Context, ownerID string, f sales.ListFilter) (domain.ListResult[*sales.Sale], error) {
	q := r.builder.Select(saleColumns...).
		From(salesTable).
		Where(squirrel.Eq{"owner_id": ownerID})
	if f.Status != nil {
		q = q.Where(squirrel.Eq{"status": string(*f.Status)})
	}
	if f.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *f.DateFrom})
	}
	if f.DateTo != nil {
		q = q.Where(squirrel.Lt{"date": *f.DateTo})
	}

	result, err := postgres.SelectPage[*sales.Sale](ctx, r.txManager.GetQuerier(ctx), q, f.ListFilter,
		"date DESC", "created_at DESC")
	if err != nil {
		return result, err
	}
	if err := r.loadChildren(ctx, result.Items); err != nil {
		return result, err
	}
	return result, nil
}

// loadChildren fetches items and payments of all given sales in two queries.
func (r *SaleRepo) loadChildren(ctx context.Context, list []*sales.Sale) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]id.ID, len(list))
	byID := make(map[id.ID]*sales.Sale, len(list))
	for i, s := range list {
		ids[i] = s.ID
		byID[s.ID] = s
		s.Items = []sales.Item{}
		s.Payments = []sales.Payment{}
	}

	querier := r.txManager.GetQuerier(ctx)

	var items []sales.Item
	itemsSQL, itemsArgs, err := r.builder.Select(itemColumns...).
		From(saleItemsTable).
		Where("sale_id = ANY(?)", ids).
		OrderBy("sale_id", "line_no").
		ToSql()
	if err != nil {
		return fmt.Errorf("build items query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &items, itemsSQL, itemsArgs...); err != nil {
		return fmt.Errorf("get items: %w", err)
	}
	for _, item := range items {
		s := byID[item.SaleID]
		s.Items = append(s.Items, item)
	}

	var payments []sales.Payment
	paymentsSQL, paymentsArgs, err := r.builder.Select(paymentColumns...).
		From(salePaymentsTable).
		Where("sale_id = ANY(?)", ids).
		OrderBy("sale_id", "id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build payments query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &payments, paymentsSQL, paymentsArgs...); err != nil {
		return fmt.Errorf("get payments: %w", err)
	}
	for _, p := range payments {
		s := byID[p.SaleID]
		s.Payments = append(s.Payments, p)
	}
	return nil
}

func (r *SaleRepo) SumTotalProfit(ctx context.Context, ownerID string) (types.Money, error) {
	var total types.Money
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx,
		`SELECT COALESCE(SUM(total_profit), 0) FROM sales WHERE owner_id = $1`, ownerID).Scan(&total)
	if err != nil {
		return types.Zero(), fmt.Errorf("sum total profit: %w", err)
	}
	return total, nil
}

func (r *SaleRepo) IsLinkedToExchange(ctx context.Context, ownerID string, saleID id.ID) (bool, error) {
	var linked bool
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM product_exchanges
			WHERE owner_id = $1 AND (original_sale_id = $2 OR new_sale_id = $2)
		)
	`, ownerID, saleID).Scan(&linked)
	if err != nil {
		return false, fmt.Errorf("check exchange link: %w", err)
	}
	return linked, nil
}
