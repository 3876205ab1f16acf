// Package register_repo provides PostgreSQL implementations of the ledger and
// inventory registers.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/id"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain"
	"helmetledger/internal/domain/ledger"
	"helmetledger/internal/infrastructure/storage/postgres"
)

const transactionsTable = "transactions"

// onConflictSubReference skips a row whose (owner, reference, sub-reference)
// already exists. It matches the partial index transactions_reference_sub_uq,
// so rows without a sub-reference never conflict.
const onConflictSubReference = "ON CONFLICT (owner_id, reference, reference_sub_id) WHERE reference_sub_id IS NOT NULL DO NOTHING"

var transactionColumns = postgres.ExtractDBColumns[ledger.Transaction]()

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ ledger.Repository = (*LedgerRepo)(nil)

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   postgres.Builder(),
	}
}

// Insert stores a row. A duplicate sub-reference is reported as
// DuplicatePosting without aborting the surrounding transaction.
func (r *LedgerRepo) Insert(ctx context.Context, t *ledger.Transaction) error {
	sql, args, err := r.builder.Insert(transactionsTable).
		SetMap(postgres.StructToMap(t)).
		Suffix(onConflictSubReference).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		subID := ""
		if t.ReferenceSubID != nil {
			subID = *t.ReferenceSubID
		}
		return apperror.NewDuplicatePosting(t.Reference, subID)
	}
	return nil
}

func (r *LedgerRepo) Update(ctx context.Context, t *ledger.Transaction) error {
	values := postgres.StructToMap(t)
	delete(values, "id")
	delete(values, "owner_id")
	delete(values, "created_at")

	sql, args, err := r.builder.Update(transactionsTable).
		SetMap(values).
		Where(squirrel.Eq{"id": t.ID, "owner_id": t.OwnerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("transaction", t.ID)
	}
	return nil
}

func (r *LedgerRepo) Delete(ctx context.Context, ownerID string, txID id.ID) error {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM transactions WHERE id = $1 AND owner_id = $2`, txID, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("transaction", txID)
	}
	return nil
}

func (r *LedgerRepo) DeleteByReference(ctx context.Context, ownerID, reference string) (int64, error) {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM transactions WHERE owner_id = $1 AND reference = $2`, ownerID, reference)
	if err != nil {
		return 0, fmt.Errorf("delete by reference: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *LedgerRepo) GetByID(ctx context.Context, ownerID string, txID id.ID) (*ledger.Transaction, error) {
	sql, args, err := r.baseSelect(ownerID).Where(squirrel.Eq{"id": txID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var t ledger.Transaction
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("transaction", txID)
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &t, nil
}

func (r *LedgerRepo) FindByReference(ctx context.Context, ownerID, reference string) ([]ledger.Transaction, error) {
	return r.selectOrdered(ctx, r.baseSelect(ownerID).Where(squirrel.Eq{"reference": reference}))
}

// Sum adds the matching amounts in the database.
func (r *LedgerRepo) Sum(ctx context.Context, ownerID string, f ledger.Filter) (types.Money, error) {
	q := ApplyFilter(
		r.builder.Select("COALESCE(SUM(amount), 0)").
			From(transactionsTable).
			Where(squirrel.Eq{"owner_id": ownerID}),
		f,
	)
	sql, args, err := q.ToSql()
	if err != nil {
		return types.Zero(), fmt.Errorf("build sum: %w", err)
	}

	var total types.Money
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return types.Zero(), fmt.Errorf("sum transactions: %w", err)
	}
	return total, nil
}

func (r *LedgerRepo) Select(ctx context.Context, ownerID string, f ledger.Filter) ([]ledger.Transaction, error) {
	return r.selectOrdered(ctx, ApplyFilter(r.baseSelect(ownerID), f))
}

// List pages the owner's rows, newest first.
func (r *LedgerRepo) List(ctx context.Context, ownerID string, f ledger.ListFilter) (domain.ListResult[ledger.Transaction], error) {
	q := r.baseSelect(ownerID)
	if f.Direction != nil {
		q = q.Where(squirrel.Eq{"direction": *f.Direction})
	}
	if f.Detail != nil {
		q = q.Where(squirrel.Eq{"detail": *f.Detail})
	}
	if f.Wallet != nil {
		q = q.Where(squirrel.Eq{"wallet_destination": *f.Wallet})
	}
	if f.Month != nil {
		q = q.Where(squirrel.GtOrEq{"date": f.Month.Start()}).
			Where(squirrel.Lt{"date": f.Month.End()})
	}
	return postgres.SelectPage[ledger.Transaction](ctx, r.txManager.GetQuerier(ctx), q, f.ListFilter,
		"date DESC", "created_at DESC", "id DESC")
}

// MonthCounts returns the number of rows per UTC month, newest month first.
func (r *LedgerRepo) MonthCounts(ctx context.Context, ownerID string) ([]ledger.MonthCount, error) {
	var rows []struct {
		Month string `db:"month"`
		Count int64  `db:"count"`
	}
	err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, `
		SELECT to_char(date AT TIME ZONE 'UTC', 'YYYY-MM') AS month, COUNT(*) AS count
		FROM transactions
		WHERE owner_id = $1
		GROUP BY 1
		ORDER BY 1 DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("month counts: %w", err)
	}

	out := make([]ledger.MonthCount, 0, len(rows))
	for _, row := range rows {
		m, err := types.ParseMonth(row.Month)
		if err != nil {
			return nil, fmt.Errorf("parse month %q: %w", row.Month, err)
		}
		out = append(out, ledger.MonthCount{Month: m, Count: row.Count})
	}
	return out, nil
}

func (r *LedgerRepo) baseSelect(ownerID string) squirrel.SelectBuilder {
	return r.builder.Select(transactionColumns...).
		From(transactionsTable).
		Where(squirrel.Eq{"owner_id": ownerID})
}

func (r *LedgerRepo) selectOrdered(ctx context.Context, q squirrel.SelectBuilder) ([]ledger.Transaction, error) {
	sql, args, err := q.OrderBy("date", "created_at", "id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows := []ledger.Transaction{}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	return rows, nil
}

// ApplyFilter translates a ledger filter into WHERE clauses. From is
// inclusive and To exclusive, like ledger.Filter.Matches.
func ApplyFilter(q squirrel.SelectBuilder, f ledger.Filter) squirrel.SelectBuilder {
	if f.AffectsProfit != nil {
		q = q.Where(squirrel.Eq{"affects_profit": *f.AffectsProfit})
	}
	if f.AffectsCash != nil {
		q = q.Where(squirrel.Eq{"affects_cash": *f.AffectsCash})
	}
	if f.Wallet != nil {
		q = q.Where(squirrel.Eq{"wallet_destination": string(*f.Wallet)})
	}
	if f.HasWallet != nil {
		if *f.HasWallet {
			q = q.Where(squirrel.NotEq{"wallet_destination": nil})
		} else {
			q = q.Where(squirrel.Eq{"wallet_destination": nil})
		}
	}
	if f.Direction != nil {
		q = q.Where(squirrel.Eq{"direction": string(*f.Direction)})
	}
	if len(f.Details) > 0 {
		q = q.Where(squirrel.Eq{"detail": detailStrings(f.Details)})
	}
	if len(f.ExcludeDetails) > 0 {
		q = q.Where(squirrel.NotEq{"detail": detailStrings(f.ExcludeDetails)})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"date": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.Lt{"date": *f.To})
	}
	return q
}

func detailStrings(details []ledger.Detail) []string {
	out := make([]string, len(details))
	for i, d := range details {
		out[i] = string(d)
	}
	return out
}
