package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"helmetledger/internal/core/tx"
	"helmetledger/pkg/logger"
)

var tracer = otel.Tracer("helmetledger/postgres")

// defaultStatementTimeout bounds each statement of a unit of work.
const defaultStatementTimeout = 30 * time.Second

// Querier is the subset of pgx shared by the pool and a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxManager runs units of work on the pool. The open transaction travels in
// the context; repositories pick it up through GetQuerier.
//
// Units run at READ COMMITTED. Operations that read-then-write stock or
// sale state lock their rows with SELECT ... FOR UPDATE.
type TxManager struct {
	pool *pgxpool.Pool
}

var _ tx.ReadOnlyManager = (*TxManager)(nil)

func NewTxManager(pool *Pool) *TxManager {
	return &TxManager{pool: pool.Pool}
}

type txKey struct{}

// RunInTransaction implements tx.Manager. A transaction already on ctx is
// joined, not nested.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, pgx.ReadWrite, fn)
}

// ReadOnly implements tx.ReadOnlyManager.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, pgx.ReadOnly, fn)
}

func (m *TxManager) run(ctx context.Context, mode pgx.TxAccessMode, fn func(ctx context.Context) error) error {
	if m.GetTx(ctx) != nil {
		return fn(ctx)
	}

	ctx, span := tracer.Start(ctx, "unit_of_work", trace.WithAttributes(
		attribute.String("db.tx.access_mode", string(mode)),
	))
	defer span.End()

	dbTx, err := m.begin(ctx, mode)
	if err != nil {
		span.SetStatus(codes.Error, "begin")
		return err
	}

	if err := fn(context.WithValue(ctx, txKey{}, dbTx)); err != nil {
		// ctx may be cancelled by now; rollback must still reach the server.
		if rbErr := dbTx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			logger.Error(ctx, "rollback failed", "error", rbErr, "cause", err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "rolled back")
		return err
	}

	if err := dbTx.Commit(ctx); err != nil {
		span.SetStatus(codes.Error, "commit")
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (m *TxManager) begin(ctx context.Context, mode pgx.TxAccessMode) (pgx.Tx, error) {
	dbTx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: mode})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	timeout := fmt.Sprintf("%dms", defaultStatementTimeout.Milliseconds())
	if _, err := dbTx.Exec(ctx, "SELECT set_config('statement_timeout', $1, true)", timeout); err != nil {
		_ = dbTx.Rollback(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("set statement timeout: %w", err)
	}
	return dbTx, nil
}

// GetTx returns the transaction on ctx, or nil.
func (m *TxManager) GetTx(ctx context.Context) pgx.Tx {
	dbTx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return dbTx
}

// GetQuerier returns the transaction on ctx, or the pool outside one.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	if dbTx := m.GetTx(ctx); dbTx != nil {
		return dbTx
	}
	return m.pool
}
