package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Statement is one SQL command with its arguments.
type Statement struct {
	SQL  string
	Args []any
}

// InsertRows writes rows into table, matching columns positionally. Inside a
// transaction it uses COPY; outside one it falls back to a multi-row INSERT.
func (m *TxManager) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if dbTx := m.GetTx(ctx); dbTx != nil {
		n, err := dbTx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
		if err != nil {
			return 0, fmt.Errorf("copy into %s: %w", table, err)
		}
		return n, nil
	}

	q := Builder().Insert(table).Columns(columns...)
	for _, row := range rows {
		q = q.Values(row...)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert into %s: %w", table, err)
	}
	tag, err := m.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	return tag.RowsAffected(), nil
}

// ExecAll runs stmts in order and stops at the first failure. Inside a
// transaction they travel in a single pgx batch.
func (m *TxManager) ExecAll(ctx context.Context, stmts []Statement) error {
	if len(stmts) == 0 {
		return nil
	}
	dbTx := m.GetTx(ctx)
	if dbTx == nil {
		for i, s := range stmts {
			if _, err := m.pool.Exec(ctx, s.SQL, s.Args...); err != nil {
				return fmt.Errorf("statement %d: %w", i, err)
			}
		}
		return nil
	}

	batch := &pgx.Batch{}
	for _, s := range stmts {
		batch.Queue(s.SQL, s.Args...)
	}
	results := dbTx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range stmts {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("statement %d: %w", i, err)
		}
	}
	return nil
}
