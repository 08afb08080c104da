package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// MySQLClient wraps direct SQL access for triggers and event logs.
type MySQLClient struct {
	db *sql.DB
}

// NewMySQLClient wires a sql.DB; pass a configured instance from main.
func NewMySQLClient(db *sql.DB) *MySQLClient {
	return &MySQLClient{db: db}
}

// execer is satisfied by both *sql.DB and *sql.Tx, so row-update and insert
// helpers can run against a plain connection or an open transaction without
// duplicating the SQL for each.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// execRowUpdate runs a single-row UPDATE and reports a not-found error when
// no row matched, via the standard RowsAffected check.
func execRowUpdate(ctx context.Context, exec execer, query, noun string, args ...interface{}) error {
	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", noun, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", noun, ErrRowNotFound)
	}
	return nil
}

// withTx runs fn inside one REPEATABLE READ transaction, committing on
// success and rolling back otherwise. This is what makes an invocation log
// write and its row's terminal/retry transition atomic: a crash or
// connection loss between the two writes can never leave one without the
// other, which is what RecordEventDelivered/RecordEventError/RecordEventRetry
// and their ST equivalents rely on.
func (c *MySQLClient) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
