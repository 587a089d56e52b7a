// Package dbx holds the query-target abstraction shared by every
// repository. Repositories take a DBTX instead of *sql.DB, so the same
// code runs standalone or inside a transaction (session rotation relies
// on this for its delete+insert pair).
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the slice of database/sql that repositories actually call.
// *sql.DB and *sql.Tx both satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn against a transactional handle, committing when fn
// returns nil and rolling back on error or panic. Panics are rethrown
// after the rollback.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
