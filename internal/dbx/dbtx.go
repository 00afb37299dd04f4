// Package dbx holds the transaction plumbing shared by the server
// repositories. Vote and scheduler paths lock rows with SELECT ... FOR
// UPDATE, so a transaction that Postgres aborts as a deadlock victim or a
// serialization failure is replayed from the start.
package dbx

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// MaxAttempts bounds how many times WithTx runs fn for one call.
const MaxAttempts = 3

// Postgres SQLSTATE codes that mean "the transaction lost a race, try again".
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// DBTX is what the repositories query through: *sql.DB outside a
// transaction, *sql.Tx inside one.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Retryable reports whether err is a Postgres conflict that aborts the
// whole transaction without leaving any of its writes behind.
func Retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeSerializationFailure || pgErr.Code == codeDeadlockDetected
}

// WithTx runs fn inside a transaction. It commits when fn returns nil and
// rolls back otherwise; a panic in fn rolls back and is rethrown. When fn or
// the commit fails with a Retryable error the whole transaction is run again,
// at most MaxAttempts times, so fn must not have side effects outside tx.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    item, err := repos.Items(tx).GetForUpdate(ctx, id)
//	    ...
//	    return repos.Items(tx).Save(ctx, item)
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) error {
	var err error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		err = runTx(ctx, db, opts, fn)
		if err == nil || !Retryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

func runTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
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

	return fn(ctx, tx)
}
