// Package dbx holds the small database/sql helpers the repositories share.
package dbx

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the repositories map to domain errors.
const (
	// UniqueViolation is a unique index conflict.
	UniqueViolation = "23505"
	// InvalidTextRepresentation is a value that does not parse as the column
	// type, such as a malformed UUID.
	InvalidTextRepresentation = "22P02"
)

// DBTX is satisfied by *sql.DB and *sql.Tx, so a repository built on it
// works both inside and outside WithTx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn in a transaction on db. The transaction commits when fn
// returns nil and rolls back otherwise. A panic in fn rolls back and is
// re-raised.
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

	return fn(ctx, tx)
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// error, as returned through pgx/stdlib.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == UniqueViolation
}

// IsInvalidText reports whether err is a Postgres invalid text
// representation error.
func IsInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == InvalidTextRepresentation
}
