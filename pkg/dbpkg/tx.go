package dbpkg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog"
)

type txKey struct{}

// Conn returns the transaction opened by WithinTx for ctx, or db when there is none.
//
// Repositories call it on every query so the same repo works inside and outside a unit of work.
func Conn(ctx context.Context, db SQLInterface) SQLInterface {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}

	return db
}

// Transactor runs units of work inside a single database transaction.
type Transactor struct {
	db   *sql.DB
	opts *sql.TxOptions
}

// NewTransactor returns Transactor that opens transactions on db.
func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTx calls fn with a context that carries a new transaction.
//
// The transaction is committed when fn returns nil and rolled back on any error or panic.
// When ctx already carries a transaction fn joins it.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	l := zerolog.Ctx(ctx)

	tx, err := t.db.BeginTx(ctx, t.opts)
	if err != nil {
		l.Error().Err(err).Msg("begin transaction")
		return err
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			l.Error().Err(err).Msg("rollback transaction")
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Msg("commit transaction")
		return err
	}

	return nil
}

// Atomic reports that WithinTx makes the unit of work all-or-nothing.
func (t *Transactor) Atomic() bool { return true }

// Sequential runs units of work without a transaction, every statement commits on its own.
type Sequential struct{}

// WithinTx calls fn with ctx unchanged.
func (Sequential) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Atomic reports that a failed unit of work keeps the statements that already ran.
func (Sequential) Atomic() bool { return false }
