// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
)

// foreignKeyViolation is the postgres error code raised when a referenced row is deleted.
const foreignKeyViolation = "23503"

// RepoPGS facilitates account repository layer logic.
//
// It is the only component that writes account balances.
type RepoPGS struct {
	db    dbpkg.SQLInterface
	floor decimal.NullDecimal
}

// Option configures RepoPGS.
type Option func(*RepoPGS)

// WithBalanceFloor makes AddBalance refuse changes that leave the balance below floor.
func WithBalanceFloor(floor decimal.NullDecimal) Option {
	return func(r *RepoPGS) {
		r.floor = floor
	}
}

// NewRepoPGS returns account RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface, opts ...Option) *RepoPGS {
	r := &RepoPGS{
		db: db,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (domain.Account, error) {
	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.OwnerID,
		&a.Balance,
		&a.CreatedAt,
	)

	return a, err
}

const addBalanceQuery = `
UPDATE accounts
SET balance = balance + $1
WHERE id = $2
  AND ($3::numeric IS NULL OR balance + $1 >= $3::numeric)
RETURNING id, owner_id, balance, created_at
`

const existsQuery = `
SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)
`

// AddBalance adds delta to the account balance in a single statement and returns the changed account.
//
// The increment happens inside the store, so concurrent calls for the same account never lose
// an update. With a floor configured the same statement refuses to cross it.
func (r *RepoPGS) AddBalance(ctx context.Context, id int64, delta decimal.Decimal) (domain.Account, error) {
	l := zerolog.Ctx(ctx)
	conn := dbpkg.Conn(ctx, r.db)

	a, err := scanAccount(conn.QueryRowContext(ctx, addBalanceQuery, delta, id, r.floor))
	if err == nil {
		return a, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		l.Error().Err(err).Int64("account_id", id).Str("delta", delta.String()).Msg("add balance")
		return domain.Account{}, domain.ErrInternal
	}

	if !r.floor.Valid {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	// No row was updated: either the account is missing or the floor refused the change.
	var exists bool
	if err := conn.QueryRowContext(ctx, existsQuery, id).Scan(&exists); err != nil {
		l.Error().Err(err).Int64("account_id", id).Msg("check account existence")
		return domain.Account{}, domain.ErrInternal
	}

	if !exists {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	l.Info().Int64("account_id", id).Str("delta", delta.String()).
		Str("floor", r.floor.Decimal.String()).Msg("balance floor reached")

	return domain.Account{}, domain.ErrInsufficientBalance
}

const createQuery = `
INSERT INTO
    accounts (owner_id, balance)
VALUES
    ($1, $2)
RETURNING id, owner_id, balance, created_at
`

// Create creates the account with the opening balance and then returns it.
func (r *RepoPGS) Create(ctx context.Context, ownerID int64, balance decimal.Decimal) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(dbpkg.Conn(ctx, r.db).QueryRowContext(ctx, createQuery, ownerID, balance))
	if err != nil {
		l.Error().Err(err).Int64("owner_id", ownerID).Msg("create account")

		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Constraint == "accounts_owner_id_check" {
			return domain.Account{}, domain.ErrInvalidOwnerID
		}

		return domain.Account{}, domain.ErrInternal
	}

	return a, nil
}

const deleteQuery = `
DELETE FROM accounts
WHERE id = $1 AND owner_id = $2
RETURNING id, owner_id, balance, created_at
`

// Delete removes the account with the given id when it belongs to ownerID and returns it.
func (r *RepoPGS) Delete(ctx context.Context, id, ownerID int64) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(dbpkg.Conn(ctx, r.db).QueryRowContext(ctx, deleteQuery, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, domain.ErrAccountNotFound
		}

		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			l.Info().Err(err).Int64("account_id", id).Msg("delete referenced account")
			return domain.Account{}, domain.ErrAccountInUse
		}

		l.Error().Err(err).Int64("account_id", id).Msg("delete account")

		return domain.Account{}, domain.ErrInternal
	}

	return a, nil
}

const listQuery = `
SELECT
	id, owner_id, balance, created_at
FROM accounts
WHERE owner_id = $1
ORDER BY id
`

// List returns every account owned by ownerID ordered by id.
func (r *RepoPGS) List(ctx context.Context, ownerID int64) ([]domain.Account, error) {
	l := zerolog.Ctx(ctx)

	rows, err := dbpkg.Conn(ctx, r.db).QueryContext(ctx, listQuery, ownerID)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, domain.ErrInternal
	}
	defer rows.Close()

	items := []domain.Account{}

	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, domain.ErrInternal
		}

		items = append(items, a)
	}

	if err := rows.Close(); err != nil {
		l.Error().Err(err).Send()
		return nil, domain.ErrInternal
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, domain.ErrInternal
	}

	return items, nil
}

const lockQuery = `
SELECT id
FROM accounts
WHERE id = ANY($1)
ORDER BY id
FOR UPDATE
`

// LockForUpdate row-locks the given accounts in ascending id order.
//
// It only holds the locks when ctx carries a transaction. Ids that do not exist are skipped.
func (r *RepoPGS) LockForUpdate(ctx context.Context, ids ...int64) error {
	l := zerolog.Ctx(ctx)

	rows, err := dbpkg.Conn(ctx, r.db).QueryContext(ctx, lockQuery, pq.Array(ids))
	if err != nil {
		l.Error().Err(err).Interface("account_ids", ids).Msg("lock accounts")
		return domain.ErrInternal
	}
	defer rows.Close()

	locked := 0
	for rows.Next() {
		locked++
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Interface("account_ids", ids).Msg("lock accounts")
		return domain.ErrInternal
	}

	l.Debug().Interface("account_ids", ids).Int("locked", locked).Msg("accounts locked")

	return nil
}
