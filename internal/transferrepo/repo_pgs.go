// Package transferrepo manages repository layer of transfers.
package transferrepo

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

// RepoPGS facilitates transfer repository layer logic.
//
// Transfers are append-only: there is no update or delete.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns transfer RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row scanner) (domain.Transfer, error) {
	var t domain.Transfer

	err := row.Scan(
		&t.ID,
		&t.SourceAccountID,
		&t.DestAccountID,
		&t.Amount,
		&t.CreatedAt,
	)

	return t, err
}

const createQuery = `
INSERT INTO
    transfers (source_account_id, dest_account_id, amount)
VALUES
    ($1, $2, $3)
RETURNING id, source_account_id, dest_account_id, amount, created_at
`

// Create inserts the transfer record and then returns it.
//
// It does not check that the accounts exist: only the table constraints apply, and the
// foreign keys are deferred to the end of the enclosing transaction.
func (r *RepoPGS) Create(ctx context.Context, sourceAccountID, destAccountID int64, amount decimal.Decimal) (domain.Transfer, error) {
	l := zerolog.Ctx(ctx)

	t, err := scanTransfer(dbpkg.Conn(ctx, r.db).QueryRowContext(ctx, createQuery, sourceAccountID, destAccountID, amount))
	if err != nil {
		l.Error().Err(err).
			Int64("source_account_id", sourceAccountID).
			Int64("dest_account_id", destAccountID).
			Str("amount", amount.String()).
			Msg("create transfer")

		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Constraint {
			case "transfers_source_account_id_fkey", "transfers_dest_account_id_fkey":
				return domain.Transfer{}, domain.ErrAccountNotFound
			case "transfers_amount_check":
				return domain.Transfer{}, domain.ErrNonPositiveAmount
			case "transfers_distinct_accounts_check":
				return domain.Transfer{}, domain.ErrSameAccount
			}
		}

		return domain.Transfer{}, domain.ErrInternal
	}

	return t, nil
}

const getQuery = `
SELECT
	id, source_account_id, dest_account_id, amount, created_at
FROM transfers
WHERE id = $1
`

// Get returns the transfer with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Transfer, error) {
	l := zerolog.Ctx(ctx)

	t, err := scanTransfer(dbpkg.Conn(ctx, r.db).QueryRowContext(ctx, getQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Transfer{}, domain.ErrTransferNotFound
		}

		l.Error().Err(err).Int64("transfer_id", id).Msg("get transfer")

		return domain.Transfer{}, domain.ErrInternal
	}

	return t, nil
}

const listForUserQuery = `
SELECT
	id, source_account_id, dest_account_id, amount, created_at
FROM transfers
WHERE
    source_account_id IN (SELECT id FROM accounts WHERE owner_id = $1)
    OR dest_account_id IN (SELECT id FROM accounts WHERE owner_id = $1)
ORDER BY id
`

// ListForUser returns every transfer whose source or destination account belongs to ownerID.
func (r *RepoPGS) ListForUser(ctx context.Context, ownerID int64) ([]domain.Transfer, error) {
	l := zerolog.Ctx(ctx)

	rows, err := dbpkg.Conn(ctx, r.db).QueryContext(ctx, listForUserQuery, ownerID)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, domain.ErrInternal
	}
	defer rows.Close()

	items := []domain.Transfer{}

	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, domain.ErrInternal
		}

		items = append(items, t)
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
