// Package accountservice manages business logic layer of accounts.
package accountservice

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/validatorpkg"
)

// Repo provides data access layer interface needed by account service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package accountservice
type Repo interface {
	Create(ctx context.Context, ownerID int64, balance decimal.Decimal) (domain.Account, error)
	List(ctx context.Context, ownerID int64) ([]domain.Account, error)
	AddBalance(ctx context.Context, id int64, delta decimal.Decimal) (domain.Account, error)
	Delete(ctx context.Context, id, ownerID int64) (domain.Account, error)
	LockForUpdate(ctx context.Context, ids ...int64) error
}

// Service facilitates account service layer logic.
type Service struct {
	repo     Repo
	validate *validator.Validate
}

// New returns account service struct to manage account bussines logic.
func New(ar Repo) *Service {
	return &Service{
		repo:     ar,
		validate: validatorpkg.New(),
	}
}

// fieldErrors maps the first invalid field of a request to its domain error.
var fieldErrors = map[string]error{
	"ID":      domain.ErrInvalidAccountID,
	"OwnerID": domain.ErrInvalidOwnerID,
	"Amount":  domain.ErrInvalidAmount,
	"Delta":   domain.ErrInvalidAmount,
}

func (s *Service) validRequest(ctx context.Context, arg any) error {
	err := s.validate.StructCtx(ctx, arg)
	if err == nil {
		return nil
	}

	zerolog.Ctx(ctx).Info().Err(err).Send()

	if field, ok := validatorpkg.FirstField(err); ok {
		if fieldErr, ok := fieldErrors[field]; ok {
			return fieldErr
		}
	}

	return domain.ErrInvalidRequest
}

// Create opens an account for the owner with the given opening balance.
func (s *Service) Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	if err := s.validRequest(ctx, arg); err != nil {
		return domain.Account{}, err
	}

	// Validated by the decimal rule above.
	amount := decimal.RequireFromString(arg.Amount)

	return s.repo.Create(ctx, arg.OwnerID, amount)
}

// List returns accounts that are owned by the given user.
func (s *Service) List(ctx context.Context, ownerID int64) ([]domain.Account, error) {
	if ownerID <= 0 {
		zerolog.Ctx(ctx).Info().Int64("owner_id", ownerID).Msg("invalid owner id")
		return nil, domain.ErrInvalidOwnerID
	}

	return s.repo.List(ctx, ownerID)
}

// Delete removes the account when it belongs to the owner and returns it.
func (s *Service) Delete(ctx context.Context, arg domain.DeleteAccountParams) (domain.Account, error) {
	if err := s.validRequest(ctx, arg); err != nil {
		return domain.Account{}, err
	}

	return s.repo.Delete(ctx, arg.ID, arg.OwnerID)
}

// Patch applies the signed delta to the account balance and returns the changed account.
func (s *Service) Patch(ctx context.Context, arg domain.PatchAccountParams) (domain.Account, error) {
	if err := s.validRequest(ctx, arg); err != nil {
		return domain.Account{}, err
	}

	delta := decimal.RequireFromString(arg.Delta)

	return s.repo.AddBalance(ctx, arg.ID, delta)
}

// Lock row-locks the accounts for the rest of the transaction carried by ctx.
func (s *Service) Lock(ctx context.Context, ids ...int64) error {
	return s.repo.LockForUpdate(ctx, ids...)
}
