// Package transferservice manages business logic layer of transfers.
package transferservice

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/validatorpkg"
)

const tracerName = "github.com/go-petr/pet-ledger/internal/transferservice"

// Repo provides data access layer interface needed by transfer service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package transferservice
type Repo interface {
	Create(ctx context.Context, sourceAccountID, destAccountID int64, amount decimal.Decimal) (domain.Transfer, error)
	ListForUser(ctx context.Context, ownerID int64) ([]domain.Transfer, error)
}

// AccountService provides the balance operations a transfer is made of.
type AccountService interface {
	Patch(ctx context.Context, arg domain.PatchAccountParams) (domain.Account, error)
	Lock(ctx context.Context, ids ...int64) error
}

// TxRunner runs the recorded, debited and credited steps as one unit of work.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	Atomic() bool
}

// Service facilitates transfer service layer logic.
type Service struct {
	repo           Repo
	accountService AccountService
	tx             TxRunner
	tracer         trace.Tracer
	validate       *validator.Validate
}

// Option configures Service.
type Option func(*Service)

// WithTracer sets the tracer used for transfer spans. The global provider is used by default.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New returns transfer service struct to manage transfer bussines logic.
func New(tr Repo, as AccountService, tx TxRunner, opts ...Option) *Service {
	s := &Service{
		repo:           tr,
		accountService: as,
		tx:             tx,
		tracer:         otel.Tracer(tracerName),
		validate:       validatorpkg.New(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

var fieldErrors = map[string]error{
	"SourceAccountID": domain.ErrInvalidAccountID,
	"DestAccountID":   domain.ErrInvalidAccountID,
	"Amount":          domain.ErrInvalidAmount,
}

func (s *Service) validRequest(ctx context.Context, arg domain.CreateTransferParams) (decimal.Decimal, error) {
	l := zerolog.Ctx(ctx)

	if err := s.validate.StructCtx(ctx, arg); err != nil {
		l.Info().Err(err).Send()

		if field, ok := validatorpkg.FirstField(err); ok {
			if fieldErr, ok := fieldErrors[field]; ok {
				return decimal.Decimal{}, fieldErr
			}
		}

		return decimal.Decimal{}, domain.ErrInvalidRequest
	}

	amount := decimal.RequireFromString(arg.Amount)
	if !amount.IsPositive() {
		l.Info().Str("amount", arg.Amount).Msg("non-positive transfer amount")
		return decimal.Decimal{}, domain.ErrNonPositiveAmount
	}

	if arg.SourceAccountID == arg.DestAccountID {
		l.Info().Int64("account_id", arg.SourceAccountID).Msg("transfer to the same account")
		return decimal.Decimal{}, domain.ErrSameAccount
	}

	return amount, nil
}

// Transfer records the transfer, debits the source and credits the destination, in that order.
//
// Validation failures are returned as is. Any failure after validation is a
// *domain.TransferError that names the last step reached. With an atomic TxRunner the
// three writes commit together or not at all; otherwise the error reports an orphaned
// record or an unbalanced ledger.
func (s *Service) Transfer(ctx context.Context, arg domain.CreateTransferParams) (domain.TransferResult, error) {
	ctx, span := s.tracer.Start(ctx, "transferservice.Transfer", trace.WithAttributes(
		attribute.Int64("transfer.source_account_id", arg.SourceAccountID),
		attribute.Int64("transfer.dest_account_id", arg.DestAccountID),
		attribute.String("transfer.amount", arg.Amount),
		attribute.Bool("transfer.atomic", s.tx.Atomic()),
	))
	defer span.End()

	amount, err := s.validRequest(ctx, arg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return domain.TransferResult{}, err
	}

	var (
		result  domain.TransferResult
		reached = domain.StepValidated
		failed  *domain.TransferError
	)

	span.AddEvent(reached.String())

	advance := func(step domain.TransferStep) {
		reached = step
		span.AddEvent(step.String())
	}

	fail := func(cause error) error {
		failed = s.transferError(reached, result.Transfer.ID, arg, amount, cause)
		return failed
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if s.tx.Atomic() {
			if err := s.accountService.Lock(ctx, arg.SourceAccountID, arg.DestAccountID); err != nil {
				return fail(err)
			}
		}

		transfer, err := s.repo.Create(ctx, arg.SourceAccountID, arg.DestAccountID, amount)
		if err != nil {
			return fail(err)
		}

		result.Transfer = transfer
		advance(domain.StepRecorded)

		result.SourceAccount, err = s.accountService.Patch(ctx, domain.PatchAccountParams{
			ID:    arg.SourceAccountID,
			Delta: amount.Neg().String(),
		})
		if err != nil {
			return fail(err)
		}

		advance(domain.StepSourceDebited)

		result.DestAccount, err = s.accountService.Patch(ctx, domain.PatchAccountParams{
			ID:    arg.DestAccountID,
			Delta: amount.String(),
		})
		if err != nil {
			return fail(err)
		}

		advance(domain.StepDestCredited)

		return nil
	})
	if err != nil {
		// Every step succeeded and the commit did not.
		if failed == nil {
			failed = s.transferError(reached, result.Transfer.ID, arg, amount, err)
			failed.RolledBack = false
			failed.CommitUnknown = true
		}

		s.logFailure(ctx, failed)
		span.RecordError(failed)
		span.SetStatus(codes.Error, failed.Error())

		return domain.TransferResult{}, failed
	}

	advance(domain.StepCompleted)
	span.SetAttributes(attribute.Int64("transfer.id", result.Transfer.ID))
	span.SetStatus(codes.Ok, "")

	zerolog.Ctx(ctx).Info().
		Int64("transfer_id", result.Transfer.ID).
		Int64("source_account_id", arg.SourceAccountID).
		Int64("dest_account_id", arg.DestAccountID).
		Str("amount", amount.String()).
		Msg("transfer completed")

	return result, nil
}

func (s *Service) transferError(reached domain.TransferStep, transferID int64,
	arg domain.CreateTransferParams, amount decimal.Decimal, cause error,
) *domain.TransferError {
	te := &domain.TransferError{
		Step:            reached,
		TransferID:      transferID,
		SourceAccountID: arg.SourceAccountID,
		DestAccountID:   arg.DestAccountID,
		Amount:          amount,
		RolledBack:      s.tx.Atomic(),
		Err:             cause,
	}

	if !te.RolledBack {
		te.Orphaned = reached >= domain.StepRecorded
		te.Unbalanced = reached == domain.StepSourceDebited
	}

	return te
}

func (s *Service) logFailure(ctx context.Context, te *domain.TransferError) {
	ev := zerolog.Ctx(ctx).Error().
		Err(te.Err).
		Str("step", te.Step.String()).
		Int64("transfer_id", te.TransferID).
		Int64("source_account_id", te.SourceAccountID).
		Int64("dest_account_id", te.DestAccountID).
		Str("amount", te.Amount.String()).
		Bool("rolled_back", te.RolledBack).
		Bool("orphaned", te.Orphaned).
		Bool("commit_unknown", te.CommitUnknown)

	switch {
	case te.CommitUnknown:
		ev.Msg("transfer commit failed: outcome unknown, reconcile transfer record")
	case te.Unbalanced:
		ev.Msg("ledger unbalanced: source debited, destination not credited")
	case te.Orphaned:
		ev.Msg("transfer failed: orphaned transfer record")
	default:
		ev.Msg("transfer failed")
	}
}

// List returns every transfer that touches an account of the given owner.
func (s *Service) List(ctx context.Context, ownerID int64) ([]domain.Transfer, error) {
	if ownerID <= 0 {
		zerolog.Ctx(ctx).Info().Int64("owner_id", ownerID).Msg("invalid owner id")
		return nil, domain.ErrInvalidOwnerID
	}

	return s.repo.ListForUser(ctx, ownerID)
}
