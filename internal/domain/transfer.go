package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrTransferNotFound indicates that the transfer is not found.
	ErrTransferNotFound = newError(ErrNotFound, "transfer not found")
	// ErrSameAccount indicates a transfer whose source and destination are the same account.
	ErrSameAccount = newError(ErrInvalidRequest, "source and destination accounts cannot be the same")
	// ErrNonPositiveAmount indicates a transfer amount that is zero or negative.
	ErrNonPositiveAmount = newError(ErrInvalidRequest, "amount must be positive")
)

// Transfer holds an append-only record of funds moved between two accounts.
type Transfer struct {
	ID              int64           `json:"id"`
	SourceAccountID int64           `json:"source_account_id"`
	DestAccountID   int64           `json:"dest_account_id"`
	Amount          decimal.Decimal `json:"amount"` // always positive
	CreatedAt       time.Time       `json:"created_at"`
}

// CreateTransferParams is the input data for the transfer.
type CreateTransferParams struct {
	SourceAccountID int64  `json:"source_account_id" validate:"required,min=1"`
	DestAccountID   int64  `json:"dest_account_id" validate:"required,min=1"`
	Amount          string `json:"amount" validate:"required,decimal"`
}

// TransferResult is the result of a completed transfer.
type TransferResult struct {
	Transfer      Transfer `json:"transfer"`
	SourceAccount Account  `json:"source_account"`
	DestAccount   Account  `json:"dest_account"`
}

// TransferStep is a state of the transfer sequence.
type TransferStep uint8

// Transfer steps in the order they are reached.
const (
	StepValidated TransferStep = iota
	StepRecorded
	StepSourceDebited
	StepDestCredited
	StepCompleted
)

func (s TransferStep) String() string {
	switch s {
	case StepValidated:
		return "validated"
	case StepRecorded:
		return "recorded"
	case StepSourceDebited:
		return "source_debited"
	case StepDestCredited:
		return "dest_credited"
	case StepCompleted:
		return "completed"
	default:
		return fmt.Sprintf("step(%d)", uint8(s))
	}
}

// TransferError describes a failure inside the transfer sequence.
//
// Step is the last state reached before the failure. TransferID is zero when no
// record was written. RolledBack reports that every mutation was undone by the
// store transaction; otherwise Orphaned and Unbalanced describe what was left behind.
// CommitUnknown reports that every step ran but the commit itself failed, so the
// store may or may not hold the transfer.
type TransferError struct {
	Step            TransferStep
	TransferID      int64
	SourceAccountID int64
	DestAccountID   int64
	Amount          decimal.Decimal
	RolledBack      bool
	Orphaned        bool
	Unbalanced      bool
	CommitUnknown   bool
	Err             error
}

func (e *TransferError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "transfer failed after step %s (source=%d dest=%d amount=%s",
		e.Step, e.SourceAccountID, e.DestAccountID, e.Amount)

	if e.TransferID != 0 {
		fmt.Fprintf(&b, " transfer_id=%d", e.TransferID)
	}

	switch {
	case e.CommitUnknown:
		b.WriteString(", commit outcome unknown")
	case e.RolledBack:
		b.WriteString(", rolled back")
	case e.Unbalanced:
		b.WriteString(", ledger unbalanced")
	case e.Orphaned:
		b.WriteString(", orphaned record")
	}

	b.WriteString(")")

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

// Is makes every TransferError match ErrTransferFailed.
func (e *TransferError) Is(target error) bool {
	return target == ErrTransferFailed
}

// Unwrap returns the underlying cause.
func (e *TransferError) Unwrap() error {
	return e.Err
}
