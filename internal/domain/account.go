// Package domain provides definitions of all ledger entities and their errors.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = newError(ErrNotFound, "account not found")
	// ErrInvalidOwnerID indicates a missing or non-positive owner id.
	ErrInvalidOwnerID = newError(ErrInvalidRequest, "invalid owner id")
	// ErrInvalidAccountID indicates a missing or non-positive account id.
	ErrInvalidAccountID = newError(ErrInvalidRequest, "invalid account id")
	// ErrInvalidAmount indicates an amount that is not a finite decimal number.
	ErrInvalidAmount = newError(ErrInvalidRequest, "invalid amount")
	// ErrInsufficientBalance indicates that the change would take the balance below the configured floor.
	ErrInsufficientBalance = newError(ErrConflict, "insufficient balance")
	// ErrAccountInUse indicates that transfers still reference the account.
	ErrAccountInUse = newError(ErrConflict, "account is referenced by transfers")
)

// Account holds the live balance of one owner's ledger entry.
type Account struct {
	ID        int64           `json:"id"`
	OwnerID   int64           `json:"owner_id"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// CreateAccountParams is the input data to open an account.
type CreateAccountParams struct {
	OwnerID int64  `json:"owner_id" validate:"required,min=1"`
	Amount  string `json:"amount" validate:"required,decimal"`
}

// DeleteAccountParams is the input data to delete an account.
type DeleteAccountParams struct {
	ID      int64 `json:"id" validate:"required,min=1"`
	OwnerID int64 `json:"owner_id" validate:"required,min=1"`
}

// PatchAccountParams is the input data to apply a signed delta to a balance.
type PatchAccountParams struct {
	ID    int64  `json:"id" validate:"required,min=1"`
	Delta string `json:"delta" validate:"required,decimal"`
}
