package test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
)

// SeedAccount creates an account with the given opening balance.
func SeedAccount(t *testing.T, db dbpkg.SQLInterface, ownerID int64, balance string) domain.Account {
	t.Helper()

	accountRepo := accountrepo.NewRepoPGS(db)

	account, err := accountRepo.Create(context.Background(), ownerID, decimal.RequireFromString(balance))
	if err != nil {
		t.Fatalf("accountRepo.Create(context.Background(), %d, %s) returned error: %v", ownerID, balance, err)
	}

	return account
}
