// Package test provides shared test helpers.
package test

import (
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
)

// RandomAccount returns random account owned by the given owner.
func RandomAccount(ownerID int64) domain.Account {
	return domain.Account{
		ID:        randompkg.ID(),
		OwnerID:   ownerID,
		Balance:   randompkg.MoneyAmountBetween(1000, 10_000),
		CreatedAt: time.Now().Truncate(time.Second).UTC(),
	}
}

// RandomTransfer returns random transfer between the given accounts.
func RandomTransfer(sourceAccountID, destAccountID int64) domain.Transfer {
	return domain.Transfer{
		ID:              randompkg.ID(),
		SourceAccountID: sourceAccountID,
		DestAccountID:   destAccountID,
		Amount:          randompkg.MoneyAmountBetween(1, 100),
		CreatedAt:       time.Now().Truncate(time.Second).UTC(),
	}
}
