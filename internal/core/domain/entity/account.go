package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrOwnerNameRequired = errors.New("owner_name is required")

// Account holds a balance in minor currency units. Version increments on
// every committed mutation and backs the optimistic concurrency checks.
type Account struct {
	ID        string
	OwnerName string
	Balance   int64
	Currency  string
	Version   int64
	CreatedAt time.Time
}

func NewAccount(ownerName, currency string) (*Account, error) {
	if ownerName == "" {
		return nil, ErrOwnerNameRequired
	}
	return &Account{
		ID:        uuid.NewString(),
		OwnerName: ownerName,
		Balance:   0,
		Currency:  currency,
		Version:   1,
		CreatedAt: time.Now().UTC(),
	}, nil
}
