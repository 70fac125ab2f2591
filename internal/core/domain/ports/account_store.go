package ports

import (
	"context"
	"errors"

	"payment-orchestrator/internal/core/domain/entity"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

type AccountStore interface {
	Create(ctx context.Context, account *entity.Account) error
	FindByID(ctx context.Context, id string) (*entity.Account, error)

	// Debit atomically decrements the balance, bumps the version and writes
	// the DEBIT ledger entry for transactionID in one database transaction.
	// Fails with ErrInsufficientFunds or ErrVersionConflict; the store never
	// exposes a decremented balance without its matching entry.
	Debit(ctx context.Context, accountID string, amount, expectedVersion int64, transactionID string) (int64, error)

	// Credit is the mirror of Debit. The (transaction_id, account_id,
	// direction) uniqueness on ledger entries makes a replayed credit a
	// no-op: the existing entry is kept and the balance is not touched
	// again, which is what makes settlement and reversal idempotent.
	Credit(ctx context.Context, accountID string, amount, expectedVersion int64, transactionID string) (int64, error)
}
