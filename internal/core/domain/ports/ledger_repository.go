package ports

import (
	"context"

	"payment-orchestrator/internal/core/domain/entity"
)

type LedgerRepository interface {
	EntriesByTransaction(ctx context.Context, transactionID string) ([]*entity.LedgerEntry, error)

	// SumByTransaction returns the debit and credit totals for a
	// transaction, used to verify the no-value-created invariant before a
	// transaction is marked settled or reversed.
	SumByTransaction(ctx context.Context, transactionID string) (debit int64, credit int64, err error)
}
