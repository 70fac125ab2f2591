package ports

import (
	"context"
	"errors"
	"time"

	"payment-orchestrator/internal/core/domain/entity"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrVersionConflict means another writer won the optimistic check.
	// Callers reload and retry the whole step, never partially apply.
	ErrVersionConflict = errors.New("version conflict")
)

type ListFilter struct {
	PayerID string
	Status  entity.TransactionStatus
	Limit   int
	Offset  int
}

type TransactionRepository interface {
	// Admit records the transaction under the (payer_id, idempotency_key)
	// uniqueness constraint. When a transaction already exists for the pair
	// it is returned unchanged with created=false; the row insert and the
	// key registration are one atomic operation, so racing duplicates
	// cannot both be created.
	Admit(ctx context.Context, tx *entity.Transaction) (*entity.Transaction, bool, error)

	FindByID(ctx context.Context, id string) (*entity.Transaction, error)
	List(ctx context.Context, filter ListFilter) ([]*entity.Transaction, error)

	// Update persists the transaction guarded by its version; on success
	// the in-memory version is bumped, otherwise ErrVersionConflict.
	Update(ctx context.Context, tx *entity.Transaction) error

	// UpdateWithOutbox is Update plus an outbox event written in the same
	// database transaction.
	UpdateWithOutbox(ctx context.Context, tx *entity.Transaction, event *entity.Outbox) error

	// FindStale returns non-terminal transactions in the given statuses not
	// updated since the cutoff, excluding escalated ones. Backed by the
	// (status, updated_at) index.
	FindStale(ctx context.Context, statuses []entity.TransactionStatus, cutoff time.Time, limit int) ([]*entity.Transaction, error)
}
