package ports

import (
	"context"
	"errors"

	"payment-orchestrator/internal/core/domain/entity"
)

// Rail failure modes that leave the money movement unknown. The
// orchestrator treats both as ambiguous and never infers an outcome.
var (
	ErrRailTimeout     = errors.New("rail timeout")
	ErrRailUnreachable = errors.New("rail unreachable")
)

type RailStatus string

const (
	RailStatusSettled RailStatus = "settled"
	RailStatusFailed  RailStatus = "failed"
	RailStatusUnknown RailStatus = "unknown"
)

// SubmitResult is the definite answer from a rail submission. Either the
// rail accepted and assigned an external reference, or it declined.
type SubmitResult struct {
	Accepted      bool
	ExternalRef   string
	DeclineReason string
}

// RailConnector abstracts the external settlement network. Any concrete
// integration plugs in behind this contract; the orchestrator treats it
// as untrusted and slow and never holds account state while calling it.
type RailConnector interface {
	Submit(ctx context.Context, tx *entity.Transaction) (*SubmitResult, error)

	// QueryStatus resolves an ambiguous submission, by external reference
	// when one was assigned or by the original idempotency key otherwise.
	QueryStatus(ctx context.Context, externalRef, idempotencyKey string) (RailStatus, error)
}
