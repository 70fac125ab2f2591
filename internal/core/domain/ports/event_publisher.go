package ports

import (
	"context"

	"payment-orchestrator/internal/core/domain/entity"
)

type EventPublisher interface {
	Publish(ctx context.Context, event *entity.Outbox) error
}
