package worker

import (
	"context"
	"log/slog"
	"time"

	"payment-orchestrator/internal/core/domain/ports"
)

const defaultBatchSize = 50

// OutboxWorker relays transaction lifecycle events from the outbox table
// to the message broker, so a terminal status and its published event
// can never diverge.
type OutboxWorker struct {
	outboxRepo ports.OutboxRepository
	publisher  ports.EventPublisher
	interval   time.Duration
	batchSize  int
	logger     *slog.Logger
}

func NewOutboxWorker(
	outboxRepo ports.OutboxRepository,
	publisher ports.EventPublisher,
	interval time.Duration,
	batchSize int,
	logger *slog.Logger,
) *OutboxWorker {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &OutboxWorker{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		interval:   interval,
		batchSize:  batchSize,
		logger:     logger,
	}
}

func (w *OutboxWorker) Run(ctx context.Context) {
	w.logger.InfoContext(ctx, "outbox worker started", slog.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "outbox worker stopped")
			return
		case <-ticker.C:
			w.process(ctx)
		}
	}
}

func (w *OutboxWorker) process(ctx context.Context) {
	events, err := w.outboxRepo.FetchPending(ctx, w.batchSize)
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to fetch pending events", slog.String("error", err.Error()))
		return
	}

	if len(events) == 0 {
		return
	}

	w.logger.InfoContext(ctx, "processing outbox events", slog.Int("count", len(events)))

	for _, event := range events {
		if err := w.publisher.Publish(ctx, event); err != nil {
			w.logger.ErrorContext(ctx, "failed to publish event",
				slog.String("event_id", event.ID),
				slog.String("event_type", event.Type),
				slog.String("error", err.Error()),
			)
			_ = w.outboxRepo.MarkForRetry(ctx, event.ID)
			continue
		}

		if err := w.outboxRepo.MarkProcessed(ctx, event.ID); err != nil {
			w.logger.ErrorContext(ctx, "failed to mark event as processed",
				slog.String("event_id", event.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}
