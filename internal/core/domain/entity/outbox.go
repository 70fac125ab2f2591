package entity

import (
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "PENDING"
	OutboxStatusProcessing OutboxStatus = "PROCESSING"
	OutboxStatusProcessed  OutboxStatus = "PROCESSED"
	OutboxStatusFailed     OutboxStatus = "FAILED"
)

// Lifecycle event types written to the outbox when a transaction reaches
// a terminal state or is escalated for operator review.
const (
	EventTransactionSettled   = "transaction.settled"
	EventTransactionFailed    = "transaction.failed"
	EventTransactionReversed  = "transaction.reversed"
	EventTransactionEscalated = "transaction.escalated"
)

type Outbox struct {
	ID          string
	Type        string
	Payload     string
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

func NewOutbox(eventType, payload string) *Outbox {
	return &Outbox{
		ID:        uuid.NewString(),
		Type:      eventType,
		Payload:   payload,
		Status:    OutboxStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}
