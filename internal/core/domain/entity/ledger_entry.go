package entity

import (
	"time"

	"github.com/google/uuid"
)

type EntryDirection string

const (
	DirectionDebit  EntryDirection = "DEBIT"
	DirectionCredit EntryDirection = "CREDIT"
)

// LedgerEntry is an append-only double-entry record. Entries are never
// mutated or deleted; for every settled transaction the debit and credit
// sides must balance.
type LedgerEntry struct {
	ID            string
	TransactionID string
	AccountID     string
	Direction     EntryDirection
	Amount        int64
	CommittedAt   time.Time
}

func NewLedgerEntry(transactionID, accountID string, direction EntryDirection, amount int64) *LedgerEntry {
	return &LedgerEntry{
		ID:            uuid.NewString(),
		TransactionID: transactionID,
		AccountID:     accountID,
		Direction:     direction,
		Amount:        amount,
		CommittedAt:   time.Now().UTC(),
	}
}
