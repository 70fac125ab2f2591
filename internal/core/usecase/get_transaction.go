package usecase

import (
	"context"
	"errors"
	"time"

	"payment-orchestrator/internal/core/domain/entity"
	"payment-orchestrator/internal/core/domain/ports"
	apperrors "payment-orchestrator/internal/core/errors"
)

type (
	LedgerEntryView struct {
		AccountID   string    `json:"account_id"`
		Direction   string    `json:"direction"`
		Amount      int64     `json:"amount"`
		CommittedAt time.Time `json:"committed_at"`
	}

	GetTransactionOutput struct {
		ID            string            `json:"txn_id"`
		Status        string            `json:"status"`
		PayerID       string            `json:"payer_id"`
		PayeeID       string            `json:"payee_id"`
		Amount        int64             `json:"amount"`
		Currency      string            `json:"currency"`
		ExternalRef   *string           `json:"external_ref,omitempty"`
		FailureReason *string           `json:"failure_reason,omitempty"`
		Escalated     bool              `json:"escalated,omitempty"`
		CreatedAt     time.Time         `json:"created_at"`
		UpdatedAt     time.Time         `json:"updated_at"`
		Entries       []LedgerEntryView `json:"entries,omitempty"`
	}

	GetTransactionUseCase struct {
		transactions ports.TransactionRepository
		ledger       ports.LedgerRepository
	}
)

func NewGetTransactionUseCase(transactions ports.TransactionRepository, ledger ports.LedgerRepository) *GetTransactionUseCase {
	return &GetTransactionUseCase{transactions: transactions, ledger: ledger}
}

func (uc *GetTransactionUseCase) Execute(ctx context.Context, id string) (*GetTransactionOutput, error) {
	tx, err := uc.transactions.FindByID(ctx, id)
	if errors.Is(err, ports.ErrTransactionNotFound) {
		return nil, apperrors.NotFound()
	}
	if err != nil {
		return nil, apperrors.Unexpected(apperrors.WithError(err))
	}

	entries, err := uc.ledger.EntriesByTransaction(ctx, id)
	if err != nil {
		return nil, apperrors.Unexpected(apperrors.WithError(err))
	}

	return toTransactionOutput(tx, entries), nil
}

func toTransactionOutput(tx *entity.Transaction, entries []*entity.LedgerEntry) *GetTransactionOutput {
	out := &GetTransactionOutput{
		ID:            tx.ID,
		Status:        string(tx.Status),
		PayerID:       tx.PayerID,
		PayeeID:       tx.PayeeID,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		ExternalRef:   tx.ExternalRef,
		FailureReason: tx.FailureReason,
		Escalated:     tx.Escalated,
		CreatedAt:     tx.CreatedAt,
		UpdatedAt:     tx.UpdatedAt,
	}
	for _, e := range entries {
		out.Entries = append(out.Entries, LedgerEntryView{
			AccountID:   e.AccountID,
			Direction:   string(e.Direction),
			Amount:      e.Amount,
			CommittedAt: e.CommittedAt,
		})
	}
	return out
}
