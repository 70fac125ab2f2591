package usecase

import (
	"context"

	"payment-orchestrator/internal/core/domain/entity"
	"payment-orchestrator/internal/core/domain/ports"
	apperrors "payment-orchestrator/internal/core/errors"
)

type (
	ListTransactionsInput struct {
		PayerID string
		Status  string
		Limit   int
		Offset  int
	}

	TransactionSummary struct {
		ID            string  `json:"txn_id"`
		Status        string  `json:"status"`
		PayeeID       string  `json:"payee_id"`
		Amount        int64   `json:"amount"`
		Currency      string  `json:"currency"`
		FailureReason *string `json:"failure_reason,omitempty"`
	}

	ListTransactionsOutput struct {
		Transactions []TransactionSummary `json:"transactions"`
	}

	ListTransactionsUseCase struct {
		transactions ports.TransactionRepository
	}
)

func NewListTransactionsUseCase(transactions ports.TransactionRepository) *ListTransactionsUseCase {
	return &ListTransactionsUseCase{transactions: transactions}
}

func (uc *ListTransactionsUseCase) Execute(ctx context.Context, input ListTransactionsInput) (*ListTransactionsOutput, error) {
	txs, err := uc.transactions.List(ctx, ports.ListFilter{
		PayerID: input.PayerID,
		Status:  entity.TransactionStatus(input.Status),
		Limit:   input.Limit,
		Offset:  input.Offset,
	})
	if err != nil {
		return nil, apperrors.Unexpected(apperrors.WithError(err))
	}

	out := &ListTransactionsOutput{Transactions: []TransactionSummary{}}
	for _, tx := range txs {
		out.Transactions = append(out.Transactions, TransactionSummary{
			ID:            tx.ID,
			Status:        string(tx.Status),
			PayeeID:       tx.PayeeID,
			Amount:        tx.Amount,
			Currency:      tx.Currency,
			FailureReason: tx.FailureReason,
		})
	}
	return out, nil
}
