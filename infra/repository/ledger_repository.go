package repository

import (
	"context"
	"database/sql"
	"fmt"

	"payment-orchestrator/internal/core/domain/entity"
)

type PostgresLedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *PostgresLedgerRepository {
	return &PostgresLedgerRepository{db: db}
}

func (r *PostgresLedgerRepository) EntriesByTransaction(ctx context.Context, transactionID string) ([]*entity.LedgerEntry, error) {
	const query = `
		SELECT id, transaction_id, account_id, direction, amount, committed_at
		FROM ledger_entries
		WHERE transaction_id = $1
		ORDER BY committed_at
	`
	rows, err := r.db.QueryContext(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*entity.LedgerEntry
	for rows.Next() {
		var e entity.LedgerEntry
		var direction string
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.AccountID, &direction, &e.Amount, &e.CommittedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.Direction = entity.EntryDirection(direction)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (r *PostgresLedgerRepository) SumByTransaction(ctx context.Context, transactionID string) (int64, int64, error) {
	const query = `
		SELECT
			COALESCE(SUM(CASE WHEN direction = 'DEBIT'  THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN direction = 'CREDIT' THEN amount ELSE 0 END), 0)
		FROM ledger_entries
		WHERE transaction_id = $1
	`
	var debit, credit int64
	if err := r.db.QueryRowContext(ctx, query, transactionID).Scan(&debit, &credit); err != nil {
		return 0, 0, fmt.Errorf("sum ledger entries: %w", err)
	}
	return debit, credit, nil
}
