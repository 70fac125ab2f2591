package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"payment-orchestrator/internal/core/domain/entity"
	"payment-orchestrator/internal/core/domain/ports"
)

type PostgresTransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *PostgresTransactionRepository {
	return &PostgresTransactionRepository{db: db}
}

const transactionColumns = `
	id, idempotency_key, payer_id, payee_id, amount, currency, status,
	external_ref, failure_reason, retry_count, reconcile_attempts,
	escalated, version, created_at, updated_at
`

// Admit inserts the transaction under the (payer_id, idempotency_key)
// uniqueness constraint. ON CONFLICT DO NOTHING keeps racing duplicate
// admissions from both succeeding; the loser reads back the winner's row.
func (r *PostgresTransactionRepository) Admit(ctx context.Context, tx *entity.Transaction) (*entity.Transaction, bool, error) {
	const insert = `
		INSERT INTO transactions (
			id, idempotency_key, payer_id, payee_id, amount, currency, status,
			retry_count, reconcile_attempts, escalated, version, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0, FALSE, 1, $8, $9)
		ON CONFLICT (payer_id, idempotency_key) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, insert,
		tx.ID, tx.IdempotencyKey, tx.PayerID, tx.PayeeID, tx.Amount, tx.Currency,
		string(tx.Status), tx.CreatedAt, tx.UpdatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("admit transaction: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("admit transaction: %w", err)
	}

	if rows == 1 {
		tx.Version = 1
		return tx, true, nil
	}

	existing, err := r.findByPayerAndKey(ctx, tx.PayerID, tx.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *PostgresTransactionRepository) findByPayerAndKey(ctx context.Context, payerID, key string) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE payer_id = $1 AND idempotency_key = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, payerID, key))
}

func (r *PostgresTransactionRepository) FindByID(ctx context.Context, id string) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresTransactionRepository) List(ctx context.Context, filter ports.ListFilter) ([]*entity.Transaction, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE payer_id = $1`
	args := []any{filter.PayerID}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	args = append(args, limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	return r.scanMany(rows)
}

// Update writes the mutable fields guarded by the row version. Zero rows
// affected means another writer won; the caller reloads and retries.
func (r *PostgresTransactionRepository) Update(ctx context.Context, tx *entity.Transaction) error {
	res, err := r.db.ExecContext(ctx, updateStatement, updateArgs(tx)...)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return r.afterUpdate(res, tx)
}

// UpdateWithOutbox performs Update plus an outbox event insert in one
// database transaction, so a terminal status and its lifecycle event are
// committed or rolled back together.
func (r *PostgresTransactionRepository) UpdateWithOutbox(ctx context.Context, tx *entity.Transaction, event *entity.Outbox) error {
	dbTx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin update with outbox: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	res, err := dbTx.ExecContext(ctx, updateStatement, updateArgs(tx)...)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ports.ErrVersionConflict
	}

	const insertOutbox = `
		INSERT INTO outbox (id, type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := dbTx.ExecContext(ctx, insertOutbox,
		event.ID, event.Type, event.Payload, string(event.Status), event.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit update with outbox: %w", err)
	}

	tx.Version++
	return nil
}

const updateStatement = `
	UPDATE transactions
	SET status = $1,
	    external_ref = $2,
	    failure_reason = $3,
	    retry_count = $4,
	    reconcile_attempts = $5,
	    escalated = $6,
	    version = version + 1,
	    updated_at = $7
	WHERE id = $8 AND version = $9
`

func updateArgs(tx *entity.Transaction) []any {
	return []any{
		string(tx.Status), tx.ExternalRef, tx.FailureReason,
		tx.RetryCount, tx.ReconcileAttempts, tx.Escalated,
		time.Now().UTC(), tx.ID, tx.Version,
	}
}

func (r *PostgresTransactionRepository) afterUpdate(res sql.Result, tx *entity.Transaction) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ports.ErrVersionConflict
	}
	tx.Version++
	return nil
}

func (r *PostgresTransactionRepository) FindStale(
	ctx context.Context,
	statuses []entity.TransactionStatus,
	cutoff time.Time,
	limit int,
) ([]*entity.Transaction, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE status = ANY($1)
		  AND updated_at < $2
		  AND escalated = FALSE
		ORDER BY updated_at
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(names), cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("find stale transactions: %w", err)
	}
	defer rows.Close()

	return r.scanMany(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresTransactionRepository) scanOne(row rowScanner) (*entity.Transaction, error) {
	var tx entity.Transaction
	var status string
	err := row.Scan(
		&tx.ID, &tx.IdempotencyKey, &tx.PayerID, &tx.PayeeID, &tx.Amount,
		&tx.Currency, &status, &tx.ExternalRef, &tx.FailureReason,
		&tx.RetryCount, &tx.ReconcileAttempts, &tx.Escalated, &tx.Version,
		&tx.CreatedAt, &tx.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ports.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	tx.Status = entity.TransactionStatus(status)
	return &tx, nil
}

func (r *PostgresTransactionRepository) scanMany(rows *sql.Rows) ([]*entity.Transaction, error) {
	var out []*entity.Transaction
	for rows.Next() {
		tx, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
