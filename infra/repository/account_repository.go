package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"payment-orchestrator/internal/core/domain/entity"
	"payment-orchestrator/internal/core/domain/ports"
)

type PostgresAccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *PostgresAccountStore {
	return &PostgresAccountStore{db: db}
}

func (s *PostgresAccountStore) Create(ctx context.Context, account *entity.Account) error {
	const insert = `
		INSERT INTO accounts (id, owner_name, balance, currency, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.db.ExecContext(ctx, insert,
		account.ID, account.OwnerName, account.Balance, account.Currency,
		account.Version, account.CreatedAt,
	); err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *PostgresAccountStore) FindByID(ctx context.Context, id string) (*entity.Account, error) {
	const query = `
		SELECT id, owner_name, balance, currency, version, created_at
		FROM accounts
		WHERE id = $1
	`
	var acc entity.Account
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&acc.ID, &acc.OwnerName, &acc.Balance, &acc.Currency, &acc.Version, &acc.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ports.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &acc, nil
}

// Debit decrements the balance and writes the DEBIT ledger entry in one
// database transaction. The balance check rides on the version-guarded
// UPDATE, so a concurrent writer or an overdraft both leave zero rows
// touched and nothing partially applied.
func (s *PostgresAccountStore) Debit(ctx context.Context, accountID string, amount, expectedVersion int64, transactionID string) (int64, error) {
	return s.apply(ctx, accountID, -amount, expectedVersion, transactionID, entity.DirectionDebit)
}

// Credit is the mirror of Debit. A replayed credit finds its ledger entry
// already present and becomes a no-op without touching the balance, which
// is what makes reconciliation settle idempotent.
func (s *PostgresAccountStore) Credit(ctx context.Context, accountID string, amount, expectedVersion int64, transactionID string) (int64, error) {
	return s.apply(ctx, accountID, amount, expectedVersion, transactionID, entity.DirectionCredit)
}

func (s *PostgresAccountStore) apply(
	ctx context.Context,
	accountID string,
	delta int64,
	expectedVersion int64,
	transactionID string,
	direction entity.EntryDirection,
) (int64, error) {
	dbTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return 0, fmt.Errorf("begin %s: %w", direction, err)
	}
	defer func() { _ = dbTx.Rollback() }()

	amount := delta
	if amount < 0 {
		amount = -amount
	}

	// The ledger entry goes in first. If it already exists the money for
	// this (transaction, account, direction) has been moved before and the
	// whole operation degrades to a no-op.
	const insertEntry = `
		INSERT INTO ledger_entries (id, transaction_id, account_id, direction, amount, committed_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (transaction_id, account_id, direction) DO NOTHING
	`
	res, err := dbTx.ExecContext(ctx, insertEntry,
		uuid.NewString(), transactionID, accountID, string(direction), amount,
	)
	if err != nil {
		return 0, fmt.Errorf("insert ledger entry: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if inserted == 0 {
		var version int64
		err := dbTx.QueryRowContext(ctx, `SELECT version FROM accounts WHERE id = $1`, accountID).Scan(&version)
		if err == sql.ErrNoRows {
			return 0, ports.ErrAccountNotFound
		}
		if err != nil {
			return 0, fmt.Errorf("load account version: %w", err)
		}
		if err := dbTx.Commit(); err != nil {
			return 0, fmt.Errorf("commit %s: %w", direction, err)
		}
		return version, nil
	}

	const update = `
		UPDATE accounts
		SET balance = balance + $1, version = version + 1
		WHERE id = $2 AND version = $3 AND balance + $1 >= 0
	`
	res, err = dbTx.ExecContext(ctx, update, delta, accountID, expectedVersion)
	if err != nil {
		return 0, fmt.Errorf("update balance: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if rows == 0 {
		// Distinguish a lost version race from an overdraft.
		var version int64
		err := dbTx.QueryRowContext(ctx, `SELECT version FROM accounts WHERE id = $1`, accountID).Scan(&version)
		if err == sql.ErrNoRows {
			return 0, ports.ErrAccountNotFound
		}
		if err != nil {
			return 0, fmt.Errorf("load account version: %w", err)
		}
		if version != expectedVersion {
			return 0, ports.ErrVersionConflict
		}
		return 0, ports.ErrInsufficientFunds
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit %s: %w", direction, err)
	}

	return expectedVersion + 1, nil
}
