package repository

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"

	"payment-orchestrator/internal/core/domain/ports"
)

type PostgresTokenStore struct {
	db *sql.DB
}

func NewTokenStore(db *sql.DB) *PostgresTokenStore {
	return &PostgresTokenStore{db: db}
}

// Issue generates a bearer token for the account and stores only its
// SHA-256 hash. The plain token is returned once and never persisted.
func (s *PostgresTokenStore) Issue(ctx context.Context, accountID string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := "pk_live_" + hex.EncodeToString(raw)

	hash := sha256.Sum256([]byte(token))
	const insert = `INSERT INTO api_tokens (token_hash, account_id, created_at) VALUES ($1, $2, NOW())`
	if _, err := s.db.ExecContext(ctx, insert, hex.EncodeToString(hash[:]), accountID); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}

	return token, nil
}

func (s *PostgresTokenStore) Authenticate(ctx context.Context, token string) (string, error) {
	hash := sha256.Sum256([]byte(token))

	var accountID string
	err := s.db.QueryRowContext(ctx,
		`SELECT account_id FROM api_tokens WHERE token_hash = $1`,
		hex.EncodeToString(hash[:]),
	).Scan(&accountID)
	if err == sql.ErrNoRows {
		return "", ports.ErrInvalidToken
	}
	if err != nil {
		return "", fmt.Errorf("lookup token: %w", err)
	}
	return accountID, nil
}
