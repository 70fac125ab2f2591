package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"payment-orchestrator/internal/core/domain/entity"
	"payment-orchestrator/internal/core/domain/ports"
	apperrors "payment-orchestrator/internal/core/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func assertException(t *testing.T, err error, code int) *apperrors.Exception {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	exc, ok := err.(*apperrors.Exception)
	if !ok {
		t.Fatalf("expected *apperrors.Exception, got %T: %v", err, err)
	}
	if exc.Code != code {
		t.Fatalf("expected code %d, got %d (%s)", code, exc.Code, exc.Message)
	}
	return exc
}

type mockTransactionRepository struct {
	admitFn            func(ctx context.Context, tx *entity.Transaction) (*entity.Transaction, bool, error)
	findByIDFn         func(ctx context.Context, id string) (*entity.Transaction, error)
	listFn             func(ctx context.Context, filter ports.ListFilter) ([]*entity.Transaction, error)
	updateFn           func(ctx context.Context, tx *entity.Transaction) error
	updateWithOutboxFn func(ctx context.Context, tx *entity.Transaction, event *entity.Outbox) error
	findStaleFn        func(ctx context.Context, statuses []entity.TransactionStatus, cutoff time.Time, limit int) ([]*entity.Transaction, error)
}

func (m *mockTransactionRepository) Admit(ctx context.Context, tx *entity.Transaction) (*entity.Transaction, bool, error) {
	if m.admitFn != nil {
		return m.admitFn(ctx, tx)
	}
	return tx, true, nil
}

func (m *mockTransactionRepository) FindByID(ctx context.Context, id string) (*entity.Transaction, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, ports.ErrTransactionNotFound
}

func (m *mockTransactionRepository) List(ctx context.Context, filter ports.ListFilter) ([]*entity.Transaction, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockTransactionRepository) Update(ctx context.Context, tx *entity.Transaction) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, tx)
	}
	return nil
}

func (m *mockTransactionRepository) UpdateWithOutbox(ctx context.Context, tx *entity.Transaction, event *entity.Outbox) error {
	if m.updateWithOutboxFn != nil {
		return m.updateWithOutboxFn(ctx, tx, event)
	}
	return nil
}

func (m *mockTransactionRepository) FindStale(ctx context.Context, statuses []entity.TransactionStatus, cutoff time.Time, limit int) ([]*entity.Transaction, error) {
	if m.findStaleFn != nil {
		return m.findStaleFn(ctx, statuses, cutoff, limit)
	}
	return nil, nil
}

type mockAccountStore struct {
	createFn   func(ctx context.Context, account *entity.Account) error
	findByIDFn func(ctx context.Context, id string) (*entity.Account, error)
	debitFn    func(ctx context.Context, accountID string, amount, expectedVersion int64, transactionID string) (int64, error)
	creditFn   func(ctx context.Context, accountID string, amount, expectedVersion int64, transactionID string) (int64, error)
}

func (m *mockAccountStore) Create(ctx context.Context, account *entity.Account) error {
	if m.createFn != nil {
		return m.createFn(ctx, account)
	}
	return nil
}

func (m *mockAccountStore) FindByID(ctx context.Context, id string) (*entity.Account, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return &entity.Account{ID: id, Balance: 0, Version: 1}, nil
}

func (m *mockAccountStore) Debit(ctx context.Context, accountID string, amount, expectedVersion int64, transactionID string) (int64, error) {
	if m.debitFn != nil {
		return m.debitFn(ctx, accountID, amount, expectedVersion, transactionID)
	}
	return expectedVersion + 1, nil
}

func (m *mockAccountStore) Credit(ctx context.Context, accountID string, amount, expectedVersion int64, transactionID string) (int64, error) {
	if m.creditFn != nil {
		return m.creditFn(ctx, accountID, amount, expectedVersion, transactionID)
	}
	return expectedVersion + 1, nil
}

type mockLedgerRepository struct {
	entriesFn func(ctx context.Context, transactionID string) ([]*entity.LedgerEntry, error)
	sumFn     func(ctx context.Context, transactionID string) (int64, int64, error)
}

func (m *mockLedgerRepository) EntriesByTransaction(ctx context.Context, transactionID string) ([]*entity.LedgerEntry, error) {
	if m.entriesFn != nil {
		return m.entriesFn(ctx, transactionID)
	}
	return nil, nil
}

func (m *mockLedgerRepository) SumByTransaction(ctx context.Context, transactionID string) (int64, int64, error) {
	if m.sumFn != nil {
		return m.sumFn(ctx, transactionID)
	}
	return 0, 0, nil
}

type mockRailConnector struct {
	submitFn func(ctx context.Context, tx *entity.Transaction) (*ports.SubmitResult, error)
	queryFn  func(ctx context.Context, externalRef, idempotencyKey string) (ports.RailStatus, error)
}

func (m *mockRailConnector) Submit(ctx context.Context, tx *entity.Transaction) (*ports.SubmitResult, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, tx)
	}
	return &ports.SubmitResult{Accepted: true, ExternalRef: "rail-ref-1"}, nil
}

func (m *mockRailConnector) QueryStatus(ctx context.Context, externalRef, idempotencyKey string) (ports.RailStatus, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, externalRef, idempotencyKey)
	}
	return ports.RailStatusUnknown, nil
}

type mockTokenIssuer struct {
	issueFn func(ctx context.Context, accountID string) (string, error)
}

func (m *mockTokenIssuer) Issue(ctx context.Context, accountID string) (string, error) {
	if m.issueFn != nil {
		return m.issueFn(ctx, accountID)
	}
	return "pk_live_test", nil
}
