package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"payment-orchestrator/internal/core/domain/entity"
	"payment-orchestrator/internal/core/domain/ports"
	"payment-orchestrator/internal/core/handler"
	"payment-orchestrator/internal/core/usecase"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubAuthenticator accepts "valid-token" for account payer-1.
type stubAuthenticator struct{}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (string, error) {
	if token == "valid-token" {
		return "payer-1", nil
	}
	return "", ports.ErrInvalidToken
}

type stubTransactionRepository struct {
	admitFn    func(ctx context.Context, tx *entity.Transaction) (*entity.Transaction, bool, error)
	findByIDFn func(ctx context.Context, id string) (*entity.Transaction, error)
}

func (s *stubTransactionRepository) Admit(ctx context.Context, tx *entity.Transaction) (*entity.Transaction, bool, error) {
	if s.admitFn != nil {
		return s.admitFn(ctx, tx)
	}
	return tx, true, nil
}

func (s *stubTransactionRepository) FindByID(ctx context.Context, id string) (*entity.Transaction, error) {
	if s.findByIDFn != nil {
		return s.findByIDFn(ctx, id)
	}
	return nil, ports.ErrTransactionNotFound
}

func (s *stubTransactionRepository) List(_ context.Context, _ ports.ListFilter) ([]*entity.Transaction, error) {
	return nil, nil
}

func (s *stubTransactionRepository) Update(_ context.Context, tx *entity.Transaction) error {
	tx.Version++
	return nil
}

func (s *stubTransactionRepository) UpdateWithOutbox(_ context.Context, tx *entity.Transaction, _ *entity.Outbox) error {
	tx.Version++
	return nil
}

func (s *stubTransactionRepository) FindStale(_ context.Context, _ []entity.TransactionStatus, _ time.Time, _ int) ([]*entity.Transaction, error) {
	return nil, nil
}

type stubAccountStore struct {
	findByIDFn func(ctx context.Context, id string) (*entity.Account, error)
}

func (s *stubAccountStore) Create(_ context.Context, _ *entity.Account) error { return nil }

func (s *stubAccountStore) FindByID(ctx context.Context, id string) (*entity.Account, error) {
	if s.findByIDFn != nil {
		return s.findByIDFn(ctx, id)
	}
	return &entity.Account{ID: id, Balance: 1_000_000, Currency: "INR", Version: 1}, nil
}

func (s *stubAccountStore) Debit(_ context.Context, _ string, _, expectedVersion int64, _ string) (int64, error) {
	return expectedVersion + 1, nil
}

func (s *stubAccountStore) Credit(_ context.Context, _ string, _, expectedVersion int64, _ string) (int64, error) {
	return expectedVersion + 1, nil
}

type stubLedgerRepository struct{}

func (s *stubLedgerRepository) EntriesByTransaction(_ context.Context, _ string) ([]*entity.LedgerEntry, error) {
	return nil, nil
}

func (s *stubLedgerRepository) SumByTransaction(_ context.Context, _ string) (int64, int64, error) {
	return 0, 0, nil
}

type stubRail struct{}

func (s *stubRail) Submit(_ context.Context, _ *entity.Transaction) (*ports.SubmitResult, error) {
	return &ports.SubmitResult{Accepted: true, ExternalRef: "rail-ref-1"}, nil
}

func (s *stubRail) QueryStatus(_ context.Context, _, _ string) (ports.RailStatus, error) {
	return ports.RailStatusUnknown, nil
}

type stubTokenIssuer struct{}

func (s *stubTokenIssuer) Issue(_ context.Context, _ string) (string, error) {
	return "pk_live_test", nil
}

func newTestMux(repo *stubTransactionRepository) *http.ServeMux {
	f := usecase.NewFactory(usecase.FactoryDeps{
		Transactions: repo,
		Accounts:     &stubAccountStore{},
		Ledger:       &stubLedgerRepository{},
		Rail:         &stubRail{},
		Tokens:       &stubTokenIssuer{},
		MaxAttempts:  3,
		RetryBase:    time.Millisecond,
		Logger:       testLogger(),
	})

	mux := http.NewServeMux()
	handler.RegisterAll(mux, f, &stubAuthenticator{})
	return mux
}

func sendBody(t *testing.T) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"to":       "payee-1",
		"amount":   1200,
		"currency": "INR",
		"txn_ref":  "key-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(body)
}

func TestHandleSend_Returns201(t *testing.T) {
	mux := newTestMux(&stubTransactionRepository{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/send", sendBody(t))
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleSend_IdempotentReturns200(t *testing.T) {
	existing := &entity.Transaction{ID: "tx-existing", Status: entity.StatusSettled}
	repo := &stubTransactionRepository{
		admitFn: func(_ context.Context, _ *entity.Transaction) (*entity.Transaction, bool, error) {
			return existing, false, nil
		},
	}
	mux := newTestMux(repo)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/send", sendBody(t))
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for idempotent request, got %d", rec.Code)
	}
}

func TestHandleSend_MissingToken_Returns401(t *testing.T) {
	mux := newTestMux(&stubTransactionRepository{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/send", sendBody(t))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleSend_InvalidToken_Returns401(t *testing.T) {
	mux := newTestMux(&stubTransactionRepository{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/send", sendBody(t))
	req.Header.Set("Authorization", "Bearer wrong-token")
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleSend_InvalidBody_Returns400(t *testing.T) {
	mux := newTestMux(&stubTransactionRepository{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/send", bytes.NewReader([]byte("not-json")))
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleSend_MissingIdempotencyKey_Returns400(t *testing.T) {
	mux := newTestMux(&stubTransactionRepository{})

	body, _ := json.Marshal(map[string]any{
		"to":       "payee-1",
		"amount":   1200,
		"currency": "INR",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/send", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleSend_IdempotencyKeyFromHeader(t *testing.T) {
	mux := newTestMux(&stubTransactionRepository{})

	body, _ := json.Marshal(map[string]any{
		"to":       "payee-1",
		"amount":   1200,
		"currency": "INR",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/send", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer valid-token")
	req.Header.Set("Idempotency-Key", "key-from-header")
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleGet_NotFound_Returns404(t *testing.T) {
	mux := newTestMux(&stubTransactionRepository{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/tx-unknown", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleList_Returns200(t *testing.T) {
	mux := newTestMux(&stubTransactionRepository{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions?status=SETTLED", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandleCreateAccount_NoAuthRequired(t *testing.T) {
	mux := newTestMux(&stubTransactionRepository{})

	body, _ := json.Marshal(map[string]string{"owner_name": "asha", "currency": "INR"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleDeposit_OtherAccount_Returns403(t *testing.T) {
	mux := newTestMux(&stubTransactionRepository{})

	body, _ := json.Marshal(map[string]int64{"amount": 100})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/payee-1/deposit", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestHandleDeposit_OwnAccount_Returns200(t *testing.T) {
	mux := newTestMux(&stubTransactionRepository{})

	body, _ := json.Marshal(map[string]int64{"amount": 100})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/payer-1/deposit", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
