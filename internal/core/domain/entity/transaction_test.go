package entity_test

import (
	"errors"
	"testing"

	"payment-orchestrator/internal/core/domain/entity"
)

func TestNewTransaction_Valid(t *testing.T) {
	tx, err := entity.NewTransaction("payer-1", "payee-1", "key-1", 1000, "INR")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if tx.ID == "" {
		t.Fatal("expected generated id")
	}
	if tx.Status != entity.StatusCreated {
		t.Fatalf("expected status CREATED, got %s", tx.Status)
	}
}

func TestNewTransaction_RequiresAdmissionIdentity(t *testing.T) {
	if _, err := entity.NewTransaction("", "payee-1", "key-1", 1000, "INR"); !errors.Is(err, entity.ErrPayerRequired) {
		t.Fatalf("expected ErrPayerRequired, got: %v", err)
	}
	if _, err := entity.NewTransaction("payer-1", "payee-1", "", 1000, "INR"); !errors.Is(err, entity.ErrIdempotencyKeyEmpty) {
		t.Fatalf("expected ErrIdempotencyKeyEmpty, got: %v", err)
	}
}

// Requests with a bad payee or amount are still admitted; the problems
// surface in Validate so they can fail as auditable transactions.
func TestNewTransaction_AdmitsInvalidPayload(t *testing.T) {
	tx, err := entity.NewTransaction("payer-1", "", "key-1", -5, "INR")
	if err != nil {
		t.Fatalf("expected admission despite invalid payload, got: %v", err)
	}
	if tx.Validate() == nil {
		t.Fatal("expected Validate to reject the payload")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		payerID string
		payeeID string
		amount  int64
		want    error
	}{
		{"missing payee", "payer-1", "", 100, entity.ErrPayeeRequired},
		{"same account", "payer-1", "payer-1", 100, entity.ErrSameAccount},
		{"zero amount", "payer-1", "payee-1", 0, entity.ErrAmountMustBePositive},
		{"negative amount", "payer-1", "payee-1", -1, entity.ErrAmountMustBePositive},
		{"valid", "payer-1", "payee-1", 100, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx, err := entity.NewTransaction(tc.payerID, tc.payeeID, "key-1", tc.amount, "INR")
			if err != nil {
				t.Fatalf("admission failed: %v", err)
			}
			if got := tx.Validate(); !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestTransitionTo_HappyPath(t *testing.T) {
	tx, _ := entity.NewTransaction("payer-1", "payee-1", "key-1", 100, "INR")

	path := []entity.TransactionStatus{
		entity.StatusValidating,
		entity.StatusDebitPending,
		entity.StatusDebitConfirmed,
		entity.StatusCreditPending,
		entity.StatusSettled,
	}
	for _, next := range path {
		if err := tx.TransitionTo(next); err != nil {
			t.Fatalf("transition to %s failed: %v", next, err)
		}
	}
	if tx.Status != entity.StatusSettled {
		t.Fatalf("expected SETTLED, got %s", tx.Status)
	}
}

func TestTransitionTo_RejectsSkips(t *testing.T) {
	tx, _ := entity.NewTransaction("payer-1", "payee-1", "key-1", 100, "INR")

	if err := tx.TransitionTo(entity.StatusSettled); !errors.Is(err, entity.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
	if err := tx.TransitionTo(entity.StatusDebitConfirmed); !errors.Is(err, entity.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
}

func TestTransitionTo_TerminalStatesAreLocked(t *testing.T) {
	for _, terminal := range []entity.TransactionStatus{
		entity.StatusSettled,
		entity.StatusFailed,
		entity.StatusReversed,
	} {
		tx, _ := entity.NewTransaction("payer-1", "payee-1", "key-1", 100, "INR")
		tx.Status = terminal

		if err := tx.TransitionTo(entity.StatusValidating); !errors.Is(err, entity.ErrTerminalState) {
			t.Fatalf("expected ErrTerminalState from %s, got: %v", terminal, err)
		}
	}
}

func TestTransitionTo_AmbiguousResolvesBothWays(t *testing.T) {
	tx, _ := entity.NewTransaction("payer-1", "payee-1", "key-1", 100, "INR")
	tx.Status = entity.StatusAmbiguous

	if !tx.Status.CanTransitionTo(entity.StatusSettled) {
		t.Fatal("AMBIGUOUS must be able to settle")
	}
	if !tx.Status.CanTransitionTo(entity.StatusReversalPending) {
		t.Fatal("AMBIGUOUS must be able to enter reversal")
	}
	if tx.Status.CanTransitionTo(entity.StatusFailed) {
		t.Fatal("AMBIGUOUS must never move to FAILED: the debit may have settled")
	}
}

func TestFail_SetsReason(t *testing.T) {
	tx, _ := entity.NewTransaction("payer-1", "payee-1", "key-1", 100, "INR")
	_ = tx.TransitionTo(entity.StatusValidating)

	if err := tx.Fail(entity.ReasonInvalidRequest); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if tx.Status != entity.StatusFailed {
		t.Fatalf("expected FAILED, got %s", tx.Status)
	}
	if tx.FailureReason == nil || *tx.FailureReason != entity.ReasonInvalidRequest {
		t.Fatalf("expected failure reason %q, got %v", entity.ReasonInvalidRequest, tx.FailureReason)
	}
}

// Once funds moved, FAILED is unreachable: reversal is the only way out.
func TestFail_RejectedAfterDebit(t *testing.T) {
	tx, _ := entity.NewTransaction("payer-1", "payee-1", "key-1", 100, "INR")
	tx.Status = entity.StatusDebitConfirmed

	if err := tx.Fail(entity.ReasonRailDeclined); !errors.Is(err, entity.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
}
