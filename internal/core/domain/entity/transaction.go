package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TransactionStatus string

const (
	StatusCreated         TransactionStatus = "CREATED"
	StatusValidating      TransactionStatus = "VALIDATING"
	StatusDebitPending    TransactionStatus = "DEBIT_PENDING"
	StatusDebitConfirmed  TransactionStatus = "DEBIT_CONFIRMED"
	StatusCreditPending   TransactionStatus = "CREDIT_PENDING"
	StatusSettled         TransactionStatus = "SETTLED"
	StatusFailed          TransactionStatus = "FAILED"
	StatusAmbiguous       TransactionStatus = "AMBIGUOUS"
	StatusReversalPending TransactionStatus = "REVERSAL_PENDING"
	StatusReversed        TransactionStatus = "REVERSED"
)

// Failure reasons persisted on terminal transactions.
const (
	ReasonInvalidRequest    = "invalid_request"
	ReasonInsufficientFunds = "insufficient_funds"
	ReasonRailDeclined      = "rail_declined"
	ReasonAbandoned         = "abandoned"
)

var (
	ErrPayerRequired        = errors.New("payer account id is required")
	ErrPayeeRequired        = errors.New("payee account id is required")
	ErrSameAccount          = errors.New("payer and payee cannot be the same account")
	ErrAmountMustBePositive = errors.New("amount must be greater than zero")
	ErrIdempotencyKeyEmpty  = errors.New("idempotency key is required")
	ErrTerminalState        = errors.New("transaction is in a terminal state")
	ErrInvalidTransition    = errors.New("invalid status transition")
)

// transitions is the closed state graph. A status missing from the map
// is terminal: nothing may move out of it.
var transitions = map[TransactionStatus][]TransactionStatus{
	StatusCreated:        {StatusValidating},
	StatusValidating:     {StatusDebitPending, StatusFailed},
	StatusDebitPending:   {StatusDebitConfirmed, StatusFailed},
	StatusDebitConfirmed: {StatusCreditPending, StatusAmbiguous, StatusReversalPending},
	StatusCreditPending:  {StatusSettled, StatusAmbiguous, StatusReversalPending},
	// AMBIGUOUS resolves only through reconciliation: to SETTLED when the
	// rail confirms, or into the reversal path when it reports failure.
	StatusAmbiguous:       {StatusSettled, StatusReversalPending},
	StatusReversalPending: {StatusReversed},
}

type Transaction struct {
	ID                string
	IdempotencyKey    string
	PayerID           string
	PayeeID           string
	Amount            int64
	Currency          string
	Status            TransactionStatus
	ExternalRef       *string
	FailureReason     *string
	RetryCount        int
	ReconcileAttempts int
	Escalated         bool
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewTransaction builds a transaction ready for admission. Only the
// admission identity is checked here; the static checks of the
// VALIDATING step run after the row exists, so an invalid request still
// leaves an auditable FAILED transaction behind.
func NewTransaction(payerID, payeeID, idempotencyKey string, amount int64, currency string) (*Transaction, error) {
	if payerID == "" {
		return nil, ErrPayerRequired
	}
	if idempotencyKey == "" {
		return nil, ErrIdempotencyKeyEmpty
	}

	now := time.Now().UTC()
	return &Transaction{
		ID:             uuid.NewString(),
		IdempotencyKey: idempotencyKey,
		PayerID:        payerID,
		PayeeID:        payeeID,
		Amount:         amount,
		Currency:       currency,
		Status:         StatusCreated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Validate performs the static checks of the VALIDATING step. Payee
// resolvability is the orchestrator's concern since it needs the store.
func (t *Transaction) Validate() error {
	if t.PayeeID == "" {
		return ErrPayeeRequired
	}
	if t.PayerID == t.PayeeID {
		return ErrSameAccount
	}
	if t.Amount <= 0 {
		return ErrAmountMustBePositive
	}
	return nil
}

func (s TransactionStatus) Terminal() bool {
	return s == StatusSettled || s == StatusFailed || s == StatusReversed
}

func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionTo moves the transaction along the state graph. Terminal
// states are locked: once settled, failed or reversed nothing may leave.
func (t *Transaction) TransitionTo(next TransactionStatus) error {
	if t.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrTerminalState, t.Status)
	}
	if !t.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, next)
	}
	t.Status = next
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Fail marks the transaction FAILED with the given reason. Only valid
// from states where no funds have moved.
func (t *Transaction) Fail(reason string) error {
	if err := t.TransitionTo(StatusFailed); err != nil {
		return err
	}
	t.FailureReason = &reason
	return nil
}

func (t *Transaction) AssignExternalRef(ref string) {
	t.ExternalRef = &ref
	t.UpdatedAt = time.Now().UTC()
}
