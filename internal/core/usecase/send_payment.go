package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"payment-orchestrator/internal/core/domain/entity"
	"payment-orchestrator/internal/core/domain/ports"
	apperrors "payment-orchestrator/internal/core/errors"
)

// versionRetries bounds how often an account operation is retried after
// losing an optimistic version race before the request gives up.
const versionRetries = 3

type (
	SendPaymentInput struct {
		PayerID        string
		PayeeID        string
		Amount         int64
		Currency       string
		IdempotencyKey string
	}

	SendPaymentOutput struct {
		TransactionID string
		Status        string
		FailureReason string
		ExternalRef   string
		Idempotent    bool
	}

	// SendPaymentUseCase drives a transfer through the state machine:
	// admission, validation, local debit, rail submission and settlement
	// or compensation. The local debit is committed and durable before
	// the rail is called, so a crash mid-call leaves a well-defined
	// DEBIT_CONFIRMED/CREDIT_PENDING/AMBIGUOUS row for the reconciler.
	SendPaymentUseCase struct {
		transactions ports.TransactionRepository
		accounts     ports.AccountStore
		ledger       ports.LedgerRepository
		rail         ports.RailConnector
		maxAttempts  int
		retryBase    time.Duration
		logger       *slog.Logger
	}
)

func NewSendPaymentUseCase(
	transactions ports.TransactionRepository,
	accounts ports.AccountStore,
	ledger ports.LedgerRepository,
	rail ports.RailConnector,
	maxAttempts int,
	retryBase time.Duration,
	logger *slog.Logger,
) *SendPaymentUseCase {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &SendPaymentUseCase{
		transactions: transactions,
		accounts:     accounts,
		ledger:       ledger,
		rail:         rail,
		maxAttempts:  maxAttempts,
		retryBase:    retryBase,
		logger:       logger,
	}
}

func (uc *SendPaymentUseCase) Execute(ctx context.Context, input SendPaymentInput) (*SendPaymentOutput, error) {
	tx, err := entity.NewTransaction(input.PayerID, input.PayeeID, input.IdempotencyKey, input.Amount, input.Currency)
	if err != nil {
		return nil, apperrors.BadRequest(apperrors.WithMessage(err.Error()))
	}

	tx, created, err := uc.transactions.Admit(ctx, tx)
	if err != nil {
		return nil, apperrors.Unexpected(apperrors.WithError(err))
	}
	if !created {
		uc.logger.InfoContext(ctx, "idempotent replay",
			slog.String("transaction_id", tx.ID),
			slog.String("idempotency_key", tx.IdempotencyKey),
			slog.String("status", string(tx.Status)),
		)
		return output(tx, true), nil
	}

	return uc.drive(ctx, tx)
}

func (uc *SendPaymentUseCase) drive(ctx context.Context, tx *entity.Transaction) (*SendPaymentOutput, error) {
	if err := uc.transition(ctx, tx, entity.StatusValidating); err != nil {
		return uc.concede(ctx, tx, err)
	}

	if reason := uc.validate(ctx, tx); reason != "" {
		if err := uc.fail(ctx, tx, reason); err != nil {
			return nil, apperrors.Unexpected(apperrors.WithError(err))
		}
		return output(tx, false), nil
	}

	if err := uc.transition(ctx, tx, entity.StatusDebitPending); err != nil {
		return uc.concede(ctx, tx, err)
	}

	switch err := uc.debitPayer(ctx, tx); {
	case errors.Is(err, ports.ErrInsufficientFunds):
		if err := uc.fail(ctx, tx, entity.ReasonInsufficientFunds); err != nil {
			return nil, apperrors.Unexpected(apperrors.WithError(err))
		}
		return output(tx, false), nil
	case err != nil:
		return uc.concede(ctx, tx, err)
	}

	if err := uc.transition(ctx, tx, entity.StatusDebitConfirmed); err != nil {
		return uc.concede(ctx, tx, err)
	}
	if err := uc.transition(ctx, tx, entity.StatusCreditPending); err != nil {
		return uc.concede(ctx, tx, err)
	}

	result, err := uc.submitWithRetry(ctx, tx)
	if err != nil {
		// Retries exhausted on timeouts or unreachable rail: the money
		// movement is unknown. Park the transaction for reconciliation,
		// never guess an outcome.
		if terr := uc.transition(ctx, tx, entity.StatusAmbiguous); terr != nil {
			return uc.concede(ctx, tx, terr)
		}
		railAmbiguousTotal.Inc()
		uc.logger.WarnContext(ctx, "rail outcome unknown, parked for reconciliation",
			slog.String("transaction_id", tx.ID),
			slog.Int("attempts", tx.RetryCount),
		)
		return output(tx, false), nil
	}

	if !result.Accepted {
		if err := uc.reverse(ctx, tx, entity.ReasonRailDeclined); err != nil {
			return nil, err
		}
		return output(tx, false), nil
	}

	tx.AssignExternalRef(result.ExternalRef)
	if err := uc.settle(ctx, tx); err != nil {
		return nil, err
	}
	return output(tx, false), nil
}

// validate runs the static checks of the VALIDATING step and returns the
// failure reason, or "" when the request is sound.
func (uc *SendPaymentUseCase) validate(ctx context.Context, tx *entity.Transaction) string {
	if err := tx.Validate(); err != nil {
		return entity.ReasonInvalidRequest
	}
	if _, err := uc.accounts.FindByID(ctx, tx.PayeeID); err != nil {
		return entity.ReasonInvalidRequest
	}
	return ""
}

func (uc *SendPaymentUseCase) debitPayer(ctx context.Context, tx *entity.Transaction) error {
	for attempt := 0; attempt < versionRetries; attempt++ {
		payer, err := uc.accounts.FindByID(ctx, tx.PayerID)
		if err != nil {
			return err
		}
		_, err = uc.accounts.Debit(ctx, payer.ID, tx.Amount, payer.Version, tx.ID)
		if errors.Is(err, ports.ErrVersionConflict) {
			continue
		}
		return err
	}
	return ports.ErrVersionConflict
}

func (uc *SendPaymentUseCase) creditAccount(ctx context.Context, accountID string, amount int64, transactionID string) error {
	for attempt := 0; attempt < versionRetries; attempt++ {
		account, err := uc.accounts.FindByID(ctx, accountID)
		if err != nil {
			return err
		}
		_, err = uc.accounts.Credit(ctx, account.ID, amount, account.Version, transactionID)
		if errors.Is(err, ports.ErrVersionConflict) {
			continue
		}
		return err
	}
	return ports.ErrVersionConflict
}

// submitWithRetry calls the rail with bounded exponential backoff.
// Definite answers (accepted or declined) return immediately; transient
// failures retry until the attempt budget runs out.
func (uc *SendPaymentUseCase) submitWithRetry(ctx context.Context, tx *entity.Transaction) (*ports.SubmitResult, error) {
	var lastErr error
	for attempt := 0; attempt < uc.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, uc.retryBase<<(attempt-1)); err != nil {
				return nil, err
			}
		}

		railSubmitAttempts.Inc()
		result, err := uc.rail.Submit(ctx, tx)
		if err == nil {
			return result, nil
		}

		tx.RetryCount++
		lastErr = err
		uc.logger.WarnContext(ctx, "rail submit failed",
			slog.String("transaction_id", tx.ID),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()),
		)
	}
	return nil, lastErr
}

func (uc *SendPaymentUseCase) settle(ctx context.Context, tx *entity.Transaction) error {
	if err := uc.creditAccount(ctx, tx.PayeeID, tx.Amount, tx.ID); err != nil {
		return apperrors.Unexpected(apperrors.WithError(err))
	}

	debit, credit, err := uc.ledger.SumByTransaction(ctx, tx.ID)
	if err != nil {
		return apperrors.Unexpected(apperrors.WithError(err))
	}
	if debit != credit {
		// Ledger imbalance is an invariant violation: freeze the
		// transaction for operator review, never settle over it.
		return uc.escalateImbalance(ctx, tx, debit, credit)
	}

	if err := tx.TransitionTo(entity.StatusSettled); err != nil {
		return apperrors.Unexpected(apperrors.WithError(err))
	}
	if err := uc.transactions.UpdateWithOutbox(ctx, tx, LifecycleEvent(tx)); err != nil {
		return apperrors.Unexpected(apperrors.WithError(err))
	}

	transactionsTerminalTotal.WithLabelValues(string(entity.StatusSettled)).Inc()
	uc.logger.InfoContext(ctx, "transaction settled",
		slog.String("transaction_id", tx.ID),
		slog.Int64("amount", tx.Amount),
	)
	return nil
}

func (uc *SendPaymentUseCase) reverse(ctx context.Context, tx *entity.Transaction, reason string) error {
	if err := uc.transition(ctx, tx, entity.StatusReversalPending); err != nil {
		return apperrors.Unexpected(apperrors.WithError(err))
	}

	// Credit the payer back. The ledger uniqueness makes a replayed
	// reversal a no-op.
	if err := uc.creditAccount(ctx, tx.PayerID, tx.Amount, tx.ID); err != nil {
		return apperrors.Unexpected(apperrors.WithError(err))
	}

	if err := tx.TransitionTo(entity.StatusReversed); err != nil {
		return apperrors.Unexpected(apperrors.WithError(err))
	}
	tx.FailureReason = &reason
	if err := uc.transactions.UpdateWithOutbox(ctx, tx, LifecycleEvent(tx)); err != nil {
		return apperrors.Unexpected(apperrors.WithError(err))
	}

	transactionsTerminalTotal.WithLabelValues(string(entity.StatusReversed)).Inc()
	uc.logger.InfoContext(ctx, "transaction reversed",
		slog.String("transaction_id", tx.ID),
		slog.String("reason", reason),
	)
	return nil
}

func (uc *SendPaymentUseCase) fail(ctx context.Context, tx *entity.Transaction, reason string) error {
	if err := tx.Fail(reason); err != nil {
		return err
	}
	if err := uc.transactions.UpdateWithOutbox(ctx, tx, LifecycleEvent(tx)); err != nil {
		return err
	}
	transactionsTerminalTotal.WithLabelValues(string(entity.StatusFailed)).Inc()
	uc.logger.InfoContext(ctx, "transaction failed",
		slog.String("transaction_id", tx.ID),
		slog.String("reason", reason),
	)
	return nil
}

func (uc *SendPaymentUseCase) escalateImbalance(ctx context.Context, tx *entity.Transaction, debit, credit int64) error {
	tx.Escalated = true
	if err := uc.transactions.UpdateWithOutbox(ctx, tx, EscalationEvent(tx)); err != nil {
		uc.logger.ErrorContext(ctx, "failed to persist escalation",
			slog.String("transaction_id", tx.ID),
			slog.String("error", err.Error()),
		)
	}
	uc.logger.ErrorContext(ctx, "ledger imbalance detected",
		slog.String("transaction_id", tx.ID),
		slog.Int64("debit", debit),
		slog.Int64("credit", credit),
	)
	return apperrors.Unexpected(apperrors.WithMessage("ledger invariant violation, transaction frozen for review"))
}

func (uc *SendPaymentUseCase) transition(ctx context.Context, tx *entity.Transaction, next entity.TransactionStatus) error {
	if err := tx.TransitionTo(next); err != nil {
		return err
	}
	return uc.transactions.Update(ctx, tx)
}

// concede handles a lost version race mid-flight: another writer (the
// reconciler, typically) claimed the row. Reload and report its state.
func (uc *SendPaymentUseCase) concede(ctx context.Context, tx *entity.Transaction, cause error) (*SendPaymentOutput, error) {
	if !errors.Is(cause, ports.ErrVersionConflict) {
		return nil, apperrors.Unexpected(apperrors.WithError(cause))
	}
	current, err := uc.transactions.FindByID(ctx, tx.ID)
	if err != nil {
		return nil, apperrors.Unexpected(apperrors.WithError(err))
	}
	return output(current, false), nil
}

func output(tx *entity.Transaction, idempotent bool) *SendPaymentOutput {
	out := &SendPaymentOutput{
		TransactionID: tx.ID,
		Status:        string(tx.Status),
		Idempotent:    idempotent,
	}
	if tx.FailureReason != nil {
		out.FailureReason = *tx.FailureReason
	}
	if tx.ExternalRef != nil {
		out.ExternalRef = *tx.ExternalRef
	}
	return out
}

// LifecycleEvent builds the outbox event for a transaction that reached
// a terminal state.
func LifecycleEvent(tx *entity.Transaction) *entity.Outbox {
	var eventType string
	switch tx.Status {
	case entity.StatusSettled:
		eventType = entity.EventTransactionSettled
	case entity.StatusReversed:
		eventType = entity.EventTransactionReversed
	default:
		eventType = entity.EventTransactionFailed
	}
	return entity.NewOutbox(eventType, lifecyclePayload(tx))
}

// EscalationEvent builds the outbox event for a transaction frozen for
// operator review.
func EscalationEvent(tx *entity.Transaction) *entity.Outbox {
	return entity.NewOutbox(entity.EventTransactionEscalated, lifecyclePayload(tx))
}

func lifecyclePayload(tx *entity.Transaction) string {
	payload, _ := json.Marshal(map[string]any{
		"transactionId": tx.ID,
		"payerId":       tx.PayerID,
		"payeeId":       tx.PayeeID,
		"amount":        tx.Amount,
		"currency":      tx.Currency,
		"status":        string(tx.Status),
		"externalRef":   tx.ExternalRef,
		"failureReason": tx.FailureReason,
	})
	return string(payload)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
