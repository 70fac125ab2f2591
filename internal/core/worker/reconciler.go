package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"payment-orchestrator/internal/core/domain/entity"
	"payment-orchestrator/internal/core/domain/ports"
	"payment-orchestrator/internal/core/usecase"
)

// reconcilable are the states the scan picks up: AMBIGUOUS rows plus
// transactions stuck mid-flight past the staleness threshold (a crash
// anywhere between the debit step and the rail answer leaves exactly
// these).
var reconcilable = []entity.TransactionStatus{
	entity.StatusAmbiguous,
	entity.StatusDebitPending,
	entity.StatusDebitConfirmed,
	entity.StatusCreditPending,
}

type ReconcilerConfig struct {
	Interval  time.Duration
	Staleness time.Duration
	BatchSize int
	MaxCycles int
}

// Reconciler converges stuck transactions to a terminal state by asking
// the rail what actually happened. It never guesses: unknown answers are
// left for the next cycle until the escalation cap.
type Reconciler struct {
	transactions ports.TransactionRepository
	accounts     ports.AccountStore
	ledger       ports.LedgerRepository
	rail         ports.RailConnector
	cfg          ReconcilerConfig
	logger       *slog.Logger
}

func NewReconciler(
	transactions ports.TransactionRepository,
	accounts ports.AccountStore,
	ledger ports.LedgerRepository,
	rail ports.RailConnector,
	cfg ReconcilerConfig,
	logger *slog.Logger,
) *Reconciler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxCycles <= 0 {
		cfg.MaxCycles = 10
	}
	return &Reconciler{
		transactions: transactions,
		accounts:     accounts,
		ledger:       ledger,
		rail:         rail,
		cfg:          cfg,
		logger:       logger,
	}
}

func (r *Reconciler) Run(ctx context.Context) {
	r.logger.InfoContext(ctx, "reconciler started",
		slog.Duration("interval", r.cfg.Interval),
		slog.Duration("staleness", r.cfg.Staleness),
	)
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "reconciler stopped")
			return
		case <-ticker.C:
			r.process(ctx)
		}
	}
}

func (r *Reconciler) process(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-r.cfg.Staleness)
	txs, err := r.transactions.FindStale(ctx, reconcilable, cutoff, r.cfg.BatchSize)
	if err != nil {
		r.logger.ErrorContext(ctx, "stale scan failed", slog.String("error", err.Error()))
		return
	}
	if len(txs) == 0 {
		return
	}

	r.logger.InfoContext(ctx, "reconciling batch", slog.Int("count", len(txs)))
	for _, tx := range txs {
		r.resolve(ctx, tx)
	}
}

func (r *Reconciler) resolve(ctx context.Context, tx *entity.Transaction) {
	// Claim the row with a version bump before acting. Losing the claim
	// means the live path (or another worker) owns it; back off.
	tx.ReconcileAttempts++
	if err := r.transactions.Update(ctx, tx); err != nil {
		if errors.Is(err, ports.ErrVersionConflict) {
			reconcilerResolutions.WithLabelValues("claim_lost").Inc()
			return
		}
		r.logger.ErrorContext(ctx, "claim failed",
			slog.String("transaction_id", tx.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	if tx.Status == entity.StatusDebitPending {
		if done := r.recoverDebitPending(ctx, tx); done {
			return
		}
	}

	externalRef := ""
	if tx.ExternalRef != nil {
		externalRef = *tx.ExternalRef
	}

	status, err := r.rail.QueryStatus(ctx, externalRef, tx.IdempotencyKey)
	if err != nil {
		// Transport failures resolve nothing; same handling as unknown.
		status = ports.RailStatusUnknown
	}

	switch status {
	case ports.RailStatusSettled:
		r.settle(ctx, tx)
	case ports.RailStatusFailed:
		r.reverse(ctx, tx)
	default:
		r.handleUnknown(ctx, tx)
	}
}

// recoverDebitPending resolves a crash inside the debit step. The ledger
// tells the truth: an existing DEBIT entry means the money moved and the
// row proceeds as DEBIT_CONFIRMED; no entry means nothing moved yet and
// the transaction can still fail cleanly. The rail was never called from
// this state, so failing is safe.
func (r *Reconciler) recoverDebitPending(ctx context.Context, tx *entity.Transaction) (done bool) {
	debit, _, err := r.ledger.SumByTransaction(ctx, tx.ID)
	if err != nil {
		r.logger.ErrorContext(ctx, "ledger sum failed",
			slog.String("transaction_id", tx.ID),
			slog.String("error", err.Error()),
		)
		return true
	}

	if debit == 0 {
		if err := tx.Fail(entity.ReasonAbandoned); err != nil {
			return true
		}
		if err := r.transactions.UpdateWithOutbox(ctx, tx, usecase.LifecycleEvent(tx)); err != nil {
			r.logger.ErrorContext(ctx, "fail persist failed",
				slog.String("transaction_id", tx.ID),
				slog.String("error", err.Error()),
			)
			return true
		}
		reconcilerResolutions.WithLabelValues("failed").Inc()
		r.logger.InfoContext(ctx, "abandoned before the debit, failed",
			slog.String("transaction_id", tx.ID),
		)
		return true
	}

	return r.transitionAndPersist(ctx, tx, entity.StatusDebitConfirmed) != nil
}

func (r *Reconciler) settle(ctx context.Context, tx *entity.Transaction) {
	// A row stuck in DEBIT_CONFIRMED has to pass through CREDIT_PENDING;
	// the graph forbids skipping straight to SETTLED.
	if tx.Status == entity.StatusDebitConfirmed {
		if err := r.transitionAndPersist(ctx, tx, entity.StatusCreditPending); err != nil {
			return
		}
	}

	if err := r.creditWithRetry(ctx, tx.PayeeID, tx.Amount, tx.ID); err != nil {
		r.logger.ErrorContext(ctx, "payee credit failed",
			slog.String("transaction_id", tx.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	debit, credit, err := r.ledger.SumByTransaction(ctx, tx.ID)
	if err != nil {
		r.logger.ErrorContext(ctx, "ledger sum failed",
			slog.String("transaction_id", tx.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	if debit != credit {
		r.escalate(ctx, tx, "ledger imbalance")
		return
	}

	if err := tx.TransitionTo(entity.StatusSettled); err != nil {
		r.logger.ErrorContext(ctx, "settle transition rejected",
			slog.String("transaction_id", tx.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := r.transactions.UpdateWithOutbox(ctx, tx, usecase.LifecycleEvent(tx)); err != nil {
		r.logger.ErrorContext(ctx, "settle persist failed",
			slog.String("transaction_id", tx.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	reconcilerResolutions.WithLabelValues("settled").Inc()
	r.logger.InfoContext(ctx, "reconciled to settled", slog.String("transaction_id", tx.ID))
}

func (r *Reconciler) reverse(ctx context.Context, tx *entity.Transaction) {
	if err := r.transitionAndPersist(ctx, tx, entity.StatusReversalPending); err != nil {
		return
	}

	if err := r.creditWithRetry(ctx, tx.PayerID, tx.Amount, tx.ID); err != nil {
		r.logger.ErrorContext(ctx, "payer refund failed",
			slog.String("transaction_id", tx.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := tx.TransitionTo(entity.StatusReversed); err != nil {
		return
	}
	reason := entity.ReasonRailDeclined
	tx.FailureReason = &reason
	if err := r.transactions.UpdateWithOutbox(ctx, tx, usecase.LifecycleEvent(tx)); err != nil {
		r.logger.ErrorContext(ctx, "reverse persist failed",
			slog.String("transaction_id", tx.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	reconcilerResolutions.WithLabelValues("reversed").Inc()
	r.logger.InfoContext(ctx, "reconciled to reversed", slog.String("transaction_id", tx.ID))
}

func (r *Reconciler) handleUnknown(ctx context.Context, tx *entity.Transaction) {
	if tx.ReconcileAttempts < r.cfg.MaxCycles {
		reconcilerResolutions.WithLabelValues("unknown").Inc()
		return
	}
	r.escalate(ctx, tx, "reconcile cycle cap reached")
}

// escalate flags the transaction for operator resolution. Escalated rows
// are excluded from future scans and never auto-resolved.
func (r *Reconciler) escalate(ctx context.Context, tx *entity.Transaction, cause string) {
	tx.Escalated = true
	if err := r.transactions.UpdateWithOutbox(ctx, tx, usecase.EscalationEvent(tx)); err != nil {
		r.logger.ErrorContext(ctx, "escalation persist failed",
			slog.String("transaction_id", tx.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	reconcilerResolutions.WithLabelValues("escalated").Inc()
	r.logger.ErrorContext(ctx, "transaction escalated for operator review",
		slog.String("transaction_id", tx.ID),
		slog.String("cause", cause),
		slog.Int("cycles", tx.ReconcileAttempts),
	)
}

func (r *Reconciler) transitionAndPersist(ctx context.Context, tx *entity.Transaction, next entity.TransactionStatus) error {
	if err := tx.TransitionTo(next); err != nil {
		r.logger.ErrorContext(ctx, "transition rejected",
			slog.String("transaction_id", tx.ID),
			slog.String("error", err.Error()),
		)
		return err
	}
	if err := r.transactions.Update(ctx, tx); err != nil {
		r.logger.ErrorContext(ctx, "transition persist failed",
			slog.String("transaction_id", tx.ID),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

func (r *Reconciler) creditWithRetry(ctx context.Context, accountID string, amount int64, transactionID string) error {
	const attempts = 3
	var lastErr error
	for i := 0; i < attempts; i++ {
		account, err := r.accounts.FindByID(ctx, accountID)
		if err != nil {
			return err
		}
		_, err = r.accounts.Credit(ctx, account.ID, amount, account.Version, transactionID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ports.ErrVersionConflict) {
			return err
		}
		lastErr = err
	}
	return lastErr
}
