package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transactionsTerminalTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payment_orchestrator",
			Name:      "transactions_terminal_total",
			Help:      "Transactions that reached a terminal state, by status.",
		},
		[]string{"status"},
	)

	railSubmitAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "payment_orchestrator",
			Name:      "rail_submit_attempts_total",
			Help:      "Total rail submit attempts including retries.",
		},
	)

	railAmbiguousTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "payment_orchestrator",
			Name:      "rail_ambiguous_total",
			Help:      "Transactions parked as AMBIGUOUS after exhausting rail retries.",
		},
	)
)
