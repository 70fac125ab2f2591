package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var reconcilerResolutions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "payment_orchestrator",
		Name:      "reconciler_resolutions_total",
		Help:      "Reconciler outcomes per processed transaction.",
	},
	[]string{"outcome"},
)
