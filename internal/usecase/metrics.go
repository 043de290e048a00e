// internal/usecase/metrics.go
package usecase

import (
	"errors"
	"time"

	"core-banking-service/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess  = "success"
	outcomeFailure  = "failure"
	outcomeRejected = "rejected"
	outcomePanic    = "panic"
)

// Metrics
var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "core_banking_operations_total",
			Help: "Total number of core banking operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "core_banking_operation_duration_seconds",
			Help:    "Duration of core banking operations, including reconciliation and audit",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2, 5, 10, 30},
		},
		[]string{"operation"},
	)

	reconciliationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "core_banking_reconciliation_failures_total",
			Help: "Confirmed core operations that could not be applied to the portal tables",
		},
		[]string{"operation"},
	)

	auditFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "core_banking_audit_failures_total",
			Help: "Audit log rows that could not be written",
		},
	)

	stalePendingTasks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "core_banking_reconciliation_stale_pending",
			Help: "Reconciliation tasks stuck in pending, core outcome unknown",
		},
	)
)

func operationLabel(op domain.Operation) string {
	if op.Valid() {
		return string(op)
	}
	return "unknown"
}

func observeOperation(op domain.Operation, res *domain.Result, err error, elapsed time.Duration) {
	outcome := outcomeFailure
	switch {
	case errors.Is(err, domain.ErrInternal):
		outcome = outcomePanic
	case err != nil:
		outcome = outcomeRejected
	case res != nil && res.Success:
		outcome = outcomeSuccess
	}
	label := operationLabel(op)
	operationsTotal.WithLabelValues(label, outcome).Inc()
	operationDuration.WithLabelValues(label).Observe(elapsed.Seconds())
}
