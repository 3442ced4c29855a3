package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
)

// CheckoutMetrics records settlement outcomes.
type CheckoutMetrics struct {
	outcomes *prometheus.CounterVec
	retries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the settlement metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_settlements_total",
		Help: "Settlement attempts by flow and outcome.",
	}, []string{"flow", "outcome"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_conflict_retries_total",
		Help: "Settlements retried after losing a conditional update.",
	}, []string{"step"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_settlement_duration_seconds",
		Help:    "Duration of settlements including retries.",
		Buckets: prometheus.DefBuckets,
	}, []string{"flow"})
	reg.MustRegister(outcomes, retries, duration)
	return &CheckoutMetrics{
		outcomes: outcomes,
		retries:  retries,
		duration: duration,
	}
}

// ObserveOutcome counts one finished settlement and records how long it took.
// outcome is OutcomeSuccess or the error kind.
func (m *CheckoutMetrics) ObserveOutcome(flow, outcome string, d time.Duration) {
	if m == nil || m.outcomes == nil {
		return
	}
	flow = normalizeLabel(flow)
	m.outcomes.WithLabelValues(flow, normalizeLabel(outcome)).Inc()
	m.duration.WithLabelValues(flow).Observe(d.Seconds())
}

// IncConflictRetry counts a retry caused by a conflict at the given commit step.
func (m *CheckoutMetrics) IncConflictRetry(step string) {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.WithLabelValues(normalizeLabel(step)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
