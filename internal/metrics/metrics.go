// Package metrics provides protocol observability counters. All observer
// methods are nil-safe so wiring metrics stays optional in tests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Originations *prometheus.CounterVec // outcome: "active", "rejected", "error"
	Repayments   *prometheus.CounterVec // outcome: "partial", "repaid", "rejected"
	Seizures     *prometheus.CounterVec // kind: "liquidation", "default"
	StalePrices  prometheus.Counter
	OpDuration   *prometheus.HistogramVec // op: "originate", "repay", "check_health", "expire"
}

func New() *Metrics {
	return &Metrics{
		Originations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lendora_originations_total",
			Help: "Loan origination attempts by outcome",
		}, []string{"outcome"}),

		Repayments: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lendora_repayments_total",
			Help: "Repayment attempts by outcome",
		}, []string{"outcome"}),

		Seizures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lendora_seizures_total",
			Help: "Collateral seizures by kind",
		}, []string{"kind"}),

		StalePrices: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lendora_stale_price_failures_total",
			Help: "Operations rejected because the price reference was stale",
		}),

		OpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lendora_loan_op_duration_seconds",
			Help:    "Duration of loan manager operations",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"op"}),
	}
}

func (m *Metrics) IncOrigination(outcome string) {
	if m != nil {
		m.Originations.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncRepayment(outcome string) {
	if m != nil {
		m.Repayments.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncSeizure(kind string) {
	if m != nil {
		m.Seizures.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncStalePrice() {
	if m != nil {
		m.StalePrices.Inc()
	}
}

func (m *Metrics) ObserveOp(op string, d time.Duration) {
	if m != nil {
		m.OpDuration.WithLabelValues(op).Observe(d.Seconds())
	}
}
