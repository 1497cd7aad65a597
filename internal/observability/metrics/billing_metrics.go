package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Invoice outcomes of a single charge attempt.
const (
	OutcomePaid             = "paid"
	OutcomeDeclined         = "declined"
	OutcomeClassifiedError  = "classified_error"
	OutcomeUnclassified     = "unclassified_error"
	OutcomeCurrencyMismatch = "currency_mismatch"
	OutcomeOrphanDeleted    = "orphan_deleted"
	OutcomeSkipped          = "skipped"
	OutcomeFailed           = "failed"
)

// BillingMetrics tracks billing pass throughput and charge outcomes.
type BillingMetrics struct {
	passes       *prometheus.CounterVec
	outstanding  prometheus.Gauge
	outcomes     *prometheus.CounterVec
	passSnapshot prometheus.Observer
}

var (
	billingMetricsOnce sync.Once
	billingMetrics     *BillingMetrics
)

// Billing returns the singleton billing metrics registry.
func Billing() *BillingMetrics {
	return BillingWithConfig(Config{})
}

// BillingWithConfig returns the singleton billing metrics registry using config labels.
func BillingWithConfig(cfg Config) *BillingMetrics {
	billingMetricsOnce.Do(func() {
		billingMetrics = newBillingMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return billingMetrics
}

// ResetBillingMetricsForTest resets the billing metrics singleton for tests.
func ResetBillingMetricsForTest() {
	billingMetricsOnce = sync.Once{}
	billingMetrics = nil
}

func newBillingMetrics(registerer prometheus.Registerer, cfg Config) *BillingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := constLabelsFor(cfg)

	passes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "autocharge_billing_passes_total",
		Help:        "Billing passes by result.",
		ConstLabels: constLabels,
	}, []string{"result"})
	outstanding := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "autocharge_billing_outstanding_invoices",
		Help:        "Outstanding invoices seen by the latest billing pass snapshot.",
		ConstLabels: constLabels,
	})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "autocharge_billing_invoice_outcomes_total",
		Help:        "Per-invoice charge protocol outcomes.",
		ConstLabels: constLabels,
	}, []string{"outcome"})
	passSnapshot := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "autocharge_billing_pass_snapshot_size",
		Help:        "Invoices per billing pass snapshot.",
		Buckets:     prometheus.ExponentialBuckets(1, 4, 10),
		ConstLabels: constLabels,
	})

	registerer.MustRegister(passes, outstanding, outcomes, passSnapshot)

	return &BillingMetrics{
		passes:       passes,
		outstanding:  outstanding,
		outcomes:     outcomes,
		passSnapshot: passSnapshot,
	}
}

// IncPass counts a finished pass; result is "ok", "partial" or "skipped".
func (m *BillingMetrics) IncPass(result string) {
	if m == nil || m.passes == nil {
		return
	}
	m.passes.WithLabelValues(result).Inc()
}

// ObserveSnapshot records the size of a pass snapshot.
func (m *BillingMetrics) ObserveSnapshot(size int) {
	if m == nil {
		return
	}
	m.outstanding.Set(float64(size))
	m.passSnapshot.Observe(float64(size))
}

// IncOutcome counts one invoice outcome.
func (m *BillingMetrics) IncOutcome(outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome).Inc()
}
