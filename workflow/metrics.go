package workflow

import "github.com/prometheus/client_golang/prometheus"

// metrics bundles the branch scheduler's optional Prometheus instruments
// (spec §3's domain-stack wiring: "a histogram of barrier wait time and a
// counter of cancelled generations"). A nil *metrics disables collection
// entirely; Observe/Inc are only ever called through the *metrics methods
// below, which check for nil first.
type metrics struct {
	barrierWait prometheus.Histogram
	cancelled   prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}
	m := &metrics{
		barrierWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "genflow",
			Subsystem: "branch_group",
			Name:      "barrier_wait_seconds",
			Help:      "Time a branch spent blocked on a single-executor-region barrier.",
			Buckets:   prometheus.DefBuckets,
		}),
		cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "genflow",
			Subsystem: "branch_group",
			Name:      "cancelled_generations_total",
			Help:      "Number of Run calls that ended in cancellation or a branch error.",
		}),
	}
	reg.MustRegister(m.barrierWait, m.cancelled)
	return m
}

func (m *metrics) observeBarrierWait(seconds float64) {
	if m == nil {
		return
	}
	m.barrierWait.Observe(seconds)
}

func (m *metrics) incCancelled() {
	if m == nil {
		return
	}
	m.cancelled.Inc()
}
