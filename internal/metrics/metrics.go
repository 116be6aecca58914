// Package metrics exposes Prometheus instrumentation for manager
// operations. Registration happens unconditionally at import time;
// serving /metrics is left to the adapter (§1 out-of-scope boundary).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	operationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taskengine_manager_operations_total",
		Help: "Count of Manager mutations by operation and outcome.",
	}, []string{"operation", "outcome"})

	saveDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "taskengine_manager_save_duration_seconds",
		Help:    "Latency of a single Manager save pipeline call.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(operationsTotal, saveDuration)
}

// Observe records one manager operation outcome. err is the operation's
// return value: nil records outcome=ok, non-nil records outcome=error.
func Observe(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	operationsTotal.WithLabelValues(operation, outcome).Inc()
}

// Timer returns a func to call at the end of a save pipeline call to
// observe its duration.
func Timer() func() {
	start := time.Now()
	return func() { saveDuration.Observe(time.Since(start).Seconds()) }
}
