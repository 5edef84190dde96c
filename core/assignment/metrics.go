package assignment

import "github.com/prometheus/client_golang/prometheus"

var (
	commitsTotal  prometheus.Counter
	commitsFailed prometheus.Counter
	commitLatency prometheus.Histogram
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Counter, prometheus.Counter, prometheus.Histogram) {
	total := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assignment_commits_total",
		Help: "Number of assignments committed to the backend",
	})
	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assignment_commits_failed_total",
		Help: "Number of assignment commits rejected by the backend",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "assignment_commit_latency_seconds",
		Help:    "Latency of assignment commits",
		Buckets: prometheus.DefBuckets,
	})
	return total, failed, latency
}

func init() {
	commitsTotal, commitsFailed, commitLatency = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers assignment metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(commitsTotal, commitsFailed, commitLatency)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	commitsTotal, commitsFailed, commitLatency = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
