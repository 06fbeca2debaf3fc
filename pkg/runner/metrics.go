package runner

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// FaultlineRunsTotal counts finished runs by outcome.
	FaultlineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_runs_total",
			Help: "Total number of scenario runs by terminal state",
		},
		[]string{"state"},
	)

	// FaultlineStepsTotal counts executed steps by type and terminal status.
	FaultlineStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_steps_total",
			Help: "Total number of scenario steps by type and status",
		},
		[]string{"type", "status"},
	)

	// FaultlineActiveRuns tracks the number of runs in flight.
	FaultlineActiveRuns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "faultline_active_runs",
			Help: "Number of scenario runs currently executing",
		},
	)

	// FaultlineRunDuration observes wall-clock run length.
	FaultlineRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "faultline_run_duration_seconds",
			Help:    "Wall-clock duration of finished scenario runs",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)
)

func init() {
	// Register metrics with the default registry
	prometheus.MustRegister(FaultlineRunsTotal)
	prometheus.MustRegister(FaultlineStepsTotal)
	prometheus.MustRegister(FaultlineActiveRuns)
	prometheus.MustRegister(FaultlineRunDuration)
}
