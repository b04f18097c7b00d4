// Package metrics exposes Prometheus metrics for loop processing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loopsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loopgen_loops_started_total",
		Help: "Loop compositions started, by mode",
	}, []string{"mode"})

	loopsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loopgen_loops_completed_total",
		Help: "Loop compositions finished, by mode and outcome",
	}, []string{"mode", "outcome"}) // outcome=success|failure

	composeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "loopgen_compose_duration_seconds",
		Help:    "Wall-clock duration of loop composition, by mode",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s .. ~17min
	}, []string{"mode"})

	probeDegradations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loopgen_probe_degradations_total",
		Help: "Non-fatal probe fallbacks to sentinel values, by field",
	}, []string{"field"}) // field=height|fps

	wraparoundFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loopgen_crossfade_wraparound_fallbacks_total",
		Help: "Crossfade runs where the wraparound pass was skipped because the looped clip was too short",
	})
)

// RecordLoopStarted increments the started counter for a mode.
func RecordLoopStarted(mode string) {
	loopsStarted.WithLabelValues(mode).Inc()
}

// RecordLoopCompleted increments the completed counter and observes the
// composition duration.
func RecordLoopCompleted(mode string, success bool, elapsed time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	loopsCompleted.WithLabelValues(mode, outcome).Inc()
	composeDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// RecordProbeDegradation counts a height or fps probe falling back to its
// sentinel value.
func RecordProbeDegradation(field string) {
	probeDegradations.WithLabelValues(field).Inc()
}

// RecordWraparoundFallback counts a skipped crossfade wraparound pass.
func RecordWraparoundFallback() {
	wraparoundFallbacks.Inc()
}
