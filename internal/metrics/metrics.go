// Package metrics exposes the service's Prometheus collectors. All
// collectors live on the default registry; package-level declaration
// keeps registration a one-time affair.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Submissions counts jobs accepted into the ingress queue.
	Submissions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seiza_submissions_total",
		Help: "Jobs accepted into the ingress queue.",
	})

	// Outcomes counts terminal transitions, labelled completed or failed.
	Outcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seiza_job_outcomes_total",
		Help: "Terminal job outcomes by result.",
	}, []string{"result"})

	// RenderDuration observes wall-clock render time in seconds.
	RenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "seiza_render_duration_seconds",
		Help:    "Render wall-clock duration.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	// QueueDepth tracks ids waiting in the ingress queue.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "seiza_queue_depth",
		Help: "Ids waiting in the ingress queue.",
	})

	// AdmissionDenials counts denials by quota dimension.
	AdmissionDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seiza_admission_denials_total",
		Help: "Admission denials by quota dimension.",
	}, []string{"dimension"})

	// SweepRemovals counts sweeper removals by kind: record, artifact,
	// or orphan.
	SweepRemovals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seiza_sweep_removals_total",
		Help: "Sweeper removals by kind.",
	}, []string{"kind"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
