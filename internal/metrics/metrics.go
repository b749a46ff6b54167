// Package metrics provides Prometheus metrics collection for the interval
// forest library. It defines counters and histograms for ensemble
// construction, feature extraction, and inference, exposed via the standard
// Prometheus endpoint of the embedding binary.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the library.
type Metrics struct {
	MembersBuilt        prometheus.Counter   // Total ensemble members built
	MemberRetries       prometheus.Counter   // Member builds retried after a learner failure
	MemberBuildDuration prometheus.Histogram // Wall-clock duration of single member builds
	ExtractDuration     prometheus.Histogram // Duration of feature-table extraction passes
	NaNReplacements     prometheus.Counter   // Non-finite feature values substituted
	Predictions         prometheus.Counter   // Per-case predictions served
	FitsTotal           prometheus.Counter   // Completed fit calls
	FitFailures         prometheus.Counter   // Fit calls that ended with zero members
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry, which keeps tests
// isolated from the global registry.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		MembersBuilt: factory.NewCounter(prometheus.CounterOpts{
			Name: "forest_members_built_total",
			Help: "Total ensemble members built",
		}),
		MemberRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "forest_member_retries_total",
			Help: "Total member builds retried after a base learner failure",
		}),
		MemberBuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "forest_member_build_seconds",
			Help:    "Wall-clock duration of single member builds",
			Buckets: prometheus.DefBuckets,
		}),
		ExtractDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "forest_extract_seconds",
			Help:    "Duration of interval feature extraction passes",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		}),
		NaNReplacements: factory.NewCounter(prometheus.CounterOpts{
			Name: "forest_nan_replacements_total",
			Help: "Non-finite feature values replaced with the configured sentinel",
		}),
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "forest_predictions_total",
			Help: "Per-case predictions served",
		}),
		FitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "forest_fits_total",
			Help: "Completed fit calls",
		}),
		FitFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "forest_fit_failures_total",
			Help: "Fit calls that ended with zero members",
		}),
	}
}
