// Package metrics provides Prometheus metrics for the ingestion pipeline and API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pricetracker"

var (
	// RunsTotal counts pipeline runs by mode.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Total number of pipeline runs",
		},
		[]string{"mode"},
	)

	// RunDuration measures how long a pipeline run takes.
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_run_duration_seconds",
			Help:      "Duration of pipeline runs in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"mode"},
	)

	// HeadlinesTotal counts headlines by terminal outcome and drop reason.
	HeadlinesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "headlines_total",
			Help:      "Headlines processed by outcome",
		},
		[]string{"mode", "outcome", "reason"},
	)

	// ClassificationsTotal counts classifier labels, including cache hits.
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Classifier verdicts by label and origin",
		},
		[]string{"label", "origin"},
	)

	// PageErrorsTotal counts listing pages that failed to load.
	PageErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_page_errors_total",
			Help:      "Listing pages skipped because of errors",
		},
		[]string{"mode"},
	)

	// UpvotesTotal counts toggles by action.
	UpvotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upvote_toggles_total",
			Help:      "Upvote toggles by resulting action",
		},
		[]string{"action"},
	)
)

// RecordRun records a finished pipeline run.
func RecordRun(mode string, seconds float64, pageErrors int) {
	RunsTotal.WithLabelValues(mode).Inc()
	RunDuration.WithLabelValues(mode).Observe(seconds)
	if pageErrors > 0 {
		PageErrorsTotal.WithLabelValues(mode).Add(float64(pageErrors))
	}
}

// RecordHeadline records the terminal state of one headline.
func RecordHeadline(mode, outcome, reason string) {
	HeadlinesTotal.WithLabelValues(mode, outcome, reason).Inc()
}

// RecordClassification records a classifier verdict; origin is "model" or "cache".
func RecordClassification(label, origin string) {
	ClassificationsTotal.WithLabelValues(label, origin).Inc()
}

// RecordUpvote records an upvote toggle.
func RecordUpvote(action string) {
	UpvotesTotal.WithLabelValues(action).Inc()
}
