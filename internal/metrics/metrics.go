package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Campaign lifecycle metrics
	CampaignsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_runs_started_total",
			Help: "Total number of campaign runs started",
		},
	)

	CampaignsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_runs_finished_total",
			Help: "Total number of campaign runs by terminal state",
		},
		[]string{"state"},
	)

	// Per-item workflow metrics
	ItemsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_items_submitted_total",
			Help: "Total number of content items submitted successfully",
		},
	)

	ItemErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_item_errors_total",
			Help: "Total number of per-item workflow errors",
		},
		[]string{"kind"},
	)

	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campaign_step_duration_seconds",
			Help:    "Browser workflow step duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"step"},
	)

	// Live run state
	Progress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "campaign_progress_percent",
			Help: "Progress of the active campaign run",
		},
	)

	StatusObservers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "campaign_status_observers",
			Help: "Number of connected status stream observers",
		},
	)
)
