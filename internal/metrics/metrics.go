package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Analysis metrics
	RunsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "citelens_runs_recorded_total",
			Help: "Total number of analysis runs persisted",
		},
	)

	CitationsCategorized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citelens_citations_categorized_total",
			Help: "Total citations categorized, by resulting category",
		},
		[]string{"category"},
	)

	BatchItemsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citelens_batch_items_processed_total",
			Help: "Batch analysis items processed, by outcome",
		},
		[]string{"outcome"},
	)

	// Answer engine metrics
	EngineRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citelens_engine_requests_total",
			Help: "Answer engine requests, by outcome",
		},
		[]string{"outcome"},
	)

	EngineRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "citelens_engine_request_duration_seconds",
			Help:    "Answer engine request duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	// Tagging metrics
	TagUpserts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "citelens_tag_upserts_total",
			Help: "Total domain tag upserts",
		},
	)

	CitationsRetagged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "citelens_citations_retagged_total",
			Help: "Citations rewritten from unknown by retroactive recategorization",
		},
	)

	// Pricing metrics
	PricingFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citelens_pricing_fallbacks_total",
			Help: "Cost estimations that fell back to default model pricing",
		},
		[]string{"reason"},
	)

	// Cost metrics
	EstimatedCostUSD = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "citelens_estimated_cost_usd",
			Help:    "Estimated cost in USD per recorded run",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1},
		},
	)
)
