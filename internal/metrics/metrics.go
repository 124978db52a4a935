// Package metrics provides Prometheus metrics for the pack tracker.
// Scrape these at /metrics for Grafana dashboards and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SweepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "packtracker_sweeps_total",
			Help: "Total number of completed tracking sweeps",
		},
	)

	SeriesCyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "packtracker_series_cycles_total",
			Help: "Total number of per-series cycles processed",
		},
	)

	SeriesSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "packtracker_series_skipped_total",
			Help: "Series cycles skipped, by reason",
		},
		[]string{"reason"},
	)

	ConfirmedSalesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "packtracker_confirmed_sales_total",
			Help: "Total number of disappearances confirmed as sold",
		},
	)

	SuspectedSwapsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "packtracker_suspected_swaps_total",
			Help: "Total number of disappearances flagged as suspected swaps",
		},
	)

	FetchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "packtracker_fetch_failures_total",
			Help: "Marketplace fetch failures, by endpoint",
		},
		[]string{"endpoint"},
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "packtracker_series_cycle_duration_seconds",
			Help:    "Time taken to process one series cycle",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	PackExpectedValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "packtracker_pack_expected_value_cents",
			Help: "Latest computed pack expected value in cents",
		},
		[]string{"series_id"},
	)

	PackROI = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "packtracker_pack_roi",
			Help: "Latest computed pack ROI (unset when cost is unknown)",
		},
		[]string{"series_id"},
	)
)
