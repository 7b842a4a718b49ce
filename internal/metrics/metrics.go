// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attractionmap_http_requests_total",
		Help: "HTTP requests by method and status",
	}, []string{"method", "status"})
	HTTPDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "attractionmap_http_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	MapLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attractionmap_map_loads_total",
		Help: "Map resource loads by outcome (ready, failed, cancelled)",
	}, []string{"outcome"})
	ReconcilesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "attractionmap_reconciles_total",
		Help: "Marker reconciliations run against a ready renderer",
	})
	MarkersAddedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "attractionmap_markers_added_total",
		Help: "Markers created by reconciliation",
	})
	MarkersRemovedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "attractionmap_markers_removed_total",
		Help: "Markers removed by reconciliation or teardown",
	})
	AssetFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attractionmap_asset_fetches_total",
		Help: "Map asset fetches by source (cache, origin) and outcome",
	}, []string{"source", "outcome"})
	AssetFetchDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "attractionmap_asset_fetch_duration_ms",
		Help:    "Map asset bundle load duration in milliseconds",
		Buckets: []float64{5, 20, 50, 100, 200, 500, 1000, 2000, 5000},
	})
	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "attractionmap_sessions_active",
		Help: "Mounted map sessions",
	})
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPDurationMs)
	prometheus.MustRegister(MapLoadsTotal)
	prometheus.MustRegister(ReconcilesTotal)
	prometheus.MustRegister(MarkersAddedTotal)
	prometheus.MustRegister(MarkersRemovedTotal)
	prometheus.MustRegister(AssetFetchesTotal)
	prometheus.MustRegister(AssetFetchDurationMs)
	prometheus.MustRegister(SessionsActive)
}

// Handler serves the default registry for Prometheus scraping.
func Handler() http.Handler { return promhttp.Handler() }
