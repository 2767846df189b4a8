package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus metrics for the tracking backend.
type Collector struct {
	reg *prometheus.Registry

	RoutingRequests  *prometheus.CounterVec // outcome label: routed|fallback|cache_hit
	RoutingDuration  prometheus.Histogram
	SegmentCacheSize prometheus.Gauge

	GPSFetches *prometheus.CounterVec // outcome label: ok|error

	SyncRuns           *prometheus.CounterVec // outcome label: ok|error
	VehiclesSynced     prometheus.Counter
	PositionsPublished prometheus.Counter
	PublishErrors      prometheus.Counter
}

// NewCollector creates and registers the collector on its own registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		RoutingRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shuttle_routing_requests_total",
			Help: "Routing engine lookups by outcome.",
		}, []string{"outcome"}),
		RoutingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "shuttle_routing_request_duration_seconds",
			Help:    "Duration of routing engine HTTP requests.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		SegmentCacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shuttle_segment_cache_entries",
			Help: "Number of cached segment distances.",
		}),
		GPSFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shuttle_gps_fetches_total",
			Help: "GPS provider lookups by outcome.",
		}, []string{"outcome"}),
		SyncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shuttle_vehicle_sync_runs_total",
			Help: "Vehicle sync job runs by outcome.",
		}, []string{"outcome"}),
		VehiclesSynced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttle_vehicles_synced_total",
			Help: "Total vehicles upserted by the sync job.",
		}),
		PositionsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttle_positions_published_total",
			Help: "Total vehicle position events published.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttle_position_publish_errors_total",
			Help: "Total vehicle position publish errors.",
		}),
	}

	reg.MustRegister(
		c.RoutingRequests, c.RoutingDuration, c.SegmentCacheSize,
		c.GPSFetches,
		c.SyncRuns, c.VehiclesSynced,
		c.PositionsPublished, c.PublishErrors,
	)

	return c
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
