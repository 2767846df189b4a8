package eta

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/smarttransit/shuttle-tracking-backend/internal/geo"
	"github.com/smarttransit/shuttle-tracking-backend/internal/metrics"
	"github.com/smarttransit/shuttle-tracking-backend/internal/routes"
	"github.com/smarttransit/shuttle-tracking-backend/internal/routing"
)

// Gateway is the slice of the routing client the ETA components need. The
// concrete *routing.Client satisfies it; tests substitute a fake.
type Gateway interface {
	GetRoute(ctx context.Context, origin, dest geo.Point, mode string) routing.Estimate
	GetRouteWithWaypoints(ctx context.Context, origin geo.Point, stops []geo.Point, mode string) []routing.Leg
	GetTable(ctx context.Context, origin geo.Point, destinations []geo.Point, mode string) []routing.Estimate
}

// SegmentDistanceCache memoizes the routed distance between consecutive stops
// of a route. Stop coordinates never change at runtime, so entries are
// populated lazily and kept for the process lifetime. Fallback estimates are
// returned but never stored, so the next request retries the live engine
// instead of pinning a degraded value forever.
type SegmentDistanceCache struct {
	mu      sync.RWMutex
	entries map[string]float64

	router  Gateway
	logger  *logrus.Logger
	metrics *metrics.Collector
}

// NewSegmentDistanceCache creates an empty cache backed by the given routing
// gateway. The metrics collector may be nil.
func NewSegmentDistanceCache(router Gateway, logger *logrus.Logger, collector *metrics.Collector) *SegmentDistanceCache {
	return &SegmentDistanceCache{
		entries: make(map[string]float64),
		router:  router,
		logger:  logger,
		metrics: collector,
	}
}

func segmentKey(routeID string, from, to routes.Station) string {
	return routeID + ":" + from.ID + "->" + to.ID
}

// Distance returns the road distance in meters between two consecutive stops.
// Cache hits skip the network entirely. On a miss the routing engine is
// consulted; only a routed, positive result is stored. Concurrent first-time
// callers may each issue an engine call, and the last successful write wins —
// the value is idempotent given fixed stops, so the race is harmless. The
// engine call runs outside the lock.
func (c *SegmentDistanceCache) Distance(ctx context.Context, routeID string, from, to routes.Station, mode string) float64 {
	key := segmentKey(routeID, from, to)

	c.mu.RLock()
	cached, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return cached
	}

	result := c.router.GetRoute(ctx, stationPoint(from), stationPoint(to), mode)
	if result.Source == routing.SourceRouted && result.DistanceMeters > 0 {
		distance := float64(result.DistanceMeters)

		c.mu.Lock()
		c.entries[key] = distance
		size := len(c.entries)
		c.mu.Unlock()

		if c.metrics != nil {
			c.metrics.SegmentCacheSize.Set(float64(size))
		}
		c.logger.WithFields(logrus.Fields{
			"segment":  key,
			"distance": distance,
		}).Info("Cached routed segment distance")
		return distance
	}

	// Not cached: retry the engine on the next request.
	fallback := geo.Haversine(from.Lat, from.Lon, to.Lat, to.Lon)
	c.logger.WithFields(logrus.Fields{
		"segment":  key,
		"distance": fallback,
	}).Info("Using haversine fallback for segment distance (not cached)")
	return fallback
}

// Len returns the number of cached segment distances.
func (c *SegmentDistanceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
