package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smarttransit/shuttle-tracking-backend/internal/geo"
	"github.com/smarttransit/shuttle-tracking-backend/internal/metrics"
)

// Source tells callers whether an estimate came from the routing engine or
// from the closed-form fallback.
type Source string

const (
	SourceRouted   Source = "routed"
	SourceFallback Source = "fallback"
)

// Travel modes accepted by the routing engine.
const (
	ModeDriving = "driving"
	ModeWalking = "walking"
)

// Average speeds in meters per second, used for fallback estimates.
var avgSpeeds = map[string]float64{
	ModeDriving: 13.89, // ~50 km/h
	ModeWalking: 1.39,  // ~5 km/h
}

// Estimate is a single duration/distance result. Source marks degraded values;
// the gateway never returns an error for a degraded-but-handled failure.
type Estimate struct {
	DurationSeconds int    `json:"duration_seconds"`
	DistanceMeters  int    `json:"distance_meters"`
	Source          Source `json:"source"`
}

// Leg is one leg of a multi-waypoint route, raw engine values.
type Leg struct {
	DurationSeconds float64
	DistanceMeters  float64
}

// Config holds routing engine client configuration.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Client wraps the OSRM HTTP API with a short-TTL response cache and a
// closed-form fallback estimator.
type Client struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	cache   *ttlCache
	logger  *logrus.Logger
	metrics *metrics.Collector
}

// NewClient creates a routing engine client. The metrics collector may be nil.
func NewClient(cfg Config, logger *logrus.Logger, collector *metrics.Collector) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		cache:   newTTLCache(ttl),
		logger:  logger,
		metrics: collector,
	}
}

// routeResponse is the OSRM /route payload shape we consume.
type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Duration float64 `json:"duration"`
		Distance float64 `json:"distance"`
		Legs     []struct {
			Duration float64 `json:"duration"`
			Distance float64 `json:"distance"`
		} `json:"legs"`
	} `json:"routes"`
}

// tableResponse is the OSRM /table payload shape we consume.
type tableResponse struct {
	Code      string       `json:"code"`
	Durations [][]*float64 `json:"durations"`
	Distances [][]*float64 `json:"distances"`
}

// coordString builds the OSRM coordinate path component. OSRM wants lon,lat.
func coordString(points []geo.Point) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = fmt.Sprintf("%f,%f", p.Lon, p.Lat)
	}
	return strings.Join(parts, ";")
}

// GetRoute returns the routed duration/distance between two points. Timeouts,
// non-2xx statuses, engine error codes and malformed payloads all degrade to
// the closed-form fallback; the returned Source says which path was taken.
func (c *Client) GetRoute(ctx context.Context, origin, dest geo.Point, mode string) Estimate {
	coords := coordString([]geo.Point{origin, dest})
	cacheKey := "route:" + coords + ":" + mode

	if cached, ok := c.cache.get(cacheKey); ok {
		c.countRequest("cache_hit")
		return cached.(Estimate)
	}

	url := fmt.Sprintf("%s/route/v1/%s/%s?overview=false", c.baseURL, mode, coords)

	var body routeResponse
	if err := c.getJSON(ctx, url, &body); err != nil {
		c.logger.WithError(err).Warn("Routing engine route request failed, using fallback estimate")
		c.countRequest("fallback")
		return c.fallbackEstimate(origin, dest, mode)
	}

	if body.Code != "Ok" || len(body.Routes) == 0 {
		c.logger.WithFields(logrus.Fields{
			"code":    body.Code,
			"message": body.Message,
		}).Warn("Routing engine returned no route, using fallback estimate")
		c.countRequest("fallback")
		return c.fallbackEstimate(origin, dest, mode)
	}

	result := Estimate{
		DurationSeconds: int(body.Routes[0].Duration),
		DistanceMeters:  int(body.Routes[0].Distance),
		Source:          SourceRouted,
	}
	c.cache.set(cacheKey, result)
	c.countRequest("routed")
	return result
}

// GetRouteWithWaypoints issues one chained request from origin through every
// stop and returns the per-leg durations and distances in order. An engine
// failure or a response without per-leg data returns an empty slice, which
// callers must treat as "no live estimate available", not as an error.
// Waypoint routes always carry the live vehicle position, so they bypass the
// response cache.
func (c *Client) GetRouteWithWaypoints(ctx context.Context, origin geo.Point, stops []geo.Point, mode string) []Leg {
	if len(stops) == 0 {
		return nil
	}

	coords := coordString(append([]geo.Point{origin}, stops...))
	url := fmt.Sprintf("%s/route/v1/%s/%s?overview=false&steps=false&annotations=false", c.baseURL, mode, coords)

	var body routeResponse
	if err := c.getJSON(ctx, url, &body); err != nil {
		c.logger.WithError(err).Warn("Routing engine waypoint request failed")
		c.countRequest("fallback")
		return nil
	}

	if body.Code != "Ok" || len(body.Routes) == 0 || len(body.Routes[0].Legs) == 0 {
		c.logger.WithField("code", body.Code).Warn("Routing engine waypoint response missing legs")
		c.countRequest("fallback")
		return nil
	}

	legs := make([]Leg, 0, len(body.Routes[0].Legs))
	for _, leg := range body.Routes[0].Legs {
		legs = append(legs, Leg{DurationSeconds: leg.Duration, DistanceMeters: leg.Distance})
	}
	c.countRequest("routed")
	return legs
}

// GetTable returns duration/distance estimates from origin to every
// destination using one batched table query. Each missing matrix cell falls
// back independently to the closed-form estimate, so one unroutable
// destination does not degrade the rest of the batch.
func (c *Client) GetTable(ctx context.Context, origin geo.Point, destinations []geo.Point, mode string) []Estimate {
	if len(destinations) == 0 {
		return nil
	}

	all := append([]geo.Point{origin}, destinations...)
	coords := coordString(all)
	cacheKey := "table:" + coords + ":" + mode

	if cached, ok := c.cache.get(cacheKey); ok {
		c.countRequest("cache_hit")
		return cached.([]Estimate)
	}

	destIdx := make([]string, len(destinations))
	for i := range destinations {
		destIdx[i] = fmt.Sprintf("%d", i+1)
	}
	url := fmt.Sprintf("%s/table/v1/%s/%s?sources=0&destinations=%s&annotations=duration,distance",
		c.baseURL, mode, coords, strings.Join(destIdx, ";"))

	var body tableResponse
	if err := c.getJSON(ctx, url, &body); err != nil {
		c.logger.WithError(err).Warn("Routing engine table request failed, using fallback estimates")
		c.countRequest("fallback")
		return c.fallbackAll(origin, destinations, mode)
	}

	if body.Code != "Ok" || len(body.Durations) == 0 || len(body.Distances) == 0 ||
		len(body.Durations[0]) != len(destinations) || len(body.Distances[0]) != len(destinations) {
		c.logger.WithField("code", body.Code).Warn("Routing engine table response incomplete, using fallback estimates")
		c.countRequest("fallback")
		return c.fallbackAll(origin, destinations, mode)
	}

	results := make([]Estimate, len(destinations))
	for i := range destinations {
		duration := body.Durations[0][i]
		distance := body.Distances[0][i]
		if duration == nil || distance == nil {
			results[i] = c.fallbackEstimate(origin, destinations[i], mode)
			continue
		}
		results[i] = Estimate{
			DurationSeconds: int(*duration),
			DistanceMeters:  int(*distance),
			Source:          SourceRouted,
		}
	}

	c.cache.set(cacheKey, results)
	c.countRequest("routed")
	return results
}

// getJSON performs one bounded GET and decodes the JSON body. One attempt
// only; natural retry happens on the caller's next poll.
func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if c.metrics != nil {
		c.metrics.RoutingDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// fallbackEstimate computes a closed-form estimate from great-circle distance
// and the average speed for the mode.
func (c *Client) fallbackEstimate(origin, dest geo.Point, mode string) Estimate {
	speed, ok := avgSpeeds[mode]
	if !ok {
		speed = avgSpeeds[ModeDriving]
	}

	distance := geo.HaversinePoints(origin, dest)
	return Estimate{
		DurationSeconds: int(distance / speed),
		DistanceMeters:  int(distance),
		Source:          SourceFallback,
	}
}

func (c *Client) fallbackAll(origin geo.Point, dests []geo.Point, mode string) []Estimate {
	results := make([]Estimate, len(dests))
	for i, d := range dests {
		results[i] = c.fallbackEstimate(origin, d, mode)
	}
	return results
}

func (c *Client) countRequest(outcome string) {
	if c.metrics != nil {
		c.metrics.RoutingRequests.WithLabelValues(outcome).Inc()
	}
}

// IsValidMode reports whether the travel mode is supported.
func IsValidMode(mode string) bool {
	_, ok := avgSpeeds[mode]
	return ok
}
