package eta

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smarttransit/shuttle-tracking-backend/internal/geo"
	"github.com/smarttransit/shuttle-tracking-backend/internal/routes"
	"github.com/smarttransit/shuttle-tracking-backend/internal/routing"
)

// Stop statuses reported per upcoming stop.
const (
	StatusUpcoming = "upcoming"
	StatusArriving = "arriving"
)

// Stop is the public shape of a station in ETA responses.
type Stop struct {
	StopID string  `json:"stop_id"`
	Name   string  `json:"name"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

// StopWithETA is one upcoming stop with its cumulative travel estimate.
// eta_seconds and distance_meters are -1 when stop identity and order are
// known but live timing is unavailable.
type StopWithETA struct {
	Stop
	ETASeconds     int            `json:"eta_seconds"`
	DistanceMeters int            `json:"distance_meters"`
	Status         string         `json:"status"`
	Source         routing.Source `json:"source"`
}

// SegmentProgress describes how far along its current segment the vehicle is.
type SegmentProgress struct {
	FromStop                Stop    `json:"from_stop"`
	ToStop                  Stop    `json:"to_stop"`
	TotalDistanceMeters     float64 `json:"total_distance_meters"`
	RemainingDistanceMeters float64 `json:"remaining_distance_meters"`
	ProgressRatio           float64 `json:"progress_ratio"`
}

// Result is the full ETA computation output. It is always produced; the
// stale/off_route flags and per-stop sources signal degraded confidence, and
// Error is set only for terminal conditions like an unknown route.
type Result struct {
	RouteID        string           `json:"route_id"`
	Direction      string           `json:"direction"`
	CurrentSegment *SegmentProgress `json:"current_segment,omitempty"`
	UpcomingStops  []StopWithETA    `json:"upcoming_stops"`
	OffRoute       bool             `json:"off_route"`
	Stale          bool             `json:"stale"`
	Error          string           `json:"error,omitempty"`
}

// AdHocTarget is one destination for an ad-hoc estimate request.
type AdHocTarget struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// AdHocEstimate is the per-target result of an ad-hoc estimate request.
type AdHocEstimate struct {
	ID             string         `json:"id"`
	Lat            float64        `json:"lat"`
	Lon            float64        `json:"lon"`
	ETASeconds     int            `json:"eta_seconds"`
	DistanceMeters int            `json:"distance_meters"`
	Source         routing.Source `json:"source"`
}

// Service computes route progress and arrival estimates. Route and station
// configuration is read-only; the segment distance cache is the only mutable
// shared state and handles its own locking, so one Service instance serves
// concurrent requests.
type Service struct {
	registry *routes.Registry
	router   Gateway
	segments *SegmentDistanceCache
	logger   *logrus.Logger

	// Tracker holds the geometric route-progress logic; its off-route
	// threshold is tunable alongside the service thresholds below.
	Tracker *Tracker

	StaleThresholdSeconds   float64
	ArrivingThresholdMeters float64
	MaxStopsLimit           int

	now func() time.Time
}

// NewService creates the ETA service with default thresholds.
func NewService(registry *routes.Registry, router Gateway, segments *SegmentDistanceCache, logger *logrus.Logger) *Service {
	return &Service{
		registry: registry,
		router:   router,
		segments: segments,
		Tracker:  NewTracker(),
		logger:   logger,

		StaleThresholdSeconds:   60,
		ArrivingThresholdMeters: 100,
		MaxStopsLimit:           10,

		now: time.Now,
	}
}

// Compute calculates ETAs to the upcoming stops for a vehicle on its route.
// It always returns a usable Result: routing engine failures degrade to
// fallback estimates, and only an unknown or empty route sets Error.
func (s *Service) Compute(ctx context.Context, routeID string, position geo.Point, recordedAt time.Time, maxStops int, mode string) Result {
	if maxStops > s.MaxStopsLimit {
		maxStops = s.MaxStopsLimit
	}

	// 1. Stale check. Informational only; an old fix still yields a valid
	// position calculation.
	age := s.now().UTC().Sub(recordedAt.UTC()).Seconds()
	isStale := age > s.StaleThresholdSeconds

	// 2. Route validation.
	route, ok := s.registry.Route(routeID)
	if !ok {
		return errorResult(routeID, "Unknown Route", isStale, "Route definition not found")
	}

	direction := s.registry.Direction(routeID)
	routeStops := s.registry.RouteStops(routeID)
	if len(routeStops) == 0 {
		return errorResult(routeID, direction, isStale, "No stops defined")
	}

	// 3. Determine route progress.
	upcoming := s.Tracker.FilterUpcomingStops(position, routeStops)

	// 4. Off-route check, surfaced as a flag only. ETAs are computed anyway.
	offRoute := s.Tracker.IsOffRoute(position, routeStops, upcoming)

	slice := upcoming
	if len(slice) > maxStops {
		slice = slice[:maxStops]
	}

	// 5. Calculate cumulative ETAs along the remaining stops.
	stopsWithETA := []StopWithETA{}
	liveResults := false
	if len(slice) > 0 {
		stopsWithETA = s.calculateETAs(ctx, position, slice, mode)
		liveResults = len(stopsWithETA) > 0

		// 6. Failsafe: the engine failed, so return the stop identities and
		// order with timing marked unavailable rather than erroring.
		if !liveResults {
			s.logger.WithFields(logrus.Fields{
				"route_id": route.ID,
				"stops":    len(slice),
			}).Warn("Routing engine returned no legs, returning static stop data")
			stopsWithETA = staticStopList(slice)
		}
	}

	// 7. Segment progress, only when the vehicle looks on-route and live
	// estimates exist to derive the remaining distance from.
	var currentSegment *SegmentProgress
	if !offRoute && liveResults {
		currentSegment = s.segmentProgress(ctx, route.ID, position, routeStops, upcoming, stopsWithETA, mode)
	}

	// 8. Assemble.
	return Result{
		RouteID:        route.ID,
		Direction:      direction,
		CurrentSegment: currentSegment,
		UpcomingStops:  stopsWithETA,
		OffRoute:       offRoute,
		Stale:          isStale,
	}
}

// calculateETAs issues one chained waypoint request and accumulates per-leg
// durations and distances so the estimates are non-decreasing along the stop
// sequence. An empty return means no live estimate is available.
func (s *Service) calculateETAs(ctx context.Context, origin geo.Point, stops []routes.Station, mode string) []StopWithETA {
	points := make([]geo.Point, len(stops))
	for i, stop := range stops {
		points[i] = stationPoint(stop)
	}

	legs := s.router.GetRouteWithWaypoints(ctx, origin, points, mode)
	if len(legs) == 0 {
		return nil
	}

	results := make([]StopWithETA, 0, len(stops))
	accumulatedDuration := 0.0
	accumulatedDistance := 0.0

	for i, leg := range legs {
		if i >= len(stops) {
			break
		}
		stop := stops[i]

		accumulatedDuration += leg.DurationSeconds
		accumulatedDistance += leg.DistanceMeters

		status := StatusUpcoming
		if i == 0 && accumulatedDistance < s.ArrivingThresholdMeters {
			status = StatusArriving
		}

		results = append(results, StopWithETA{
			Stop:           toStop(stop),
			ETASeconds:     int(accumulatedDuration),
			DistanceMeters: int(accumulatedDistance),
			Status:         status,
			Source:         routing.SourceRouted,
		})
	}

	return results
}

// segmentProgress locates the current segment against the full stop list and
// derives how far along it the vehicle is. The routed segment length comes
// from the distance cache; the remaining distance reuses the already-computed
// ETA to the segment's end stop, preferring a routed value over haversine.
func (s *Service) segmentProgress(ctx context.Context, routeID string, position geo.Point, routeStops, upcoming []routes.Station, stopsWithETA []StopWithETA, mode string) *SegmentProgress {
	idx := s.Tracker.FindCurrentSegment(position, routeStops)
	if idx < 0 || idx >= len(routeStops)-1 {
		return nil
	}

	from := routeStops[idx]
	to := routeStops[idx+1]

	// The segment's end stop must still be ahead of the vehicle. This guards
	// the edge case where the vehicle is past every stop.
	toUpcoming := false
	for _, stop := range upcoming {
		if stop.ID == to.ID {
			toUpcoming = true
			break
		}
	}
	if !toUpcoming {
		return nil
	}

	totalDistance := s.segments.Distance(ctx, routeID, from, to, mode)

	remaining := -1.0
	for _, stopETA := range stopsWithETA {
		if stopETA.StopID == to.ID {
			if stopETA.Source == routing.SourceRouted && stopETA.DistanceMeters > 0 {
				remaining = float64(stopETA.DistanceMeters)
			}
			break
		}
	}
	if remaining < 0 {
		remaining = geo.Haversine(position.Lat, position.Lon, to.Lat, to.Lon)
	}

	ratio := 0.0
	if totalDistance > 0 {
		ratio = (totalDistance - remaining) / totalDistance
	}
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	return &SegmentProgress{
		FromStop:                toStop(from),
		ToStop:                  toStop(to),
		TotalDistanceMeters:     totalDistance,
		RemainingDistanceMeters: remaining,
		ProgressRatio:           ratio,
	}
}

// ComputeAdHoc estimates travel from an arbitrary origin to arbitrary
// targets, bypassing route and progress logic entirely. A single target uses
// a point-to-point route query; multiple targets use one batched table query.
func (s *Service) ComputeAdHoc(ctx context.Context, origin geo.Point, targets []AdHocTarget, mode string) []AdHocEstimate {
	if len(targets) == 0 {
		return nil
	}

	results := make([]AdHocEstimate, 0, len(targets))

	if len(targets) == 1 {
		target := targets[0]
		est := s.router.GetRoute(ctx, origin, geo.Point{Lat: target.Lat, Lon: target.Lon}, mode)
		return append(results, adHocEstimate(target, est))
	}

	points := make([]geo.Point, len(targets))
	for i, target := range targets {
		points[i] = geo.Point{Lat: target.Lat, Lon: target.Lon}
	}

	estimates := s.router.GetTable(ctx, origin, points, mode)
	for i, target := range targets {
		if i >= len(estimates) {
			break
		}
		results = append(results, adHocEstimate(target, estimates[i]))
	}
	return results
}

func adHocEstimate(target AdHocTarget, est routing.Estimate) AdHocEstimate {
	return AdHocEstimate{
		ID:             target.ID,
		Lat:            target.Lat,
		Lon:            target.Lon,
		ETASeconds:     est.DurationSeconds,
		DistanceMeters: est.DistanceMeters,
		Source:         est.Source,
	}
}

func toStop(s routes.Station) Stop {
	return Stop{StopID: s.ID, Name: s.Name, Lat: s.Lat, Lon: s.Lon}
}

func staticStopList(stops []routes.Station) []StopWithETA {
	out := make([]StopWithETA, 0, len(stops))
	for _, s := range stops {
		out = append(out, StopWithETA{
			Stop:           toStop(s),
			ETASeconds:     -1,
			DistanceMeters: -1,
			Status:         StatusUpcoming,
			Source:         routing.SourceFallback,
		})
	}
	return out
}

func errorResult(routeID, direction string, stale bool, msg string) Result {
	return Result{
		RouteID:       routeID,
		Direction:     direction,
		UpcomingStops: []StopWithETA{},
		OffRoute:      true,
		Stale:         stale,
		Error:         msg,
	}
}
