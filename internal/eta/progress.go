package eta

import (
	"math"

	"github.com/smarttransit/shuttle-tracking-backend/internal/geo"
	"github.com/smarttransit/shuttle-tracking-backend/internal/routes"
)

// Tracker determines route progress from geometry alone. It keeps no
// per-vehicle state; everything is recomputed from the current position and
// the route's ordered stops on every call.
type Tracker struct {
	OffRouteThresholdMeters float64
}

// NewTracker creates a tracker with the default off-route threshold. The
// threshold is deliberately generous so curved roads that deviate from the
// straight stop-to-stop chord do not trip false positives.
func NewTracker() *Tracker {
	return &Tracker{OffRouteThresholdMeters: 1000}
}

func stationPoint(s routes.Station) geo.Point {
	return geo.Point{Lat: s.Lat, Lon: s.Lon}
}

// closestSegment scans every consecutive stop pair and returns the index of
// the segment nearest the position, plus the raw projection ratio along that
// segment. Ties go to the earlier segment. Full scan rather than an
// incremental heuristic: on curved roads a vehicle can be geometrically
// nearer a later stop while still traveling an earlier segment.
func (t *Tracker) closestSegment(position geo.Point, stops []routes.Station) (int, float64) {
	bestIdx := 0
	bestT := 0.0
	minDist := math.Inf(1)

	for i := 0; i < len(stops)-1; i++ {
		dist, rawT := geo.PointToSegmentDistance(position, stationPoint(stops[i]), stationPoint(stops[i+1]))
		if dist < minDist {
			minDist = dist
			bestIdx = i
			bestT = rawT
		}
	}

	return bestIdx, bestT
}

// FindCurrentSegment returns the index of the route segment the vehicle is
// currently on. For a route with n stops the result is in [0, n-2]; a
// single-stop route returns 0.
func (t *Tracker) FindCurrentSegment(position geo.Point, stops []routes.Station) int {
	idx, _ := t.closestSegment(position, stops)
	return idx
}

// FilterUpcomingStops returns the stops not yet passed, in route order.
// Segment index i means stop[i] is behind the vehicle and stop[i+1] is next.
// A vehicle projected past the end of the final segment has reached the
// terminal and gets an empty list. Single-stop routes return that stop
// unconditionally.
func (t *Tracker) FilterUpcomingStops(position geo.Point, stops []routes.Station) []routes.Station {
	if len(stops) == 0 {
		return nil
	}
	if len(stops) == 1 {
		return stops
	}

	idx, rawT := t.closestSegment(position, stops)

	if idx == len(stops)-2 && rawT > 1 {
		return nil
	}

	nextIdx := idx + 1
	if nextIdx >= len(stops) {
		return nil
	}
	return stops[nextIdx:]
}

// IsOffRoute reports whether the vehicle appears to have left the route. It
// compares the distance to the active segment (previous stop -> next stop)
// against the threshold; when the next stop is the first stop of the route it
// degenerates to a radius check around that stop. An empty upcoming list
// means there is no useful target, which also counts as off-route.
//
// The flag is advisory only. It never suppresses ETA computation; callers
// surface it so the UI can present degraded confidence.
func (t *Tracker) IsOffRoute(position geo.Point, allStops, upcoming []routes.Station) bool {
	if len(upcoming) == 0 || len(allStops) == 0 {
		return true
	}

	next := upcoming[0]

	nextIdx := -1
	for i, s := range allStops {
		if s.ID == next.ID {
			nextIdx = i
			break
		}
	}
	if nextIdx < 0 {
		return true
	}

	prevIdx := nextIdx - 1
	if prevIdx < 0 {
		prevIdx = 0
	}
	prev := allStops[prevIdx]

	if prev.ID == next.ID {
		dist := geo.Haversine(position.Lat, position.Lon, next.Lat, next.Lon)
		return dist > t.OffRouteThresholdMeters
	}

	dist, _ := geo.PointToSegmentDistance(position, stationPoint(prev), stationPoint(next))
	return dist > t.OffRouteThresholdMeters
}
