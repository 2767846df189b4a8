package eta

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smarttransit/shuttle-tracking-backend/internal/geo"
	"github.com/smarttransit/shuttle-tracking-backend/internal/routes"
)

func stationsABC() []routes.Station {
	return []routes.Station{
		{ID: "a", Name: "A", Lat: 0, Lon: 0},
		{ID: "b", Name: "B", Lat: 0, Lon: 1},
		{ID: "c", Name: "C", Lat: 0, Lon: 2},
	}
}

func TestFindCurrentSegment_MidFirstSegment(t *testing.T) {
	tracker := NewTracker()
	idx := tracker.FindCurrentSegment(geo.Point{Lat: 0, Lon: 0.5}, stationsABC())
	assert.Equal(t, 0, idx)
}

func TestFindCurrentSegment_MidSecondSegment(t *testing.T) {
	tracker := NewTracker()
	idx := tracker.FindCurrentSegment(geo.Point{Lat: 0, Lon: 1.5}, stationsABC())
	assert.Equal(t, 1, idx)
}

func TestFindCurrentSegment_TieGoesToEarlierSegment(t *testing.T) {
	tracker := NewTracker()
	// Exactly at the shared stop B: distance zero to both segments.
	idx := tracker.FindCurrentSegment(geo.Point{Lat: 0, Lon: 1}, stationsABC())
	assert.Equal(t, 0, idx)
}

func TestFindCurrentSegment_IndexAlwaysInRange(t *testing.T) {
	tracker := NewTracker()
	stops := stationsABC()
	positions := []geo.Point{
		{Lat: 0, Lon: -5}, {Lat: 0, Lon: 0}, {Lat: 0.5, Lon: 1}, {Lat: 0, Lon: 10}, {Lat: -45, Lon: 90},
	}
	for _, pos := range positions {
		idx := tracker.FindCurrentSegment(pos, stops)
		assert.GreaterOrEqual(t, idx, 0)
		assert.LessOrEqual(t, idx, len(stops)-2)
	}
}

func TestFilterUpcomingStops_MidFirstSegment(t *testing.T) {
	tracker := NewTracker()
	upcoming := tracker.FilterUpcomingStops(geo.Point{Lat: 0, Lon: 0.5}, stationsABC())

	assert.Len(t, upcoming, 2)
	assert.Equal(t, "b", upcoming[0].ID)
	assert.Equal(t, "c", upcoming[1].ID)
}

func TestFilterUpcomingStops_PastTerminal(t *testing.T) {
	tracker := NewTracker()
	upcoming := tracker.FilterUpcomingStops(geo.Point{Lat: 0, Lon: 2.5}, stationsABC())
	assert.Empty(t, upcoming)
}

func TestFilterUpcomingStops_SingleStopRoute(t *testing.T) {
	tracker := NewTracker()
	stops := []routes.Station{{ID: "only", Name: "Only", Lat: 10, Lon: 20}}

	upcoming := tracker.FilterUpcomingStops(geo.Point{Lat: 50, Lon: 50}, stops)
	assert.Len(t, upcoming, 1)
	assert.Equal(t, "only", upcoming[0].ID)
}

func TestFilterUpcomingStops_EmptyRoute(t *testing.T) {
	tracker := NewTracker()
	assert.Empty(t, tracker.FilterUpcomingStops(geo.Point{}, nil))
}

func TestIsOffRoute_OnSegment(t *testing.T) {
	tracker := NewTracker()
	stops := stationsABC()
	upcoming := stops[1:]

	assert.False(t, tracker.IsOffRoute(geo.Point{Lat: 0, Lon: 0.5}, stops, upcoming))
}

func TestIsOffRoute_FarFromSegment(t *testing.T) {
	tracker := NewTracker()
	stops := stationsABC()
	upcoming := stops[1:]

	// ~0.05 deg of latitude is ~5.5 km off the chord.
	assert.True(t, tracker.IsOffRoute(geo.Point{Lat: 0.05, Lon: 0.5}, stops, upcoming))
}

func TestIsOffRoute_EmptyUpcomingIsOffRoute(t *testing.T) {
	tracker := NewTracker()
	assert.True(t, tracker.IsOffRoute(geo.Point{Lat: 0, Lon: 2.5}, stationsABC(), nil))
}

func TestIsOffRoute_BeforeFirstStopUsesRadius(t *testing.T) {
	tracker := NewTracker()
	stops := stationsABC()

	// Next stop is the route's first stop, so the check degenerates to a
	// radius around it.
	near := geo.Point{Lat: 0.001, Lon: 0}
	far := geo.Point{Lat: 0.1, Lon: 0}
	assert.False(t, tracker.IsOffRoute(near, stops, stops))
	assert.True(t, tracker.IsOffRoute(far, stops, stops))
}

func TestIsOffRoute_UnknownNextStop(t *testing.T) {
	tracker := NewTracker()
	stops := stationsABC()
	phantom := []routes.Station{{ID: "ghost", Name: "Ghost", Lat: 0, Lon: 5}}

	assert.True(t, tracker.IsOffRoute(geo.Point{Lat: 0, Lon: 0.5}, stops, phantom))
}
