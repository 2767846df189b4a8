package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine_KnownDistance(t *testing.T) {
	// One degree of latitude at the equator is ~111.19 km.
	d := Haversine(0, 0, 1, 0)
	assert.InDelta(t, 111195, d, 50)
}

func TestHaversine_ZeroDistance(t *testing.T) {
	d := Haversine(18.525778, 73.733243, 18.525778, 73.733243)
	assert.Equal(t, 0.0, d)
}

func TestHaversine_Symmetric(t *testing.T) {
	d1 := Haversine(18.525778, 73.733243, 18.522335, 73.843739)
	d2 := Haversine(18.522335, 73.843739, 18.525778, 73.733243)
	assert.InDelta(t, d1, d2, 0.001)
	assert.Greater(t, d1, 10000.0) // campus to city is >10km
}

func TestHaversine_Antipodal(t *testing.T) {
	// Must not NaN or panic on antipodal points.
	d := Haversine(0, 0, 0, 180)
	assert.InDelta(t, EarthRadiusMeters*3.14159265, d, 1000)
}

func TestPointToSegmentDistance_OnSegment(t *testing.T) {
	dist, tRatio := PointToSegmentDistance(
		Point{Lat: 0, Lon: 0.5},
		Point{Lat: 0, Lon: 0},
		Point{Lat: 0, Lon: 1},
	)
	assert.InDelta(t, 0, dist, 1)
	assert.InDelta(t, 0.5, tRatio, 0.01)
}

func TestPointToSegmentDistance_Perpendicular(t *testing.T) {
	// Point one degree of latitude off the midpoint of an equatorial segment.
	dist, tRatio := PointToSegmentDistance(
		Point{Lat: 1, Lon: 0.5},
		Point{Lat: 0, Lon: 0},
		Point{Lat: 0, Lon: 1},
	)
	assert.InDelta(t, 111195, dist, 300)
	assert.InDelta(t, 0.5, tRatio, 0.01)
}

func TestPointToSegmentDistance_BeyondEnd(t *testing.T) {
	// Past the end of the segment: distance clamps to the endpoint but the
	// raw projection ratio keeps going.
	dist, tRatio := PointToSegmentDistance(
		Point{Lat: 0, Lon: 2},
		Point{Lat: 0, Lon: 0},
		Point{Lat: 0, Lon: 1},
	)
	assert.Greater(t, tRatio, 1.0)
	assert.InDelta(t, Haversine(0, 2, 0, 1), dist, 500)
}

func TestPointToSegmentDistance_BeforeStart(t *testing.T) {
	_, tRatio := PointToSegmentDistance(
		Point{Lat: 0, Lon: -1},
		Point{Lat: 0, Lon: 0},
		Point{Lat: 0, Lon: 1},
	)
	assert.Less(t, tRatio, 0.0)
}

func TestPointToSegmentDistance_ZeroLengthSegment(t *testing.T) {
	p := Point{Lat: 18.52, Lon: 73.73}
	dist, tRatio := PointToSegmentDistance(Point{Lat: 18.53, Lon: 73.73}, p, p)
	assert.Equal(t, 0.0, tRatio)
	assert.Greater(t, dist, 0.0)
	assert.InDelta(t, Haversine(18.53, 73.73, 18.52, 73.73), dist, 50)
}
