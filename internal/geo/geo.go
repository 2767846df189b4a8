package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used for all distance math.
const EarthRadiusMeters = 6371000.0

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lon float64
}

// Haversine returns the great-circle distance in meters between two coordinates.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// HaversinePoints is Haversine over Point values.
func HaversinePoints(p1, p2 Point) float64 {
	return Haversine(p1.Lat, p1.Lon, p2.Lat, p2.Lon)
}

// PointToSegmentDistance returns the distance in meters from point to the
// segment segStart-segEnd, and the raw (unclamped) projection ratio t of the
// point along the segment. The distance is computed against the segment
// clamped to its endpoints; t < 0 means before segStart, t > 1 past segEnd.
//
// Coordinates are projected into a local planar frame using a
// cosine-of-average-latitude scale for longitude, which is accurate at road
// scale. A zero-length segment degenerates to point-to-point distance with t=0.
func PointToSegmentDistance(point, segStart, segEnd Point) (float64, float64) {
	const rad = math.Pi / 180

	avgLat := (point.Lat + segStart.Lat + segEnd.Lat) / 3 * rad
	cosLat := math.Cos(avgLat)

	px := point.Lon * rad * cosLat * EarthRadiusMeters
	py := point.Lat * rad * EarthRadiusMeters
	ax := segStart.Lon * rad * cosLat * EarthRadiusMeters
	ay := segStart.Lat * rad * EarthRadiusMeters
	bx := segEnd.Lon * rad * cosLat * EarthRadiusMeters
	by := segEnd.Lat * rad * EarthRadiusMeters

	abx, aby := bx-ax, by-ay
	apx, apy := px-ax, py-ay

	abSq := abx*abx + aby*aby
	if abSq == 0 {
		return math.Sqrt(apx*apx + apy*apy), 0
	}

	t := (apx*abx + apy*aby) / abSq
	tClamped := math.Max(0, math.Min(1, t))

	cx := ax + tClamped*abx
	cy := ay + tClamped*aby

	dx, dy := px-cx, py-cy
	return math.Sqrt(dx*dx + dy*dy), t
}
