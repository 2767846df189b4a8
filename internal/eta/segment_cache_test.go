package eta

import (
	"context"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/smarttransit/shuttle-tracking-backend/internal/geo"
	"github.com/smarttransit/shuttle-tracking-backend/internal/routing"
)

// fakeGateway is a scripted Gateway used across the package tests.
type fakeGateway struct {
	mu         sync.Mutex
	routeCalls int
	tableCalls int

	routeResult routing.Estimate
	legs        []routing.Leg
	table       []routing.Estimate
}

func (f *fakeGateway) GetRoute(_ context.Context, _, _ geo.Point, _ string) routing.Estimate {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routeCalls++
	return f.routeResult
}

func (f *fakeGateway) GetRouteWithWaypoints(_ context.Context, _ geo.Point, _ []geo.Point, _ string) []routing.Leg {
	return f.legs
}

func (f *fakeGateway) GetTable(_ context.Context, _ geo.Point, _ []geo.Point, _ string) []routing.Estimate {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tableCalls++
	return f.table
}

func (f *fakeGateway) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.routeCalls
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestSegmentDistanceCache_CachesRoutedResult(t *testing.T) {
	gateway := &fakeGateway{routeResult: routing.Estimate{
		DurationSeconds: 600, DistanceMeters: 12345, Source: routing.SourceRouted,
	}}
	cache := NewSegmentDistanceCache(gateway, quietLogger(), nil)
	stops := stationsABC()

	first := cache.Distance(context.Background(), "r1", stops[0], stops[1], routing.ModeDriving)
	second := cache.Distance(context.Background(), "r1", stops[0], stops[1], routing.ModeDriving)

	assert.Equal(t, 12345.0, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, gateway.calls(), "second lookup must not hit the engine")
	assert.Equal(t, 1, cache.Len())
}

func TestSegmentDistanceCache_FallbackNotCached(t *testing.T) {
	gateway := &fakeGateway{routeResult: routing.Estimate{
		DurationSeconds: 600, DistanceMeters: 12345, Source: routing.SourceFallback,
	}}
	cache := NewSegmentDistanceCache(gateway, quietLogger(), nil)
	stops := stationsABC()

	got := cache.Distance(context.Background(), "r1", stops[0], stops[1], routing.ModeDriving)
	expected := geo.Haversine(stops[0].Lat, stops[0].Lon, stops[1].Lat, stops[1].Lon)

	assert.InDelta(t, expected, got, 1)
	assert.Equal(t, 0, cache.Len())

	// The engine must be retried on the next request.
	cache.Distance(context.Background(), "r1", stops[0], stops[1], routing.ModeDriving)
	assert.Equal(t, 2, gateway.calls())
}

func TestSegmentDistanceCache_ZeroDistanceNotCached(t *testing.T) {
	gateway := &fakeGateway{routeResult: routing.Estimate{
		DurationSeconds: 0, DistanceMeters: 0, Source: routing.SourceRouted,
	}}
	cache := NewSegmentDistanceCache(gateway, quietLogger(), nil)
	stops := stationsABC()

	cache.Distance(context.Background(), "r1", stops[0], stops[1], routing.ModeDriving)
	assert.Equal(t, 0, cache.Len())
}

func TestSegmentDistanceCache_SegmentsKeyedPerRouteAndDirection(t *testing.T) {
	gateway := &fakeGateway{routeResult: routing.Estimate{
		DurationSeconds: 600, DistanceMeters: 5000, Source: routing.SourceRouted,
	}}
	cache := NewSegmentDistanceCache(gateway, quietLogger(), nil)
	stops := stationsABC()

	cache.Distance(context.Background(), "r1", stops[0], stops[1], routing.ModeDriving)
	cache.Distance(context.Background(), "r1", stops[1], stops[0], routing.ModeDriving)
	cache.Distance(context.Background(), "r2", stops[0], stops[1], routing.ModeDriving)

	assert.Equal(t, 3, cache.Len())
	assert.Equal(t, 3, gateway.calls())
}

func TestSegmentDistanceCache_ConcurrentFirstPopulation(t *testing.T) {
	gateway := &fakeGateway{routeResult: routing.Estimate{
		DurationSeconds: 600, DistanceMeters: 12345, Source: routing.SourceRouted,
	}}
	cache := NewSegmentDistanceCache(gateway, quietLogger(), nil)
	stops := stationsABC()

	var wg sync.WaitGroup
	results := make([]float64, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cache.Distance(context.Background(), "r1", stops[0], stops[1], routing.ModeDriving)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, cache.Len())
	for _, got := range results {
		assert.Equal(t, 12345.0, got)
	}
}
