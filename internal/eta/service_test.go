package eta

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarttransit/shuttle-tracking-backend/internal/geo"
	"github.com/smarttransit/shuttle-tracking-backend/internal/routes"
	"github.com/smarttransit/shuttle-tracking-backend/internal/routing"
)

const testRoutesYAML = `
stations:
  - {id: a, name: A, lat: 0, lon: 0}
  - {id: b, name: B, lat: 0, lon: 1}
  - {id: c, name: C, lat: 0, lon: 2}
routes:
  - {route_id: test-route, name: A to C, from_location: A, to_location: C, stops: [a, b, c]}
`

func testRegistry(t *testing.T) *routes.Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "routes.yml")
	require.NoError(t, os.WriteFile(path, []byte(testRoutesYAML), 0o644))

	reg, err := routes.Load(path)
	require.NoError(t, err)
	return reg
}

func newTestService(t *testing.T, gateway *fakeGateway) *Service {
	t.Helper()
	logger := quietLogger()
	segments := NewSegmentDistanceCache(gateway, logger, nil)
	svc := NewService(testRegistry(t), gateway, segments, logger)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func freshFix(svc *Service) time.Time {
	return svc.now().Add(-5 * time.Second)
}

func TestCompute_FullFlow(t *testing.T) {
	gateway := &fakeGateway{
		legs: []routing.Leg{
			{DurationSeconds: 60, DistanceMeters: 500},
			{DurationSeconds: 120, DistanceMeters: 1000},
		},
		routeResult: routing.Estimate{DurationSeconds: 600, DistanceMeters: 120000, Source: routing.SourceRouted},
	}
	svc := newTestService(t, gateway)

	result := svc.Compute(context.Background(), "test-route", geo.Point{Lat: 0, Lon: 0.5}, freshFix(svc), 3, routing.ModeDriving)

	assert.Equal(t, "test-route", result.RouteID)
	assert.Equal(t, "A to C", result.Direction)
	assert.False(t, result.OffRoute)
	assert.False(t, result.Stale)
	assert.Empty(t, result.Error)

	require.Len(t, result.UpcomingStops, 2)
	assert.Equal(t, "b", result.UpcomingStops[0].StopID)
	assert.Equal(t, 60, result.UpcomingStops[0].ETASeconds)
	assert.Equal(t, 500, result.UpcomingStops[0].DistanceMeters)
	assert.Equal(t, routing.SourceRouted, result.UpcomingStops[0].Source)
	assert.Equal(t, "c", result.UpcomingStops[1].StopID)
	assert.Equal(t, 180, result.UpcomingStops[1].ETASeconds)
	assert.Equal(t, 1500, result.UpcomingStops[1].DistanceMeters)

	require.NotNil(t, result.CurrentSegment)
	assert.Equal(t, "a", result.CurrentSegment.FromStop.StopID)
	assert.Equal(t, "b", result.CurrentSegment.ToStop.StopID)
	assert.Equal(t, 120000.0, result.CurrentSegment.TotalDistanceMeters)
	assert.Equal(t, 500.0, result.CurrentSegment.RemainingDistanceMeters)
	assert.GreaterOrEqual(t, result.CurrentSegment.ProgressRatio, 0.0)
	assert.LessOrEqual(t, result.CurrentSegment.ProgressRatio, 1.0)
}

func TestCompute_CumulativeEstimatesNonDecreasing(t *testing.T) {
	gateway := &fakeGateway{
		legs: []routing.Leg{
			{DurationSeconds: 45, DistanceMeters: 800},
			{DurationSeconds: 90, DistanceMeters: 1200},
		},
		routeResult: routing.Estimate{DurationSeconds: 600, DistanceMeters: 120000, Source: routing.SourceRouted},
	}
	svc := newTestService(t, gateway)

	result := svc.Compute(context.Background(), "test-route", geo.Point{Lat: 0, Lon: 0.5}, freshFix(svc), 10, routing.ModeDriving)

	require.NotEmpty(t, result.UpcomingStops)
	for i := 1; i < len(result.UpcomingStops); i++ {
		assert.GreaterOrEqual(t, result.UpcomingStops[i].ETASeconds, result.UpcomingStops[i-1].ETASeconds)
		assert.GreaterOrEqual(t, result.UpcomingStops[i].DistanceMeters, result.UpcomingStops[i-1].DistanceMeters)
	}
}

func TestCompute_ArrivingStatusNearFirstStop(t *testing.T) {
	gateway := &fakeGateway{
		legs: []routing.Leg{
			{DurationSeconds: 10, DistanceMeters: 50},
			{DurationSeconds: 120, DistanceMeters: 1000},
		},
		routeResult: routing.Estimate{DurationSeconds: 600, DistanceMeters: 120000, Source: routing.SourceRouted},
	}
	svc := newTestService(t, gateway)

	result := svc.Compute(context.Background(), "test-route", geo.Point{Lat: 0, Lon: 0.999}, freshFix(svc), 3, routing.ModeDriving)

	require.Len(t, result.UpcomingStops, 2)
	assert.Equal(t, StatusArriving, result.UpcomingStops[0].Status)
	assert.Equal(t, StatusUpcoming, result.UpcomingStops[1].Status)
}

func TestCompute_PastTerminal(t *testing.T) {
	gateway := &fakeGateway{}
	svc := newTestService(t, gateway)

	result := svc.Compute(context.Background(), "test-route", geo.Point{Lat: 0, Lon: 2.5}, freshFix(svc), 3, routing.ModeDriving)

	assert.Empty(t, result.UpcomingStops)
	assert.True(t, result.OffRoute)
	assert.Nil(t, result.CurrentSegment)
	assert.Empty(t, result.Error)
}

func TestCompute_UnknownRoute(t *testing.T) {
	gateway := &fakeGateway{}
	svc := newTestService(t, gateway)

	result := svc.Compute(context.Background(), "no-such-route", geo.Point{}, freshFix(svc), 3, routing.ModeDriving)

	assert.Equal(t, "Route definition not found", result.Error)
	assert.Equal(t, "Unknown Route", result.Direction)
	assert.True(t, result.OffRoute)
	assert.Empty(t, result.UpcomingStops)
}

func TestCompute_EngineFailureReturnsStaticStops(t *testing.T) {
	gateway := &fakeGateway{legs: nil}
	svc := newTestService(t, gateway)

	result := svc.Compute(context.Background(), "test-route", geo.Point{Lat: 0, Lon: 0.5}, freshFix(svc), 3, routing.ModeDriving)

	require.Len(t, result.UpcomingStops, 2)
	for _, stop := range result.UpcomingStops {
		assert.Equal(t, -1, stop.ETASeconds)
		assert.Equal(t, -1, stop.DistanceMeters)
		assert.Equal(t, StatusUpcoming, stop.Status)
		assert.Equal(t, routing.SourceFallback, stop.Source)
	}
	assert.Nil(t, result.CurrentSegment, "no segment progress without live estimates")
	assert.Empty(t, result.Error)
}

func TestCompute_StaleFlag(t *testing.T) {
	gateway := &fakeGateway{legs: []routing.Leg{{DurationSeconds: 60, DistanceMeters: 500}}}
	svc := newTestService(t, gateway)

	stale := svc.Compute(context.Background(), "test-route", geo.Point{Lat: 0, Lon: 0.5}, svc.now().Add(-2*time.Minute), 3, routing.ModeDriving)
	fresh := svc.Compute(context.Background(), "test-route", geo.Point{Lat: 0, Lon: 0.5}, svc.now().Add(-10*time.Second), 3, routing.ModeDriving)

	assert.True(t, stale.Stale)
	assert.False(t, fresh.Stale)
}

func TestCompute_MaxStopsLimitsSlice(t *testing.T) {
	gateway := &fakeGateway{
		legs: []routing.Leg{
			{DurationSeconds: 60, DistanceMeters: 500},
			{DurationSeconds: 120, DistanceMeters: 1000},
		},
		routeResult: routing.Estimate{DurationSeconds: 600, DistanceMeters: 120000, Source: routing.SourceRouted},
	}
	svc := newTestService(t, gateway)

	result := svc.Compute(context.Background(), "test-route", geo.Point{Lat: 0, Lon: 0.5}, freshFix(svc), 1, routing.ModeDriving)

	require.Len(t, result.UpcomingStops, 1)
	assert.Equal(t, "b", result.UpcomingStops[0].StopID)
}

func TestCompute_OffRouteStillReturnsETAs(t *testing.T) {
	gateway := &fakeGateway{
		legs: []routing.Leg{
			{DurationSeconds: 300, DistanceMeters: 6000},
			{DurationSeconds: 120, DistanceMeters: 1000},
		},
	}
	svc := newTestService(t, gateway)

	// ~5.5 km off the chord between A and B.
	result := svc.Compute(context.Background(), "test-route", geo.Point{Lat: 0.05, Lon: 0.5}, freshFix(svc), 3, routing.ModeDriving)

	assert.True(t, result.OffRoute)
	require.Len(t, result.UpcomingStops, 2)
	assert.Equal(t, routing.SourceRouted, result.UpcomingStops[0].Source)
	assert.Nil(t, result.CurrentSegment, "no segment progress while off-route")
}

func TestCompute_ProgressRatioClampedWhenRemainingExceedsTotal(t *testing.T) {
	gateway := &fakeGateway{
		legs: []routing.Leg{
			{DurationSeconds: 60, DistanceMeters: 500},
			{DurationSeconds: 120, DistanceMeters: 1000},
		},
		// Cached segment length shorter than the live remaining distance.
		routeResult: routing.Estimate{DurationSeconds: 10, DistanceMeters: 100, Source: routing.SourceRouted},
	}
	svc := newTestService(t, gateway)

	result := svc.Compute(context.Background(), "test-route", geo.Point{Lat: 0, Lon: 0.5}, freshFix(svc), 3, routing.ModeDriving)

	require.NotNil(t, result.CurrentSegment)
	assert.Equal(t, 0.0, result.CurrentSegment.ProgressRatio)
}

func TestComputeAdHoc_SingleTargetUsesRouteQuery(t *testing.T) {
	gateway := &fakeGateway{
		routeResult: routing.Estimate{DurationSeconds: 300, DistanceMeters: 4000, Source: routing.SourceRouted},
	}
	svc := newTestService(t, gateway)

	results := svc.ComputeAdHoc(context.Background(), geo.Point{Lat: 0, Lon: 0}, []AdHocTarget{
		{ID: "dest", Lat: 0, Lon: 1},
	}, routing.ModeDriving)

	require.Len(t, results, 1)
	assert.Equal(t, "dest", results[0].ID)
	assert.Equal(t, 300, results[0].ETASeconds)
	assert.Equal(t, routing.SourceRouted, results[0].Source)
	assert.Equal(t, 1, gateway.routeCalls)
	assert.Equal(t, 0, gateway.tableCalls)
}

func TestComputeAdHoc_MultipleTargetsUseTableQuery(t *testing.T) {
	gateway := &fakeGateway{
		table: []routing.Estimate{
			{DurationSeconds: 300, DistanceMeters: 4000, Source: routing.SourceRouted},
			{DurationSeconds: 900, DistanceMeters: 11000, Source: routing.SourceFallback},
		},
	}
	svc := newTestService(t, gateway)

	results := svc.ComputeAdHoc(context.Background(), geo.Point{Lat: 0, Lon: 0}, []AdHocTarget{
		{ID: "first", Lat: 0, Lon: 1},
		{ID: "second", Lat: 0, Lon: 2},
	}, routing.ModeDriving)

	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].ID)
	assert.Equal(t, "second", results[1].ID)
	assert.Equal(t, routing.SourceFallback, results[1].Source)
	assert.Equal(t, 1, gateway.tableCalls)
	assert.Equal(t, 0, gateway.routeCalls)
}

func TestComputeAdHoc_NoTargets(t *testing.T) {
	svc := newTestService(t, &fakeGateway{})
	assert.Nil(t, svc.ComputeAdHoc(context.Background(), geo.Point{}, nil, routing.ModeDriving))
}
