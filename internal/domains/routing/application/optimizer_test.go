package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/routing/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/routing/ports"
)

func newOptimizer(provider *fakeProvider) *Optimizer {
	clock := func() time.Time { return fixedNow }
	return NewOptimizer(NewGeoRouter(provider, WithClock(clock)), WithOptimizerClock(clock))
}

func locations(names ...string) []domain.Location {
	out := make([]domain.Location, 0, len(names))
	for _, n := range names {
		out = append(out, domain.AddressLocation(n))
	}
	return out
}

func TestOptimizer_ZeroDestinationsMakesNoProviderCalls(t *testing.T) {
	provider := &fakeProvider{}
	_, err := newOptimizer(provider).Plan(context.Background(), domain.AddressLocation("W"), nil, false, domain.RouteOptions{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	require.Zero(t, provider.calls())
}

func TestOptimizer_TooManyDestinations(t *testing.T) {
	provider := &fakeProvider{}
	dests := make([]domain.Location, MaxDestinations+1)
	for i := range dests {
		dests[i] = domain.AddressLocation("stop")
	}
	_, err := newOptimizer(provider).Plan(context.Background(), domain.AddressLocation("W"), dests, false, domain.RouteOptions{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	require.Zero(t, provider.calls())
}

func TestOptimizer_SingleDestinationTotalsEqualLeg(t *testing.T) {
	provider := &fakeProvider{routeFn: distanceTable(map[string]int{"W->A": 600, "A->W": 650})}
	route, err := newOptimizer(provider).Plan(context.Background(), domain.AddressLocation("W"), locations("A"), false, domain.RouteOptions{})
	require.NoError(t, err)

	require.Equal(t, domain.StrategySingle, route.Strategy)
	require.Len(t, route.Waypoints, 1)
	leg := route.Waypoints[0].Leg
	assert.Equal(t, leg.DistanceMeters, route.TotalDistanceMeters)
	assert.Equal(t, leg.DurationSeconds, route.TotalDurationSeconds)
	assert.Nil(t, route.ReturnLeg)
	assert.Equal(t, fixedNow.Add(600*time.Second), route.ETA)
	assert.Equal(t, 1, provider.routeCalls)
	assert.Zero(t, provider.multiStopCalls)

	route, err = newOptimizer(provider).Plan(context.Background(), domain.AddressLocation("W"), locations("A"), true, domain.RouteOptions{})
	require.NoError(t, err)
	require.NotNil(t, route.ReturnLeg)
	assert.Equal(t, 1250, route.TotalDurationSeconds)
}

func TestOptimizer_SingleDestinationFailure(t *testing.T) {
	_, err := newOptimizer(&fakeProvider{}).Plan(context.Background(), domain.AddressLocation("W"), locations("A"), false, domain.RouteOptions{})
	require.ErrorIs(t, err, domain.ErrOptimizationFailed)
	require.ErrorIs(t, err, domain.ErrRouteUnavailable)
}

func TestOptimizer_UsesProviderOrder(t *testing.T) {
	provider := &fakeProvider{
		multiStopFn: func(_ context.Context, req ports.MultiStopRequest) (ports.MultiStopResult, error) {
			require.Len(t, req.Destinations, 2)
			return ports.MultiStopResult{
				Order: []int{1, 0},
				Legs:  []domain.RouteLeg{{DistanceMeters: 100, DurationSeconds: 10}, {DistanceMeters: 200, DurationSeconds: 20}},
			}, nil
		},
	}
	route, err := newOptimizer(provider).Plan(context.Background(), domain.AddressLocation("W"), locations("A", "B"), false, domain.RouteOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyProvider, route.Strategy)
	assert.Equal(t, "B", route.Waypoints[0].Location.String())
	assert.Equal(t, 1, route.Waypoints[0].OriginalIndex)
	assert.Equal(t, 30, route.Waypoints[1].CumulativeDurationSeconds)
	assert.Equal(t, 300, route.TotalDistanceMeters)
	assert.Equal(t, domain.SourceMultiStop, route.Waypoints[0].Leg.Source)
	assert.Zero(t, provider.routeCalls)
}

func TestOptimizer_NearestNeighbourFallback(t *testing.T) {
	provider := &fakeProvider{
		routeFn: distanceTable(map[string]int{
			"W->A": 300, "W->B": 100, "W->C": 200,
			"B->A": 50, "B->C": 50,
			"A->C": 70, "C->A": 70,
			"A->W": 400, "C->W": 10,
		}),
	}
	route, err := newOptimizer(provider).Plan(context.Background(), domain.AddressLocation("W"), locations("A", "B", "C"), true, domain.RouteOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyNearestNeighbor, route.Strategy)

	order := make([]string, 0, len(route.Waypoints))
	for _, w := range route.Waypoints {
		order = append(order, w.Location.String())
	}
	// B->A and B->C tie on duration and distance; the lower original index wins.
	assert.Equal(t, []string{"B", "A", "C"}, order)
	require.NotNil(t, route.ReturnLeg)
	assert.Equal(t, 100+50+70+10, route.TotalDurationSeconds)
	assert.Equal(t, 1, provider.multiStopCalls)
	assert.Contains(t, route.MapsLink, "destination=W")
}

func TestOptimizer_NearestNeighbourUnreachable(t *testing.T) {
	provider := &fakeProvider{routeFn: distanceTable(map[string]int{"W->A": 10})}
	_, err := newOptimizer(provider).Plan(context.Background(), domain.AddressLocation("W"), locations("A", "B"), false, domain.RouteOptions{})
	require.ErrorIs(t, err, domain.ErrOptimizationFailed)
}
