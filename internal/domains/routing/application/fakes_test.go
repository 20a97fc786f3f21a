package application

import (
	"context"
	"sync"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/routing/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/routing/ports"
)

type fakeProvider struct {
	mu sync.Mutex

	geocodeFn   func(ctx context.Context, address string) ([]domain.GeocodeResult, error)
	routeFn     func(ctx context.Context, origin, destination domain.Location) (domain.RouteLeg, error)
	estimateFn  func(ctx context.Context, origin, destination domain.Location) (domain.RouteLeg, error)
	multiStopFn func(ctx context.Context, req ports.MultiStopRequest) (ports.MultiStopResult, error)

	geocodeCalls   int
	routeCalls     int
	estimateCalls  int
	multiStopCalls int
}

func (f *fakeProvider) Geocode(ctx context.Context, address string) ([]domain.GeocodeResult, error) {
	f.mu.Lock()
	f.geocodeCalls++
	f.mu.Unlock()
	if f.geocodeFn == nil {
		return nil, domain.ErrAddressNotFound
	}
	return f.geocodeFn(ctx, address)
}

func (f *fakeProvider) ComputeRoute(ctx context.Context, origin, destination domain.Location, _ domain.RouteOptions) (domain.RouteLeg, error) {
	f.mu.Lock()
	f.routeCalls++
	f.mu.Unlock()
	if f.routeFn == nil {
		return domain.RouteLeg{}, domain.ErrProviderUnavailable
	}
	return f.routeFn(ctx, origin, destination)
}

func (f *fakeProvider) EstimateLeg(ctx context.Context, origin, destination domain.Location, _ domain.RouteOptions) (domain.RouteLeg, error) {
	f.mu.Lock()
	f.estimateCalls++
	f.mu.Unlock()
	if f.estimateFn == nil {
		return domain.RouteLeg{}, domain.ErrProviderUnavailable
	}
	return f.estimateFn(ctx, origin, destination)
}

func (f *fakeProvider) ComputeMultiStopRoute(ctx context.Context, req ports.MultiStopRequest) (ports.MultiStopResult, error) {
	f.mu.Lock()
	f.multiStopCalls++
	f.mu.Unlock()
	if f.multiStopFn == nil {
		return ports.MultiStopResult{}, domain.ErrWaypointOptimizationUnsupported
	}
	return f.multiStopFn(ctx, req)
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.geocodeCalls + f.routeCalls + f.estimateCalls + f.multiStopCalls
}

// distanceTable answers legs from a fixed lookup keyed by "from->to".
func distanceTable(durations map[string]int) func(context.Context, domain.Location, domain.Location) (domain.RouteLeg, error) {
	return func(_ context.Context, origin, destination domain.Location) (domain.RouteLeg, error) {
		d, ok := durations[origin.String()+"->"+destination.String()]
		if !ok {
			return domain.RouteLeg{}, domain.ErrRouteUnavailable
		}
		return domain.RouteLeg{DistanceMeters: d * 10, DurationSeconds: d}, nil
	}
}
