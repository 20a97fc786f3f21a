package ports

import (
	"context"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/routing/domain"
)

// Router exposes geocoding and leg routing with timeouts and fallbacks applied.
type Router interface {
	Geocode(ctx context.Context, address string) (domain.GeocodeResult, error)
	RouteLeg(ctx context.Context, origin, destination domain.Location, opts domain.RouteOptions) (domain.RouteLeg, error)
	MultiStopRoute(ctx context.Context, req MultiStopRequest) (MultiStopResult, error)
	MapsLink(origin, destination domain.Location, waypoints ...domain.Location) string
}

// Planner orders destinations into an optimized route.
type Planner interface {
	Plan(ctx context.Context, origin domain.Location, destinations []domain.Location, returnToOrigin bool, opts domain.RouteOptions) (*domain.OptimizedRoute, error)
}
