package ports

import (
	"context"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/routing/domain"
)

// MultiStopRequest asks a provider to order and route several stops.
type MultiStopRequest struct {
	Origin         domain.Location
	Destinations   []domain.Location
	ReturnToOrigin bool
	Options        domain.RouteOptions
}

// MultiStopResult carries the provider's visiting order as indexes into the request
// destinations plus one leg per visit, followed by the return leg when requested.
type MultiStopResult struct {
	Order []int
	Legs  []domain.RouteLeg
}

// Provider is an external geocoding and routing backend.
type Provider interface {
	// Geocode returns candidates ordered by confidence.
	Geocode(ctx context.Context, address string) ([]domain.GeocodeResult, error)
	// ComputeRoute is the primary point-to-point directions call.
	ComputeRoute(ctx context.Context, origin, destination domain.Location, opts domain.RouteOptions) (domain.RouteLeg, error)
	// EstimateLeg is the cheaper distance-matrix style estimate used as a fallback.
	EstimateLeg(ctx context.Context, origin, destination domain.Location, opts domain.RouteOptions) (domain.RouteLeg, error)
	// ComputeMultiStopRoute optimizes waypoint order. Providers without that capability
	// return domain.ErrWaypointOptimizationUnsupported.
	ComputeMultiStopRoute(ctx context.Context, req MultiStopRequest) (MultiStopResult, error)
}
