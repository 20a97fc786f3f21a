package application

import (
	"context"
	"errors"
	"strings"
	"time"

	fulfillmenttypes "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/application/types"
	orderports "github.com/Apurer/warehouse-fulfillment/internal/domains/orders/ports"
	routingdomain "github.com/Apurer/warehouse-fulfillment/internal/domains/routing/domain"
)

// healthCheckOrderID never names a real order; looking it up exercises the store round trip.
const healthCheckOrderID = "health-check"

// PlanRoute orders destinations into an optimized route starting at origin, or at the
// warehouse when origin is empty.
func (s *Service) PlanRoute(ctx context.Context, input fulfillmenttypes.PlanRouteInput) (*routingdomain.OptimizedRoute, error) {
	destinations := make([]routingdomain.Location, 0, len(input.Destinations))
	for _, destination := range input.Destinations {
		destinations = append(destinations, routingdomain.AddressLocation(destination))
	}
	route, err := s.planner.Plan(ctx, s.origin(input.Origin), destinations, input.ReturnToOrigin,
		routingdomain.RouteOptions{TrafficAware: input.TrafficAware})
	if err != nil {
		return nil, mapError(err)
	}
	return route, nil
}

// CalculateRoute routes a single leg and returns it with a map link.
func (s *Service) CalculateRoute(ctx context.Context, input fulfillmenttypes.CalculateRouteInput) (*fulfillmenttypes.RouteCalculation, error) {
	destination := routingdomain.AddressLocation(input.Destination)
	if destination.IsZero() {
		return nil, mapError(routingdomain.ErrInvalidInput)
	}
	origin := s.origin(input.Origin)
	leg, err := s.router.RouteLeg(ctx, origin, destination, routingdomain.RouteOptions{TrafficAware: input.TrafficAware})
	if err != nil {
		return nil, mapError(err)
	}
	return &fulfillmenttypes.RouteCalculation{Leg: leg, MapsLink: s.router.MapsLink(origin, destination)}, nil
}

// Geocode resolves an address to coordinates.
func (s *Service) Geocode(ctx context.Context, address string) (*routingdomain.GeocodeResult, error) {
	result, err := s.router.Geocode(ctx, address)
	if err != nil {
		return nil, mapError(err)
	}
	return &result, nil
}

// Health checks the order store and the routing provider.
func (s *Service) Health(ctx context.Context) (*fulfillmenttypes.HealthStatus, error) {
	checks := []fulfillmenttypes.HealthCheck{
		s.checkDependency(ctx, "orders", func(ctx context.Context) error {
			_, err := s.stores.Orders.GetByID(ctx, healthCheckOrderID)
			if errors.Is(err, orderports.ErrNotFound) {
				return nil
			}
			return err
		}),
		s.checkDependency(ctx, "routing", func(ctx context.Context) error {
			_, err := s.router.Geocode(ctx, s.cfg.WarehouseOrigin)
			return err
		}),
	}
	status := &fulfillmenttypes.HealthStatus{Healthy: true, Checks: checks, CheckedAt: s.now()}
	for _, check := range checks {
		status.Healthy = status.Healthy && check.Healthy
	}
	return status, nil
}

func (s *Service) checkDependency(ctx context.Context, name string, fn func(context.Context) error) fulfillmenttypes.HealthCheck {
	started := time.Now()
	err := fn(ctx)
	check := fulfillmenttypes.HealthCheck{Name: name, Healthy: err == nil, Latency: time.Since(started)}
	if err != nil {
		check.Detail = err.Error()
	}
	return check
}

func (s *Service) origin(raw string) routingdomain.Location {
	if strings.TrimSpace(raw) == "" {
		return routingdomain.AddressLocation(s.cfg.WarehouseOrigin)
	}
	return routingdomain.AddressLocation(raw)
}
