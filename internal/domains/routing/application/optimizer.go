package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/routing/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/routing/ports"
)

// MaxDestinations is the waypoint ceiling of the mapping provider.
const MaxDestinations = 23

var _ ports.Planner = (*Optimizer)(nil)

// Optimizer orders destinations into a route, preferring provider waypoint optimization and
// falling back to a deterministic nearest-neighbour walk.
type Optimizer struct {
	router ports.Router
	now    func() time.Time
	logger *slog.Logger
}

// OptimizerOption customizes an Optimizer.
type OptimizerOption func(*Optimizer)

// WithOptimizerClock overrides the time source for route ETAs.
func WithOptimizerClock(now func() time.Time) OptimizerOption {
	return func(o *Optimizer) {
		if now != nil {
			o.now = now
		}
	}
}

// WithOptimizerLogger sets the logger used when falling back.
func WithOptimizerLogger(logger *slog.Logger) OptimizerOption {
	return func(o *Optimizer) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func NewOptimizer(router ports.Router, opts ...OptimizerOption) *Optimizer {
	o := &Optimizer{
		router: router,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Plan computes the visiting order from origin through destinations.
func (o *Optimizer) Plan(ctx context.Context, origin domain.Location, destinations []domain.Location, returnToOrigin bool, opts domain.RouteOptions) (*domain.OptimizedRoute, error) {
	if origin.IsZero() {
		return nil, fmt.Errorf("%w: origin is required", domain.ErrInvalidInput)
	}
	switch {
	case len(destinations) == 0:
		return nil, fmt.Errorf("%w: at least one destination is required", domain.ErrInvalidInput)
	case len(destinations) > MaxDestinations:
		return nil, fmt.Errorf("%w: at most %d destinations are supported", domain.ErrInvalidInput, MaxDestinations)
	}
	for i, d := range destinations {
		if d.IsZero() {
			return nil, fmt.Errorf("%w: destination %d is empty", domain.ErrInvalidInput, i)
		}
	}
	if o.router == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrOptimizationFailed, domain.ErrProviderUnavailable)
	}

	if len(destinations) == 1 {
		return o.single(ctx, origin, destinations[0], returnToOrigin, opts)
	}

	result, err := o.router.MultiStopRoute(ctx, ports.MultiStopRequest{
		Origin:         origin,
		Destinations:   destinations,
		ReturnToOrigin: returnToOrigin,
		Options:        opts,
	})
	if err == nil {
		err = validateMultiStop(result, len(destinations), returnToOrigin)
	}
	if err == nil {
		var ret *domain.RouteLeg
		if returnToOrigin {
			last := result.Legs[len(result.Legs)-1]
			ret = &last
		}
		return o.build(origin, destinations, result.Order, result.Legs[:len(destinations)], ret, domain.StrategyProvider), nil
	}
	o.logger.LogAttrs(ctx, slog.LevelWarn, "provider waypoint optimization unavailable, using nearest neighbour",
		slog.Int("destinations", len(destinations)),
		slog.String("error", err.Error()),
	)
	return o.nearestNeighbor(ctx, origin, destinations, returnToOrigin, opts)
}

func (o *Optimizer) single(ctx context.Context, origin, destination domain.Location, returnToOrigin bool, opts domain.RouteOptions) (*domain.OptimizedRoute, error) {
	leg, err := o.router.RouteLeg(ctx, origin, destination, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrOptimizationFailed, err)
	}
	var ret *domain.RouteLeg
	if returnToOrigin {
		back, err := o.router.RouteLeg(ctx, destination, origin, opts)
		if err != nil {
			return nil, fmt.Errorf("%w: return leg: %w", domain.ErrOptimizationFailed, err)
		}
		ret = &back
	}
	return o.build(origin, []domain.Location{destination}, []int{0}, []domain.RouteLeg{leg}, ret, domain.StrategySingle), nil
}

// nearestNeighbor greedily picks the next stop with the shortest leg duration, breaking ties
// on distance and then on the original index.
func (o *Optimizer) nearestNeighbor(ctx context.Context, origin domain.Location, destinations []domain.Location, returnToOrigin bool, opts domain.RouteOptions) (*domain.OptimizedRoute, error) {
	remaining := make([]int, len(destinations))
	for i := range remaining {
		remaining[i] = i
	}
	order := make([]int, 0, len(destinations))
	legs := make([]domain.RouteLeg, 0, len(destinations))
	current := origin
	var failures []error

	for len(remaining) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrOptimizationFailed, err)
		}
		bestPos := -1
		var bestLeg domain.RouteLeg
		for pos, idx := range remaining {
			leg, err := o.router.RouteLeg(ctx, current, destinations[idx], opts)
			if err != nil {
				failures = append(failures, err)
				continue
			}
			if bestPos < 0 || closer(leg, idx, bestLeg, remaining[bestPos]) {
				bestPos, bestLeg = pos, leg
			}
		}
		if bestPos < 0 {
			return nil, fmt.Errorf("%w: no reachable destination from %s: %w", domain.ErrOptimizationFailed, current.String(), errors.Join(failures...))
		}
		idx := remaining[bestPos]
		order = append(order, idx)
		legs = append(legs, bestLeg)
		current = destinations[idx]
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
	}

	var ret *domain.RouteLeg
	if returnToOrigin {
		back, err := o.router.RouteLeg(ctx, current, origin, opts)
		if err != nil {
			return nil, fmt.Errorf("%w: return leg: %w", domain.ErrOptimizationFailed, err)
		}
		ret = &back
	}
	return o.build(origin, destinations, order, legs, ret, domain.StrategyNearestNeighbor), nil
}

func closer(leg domain.RouteLeg, idx int, best domain.RouteLeg, bestIdx int) bool {
	if leg.DurationSeconds != best.DurationSeconds {
		return leg.DurationSeconds < best.DurationSeconds
	}
	if leg.DistanceMeters != best.DistanceMeters {
		return leg.DistanceMeters < best.DistanceMeters
	}
	return idx < bestIdx
}

func (o *Optimizer) build(origin domain.Location, destinations []domain.Location, order []int, legs []domain.RouteLeg, ret *domain.RouteLeg, strategy domain.Strategy) *domain.OptimizedRoute {
	route := &domain.OptimizedRoute{
		Origin:    origin,
		Waypoints: make([]domain.Waypoint, 0, len(order)),
		Strategy:  strategy,
	}
	stops := make([]domain.Location, 0, len(order))
	for seq, idx := range order {
		leg := legs[seq]
		route.TotalDistanceMeters += leg.DistanceMeters
		route.TotalDurationSeconds += leg.DurationSeconds
		route.Waypoints = append(route.Waypoints, domain.Waypoint{
			Location:                  destinations[idx],
			Sequence:                  seq + 1,
			OriginalIndex:             idx,
			Leg:                       leg,
			CumulativeDistanceMeters:  route.TotalDistanceMeters,
			CumulativeDurationSeconds: route.TotalDurationSeconds,
		})
		stops = append(stops, destinations[idx])
	}
	if ret != nil {
		back := *ret
		route.ReturnLeg = &back
		route.TotalDistanceMeters += back.DistanceMeters
		route.TotalDurationSeconds += back.DurationSeconds
	}
	route.TotalDistanceText = domain.FormatDistance(route.TotalDistanceMeters)
	route.TotalDurationText = domain.FormatDuration(route.TotalDurationSeconds)
	route.ETA = o.now().UTC().Add(time.Duration(route.TotalDurationSeconds) * time.Second)

	final := stops[len(stops)-1]
	via := stops[:len(stops)-1]
	if ret != nil {
		final, via = origin, stops
	}
	route.MapsLink = o.router.MapsLink(origin, final, via...)
	return route
}

func validateMultiStop(result ports.MultiStopResult, n int, returnToOrigin bool) error {
	wantLegs := n
	if returnToOrigin {
		wantLegs++
	}
	if len(result.Order) != n || len(result.Legs) != wantLegs {
		return fmt.Errorf("%w: provider returned %d stops and %d legs", domain.ErrOptimizationFailed, len(result.Order), len(result.Legs))
	}
	seen := make([]bool, n)
	for _, idx := range result.Order {
		if idx < 0 || idx >= n || seen[idx] {
			return fmt.Errorf("%w: provider returned an invalid visiting order", domain.ErrOptimizationFailed)
		}
		seen[idx] = true
	}
	return nil
}
