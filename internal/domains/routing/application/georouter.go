package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/routing/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/routing/ports"
	"github.com/Apurer/warehouse-fulfillment/internal/shared/geo"
)

const (
	// DefaultProviderTimeout bounds every individual provider call.
	DefaultProviderTimeout = 5 * time.Second
	// DefaultMapsBaseURL is the directions deep link used in reports and API responses.
	DefaultMapsBaseURL = "https://www.google.com/maps/dir/"
)

var _ ports.Router = (*GeoRouter)(nil)

// GeoRouter resolves addresses and computes legs through a Provider, applying timeouts,
// caching and the directions to distance-matrix fallback.
type GeoRouter struct {
	provider    ports.Provider
	timeout     time.Duration
	now         func() time.Time
	logger      *slog.Logger
	mapsBaseURL string

	mu     sync.RWMutex
	cache  map[string]domain.GeocodeResult
	flight singleflight.Group
}

// RouterOption customizes a GeoRouter.
type RouterOption func(*GeoRouter)

// WithTimeout overrides the per-call provider timeout.
func WithTimeout(d time.Duration) RouterOption {
	return func(r *GeoRouter) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithClock overrides the time source used for ETAs.
func WithClock(now func() time.Time) RouterOption {
	return func(r *GeoRouter) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(logger *slog.Logger) RouterOption {
	return func(r *GeoRouter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMapsBaseURL overrides the deep link prefix.
func WithMapsBaseURL(base string) RouterOption {
	return func(r *GeoRouter) {
		if base = strings.TrimSpace(base); base != "" {
			r.mapsBaseURL = base
		}
	}
}

// NewGeoRouter wires a router on top of provider.
func NewGeoRouter(provider ports.Provider, opts ...RouterOption) *GeoRouter {
	r := &GeoRouter{
		provider:    provider,
		timeout:     DefaultProviderTimeout,
		now:         time.Now,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		mapsBaseURL: DefaultMapsBaseURL,
		cache:       map[string]domain.GeocodeResult{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Geocode resolves address to coordinates. Coordinate input is returned without a provider call.
func (r *GeoRouter) Geocode(ctx context.Context, address string) (domain.GeocodeResult, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return domain.GeocodeResult{}, fmt.Errorf("%w: address is empty", domain.ErrAddressNotFound)
	}
	if c, ok := geo.ParseCoordinates(address); ok {
		return domain.GeocodeResult{Coordinates: c, FormattedAddress: c.String()}, nil
	}
	key := cacheKey(address)
	r.mu.RLock()
	cached, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}
	if r.provider == nil {
		return domain.GeocodeResult{}, domain.ErrProviderUnavailable
	}

	// The shared lookup serves every joined caller, so only the provider timeout bounds it.
	flight := r.flight.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		results, err := r.provider.Geocode(callCtx, address)
		if err != nil {
			if errors.Is(err, domain.ErrAddressNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: geocode: %w", domain.ErrProviderUnavailable, err)
		}
		for _, candidate := range results {
			if !candidate.Coordinates.Valid() {
				continue
			}
			if candidate.FormattedAddress == "" {
				candidate.FormattedAddress = address
			}
			r.mu.Lock()
			r.cache[key] = candidate
			r.mu.Unlock()
			return candidate, nil
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrAddressNotFound, address)
	})
	select {
	case <-ctx.Done():
		return domain.GeocodeResult{}, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return domain.GeocodeResult{}, res.Err
		}
		return res.Val.(domain.GeocodeResult), nil
	}
}

// RouteLeg computes origin to destination. The directions call is tried first and the
// distance-matrix estimate second; both failing yields ErrRouteUnavailable.
func (r *GeoRouter) RouteLeg(ctx context.Context, origin, destination domain.Location, opts domain.RouteOptions) (domain.RouteLeg, error) {
	if origin.IsZero() || destination.IsZero() {
		return domain.RouteLeg{}, fmt.Errorf("%w: origin and destination are required", domain.ErrInvalidInput)
	}
	if r.provider == nil {
		return domain.RouteLeg{}, fmt.Errorf("%w: %w", domain.ErrRouteUnavailable, domain.ErrProviderUnavailable)
	}

	leg, primaryErr := r.call(ctx, func(callCtx context.Context) (domain.RouteLeg, error) {
		return r.provider.ComputeRoute(callCtx, origin, destination, opts)
	})
	if primaryErr == nil {
		return r.finish(leg, origin, destination, domain.SourceDirections), nil
	}
	r.logger.LogAttrs(ctx, slog.LevelWarn, "directions failed, falling back to estimate",
		slog.String("origin", origin.String()),
		slog.String("destination", destination.String()),
		slog.String("error", primaryErr.Error()),
	)

	leg, fallbackErr := r.call(ctx, func(callCtx context.Context) (domain.RouteLeg, error) {
		return r.provider.EstimateLeg(callCtx, origin, destination, opts)
	})
	if fallbackErr == nil {
		return r.finish(leg, origin, destination, domain.SourceDistanceMatrix), nil
	}
	return domain.RouteLeg{}, fmt.Errorf("%w: %w", domain.ErrRouteUnavailable, errors.Join(primaryErr, fallbackErr))
}

// MultiStopRoute asks the provider to order destinations. Errors are returned unchanged so
// callers can detect ErrWaypointOptimizationUnsupported.
func (r *GeoRouter) MultiStopRoute(ctx context.Context, req ports.MultiStopRequest) (ports.MultiStopResult, error) {
	if r.provider == nil {
		return ports.MultiStopResult{}, domain.ErrProviderUnavailable
	}
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	result, err := r.provider.ComputeMultiStopRoute(callCtx, req)
	if err != nil {
		return ports.MultiStopResult{}, err
	}
	for i := range result.Legs {
		result.Legs[i] = r.finish(result.Legs[i], result.Legs[i].Origin, result.Legs[i].Destination, domain.SourceMultiStop)
	}
	return result, nil
}

// MapsLink formats a driving directions URL through the given stops.
func (r *GeoRouter) MapsLink(origin, destination domain.Location, waypoints ...domain.Location) string {
	values := url.Values{}
	values.Set("api", "1")
	values.Set("origin", origin.String())
	values.Set("destination", destination.String())
	if len(waypoints) > 0 {
		stops := make([]string, 0, len(waypoints))
		for _, w := range waypoints {
			stops = append(stops, w.String())
		}
		values.Set("waypoints", strings.Join(stops, "|"))
	}
	values.Set("travelmode", "driving")
	return r.mapsBaseURL + "?" + values.Encode()
}

func (r *GeoRouter) call(ctx context.Context, fn func(context.Context) (domain.RouteLeg, error)) (domain.RouteLeg, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	leg, err := fn(callCtx)
	if err == nil && callCtx.Err() != nil {
		err = callCtx.Err()
	}
	return leg, err
}

func (r *GeoRouter) finish(leg domain.RouteLeg, origin, destination domain.Location, source domain.LegSource) domain.RouteLeg {
	if leg.Origin.IsZero() {
		leg.Origin = origin
	}
	if leg.Destination.IsZero() {
		leg.Destination = destination
	}
	if leg.Source == "" {
		leg.Source = source
	}
	leg.Normalize()
	leg.ETA = r.now().UTC().Add(time.Duration(leg.DurationSeconds) * time.Second)
	return leg
}

func cacheKey(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}
