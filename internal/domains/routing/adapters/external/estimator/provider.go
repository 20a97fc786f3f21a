// Package estimator is an offline routing provider. It resolves addresses from a fixed
// gazetteer and estimates legs from great-circle distance, so the service can run without a
// maps API key. It never serves directions, which routes every leg through the estimate path.
package estimator

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/routing/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/routing/ports"
	"github.com/Apurer/warehouse-fulfillment/internal/shared/geo"
)

const (
	// DefaultWarehouseAddress is the distribution center routes start from.
	DefaultWarehouseAddress = domain.DefaultWarehouseAddress

	roadFactor         = 1.25
	averageSpeedKmPerH = 45.0
)

// DefaultWarehouseCoordinates locates DefaultWarehouseAddress.
var DefaultWarehouseCoordinates = geo.Coordinates{Lat: 36.3729, Lng: -94.2088}

var _ ports.Provider = (*Provider)(nil)

type Provider struct {
	mu     sync.RWMutex
	places map[string]domain.GeocodeResult
}

// NewProvider returns an estimator that knows the default warehouse plus any extra places.
func NewProvider(places map[string]geo.Coordinates) *Provider {
	p := &Provider{places: map[string]domain.GeocodeResult{}}
	p.AddPlace(DefaultWarehouseAddress, DefaultWarehouseCoordinates)
	for address, c := range places {
		p.AddPlace(address, c)
	}
	return p
}

// AddPlace registers address in the gazetteer.
func (p *Provider) AddPlace(address string, c geo.Coordinates) {
	address = strings.TrimSpace(address)
	if address == "" || !c.Valid() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.places[normalize(address)] = domain.GeocodeResult{
		Coordinates:      c,
		FormattedAddress: address,
		PlaceID:          "local:" + normalize(address),
	}
}

func (p *Provider) Geocode(ctx context.Context, address string) ([]domain.GeocodeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c, ok := geo.ParseCoordinates(address); ok {
		return []domain.GeocodeResult{{Coordinates: c, FormattedAddress: c.String()}}, nil
	}
	p.mu.RLock()
	result, ok := p.places[normalize(address)]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAddressNotFound, strings.TrimSpace(address))
	}
	return []domain.GeocodeResult{result}, nil
}

// ComputeRoute is not available offline.
func (p *Provider) ComputeRoute(context.Context, domain.Location, domain.Location, domain.RouteOptions) (domain.RouteLeg, error) {
	return domain.RouteLeg{}, fmt.Errorf("%w: directions require a maps provider", domain.ErrProviderUnavailable)
}

// EstimateLeg scales the great-circle distance by a road factor and a fixed average speed.
func (p *Provider) EstimateLeg(ctx context.Context, origin, destination domain.Location, _ domain.RouteOptions) (domain.RouteLeg, error) {
	from, err := p.resolve(ctx, origin)
	if err != nil {
		return domain.RouteLeg{}, fmt.Errorf("%w: %w", domain.ErrRouteUnavailable, err)
	}
	to, err := p.resolve(ctx, destination)
	if err != nil {
		return domain.RouteLeg{}, fmt.Errorf("%w: %w", domain.ErrRouteUnavailable, err)
	}
	meters := geo.DistanceMeters(from, to) * roadFactor
	seconds := meters / 1000 / averageSpeedKmPerH * 3600
	leg := domain.RouteLeg{
		Origin:           origin,
		Destination:      destination,
		DistanceMeters:   int(math.Round(meters)),
		DurationSeconds:  int(math.Round(seconds)),
		TrafficCondition: domain.TrafficUnknown,
		Source:           domain.SourceDistanceMatrix,
	}
	leg.Normalize()
	return leg, nil
}

// ComputeMultiStopRoute reports the capability as missing so callers order stops locally.
func (p *Provider) ComputeMultiStopRoute(context.Context, ports.MultiStopRequest) (ports.MultiStopResult, error) {
	return ports.MultiStopResult{}, domain.ErrWaypointOptimizationUnsupported
}

func (p *Provider) resolve(ctx context.Context, loc domain.Location) (geo.Coordinates, error) {
	if loc.Coordinates != nil {
		return *loc.Coordinates, nil
	}
	results, err := p.Geocode(ctx, loc.Address)
	if err != nil {
		return geo.Coordinates{}, err
	}
	return results[0].Coordinates, nil
}

func normalize(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}
