package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/routing/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/shared/geo"
)

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func TestGeoRouter_GeocodeEmptyAddressSkipsProvider(t *testing.T) {
	provider := &fakeProvider{}
	router := NewGeoRouter(provider)

	_, err := router.Geocode(context.Background(), "   ")
	require.ErrorIs(t, err, domain.ErrAddressNotFound)
	require.Zero(t, provider.calls())
}

func TestGeoRouter_GeocodeCoordinatesShortCircuit(t *testing.T) {
	provider := &fakeProvider{}
	router := NewGeoRouter(provider)

	result, err := router.Geocode(context.Background(), "36.3729,-94.2088")
	require.NoError(t, err)
	assert.InDelta(t, 36.3729, result.Coordinates.Lat, 1e-9)
	require.Zero(t, provider.calls())
}

func TestGeoRouter_GeocodeCachesFirstCandidate(t *testing.T) {
	provider := &fakeProvider{
		geocodeFn: func(context.Context, string) ([]domain.GeocodeResult, error) {
			return []domain.GeocodeResult{
				{Coordinates: geo.Coordinates{Lat: 36.33, Lng: -94.12}, FormattedAddress: "Rogers, AR", PlaceID: "first"},
				{Coordinates: geo.Coordinates{Lat: 1, Lng: 1}, PlaceID: "second"},
			}, nil
		},
	}
	router := NewGeoRouter(provider)
	ctx := context.Background()

	first, err := router.Geocode(ctx, "1 Main St,  Rogers")
	require.NoError(t, err)
	require.Equal(t, "first", first.PlaceID)

	second, err := router.Geocode(ctx, "1 main st, rogers")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, provider.geocodeCalls)
}

func TestGeoRouter_GeocodeOutlivesCancelledCaller(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	provider := &fakeProvider{
		geocodeFn: func(ctx context.Context, _ string) ([]domain.GeocodeResult, error) {
			select {
			case started <- struct{}{}:
			default:
			}
			<-release
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return []domain.GeocodeResult{{Coordinates: geo.Coordinates{Lat: 36.33, Lng: -94.12}, PlaceID: "shared"}}, nil
		},
	}
	router := NewGeoRouter(provider)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := router.Geocode(ctx, "1 Main St, Rogers")
		firstErr <- err
	}()
	<-started
	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)
	close(release)

	result, err := router.Geocode(context.Background(), "1 Main St, Rogers")
	require.NoError(t, err)
	assert.Equal(t, "shared", result.PlaceID)
	assert.Equal(t, 1, provider.calls())
}

func TestGeoRouter_GeocodeErrors(t *testing.T) {
	provider := &fakeProvider{
		geocodeFn: func(_ context.Context, address string) ([]domain.GeocodeResult, error) {
			if address == "nowhere" {
				return nil, nil
			}
			return nil, errors.New("quota exceeded")
		},
	}
	router := NewGeoRouter(provider)

	_, err := router.Geocode(context.Background(), "nowhere")
	require.ErrorIs(t, err, domain.ErrAddressNotFound)

	_, err = router.Geocode(context.Background(), "somewhere")
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestGeoRouter_RouteLegPrimary(t *testing.T) {
	provider := &fakeProvider{
		routeFn: func(context.Context, domain.Location, domain.Location) (domain.RouteLeg, error) {
			return domain.RouteLeg{DistanceMeters: 9300, DurationSeconds: 840, TrafficCondition: domain.TrafficLight, Polyline: "abc"}, nil
		},
	}
	router := NewGeoRouter(provider, WithClock(func() time.Time { return fixedNow }))

	leg, err := router.RouteLeg(context.Background(), domain.AddressLocation("A"), domain.AddressLocation("B"), domain.RouteOptions{TrafficAware: true})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceDirections, leg.Source)
	assert.Equal(t, "9.3 km", leg.DistanceText)
	assert.Equal(t, "14 mins", leg.DurationText)
	assert.Equal(t, fixedNow.Add(840*time.Second), leg.ETA)
	assert.Equal(t, "A", leg.Origin.String())
	assert.Zero(t, provider.estimateCalls)
}

func TestGeoRouter_RouteLegFallsBackOnTimeout(t *testing.T) {
	provider := &fakeProvider{
		routeFn: func(ctx context.Context, _, _ domain.Location) (domain.RouteLeg, error) {
			<-ctx.Done()
			return domain.RouteLeg{}, ctx.Err()
		},
		estimateFn: func(context.Context, domain.Location, domain.Location) (domain.RouteLeg, error) {
			return domain.RouteLeg{DistanceMeters: 1000, DurationSeconds: 120}, nil
		},
	}
	router := NewGeoRouter(provider, WithTimeout(10*time.Millisecond))

	leg, err := router.RouteLeg(context.Background(), domain.AddressLocation("A"), domain.AddressLocation("B"), domain.RouteOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceDistanceMatrix, leg.Source)
	assert.Equal(t, domain.TrafficUnknown, leg.TrafficCondition)
	assert.Equal(t, 1, provider.routeCalls)
	assert.Equal(t, 1, provider.estimateCalls)
}

func TestGeoRouter_RouteLegUnavailable(t *testing.T) {
	router := NewGeoRouter(&fakeProvider{})

	_, err := router.RouteLeg(context.Background(), domain.AddressLocation("A"), domain.AddressLocation("B"), domain.RouteOptions{})
	require.ErrorIs(t, err, domain.ErrRouteUnavailable)
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)

	_, err = router.RouteLeg(context.Background(), domain.Location{}, domain.AddressLocation("B"), domain.RouteOptions{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGeoRouter_MapsLink(t *testing.T) {
	router := NewGeoRouter(nil)
	link := router.MapsLink(domain.AddressLocation("Warehouse"), domain.AddressLocation("Home"), domain.AddressLocation("Stop 1"), domain.AddressLocation("Stop 2"))
	assert.Equal(t, "https://www.google.com/maps/dir/?api=1&destination=Home&origin=Warehouse&travelmode=driving&waypoints=Stop+1%7CStop+2", link)
}
