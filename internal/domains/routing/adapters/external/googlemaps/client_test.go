package googlemaps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/routing/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/routing/ports"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(server.URL, "test-key", WithHTTPClient(server.Client()), WithRateLimit(1000, 10))
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("", " ")
	require.Error(t, err)
}

func TestGeocode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/geocode/json", r.URL.Path)
		assert.Equal(t, "508 SW 8th St, Bentonville", r.URL.Query().Get("address"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"508 SW 8th St, Bentonville, AR 72716","place_id":"p1","geometry":{"location":{"lat":36.3729,"lng":-94.2088}}}]}`))
	})

	results, err := client.Geocode(context.Background(), "508 SW 8th St, Bentonville")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "p1", results[0].PlaceID)
	assert.InDelta(t, -94.2088, results[0].Coordinates.Lng, 1e-9)
}

func TestGeocodeZeroResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	})
	_, err := client.Geocode(context.Background(), "nowhere")
	require.ErrorIs(t, err, domain.ErrAddressNotFound)
}

func TestComputeRouteWithTraffic(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/directions/json", r.URL.Path)
		assert.Equal(t, "now", r.URL.Query().Get("departure_time"))
		_, _ = w.Write([]byte(`{"status":"OK","routes":[{"overview_polyline":{"points":"enc"},"legs":[{"distance":{"text":"9.3 km","value":9300},"duration":{"text":"12 mins","value":720},"duration_in_traffic":{"text":"16 mins","value":960}}]}]}`))
	})

	leg, err := client.ComputeRoute(context.Background(), domain.AddressLocation("A"), domain.AddressLocation("B"), domain.RouteOptions{TrafficAware: true})
	require.NoError(t, err)
	assert.Equal(t, 9300, leg.DistanceMeters)
	assert.Equal(t, 960, leg.DurationSeconds)
	assert.Equal(t, domain.TrafficHeavy, leg.TrafficCondition)
	assert.Equal(t, "enc", leg.Polyline)
	assert.Equal(t, domain.SourceDirections, leg.Source)
}

func TestComputeRouteProviderError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OVER_QUERY_LIMIT","error_message":"slow down"}`))
	})
	_, err := client.ComputeRoute(context.Background(), domain.AddressLocation("A"), domain.AddressLocation("B"), domain.RouteOptions{})
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
	require.Contains(t, err.Error(), "slow down")

	failing := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err = failing.ComputeRoute(context.Background(), domain.AddressLocation("A"), domain.AddressLocation("B"), domain.RouteOptions{})
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestEstimateLeg(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/distancematrix/json", r.URL.Path)
		assert.Equal(t, "A", r.URL.Query().Get("origins"))
		_, _ = w.Write([]byte(`{"status":"OK","rows":[{"elements":[{"status":"OK","distance":{"text":"1.0 km","value":1000},"duration":{"text":"3 mins","value":180}}]}]}`))
	})
	leg, err := client.EstimateLeg(context.Background(), domain.AddressLocation("A"), domain.AddressLocation("B"), domain.RouteOptions{})
	require.NoError(t, err)
	assert.Equal(t, 180, leg.DurationSeconds)
	assert.Equal(t, domain.SourceDistanceMatrix, leg.Source)

	unreachable := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OK","rows":[{"elements":[{"status":"NOT_FOUND"}]}]}`))
	})
	_, err = unreachable.EstimateLeg(context.Background(), domain.AddressLocation("A"), domain.AddressLocation("B"), domain.RouteOptions{})
	require.ErrorIs(t, err, domain.ErrRouteUnavailable)
}

func TestComputeMultiStopRoute(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "W", q.Get("origin"))
		assert.Equal(t, "W", q.Get("destination"))
		assert.Equal(t, "optimize:true|A|B|C", q.Get("waypoints"))
		_, _ = w.Write([]byte(`{"status":"OK","routes":[{"waypoint_order":[2,0,1],"legs":[
			{"distance":{"value":100},"duration":{"value":10}},
			{"distance":{"value":200},"duration":{"value":20}},
			{"distance":{"value":300},"duration":{"value":30}},
			{"distance":{"value":400},"duration":{"value":40}}]}]}`))
	})

	result, err := client.ComputeMultiStopRoute(context.Background(), ports.MultiStopRequest{
		Origin:         domain.AddressLocation("W"),
		Destinations:   []domain.Location{domain.AddressLocation("A"), domain.AddressLocation("B"), domain.AddressLocation("C")},
		ReturnToOrigin: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0, 1}, result.Order)
	require.Len(t, result.Legs, 4)
	assert.Equal(t, "C", result.Legs[0].Destination.String())
	assert.Equal(t, "W", result.Legs[3].Destination.String())
}

func TestComputeMultiStopRouteFixedEnd(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "B", q.Get("destination"))
		assert.Equal(t, "optimize:true|A", q.Get("waypoints"))
		_, _ = w.Write([]byte(`{"status":"OK","routes":[{"waypoint_order":[0],"legs":[
			{"distance":{"value":100},"duration":{"value":10}},
			{"distance":{"value":200},"duration":{"value":20}}]}]}`))
	})

	result, err := client.ComputeMultiStopRoute(context.Background(), ports.MultiStopRequest{
		Origin:       domain.AddressLocation("W"),
		Destinations: []domain.Location{domain.AddressLocation("A"), domain.AddressLocation("B")},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, result.Order)
	assert.Len(t, result.Legs, 2)
}
