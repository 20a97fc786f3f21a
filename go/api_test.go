package fulfillmentserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	deliverymemory "github.com/Apurer/warehouse-fulfillment/internal/domains/delivery/adapters/memory"
	fulfillmenthttpmapper "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/adapters/http/mapper"
	fulfillmentmemory "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/adapters/memory"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/application"
	fulfillmenttypes "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/application/types"
	fulfillmentports "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/ports"
	inventorymemory "github.com/Apurer/warehouse-fulfillment/internal/domains/inventory/adapters/memory"
	ordermemory "github.com/Apurer/warehouse-fulfillment/internal/domains/orders/adapters/memory"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/routing/adapters/external/estimator"
	routingapp "github.com/Apurer/warehouse-fulfillment/internal/domains/routing/application"
	warehousememory "github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/adapters/memory"
	apierrors "github.com/Apurer/warehouse-fulfillment/internal/shared/errors"
	"github.com/Apurer/warehouse-fulfillment/internal/shared/geo"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	provider := estimator.NewProvider(map[string]geo.Coordinates{
		"Rogers Store": {Lat: 36.3320, Lng: -94.1185},
		"Lowell Depot": {Lat: 36.2553, Lng: -94.1307},
	})
	router := routingapp.NewGeoRouter(provider)
	stores := fulfillmentports.Stores{
		Orders:     ordermemory.NewRepository(),
		Inventory:  inventorymemory.NewRepository(),
		Deliveries: deliverymemory.NewRepository(),
		Tasks:      warehousememory.NewTaskRepository(),
		Zones:      warehousememory.NewZoneRepository(),
	}
	svc := application.NewService(stores, routingapp.NewOptimizer(router), router, fulfillmentmemory.NewReportStore(),
		application.WithIdempotencyStore(fulfillmentmemory.NewIdempotencyStore()))
	return NewRouterWithGinEngine(gin.New(), ApiHandleFunctions{
		IntegrationAPI:      NewIntegrationAPI(svc, nil),
		DeliveryTrackingAPI: NewDeliveryTrackingAPI(svc),
	})
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func orderPayload() fulfillmenthttpmapper.PlaceOrderRequest {
	return fulfillmenthttpmapper.PlaceOrderRequest{
		CustomerName:    "Ada Lovelace",
		CustomerEmail:   "ada@example.com",
		ProductRef:      "SKU-1",
		Quantity:        2,
		UnitPrice:       "19.99",
		DeliveryAddress: "Rogers Store",
	}
}

func TestPlaceOrderThenReplay(t *testing.T) {
	r := newTestRouter(t)
	headers := map[string]string{IdempotencyKeyHeader: "key-1"}

	rec := doJSON(t, r, http.MethodPost, "/api/v1/integration/orders", orderPayload(), headers)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[fulfillmenthttpmapper.FulfillmentResponse](t, rec)
	assert.False(t, first.Replayed)
	assert.NotEmpty(t, first.Order.ID)
	assert.Equal(t, "19.99", first.Order.UnitPrice)
	assert.Equal(t, "39.98", first.Order.Total)
	require.NotNil(t, first.Report)
	assert.Len(t, first.Report.Steps, 3)

	rec = doJSON(t, r, http.MethodPost, "/api/v1/integration/orders", orderPayload(), headers)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	replay := decode[fulfillmenthttpmapper.FulfillmentResponse](t, rec)
	assert.True(t, replay.Replayed)
	assert.Equal(t, first.Order.ID, replay.Order.ID)

	changed := orderPayload()
	changed.Quantity = 5
	rec = doJSON(t, r, http.MethodPost, "/api/v1/integration/orders", changed, headers)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apierrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
}

func TestPlaceOrderValidation(t *testing.T) {
	r := newTestRouter(t)

	bad := orderPayload()
	bad.UnitPrice = "cheap"
	rec := doJSON(t, r, http.MethodPost, "/api/v1/integration/orders", bad, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	bad = orderPayload()
	bad.CustomerEmail = "not-an-email"
	rec = doJSON(t, r, http.MethodPost, "/api/v1/integration/orders", bad, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decode[apierrors.ProblemDetail](t, rec)
	assert.Equal(t, apierrors.TypeValidation, problem.Type)
	assert.Equal(t, "/api/v1/integration/orders", problem.Instance)
}

func TestOrderLifecycle(t *testing.T) {
	r := newTestRouter(t)
	rec := doJSON(t, r, http.MethodPost, "/api/v1/integration/orders", orderPayload(), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	placed := decode[fulfillmenthttpmapper.FulfillmentResponse](t, rec)
	path := "/api/v1/integration/orders/" + placed.Order.ID

	rec = doJSON(t, r, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pending", decode[fulfillmenthttpmapper.Order](t, rec).Status)

	rec = doJSON(t, r, http.MethodPatch, path+"/status", fulfillmenthttpmapper.UpdateStatusRequest{Status: "shipped"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[fulfillmenthttpmapper.FulfillmentResponse](t, rec)
	assert.Equal(t, "shipped", updated.Order.Status)
	require.NotNil(t, updated.Report)
	assert.Equal(t, "update_status", updated.Report.Operation)

	rec = doJSON(t, r, http.MethodPatch, path+"/status", fulfillmenthttpmapper.UpdateStatusRequest{Status: "teleported"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPatch, path+"/status", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodGet, path+"/reports", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reports := decode[[]fulfillmenthttpmapper.Report](t, rec)
	require.Len(t, reports, 2)
	assert.Equal(t, "place_order", reports[0].Operation)

	rec = doJSON(t, r, http.MethodGet, "/api/v1/integration/orders/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	rec := doJSON(t, r, http.MethodGet, "/api/v1/integration/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	health := decode[fulfillmenthttpmapper.Health](t, rec)
	assert.True(t, health.Healthy)
	assert.Len(t, health.Checks, 2)
}

type unhealthyService struct {
	fulfillmentports.Service
}

func (unhealthyService) Health(context.Context) (*fulfillmenttypes.HealthStatus, error) {
	return &fulfillmenttypes.HealthStatus{Checks: []fulfillmenttypes.HealthCheck{{Name: "routing", Detail: "down"}}}, nil
}

func TestHealthUnavailable(t *testing.T) {
	api := NewIntegrationAPI(unhealthyService{}, nil)
	r := NewRouterWithGinEngine(gin.New(), ApiHandleFunctions{IntegrationAPI: api})
	rec := doJSON(t, r, http.MethodGet, "/api/v1/integration/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDeliveryTracking(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/delivery-tracking/calculate-route",
		fulfillmenthttpmapper.CalculateRouteRequest{Destination: "Rogers Store"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	calc := decode[fulfillmenthttpmapper.RouteCalculation](t, rec)
	assert.Greater(t, calc.Leg.DistanceMeters, 0)

	rec = doJSON(t, r, http.MethodPost, "/api/v1/delivery-tracking/calculate-route", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/v1/delivery-tracking/optimize",
		fulfillmenthttpmapper.OptimizeRouteRequest{Destinations: []string{"Rogers Store", "Lowell Depot"}}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	route := decode[fulfillmenthttpmapper.OptimizedRoute](t, rec)
	assert.Len(t, route.Waypoints, 2)

	rec = doJSON(t, r, http.MethodGet, "/api/v1/delivery-tracking/geocode?address=Rogers%20Store", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Rogers Store", decode[fulfillmenthttpmapper.Geocode](t, rec).FormattedAddress)

	rec = doJSON(t, r, http.MethodGet, "/api/v1/delivery-tracking/geocode", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/v1/delivery-tracking/geocode?address=Atlantis", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
