//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	pacttest "github.com/Apurer/warehouse-fulfillment/test/pact"

	fulfillmentserver "github.com/Apurer/warehouse-fulfillment/go"
	deliverymemory "github.com/Apurer/warehouse-fulfillment/internal/domains/delivery/adapters/memory"
	fulfillmentmemory "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/adapters/memory"
	fulfillmentobs "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/adapters/observability"
	fulfillmentworkflows "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/adapters/workflows"
	fulfillmentapp "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/application"
	fulfillmentports "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/ports"
	inventorymemory "github.com/Apurer/warehouse-fulfillment/internal/domains/inventory/adapters/memory"
	ordermemory "github.com/Apurer/warehouse-fulfillment/internal/domains/orders/adapters/memory"
	orderdomain "github.com/Apurer/warehouse-fulfillment/internal/domains/orders/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/routing/adapters/external/estimator"
	routingapp "github.com/Apurer/warehouse-fulfillment/internal/domains/routing/application"
	warehousememory "github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/adapters/memory"
	"github.com/Apurer/warehouse-fulfillment/internal/shared/geo"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFulfillmentProviderPact(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateNoOrders: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset()
			return nil, nil
		},
		pacttest.StateOrderExists: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset()
			if setup {
				app.seedOrder(t, pacttest.ExistingOrderID)
			}
			return nil, nil
		},
		pacttest.StateRoutingBaseline: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset()
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
		BeforeEach: func() error {
			app.reset()
			return nil
		},
	})
	require.NoError(t, err)
}

// contractProviderApp rebuilds its in-memory stack on every reset behind a stable server URL.
type contractProviderApp struct {
	mu     sync.RWMutex
	engine *gin.Engine
	orders *ordermemory.Repository
	server *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()
	app := &contractProviderApp{}
	app.reset()
	app.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.mu.RLock()
		engine := app.engine
		app.mu.RUnlock()
		engine.ServeHTTP(w, r)
	}))
	t.Cleanup(app.server.Close)
	return app
}

func (a *contractProviderApp) reset() {
	orders := ordermemory.NewRepository()
	provider := estimator.NewProvider(map[string]geo.Coordinates{
		pacttest.KnownAddress: {Lat: 36.3320, Lng: -94.1185},
	})
	router := routingapp.NewGeoRouter(provider)
	stores := fulfillmentports.Stores{
		Orders:     orders,
		Inventory:  inventorymemory.NewRepository(),
		Deliveries: deliverymemory.NewRepository(),
		Tasks:      warehousememory.NewTaskRepository(),
		Zones:      warehousememory.NewZoneRepository(),
	}
	service := fulfillmentobs.New(fulfillmentapp.NewService(stores, routingapp.NewOptimizer(router), router,
		fulfillmentmemory.NewReportStore(),
		fulfillmentapp.WithIdempotencyStore(fulfillmentmemory.NewIdempotencyStore()),
	))

	handlers := fulfillmentserver.ApiHandleFunctions{
		IntegrationAPI:      fulfillmentserver.NewIntegrationAPI(service, fulfillmentworkflows.NewInlineFulfillmentWorkflows(service)),
		DeliveryTrackingAPI: fulfillmentserver.NewDeliveryTrackingAPI(service),
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine = fulfillmentserver.NewRouterWithGinEngine(engine, handlers)

	a.mu.Lock()
	a.engine = engine
	a.orders = orders
	a.mu.Unlock()
}

func (a *contractProviderApp) seedOrder(t testing.TB, id string) {
	t.Helper()
	order, err := orderdomain.NewOrder(id,
		orderdomain.Customer{Name: "Pact Customer", Email: "pact.customer@example.com"},
		orderdomain.LineItem{ProductRef: "SKU-PACT", Quantity: 2, UnitPrice: decimal.RequireFromString("19.99")},
		pacttest.KnownAddress, "")
	require.NoError(t, err)
	a.mu.RLock()
	orders := a.orders
	a.mu.RUnlock()
	_, err = orders.Create(context.Background(), order)
	require.NoError(t, err)
}
