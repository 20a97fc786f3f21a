package api

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	deliverymemory "github.com/Apurer/warehouse-fulfillment/internal/domains/delivery/adapters/memory"
	deliverypostgres "github.com/Apurer/warehouse-fulfillment/internal/domains/delivery/adapters/persistence/postgres"
	fulfillmentmemory "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/adapters/memory"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/adapters/messaging/natspub"
	fulfillmentobs "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/adapters/observability"
	fulfillmentpostgres "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/adapters/persistence/postgres"
	fulfillmentapp "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/application"
	fulfillmentdomain "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/domain"
	fulfillmentports "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/ports"
	inventorymemory "github.com/Apurer/warehouse-fulfillment/internal/domains/inventory/adapters/memory"
	inventorypostgres "github.com/Apurer/warehouse-fulfillment/internal/domains/inventory/adapters/persistence/postgres"
	ordermemory "github.com/Apurer/warehouse-fulfillment/internal/domains/orders/adapters/memory"
	orderpostgres "github.com/Apurer/warehouse-fulfillment/internal/domains/orders/adapters/persistence/postgres"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/routing/adapters/external/estimator"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/routing/adapters/external/googlemaps"
	routingapp "github.com/Apurer/warehouse-fulfillment/internal/domains/routing/application"
	routingports "github.com/Apurer/warehouse-fulfillment/internal/domains/routing/ports"
	warehousememory "github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/adapters/memory"
	warehousepostgres "github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/adapters/persistence/postgres"
	"github.com/Apurer/warehouse-fulfillment/internal/platform/migrations"
	platformobservability "github.com/Apurer/warehouse-fulfillment/internal/platform/observability"
	platformpostgres "github.com/Apurer/warehouse-fulfillment/internal/platform/postgres"
)

// Components is the fulfillment stack shared by the API and the worker.
type Components struct {
	// Core is the undecorated service; Temporal activities call it so spans are not doubled.
	Core        *fulfillmentapp.Service
	Service     fulfillmentports.Service
	Idempotency fulfillmentports.IdempotencyStore
}

// BuildComponents wires stores, routing, publishing and the fulfillment service. The returned
// cleanup releases connections and is safe to call when BuildComponents fails.
func BuildComponents(ctx context.Context, cfg Config, serviceName string, instruments *platformobservability.Instruments) (*Components, func(), error) {
	logger := instruments.Logger
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	db, closeDB := platformpostgres.ConnectWithFallback(ctx, cfg.PostgresDSN, logger)
	cleanups = append(cleanups, closeDB)
	stores, reports, idempotency, err := buildStores(ctx, db, logger)
	if err != nil {
		return nil, cleanup, err
	}

	provider, err := buildProvider(cfg, logger)
	if err != nil {
		return nil, cleanup, err
	}
	router := routingapp.NewGeoRouter(provider, routingapp.WithLogger(logger))
	planner := routingapp.NewOptimizer(router, routingapp.WithOptimizerLogger(logger))

	drivers, err := fulfillmentdomain.NewAssignmentPolicy(cfg.AssignmentPolicy, cfg.AssignmentSeed)
	if err != nil {
		return nil, cleanup, err
	}
	workers, err := fulfillmentdomain.NewAssignmentPolicy(cfg.AssignmentPolicy, cfg.AssignmentSeed+1)
	if err != nil {
		return nil, cleanup, err
	}

	opts := []fulfillmentapp.Option{
		fulfillmentapp.WithLogger(logger),
		fulfillmentapp.WithIdempotencyStore(idempotency),
		fulfillmentapp.WithAssignmentPolicies(drivers, workers),
		fulfillmentapp.WithConfig(fulfillmentapp.Config{WarehouseOrigin: cfg.WarehouseOrigin}),
	}
	if cfg.NATSURL != "" {
		conn, err := natspub.Connect(cfg.NATSURL, serviceName)
		if err != nil {
			logger.Warn("NATS unavailable, integration reports will not be published", slog.String("error", err.Error()))
		} else {
			cleanups = append(cleanups, conn.Close)
			opts = append(opts, fulfillmentapp.WithPublisher(natspub.NewPublisher(conn, natspub.WithSubjectPrefix(cfg.NATSSubjectPrefix))))
			logger.Info("publishing integration reports to NATS", slog.String("prefix", cfg.NATSSubjectPrefix))
		}
	}

	core := fulfillmentapp.NewService(stores, planner, router, reports, opts...)
	service := fulfillmentobs.New(
		core,
		fulfillmentobs.WithLogger(logger),
		fulfillmentobs.WithTracer(instruments.Tracer("internal.fulfillment.application")),
		fulfillmentobs.WithMeter(instruments.Meter("internal.fulfillment.application")),
	)
	return &Components{Core: core, Service: service, Idempotency: idempotency}, cleanup, nil
}

func buildStores(ctx context.Context, db *gorm.DB, logger *slog.Logger) (fulfillmentports.Stores, fulfillmentports.ReportStore, fulfillmentports.IdempotencyStore, error) {
	if db == nil {
		return fulfillmentports.Stores{
			Orders:     ordermemory.NewRepository(),
			Inventory:  inventorymemory.NewRepository(),
			Deliveries: deliverymemory.NewRepository(),
			Tasks:      warehousememory.NewTaskRepository(),
			Zones:      warehousememory.NewZoneRepository(),
		}, fulfillmentmemory.NewReportStore(), fulfillmentmemory.NewIdempotencyStore(), nil
	}
	if err := migrations.Run(db); err != nil {
		return fulfillmentports.Stores{}, nil, nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	zones := warehousepostgres.NewZoneRepository(db)
	if err := zones.EnsureDefaults(ctx); err != nil {
		return fulfillmentports.Stores{}, nil, nil, fmt.Errorf("failed to seed warehouse zones: %w", err)
	}
	logger.Info("fulfillment stores configured with postgres")
	return fulfillmentports.Stores{
		Orders:     orderpostgres.NewRepository(db),
		Inventory:  inventorypostgres.NewRepository(db),
		Deliveries: deliverypostgres.NewRepository(db),
		Tasks:      warehousepostgres.NewTaskRepository(db),
		Zones:      zones,
	}, fulfillmentpostgres.NewReportStore(db), fulfillmentpostgres.NewIdempotencyStore(db), nil
}

func buildProvider(cfg Config, logger *slog.Logger) (routingports.Provider, error) {
	if cfg.MapsAPIKey == "" {
		logger.Warn("MAPS_API_KEY not set, routing with straight-line estimates")
		return estimator.NewProvider(nil), nil
	}
	burst := int(cfg.MapsRatePerSec)
	client, err := googlemaps.NewClient(cfg.MapsBaseURL, cfg.MapsAPIKey, googlemaps.WithRateLimit(cfg.MapsRatePerSec, burst))
	if err != nil {
		return nil, fmt.Errorf("failed to configure maps client: %w", err)
	}
	logger.Info("routing with maps provider", slog.String("baseURL", cfg.MapsBaseURL))
	return client, nil
}
