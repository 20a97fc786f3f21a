package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	fulfillmentserver "github.com/Apurer/warehouse-fulfillment/go"
	fulfillmentworkflows "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/adapters/workflows"
	fulfillmentports "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/ports"
	platformobservability "github.com/Apurer/warehouse-fulfillment/internal/platform/observability"
)

// Run boots the fulfillment HTTP API with observability, stores, routing, and workflows wired.
func Run(ctx context.Context) error {
	const serviceName = "fulfillment-api"
	cfg, err := LoadConfig(os.Getenv("ENV_FILE"))
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	components, cleanup, err := BuildComponents(ctx, cfg, serviceName, instruments)
	defer cleanup()
	if err != nil {
		return err
	}

	var workflows fulfillmentports.WorkflowOrchestrator = fulfillmentworkflows.NewInlineFulfillmentWorkflows(components.Service)
	if temporalClient, err := ConnectTemporal(cfg, instruments, "temporal-client"); err != nil {
		logger.Warn("Temporal workflows unavailable, running inline PlaceOrder", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		workflows = fulfillmentworkflows.NewTemporalFulfillmentWorkflows(temporalClient,
			fulfillmentworkflows.WithIdempotencyStore(components.Idempotency))
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	handlers := fulfillmentserver.ApiHandleFunctions{
		IntegrationAPI:      fulfillmentserver.NewIntegrationAPI(components.Service, workflows),
		DeliveryTrackingAPI: fulfillmentserver.NewDeliveryTrackingAPI(components.Service),
	}

	router := NewEngine(serviceName, handlers)
	addr := ":" + cfg.Port
	logger.Info("fulfillment API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("fulfillment API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

// NewEngine builds the gin engine with tracing installed ahead of the API routes.
func NewEngine(serviceName string, handlers fulfillmentserver.ApiHandleFunctions, opts ...otelgin.Option) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), otelgin.Middleware(serviceName, opts...))
	return fulfillmentserver.NewRouterWithGinEngine(engine, handlers)
}

// ConnectTemporal dials Temporal with tracing and structured logging, unless disabled.
func ConnectTemporal(cfg Config, instruments *platformobservability.Instruments, tracerName string) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer(tracerName)
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
