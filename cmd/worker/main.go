package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/warehouse-fulfillment/internal/app/api"
	platformobservability "github.com/Apurer/warehouse-fulfillment/internal/platform/observability"
	fulfillmentactivities "github.com/Apurer/warehouse-fulfillment/internal/platform/temporal/activities/fulfillment"
	fulfillmentworkflows "github.com/Apurer/warehouse-fulfillment/internal/platform/temporal/workflows/fulfillment"
)

func main() {
	ctx := context.Background()
	const serviceName = "fulfillment-worker"
	cfg, err := api.LoadConfig(os.Getenv("ENV_FILE"))
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger
	if cfg.PostgresDSN == "" {
		logger.Warn("worker running on in-memory stores, orders will not be visible to the API process")
	}

	components, cleanup, err := api.BuildComponents(ctx, cfg, serviceName, instruments)
	defer cleanup()
	if err != nil {
		logger.Error("failed to build fulfillment components", slog.String("error", err.Error()))
		return
	}
	activities := fulfillmentactivities.NewActivities(components.Core)

	temporalClient, err := api.ConnectTemporal(cfg, instruments, "temporal-worker")
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		return
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, fulfillmentworkflows.OrderFulfillmentTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(fulfillmentworkflows.PlaceOrderWorkflow, workflow.RegisterOptions{Name: fulfillmentworkflows.PlaceOrderWorkflowName})
	w.RegisterActivityWithOptions(activities.CreateOrder, activity.RegisterOptions{Name: fulfillmentactivities.CreateOrderActivityName})
	w.RegisterActivityWithOptions(activities.ReserveInventory, activity.RegisterOptions{Name: fulfillmentactivities.ReserveInventoryActivityName})
	w.RegisterActivityWithOptions(activities.ScheduleDelivery, activity.RegisterOptions{Name: fulfillmentactivities.ScheduleDeliveryActivityName})
	w.RegisterActivityWithOptions(activities.CreateWarehouseTask, activity.RegisterOptions{Name: fulfillmentactivities.CreateWarehouseTaskActivityName})
	w.RegisterActivityWithOptions(activities.Complete, activity.RegisterOptions{Name: fulfillmentactivities.CompleteActivityName})

	logger.Info("worker listening", slog.String("taskQueue", fulfillmentworkflows.OrderFulfillmentTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
