package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/application"
	fulfillmenttypes "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/application/types"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/domain"
	orderdomain "github.com/Apurer/warehouse-fulfillment/internal/domains/orders/domain"
	fulfillmentactivities "github.com/Apurer/warehouse-fulfillment/internal/platform/temporal/activities/fulfillment"
)

type stepActivity struct {
	step domain.StepName
	name string
}

var stepActivities = []stepActivity{
	{step: domain.StepInventory, name: fulfillmentactivities.ReserveInventoryActivityName},
	{step: domain.StepDelivery, name: fulfillmentactivities.ScheduleDeliveryActivityName},
	{step: domain.StepWarehouse, name: fulfillmentactivities.CreateWarehouseTaskActivityName},
}

// RunOrderFulfillmentSequence creates the order, runs each fulfillment step, and records the report.
// A step that still errors after its retries is recorded as failed and the sequence moves on.
func RunOrderFulfillmentSequence(ctx workflow.Context, input fulfillmenttypes.PlaceOrderInput) (*fulfillmenttypes.FulfillmentResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("order fulfillment sequence started", "orderId", input.OrderID)
	createOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}
	stepOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    5 * time.Second,
			MaximumAttempts:    3,
		},
	}

	var order orderdomain.Order
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, createOptions), fulfillmentactivities.CreateOrderActivityName, input).Get(ctx, &order)
	if err != nil {
		logger.Error("order fulfillment sequence could not create order", "orderId", input.OrderID, "error", err)
		return nil, err
	}
	logger.Info("order fulfillment sequence created order", "orderId", order.ID)

	stepCtx := workflow.WithActivityOptions(ctx, stepOptions)
	stepInput := fulfillmenttypes.StepInput{OrderID: order.ID, Priority: input.Priority}
	results := make([]domain.StepResult, 0, len(stepActivities))
	for _, sa := range stepActivities {
		var result domain.StepResult
		err := workflow.ExecuteActivity(stepCtx, sa.name, stepInput).Get(ctx, &result)
		if err != nil {
			logger.Warn("order fulfillment step exhausted retries", "orderId", order.ID, "step", string(sa.step), "error", err)
		}
		results = append(results, application.StepOrFailure(sa.step, result, err))
	}

	completeInput := fulfillmenttypes.CompleteInput{
		OrderID:   order.ID,
		Operation: domain.OperationPlaceOrder,
		Steps:     results,
		Order:     &order,
	}
	var result fulfillmenttypes.FulfillmentResult
	if err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, createOptions), fulfillmentactivities.CompleteActivityName, completeInput).Get(ctx, &result); err != nil {
		// The order exists, so the caller still gets it back.
		logger.Error("order fulfillment sequence could not record report", "orderId", order.ID, "error", err)
		return &fulfillmenttypes.FulfillmentResult{
			Order:  &order,
			Detail: "order recorded; integration report could not be completed",
		}, nil
	}
	logger.Info("order fulfillment sequence completed", "orderId", order.ID)
	return &result, nil
}
