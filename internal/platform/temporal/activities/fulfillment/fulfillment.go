package fulfillment

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/application"
	fulfillmenttypes "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/application/types"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/domain"
	fulfillmentports "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/ports"
	orderdomain "github.com/Apurer/warehouse-fulfillment/internal/domains/orders/domain"
)

const (
	// CreateOrderActivityName validates and stores the order.
	CreateOrderActivityName = "fulfillment.activities.CreateOrder"
	// ReserveInventoryActivityName takes the ordered quantity out of stock.
	ReserveInventoryActivityName = "fulfillment.activities.ReserveInventory"
	// ScheduleDeliveryActivityName routes and schedules the delivery.
	ScheduleDeliveryActivityName = "fulfillment.activities.ScheduleDelivery"
	// CreateWarehouseTaskActivityName assigns a zone, bin, and worker.
	CreateWarehouseTaskActivityName = "fulfillment.activities.CreateWarehouseTask"
	// CompleteActivityName stores and publishes the integration report.
	CompleteActivityName = "fulfillment.activities.Complete"
)

// Application error types that stop retries and surface to the caller.
const (
	ErrorTypeInvalidInput        = "InvalidInput"
	ErrorTypeIdempotencyConflict = "IdempotencyConflict"
)

// Activities exposes the fulfillment steps to Temporal workers.
type Activities struct {
	steps fulfillmentports.Steps
}

// NewActivities wires the fulfillment steps into the Temporal activities bundle.
func NewActivities(steps fulfillmentports.Steps) *Activities {
	return &Activities{steps: steps}
}

// CreateOrder stores the order. Validation failures are not retried.
func (a *Activities) CreateOrder(ctx context.Context, input fulfillmenttypes.PlaceOrderInput) (*orderdomain.Order, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.steps == nil {
		logger.Error("create order activity not initialized", "orderId", input.OrderID)
		return nil, errors.New("create order activity not initialized")
	}
	logger.Info("CreateOrder activity started", "orderId", input.OrderID, "productRef", input.ProductRef)
	order, err := a.steps.CreateOrder(ctx, input)
	if err != nil {
		logger.Error("CreateOrder activity failed", "orderId", input.OrderID, "error", err)
		return nil, nonRetryable(err)
	}
	logger.Info("CreateOrder activity completed", "orderId", order.ID)
	return order, nil
}

// ReserveInventory runs the inventory step.
func (a *Activities) ReserveInventory(ctx context.Context, input fulfillmenttypes.StepInput) (domain.StepResult, error) {
	return a.runStep(ctx, domain.StepInventory, input, func(s fulfillmentports.Steps) (domain.StepResult, error) {
		return s.ReserveInventory(ctx, input)
	})
}

// ScheduleDelivery runs the delivery step.
func (a *Activities) ScheduleDelivery(ctx context.Context, input fulfillmenttypes.StepInput) (domain.StepResult, error) {
	return a.runStep(ctx, domain.StepDelivery, input, func(s fulfillmentports.Steps) (domain.StepResult, error) {
		return s.ScheduleDelivery(ctx, input)
	})
}

// CreateWarehouseTask runs the warehouse step.
func (a *Activities) CreateWarehouseTask(ctx context.Context, input fulfillmenttypes.StepInput) (domain.StepResult, error) {
	return a.runStep(ctx, domain.StepWarehouse, input, func(s fulfillmentports.Steps) (domain.StepResult, error) {
		return s.CreateWarehouseTask(ctx, input)
	})
}

// Complete records the report and returns the fulfillment result.
func (a *Activities) Complete(ctx context.Context, input fulfillmenttypes.CompleteInput) (*fulfillmenttypes.FulfillmentResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.steps == nil {
		logger.Error("complete activity not initialized", "orderId", input.OrderID)
		return nil, errors.New("complete activity not initialized")
	}
	result, err := a.steps.Complete(ctx, input)
	if err != nil {
		logger.Error("Complete activity failed", "orderId", input.OrderID, "error", err)
		return nil, err
	}
	if result.Report != nil {
		logger.Info("Complete activity completed", "orderId", input.OrderID, "state", string(result.Report.State()))
	}
	return result, nil
}

func (a *Activities) runStep(ctx context.Context, step domain.StepName, input fulfillmenttypes.StepInput, run func(fulfillmentports.Steps) (domain.StepResult, error)) (domain.StepResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.steps == nil {
		logger.Error("fulfillment step activity not initialized", "step", string(step), "orderId", input.OrderID)
		return domain.StepResult{}, errors.New("fulfillment step activity not initialized")
	}
	logger.Info("fulfillment step started", "step", string(step), "orderId", input.OrderID, "attempt", activity.GetInfo(ctx).Attempt)
	result, err := run(a.steps)
	if err != nil {
		logger.Warn("fulfillment step could not run", "step", string(step), "orderId", input.OrderID, "error", err)
		return domain.StepResult{}, err
	}
	logger.Info("fulfillment step finished", "step", string(step), "orderId", input.OrderID, "outcome", string(result.Outcome))
	return result, nil
}

func nonRetryable(err error) error {
	switch {
	case errors.Is(err, fulfillmentports.ErrIdempotencyConflict):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrorTypeIdempotencyConflict, err)
	case errors.Is(err, application.ErrInvalidInput):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrorTypeInvalidInput, err)
	default:
		return err
	}
}
