package fulfillment

import (
	"strings"

	"github.com/google/uuid"
	"go.temporal.io/sdk/workflow"

	fulfillmenttypes "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/application/types"
	"github.com/Apurer/warehouse-fulfillment/internal/platform/temporal/sequences"
)

const (
	// PlaceOrderWorkflowName is the public identifier for registering the workflow.
	PlaceOrderWorkflowName = "fulfillment.workflows.PlaceOrder"
	// OrderFulfillmentTaskQueue is the queue consumed by the worker processing fulfillment workflows.
	OrderFulfillmentTaskQueue = "ORDER_FULFILLMENT"
)

// PlaceOrderWorkflowInput captures the payload required to fulfill a new order.
type PlaceOrderWorkflowInput struct {
	Command fulfillmenttypes.PlaceOrderInput
	TraceID string
}

// PlaceOrderWorkflow orchestrates the activities that create an order and fulfill it.
func PlaceOrderWorkflow(ctx workflow.Context, input PlaceOrderWorkflowInput) (*fulfillmenttypes.FulfillmentResult, error) {
	logger := workflow.GetLogger(ctx)
	command := input.Command
	if strings.TrimSpace(command.OrderID) == "" && strings.TrimSpace(command.IdempotencyKey) == "" {
		// Activity retries must find the order stored by the first attempt.
		encoded := workflow.SideEffect(ctx, func(workflow.Context) interface{} {
			return uuid.NewString()
		})
		if err := encoded.Get(&command.OrderID); err != nil {
			return nil, err
		}
	}
	logger.Info("PlaceOrderWorkflow started", withTraceID(input.TraceID, "orderId", command.OrderID)...)
	result, err := sequences.RunOrderFulfillmentSequence(ctx, command)
	if err != nil {
		logger.Error("PlaceOrderWorkflow failed", withTraceID(input.TraceID, "orderId", command.OrderID, "error", err)...)
		return nil, err
	}
	if result != nil && result.Report != nil {
		logger.Info("PlaceOrderWorkflow completed", withTraceID(input.TraceID, "orderId", result.Report.OrderID(), "state", string(result.Report.State()))...)
	} else {
		logger.Info("PlaceOrderWorkflow completed", withTraceID(input.TraceID)...)
	}
	return result, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
