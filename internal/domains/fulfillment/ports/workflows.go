package ports

import (
	"context"

	fulfillmenttypes "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/application/types"
)

// WorkflowOrchestrator exposes durable workflow operations required by the fulfillment bounded context.
type WorkflowOrchestrator interface {
	PlaceOrder(ctx context.Context, input fulfillmenttypes.PlaceOrderInput) (*fulfillmenttypes.FulfillmentResult, error)
}
