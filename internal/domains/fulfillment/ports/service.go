package ports

import (
	"context"

	fulfillmenttypes "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/application/types"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/domain"
	orderdomain "github.com/Apurer/warehouse-fulfillment/internal/domains/orders/domain"
	routingdomain "github.com/Apurer/warehouse-fulfillment/internal/domains/routing/domain"
)

// Service defines the fulfillment use cases exposed to adapters (inbound/driving port).
type Service interface {
	PlaceOrder(ctx context.Context, input fulfillmenttypes.PlaceOrderInput) (*fulfillmenttypes.FulfillmentResult, error)
	UpdateOrderStatus(ctx context.Context, input fulfillmenttypes.UpdateStatusInput) (*fulfillmenttypes.FulfillmentResult, error)
	PlanRoute(ctx context.Context, input fulfillmenttypes.PlanRouteInput) (*routingdomain.OptimizedRoute, error)
	CalculateRoute(ctx context.Context, input fulfillmenttypes.CalculateRouteInput) (*fulfillmenttypes.RouteCalculation, error)
	Geocode(ctx context.Context, address string) (*routingdomain.GeocodeResult, error)
	GetOrder(ctx context.Context, orderID string) (*orderdomain.Order, error)
	ListReports(ctx context.Context, orderID string) ([]*domain.Report, error)
	Health(ctx context.Context) (*fulfillmenttypes.HealthStatus, error)
}

// Steps are the individually retryable stages of PlaceOrder. Each one is idempotent per order,
// so a durable runner may repeat any of them without applying a change twice. A returned error
// means the stage could not run at all; business outcomes travel in the StepResult.
type Steps interface {
	CreateOrder(ctx context.Context, input fulfillmenttypes.PlaceOrderInput) (*orderdomain.Order, error)
	ReserveInventory(ctx context.Context, input fulfillmenttypes.StepInput) (domain.StepResult, error)
	ScheduleDelivery(ctx context.Context, input fulfillmenttypes.StepInput) (domain.StepResult, error)
	CreateWarehouseTask(ctx context.Context, input fulfillmenttypes.StepInput) (domain.StepResult, error)
	Complete(ctx context.Context, input fulfillmenttypes.CompleteInput) (*fulfillmenttypes.FulfillmentResult, error)
}
