package types

import (
	"github.com/shopspring/decimal"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/domain"
	orderdomain "github.com/Apurer/warehouse-fulfillment/internal/domains/orders/domain"
)

// PlaceOrderInput is the command accepted by PlaceOrder. IdempotencyKey is optional; when set,
// a repeated request with the same payload replays the first result.
type PlaceOrderInput struct {
	IdempotencyKey  string
	CustomerName    string
	CustomerEmail   string
	ProductRef      string
	ProductName     string
	Quantity        int
	UnitPrice       decimal.Decimal
	DeliveryAddress string
	PaymentMethod   string
	// Priority is the delivery priority; empty means normal.
	Priority string
	// OrderID pre-assigns the order identifier. Durable runners set it so a retried
	// CreateOrder finds the order it already stored.
	OrderID string
}

// UpdateStatusInput moves an order to a new status.
type UpdateStatusInput struct {
	OrderID string
	Status  string
}

// StepInput addresses one fulfillment step at an existing order.
type StepInput struct {
	OrderID  string
	Priority string
}

// CompleteInput carries the recorded step results of one operation.
type CompleteInput struct {
	OrderID   string
	Operation domain.Operation
	Steps     []domain.StepResult
	// Order is the last known snapshot, returned when the stored order cannot be reloaded.
	Order *orderdomain.Order
}

// PlanRouteInput asks for an optimized route. An empty Origin means the warehouse.
type PlanRouteInput struct {
	Origin         string
	Destinations   []string
	ReturnToOrigin bool
	TrafficAware   bool
}

// CalculateRouteInput asks for a single leg. An empty Origin means the warehouse.
type CalculateRouteInput struct {
	Origin       string
	Destination  string
	TrafficAware bool
}
