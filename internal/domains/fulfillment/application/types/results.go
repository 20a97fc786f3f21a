package types

import (
	"time"

	deliverydomain "github.com/Apurer/warehouse-fulfillment/internal/domains/delivery/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/domain"
	orderdomain "github.com/Apurer/warehouse-fulfillment/internal/domains/orders/domain"
	routingdomain "github.com/Apurer/warehouse-fulfillment/internal/domains/routing/domain"
	warehousedomain "github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/domain"
)

// FulfillmentResult is what PlaceOrder and UpdateOrderStatus hand back. Delivery and Task are
// nil when the corresponding step did not produce one.
type FulfillmentResult struct {
	Order    *orderdomain.Order
	Delivery *deliverydomain.Delivery
	Task     *warehousedomain.Task
	Report   *domain.Report
	// Replayed is set when the result was served from an earlier request with the same key.
	Replayed bool
	// Detail explains missing resources when the order was recorded but could not be reloaded.
	Detail string
}

// RouteCalculation is a single leg plus a shareable map link.
type RouteCalculation struct {
	Leg      routingdomain.RouteLeg
	MapsLink string
}

// HealthCheck is the outcome of one dependency check.
type HealthCheck struct {
	Name    string
	Healthy bool
	Detail  string
	Latency time.Duration
}

// HealthStatus aggregates dependency checks.
type HealthStatus struct {
	Healthy   bool
	Checks    []HealthCheck
	CheckedAt time.Time
}
