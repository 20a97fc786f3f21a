package mapper

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	deliverydomain "github.com/Apurer/warehouse-fulfillment/internal/domains/delivery/domain"
	fulfillmenttypes "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/application/types"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/domain"
	orderdomain "github.com/Apurer/warehouse-fulfillment/internal/domains/orders/domain"
)

func TestToPlaceOrderInput(t *testing.T) {
	input, err := ToPlaceOrderInput(PlaceOrderRequest{
		CustomerName:    "Ada",
		CustomerEmail:   "ada@example.com",
		ProductRef:      "X",
		Quantity:        2,
		UnitPrice:       " 19.99 ",
		DeliveryAddress: "1 Main St",
		Priority:        "high",
	}, "  key-1 ")
	require.NoError(t, err)
	assert.Equal(t, "key-1", input.IdempotencyKey)
	assert.True(t, decimal.RequireFromString("19.99").Equal(input.UnitPrice))
	assert.Equal(t, "high", input.Priority)

	_, err = ToPlaceOrderInput(PlaceOrderRequest{UnitPrice: "cheap"}, "")
	assert.Error(t, err)
}

func TestFromFulfillmentResultRendersMoney(t *testing.T) {
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	order := &orderdomain.Order{
		ID:     "order-1",
		Item:   orderdomain.LineItem{ProductRef: "X", Quantity: 3, UnitPrice: decimal.RequireFromString("19.5")},
		Status: orderdomain.StatusPending,
	}
	step := domain.Succeeded(domain.StepDelivery, "scheduled")
	step.Delivery = &domain.DeliveryOutcome{DeliveryID: "d-1", Fee: decimal.RequireFromString("13.990000")}
	report := domain.NewReportBuilder("r-1", "order-1", domain.OperationPlaceOrder).Record(step).Build(now)

	resp := FromFulfillmentResult(&fulfillmenttypes.FulfillmentResult{
		Order:    order,
		Delivery: &deliverydomain.Delivery{ID: "d-1", Fee: decimal.RequireFromString("4.99")},
		Report:   report,
	})

	assert.Equal(t, "19.50", resp.Order.UnitPrice)
	assert.Equal(t, "58.50", resp.Order.Total)
	require.NotNil(t, resp.Delivery)
	assert.Equal(t, "4.99", resp.Delivery.Fee)
	assert.Nil(t, resp.WarehouseTask)
	require.NotNil(t, resp.Report)
	require.Len(t, resp.Report.Steps, 1)
	assert.Equal(t, "13.99", resp.Report.Steps[0].Delivery.Fee)
	assert.Equal(t, []string{"created", "completed"}, resp.Report.History)
}

func TestFromOptimizedRouteNil(t *testing.T) {
	route := FromOptimizedRoute(nil)
	assert.NotNil(t, route.Waypoints)
	assert.Empty(t, route.Waypoints)
}
