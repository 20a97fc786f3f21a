package fulfillmentserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	fulfillmenthttpmapper "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/adapters/http/mapper"
	fulfillmenttypes "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/application/types"
	fulfillmentports "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/ports"
)

// IdempotencyKeyHeader lets clients retry place-order safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// IntegrationAPI wires HTTP transport with the fulfillment service and workflows.
type IntegrationAPI struct {
	service   fulfillmentports.Service
	workflows fulfillmentports.WorkflowOrchestrator
}

// NewIntegrationAPI creates an IntegrationAPI backed by the provided service. A nil
// workflows runs PlaceOrder on the service directly.
func NewIntegrationAPI(service fulfillmentports.Service, workflows fulfillmentports.WorkflowOrchestrator) IntegrationAPI {
	return IntegrationAPI{service: service, workflows: workflows}
}

// Post /api/v1/integration/orders
// Places an order and fulfills it across inventory, delivery and warehouse
func (api *IntegrationAPI) PlaceOrder(c *gin.Context) {
	var payload fulfillmenthttpmapper.PlaceOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	input, err := fulfillmenthttpmapper.ToPlaceOrderInput(payload, c.GetHeader(IdempotencyKeyHeader))
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	result, err := api.placeOrder(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, fulfillmenthttpmapper.FromFulfillmentResult(result))
}

func (api *IntegrationAPI) placeOrder(ctx context.Context, input fulfillmenttypes.PlaceOrderInput) (*fulfillmenttypes.FulfillmentResult, error) {
	if api.workflows != nil {
		return api.workflows.PlaceOrder(ctx, input)
	}
	return api.service.PlaceOrder(ctx, input)
}

// Get /api/v1/integration/orders/:orderId
// Loads an order
func (api *IntegrationAPI) GetOrder(c *gin.Context) {
	order, err := api.service.GetOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fulfillmenthttpmapper.FromOrder(order))
}

// Patch /api/v1/integration/orders/:orderId/status
// Moves an order and propagates the change
func (api *IntegrationAPI) UpdateOrderStatus(c *gin.Context) {
	var payload fulfillmenthttpmapper.UpdateStatusRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	result, err := api.service.UpdateOrderStatus(c.Request.Context(), fulfillmenttypes.UpdateStatusInput{
		OrderID: c.Param("orderId"),
		Status:  strings.TrimSpace(payload.Status),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fulfillmenthttpmapper.FromFulfillmentResult(result))
}

// Get /api/v1/integration/orders/:orderId/reports
// Lists the integration reports of an order
func (api *IntegrationAPI) ListOrderReports(c *gin.Context) {
	reports, err := api.service.ListReports(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fulfillmenthttpmapper.FromReports(reports))
}

// Get /api/v1/integration/health
// Checks the stores and the routing provider
func (api *IntegrationAPI) Health(c *gin.Context) {
	status, err := api.service.Health(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, fulfillmenthttpmapper.FromHealth(status))
}
