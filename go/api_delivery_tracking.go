package fulfillmentserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	fulfillmenthttpmapper "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/adapters/http/mapper"
	fulfillmentports "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/ports"
)

// DeliveryTrackingAPI exposes route planning and geocoding.
type DeliveryTrackingAPI struct {
	service fulfillmentports.Service
}

// NewDeliveryTrackingAPI creates a DeliveryTrackingAPI backed by the provided service.
func NewDeliveryTrackingAPI(service fulfillmentports.Service) DeliveryTrackingAPI {
	return DeliveryTrackingAPI{service: service}
}

// Post /api/v1/delivery-tracking/calculate-route
// Routes a single delivery leg
func (api *DeliveryTrackingAPI) CalculateRoute(c *gin.Context) {
	var payload fulfillmenthttpmapper.CalculateRouteRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	result, err := api.service.CalculateRoute(c.Request.Context(), fulfillmenthttpmapper.ToCalculateRouteInput(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fulfillmenthttpmapper.FromRouteCalculation(result))
}

// Post /api/v1/delivery-tracking/optimize
// Orders destinations into an optimized multi-stop route
func (api *DeliveryTrackingAPI) OptimizeRoute(c *gin.Context) {
	var payload fulfillmenthttpmapper.OptimizeRouteRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	route, err := api.service.PlanRoute(c.Request.Context(), fulfillmenthttpmapper.ToPlanRouteInput(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fulfillmenthttpmapper.FromOptimizedRoute(route))
}

// Get /api/v1/delivery-tracking/geocode
// Resolves an address to coordinates
func (api *DeliveryTrackingAPI) Geocode(c *gin.Context) {
	address := strings.TrimSpace(c.Query("address"))
	if address == "" {
		respondBadRequest(c, errors.New("address query parameter is required"))
		return
	}
	result, err := api.service.Geocode(c.Request.Context(), address)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fulfillmenthttpmapper.FromGeocode(result))
}
