package fulfillmentserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions groups the handlers exposed by the API.
type ApiHandleFunctions struct {
	// Routes for the integration (order fulfillment) part of the API.
	IntegrationAPI IntegrationAPI
	// Routes for the delivery tracking (routing) part of the API.
	DeliveryTrackingAPI DeliveryTrackingAPI
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the API routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPut:
			router.PUT(route.Pattern, route.HandlerFunc)
		case http.MethodPatch:
			router.PATCH(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

// DefaultHandleFunc answers routes without a handler.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{
			"PlaceOrder",
			http.MethodPost,
			"/api/v1/integration/orders",
			handleFunctions.IntegrationAPI.PlaceOrder,
		},
		{
			"GetOrder",
			http.MethodGet,
			"/api/v1/integration/orders/:orderId",
			handleFunctions.IntegrationAPI.GetOrder,
		},
		{
			"UpdateOrderStatus",
			http.MethodPatch,
			"/api/v1/integration/orders/:orderId/status",
			handleFunctions.IntegrationAPI.UpdateOrderStatus,
		},
		{
			"ListOrderReports",
			http.MethodGet,
			"/api/v1/integration/orders/:orderId/reports",
			handleFunctions.IntegrationAPI.ListOrderReports,
		},
		{
			"IntegrationHealth",
			http.MethodGet,
			"/api/v1/integration/health",
			handleFunctions.IntegrationAPI.Health,
		},
		{
			"CalculateRoute",
			http.MethodPost,
			"/api/v1/delivery-tracking/calculate-route",
			handleFunctions.DeliveryTrackingAPI.CalculateRoute,
		},
		{
			"OptimizeRoute",
			http.MethodPost,
			"/api/v1/delivery-tracking/optimize",
			handleFunctions.DeliveryTrackingAPI.OptimizeRoute,
		},
		{
			"Geocode",
			http.MethodGet,
			"/api/v1/delivery-tracking/geocode",
			handleFunctions.DeliveryTrackingAPI.Geocode,
		},
	}
}
