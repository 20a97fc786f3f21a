package mapper

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	fulfillmenttypes "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/application/types"
)

// PlaceOrderRequest is the transport payload for placing an order.
type PlaceOrderRequest struct {
	CustomerName    string `json:"customerName"`
	CustomerEmail   string `json:"customerEmail"`
	ProductRef      string `json:"productRef"`
	ProductName     string `json:"productName,omitempty"`
	Quantity        int    `json:"quantity"`
	UnitPrice       string `json:"unitPrice"`
	DeliveryAddress string `json:"deliveryAddress"`
	PaymentMethod   string `json:"paymentMethod,omitempty"`
	Priority        string `json:"priority,omitempty"`
}

// UpdateStatusRequest moves an order to a new status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CalculateRouteRequest asks for a single delivery leg.
type CalculateRouteRequest struct {
	Origin             string `json:"origin,omitempty"`
	Destination        string `json:"destination" binding:"required"`
	OptimizeForTraffic bool   `json:"optimizeForTraffic"`
}

// OptimizeRouteRequest asks for a multi-stop route from the warehouse.
type OptimizeRouteRequest struct {
	WarehouseLocation  string   `json:"warehouseLocation,omitempty"`
	Destinations       []string `json:"destinations"`
	ReturnToOrigin     bool     `json:"returnToOrigin"`
	OptimizeForTraffic bool     `json:"optimizeForTraffic"`
}

// ToPlaceOrderInput converts the payload and Idempotency-Key header into the application command.
func ToPlaceOrderInput(req PlaceOrderRequest, idempotencyKey string) (fulfillmenttypes.PlaceOrderInput, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(req.UnitPrice))
	if err != nil {
		return fulfillmenttypes.PlaceOrderInput{}, fmt.Errorf("unitPrice %q is not a decimal amount", req.UnitPrice)
	}
	return fulfillmenttypes.PlaceOrderInput{
		IdempotencyKey:  strings.TrimSpace(idempotencyKey),
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		ProductRef:      req.ProductRef,
		ProductName:     req.ProductName,
		Quantity:        req.Quantity,
		UnitPrice:       price,
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
		Priority:        req.Priority,
	}, nil
}

// ToCalculateRouteInput converts a single-leg request.
func ToCalculateRouteInput(req CalculateRouteRequest) fulfillmenttypes.CalculateRouteInput {
	return fulfillmenttypes.CalculateRouteInput{
		Origin:       req.Origin,
		Destination:  req.Destination,
		TrafficAware: req.OptimizeForTraffic,
	}
}

// ToPlanRouteInput converts a multi-stop request.
func ToPlanRouteInput(req OptimizeRouteRequest) fulfillmenttypes.PlanRouteInput {
	return fulfillmenttypes.PlanRouteInput{
		Origin:         req.WarehouseLocation,
		Destinations:   req.Destinations,
		ReturnToOrigin: req.ReturnToOrigin,
		TrafficAware:   req.OptimizeForTraffic,
	}
}
