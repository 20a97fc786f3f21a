package mapper

import (
	"time"

	deliverydomain "github.com/Apurer/warehouse-fulfillment/internal/domains/delivery/domain"
	fulfillmenttypes "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/application/types"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/domain"
	orderdomain "github.com/Apurer/warehouse-fulfillment/internal/domains/orders/domain"
	routingdomain "github.com/Apurer/warehouse-fulfillment/internal/domains/routing/domain"
	warehousedomain "github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/shared/geo"
)

// Order is the transport shape of an order. Money is rendered with two decimals.
type Order struct {
	ID                string    `json:"id"`
	CustomerName      string    `json:"customerName"`
	CustomerEmail     string    `json:"customerEmail"`
	ProductRef        string    `json:"productRef"`
	ProductName       string    `json:"productName,omitempty"`
	Quantity          int       `json:"quantity"`
	UnitPrice         string    `json:"unitPrice"`
	Total             string    `json:"total"`
	Status            string    `json:"status"`
	DeliveryAddress   string    `json:"deliveryAddress"`
	PaymentMethod     string    `json:"paymentMethod"`
	InventoryReserved bool      `json:"inventoryReserved"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Delivery is the transport shape of a scheduled delivery.
type Delivery struct {
	ID             string       `json:"id"`
	OrderID        string       `json:"orderId"`
	Carrier        string       `json:"carrier"`
	PickupAddress  string       `json:"pickupAddress"`
	DropoffAddress string       `json:"dropoffAddress"`
	Status         string       `json:"status"`
	Priority       string       `json:"priority"`
	ETA            time.Time    `json:"eta"`
	Fee            string       `json:"fee"`
	Route          RouteSummary `json:"route"`
	PickedUpAt     *time.Time   `json:"pickedUpAt,omitempty"`
	DeliveredAt    *time.Time   `json:"deliveredAt,omitempty"`
}

// RouteSummary describes the route attached to a delivery.
type RouteSummary struct {
	Available        bool   `json:"available"`
	Authoritative    bool   `json:"authoritative"`
	DistanceMeters   int    `json:"distanceMeters"`
	DistanceText     string `json:"distanceText,omitempty"`
	DurationSeconds  int    `json:"durationSeconds"`
	DurationText     string `json:"durationText,omitempty"`
	TrafficCondition string `json:"trafficCondition,omitempty"`
	MapsLink         string `json:"mapsLink,omitempty"`
	Source           string `json:"source,omitempty"`
}

// WarehouseTask is the transport shape of a picking task.
type WarehouseTask struct {
	ID             string     `json:"id"`
	OrderID        string     `json:"orderId"`
	ProductRef     string     `json:"productRef"`
	Quantity       int        `json:"quantity"`
	AssignedWorker string     `json:"assignedWorker"`
	ZoneID         string     `json:"zoneId"`
	BinLocation    string     `json:"binLocation"`
	Stage          string     `json:"stage"`
	Priority       string     `json:"priority"`
	DispatchedAt   *time.Time `json:"dispatchedAt,omitempty"`
}

// Step is one line of an integration report.
type Step struct {
	Step      string                   `json:"step"`
	Outcome   string                   `json:"outcome"`
	Detail    string                   `json:"detail,omitempty"`
	Error     string                   `json:"error,omitempty"`
	Inventory *domain.InventoryOutcome `json:"inventory,omitempty"`
	Delivery  *DeliveryOutcome         `json:"delivery,omitempty"`
	Warehouse *domain.WarehouseOutcome `json:"warehouse,omitempty"`
}

// DeliveryOutcome mirrors the delivery step figures with the fee rendered as money.
type DeliveryOutcome struct {
	DeliveryID     string    `json:"deliveryId"`
	Carrier        string    `json:"carrier"`
	Status         string    `json:"status"`
	ETA            time.Time `json:"eta"`
	Fee            string    `json:"fee"`
	RouteAvailable bool      `json:"routeAvailable"`
	Authoritative  bool      `json:"authoritative"`
	DistanceText   string    `json:"distanceText,omitempty"`
	DurationText   string    `json:"durationText,omitempty"`
	MapsLink       string    `json:"mapsLink,omitempty"`
}

// Report is the transport shape of an integration report.
type Report struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"orderId"`
	Operation string    `json:"operation"`
	State     string    `json:"state"`
	History   []string  `json:"history"`
	Steps     []Step    `json:"steps"`
	CreatedAt time.Time `json:"createdAt"`
}

// FulfillmentResponse is returned by place-order and status updates.
type FulfillmentResponse struct {
	Order         Order          `json:"order"`
	Delivery      *Delivery      `json:"delivery,omitempty"`
	WarehouseTask *WarehouseTask `json:"warehouseTask,omitempty"`
	Report        *Report        `json:"report,omitempty"`
	Replayed      bool           `json:"replayed"`
	Detail        string         `json:"detail,omitempty"`
}

// RouteLeg is one routed leg.
type RouteLeg struct {
	Origin           string    `json:"origin"`
	Destination      string    `json:"destination"`
	DistanceMeters   int       `json:"distanceMeters"`
	DistanceText     string    `json:"distanceText"`
	DurationSeconds  int       `json:"durationSeconds"`
	DurationText     string    `json:"durationText"`
	ETA              time.Time `json:"eta"`
	TrafficCondition string    `json:"trafficCondition"`
	Polyline         string    `json:"polyline,omitempty"`
	Source           string    `json:"source"`
}

// RouteCalculation is returned by the single-leg endpoint.
type RouteCalculation struct {
	Leg      RouteLeg `json:"leg"`
	MapsLink string   `json:"mapsLink,omitempty"`
}

// Waypoint is one ordered stop of an optimized route.
type Waypoint struct {
	Sequence                  int      `json:"sequence"`
	OriginalIndex             int      `json:"originalIndex"`
	Location                  string   `json:"location"`
	Leg                       RouteLeg `json:"leg"`
	CumulativeDistanceMeters  int      `json:"cumulativeDistanceMeters"`
	CumulativeDurationSeconds int      `json:"cumulativeDurationSeconds"`
}

// OptimizedRoute is returned by the optimize endpoint.
type OptimizedRoute struct {
	Origin               string     `json:"origin"`
	Strategy             string     `json:"strategy"`
	Waypoints            []Waypoint `json:"waypoints"`
	ReturnLeg            *RouteLeg  `json:"returnLeg,omitempty"`
	TotalDistanceMeters  int        `json:"totalDistanceMeters"`
	TotalDurationSeconds int        `json:"totalDurationSeconds"`
	TotalDistanceText    string     `json:"totalDistanceText"`
	TotalDurationText    string     `json:"totalDurationText"`
	MapsLink             string     `json:"mapsLink,omitempty"`
	ETA                  time.Time  `json:"eta"`
}

// Geocode is returned by the geocode endpoint.
type Geocode struct {
	FormattedAddress string          `json:"formattedAddress"`
	PlaceID          string          `json:"placeId,omitempty"`
	Coordinates      geo.Coordinates `json:"coordinates"`
}

// HealthCheck is one dependency check.
type HealthCheck struct {
	Name      string `json:"name"`
	Healthy   bool   `json:"healthy"`
	Detail    string `json:"detail,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

// Health is returned by the integration health endpoint.
type Health struct {
	Healthy   bool          `json:"healthy"`
	Checks    []HealthCheck `json:"checks"`
	CheckedAt time.Time     `json:"checkedAt"`
}

// FromOrder converts a domain order to the transport representation.
func FromOrder(order *orderdomain.Order) Order {
	if order == nil {
		return Order{}
	}
	return Order{
		ID:                order.ID,
		CustomerName:      order.Customer.Name,
		CustomerEmail:     order.Customer.Email,
		ProductRef:        order.Item.ProductRef,
		ProductName:       order.Item.ProductName,
		Quantity:          order.Item.Quantity,
		UnitPrice:         order.Item.UnitPrice.StringFixed(2),
		Total:             order.Total().StringFixed(2),
		Status:            string(order.Status),
		DeliveryAddress:   order.DeliveryAddress,
		PaymentMethod:     order.PaymentMethod,
		InventoryReserved: order.InventoryReserved,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}

// FromDelivery converts a domain delivery; nil stays nil.
func FromDelivery(d *deliverydomain.Delivery) *Delivery {
	if d == nil {
		return nil
	}
	return &Delivery{
		ID:             d.ID,
		OrderID:        d.OrderID,
		Carrier:        d.Carrier,
		PickupAddress:  d.PickupAddress,
		DropoffAddress: d.DropoffAddress,
		Status:         string(d.Status),
		Priority:       string(d.Priority),
		ETA:            d.ETA,
		Fee:            d.Fee.StringFixed(2),
		Route: RouteSummary{
			Available:        d.Route.Available,
			Authoritative:    d.Route.Authoritative,
			DistanceMeters:   d.Route.DistanceMeters,
			DistanceText:     d.Route.DistanceText,
			DurationSeconds:  d.Route.DurationSeconds,
			DurationText:     d.Route.DurationText,
			TrafficCondition: d.Route.TrafficCondition,
			MapsLink:         d.Route.MapsLink,
			Source:           d.Route.Source,
		},
		PickedUpAt:  d.PickedUpAt,
		DeliveredAt: d.DeliveredAt,
	}
}

// FromTask converts a domain warehouse task; nil stays nil.
func FromTask(t *warehousedomain.Task) *WarehouseTask {
	if t == nil {
		return nil
	}
	return &WarehouseTask{
		ID:             t.ID,
		OrderID:        t.OrderID,
		ProductRef:     t.ProductRef,
		Quantity:       t.Quantity,
		AssignedWorker: t.AssignedWorker,
		ZoneID:         t.ZoneID,
		BinLocation:    t.BinLocation,
		Stage:          string(t.Stage),
		Priority:       string(t.Priority),
		DispatchedAt:   t.DispatchedAt,
	}
}

// FromReport converts an integration report; nil stays nil.
func FromReport(r *domain.Report) *Report {
	if r == nil {
		return nil
	}
	history := make([]string, 0, len(r.History()))
	for _, state := range r.History() {
		history = append(history, string(state))
	}
	steps := make([]Step, 0, len(r.Steps()))
	for _, s := range r.Steps() {
		steps = append(steps, fromStep(s))
	}
	return &Report{
		ID:        r.ID(),
		OrderID:   r.OrderID(),
		Operation: string(r.Operation()),
		State:     string(r.State()),
		History:   history,
		Steps:     steps,
		CreatedAt: r.CreatedAt(),
	}
}

// FromReports converts a report list, keeping order.
func FromReports(reports []*domain.Report) []Report {
	out := make([]Report, 0, len(reports))
	for _, r := range reports {
		if converted := FromReport(r); converted != nil {
			out = append(out, *converted)
		}
	}
	return out
}

func fromStep(s domain.StepResult) Step {
	step := Step{
		Step:      string(s.Step),
		Outcome:   string(s.Outcome),
		Detail:    s.Detail,
		Error:     s.Error,
		Inventory: s.Inventory,
		Warehouse: s.Warehouse,
	}
	if d := s.Delivery; d != nil {
		step.Delivery = &DeliveryOutcome{
			DeliveryID:     d.DeliveryID,
			Carrier:        d.Carrier,
			Status:         d.Status,
			ETA:            d.ETA,
			Fee:            d.Fee.StringFixed(2),
			RouteAvailable: d.RouteAvailable,
			Authoritative:  d.Authoritative,
			DistanceText:   d.DistanceText,
			DurationText:   d.DurationText,
			MapsLink:       d.MapsLink,
		}
	}
	return step
}

// FromFulfillmentResult converts the result of place-order or a status update.
func FromFulfillmentResult(result *fulfillmenttypes.FulfillmentResult) FulfillmentResponse {
	if result == nil {
		return FulfillmentResponse{}
	}
	return FulfillmentResponse{
		Order:         FromOrder(result.Order),
		Delivery:      FromDelivery(result.Delivery),
		WarehouseTask: FromTask(result.Task),
		Report:        FromReport(result.Report),
		Replayed:      result.Replayed,
		Detail:        result.Detail,
	}
}

// FromRouteLeg converts a routed leg.
func FromRouteLeg(leg routingdomain.RouteLeg) RouteLeg {
	return RouteLeg{
		Origin:           leg.Origin.String(),
		Destination:      leg.Destination.String(),
		DistanceMeters:   leg.DistanceMeters,
		DistanceText:     leg.DistanceText,
		DurationSeconds:  leg.DurationSeconds,
		DurationText:     leg.DurationText,
		ETA:              leg.ETA,
		TrafficCondition: string(leg.TrafficCondition),
		Polyline:         leg.Polyline,
		Source:           string(leg.Source),
	}
}

// FromRouteCalculation converts a single-leg result.
func FromRouteCalculation(calc *fulfillmenttypes.RouteCalculation) RouteCalculation {
	if calc == nil {
		return RouteCalculation{}
	}
	return RouteCalculation{Leg: FromRouteLeg(calc.Leg), MapsLink: calc.MapsLink}
}

// FromOptimizedRoute converts a planned route.
func FromOptimizedRoute(route *routingdomain.OptimizedRoute) OptimizedRoute {
	if route == nil {
		return OptimizedRoute{Waypoints: []Waypoint{}}
	}
	out := OptimizedRoute{
		Origin:               route.Origin.String(),
		Strategy:             string(route.Strategy),
		Waypoints:            make([]Waypoint, 0, len(route.Waypoints)),
		TotalDistanceMeters:  route.TotalDistanceMeters,
		TotalDurationSeconds: route.TotalDurationSeconds,
		TotalDistanceText:    route.TotalDistanceText,
		TotalDurationText:    route.TotalDurationText,
		MapsLink:             route.MapsLink,
		ETA:                  route.ETA,
	}
	for _, wp := range route.Waypoints {
		out.Waypoints = append(out.Waypoints, Waypoint{
			Sequence:                  wp.Sequence,
			OriginalIndex:             wp.OriginalIndex,
			Location:                  wp.Location.String(),
			Leg:                       FromRouteLeg(wp.Leg),
			CumulativeDistanceMeters:  wp.CumulativeDistanceMeters,
			CumulativeDurationSeconds: wp.CumulativeDurationSeconds,
		})
	}
	if route.ReturnLeg != nil {
		leg := FromRouteLeg(*route.ReturnLeg)
		out.ReturnLeg = &leg
	}
	return out
}

// FromGeocode converts a geocoding result.
func FromGeocode(result *routingdomain.GeocodeResult) Geocode {
	if result == nil {
		return Geocode{}
	}
	return Geocode{
		FormattedAddress: result.FormattedAddress,
		PlaceID:          result.PlaceID,
		Coordinates:      result.Coordinates,
	}
}

// FromHealth converts the dependency check results.
func FromHealth(status *fulfillmenttypes.HealthStatus) Health {
	if status == nil {
		return Health{Checks: []HealthCheck{}}
	}
	out := Health{Healthy: status.Healthy, CheckedAt: status.CheckedAt, Checks: make([]HealthCheck, 0, len(status.Checks))}
	for _, check := range status.Checks {
		out.Checks = append(out.Checks, HealthCheck{
			Name:      check.Name,
			Healthy:   check.Healthy,
			Detail:    check.Detail,
			LatencyMs: check.Latency.Milliseconds(),
		})
	}
	return out
}
