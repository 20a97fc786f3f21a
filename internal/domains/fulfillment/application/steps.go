package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	deliverydomain "github.com/Apurer/warehouse-fulfillment/internal/domains/delivery/domain"
	deliveryports "github.com/Apurer/warehouse-fulfillment/internal/domains/delivery/ports"
	fulfillmenttypes "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/application/types"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/ports"
	inventorydomain "github.com/Apurer/warehouse-fulfillment/internal/domains/inventory/domain"
	inventoryports "github.com/Apurer/warehouse-fulfillment/internal/domains/inventory/ports"
	orderdomain "github.com/Apurer/warehouse-fulfillment/internal/domains/orders/domain"
	orderports "github.com/Apurer/warehouse-fulfillment/internal/domains/orders/ports"
	routingdomain "github.com/Apurer/warehouse-fulfillment/internal/domains/routing/domain"
	warehousedomain "github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/domain"
	warehouseports "github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/ports"
)

var (
	errAlreadyReserved = errors.New("inventory already reserved")
	errNotReserved     = errors.New("inventory not reserved")
)

// CreateOrder validates the command and stores a pending order. Any failure here is fatal
// to PlaceOrder. With an idempotency key or a pre-assigned ID, a repeated call returns the
// order stored by the first one.
func (s *Service) CreateOrder(ctx context.Context, input fulfillmenttypes.PlaceOrderInput) (*orderdomain.Order, error) {
	order, err := buildOrder(input)
	if err != nil {
		return nil, mapError(err)
	}
	order.ID = strings.TrimSpace(input.OrderID)
	if key := strings.TrimSpace(input.IdempotencyKey); key != "" {
		order.ID = orderIDForKey(key)
		if s.idempotency != nil {
			hash, err := FingerprintPlaceOrder(input)
			if err != nil {
				return nil, err
			}
			record := ports.IdempotencyRecord{Key: key, RequestHash: hash, OrderID: order.ID}
			if _, err := s.idempotency.Save(ctx, record); err != nil {
				return nil, mapError(err)
			}
		}
	}
	created, err := s.stores.Orders.Create(ctx, order)
	if err != nil {
		if order.ID != "" && errors.Is(err, orderports.ErrAlreadyExists) {
			existing, getErr := s.stores.Orders.GetByID(ctx, order.ID)
			if getErr == nil {
				return existing, nil
			}
			err = getErr
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return created, nil
}

func buildOrder(input fulfillmenttypes.PlaceOrderInput) (*orderdomain.Order, error) {
	order, err := orderdomain.NewOrder("",
		orderdomain.Customer{Name: input.CustomerName, Email: input.CustomerEmail},
		orderdomain.LineItem{
			ProductRef:  input.ProductRef,
			ProductName: input.ProductName,
			Quantity:    input.Quantity,
			UnitPrice:   input.UnitPrice,
		},
		input.DeliveryAddress, input.PaymentMethod)
	if err != nil {
		return nil, err
	}
	if !input.UnitPrice.IsPositive() {
		return nil, ErrInvalidUnitPrice
	}
	if _, err := parsePriority(input.Priority); err != nil {
		return nil, err
	}
	return order, nil
}

// ReserveInventory takes the ordered quantity out of stock once per order. The reservation
// flag is set on the order before stock moves, so a repeated call never decrements twice.
func (s *Service) ReserveInventory(ctx context.Context, input fulfillmenttypes.StepInput) (domain.StepResult, error) {
	order, err := s.stores.Orders.GetByID(ctx, input.OrderID)
	if err != nil {
		return domain.StepResult{}, err
	}
	quantity := order.Item.Quantity
	outcome := &domain.InventoryOutcome{
		ProductRef:  order.Item.ProductRef,
		ProductName: order.Item.ProductName,
		Requested:   quantity,
	}

	item, err := s.stores.Inventory.GetProduct(ctx, order.Item.ProductRef)
	if errors.Is(err, inventoryports.ErrNotFound) {
		baseline := s.cfg.BaselineStock
		outcome.Baseline = true
		outcome.Previous = baseline
		outcome.New = max(0, baseline-quantity)
		outcome.Clamped = quantity > baseline
		outcome.LowStock = outcome.New <= inventorydomain.DefaultReorderThreshold
		result := domain.Degraded(domain.StepInventory,
			fmt.Sprintf("product %s is not stocked; assumed baseline of %d units", order.Item.ProductRef, baseline))
		result.Inventory = outcome
		return result, nil
	}
	if err != nil {
		return domain.StepResult{}, err
	}
	outcome.ItemID = item.ID
	if outcome.ProductName == "" {
		outcome.ProductName = item.Name
	}

	if order.InventoryReserved {
		return alreadyReserved(outcome, item.StockQuantity, item.LowStock()), nil
	}
	_, err = s.stores.Orders.Update(ctx, order.ID, func(o *orderdomain.Order) error {
		if o.InventoryReserved {
			return errAlreadyReserved
		}
		o.InventoryReserved = true
		return nil
	})
	if errors.Is(err, errAlreadyReserved) {
		return alreadyReserved(outcome, item.StockQuantity, item.LowStock()), nil
	}
	if err != nil {
		return domain.StepResult{}, err
	}

	adjustment, err := s.stores.Inventory.AdjustStock(ctx, item.ID, -quantity)
	if err != nil {
		s.setReservation(ctx, order.ID, false)
		if errors.Is(err, inventoryports.ErrConcurrencyConflict) {
			result := domain.Failed(domain.StepInventory, "stock adjustment kept conflicting with concurrent orders", err)
			result.Inventory = outcome
			return result, nil
		}
		return domain.StepResult{}, err
	}
	outcome.Previous = adjustment.Previous
	outcome.New = adjustment.New
	outcome.Clamped = adjustment.Clamped
	outcome.LowStock = adjustment.BelowReorder

	detail := fmt.Sprintf("stock reduced from %d to %d", adjustment.Previous, adjustment.New)
	if adjustment.Clamped {
		detail = fmt.Sprintf("requested %d but only %d in stock; stock clamped to 0", quantity, adjustment.Previous)
	}
	if adjustment.BelowReorder {
		detail += "; low stock alert"
	}
	result := domain.Succeeded(domain.StepInventory, detail)
	result.Inventory = outcome
	return result, nil
}

func alreadyReserved(outcome *domain.InventoryOutcome, stock int, low bool) domain.StepResult {
	outcome.Previous = stock
	outcome.New = stock
	outcome.LowStock = low
	result := domain.Succeeded(domain.StepInventory, "inventory already reserved for order")
	result.Inventory = outcome
	return result
}

func (s *Service) setReservation(ctx context.Context, orderID string, reserved bool) {
	_, err := s.stores.Orders.Update(ctx, orderID, func(o *orderdomain.Order) error {
		o.InventoryReserved = reserved
		return nil
	})
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "reservation flag not reverted",
			slog.String("order_id", orderID),
			slog.Bool("reserved", reserved),
			slog.String("error", err.Error()),
		)
	}
}

// ScheduleDelivery creates the order's delivery. A routing failure still schedules it, with an
// estimated ETA and the route marked unavailable.
func (s *Service) ScheduleDelivery(ctx context.Context, input fulfillmenttypes.StepInput) (domain.StepResult, error) {
	order, err := s.stores.Orders.GetByID(ctx, input.OrderID)
	if err != nil {
		return domain.StepResult{}, err
	}
	existing, err := s.stores.Deliveries.FindByOrderID(ctx, order.ID)
	if err == nil {
		return deliveryResult(existing, "delivery already scheduled", nil), nil
	}
	if !errors.Is(err, deliveryports.ErrNotFound) {
		return domain.StepResult{}, err
	}

	priority, err := parsePriority(input.Priority)
	if err != nil {
		priority = deliverydomain.PriorityNormal
	}
	assignment := domain.AssignmentContext{OrderID: order.ID, Quantity: order.Item.Quantity}
	carrier, err := s.drivers.Select(domain.DriverPool(), assignment)
	if err != nil {
		return domain.Failed(domain.StepDelivery, "no driver could be assigned", err), nil
	}

	now := s.now()
	delivery := &deliverydomain.Delivery{
		OrderID:        order.ID,
		Carrier:        carrier,
		PickupAddress:  s.cfg.WarehouseOrigin,
		DropoffAddress: order.DeliveryAddress,
		Status:         deliverydomain.StatusPending,
		Priority:       priority,
	}
	route, planErr := s.planner.Plan(ctx,
		routingdomain.AddressLocation(s.cfg.WarehouseOrigin),
		[]routingdomain.Location{routingdomain.AddressLocation(order.DeliveryAddress)},
		false,
		routingdomain.RouteOptions{TrafficAware: true},
	)
	if planErr == nil && route != nil && len(route.Waypoints) > 0 {
		leg := route.Waypoints[0].Leg
		delivery.Route = deliverydomain.RouteSummary{
			Available:        true,
			Authoritative:    authoritative(leg.Source),
			DistanceMeters:   leg.DistanceMeters,
			DistanceText:     leg.DistanceText,
			DurationSeconds:  leg.DurationSeconds,
			DurationText:     leg.DurationText,
			TrafficCondition: string(leg.TrafficCondition),
			Polyline:         leg.Polyline,
			MapsLink:         route.MapsLink,
			Source:           string(leg.Source),
		}
		delivery.Pickup = leg.Origin.Coordinates
		delivery.Dropoff = leg.Destination.Coordinates
		delivery.ETA = leg.ETA
		if delivery.ETA.IsZero() {
			delivery.ETA = now.Add(time.Duration(leg.DurationSeconds) * time.Second)
		}
		delivery.Fee = s.cfg.Fees.Quote(leg.DistanceMeters, true)
	} else {
		if planErr == nil {
			planErr = routingdomain.ErrRouteUnavailable
		}
		delivery.ETA = s.fallbackETA(now)
		delivery.Fee = s.cfg.Fees.Quote(0, false)
	}

	created, err := s.stores.Deliveries.Create(ctx, delivery)
	if errors.Is(err, deliveryports.ErrAlreadyExists) {
		if existing, findErr := s.stores.Deliveries.FindByOrderID(ctx, order.ID); findErr == nil {
			return deliveryResult(existing, "delivery already scheduled", nil), nil
		}
	}
	if err != nil {
		return domain.StepResult{}, err
	}
	if !created.Route.Available {
		return deliveryResult(created, "route unavailable; delivery scheduled with an estimated ETA", planErr), nil
	}
	return deliveryResult(created, fmt.Sprintf("%s assigned, %s away", created.Carrier, created.Route.DistanceText), nil), nil
}

func deliveryResult(d *deliverydomain.Delivery, detail string, routeErr error) domain.StepResult {
	result := domain.Succeeded(domain.StepDelivery, detail)
	if !d.Route.Available {
		result = domain.Degraded(domain.StepDelivery, detail)
		if routeErr != nil {
			result.Error = routeErr.Error()
		}
	}
	result.Delivery = deliveryOutcome(d)
	return result
}

func deliveryOutcome(d *deliverydomain.Delivery) *domain.DeliveryOutcome {
	return &domain.DeliveryOutcome{
		DeliveryID:     d.ID,
		Carrier:        d.Carrier,
		Status:         string(d.Status),
		ETA:            d.ETA,
		Fee:            d.Fee,
		RouteAvailable: d.Route.Available,
		Authoritative:  d.Route.Authoritative,
		DistanceText:   d.Route.DistanceText,
		DurationText:   d.Route.DurationText,
		MapsLink:       d.Route.MapsLink,
	}
}

func authoritative(source routingdomain.LegSource) bool {
	return source == routingdomain.SourceDirections || source == routingdomain.SourceMultiStop
}

// CreateWarehouseTask assigns a picking task in the next zone with free capacity.
func (s *Service) CreateWarehouseTask(ctx context.Context, input fulfillmenttypes.StepInput) (domain.StepResult, error) {
	order, err := s.stores.Orders.GetByID(ctx, input.OrderID)
	if err != nil {
		return domain.StepResult{}, err
	}
	existing, err := s.stores.Tasks.FindByOrderID(ctx, order.ID)
	if err == nil {
		return taskResult(existing, "warehouse task already created"), nil
	}
	if !errors.Is(err, warehouseports.ErrNotFound) {
		return domain.StepResult{}, err
	}

	zones, err := s.stores.Zones.List(ctx)
	if err != nil {
		return domain.StepResult{}, err
	}
	zone, bin, ok, err := s.occupyZone(ctx, zones)
	if err != nil {
		return domain.StepResult{}, err
	}
	if !ok {
		return domain.Failed(domain.StepWarehouse, "all warehouse zones are at capacity", warehouseports.ErrZoneFull), nil
	}

	assignment := domain.AssignmentContext{OrderID: order.ID, Quantity: order.Item.Quantity, ZoneID: zone.ID}
	worker, err := s.workers.Select(domain.WorkerPool(), assignment)
	if err != nil {
		s.releaseZone(ctx, zone.ID, bin)
		return domain.Failed(domain.StepWarehouse, "no worker could be assigned", err), nil
	}
	task := &warehousedomain.Task{
		OrderID:        order.ID,
		ProductRef:     order.Item.ProductRef,
		Quantity:       order.Item.Quantity,
		AssignedWorker: worker,
		ZoneID:         zone.ID,
		Bin:            bin,
		BinLocation:    zone.BinFor(bin),
		Stage:          warehousedomain.StagePicking,
		Priority:       warehousedomain.PriorityForQuantity(order.Item.Quantity, s.cfg.HighPriorityQuantity),
	}
	created, err := s.stores.Tasks.Create(ctx, task)
	if err != nil {
		s.releaseZone(ctx, zone.ID, bin)
		if errors.Is(err, warehouseports.ErrAlreadyExists) {
			if existing, findErr := s.stores.Tasks.FindByOrderID(ctx, order.ID); findErr == nil {
				return taskResult(existing, "warehouse task already created"), nil
			}
		}
		return domain.StepResult{}, err
	}
	return taskResult(created, fmt.Sprintf("%s picking at %s", created.AssignedWorker, created.BinLocation)), nil
}

// occupyZone claims a bin in the first zone with capacity, starting from a rotating offset.
func (s *Service) occupyZone(ctx context.Context, zones []warehousedomain.Zone) (warehousedomain.Zone, int, bool, error) {
	if len(zones) == 0 {
		return warehousedomain.Zone{}, 0, false, nil
	}
	start := int((s.zoneCursor.Add(1) - 1) % uint64(len(zones)))
	for i := range zones {
		candidate := zones[(start+i)%len(zones)]
		if !candidate.HasCapacity() {
			continue
		}
		zone, bin, err := s.stores.Zones.Occupy(ctx, candidate.ID)
		if errors.Is(err, warehouseports.ErrZoneFull) {
			continue
		}
		if err != nil {
			return warehousedomain.Zone{}, 0, false, err
		}
		return zone, bin, true, nil
	}
	return warehousedomain.Zone{}, 0, false, nil
}

func (s *Service) releaseZone(ctx context.Context, zoneID string, bin int) {
	if err := s.stores.Zones.Release(ctx, zoneID, bin); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "zone bin not released",
			slog.String("zone_id", zoneID),
			slog.Int("bin", bin),
			slog.String("error", err.Error()),
		)
	}
}

func taskResult(task *warehousedomain.Task, detail string) domain.StepResult {
	result := domain.Succeeded(domain.StepWarehouse, detail)
	result.Warehouse = &domain.WarehouseOutcome{
		TaskID:      task.ID,
		Worker:      task.AssignedWorker,
		ZoneID:      task.ZoneID,
		BinLocation: task.BinLocation,
		Stage:       string(task.Stage),
		Priority:    string(task.Priority),
	}
	return result
}

// Complete builds the report for the recorded steps, stores and publishes it on a best-effort
// basis and returns the order with its current resources. The order already exists at this
// point, so a failed reload is reported in Detail rather than as an error.
func (s *Service) Complete(ctx context.Context, input fulfillmenttypes.CompleteInput) (*fulfillmenttypes.FulfillmentResult, error) {
	operation := input.Operation
	if operation == "" {
		operation = domain.OperationPlaceOrder
	}
	builder := domain.NewReportBuilder(uuid.NewString(), input.OrderID, operation)
	for _, step := range input.Steps {
		builder.Record(step)
	}
	report := builder.Build(s.now())

	if s.reports != nil {
		saved, err := s.reports.Save(ctx, report)
		if err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "integration report not stored",
				slog.String("order_id", input.OrderID),
				slog.String("error", err.Error()),
			)
		} else {
			report = saved
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, report); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "integration report not published",
				slog.String("order_id", input.OrderID),
				slog.String("error", err.Error()),
			)
		}
	}

	result, err := s.loadResult(ctx, input.OrderID, report)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "order resources not reloaded",
			slog.String("order_id", input.OrderID),
			slog.String("error", err.Error()),
		)
		order := input.Order
		if order == nil {
			order = &orderdomain.Order{ID: input.OrderID}
		}
		return &fulfillmenttypes.FulfillmentResult{
			Order:  order,
			Report: report,
			Detail: fmt.Sprintf("order %s recorded; current resources could not be loaded: %v", input.OrderID, err),
		}, nil
	}
	return result, nil
}
