package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	deliverydomain "github.com/Apurer/warehouse-fulfillment/internal/domains/delivery/domain"
	deliveryports "github.com/Apurer/warehouse-fulfillment/internal/domains/delivery/ports"
	fulfillmenttypes "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/application/types"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/domain"
	orderdomain "github.com/Apurer/warehouse-fulfillment/internal/domains/orders/domain"
	warehousedomain "github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/domain"
	warehouseports "github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/ports"
)

// UpdateOrderStatus moves the order and propagates the change to its delivery, warehouse
// task and inventory. Each propagation is attempted independently and recorded in the report.
// Shipping, delivering and cancelling each give the task's zone bin back at most once.
func (s *Service) UpdateOrderStatus(ctx context.Context, input fulfillmenttypes.UpdateStatusInput) (*fulfillmenttypes.FulfillmentResult, error) {
	status, err := orderdomain.ParseStatus(input.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, input.Status)
	}
	orderID := strings.TrimSpace(input.OrderID)
	changed := false
	order, err := s.stores.Orders.Update(ctx, orderID, func(o *orderdomain.Order) error {
		moved, err := o.TransitionTo(status, s.now())
		changed = moved
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}

	var steps []domain.StepResult
	if !changed {
		detail := fmt.Sprintf("order already %s", status)
		for _, step := range domain.StepSequence {
			steps = append(steps, domain.Skipped(step, detail))
		}
	} else {
		steps = s.propagate(ctx, order, status)
	}
	return s.Complete(ctx, fulfillmenttypes.CompleteInput{
		OrderID:   order.ID,
		Operation: domain.OperationUpdateStatus,
		Steps:     steps,
		Order:     order,
	})
}

func (s *Service) propagate(ctx context.Context, order *orderdomain.Order, status orderdomain.Status) []domain.StepResult {
	switch status {
	case orderdomain.StatusShipped:
		return []domain.StepResult{
			domain.Skipped(domain.StepInventory, "shipping does not change stock"),
			s.moveDelivery(ctx, order.ID, deliverydomain.StatusInTransit),
			s.settleTask(ctx, order.ID, true),
		}
	case orderdomain.StatusDelivered:
		return []domain.StepResult{
			domain.Skipped(domain.StepInventory, "delivery does not change stock"),
			s.moveDelivery(ctx, order.ID, deliverydomain.StatusDelivered),
			s.settleTask(ctx, order.ID, true),
		}
	case orderdomain.StatusCancelled:
		return []domain.StepResult{
			s.restoreInventory(ctx, order),
			s.moveDelivery(ctx, order.ID, deliverydomain.StatusCancelled),
			s.settleTask(ctx, order.ID, false),
		}
	default:
		steps := make([]domain.StepResult, 0, len(domain.StepSequence))
		for _, step := range domain.StepSequence {
			steps = append(steps, domain.Skipped(step, fmt.Sprintf("nothing to propagate for %s", status)))
		}
		return steps
	}
}

func (s *Service) moveDelivery(ctx context.Context, orderID string, target deliverydomain.Status) domain.StepResult {
	existing, err := s.stores.Deliveries.FindByOrderID(ctx, orderID)
	if errors.Is(err, deliveryports.ErrNotFound) {
		return domain.Skipped(domain.StepDelivery, "no delivery scheduled for order")
	}
	if err != nil {
		return domain.Failed(domain.StepDelivery, "delivery lookup failed", err)
	}
	updated, err := s.stores.Deliveries.Update(ctx, existing.ID, func(d *deliverydomain.Delivery) error {
		_, err := d.TransitionTo(target, s.now())
		return err
	})
	if err != nil {
		result := domain.Failed(domain.StepDelivery, fmt.Sprintf("delivery could not move to %s", target), err)
		result.Delivery = deliveryOutcome(existing)
		return result
	}
	result := domain.Succeeded(domain.StepDelivery, fmt.Sprintf("delivery %s", target))
	result.Delivery = deliveryOutcome(updated)
	return result
}

// settleTask hands the task's zone bin back once. With dispatch set the task is first moved
// to dispatched; otherwise its stage is kept as the historical record.
func (s *Service) settleTask(ctx context.Context, orderID string, dispatch bool) domain.StepResult {
	existing, err := s.stores.Tasks.FindByOrderID(ctx, orderID)
	if errors.Is(err, warehouseports.ErrNotFound) {
		return domain.Skipped(domain.StepWarehouse, "no warehouse task for order")
	}
	if err != nil {
		return domain.Failed(domain.StepWarehouse, "warehouse task lookup failed", err)
	}
	var dispatched, released bool
	updated, err := s.stores.Tasks.Update(ctx, existing.ID, func(t *warehousedomain.Task) error {
		now := s.now()
		if dispatch {
			moved, err := t.Advance(warehousedomain.StageDispatched, now)
			if err != nil {
				return err
			}
			dispatched = moved
		}
		released = t.ReleaseBin(now)
		return nil
	})
	if err != nil {
		return domain.Failed(domain.StepWarehouse, "warehouse task could not be settled", err)
	}

	detail := "warehouse task kept as historical record; bin released"
	if dispatched {
		detail = "warehouse task dispatched"
	}
	if !dispatched && !released {
		result := taskResult(updated, fmt.Sprintf("warehouse task already %s", updated.Stage))
		result.Outcome = domain.OutcomeSkipped
		return result
	}
	result := taskResult(updated, detail)
	if !released {
		return result
	}
	if err := s.stores.Zones.Release(ctx, updated.ZoneID, updated.Bin); err != nil {
		s.keepBin(ctx, updated.ID)
		result = taskResult(updated, detail+"; zone bin still held")
		result.Outcome = domain.OutcomeDegraded
		result.Error = err.Error()
	}
	return result
}

// keepBin clears the release marker so a later transition can hand the bin back.
func (s *Service) keepBin(ctx context.Context, taskID string) {
	_, err := s.stores.Tasks.Update(ctx, taskID, func(t *warehousedomain.Task) error {
		t.BinReleasedAt = nil
		return nil
	})
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "bin release marker not reverted",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()),
		)
	}
}

// restoreInventory returns the ordered quantity to stock once per reservation. The flag is
// cleared before stock moves so a repeated cancellation never restores twice.
func (s *Service) restoreInventory(ctx context.Context, order *orderdomain.Order) domain.StepResult {
	if !order.InventoryReserved {
		return domain.Skipped(domain.StepInventory, "order holds no inventory reservation")
	}
	_, err := s.stores.Orders.Update(ctx, order.ID, func(o *orderdomain.Order) error {
		if !o.InventoryReserved {
			return errNotReserved
		}
		o.InventoryReserved = false
		return nil
	})
	if errors.Is(err, errNotReserved) {
		return domain.Skipped(domain.StepInventory, "order holds no inventory reservation")
	}
	if err != nil {
		return domain.Failed(domain.StepInventory, "reservation could not be released", err)
	}

	quantity := order.Item.Quantity
	outcome := &domain.InventoryOutcome{
		ProductRef:  order.Item.ProductRef,
		ProductName: order.Item.ProductName,
		Requested:   quantity,
	}
	adjustment, err := s.stores.Inventory.AdjustStock(ctx, order.Item.ProductRef, quantity)
	if err != nil {
		s.setReservation(ctx, order.ID, true)
		s.logger.LogAttrs(ctx, slog.LevelWarn, "inventory not restored",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		result := domain.Failed(domain.StepInventory, "stock could not be restored", err)
		result.Inventory = outcome
		return result
	}
	outcome.ItemID = adjustment.ItemID
	outcome.Previous = adjustment.Previous
	outcome.New = adjustment.New
	outcome.LowStock = adjustment.BelowReorder
	outcome.Restored = adjustment.Applied
	result := domain.Succeeded(domain.StepInventory,
		fmt.Sprintf("restored %d units; stock now %d", adjustment.Applied, adjustment.New))
	result.Inventory = outcome
	return result
}
