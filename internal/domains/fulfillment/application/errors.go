package application

import (
	"errors"
	"fmt"

	deliveryports "github.com/Apurer/warehouse-fulfillment/internal/domains/delivery/ports"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/ports"
	orderdomain "github.com/Apurer/warehouse-fulfillment/internal/domains/orders/domain"
	orderports "github.com/Apurer/warehouse-fulfillment/internal/domains/orders/ports"
	routingdomain "github.com/Apurer/warehouse-fulfillment/internal/domains/routing/domain"
	warehouseports "github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/ports"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid fulfillment input")
	ErrNotFound     = errors.New("resource not found")
	// ErrPersistence is returned when the order itself could not be stored.
	ErrPersistence         = errors.New("persistence failure")
	ErrProviderUnavailable = errors.New("routing provider unavailable")

	ErrInvalidStatus     = fmt.Errorf("%w: unknown order status", ErrInvalidInput)
	ErrInvalidTransition = fmt.Errorf("%w: order status transition not allowed", ErrInvalidInput)
	ErrInvalidUnitPrice  = errors.New("unit price must be greater than zero")
	ErrInvalidPriority   = errors.New("delivery priority is invalid")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrPersistence),
		errors.Is(err, ErrProviderUnavailable),
		errors.Is(err, ports.ErrIdempotencyConflict):
		return err
	case errors.Is(err, orderdomain.ErrInvalidStatus):
		return fmt.Errorf("%w: %w", ErrInvalidStatus, err)
	case errors.Is(err, orderdomain.ErrInvalidTransition):
		return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
	case errors.Is(err, orderports.ErrNotFound),
		errors.Is(err, deliveryports.ErrNotFound),
		errors.Is(err, warehouseports.ErrNotFound),
		errors.Is(err, ports.ErrReportNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, routingdomain.ErrInvalidInput):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, routingdomain.ErrRouteUnavailable),
		errors.Is(err, routingdomain.ErrOptimizationFailed),
		errors.Is(err, routingdomain.ErrProviderUnavailable):
		return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	case errors.Is(err, routingdomain.ErrAddressNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case isOrderValidation(err):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}

func isOrderValidation(err error) bool {
	return errors.Is(err, orderdomain.ErrInvalidCustomerName) ||
		errors.Is(err, orderdomain.ErrInvalidEmail) ||
		errors.Is(err, orderdomain.ErrInvalidProductRef) ||
		errors.Is(err, orderdomain.ErrInvalidQuantity) ||
		errors.Is(err, orderdomain.ErrInvalidUnitPrice) ||
		errors.Is(err, orderdomain.ErrInvalidAddress) ||
		errors.Is(err, ErrInvalidUnitPrice) ||
		errors.Is(err, ErrInvalidPriority)
}
