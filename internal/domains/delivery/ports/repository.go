package ports

import (
	"context"
	"errors"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/delivery/domain"
)

var (
	ErrNotFound = errors.New("delivery not found")
	// ErrAlreadyExists is returned when the order already has a delivery.
	ErrAlreadyExists = errors.New("delivery already exists for order")
)

// Mutation edits a delivery in place inside a repository update.
type Mutation func(delivery *domain.Delivery) error

// Repository persists deliveries.
type Repository interface {
	Create(ctx context.Context, delivery *domain.Delivery) (*domain.Delivery, error)
	GetByID(ctx context.Context, id string) (*domain.Delivery, error)
	// FindByOrderID returns the delivery attached to an order or ErrNotFound.
	FindByOrderID(ctx context.Context, orderID string) (*domain.Delivery, error)
	Update(ctx context.Context, id string, mutate Mutation) (*domain.Delivery, error)
}
