package ports

import (
	"context"
	"errors"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/orders/domain"
)

var (
	ErrNotFound      = errors.New("order not found")
	ErrAlreadyExists = errors.New("order already exists")
)

// Mutation edits an order in place inside a repository update. Returning an error aborts the update.
type Mutation func(order *domain.Order) error

// Repository persists order aggregates.
type Repository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	Update(ctx context.Context, id string, mutate Mutation) (*domain.Order, error)
	List(ctx context.Context) ([]*domain.Order, error)
}
