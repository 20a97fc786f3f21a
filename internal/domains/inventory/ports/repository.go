package ports

import (
	"context"
	"errors"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/inventory/domain"
)

var (
	ErrNotFound = errors.New("inventory item not found")
	// ErrConcurrencyConflict is returned when a stock change kept losing races after retries.
	ErrConcurrencyConflict = errors.New("inventory concurrency conflict")
)

// Repository owns inventory items and serializes stock changes per item.
type Repository interface {
	// GetProduct resolves ref as an item ID or SKU.
	GetProduct(ctx context.Context, ref string) (*domain.Item, error)
	// AdjustStock applies delta atomically, never leaving stock negative.
	AdjustStock(ctx context.Context, ref string, delta int) (domain.Adjustment, error)
	Save(ctx context.Context, item *domain.Item) (*domain.Item, error)
	List(ctx context.Context) ([]*domain.Item, error)
}
