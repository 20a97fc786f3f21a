package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/orders/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/orders/ports"
)

func newOrder(t *testing.T, id string) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(id,
		domain.Customer{Name: "Grace Hopper", Email: "grace@example.com"},
		domain.LineItem{ProductRef: "SKU-1", Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
		"42 Harbor Rd", "PayPal")
	require.NoError(t, err)
	return order
}

func TestRepository_CreateAssignsIDAndTimestamps(t *testing.T) {
	repo := NewRepository()
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	repo.WithClock(func() time.Time { return fixed })

	saved, err := repo.Create(context.Background(), newOrder(t, ""))
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)
	require.Equal(t, fixed, saved.CreatedAt)

	_, err = repo.Create(context.Background(), saved)
	require.ErrorIs(t, err, ports.ErrAlreadyExists)
}

func TestRepository_UpdateIsAtomicPerMutation(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	saved, err := repo.Create(ctx, newOrder(t, "ord-1"))
	require.NoError(t, err)

	_, err = repo.Update(ctx, saved.ID, func(o *domain.Order) error {
		o.InventoryReserved = true
		return errors.New("boom")
	})
	require.Error(t, err)

	fetched, err := repo.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	require.False(t, fetched.InventoryReserved)

	updated, err := repo.Update(ctx, saved.ID, func(o *domain.Order) error {
		o.InventoryReserved = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, updated.InventoryReserved)

	_, err = repo.Update(ctx, "missing", nil)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_GetReturnsCopies(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	saved, err := repo.Create(ctx, newOrder(t, "ord-2"))
	require.NoError(t, err)

	saved.Status = domain.StatusCancelled
	fetched, err := repo.GetByID(ctx, "ord-2")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, fetched.Status)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
