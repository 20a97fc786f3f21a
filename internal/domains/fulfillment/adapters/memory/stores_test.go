package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/ports"
)

func TestReportStore_AssignsIDsAndKeepsOrder(t *testing.T) {
	store := NewReportStore()
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	first := domain.NewReportBuilder("", "ord-1", domain.OperationPlaceOrder).
		Record(domain.Succeeded(domain.StepInventory, "")).
		Build(now)
	second := domain.NewReportBuilder("rep-2", "ord-1", domain.OperationUpdateStatus).Build(now.Add(time.Minute))

	saved, err := store.Save(ctx, first)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID())
	_, err = store.Save(ctx, second)
	require.NoError(t, err)

	reports, err := store.ListByOrder(ctx, "ord-1")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, domain.OperationPlaceOrder, reports[0].Operation())
	assert.Equal(t, "rep-2", reports[1].ID())

	empty, err := store.ListByOrder(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestIdempotencyStore_SaveDetectsConflicts(t *testing.T) {
	store := NewIdempotencyStore()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.WithClock(func() time.Time { return fixed })
	ctx := context.Background()

	missing, err := store.Get(ctx, "key-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	saved, err := store.Save(ctx, ports.IdempotencyRecord{Key: "key-1", RequestHash: "h1", OrderID: "ord-1"})
	require.NoError(t, err)
	assert.Equal(t, fixed, saved.CreatedAt)

	again, err := store.Save(ctx, ports.IdempotencyRecord{Key: "key-1", RequestHash: "h1", OrderID: "ord-1"})
	require.NoError(t, err)
	assert.Equal(t, "ord-1", again.OrderID)

	stored, err := store.Save(ctx, ports.IdempotencyRecord{Key: "key-1", RequestHash: "h2", OrderID: "ord-1"})
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
	assert.Equal(t, "h1", stored.RequestHash)
}
