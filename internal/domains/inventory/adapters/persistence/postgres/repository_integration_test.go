//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/inventory/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/inventory/ports"
	"github.com/Apurer/warehouse-fulfillment/internal/platform/postgres/pgtest"
)

func TestRepository_SaveAndAdjust(t *testing.T) {
	repo := NewRepository(pgtest.Start(t, Models()...))
	ctx := context.Background()

	item, err := domain.NewItem("", "SKU-X", "Shelf Bracket", 5, decimal.NewFromInt(2), decimal.RequireFromString("4.50"), "Section B3")
	require.NoError(t, err)
	saved, err := repo.Save(ctx, item)
	require.NoError(t, err)

	adj, err := repo.AdjustStock(ctx, "sku-x", -3)
	require.NoError(t, err)
	assert.Equal(t, 2, adj.New)
	assert.False(t, adj.Clamped)

	adj, err = repo.AdjustStock(ctx, saved.ID, -5)
	require.NoError(t, err)
	assert.Equal(t, 0, adj.New)
	assert.True(t, adj.Clamped)

	_, err = repo.AdjustStock(ctx, "SKU-404", -1)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_ConcurrentAdjustNeverNegative(t *testing.T) {
	repo := NewRepository(pgtest.Start(t, Models()...), WithMaxRetries(50))
	ctx := context.Background()

	item, err := domain.NewItem("", "SKU-HOT", "Hot Item", 6, decimal.Zero, decimal.Zero, "")
	require.NoError(t, err)
	_, err = repo.Save(ctx, item)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.AdjustStock(ctx, "SKU-HOT", -2)
		}()
	}
	wg.Wait()

	fetched, err := repo.GetProduct(ctx, "SKU-HOT")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, fetched.StockQuantity, 0)
}

func TestRepository_IDWinsOverMatchingSKU(t *testing.T) {
	repo := NewRepository(pgtest.Start(t, Models()...))
	ctx := context.Background()

	first, err := domain.NewItem("ITEM-1", "SKU-A", "Hinge", 4, decimal.Zero, decimal.Zero, "")
	require.NoError(t, err)
	_, err = repo.Save(ctx, first)
	require.NoError(t, err)
	// The second item's SKU spells the first item's ID.
	second, err := domain.NewItem("ITEM-2", "item-1", "Latch", 9, decimal.Zero, decimal.Zero, "")
	require.NoError(t, err)
	_, err = repo.Save(ctx, second)
	require.NoError(t, err)

	byID, err := repo.GetProduct(ctx, "ITEM-1")
	require.NoError(t, err)
	assert.Equal(t, "ITEM-1", byID.ID)

	adj, err := repo.AdjustStock(ctx, "ITEM-1", -1)
	require.NoError(t, err)
	assert.Equal(t, 3, adj.New)

	bySKU, err := repo.GetProduct(ctx, "Item-1")
	require.NoError(t, err)
	assert.Equal(t, "ITEM-2", bySKU.ID)
	assert.Equal(t, 9, bySKU.StockQuantity)
}
