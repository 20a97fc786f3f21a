//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/ports"
	"github.com/Apurer/warehouse-fulfillment/internal/platform/postgres/pgtest"
)

func TestTaskRepository_CreateAndAdvance(t *testing.T) {
	repo := NewTaskRepository(pgtest.Start(t, Models()...))
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.Task{
		OrderID:        "ord-wh",
		ProductRef:     "SKU-1",
		Quantity:       12,
		AssignedWorker: "Worker 5",
		ZoneID:         "C",
		Bin:            1,
		BinLocation:    "Section C1",
		Stage:          domain.StagePicking,
		Priority:       domain.PriorityHigh,
	})
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Microsecond)
	updated, err := repo.Update(ctx, created.ID, func(task *domain.Task) error {
		_, err := task.Advance(domain.StageDispatched, now)
		task.ReleaseBin(now)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StageDispatched, updated.Stage)
	require.NotNil(t, updated.DispatchedAt)
	require.NotNil(t, updated.BinReleasedAt)
	assert.Equal(t, 1, updated.Bin)

	found, err := repo.FindByOrderID(ctx, "ord-wh")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestZoneRepository_OccupyIsBounded(t *testing.T) {
	db := pgtest.Start(t, Models()...)
	zones := NewZoneRepository(db)
	ctx := context.Background()

	_, err := zones.Save(ctx, domain.Zone{ID: "A", Name: "Section A", Capacity: 4})
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		bins []int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, bin, err := zones.Occupy(ctx, "A"); err == nil {
				mu.Lock()
				bins = append(bins, bin)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, bins)

	list, err := zones.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 4, list[0].Utilization)

	_, _, err = zones.Occupy(ctx, "A")
	assert.ErrorIs(t, err, ports.ErrZoneFull)

	require.NoError(t, zones.Release(ctx, "A", 3))
	require.NoError(t, zones.Release(ctx, "A", 3))
	zone, bin, err := zones.Occupy(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 3, bin)
	assert.Equal(t, []int{1, 2, 3, 4}, zone.OccupiedBins)

	require.NoError(t, zones.EnsureDefaults(ctx))
	list, err = zones.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, 4, list[0].Capacity)
}
