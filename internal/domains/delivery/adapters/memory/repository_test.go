package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/delivery/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/delivery/ports"
	"github.com/Apurer/warehouse-fulfillment/internal/shared/geo"
)

func TestRepository_CreateFindAndUpdate(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.Delivery{
		OrderID:        "ord-7",
		Carrier:        "Driver 3",
		DropoffAddress: "9 Elm St",
		Dropoff:        &geo.Coordinates{Lat: 36.1, Lng: -94.1},
		Status:         domain.StatusPending,
		Priority:       domain.PriorityNormal,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	found, err := repo.FindByOrderID(ctx, "ord-7")
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)

	_, err = repo.Create(ctx, &domain.Delivery{
		OrderID:        "ord-7",
		Carrier:        "Driver 4",
		DropoffAddress: "9 Elm St",
		Status:         domain.StatusPending,
		Priority:       domain.PriorityNormal,
	})
	require.ErrorIs(t, err, ports.ErrAlreadyExists)

	found.Dropoff.Lat = 0
	again, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.InDelta(t, 36.1, again.Dropoff.Lat, 1e-9)

	at := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	updated, err := repo.Update(ctx, created.ID, func(d *domain.Delivery) error {
		_, err := d.TransitionTo(domain.StatusInTransit, at)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusInTransit, updated.Status)
	require.Equal(t, at, *updated.PickedUpAt)

	_, err = repo.FindByOrderID(ctx, "ord-404")
	require.ErrorIs(t, err, ports.ErrNotFound)
}
