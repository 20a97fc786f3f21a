package ports

import (
	"context"
	"errors"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/domain"
)

var (
	ErrNotFound      = errors.New("warehouse task not found")
	ErrAlreadyExists = errors.New("warehouse task already exists for order")
	ErrZoneNotFound  = errors.New("warehouse zone not found")
	// ErrZoneFull is returned when occupying a slot would push utilization past capacity.
	ErrZoneFull = errors.New("warehouse zone is at capacity")
)

// TaskMutation edits a task in place inside a repository update.
type TaskMutation func(task *domain.Task) error

// TaskRepository persists warehouse tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	FindByOrderID(ctx context.Context, orderID string) (*domain.Task, error)
	Update(ctx context.Context, id string, mutate TaskMutation) (*domain.Task, error)
}

// ZoneRepository owns zone bins and enforces utilization <= capacity.
type ZoneRepository interface {
	List(ctx context.Context) ([]domain.Zone, error)
	// Occupy claims the lowest free bin and returns it with the updated zone.
	Occupy(ctx context.Context, zoneID string) (domain.Zone, int, error)
	// Release frees bin; releasing a bin that is not held is a no-op.
	Release(ctx context.Context, zoneID string, bin int) error
	Save(ctx context.Context, zone domain.Zone) (domain.Zone, error)
}
