package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/ports"
)

var _ ports.TaskRepository = (*TaskRepository)(nil)

// TaskRepository is an in-memory warehouse task adapter.
type TaskRepository struct {
	mu      sync.RWMutex
	tasks   map[string]*domain.Task
	byOrder map[string]string
	now     func() time.Time
}

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{
		tasks:   map[string]*domain.Task{},
		byOrder: map[string]string{},
		now:     time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (r *TaskRepository) WithClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

func (r *TaskRepository) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, errors.New("task is nil")
	}
	clone := task.Clone()
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byOrder[clone.OrderID]; exists {
		return nil, ports.ErrAlreadyExists
	}
	if clone.ID == "" {
		clone.ID = uuid.NewString()
	}
	now := r.now().UTC()
	clone.CreatedAt = now
	clone.UpdatedAt = now
	r.tasks[clone.ID] = clone
	r.byOrder[clone.OrderID] = clone.ID
	return clone.Clone(), nil
}

func (r *TaskRepository) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return task.Clone(), nil
}

func (r *TaskRepository) FindByOrderID(_ context.Context, orderID string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byOrder[orderID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return r.tasks[id].Clone(), nil
}

func (r *TaskRepository) Update(_ context.Context, id string, mutate ports.TaskMutation) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.tasks[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := current.Clone()
	if mutate != nil {
		if err := mutate(clone); err != nil {
			return nil, err
		}
	}
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	clone.ID = current.ID
	clone.OrderID = current.OrderID
	clone.CreatedAt = current.CreatedAt
	clone.UpdatedAt = r.now().UTC()
	r.tasks[id] = clone
	return clone.Clone(), nil
}
