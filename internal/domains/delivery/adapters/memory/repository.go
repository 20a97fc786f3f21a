package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/delivery/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/delivery/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory delivery persistence adapter.
type Repository struct {
	mu         sync.RWMutex
	deliveries map[string]*domain.Delivery
	byOrder    map[string]string
	now        func() time.Time
}

func NewRepository() *Repository {
	return &Repository{
		deliveries: map[string]*domain.Delivery{},
		byOrder:    map[string]string{},
		now:        time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (r *Repository) WithClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

func (r *Repository) Create(_ context.Context, delivery *domain.Delivery) (*domain.Delivery, error) {
	if delivery == nil {
		return nil, errors.New("delivery is nil")
	}
	clone := delivery.Clone()
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
	r.deliveries[clone.ID] = clone
	r.byOrder[clone.OrderID] = clone.ID
	return clone.Clone(), nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	delivery, ok := r.deliveries[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return delivery.Clone(), nil
}

func (r *Repository) FindByOrderID(_ context.Context, orderID string) (*domain.Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byOrder[orderID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return r.deliveries[id].Clone(), nil
}

func (r *Repository) Update(_ context.Context, id string, mutate ports.Mutation) (*domain.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.deliveries[id]
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
	r.deliveries[id] = clone
	return clone.Clone(), nil
}
