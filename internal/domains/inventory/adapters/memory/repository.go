package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/inventory/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/inventory/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository keeps inventory in memory. A single write lock serializes every stock change.
type Repository struct {
	mu    sync.RWMutex
	items map[string]*domain.Item
	skus  map[string]string
	now   func() time.Time
}

func NewRepository() *Repository {
	return &Repository{
		items: map[string]*domain.Item{},
		skus:  map[string]string{},
		now:   time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (r *Repository) WithClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

func (r *Repository) GetProduct(_ context.Context, ref string) (*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.lookup(ref)
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *item
	return &clone, nil
}

func (r *Repository) AdjustStock(_ context.Context, ref string, delta int) (domain.Adjustment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.lookup(ref)
	if !ok {
		return domain.Adjustment{}, ports.ErrNotFound
	}
	adj := item.Adjust(delta)
	item.Version++
	item.UpdatedAt = r.now().UTC()
	return adj, nil
}

func (r *Repository) Save(_ context.Context, item *domain.Item) (*domain.Item, error) {
	if item == nil {
		return nil, errors.New("inventory item is nil")
	}
	clone := *item
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if clone.ID == "" {
		clone.ID = uuid.NewString()
	}
	key := skuKey(clone.SKU)
	if owner, taken := r.skus[key]; taken && owner != clone.ID {
		return nil, errors.New("sku already assigned to another item")
	}
	if previous, ok := r.items[clone.ID]; ok {
		delete(r.skus, skuKey(previous.SKU))
		clone.Version = previous.Version + 1
	}
	clone.UpdatedAt = r.now().UTC()
	r.items[clone.ID] = &clone
	r.skus[key] = clone.ID
	result := clone
	return &result, nil
}

func (r *Repository) List(_ context.Context) ([]*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Item, 0, len(r.items))
	for _, item := range r.items {
		clone := *item
		list = append(list, &clone)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SKU < list[j].SKU })
	return list, nil
}

func (r *Repository) lookup(ref string) (*domain.Item, bool) {
	ref = strings.TrimSpace(ref)
	if item, ok := r.items[ref]; ok {
		return item, true
	}
	if id, ok := r.skus[skuKey(ref)]; ok {
		item, ok := r.items[id]
		return item, ok
	}
	return nil, false
}

func skuKey(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}
