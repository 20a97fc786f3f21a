package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/ports"
)

var _ ports.ZoneRepository = (*ZoneRepository)(nil)

// ZoneRepository keeps zone utilization in memory.
type ZoneRepository struct {
	mu    sync.Mutex
	zones map[string]domain.Zone
}

// NewZoneRepository seeds the given zones, or the default sections when none are provided.
func NewZoneRepository(zones ...domain.Zone) *ZoneRepository {
	if len(zones) == 0 {
		zones = domain.DefaultZones()
	}
	r := &ZoneRepository{zones: make(map[string]domain.Zone, len(zones))}
	for _, zone := range zones {
		r.zones[zone.ID] = zone.Clone()
	}
	return r
}

func (r *ZoneRepository) List(_ context.Context) ([]domain.Zone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]domain.Zone, 0, len(r.zones))
	for _, zone := range r.zones {
		list = append(list, zone.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *ZoneRepository) Occupy(_ context.Context, zoneID string) (domain.Zone, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	zone, ok := r.zones[zoneID]
	if !ok {
		return domain.Zone{}, 0, ports.ErrZoneNotFound
	}
	zone = zone.Clone()
	bin, err := zone.Claim()
	if err != nil {
		return zone, 0, ports.ErrZoneFull
	}
	r.zones[zoneID] = zone
	return zone.Clone(), bin, nil
}

func (r *ZoneRepository) Release(_ context.Context, zoneID string, bin int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	zone, ok := r.zones[zoneID]
	if !ok {
		return ports.ErrZoneNotFound
	}
	zone = zone.Clone()
	if zone.Free(bin) {
		r.zones[zoneID] = zone
	}
	return nil
}

func (r *ZoneRepository) Save(_ context.Context, zone domain.Zone) (domain.Zone, error) {
	if err := zone.Validate(); err != nil {
		return domain.Zone{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.zones[zone.ID] = zone.Clone()
	return zone.Clone(), nil
}
