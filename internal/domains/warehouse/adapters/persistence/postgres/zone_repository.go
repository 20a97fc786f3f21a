package postgres

import (
	"context"
	"errors"
	"slices"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/ports"
)

var _ ports.ZoneRepository = (*ZoneRepository)(nil)

// ZoneRepository persists zones. Occupy and Release lock the zone row so concurrent callers
// never hand out the same bin or push utilization past capacity.
type ZoneRepository struct {
	db *gorm.DB
}

// NewZoneRepository wires a PostgreSQL-backed zone repository.
func NewZoneRepository(db *gorm.DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

type zoneRecord struct {
	ID           string        `gorm:"primaryKey;column:id;size:32"`
	Name         string        `gorm:"column:name"`
	Capacity     int           `gorm:"column:capacity"`
	Utilization  int           `gorm:"column:utilization;check:utilization >= 0"`
	OccupiedBins pq.Int64Array `gorm:"column:occupied_bins;type:integer[]"`
}

func (zoneRecord) TableName() string { return "warehouse_zones" }

// List returns every zone ordered by ID.
func (r *ZoneRepository) List(ctx context.Context) ([]domain.Zone, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []zoneRecord
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	zones := make([]domain.Zone, 0, len(records))
	for _, rec := range records {
		zones = append(zones, rec.toDomain())
	}
	return zones, nil
}

// Occupy claims the lowest free bin while utilization is below capacity.
func (r *ZoneRepository) Occupy(ctx context.Context, zoneID string) (domain.Zone, int, error) {
	if err := r.ensureDB(); err != nil {
		return domain.Zone{}, 0, err
	}
	var (
		zone domain.Zone
		bin  int
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		zone, err = lockZone(tx, zoneID)
		if err != nil {
			return err
		}
		bin, err = zone.Claim()
		if err != nil {
			return ports.ErrZoneFull
		}
		return saveBins(tx, zone)
	})
	if err != nil {
		return zone, 0, err
	}
	return zone, bin, nil
}

// Release frees bin; a bin that is not held leaves the row untouched.
func (r *ZoneRepository) Release(ctx context.Context, zoneID string, bin int) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		zone, err := lockZone(tx, zoneID)
		if err != nil {
			return err
		}
		if !zone.Free(bin) {
			return nil
		}
		return saveBins(tx, zone)
	})
}

func lockZone(tx *gorm.DB, zoneID string) (domain.Zone, error) {
	var record zoneRecord
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&record, "id = ?", zoneID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Zone{}, ports.ErrZoneNotFound
		}
		return domain.Zone{}, err
	}
	return record.toDomain(), nil
}

func saveBins(tx *gorm.DB, zone domain.Zone) error {
	return tx.Model(&zoneRecord{}).Where("id = ?", zone.ID).Updates(map[string]any{
		"utilization":   zone.Utilization,
		"occupied_bins": toBinArray(zone.OccupiedBins),
	}).Error
}

// Save upserts zone configuration.
func (r *ZoneRepository) Save(ctx context.Context, zone domain.Zone) (domain.Zone, error) {
	if err := r.ensureDB(); err != nil {
		return domain.Zone{}, err
	}
	if err := zone.Validate(); err != nil {
		return domain.Zone{}, err
	}
	record := toZoneRecord(zone)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "capacity", "utilization", "occupied_bins"}),
		}).Create(&record).Error; err != nil {
		return domain.Zone{}, err
	}
	return r.get(ctx, zone.ID)
}

// EnsureDefaults seeds the default sections without touching existing rows.
func (r *ZoneRepository) EnsureDefaults(ctx context.Context) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	for _, zone := range domain.DefaultZones() {
		record := toZoneRecord(zone)
		if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *ZoneRepository) get(ctx context.Context, zoneID string) (domain.Zone, error) {
	var record zoneRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", zoneID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Zone{}, ports.ErrZoneNotFound
		}
		return domain.Zone{}, err
	}
	return record.toDomain(), nil
}

func (r *ZoneRepository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres warehouse zone repository not configured")
	}
	return nil
}

func toZoneRecord(zone domain.Zone) zoneRecord {
	return zoneRecord{
		ID:           zone.ID,
		Name:         zone.Name,
		Capacity:     zone.Capacity,
		Utilization:  zone.Utilization,
		OccupiedBins: toBinArray(zone.OccupiedBins),
	}
}

func toBinArray(bins []int) pq.Int64Array {
	out := make(pq.Int64Array, 0, len(bins))
	for _, bin := range bins {
		out = append(out, int64(bin))
	}
	return out
}

func (r zoneRecord) toDomain() domain.Zone {
	bins := make([]int, 0, len(r.OccupiedBins))
	for _, bin := range r.OccupiedBins {
		bins = append(bins, int(bin))
	}
	slices.Sort(bins)
	return domain.Zone{
		ID:           r.ID,
		Name:         r.Name,
		Capacity:     r.Capacity,
		Utilization:  len(bins),
		OccupiedBins: bins,
	}
}
