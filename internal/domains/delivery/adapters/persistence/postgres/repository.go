package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/delivery/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/delivery/ports"
	"github.com/Apurer/warehouse-fulfillment/internal/shared/geo"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists deliveries in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle and schema.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Models lists the records this adapter owns, for schema migration.
func Models() []any {
	return []any{&deliveryRecord{}}
}

type deliveryRecord struct {
	ID               string          `gorm:"primaryKey;column:id;size:64"`
	OrderID          string          `gorm:"column:order_id;size:64;uniqueIndex"`
	Carrier          string          `gorm:"column:carrier;size:128"`
	PickupAddress    string          `gorm:"column:pickup_address"`
	DropoffAddress   string          `gorm:"column:dropoff_address"`
	PickupLat        *float64        `gorm:"column:pickup_lat"`
	PickupLng        *float64        `gorm:"column:pickup_lng"`
	DropoffLat       *float64        `gorm:"column:dropoff_lat"`
	DropoffLng       *float64        `gorm:"column:dropoff_lng"`
	RouteAvailable   bool            `gorm:"column:route_available"`
	Authoritative    bool            `gorm:"column:route_authoritative"`
	DistanceMeters   int             `gorm:"column:distance_meters"`
	DistanceText     string          `gorm:"column:distance_text"`
	DurationSeconds  int             `gorm:"column:duration_seconds"`
	DurationText     string          `gorm:"column:duration_text"`
	TrafficCondition string          `gorm:"column:traffic_condition;size:32"`
	Polyline         string          `gorm:"column:polyline;type:text"`
	MapsLink         string          `gorm:"column:maps_link;type:text"`
	RouteSource      string          `gorm:"column:route_source;size:64"`
	ETA              time.Time       `gorm:"column:eta"`
	Fee              decimal.Decimal `gorm:"column:fee;type:numeric"`
	Status           string          `gorm:"column:status;type:varchar(32);index"`
	Priority         string          `gorm:"column:priority;type:varchar(16)"`
	PickedUpAt       *time.Time      `gorm:"column:picked_up_at"`
	DeliveredAt      *time.Time      `gorm:"column:delivered_at"`
	CreatedAt        time.Time       `gorm:"column:created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at"`
}

func (deliveryRecord) TableName() string { return "deliveries" }

// Create inserts a delivery.
func (r *Repository) Create(ctx context.Context, delivery *domain.Delivery) (*domain.Delivery, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if delivery == nil {
		return nil, errors.New("delivery is nil")
	}
	if err := delivery.Validate(); err != nil {
		return nil, err
	}
	record := toRecord(delivery)
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ports.ErrAlreadyExists
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// GetByID fetches a delivery by identifier.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Delivery, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByOrderID fetches the delivery attached to an order.
func (r *Repository) FindByOrderID(ctx context.Context, orderID string) (*domain.Delivery, error) {
	return r.first(ctx, "order_id = ?", orderID)
}

// Update applies mutate under a row lock.
func (r *Repository) Update(ctx context.Context, id string, mutate ports.Mutation) (*domain.Delivery, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var updated *domain.Delivery
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record deliveryRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&record, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ports.ErrNotFound
			}
			return err
		}
		delivery := record.toDomain()
		if mutate != nil {
			if err := mutate(delivery); err != nil {
				return err
			}
		}
		if err := delivery.Validate(); err != nil {
			return err
		}
		next := toRecord(delivery)
		next.ID = record.ID
		next.OrderID = record.OrderID
		next.CreatedAt = record.CreatedAt
		next.UpdatedAt = time.Now().UTC()
		if err := tx.Save(&next).Error; err != nil {
			return err
		}
		updated = next.toDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *Repository) first(ctx context.Context, query string, arg string) (*domain.Delivery, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record deliveryRecord
	if err := r.db.WithContext(ctx).First(&record, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres delivery repository not configured")
	}
	return nil
}

func toRecord(d *domain.Delivery) deliveryRecord {
	rec := deliveryRecord{
		ID:               d.ID,
		OrderID:          d.OrderID,
		Carrier:          d.Carrier,
		PickupAddress:    d.PickupAddress,
		DropoffAddress:   d.DropoffAddress,
		RouteAvailable:   d.Route.Available,
		Authoritative:    d.Route.Authoritative,
		DistanceMeters:   d.Route.DistanceMeters,
		DistanceText:     d.Route.DistanceText,
		DurationSeconds:  d.Route.DurationSeconds,
		DurationText:     d.Route.DurationText,
		TrafficCondition: d.Route.TrafficCondition,
		Polyline:         d.Route.Polyline,
		MapsLink:         d.Route.MapsLink,
		RouteSource:      d.Route.Source,
		ETA:              d.ETA,
		Fee:              d.Fee,
		Status:           string(d.Status),
		Priority:         string(d.Priority),
		PickedUpAt:       d.PickedUpAt,
		DeliveredAt:      d.DeliveredAt,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	if d.Pickup != nil {
		rec.PickupLat, rec.PickupLng = &d.Pickup.Lat, &d.Pickup.Lng
	}
	if d.Dropoff != nil {
		rec.DropoffLat, rec.DropoffLng = &d.Dropoff.Lat, &d.Dropoff.Lng
	}
	return rec
}

func (r deliveryRecord) toDomain() *domain.Delivery {
	d := &domain.Delivery{
		ID:             r.ID,
		OrderID:        r.OrderID,
		Carrier:        r.Carrier,
		PickupAddress:  r.PickupAddress,
		DropoffAddress: r.DropoffAddress,
		Route: domain.RouteSummary{
			Available:        r.RouteAvailable,
			Authoritative:    r.Authoritative,
			DistanceMeters:   r.DistanceMeters,
			DistanceText:     r.DistanceText,
			DurationSeconds:  r.DurationSeconds,
			DurationText:     r.DurationText,
			TrafficCondition: r.TrafficCondition,
			Polyline:         r.Polyline,
			MapsLink:         r.MapsLink,
			Source:           r.RouteSource,
		},
		ETA:       r.ETA,
		Fee:       r.Fee,
		Status:    domain.Status(r.Status),
		Priority:  domain.Priority(r.Priority),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.PickupLat != nil && r.PickupLng != nil {
		d.Pickup = &geo.Coordinates{Lat: *r.PickupLat, Lng: *r.PickupLng}
	}
	if r.DropoffLat != nil && r.DropoffLng != nil {
		d.Dropoff = &geo.Coordinates{Lat: *r.DropoffLat, Lng: *r.DropoffLng}
	}
	if r.PickedUpAt != nil {
		t := *r.PickedUpAt
		d.PickedUpAt = &t
	}
	if r.DeliveredAt != nil {
		t := *r.DeliveredAt
		d.DeliveredAt = &t
	}
	return d
}
