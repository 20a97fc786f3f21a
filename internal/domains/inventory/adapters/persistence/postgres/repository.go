package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/inventory/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/inventory/ports"
)

var _ ports.Repository = (*Repository)(nil)

const defaultMaxAdjustRetries = 5

var errStaleVersion = errors.New("inventory row version changed")

// Repository persists inventory in PostgreSQL. Stock changes use an optimistic version column
// and retry with exponential backoff.
type Repository struct {
	db         *gorm.DB
	maxRetries uint64
	backoff    func() backoff.BackOff
}

// Option customizes the repository.
type Option func(*Repository)

// WithMaxRetries bounds the optimistic retry loop in AdjustStock.
func WithMaxRetries(n uint64) Option {
	return func(r *Repository) {
		r.maxRetries = n
	}
}

// WithBackOff replaces the backoff schedule between AdjustStock attempts.
func WithBackOff(factory func() backoff.BackOff) Option {
	return func(r *Repository) {
		if factory != nil {
			r.backoff = factory
		}
	}
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle and schema.
func NewRepository(db *gorm.DB, opts ...Option) *Repository {
	r := &Repository{
		db:         db,
		maxRetries: defaultMaxAdjustRetries,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 10 * time.Millisecond
			b.MaxInterval = 200 * time.Millisecond
			return b
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Models lists the records this adapter owns, for schema migration.
func Models() []any {
	return []any{&itemRecord{}}
}

type itemRecord struct {
	ID               string          `gorm:"primaryKey;column:id;size:64"`
	SKU              string          `gorm:"column:sku;size:128;uniqueIndex"`
	Name             string          `gorm:"column:name"`
	StockQuantity    int             `gorm:"column:stock_quantity;check:stock_quantity >= 0"`
	ReorderThreshold int             `gorm:"column:reorder_threshold"`
	Cost             decimal.Decimal `gorm:"column:cost;type:numeric(18,4)"`
	Price            decimal.Decimal `gorm:"column:price;type:numeric(18,4)"`
	Location         string          `gorm:"column:location"`
	Version          int64           `gorm:"column:version"`
	CreatedAt        time.Time       `gorm:"column:created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at"`
}

func (itemRecord) TableName() string { return "inventory_items" }

// GetProduct resolves ref by ID or case-insensitive SKU.
func (r *Repository) GetProduct(ctx context.Context, ref string) (*domain.Item, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	record, err := r.find(r.db.WithContext(ctx), ref)
	if err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

// AdjustStock applies delta with compare-and-swap on the version column.
func (r *Repository) AdjustStock(ctx context.Context, ref string, delta int) (domain.Adjustment, error) {
	if err := r.ensureDB(); err != nil {
		return domain.Adjustment{}, err
	}
	var result domain.Adjustment
	operation := func() error {
		record, err := r.find(r.db.WithContext(ctx), ref)
		if err != nil {
			return backoff.Permanent(err)
		}
		item := record.toDomain()
		adj := item.Adjust(delta)
		res := r.db.WithContext(ctx).Model(&itemRecord{}).
			Where("id = ? AND version = ?", record.ID, record.Version).
			Updates(map[string]any{
				"stock_quantity": item.StockQuantity,
				"version":        gorm.Expr("version + 1"),
				"updated_at":     gorm.Expr("NOW()"),
			})
		if res.Error != nil {
			return backoff.Permanent(res.Error)
		}
		if res.RowsAffected == 0 {
			return errStaleVersion
		}
		result = adj
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(r.backoff(), r.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		if errors.Is(err, errStaleVersion) {
			return domain.Adjustment{}, fmt.Errorf("%w: %s", ports.ErrConcurrencyConflict, ref)
		}
		return domain.Adjustment{}, err
	}
	return result, nil
}

// Save upserts an item keyed by ID.
func (r *Repository) Save(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.New("inventory item is nil")
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	record := toRecord(item)
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"sku":               record.SKU,
				"name":              record.Name,
				"stock_quantity":    record.StockQuantity,
				"reorder_threshold": record.ReorderThreshold,
				"cost":              record.Cost,
				"price":             record.Price,
				"location":          record.Location,
				"version":           gorm.Expr("inventory_items.version + 1"),
				"updated_at":        gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetProduct(ctx, record.ID)
}

// List returns all items ordered by SKU.
func (r *Repository) List(ctx context.Context) ([]*domain.Item, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []itemRecord
	if err := r.db.WithContext(ctx).Order("sku ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	items := make([]*domain.Item, 0, len(records))
	for i := range records {
		items = append(items, records[i].toDomain())
	}
	return items, nil
}

// find matches ref against the ID first and only then against the SKU, so an ID that
// collides with another item's SKU still resolves to its own row.
func (r *Repository) find(db *gorm.DB, ref string) (*itemRecord, error) {
	ref = strings.TrimSpace(ref)
	var record itemRecord
	err := db.Where("id = ?", ref).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = itemRecord{}
		err = db.Where("UPPER(sku) = UPPER(?)", ref).Take(&record).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres inventory repository not configured")
	}
	return nil
}

func toRecord(item *domain.Item) itemRecord {
	return itemRecord{
		ID:               item.ID,
		SKU:              item.SKU,
		Name:             item.Name,
		StockQuantity:    item.StockQuantity,
		ReorderThreshold: item.ReorderThreshold,
		Cost:             item.Cost,
		Price:            item.Price,
		Location:         item.Location,
		Version:          item.Version,
	}
}

func (r itemRecord) toDomain() *domain.Item {
	return &domain.Item{
		ID:               r.ID,
		SKU:              r.SKU,
		Name:             r.Name,
		StockQuantity:    r.StockQuantity,
		ReorderThreshold: r.ReorderThreshold,
		Cost:             r.Cost,
		Price:            r.Price,
		Location:         r.Location,
		Version:          r.Version,
		UpdatedAt:        r.UpdatedAt,
	}
}
