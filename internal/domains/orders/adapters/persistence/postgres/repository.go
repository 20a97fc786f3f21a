package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/orders/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle and schema.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Models lists the records this adapter owns, for schema migration.
func Models() []any {
	return []any{&orderRecord{}}
}

// orderRecord maps the order aggregate to a relational table.
type orderRecord struct {
	ID                string          `gorm:"primaryKey;column:id;size:64"`
	CustomerName      string          `gorm:"column:customer_name"`
	CustomerEmail     string          `gorm:"column:customer_email;index"`
	ProductRef        string          `gorm:"column:product_ref;size:128;index"`
	ProductName       string          `gorm:"column:product_name"`
	Quantity          int             `gorm:"column:quantity"`
	UnitPrice         decimal.Decimal `gorm:"column:unit_price;type:numeric(18,4)"`
	Status            string          `gorm:"column:status;type:varchar(32);index"`
	DeliveryAddress   string          `gorm:"column:delivery_address"`
	PaymentMethod     string          `gorm:"column:payment_method;size:64"`
	InventoryReserved bool            `gorm:"column:inventory_reserved"`
	CreatedAt         time.Time       `gorm:"column:created_at;index"`
	UpdatedAt         time.Time       `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

// Create inserts a new order, assigning an identifier when absent.
func (r *Repository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	record := toRecord(order)
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

// GetByID fetches an order by identifier.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// Update applies mutate under a row lock and persists the result.
func (r *Repository) Update(ctx context.Context, id string, mutate ports.Mutation) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var updated *domain.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record orderRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&record, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ports.ErrNotFound
			}
			return err
		}
		order := record.toDomain()
		if mutate != nil {
			if err := mutate(order); err != nil {
				return err
			}
		}
		if err := order.Validate(); err != nil {
			return err
		}
		next := toRecord(order)
		next.ID = record.ID
		next.CreatedAt = record.CreatedAt
		if err := tx.Model(&orderRecord{}).Where("id = ?", id).Updates(map[string]any{
			"customer_name":      next.CustomerName,
			"customer_email":     next.CustomerEmail,
			"product_ref":        next.ProductRef,
			"product_name":       next.ProductName,
			"quantity":           next.Quantity,
			"unit_price":         next.UnitPrice,
			"status":             next.Status,
			"delivery_address":   next.DeliveryAddress,
			"payment_method":     next.PaymentMethod,
			"inventory_reserved": next.InventoryReserved,
			"updated_at":         gorm.Expr("NOW()"),
		}).Error; err != nil {
			return err
		}
		if err := tx.First(&next, "id = ?", id).Error; err != nil {
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

// List returns all orders, oldest first.
func (r *Repository) List(ctx context.Context) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toRecord(order *domain.Order) orderRecord {
	return orderRecord{
		ID:                order.ID,
		CustomerName:      order.Customer.Name,
		CustomerEmail:     order.Customer.Email,
		ProductRef:        order.Item.ProductRef,
		ProductName:       order.Item.ProductName,
		Quantity:          order.Item.Quantity,
		UnitPrice:         order.Item.UnitPrice,
		Status:            string(order.Status),
		DeliveryAddress:   order.DeliveryAddress,
		PaymentMethod:     order.PaymentMethod,
		InventoryReserved: order.InventoryReserved,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}

func (r orderRecord) toDomain() *domain.Order {
	return &domain.Order{
		ID:                r.ID,
		Customer:          domain.Customer{Name: r.CustomerName, Email: r.CustomerEmail},
		Item:              domain.LineItem{ProductRef: r.ProductRef, ProductName: r.ProductName, Quantity: r.Quantity, UnitPrice: r.UnitPrice},
		Status:            domain.Status(r.Status),
		DeliveryAddress:   r.DeliveryAddress,
		PaymentMethod:     r.PaymentMethod,
		InventoryReserved: r.InventoryReserved,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}
