package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/ports"
)

var _ ports.TaskRepository = (*TaskRepository)(nil)

// TaskRepository persists warehouse tasks in PostgreSQL using GORM.
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository wires a PostgreSQL-backed task repository.
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Models lists the records this package owns, for schema migration.
func Models() []any {
	return []any{&taskRecord{}, &zoneRecord{}}
}

type taskRecord struct {
	ID             string     `gorm:"primaryKey;column:id;size:64"`
	OrderID        string     `gorm:"column:order_id;size:64;uniqueIndex"`
	ProductRef     string     `gorm:"column:product_ref;size:128"`
	Quantity       int        `gorm:"column:quantity"`
	AssignedWorker string     `gorm:"column:assigned_worker;size:128"`
	ZoneID         string     `gorm:"column:zone_id;size:32;index"`
	Bin            int        `gorm:"column:bin"`
	BinLocation    string     `gorm:"column:bin_location;size:64"`
	Stage          string     `gorm:"column:stage;type:varchar(16);index"`
	Priority       string     `gorm:"column:priority;type:varchar(16)"`
	DispatchedAt   *time.Time `gorm:"column:dispatched_at"`
	BinReleasedAt  *time.Time `gorm:"column:bin_released_at"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (taskRecord) TableName() string { return "warehouse_tasks" }

// Create inserts a task.
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if task == nil {
		return nil, errors.New("task is nil")
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	record := toTaskRecord(task)
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

// GetByID fetches a task by identifier.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByOrderID fetches the task attached to an order.
func (r *TaskRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Task, error) {
	return r.first(ctx, "order_id = ?", orderID)
}

// Update applies mutate under a row lock.
func (r *TaskRepository) Update(ctx context.Context, id string, mutate ports.TaskMutation) (*domain.Task, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var updated *domain.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record taskRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&record, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ports.ErrNotFound
			}
			return err
		}
		task := record.toDomain()
		if mutate != nil {
			if err := mutate(task); err != nil {
				return err
			}
		}
		if err := task.Validate(); err != nil {
			return err
		}
		next := toTaskRecord(task)
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

func (r *TaskRepository) first(ctx context.Context, query string, arg string) (*domain.Task, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record taskRecord
	if err := r.db.WithContext(ctx).First(&record, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *TaskRepository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres warehouse task repository not configured")
	}
	return nil
}

func toTaskRecord(t *domain.Task) taskRecord {
	return taskRecord{
		ID:             t.ID,
		OrderID:        t.OrderID,
		ProductRef:     t.ProductRef,
		Quantity:       t.Quantity,
		AssignedWorker: t.AssignedWorker,
		ZoneID:         t.ZoneID,
		Bin:            t.Bin,
		BinLocation:    t.BinLocation,
		Stage:          string(t.Stage),
		Priority:       string(t.Priority),
		DispatchedAt:   t.DispatchedAt,
		BinReleasedAt:  t.BinReleasedAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func (r taskRecord) toDomain() *domain.Task {
	task := &domain.Task{
		ID:             r.ID,
		OrderID:        r.OrderID,
		ProductRef:     r.ProductRef,
		Quantity:       r.Quantity,
		AssignedWorker: r.AssignedWorker,
		ZoneID:         r.ZoneID,
		Bin:            r.Bin,
		BinLocation:    r.BinLocation,
		Stage:          domain.Stage(r.Stage),
		Priority:       domain.Priority(r.Priority),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.DispatchedAt != nil {
		at := *r.DispatchedAt
		task.DispatchedAt = &at
	}
	if r.BinReleasedAt != nil {
		at := *r.BinReleasedAt
		task.BinReleasedAt = &at
	}
	return task
}
