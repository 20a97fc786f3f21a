package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/ports"
)

var _ ports.ReportStore = (*ReportStore)(nil)

// ReportStore persists integration reports in PostgreSQL. The full report is kept as JSON;
// order, operation, state and step names are columns so reports can be queried.
type ReportStore struct {
	db *gorm.DB
}

// NewReportStore wires a PostgreSQL-backed report store.
func NewReportStore(db *gorm.DB) *ReportStore {
	return &ReportStore{db: db}
}

// Models lists the records this adapter owns, for schema migration.
func Models() []any {
	return []any{&reportRecord{}, &idempotencyRecord{}}
}

type reportRecord struct {
	ID          string                `gorm:"primaryKey;column:id;size:64"`
	OrderID     string                `gorm:"column:order_id;size:64;index"`
	Operation   string                `gorm:"column:operation;type:varchar(32)"`
	State       string                `gorm:"column:state;type:varchar(32);index"`
	StepNames   pq.StringArray        `gorm:"column:step_names;type:text[]"`
	FailedSteps pq.StringArray        `gorm:"column:failed_steps;type:text[]"`
	Snapshot    domain.ReportSnapshot `gorm:"column:snapshot;type:jsonb;serializer:json"`
	ReportedAt  time.Time             `gorm:"column:reported_at;index"`
	CreatedAt   time.Time             `gorm:"column:created_at"`
}

func (reportRecord) TableName() string { return "integration_reports" }

func (s *ReportStore) Save(ctx context.Context, report *domain.Report) (*domain.Report, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	if report == nil {
		return nil, errors.New("report is nil")
	}
	if report.ID() == "" {
		report = report.WithID(uuid.NewString())
	}
	record := toReportRecord(report)
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return report, nil
}

func (s *ReportStore) ListByOrder(ctx context.Context, orderID string) ([]*domain.Report, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var records []reportRecord
	if err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("reported_at ASC, created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	reports := make([]*domain.Report, 0, len(records))
	for i := range records {
		report, err := domain.RestoreReport(records[i].Snapshot)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (s *ReportStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres report store not configured")
	}
	return nil
}

func toReportRecord(report *domain.Report) reportRecord {
	snapshot := report.Snapshot()
	names := make(pq.StringArray, 0, len(snapshot.Steps))
	failed := pq.StringArray{}
	for _, step := range snapshot.Steps {
		names = append(names, string(step.Step))
		if step.Outcome == domain.OutcomeFailed {
			failed = append(failed, string(step.Step))
		}
	}
	return reportRecord{
		ID:          snapshot.ID,
		OrderID:     snapshot.OrderID,
		Operation:   string(snapshot.Operation),
		State:       string(snapshot.State),
		StepNames:   names,
		FailedSteps: failed,
		Snapshot:    snapshot,
		ReportedAt:  snapshot.CreatedAt,
	}
}
