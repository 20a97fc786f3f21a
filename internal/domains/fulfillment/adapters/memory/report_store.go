package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/ports"
)

var _ ports.ReportStore = (*ReportStore)(nil)

// ReportStore keeps integration reports in memory, grouped by order.
type ReportStore struct {
	mu      sync.RWMutex
	byOrder map[string][]*domain.Report
}

func NewReportStore() *ReportStore {
	return &ReportStore{byOrder: map[string][]*domain.Report{}}
}

func (s *ReportStore) Save(_ context.Context, report *domain.Report) (*domain.Report, error) {
	if report == nil {
		return nil, errors.New("report is nil")
	}
	if report.ID() == "" {
		report = report.WithID(uuid.NewString())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byOrder[report.OrderID()] = append(s.byOrder[report.OrderID()], report)
	return report, nil
}

// ListByOrder returns the order's reports in the order they were saved. Reports are immutable,
// so the stored values are shared.
func (s *ReportStore) ListByOrder(_ context.Context, orderID string) ([]*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*domain.Report{}, s.byOrder[orderID]...), nil
}
