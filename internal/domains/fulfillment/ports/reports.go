package ports

import (
	"context"
	"errors"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/domain"
)

var ErrReportNotFound = errors.New("integration report not found")

// ReportStore keeps integration reports for later inspection.
type ReportStore interface {
	// Save stores the report, assigning an identifier when it has none.
	Save(ctx context.Context, report *domain.Report) (*domain.Report, error)
	// ListByOrder returns the reports of an order, oldest first.
	ListByOrder(ctx context.Context, orderID string) ([]*domain.Report, error)
}

// ReportPublisher announces finished reports to downstream consumers.
type ReportPublisher interface {
	Publish(ctx context.Context, report *domain.Report) error
}
