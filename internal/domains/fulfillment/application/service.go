package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	deliverydomain "github.com/Apurer/warehouse-fulfillment/internal/domains/delivery/domain"
	deliveryports "github.com/Apurer/warehouse-fulfillment/internal/domains/delivery/ports"
	fulfillmenttypes "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/application/types"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/ports"
	orderdomain "github.com/Apurer/warehouse-fulfillment/internal/domains/orders/domain"
	routingdomain "github.com/Apurer/warehouse-fulfillment/internal/domains/routing/domain"
	routingports "github.com/Apurer/warehouse-fulfillment/internal/domains/routing/ports"
	warehousedomain "github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/domain"
	warehouseports "github.com/Apurer/warehouse-fulfillment/internal/domains/warehouse/ports"
)

// DefaultBaselineStock stands in for the stock level of products the inventory does not know.
const DefaultBaselineStock = 100

var (
	_ ports.Service = (*Service)(nil)
	_ ports.Steps   = (*Service)(nil)
)

// Config tunes fulfillment behaviour.
type Config struct {
	WarehouseOrigin      string
	BaselineStock        int
	HighPriorityQuantity int
	Fees                 domain.FeeSchedule
}

// DefaultConfig ships from the default warehouse with the default fee schedule.
func DefaultConfig() Config {
	return Config{
		WarehouseOrigin:      routingdomain.DefaultWarehouseAddress,
		BaselineStock:        DefaultBaselineStock,
		HighPriorityQuantity: warehousedomain.DefaultHighPriorityQuantity,
		Fees:                 domain.DefaultFeeSchedule(),
	}
}

// Service orchestrates the fulfillment bounded context use cases.
type Service struct {
	stores      ports.Stores
	planner     routingports.Planner
	router      routingports.Router
	reports     ports.ReportStore
	publisher   ports.ReportPublisher
	idempotency ports.IdempotencyStore
	drivers     domain.AssignmentPolicy
	workers     domain.AssignmentPolicy
	cfg         Config
	now         func() time.Time
	logger      *slog.Logger

	randMu sync.Mutex
	rng    *rand.Rand

	zoneCursor atomic.Uint64
}

// Option customizes the service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRand sets the random source used for fallback delivery estimates.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithLogger sets the logger used for best-effort failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPublisher announces every finished report.
func WithPublisher(publisher ports.ReportPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithIdempotencyStore enables Idempotency-Key replay for PlaceOrder.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

// WithAssignmentPolicies sets the driver and worker policies. A nil policy keeps the default.
func WithAssignmentPolicies(drivers, workers domain.AssignmentPolicy) Option {
	return func(s *Service) {
		if drivers != nil {
			s.drivers = drivers
		}
		if workers != nil {
			s.workers = workers
		}
	}
}

// WithConfig replaces the configuration. Zero fields fall back to DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		defaults := DefaultConfig()
		if strings.TrimSpace(cfg.WarehouseOrigin) == "" {
			cfg.WarehouseOrigin = defaults.WarehouseOrigin
		}
		if cfg.BaselineStock <= 0 {
			cfg.BaselineStock = defaults.BaselineStock
		}
		if cfg.HighPriorityQuantity <= 0 {
			cfg.HighPriorityQuantity = defaults.HighPriorityQuantity
		}
		if cfg.Fees.Base.IsZero() && cfg.Fees.PerKm.IsZero() {
			cfg.Fees = defaults.Fees
		}
		s.cfg = cfg
	}
}

// NewService wires the fulfillment service with its dependencies.
func NewService(stores ports.Stores, planner routingports.Planner, router routingports.Router, reports ports.ReportStore, opts ...Option) *Service {
	s := &Service{
		stores:  stores,
		planner: planner,
		router:  router,
		reports: reports,
		drivers: domain.NewRoundRobin(),
		workers: domain.NewRoundRobin(),
		cfg:     DefaultConfig(),
		now:     func() time.Time { return time.Now().UTC() },
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder creates an order and runs every fulfillment step in sequence. Only validation
// and order persistence failures are returned as errors; everything else lands in the report.
func (s *Service) PlaceOrder(ctx context.Context, input fulfillmenttypes.PlaceOrderInput) (*fulfillmenttypes.FulfillmentResult, error) {
	replayed, err := s.replay(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}
	if replayed != nil {
		return replayed, nil
	}
	order, err := s.CreateOrder(ctx, input)
	if err != nil {
		return nil, err
	}
	step := fulfillmenttypes.StepInput{OrderID: order.ID, Priority: input.Priority}
	results := make([]domain.StepResult, 0, len(domain.StepSequence))

	result, err := s.ReserveInventory(ctx, step)
	results = append(results, StepOrFailure(domain.StepInventory, result, err))
	result, err = s.ScheduleDelivery(ctx, step)
	results = append(results, StepOrFailure(domain.StepDelivery, result, err))
	result, err = s.CreateWarehouseTask(ctx, step)
	results = append(results, StepOrFailure(domain.StepWarehouse, result, err))

	return s.Complete(ctx, fulfillmenttypes.CompleteInput{
		OrderID:   order.ID,
		Operation: domain.OperationPlaceOrder,
		Steps:     results,
		Order:     order,
	})
}

// StepOrFailure turns a step that could not run into a failed result.
func StepOrFailure(step domain.StepName, result domain.StepResult, err error) domain.StepResult {
	if err != nil {
		return domain.Failed(step, "step could not complete", err)
	}
	if result.Step == "" {
		result.Step = step
	}
	return result
}

// GetOrder loads a single order.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*orderdomain.Order, error) {
	order, err := s.stores.Orders.GetByID(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return nil, mapError(err)
	}
	return order, nil
}

// ListReports returns the reports recorded for an order, oldest first.
func (s *Service) ListReports(ctx context.Context, orderID string) ([]*domain.Report, error) {
	if _, err := s.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	if s.reports == nil {
		return []*domain.Report{}, nil
	}
	reports, err := s.reports.ListByOrder(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return nil, mapError(err)
	}
	return reports, nil
}

// replay returns the earlier result for a repeated Idempotency-Key, or nil when the request
// has not completed before.
func (s *Service) replay(ctx context.Context, input fulfillmenttypes.PlaceOrderInput) (*fulfillmenttypes.FulfillmentResult, error) {
	key := strings.TrimSpace(input.IdempotencyKey)
	if key == "" || s.idempotency == nil {
		return nil, nil
	}
	record, err := s.idempotency.Get(ctx, key)
	if err != nil || record == nil {
		return nil, err
	}
	hash, err := FingerprintPlaceOrder(input)
	if err != nil {
		return nil, err
	}
	if record.RequestHash != hash {
		return nil, ports.ErrIdempotencyConflict
	}
	if s.reports == nil {
		return nil, nil
	}
	reports, err := s.reports.ListByOrder(ctx, record.OrderID)
	if err != nil {
		return nil, err
	}
	var latest *domain.Report
	for _, report := range reports {
		if report.Operation() == domain.OperationPlaceOrder {
			latest = report
		}
	}
	if latest == nil {
		return nil, nil
	}
	result, err := s.loadResult(ctx, record.OrderID, latest)
	if err != nil {
		return nil, err
	}
	result.Replayed = true
	return result, nil
}

// loadResult gathers the current resources of an order around report.
func (s *Service) loadResult(ctx context.Context, orderID string, report *domain.Report) (*fulfillmenttypes.FulfillmentResult, error) {
	order, err := s.stores.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	result := &fulfillmenttypes.FulfillmentResult{Order: order, Report: report}
	delivery, err := s.stores.Deliveries.FindByOrderID(ctx, orderID)
	switch {
	case err == nil:
		result.Delivery = delivery
	case !errors.Is(err, deliveryports.ErrNotFound):
		return nil, err
	}
	task, err := s.stores.Tasks.FindByOrderID(ctx, orderID)
	switch {
	case err == nil:
		result.Task = task
	case !errors.Is(err, warehouseports.ErrNotFound):
		return nil, err
	}
	return result, nil
}

func (s *Service) fallbackETA(now time.Time) time.Time {
	s.randMu.Lock()
	days := 1 + s.rng.Intn(3)
	hours := 2 + s.rng.Intn(7)
	s.randMu.Unlock()
	return now.Add(time.Duration(days)*24*time.Hour + time.Duration(hours)*time.Hour)
}

func parsePriority(raw string) (deliverydomain.Priority, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return deliverydomain.PriorityNormal, nil
	}
	priority := deliverydomain.Priority(raw)
	if !deliverydomain.IsValidPriority(priority) {
		return "", ErrInvalidPriority
	}
	return priority, nil
}
