package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	fulfillmenttypes "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/application/types"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/domain"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/ports"
	orderdomain "github.com/Apurer/warehouse-fulfillment/internal/domains/orders/domain"
	routingdomain "github.com/Apurer/warehouse-fulfillment/internal/domains/routing/domain"
)

const tracerName = "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/adapters/observability/service"

// Service decorates the fulfillment application port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// PlaceOrder runs the order placement flow with instrumentation.
func (s *Service) PlaceOrder(ctx context.Context, input fulfillmenttypes.PlaceOrderInput) (*fulfillmenttypes.FulfillmentResult, error) {
	ctx, span := s.startSpan(ctx, "Service.PlaceOrder",
		attribute.String("order.product_ref", input.ProductRef),
		attribute.Int("order.quantity", input.Quantity),
		attribute.Bool("order.idempotent", input.IdempotencyKey != ""),
	)
	defer span.End()

	s.logInfo(ctx, "placing order", slog.String("product_ref", input.ProductRef), slog.Int("quantity", input.Quantity))
	result, err := s.inner.PlaceOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to place order", slog.String("product_ref", input.ProductRef))
	}
	s.observeResult(ctx, span, result)
	if result != nil && !result.Replayed {
		s.metrics.recordPlaced(ctx, result.Report)
	}
	return result, nil
}

// UpdateOrderStatus moves an order and its resources with instrumentation.
func (s *Service) UpdateOrderStatus(ctx context.Context, input fulfillmenttypes.UpdateStatusInput) (*fulfillmenttypes.FulfillmentResult, error) {
	ctx, span := s.startSpan(ctx, "Service.UpdateOrderStatus",
		attribute.String("order.id", input.OrderID),
		attribute.String("order.status", input.Status),
	)
	defer span.End()

	s.logInfo(ctx, "updating order status", slog.String("order.id", input.OrderID), slog.String("status", input.Status))
	result, err := s.inner.UpdateOrderStatus(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update order status", slog.String("order.id", input.OrderID))
	}
	s.observeResult(ctx, span, result)
	return result, nil
}

// PlanRoute optimizes a multi-stop route with instrumentation.
func (s *Service) PlanRoute(ctx context.Context, input fulfillmenttypes.PlanRouteInput) (*routingdomain.OptimizedRoute, error) {
	ctx, span := s.startSpan(ctx, "Service.PlanRoute",
		attribute.Int("route.destinations", len(input.Destinations)),
		attribute.Bool("route.return_to_origin", input.ReturnToOrigin),
	)
	defer span.End()

	s.logInfo(ctx, "planning route", slog.Int("destinations", len(input.Destinations)))
	route, err := s.inner.PlanRoute(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to plan route", slog.Int("destinations", len(input.Destinations)))
	}
	span.SetAttributes(
		attribute.String("route.strategy", string(route.Strategy)),
		attribute.Int("route.distance_meters", route.TotalDistanceMeters),
	)
	s.metrics.recordRoute(ctx, string(route.Strategy))
	s.logInfo(ctx, "route planned", slog.String("strategy", string(route.Strategy)), slog.Int("distance_meters", route.TotalDistanceMeters))
	return route, nil
}

// CalculateRoute routes a single leg with instrumentation.
func (s *Service) CalculateRoute(ctx context.Context, input fulfillmenttypes.CalculateRouteInput) (*fulfillmenttypes.RouteCalculation, error) {
	ctx, span := s.startSpan(ctx, "Service.CalculateRoute", attribute.Bool("route.traffic_aware", input.TrafficAware))
	defer span.End()

	result, err := s.inner.CalculateRoute(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to calculate route")
	}
	span.SetAttributes(attribute.Int("route.distance_meters", result.Leg.DistanceMeters))
	s.metrics.recordRoute(ctx, string(routingdomain.StrategySingle))
	return result, nil
}

// Geocode resolves an address with instrumentation.
func (s *Service) Geocode(ctx context.Context, address string) (*routingdomain.GeocodeResult, error) {
	ctx, span := s.startSpan(ctx, "Service.Geocode")
	defer span.End()

	result, err := s.inner.Geocode(ctx, address)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to geocode address")
	}
	return result, nil
}

// GetOrder loads an order with instrumentation.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*orderdomain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.GetOrder", attribute.String("order.id", orderID))
	defer span.End()

	order, err := s.inner.GetOrder(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to get order", slog.String("order.id", orderID))
	}
	span.SetAttributes(attribute.String("order.status", string(order.Status)))
	return order, nil
}

// ListReports lists the integration reports of an order with instrumentation.
func (s *Service) ListReports(ctx context.Context, orderID string) ([]*domain.Report, error) {
	ctx, span := s.startSpan(ctx, "Service.ListReports", attribute.String("order.id", orderID))
	defer span.End()

	reports, err := s.inner.ListReports(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list reports", slog.String("order.id", orderID))
	}
	span.SetAttributes(attribute.Int("report.result.count", len(reports)))
	return reports, nil
}

// Health checks dependencies with instrumentation.
func (s *Service) Health(ctx context.Context) (*fulfillmenttypes.HealthStatus, error) {
	ctx, span := s.startSpan(ctx, "Service.Health")
	defer span.End()

	status, err := s.inner.Health(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to check health")
	}
	span.SetAttributes(attribute.Bool("health.healthy", status.Healthy))
	if !status.Healthy {
		for _, check := range status.Checks {
			if !check.Healthy {
				s.logger.LogAttrs(ctx, slog.LevelWarn, "dependency unhealthy",
					slog.String("check", check.Name),
					slog.String("detail", check.Detail),
				)
			}
		}
	}
	return status, nil
}

func (s *Service) observeResult(ctx context.Context, span trace.Span, result *fulfillmenttypes.FulfillmentResult) {
	if result == nil || result.Report == nil {
		return
	}
	report := result.Report
	span.SetAttributes(
		attribute.String("order.id", report.OrderID()),
		attribute.String("report.id", report.ID()),
		attribute.String("report.state", string(report.State())),
		attribute.Bool("report.replayed", result.Replayed),
	)
	for _, step := range report.Steps() {
		if !result.Replayed {
			s.metrics.recordStep(ctx, report.Operation(), step)
		}
		if step.Outcome == domain.OutcomeFailed || step.Outcome == domain.OutcomeDegraded {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "fulfillment step did not fully succeed",
				slog.String("order.id", report.OrderID()),
				slog.String("step", string(step.Step)),
				slog.String("outcome", string(step.Outcome)),
				slog.String("error", step.Error),
			)
		}
	}
	s.logInfo(ctx, "fulfillment operation finished",
		slog.String("order.id", report.OrderID()),
		slog.String("operation", string(report.Operation())),
		slog.String("state", string(report.State())),
	)
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	ordersPlaced  metric.Int64Counter
	stepOutcomes  metric.Int64Counter
	routesPlanned metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersPlaced, _ := m.Int64Counter("fulfillment.orders_placed", metric.WithDescription("Number of orders placed"))
	stepOutcomes, _ := m.Int64Counter("fulfillment.step_outcomes", metric.WithDescription("Fulfillment step results by outcome"))
	routesPlanned, _ := m.Int64Counter("fulfillment.routes_planned", metric.WithDescription("Number of routes planned"))
	return serviceMetrics{
		ordersPlaced:  ordersPlaced,
		stepOutcomes:  stepOutcomes,
		routesPlanned: routesPlanned,
	}
}

func (m serviceMetrics) recordPlaced(ctx context.Context, report *domain.Report) {
	state := ""
	if report != nil {
		state = string(report.State())
	}
	addCounter(ctx, m.ordersPlaced, 1, attribute.String("report.state", state))
}

func (m serviceMetrics) recordStep(ctx context.Context, op domain.Operation, step domain.StepResult) {
	addCounter(ctx, m.stepOutcomes, 1,
		attribute.String("operation", string(op)),
		attribute.String("step", string(step.Step)),
		attribute.String("outcome", string(step.Outcome)),
	)
}

func (m serviceMetrics) recordRoute(ctx context.Context, strategy string) {
	addCounter(ctx, m.routesPlanned, 1, attribute.String("route.strategy", strategy))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
