package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	oteltrace "go.opentelemetry.io/otel/trace"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/application"
	fulfillmenttypes "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/application/types"
	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/ports"
	fulfillmentactivities "github.com/Apurer/warehouse-fulfillment/internal/platform/temporal/activities/fulfillment"
	fulfillmentworkflows "github.com/Apurer/warehouse-fulfillment/internal/platform/temporal/workflows/fulfillment"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalFulfillmentWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineFulfillmentWorkflows)(nil)
)

// TemporalFulfillmentWorkflows starts fulfillment workflows on a Temporal cluster.
type TemporalFulfillmentWorkflows struct {
	client      client.Client
	taskQueue   string
	idempotency ports.IdempotencyStore
}

// TemporalOption customizes the Temporal orchestrator.
type TemporalOption func(*TemporalFulfillmentWorkflows)

// WithIdempotencyStore rejects a reused Idempotency-Key carrying a different payload before
// any workflow starts.
func WithIdempotencyStore(store ports.IdempotencyStore) TemporalOption {
	return func(o *TemporalFulfillmentWorkflows) {
		o.idempotency = store
	}
}

// NewTemporalFulfillmentWorkflows wires a Temporal client into the orchestrator.
func NewTemporalFulfillmentWorkflows(c client.Client, opts ...TemporalOption) *TemporalFulfillmentWorkflows {
	o := &TemporalFulfillmentWorkflows{client: c, taskQueue: fulfillmentworkflows.OrderFulfillmentTaskQueue}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// PlaceOrder starts the Temporal workflow that creates and fulfills an order.
func (o *TemporalFulfillmentWorkflows) PlaceOrder(ctx context.Context, input fulfillmenttypes.PlaceOrderInput) (*fulfillmenttypes.FulfillmentResult, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal fulfillment workflows not configured")
	}
	if err := o.checkIdempotency(ctx, input); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.IdempotencyKey) == "" && strings.TrimSpace(input.OrderID) == "" {
		input.OrderID = uuid.NewString()
	}
	traceComponent := workflowTraceComponent(ctx)
	workflowID := buildPlaceOrderWorkflowID(input, traceComponent)
	options := client.StartWorkflowOptions{
		ID:                    workflowID,
		TaskQueue:             o.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		fulfillmentworkflows.PlaceOrderWorkflow,
		fulfillmentworkflows.PlaceOrderWorkflowInput{Command: input, TraceID: traceComponent},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) && strings.TrimSpace(input.IdempotencyKey) != "" {
			existingRun := o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
			var result fulfillmenttypes.FulfillmentResult
			if err := existingRun.Get(ctx, &result); err != nil {
				return nil, translateWorkflowError(err)
			}
			result.Replayed = true
			return &result, nil
		}
		return nil, err
	}
	var result fulfillmenttypes.FulfillmentResult
	if err := run.Get(ctx, &result); err != nil {
		return nil, translateWorkflowError(err)
	}
	return &result, nil
}

func (o *TemporalFulfillmentWorkflows) checkIdempotency(ctx context.Context, input fulfillmenttypes.PlaceOrderInput) error {
	key := strings.TrimSpace(input.IdempotencyKey)
	if key == "" || o.idempotency == nil {
		return nil
	}
	record, err := o.idempotency.Get(ctx, key)
	if err != nil || record == nil {
		return err
	}
	hash, err := application.FingerprintPlaceOrder(input)
	if err != nil {
		return err
	}
	if record.RequestHash != hash {
		return ports.ErrIdempotencyConflict
	}
	return nil
}

// translateWorkflowError restores the application sentinels carried by non-retryable activity errors.
func translateWorkflowError(err error) error {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return err
	}
	switch appErr.Type() {
	case fulfillmentactivities.ErrorTypeInvalidInput:
		return fmt.Errorf("%w: %s", application.ErrInvalidInput, appErr.Error())
	case fulfillmentactivities.ErrorTypeIdempotencyConflict:
		return ports.ErrIdempotencyConflict
	default:
		return err
	}
}

// InlineFulfillmentWorkflows executes the service directly without Temporal, useful for tests or dev fallbacks.
type InlineFulfillmentWorkflows struct {
	service ports.Service
}

// NewInlineFulfillmentWorkflows wraps the fulfillment service for synchronous execution.
func NewInlineFulfillmentWorkflows(service ports.Service) *InlineFulfillmentWorkflows {
	return &InlineFulfillmentWorkflows{service: service}
}

// PlaceOrder delegates to the application service without durable orchestration.
func (o *InlineFulfillmentWorkflows) PlaceOrder(ctx context.Context, input fulfillmenttypes.PlaceOrderInput) (*fulfillmenttypes.FulfillmentResult, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline fulfillment workflows not configured")
	}
	return o.service.PlaceOrder(ctx, input)
}

func buildPlaceOrderWorkflowID(input fulfillmenttypes.PlaceOrderInput, traceComponent string) string {
	if key := strings.TrimSpace(input.IdempotencyKey); key != "" {
		return fmt.Sprintf("order-fulfillment-idem-%s", hashIdempotencyKey(key))
	}
	idComponent := strings.TrimSpace(input.OrderID)
	if idComponent == "" {
		idComponent = fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("order-fulfillment-%s-%s", idComponent, traceComponent)
}

func hashIdempotencyKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	// First 16 hex chars keep workflow IDs readable while staying deterministic.
	return hex.EncodeToString(sum[:8])
}

func workflowTraceComponent(ctx context.Context) string {
	traceComponent := workflowTraceID(ctx)
	if traceComponent != "" {
		return traceComponent
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	traceID := spanCtx.TraceID()
	if !traceID.IsValid() {
		return ""
	}
	return traceID.String()
}
