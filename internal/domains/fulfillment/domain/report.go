package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Operation names what produced a report.
type Operation string

const (
	OperationPlaceOrder   Operation = "place_order"
	OperationUpdateStatus Operation = "update_status"
)

// StepName identifies one resource touched by an operation.
type StepName string

const (
	StepInventory StepName = "inventory"
	StepDelivery  StepName = "delivery"
	StepWarehouse StepName = "warehouse"
)

// StepSequence is the order in which steps run.
var StepSequence = []StepName{StepInventory, StepDelivery, StepWarehouse}

// Outcome is the result of a single step.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeDegraded means the step completed on fallback data.
	OutcomeDegraded Outcome = "degraded"
	OutcomeFailed   Outcome = "failed"
	OutcomeSkipped  Outcome = "skipped"
)

var ErrInvalidReport = errors.New("integration report is invalid")

// InventoryOutcome carries the stock figures of an inventory step.
type InventoryOutcome struct {
	ProductRef  string `json:"productRef"`
	ItemID      string `json:"itemId,omitempty"`
	ProductName string `json:"productName,omitempty"`
	Requested   int    `json:"requested"`
	Previous    int    `json:"previous"`
	New         int    `json:"new"`
	Clamped     bool   `json:"clamped"`
	LowStock    bool   `json:"lowStock"`
	// Baseline is set when the product was unknown and figures come from the default stock level.
	Baseline bool `json:"baseline"`
	Restored int  `json:"restored,omitempty"`
}

// DeliveryOutcome carries the scheduling figures of a delivery step.
type DeliveryOutcome struct {
	DeliveryID     string          `json:"deliveryId"`
	Carrier        string          `json:"carrier"`
	Status         string          `json:"status"`
	ETA            time.Time       `json:"eta"`
	Fee            decimal.Decimal `json:"fee"`
	RouteAvailable bool            `json:"routeAvailable"`
	Authoritative  bool            `json:"authoritative"`
	DistanceText   string          `json:"distanceText,omitempty"`
	DurationText   string          `json:"durationText,omitempty"`
	MapsLink       string          `json:"mapsLink,omitempty"`
}

// WarehouseOutcome carries the assignment of a warehouse step.
type WarehouseOutcome struct {
	TaskID      string `json:"taskId"`
	Worker      string `json:"worker"`
	ZoneID      string `json:"zoneId"`
	BinLocation string `json:"binLocation"`
	Stage       string `json:"stage"`
	Priority    string `json:"priority"`
}

// StepResult is one line of a report.
type StepResult struct {
	Step      StepName          `json:"step"`
	Outcome   Outcome           `json:"outcome"`
	Detail    string            `json:"detail,omitempty"`
	Error     string            `json:"error,omitempty"`
	Inventory *InventoryOutcome `json:"inventory,omitempty"`
	Delivery  *DeliveryOutcome  `json:"delivery,omitempty"`
	Warehouse *WarehouseOutcome `json:"warehouse,omitempty"`
}

// Succeeded builds a succeeded step result.
func Succeeded(step StepName, detail string) StepResult {
	return StepResult{Step: step, Outcome: OutcomeSucceeded, Detail: detail}
}

// Degraded builds a degraded step result.
func Degraded(step StepName, detail string) StepResult {
	return StepResult{Step: step, Outcome: OutcomeDegraded, Detail: detail}
}

// Skipped builds a skipped step result.
func Skipped(step StepName, detail string) StepResult {
	return StepResult{Step: step, Outcome: OutcomeSkipped, Detail: detail}
}

// Failed builds a failed step result from err.
func Failed(step StepName, detail string, err error) StepResult {
	result := StepResult{Step: step, Outcome: OutcomeFailed, Detail: detail}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}

func (r StepResult) clone() StepResult {
	if r.Inventory != nil {
		v := *r.Inventory
		r.Inventory = &v
	}
	if r.Delivery != nil {
		v := *r.Delivery
		r.Delivery = &v
	}
	if r.Warehouse != nil {
		v := *r.Warehouse
		r.Warehouse = &v
	}
	return r
}

// Report is the immutable audit record of one operation on one order.
type Report struct {
	id        string
	orderID   string
	operation Operation
	state     State
	history   []State
	steps     []StepResult
	createdAt time.Time
}

func (r *Report) ID() string           { return r.id }
func (r *Report) OrderID() string      { return r.orderID }
func (r *Report) Operation() Operation { return r.operation }
func (r *Report) State() State         { return r.state }
func (r *Report) CreatedAt() time.Time { return r.createdAt }

// History lists every state the operation passed through.
func (r *Report) History() []State {
	return append([]State(nil), r.history...)
}

// Steps returns a copy of the step results in execution order.
func (r *Report) Steps() []StepResult {
	out := make([]StepResult, 0, len(r.steps))
	for _, s := range r.steps {
		out = append(out, s.clone())
	}
	return out
}

// Step returns the result recorded for name.
func (r *Report) Step(name StepName) (StepResult, bool) {
	for _, s := range r.steps {
		if s.Step == name {
			return s.clone(), true
		}
	}
	return StepResult{}, false
}

// Failed reports whether any step failed.
func (r *Report) Failed() bool {
	return r.state == StatePartiallyFailed
}

// ReportSnapshot is the serializable form of a Report.
type ReportSnapshot struct {
	ID        string       `json:"id"`
	OrderID   string       `json:"orderId"`
	Operation Operation    `json:"operation"`
	State     State        `json:"state"`
	History   []State      `json:"history"`
	Steps     []StepResult `json:"steps"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Snapshot copies the report into its serializable form.
func (r *Report) Snapshot() ReportSnapshot {
	return ReportSnapshot{
		ID:        r.id,
		OrderID:   r.orderID,
		Operation: r.operation,
		State:     r.state,
		History:   r.History(),
		Steps:     r.Steps(),
		CreatedAt: r.createdAt,
	}
}

// RestoreReport rebuilds a report from a snapshot.
func RestoreReport(s ReportSnapshot) (*Report, error) {
	if s.OrderID == "" || s.Operation == "" || !s.State.Terminal() {
		return nil, ErrInvalidReport
	}
	r := &Report{
		id:        s.ID,
		orderID:   s.OrderID,
		operation: s.Operation,
		state:     s.State,
		history:   append([]State(nil), s.History...),
		steps:     make([]StepResult, 0, len(s.Steps)),
		createdAt: s.CreatedAt,
	}
	for _, step := range s.Steps {
		r.steps = append(r.steps, step.clone())
	}
	return r, nil
}

// WithID returns a copy of the report carrying id, used by stores that assign identifiers.
func (r *Report) WithID(id string) *Report {
	clone, _ := RestoreReport(r.Snapshot())
	clone.id = id
	return clone
}

func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Snapshot())
}

func (r *Report) UnmarshalJSON(data []byte) error {
	var s ReportSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	restored, err := RestoreReport(s)
	if err != nil {
		return err
	}
	*r = *restored
	return nil
}

// ReportBuilder accumulates step results and walks the fulfillment state machine.
type ReportBuilder struct {
	id        string
	orderID   string
	operation Operation
	state     State
	history   []State
	steps     []StepResult
}

// NewReportBuilder starts a report in the created state.
func NewReportBuilder(id, orderID string, operation Operation) *ReportBuilder {
	return &ReportBuilder{
		id:        id,
		orderID:   orderID,
		operation: operation,
		state:     StateCreated,
		history:   []State{StateCreated},
	}
}

// Record appends a step result. A failed step moves the report to partially_failed, which
// is sticky; other outcomes advance to the state that follows the step.
func (b *ReportBuilder) Record(result StepResult) *ReportBuilder {
	b.steps = append(b.steps, result.clone())
	if b.state == StatePartiallyFailed {
		return b
	}
	next := StateAfter(result.Step)
	if result.Outcome == OutcomeFailed {
		next = StatePartiallyFailed
	}
	if next != "" && CanTransition(b.state, next) {
		b.state = next
		b.history = append(b.history, next)
	}
	return b
}

// State is the current, possibly non-terminal, state.
func (b *ReportBuilder) State() State {
	return b.state
}

// Build finalizes the report. The builder may keep being used; the report does not alias it.
func (b *ReportBuilder) Build(now time.Time) *Report {
	state := b.state
	history := append([]State(nil), b.history...)
	if !state.Terminal() {
		state = StateCompleted
		history = append(history, StateCompleted)
	}
	r := &Report{
		id:        b.id,
		orderID:   b.orderID,
		operation: b.operation,
		state:     state,
		history:   history,
		steps:     make([]StepResult, 0, len(b.steps)),
		createdAt: now,
	}
	for _, s := range b.steps {
		r.steps = append(r.steps, s.clone())
	}
	return r
}
