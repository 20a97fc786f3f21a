package domain

import (
	"errors"
	"strings"
	"time"
)

// Stage is the pick/pack/dispatch lifecycle of a task.
type Stage string

const (
	StagePicking    Stage = "picking"
	StagePacking    Stage = "packing"
	StageDispatched Stage = "dispatched"
)

// Priority mirrors the size of the order line.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// DefaultHighPriorityQuantity is the line quantity above which a task is high priority.
const DefaultHighPriorityQuantity = 10

var (
	ErrInvalidOrderID    = errors.New("task order reference is required")
	ErrInvalidQuantity   = errors.New("task quantity must be greater than zero")
	ErrInvalidWorker     = errors.New("task worker is required")
	ErrInvalidStage      = errors.New("task stage is invalid")
	ErrInvalidTransition = errors.New("task stage transition is not allowed")
)

// Task is a picking assignment for one order line.
type Task struct {
	ID             string
	OrderID        string
	ProductRef     string
	Quantity       int
	AssignedWorker string
	ZoneID         string
	Bin            int
	BinLocation    string
	Stage          Stage
	Priority       Priority
	DispatchedAt   *time.Time
	// BinReleasedAt is set once the task's zone bin has been handed back.
	BinReleasedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PriorityForQuantity returns high when quantity exceeds threshold.
func PriorityForQuantity(quantity, threshold int) Priority {
	if threshold <= 0 {
		threshold = DefaultHighPriorityQuantity
	}
	if quantity > threshold {
		return PriorityHigh
	}
	return PriorityNormal
}

// Validate enforces invariants on the task.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.OrderID) == "" {
		return ErrInvalidOrderID
	}
	if t.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if strings.TrimSpace(t.AssignedWorker) == "" {
		return ErrInvalidWorker
	}
	if rank(t.Stage) < 0 {
		return ErrInvalidStage
	}
	return nil
}

// Advance moves the task forward. Re-applying the current stage reports changed=false.
func (t *Task) Advance(stage Stage, now time.Time) (bool, error) {
	if rank(stage) < 0 {
		return false, ErrInvalidStage
	}
	if stage == t.Stage {
		return false, nil
	}
	if rank(stage) < rank(t.Stage) {
		return false, ErrInvalidTransition
	}
	if stage == StageDispatched && t.DispatchedAt == nil {
		stamp := now
		t.DispatchedAt = &stamp
	}
	t.Stage = stage
	t.UpdatedAt = now
	return true, nil
}

// HoldsBin reports whether the task still occupies its zone bin.
func (t *Task) HoldsBin() bool {
	return t.ZoneID != "" && t.Bin > 0 && t.BinReleasedAt == nil
}

// ReleaseBin marks the bin as handed back. It reports false when it already was.
func (t *Task) ReleaseBin(now time.Time) bool {
	if !t.HoldsBin() {
		return false
	}
	stamp := now
	t.BinReleasedAt = &stamp
	t.UpdatedAt = now
	return true
}

// Clone returns a deep copy.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	clone := *t
	if t.DispatchedAt != nil {
		at := *t.DispatchedAt
		clone.DispatchedAt = &at
	}
	if t.BinReleasedAt != nil {
		at := *t.BinReleasedAt
		clone.BinReleasedAt = &at
	}
	return &clone
}

func rank(stage Stage) int {
	switch stage {
	case StagePicking:
		return 0
	case StagePacking:
		return 1
	case StageDispatched:
		return 2
	default:
		return -1
	}
}
