package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/warehouse-fulfillment/internal/shared/geo"
)

// Status enumerates delivery progression.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPickedUp  Status = "picked_up"
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Priority orders deliveries for dispatch.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var (
	ErrInvalidOrderID    = errors.New("delivery order reference is required")
	ErrInvalidCarrier    = errors.New("delivery carrier is required")
	ErrInvalidDropoff    = errors.New("delivery dropoff address is required")
	ErrInvalidStatus     = errors.New("delivery status is invalid")
	ErrInvalidPriority   = errors.New("delivery priority is invalid")
	ErrInvalidTransition = errors.New("delivery status transition is not allowed")
	ErrNegativeFee       = errors.New("delivery fee must not be negative")
)

// RouteSummary records how the delivery route was obtained. Authoritative is false when the
// figures are a synthetic estimate rather than a provider answer.
type RouteSummary struct {
	Available        bool
	Authoritative    bool
	DistanceMeters   int
	DistanceText     string
	DurationSeconds  int
	DurationText     string
	TrafficCondition string
	Polyline         string
	MapsLink         string
	Source           string
}

// Delivery is the shipment of one order.
type Delivery struct {
	ID             string
	OrderID        string
	Carrier        string
	PickupAddress  string
	DropoffAddress string
	Pickup         *geo.Coordinates
	Dropoff        *geo.Coordinates
	Route          RouteSummary
	ETA            time.Time
	Fee            decimal.Decimal
	Status         Status
	Priority       Priority
	PickedUpAt     *time.Time
	DeliveredAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate enforces invariants on the delivery.
func (d *Delivery) Validate() error {
	if strings.TrimSpace(d.OrderID) == "" {
		return ErrInvalidOrderID
	}
	if strings.TrimSpace(d.Carrier) == "" {
		return ErrInvalidCarrier
	}
	if strings.TrimSpace(d.DropoffAddress) == "" {
		return ErrInvalidDropoff
	}
	if !isValidStatus(d.Status) {
		return ErrInvalidStatus
	}
	if !IsValidPriority(d.Priority) {
		return ErrInvalidPriority
	}
	if d.Fee.IsNegative() {
		return ErrNegativeFee
	}
	return nil
}

// Terminal reports whether the delivery can no longer progress.
func (d *Delivery) Terminal() bool {
	switch d.Status {
	case StatusDelivered, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// TransitionTo moves the delivery forward. PickedUpAt and DeliveredAt are stamped once and
// never overwritten; re-applying the current status reports changed=false.
func (d *Delivery) TransitionTo(status Status, now time.Time) (bool, error) {
	if !isValidStatus(status) {
		return false, ErrInvalidStatus
	}
	if status == d.Status {
		return false, nil
	}
	if d.Terminal() {
		return false, ErrInvalidTransition
	}
	switch status {
	case StatusFailed, StatusCancelled:
	default:
		if rank(status) <= rank(d.Status) {
			return false, ErrInvalidTransition
		}
	}
	if rank(status) >= rank(StatusPickedUp) && d.PickedUpAt == nil {
		stamp := now
		d.PickedUpAt = &stamp
	}
	if status == StatusDelivered && d.DeliveredAt == nil {
		stamp := now
		d.DeliveredAt = &stamp
	}
	d.Status = status
	d.UpdatedAt = now
	return true, nil
}

// IsValidPriority reports whether p is a known priority.
func IsValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

func rank(status Status) int {
	switch status {
	case StatusPending:
		return 0
	case StatusPickedUp:
		return 1
	case StatusInTransit:
		return 2
	case StatusDelivered:
		return 3
	default:
		return -1
	}
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusPending, StatusPickedUp, StatusInTransit, StatusDelivered, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Clone returns a deep copy so callers cannot alias stored timestamps or coordinates.
func (d *Delivery) Clone() *Delivery {
	if d == nil {
		return nil
	}
	clone := *d
	if d.Pickup != nil {
		c := *d.Pickup
		clone.Pickup = &c
	}
	if d.Dropoff != nil {
		c := *d.Dropoff
		clone.Dropoff = &c
	}
	if d.PickedUpAt != nil {
		t := *d.PickedUpAt
		clone.PickedUpAt = &t
	}
	if d.DeliveredAt != nil {
		t := *d.DeliveredAt
		clone.DeliveredAt = &t
	}
	return &clone
}
