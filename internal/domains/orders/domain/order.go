package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates order progression.
type Status string

const (
	StatusPending   Status = "pending"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// DefaultPaymentMethod is applied when the customer does not choose one.
const DefaultPaymentMethod = "Credit Card"

var (
	ErrInvalidCustomerName = errors.New("customer name is required")
	ErrInvalidEmail        = errors.New("customer email is invalid")
	ErrInvalidProductRef   = errors.New("product reference is required")
	ErrInvalidQuantity     = errors.New("quantity must be greater than zero")
	ErrInvalidUnitPrice    = errors.New("unit price must not be negative")
	ErrInvalidAddress      = errors.New("delivery address is required")
	ErrInvalidStatus       = errors.New("order status is invalid")
	ErrInvalidTransition   = errors.New("order status transition is not allowed")
)

// Customer identifies who placed the order.
type Customer struct {
	Name  string
	Email string
}

// LineItem is the single product line carried by an order.
type LineItem struct {
	ProductRef  string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Order models the customer purchase aggregate.
type Order struct {
	ID                string
	Customer          Customer
	Item              LineItem
	Status            Status
	DeliveryAddress   string
	PaymentMethod     string
	InventoryReserved bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewOrder validates and constructs a pending Order.
func NewOrder(id string, customer Customer, item LineItem, deliveryAddress, paymentMethod string) (*Order, error) {
	order := &Order{
		ID: strings.TrimSpace(id),
		Customer: Customer{
			Name:  strings.TrimSpace(customer.Name),
			Email: strings.TrimSpace(customer.Email),
		},
		Item: LineItem{
			ProductRef:  strings.TrimSpace(item.ProductRef),
			ProductName: strings.TrimSpace(item.ProductName),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		},
		Status:          StatusPending,
		DeliveryAddress: strings.TrimSpace(deliveryAddress),
		PaymentMethod:   strings.TrimSpace(paymentMethod),
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = DefaultPaymentMethod
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// Validate enforces invariants on the aggregate.
func (o *Order) Validate() error {
	if o.Customer.Name == "" {
		return ErrInvalidCustomerName
	}
	if _, err := mail.ParseAddress(o.Customer.Email); err != nil {
		return ErrInvalidEmail
	}
	if o.Item.ProductRef == "" {
		return ErrInvalidProductRef
	}
	if o.Item.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if o.Item.UnitPrice.IsNegative() {
		return ErrInvalidUnitPrice
	}
	if o.DeliveryAddress == "" {
		return ErrInvalidAddress
	}
	if !isValidStatus(o.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// Total is the unrounded order value.
func (o *Order) Total() decimal.Decimal {
	return o.Item.UnitPrice.Mul(decimal.NewFromInt(int64(o.Item.Quantity)))
}

// TransitionTo moves the order to status. Re-applying the current status reports
// changed=false and leaves the order untouched.
func (o *Order) TransitionTo(status Status, now time.Time) (bool, error) {
	if !isValidStatus(status) {
		return false, ErrInvalidStatus
	}
	if status == o.Status {
		return false, nil
	}
	if !CanTransition(o.Status, status) {
		return false, ErrInvalidTransition
	}
	o.Status = status
	o.UpdatedAt = now
	return true, nil
}

// CanTransition reports whether from -> to is a legal forward move.
func CanTransition(from, to Status) bool {
	switch to {
	case StatusCancelled:
		return from == StatusPending || from == StatusShipped
	case StatusShipped, StatusDelivered:
		if from == StatusCancelled {
			return false
		}
		return rank(to) > rank(from)
	default:
		return false
	}
}

// ParseStatus normalizes raw input into a known Status.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !isValidStatus(status) {
		return "", ErrInvalidStatus
	}
	return status, nil
}

func rank(status Status) int {
	switch status {
	case StatusPending:
		return 0
	case StatusShipped:
		return 1
	case StatusDelivered:
		return 2
	default:
		return -1
	}
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusPending, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}
