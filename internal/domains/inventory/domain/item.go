package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultReorderThreshold applies when an item is stocked without an explicit threshold.
const DefaultReorderThreshold = 10

var (
	ErrInvalidSKU       = errors.New("sku is required")
	ErrInvalidName      = errors.New("item name is required")
	ErrNegativeStock    = errors.New("stock quantity must not be negative")
	ErrNegativeMoney    = errors.New("cost and price must not be negative")
	ErrInvalidThreshold = errors.New("reorder threshold must not be negative")
)

// Item is a stocked product.
type Item struct {
	ID               string
	SKU              string
	Name             string
	StockQuantity    int
	ReorderThreshold int
	Cost             decimal.Decimal
	Price            decimal.Decimal
	Location         string
	Version          int64
	UpdatedAt        time.Time
}

// Adjustment describes the outcome of a stock change.
type Adjustment struct {
	ItemID       string
	SKU          string
	Requested    int
	Applied      int
	Previous     int
	New          int
	Clamped      bool
	BelowReorder bool
}

// NewItem validates and constructs an Item.
func NewItem(id, sku, name string, stock int, cost, price decimal.Decimal, location string) (*Item, error) {
	item := &Item{
		ID:               strings.TrimSpace(id),
		SKU:              strings.TrimSpace(sku),
		Name:             strings.TrimSpace(name),
		StockQuantity:    stock,
		ReorderThreshold: DefaultReorderThreshold,
		Cost:             cost,
		Price:            price,
		Location:         strings.TrimSpace(location),
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// Validate enforces invariants on the item.
func (i *Item) Validate() error {
	if i.SKU == "" {
		return ErrInvalidSKU
	}
	if i.Name == "" {
		return ErrInvalidName
	}
	if i.StockQuantity < 0 {
		return ErrNegativeStock
	}
	if i.ReorderThreshold < 0 {
		return ErrInvalidThreshold
	}
	if i.Cost.IsNegative() || i.Price.IsNegative() {
		return ErrNegativeMoney
	}
	return nil
}

// Adjust changes stock by delta, clamping at zero.
func (i *Item) Adjust(delta int) Adjustment {
	previous := i.StockQuantity
	next := previous + delta
	clamped := false
	if next < 0 {
		next = 0
		clamped = true
	}
	i.StockQuantity = next
	return Adjustment{
		ItemID:       i.ID,
		SKU:          i.SKU,
		Requested:    delta,
		Applied:      next - previous,
		Previous:     previous,
		New:          next,
		Clamped:      clamped,
		BelowReorder: next <= i.ReorderThreshold,
	}
}

// LowStock reports whether the item sits at or below its reorder threshold.
func (i *Item) LowStock() bool {
	return i.StockQuantity <= i.ReorderThreshold
}

// Matches reports whether ref names this item by ID or SKU.
func (i *Item) Matches(ref string) bool {
	ref = strings.TrimSpace(ref)
	return ref != "" && (ref == i.ID || strings.EqualFold(ref, i.SKU))
}
