package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	catalog "github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/domain"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/pricing"
)

// Order is a permanent record. DeliveryFee, Subtotal and Total are fixed at
// creation; only Status and UpdatedAt change afterwards.
type Order struct {
	ID             string
	CustomerName   string
	Phone          string
	SecondaryPhone string
	Address        string
	City           string
	Pickup         bool
	PaymentMethod  string
	Notes          string
	DeliveryFee    decimal.Decimal
	Subtotal       decimal.Decimal
	Total          decimal.Decimal
	Status         OrderStatus
	Items          []OrderItem
	IdempotencyKey string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OrderItem snapshots the product and options as charged. It is never
// re-priced from the catalog.
type OrderItem struct {
	ID          int64
	OrderID     string
	ProductID   int64
	ProductName string
	Category    string
	Quantity    int
	UnitPrice   decimal.Decimal
	Options     []catalog.SelectedOption
	Notes       string
}

func (i OrderItem) PricedUnit() decimal.Decimal { return i.UnitPrice }
func (i OrderItem) PricedQuantity() int         { return i.Quantity }

func (i OrderItem) Subtotal() decimal.Decimal {
	return pricing.LineTotal(i.UnitPrice, i.Quantity)
}

// Reprice recomputes Subtotal and Total from the frozen items and fee.
func (o *Order) Reprice() {
	o.Subtotal = pricing.Subtotal(o.Items)
	o.Total = pricing.Total(o.Subtotal, o.DeliveryFee)
}

// Consistent reports whether the stored totals match the items.
func (o *Order) Consistent() bool {
	sub := pricing.Subtotal(o.Items)
	return pricing.Round(sub).Equal(pricing.Round(o.Subtotal)) &&
		pricing.Round(pricing.Total(sub, o.DeliveryFee)).Equal(pricing.Round(o.Total))
}

var ErrOrderNotFound = errors.New("order: not found")
