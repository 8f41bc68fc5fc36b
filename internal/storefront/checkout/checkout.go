// Package checkout turns the cart and a customer form into a submitted order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/api-gateway/core/wire"
	catalog "github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/domain"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/pricing"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/selection"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/coordinator"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/delivery"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/storefront/cart"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/storefront/client"
)

// ErrSubmitInFlight is returned when Submit is called while another
// submission has not settled.
var ErrSubmitInFlight = errors.New("checkout: a submission is already in flight")

// API is the part of the bakery API checkout needs. *client.Client
// implements it.
type API interface {
	OptionGroups(ctx context.Context, productID int64) ([]catalog.OptionGroup, error)
	DeliveryCities(ctx context.Context) ([]delivery.City, error)
	CreateOrder(ctx context.Context, req wire.CreateOrderRequest, idempotencyKey string) (string, error)
}

var _ API = (*client.Client)(nil)

// Form is what the customer typed on the checkout page.
type Form struct {
	CustomerName   string
	Phone          string
	SecondaryPhone string
	Address        string
	City           string
	Pickup         bool
	PaymentMethod  string
	Notes          string
}

// Result describes an accepted order. FeeResolved is false when the fee is
// zero because of a pickup or a city missing from the delivery table.
type Result struct {
	OrderID     string
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
	FeeResolved bool
}

// ValidationError lists form or cart problems found before the order is sent.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "checkout: " + strings.Join(parts, "; ")
}

// Orchestrator submits the cart. Only one submission runs at a time.
type Orchestrator struct {
	api  API
	cart *cart.Store

	mu       sync.Mutex
	inFlight bool
	// The key of a failed attempt is reused while the cart and form are
	// unchanged, so a retry after a lost response cannot create a second order.
	retryKey string
	retrySig string

	newKey func() string
}

func New(api API, c *cart.Store) *Orchestrator {
	return &Orchestrator{api: api, cart: c, newKey: uuid.NewString}
}

// Submit validates the form, re-checks every line's options against the
// current catalog, resolves the delivery fee, posts the order and clears the
// cart. On any error the cart is left as it was.
func (o *Orchestrator) Submit(ctx context.Context, form Form) (*Result, error) {
	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	o.inFlight = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.inFlight = false
		o.mu.Unlock()
	}()

	snap := o.cart.Snapshot()
	if verr := validate(form, snap); verr != nil {
		return nil, verr
	}

	sig := signature(form, snap)
	key := o.keyFor(sig)

	var (
		quote   delivery.Quote
		orderID string
	)
	subtotal := pricing.Subtotal(snap.Lines)

	saga := coordinator.NewOrchestrator("checkout",
		coordinator.FuncStep{
			StepName: "check_selections",
			Do: func(ctx context.Context) error {
				return o.checkSelections(ctx, snap)
			},
		},
		coordinator.FuncStep{
			StepName: "resolve_delivery_fee",
			Do: func(ctx context.Context) error {
				if form.Pickup {
					quote = delivery.Resolve(nil, form.City, true)
					return nil
				}
				cities, err := o.api.DeliveryCities(ctx)
				if err != nil {
					return err
				}
				quote = delivery.Resolve(cities, form.City, false)
				return nil
			},
		},
		coordinator.FuncStep{
			StepName: "create_order",
			Do: func(ctx context.Context) error {
				req := buildRequest(form, snap, quote.Fee, pricing.Total(subtotal, quote.Fee))
				id, err := o.api.CreateOrder(ctx, req, key)
				if err != nil {
					return err
				}
				orderID = id
				return nil
			},
		},
		coordinator.FuncStep{
			StepName: "clear_cart",
			Do: func(context.Context) error {
				o.cart.Clear()
				return nil
			},
		},
	)

	if err := saga.Start(ctx); err != nil {
		slog.WarnContext(ctx, "checkout failed", "error", err, "transient", client.IsTransient(err))
		return nil, err
	}

	o.forgetKey()
	if !quote.Resolved && !quote.Pickup {
		slog.WarnContext(ctx, "order submitted without a delivery price", "order_id", orderID, "city", form.City)
	}

	return &Result{
		OrderID:     orderID,
		Subtotal:    subtotal,
		DeliveryFee: quote.Fee,
		Total:       pricing.Total(subtotal, quote.Fee),
		FeeResolved: quote.Resolved,
	}, nil
}

// checkSelections runs the option validator over every cart line so a
// selection the catalog does not accept is never posted.
func (o *Orchestrator) checkSelections(ctx context.Context, snap cart.Snapshot) error {
	groups := make(map[int64][]catalog.OptionGroup)
	fields := map[string]string{}
	for i, l := range snap.Lines {
		g, ok := groups[l.ProductID]
		if !ok {
			var err error
			if g, err = o.api.OptionGroups(ctx, l.ProductID); err != nil {
				return err
			}
			groups[l.ProductID] = g
		}

		ids := make([]int64, len(l.Options))
		for j, so := range l.Options {
			ids[j] = so.OptionID
		}
		if _, err := selection.ValidateProduct(g, ids); err != nil {
			msgs := make([]string, 0, 1)
			for _, v := range selection.Violations(err) {
				msgs = append(msgs, v.Error())
			}
			fields[fmt.Sprintf("items[%d].selected_options", i)] = strings.Join(msgs, "; ")
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (o *Orchestrator) keyFor(sig string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.retryKey == "" || o.retrySig != sig {
		o.retryKey = o.newKey()
		o.retrySig = sig
	}
	return o.retryKey
}

func (o *Orchestrator) forgetKey() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.retryKey, o.retrySig = "", ""
}

func validate(form Form, snap cart.Snapshot) *ValidationError {
	fields := map[string]string{}
	if len(snap.Lines) == 0 {
		fields["cart"] = "cart is empty"
	}
	if strings.TrimSpace(form.CustomerName) == "" {
		fields["customer_name"] = "is required"
	}
	if strings.TrimSpace(form.Phone) == "" {
		fields["phone"] = "is required"
	}
	if strings.TrimSpace(form.PaymentMethod) == "" {
		fields["payment_method"] = "choose a payment method"
	}
	if !form.Pickup {
		if strings.TrimSpace(form.City) == "" {
			fields["city"] = "choose a city or pickup"
		}
		if strings.TrimSpace(form.Address) == "" {
			fields["address"] = "is required for delivery"
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func buildRequest(form Form, snap cart.Snapshot, fee, total decimal.Decimal) wire.CreateOrderRequest {
	items := make([]wire.CreateOrderItemDTO, len(snap.Lines))
	for i, l := range snap.Lines {
		refs := make([]wire.SelectedOptionRef, len(l.Options))
		for j, so := range l.Options {
			refs[j] = wire.SelectedOptionRef{OptionID: so.OptionID}
		}
		items[i] = wire.CreateOrderItemDTO{
			ProductID:       l.ProductID,
			ProductName:     l.ProductName,
			Category:        l.Category,
			Quantity:        l.Quantity,
			UnitPrice:       pricing.Round(l.UnitPrice),
			SelectedOptions: refs,
			Notes:           l.Notes,
		}
	}

	req := wire.CreateOrderRequest{
		CustomerName:   strings.TrimSpace(form.CustomerName),
		Phone:          strings.TrimSpace(form.Phone),
		SecondaryPhone: strings.TrimSpace(form.SecondaryPhone),
		Pickup:         form.Pickup,
		DeliveryFee:    pricing.Round(fee),
		Total:          pricing.Round(total),
		PaymentMethod:  strings.TrimSpace(form.PaymentMethod),
		Notes:          strings.TrimSpace(form.Notes),
		Items:          items,
	}
	if !form.Pickup {
		req.Address = strings.TrimSpace(form.Address)
		req.City = strings.TrimSpace(form.City)
	}
	return req
}

// signature identifies a submission by its form and cart contents.
func signature(form Form, snap cart.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%q|%q|%q|%q|%q|%t|%q|%q", form.CustomerName, form.Phone, form.SecondaryPhone,
		form.Address, form.City, form.Pickup, form.PaymentMethod, form.Notes)
	for _, l := range snap.Lines {
		b.WriteString("|" + l.Key() + "x" + strconv.Itoa(l.Quantity) + ":" + l.Notes)
	}
	return b.String()
}
