// Package app implements order creation and the status lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalog "github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/domain"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/pricing"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/selection"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/order-service/domain"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/order-service/statuslog"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/pkg/cache"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/pkg/requestctx"
)

// DefaultIdempotencyTTL is how long a submission key maps to its order in
// the cache. The database index keeps the mapping after that.
const DefaultIdempotencyTTL = 24 * time.Hour

// CreateOrderRequest is a checkout submission as received from the client.
// Prices are the client's view and are only compared, never trusted.
type CreateOrderRequest struct {
	CustomerName   string
	Phone          string
	SecondaryPhone string
	Address        string
	City           string
	Pickup         bool
	PaymentMethod  string
	Notes          string
	DeliveryFee    decimal.Decimal
	Total          decimal.Decimal
	Items          []ItemRequest
	IdempotencyKey string
}

type ItemRequest struct {
	ProductID   int64
	ProductName string
	Category    string
	Quantity    int
	UnitPrice   decimal.Decimal
	OptionIDs   []int64
	Notes       string
}

// CreateOrderResult reports the stored order. Replayed is true when the
// idempotency key matched an earlier submission.
type CreateOrderResult struct {
	Order    *domain.Order
	Replayed bool
}

// OrderService owns order creation and status changes.
type OrderService struct {
	orders         OrderRepository
	catalog        Catalog
	fees           FeeQuoter
	cache          cache.Cache
	idempotencyTTL time.Duration
	now            func() time.Time
}

// Option configures an OrderService.
type Option func(*OrderService)

// WithCache enables the idempotency fast path.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *OrderService) {
		s.cache = c
		s.idempotencyTTL = ttl
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *OrderService) { s.now = now }
}

func NewOrderService(orders OrderRepository, cat Catalog, fees FeeQuoter, opts ...Option) *OrderService {
	s := &OrderService{
		orders:         orders,
		catalog:        cat,
		fees:           fees,
		idempotencyTTL: DefaultIdempotencyTTL,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder validates a submission against the live catalog and delivery
// table, then stores the order and its items atomically.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = requestctx.IdempotencyKey(ctx)
	}

	if prior, err := s.replay(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	} else if prior != nil {
		slog.InfoContext(ctx, "order submission replayed",
			"order_id", prior.ID, "idempotency_key", req.IdempotencyKey)
		return &CreateOrderResult{Order: prior, Replayed: true}, nil
	}

	if verr := checkRequired(req); verr != nil {
		return nil, verr
	}

	order, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.orders.Create(ctx, order); err != nil {
		// A concurrent submission with the same key may have won the race.
		if req.IdempotencyKey != "" {
			if prior, ferr := s.orders.FindByIdempotencyKey(ctx, req.IdempotencyKey); ferr == nil {
				return &CreateOrderResult{Order: prior, Replayed: true}, nil
			}
		}
		return nil, fmt.Errorf("order: create: %w", err)
	}

	s.remember(ctx, order)

	slog.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"items", len(order.Items),
		"total", order.Total.StringFixed(2),
		"pickup", order.Pickup,
		"request_id", requestctx.RequestID(ctx),
	)
	return &CreateOrderResult{Order: order}, nil
}

// GetOrder returns one order with its items.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.orders.Get(ctx, id)
}

// ListOrders returns orders newest first. An empty filter lists everything;
// an unrecognised one wraps domain.ErrUnknownStatus.
func (s *OrderService) ListOrders(ctx context.Context, statusFilter string) ([]*domain.Order, error) {
	if statusFilter == "" {
		return s.orders.List(ctx, nil)
	}
	st, err := domain.ParseStatus(statusFilter)
	if err != nil {
		return nil, err
	}
	return s.orders.List(ctx, &st)
}

// UpdateStatus moves an order to a new status. The status, updated_at and
// the log entry are written together; a rejected transition writes nothing
// and returns *domain.TransitionError.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, status string) (*domain.Order, error) {
	to, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	var from domain.OrderStatus
	updated, err := s.orders.UpdateStatus(ctx, orderID, func(o *domain.Order) (*statuslog.Entry, error) {
		from = o.Status
		if err := domain.ApplyTransition(o.Status, to); err != nil {
			return nil, err
		}
		entry := statuslog.NewEntry(ctx, o.ID, o.Status, to)
		entry.ChangedAt = s.now().UTC()
		return entry, nil
	})
	if err != nil {
		var terr *domain.TransitionError
		if errors.As(err, &terr) {
			slog.WarnContext(ctx, "order transition rejected",
				"order_id", orderID, "from", terr.From, "to", terr.To, "reason", terr.Reason)
		}
		return nil, err
	}

	slog.InfoContext(ctx, "order status changed",
		"order_id", orderID, "from", from, "to", updated.Status, "request_id", requestctx.RequestID(ctx))
	return updated, nil
}

// History returns the accepted transitions of an order, oldest first.
func (s *OrderService) History(ctx context.Context, orderID string) ([]statuslog.Entry, error) {
	if _, err := s.orders.Get(ctx, orderID); err != nil {
		return nil, err
	}
	return s.orders.History(ctx, orderID)
}

// build re-derives every price from the live catalog and compares it with
// what the client sent.
func (s *OrderService) build(ctx context.Context, req CreateOrderRequest) (*domain.Order, error) {
	cerr := &ConstraintError{}
	items := make([]domain.OrderItem, 0, len(req.Items))

	for i, it := range req.Items {
		field := fmt.Sprintf("items[%d]", i)

		product, err := s.catalog.Product(ctx, it.ProductID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			cerr.add(field+".product_id", fmt.Sprintf("product %d does not exist", it.ProductID))
			continue
		}
		if err != nil {
			return nil, err
		}
		if !product.Available {
			cerr.add(field+".product_id", fmt.Sprintf("%s is not available", product.Name))
			continue
		}

		groups, err := s.catalog.OptionGroups(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		chosen, err := selection.ValidateProduct(groups, it.OptionIDs)
		if err != nil {
			for _, v := range selection.Violations(err) {
				cerr.add(field+".selected_options", v.Error())
			}
			continue
		}

		unit := pricing.UnitPrice(product.BasePrice, chosen)
		if !pricing.Round(unit).Equal(pricing.Round(it.UnitPrice)) {
			cerr.add(field+".unit_price", fmt.Sprintf("expected %s, got %s", unit.StringFixed(2), it.UnitPrice.StringFixed(2)))
			continue
		}

		items = append(items, domain.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Category:    product.Category,
			Quantity:    it.Quantity,
			UnitPrice:   unit,
			Options:     chosen,
			Notes:       strings.TrimSpace(it.Notes),
		})
	}

	quote, err := s.fees.Quote(ctx, req.City, req.Pickup)
	if err != nil {
		return nil, err
	}
	if !pricing.Round(quote.Fee).Equal(pricing.Round(req.DeliveryFee)) {
		cerr.add("delivery_fee", fmt.Sprintf("expected %s, got %s", quote.Fee.StringFixed(2), req.DeliveryFee.StringFixed(2)))
	}
	if !req.Pickup && !quote.Resolved {
		slog.WarnContext(ctx, "order city has no delivery price", "city", req.City)
	}

	if len(cerr.Fields) > 0 {
		return nil, cerr
	}

	now := s.now().UTC()
	order := &domain.Order{
		ID:             uuid.NewString(),
		CustomerName:   strings.TrimSpace(req.CustomerName),
		Phone:          strings.TrimSpace(req.Phone),
		SecondaryPhone: strings.TrimSpace(req.SecondaryPhone),
		Address:        strings.TrimSpace(req.Address),
		City:           strings.TrimSpace(req.City),
		Pickup:         req.Pickup,
		PaymentMethod:  strings.TrimSpace(req.PaymentMethod),
		Notes:          strings.TrimSpace(req.Notes),
		DeliveryFee:    quote.Fee,
		Status:         domain.StatusPending,
		Items:          items,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.Pickup {
		order.City = ""
	}
	order.Reprice()

	if !pricing.Round(order.Total).Equal(pricing.Round(req.Total)) {
		return nil, &ConstraintError{Fields: []FieldError{{
			Field:   "total",
			Message: fmt.Sprintf("expected %s, got %s", order.Total.StringFixed(2), req.Total.StringFixed(2)),
		}}}
	}
	return order, nil
}

func checkRequired(req CreateOrderRequest) *ValidationError {
	verr := &ValidationError{}
	if strings.TrimSpace(req.CustomerName) == "" {
		verr.add("customer_name", "is required")
	}
	if strings.TrimSpace(req.Phone) == "" {
		verr.add("phone", "is required")
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		verr.add("payment_method", "is required")
	}
	if !req.Pickup {
		if strings.TrimSpace(req.City) == "" {
			verr.add("city", "is required unless the order is a pickup")
		}
		if strings.TrimSpace(req.Address) == "" {
			verr.add("address", "is required unless the order is a pickup")
		}
	}
	if req.DeliveryFee.IsNegative() {
		verr.add("delivery_fee", "must not be negative")
	}
	if len(req.Items) == 0 {
		verr.add("items", "cart is empty")
	}
	for i, it := range req.Items {
		if it.Quantity < 1 {
			verr.add(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
		}
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func (s *OrderService) replay(ctx context.Context, key string) (*domain.Order, error) {
	if key == "" {
		return nil, nil
	}

	if s.cache != nil {
		id, err := s.cache.Get(ctx, s.cache.GenerateKey("idempotency", key))
		if err != nil {
			slog.WarnContext(ctx, "idempotency cache read failed", "error", err)
		} else if id != "" {
			o, err := s.orders.Get(ctx, id)
			if err == nil {
				return o, nil
			}
			if !errors.Is(err, domain.ErrOrderNotFound) {
				return nil, err
			}
		}
	}

	o, err := s.orders.FindByIdempotencyKey(ctx, key)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *OrderService) remember(ctx context.Context, o *domain.Order) {
	if s.cache == nil || o.IdempotencyKey == "" {
		return
	}
	key := s.cache.GenerateKey("idempotency", o.IdempotencyKey)
	if err := s.cache.Set(ctx, key, o.ID, s.idempotencyTTL); err != nil {
		slog.WarnContext(ctx, "idempotency cache write failed", "order_id", o.ID, "error", err)
	}
}
