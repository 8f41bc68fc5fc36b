package app

import (
	"context"

	catalog "github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/domain"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/delivery"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/order-service/domain"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/order-service/statuslog"
)

// OrderRepository is implemented by sqlite.OrderRepository.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, status *domain.OrderStatus) ([]*domain.Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, apply func(o *domain.Order) (*statuslog.Entry, error)) (*domain.Order, error)
	History(ctx context.Context, orderID string) ([]statuslog.Entry, error)
}

// Catalog is the live product and option source used to re-check
// submissions.
type Catalog interface {
	Product(ctx context.Context, id int64) (catalog.Product, error)
	OptionGroups(ctx context.Context, productID int64) ([]catalog.OptionGroup, error)
}

// FeeQuoter resolves delivery fees against the live table.
type FeeQuoter interface {
	Quote(ctx context.Context, city string, pickup bool) (delivery.Quote, error)
}
