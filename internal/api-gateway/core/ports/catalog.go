package ports

import (
	"context"

	catalogapp "github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/app"
	catalog "github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/domain"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/delivery"
)

var (
	_ OptionCatalog = (*catalogapp.OptionCatalog)(nil)
	_ DeliveryTable = (*delivery.Service)(nil)
)

type OptionCatalog interface {
	OptionGroups(ctx context.Context, productID int64) ([]catalog.OptionGroup, error)
}

type DeliveryTable interface {
	Cities(ctx context.Context) ([]delivery.City, error)
}

// HealthChecker reports whether a backing store answers.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
