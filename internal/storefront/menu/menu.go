// Package menu backs the storefront product page: it loads a product's option
// groups and adds configured products to the cart.
package menu

import (
	"context"
	"log/slog"

	catalog "github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/domain"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/selection"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/storefront/cart"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/storefront/client"
)

// API is implemented by *client.Client.
type API interface {
	OptionGroups(ctx context.Context, productID int64) ([]catalog.OptionGroup, error)
}

var _ API = (*client.Client)(nil)

type Page struct {
	api  API
	cart *cart.Store
}

func New(api API, c *cart.Store) *Page {
	return &Page{api: api, cart: c}
}

// AddToCart fetches the product's groups and adds the configuration only when
// every group accepts it. Selection problems come back as *selection.Violation
// values, which Violations extracts for display.
func (pg *Page) AddToCart(ctx context.Context, p catalog.Product, chosen []int64, quantity int, notes string) error {
	groups, err := pg.api.OptionGroups(ctx, p.ID)
	if err != nil {
		return err
	}
	if err := pg.cart.AddConfigured(p, groups, chosen, quantity, notes); err != nil {
		slog.DebugContext(ctx, "add to cart blocked", "product_id", p.ID, "error", err)
		return err
	}
	return nil
}

// Violations lists the group problems behind an AddToCart error.
func Violations(err error) []*selection.Violation {
	return selection.Violations(err)
}
