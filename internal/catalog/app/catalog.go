// Package app serves the option catalog to the storefront and the order
// service.
package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/domain"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/pkg/cache"
)

// Repository is the catalog read/write port. sqlite.CatalogRepository
// implements it.
type Repository interface {
	Product(ctx context.Context, id int64) (domain.Product, error)
	OptionGroups(ctx context.Context, productID int64) ([]domain.OptionGroup, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	CreateGroup(ctx context.Context, g *domain.OptionGroup) error
	CreateOption(ctx context.Context, o *domain.Option) error
	SetOptionActive(ctx context.Context, id int64, active bool) error
	DeleteGroup(ctx context.Context, id int64) error
}

// OptionCatalog reads option groups through a cache.
type OptionCatalog struct {
	repo  Repository
	cache cache.Cache
	ttl   time.Duration
}

// NewOptionCatalog returns a catalog; c may be nil to disable caching.
func NewOptionCatalog(repo Repository, c cache.Cache, ttl time.Duration) *OptionCatalog {
	return &OptionCatalog{repo: repo, cache: c, ttl: ttl}
}

// OptionGroups returns the groups of a product ordered for display. An
// unknown product yields an empty slice.
func (c *OptionCatalog) OptionGroups(ctx context.Context, productID int64) ([]domain.OptionGroup, error) {
	key := c.key(productID)
	if groups, ok := c.cached(ctx, key); ok {
		return groups, nil
	}

	groups, err := c.repo.OptionGroups(ctx, productID)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if b, err := json.Marshal(groups); err == nil {
			if err := c.cache.Set(ctx, key, string(b), c.ttl); err != nil {
				slog.WarnContext(ctx, "catalog cache write failed", "product_id", productID, "error", err)
			}
		}
	}
	return groups, nil
}

// Product returns a product, or an error wrapping domain.ErrProductNotFound.
func (c *OptionCatalog) Product(ctx context.Context, id int64) (domain.Product, error) {
	return c.repo.Product(ctx, id)
}

// CreateGroup adds a group and drops the cached groups of its product.
func (c *OptionCatalog) CreateGroup(ctx context.Context, g *domain.OptionGroup) error {
	if err := c.repo.CreateGroup(ctx, g); err != nil {
		return err
	}
	c.invalidate(ctx, g.ProductID)
	return nil
}

// CreateOption adds an option to one of the product's groups.
func (c *OptionCatalog) CreateOption(ctx context.Context, productID int64, o *domain.Option) error {
	if err := c.repo.CreateOption(ctx, o); err != nil {
		return err
	}
	c.invalidate(ctx, productID)
	return nil
}

// SetOptionActive enables or retires an option of the given product. A
// retired option disappears from OptionGroups at once.
func (c *OptionCatalog) SetOptionActive(ctx context.Context, productID, optionID int64, active bool) error {
	if err := c.repo.SetOptionActive(ctx, optionID, active); err != nil {
		return err
	}
	c.invalidate(ctx, productID)
	return nil
}

// DeleteGroup removes a group of the given product.
func (c *OptionCatalog) DeleteGroup(ctx context.Context, productID, groupID int64) error {
	if err := c.repo.DeleteGroup(ctx, groupID); err != nil {
		return err
	}
	c.invalidate(ctx, productID)
	return nil
}

func (c *OptionCatalog) key(productID int64) string {
	if c.cache == nil {
		return ""
	}
	return c.cache.GenerateKey("option-groups", strconv.FormatInt(productID, 10))
}

func (c *OptionCatalog) cached(ctx context.Context, key string) ([]domain.OptionGroup, bool) {
	if c.cache == nil {
		return nil, false
	}
	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "catalog cache read failed", "key", key, "error", err)
		return nil, false
	}
	if raw == "" {
		return nil, false
	}
	var groups []domain.OptionGroup
	if err := json.Unmarshal([]byte(raw), &groups); err != nil {
		slog.WarnContext(ctx, "catalog cache entry unreadable", "key", key, "error", err)
		return nil, false
	}
	return groups, true
}

func (c *OptionCatalog) invalidate(ctx context.Context, productID int64) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Delete(ctx, c.key(productID)); err != nil {
		slog.WarnContext(ctx, "catalog cache invalidate failed", "product_id", productID, "error", err)
	}
}
