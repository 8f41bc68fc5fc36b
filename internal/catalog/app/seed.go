package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"

	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/domain"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/delivery"
)

// SeedFile is the on-disk shape of CATALOG_SEED_FILE.
type SeedFile struct {
	Products []SeedProduct `json:"products"`
	Cities   []SeedCity    `json:"delivery_cities"`
}

type SeedProduct struct {
	Name      string               `json:"name"`
	BasePrice decimal.Decimal      `json:"base_price"`
	Category  string               `json:"category"`
	Available *bool                `json:"available,omitempty"`
	Groups    []domain.OptionGroup `json:"option_groups"`
}

type SeedCity struct {
	City  string          `json:"city"`
	Price decimal.Decimal `json:"price"`
}

// CityWriter stores delivery fees. sqlite.DeliveryRepository implements it.
type CityWriter interface {
	UpsertCity(ctx context.Context, c delivery.City) error
}

// LoadSeedFile reads and decodes a seed file.
func LoadSeedFile(path string) (*SeedFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read seed %q: %w", path, err)
	}
	var f SeedFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("catalog: decode seed %q: %w", path, err)
	}
	return &f, nil
}

// Seed inserts the products, their groups and the delivery table. Products
// are always inserted as new rows, so it is meant for an empty database.
func Seed(ctx context.Context, repo Repository, cities CityWriter, f *SeedFile) error {
	for _, sp := range f.Products {
		p := domain.Product{Name: sp.Name, BasePrice: sp.BasePrice, Category: sp.Category, Available: true}
		if sp.Available != nil {
			p.Available = *sp.Available
		}
		if err := repo.CreateProduct(ctx, &p); err != nil {
			return fmt.Errorf("catalog: seed product %q: %w", sp.Name, err)
		}

		for _, g := range sp.Groups {
			g.ProductID = p.ID
			// Seeded options start active; retire them later via SetOptionActive.
			for i := range g.Options {
				g.Options[i].Active = true
			}
			if err := repo.CreateGroup(ctx, &g); err != nil {
				return fmt.Errorf("catalog: seed group %q of %q: %w", g.Name, sp.Name, err)
			}
		}
	}

	for _, sc := range f.Cities {
		if err := cities.UpsertCity(ctx, delivery.City{Name: sc.City, Fee: sc.Price, Active: true}); err != nil {
			return fmt.Errorf("catalog: seed city %q: %w", sc.City, err)
		}
	}

	slog.InfoContext(ctx, "catalog seeded", "products", len(f.Products), "cities", len(f.Cities))
	return nil
}
