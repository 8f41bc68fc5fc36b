package sqlite

import (
	"context"
	"fmt"

	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/delivery"
)

// DeliveryRepository stores the flat fee per city.
type DeliveryRepository struct {
	db *DB
}

var _ delivery.Repository = (*DeliveryRepository)(nil)

func NewDeliveryRepository(db *DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

// ListActiveCities returns active rows ordered by city name.
func (r *DeliveryRepository) ListActiveCities(ctx context.Context) ([]delivery.City, error) {
	const q = `SELECT city, price, active FROM delivery_city_prices WHERE active = 1 ORDER BY city`

	rows, err := r.db.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list delivery cities: %w", err)
	}
	defer rows.Close()

	cities := []delivery.City{}
	for rows.Next() {
		var c delivery.City
		if err := rows.Scan(&c.Name, &c.Fee, &c.Active); err != nil {
			return nil, fmt.Errorf("sqlite: scan delivery city: %w", err)
		}
		cities = append(cities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate delivery cities: %w", err)
	}
	return cities, nil
}

// UpsertCity creates or replaces the fee for a city.
func (r *DeliveryRepository) UpsertCity(ctx context.Context, c delivery.City) error {
	if c.Name == "" {
		return fmt.Errorf("sqlite: city name is required")
	}
	if c.Fee.IsNegative() {
		return fmt.Errorf("sqlite: city %q has a negative fee", c.Name)
	}

	const q = `
		INSERT INTO delivery_city_prices (city, price, active) VALUES (?, ?, ?)
		ON CONFLICT(city) DO UPDATE SET price = excluded.price, active = excluded.active`

	if _, err := r.db.db.ExecContext(ctx, q, c.Name, money(c.Fee), boolToInt(c.Active)); err != nil {
		return fmt.Errorf("sqlite: upsert delivery city %q: %w", c.Name, err)
	}
	return nil
}
