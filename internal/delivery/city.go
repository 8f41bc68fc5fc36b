// Package delivery resolves flat delivery fees by exact city name.
package delivery

import (
	"context"

	"github.com/shopspring/decimal"
)

// City is one row of the delivery price table.
type City struct {
	Name   string          `json:"city"`
	Fee    decimal.Decimal `json:"price"`
	Active bool            `json:"-"`
}

// Quote is the outcome of a fee lookup. Resolved is false when the fee fell
// back to zero because the order is a pickup or the city is not listed.
type Quote struct {
	Fee      decimal.Decimal
	Resolved bool
	Pickup   bool
}

// Resolve looks a city up by exact name. Unknown cities and pickups cost zero.
func Resolve(cities []City, city string, pickup bool) Quote {
	if pickup {
		return Quote{Fee: decimal.Zero, Pickup: true}
	}
	for _, c := range cities {
		if c.Active && c.Name == city {
			return Quote{Fee: c.Fee, Resolved: true}
		}
	}
	return Quote{Fee: decimal.Zero}
}

// Repository is the port to the delivery price table.
type Repository interface {
	ListActiveCities(ctx context.Context) ([]City, error)
}
