// Package domain holds the catalog types the pricing and ordering core reads.
// Products are owned by the catalog; the core never mutates them.
package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        int64
	Name      string
	BasePrice decimal.Decimal
	Category  string
	Available bool
}

var ErrProductNotFound = errors.New("catalog: product not found")
