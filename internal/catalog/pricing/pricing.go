// Package pricing computes unit prices and order totals from a base price and
// frozen option snapshots. Nothing here reads live catalog state, so any
// persisted order can be re-priced from its own items.
//
// Values are never rounded here; callers round to two places when they
// persist or display.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/domain"
)

// UnitPrice returns the final price of one unit. The most expensive option
// flagged ReplaceBasePrice (lowest id on a tie) stands in for the base price;
// every other option is added on top.
func UnitPrice(base decimal.Decimal, opts []domain.SelectedOption) decimal.Decimal {
	effective := base
	var replacing *domain.SelectedOption
	extras := decimal.Zero

	for i := range opts {
		o := &opts[i]
		if !o.ReplaceBasePrice {
			extras = extras.Add(o.Price)
			continue
		}
		if replacing == nil ||
			o.Price.GreaterThan(replacing.Price) ||
			(o.Price.Equal(replacing.Price) && o.OptionID < replacing.OptionID) {
			replacing = o
		}
	}
	if replacing != nil {
		effective = replacing.Price
	}
	return effective.Add(extras)
}

// LineTotal is the unit price times quantity.
func LineTotal(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}

// Line is anything carrying a charged unit price and a quantity.
type Line interface {
	PricedUnit() decimal.Decimal
	PricedQuantity() int
}

// Subtotal sums the line totals.
func Subtotal[L Line](lines []L) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(LineTotal(l.PricedUnit(), l.PricedQuantity()))
	}
	return sum
}

// Total adds the delivery fee to a subtotal.
func Total(subtotal, deliveryFee decimal.Decimal) decimal.Decimal {
	return subtotal.Add(deliveryFee)
}

// Round is the single rounding point used when persisting or displaying money.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
