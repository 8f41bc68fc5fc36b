package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// SelectionType controls how many options of a group a shopper may pick.
type SelectionType string

const (
	SelectionSingle   SelectionType = "single"
	SelectionMultiple SelectionType = "multiple"
)

// Unbounded is the MaxSelect sentinel for groups without an upper limit.
const Unbounded = 0

var ErrInvalidGroup = errors.New("catalog: invalid option group")

// OptionGroup is a named set of related choices for one product (e.g. "Size").
type OptionGroup struct {
	ID            int64         `json:"id"`
	ProductID     int64         `json:"product_id"`
	Name          string        `json:"name"`
	Required      bool          `json:"required"`
	SelectionType SelectionType `json:"selection_type"`
	MinSelect     int           `json:"min_select"`
	MaxSelect     int           `json:"max_select"`
	DisplayOrder  int           `json:"display_order"`
	Options       []Option      `json:"options"`
}

// Option is a single choice inside a group. When ReplaceBasePrice is set its
// price supersedes the product base price instead of adding to it.
type Option struct {
	ID               int64           `json:"id"`
	GroupID          int64           `json:"group_id"`
	Name             string          `json:"name"`
	Price            decimal.Decimal `json:"price"`
	ReplaceBasePrice bool            `json:"replace_base_price"`
	DisplayOrder     int             `json:"display_order"`
	Active           bool            `json:"active"`
}

// SelectedOption is the frozen copy of a chosen option carried by cart lines
// and order items.
type SelectedOption struct {
	OptionID         int64           `json:"option_id"`
	Name             string          `json:"name"`
	Price            decimal.Decimal `json:"price"`
	ReplaceBasePrice bool            `json:"replace_base_price"`
}

// Snapshot copies the fields an order needs to keep once the catalog changes.
func (o Option) Snapshot() SelectedOption {
	return SelectedOption{
		OptionID:         o.ID,
		Name:             o.Name,
		Price:            o.Price,
		ReplaceBasePrice: o.ReplaceBasePrice,
	}
}

// Bounded reports whether the group has an upper selection limit.
func (g OptionGroup) Bounded() bool {
	return g.MaxSelect != Unbounded
}

// Check enforces the configuration invariants of a group.
func (g OptionGroup) Check() error {
	switch {
	case g.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidGroup)
	case g.SelectionType != SelectionSingle && g.SelectionType != SelectionMultiple:
		return fmt.Errorf("%w: unknown selection type %q", ErrInvalidGroup, g.SelectionType)
	case g.MinSelect < 0 || g.MaxSelect < 0:
		return fmt.Errorf("%w: selection bounds cannot be negative", ErrInvalidGroup)
	case g.Required && g.MinSelect < 1:
		return fmt.Errorf("%w: required group %q needs min_select >= 1", ErrInvalidGroup, g.Name)
	case g.SelectionType == SelectionSingle && g.MaxSelect != 1:
		return fmt.Errorf("%w: single-select group %q needs max_select = 1", ErrInvalidGroup, g.Name)
	case g.Bounded() && g.MaxSelect < g.MinSelect:
		return fmt.Errorf("%w: group %q has max_select below min_select", ErrInvalidGroup, g.Name)
	}
	return nil
}

// Option returns the option with the given id, active or not.
func (g OptionGroup) Option(id int64) (Option, bool) {
	for _, o := range g.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}
