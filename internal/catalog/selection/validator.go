// Package selection enforces per-group cardinality rules on chosen options.
//
// The storefront runs these checks before a configured product may be added
// to the cart, and the order service runs them again on submission against
// the live catalog.
package selection

import (
	"errors"
	"fmt"

	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/domain"
)

// Reason classifies a selection violation.
type Reason string

const (
	ReasonRequired   Reason = "required group unselected"
	ReasonTooFew     Reason = "too few options selected"
	ReasonTooMany    Reason = "too many options selected"
	ReasonNotInGroup Reason = "option not in group"
	ReasonDuplicate  Reason = "option selected twice"
)

// Violation describes why a group rejected a selection.
type Violation struct {
	GroupID   int64
	GroupName string
	Reason    Reason
	OptionID  int64
}

func (v *Violation) Error() string {
	switch v.Reason {
	case ReasonNotInGroup, ReasonDuplicate:
		if v.GroupName == "" {
			return fmt.Sprintf("%s: option %d", v.Reason, v.OptionID)
		}
		return fmt.Sprintf("%s %q: option %d", v.Reason, v.GroupName, v.OptionID)
	default:
		return fmt.Sprintf("%s: %q", v.Reason, v.GroupName)
	}
}

// Validate checks chosen option ids against a single group.
func Validate(group domain.OptionGroup, chosen []int64) error {
	seen := make(map[int64]struct{}, len(chosen))
	for _, id := range chosen {
		if _, dup := seen[id]; dup {
			return violation(group, ReasonDuplicate, id)
		}
		seen[id] = struct{}{}

		opt, ok := group.Option(id)
		if !ok || !opt.Active {
			return violation(group, ReasonNotInGroup, id)
		}
	}

	count := len(chosen)
	if group.Required && count == 0 {
		return violation(group, ReasonRequired, 0)
	}
	if count < group.MinSelect {
		return violation(group, ReasonTooFew, 0)
	}
	if group.Bounded() && count > group.MaxSelect {
		return violation(group, ReasonTooMany, 0)
	}
	return nil
}

// ValidateProduct validates a flat list of option ids against every group of a
// product and returns the chosen options in group display order. The result
// is the conjunction of all groups; every violation found is reported.
func ValidateProduct(groups []domain.OptionGroup, chosen []int64) ([]domain.SelectedOption, error) {
	owner := make(map[int64]int, len(chosen))
	for gi, g := range groups {
		for _, o := range g.Options {
			owner[o.ID] = gi
		}
	}

	buckets := make([][]int64, len(groups))
	var errs []error
	for _, id := range chosen {
		gi, ok := owner[id]
		if !ok {
			errs = append(errs, &Violation{Reason: ReasonNotInGroup, OptionID: id})
			continue
		}
		buckets[gi] = append(buckets[gi], id)
	}

	for gi, g := range groups {
		if err := Validate(g, buckets[gi]); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	selected := make([]domain.SelectedOption, 0, len(chosen))
	for gi, g := range groups {
		for _, id := range buckets[gi] {
			opt, _ := g.Option(id)
			selected = append(selected, opt.Snapshot())
		}
	}
	return selected, nil
}

// Violations flattens an error returned by Validate or ValidateProduct into
// its violations, in the order they were found.
func Violations(err error) []*Violation {
	var out []*Violation
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, Violations(e)...)
		}
		return out
	}
	var v *Violation
	if errors.As(err, &v) {
		out = append(out, v)
	}
	return out
}

func violation(g domain.OptionGroup, reason Reason, optionID int64) *Violation {
	return &Violation{GroupID: g.ID, GroupName: g.Name, Reason: reason, OptionID: optionID}
}
