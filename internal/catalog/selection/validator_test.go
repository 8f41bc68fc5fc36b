package selection

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/domain"
)

func sizeGroup() domain.OptionGroup {
	return domain.OptionGroup{
		ID: 1, Name: "Size", Required: true, SelectionType: domain.SelectionSingle, MinSelect: 1, MaxSelect: 1,
		Options: []domain.Option{
			{ID: 10, GroupID: 1, Name: "Small", Price: decimal.RequireFromString("20.00"), ReplaceBasePrice: true, Active: true},
			{ID: 11, GroupID: 1, Name: "Large", Price: decimal.RequireFromString("35.00"), ReplaceBasePrice: true, Active: true},
			{ID: 12, GroupID: 1, Name: "Family", Price: decimal.RequireFromString("50.00"), ReplaceBasePrice: true, Active: false},
		},
	}
}

func extrasGroup() domain.OptionGroup {
	return domain.OptionGroup{
		ID: 2, Name: "Extras", SelectionType: domain.SelectionMultiple, MaxSelect: 2,
		Options: []domain.Option{
			{ID: 20, GroupID: 2, Name: "Extra nuts", Price: decimal.RequireFromString("5.00"), Active: true},
			{ID: 21, GroupID: 2, Name: "Honey", Price: decimal.RequireFromString("3.00"), Active: true},
			{ID: 22, GroupID: 2, Name: "Cream", Price: decimal.RequireFromString("4.00"), Active: true},
		},
	}
}

func reasonOf(t *testing.T, err error) Reason {
	t.Helper()
	var v *Violation
	require.True(t, errors.As(err, &v), "expected a *Violation, got %v", err)
	return v.Reason
}

func TestValidate_RequiredSingleNeedsExactlyOne(t *testing.T) {
	g := sizeGroup()

	assert.NoError(t, Validate(g, []int64{11}))
	assert.Equal(t, ReasonRequired, reasonOf(t, Validate(g, nil)))
	assert.Equal(t, ReasonTooMany, reasonOf(t, Validate(g, []int64{10, 11})))
}

func TestValidate_OptionalSingleAllowsZeroOrOne(t *testing.T) {
	g := sizeGroup()
	g.Required = false
	g.MinSelect = 0

	assert.NoError(t, Validate(g, nil))
	assert.NoError(t, Validate(g, []int64{10}))
	assert.Equal(t, ReasonTooMany, reasonOf(t, Validate(g, []int64{10, 11})))
}

func TestValidate_RejectsForeignAndInactiveOptions(t *testing.T) {
	g := sizeGroup()

	assert.Equal(t, ReasonNotInGroup, reasonOf(t, Validate(g, []int64{20})))
	assert.Equal(t, ReasonNotInGroup, reasonOf(t, Validate(g, []int64{12})))
}

func TestValidate_RejectsDuplicates(t *testing.T) {
	assert.Equal(t, ReasonDuplicate, reasonOf(t, Validate(extrasGroup(), []int64{20, 20})))
}

func TestValidate_MinSelect(t *testing.T) {
	g := extrasGroup()
	g.MinSelect = 2

	assert.Equal(t, ReasonTooFew, reasonOf(t, Validate(g, []int64{20})))
	assert.NoError(t, Validate(g, []int64{20, 21}))
}

func TestValidate_Unbounded(t *testing.T) {
	g := extrasGroup()
	g.MaxSelect = domain.Unbounded

	assert.NoError(t, Validate(g, []int64{20, 21, 22}))
}

func TestValidateProduct_NoGroups(t *testing.T) {
	selected, err := ValidateProduct(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, selected)
}

func TestValidateProduct_ResolvesInGroupOrder(t *testing.T) {
	groups := []domain.OptionGroup{sizeGroup(), extrasGroup()}

	selected, err := ValidateProduct(groups, []int64{20, 11})
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, int64(11), selected[0].OptionID)
	assert.True(t, selected[0].ReplaceBasePrice)
	assert.Equal(t, int64(20), selected[1].OptionID)
	assert.Equal(t, "Extra nuts", selected[1].Name)
}

func TestValidateProduct_ReportsEveryViolation(t *testing.T) {
	groups := []domain.OptionGroup{sizeGroup(), extrasGroup()}

	_, err := ValidateProduct(groups, []int64{99, 20, 21, 22})
	require.Error(t, err)

	reasons := map[Reason]bool{}
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		reasons[reasonOf(t, e)] = true
	}
	assert.True(t, reasons[ReasonNotInGroup])
	assert.True(t, reasons[ReasonRequired])
	assert.True(t, reasons[ReasonTooMany])
}

func TestViolations_Flattens(t *testing.T) {
	_, err := ValidateProduct([]domain.OptionGroup{sizeGroup(), extrasGroup()}, []int64{99})

	vs := Violations(err)
	require.Len(t, vs, 2)
	assert.Equal(t, ReasonNotInGroup, vs[0].Reason)
	assert.Equal(t, int64(99), vs[0].OptionID)
	assert.Equal(t, ReasonRequired, vs[1].Reason)
	assert.Equal(t, "Size", vs[1].GroupName)

	assert.Empty(t, Violations(nil))
	assert.Empty(t, Violations(errors.New("other")))
}
