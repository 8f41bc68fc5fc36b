package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/api-gateway/core/wire"
	catalog "github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/domain"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/delivery"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/storefront/cart"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/storefront/client"
)

type fakeAPI struct {
	mu        sync.Mutex
	groups    map[int64][]catalog.OptionGroup
	groupsErr error
	cities    []delivery.City
	citiesErr error
	createErr error
	block     chan struct{}

	requests []wire.CreateOrderRequest
	keys     []string
}

func (f *fakeAPI) OptionGroups(_ context.Context, productID int64) ([]catalog.OptionGroup, error) {
	return f.groups[productID], f.groupsErr
}

func (f *fakeAPI) DeliveryCities(context.Context) ([]delivery.City, error) {
	return f.cities, f.citiesErr
}

func (f *fakeAPI) CreateOrder(_ context.Context, req wire.CreateOrderRequest, key string) (string, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	f.keys = append(f.keys, key)
	if f.createErr != nil {
		return "", f.createErr
	}
	return "ord-1", nil
}

func tripoli() []delivery.City {
	return []delivery.City{{Name: "Tripoli", Fee: decimal.RequireFromString("5.00"), Active: true}}
}

func filledCart(t *testing.T) *cart.Store {
	t.Helper()
	c := cart.New()
	p := catalog.Product{ID: 1, Name: "Kunafa", BasePrice: decimal.RequireFromString("20.00"), Category: "sweets"}
	require.NoError(t, c.Add(p, 1, nil, ""))
	return c
}

func deliveryForm() Form {
	return Form{CustomerName: "Sara", Phone: "0911111111", Address: "Main St", City: "Tripoli", PaymentMethod: "cash"}
}

func TestSubmit_TripoliScenario(t *testing.T) {
	api := &fakeAPI{cities: tripoli()}
	c := filledCart(t)

	res, err := New(api, c).Submit(context.Background(), deliveryForm())
	require.NoError(t, err)

	assert.Equal(t, "ord-1", res.OrderID)
	assert.Equal(t, "20.00", res.Subtotal.StringFixed(2))
	assert.Equal(t, "5.00", res.DeliveryFee.StringFixed(2))
	assert.Equal(t, "25.00", res.Total.StringFixed(2))
	assert.True(t, res.FeeResolved)
	assert.Empty(t, c.Lines(), "cart cleared on success")

	require.Len(t, api.requests, 1)
	req := api.requests[0]
	assert.Equal(t, "25.00", req.Total.StringFixed(2))
	assert.Equal(t, "sweets", req.Items[0].Category)
	assert.NotEmpty(t, api.keys[0])
}

func TestSubmit_UnknownCityFeeIsZeroAndUnresolved(t *testing.T) {
	api := &fakeAPI{cities: tripoli()}
	form := deliveryForm()
	form.City = "Unknown"

	res, err := New(api, filledCart(t)).Submit(context.Background(), form)
	require.NoError(t, err)
	assert.True(t, res.DeliveryFee.IsZero())
	assert.False(t, res.FeeResolved)
	assert.Equal(t, "20.00", res.Total.StringFixed(2))
}

func TestSubmit_PickupSkipsDeliveryLookup(t *testing.T) {
	api := &fakeAPI{citiesErr: errors.New("must not be called")}
	form := Form{CustomerName: "Sara", Phone: "0911", Pickup: true, PaymentMethod: "cash"}

	res, err := New(api, filledCart(t)).Submit(context.Background(), form)
	require.NoError(t, err)
	assert.True(t, res.DeliveryFee.IsZero())
	assert.False(t, res.FeeResolved)
	assert.Empty(t, api.requests[0].City)
}

func TestSubmit_ValidationFailsWithoutNetwork(t *testing.T) {
	api := &fakeAPI{}

	_, err := New(api, cart.New()).Submit(context.Background(), Form{})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	for _, f := range []string{"cart", "customer_name", "phone", "payment_method", "city", "address"} {
		assert.Contains(t, verr.Fields, f)
	}
	assert.Empty(t, api.requests)
}

func TestSubmit_FailureLeavesCartAndReusesKey(t *testing.T) {
	api := &fakeAPI{cities: tripoli(), createErr: &client.APIError{StatusCode: 503, Code: "unavailable"}}
	c := filledCart(t)
	o := New(api, c)

	_, err := o.Submit(context.Background(), deliveryForm())
	require.Error(t, err)
	assert.True(t, client.IsTransient(err))
	assert.Len(t, c.Lines(), 1, "cart untouched")

	api.createErr = nil
	_, err = o.Submit(context.Background(), deliveryForm())
	require.NoError(t, err)

	require.Len(t, api.keys, 2)
	assert.Equal(t, api.keys[0], api.keys[1], "retry of the same cart reuses the key")
}

func TestSubmit_ChangedCartGetsNewKey(t *testing.T) {
	api := &fakeAPI{cities: tripoli(), createErr: &client.APIError{StatusCode: 422, Code: "constraint_violation"}}
	c := filledCart(t)
	o := New(api, c)

	_, err := o.Submit(context.Background(), deliveryForm())
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.False(t, client.IsTransient(err))

	c.UpdateQuantity(1, nil, 3)
	_, _ = o.Submit(context.Background(), deliveryForm())

	require.Len(t, api.keys, 2)
	assert.NotEqual(t, api.keys[0], api.keys[1])
}

func TestSubmit_DeliveryLookupFailure(t *testing.T) {
	api := &fakeAPI{citiesErr: errors.New("connection refused")}
	c := filledCart(t)

	_, err := New(api, c).Submit(context.Background(), deliveryForm())
	require.Error(t, err)
	assert.Empty(t, api.requests)
	assert.Len(t, c.Lines(), 1)
}

func TestSubmit_SingleInFlight(t *testing.T) {
	api := &fakeAPI{cities: tripoli(), block: make(chan struct{})}
	o := New(api, filledCart(t))

	done := make(chan error, 1)
	go func() {
		_, err := o.Submit(context.Background(), deliveryForm())
		done <- err
	}()

	require.Eventually(t, func() bool {
		o.mu.Lock()
		defer o.mu.Unlock()
		return o.inFlight
	}, time.Second, time.Millisecond)

	_, err := o.Submit(context.Background(), deliveryForm())
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(api.block)
	require.NoError(t, <-done)
}

func sizeRequired() map[int64][]catalog.OptionGroup {
	return map[int64][]catalog.OptionGroup{1: {{
		ID: 1, ProductID: 1, Name: "Size", Required: true, SelectionType: catalog.SelectionSingle, MinSelect: 1, MaxSelect: 1,
		Options: []catalog.Option{{ID: 11, GroupID: 1, Name: "Large", Price: decimal.RequireFromString("35.00"), ReplaceBasePrice: true, Active: true}},
	}}}
}

func TestSubmit_InvalidSelectionNeverReachesServer(t *testing.T) {
	api := &fakeAPI{cities: tripoli(), groups: sizeRequired()}
	c := filledCart(t)

	_, err := New(api, c).Submit(context.Background(), deliveryForm())

	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Contains(t, verr.Fields["items[0].selected_options"], "required group unselected")
	assert.Empty(t, api.requests)
	assert.Len(t, c.Lines(), 1)
}

func TestSubmit_ValidSelectionPasses(t *testing.T) {
	api := &fakeAPI{cities: tripoli(), groups: sizeRequired()}
	c := cart.New()
	p := catalog.Product{ID: 1, Name: "Kunafa", BasePrice: decimal.RequireFromString("20.00")}
	require.NoError(t, c.AddConfigured(p, api.groups[1], []int64{11}, 1, ""))

	res, err := New(api, c).Submit(context.Background(), deliveryForm())
	require.NoError(t, err)
	assert.Equal(t, "40.00", res.Total.StringFixed(2))
	require.Len(t, api.requests, 1)
	assert.Equal(t, int64(11), api.requests[0].Items[0].SelectedOptions[0].OptionID)
}

func TestSubmit_OptionLookupFailureKeepsCart(t *testing.T) {
	api := &fakeAPI{cities: tripoli(), groupsErr: errors.New("connection refused")}
	c := filledCart(t)

	_, err := New(api, c).Submit(context.Background(), deliveryForm())
	require.Error(t, err)
	assert.Empty(t, api.requests)
	assert.Len(t, c.Lines(), 1)
}
