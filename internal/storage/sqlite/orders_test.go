package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalog "github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/domain"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/order-service/domain"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/order-service/statuslog"
)

func newOrder(id string, created time.Time) *domain.Order {
	o := &domain.Order{
		ID:            id,
		CustomerName:  "Sara",
		Phone:         "0911111111",
		Address:       "Main St",
		City:          "Tripoli",
		PaymentMethod: "cash",
		DeliveryFee:   decimal.RequireFromString("20"),
		Status:        domain.StatusPending,
		CreatedAt:     created,
		Items: []domain.OrderItem{
			{
				ProductID: 1, ProductName: "Kunafa", Category: "sweets", Quantity: 1,
				UnitPrice: decimal.RequireFromString("40"),
				Options: []catalog.SelectedOption{
					{OptionID: 11, Name: "Large", Price: decimal.RequireFromString("35"), ReplaceBasePrice: true},
					{OptionID: 20, Name: "Nuts", Price: decimal.RequireFromString("5")},
				},
			},
			{ProductID: 2, ProductName: "Baklawa", Quantity: 2, UnitPrice: decimal.RequireFromString("12.50")},
		},
	}
	o.Reprice()
	return o
}

func TestOrders_CreateAndGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(openTestDB(t))

	o := newOrder("ord-1", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, o))
	assert.NotZero(t, o.Items[0].ID)

	got, err := repo.Get(ctx, "ord-1")
	require.NoError(t, err)

	assert.Equal(t, "85.00", got.Total.StringFixed(2))
	assert.Equal(t, "65.00", got.Subtotal.StringFixed(2))
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.True(t, got.Consistent())
	require.Len(t, got.Items, 2)
	require.Len(t, got.Items[0].Options, 2)
	assert.Equal(t, "Large", got.Items[0].Options[0].Name)
	assert.True(t, got.Items[0].Options[0].ReplaceBasePrice)
	assert.NotNil(t, got.Items[1].Options)
	assert.True(t, o.CreatedAt.Equal(got.CreatedAt))
}

func TestOrders_GetUnknown(t *testing.T) {
	repo := NewOrderRepository(openTestDB(t))

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrders_FailedItemRollsBackOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(openTestDB(t))

	o := newOrder("ord-bad", time.Now())
	o.Items[1].Quantity = 0 // violates CHECK (quantity >= 1)
	o.Reprice()

	require.Error(t, repo.Create(ctx, o))

	_, err := repo.Get(ctx, "ord-bad")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrders_CreateRejectsInconsistentTotals(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(openTestDB(t))

	o := newOrder("ord-odd", time.Now())
	o.Total = decimal.RequireFromString("1.00")

	assert.ErrorIs(t, repo.Create(ctx, o), ErrInconsistentTotals)
	_, err := repo.Get(ctx, "ord-odd")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrders_ItemsStayFrozenWhenCatalogChanges(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	catalogRepo := NewCatalogRepository(db)
	repo := NewOrderRepository(db)

	p := catalog.Product{Name: "Kunafa", BasePrice: decimal.RequireFromString("20.00"), Available: true}
	require.NoError(t, catalogRepo.CreateProduct(ctx, &p))
	g := catalog.OptionGroup{
		ProductID: p.ID, Name: "Extras", SelectionType: catalog.SelectionMultiple,
		Options: []catalog.Option{{Name: "Nuts", Price: decimal.RequireFromString("5.00"), Active: true}},
	}
	require.NoError(t, catalogRepo.CreateGroup(ctx, &g))

	o := newOrder("ord-frozen", time.Now())
	o.Items = []domain.OrderItem{{
		ProductID: p.ID, ProductName: p.Name, Quantity: 2,
		UnitPrice: decimal.RequireFromString("25.00"),
		Options:   []catalog.SelectedOption{g.Options[0].Snapshot()},
	}}
	o.Reprice()
	require.NoError(t, repo.Create(ctx, o))

	_, err := db.db.ExecContext(ctx, `UPDATE products SET base_price = '99.00', name = 'Renamed' WHERE id = ?`, p.ID)
	require.NoError(t, err)
	_, err = db.db.ExecContext(ctx, `UPDATE options SET price = '42.00', name = 'Walnuts' WHERE id = ?`, g.Options[0].ID)
	require.NoError(t, err)
	require.NoError(t, catalogRepo.DeleteGroup(ctx, g.ID))

	got, err := repo.Get(ctx, "ord-frozen")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	it := got.Items[0]
	assert.Equal(t, "Kunafa", it.ProductName)
	assert.Equal(t, "25.00", it.UnitPrice.StringFixed(2))
	require.Len(t, it.Options, 1)
	assert.Equal(t, "Nuts", it.Options[0].Name)
	assert.Equal(t, "5.00", it.Options[0].Price.StringFixed(2))
	assert.Equal(t, "50.00", got.Subtotal.StringFixed(2))
	assert.True(t, got.Consistent())
}

func TestOrders_IdempotencyKeyIsUnique(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(openTestDB(t))

	first := newOrder("ord-1", time.Now())
	first.IdempotencyKey = "k-1"
	require.NoError(t, repo.Create(ctx, first))

	second := newOrder("ord-2", time.Now())
	second.IdempotencyKey = "k-1"
	assert.ErrorIs(t, repo.Create(ctx, second), ErrDuplicateIdempotencyKey)

	found, err := repo.FindByIdempotencyKey(ctx, "k-1")
	require.NoError(t, err)
	assert.Equal(t, "ord-1", found.ID)

	// Orders without a key never collide.
	require.NoError(t, repo.Create(ctx, newOrder("ord-3", time.Now())))
	require.NoError(t, repo.Create(ctx, newOrder("ord-4", time.Now())))

	_, err = repo.FindByIdempotencyKey(ctx, "")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrders_ListFiltersAndOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(openTestDB(t))
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newOrder("a", base)))
	require.NoError(t, repo.Create(ctx, newOrder("b", base.Add(time.Minute))))
	c := newOrder("c", base.Add(2*time.Minute))
	c.Status = domain.StatusConfirmed
	require.NoError(t, repo.Create(ctx, c))

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Len(t, all[0].Items, 2)

	pending := domain.StatusPending
	filtered, err := repo.List(ctx, &pending)
	require.NoError(t, err)
	require.Len(t, filtered, 2)

	delivered := domain.StatusDelivered
	none, err := repo.List(ctx, &delivered)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestOrders_UpdateStatusWritesLog(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(openTestDB(t))
	require.NoError(t, repo.Create(ctx, newOrder("ord-1", time.Now())))

	updated, err := repo.UpdateStatus(ctx, "ord-1", func(o *domain.Order) (*statuslog.Entry, error) {
		if err := domain.ApplyTransition(o.Status, domain.StatusConfirmed); err != nil {
			return nil, err
		}
		return statuslog.NewEntry(ctx, o.ID, o.Status, domain.StatusConfirmed), nil
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)
	assert.Len(t, updated.Items, 2)

	got, err := repo.Get(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)
	assert.Equal(t, "85.00", got.Total.StringFixed(2), "totals are frozen")

	history, err := repo.History(ctx, "ord-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.StatusPending, history[0].From)
	assert.Equal(t, domain.StatusConfirmed, history[0].To)
}

func TestOrders_UpdateStatusRejectedLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(openTestDB(t))
	require.NoError(t, repo.Create(ctx, newOrder("ord-1", time.Now())))

	_, err := repo.UpdateStatus(ctx, "ord-1", func(o *domain.Order) (*statuslog.Entry, error) {
		return nil, domain.ApplyTransition(o.Status, domain.StatusDelivered)
	})
	var terr *domain.TransitionError
	require.True(t, errors.As(err, &terr))

	got, err := repo.Get(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)

	history, err := repo.History(ctx, "ord-1")
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = repo.UpdateStatus(ctx, "missing", func(o *domain.Order) (*statuslog.Entry, error) {
		t.Fatal("apply must not run for a missing order")
		return nil, nil
	})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
