package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	catalog "github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/domain"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/order-service/domain"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/order-service/statuslog"
)

// ErrDuplicateIdempotencyKey is returned by Create when another order already
// holds the same submission key.
var ErrDuplicateIdempotencyKey = errors.New("sqlite: duplicate idempotency key")

// ErrInconsistentTotals is returned by Create when the order's subtotal or
// total does not follow from its items and delivery fee.
var ErrInconsistentTotals = errors.New("sqlite: order totals do not match its items")

// OrderRepository persists orders with their frozen items and status history.
type OrderRepository struct {
	db *DB
}

var _ statuslog.Repository = (*OrderRepository)(nil)

func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order and all of its items in one transaction. Item ids
// are filled in on success.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	if !o.Consistent() {
		return fmt.Errorf("%w: order %q total %s", ErrInconsistentTotals, o.ID, o.Total.StringFixed(2))
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = o.CreatedAt
	}

	return r.db.inTx(ctx, func(tx *sql.Tx) error {
		const q = `
			INSERT INTO orders
				(id, customer_name, phone, secondary_phone, address, city, pickup, payment_method, notes,
				 delivery_fee, subtotal, total, status, idempotency_key, created_at, updated_at)
			VALUES
				(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

		_, err := tx.ExecContext(ctx, q,
			o.ID, o.CustomerName, o.Phone, o.SecondaryPhone, o.Address, o.City, boolToInt(o.Pickup),
			o.PaymentMethod, o.Notes,
			money(o.DeliveryFee), money(o.Subtotal), money(o.Total),
			string(o.Status), o.IdempotencyKey,
			formatTime(o.CreatedAt), formatTime(o.UpdatedAt),
		)
		if err != nil {
			if o.IdempotencyKey != "" && isUniqueViolation(err) {
				return fmt.Errorf("%w: %q", ErrDuplicateIdempotencyKey, o.IdempotencyKey)
			}
			return fmt.Errorf("sqlite: create order %q: %w", o.ID, err)
		}

		const itemQ = `
			INSERT INTO order_items
				(order_id, product_id, product_name, category, quantity, unit_price, options, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

		for i := range o.Items {
			it := &o.Items[i]
			it.OrderID = o.ID

			opts := it.Options
			if opts == nil {
				opts = []catalog.SelectedOption{}
			}
			b, err := json.Marshal(opts)
			if err != nil {
				return fmt.Errorf("sqlite: encode options for item %d: %w", i, err)
			}

			res, err := tx.ExecContext(ctx, itemQ, o.ID, it.ProductID, it.ProductName, it.Category,
				it.Quantity, money(it.UnitPrice), string(b), it.Notes)
			if err != nil {
				return fmt.Errorf("sqlite: create item %d of order %q: %w", i, o.ID, err)
			}
			if it.ID, err = res.LastInsertId(); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get returns one order with its items.
func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	orders, err := r.queryOrders(ctx, orderColumns+` WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	return orders[0], nil
}

// FindByIdempotencyKey returns the order created with key, or
// domain.ErrOrderNotFound.
func (r *OrderRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	if key == "" {
		return nil, domain.ErrOrderNotFound
	}
	orders, err := r.queryOrders(ctx, orderColumns+` WHERE idempotency_key = ?`, key)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, domain.ErrOrderNotFound
	}
	return orders[0], nil
}

// List returns orders newest first, optionally restricted to one status.
func (r *OrderRepository) List(ctx context.Context, status *domain.OrderStatus) ([]*domain.Order, error) {
	if status == nil {
		return r.queryOrders(ctx, orderColumns+` ORDER BY created_at DESC, rowid DESC`)
	}
	return r.queryOrders(ctx, orderColumns+` WHERE status = ? ORDER BY created_at DESC, rowid DESC`, string(*status))
}

// UpdateStatus loads the order inside a transaction and hands it to apply.
// When apply returns an entry, the new status and the log row are written
// together; an error from apply aborts without writing anything.
func (r *OrderRepository) UpdateStatus(
	ctx context.Context,
	id string,
	apply func(o *domain.Order) (*statuslog.Entry, error),
) (*domain.Order, error) {
	var updated *domain.Order

	err := r.db.inTx(ctx, func(tx *sql.Tx) error {
		o, err := scanOrder(tx.QueryRowContext(ctx, orderColumns+` WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
		}
		if err != nil {
			return err
		}
		items, err := loadItems(ctx, tx, []string{o.ID})
		if err != nil {
			return err
		}
		if its, ok := items[o.ID]; ok {
			o.Items = its
		}

		entry, err := apply(o)
		if err != nil {
			return err
		}
		if entry == nil {
			updated = o
			return nil
		}

		o.Status = entry.To
		o.UpdatedAt = entry.ChangedAt

		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
			string(o.Status), formatTime(o.UpdatedAt), o.ID,
		); err != nil {
			return fmt.Errorf("sqlite: update status of %q: %w", o.ID, err)
		}

		const logQ = `
			INSERT INTO order_status_log
				(order_id, from_status, to_status, request_id, trace_id, span_id, changed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`

		if _, err := tx.ExecContext(ctx, logQ,
			entry.OrderID, string(entry.From), string(entry.To),
			entry.RequestID, entry.TraceID, entry.SpanID, formatTime(entry.ChangedAt),
		); err != nil {
			return fmt.Errorf("sqlite: log status change of %q: %w", o.ID, err)
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// History returns the status log of an order in the order it was written.
func (r *OrderRepository) History(ctx context.Context, orderID string) ([]statuslog.Entry, error) {
	const q = `
		SELECT id, order_id, from_status, to_status, request_id, trace_id, span_id, changed_at
		FROM   order_status_log
		WHERE  order_id = ?
		ORDER  BY id`

	rows, err := r.db.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: status history of %q: %w", orderID, err)
	}
	defer rows.Close()

	entries := []statuslog.Entry{}
	for rows.Next() {
		var e statuslog.Entry
		var changedAt string
		if err := rows.Scan(&e.ID, &e.OrderID, &e.From, &e.To, &e.RequestID, &e.TraceID, &e.SpanID, &changedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan status log: %w", err)
		}
		if e.ChangedAt, err = parseRFC3339(changedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate status log: %w", err)
	}
	return entries, nil
}

const orderColumns = `
	SELECT id, customer_name, phone, secondary_phone, address, city, pickup, payment_method, notes,
	       delivery_fee, subtotal, total, status, idempotency_key, created_at, updated_at
	FROM   orders`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var createdAt, updatedAt string

	err := row.Scan(
		&o.ID, &o.CustomerName, &o.Phone, &o.SecondaryPhone, &o.Address, &o.City, &o.Pickup,
		&o.PaymentMethod, &o.Notes,
		&o.DeliveryFee, &o.Subtotal, &o.Total,
		&o.Status, &o.IdempotencyKey, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlite: scan order: %w", err)
	}

	if o.CreatedAt, err = parseRFC3339(createdAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = parseRFC3339(updatedAt); err != nil {
		return nil, err
	}
	o.Items = []domain.OrderItem{}
	return &o, nil
}

func (r *OrderRepository) queryOrders(ctx context.Context, q string, args ...any) ([]*domain.Order, error) {
	var orders []*domain.Order

	err := r.db.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("sqlite: query orders: %w", err)
		}

		ids := []string{}
		for rows.Next() {
			o, err := scanOrder(rows)
			if err != nil {
				rows.Close()
				return err
			}
			orders = append(orders, o)
			ids = append(ids, o.ID)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("sqlite: iterate orders: %w", err)
		}
		rows.Close()

		items, err := loadItems(ctx, tx, ids)
		if err != nil {
			return err
		}
		for _, o := range orders {
			if its, ok := items[o.ID]; ok {
				o.Items = its
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	return orders, nil
}

// loadItems fetches the items of the given orders, grouped by order id and
// kept in insertion order.
func loadItems(ctx context.Context, tx *sql.Tx, orderIDs []string) (map[string][]domain.OrderItem, error) {
	out := make(map[string][]domain.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(orderIDs)), ",")
	q := `
		SELECT id, order_id, product_id, product_name, category, quantity, unit_price, options, notes
		FROM   order_items
		WHERE  order_id IN (` + placeholders + `)
		ORDER  BY id`

	args := make([]any, len(orderIDs))
	for i, id := range orderIDs {
		args[i] = id
	}

	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.OrderItem
		var opts string
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Category,
			&it.Quantity, &it.UnitPrice, &opts, &it.Notes); err != nil {
			return nil, fmt.Errorf("sqlite: scan order item: %w", err)
		}
		if err := json.Unmarshal([]byte(opts), &it.Options); err != nil {
			return nil, fmt.Errorf("sqlite: decode options of item %d: %w", it.ID, err)
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate order items: %w", err)
	}
	return out, nil
}

// isUniqueViolation matches the driver's constraint error text; modernc does
// not export a typed error for it that is stable across versions.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
