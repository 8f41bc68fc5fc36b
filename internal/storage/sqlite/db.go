// Package sqlite persists the catalog, delivery prices, orders and the order
// status log in a single SQLite database.
//
// WAL mode is enabled on Open so that the admin console can read orders while
// checkout writes new ones.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// Pure-Go driver; no CGO needed in the container image.
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT    NOT NULL,
    base_price  TEXT    NOT NULL DEFAULT '0.00',
    category    TEXT    NOT NULL DEFAULT '',
    available   INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS option_groups (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    product_id      INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    name            TEXT    NOT NULL,
    required        INTEGER NOT NULL DEFAULT 0,
    selection_type  TEXT    NOT NULL CHECK (selection_type IN ('single', 'multiple')),
    min_select      INTEGER NOT NULL DEFAULT 0 CHECK (min_select >= 0),
    -- 0 means no upper bound.
    max_select      INTEGER NOT NULL DEFAULT 0 CHECK (max_select >= 0),
    display_order   INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_option_groups_product ON option_groups(product_id, display_order);

CREATE TABLE IF NOT EXISTS options (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    group_id            INTEGER NOT NULL REFERENCES option_groups(id) ON DELETE CASCADE,
    name                TEXT    NOT NULL,
    price               TEXT    NOT NULL DEFAULT '0.00',
    replace_base_price  INTEGER NOT NULL DEFAULT 0,
    display_order       INTEGER NOT NULL DEFAULT 0,
    active              INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_options_group ON options(group_id, display_order);

CREATE TABLE IF NOT EXISTS delivery_city_prices (
    city    TEXT    PRIMARY KEY,
    price   TEXT    NOT NULL DEFAULT '0.00',
    active  INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS orders (
    id               TEXT    PRIMARY KEY,
    customer_name    TEXT    NOT NULL,
    phone            TEXT    NOT NULL,
    secondary_phone  TEXT    NOT NULL DEFAULT '',
    address          TEXT    NOT NULL DEFAULT '',
    city             TEXT    NOT NULL DEFAULT '',
    pickup           INTEGER NOT NULL DEFAULT 0,
    payment_method   TEXT    NOT NULL,
    notes            TEXT    NOT NULL DEFAULT '',
    delivery_fee     TEXT    NOT NULL,
    subtotal         TEXT    NOT NULL,
    total            TEXT    NOT NULL,
    status           TEXT    NOT NULL,
    idempotency_key  TEXT    NOT NULL DEFAULT '',
    created_at       TEXT    NOT NULL,
    updated_at       TEXT    NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_idempotency ON orders(idempotency_key) WHERE idempotency_key <> '';
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status, created_at);

-- Items carry a frozen copy of the product; product_id is informational and
-- deliberately not a foreign key so catalog deletes never touch history.
CREATE TABLE IF NOT EXISTS order_items (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id      TEXT    NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    product_id    INTEGER NOT NULL,
    product_name  TEXT    NOT NULL,
    category      TEXT    NOT NULL DEFAULT '',
    quantity      INTEGER NOT NULL CHECK (quantity >= 1),
    unit_price    TEXT    NOT NULL,
    options       TEXT    NOT NULL DEFAULT '[]',
    notes         TEXT    NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id, id);

-- Append-only: one row per accepted status transition.
CREATE TABLE IF NOT EXISTS order_status_log (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id     TEXT    NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    from_status  TEXT    NOT NULL,
    to_status    TEXT    NOT NULL,
    request_id   TEXT    NOT NULL DEFAULT '',
    trace_id     TEXT    NOT NULL DEFAULT '',
    span_id      TEXT    NOT NULL DEFAULT '',
    changed_at   TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_order_status_log_order ON order_status_log(order_id, changed_at);
`

// DB owns the connection shared by the repositories in this package.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at the given path and applies
// the schema.
//
//	db, err := sqlite.Open("./data/bakery.db")
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// One writer connection. Every statement inside a transaction must go
	// through the *sql.Tx or it will wait on itself.
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{db: db}, nil
}

// Close releases the database connection. Call it with defer in main().
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks that the database answers a trivial query.
func (d *DB) Ping(ctx context.Context) error {
	var one int
	if err := d.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// inTx runs fn in a transaction, committing when it returns nil.
func (d *DB) inTx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// applySchema runs the DDL statements once. Idempotent due to IF NOT EXISTS.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
