package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/domain"
)

// CatalogRepository reads and configures products, option groups and options.
type CatalogRepository struct {
	db *DB
}

func NewCatalogRepository(db *DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Product returns a product by id.
func (r *CatalogRepository) Product(ctx context.Context, id int64) (domain.Product, error) {
	const q = `SELECT id, name, base_price, category, available FROM products WHERE id = ?`

	var p domain.Product
	err := r.db.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.Name, &p.BasePrice, &p.Category, &p.Available)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("%w: %d", domain.ErrProductNotFound, id)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("sqlite: get product %d: %w", id, err)
	}
	return p, nil
}

// OptionGroups returns the groups of a product in display order, each with
// its active options in display order. Unknown products yield an empty slice.
func (r *CatalogRepository) OptionGroups(ctx context.Context, productID int64) ([]domain.OptionGroup, error) {
	const groupsQ = `
		SELECT id, product_id, name, required, selection_type, min_select, max_select, display_order
		FROM   option_groups
		WHERE  product_id = ?
		ORDER  BY display_order, id`

	rows, err := r.db.db.QueryContext(ctx, groupsQ, productID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list option groups for %d: %w", productID, err)
	}

	groups := []domain.OptionGroup{}
	index := map[int64]int{}
	for rows.Next() {
		var g domain.OptionGroup
		if err := rows.Scan(&g.ID, &g.ProductID, &g.Name, &g.Required, &g.SelectionType,
			&g.MinSelect, &g.MaxSelect, &g.DisplayOrder); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: scan option group: %w", err)
		}
		g.Options = []domain.Option{}
		index[g.ID] = len(groups)
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("sqlite: iterate option groups: %w", err)
	}
	rows.Close()

	if len(groups) == 0 {
		return groups, nil
	}

	const optionsQ = `
		SELECT o.id, o.group_id, o.name, o.price, o.replace_base_price, o.display_order, o.active
		FROM   options o
		JOIN   option_groups g ON g.id = o.group_id
		WHERE  g.product_id = ? AND o.active = 1
		ORDER  BY o.display_order, o.id`

	orows, err := r.db.db.QueryContext(ctx, optionsQ, productID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list options for %d: %w", productID, err)
	}
	defer orows.Close()

	for orows.Next() {
		var o domain.Option
		if err := orows.Scan(&o.ID, &o.GroupID, &o.Name, &o.Price, &o.ReplaceBasePrice, &o.DisplayOrder, &o.Active); err != nil {
			return nil, fmt.Errorf("sqlite: scan option: %w", err)
		}
		gi := index[o.GroupID]
		groups[gi].Options = append(groups[gi].Options, o)
	}
	if err := orows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate options: %w", err)
	}
	return groups, nil
}

// CreateProduct inserts a product and sets its id.
func (r *CatalogRepository) CreateProduct(ctx context.Context, p *domain.Product) error {
	if p.Name == "" {
		return errors.New("sqlite: product name is required")
	}
	if p.BasePrice.IsNegative() {
		return fmt.Errorf("sqlite: product %q has a negative base price", p.Name)
	}

	const q = `INSERT INTO products (name, base_price, category, available) VALUES (?, ?, ?, ?)`
	res, err := r.db.db.ExecContext(ctx, q, p.Name, money(p.BasePrice), p.Category, boolToInt(p.Available))
	if err != nil {
		return fmt.Errorf("sqlite: create product %q: %w", p.Name, err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

// CreateGroup inserts a group together with any options it carries.
func (r *CatalogRepository) CreateGroup(ctx context.Context, g *domain.OptionGroup) error {
	if err := g.Check(); err != nil {
		return err
	}

	return r.db.inTx(ctx, func(tx *sql.Tx) error {
		const q = `
			INSERT INTO option_groups
				(product_id, name, required, selection_type, min_select, max_select, display_order)
			VALUES (?, ?, ?, ?, ?, ?, ?)`

		res, err := tx.ExecContext(ctx, q, g.ProductID, g.Name, boolToInt(g.Required), string(g.SelectionType),
			g.MinSelect, g.MaxSelect, g.DisplayOrder)
		if err != nil {
			return fmt.Errorf("sqlite: create option group %q: %w", g.Name, err)
		}
		if g.ID, err = res.LastInsertId(); err != nil {
			return err
		}

		for i := range g.Options {
			g.Options[i].GroupID = g.ID
			if err := insertOption(ctx, tx, &g.Options[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateOption adds an option to an existing group.
func (r *CatalogRepository) CreateOption(ctx context.Context, o *domain.Option) error {
	return r.db.inTx(ctx, func(tx *sql.Tx) error {
		return insertOption(ctx, tx, o)
	})
}

// SetOptionActive enables or disables an option without deleting it.
func (r *CatalogRepository) SetOptionActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.db.ExecContext(ctx, `UPDATE options SET active = ? WHERE id = ?`, boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("sqlite: update option %d: %w", id, err)
	}
	return requireOneRow(res, "option", id)
}

// DeleteGroup removes a group; its options go with it.
func (r *CatalogRepository) DeleteGroup(ctx context.Context, id int64) error {
	res, err := r.db.db.ExecContext(ctx, `DELETE FROM option_groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete option group %d: %w", id, err)
	}
	return requireOneRow(res, "option group", id)
}

func insertOption(ctx context.Context, tx *sql.Tx, o *domain.Option) error {
	if o.Name == "" {
		return errors.New("sqlite: option name is required")
	}
	if o.Price.IsNegative() {
		return fmt.Errorf("sqlite: option %q has a negative price", o.Name)
	}

	const q = `
		INSERT INTO options (group_id, name, price, replace_base_price, display_order, active)
		VALUES (?, ?, ?, ?, ?, ?)`

	res, err := tx.ExecContext(ctx, q, o.GroupID, o.Name, money(o.Price), boolToInt(o.ReplaceBasePrice),
		o.DisplayOrder, boolToInt(o.Active))
	if err != nil {
		return fmt.Errorf("sqlite: create option %q: %w", o.Name, err)
	}
	o.ID, err = res.LastInsertId()
	return err
}

func requireOneRow(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("sqlite: %s %d not found", what, id)
	}
	return nil
}

// money is the persistence rounding point for decimal columns.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Empty reports whether no product has been created yet.
func (r *CatalogRepository) Empty(ctx context.Context) (bool, error) {
	var n int
	if err := r.db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return false, fmt.Errorf("sqlite: count products: %w", err)
	}
	return n == 0, nil
}
