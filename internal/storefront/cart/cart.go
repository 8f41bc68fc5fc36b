// Package cart is the storefront's in-memory shopping cart.
//
// A line is identified by its product and the set of chosen option ids;
// adding the same configuration twice grows one line. Listeners are called
// synchronously after every mutation that changes the cart.
package cart

import (
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	catalog "github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/domain"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/pricing"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/selection"
)

var ErrInvalidQuantity = errors.New("cart: quantity must be at least 1")

// Line is one configured product in the cart.
type Line struct {
	ProductID   int64                    `json:"product_id"`
	ProductName string                   `json:"product_name"`
	BasePrice   decimal.Decimal          `json:"base_price"`
	Options     []catalog.SelectedOption `json:"options"`
	UnitPrice   decimal.Decimal          `json:"unit_price"`
	Quantity    int                      `json:"quantity"`
	Category    string                   `json:"category,omitempty"`
	Notes       string                   `json:"notes,omitempty"`
}

func (l Line) PricedUnit() decimal.Decimal { return l.UnitPrice }
func (l Line) PricedQuantity() int         { return l.Quantity }

// LineTotal is UnitPrice times Quantity, unrounded.
func (l Line) LineTotal() decimal.Decimal {
	return pricing.LineTotal(l.UnitPrice, l.Quantity)
}

// Key is the line's identity.
func (l Line) Key() string {
	return LineKey(l.ProductID, l.Options)
}

func (l Line) clone() Line {
	l.Options = slices.Clone(l.Options)
	return l
}

// LineKey renders a product and an option set as a canonical string. Option
// order does not matter.
func LineKey(productID int64, opts []catalog.SelectedOption) string {
	ids := make([]int64, 0, len(opts))
	for _, o := range opts {
		ids = append(ids, o.OptionID)
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)

	var b strings.Builder
	b.WriteString(strconv.FormatInt(productID, 10))
	b.WriteByte('|')
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	return b.String()
}

// Snapshot is an immutable copy of the cart.
type Snapshot struct {
	Lines []Line          `json:"lines"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type listener struct {
	id int
	fn func(Snapshot)
}

// Store holds the cart. The zero value is not usable; call New.
type Store struct {
	mu        sync.Mutex
	lines     []Line
	listeners []listener
	nextID    int
	log       *slog.Logger
}

type Option func(*Store)

// WithSnapshot hydrates the store, for example from a server-rendered page.
// Lines with a quantity below 1 are dropped, duplicate identities are merged
// and unit prices are recomputed from base price and options.
func WithSnapshot(s Snapshot) Option {
	return func(st *Store) {
		for _, l := range s.Lines {
			if l.Quantity < 1 {
				continue
			}
			l = l.clone()
			l.UnitPrice = pricing.UnitPrice(l.BasePrice, l.Options)
			if i := st.index(l.Key()); i >= 0 {
				st.lines[i].Quantity += l.Quantity
				continue
			}
			st.lines = append(st.lines, l)
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(st *Store) { st.log = l }
}

func New(opts ...Option) *Store {
	s := &Store{log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add puts quantity units of a configured product in the cart, merging with
// an existing line of the same identity. Notes of the existing line are kept
// unless it has none.
func (s *Store) Add(p catalog.Product, quantity int, opts []catalog.SelectedOption, notes string) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	key := LineKey(p.ID, opts)
	if i := s.index(key); i >= 0 {
		s.lines[i].Quantity += quantity
		if s.lines[i].Notes == "" {
			s.lines[i].Notes = notes
		}
	} else {
		s.lines = append(s.lines, Line{
			ProductID:   p.ID,
			ProductName: p.Name,
			BasePrice:   p.BasePrice,
			Options:     slices.Clone(opts),
			UnitPrice:   pricing.UnitPrice(p.BasePrice, opts),
			Quantity:    quantity,
			Category:    p.Category,
			Notes:       notes,
		})
	}
	snap, fns := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Debug("cart line added", "key", key, "quantity", quantity)
	notify(fns, snap)
	return nil
}

// AddConfigured checks the chosen option ids against the product's groups and
// adds the line only when every group accepts them. The returned error joins
// one *selection.Violation per failing group; the cart is unchanged then.
func (s *Store) AddConfigured(p catalog.Product, groups []catalog.OptionGroup, chosen []int64, quantity int, notes string) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	opts, err := selection.ValidateProduct(groups, chosen)
	if err != nil {
		return err
	}
	return s.Add(p, quantity, opts, notes)
}

// UpdateQuantity sets the quantity of a line. n <= 0 removes it; a missing
// line is left alone.
func (s *Store) UpdateQuantity(productID int64, opts []catalog.SelectedOption, n int) {
	if n <= 0 {
		s.Remove(productID, opts)
		return
	}

	s.mu.Lock()
	i := s.index(LineKey(productID, opts))
	if i < 0 || s.lines[i].Quantity == n {
		s.mu.Unlock()
		return
	}
	s.lines[i].Quantity = n
	snap, fns := s.snapshotLocked()
	s.mu.Unlock()

	notify(fns, snap)
}

// Remove deletes a line. Removing a line that is not there is a no-op.
func (s *Store) Remove(productID int64, opts []catalog.SelectedOption) {
	s.mu.Lock()
	i := s.index(LineKey(productID, opts))
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.lines = slices.Delete(s.lines, i, i+1)
	snap, fns := s.snapshotLocked()
	s.mu.Unlock()

	notify(fns, snap)
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	if len(s.lines) == 0 {
		s.mu.Unlock()
		return
	}
	s.lines = nil
	snap, fns := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Debug("cart cleared")
	notify(fns, snap)
}

// Total is the sum of all line totals, unrounded.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.Subtotal(s.lines)
}

// Count is the number of units across all lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return countLocked(s.lines)
}

// Lines returns a copy of the lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLines(s.lines)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, _ := s.snapshotLocked()
	return snap
}

// Subscribe registers fn to run after every change. The returned function
// removes it.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.listeners = slices.DeleteFunc(s.listeners, func(l listener) bool { return l.id == id })
		})
	}
}

func (s *Store) index(key string) int {
	return slices.IndexFunc(s.lines, func(l Line) bool { return l.Key() == key })
}

func (s *Store) snapshotLocked() (Snapshot, []func(Snapshot)) {
	snap := Snapshot{
		Lines: cloneLines(s.lines),
		Count: countLocked(s.lines),
		Total: pricing.Subtotal(s.lines),
	}
	fns := make([]func(Snapshot), len(s.listeners))
	for i, l := range s.listeners {
		fns[i] = l.fn
	}
	return snap, fns
}

// notify runs outside the lock so listeners may read or mutate the store.
func notify(fns []func(Snapshot), snap Snapshot) {
	for _, fn := range fns {
		fn(snap)
	}
}

func countLocked(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = l.clone()
	}
	return out
}
