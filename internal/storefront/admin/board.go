// Package admin is the staff order board. Status changes are shown at once
// and reconciled with the server when the server disagrees.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/api-gateway/core/wire"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/coordinator"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/order-service/domain"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/storefront/client"
)

var (
	ErrUnknownOrder   = errors.New("admin: order is not on the board")
	ErrUpdateInFlight = errors.New("admin: a status change for this order is already in flight")
)

// API is implemented by *client.Client.
type API interface {
	ListOrders(ctx context.Context, status string) ([]wire.OrderResponse, error)
	UpdateStatus(ctx context.Context, orderID, status string) (*wire.OrderResponse, error)
}

var _ API = (*client.Client)(nil)

// Board holds the orders shown to staff.
type Board struct {
	api API

	mu      sync.Mutex
	orders  []wire.OrderResponse
	pending map[string]bool
	stale   bool
}

func NewBoard(api API) *Board {
	return &Board{api: api, pending: map[string]bool{}}
}

// Refresh replaces the board with the server's orders.
func (b *Board) Refresh(ctx context.Context) error {
	orders, err := b.api.ListOrders(ctx, "")
	if err != nil {
		return fmt.Errorf("admin: refresh: %w", err)
	}

	b.mu.Lock()
	b.orders = orders
	b.stale = false
	b.mu.Unlock()
	return nil
}

// Orders returns a copy of the board, newest first.
func (b *Board) Orders() []wire.OrderResponse {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.orders)
}

// Stale reports whether the last reconciliation failed, so the board may
// not match the server until the next successful Refresh.
func (b *Board) Stale() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stale
}

// Status returns the status shown for an order.
func (b *Board) Status(orderID string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.index(orderID); i >= 0 {
		return b.orders[i].Status, true
	}
	return "", false
}

// Choices lists the statuses staff may move an order to next. Terminal
// orders and orders with a change in flight have none.
func (b *Board) Choices(orderID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.index(orderID)
	if i < 0 || b.pending[orderID] {
		return nil
	}
	next := domain.OrderStatus(b.orders[i].Status).Next()
	out := make([]string, len(next))
	for j, st := range next {
		out[j] = string(st)
	}
	return out
}

// ChangeStatus shows the new status immediately, then asks the server. If the
// server rejects it or cannot be reached, the board is re-fetched; if that
// fails too, the order's previous status is put back and the board is marked
// stale. The returned error is the one from the status update.
func (b *Board) ChangeStatus(ctx context.Context, orderID, status string) error {
	to, err := domain.ParseStatus(status)
	if err != nil {
		return err
	}

	b.mu.Lock()
	i := b.index(orderID)
	if i < 0 {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownOrder, orderID)
	}
	if b.pending[orderID] {
		b.mu.Unlock()
		return ErrUpdateInFlight
	}
	prior := domain.OrderStatus(b.orders[i].Status)
	if err := domain.ApplyTransition(prior, to); err != nil {
		b.mu.Unlock()
		return err
	}
	b.pending[orderID] = true
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, orderID)
		b.mu.Unlock()
	}()

	saga := coordinator.NewOrchestrator("admin_status_change",
		coordinator.FuncStep{
			StepName: "apply_locally",
			Do: func(context.Context) error {
				b.setStatus(orderID, string(to))
				return nil
			},
			Undo: func(ctx context.Context) error {
				return b.reconcile(ctx, orderID, prior)
			},
		},
		coordinator.FuncStep{
			StepName: "update_server",
			Do: func(ctx context.Context) error {
				updated, err := b.api.UpdateStatus(ctx, orderID, string(to))
				if err != nil {
					return err
				}
				b.replace(*updated)
				return nil
			},
		},
	)

	if err := saga.Start(ctx); err != nil {
		return err
	}
	slog.InfoContext(ctx, "order status changed", "order_id", orderID, "from", prior, "to", to)
	return nil
}

// reconcile re-fetches the board. When that fails the prior status is
// restored locally and the board is flagged stale.
func (b *Board) reconcile(ctx context.Context, orderID string, prior domain.OrderStatus) error {
	if err := b.Refresh(ctx); err != nil {
		b.mu.Lock()
		if i := b.index(orderID); i >= 0 {
			b.orders[i].Status = string(prior)
		}
		b.stale = true
		b.mu.Unlock()
		return err
	}
	return nil
}

func (b *Board) setStatus(orderID, status string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.index(orderID); i >= 0 {
		b.orders[i].Status = status
	}
}

func (b *Board) replace(o wire.OrderResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.index(o.ID); i >= 0 {
		b.orders[i] = o
	}
}

func (b *Board) index(orderID string) int {
	return slices.IndexFunc(b.orders, func(o wire.OrderResponse) bool { return o.ID == orderID })
}
