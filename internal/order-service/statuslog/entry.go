// Package statuslog records every accepted order status transition.
//
// Each entry carries the request id and the OTel trace/span that made the
// change, so an admin complaint about a status flip can be followed to the
// exact request in the tracing backend.
package statuslog

import (
	"context"
	"time"

	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/order-service/domain"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/pkg/requestctx"
)

// Entry is a single row of the status log.
type Entry struct {
	ID        int64              `json:"id"`
	OrderID   string             `json:"order_id"`
	From      domain.OrderStatus `json:"from"`
	To        domain.OrderStatus `json:"to"`
	RequestID string             `json:"request_id,omitempty"`
	TraceID   string             `json:"trace_id,omitempty"`
	SpanID    string             `json:"span_id,omitempty"`
	ChangedAt time.Time          `json:"changed_at"`
}

// Repository reads the log. Entries are written by the order repository in
// the same transaction as the status change.
type Repository interface {
	History(ctx context.Context, orderID string) ([]Entry, error)
}

// NewEntry builds an entry for a transition, taking correlation ids from ctx.
//
//	entry := statuslog.NewEntry(ctx, order.ID, domain.StatusPending, domain.StatusConfirmed)
func NewEntry(ctx context.Context, orderID string, from, to domain.OrderStatus) *Entry {
	ti := ExtractTraceInfo(ctx)

	return &Entry{
		OrderID:   orderID,
		From:      from,
		To:        to,
		RequestID: requestctx.RequestID(ctx),
		TraceID:   ti.TraceID,
		SpanID:    ti.SpanID,
		ChangedAt: time.Now().UTC(),
	}
}
