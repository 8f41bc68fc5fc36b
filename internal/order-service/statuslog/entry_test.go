package statuslog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"

	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/order-service/domain"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/order-service/statuslog"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/pkg/requestctx"
)

func TestNewEntry_WithoutSpan(t *testing.T) {
	ctx := requestctx.WithRequestID(context.Background(), "req-1")

	e := statuslog.NewEntry(ctx, "ord-1", domain.StatusPending, domain.StatusConfirmed)

	assert.Equal(t, "ord-1", e.OrderID)
	assert.Equal(t, domain.StatusPending, e.From)
	assert.Equal(t, domain.StatusConfirmed, e.To)
	assert.Equal(t, "req-1", e.RequestID)
	assert.Empty(t, e.TraceID)
	assert.Empty(t, e.SpanID)
	assert.False(t, e.ChangedAt.IsZero())
}

func TestExtractTraceInfo_FromSpanContext(t *testing.T) {
	tid, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	sid, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tid,
		SpanID:     sid,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	ti := statuslog.ExtractTraceInfo(ctx)

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", ti.TraceID)
	assert.Equal(t, "00f067aa0ba902b7", ti.SpanID)
}
