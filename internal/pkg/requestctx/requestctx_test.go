package requestctx_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/pkg/requestctx"
)

func TestValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, requestctx.RequestID(ctx))
	assert.Empty(t, requestctx.IdempotencyKey(ctx))

	ctx = requestctx.WithRequestID(ctx, "r-1")
	ctx = requestctx.WithIdempotencyKey(ctx, "k-1")

	assert.Equal(t, "r-1", requestctx.RequestID(ctx))
	assert.Equal(t, "k-1", requestctx.IdempotencyKey(ctx))
}

func TestKeysDoNotCollideWithPlainStrings(t *testing.T) {
	ctx := context.WithValue(context.Background(), "request_id", "plain") //nolint:staticcheck // exercising collision

	assert.Empty(t, requestctx.RequestID(ctx))
}
