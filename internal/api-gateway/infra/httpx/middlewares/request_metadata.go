package middlewares

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/pkg/requestctx"
)

// AttachRequestMetadata copies the chi request id and the client's
// idempotency key into the request context, and echoes the request id back.
func AttachRequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		idempotencyKey := r.Header.Get(requestctx.HeaderXIdempotencyKey)

		ctx := requestctx.WithRequestID(r.Context(), requestID)
		ctx = requestctx.WithIdempotencyKey(ctx, idempotencyKey)

		if requestID != "" {
			w.Header().Set(requestctx.HeaderXRequestId, requestID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
