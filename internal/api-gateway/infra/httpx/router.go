package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/api-gateway/infra/httpx/middlewares"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachRequestMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handler.Healthz)
	r.Get("/options/{productId}", handler.ListOptions)
	r.Get("/delivery-cities", handler.ListDeliveryCities)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", handler.CreateOrder)
		r.Get("/", handler.ListOrders)
		r.Patch("/", handler.UpdateOrderStatus)
		r.Get("/{id}", handler.GetOrderByID)
		r.Get("/{id}/history", handler.OrderHistory)
	})

	return otelhttp.NewHandler(r, "bakery-api")
}
