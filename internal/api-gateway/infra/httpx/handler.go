package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/api-gateway/core/ports"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/api-gateway/core/wire"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/order-service/app"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/order-service/domain"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/pkg/requestctx"
)

const maxBodyBytes = 1 << 20

// Handler serves the storefront and staff endpoints.
type Handler struct {
	catalog  ports.OptionCatalog
	orders   ports.OrderService
	delivery ports.DeliveryTable
	health   []ports.HealthChecker
}

// NewHandler wires the handler. Every checker must answer for /healthz to
// report ok.
func NewHandler(
	cat ports.OptionCatalog,
	orders ports.OrderService,
	dt ports.DeliveryTable,
	health ...ports.HealthChecker,
) *Handler {
	return &Handler{
		catalog:  cat,
		orders:   orders,
		delivery: dt,
		health:   health,
	}
}

// ListOptions returns the option groups of a product.
func (h *Handler) ListOptions(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil || productID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_product_id", "productId must be a positive integer")
		return
	}

	groups, err := h.catalog.OptionGroups(r.Context(), productID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOptionGroups(groups))
}

// ListDeliveryCities returns the active delivery fee table.
func (h *Handler) ListDeliveryCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.delivery.Cities(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCities(cities))
}

// CreateOrder validates and stores a checkout submission.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req wire.CreateOrderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	res, err := h.orders.CreateOrder(r.Context(), toAppRequest(req, requestctx.IdempotencyKey(r.Context())))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, wire.CreateOrderResponse{OrderID: res.Order.ID})
}

// ListOrders returns orders with their items, optionally filtered by status.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	out := make([]wire.OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = mapOrderToResponse(o)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetOrderByID retrieves a single order by its ID.
func (h *Handler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

// OrderHistory lists the accepted status transitions of an order.
func (h *Handler) OrderHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.orders.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapHistory(entries))
}

// UpdateOrderStatus applies a staff status change.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req wire.UpdateStatusRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.OrderID == "" || req.Status == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "orderId and status are required")
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), req.OrderID, req.Status)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

// Healthz answers 200 when every backing store responds.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	for _, c := range h.health {
		if err := c.Ping(r.Context()); err != nil {
			slog.ErrorContext(r.Context(), "health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "unhealthy", err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError maps domain and application errors onto status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *app.ValidationError
		cerr *app.ConstraintError
		terr *domain.TransitionError
	)

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, wire.ErrorResponse{Error: "invalid_request", Message: verr.Error(), Fields: mapFieldErrors(verr.Fields)})
	case errors.As(err, &cerr):
		writeJSON(w, http.StatusUnprocessableEntity, wire.ErrorResponse{Error: "constraint_violation", Message: cerr.Error(), Fields: mapFieldErrors(cerr.Fields)})
	case errors.As(err, &terr):
		writeError(w, http.StatusConflict, "invalid_transition", terr.Error())
	case errors.Is(err, domain.ErrUnknownStatus):
		writeError(w, http.StatusBadRequest, "unknown_status", err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order_not_found", err.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "the request could not be completed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, wire.ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
