package httpx

import (
	"time"

	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/api-gateway/core/wire"
	catalog "github.com/MohamedQatish/alemelbklawa-next-sub000/internal/catalog/domain"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/delivery"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/order-service/app"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/order-service/domain"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/order-service/statuslog"
)

func toAppRequest(r wire.CreateOrderRequest, idempotencyKey string) app.CreateOrderRequest {
	items := make([]app.ItemRequest, len(r.Items))
	for i, it := range r.Items {
		ids := make([]int64, len(it.SelectedOptions))
		for j, ref := range it.SelectedOptions {
			ids[j] = ref.OptionID
		}
		items[i] = app.ItemRequest{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Category:    it.Category,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			OptionIDs:   ids,
			Notes:       it.Notes,
		}
	}

	return app.CreateOrderRequest{
		CustomerName:   r.CustomerName,
		Phone:          r.Phone,
		SecondaryPhone: r.SecondaryPhone,
		Address:        r.Address,
		City:           r.City,
		Pickup:         r.Pickup,
		PaymentMethod:  r.PaymentMethod,
		Notes:          r.Notes,
		DeliveryFee:    r.DeliveryFee,
		Total:          r.Total,
		Items:          items,
		IdempotencyKey: idempotencyKey,
	}
}

func mapOptionGroups(groups []catalog.OptionGroup) []wire.OptionGroupResponse {
	out := make([]wire.OptionGroupResponse, len(groups))
	for i, g := range groups {
		opts := make([]wire.OptionResponse, len(g.Options))
		for j, o := range g.Options {
			opts[j] = wire.OptionResponse{
				ID:               o.ID,
				Name:             o.Name,
				Price:            o.Price.StringFixed(2),
				ReplaceBasePrice: o.ReplaceBasePrice,
				DisplayOrder:     o.DisplayOrder,
			}
		}
		out[i] = wire.OptionGroupResponse{
			ID:            g.ID,
			ProductID:     g.ProductID,
			Name:          g.Name,
			Required:      g.Required,
			SelectionType: string(g.SelectionType),
			MinSelect:     g.MinSelect,
			MaxSelect:     g.MaxSelect,
			DisplayOrder:  g.DisplayOrder,
			Options:       opts,
		}
	}
	return out
}

func mapCities(cities []delivery.City) []wire.CityResponse {
	out := make([]wire.CityResponse, len(cities))
	for i, c := range cities {
		out[i] = wire.CityResponse{City: c.Name, Price: c.Fee.StringFixed(2)}
	}
	return out
}

func mapOrderToResponse(o *domain.Order) wire.OrderResponse {
	items := make([]wire.OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		opts := make([]wire.SelectedOptionResponse, len(it.Options))
		for j, so := range it.Options {
			opts[j] = wire.SelectedOptionResponse{
				OptionID:         so.OptionID,
				Name:             so.Name,
				Price:            so.Price.StringFixed(2),
				ReplaceBasePrice: so.ReplaceBasePrice,
			}
		}
		items[i] = wire.OrderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Category:    it.Category,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.StringFixed(2),
			LineTotal:   it.Subtotal().StringFixed(2),
			Options:     opts,
			Notes:       it.Notes,
		}
	}

	return wire.OrderResponse{
		ID:             o.ID,
		CustomerName:   o.CustomerName,
		Phone:          o.Phone,
		SecondaryPhone: o.SecondaryPhone,
		Address:        o.Address,
		City:           o.City,
		Pickup:         o.Pickup,
		PaymentMethod:  o.PaymentMethod,
		Notes:          o.Notes,
		DeliveryFee:    o.DeliveryFee.StringFixed(2),
		Subtotal:       o.Subtotal.StringFixed(2),
		Total:          o.Total.StringFixed(2),
		Status:         string(o.Status),
		Items:          items,
		CreatedAt:      o.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      o.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func mapHistory(entries []statuslog.Entry) []wire.StatusLogResponse {
	out := make([]wire.StatusLogResponse, len(entries))
	for i, e := range entries {
		out[i] = wire.StatusLogResponse{
			From:      string(e.From),
			To:        string(e.To),
			RequestID: e.RequestID,
			TraceID:   e.TraceID,
			ChangedAt: e.ChangedAt.UTC().Format(time.RFC3339Nano),
		}
	}
	return out
}

func mapFieldErrors(fields []app.FieldError) []wire.FieldError {
	out := make([]wire.FieldError, len(fields))
	for i, f := range fields {
		out[i] = wire.FieldError{Field: f.Field, Message: f.Message}
	}
	return out
}
