package ports

import (
	"context"

	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/order-service/app"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/order-service/domain"
	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/order-service/statuslog"
)

var _ OrderService = (*app.OrderService)(nil)

type OrderService interface {
	CreateOrder(ctx context.Context, req app.CreateOrderRequest) (*app.CreateOrderResult, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, status string) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID, status string) (*domain.Order, error)
	History(ctx context.Context, orderID string) ([]statuslog.Entry, error)
}
