package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Apurer/ruchi-orders/internal/domains/orders/domain"
)

// Service exposes order use cases to adapters.
type Service interface {
	CreateOrder(ctx context.Context, draft domain.Draft) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	ListPendingOrders(ctx context.Context) ([]*domain.Order, error)
	MarkDelivered(ctx context.Context, id string) (*domain.Order, error)
	UpdatePendingAmount(ctx context.Context, id string, amount decimal.Decimal) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}
