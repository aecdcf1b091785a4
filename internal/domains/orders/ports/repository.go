package ports

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Apurer/ruchi-orders/internal/domains/orders/domain"
)

var ErrNotFound = errors.New("order not found")

// Repository is the data-access contract the order store must fulfil.
// Single-field updates rely on the store's per-document atomicity.
type Repository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// List returns every order, newest first.
	List(ctx context.Context) ([]*domain.Order, error)
	// ListPending returns orders with a pending amount above zero.
	ListPending(ctx context.Context) ([]*domain.Order, error)
	SetDelivered(ctx context.Context, id string) error
	SetPendingAmount(ctx context.Context, id string, amount decimal.Decimal) error
	// Delete succeeds whether or not the order exists.
	Delete(ctx context.Context, id string) error
}
