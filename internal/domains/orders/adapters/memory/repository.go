package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Apurer/ruchi-orders/internal/domains/orders/domain"
	"github.com/Apurer/ruchi-orders/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

type entry struct {
	order domain.Order
	seq   int64
}

// Repository is an in-memory order persistence adapter.
type Repository struct {
	mu      sync.RWMutex
	orders  map[string]*entry
	nextSeq int64
}

func NewRepository() *Repository {
	return &Repository{orders: map[string]*entry{}}
}

func (r *Repository) Create(_ context.Context, order *domain.Order) error {
	if order == nil {
		return errors.New("order is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[order.ID]; exists {
		return errors.New("order id already assigned")
	}
	r.nextSeq++
	r.orders[order.ID] = &entry{order: *order, seq: r.nextSeq}
	return nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := e.order
	return &clone, nil
}

func (r *Repository) List(_ context.Context) ([]*domain.Order, error) {
	return r.collect(func(*domain.Order) bool { return true }), nil
}

func (r *Repository) ListPending(_ context.Context) ([]*domain.Order, error) {
	return r.collect((*domain.Order).IsPending), nil
}

func (r *Repository) SetDelivered(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.orders[id]
	if !ok {
		return ports.ErrNotFound
	}
	e.order.IsDelivered = true
	return nil
}

func (r *Repository) SetPendingAmount(_ context.Context, id string, amount decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.orders[id]
	if !ok {
		return ports.ErrNotFound
	}
	e.order.PendingAmount = amount
	return nil
}

func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, id)
	return nil
}

// collect returns clones newest first; insertion order breaks timestamp ties.
func (r *Repository) collect(keep func(*domain.Order) bool) []*domain.Order {
	r.mu.RLock()
	snapshot := make([]entry, 0, len(r.orders))
	for _, e := range r.orders {
		if keep(&e.order) {
			snapshot = append(snapshot, *e)
		}
	}
	r.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool {
		a, b := snapshot[i], snapshot[j]
		if !a.order.CreatedAt.Equal(b.order.CreatedAt) {
			return a.order.CreatedAt.After(b.order.CreatedAt)
		}
		return a.seq > b.seq
	})
	list := make([]*domain.Order, 0, len(snapshot))
	for i := range snapshot {
		list = append(list, &snapshot[i].order)
	}
	return list
}
