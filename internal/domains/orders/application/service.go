package application

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Apurer/ruchi-orders/internal/domains/orders/domain"
	"github.com/Apurer/ruchi-orders/internal/domains/orders/ports"
)

// Service orchestrates order use cases over an injected repository.
type Service struct {
	repo   ports.Repository
	now    func() time.Time
	newID  func() string
	policy domain.Policy
}

type Option func(*Service)

// WithClock overrides the source of creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how order identifiers are assigned.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithPolicy sets the optional validation rules.
func WithPolicy(policy domain.Policy) Option {
	return func(s *Service) {
		s.policy = policy
	}
}

func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) CreateOrder(ctx context.Context, draft domain.Draft) (*domain.Order, error) {
	order, err := domain.NewOrder(s.newID(), draft, s.now(), s.policy)
	if err != nil {
		return nil, mapError(err)
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	domain.SortNewestFirst(orders)
	return orders, nil
}

// ListPendingOrders returns the active pending view: orders that still owe money.
func (s *Service) ListPendingOrders(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	pending := orders[:0]
	for _, order := range orders {
		if order.IsPending() {
			pending = append(pending, order)
		}
	}
	domain.SortNewestFirst(pending)
	return pending, nil
}

func (s *Service) MarkDelivered(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	order.MarkDelivered()
	if err := s.repo.SetDelivered(ctx, order.ID); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdatePendingAmount overwrites the unpaid balance. Zero marks the order fully paid.
func (s *Service) UpdatePendingAmount(ctx context.Context, id string, amount decimal.Decimal) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if err := order.SetPendingAmount(amount); err != nil {
		return nil, mapError(err)
	}
	if err := s.repo.SetPendingAmount(ctx, order.ID, order.PendingAmount); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, strings.TrimSpace(id))
}

var _ ports.Service = (*Service)(nil)
