package observability

import (
	"context"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	ordersdomain "github.com/Apurer/ruchi-orders/internal/domains/orders/domain"
	ordersports "github.com/Apurer/ruchi-orders/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/ruchi-orders/internal/domains/orders/adapters/observability/service"

// Service decorates the orders service with tracing, logging, and metrics.
type Service struct {
	inner   ordersports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core orders service.
func New(inner ordersports.Service, opts ...Option) ordersports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) CreateOrder(ctx context.Context, draft ordersdomain.Draft) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder",
		trace.WithAttributes(attribute.Int("order.quantity", draft.Quantity), attribute.String("order.flavor_size", draft.FlavorSize)))
	defer span.End()

	s.logInfo(ctx, "adding order", slog.Int("order.quantity", draft.Quantity))
	result, err := s.inner.CreateOrder(ctx, draft)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to add order")
	}
	span.SetAttributes(attribute.String("order.id", result.ID))
	s.metrics.recordCreated(ctx, result)
	s.logInfo(ctx, "order added",
		slog.String("order.id", result.ID),
		slog.String("order.total_payment", result.TotalPayment.StringFixed(ordersdomain.CurrencyPlaces)),
		slog.String("order.pending_amount", result.PendingAmount.StringFixed(ordersdomain.CurrencyPlaces)))
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context) ([]*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListOrders")
	defer span.End()

	result, err := s.inner.ListOrders(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to fetch orders")
	}
	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Service) ListPendingOrders(ctx context.Context) ([]*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListPendingOrders")
	defer span.End()

	result, err := s.inner.ListPendingOrders(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to fetch pending orders")
	}
	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Service) MarkDelivered(ctx context.Context, id string) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.MarkDelivered", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	s.logInfo(ctx, "marking order as delivered", slog.String("order.id", id))
	result, err := s.inner.MarkDelivered(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to mark order as delivered", slog.String("order.id", id))
	}
	s.metrics.recordDelivered(ctx)
	return result, nil
}

func (s *Service) UpdatePendingAmount(ctx context.Context, id string, amount decimal.Decimal) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.UpdatePendingAmount",
		trace.WithAttributes(attribute.String("order.id", id), attribute.String("order.pending_amount", amount.String())))
	defer span.End()

	s.logInfo(ctx, "updating pending amount", slog.String("order.id", id), slog.String("order.pending_amount", amount.String()))
	result, err := s.inner.UpdatePendingAmount(ctx, id, amount)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update pending amount", slog.String("order.id", id))
	}
	s.metrics.recordPendingUpdate(ctx, result.IsPending())
	return result, nil
}

func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.DeleteOrder", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	s.logInfo(ctx, "deleting order", slog.String("order.id", id))
	if err := s.inner.DeleteOrder(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete order", slog.String("order.id", id))
	}
	s.metrics.recordDeleted(ctx)
	s.logInfo(ctx, "order deleted", slog.String("order.id", id))
	return nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	ordersCreated   metric.Int64Counter
	ordersDelivered metric.Int64Counter
	ordersDeleted   metric.Int64Counter
	pendingUpdates  metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	created, _ := m.Int64Counter("orders.service.orders_created", metric.WithDescription("Number of orders added"))
	delivered, _ := m.Int64Counter("orders.service.orders_delivered", metric.WithDescription("Number of deliver transitions"))
	deleted, _ := m.Int64Counter("orders.service.orders_deleted", metric.WithDescription("Number of delete requests"))
	pending, _ := m.Int64Counter("orders.service.pending_updates", metric.WithDescription("Number of pending amount edits"))
	return serviceMetrics{ordersCreated: created, ordersDelivered: delivered, ordersDeleted: deleted, pendingUpdates: pending}
}

func (m serviceMetrics) recordCreated(ctx context.Context, order *ordersdomain.Order) {
	if m.ordersCreated != nil {
		m.ordersCreated.Add(ctx, 1, metric.WithAttributes(attribute.Bool("order.pending", order.IsPending())))
	}
}

func (m serviceMetrics) recordDelivered(ctx context.Context) {
	if m.ordersDelivered != nil {
		m.ordersDelivered.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordDeleted(ctx context.Context) {
	if m.ordersDeleted != nil {
		m.ordersDeleted.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordPendingUpdate(ctx context.Context, stillPending bool) {
	if m.pendingUpdates != nil {
		m.pendingUpdates.Add(ctx, 1, metric.WithAttributes(attribute.Bool("order.pending", stillPending)))
	}
}

var _ ordersports.Service = (*Service)(nil)
