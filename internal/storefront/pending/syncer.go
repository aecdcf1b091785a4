// Package pending keeps the pending-payment view in sync between the order
// store and the device's offline cache.
package pending

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	ordersdomain "github.com/Apurer/ruchi-orders/internal/domains/orders/domain"
)

const tracerName = "github.com/Apurer/ruchi-orders/internal/storefront/pending"

// ErrOffline means neither the order store nor the offline cache could answer.
var ErrOffline = errors.New("offline: no data available")

// OfflineError carries both failures behind ErrOffline.
type OfflineError struct {
	Remote error
	Local  error
}

func (e *OfflineError) Error() string {
	return fmt.Sprintf("%s (store: %v; offline cache: %v)", ErrOffline, e.Remote, e.Local)
}

func (e *OfflineError) Unwrap() []error {
	return []error{ErrOffline, e.Remote, e.Local}
}

// Remote is the authoritative order store.
type Remote interface {
	ListPendingOrders(ctx context.Context) ([]*ordersdomain.Order, error)
	UpdatePendingAmount(ctx context.Context, id string, amount decimal.Decimal) (*ordersdomain.Order, error)
}

// Local is the on-device mirror.
type Local interface {
	BulkUpsert(ctx context.Context, orders []*ordersdomain.Order) error
	ReadAll(ctx context.Context) ([]*ordersdomain.Order, error)
	UpdatePendingAmount(ctx context.Context, id string, amount decimal.Decimal) error
}

// View is what the pending-payment screen shows.
type View struct {
	Orders []*ordersdomain.Order
	// Offline is set when the orders came from the offline cache.
	Offline bool
}

// Update is the outcome of a pending-amount edit.
type Update struct {
	Order *ordersdomain.Order
	// Removed is set when the order is fully paid and leaves the pending view.
	Removed bool
}

// Syncer loads and edits pending orders.
type Syncer struct {
	remote Remote
	local  Local
	logger *slog.Logger
	tracer trace.Tracer
}

type Option func(*Syncer)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Syncer) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Syncer) {
		s.tracer = tr
	}
}

// NewSyncer wires the store and the offline cache.
func NewSyncer(remote Remote, local Local, opts ...Option) *Syncer {
	s := &Syncer{
		remote: remote,
		local:  local,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer: nooptrace.NewTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Load fetches pending orders from the store and mirrors them locally. When the
// store is unreachable the last mirrored state is returned with Offline set.
func (s *Syncer) Load(ctx context.Context) (View, error) {
	ctx, span := s.tracer.Start(ctx, "PendingSync.Load")
	defer span.End()

	orders, remoteErr := s.remote.ListPendingOrders(ctx)
	if remoteErr == nil {
		if err := s.local.BulkUpsert(ctx, orders); err != nil {
			s.logger.WarnContext(ctx, "failed to mirror pending orders", slog.String("error", err.Error()))
		}
		span.SetAttributes(attribute.Int("orders.count", len(orders)), attribute.Bool("offline", false))
		return View{Orders: orders}, nil
	}

	s.logger.WarnContext(ctx, "order store unavailable, loading offline data", slog.String("error", remoteErr.Error()))
	cached, localErr := s.local.ReadAll(ctx)
	if localErr != nil {
		err := &OfflineError{Remote: remoteErr, Local: localErr}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "offline cache unavailable", slog.String("error", localErr.Error()))
		return View{Offline: true}, err
	}
	pending := make([]*ordersdomain.Order, 0, len(cached))
	for _, o := range cached {
		if o.IsPending() {
			pending = append(pending, o)
		}
	}
	ordersdomain.SortNewestFirst(pending)
	span.SetAttributes(attribute.Int("orders.count", len(pending)), attribute.Bool("offline", true))
	return View{Orders: pending, Offline: true}, nil
}

// UpdatePendingAmount writes the store first and then mirrors the edit
// locally. A failed mirror is logged; the store remains authoritative.
func (s *Syncer) UpdatePendingAmount(ctx context.Context, id string, amount decimal.Decimal) (Update, error) {
	ctx, span := s.tracer.Start(ctx, "PendingSync.UpdatePendingAmount",
		trace.WithAttributes(attribute.String("order.id", id), attribute.String("order.pending_amount", amount.String())))
	defer span.End()

	id = strings.TrimSpace(id)
	if id == "" {
		return Update{}, &ordersdomain.ValidationError{Fields: map[string]string{"id": "is required"}}
	}
	if amount.IsNegative() {
		return Update{}, ordersdomain.ErrNegativePendingAmount
	}
	if !ordersdomain.InAmountRange(amount) {
		return Update{}, ordersdomain.ErrAmountOutOfRange
	}
	amount = amount.Round(ordersdomain.CurrencyPlaces)

	order, err := s.remote.UpdatePendingAmount(ctx, id, amount)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "failed to update pending amount", slog.String("order.id", id), slog.String("error", err.Error()))
		return Update{}, err
	}
	if err := s.local.UpdatePendingAmount(ctx, id, amount); err != nil {
		s.logger.WarnContext(ctx, "failed to mirror pending amount", slog.String("order.id", id), slog.String("error", err.Error()))
	}
	s.logger.InfoContext(ctx, "pending amount updated", slog.String("order.id", id), slog.String("order.pending_amount", amount.StringFixed(ordersdomain.CurrencyPlaces)))
	return Update{Order: order, Removed: !order.IsPending()}, nil
}
