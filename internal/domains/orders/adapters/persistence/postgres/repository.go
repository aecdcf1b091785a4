package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Apurer/ruchi-orders/internal/domains/orders/domain"
	"github.com/Apurer/ruchi-orders/internal/domains/orders/ports"
)

// DefaultTable is the relational counterpart of the orders collection.
const DefaultTable = "orders"

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM. Schema is owned by the migrations package.
type Repository struct {
	db    *gorm.DB
	table string
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB, table string) *Repository {
	if strings.TrimSpace(table) == "" {
		table = DefaultTable
	}
	return &Repository{db: db, table: table}
}

// OrderRecord maps the order aggregate to a relational row.
type OrderRecord struct {
	ID             string          `gorm:"primaryKey;column:id;type:varchar(64)"`
	CustomerName   string          `gorm:"column:customer_name;not null"`
	Address        string          `gorm:"column:address;not null"`
	OrderDate      time.Time       `gorm:"column:order_date;not null"`
	Quantity       int             `gorm:"column:quantity;not null"`
	FlavorSize     string          `gorm:"column:flavor_size;not null"`
	CostPerPiece   decimal.Decimal `gorm:"column:cost_per_piece;type:numeric(12,2);not null"`
	AdvancePayment decimal.Decimal `gorm:"column:advance_payment;type:numeric(12,2);not null"`
	TotalPayment   decimal.Decimal `gorm:"column:total_payment;type:numeric(12,2);not null"`
	PendingAmount  decimal.Decimal `gorm:"column:pending_amount;type:numeric(12,2);not null;index"`
	IsDelivered    bool            `gorm:"column:is_delivered;not null;default:false"`
	CreatedAt      time.Time       `gorm:"column:created_at;not null;index"`
}

func (r *Repository) Create(ctx context.Context, order *domain.Order) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if order == nil {
		return errors.New("order is nil")
	}
	record := toRecord(order)
	return r.db.WithContext(ctx).Table(r.table).Create(&record).Error
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record OrderRecord
	if err := r.db.WithContext(ctx).Table(r.table).Where("id = ?", id).Take(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) List(ctx context.Context) ([]*domain.Order, error) {
	return r.find(ctx, r.db.WithContext(ctx).Table(r.table))
}

func (r *Repository) ListPending(ctx context.Context) ([]*domain.Order, error) {
	return r.find(ctx, r.db.WithContext(ctx).Table(r.table).Where("pending_amount > 0"))
}

func (r *Repository) SetDelivered(ctx context.Context, id string) error {
	return r.updateColumn(ctx, id, "is_delivered", true)
}

func (r *Repository) SetPendingAmount(ctx context.Context, id string, amount decimal.Decimal) error {
	return r.updateColumn(ctx, id, "pending_amount", amount)
}

// Delete removes an order; a missing id is not reported.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Table(r.table).Where("id = ?", id).Delete(&OrderRecord{}).Error
}

func (r *Repository) find(_ context.Context, query *gorm.DB) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []OrderRecord
	if err := query.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders, nil
}

func (r *Repository) updateColumn(ctx context.Context, id, column string, value any) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Table(r.table).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toRecord(order *domain.Order) OrderRecord {
	return OrderRecord{
		ID:             order.ID,
		CustomerName:   order.CustomerName,
		Address:        order.Address,
		OrderDate:      order.OrderDate,
		Quantity:       order.Quantity,
		FlavorSize:     order.FlavorSize,
		CostPerPiece:   order.CostPerPiece,
		AdvancePayment: order.AdvancePayment,
		TotalPayment:   order.TotalPayment,
		PendingAmount:  order.PendingAmount,
		IsDelivered:    order.IsDelivered,
		CreatedAt:      order.CreatedAt,
	}
}

func (r OrderRecord) toDomain() *domain.Order {
	return &domain.Order{
		ID:             r.ID,
		CustomerName:   r.CustomerName,
		Address:        r.Address,
		OrderDate:      r.OrderDate.UTC(),
		Quantity:       r.Quantity,
		FlavorSize:     r.FlavorSize,
		CostPerPiece:   r.CostPerPiece,
		AdvancePayment: r.AdvancePayment,
		TotalPayment:   r.TotalPayment,
		PendingAmount:  r.PendingAmount,
		IsDelivered:    r.IsDelivered,
		CreatedAt:      r.CreatedAt.UTC(),
	}
}
