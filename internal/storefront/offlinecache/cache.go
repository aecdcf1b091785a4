// Package offlinecache mirrors pending orders on the device so they can be
// shown without a connection.
package offlinecache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	ordersdomain "github.com/Apurer/ruchi-orders/internal/domains/orders/domain"
	"github.com/Apurer/ruchi-orders/internal/storefront/localdb"
)

// DefaultTable holds the pending-order records.
const DefaultTable = "pendingOrders"

// Cache is a key-value store of orders keyed by id.
type Cache struct {
	db    *gorm.DB
	table string
	owned bool
}

type record struct {
	ID      string       `gorm:"column:id;primaryKey"`
	Payload orderPayload `gorm:"column:payload;serializer:json;not null"`
}

type orderPayload struct {
	ID             string          `json:"id"`
	CustomerName   string          `json:"customerName"`
	Address        string          `json:"address"`
	OrderDate      time.Time       `json:"orderDate"`
	Quantity       int             `json:"quantity"`
	FlavorSize     string          `json:"flavorSize"`
	CostPerPiece   decimal.Decimal `json:"costPerPiece"`
	AdvancePayment decimal.Decimal `json:"advancePayment"`
	TotalPayment   decimal.Decimal `json:"totalPayment"`
	PendingAmount  decimal.Decimal `json:"pendingAmount"`
	IsDelivered    bool            `json:"isDelivered"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// New binds the cache to table in db, creating the table when absent.
// The caller keeps ownership of db.
func New(ctx context.Context, db *gorm.DB, table string) (*Cache, error) {
	if db == nil {
		return nil, errors.New("offline cache database is nil")
	}
	if strings.TrimSpace(table) == "" {
		table = DefaultTable
	}
	if err := db.WithContext(ctx).Table(table).AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("prepare offline cache table %s: %w", table, err)
	}
	return &Cache{db: db, table: table}, nil
}

// Open opens (or creates) the database file at path and binds the cache to table.
// Close releases the file.
func Open(ctx context.Context, path, table string) (*Cache, error) {
	db, err := localdb.Open(path)
	if err != nil {
		return nil, err
	}
	cache, err := New(ctx, db, table)
	if err != nil {
		_ = localdb.Close(db)
		return nil, err
	}
	cache.owned = true
	return cache, nil
}

// BulkUpsert inserts or replaces every order by id.
func (c *Cache) BulkUpsert(ctx context.Context, orders []*ordersdomain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	records := make([]record, 0, len(orders))
	for _, o := range orders {
		if o == nil || o.ID == "" {
			continue
		}
		records = append(records, record{ID: o.ID, Payload: toPayload(o)})
	}
	if len(records) == 0 {
		return nil
	}
	return c.db.WithContext(ctx).Table(c.table).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&records).Error
}

// ReadAll returns every cached order in no particular order.
func (c *Cache) ReadAll(ctx context.Context) ([]*ordersdomain.Order, error) {
	var records []record
	if err := c.db.WithContext(ctx).Table(c.table).Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*ordersdomain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].Payload.toDomain(records[i].ID))
	}
	return orders, nil
}

// UpdatePendingAmount rewrites the pending amount of a cached order.
// Ids that are not cached are ignored.
func (c *Cache) UpdatePendingAmount(ctx context.Context, id string, amount decimal.Decimal) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec record
		err := tx.Table(c.table).Where("id = ?", id).Take(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		rec.Payload.PendingAmount = amount.Round(ordersdomain.CurrencyPlaces)
		return tx.Table(c.table).Save(&rec).Error
	})
}

// Close releases the database when the cache opened it.
func (c *Cache) Close() error {
	if c == nil || !c.owned {
		return nil
	}
	return localdb.Close(c.db)
}

func toPayload(o *ordersdomain.Order) orderPayload {
	return orderPayload{
		ID:             o.ID,
		CustomerName:   o.CustomerName,
		Address:        o.Address,
		OrderDate:      o.OrderDate.UTC(),
		Quantity:       o.Quantity,
		FlavorSize:     o.FlavorSize,
		CostPerPiece:   o.CostPerPiece,
		AdvancePayment: o.AdvancePayment,
		TotalPayment:   o.TotalPayment,
		PendingAmount:  o.PendingAmount,
		IsDelivered:    o.IsDelivered,
		CreatedAt:      o.CreatedAt.UTC(),
	}
}

func (p orderPayload) toDomain(id string) *ordersdomain.Order {
	return &ordersdomain.Order{
		ID:             id,
		CustomerName:   p.CustomerName,
		Address:        p.Address,
		OrderDate:      p.OrderDate.UTC(),
		Quantity:       p.Quantity,
		FlavorSize:     p.FlavorSize,
		CostPerPiece:   p.CostPerPiece,
		AdvancePayment: p.AdvancePayment,
		TotalPayment:   p.TotalPayment,
		PendingAmount:  p.PendingAmount,
		IsDelivered:    p.IsDelivered,
		CreatedAt:      p.CreatedAt.UTC(),
	}
}
