package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Apurer/ruchi-orders/internal/domains/orders/domain"
	"github.com/Apurer/ruchi-orders/internal/domains/orders/ports"
)

// DefaultCollection is the orders collection name.
const DefaultCollection = "orders"

var _ ports.Repository = (*Repository)(nil)

// Repository stores orders as documents in a MongoDB collection.
type Repository struct {
	collection *mongo.Collection
}

// NewRepository binds the repository to database.collection. Caller manages the client lifecycle.
func NewRepository(db *mongo.Database, collection string) *Repository {
	if strings.TrimSpace(collection) == "" {
		collection = DefaultCollection
	}
	if db == nil {
		return &Repository{}
	}
	return &Repository{collection: db.Collection(collection)}
}

// EnsureIndexes creates the createdAt and pendingAmount indexes used by the listing queries.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	if err := r.ensureCollection(); err != nil {
		return err
	}
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "pendingAmount", Value: 1}}},
	})
	return err
}

type orderDocument struct {
	ID             string               `bson:"_id"`
	CustomerName   string               `bson:"customerName"`
	Address        string               `bson:"address"`
	OrderDate      time.Time            `bson:"orderDate"`
	Quantity       int                  `bson:"quantity"`
	FlavorSize     string               `bson:"flavorSize"`
	CostPerPiece   primitive.Decimal128 `bson:"costPerPiece"`
	AdvancePayment primitive.Decimal128 `bson:"advancePayment"`
	TotalPayment   primitive.Decimal128 `bson:"totalPayment"`
	PendingAmount  primitive.Decimal128 `bson:"pendingAmount"`
	IsDelivered    bool                 `bson:"isDelivered,omitempty"`
	CreatedAt      time.Time            `bson:"createdAt"`
}

func (r *Repository) Create(ctx context.Context, order *domain.Order) error {
	if err := r.ensureCollection(); err != nil {
		return err
	}
	if order == nil {
		return errors.New("order is nil")
	}
	doc, err := toDocument(order)
	if err != nil {
		return err
	}
	_, err = r.collection.InsertOne(ctx, doc)
	return err
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if err := r.ensureCollection(); err != nil {
		return nil, err
	}
	var doc orderDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain()
}

func (r *Repository) List(ctx context.Context) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{})
}

func (r *Repository) ListPending(ctx context.Context) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{"pendingAmount": bson.M{"$gt": 0}})
}

func (r *Repository) SetDelivered(ctx context.Context, id string) error {
	return r.set(ctx, id, bson.M{"isDelivered": true})
}

func (r *Repository) SetPendingAmount(ctx context.Context, id string, amount decimal.Decimal) error {
	value, err := toDecimal128(amount)
	if err != nil {
		return err
	}
	return r.set(ctx, id, bson.M{"pendingAmount": value})
}

// Delete removes the document; deleting an unknown id is not an error.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.ensureCollection(); err != nil {
		return err
	}
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *Repository) find(ctx context.Context, filter bson.M) ([]*domain.Order, error) {
	if err := r.ensureCollection(); err != nil {
		return nil, err
	}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(docs))
	for i := range docs {
		order, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (r *Repository) set(ctx context.Context, id string, fields bson.M) error {
	if err := r.ensureCollection(); err != nil {
		return err
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) ensureCollection() error {
	if r == nil || r.collection == nil {
		return errors.New("mongo order repository not configured")
	}
	return nil
}

func toDocument(order *domain.Order) (orderDocument, error) {
	doc := orderDocument{
		ID:           order.ID,
		CustomerName: order.CustomerName,
		Address:      order.Address,
		OrderDate:    order.OrderDate,
		Quantity:     order.Quantity,
		FlavorSize:   order.FlavorSize,
		IsDelivered:  order.IsDelivered,
		CreatedAt:    order.CreatedAt,
	}
	var err error
	if doc.CostPerPiece, err = toDecimal128(order.CostPerPiece); err != nil {
		return orderDocument{}, err
	}
	if doc.AdvancePayment, err = toDecimal128(order.AdvancePayment); err != nil {
		return orderDocument{}, err
	}
	if doc.TotalPayment, err = toDecimal128(order.TotalPayment); err != nil {
		return orderDocument{}, err
	}
	if doc.PendingAmount, err = toDecimal128(order.PendingAmount); err != nil {
		return orderDocument{}, err
	}
	return doc, nil
}

func (d orderDocument) toDomain() (*domain.Order, error) {
	order := &domain.Order{
		ID:           d.ID,
		CustomerName: d.CustomerName,
		Address:      d.Address,
		OrderDate:    d.OrderDate.UTC(),
		Quantity:     d.Quantity,
		FlavorSize:   d.FlavorSize,
		IsDelivered:  d.IsDelivered,
		CreatedAt:    d.CreatedAt.UTC(),
	}
	var err error
	if order.CostPerPiece, err = fromDecimal128(d.CostPerPiece); err != nil {
		return nil, fmt.Errorf("order %s costPerPiece: %w", d.ID, err)
	}
	if order.AdvancePayment, err = fromDecimal128(d.AdvancePayment); err != nil {
		return nil, fmt.Errorf("order %s advancePayment: %w", d.ID, err)
	}
	if order.TotalPayment, err = fromDecimal128(d.TotalPayment); err != nil {
		return nil, fmt.Errorf("order %s totalPayment: %w", d.ID, err)
	}
	if order.PendingAmount, err = fromDecimal128(d.PendingAmount); err != nil {
		return nil, fmt.Errorf("order %s pendingAmount: %w", d.ID, err)
	}
	return order, nil
}

func toDecimal128(value decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(value.StringFixed(domain.CurrencyPlaces))
}

func fromDecimal128(value primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(value.String())
}
