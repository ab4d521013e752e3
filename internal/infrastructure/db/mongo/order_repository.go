package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trendkart/commerce-api/internal/core/domain"
)

const (
	collectionOrders    = "orders"
	collectionAddresses = "addresses"
)

// OrderRepository persists orders with their items embedded, so order and
// items are one document and share the document's atomicity. Monetary fields
// are stored as strings.
type OrderRepository struct {
	orders    *mongo.Collection
	addresses *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{
		orders:    db.Collection(collectionOrders),
		addresses: db.Collection(collectionAddresses),
	}
}

type mongoOrderItem struct {
	ID        string `bson:"id"`
	ProductID string `bson:"product_id"`
	Name      string `bson:"name"`
	Quantity  int    `bson:"quantity"`
	Price     string `bson:"price"`
}

type mongoOrder struct {
	ID                string           `bson:"_id"`
	UserID            string           `bson:"user_id"`
	AddressID         string           `bson:"address_id,omitempty"`
	PaymentMethod     string           `bson:"payment_method"`
	PaymentStatus     string           `bson:"payment_status"`
	OrderStatus       string           `bson:"order_status"`
	TotalAmount       string           `bson:"total_amount"`
	CheckoutSessionID string           `bson:"checkout_session_id,omitempty"`
	Items             []mongoOrderItem `bson:"items"`
	CreatedAt         time.Time        `bson:"created_at"`
}

func toMongoOrder(o *domain.Order) *mongoOrder {
	doc := &mongoOrder{
		ID:                o.ID,
		UserID:            o.UserID,
		AddressID:         o.AddressID,
		PaymentMethod:     string(o.PaymentMethod),
		PaymentStatus:     string(o.PaymentStatus),
		OrderStatus:       string(o.Status),
		TotalAmount:       o.TotalAmount.StringFixed(2),
		CheckoutSessionID: o.CheckoutSessionID,
		CreatedAt:         o.CreatedAt,
	}
	for _, it := range o.Items {
		doc.Items = append(doc.Items, mongoOrderItem{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price.StringFixed(2),
		})
	}
	return doc
}

func (d *mongoOrder) toDomain() (*domain.Order, error) {
	total, err := decimal.NewFromString(d.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("order %s: bad stored total %q: %w", d.ID, d.TotalAmount, err)
	}
	order := &domain.Order{
		ID:                d.ID,
		UserID:            d.UserID,
		AddressID:         d.AddressID,
		PaymentMethod:     domain.PaymentMethod(d.PaymentMethod),
		PaymentStatus:     domain.PaymentStatus(d.PaymentStatus),
		Status:            domain.OrderStatus(d.OrderStatus),
		TotalAmount:       total,
		CheckoutSessionID: d.CheckoutSessionID,
		CreatedAt:         d.CreatedAt,
	}
	for _, it := range d.Items {
		price, err := decimal.NewFromString(it.Price)
		if err != nil {
			return nil, fmt.Errorf("order %s item %s: bad stored price %q: %w", d.ID, it.ID, it.Price, err)
		}
		order.Items = append(order.Items, domain.OrderItem{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     price,
		})
	}
	return order, nil
}

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	_, err := r.orders.InsertOne(ctx, toMongoOrder(o))
	return err
}

// FindByIDForUser loads one order. An empty userID skips the ownership
// filter (admin and internal callers).
func (r *OrderRepository) FindByIDForUser(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	filter := bson.M{"_id": orderID}
	if userID != "" {
		filter["user_id"] = userID
	}

	var doc mongoOrder
	if err := r.orders.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return doc.toDomain()
}

// ListByUser returns the user's orders newest first with their addresses
// resolved in a second batched query. A deleted address renders as nil.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.orders.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var orders []*domain.Order
	addressIDs := make([]string, 0)
	for cur.Next(ctx) {
		var doc mongoOrder
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		order, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
		if order.AddressID != "" {
			addressIDs = append(addressIDs, order.AddressID)
		}
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	if len(addressIDs) == 0 {
		return orders, nil
	}

	addrCur, err := r.addresses.Find(ctx, bson.M{"_id": bson.M{"$in": addressIDs}})
	if err != nil {
		return nil, err
	}
	defer addrCur.Close(ctx)

	byID := make(map[string]*domain.Address)
	for addrCur.Next(ctx) {
		var a domain.Address
		if err := addrCur.Decode(&a); err != nil {
			return nil, err
		}
		byID[a.ID] = &a
	}
	if err := addrCur.Err(); err != nil {
		return nil, err
	}

	for _, order := range orders {
		order.Address = byID[order.AddressID]
	}
	return orders, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	res, err := r.orders.UpdateOne(ctx,
		bson.M{"_id": orderID},
		bson.M{"$set": bson.M{"order_status": string(status)}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) SetCheckoutSession(ctx context.Context, orderID, sessionID string) error {
	res, err := r.orders.UpdateOne(ctx,
		bson.M{"_id": orderID},
		bson.M{"$set": bson.M{"checkout_session_id": sessionID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// MarkPaid records the payment and, only while the order is still pending,
// advances it to processing. Re-delivery re-asserts payment_status without
// regressing fulfilment, so the call is idempotent.
func (r *OrderRepository) MarkPaid(ctx context.Context, orderID string) error {
	res, err := r.orders.UpdateOne(ctx,
		bson.M{"_id": orderID, "order_status": string(domain.OrderPending)},
		bson.M{"$set": bson.M{
			"payment_status": string(domain.PaymentPaid),
			"order_status":   string(domain.OrderProcessing),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Already past pending: only re-assert the payment flag.
	res, err = r.orders.UpdateOne(ctx,
		bson.M{"_id": orderID},
		bson.M{"$set": bson.M{"payment_status": string(domain.PaymentPaid)}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// EnsureIndexes creates the indexes order queries rely on.
func (r *OrderRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "checkout_session_id", Value: 1}}},
	}

	_, err := r.orders.Indexes().CreateMany(ctx, indexes)
	return err
}
