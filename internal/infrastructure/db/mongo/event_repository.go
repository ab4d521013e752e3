package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trendkart/commerce-api/internal/core/domain"
)

const collectionOrderEvents = "order_events"

// OrderEventRepository stores the append-only order audit trail.
type OrderEventRepository struct {
	col *mongo.Collection
}

func NewOrderEventRepository(db *mongo.Database) *OrderEventRepository {
	return &OrderEventRepository{col: db.Collection(collectionOrderEvents)}
}

type mongoOrderEvent struct {
	OrderID   string    `bson:"order_id"`
	Type      string    `bson:"type"`
	Note      string    `bson:"note,omitempty"`
	Timestamp time.Time `bson:"timestamp"`
}

func (r *OrderEventRepository) Insert(ctx context.Context, event *domain.OrderEvent) error {
	_, err := r.col.InsertOne(ctx, mongoOrderEvent{
		OrderID:   event.OrderID,
		Type:      string(event.Type),
		Note:      event.Note,
		Timestamp: event.Timestamp,
	})
	return err
}

func (r *OrderEventRepository) ListByOrder(ctx context.Context, orderID string) ([]*domain.OrderEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"order_id": orderID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []*domain.OrderEvent
	for cur.Next(ctx) {
		var doc mongoOrderEvent
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		events = append(events, &domain.OrderEvent{
			OrderID:   doc.OrderID,
			Type:      domain.OrderEventType(doc.Type),
			Note:      doc.Note,
			Timestamp: doc.Timestamp,
		})
	}
	return events, cur.Err()
}

// EnsureIndexes creates the per-order timeline index.
func (r *OrderEventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	return err
}
