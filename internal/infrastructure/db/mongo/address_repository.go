package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trendkart/commerce-api/internal/core/domain"
)

// AddressRepository persists shipping addresses. Ownership is part of every
// filter, so a foreign id behaves exactly like a missing one.
type AddressRepository struct {
	col *mongo.Collection
}

func NewAddressRepository(db *mongo.Database) *AddressRepository {
	return &AddressRepository{col: db.Collection(collectionAddresses)}
}

func (r *AddressRepository) Create(ctx context.Context, address *domain.Address) error {
	_, err := r.col.InsertOne(ctx, address)
	return err
}

func (r *AddressRepository) FindByIDForUser(ctx context.Context, id, userID string) (*domain.Address, error) {
	var addr domain.Address
	err := r.col.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&addr)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAddressNotFound
		}
		return nil, err
	}
	return &addr, nil
}

func (r *AddressRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Address, error) {
	cur, err := r.col.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var addresses []*domain.Address
	for cur.Next(ctx) {
		var addr domain.Address
		if err := cur.Decode(&addr); err != nil {
			return nil, err
		}
		addresses = append(addresses, &addr)
	}
	return addresses, cur.Err()
}

func (r *AddressRepository) Update(ctx context.Context, address *domain.Address) error {
	res, err := r.col.ReplaceOne(ctx,
		bson.M{"_id": address.ID, "user_id": address.UserID},
		address,
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrAddressNotFound
	}
	return nil
}

func (r *AddressRepository) Delete(ctx context.Context, id, userID string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrAddressNotFound
	}
	return nil
}

// EnsureIndexes creates the ownership lookup index.
func (r *AddressRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}},
	})
	return err
}
