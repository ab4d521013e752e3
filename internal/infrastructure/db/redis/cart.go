package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/trendkart/commerce-api/internal/core/domain"
)

// CartStore keeps each user's cart in a Redis hash keyed by product id, so a
// single line can be read, replaced or removed without rewriting the cart.
type CartStore struct {
	client *redis.Client
}

func NewCartStore(client *redis.Client) *CartStore {
	return &CartStore{client: client}
}

func cartKey(userID string) string {
	return "cart:" + userID
}

func (s *CartStore) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	fields, err := s.client.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("cart get: %w", err)
	}

	cart := &domain.Cart{UserID: userID}
	for productID, raw := range fields {
		var item domain.CartItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, fmt.Errorf("cart get: decode item %s: %w", productID, err)
		}
		cart.Items = append(cart.Items, item)
	}
	return cart, nil
}

func (s *CartStore) GetItem(ctx context.Context, userID, productID string) (*domain.CartItem, error) {
	raw, err := s.client.HGet(ctx, cartKey(userID), productID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCartItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cart get item: %w", err)
	}

	var item domain.CartItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return nil, fmt.Errorf("cart get item: decode: %w", err)
	}
	return &item, nil
}

func (s *CartStore) Put(ctx context.Context, userID string, item domain.CartItem) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("cart put: encode: %w", err)
	}
	return s.client.HSet(ctx, cartKey(userID), item.ProductID, raw).Err()
}

func (s *CartStore) Remove(ctx context.Context, userID, productID string) error {
	n, err := s.client.HDel(ctx, cartKey(userID), productID).Result()
	if err != nil {
		return fmt.Errorf("cart remove: %w", err)
	}
	if n == 0 {
		return domain.ErrCartItemNotFound
	}
	return nil
}

func (s *CartStore) Clear(ctx context.Context, userID string) error {
	return s.client.Del(ctx, cartKey(userID)).Err()
}

// WishlistStore keeps each user's saved product ids in a Redis set.
type WishlistStore struct {
	client *redis.Client
}

func NewWishlistStore(client *redis.Client) *WishlistStore {
	return &WishlistStore{client: client}
}

func wishlistKey(userID string) string {
	return "wishlist:" + userID
}

func (s *WishlistStore) List(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	ids, err := s.client.SMembers(ctx, wishlistKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("wishlist list: %w", err)
	}

	items := make([]domain.WishlistItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, domain.WishlistItem{ProductID: id})
	}
	return items, nil
}

func (s *WishlistStore) Add(ctx context.Context, userID, productID string) error {
	return s.client.SAdd(ctx, wishlistKey(userID), productID).Err()
}

func (s *WishlistStore) Remove(ctx context.Context, userID, productID string) error {
	return s.client.SRem(ctx, wishlistKey(userID), productID).Err()
}
