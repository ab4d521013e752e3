package ports

import (
	"context"

	"github.com/trendkart/commerce-api/internal/core/domain"
)

// CartStore is the volatile per-user cart (Redis-backed in production).
type CartStore interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	GetItem(ctx context.Context, userID, productID string) (*domain.CartItem, error)
	Put(ctx context.Context, userID string, item domain.CartItem) error
	Remove(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}

// WishlistStore keeps per-user saved product ids.
type WishlistStore interface {
	List(ctx context.Context, userID string) ([]domain.WishlistItem, error)
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) error
}

// CartService defines cart and wishlist use cases. Additions and quantity
// updates are capped by live catalog stock.
type CartService interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddToCart(ctx context.Context, userID, productID string, quantity int) error
	UpdateQuantity(ctx context.Context, userID, productID string, quantity int) error
	RemoveFromCart(ctx context.Context, userID, productID string) error
	ClearCart(ctx context.Context, userID string) error

	GetWishlist(ctx context.Context, userID string) ([]domain.WishlistItem, error)
	AddToWishlist(ctx context.Context, userID, productID string) error
	RemoveFromWishlist(ctx context.Context, userID, productID string) error
}
