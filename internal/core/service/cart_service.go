package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/trendkart/commerce-api/internal/core/domain"
	"github.com/trendkart/commerce-api/internal/core/ports"
)

// CartService implements cart and wishlist operations on top of the volatile
// store. Additions and quantity changes are capped by live catalog stock so
// a cart can never promise more than the shelf holds right now (checkout
// still re-verifies under the stock lock).
type CartService struct {
	store    ports.CartStore
	wishlist ports.WishlistStore
	products ports.ProductRepository
	logger   zerolog.Logger
}

func NewCartService(store ports.CartStore, wishlist ports.WishlistStore, products ports.ProductRepository, logger zerolog.Logger) *CartService {
	return &CartService{store: store, wishlist: wishlist, products: products, logger: logger}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.store.Get(ctx, userID)
}

// AddToCart adds quantity units, merging with any existing line. The merged
// quantity must fit both the stock on hand and the per-line cap.
func (s *CartService) AddToCart(ctx context.Context, userID, productID string, quantity int) error {
	if quantity < 1 {
		return domain.ErrInvalidQuantity
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if product.Stock < quantity {
		return &domain.InsufficientStockError{ProductName: product.Name, Available: product.Stock}
	}

	existing, err := s.store.GetItem(ctx, userID, productID)
	if err != nil && !errors.Is(err, domain.ErrCartItemNotFound) {
		return err
	}

	newQuantity := quantity
	if existing != nil {
		newQuantity = existing.Quantity + quantity
		if product.Stock < newQuantity {
			return &domain.InsufficientStockError{ProductName: product.Name, Available: product.Stock - existing.Quantity}
		}
	}
	if newQuantity > domain.MaxCartItemQuantity {
		return fmt.Errorf("%w: maximum %d per item", domain.ErrInvalidQuantity, domain.MaxCartItemQuantity)
	}

	return s.store.Put(ctx, userID, domain.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  newQuantity,
	})
}

// UpdateQuantity sets an existing line to an absolute quantity.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) error {
	if quantity < 1 || quantity > domain.MaxCartItemQuantity {
		return domain.ErrInvalidQuantity
	}

	item, err := s.store.GetItem(ctx, userID, productID)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrCartItemNotFound
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if product.Stock < quantity {
		return &domain.InsufficientStockError{ProductName: product.Name, Available: product.Stock}
	}

	item.Quantity = quantity
	return s.store.Put(ctx, userID, *item)
}

func (s *CartService) RemoveFromCart(ctx context.Context, userID, productID string) error {
	return s.store.Remove(ctx, userID, productID)
}

func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	return s.store.Clear(ctx, userID)
}

func (s *CartService) GetWishlist(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	return s.wishlist.List(ctx, userID)
}

// AddToWishlist saves a product reference. The product must exist; stock is
// irrelevant for a wishlist.
func (s *CartService) AddToWishlist(ctx context.Context, userID, productID string) error {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return err
	}
	return s.wishlist.Add(ctx, userID, productID)
}

func (s *CartService) RemoveFromWishlist(ctx context.Context, userID, productID string) error {
	return s.wishlist.Remove(ctx, userID, productID)
}
