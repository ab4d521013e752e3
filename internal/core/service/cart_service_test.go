package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/trendkart/commerce-api/internal/core/domain"
)

// memCartStore is a map-backed CartStore for tests.
type memCartStore struct {
	mu    sync.Mutex
	items map[string]map[string]domain.CartItem // userID -> productID -> item
}

func newMemCartStore() *memCartStore {
	return &memCartStore{items: make(map[string]map[string]domain.CartItem)}
}

func (s *memCartStore) Get(_ context.Context, userID string) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := &domain.Cart{UserID: userID}
	for _, item := range s.items[userID] {
		cart.Items = append(cart.Items, item)
	}
	return cart, nil
}

func (s *memCartStore) GetItem(_ context.Context, userID, productID string) (*domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[userID][productID]
	if !ok {
		return nil, domain.ErrCartItemNotFound
	}
	return &item, nil
}

func (s *memCartStore) Put(_ context.Context, userID string, item domain.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items[userID] == nil {
		s.items[userID] = make(map[string]domain.CartItem)
	}
	s.items[userID][item.ProductID] = item
	return nil
}

func (s *memCartStore) Remove(_ context.Context, userID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items[userID], productID)
	return nil
}

func (s *memCartStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, userID)
	return nil
}

type memWishlist struct {
	mu  sync.Mutex
	ids map[string][]string
}

func (w *memWishlist) List(_ context.Context, userID string) ([]domain.WishlistItem, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []domain.WishlistItem
	for _, id := range w.ids[userID] {
		out = append(out, domain.WishlistItem{ProductID: id})
	}
	return out, nil
}

func (w *memWishlist) Add(_ context.Context, userID, productID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, id := range w.ids[userID] {
		if id == productID {
			return nil
		}
	}
	if w.ids == nil {
		w.ids = make(map[string][]string)
	}
	w.ids[userID] = append(w.ids[userID], productID)
	return nil
}

func (w *memWishlist) Remove(_ context.Context, userID, productID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := w.ids[userID]
	for i, id := range ids {
		if id == productID {
			w.ids[userID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return nil
}

func newCartFixture(stock int) (*CartService, *memCartStore) {
	store := newMemCartStore()
	products := newStubProductRepo(&domain.Product{
		ID:    "p-shirt",
		Name:  "Linen Shirt",
		Price: decimal.RequireFromString("99.99"),
		Stock: stock,
	})
	svc := NewCartService(store, &memWishlist{ids: make(map[string][]string)}, products, zerolog.Nop())
	return svc, store
}

func TestAddToCart_CappedByStock(t *testing.T) {
	svc, _ := newCartFixture(3)

	err := svc.AddToCart(context.Background(), testUser, "p-shirt", 5)
	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if stockErr.Available != 3 {
		t.Errorf("available = %d, want 3", stockErr.Available)
	}
}

func TestAddToCart_IncrementAwareCap(t *testing.T) {
	svc, _ := newCartFixture(5)

	if err := svc.AddToCart(context.Background(), testUser, "p-shirt", 3); err != nil {
		t.Fatalf("first add: %v", err)
	}
	err := svc.AddToCart(context.Background(), testUser, "p-shirt", 3)
	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if stockErr.Available != 2 {
		t.Errorf("available = %d, want 2 (5 in stock minus 3 already in cart)", stockErr.Available)
	}
}

func TestAddToCart_MergesQuantities(t *testing.T) {
	svc, store := newCartFixture(10)

	if err := svc.AddToCart(context.Background(), testUser, "p-shirt", 2); err != nil {
		t.Fatal(err)
	}
	if err := svc.AddToCart(context.Background(), testUser, "p-shirt", 3); err != nil {
		t.Fatal(err)
	}
	item, _ := store.GetItem(context.Background(), testUser, "p-shirt")
	if item == nil || item.Quantity != 5 {
		t.Fatalf("item = %+v, want quantity 5", item)
	}
	if !item.Price.Equal(decimal.RequireFromString("99.99")) {
		t.Errorf("item price = %s, want catalog price 99.99", item.Price)
	}
}

// faultyCartStore fails line reads while letting everything else through.
type faultyCartStore struct {
	*memCartStore
	getItemErr error
}

func (s *faultyCartStore) GetItem(ctx context.Context, userID, productID string) (*domain.CartItem, error) {
	if s.getItemErr != nil {
		return nil, s.getItemErr
	}
	return s.memCartStore.GetItem(ctx, userID, productID)
}

func TestAddToCart_StoreFailureDoesNotOverwriteLine(t *testing.T) {
	store := &faultyCartStore{memCartStore: newMemCartStore()}
	products := newStubProductRepo(&domain.Product{
		ID:    "p-shirt",
		Name:  "Linen Shirt",
		Price: decimal.RequireFromString("99.99"),
		Stock: 10,
	})
	svc := NewCartService(store, &memWishlist{ids: make(map[string][]string)}, products, zerolog.Nop())

	if err := svc.AddToCart(context.Background(), testUser, "p-shirt", 4); err != nil {
		t.Fatalf("seed add: %v", err)
	}

	storeErr := errors.New("connection reset")
	store.getItemErr = storeErr
	if err := svc.AddToCart(context.Background(), testUser, "p-shirt", 2); !errors.Is(err, storeErr) {
		t.Fatalf("err = %v, want the store failure surfaced", err)
	}

	store.getItemErr = nil
	item, err := store.GetItem(context.Background(), testUser, "p-shirt")
	if err != nil {
		t.Fatal(err)
	}
	if item.Quantity != 4 {
		t.Errorf("quantity = %d, want the original 4 untouched", item.Quantity)
	}
}

func TestAddToCart_PerLineCap(t *testing.T) {
	svc, _ := newCartFixture(500)

	if err := svc.AddToCart(context.Background(), testUser, "p-shirt", 100); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("err = %v, want ErrInvalidQuantity", err)
	}
}

func TestUpdateQuantity(t *testing.T) {
	svc, store := newCartFixture(10)

	if err := svc.UpdateQuantity(context.Background(), testUser, "p-shirt", 2); !errors.Is(err, domain.ErrCartItemNotFound) {
		t.Fatalf("update of absent item: err = %v, want ErrCartItemNotFound", err)
	}

	if err := svc.AddToCart(context.Background(), testUser, "p-shirt", 1); err != nil {
		t.Fatal(err)
	}
	if err := svc.UpdateQuantity(context.Background(), testUser, "p-shirt", 7); err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	item, _ := store.GetItem(context.Background(), testUser, "p-shirt")
	if item.Quantity != 7 {
		t.Errorf("quantity = %d, want 7", item.Quantity)
	}

	var stockErr *domain.InsufficientStockError
	if err := svc.UpdateQuantity(context.Background(), testUser, "p-shirt", 11); !errors.As(err, &stockErr) {
		t.Errorf("beyond-stock update: err = %v, want InsufficientStockError", err)
	}
	if err := svc.UpdateQuantity(context.Background(), testUser, "p-shirt", 0); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Errorf("zero quantity: err = %v, want ErrInvalidQuantity", err)
	}
}

func TestWishlist(t *testing.T) {
	svc, _ := newCartFixture(1)

	if err := svc.AddToWishlist(context.Background(), testUser, "p-ghost"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("unknown product: err = %v, want ErrProductNotFound", err)
	}
	if err := svc.AddToWishlist(context.Background(), testUser, "p-shirt"); err != nil {
		t.Fatal(err)
	}
	// Duplicate adds collapse.
	if err := svc.AddToWishlist(context.Background(), testUser, "p-shirt"); err != nil {
		t.Fatal(err)
	}
	items, err := svc.GetWishlist(context.Background(), testUser)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ProductID != "p-shirt" {
		t.Fatalf("wishlist = %+v, want single p-shirt", items)
	}
	if err := svc.RemoveFromWishlist(context.Background(), testUser, "p-shirt"); err != nil {
		t.Fatal(err)
	}
	if items, _ := svc.GetWishlist(context.Background(), testUser); len(items) != 0 {
		t.Errorf("wishlist after remove = %+v, want empty", items)
	}
}
