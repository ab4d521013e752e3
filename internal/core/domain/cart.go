package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// MaxCartItemQuantity caps a single cart line.
const MaxCartItemQuantity = 99

var (
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrInvalidQuantity  = errors.New("invalid quantity")
)

// CartItem is one line of a user's volatile cart. Price is the catalog price
// at the time the item was added; checkout re-reads the catalog anyway.
type CartItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Cart is the materialised view of a user's cart store entry.
type Cart struct {
	UserID string     `json:"-"`
	Items  []CartItem `json:"items"`
}

// WishlistItem is a product reference saved for later.
type WishlistItem struct {
	ProductID string `json:"product_id"`
}
