package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("product not found")

// Product categories mirror the storefront's two departments.
const (
	CategoryMen   = "Men"
	CategoryWomen = "Women"
)

// Product is the catalog entry. Stock is the available quantity and is only
// mutated by the order workflow's reserve/release steps; it never goes
// negative.
type Product struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	Category    string
	ImageURL    string
	Description string
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
