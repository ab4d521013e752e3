package ports

import (
	"context"

	"github.com/trendkart/commerce-api/internal/core/domain"
)

// ListProductsFilter narrows and pages the catalog listing.
type ListProductsFilter struct {
	Category string
	Search   string
	Page     int
	Limit    int
}

// ProductRepository is the stock ledger plus catalog reads. Reserve and
// Release are the only stock mutations in the system.
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter ListProductsFilter) ([]*domain.Product, int64, error)
	// Reserve atomically decrements stock by qty when at least qty units are
	// available, returning the product as of the decrement. It returns
	// domain.ErrProductNotFound for an unknown id and
	// *domain.InsufficientStockError when stock < qty. Within a transaction
	// the decrement is undone by rollback.
	Reserve(ctx context.Context, id string, qty int) (*domain.Product, error)
	// Release returns previously reserved units, compensating a reservation
	// whose order could not complete.
	Release(ctx context.Context, id string, qty int) error
}
