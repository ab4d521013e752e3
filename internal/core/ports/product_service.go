package ports

import (
	"context"

	"github.com/trendkart/commerce-api/internal/core/domain"
)

// ListProductsResult is the paginated catalog view.
type ListProductsResult struct {
	Items      []*domain.Product
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// ProductService defines read-only catalog use cases. Stock mutation is the
// order workflow's job, not the catalog's.
type ProductService interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context, filter ListProductsFilter) (*ListProductsResult, error)
}
