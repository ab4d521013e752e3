package ports

import (
	"context"

	"github.com/trendkart/commerce-api/internal/core/domain"
)

// AddressRepository persists user-owned shipping addresses. Every lookup and
// mutation is scoped by userID; a miss is domain.ErrAddressNotFound whether
// the address does not exist or belongs to someone else.
type AddressRepository interface {
	Create(ctx context.Context, address *domain.Address) error
	FindByIDForUser(ctx context.Context, id, userID string) (*domain.Address, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Address, error)
	Update(ctx context.Context, address *domain.Address) error
	Delete(ctx context.Context, id, userID string) error
}
