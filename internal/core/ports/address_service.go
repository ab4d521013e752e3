package ports

import (
	"context"

	"github.com/trendkart/commerce-api/internal/core/domain"
)

// UpdateAddressInput carries a partial address update; nil fields are left
// unchanged.
type UpdateAddressInput struct {
	FullName *string
	Phone    *string
	Street   *string
	City     *string
	Pincode  *string
}

// AddressService defines address-book use cases, all scoped to the owner.
type AddressService interface {
	ListAddresses(ctx context.Context, userID string) ([]*domain.Address, error)
	CreateAddress(ctx context.Context, userID string, input NewAddressInput) (*domain.Address, error)
	UpdateAddress(ctx context.Context, userID, addressID string, input UpdateAddressInput) (*domain.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID string) error
}
