package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trendkart/commerce-api/internal/core/domain"
	"github.com/trendkart/commerce-api/internal/core/ports"
)

// AddressService implements the user's address book. Every mutation is
// scoped to the owner; a foreign address behaves as if it did not exist.
type AddressService struct {
	repo   ports.AddressRepository
	logger zerolog.Logger
}

func NewAddressService(repo ports.AddressRepository, logger zerolog.Logger) *AddressService {
	return &AddressService{repo: repo, logger: logger}
}

func (s *AddressService) ListAddresses(ctx context.Context, userID string) ([]*domain.Address, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *AddressService) CreateAddress(ctx context.Context, userID string, in ports.NewAddressInput) (*domain.Address, error) {
	address := &domain.Address{
		ID:       uuid.NewString(),
		UserID:   userID,
		FullName: in.FullName,
		Phone:    in.Phone,
		Street:   in.Street,
		City:     in.City,
		Pincode:  in.Pincode,
	}
	if err := s.repo.Create(ctx, address); err != nil {
		return nil, err
	}
	s.logger.Info().Str("address_id", address.ID).Str("user_id", userID).Msg("address created")
	return address, nil
}

func (s *AddressService) UpdateAddress(ctx context.Context, userID, addressID string, in ports.UpdateAddressInput) (*domain.Address, error) {
	address, err := s.repo.FindByIDForUser(ctx, addressID, userID)
	if err != nil {
		return nil, err
	}

	if in.FullName != nil {
		address.FullName = *in.FullName
	}
	if in.Phone != nil {
		address.Phone = *in.Phone
	}
	if in.Street != nil {
		address.Street = *in.Street
	}
	if in.City != nil {
		address.City = *in.City
	}
	if in.Pincode != nil {
		address.Pincode = *in.Pincode
	}

	if err := s.repo.Update(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

// DeleteAddress removes the address. Orders referencing it keep their id and
// render a null address from then on.
func (s *AddressService) DeleteAddress(ctx context.Context, userID, addressID string) error {
	return s.repo.Delete(ctx, addressID, userID)
}
