package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/trendkart/commerce-api/internal/core/domain"
	"github.com/trendkart/commerce-api/internal/core/ports"
)

func TestAddressService_OwnershipEnforced(t *testing.T) {
	repo := newStubAddressRepo(&domain.Address{ID: "a1", UserID: "owner", City: "Kochi"})
	svc := NewAddressService(repo, zerolog.Nop())

	city := "Pune"
	if _, err := svc.UpdateAddress(context.Background(), "intruder", "a1", ports.UpdateAddressInput{City: &city}); !errors.Is(err, domain.ErrAddressNotFound) {
		t.Errorf("foreign update: err = %v, want ErrAddressNotFound", err)
	}
	if err := svc.DeleteAddress(context.Background(), "intruder", "a1"); !errors.Is(err, domain.ErrAddressNotFound) {
		t.Errorf("foreign delete: err = %v, want ErrAddressNotFound", err)
	}

	updated, err := svc.UpdateAddress(context.Background(), "owner", "a1", ports.UpdateAddressInput{City: &city})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.City != "Pune" {
		t.Errorf("city = %s, want Pune", updated.City)
	}
}

func TestAddressService_PartialUpdate(t *testing.T) {
	repo := newStubAddressRepo(&domain.Address{
		ID: "a1", UserID: "owner", FullName: "Asha", Phone: "+91-1", Street: "MG Road", City: "Kochi", Pincode: "682001",
	})
	svc := NewAddressService(repo, zerolog.Nop())

	phone := "+91-2"
	updated, err := svc.UpdateAddress(context.Background(), "owner", "a1", ports.UpdateAddressInput{Phone: &phone})
	if err != nil {
		t.Fatalf("UpdateAddress: %v", err)
	}
	if updated.Phone != "+91-2" {
		t.Errorf("phone = %s, want +91-2", updated.Phone)
	}
	if updated.FullName != "Asha" || updated.City != "Kochi" {
		t.Errorf("untouched fields changed: %+v", updated)
	}
}

func TestAddressService_CreateAssignsOwner(t *testing.T) {
	repo := newStubAddressRepo()
	svc := NewAddressService(repo, zerolog.Nop())

	created, err := svc.CreateAddress(context.Background(), "owner", ports.NewAddressInput{
		FullName: "Ravi", Phone: "+91", Street: "Brigade Rd", City: "Bengaluru", Pincode: "560001",
	})
	if err != nil {
		t.Fatalf("CreateAddress: %v", err)
	}
	if created.ID == "" {
		t.Error("created address has no id")
	}
	if _, err := repo.FindByIDForUser(context.Background(), created.ID, "owner"); err != nil {
		t.Errorf("created address not owned by creator: %v", err)
	}
}
