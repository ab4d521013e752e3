package domain

import "errors"

var (
	ErrAddressNotFound = errors.New("address not found")
	ErrAddressRequired = errors.New("address is required")
)

// Address is a user-owned shipping address. Orders reference it by id; the
// reference dangles (renders as null) if the address is later deleted.
type Address struct {
	ID       string `json:"id" bson:"_id"`
	UserID   string `json:"-" bson:"user_id"`
	FullName string `json:"full_name" bson:"full_name"`
	Phone    string `json:"phone" bson:"phone"`
	Street   string `json:"street" bson:"street"`
	City     string `json:"city" bson:"city"`
	Pincode  string `json:"pincode" bson:"pincode"`
}
