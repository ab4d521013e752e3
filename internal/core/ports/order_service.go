package ports

import (
	"context"

	"github.com/trendkart/commerce-api/internal/core/domain"
)

// CartLineInput is one submitted cart line. Price arrives as a string and is
// parsed as a 2-place decimal by the workflow; a malformed value fails the
// whole request with a cart-format error.
type CartLineInput struct {
	ProductID string
	Name      string
	Price     string
	Quantity  int
}

// NewAddressInput carries inline address fields when the caller has no saved
// address to reference.
type NewAddressInput struct {
	FullName string
	Phone    string
	Street   string
	City     string
	Pincode  string
}

// CreateOrderInput carries everything the order workflow needs. Exactly one
// of AddressID / Address must be supplied.
type CreateOrderInput struct {
	UserID        string
	UserEmail     string // for audit logging only
	Cart          []CartLineInput
	AddressID     string
	Address       *NewAddressInput
	PaymentMethod string
}

// CreateOrderResult is returned on success. CheckoutURL is set for hosted
// payment, empty for COD.
type CreateOrderResult struct {
	OrderID       string
	PaymentMethod domain.PaymentMethod
	Status        domain.OrderStatus
	CheckoutURL   string
}

// VerifyPaymentResult reflects both the stored order state and the gateway's
// live view, so clients can poll it safely.
type VerifyPaymentResult struct {
	OrderID  string
	Status   domain.OrderStatus
	Verified bool
}

// OrderService defines the order workflow use cases.
type OrderService interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
	VerifyPayment(ctx context.Context, userID, sessionID string) (*VerifyPaymentResult, error)
	HandleWebhookEvent(ctx context.Context, event WebhookEvent) error
	ListOrders(ctx context.Context, userID string) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, next domain.OrderStatus) (*domain.Order, error)
}
