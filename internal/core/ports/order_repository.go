package ports

import (
	"context"

	"github.com/trendkart/commerce-api/internal/core/domain"
)

// TxRunner scopes a function to a single atomic transaction. The ctx passed
// to fn carries the transaction; repositories called with it join the same
// transaction. fn returning an error rolls everything back.
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderRepository persists orders and their embedded items.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByIDForUser(ctx context.Context, orderID, userID string) (*domain.Order, error)
	// ListByUser returns the user's orders newest first, with the address
	// resolved (nil when deleted) and items attached.
	ListByUser(ctx context.Context, userID string) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
	SetCheckoutSession(ctx context.Context, orderID, sessionID string) error
	// MarkPaid sets payment_status=paid and, only when the order is still
	// pending, advances it to processing. Safe to call repeatedly.
	MarkPaid(ctx context.Context, orderID string) error
}
