package ports

import (
	"context"

	"github.com/trendkart/commerce-api/internal/core/domain"
)

// OrderEventRecorder persists order lifecycle events to the audit trail.
type OrderEventRecorder interface {
	Record(ctx context.Context, event domain.OrderEvent) error
}

// OrderEventReader exposes an order's recorded timeline, oldest first.
type OrderEventReader interface {
	Timeline(ctx context.Context, orderID string) ([]*domain.OrderEvent, error)
}

// OrderEventRepository is the persistence side of the audit trail.
type OrderEventRepository interface {
	Insert(ctx context.Context, event *domain.OrderEvent) error
	ListByOrder(ctx context.Context, orderID string) ([]*domain.OrderEvent, error)
}
