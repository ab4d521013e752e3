package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/trendkart/commerce-api/internal/core/domain"
	"github.com/trendkart/commerce-api/internal/core/ports"
)

// AuditService persists order lifecycle events delivered by the dispatcher.
// Recording is internal bookkeeping: a failure is an error for the worker to
// log, never something a user request waits on.
type AuditService struct {
	repo ports.OrderEventRepository
	log  zerolog.Logger
}

func NewAuditService(repo ports.OrderEventRepository, log zerolog.Logger) *AuditService {
	return &AuditService{repo: repo, log: log}
}

// Record appends one event to the order's audit trail.
func (s *AuditService) Record(ctx context.Context, event domain.OrderEvent) error {
	if event.OrderID == "" || event.Type == "" {
		return fmt.Errorf("audit: incomplete event %+v", event)
	}
	if err := s.repo.Insert(ctx, &event); err != nil {
		return fmt.Errorf("audit: insert event: %w", err)
	}
	s.log.Debug().
		Str("order_id", event.OrderID).
		Str("type", string(event.Type)).
		Msg("order event recorded")
	return nil
}

// Timeline returns the order's recorded events in the order they happened.
// An order with no events yields an empty timeline, not an error.
func (s *AuditService) Timeline(ctx context.Context, orderID string) ([]*domain.OrderEvent, error) {
	events, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("audit: list events: %w", err)
	}
	return events, nil
}
