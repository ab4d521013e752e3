package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/trendkart/commerce-api/internal/core/domain"
)

type memEventRepo struct {
	events []*domain.OrderEvent
}

func (r *memEventRepo) Insert(_ context.Context, event *domain.OrderEvent) error {
	clone := *event
	r.events = append(r.events, &clone)
	return nil
}

func (r *memEventRepo) ListByOrder(_ context.Context, orderID string) ([]*domain.OrderEvent, error) {
	var out []*domain.OrderEvent
	for _, ev := range r.events {
		if ev.OrderID == orderID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func TestAuditService_RecordAndTimeline(t *testing.T) {
	repo := &memEventRepo{}
	svc := NewAuditService(repo, zerolog.Nop())
	ctx := context.Background()
	now := time.Now().UTC()

	if err := svc.Record(ctx, domain.OrderEvent{Type: domain.EventOrderCreated, Timestamp: now}); err == nil {
		t.Error("event without an order id should be rejected")
	}

	for i, typ := range []domain.OrderEventType{domain.EventOrderCreated, domain.EventPaymentConfirmed} {
		ev := domain.OrderEvent{OrderID: "order-1", Type: typ, Timestamp: now.Add(time.Duration(i) * time.Second)}
		if err := svc.Record(ctx, ev); err != nil {
			t.Fatalf("Record(%s): %v", typ, err)
		}
	}
	if err := svc.Record(ctx, domain.OrderEvent{OrderID: "order-2", Type: domain.EventOrderCreated, Timestamp: now}); err != nil {
		t.Fatal(err)
	}

	events, err := svc.Timeline(ctx, "order-1")
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != domain.EventOrderCreated || events[1].Type != domain.EventPaymentConfirmed {
		t.Errorf("timeline = [%s %s], want created then confirmed", events[0].Type, events[1].Type)
	}

	if events, _ := svc.Timeline(ctx, "order-missing"); len(events) != 0 {
		t.Errorf("unknown order timeline = %+v, want empty", events)
	}
}
