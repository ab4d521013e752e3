// Package metrics defines and registers all custom Prometheus metrics for the
// commerce API. It is the single source of truth for metric names, labels,
// and help strings. Metrics register themselves with the default registry via
// promauto at package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "commerce"

// ── Order metrics ─────────────────────────────────────────────────────────────

// OrdersCreatedTotal counts successfully placed orders.
// Label:
//   - payment_method: "cod" or "stripe"
var OrdersCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Total number of orders successfully placed, by payment method.",
	},
	[]string{"payment_method"},
)

// OrderCreateFailuresTotal counts order placements that did not produce a
// confirmed order.
// Label:
//   - reason: "product_not_found", "gateway", "internal"
var OrderCreateFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_create_failures_total",
		Help:      "Total number of failed order placements, by reason.",
	},
	[]string{"reason"},
)

// StockRejectionsTotal counts cart lines rejected for insufficient stock.
var StockRejectionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_rejections_total",
		Help:      "Total number of order attempts rejected for insufficient stock.",
	},
)

// ── Payment metrics ───────────────────────────────────────────────────────────

// CheckoutSessionsCreatedTotal counts hosted checkout sessions opened with
// the payment provider.
var CheckoutSessionsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_sessions_created_total",
		Help:      "Total number of hosted checkout sessions created.",
	},
)

// PaymentsConfirmedTotal counts payment confirmations.
// Label:
//   - source: "webhook" or "poll"
var PaymentsConfirmedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_confirmed_total",
		Help:      "Total number of payment confirmations, by source.",
	},
	[]string{"source"},
)

// WebhookEventsTotal counts inbound webhook deliveries after signature
// verification.
// Label:
//   - result: "ok", "duplicate", "ignored", "error"
var WebhookEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_events_total",
		Help:      "Total number of verified webhook deliveries, by processing result.",
	},
	[]string{"result"},
)

// ── Audit queue metrics ───────────────────────────────────────────────────────

// OrderEventsQueueDepth tracks the number of audit events waiting in each
// dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var OrderEventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "order_events_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// OrderEventsDroppedTotal counts audit events dropped because a worker
// channel was full.
var OrderEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_events_dropped_total",
		Help:      "Total number of audit events dropped due to a full worker channel.",
	},
)
