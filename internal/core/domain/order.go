package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is the typed payment variant. Adding a method means adding a
// constant here and a branch in the order workflow's switch.
type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentStripe PaymentMethod = "stripe"
)

// ParsePaymentMethod maps a raw payload value to a PaymentMethod.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentCOD:
		return PaymentCOD, nil
	case PaymentStripe:
		return PaymentStripe, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}

// PaymentStatus tracks whether money has been collected. COD orders stay
// unpaid until settled on delivery.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// OrderStatus is the fulfilment state. "pending" and "failed" are transient
// checkout states; customer-visible orders move processing → shipped → delivered.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderFailed     OrderStatus = "failed"
)

// validTransitions defines the fulfilment state machine. Payment confirmation
// (pending → processing) is driven by the workflow engine, not this map.
var validTransitions = map[OrderStatus][]OrderStatus{
	OrderProcessing: {OrderShipped},
	OrderShipped:    {OrderDelivered},
}

// CanTransitionTo reports whether a fulfilment transition is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

var (
	ErrInvalidCart          = errors.New("cart is empty or invalid")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidSession       = errors.New("invalid session")
	ErrSessionMetadata      = errors.New("order metadata missing")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrInvalidSignature     = errors.New("invalid signature or payload")
)

// InsufficientStockError carries the offending product so the client sees
// exactly which line failed and how many units remain.
type InsufficientStockError struct {
	ProductName string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: only %d available", e.ProductName, e.Available)
}

// PaymentGatewayError wraps a provider-side failure. The provider message is
// surfaced to the caller; the order involved is marked failed.
type PaymentGatewayError struct {
	Err error
}

func (e *PaymentGatewayError) Error() string {
	return "payment gateway: " + e.Err.Error()
}

func (e *PaymentGatewayError) Unwrap() error { return e.Err }

// OrderItem is a frozen snapshot of one cart line. Price is the per-unit
// price at order time, deliberately not a live reference to Product.Price.
type OrderItem struct {
	ID        string          `json:"id" bson:"id"`
	ProductID string          `json:"product_id" bson:"product_id"`
	Name      string          `json:"name" bson:"name"`
	Quantity  int             `json:"quantity" bson:"quantity"`
	Price     decimal.Decimal `json:"price" bson:"-"`
}

// Order is the aggregate created atomically with its items. Items are
// immutable after creation; only the status fields change.
type Order struct {
	ID                string
	UserID            string
	AddressID         string
	Address           *Address // resolved at read time; nil when the address was deleted
	PaymentMethod     PaymentMethod
	PaymentStatus     PaymentStatus
	Status            OrderStatus
	TotalAmount       decimal.Decimal
	CheckoutSessionID string
	Items             []OrderItem
	CreatedAt         time.Time
}

// OrderEventType classifies entries in the order audit trail.
type OrderEventType string

const (
	EventOrderCreated     OrderEventType = "order_created"
	EventCODConfirmed     OrderEventType = "cod_confirmed"
	EventSessionCreated   OrderEventType = "checkout_session_created"
	EventPaymentConfirmed OrderEventType = "payment_confirmed"
	EventPaymentFailed    OrderEventType = "payment_failed"
	EventStatusAdvanced   OrderEventType = "status_advanced"
)

// OrderEvent is a single audit-trail entry, recorded asynchronously.
type OrderEvent struct {
	OrderID   string
	Type      OrderEventType
	Note      string
	Timestamp time.Time
}
