package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/trendkart/commerce-api/internal/api/metrics"
	"github.com/trendkart/commerce-api/internal/core/domain"
	"github.com/trendkart/commerce-api/internal/core/ports"
)

const defaultCheckoutTimeout = 15 * time.Second

// WebhookDedup abstracts the webhook idempotency store (Redis). A dedup
// failure degrades to processing the event, never to dropping it.
type WebhookDedup interface {
	IsDuplicate(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

// OrderEventSink accepts order lifecycle events for asynchronous recording.
type OrderEventSink interface {
	Enqueue(event domain.OrderEvent)
}

// OrderService implements the order workflow: atomic stock reservation,
// order creation, the COD / hosted-payment branch, payment verification and
// webhook confirmation.
type OrderService struct {
	tx        ports.TxRunner
	orders    ports.OrderRepository
	products  ports.ProductRepository
	addresses ports.AddressRepository
	cart      ports.CartStore
	gateway   ports.PaymentGateway
	dedup     WebhookDedup
	events    OrderEventSink

	successURL      string
	cancelURL       string
	checkoutTimeout time.Duration
	logger          zerolog.Logger
}

// OrderServiceConfig bundles the workflow's collaborators.
type OrderServiceConfig struct {
	Tx        ports.TxRunner
	Orders    ports.OrderRepository
	Products  ports.ProductRepository
	Addresses ports.AddressRepository
	Cart      ports.CartStore
	Gateway   ports.PaymentGateway
	Dedup     WebhookDedup
	Events    OrderEventSink

	SuccessURL      string
	CancelURL       string
	CheckoutTimeout time.Duration
	Logger          zerolog.Logger
}

func NewOrderService(cfg OrderServiceConfig) *OrderService {
	if cfg.CheckoutTimeout <= 0 {
		cfg.CheckoutTimeout = defaultCheckoutTimeout
	}
	return &OrderService{
		tx:              cfg.Tx,
		orders:          cfg.Orders,
		products:        cfg.Products,
		addresses:       cfg.Addresses,
		cart:            cfg.Cart,
		gateway:         cfg.Gateway,
		dedup:           cfg.Dedup,
		events:          cfg.Events,
		successURL:      cfg.SuccessURL,
		cancelURL:       cfg.CancelURL,
		checkoutTimeout: cfg.CheckoutTimeout,
		logger:          cfg.Logger,
	}
}

// parsedLine is a cart line with its price parsed and validated.
type parsedLine struct {
	productID string
	name      string
	price     decimal.Decimal
	quantity  int
}

// CreateOrder validates the cart, resolves the shipping address, reserves
// stock for every line inside one transaction, creates the order with frozen
// item prices, clears the cart, and branches per payment method. Stock
// reservation is all-or-nothing: the first missing product or insufficient
// line aborts the whole transaction.
func (s *OrderService) CreateOrder(ctx context.Context, in ports.CreateOrderInput) (*ports.CreateOrderResult, error) {
	method, err := domain.ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, err
	}

	lines, total, err := parseCart(in.Cart)
	if err != nil {
		return nil, err
	}

	address, err := s.resolveAddress(ctx, in)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		AddressID:     address.ID,
		PaymentMethod: method,
		PaymentStatus: domain.PaymentUnpaid,
		Status:        domain.OrderPending,
		TotalAmount:   total,
		CreatedAt:     now,
	}

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		// Reserve every line before creating anything. A failed line aborts
		// the transaction, undoing the decrements already applied.
		for _, l := range lines {
			product, rerr := s.products.Reserve(txCtx, l.productID, l.quantity)
			if rerr != nil {
				if errors.Is(rerr, domain.ErrProductNotFound) {
					metrics.OrderCreateFailuresTotal.WithLabelValues("product_not_found").Inc()
					return fmt.Errorf("product %s: %w", l.displayName(), domain.ErrProductNotFound)
				}
				var stockErr *domain.InsufficientStockError
				if errors.As(rerr, &stockErr) {
					metrics.StockRejectionsTotal.Inc()
				}
				return rerr
			}
			order.Items = append(order.Items, domain.OrderItem{
				ID:        uuid.NewString(),
				ProductID: product.ID,
				Name:      product.Name,
				Quantity:  l.quantity,
				Price:     l.price,
			})
		}

		if cerr := s.orders.Create(txCtx, order); cerr != nil {
			return cerr
		}
		if method == domain.PaymentCOD {
			if uerr := s.orders.UpdateStatus(txCtx, order.ID, domain.OrderProcessing); uerr != nil {
				return uerr
			}
			order.Status = domain.OrderProcessing
		}
		return nil
	})
	if err != nil {
		if isClientOrderError(err) {
			return nil, err
		}
		s.logger.Error().Err(err).
			Str("user_id", in.UserID).
			Str("email", in.UserEmail).
			Msg("order creation failed")
		metrics.OrderCreateFailuresTotal.WithLabelValues("internal").Inc()
		return nil, fmt.Errorf("create order: %w", err)
	}

	// The cart lives outside the transaction; a failed clear is logged, not
	// fatal — the order is already placed.
	if cerr := s.cart.Clear(ctx, in.UserID); cerr != nil {
		s.logger.Warn().Err(cerr).Str("user_id", in.UserID).Msg("failed to clear cart after order")
	}

	s.emit(order.ID, domain.EventOrderCreated, string(method))
	s.logger.Info().Str("order_id", order.ID).Str("user_id", in.UserID).Msg("order created")

	switch method {
	case domain.PaymentCOD:
		s.emit(order.ID, domain.EventCODConfirmed, "")
		metrics.OrdersCreatedTotal.WithLabelValues(string(domain.PaymentCOD)).Inc()
		return &ports.CreateOrderResult{
			OrderID:       order.ID,
			PaymentMethod: domain.PaymentCOD,
			Status:        domain.OrderProcessing,
		}, nil
	case domain.PaymentStripe:
		return s.startHostedCheckout(ctx, order, lines)
	default:
		// Unreachable: ParsePaymentMethod already rejected anything else.
		return nil, domain.ErrInvalidPaymentMethod
	}
}

// startHostedCheckout runs after the stock transaction has committed, so a
// slow provider never holds stock locks. On gateway failure the reservation
// is compensated and the order marked failed.
func (s *OrderService) startHostedCheckout(ctx context.Context, order *domain.Order, lines []parsedLine) (*ports.CreateOrderResult, error) {
	items := make([]ports.CheckoutLineItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, ports.CheckoutLineItem{
			Name:       l.name,
			UnitAmount: minorUnits(l.price),
			Quantity:   int64(l.quantity),
		})
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.checkoutTimeout)
	defer cancel()

	session, err := s.gateway.CreateCheckoutSession(gwCtx, ports.CreateCheckoutSessionInput{
		OrderID:    order.ID,
		LineItems:  items,
		SuccessURL: s.successURL,
		CancelURL:  s.cancelURL,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("checkout session creation failed")
		s.failOrder(ctx, order, lines)
		metrics.OrderCreateFailuresTotal.WithLabelValues("gateway").Inc()
		return nil, &domain.PaymentGatewayError{Err: err}
	}

	if err := s.orders.SetCheckoutSession(ctx, order.ID, session.ID); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to persist checkout session id")
		s.failOrder(ctx, order, lines)
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.emit(order.ID, domain.EventSessionCreated, session.ID)
	metrics.OrdersCreatedTotal.WithLabelValues(string(domain.PaymentStripe)).Inc()
	metrics.CheckoutSessionsCreatedTotal.Inc()
	s.logger.Info().Str("order_id", order.ID).Str("session_id", session.ID).Msg("checkout session created")

	return &ports.CreateOrderResult{
		OrderID:       order.ID,
		PaymentMethod: domain.PaymentStripe,
		Status:        order.Status,
		CheckoutURL:   session.URL,
	}, nil
}

// failOrder compensates a committed reservation: stock goes back, the order
// is marked failed. Both steps are best-effort and logged on failure.
func (s *OrderService) failOrder(ctx context.Context, order *domain.Order, lines []parsedLine) {
	for _, l := range lines {
		if err := s.products.Release(ctx, l.productID, l.quantity); err != nil {
			s.logger.Error().Err(err).
				Str("order_id", order.ID).
				Str("product_id", l.productID).
				Int("quantity", l.quantity).
				Msg("failed to release reserved stock")
		}
	}
	if err := s.orders.UpdateStatus(ctx, order.ID, domain.OrderFailed); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to mark order failed")
	}
	s.emit(order.ID, domain.EventPaymentFailed, "checkout session not created")
}

// VerifyPayment reports the gateway's live view of a checkout session and,
// on the first sighting of a paid pending order, confirms it. Safe to poll:
// repeated calls are no-ops once the order left pending.
func (s *OrderService) VerifyPayment(ctx context.Context, userID, sessionID string) (*ports.VerifyPaymentResult, error) {
	status, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, domain.ErrInvalidSession
	}
	if status.OrderID == "" {
		return nil, domain.ErrSessionMetadata
	}

	order, err := s.orders.FindByIDForUser(ctx, status.OrderID, userID)
	if err != nil {
		return nil, err
	}

	// COD orders are not gated by gateway state.
	if order.PaymentMethod == domain.PaymentCOD {
		return &ports.VerifyPaymentResult{OrderID: order.ID, Status: order.Status, Verified: true}, nil
	}

	if status.Paid && order.Status == domain.OrderPending {
		if err := s.orders.MarkPaid(ctx, order.ID); err != nil {
			return nil, err
		}
		order.Status = domain.OrderProcessing
		order.PaymentStatus = domain.PaymentPaid
		s.emit(order.ID, domain.EventPaymentConfirmed, "poll")
		metrics.PaymentsConfirmedTotal.WithLabelValues("poll").Inc()
		s.logger.Info().Str("order_id", order.ID).Msg("payment verified")
	}

	return &ports.VerifyPaymentResult{
		OrderID:  order.ID,
		Status:   order.Status,
		Verified: status.Paid,
	}, nil
}

// HandleWebhookEvent applies a signature-verified provider event. Marking an
// order paid is unconditional and idempotent, so at-least-once delivery is
// safe; event ids are additionally deduplicated.
func (s *OrderService) HandleWebhookEvent(ctx context.Context, event ports.WebhookEvent) error {
	if !event.CheckoutCompleted || event.OrderID == "" {
		metrics.WebhookEventsTotal.WithLabelValues("ignored").Inc()
		return nil
	}

	if dup, err := s.dedup.IsDuplicate(ctx, event.ID); err != nil {
		s.logger.Warn().Err(err).Str("event_id", event.ID).Msg("webhook dedup check failed, processing anyway")
	} else if dup {
		metrics.WebhookEventsTotal.WithLabelValues("duplicate").Inc()
		s.logger.Debug().Str("event_id", event.ID).Msg("duplicate webhook event skipped")
		return nil
	}

	if err := s.orders.MarkPaid(ctx, event.OrderID); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("webhook: mark order paid: %w", err)
	}

	if err := s.dedup.Mark(ctx, event.ID); err != nil {
		s.logger.Warn().Err(err).Str("event_id", event.ID).Msg("failed to set webhook dedup key")
	}

	s.emit(event.OrderID, domain.EventPaymentConfirmed, "webhook")
	metrics.WebhookEventsTotal.WithLabelValues("ok").Inc()
	metrics.PaymentsConfirmedTotal.WithLabelValues("webhook").Inc()
	s.logger.Info().Str("order_id", event.OrderID).Msg("webhook: order marked paid")
	return nil
}

// ListOrders returns the user's orders newest first with address and items.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// UpdateOrderStatus advances fulfilment (processing → shipped → delivered).
// Skips and regressions are rejected.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, next domain.OrderStatus) (*domain.Order, error) {
	order, err := s.orders.FindByIDForUser(ctx, orderID, "")
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, order.Status, next)
	}
	if err := s.orders.UpdateStatus(ctx, orderID, next); err != nil {
		return nil, err
	}
	order.Status = next
	s.emit(orderID, domain.EventStatusAdvanced, string(next))
	s.logger.Info().Str("order_id", orderID).Str("status", string(next)).Msg("order status advanced")
	return order, nil
}

func (s *OrderService) resolveAddress(ctx context.Context, in ports.CreateOrderInput) (*domain.Address, error) {
	switch {
	case in.AddressID != "":
		return s.addresses.FindByIDForUser(ctx, in.AddressID, in.UserID)
	case in.Address != nil:
		address := &domain.Address{
			ID:       uuid.NewString(),
			UserID:   in.UserID,
			FullName: in.Address.FullName,
			Phone:    in.Address.Phone,
			Street:   in.Address.Street,
			City:     in.Address.City,
			Pincode:  in.Address.Pincode,
		}
		if err := s.addresses.Create(ctx, address); err != nil {
			return nil, err
		}
		return address, nil
	default:
		return nil, domain.ErrAddressRequired
	}
}

func (s *OrderService) emit(orderID string, typ domain.OrderEventType, note string) {
	if s.events == nil {
		return
	}
	s.events.Enqueue(domain.OrderEvent{
		OrderID:   orderID,
		Type:      typ,
		Note:      note,
		Timestamp: time.Now().UTC(),
	})
}

func (l parsedLine) displayName() string {
	if l.name != "" {
		return l.name
	}
	return l.productID
}

// parseCart validates the submitted lines and computes the order total as an
// exact decimal sum. Any malformed price or non-positive quantity fails the
// whole cart.
func parseCart(cart []ports.CartLineInput) ([]parsedLine, decimal.Decimal, error) {
	if len(cart) == 0 {
		return nil, decimal.Zero, domain.ErrInvalidCart
	}

	lines := make([]parsedLine, 0, len(cart))
	total := decimal.Zero
	for _, c := range cart {
		if c.ProductID == "" || c.Quantity <= 0 {
			return nil, decimal.Zero, domain.ErrInvalidCart
		}
		price, err := decimal.NewFromString(c.Price)
		if err != nil || price.IsNegative() {
			return nil, decimal.Zero, fmt.Errorf("%w: bad price %q", domain.ErrInvalidCart, c.Price)
		}
		lines = append(lines, parsedLine{
			productID: c.ProductID,
			name:      c.Name,
			price:     price,
			quantity:  c.Quantity,
		})
		total = total.Add(price.Mul(decimal.NewFromInt(int64(c.Quantity))))
	}
	return lines, total, nil
}

// minorUnits converts a decimal price to the provider's integer minor units.
func minorUnits(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// isClientOrderError reports whether the error is user-fixable and should be
// surfaced as-is rather than as a generic failure.
func isClientOrderError(err error) bool {
	var stockErr *domain.InsufficientStockError
	return errors.Is(err, domain.ErrProductNotFound) ||
		errors.Is(err, domain.ErrAddressNotFound) ||
		errors.Is(err, domain.ErrAddressRequired) ||
		errors.Is(err, domain.ErrInvalidCart) ||
		errors.As(err, &stockErr)
}
