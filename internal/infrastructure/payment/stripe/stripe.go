// Package stripe adapts the Stripe hosted-checkout API to the payment
// gateway port.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/trendkart/commerce-api/internal/core/domain"
	"github.com/trendkart/commerce-api/internal/core/ports"
)

const metadataOrderID = "order_id"

// Config holds the Stripe credentials and checkout defaults.
type Config struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

// Gateway implements ports.PaymentGateway against Stripe Checkout.
type Gateway struct {
	webhookSecret string
	currency      string
}

func NewGateway(cfg Config) *Gateway {
	stripe.Key = cfg.SecretKey
	return &Gateway{
		webhookSecret: cfg.WebhookSecret,
		currency:      cfg.Currency,
	}
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, input ports.CreateCheckoutSessionInput) (*ports.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Params:     stripe.Params{Context: ctx},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(input.SuccessURL),
		CancelURL:  stripe.String(input.CancelURL),
	}
	params.AddMetadata(metadataOrderID, input.OrderID)

	for _, line := range input.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(g.currency),
				UnitAmount: stripe.Int64(line.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
			},
			Quantity: stripe.Int64(line.Quantity),
		})
	}

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create session: %w", err)
	}
	return &ports.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (g *Gateway) RetrieveSession(ctx context.Context, sessionID string) (*ports.SessionStatus, error) {
	s, err := session.Get(sessionID, &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return nil, domain.ErrInvalidSession
		}
		return nil, fmt.Errorf("stripe retrieve session: %w", err)
	}

	return &ports.SessionStatus{
		Paid:    s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		OrderID: s.Metadata[metadataOrderID],
	}, nil
}

// VerifyWebhook checks the Stripe-Signature header over the raw payload and
// extracts the order reference from a checkout.session.completed event.
func (g *Gateway) VerifyWebhook(payload []byte, signatureHeader string) (*ports.WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	out := &ports.WebhookEvent{ID: event.ID}
	if event.Type != "checkout.session.completed" {
		return out, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("stripe webhook: decode session: %w", err)
	}
	out.CheckoutCompleted = true
	out.OrderID = s.Metadata[metadataOrderID]
	return out, nil
}
