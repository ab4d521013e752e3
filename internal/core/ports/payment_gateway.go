package ports

import "context"

// CheckoutLineItem is one hosted-checkout line. UnitAmount is in minor
// currency units (paise/cents).
type CheckoutLineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// CreateCheckoutSessionInput carries everything the provider needs to build a
// hosted payment page. OrderID travels as session metadata and comes back on
// the webhook.
type CreateCheckoutSessionInput struct {
	OrderID    string
	LineItems  []CheckoutLineItem
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is the provider's handle for a hosted payment page.
type CheckoutSession struct {
	ID  string
	URL string
}

// SessionStatus is the provider's live view of a session.
type SessionStatus struct {
	Paid    bool
	OrderID string // from session metadata; empty when missing
}

// WebhookEvent is a signature-verified provider callback.
type WebhookEvent struct {
	ID                string
	OrderID           string
	CheckoutCompleted bool
}

// PaymentGateway is the thin boundary to the hosted payment provider. Tests
// substitute a fake; production wires Stripe.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, input CreateCheckoutSessionInput) (*CheckoutSession, error)
	// RetrieveSession returns domain.ErrInvalidSession for an unknown id.
	RetrieveSession(ctx context.Context, sessionID string) (*SessionStatus, error)
	// VerifyWebhook validates the provider signature over the raw payload and
	// returns domain.ErrInvalidSignature when it does not check out.
	VerifyWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error)
}
