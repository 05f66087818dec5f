// Package billing wraps Stripe checkout and webhook handling for
// credit top-ups. The generation path never touches this package.
package billing

import (
	"encoding/json"
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v76"
	stripeclient "github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// metadataUserID is the checkout session metadata key carrying the
// purchasing user's id through Stripe and back via the webhook.
const metadataUserID = "user_id"

var (
	// ErrMissingUserID indicates a completed checkout session without
	// user metadata. Such events cannot be credited to anyone.
	ErrMissingUserID = errors.New("checkout session has no user_id metadata")
	// ErrSignature indicates webhook signature verification failed.
	ErrSignature = errors.New("invalid webhook signature")
)

// Config holds Stripe settings.
type Config struct {
	SecretKey     string
	WebhookSecret string
	PriceID       string
	// RedirectURL is where Stripe sends the buyer after checkout,
	// successful or cancelled.
	RedirectURL string
}

// Client creates checkout sessions and verifies webhook events.
// Constructed once at boot and injected; no package-level Stripe state.
type Client struct {
	api           *stripeclient.API
	priceID       string
	redirectURL   string
	webhookSecret string
}

// New creates a Client from config.
func New(cfg Config) *Client {
	api := &stripeclient.API{}
	api.Init(cfg.SecretKey, nil)

	return &Client{
		api:           api,
		priceID:       cfg.PriceID,
		redirectURL:   cfg.RedirectURL,
		webhookSecret: cfg.WebhookSecret,
	}
}

// CreateCheckoutSession starts a one-time payment checkout for the user
// and returns the hosted checkout URL to redirect them to.
func (c *Client) CreateCheckoutSession(userID string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(c.redirectURL),
		CancelURL:  stripe.String(c.redirectURL),
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(c.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.AddMetadata(metadataUserID, userID)

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}

	return sess.URL, nil
}

// CheckoutCompleted describes a verified checkout.session.completed event.
type CheckoutCompleted struct {
	SessionID string
	UserID    string
}

// VerifyCheckoutCompleted verifies the webhook signature and extracts the
// completed checkout, if that is what the event carries. Other event
// types return (nil, nil) so the caller can acknowledge and ignore them.
func (c *Client) VerifyCheckoutCompleted(payload []byte, signature string) (*CheckoutCompleted, error) {
	event, err := webhook.ConstructEvent(payload, signature, c.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignature, err)
	}

	if event.Type != "checkout.session.completed" {
		return nil, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}

	userID := sess.Metadata[metadataUserID]
	if userID == "" {
		return nil, ErrMissingUserID
	}

	return &CheckoutCompleted{
		SessionID: sess.ID,
		UserID:    userID,
	}, nil
}
