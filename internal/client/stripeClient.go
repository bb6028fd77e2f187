package client

import (
	"context"
	"fmt"

	"voyance-backend/internal/config"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/checkout/session"
	"github.com/stripe/stripe-go/v83/webhook"
)

// CheckoutSummary is the slice of a Stripe checkout session the
// consultation flow cares about. Paid is always re-derived from Stripe,
// never taken from the client.
type CheckoutSummary struct {
	SessionID     string
	Paid          bool
	AmountTotal   int64 // minor currency units
	CustomerEmail string
}

type StripeClient interface {
	VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error)
	RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSummary, error)
}

type stripeClientImpl struct {
	webhookSecret string
}

func NewStripeClient(cfg *config.Stripe) StripeClient {
	stripe.Key = cfg.SecretKey

	return &stripeClientImpl{
		webhookSecret: cfg.WebhookSecret,
	}
}

func (c *stripeClientImpl) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("verify webhook signature: %w", err)
	}

	return event, nil
}

func (c *stripeClientImpl) RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSummary, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := session.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session %s: %w", sessionID, err)
	}

	return SummarizeSession(sess), nil
}

// SummarizeSession flattens a checkout session into a CheckoutSummary.
// Shared with the webhook handler, which already holds the full session
// from the event payload.
func SummarizeSession(sess *stripe.CheckoutSession) *CheckoutSummary {
	email := ""
	if sess.CustomerDetails != nil {
		email = sess.CustomerDetails.Email
	}
	if email == "" {
		email = sess.CustomerEmail
	}

	return &CheckoutSummary{
		SessionID:     sess.ID,
		Paid:          sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal:   sess.AmountTotal,
		CustomerEmail: email,
	}
}
