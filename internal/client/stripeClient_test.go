package client

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"voyance-backend/internal/config"

	"github.com/stripe/stripe-go/v83"
)

const testWebhookSecret = "whsec_test_secret"

func signPayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func checkoutCompletedPayload(t *testing.T) []byte {
	t.Helper()

	event := map[string]interface{}{
		"id":          "evt_test_001",
		"object":      "event",
		"api_version": stripe.APIVersion,
		"type":        "checkout.session.completed",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":             "cs_123",
				"object":         "checkout.session",
				"payment_status": "paid",
				"amount_total":   1500,
			},
		},
	}

	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event payload: %v", err)
	}
	return payload
}

func TestVerifyWebhook_ValidSignature(t *testing.T) {
	c := NewStripeClient(&config.Stripe{WebhookSecret: testWebhookSecret})

	payload := checkoutCompletedPayload(t)
	header := signPayload(payload, testWebhookSecret, time.Now())

	event, err := c.VerifyWebhook(payload, header)
	if err != nil {
		t.Fatalf("VerifyWebhook returned error: %v", err)
	}
	if event.Type != "checkout.session.completed" {
		t.Errorf("event type = %q, want checkout.session.completed", event.Type)
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		t.Fatalf("unmarshal session from event: %v", err)
	}
	if sess.ID != "cs_123" || sess.AmountTotal != 1500 {
		t.Errorf("unexpected session: id=%s amount=%d", sess.ID, sess.AmountTotal)
	}
}

func TestVerifyWebhook_RejectsBadSignature(t *testing.T) {
	c := NewStripeClient(&config.Stripe{WebhookSecret: testWebhookSecret})

	payload := checkoutCompletedPayload(t)

	t.Run("wrong secret", func(t *testing.T) {
		header := signPayload(payload, "whsec_other", time.Now())
		if _, err := c.VerifyWebhook(payload, header); err == nil {
			t.Error("expected signature error, got nil")
		}
	})

	t.Run("tampered payload", func(t *testing.T) {
		header := signPayload(payload, testWebhookSecret, time.Now())
		tampered := append([]byte{}, payload...)
		tampered[len(tampered)-2] = 'x'
		if _, err := c.VerifyWebhook(tampered, header); err == nil {
			t.Error("expected signature error, got nil")
		}
	})

	t.Run("stale timestamp", func(t *testing.T) {
		header := signPayload(payload, testWebhookSecret, time.Now().Add(-time.Hour))
		if _, err := c.VerifyWebhook(payload, header); err == nil {
			t.Error("expected tolerance error, got nil")
		}
	})
}

func TestSummarizeSession(t *testing.T) {
	sess := &stripe.CheckoutSession{
		ID:            "cs_123",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal:   1500,
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{
			Email: "client@example.com",
		},
	}

	sum := SummarizeSession(sess)
	if !sum.Paid {
		t.Error("expected paid summary")
	}
	if sum.CustomerEmail != "client@example.com" {
		t.Errorf("email = %q", sum.CustomerEmail)
	}

	t.Run("falls back to customer_email", func(t *testing.T) {
		sess := &stripe.CheckoutSession{
			ID:            "cs_456",
			PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid,
			CustomerEmail: "fallback@example.com",
		}
		sum := SummarizeSession(sess)
		if sum.Paid {
			t.Error("unpaid session summarized as paid")
		}
		if sum.CustomerEmail != "fallback@example.com" {
			t.Errorf("email = %q", sum.CustomerEmail)
		}
	})
}
