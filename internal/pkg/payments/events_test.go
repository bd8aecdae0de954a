package payments

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
)

func stripeEvent(t *testing.T, eventType string, object any) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(object)
	require.NoError(t, err)
	return stripe.Event{
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestEventFromStripe_CheckoutCompleted(t *testing.T) {
	event := stripeEvent(t, "checkout.session.completed", map[string]any{
		"id":             "cs_test_123",
		"payment_intent": map[string]any{"id": "pi_456"},
		"metadata":       map[string]string{"user_id": "7", "kind": "lives", "quantity": "3"},
	})

	got, err := eventFromStripe(event)
	require.NoError(t, err)

	completed, ok := got.(CheckoutCompleted)
	require.True(t, ok, "expected CheckoutCompleted, got %T", got)
	assert.Equal(t, "cs_test_123", completed.SessionID)
	assert.Equal(t, "pi_456", completed.PaymentIntentID)
	assert.Equal(t, "3", completed.Metadata["quantity"])
}

func TestEventFromStripe_SubscriptionDeleted(t *testing.T) {
	event := stripeEvent(t, "customer.subscription.deleted", map[string]any{"id": "sub_789"})

	got, err := eventFromStripe(event)
	require.NoError(t, err)

	deleted, ok := got.(SubscriptionDeleted)
	require.True(t, ok, "expected SubscriptionDeleted, got %T", got)
	assert.Equal(t, "sub_789", deleted.SubscriptionID)
}

func TestEventFromStripe_ChargeRefundedWithRefundList(t *testing.T) {
	event := stripeEvent(t, "charge.refunded", map[string]any{
		"id":              "ch_1",
		"payment_intent":  map[string]any{"id": "pi_1"},
		"amount_refunded": 285,
		"currency":        "brl",
		"refunds": map[string]any{
			"data": []map[string]any{
				{
					"id":       "re_1",
					"status":   "succeeded",
					"amount":   276,
					"currency": "brl",
					"reason":   "requested_by_customer",
				},
			},
		},
	})

	got, err := eventFromStripe(event)
	require.NoError(t, err)

	refunded, ok := got.(ChargeRefunded)
	require.True(t, ok, "expected ChargeRefunded, got %T", got)
	assert.Equal(t, "pi_1", refunded.PaymentIntentID)
	assert.Equal(t, "re_1", refunded.RefundID)
	assert.Equal(t, RefundStatusSucceeded, refunded.Status)
	assert.Equal(t, int64(276), refunded.Amount)
}

func TestEventFromStripe_ChargeRefundedWithoutRefundList(t *testing.T) {
	event := stripeEvent(t, "charge.refunded", map[string]any{
		"id":              "ch_2",
		"payment_intent":  map[string]any{"id": "pi_2"},
		"amount_refunded": 100,
		"currency":        "brl",
	})

	got, err := eventFromStripe(event)
	require.NoError(t, err)

	refunded, ok := got.(ChargeRefunded)
	require.True(t, ok)
	assert.Equal(t, "pi_2", refunded.PaymentIntentID)
	assert.Equal(t, RefundStatusSucceeded, refunded.Status)
	assert.Equal(t, int64(100), refunded.Amount)
}

func TestEventFromStripe_UnhandledType(t *testing.T) {
	event := stripeEvent(t, "invoice.paid", map[string]any{"id": "in_1"})

	got, err := eventFromStripe(event)
	require.NoError(t, err)

	unhandled, ok := got.(UnhandledEvent)
	require.True(t, ok)
	assert.Equal(t, "invoice.paid", unhandled.EventType())
}

func TestVerifyWebhook_RejectsBadSignature(t *testing.T) {
	_, err := VerifyWebhook([]byte(`{"type":"charge.refunded"}`), "bogus", "whsec_test")
	assert.Error(t, err)
}
