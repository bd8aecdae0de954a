package payments

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Event is a verified, typed webhook notification. Handlers switch on the
// concrete variant; raw gateway payload shapes stop at this boundary.
type Event interface {
	EventType() string
}

// CheckoutCompleted signals that a checkout session finished and was paid.
type CheckoutCompleted struct {
	SessionID       string
	PaymentIntentID string
	Metadata        map[string]string
}

func (CheckoutCompleted) EventType() string { return "checkout.session.completed" }

// SubscriptionDeleted signals that the provider ended a subscription.
type SubscriptionDeleted struct {
	SubscriptionID string
}

func (SubscriptionDeleted) EventType() string { return "customer.subscription.deleted" }

// ChargeRefunded signals progress on a refund for a charge.
type ChargeRefunded struct {
	PaymentIntentID string
	RefundID        string
	Status          string
	Amount          int64
	Currency        string
	Reason          string
	FailureReason   string
}

func (ChargeRefunded) EventType() string { return "charge.refunded" }

// UnhandledEvent covers event types this application does not process. The
// webhook endpoint still acknowledges them.
type UnhandledEvent struct {
	Type string
}

func (e UnhandledEvent) EventType() string { return e.Type }

// VerifyWebhook checks the signature over the raw payload and decodes the
// event into its typed variant. Invalid signatures and malformed payloads
// return an error; the caller answers 400 in that case.
func VerifyWebhook(payload []byte, signatureHeader, secret string) (Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, err
	}
	return eventFromStripe(event)
}

func eventFromStripe(event stripe.Event) (Event, error) {
	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out := CheckoutCompleted{
			SessionID: sess.ID,
			Metadata:  sess.Metadata,
		}
		if sess.PaymentIntent != nil {
			out.PaymentIntentID = sess.PaymentIntent.ID
		}
		return out, nil

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		return SubscriptionDeleted{SubscriptionID: sub.ID}, nil

	case "charge.refunded":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return nil, fmt.Errorf("decode charge: %w", err)
		}
		return chargeRefundedFromCharge(&charge), nil

	default:
		return UnhandledEvent{Type: string(event.Type)}, nil
	}
}

// chargeRefundedFromCharge flattens a refunded charge into the fields the
// reconciliation logic needs. The refund list on the charge carries the
// authoritative refund state; when it is absent the charge-level fields are
// the best available approximation.
func chargeRefundedFromCharge(charge *stripe.Charge) ChargeRefunded {
	out := ChargeRefunded{
		Status:   RefundStatusSucceeded,
		Amount:   charge.AmountRefunded,
		Currency: string(charge.Currency),
	}
	if charge.PaymentIntent != nil {
		out.PaymentIntentID = charge.PaymentIntent.ID
	}
	if charge.Refunds != nil && len(charge.Refunds.Data) > 0 {
		latest := charge.Refunds.Data[0]
		out.RefundID = latest.ID
		out.Status = string(latest.Status)
		out.Amount = latest.Amount
		out.Currency = string(latest.Currency)
		out.Reason = string(latest.Reason)
		out.FailureReason = string(latest.FailureReason)
	}
	return out
}
