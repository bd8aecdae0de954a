// Package payments is the thin adapter in front of the Stripe API. Business
// logic only ever sees the Gateway interface and the typed structs defined
// here; Stripe types never leak past this boundary.
package payments

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

const (
	CheckoutModeSubscription = "subscription"
	CheckoutModePayment      = "payment"
)

const (
	RefundStatusSucceeded = "succeeded"
	RefundStatusFailed    = "failed"
	RefundStatusPending   = "pending"
)

// CheckoutSessionParams describes a checkout session to create.
type CheckoutSessionParams struct {
	PriceID       string
	Mode          string
	CustomerEmail string
	Metadata      map[string]string
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the created session reference the shop redirects to.
type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutSessionDetails carries the fields needed to reconcile a finished
// checkout when it is re-fetched (payment-success fallback for a missed
// webhook).
type CheckoutSessionDetails struct {
	ID              string
	PaymentIntentID string
	PaymentStatus   string
	Metadata        map[string]string
}

// Paid reports whether the session's payment went through.
func (d *CheckoutSessionDetails) Paid() bool {
	return d.PaymentStatus == string(stripe.CheckoutSessionPaymentStatusPaid)
}

// Price is the existence-check result for a configured price id.
type Price struct {
	ID         string
	UnitAmount int64
	Currency   string
}

// RefundParams describes a refund to create. AmountCents nil means a full
// refund; otherwise a partial refund of that many cents.
type RefundParams struct {
	PaymentIntentID string
	AmountCents     *int64
	Metadata        map[string]string
}

// Refund mirrors the gateway's view of a refund.
type Refund struct {
	ID            string
	Status        string
	Amount        int64
	Currency      string
	Reason        string
	FailureReason string
}

// Gateway is the narrow operation set this application needs from the
// payment processor.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error)
	RetrieveCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSessionDetails, error)
	RetrievePrice(ctx context.Context, priceID string) (*Price, error)
	CreateRefund(ctx context.Context, params RefundParams) (*Refund, error)
	RetrieveRefund(ctx context.Context, refundID string) (*Refund, error)
}

type stripeGateway struct {
	api *client.API
}

// NewStripeGateway creates a Gateway bound to the given secret key. The key
// lives on the client, not in package-level state.
func NewStripeGateway(secretKey string) Gateway {
	api := &client.API{}
	api.Init(strings.TrimSpace(secretKey), nil)
	return &stripeGateway{api: api}
}

func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	p := &stripe.CheckoutSessionParams{
		Mode: stripe.String(params.Mode),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(params.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:    stripe.String(params.SuccessURL),
		CancelURL:     stripe.String(params.CancelURL),
		CustomerEmail: stripe.String(params.CustomerEmail),
	}
	p.Context = ctx
	for k, v := range params.Metadata {
		p.AddMetadata(k, v)
	}

	sess, err := g.api.CheckoutSessions.New(p)
	if err != nil {
		return nil, err
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (g *stripeGateway) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSessionDetails, error) {
	p := &stripe.CheckoutSessionParams{}
	p.Context = ctx

	sess, err := g.api.CheckoutSessions.Get(sessionID, p)
	if err != nil {
		return nil, err
	}
	return checkoutDetailsFromSession(sess), nil
}

func (g *stripeGateway) RetrievePrice(ctx context.Context, priceID string) (*Price, error) {
	p := &stripe.PriceParams{}
	p.Context = ctx

	price, err := g.api.Prices.Get(priceID, p)
	if err != nil {
		return nil, err
	}
	return &Price{ID: price.ID, UnitAmount: price.UnitAmount, Currency: string(price.Currency)}, nil
}

func (g *stripeGateway) CreateRefund(ctx context.Context, params RefundParams) (*Refund, error) {
	p := &stripe.RefundParams{
		PaymentIntent: stripe.String(params.PaymentIntentID),
	}
	p.Context = ctx
	if params.AmountCents != nil {
		p.Amount = stripe.Int64(*params.AmountCents)
	}
	for k, v := range params.Metadata {
		p.AddMetadata(k, v)
	}
	// Retried creation attempts must not issue a second refund.
	p.SetIdempotencyKey(uuid.NewString())

	refund, err := g.api.Refunds.New(p)
	if err != nil {
		return nil, err
	}
	return refundFromStripe(refund), nil
}

func (g *stripeGateway) RetrieveRefund(ctx context.Context, refundID string) (*Refund, error) {
	p := &stripe.RefundParams{}
	p.Context = ctx

	refund, err := g.api.Refunds.Get(refundID, p)
	if err != nil {
		return nil, err
	}
	return refundFromStripe(refund), nil
}

func refundFromStripe(r *stripe.Refund) *Refund {
	out := &Refund{
		ID:            r.ID,
		Status:        string(r.Status),
		Amount:        r.Amount,
		Currency:      string(r.Currency),
		Reason:        string(r.Reason),
		FailureReason: string(r.FailureReason),
	}
	return out
}

func checkoutDetailsFromSession(sess *stripe.CheckoutSession) *CheckoutSessionDetails {
	details := &CheckoutSessionDetails{
		ID:            sess.ID,
		PaymentStatus: string(sess.PaymentStatus),
		Metadata:      sess.Metadata,
	}
	if sess.PaymentIntent != nil {
		details.PaymentIntentID = sess.PaymentIntent.ID
	}
	return details
}
