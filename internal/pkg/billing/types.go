package billing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/codigarte/codigarte/app/models"
)

// Validation failures returned to callers. These carry no internal detail and
// are safe to surface to the end user.
var (
	ErrAlreadyPremium       = errors.New("user already has an active premium subscription")
	ErrPremiumNotNeeded     = errors.New("premium users do not need to buy lives")
	ErrNoPremiumToCancel    = errors.New("user has no premium subscription to cancel")
	ErrAlreadyCancelled     = errors.New("subscription was already cancelled")
	ErrInvalidPackageSize   = errors.New("invalid lives package size")
	ErrPriceNotConfigured   = errors.New("price configuration not found")
	ErrPriceNotFound        = errors.New("price not found at the payment gateway")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrNotLivesPackage      = errors.New("transaction is not a lives package")
	ErrRefundWindowExpired  = errors.New("the 7-day refund window has expired")
	ErrAllLivesUsed         = errors.New("all purchased lives were already used")
	ErrMissingPaymentIntent = errors.New("transaction has no payment intent to refund against")
)

// CheckoutResult is returned after a checkout session was created and the
// pending ledger row persisted.
type CheckoutResult struct {
	CheckoutURL string
	Transaction *models.Transaction
}

// CancellationResult reports what a subscription cancellation did. Refunded
// and RefundFailed distinguish "cancelled, refund pending" from "cancelled,
// but the refund call failed"; in both cases the entitlement is already gone.
type CancellationResult struct {
	Refunded     bool
	RefundFailed bool
	RefundID     string
	RefundStatus string
	RefundAmount decimal.Decimal
	PublicID     string

	// PremiumUntil is set for out-of-window cancellations, where the user
	// keeps the benefits until the natural expiry date.
	PremiumUntil *time.Time
}

// LivesRefundResult reports a processed lives-package refund request.
type LivesRefundResult struct {
	RefundID     string
	RefundStatus string
	RefundAmount decimal.Decimal
	LivesRemoved int
}
