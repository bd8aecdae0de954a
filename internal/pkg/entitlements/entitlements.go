// Package entitlements derives the user's effective premium status from the
// persisted subscription flags. Expiry is lazy: nothing pushes a premium
// downgrade, it is applied on the next read through ExpireIfNeeded, which the
// request middleware runs before any entitlement-gated decision.
package entitlements

import (
	"time"

	"github.com/codigarte/codigarte/app/models"
)

// SubscriptionRefundWindow is how long after the subscription start a
// cancellation still qualifies for a full refund. The comparison is
// inclusive: exactly seven days is still within the window.
const SubscriptionRefundWindow = 7 * 24 * time.Hour

// IsActive reports whether the user currently holds a premium entitlement:
// the premium flag is set, the subscription was not cancelled, and the expiry
// (when present) has not passed.
func IsActive(u *models.User, now time.Time) bool {
	if u == nil || !u.Premium {
		return false
	}
	if u.PremiumCancelled {
		return false
	}
	if u.PremiumExpiresAt != nil && now.UTC().After(u.PremiumExpiresAt.UTC()) {
		return false
	}
	return true
}

// ExpireIfNeeded clears a premium subscription that has passed its expiry and
// reports whether it did. The caller persists the user. This must run before
// life regeneration or any premium-gated check so both see correct state.
func ExpireIfNeeded(u *models.User, now time.Time) bool {
	if u == nil || !u.Premium || u.PremiumExpiresAt == nil {
		return false
	}
	if !now.UTC().After(u.PremiumExpiresAt.UTC()) {
		return false
	}

	u.Premium = false
	u.PremiumCancelled = false
	u.PremiumStartedAt = nil
	u.PremiumExpiresAt = nil
	return true
}

// SubscriptionRefundable reports whether the user's running subscription is
// still inside the refund window.
func SubscriptionRefundable(u *models.User, now time.Time) bool {
	if u == nil || u.PremiumStartedAt == nil {
		return false
	}
	return now.UTC().Sub(u.PremiumStartedAt.UTC()) <= SubscriptionRefundWindow
}

// GrantPremium activates a 30-day premium subscription starting at now.
func GrantPremium(u *models.User, now time.Time) {
	start := now.UTC()
	expiry := start.Add(30 * 24 * time.Hour)
	u.Premium = true
	u.PremiumCancelled = false
	u.PremiumStartedAt = &start
	u.PremiumExpiresAt = &expiry
}

// RevokePremium removes the entitlement immediately. Used on within-window
// cancellations, where consumer-protection rules require the paid access to
// end at once regardless of how the refund call went.
func RevokePremium(u *models.User) {
	u.Premium = false
	u.PremiumCancelled = true
	u.PremiumStartedAt = nil
	u.PremiumExpiresAt = nil
}
