package entitlements

import (
	"testing"
	"time"

	"github.com/codigarte/codigarte/app/models"
)

var now = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func premiumUser(started, expires *time.Time) *models.User {
	return &models.User{Premium: true, PremiumStartedAt: started, PremiumExpiresAt: expires}
}

func ts(t time.Time) *time.Time { return &t }

func TestIsActive(t *testing.T) {
	tests := []struct {
		name string
		user *models.User
		want bool
	}{
		{name: "nil user", user: nil, want: false},
		{name: "no premium", user: &models.User{}, want: false},
		{name: "premium no expiry", user: premiumUser(ts(now.Add(-time.Hour)), nil), want: true},
		{name: "premium before expiry", user: premiumUser(ts(now.Add(-time.Hour)), ts(now.Add(time.Hour))), want: true},
		{name: "premium at exact expiry", user: premiumUser(ts(now.Add(-time.Hour)), ts(now)), want: true},
		{name: "premium past expiry", user: premiumUser(ts(now.Add(-time.Hour)), ts(now.Add(-time.Second))), want: false},
		{
			name: "cancelled premium",
			user: &models.User{Premium: true, PremiumCancelled: true, PremiumExpiresAt: ts(now.Add(time.Hour))},
			want: false,
		},
	}

	for _, tt := range tests {
		if got := IsActive(tt.user, now); got != tt.want {
			t.Fatalf("%s: IsActive = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestExpireIfNeeded(t *testing.T) {
	u := premiumUser(ts(now.Add(-31*24*time.Hour)), ts(now.Add(-24*time.Hour)))
	u.PremiumCancelled = true

	if !ExpireIfNeeded(u, now) {
		t.Fatalf("expected expiry to fire")
	}
	if u.Premium || u.PremiumCancelled || u.PremiumStartedAt != nil || u.PremiumExpiresAt != nil {
		t.Fatalf("expected all premium fields cleared, got %+v", u)
	}

	// Second call: nothing left to expire.
	if ExpireIfNeeded(u, now) {
		t.Fatalf("expected no-op after fields were cleared")
	}
}

func TestExpireIfNeeded_NotYetExpired(t *testing.T) {
	u := premiumUser(ts(now.Add(-time.Hour)), ts(now.Add(time.Hour)))

	if ExpireIfNeeded(u, now) {
		t.Fatalf("expected no expiry before the deadline")
	}
	if !u.Premium {
		t.Fatalf("premium flag must survive")
	}
}

func TestExpireIfNeeded_NoExpirySet(t *testing.T) {
	u := premiumUser(ts(now.Add(-time.Hour)), nil)

	if ExpireIfNeeded(u, now) {
		t.Fatalf("expected no expiry when no deadline is set")
	}
}

func TestSubscriptionRefundable_Boundary(t *testing.T) {
	// Exactly seven days: eligible (inclusive comparison).
	u := premiumUser(ts(now.Add(-SubscriptionRefundWindow)), nil)
	if !SubscriptionRefundable(u, now) {
		t.Fatalf("expected refundable at exactly seven days")
	}

	// Seven days and one second: no longer eligible.
	u = premiumUser(ts(now.Add(-SubscriptionRefundWindow-time.Second)), nil)
	if SubscriptionRefundable(u, now) {
		t.Fatalf("expected not refundable past seven days")
	}

	if SubscriptionRefundable(&models.User{}, now) {
		t.Fatalf("expected not refundable without a start date")
	}
}

func TestGrantAndRevokePremium(t *testing.T) {
	u := &models.User{}

	GrantPremium(u, now)
	if !IsActive(u, now) {
		t.Fatalf("expected entitlement active after grant")
	}
	if u.PremiumExpiresAt == nil || !u.PremiumExpiresAt.Equal(now.Add(30*24*time.Hour)) {
		t.Fatalf("expected 30-day expiry, got %v", u.PremiumExpiresAt)
	}

	RevokePremium(u)
	if IsActive(u, now) {
		t.Fatalf("expected entitlement inactive after revoke")
	}
	if !u.PremiumCancelled {
		t.Fatalf("expected cancelled flag set after revoke")
	}
}
