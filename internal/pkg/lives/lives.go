// Package lives implements the time-based regeneration of the free life pool.
// Everything here is a pure function of the clock value passed in; callers are
// responsible for persisting the returned state.
package lives

import "time"

const (
	// Cap is the maximum number of free lives a non-premium user can hold.
	Cap = 3

	// RegenWindow is how long it takes to regenerate a single life.
	RegenWindow = 1800 * time.Second
)

// Regenerate computes the life count after applying elapsed regeneration.
//
// The returned anchor replaces the stored last-regeneration timestamp. When
// the anchor moves it always moves to now, even if the gained lives were
// capped. Partial progress beyond the cap is intentionally discarded; this
// mirrors the shipped behavior and must not be "fixed" without a product
// decision.
//
// A nil anchor means the user was never touched by regeneration: the anchor
// is initialized to now and no life is granted yet.
func Regenerate(now time.Time, lastRegen *time.Time, count int, premiumActive bool) (int, *time.Time) {
	if premiumActive {
		// Premium users have effectively unlimited lives; the anchor is left
		// untouched so nothing restarts when the subscription lapses.
		return count, lastRegen
	}
	if count >= Cap {
		return count, lastRegen
	}

	now = now.UTC()
	if lastRegen == nil {
		anchor := now
		return count, &anchor
	}

	elapsed := now.Sub(lastRegen.UTC())
	if elapsed < RegenWindow {
		return count, lastRegen
	}

	gained := int(elapsed / RegenWindow)
	count += gained
	if count > Cap {
		count = Cap
	}
	anchor := now
	return count, &anchor
}

// TimeToNext returns the whole seconds until the next free life is available.
// Zero means a life is ready now (or lives are not a constraint: premium, or
// the pool is already full).
func TimeToNext(now time.Time, lastRegen *time.Time, count int, premiumActive bool) int {
	if premiumActive {
		return 0
	}
	if count >= Cap {
		return 0
	}
	if lastRegen == nil {
		return int(RegenWindow / time.Second)
	}

	elapsed := now.UTC().Sub(lastRegen.UTC())
	remaining := RegenWindow - elapsed
	if remaining < 0 {
		return 0
	}
	return int(remaining / time.Second)
}
